package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"classhub/internal/common"
	"classhub/internal/domain/model"
)

type SubmissionRepository interface {
	// Upsert inserts a submission or, when a row already exists for the same
	// (student, assignment) pair, replaces its file reference and resets the
	// row to an ungraded state. The write is a single atomic statement keyed
	// on the pair's unique index, so concurrent submits cannot duplicate rows.
	// The submission's ID and SubmittedAt are overwritten with the stored values.
	Upsert(ctx context.Context, tx *sql.Tx, sub *model.Submission) error
	FindByID(ctx context.Context, id string) (*model.Submission, error)
	FindByStudentAndAssignment(ctx context.Context, studentID, assignmentID string) (*model.Submission, error)
	ListByAssignment(ctx context.Context, assignmentID string) ([]model.Submission, error)
	SetGrade(ctx context.Context, id string, mark float64, feedback *string, graderID string, gradedAt time.Time) (*model.Submission, error)
	SetReturned(ctx context.Context, id string) (*model.Submission, error)
	SetAIResult(ctx context.Context, id string, score float64, feedback string) error
}

type pgSubmissionRepository struct {
	db *sql.DB
}

func NewPgSubmissionRepository(db *sql.DB) SubmissionRepository {
	return &pgSubmissionRepository{db: db}
}

const submissionColumns = `id, student_id, assignment_id, file_ref, status, mark, feedback,
	graded_at, grader_id, ai_score, ai_feedback, submitted_at, updated_at`

func (r *pgSubmissionRepository) Upsert(ctx context.Context, tx *sql.Tx, sub *model.Submission) error {
	query := `INSERT INTO submissions (id, student_id, assignment_id, file_ref, status, submitted_at)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          ON CONFLICT (student_id, assignment_id) DO UPDATE SET
	              file_ref = EXCLUDED.file_ref,
	              status = EXCLUDED.status,
	              submitted_at = EXCLUDED.submitted_at,
	              mark = NULL, feedback = NULL, graded_at = NULL, grader_id = NULL,
	              ai_score = NULL, ai_feedback = NULL,
	              updated_at = CURRENT_TIMESTAMP
	          RETURNING id, submitted_at`

	row := queryRow(ctx, r.db, tx, query, sub.ID, sub.StudentID, sub.AssignmentID, sub.FileRef, sub.Status, sub.SubmittedAt)
	if err := row.Scan(&sub.ID, &sub.SubmittedAt); err != nil {
		return fmt.Errorf("pgSubmissionRepository.Upsert: %w", err)
	}
	return nil
}

func (r *pgSubmissionRepository) FindByID(ctx context.Context, id string) (*model.Submission, error) {
	query := `SELECT ` + submissionColumns + ` FROM submissions WHERE id = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id), "FindByID")
}

func (r *pgSubmissionRepository) FindByStudentAndAssignment(ctx context.Context, studentID, assignmentID string) (*model.Submission, error) {
	query := `SELECT ` + submissionColumns + ` FROM submissions WHERE student_id = $1 AND assignment_id = $2`
	return r.scanOne(r.db.QueryRowContext(ctx, query, studentID, assignmentID), "FindByStudentAndAssignment")
}

func (r *pgSubmissionRepository) ListByAssignment(ctx context.Context, assignmentID string) ([]model.Submission, error) {
	query := `SELECT s.id, s.student_id, s.assignment_id, s.file_ref, s.status, s.mark, s.feedback,
	                 s.graded_at, s.grader_id, s.ai_score, s.ai_feedback, s.submitted_at, s.updated_at,
	                 u.name AS student_name
	          FROM submissions s
	          JOIN users u ON u.id = s.student_id
	          WHERE s.assignment_id = $1
	          ORDER BY s.submitted_at DESC`
	rows, err := r.db.QueryContext(ctx, query, assignmentID)
	if err != nil {
		return nil, fmt.Errorf("pgSubmissionRepository.ListByAssignment: %w", err)
	}
	defer rows.Close()

	var subs []model.Submission
	for rows.Next() {
		var s model.Submission
		if err := rows.Scan(
			&s.ID, &s.StudentID, &s.AssignmentID, &s.FileRef, &s.Status, &s.Mark, &s.Feedback,
			&s.GradedAt, &s.GraderID, &s.AIScore, &s.AIFeedback, &s.SubmittedAt, &s.UpdatedAt,
			&s.StudentName,
		); err != nil {
			return nil, fmt.Errorf("pgSubmissionRepository.ListByAssignment: %w", err)
		}
		subs = append(subs, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgSubmissionRepository.ListByAssignment: %w", err)
	}
	return subs, nil
}

// SetGrade stamps mark, feedback, grader and graded_at in one statement; this
// is the only write that moves a submission to the graded status.
func (r *pgSubmissionRepository) SetGrade(ctx context.Context, id string, mark float64, feedback *string, graderID string, gradedAt time.Time) (*model.Submission, error) {
	query := `UPDATE submissions SET
	              mark = $1, feedback = $2, grader_id = $3, graded_at = $4,
	              status = $5, updated_at = CURRENT_TIMESTAMP
	          WHERE id = $6
	          RETURNING ` + submissionColumns
	return r.scanOne(r.db.QueryRowContext(ctx, query, mark, feedback, graderID, gradedAt, model.StatusGraded, id), "SetGrade")
}

func (r *pgSubmissionRepository) SetReturned(ctx context.Context, id string) (*model.Submission, error) {
	query := `UPDATE submissions SET status = $1, updated_at = CURRENT_TIMESTAMP
	          WHERE id = $2 AND status = $3
	          RETURNING ` + submissionColumns
	return r.scanOne(r.db.QueryRowContext(ctx, query, model.StatusReturned, id, model.StatusGraded), "SetReturned")
}

func (r *pgSubmissionRepository) SetAIResult(ctx context.Context, id string, score float64, feedback string) error {
	query := `UPDATE submissions SET ai_score = $1, ai_feedback = $2, updated_at = CURRENT_TIMESTAMP WHERE id = $3`
	res, err := r.db.ExecContext(ctx, query, score, feedback, id)
	if err != nil {
		return fmt.Errorf("pgSubmissionRepository.SetAIResult: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *pgSubmissionRepository) scanOne(row *sql.Row, op string) (*model.Submission, error) {
	s := &model.Submission{}
	err := row.Scan(
		&s.ID, &s.StudentID, &s.AssignmentID, &s.FileRef, &s.Status, &s.Mark, &s.Feedback,
		&s.GradedAt, &s.GraderID, &s.AIScore, &s.AIFeedback, &s.SubmittedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgSubmissionRepository.%s: %w", op, err)
	}
	return s, nil
}

// queryRow runs against the transaction when one is supplied.
func queryRow(ctx context.Context, db *sql.DB, tx *sql.Tx, query string, args ...interface{}) *sql.Row {
	if tx != nil {
		return tx.QueryRowContext(ctx, query, args...)
	}
	return db.QueryRowContext(ctx, query, args...)
}
