package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"classhub/internal/common"
	"classhub/internal/domain/model"
)

type GradingJobRepository interface {
	CreateJob(ctx context.Context, tx *sql.Tx, job *model.GradingJob) error
	GetJobByID(ctx context.Context, id string) (*model.GradingJob, error)
	GetJobBySubmissionID(ctx context.Context, submissionID string) (*model.GradingJob, error)
	UpdateJobStatus(ctx context.Context, tx *sql.Tx, jobID string, status string, lastError *string) error
	IncrementJobAttempts(ctx context.Context, jobID string) error
}

type pgGradingJobRepository struct {
	db *sql.DB
}

func NewPgGradingJobRepository(db *sql.DB) GradingJobRepository {
	return &pgGradingJobRepository{db: db}
}

func (r *pgGradingJobRepository) CreateJob(ctx context.Context, tx *sql.Tx, job *model.GradingJob) error {
	query := `INSERT INTO grading_jobs (id, submission_id, job_type, payload, status)
	          VALUES ($1, $2, $3, $4, $5)`
	var err error
	if tx != nil {
		_, err = tx.ExecContext(ctx, query, job.ID, job.SubmissionID, job.JobType, job.Payload, job.Status)
	} else {
		_, err = r.db.ExecContext(ctx, query, job.ID, job.SubmissionID, job.JobType, job.Payload, job.Status)
	}
	if err != nil {
		return fmt.Errorf("pgGradingJobRepository.CreateJob: %w", err)
	}
	return nil
}

func (r *pgGradingJobRepository) GetJobByID(ctx context.Context, id string) (*model.GradingJob, error) {
	query := `SELECT id, submission_id, job_type, payload, status, attempts, last_error, created_at, updated_at
	          FROM grading_jobs WHERE id = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id), "GetJobByID")
}

func (r *pgGradingJobRepository) GetJobBySubmissionID(ctx context.Context, submissionID string) (*model.GradingJob, error) {
	query := `SELECT id, submission_id, job_type, payload, status, attempts, last_error, created_at, updated_at
	          FROM grading_jobs WHERE submission_id = $1
	          ORDER BY created_at DESC LIMIT 1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, submissionID), "GetJobBySubmissionID")
}

func (r *pgGradingJobRepository) UpdateJobStatus(ctx context.Context, tx *sql.Tx, jobID string, status string, lastError *string) error {
	query := `UPDATE grading_jobs SET status = $1, last_error = $2, updated_at = CURRENT_TIMESTAMP WHERE id = $3`
	var err error
	if tx != nil {
		_, err = tx.ExecContext(ctx, query, status, lastError, jobID)
	} else {
		_, err = r.db.ExecContext(ctx, query, status, lastError, jobID)
	}
	if err != nil {
		return fmt.Errorf("pgGradingJobRepository.UpdateJobStatus: %w", err)
	}
	return nil
}

func (r *pgGradingJobRepository) IncrementJobAttempts(ctx context.Context, jobID string) error {
	query := `UPDATE grading_jobs SET attempts = attempts + 1, updated_at = CURRENT_TIMESTAMP WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, jobID); err != nil {
		return fmt.Errorf("pgGradingJobRepository.IncrementJobAttempts: %w", err)
	}
	return nil
}

func (r *pgGradingJobRepository) scanOne(row *sql.Row, op string) (*model.GradingJob, error) {
	job := &model.GradingJob{}
	err := row.Scan(
		&job.ID, &job.SubmissionID, &job.JobType, &job.Payload, &job.Status,
		&job.Attempts, &job.LastError, &job.CreatedAt, &job.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgGradingJobRepository.%s: %w", op, err)
	}
	return job, nil
}
