package service

import (
	"context"
	"database/sql"
	"math"
	"time"

	"classhub/internal/common"
	"classhub/internal/domain/model"
	"classhub/internal/domain/repository"

	"github.com/google/uuid"
)

// GradingEnqueuer is what Submit needs from the grading pipeline. The job
// record must ride the submit transaction, hence the tx parameter.
type GradingEnqueuer interface {
	EnqueueAIPreGradeJob(ctx context.Context, tx *sql.Tx, submissionID, fileRef string) (*model.GradingJob, error)
}

type SubmissionService struct {
	submissionRepo repository.SubmissionRepository
	assignmentRepo repository.AssignmentRepository
	classroomRepo  repository.ClassroomRepository
	membershipRepo repository.MembershipRepository
	enqueuer       GradingEnqueuer
	db             *sql.DB // for the submit transaction
}

func NewSubmissionService(
	submissionRepo repository.SubmissionRepository,
	assignmentRepo repository.AssignmentRepository,
	classroomRepo repository.ClassroomRepository,
	membershipRepo repository.MembershipRepository,
	enqueuer GradingEnqueuer,
	db *sql.DB,
) *SubmissionService {
	return &SubmissionService{
		submissionRepo: submissionRepo,
		assignmentRepo: assignmentRepo,
		classroomRepo:  classroomRepo,
		membershipRepo: membershipRepo,
		enqueuer:       enqueuer,
		db:             db,
	}
}

type SubmitRequest struct {
	FileRef string `json:"file_ref" validate:"required"`
}

type GradeRequest struct {
	Mark     float64 `json:"mark" validate:"min=0,max=100"`
	Feedback *string `json:"feedback,omitempty"`
}

// Submit records the student's deliverable for an assignment. Submitting
// again for the same assignment replaces the stored file and resets the row
// to an ungraded state; the prior grade is deliberately lost because it was
// attached to a file that no longer exists. Lateness is decided here, against
// the due date at submission time, and never revisited.
func (s *SubmissionService) Submit(ctx context.Context, studentID, assignmentID, fileRef string) (*model.Submission, error) {
	if fileRef == "" {
		return nil, common.Errorf("file_ref is required: %w", common.ErrBadRequest)
	}

	assignment, err := s.assignmentRepo.FindByID(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	member, err := s.membershipRepo.Exists(ctx, studentID, assignment.ClassroomID)
	if err != nil {
		return nil, err
	}
	if !member {
		return nil, common.ErrNotFound // not enrolled; masked like a missing assignment
	}

	now := time.Now().UTC()
	status := model.StatusSubmitted
	if assignment.DueDate != nil && now.After(*assignment.DueDate) {
		status = model.StatusLate
	}

	submission := &model.Submission{
		ID:           uuid.NewString(),
		StudentID:    studentID,
		AssignmentID: assignmentID,
		FileRef:      fileRef,
		Status:       status,
		SubmittedAt:  now,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, common.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Single upsert statement; concurrent submits for the same pair serialize
	// on the (student_id, assignment_id) unique index instead of racing a
	// read-then-write.
	if err := s.submissionRepo.Upsert(ctx, tx, submission); err != nil {
		return nil, err
	}

	if _, err := s.enqueuer.EnqueueAIPreGradeJob(ctx, tx, submission.ID, fileRef); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, common.Errorf("failed to commit submission: %w", err)
	}
	return submission, nil
}

// Grade attaches a mark and feedback to a submission. The lecturer must own
// the classroom, the assignment must belong to it, and the submission to the
// assignment; any mismatch reads as NotFound. Setting the mark is the one and
// only transition to the graded status, and graded_at is stamped in the same
// statement.
func (s *SubmissionService) Grade(ctx context.Context, lecturerID, classroomID, assignmentID, submissionID string, req GradeRequest) (*model.Submission, error) {
	if _, err := s.resolveChain(ctx, lecturerID, classroomID, assignmentID, submissionID); err != nil {
		return nil, err
	}

	if req.Mark < 0 || req.Mark > 100 {
		return nil, common.Errorf("mark must be between 0 and 100: %w", common.ErrValidation)
	}
	mark := math.Round(req.Mark*100) / 100 // two-decimal marks

	return s.submissionRepo.SetGrade(ctx, submissionID, mark, req.Feedback, lecturerID, time.Now().UTC())
}

// Return hands a graded submission back to the student.
func (s *SubmissionService) Return(ctx context.Context, lecturerID, classroomID, assignmentID, submissionID string) (*model.Submission, error) {
	submission, err := s.resolveChain(ctx, lecturerID, classroomID, assignmentID, submissionID)
	if err != nil {
		return nil, err
	}
	if submission.Status != model.StatusGraded {
		return nil, common.Errorf("only graded submissions can be returned: %w", common.ErrValidation)
	}
	return s.submissionRepo.SetReturned(ctx, submissionID)
}

// ListByAssignment returns submissions newest-first, owner-scoped.
func (s *SubmissionService) ListByAssignment(ctx context.Context, lecturerID, classroomID, assignmentID string) ([]model.Submission, error) {
	if _, err := ownedClassroom(ctx, s.classroomRepo, classroomID, lecturerID); err != nil {
		return nil, err
	}
	if _, err := assignmentInClassroom(ctx, s.assignmentRepo, assignmentID, classroomID); err != nil {
		return nil, err
	}
	return s.submissionRepo.ListByAssignment(ctx, assignmentID)
}

// FindMine returns the student's own submission for an assignment, if any.
func (s *SubmissionService) FindMine(ctx context.Context, studentID, assignmentID string) (*model.Submission, error) {
	return s.submissionRepo.FindByStudentAndAssignment(ctx, studentID, assignmentID)
}

func (s *SubmissionService) resolveChain(ctx context.Context, lecturerID, classroomID, assignmentID, submissionID string) (*model.Submission, error) {
	if _, err := ownedClassroom(ctx, s.classroomRepo, classroomID, lecturerID); err != nil {
		return nil, err
	}
	if _, err := assignmentInClassroom(ctx, s.assignmentRepo, assignmentID, classroomID); err != nil {
		return nil, err
	}
	return submissionInAssignment(ctx, s.submissionRepo, submissionID, assignmentID)
}
