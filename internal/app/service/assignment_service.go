package service

import (
	"context"
	"strings"
	"time"

	"classhub/internal/common"
	"classhub/internal/domain/model"
	"classhub/internal/domain/repository"

	"github.com/google/uuid"
)

type AssignmentService struct {
	assignmentRepo repository.AssignmentRepository
	classroomRepo  repository.ClassroomRepository
	membershipRepo repository.MembershipRepository
}

func NewAssignmentService(
	assignmentRepo repository.AssignmentRepository,
	classroomRepo repository.ClassroomRepository,
	membershipRepo repository.MembershipRepository,
) *AssignmentService {
	return &AssignmentService{
		assignmentRepo: assignmentRepo,
		classroomRepo:  classroomRepo,
		membershipRepo: membershipRepo,
	}
}

type CreateAssignmentRequest struct {
	Title   string     `json:"title" validate:"required,max=180"`
	Details *string    `json:"details,omitempty"`
	DueDate *time.Time `json:"due_date,omitempty"`
}

// Create adds an assignment to a classroom the lecturer owns. A due date, when
// given, must lie strictly in the future; it is checked here once and never
// re-validated later.
func (s *AssignmentService) Create(ctx context.Context, lecturerID, classroomID string, req CreateAssignmentRequest) (*model.Assignment, error) {
	classroom, err := s.classroomRepo.FindByID(ctx, classroomID)
	if err != nil {
		return nil, err
	}
	if classroom.OwnerID != lecturerID {
		return nil, common.Errorf("only the classroom owner may create assignments: %w", common.ErrForbidden)
	}

	if strings.TrimSpace(req.Title) == "" {
		return nil, common.Errorf("title is required: %w", common.ErrBadRequest)
	}
	if req.DueDate != nil && !req.DueDate.After(time.Now()) {
		return nil, common.Errorf("due_date must be in the future: %w", common.ErrValidation)
	}

	assignment := &model.Assignment{
		ID:          uuid.NewString(),
		Title:       strings.TrimSpace(req.Title),
		Details:     req.Details,
		DueDate:     req.DueDate,
		OwnerID:     lecturerID,
		ClassroomID: classroomID,
	}
	if err := s.assignmentRepo.Create(ctx, assignment); err != nil {
		return nil, err
	}
	return assignment, nil
}

// ListByClassroom returns the classroom's assignments newest-first. Lecturers
// must own the classroom (masked as NotFound otherwise); students must be
// members.
func (s *AssignmentService) ListByClassroom(ctx context.Context, classroomID, requesterID, requesterRole string) ([]model.Assignment, error) {
	if err := s.canView(ctx, classroomID, requesterID, requesterRole); err != nil {
		return nil, err
	}
	return s.assignmentRepo.ListByClassroom(ctx, classroomID)
}

func (s *AssignmentService) GetByID(ctx context.Context, classroomID, assignmentID, requesterID, requesterRole string) (*model.Assignment, error) {
	if err := s.canView(ctx, classroomID, requesterID, requesterRole); err != nil {
		return nil, err
	}
	return assignmentInClassroom(ctx, s.assignmentRepo, assignmentID, classroomID)
}

func (s *AssignmentService) canView(ctx context.Context, classroomID, requesterID, requesterRole string) error {
	if requesterRole == model.RoleLecturer {
		_, err := ownedClassroom(ctx, s.classroomRepo, classroomID, requesterID)
		return err
	}
	member, err := s.membershipRepo.Exists(ctx, requesterID, classroomID)
	if err != nil {
		return err
	}
	if !member {
		return common.ErrNotFound
	}
	return nil
}
