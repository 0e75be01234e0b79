package service

import (
	"context"
	"time"

	"classhub/internal/domain/model"
	"classhub/internal/domain/repository"

	"github.com/google/uuid"
)

type MembershipService struct {
	membershipRepo repository.MembershipRepository
	classroomRepo  repository.ClassroomRepository
}

func NewMembershipService(
	membershipRepo repository.MembershipRepository,
	classroomRepo repository.ClassroomRepository,
) *MembershipService {
	return &MembershipService{membershipRepo: membershipRepo, classroomRepo: classroomRepo}
}

type JoinResult struct {
	Membership *model.Membership `json:"membership"`
	Classroom  *model.Classroom  `json:"classroom"`
}

// Join enrolls a student into the classroom behind a join code. An unknown
// code is ErrNotFound; joining twice is ErrConflict. The unique index on
// (student, classroom) decides races between concurrent joins.
func (s *MembershipService) Join(ctx context.Context, studentID, code string) (*JoinResult, error) {
	classroom, err := s.classroomRepo.FindByCode(ctx, NormalizeCode(code))
	if err != nil {
		return nil, err
	}

	membership := &model.Membership{
		ID:          uuid.NewString(),
		StudentID:   studentID,
		ClassroomID: classroom.ID,
		JoinedAt:    time.Now().UTC(),
	}
	if err := s.membershipRepo.Create(ctx, membership); err != nil {
		return nil, err
	}
	return &JoinResult{Membership: membership, Classroom: classroom}, nil
}

func (s *MembershipService) ListClassroomsForStudent(ctx context.Context, studentID string) ([]model.Classroom, error) {
	return s.classroomRepo.ListByStudent(ctx, studentID)
}

// ListStudents is owner-scoped: a lecturer can only see the roster of their
// own classroom.
func (s *MembershipService) ListStudents(ctx context.Context, lecturerID, classroomID string) ([]model.User, error) {
	if _, err := ownedClassroom(ctx, s.classroomRepo, classroomID, lecturerID); err != nil {
		return nil, err
	}
	return s.membershipRepo.ListStudentsByClassroom(ctx, classroomID)
}
