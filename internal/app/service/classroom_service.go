package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"classhub/internal/common"
	"classhub/internal/domain/model"
	"classhub/internal/domain/repository"

	"github.com/google/uuid"
)

const codeCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

type ClassroomService struct {
	classroomRepo  repository.ClassroomRepository
	membershipRepo repository.MembershipRepository

	codeLength     int
	maxGenAttempts int
}

func NewClassroomService(
	classroomRepo repository.ClassroomRepository,
	membershipRepo repository.MembershipRepository,
	codeLength, maxGenAttempts int,
) *ClassroomService {
	if codeLength < model.ClassroomCodeMinLen || codeLength > model.ClassroomCodeMaxLen {
		codeLength = model.ClassroomCodeMinLen
	}
	if maxGenAttempts <= 0 {
		maxGenAttempts = 5
	}
	return &ClassroomService{
		classroomRepo:  classroomRepo,
		membershipRepo: membershipRepo,
		codeLength:     codeLength,
		maxGenAttempts: maxGenAttempts,
	}
}

type CreateClassroomRequest struct {
	Name    string  `json:"name" validate:"required,max=120"`
	Details *string `json:"details,omitempty"`
	Code    string  `json:"code,omitempty"` // optional; generated when empty
}

// CreateClassroom persists a classroom under a system-wide unique join code.
// A supplied code is normalized to uppercase and must be 6-10 alphanumerics;
// an omitted code is generated randomly, retrying on collision until the
// attempt budget runs out.
func (s *ClassroomService) CreateClassroom(ctx context.Context, ownerID string, req CreateClassroomRequest) (*model.Classroom, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, common.Errorf("name is required: %w", common.ErrBadRequest)
	}

	classroom := &model.Classroom{
		ID:      uuid.NewString(),
		Name:    strings.TrimSpace(req.Name),
		Details: req.Details,
		OwnerID: ownerID,
	}

	if req.Code != "" {
		code := NormalizeCode(req.Code)
		if err := validateCode(code); err != nil {
			return nil, err
		}
		// The unique index is the real guard; this check just gives a clean
		// Conflict without burning an insert.
		taken, err := s.classroomRepo.CodeExists(ctx, code)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, common.Errorf("classroom code %q already taken: %w", code, common.ErrConflict)
		}
		classroom.Code = code
		if err := s.classroomRepo.Create(ctx, classroom); err != nil {
			return nil, err
		}
		return classroom, nil
	}

	// Random generation can collide; loop with fresh codes and let the unique
	// index arbitrate races between concurrent creations.
	for attempt := 0; attempt < s.maxGenAttempts; attempt++ {
		code, err := randomCode(s.codeLength)
		if err != nil {
			return nil, fmt.Errorf("classroom code generation: %w", err)
		}
		taken, err := s.classroomRepo.CodeExists(ctx, code)
		if err != nil {
			return nil, err
		}
		if taken {
			continue
		}
		classroom.Code = code
		err = s.classroomRepo.Create(ctx, classroom)
		if err == nil {
			return classroom, nil
		}
		if errors.Is(err, common.ErrConflict) {
			continue // lost the race for this code, try another
		}
		return nil, err
	}
	return nil, common.Errorf("could not find a free classroom code after %d attempts: %w", s.maxGenAttempts, common.ErrExhausted)
}

// GetByID resolves a classroom for its owner or one of its members. Anyone
// else gets ErrNotFound, same as a missing id.
func (s *ClassroomService) GetByID(ctx context.Context, classroomID, requesterID, requesterRole string) (*model.Classroom, error) {
	classroom, err := s.classroomRepo.FindByID(ctx, classroomID)
	if err != nil {
		return nil, err
	}
	if classroom.OwnerID == requesterID {
		return classroom, nil
	}
	if requesterRole == model.RoleStudent {
		member, err := s.membershipRepo.Exists(ctx, requesterID, classroomID)
		if err != nil {
			return nil, err
		}
		if member {
			return classroom, nil
		}
	}
	return nil, common.ErrNotFound
}

// GetByCode resolves a classroom by its join code. Students may look up any
// code (they need to, to join); a lecturer may only look up their own.
func (s *ClassroomService) GetByCode(ctx context.Context, code, requesterID, requesterRole string) (*model.Classroom, error) {
	classroom, err := s.classroomRepo.FindByCode(ctx, NormalizeCode(code))
	if err != nil {
		return nil, err
	}
	if requesterRole == model.RoleLecturer && classroom.OwnerID != requesterID {
		return nil, common.ErrForbidden
	}
	return classroom, nil
}

// ListMine returns owned classrooms for lecturers, joined ones for students.
func (s *ClassroomService) ListMine(ctx context.Context, userID, role string) ([]model.Classroom, error) {
	if role == model.RoleLecturer {
		return s.classroomRepo.ListByOwner(ctx, userID)
	}
	return s.classroomRepo.ListByStudent(ctx, userID)
}

func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func validateCode(code string) error {
	if len(code) < model.ClassroomCodeMinLen || len(code) > model.ClassroomCodeMaxLen {
		return common.Errorf("code must be %d-%d characters: %w",
			model.ClassroomCodeMinLen, model.ClassroomCodeMaxLen, common.ErrValidation)
	}
	for _, r := range code {
		if !strings.ContainsRune(codeCharset, r) {
			return common.Errorf("code may only contain letters and digits: %w", common.ErrValidation)
		}
	}
	return nil
}

func randomCode(length int) (string, error) {
	code := make([]byte, length)
	for i := range code {
		idx, err := rand.Int(rand.Reader, big.NewInt(int64(len(codeCharset))))
		if err != nil {
			return "", err
		}
		code[i] = codeCharset[idx.Int64()]
	}
	return string(code), nil
}
