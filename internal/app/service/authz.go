package service

import (
	"context"

	"classhub/internal/common"
	"classhub/internal/domain/model"
	"classhub/internal/domain/repository"
)

// Ownership predicates shared by every operation that walks the
// lecturer -> classroom -> assignment -> submission chain. All of them mask
// ownership violations as ErrNotFound so a non-owner cannot learn whether
// somebody else's resource exists.

func ownedClassroom(ctx context.Context, repo repository.ClassroomRepository, classroomID, lecturerID string) (*model.Classroom, error) {
	classroom, err := repo.FindByID(ctx, classroomID)
	if err != nil {
		return nil, err
	}
	if classroom.OwnerID != lecturerID {
		return nil, common.ErrNotFound
	}
	return classroom, nil
}

func assignmentInClassroom(ctx context.Context, repo repository.AssignmentRepository, assignmentID, classroomID string) (*model.Assignment, error) {
	assignment, err := repo.FindByID(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	if assignment.ClassroomID != classroomID {
		return nil, common.ErrNotFound
	}
	return assignment, nil
}

func submissionInAssignment(ctx context.Context, repo repository.SubmissionRepository, submissionID, assignmentID string) (*model.Submission, error) {
	submission, err := repo.FindByID(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	if submission.AssignmentID != assignmentID {
		return nil, common.ErrNotFound
	}
	return submission, nil
}
