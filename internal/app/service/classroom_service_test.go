package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"classhub/internal/common"
	"classhub/internal/domain/model"
)

func newClassroomService(db *memDB) *ClassroomService {
	return NewClassroomService(&memClassroomRepo{db: db}, &memMembershipRepo{db: db}, 6, 5)
}

func TestCreateClassroom_GeneratedCode(t *testing.T) {
	db := newMemDB()
	svc := newClassroomService(db)

	classroom, err := svc.CreateClassroom(context.Background(), "lect-1", CreateClassroomRequest{Name: "Algorithms"})
	require.NoError(t, err)
	require.NotNil(t, classroom)

	assert.Len(t, classroom.Code, 6)
	for _, r := range classroom.Code {
		assert.True(t, strings.ContainsRune(codeCharset, r), "code %q contains %q", classroom.Code, r)
	}
	assert.Equal(t, strings.ToUpper(classroom.Code), classroom.Code)

	stored, err := svc.GetByID(context.Background(), classroom.ID, "lect-1", model.RoleLecturer)
	require.NoError(t, err)
	assert.Equal(t, classroom.Code, stored.Code)
}

func TestCreateClassroom_SuppliedCode(t *testing.T) {
	db := newMemDB()
	svc := newClassroomService(db)
	ctx := context.Background()

	classroom, err := svc.CreateClassroom(ctx, "lect-1", CreateClassroomRequest{Name: "Databases", Code: "abc123"})
	require.NoError(t, err)
	assert.Equal(t, "ABC123", classroom.Code)

	// The same code again, in any casing, is a conflict.
	_, err = svc.CreateClassroom(ctx, "lect-2", CreateClassroomRequest{Name: "Networks", Code: "ABC123"})
	assert.ErrorIs(t, err, common.ErrConflict)
	_, err = svc.CreateClassroom(ctx, "lect-2", CreateClassroomRequest{Name: "Networks", Code: "abc123"})
	assert.ErrorIs(t, err, common.ErrConflict)
}

func TestCreateClassroom_SuppliedCodeValidation(t *testing.T) {
	svc := newClassroomService(newMemDB())
	ctx := context.Background()

	tests := []struct {
		name string
		code string
	}{
		{name: "too short", code: "abc"},
		{name: "too long", code: "abcdefghijk"},
		{name: "bad characters", code: "abc-12"},
		{name: "whitespace inside", code: "abc 123"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateClassroom(ctx, "lect-1", CreateClassroomRequest{Name: "X", Code: tt.code})
			assert.ErrorIs(t, err, common.ErrValidation)
		})
	}
}

// alwaysTakenRepo pretends every candidate code is already in use, forcing the
// generation loop to exhaust its attempt budget.
type alwaysTakenRepo struct {
	*memClassroomRepo
	checks int
}

func (r *alwaysTakenRepo) CodeExists(_ context.Context, _ string) (bool, error) {
	r.checks++
	return true, nil
}

func TestCreateClassroom_GenerationExhausted(t *testing.T) {
	db := newMemDB()
	repo := &alwaysTakenRepo{memClassroomRepo: &memClassroomRepo{db: db}}
	svc := NewClassroomService(repo, &memMembershipRepo{db: db}, 6, 5)

	_, err := svc.CreateClassroom(context.Background(), "lect-1", CreateClassroomRequest{Name: "Compilers"})
	assert.ErrorIs(t, err, common.ErrExhausted)
	assert.Equal(t, 5, repo.checks)
}

// takenNTimesRepo reports collisions for the first n candidates, then frees up.
type takenNTimesRepo struct {
	*memClassroomRepo
	n      int
	checks int
}

func (r *takenNTimesRepo) CodeExists(ctx context.Context, code string) (bool, error) {
	r.checks++
	if r.checks <= r.n {
		return true, nil
	}
	return r.memClassroomRepo.CodeExists(ctx, code)
}

func TestCreateClassroom_RetriesThenSucceeds(t *testing.T) {
	db := newMemDB()
	repo := &takenNTimesRepo{memClassroomRepo: &memClassroomRepo{db: db}, n: 3}
	svc := NewClassroomService(repo, &memMembershipRepo{db: db}, 6, 5)

	classroom, err := svc.CreateClassroom(context.Background(), "lect-1", CreateClassroomRequest{Name: "Compilers"})
	require.NoError(t, err)
	assert.Len(t, classroom.Code, 6)
	assert.Equal(t, 4, repo.checks)
}

func TestGetByID_Visibility(t *testing.T) {
	db := newMemDB()
	svc := newClassroomService(db)
	ctx := context.Background()

	classroom, err := svc.CreateClassroom(ctx, "lect-1", CreateClassroomRequest{Name: "OS"})
	require.NoError(t, err)

	memberships := NewMembershipService(&memMembershipRepo{db: db}, &memClassroomRepo{db: db})
	_, err = memberships.Join(ctx, "stud-1", classroom.Code)
	require.NoError(t, err)

	// Owner and member see it.
	_, err = svc.GetByID(ctx, classroom.ID, "lect-1", model.RoleLecturer)
	assert.NoError(t, err)
	_, err = svc.GetByID(ctx, classroom.ID, "stud-1", model.RoleStudent)
	assert.NoError(t, err)

	// Everyone else gets the same answer as for a missing id.
	_, err = svc.GetByID(ctx, classroom.ID, "lect-2", model.RoleLecturer)
	assert.ErrorIs(t, err, common.ErrNotFound)
	_, err = svc.GetByID(ctx, classroom.ID, "stud-2", model.RoleStudent)
	assert.ErrorIs(t, err, common.ErrNotFound)
	_, err = svc.GetByID(ctx, "no-such-id", "lect-1", model.RoleLecturer)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestGetByCode(t *testing.T) {
	db := newMemDB()
	svc := newClassroomService(db)
	ctx := context.Background()

	classroom, err := svc.CreateClassroom(ctx, "lect-1", CreateClassroomRequest{Name: "AI", Code: "JOINME"})
	require.NoError(t, err)

	// Students can look up any code, including in lowercase.
	got, err := svc.GetByCode(ctx, "joinme", "stud-1", model.RoleStudent)
	require.NoError(t, err)
	assert.Equal(t, classroom.ID, got.ID)

	// A lecturer may only look up their own classroom's code.
	_, err = svc.GetByCode(ctx, "JOINME", "lect-1", model.RoleLecturer)
	assert.NoError(t, err)
	_, err = svc.GetByCode(ctx, "JOINME", "lect-2", model.RoleLecturer)
	assert.ErrorIs(t, err, common.ErrForbidden)

	_, err = svc.GetByCode(ctx, "NOPE99", "stud-1", model.RoleStudent)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestListMine(t *testing.T) {
	db := newMemDB()
	svc := newClassroomService(db)
	ctx := context.Background()

	first, err := svc.CreateClassroom(ctx, "lect-1", CreateClassroomRequest{Name: "First"})
	require.NoError(t, err)
	second, err := svc.CreateClassroom(ctx, "lect-1", CreateClassroomRequest{Name: "Second"})
	require.NoError(t, err)
	_, err = svc.CreateClassroom(ctx, "lect-2", CreateClassroomRequest{Name: "Other"})
	require.NoError(t, err)

	owned, err := svc.ListMine(ctx, "lect-1", model.RoleLecturer)
	require.NoError(t, err)
	require.Len(t, owned, 2)
	assert.Equal(t, second.ID, owned[0].ID) // newest first
	assert.Equal(t, first.ID, owned[1].ID)

	memberships := NewMembershipService(&memMembershipRepo{db: db}, &memClassroomRepo{db: db})
	_, err = memberships.Join(ctx, "stud-1", first.Code)
	require.NoError(t, err)

	joined, err := svc.ListMine(ctx, "stud-1", model.RoleStudent)
	require.NoError(t, err)
	require.Len(t, joined, 1)
	assert.Equal(t, first.ID, joined[0].ID)
}
