package service

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"classhub/internal/common"
	"classhub/internal/common/security"
	"classhub/internal/domain/model"
	"classhub/internal/platform/config"
)

func TestMain(m *testing.M) {
	config.AppConfig = &config.Config{
		JWTKey: []byte("test-secret"),
		JWTExp: time.Hour,
	}
	security.InitJWT()
	os.Exit(m.Run())
}

func strPtr(s string) *string { return &s }

func TestSignup(t *testing.T) {
	db := newMemDB()
	svc := NewAuthService(&memUserRepo{db: db})
	ctx := context.Background()

	resp, err := svc.Signup(ctx, SignupRequest{
		Name:       "Dr. Grace",
		Email:      "Grace@Uni.Edu",
		Password:   "s3cret-pass",
		Role:       model.RoleLecturer,
		Department: strPtr("CS"),
		Bio:        strPtr("Distributed systems."),
	})
	require.NoError(t, err)
	require.NotNil(t, resp.User)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "grace@uni.edu", resp.User.Email) // normalized
	assert.Empty(t, resp.User.HashedPassword)
	require.NotNil(t, resp.User.Department)
	assert.Equal(t, "CS", *resp.User.Department)

	// The token carries the identity the middleware reads back out.
	tok, err := security.TokenAuth.Decode(resp.Token)
	require.NoError(t, err)
	uid, ok := tok.Get("user_id")
	require.True(t, ok)
	assert.Equal(t, resp.User.ID, uid)
	role, ok := tok.Get("role")
	require.True(t, ok)
	assert.Equal(t, model.RoleLecturer, role)
}

func TestSignup_StudentDropsLecturerFields(t *testing.T) {
	svc := NewAuthService(&memUserRepo{db: newMemDB()})

	resp, err := svc.Signup(context.Background(), SignupRequest{
		Name:       "Ada",
		Email:      "ada@uni.edu",
		Password:   "s3cret-pass",
		Role:       model.RoleStudent,
		Department: strPtr("CS"),
		Bio:        strPtr("hi"),
	})
	require.NoError(t, err)
	assert.Nil(t, resp.User.Department)
	assert.Nil(t, resp.User.Bio)
}

func TestSignup_DuplicateEmail(t *testing.T) {
	svc := NewAuthService(&memUserRepo{db: newMemDB()})
	ctx := context.Background()

	req := SignupRequest{Name: "Ada", Email: "ada@uni.edu", Password: "s3cret-pass", Role: model.RoleStudent}
	_, err := svc.Signup(ctx, req)
	require.NoError(t, err)

	req.Email = "ADA@uni.edu" // same address after normalization
	_, err = svc.Signup(ctx, req)
	assert.ErrorIs(t, err, common.ErrConflict)
}

func TestSignup_InvalidRole(t *testing.T) {
	svc := NewAuthService(&memUserRepo{db: newMemDB()})

	_, err := svc.Signup(context.Background(), SignupRequest{Name: "X", Email: "x@x.x", Password: "s3cret-pass", Role: "admin"})
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestLogin(t *testing.T) {
	svc := NewAuthService(&memUserRepo{db: newMemDB()})
	ctx := context.Background()

	_, err := svc.Signup(ctx, SignupRequest{Name: "Ada", Email: "ada@uni.edu", Password: "s3cret-pass", Role: model.RoleStudent})
	require.NoError(t, err)

	resp, err := svc.Login(ctx, LoginRequest{Email: "ADA@uni.edu ", Password: "s3cret-pass"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.Empty(t, resp.User.HashedPassword)

	// Wrong password and unknown email are indistinguishable to the caller.
	_, err = svc.Login(ctx, LoginRequest{Email: "ada@uni.edu", Password: "wrong"})
	assert.ErrorIs(t, err, common.ErrUnauthorized)
	_, err = svc.Login(ctx, LoginRequest{Email: "nobody@uni.edu", Password: "s3cret-pass"})
	assert.ErrorIs(t, err, common.ErrUnauthorized)
}

func TestChangePassword(t *testing.T) {
	svc := NewAuthService(&memUserRepo{db: newMemDB()})
	ctx := context.Background()

	resp, err := svc.Signup(ctx, SignupRequest{Name: "Ada", Email: "ada@uni.edu", Password: "old-password", Role: model.RoleStudent})
	require.NoError(t, err)

	err = svc.ChangePassword(ctx, resp.User.ID, ChangePasswordRequest{OldPassword: "nope", NewPassword: "new-password"})
	assert.ErrorIs(t, err, common.ErrUnauthorized)

	err = svc.ChangePassword(ctx, resp.User.ID, ChangePasswordRequest{OldPassword: "old-password", NewPassword: "new-password"})
	require.NoError(t, err)

	_, err = svc.Login(ctx, LoginRequest{Email: "ada@uni.edu", Password: "old-password"})
	assert.ErrorIs(t, err, common.ErrUnauthorized)
	_, err = svc.Login(ctx, LoginRequest{Email: "ada@uni.edu", Password: "new-password"})
	assert.NoError(t, err)
}
