package service

import (
	"testing"
	"time"

	"trilha_edu_backend/internal/config"
	"trilha_edu_backend/internal/model"
	"trilha_edu_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthService(env *testEnv) *AuthService {
	cfg := &config.Config{}
	cfg.JWT.Secret = "test-secret"
	cfg.JWT.ExpireTime = time.Hour
	return NewAuthService(env.userRepo, cfg)
}

func TestRegisterAndLogin(t *testing.T) {
	env := newTestEnv(t)
	svc := newAuthService(env)

	user, err := svc.Register(RegisterRequest{
		Name:                "Ana",
		Email:               "ana@example.com",
		Password:            "s3cret-pw",
		PreferredDifficulty: model.DifficultyBeginner,
	})
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret-pw", user.Password, "password must be stored hashed")
	assert.Equal(t, model.Student, user.Role)

	token, logged, err := svc.Login("ana@example.com", "s3cret-pw")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, user.ID, logged.ID)

	claims, err := util.ParseJWT(token, "test-secret")
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, model.Student, claims.Role)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	svc := newAuthService(env)

	req := RegisterRequest{Name: "Ana", Email: "ana@example.com", Password: "s3cret-pw"}
	_, err := svc.Register(req)
	require.NoError(t, err)

	_, err = svc.Register(req)
	assert.ErrorIs(t, err, util.ErrEmailRegistered)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	env := newTestEnv(t)
	svc := newAuthService(env)

	_, err := svc.Register(RegisterRequest{Name: "Ana", Email: "ana@example.com", Password: "s3cret-pw"})
	require.NoError(t, err)

	_, _, err = svc.Login("ana@example.com", "wrong")
	assert.ErrorIs(t, err, util.ErrInvalidCredentials)

	_, _, err = svc.Login("nobody@example.com", "s3cret-pw")
	assert.ErrorIs(t, err, util.ErrInvalidCredentials)
}

func TestUpdateProfileValidatesDifficulty(t *testing.T) {
	env := newTestEnv(t)
	svc := newAuthService(env)

	user, err := svc.Register(RegisterRequest{Name: "Ana", Email: "ana@example.com", Password: "s3cret-pw"})
	require.NoError(t, err)

	_, err = svc.UpdateProfile(user.ID, ProfileUpdateRequest{PreferredDifficulty: "impossible"})
	var ve *util.ValidationError
	assert.ErrorAs(t, err, &ve)

	updated, err := svc.UpdateProfile(user.ID, ProfileUpdateRequest{PreferredDifficulty: model.DifficultyAdvanced})
	require.NoError(t, err)
	assert.Equal(t, model.DifficultyAdvanced, updated.PreferredDifficulty)
}
