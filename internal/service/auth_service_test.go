package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/campus-suite/attendance-api/internal/models"
	appErrors "github.com/campus-suite/attendance-api/pkg/errors"
)

type mockAuthRepo struct {
	user            *models.User
	findErr         error
	updatedPassword string
}

func (m *mockAuthRepo) FindByLogin(ctx context.Context, login string) (*models.User, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	return m.user, nil
}

func (m *mockAuthRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	return m.user, nil
}

func (m *mockAuthRepo) UpdatePassword(ctx context.Context, id string, passwordHash string) error {
	m.updatedPassword = passwordHash
	return nil
}

func authFixture(t *testing.T, password string) (*mockAuthRepo, *AuthService) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	repo := &mockAuthRepo{user: &models.User{
		ID:           "user-1",
		FIO:          "Петров Пётр Петрович",
		Login:        "petrov",
		PasswordHash: string(hash),
		Role:         models.RoleTeacher,
		FirstStart:   true,
	}}
	svc := NewAuthService(repo, nil, zapTestLogger(), AuthConfig{
		Secret:     "test-secret",
		Expiration: time.Hour,
		Issuer:     "attendance-api",
	})
	return repo, svc
}

func TestLoginSuccess(t *testing.T) {
	_, svc := authFixture(t, "Correct#Pass1")

	resp, err := svc.Login(context.Background(), models.LoginRequest{Login: "petrov", Password: "Correct#Pass1"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, "user-1", resp.UserID)
	assert.Equal(t, models.RoleTeacher, resp.Role)
	assert.True(t, resp.FirstStart)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, models.RoleTeacher, claims.Role)
}

func TestLoginWrongPassword(t *testing.T) {
	_, svc := authFixture(t, "Correct#Pass1")

	_, err := svc.Login(context.Background(), models.LoginRequest{Login: "petrov", Password: "wrong"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestLoginMissingFields(t *testing.T) {
	_, svc := authFixture(t, "Correct#Pass1")

	_, err := svc.Login(context.Background(), models.LoginRequest{Login: "petrov"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestValidateTokenRejectsTampered(t *testing.T) {
	_, svc := authFixture(t, "Correct#Pass1")

	_, err := svc.ValidateToken("not.a.token")
	assert.Error(t, err)

	otherSvc := NewAuthService(&mockAuthRepo{}, nil, zapTestLogger(), AuthConfig{Secret: "other-secret", Expiration: time.Hour})
	resp, err := svc.Login(context.Background(), models.LoginRequest{Login: "petrov", Password: "Correct#Pass1"})
	require.NoError(t, err)
	_, err = otherSvc.ValidateToken(resp.AccessToken)
	assert.Error(t, err, "tokens signed with a different secret must be rejected")
}

func TestChangePassword(t *testing.T) {
	repo, svc := authFixture(t, "Correct#Pass1")

	err := svc.ChangePassword(context.Background(), "user-1", "Correct#Pass1", "NewStrong#Pass2")
	require.NoError(t, err)
	assert.NotEmpty(t, repo.updatedPassword)

	err = svc.ChangePassword(context.Background(), "user-1", "wrong-current", "NewStrong#Pass2")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)

	err = svc.ChangePassword(context.Background(), "user-1", "Correct#Pass1", "weak")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestCheckPasswordStrength(t *testing.T) {
	cases := []struct {
		password string
		ok       bool
	}{
		{"Valid#Pass1", true},
		{"Дл1нный#Пароль", true},
		{"short#A", false},
		{"nouppercase#1", false},
		{"NOLOWERCASE#1", false},
		{"NoSpecial123", false},
	}
	for _, tc := range cases {
		err := CheckPasswordStrength(tc.password)
		if tc.ok {
			assert.NoError(t, err, tc.password)
		} else {
			assert.Error(t, err, tc.password)
		}
	}
}
