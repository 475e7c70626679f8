package services

import (
	"context"
	"testing"
	"time"

	"github.com/netoho/hestia-app-staging-sub000/internal/db/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newAuthEnv(t *testing.T) (*AuthService, *models.User) {
	t.Helper()
	database := newTestDB(t)
	auth := NewAuthService(database, zap.NewNop(), "test-secret", time.Hour)

	hash, err := HashPassword("s3cret-pass")
	require.NoError(t, err)
	user := models.User{
		Email:        "reviewer@example.com",
		PasswordHash: hash,
		Role:         models.RoleStaff,
		ActiveStatus: true,
	}
	require.NoError(t, database.Create(&user).Error)
	return auth, &user
}

func TestLoginAndVerify(t *testing.T) {
	auth, user := newAuthEnv(t)

	token, loggedIn, err := auth.Login(context.Background(), user.Email, "s3cret-pass")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.Equal(t, user.ID, loggedIn.ID)

	claims, err := auth.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, user.Email, claims.Email)
	assert.Equal(t, models.RoleStaff, claims.Role)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	auth, user := newAuthEnv(t)

	_, _, err := auth.Login(context.Background(), user.Email, "wrong")
	require.Error(t, err)
	assert.Equal(t, ErrPermission, KindOf(err))

	_, _, err = auth.Login(context.Background(), "nobody@example.com", "s3cret-pass")
	require.Error(t, err)
	assert.Equal(t, ErrPermission, KindOf(err))
}

func TestLoginRejectsDisabledAccount(t *testing.T) {
	auth, user := newAuthEnv(t)
	require.NoError(t, auth.db.Model(user).Update("active_status", false).Error)

	_, _, err := auth.Login(context.Background(), user.Email, "s3cret-pass")
	require.Error(t, err)
	assert.Equal(t, ErrPermission, KindOf(err))
}

func TestVerifyTokenRejectsGarbage(t *testing.T) {
	auth, _ := newAuthEnv(t)

	_, err := auth.VerifyToken("not-a-jwt")
	require.Error(t, err)
	assert.Equal(t, ErrInvalidToken, KindOf(err))

	other := NewAuthService(auth.db, zap.NewNop(), "other-secret", time.Hour)
	token, _, err := other.Login(context.Background(), "reviewer@example.com", "s3cret-pass")
	require.NoError(t, err)

	_, err = auth.VerifyToken(token)
	require.Error(t, err)
	assert.Equal(t, ErrInvalidToken, KindOf(err))
}
