package admins

import (
	"context"
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestService_Authenticate(t *testing.T) {
	ctx := context.Background()
	service := NewService(NewMockAdminsRepo())

	created, err := service.CreateAdmin(ctx, "admin", "admin123")
	require.NoError(t, err)
	require.NotNil(t, created)

	admin, err := service.Authenticate(ctx, "admin", "admin123")
	require.NoError(t, err)
	assert.Equal(t, created.ID, admin.ID)
	assert.Equal(t, "admin", admin.Username)

	// wrong password and unknown username are indistinguishable
	_, err = service.Authenticate(ctx, "admin", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = service.Authenticate(ctx, "no-such-admin", "admin123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestService_CreateAdmin(t *testing.T) {
	ctx := context.Background()
	service := NewService(NewMockAdminsRepo())

	username := gofakeit.Username()
	password := gofakeit.Password(true, true, true, false, false, 12)

	admin, err := service.CreateAdmin(ctx, username, password)
	require.NoError(t, err)
	assert.Equal(t, username, admin.Username)
	assert.NotEqual(t, password, admin.PasswordHash)
	assert.False(t, admin.CreatedAt.IsZero())

	// duplicate username
	_, err = service.CreateAdmin(ctx, username, "other-password")
	assert.ErrorIs(t, err, ErrUsernameTaken)

	// empty input
	_, err = service.CreateAdmin(ctx, "", password)
	assert.Error(t, err)
	_, err = service.CreateAdmin(ctx, username, "")
	assert.Error(t, err)
}

func TestService_EnsureDefaultAdmin(t *testing.T) {
	ctx := context.Background()
	service := NewService(NewMockAdminsRepo())

	require.NoError(t, service.EnsureDefaultAdmin(ctx, "admin", "admin123"))
	admin, err := service.Authenticate(ctx, "admin", "admin123")
	require.NoError(t, err)
	firstID := admin.ID

	// second call is a no-op, even with a different password
	require.NoError(t, service.EnsureDefaultAdmin(ctx, "admin", "other-password"))
	admin, err = service.Authenticate(ctx, "admin", "admin123")
	require.NoError(t, err)
	assert.Equal(t, firstID, admin.ID)
}

func TestService_EnsureDefaultAdmin_NoPassword(t *testing.T) {
	ctx := context.Background()
	service := NewService(NewMockAdminsRepo())

	assert.Error(t, service.EnsureDefaultAdmin(ctx, "admin", ""))
}

func TestService_GetByID_Cached(t *testing.T) {
	ctx := context.Background()
	repo := NewMockAdminsRepo()
	service := NewService(repo)

	created, err := service.CreateAdmin(ctx, "admin", "admin123")
	require.NoError(t, err)

	admin, err := service.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "admin", admin.Username)

	// remove the record from the backing repo - the cached copy still serves
	repo.remove(created.ID)
	admin, err = service.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "admin", admin.Username)

	_, err = service.GetByID(ctx, 9999)
	assert.ErrorIs(t, err, ErrAdminNotFound)
}
