package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qs3c/fbsched_server/internal/model/dto"
)

func TestUserService_GetProfile(t *testing.T) {
	env := setupServices(t)
	user := registerUser(t, env, "jamie", "secret123")

	info, err := env.users.GetProfile(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, "jamie", info.Username)
	assert.Equal(t, "jamie@example.com", info.Email)
	assert.NotEmpty(t, info.CreatedAt)

	_, err = env.users.GetProfile(context.Background(), 9999)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserService_UpdateProfile(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	user := registerUser(t, env, "jamie", "secret123")

	newName := "Jamie Doe"
	newPassword := "changed456"
	info, err := env.users.UpdateProfile(ctx, user.ID, &dto.UpdateProfileRequest{
		Name:     &newName,
		Password: &newPassword,
	})
	require.NoError(t, err)
	assert.Equal(t, "Jamie Doe", info.Name)
	assert.Equal(t, "jamie", info.Username)

	_, err = env.auth.Login(ctx, &dto.LoginRequest{Username: "jamie", Password: "changed456"})
	assert.NoError(t, err)
	_, err = env.auth.Login(ctx, &dto.LoginRequest{Username: "jamie", Password: "secret123"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = env.users.UpdateProfile(ctx, 9999, &dto.UpdateProfileRequest{Name: &newName})
	assert.ErrorIs(t, err, ErrUserNotFound)
}
