package repository

import (
	"context"
	"testing"

	"github.com/agri4/agri-server/internal/db/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(newTestDB(t))

	user, err := repo.Create(ctx, models.NewUser("", " Amina@Farm.io ", "hash"))
	require.NoError(t, err)
	assert.Equal(t, "User", user.Name)
	assert.Equal(t, "amina@farm.io", user.Email)
	assert.Equal(t, models.RoleFarmer, user.Role)

	found, err := repo.GetByEmail(ctx, "AMINA@farm.io")
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)
	assert.Equal(t, "hash", found.PasswordHash)

	byID, err := repo.GetByID(ctx, user.ID.String())
	require.NoError(t, err)
	assert.Equal(t, user.Email, byID.Email)

	_, err = repo.Create(ctx, models.NewUser("Other", "amina@farm.io", "x"))
	assert.Error(t, err, "email must be unique")

	_, err = repo.GetByEmail(ctx, "nobody@farm.io")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, repo.DeleteByID(ctx, user.ID.String()))
	assert.ErrorIs(t, repo.DeleteByID(ctx, user.ID.String()), ErrNotFound)
}
