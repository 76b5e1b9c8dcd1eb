package users

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/okelo-dev/sokowear-backend/pkg/enums"
)

func setupUsersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  first_name TEXT NOT NULL,
  last_name TEXT NOT NULL,
  role TEXT NOT NULL DEFAULT 'user',
  is_active INTEGER NOT NULL DEFAULT 1,
  last_login_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(schema).Error)
	return db
}

func createTestUser(t *testing.T, repo *Repository) *UserDTO {
	t.Helper()
	user, err := repo.Create(context.Background(), CreateUserDTO{
		Email:        fmt.Sprintf("sw_test_%s@example.com", uuid.NewString()),
		PasswordHash: "hash",
		FirstName:    "Repo",
		LastName:     "Tester",
	})
	require.NoError(t, err)
	return FromModel(user)
}

func TestUsersRepositoryCreateAndFind(t *testing.T) {
	db := setupUsersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	created := createTestUser(t, repo)
	require.NotEqual(t, uuid.Nil, created.ID)
	assert.Equal(t, enums.UserRoleUser, created.Role)
	assert.True(t, created.IsActive)

	byEmail, err := repo.FindByEmail(ctx, created.Email)
	require.NoError(t, err)
	assert.Equal(t, created.ID, byEmail.ID)

	byID, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Email, byID.Email)
}

func TestUsersRepositoryDuplicateEmail(t *testing.T) {
	db := setupUsersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	dto := CreateUserDTO{
		Email:        "dup@example.com",
		PasswordHash: "hash",
		FirstName:    "A",
		LastName:     "B",
	}
	_, err := repo.Create(ctx, dto)
	require.NoError(t, err)
	_, err = repo.Create(ctx, dto)
	require.Error(t, err)
}

func TestUsersRepositoryUpdateRole(t *testing.T) {
	db := setupUsersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	created := createTestUser(t, repo)
	require.NoError(t, repo.UpdateRole(ctx, created.ID, enums.UserRoleAdmin))

	reloaded, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.UserRoleAdmin, reloaded.Role)

	err = repo.UpdateRole(ctx, uuid.New(), enums.UserRoleAdmin)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestUsersRepositoryUpdateLastLogin(t *testing.T) {
	db := setupUsersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	created := createTestUser(t, repo)
	at := time.Date(2025, 8, 15, 9, 0, 0, 0, time.UTC)
	require.NoError(t, repo.UpdateLastLogin(ctx, created.ID, at))

	reloaded, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, reloaded.LastLoginAt)
	assert.True(t, reloaded.LastLoginAt.Equal(at))
}

func TestUsersRepositoryDelete(t *testing.T) {
	db := setupUsersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	created := createTestUser(t, repo)
	require.NoError(t, repo.Delete(ctx, created.ID))

	_, err := repo.FindByID(ctx, created.ID)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	require.ErrorIs(t, repo.Delete(ctx, created.ID), gorm.ErrRecordNotFound)
}

func TestUsersRepositoryList(t *testing.T) {
	db := setupUsersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		createTestUser(t, repo)
	}

	rows, err := repo.List(ctx, nil, 2)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	all, err := repo.List(ctx, nil, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
}
