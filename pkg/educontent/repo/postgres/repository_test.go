package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/tendant/edu-content/pkg/educontent"
	"github.com/tendant/edu-content/pkg/educontent/auth"
)

// setupTestDB starts a PostgreSQL container and applies the migrations.
func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()

	if os.Getenv("TEST_INTEGRATION") == "" {
		t.Skip("skipping integration test: TEST_INTEGRATION not set")
	}

	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"docker.io/postgres:17-alpine",
		tcpostgres.WithDatabase("educontent_test"),
		tcpostgres.WithUsername("educontent"),
		tcpostgres.WithPassword("test-password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	require.NoError(t, Migrate(dsn, nil))
	// A second run is a no-op
	require.NoError(t, Migrate(dsn, nil))

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

func newContent(owner uuid.UUID, title, category string, createdAt time.Time) *educontent.Content {
	return &educontent.Content{
		Title:       title,
		Description: "about " + title,
		ContentType: educontent.ContentTypeLink,
		FileURL:     ptr("https://example.org/" + title),
		AgeGroup:    "9-11 years",
		ClassLevel:  "5th Grade",
		Category:    category,
		Area:        "Europe",
		OwnerID:     owner,
		CreatedAt:   createdAt,
	}
}

func ptr[T any](v T) *T { return &v }

func TestRepository_Integration(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewWithPool(pool)
	ctx := context.Background()
	owner := uuid.New()
	base := time.Date(2024, 2, 1, 8, 0, 0, 0, time.UTC)

	first := newContent(owner, "maps", "Social Studies", base)
	require.NoError(t, repo.Create(ctx, first))
	assert.NotEqual(t, uuid.Nil, first.ID)
	assert.Equal(t, educontent.ContentStatusDraft, first.Status)

	second := newContent(owner, "rivers", "Social Studies", base.Add(time.Minute))
	second.Status = educontent.ContentStatusPublished
	require.NoError(t, repo.Create(ctx, second))

	third := newContent(uuid.New(), "cells", "Science", base.Add(2*time.Minute))
	third.ContentType = educontent.ContentTypeDocument
	third.FileURL = nil
	require.NoError(t, repo.Create(ctx, third))

	t.Run("get", func(t *testing.T) {
		got, err := repo.Get(ctx, first.ID)
		require.NoError(t, err)
		assert.Equal(t, first.Title, got.Title)
		assert.Equal(t, *first.FileURL, *got.FileURL)
		assert.True(t, first.CreatedAt.Equal(got.CreatedAt))

		nullFile, err := repo.Get(ctx, third.ID)
		require.NoError(t, err)
		assert.Nil(t, nullFile.FileURL)

		_, err = repo.Get(ctx, uuid.New())
		assert.ErrorIs(t, err, educontent.ErrNotFound)
	})

	t.Run("list", func(t *testing.T) {
		all, err := repo.List(ctx, educontent.Filter{})
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, "cells", all[0].Title)
		assert.Equal(t, "maps", all[2].Title)

		social, err := repo.List(ctx, educontent.Filter{Category: "Social Studies", OwnerID: owner})
		require.NoError(t, err)
		require.Len(t, social, 2)
		assert.Equal(t, "rivers", social[0].Title)

		published, err := repo.List(ctx, educontent.Filter{Status: educontent.ContentStatusPublished, Area: "Europe"})
		require.NoError(t, err)
		require.Len(t, published, 1)
		assert.Equal(t, second.ID, published[0].ID)
	})

	t.Run("update", func(t *testing.T) {
		updated, err := repo.Update(ctx, first.ID, educontent.ContentPatch{
			Title:  ptr("world maps"),
			Status: ptr(educontent.ContentStatusArchived),
		})
		require.NoError(t, err)
		assert.Equal(t, "world maps", updated.Title)
		assert.Equal(t, educontent.ContentStatusArchived, updated.Status)
		assert.Equal(t, owner, updated.OwnerID)
		assert.Equal(t, first.Description, updated.Description)

		cleared, err := repo.Update(ctx, first.ID, educontent.ContentPatch{ClearFile: true})
		require.NoError(t, err)
		assert.Nil(t, cleared.FileURL)

		_, err = repo.Update(ctx, uuid.New(), educontent.ContentPatch{Title: ptr("x")})
		assert.ErrorIs(t, err, educontent.ErrNotFound)

		_, err = repo.Update(ctx, first.ID, educontent.ContentPatch{Status: ptr(educontent.ContentStatus("bogus"))})
		assert.ErrorIs(t, err, educontent.ErrValidation)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, third.ID))
		assert.ErrorIs(t, repo.Delete(ctx, third.ID), educontent.ErrNotFound)
	})

	t.Run("duplicate id", func(t *testing.T) {
		dup := newContent(owner, "dup", "Art", base)
		dup.ID = second.ID
		assert.ErrorIs(t, repo.Create(ctx, dup), educontent.ErrValidation)
	})
}

func TestMigrateURL(t *testing.T) {
	assert.Equal(t, "pgx5://u:p@localhost:5432/db?sslmode=disable", migrateURL("postgres://u:p@localhost:5432/db?sslmode=disable"))
	assert.Equal(t, "pgx5://u@h/db", migrateURL("postgresql://u@h/db"))
	assert.Equal(t, "pgx5://already", migrateURL("pgx5://already"))
}

func TestUserStore_Integration(t *testing.T) {
	pool := setupTestDB(t)
	store := auth.NewPostgresStore(pool)
	ctx := context.Background()

	user := &auth.User{
		ID:           uuid.New(),
		Name:         "Instructor",
		Email:        "instructor@example.com",
		PasswordHash: "hash",
		Role:         educontent.RoleAdmin,
		CreatedAt:    time.Now().UTC().Truncate(time.Microsecond),
	}
	require.NoError(t, store.CreateUser(ctx, user))

	got, err := store.GetUserByEmail(ctx, "instructor@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	assert.Equal(t, educontent.RoleAdmin, got.Role)
	assert.True(t, user.CreatedAt.Equal(got.CreatedAt))

	dup := *user
	dup.ID = uuid.New()
	assert.ErrorIs(t, store.CreateUser(ctx, &dup), auth.ErrEmailTaken)

	_, err = store.GetUser(ctx, uuid.New())
	assert.ErrorIs(t, err, auth.ErrUserNotFound)
}
