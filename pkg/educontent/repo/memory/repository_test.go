package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendant/edu-content/pkg/educontent"
)

func newContent(owner uuid.UUID, title, category string) *educontent.Content {
	return &educontent.Content{
		Title:       title,
		Description: "description of " + title,
		ContentType: educontent.ContentTypeDocument,
		AgeGroup:    "6-8 years",
		ClassLevel:  "2nd Grade",
		Category:    category,
		Area:        "Global",
		OwnerID:     owner,
	}
}

func TestRepository_CreateAndGet(t *testing.T) {
	repo := New()
	ctx := context.Background()
	owner := uuid.New()

	c := newContent(owner, "Fractions", "Mathematics")
	require.NoError(t, repo.Create(ctx, c))
	assert.NotEqual(t, uuid.Nil, c.ID)
	assert.Equal(t, educontent.ContentStatusDraft, c.Status)
	assert.False(t, c.CreatedAt.IsZero())

	got, err := repo.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, c, got)

	// Returned values are copies
	got.Title = "changed"
	again, err := repo.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Fractions", again.Title)
}

func TestRepository_CreateValidation(t *testing.T) {
	repo := New()
	ctx := context.Background()

	c := newContent(uuid.New(), "", "Science")
	err := repo.Create(ctx, c)
	require.Error(t, err)
	assert.ErrorIs(t, err, educontent.ErrValidation)

	var verr *educontent.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "title", verr.Field)
}

func TestRepository_CreateDuplicateID(t *testing.T) {
	repo := New()
	ctx := context.Background()

	c := newContent(uuid.New(), "Atoms", "Science")
	require.NoError(t, repo.Create(ctx, c))

	dup := newContent(uuid.New(), "Molecules", "Science")
	dup.ID = c.ID
	assert.ErrorIs(t, repo.Create(ctx, dup), educontent.ErrValidation)
}

func TestRepository_GetNotFound(t *testing.T) {
	repo := New()
	_, err := repo.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, educontent.ErrNotFound)
}

func TestRepository_List(t *testing.T) {
	repo := New()
	ctx := context.Background()
	alice, bob := uuid.New(), uuid.New()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	seed := []struct {
		owner    uuid.UUID
		title    string
		category string
		status   educontent.ContentStatus
	}{
		{alice, "Addition", "Mathematics", educontent.ContentStatusPublished},
		{bob, "Plants", "Science", educontent.ContentStatusPublished},
		{alice, "Geometry", "Mathematics", educontent.ContentStatusDraft},
		{bob, "Algebra", "Mathematics", educontent.ContentStatusPublished},
	}
	for i, s := range seed {
		c := newContent(s.owner, s.title, s.category)
		c.Status = s.status
		c.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, repo.Create(ctx, c))
	}

	titles := func(cs []*educontent.Content) []string {
		out := make([]string, len(cs))
		for i, c := range cs {
			out[i] = c.Title
		}
		return out
	}

	tests := []struct {
		name   string
		filter educontent.Filter
		want   []string
	}{
		{"no filter newest first", educontent.Filter{}, []string{"Algebra", "Geometry", "Plants", "Addition"}},
		{"by category", educontent.Filter{Category: "Mathematics"}, []string{"Algebra", "Geometry", "Addition"}},
		{"category and status", educontent.Filter{Category: "Mathematics", Status: educontent.ContentStatusPublished}, []string{"Algebra", "Addition"}},
		{"by owner", educontent.Filter{OwnerID: alice}, []string{"Geometry", "Addition"}},
		{"no match", educontent.Filter{Area: "Europe"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.List(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, titles(got))
		})
	}
}

func TestRepository_ListTiesKeepInsertionOrder(t *testing.T) {
	repo := New()
	ctx := context.Background()
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	for _, title := range []string{"first", "second", "third"} {
		c := newContent(uuid.New(), title, "Art")
		c.CreatedAt = at
		require.NoError(t, repo.Create(ctx, c))
	}

	got, err := repo.List(ctx, educontent.Filter{})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "third", got[0].Title)
	assert.Equal(t, "first", got[2].Title)
}

func TestRepository_Update(t *testing.T) {
	repo := New()
	ctx := context.Background()
	owner := uuid.New()

	c := newContent(owner, "Volcanoes", "Science")
	require.NoError(t, repo.Create(ctx, c))

	title := "Volcanoes and Earthquakes"
	status := educontent.ContentStatusPublished
	updated, err := repo.Update(ctx, c.ID, educontent.ContentPatch{Title: &title, Status: &status})
	require.NoError(t, err)

	assert.Equal(t, title, updated.Title)
	assert.Equal(t, status, updated.Status)
	assert.Equal(t, c.Description, updated.Description)
	assert.Equal(t, c.ID, updated.ID)
	assert.Equal(t, owner, updated.OwnerID)
	assert.False(t, updated.UpdatedAt.Before(c.UpdatedAt))

	t.Run("empty title rejected", func(t *testing.T) {
		empty := ""
		_, err := repo.Update(ctx, c.ID, educontent.ContentPatch{Title: &empty})
		assert.ErrorIs(t, err, educontent.ErrValidation)
	})

	t.Run("missing record", func(t *testing.T) {
		_, err := repo.Update(ctx, uuid.New(), educontent.ContentPatch{Title: &title})
		assert.ErrorIs(t, err, educontent.ErrNotFound)
	})
}

func TestRepository_Delete(t *testing.T) {
	repo := New()
	ctx := context.Background()

	c := newContent(uuid.New(), "Rivers", "Social Studies")
	require.NoError(t, repo.Create(ctx, c))

	require.NoError(t, repo.Delete(ctx, c.ID))
	_, err := repo.Get(ctx, c.ID)
	assert.ErrorIs(t, err, educontent.ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, c.ID), educontent.ErrNotFound)
}

func TestRepository_ConcurrentCreates(t *testing.T) {
	repo := New()
	ctx := context.Background()
	owner := uuid.New()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, repo.Create(ctx, newContent(owner, "Concurrent", "Music")))
		}()
	}
	wg.Wait()

	all, err := repo.List(ctx, educontent.Filter{OwnerID: owner})
	require.NoError(t, err)
	assert.Len(t, all, 50)
}
