package educontent_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendant/edu-content/pkg/educontent"
	"github.com/tendant/edu-content/pkg/educontent/repo/memory"
	memorystorage "github.com/tendant/edu-content/pkg/educontent/storage/memory"
)

type recordingSink struct {
	mu     sync.Mutex
	events []string
	fail   bool
}

func (s *recordingSink) record(kind string, c *educontent.Content) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, kind+":"+c.Title)
	if s.fail {
		return errors.New("sink down")
	}
	return nil
}

func (s *recordingSink) ContentCreated(ctx context.Context, c *educontent.Content) error {
	return s.record("created", c)
}

func (s *recordingSink) ContentUpdated(ctx context.Context, c *educontent.Content) error {
	return s.record("updated", c)
}

func (s *recordingSink) ContentDeleted(ctx context.Context, c *educontent.Content) error {
	return s.record("deleted", c)
}

type testEnv struct {
	svc   educontent.Service
	repo  *memory.Repository
	store *failingStore
	sink  *recordingSink
}

func steppingClock() func() time.Time {
	var mu sync.Mutex
	t := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Second)
		return t
	}
}

func setupService(t *testing.T, opts ...educontent.Option) *testEnv {
	t.Helper()
	env := &testEnv{
		repo:  memory.New(),
		store: &failingStore{Backend: memorystorage.New()},
		sink:  &recordingSink{},
	}
	options := append([]educontent.Option{
		educontent.WithRepository(env.repo),
		educontent.WithBlobStore(env.store),
		educontent.WithEventSink(env.sink),
		educontent.WithClock(steppingClock()),
	}, opts...)
	svc, err := educontent.New(options...)
	require.NoError(t, err)
	env.svc = svc
	return env
}

func userActor() *educontent.Actor {
	return &educontent.Actor{UserID: uuid.New(), Role: educontent.RoleUser}
}

func adminActor() *educontent.Actor {
	return &educontent.Actor{UserID: uuid.New(), Role: educontent.RoleAdmin}
}

func linkRequest(title string) educontent.CreateContentRequest {
	return educontent.CreateContentRequest{
		Title:       title,
		Description: "A useful resource",
		ContentType: educontent.ContentTypeLink,
		FileURL:     "https://example.org/" + title,
		AgeGroup:    "6-8 years",
		ClassLevel:  "1st Grade",
		Category:    "Mathematics",
		Area:        "Global",
	}
}

func documentRequest(title string) educontent.CreateContentRequest {
	req := linkRequest(title)
	req.ContentType = educontent.ContentTypeDocument
	req.FileURL = ""
	return req
}

func pdfFile(name string, size int) *educontent.FileUpload {
	f := pdfUpload(name, size)
	return &f
}

func TestServiceCreation(t *testing.T) {
	tests := []struct {
		name        string
		options     []educontent.Option
		expectError bool
	}{
		{"no options should fail", nil, true},
		{"missing blob store", []educontent.Option{educontent.WithRepository(memory.New())}, true},
		{"missing repository", []educontent.Option{educontent.WithBlobStore(memorystorage.New())}, true},
		{
			name: "repository and blob store",
			options: []educontent.Option{
				educontent.WithRepository(memory.New()),
				educontent.WithBlobStore(memorystorage.New()),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := educontent.New(tt.options...)
			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, svc)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, educontent.DefaultMaxBatch, svc.MaxBatch())
			assert.Equal(t, educontent.DefaultMaxUploadBytes, svc.UploadPolicy().MaxBytes)
		})
	}
}

func TestCreate_RoundTrip(t *testing.T) {
	env := setupService(t)
	ctx := context.Background()
	actor := userActor()

	created, err := env.svc.Create(ctx, actor, linkRequest("counting"), nil)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, created.ID)
	assert.Equal(t, actor.UserID, created.OwnerID)
	assert.Equal(t, educontent.ContentStatusDraft, created.Status)

	got, err := env.svc.GetVisible(ctx, created.ID, actor)
	require.NoError(t, err)
	assert.Equal(t, created, got)
	assert.Equal(t, []string{"created:counting"}, env.sink.events)
}

func TestCreate_RequiresActor(t *testing.T) {
	env := setupService(t)
	_, err := env.svc.Create(context.Background(), nil, linkRequest("x"), nil)
	assert.ErrorIs(t, err, educontent.ErrUnauthorized)
}

func TestCreate_Validation(t *testing.T) {
	env := setupService(t)
	ctx := context.Background()
	actor := userActor()

	missingTitle := linkRequest("t")
	missingTitle.Title = "   "
	_, err := env.svc.Create(ctx, actor, missingTitle, nil)
	assert.ErrorIs(t, err, educontent.ErrValidation)

	badStatus := linkRequest("t")
	badStatus.Status = "hidden"
	_, err = env.svc.Create(ctx, actor, badStatus, nil)
	assert.ErrorIs(t, err, educontent.ErrValidation)

	linkWithoutURL := linkRequest("t")
	linkWithoutURL.FileURL = ""
	_, err = env.svc.Create(ctx, actor, linkWithoutURL, nil)
	assert.ErrorIs(t, err, educontent.ErrValidation)

	docWithForeignURL := documentRequest("t")
	docWithForeignURL.FileURL = "https://example.com/doc.pdf"
	_, err = env.svc.Create(ctx, actor, docWithForeignURL, nil)
	assert.ErrorIs(t, err, educontent.ErrValidation)

	_, err = env.svc.Create(ctx, actor, linkRequest("t"), pdfFile("a.pdf", 10))
	assert.ErrorIs(t, err, educontent.ErrValidation)
	assert.Equal(t, 0, env.store.Len())

	all, err := env.repo.List(ctx, educontent.Filter{})
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestCreate_WithFile(t *testing.T) {
	env := setupService(t)
	ctx := context.Background()
	actor := userActor()

	created, err := env.svc.Create(ctx, actor, documentRequest("worksheet"), pdfFile("worksheet.pdf", 1024))
	require.NoError(t, err)
	require.NotNil(t, created.FileURL)
	assert.NotEmpty(t, created.FileKey)
	assert.Equal(t, env.store.URL(created.FileKey), *created.FileURL)

	exists, err := env.store.Exists(ctx, created.FileKey)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestCreate_FileRejected(t *testing.T) {
	env := setupService(t)
	ctx := context.Background()

	_, err := env.svc.Create(ctx, userActor(), documentRequest("big"), pdfFile("big.pdf", 5242881))
	assert.ErrorIs(t, err, educontent.ErrFileTooLarge)

	exe := &educontent.FileUpload{FileName: "setup.exe", MediaType: "application/x-msdownload", Reader: bytes.NewReader([]byte("MZ"))}
	_, err = env.svc.Create(ctx, userActor(), documentRequest("exe"), exe)
	assert.ErrorIs(t, err, educontent.ErrUnsupportedMediaType)

	all, err := env.repo.List(ctx, educontent.Filter{})
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestCreate_AttachUploadedFile(t *testing.T) {
	env := setupService(t)
	ctx := context.Background()
	actor := userActor()

	res, err := env.svc.UploadFile(ctx, actor, pdfUpload("lesson.pdf", 100))
	require.NoError(t, err)

	req := documentRequest("lesson")
	req.FileKey = res.Key
	req.FileURL = res.URL
	created, err := env.svc.Create(ctx, actor, req, nil)
	require.NoError(t, err)
	assert.Equal(t, res.Key, created.FileKey)
	assert.Equal(t, res.URL, *created.FileURL)

	t.Run("same key twice", func(t *testing.T) {
		_, err := env.svc.Create(ctx, actor, req, nil)
		assert.ErrorIs(t, err, educontent.ErrValidation)
	})

	t.Run("unknown key", func(t *testing.T) {
		bogus := documentRequest("bogus")
		bogus.FileKey = "does-not-exist.pdf"
		_, err := env.svc.Create(ctx, actor, bogus, nil)
		assert.ErrorIs(t, err, educontent.ErrValidation)
	})

	t.Run("mismatched url", func(t *testing.T) {
		other, err := env.svc.UploadFile(ctx, actor, pdfUpload("other.pdf", 100))
		require.NoError(t, err)
		mismatched := documentRequest("mismatched")
		mismatched.FileKey = other.Key
		mismatched.FileURL = "https://elsewhere.example.com/x.pdf"
		_, err = env.svc.Create(ctx, actor, mismatched, nil)
		assert.ErrorIs(t, err, educontent.ErrValidation)
	})
}

func TestGetVisible(t *testing.T) {
	owner := userActor()
	stranger := userActor()
	admin := adminActor()

	tests := []struct {
		name          string
		status        educontent.ContentStatus
		actor         *educontent.Actor
		hideForbidden bool
		wantErr       error
	}{
		{"published anonymous", educontent.ContentStatusPublished, nil, false, nil},
		{"published stranger", educontent.ContentStatusPublished, stranger, false, nil},
		{"draft owner", educontent.ContentStatusDraft, owner, false, nil},
		{"draft admin", educontent.ContentStatusDraft, admin, false, nil},
		{"draft anonymous", educontent.ContentStatusDraft, nil, false, educontent.ErrForbidden},
		{"draft stranger", educontent.ContentStatusDraft, stranger, false, educontent.ErrForbidden},
		{"archived stranger", educontent.ContentStatusArchived, stranger, false, educontent.ErrForbidden},
		{"draft stranger hidden", educontent.ContentStatusDraft, stranger, true, educontent.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setupService(t, educontent.WithHideForbidden(tt.hideForbidden))
			ctx := context.Background()

			req := linkRequest("visibility")
			req.Status = tt.status
			created, err := env.svc.Create(ctx, owner, req, nil)
			require.NoError(t, err)

			got, err := env.svc.GetVisible(ctx, created.ID, tt.actor)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, created.ID, got.ID)
		})
	}

	t.Run("missing record", func(t *testing.T) {
		env := setupService(t)
		_, err := env.svc.GetVisible(context.Background(), uuid.New(), admin)
		assert.ErrorIs(t, err, educontent.ErrNotFound)
	})
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()
	owner := userActor()
	title := "Renamed"

	t.Run("owner updates", func(t *testing.T) {
		env := setupService(t)
		created, err := env.svc.Create(ctx, owner, linkRequest("orig"), nil)
		require.NoError(t, err)

		published := educontent.ContentStatusPublished
		updated, err := env.svc.Update(ctx, owner, created.ID, educontent.UpdateContentRequest{Title: &title, Status: &published}, nil)
		require.NoError(t, err)
		assert.Equal(t, "Renamed", updated.Title)
		assert.Equal(t, educontent.ContentStatusPublished, updated.Status)
		assert.Equal(t, created.Description, updated.Description)
		assert.Equal(t, owner.UserID, updated.OwnerID)
		assert.True(t, updated.UpdatedAt.After(created.UpdatedAt) || updated.UpdatedAt.Equal(created.UpdatedAt))
	})

	t.Run("non-owner forbidden and record unchanged", func(t *testing.T) {
		env := setupService(t)
		created, err := env.svc.Create(ctx, owner, linkRequest("orig"), nil)
		require.NoError(t, err)

		_, err = env.svc.Update(ctx, userActor(), created.ID, educontent.UpdateContentRequest{Title: &title}, nil)
		assert.ErrorIs(t, err, educontent.ErrForbidden)

		stored, err := env.repo.Get(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, "orig", stored.Title)
	})

	t.Run("admin updates any record", func(t *testing.T) {
		env := setupService(t)
		created, err := env.svc.Create(ctx, owner, linkRequest("orig"), nil)
		require.NoError(t, err)

		updated, err := env.svc.Update(ctx, adminActor(), created.ID, educontent.UpdateContentRequest{Title: &title}, nil)
		require.NoError(t, err)
		assert.Equal(t, "Renamed", updated.Title)
		assert.Equal(t, owner.UserID, updated.OwnerID)
	})

	t.Run("anonymous", func(t *testing.T) {
		env := setupService(t)
		_, err := env.svc.Update(ctx, nil, uuid.New(), educontent.UpdateContentRequest{Title: &title}, nil)
		assert.ErrorIs(t, err, educontent.ErrUnauthorized)
	})

	t.Run("missing record", func(t *testing.T) {
		env := setupService(t)
		_, err := env.svc.Update(ctx, owner, uuid.New(), educontent.UpdateContentRequest{Title: &title}, nil)
		assert.ErrorIs(t, err, educontent.ErrNotFound)
	})

	t.Run("empty title rejected", func(t *testing.T) {
		env := setupService(t)
		created, err := env.svc.Create(ctx, owner, linkRequest("orig"), nil)
		require.NoError(t, err)

		empty := ""
		_, err = env.svc.Update(ctx, owner, created.ID, educontent.UpdateContentRequest{Title: &empty}, nil)
		assert.ErrorIs(t, err, educontent.ErrValidation)
	})
}

func TestUpdate_FileURLWithEmptyKey(t *testing.T) {
	ctx := context.Background()
	owner := userActor()
	empty := ""

	t.Run("link url changes", func(t *testing.T) {
		env := setupService(t)
		created, err := env.svc.Create(ctx, owner, linkRequest("fractions"), nil)
		require.NoError(t, err)

		newURL := "https://example.org/decimals"
		updated, err := env.svc.Update(ctx, owner, created.ID, educontent.UpdateContentRequest{FileURL: &newURL, FileKey: &empty}, nil)
		require.NoError(t, err)
		require.NotNil(t, updated.FileURL)
		assert.Equal(t, newURL, *updated.FileURL)
		assert.Empty(t, updated.FileKey)

		stored, err := env.repo.Get(ctx, created.ID)
		require.NoError(t, err)
		require.NotNil(t, stored.FileURL)
		assert.Equal(t, newURL, *stored.FileURL)
	})

	t.Run("unchanged file url keeps the stored file", func(t *testing.T) {
		env := setupService(t)
		created, err := env.svc.Create(ctx, owner, documentRequest("notes"), pdfFile("notes.pdf", 64))
		require.NoError(t, err)
		require.NotEmpty(t, created.FileKey)

		require.NotNil(t, created.FileURL)
		title := "Notes v2"
		updated, err := env.svc.Update(ctx, owner, created.ID, educontent.UpdateContentRequest{Title: &title, FileURL: created.FileURL, FileKey: &empty}, nil)
		require.NoError(t, err)
		assert.Equal(t, created.FileKey, updated.FileKey)
		assert.Equal(t, created.FileURL, updated.FileURL)

		exists, err := env.store.Exists(ctx, created.FileKey)
		require.NoError(t, err)
		assert.True(t, exists)
	})
}

func TestUpdate_ReplacesFile(t *testing.T) {
	ctx := context.Background()
	owner := userActor()

	t.Run("old file removed", func(t *testing.T) {
		env := setupService(t)
		created, err := env.svc.Create(ctx, owner, documentRequest("doc"), pdfFile("v1.pdf", 10))
		require.NoError(t, err)

		updated, err := env.svc.Update(ctx, owner, created.ID, educontent.UpdateContentRequest{}, pdfFile("v2.pdf", 20))
		require.NoError(t, err)
		assert.NotEqual(t, created.FileKey, updated.FileKey)

		oldExists, err := env.store.Exists(ctx, created.FileKey)
		require.NoError(t, err)
		assert.False(t, oldExists)
		newExists, err := env.store.Exists(ctx, updated.FileKey)
		require.NoError(t, err)
		assert.True(t, newExists)
	})

	t.Run("cleanup failure does not fail the update", func(t *testing.T) {
		env := setupService(t)
		created, err := env.svc.Create(ctx, owner, documentRequest("doc"), pdfFile("v1.pdf", 10))
		require.NoError(t, err)

		env.store.failDelete = true
		updated, err := env.svc.Update(ctx, owner, created.ID, educontent.UpdateContentRequest{}, pdfFile("v2.pdf", 20))
		require.NoError(t, err)
		assert.NotEqual(t, created.FileKey, updated.FileKey)
	})

	t.Run("remove file", func(t *testing.T) {
		env := setupService(t)
		created, err := env.svc.Create(ctx, owner, documentRequest("doc"), pdfFile("v1.pdf", 10))
		require.NoError(t, err)

		updated, err := env.svc.Update(ctx, owner, created.ID, educontent.UpdateContentRequest{RemoveFile: true}, nil)
		require.NoError(t, err)
		assert.Nil(t, updated.FileURL)
		assert.Empty(t, updated.FileKey)
		assert.Equal(t, 0, env.store.Len())
	})

	t.Run("switch to link", func(t *testing.T) {
		env := setupService(t)
		created, err := env.svc.Create(ctx, owner, documentRequest("doc"), pdfFile("v1.pdf", 10))
		require.NoError(t, err)

		link := educontent.ContentTypeLink
		url := "https://example.org/resource"
		updated, err := env.svc.Update(ctx, owner, created.ID, educontent.UpdateContentRequest{ContentType: &link, FileURL: &url}, nil)
		require.NoError(t, err)
		assert.Equal(t, educontent.ContentTypeLink, updated.ContentType)
		assert.Equal(t, url, *updated.FileURL)
		assert.Empty(t, updated.FileKey)
		assert.Equal(t, 0, env.store.Len())
	})

	t.Run("invalid variant keeps new upload out of the store", func(t *testing.T) {
		env := setupService(t)
		created, err := env.svc.Create(ctx, owner, linkRequest("link"), nil)
		require.NoError(t, err)

		_, err = env.svc.Update(ctx, owner, created.ID, educontent.UpdateContentRequest{}, pdfFile("x.pdf", 10))
		assert.ErrorIs(t, err, educontent.ErrValidation)
		assert.Equal(t, 0, env.store.Len())
	})
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	owner := userActor()

	t.Run("owner deletes and file is removed", func(t *testing.T) {
		env := setupService(t)
		created, err := env.svc.Create(ctx, owner, documentRequest("doc"), pdfFile("a.pdf", 10))
		require.NoError(t, err)

		require.NoError(t, env.svc.Delete(ctx, owner, created.ID))
		_, err = env.repo.Get(ctx, created.ID)
		assert.ErrorIs(t, err, educontent.ErrNotFound)
		assert.Equal(t, 0, env.store.Len())
		assert.Contains(t, env.sink.events, "deleted:doc")
	})

	t.Run("file cleanup failure still succeeds", func(t *testing.T) {
		env := setupService(t)
		created, err := env.svc.Create(ctx, owner, documentRequest("doc"), pdfFile("a.pdf", 10))
		require.NoError(t, err)

		env.store.failDelete = true
		require.NoError(t, env.svc.Delete(ctx, owner, created.ID))
		_, err = env.repo.Get(ctx, created.ID)
		assert.ErrorIs(t, err, educontent.ErrNotFound)
	})

	t.Run("non-owner forbidden", func(t *testing.T) {
		env := setupService(t)
		created, err := env.svc.Create(ctx, owner, linkRequest("l"), nil)
		require.NoError(t, err)

		assert.ErrorIs(t, env.svc.Delete(ctx, userActor(), created.ID), educontent.ErrForbidden)
		_, err = env.repo.Get(ctx, created.ID)
		assert.NoError(t, err)
	})

	t.Run("admin deletes", func(t *testing.T) {
		env := setupService(t)
		created, err := env.svc.Create(ctx, owner, linkRequest("l"), nil)
		require.NoError(t, err)
		assert.NoError(t, env.svc.Delete(ctx, adminActor(), created.ID))
	})

	t.Run("missing record", func(t *testing.T) {
		env := setupService(t)
		assert.ErrorIs(t, env.svc.Delete(ctx, owner, uuid.New()), educontent.ErrNotFound)
	})
}

func TestListPublished(t *testing.T) {
	env := setupService(t)
	ctx := context.Background()
	actor := userActor()

	create := func(title, category string, status educontent.ContentStatus) {
		req := linkRequest(title)
		req.Category = category
		req.Status = status
		_, err := env.svc.Create(ctx, actor, req, nil)
		require.NoError(t, err)
	}
	create("A", "Mathematics", educontent.ContentStatusPublished)
	create("B", "Science", educontent.ContentStatusPublished)
	create("C", "Mathematics", educontent.ContentStatusPublished)
	create("D", "Mathematics", educontent.ContentStatusDraft)

	got, err := env.svc.ListPublished(ctx, educontent.Filter{Category: "Mathematics", Status: educontent.ContentStatusDraft})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "C", got[0].Title)
	assert.Equal(t, "A", got[1].Title)

	all, err := env.svc.ListPublished(ctx, educontent.Filter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

// Listing is unpaginated: every matching record is loaded and returned.
func TestListPublished_Unpaginated(t *testing.T) {
	env := setupService(t)
	ctx := context.Background()
	actor := userActor()

	const total = 1000
	for i := 0; i < total; i++ {
		req := linkRequest(fmt.Sprintf("item-%04d", i))
		req.Status = educontent.ContentStatusPublished
		_, err := env.svc.Create(ctx, actor, req, nil)
		require.NoError(t, err)
	}

	got, err := env.svc.ListPublished(ctx, educontent.Filter{})
	require.NoError(t, err)
	require.Len(t, got, total)
	assert.Equal(t, fmt.Sprintf("item-%04d", total-1), got[0].Title)
	assert.Equal(t, "item-0000", got[total-1].Title)
	for i := 1; i < len(got); i++ {
		assert.False(t, got[i].CreatedAt.After(got[i-1].CreatedAt), "record %d is newer than its predecessor", i)
	}
}

func TestListMine(t *testing.T) {
	env := setupService(t)
	ctx := context.Background()
	alice, bob := userActor(), userActor()

	_, err := env.svc.Create(ctx, alice, linkRequest("alice-1"), nil)
	require.NoError(t, err)
	_, err = env.svc.Create(ctx, bob, linkRequest("bob-1"), nil)
	require.NoError(t, err)

	mine, err := env.svc.ListMine(ctx, alice, educontent.Filter{OwnerID: bob.UserID})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "alice-1", mine[0].Title)

	everything, err := env.svc.ListMine(ctx, adminActor(), educontent.Filter{})
	require.NoError(t, err)
	assert.Len(t, everything, 2)

	_, err = env.svc.ListMine(ctx, nil, educontent.Filter{})
	assert.ErrorIs(t, err, educontent.ErrUnauthorized)
}

func TestUploadOperations(t *testing.T) {
	env := setupService(t)
	ctx := context.Background()
	actor := userActor()

	_, err := env.svc.UploadFile(ctx, nil, pdfUpload("a.pdf", 10))
	assert.ErrorIs(t, err, educontent.ErrUnauthorized)

	exe := educontent.FileUpload{FileName: "tool.exe", MediaType: "application/x-msdownload", Reader: bytes.NewReader([]byte("MZ"))}
	_, err = env.svc.UploadFile(ctx, actor, exe)
	assert.ErrorIs(t, err, educontent.ErrUnsupportedMediaType)

	exe.Reader = bytes.NewReader([]byte("MZ"))
	res, err := env.svc.UploadAnyFile(ctx, actor, exe)
	require.NoError(t, err)
	assert.NotEmpty(t, res.URL)

	results, err := env.svc.UploadFiles(ctx, actor, []educontent.FileUpload{pdfUpload("a.pdf", 10), pdfUpload("b.pdf", 10)})
	require.NoError(t, err)
	assert.True(t, results[0].Succeeded())
	assert.True(t, results[1].Succeeded())

	require.NoError(t, env.svc.DeleteFile(ctx, actor, res.Key))
	assert.ErrorIs(t, env.svc.DeleteFile(ctx, actor, res.Key), educontent.ErrNotFound)
}

func TestDeleteFile_Referenced(t *testing.T) {
	env := setupService(t)
	ctx := context.Background()
	owner := userActor()

	created, err := env.svc.Create(ctx, owner, documentRequest("doc"), pdfFile("a.pdf", 10))
	require.NoError(t, err)

	err = env.svc.DeleteFile(ctx, userActor(), created.FileKey)
	assert.ErrorIs(t, err, educontent.ErrForbidden)
	assert.Equal(t, 1, env.store.Len())

	require.NoError(t, env.svc.DeleteFile(ctx, owner, created.FileKey))
	stored, err := env.repo.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.FileURL)
	assert.Empty(t, stored.FileKey)
}

func TestEventSinkFailureIgnored(t *testing.T) {
	env := setupService(t)
	env.sink.fail = true

	created, err := env.svc.Create(context.Background(), userActor(), linkRequest("still-created"), nil)
	require.NoError(t, err)
	assert.NotNil(t, created)
}

func TestLoggingEventSink(t *testing.T) {
	sink := educontent.NewLoggingEventSink(nil)
	c := &educontent.Content{ID: uuid.New(), Title: "t"}
	assert.NoError(t, sink.ContentCreated(context.Background(), c))
	assert.NoError(t, sink.ContentUpdated(context.Background(), c))
	assert.NoError(t, sink.ContentDeleted(context.Background(), c))
}
