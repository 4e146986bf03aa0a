package educontent

import (
	"context"
	"io"

	"github.com/google/uuid"
)

// Repository persists content records.
type Repository interface {
	// Create stores c, assigning a fresh ID when c.ID is zero.
	Create(ctx context.Context, c *Content) error
	Get(ctx context.Context, id uuid.UUID) (*Content, error)
	// List returns the records matching filter, newest first.
	List(ctx context.Context, filter Filter) ([]*Content, error)
	Update(ctx context.Context, id uuid.UUID, patch ContentPatch) (*Content, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// PutParams describes an object written to a BlobStore.
type PutParams struct {
	MediaType string
	Size      int64
	FileName  string
}

// BlobStore stores uploaded files under opaque keys.
type BlobStore interface {
	// Put writes the object and returns the URL clients use to fetch it.
	Put(ctx context.Context, key string, r io.Reader, params PutParams) (string, error)
	// Delete removes the object, returning ErrFileNotFound when it is absent.
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	// URL returns the public URL of key. It matches the URL returned by Put.
	URL(key string) string
}

// EventSink receives notifications about content lifecycle changes.
type EventSink interface {
	ContentCreated(ctx context.Context, content *Content) error
	ContentUpdated(ctx context.Context, content *Content) error
	ContentDeleted(ctx context.Context, content *Content) error
}
