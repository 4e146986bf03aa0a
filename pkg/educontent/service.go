package educontent

import (
	"context"

	"github.com/google/uuid"
)

// Service is the main interface of the content layer. Every mutating
// operation takes the authenticated actor; a nil actor is anonymous.
type Service interface {
	// ListPublished returns published records matching filter, newest first.
	// Any status in filter is overridden.
	ListPublished(ctx context.Context, filter Filter) ([]*Content, error)
	// ListMine returns the actor's own records in every status. Admins see
	// every record.
	ListMine(ctx context.Context, actor *Actor, filter Filter) ([]*Content, error)
	// GetVisible returns the record if it is published or the actor may read
	// drafts of it.
	GetVisible(ctx context.Context, id uuid.UUID, actor *Actor) (*Content, error)

	Create(ctx context.Context, actor *Actor, req CreateContentRequest, file *FileUpload) (*Content, error)
	Update(ctx context.Context, actor *Actor, id uuid.UUID, req UpdateContentRequest, file *FileUpload) (*Content, error)
	Delete(ctx context.Context, actor *Actor, id uuid.UUID) error

	// UploadFile stores a file through the validated path.
	UploadFile(ctx context.Context, actor *Actor, file FileUpload) (UploadResult, error)
	// UploadAnyFile stores a file of any media type, size limit still applies.
	UploadAnyFile(ctx context.Context, actor *Actor, file FileUpload) (UploadResult, error)
	UploadFiles(ctx context.Context, actor *Actor, files []FileUpload) ([]UploadResult, error)
	DeleteFile(ctx context.Context, actor *Actor, key string) error

	UploadPolicy() UploadPolicy
	MaxBatch() int
	Vocabulary() Vocabulary
}
