package educontent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tendant/edu-content/pkg/educontent/objectkey"
)

// service implements the Service interface
type service struct {
	repository    Repository
	blobStore     BlobStore
	eventSink     EventSink
	logger        *slog.Logger
	policy        UploadPolicy
	maxBatch      int
	keys          objectkey.Generator
	hideForbidden bool
	now           func() time.Time

	uploads    *UploadPipeline
	anyUploads *UploadPipeline
}

// Option represents a functional option for configuring the service
type Option func(*service)

// WithRepository sets the repository for the service
func WithRepository(repo Repository) Option {
	return func(s *service) {
		s.repository = repo
	}
}

// WithBlobStore sets the object store uploaded files are written to
func WithBlobStore(store BlobStore) Option {
	return func(s *service) {
		s.blobStore = store
	}
}

// WithEventSink sets the event sink for the service
func WithEventSink(sink EventSink) Option {
	return func(s *service) {
		s.eventSink = sink
	}
}

// WithLogger sets the logger used for best-effort failures
func WithLogger(logger *slog.Logger) Option {
	return func(s *service) {
		s.logger = logger
	}
}

// WithUploadPolicy sets the size limit and media type allow-list of the
// validated upload path
func WithUploadPolicy(policy UploadPolicy) Option {
	return func(s *service) {
		s.policy = policy
	}
}

// WithBatchLimit sets how many files one batch upload may carry
func WithBatchLimit(n int) Option {
	return func(s *service) {
		s.maxBatch = n
	}
}

// WithObjectKeyGenerator sets how storage keys are derived from file names
func WithObjectKeyGenerator(gen objectkey.Generator) Option {
	return func(s *service) {
		s.keys = gen
	}
}

// WithHideForbidden makes GetVisible report private records the caller may
// not read as not found instead of forbidden
func WithHideForbidden(hide bool) Option {
	return func(s *service) {
		s.hideForbidden = hide
	}
}

// WithClock overrides the time source used for timestamps
func WithClock(now func() time.Time) Option {
	return func(s *service) {
		s.now = now
	}
}

// New creates a new service instance with the given options
func New(options ...Option) (Service, error) {
	s := &service{
		eventSink: NewNoopEventSink(),
		logger:    slog.Default(),
		policy:    DefaultUploadPolicy(),
		maxBatch:  DefaultMaxBatch,
		keys:      objectkey.NewDefaultGenerator(),
		now:       time.Now,
	}

	for _, option := range options {
		option(s)
	}

	if s.repository == nil {
		return nil, fmt.Errorf("repository is required")
	}
	if s.blobStore == nil {
		return nil, fmt.Errorf("blob store is required")
	}

	s.uploads = NewUploadPipeline(s.blobStore,
		WithPolicy(s.policy),
		WithMaxBatch(s.maxBatch),
		WithKeyGenerator(s.keys),
		WithUploadLogger(s.logger),
	)
	s.anyUploads = s.uploads.WithPolicy(UploadPolicy{
		MaxBytes:     s.uploads.Policy().MaxBytes,
		AllowAnyType: true,
	})

	return s, nil
}

func (s *service) UploadPolicy() UploadPolicy { return s.uploads.Policy() }

func (s *service) MaxBatch() int { return s.uploads.MaxBatch() }

func (s *service) Vocabulary() Vocabulary { return DefaultVocabulary() }

// Read operations

func (s *service) ListPublished(ctx context.Context, filter Filter) ([]*Content, error) {
	filter.Status = ContentStatusPublished
	contents, err := s.repository.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list published content: %w", repositoryError(err))
	}
	return contents, nil
}

func (s *service) ListMine(ctx context.Context, actor *Actor, filter Filter) ([]*Content, error) {
	if actor == nil {
		return nil, ErrUnauthorized
	}
	filter.OwnerID = uuid.Nil
	if !actor.IsAdmin() {
		filter.OwnerID = actor.UserID
	}
	contents, err := s.repository.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list own content: %w", repositoryError(err))
	}
	return contents, nil
}

func (s *service) GetVisible(ctx context.Context, id uuid.UUID, actor *Actor) (*Content, error) {
	content, err := s.repository.Get(ctx, id)
	if err != nil {
		return nil, &ContentError{ContentID: id, Op: "get", Err: repositoryError(err)}
	}
	if content.IsPublished() || Decide(actor, content, ActionReadDraft) == Allow {
		return content, nil
	}
	if s.hideForbidden {
		return nil, &ContentError{ContentID: id, Op: "get", Err: ErrContentNotFound}
	}
	return nil, &ContentError{ContentID: id, Op: "get", Err: ErrForbidden}
}

// Mutations

func (s *service) Create(ctx context.Context, actor *Actor, req CreateContentRequest, file *FileUpload) (*Content, error) {
	if actor == nil {
		return nil, ErrUnauthorized
	}

	now := s.now().UTC()
	content := req.content()
	content.ID = uuid.New()
	content.OwnerID = actor.UserID
	content.CreatedAt = now
	content.UpdatedAt = now

	if err := content.Validate(); err != nil {
		return nil, err
	}

	var uploadedKey string
	switch {
	case file != nil:
		if !content.ContentType.IsFileBacked() {
			return nil, &ValidationError{Field: "file", Reason: "cannot be attached to link content"}
		}
		res := s.uploads.Upload(ctx, *file)
		if res.Err != nil {
			return nil, res.Err
		}
		uploadedKey = res.Key
		content.FileURL = &res.URL
		content.FileKey = res.Key
	case req.FileKey != "":
		url, err := s.attachableFile(ctx, content.ContentType, req.FileKey, req.FileURL)
		if err != nil {
			return nil, err
		}
		content.FileURL = &url
		content.FileKey = req.FileKey
	case req.FileURL != "":
		url := req.FileURL
		content.FileURL = &url
	}

	if err := content.Variant().Validate(); err != nil {
		s.discardUpload(ctx, uploadedKey)
		return nil, err
	}

	if err := s.repository.Create(ctx, content); err != nil {
		s.discardUpload(ctx, uploadedKey)
		return nil, &ContentError{ContentID: content.ID, Op: "create", Err: repositoryError(err)}
	}

	s.emit(ctx, content, s.eventSink.ContentCreated)
	return content, nil
}

func (s *service) Update(ctx context.Context, actor *Actor, id uuid.UUID, req UpdateContentRequest, file *FileUpload) (*Content, error) {
	if actor == nil {
		return nil, ErrUnauthorized
	}

	current, err := s.repository.Get(ctx, id)
	if err != nil {
		return nil, &ContentError{ContentID: id, Op: "update", Err: repositoryError(err)}
	}
	if Decide(actor, current, ActionUpdate) == Deny {
		return nil, &ContentError{ContentID: id, Op: "update", Err: ErrForbidden}
	}

	patch := req.patch()
	targetType := current.ContentType
	if patch.ContentType != nil {
		targetType = *patch.ContentType
	}

	fileKey := req.FileKey
	if fileKey != nil && strings.TrimSpace(*fileKey) == "" {
		fileKey = nil
	}

	var uploadedKey string
	switch {
	case file != nil:
		if !targetType.IsFileBacked() {
			return nil, &ValidationError{Field: "file", Reason: "cannot be attached to link content"}
		}
		res := s.uploads.Upload(ctx, *file)
		if res.Err != nil {
			return nil, res.Err
		}
		uploadedKey = res.Key
		patch.FileURL = &res.URL
		patch.FileKey = &res.Key
	case fileKey != nil && *fileKey != current.FileKey:
		fileURL := ""
		if req.FileURL != nil {
			fileURL = *req.FileURL
		}
		url, err := s.attachableFile(ctx, targetType, *fileKey, fileURL)
		if err != nil {
			return nil, err
		}
		patch.FileURL = &url
		patch.FileKey = fileKey
	case fileKey == nil && req.FileURL != nil && strings.TrimSpace(*req.FileURL) != current.fileURL():
		// A bare URL replaces whatever file was attached.
		url := strings.TrimSpace(*req.FileURL)
		empty := ""
		patch.FileURL = &url
		patch.FileKey = &empty
		if url == "" {
			patch.FileURL = nil
			patch.ClearFile = true
		}
	}

	preview := current.Clone()
	patch.Apply(preview)
	if err := preview.Validate(); err != nil {
		s.discardUpload(ctx, uploadedKey)
		return nil, err
	}
	if err := preview.Variant().Validate(); err != nil {
		s.discardUpload(ctx, uploadedKey)
		return nil, err
	}

	if patch.IsEmpty() {
		return current, nil
	}

	updated, err := s.repository.Update(ctx, id, patch)
	if err != nil {
		s.discardUpload(ctx, uploadedKey)
		return nil, &ContentError{ContentID: id, Op: "update", Err: repositoryError(err)}
	}

	if current.FileKey != "" && current.FileKey != updated.FileKey {
		s.discardUpload(ctx, current.FileKey)
	}

	s.emit(ctx, updated, s.eventSink.ContentUpdated)
	return updated, nil
}

func (s *service) Delete(ctx context.Context, actor *Actor, id uuid.UUID) error {
	if actor == nil {
		return ErrUnauthorized
	}

	current, err := s.repository.Get(ctx, id)
	if err != nil {
		return &ContentError{ContentID: id, Op: "delete", Err: repositoryError(err)}
	}
	if Decide(actor, current, ActionDelete) == Deny {
		return &ContentError{ContentID: id, Op: "delete", Err: ErrForbidden}
	}

	if err := s.repository.Delete(ctx, id); err != nil {
		return &ContentError{ContentID: id, Op: "delete", Err: repositoryError(err)}
	}

	if current.FileKey != "" {
		s.discardUpload(ctx, current.FileKey)
	}

	s.emit(ctx, current, s.eventSink.ContentDeleted)
	return nil
}

// File operations

func (s *service) UploadFile(ctx context.Context, actor *Actor, file FileUpload) (UploadResult, error) {
	if actor == nil {
		return UploadResult{State: UploadRejected, FileName: file.FileName, Err: ErrUnauthorized}, ErrUnauthorized
	}
	res := s.uploads.Upload(ctx, file)
	return res, res.Err
}

func (s *service) UploadAnyFile(ctx context.Context, actor *Actor, file FileUpload) (UploadResult, error) {
	if actor == nil {
		return UploadResult{State: UploadRejected, FileName: file.FileName, Err: ErrUnauthorized}, ErrUnauthorized
	}
	res := s.anyUploads.Upload(ctx, file)
	return res, res.Err
}

func (s *service) UploadFiles(ctx context.Context, actor *Actor, files []FileUpload) ([]UploadResult, error) {
	if actor == nil {
		return nil, ErrUnauthorized
	}
	return s.uploads.UploadBatch(ctx, files)
}

// DeleteFile removes a stored file. When records reference the file the
// actor must be allowed to update each of them, and the references are
// cleared after the file is gone.
func (s *service) DeleteFile(ctx context.Context, actor *Actor, key string) error {
	if actor == nil {
		return ErrUnauthorized
	}
	if key == "" {
		return &ValidationError{Field: "key", Reason: "is required"}
	}

	refs, err := s.repository.List(ctx, Filter{FileKey: key})
	if err != nil {
		return &UploadError{Key: key, Op: "delete", Err: repositoryError(err)}
	}
	for _, c := range refs {
		if Decide(actor, c, ActionUpdate) == Deny {
			return &UploadError{Key: key, Op: "delete", Err: ErrForbidden}
		}
	}

	if err := s.uploads.DeleteByKey(ctx, key); err != nil {
		return err
	}

	for _, c := range refs {
		updated, err := s.repository.Update(ctx, c.ID, ContentPatch{ClearFile: true})
		if err != nil {
			s.logger.WarnContext(ctx, "Failed to detach deleted file", "content_id", c.ID, "key", key, "error", err)
			continue
		}
		s.emit(ctx, updated, s.eventSink.ContentUpdated)
	}
	return nil
}

// attachableFile checks that key names a stored file no record references yet
// and returns its canonical URL.
func (s *service) attachableFile(ctx context.Context, contentType ContentType, key, fileURL string) (string, error) {
	if !contentType.IsFileBacked() {
		return "", &ValidationError{Field: "fileKey", Reason: "cannot be attached to link content"}
	}
	ok, err := s.uploads.Exists(ctx, key)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", &ValidationError{Field: "fileKey", Reason: "does not reference an uploaded file"}
	}
	url := s.uploads.URL(key)
	if fileURL != "" && fileURL != url {
		return "", &ValidationError{Field: "fileUrl", Reason: "does not match fileKey"}
	}
	refs, err := s.repository.List(ctx, Filter{FileKey: key})
	if err != nil {
		return "", repositoryError(err)
	}
	if len(refs) > 0 {
		return "", &ValidationError{Field: "fileKey", Reason: "is already attached to another record"}
	}
	return url, nil
}

// discardUpload removes a file that is no longer referenced. Failures are
// logged and never surface to the caller.
func (s *service) discardUpload(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := s.uploads.DeleteByKey(ctx, key); err != nil {
		if errors.Is(err, ErrNotFound) {
			return
		}
		s.logger.WarnContext(ctx, "Failed to delete stored file", "key", key, "error", err)
	}
}

func (s *service) emit(ctx context.Context, content *Content, fn func(context.Context, *Content) error) {
	if err := fn(ctx, content); err != nil {
		// Event failures never fail the operation
		s.logger.WarnContext(ctx, "Event sink failed", "content_id", content.ID, "error", err)
	}
}

// repositoryError keeps not-found and validation errors as they are and
// classifies everything else as a persistence failure.
func repositoryError(err error) error {
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrValidation) || errors.Is(err, ErrPersistence) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrPersistence, err)
}
