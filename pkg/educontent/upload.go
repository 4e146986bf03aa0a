package educontent

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"slices"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/sync/errgroup"

	"github.com/tendant/edu-content/pkg/educontent/objectkey"
)

const (
	// DefaultMaxUploadBytes is the per-file size limit (5 MiB).
	DefaultMaxUploadBytes int64 = 5 * 1024 * 1024
	// DefaultMaxBatch is the maximum number of files in one batch upload.
	DefaultMaxBatch = 5
)

// DefaultAllowedMediaTypes is the allow-list of the validated upload path.
var DefaultAllowedMediaTypes = []string{
	"image/jpeg",
	"image/png",
	"image/gif",
	"application/pdf",
}

// UploadState tracks a file through the pipeline.
type UploadState string

const (
	UploadReceived     UploadState = "received"
	UploadValidated    UploadState = "validated"
	UploadStored       UploadState = "stored"
	UploadAcknowledged UploadState = "acknowledged"
	UploadRejected     UploadState = "rejected"
)

// UploadPolicy limits what the pipeline accepts.
type UploadPolicy struct {
	MaxBytes     int64
	AllowedTypes []string
	// AllowAnyType disables the media type check.
	AllowAnyType bool
}

// DefaultUploadPolicy returns the validated-path policy.
func DefaultUploadPolicy() UploadPolicy {
	return UploadPolicy{
		MaxBytes:     DefaultMaxUploadBytes,
		AllowedTypes: slices.Clone(DefaultAllowedMediaTypes),
	}
}

// Allows reports whether mediaType passes the type check.
func (p UploadPolicy) Allows(mediaType string) bool {
	if p.AllowAnyType {
		return true
	}
	return slices.Contains(p.AllowedTypes, normalizeMediaType(mediaType))
}

// FileUpload is one file submitted by a client.
type FileUpload struct {
	// FileName is the client-supplied original name.
	FileName string
	// MediaType is the declared type. Empty or application/octet-stream
	// triggers content sniffing.
	MediaType string
	// Size is the declared size, or -1 when unknown.
	Size   int64
	Reader io.Reader
}

// UploadResult is the outcome for a single file.
type UploadResult struct {
	State     UploadState `json:"state"`
	Key       string      `json:"key,omitempty"`
	URL       string      `json:"url,omitempty"`
	FileName  string      `json:"fileName"`
	MediaType string      `json:"mediaType,omitempty"`
	Size      int64       `json:"size"`
	Err       error       `json:"-"`
}

// Succeeded reports whether the file was stored and acknowledged.
func (r UploadResult) Succeeded() bool {
	return r.Err == nil && r.State == UploadAcknowledged
}

// Outcome collapses the state into "stored" or "rejected".
func (r UploadResult) Outcome() string {
	if r.Succeeded() {
		return string(UploadStored)
	}
	return string(UploadRejected)
}

// UploadPipeline validates files and writes them to a BlobStore.
type UploadPipeline struct {
	store    BlobStore
	keys     objectkey.Generator
	policy   UploadPolicy
	maxBatch int
	logger   *slog.Logger
}

// UploadOption configures an UploadPipeline.
type UploadOption func(*UploadPipeline)

func WithPolicy(policy UploadPolicy) UploadOption {
	return func(p *UploadPipeline) {
		p.policy = policy
	}
}

func WithMaxBatch(n int) UploadOption {
	return func(p *UploadPipeline) {
		p.maxBatch = n
	}
}

func WithKeyGenerator(gen objectkey.Generator) UploadOption {
	return func(p *UploadPipeline) {
		p.keys = gen
	}
}

func WithUploadLogger(logger *slog.Logger) UploadOption {
	return func(p *UploadPipeline) {
		p.logger = logger
	}
}

// NewUploadPipeline creates a pipeline writing to store.
func NewUploadPipeline(store BlobStore, opts ...UploadOption) *UploadPipeline {
	p := &UploadPipeline{
		store:    store,
		keys:     objectkey.NewDefaultGenerator(),
		policy:   DefaultUploadPolicy(),
		maxBatch: DefaultMaxBatch,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.policy.MaxBytes <= 0 {
		p.policy.MaxBytes = DefaultMaxUploadBytes
	}
	if p.maxBatch <= 0 {
		p.maxBatch = DefaultMaxBatch
	}
	return p
}

// Policy returns the pipeline's limits.
func (p *UploadPipeline) Policy() UploadPolicy {
	return p.policy
}

// MaxBatch returns the batch size limit.
func (p *UploadPipeline) MaxBatch() int {
	return p.maxBatch
}

// WithPolicy returns a copy of the pipeline that enforces policy and shares
// everything else.
func (p *UploadPipeline) WithPolicy(policy UploadPolicy) *UploadPipeline {
	cp := *p
	if policy.MaxBytes <= 0 {
		policy.MaxBytes = p.policy.MaxBytes
	}
	cp.policy = policy
	return &cp
}

// Upload runs one file through the pipeline. The returned result is either
// Acknowledged with a key and URL, or Rejected with Err set.
func (p *UploadPipeline) Upload(ctx context.Context, f FileUpload) UploadResult {
	res := UploadResult{State: UploadReceived, FileName: f.FileName, Size: f.Size}

	reject := func(op string, err error) UploadResult {
		res.State = UploadRejected
		res.Err = &UploadError{Key: res.Key, FileName: f.FileName, Op: op, Err: err}
		return res
	}

	if f.Reader == nil {
		return reject("read", &ValidationError{Field: "file", Reason: "is required"})
	}
	if f.Size > p.policy.MaxBytes {
		return reject("validate", fmt.Errorf("%w: %d bytes exceeds limit of %d", ErrFileTooLarge, f.Size, p.policy.MaxBytes))
	}

	data, err := io.ReadAll(io.LimitReader(f.Reader, p.policy.MaxBytes+1))
	if err != nil {
		return reject("read", fmt.Errorf("%w: unreadable file: %v", ErrValidation, err))
	}
	if int64(len(data)) > p.policy.MaxBytes {
		return reject("validate", fmt.Errorf("%w: exceeds limit of %d bytes", ErrFileTooLarge, p.policy.MaxBytes))
	}
	res.Size = int64(len(data))

	mediaType := normalizeMediaType(f.MediaType)
	if mediaType == "" || mediaType == "application/octet-stream" {
		mediaType = normalizeMediaType(mimetype.Detect(data).String())
	}
	res.MediaType = mediaType
	if !p.policy.Allows(mediaType) {
		return reject("validate", fmt.Errorf("%w: %s", ErrUnsupportedMediaType, mediaType))
	}
	res.State = UploadValidated

	res.Key = p.keys.GenerateKey(f.FileName)
	url, err := p.store.Put(ctx, res.Key, bytes.NewReader(data), PutParams{
		MediaType: mediaType,
		Size:      res.Size,
		FileName:  f.FileName,
	})
	if err != nil {
		p.logger.ErrorContext(ctx, "Failed to store upload", "key", res.Key, "file_name", f.FileName, "error", err)
		return reject("store", fmt.Errorf("%w: %w", ErrStorageFailure, err))
	}
	res.State = UploadStored

	res.URL = url
	res.State = UploadAcknowledged
	return res
}

// UploadBatch runs up to MaxBatch files concurrently. Results are returned in
// input order; a rejected file does not affect the others. The error is
// non-nil only when the batch as a whole is invalid, in which case nothing
// was stored.
func (p *UploadPipeline) UploadBatch(ctx context.Context, files []FileUpload) ([]UploadResult, error) {
	if len(files) == 0 {
		return nil, &ValidationError{Field: "files", Reason: "at least one file is required"}
	}
	if len(files) > p.maxBatch {
		return nil, &ValidationError{Field: "files", Reason: fmt.Sprintf("at most %d files are allowed", p.maxBatch)}
	}

	results := make([]UploadResult, len(files))
	var g errgroup.Group
	for i, f := range files {
		g.Go(func() error {
			results[i] = p.Upload(ctx, f)
			return results[i].Err
		})
	}
	if err := g.Wait(); err != nil {
		p.logger.DebugContext(ctx, "Batch upload rejected files", "files", len(files), "first_error", err)
	}
	return results, nil
}

// DeleteByKey removes a stored file.
func (p *UploadPipeline) DeleteByKey(ctx context.Context, key string) error {
	if key == "" {
		return &ValidationError{Field: "key", Reason: "is required"}
	}
	if err := p.store.Delete(ctx, key); err != nil {
		if errors.Is(err, ErrNotFound) {
			return &UploadError{Key: key, Op: "delete", Err: ErrFileNotFound}
		}
		return &UploadError{Key: key, Op: "delete", Err: fmt.Errorf("%w: %w", ErrStorageFailure, err)}
	}
	return nil
}

// Exists reports whether key is present in the store.
func (p *UploadPipeline) Exists(ctx context.Context, key string) (bool, error) {
	ok, err := p.store.Exists(ctx, key)
	if err != nil {
		return false, &UploadError{Key: key, Op: "exists", Err: fmt.Errorf("%w: %w", ErrStorageFailure, err)}
	}
	return ok, nil
}

// URL returns the public URL of key.
func (p *UploadPipeline) URL(key string) string {
	return p.store.URL(key)
}

func normalizeMediaType(mediaType string) string {
	mediaType = strings.TrimSpace(mediaType)
	if mediaType == "" {
		return ""
	}
	if parsed, _, err := mime.ParseMediaType(mediaType); err == nil {
		return parsed
	}
	if i := strings.IndexByte(mediaType, ';'); i >= 0 {
		mediaType = mediaType[:i]
	}
	return strings.ToLower(strings.TrimSpace(mediaType))
}
