package educontent

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Error kinds
var (
	// ErrValidation indicates malformed input or a missing required field
	ErrValidation = errors.New("validation failed")

	// ErrNotFound indicates the addressed record or file does not exist
	ErrNotFound = errors.New("not found")

	// ErrContentNotFound indicates a content record was not found
	ErrContentNotFound = fmt.Errorf("content %w", ErrNotFound)

	// ErrFileNotFound indicates a stored file was not found
	ErrFileNotFound = fmt.Errorf("file %w", ErrNotFound)

	// ErrForbidden indicates the actor may not perform the action
	ErrForbidden = errors.New("forbidden")

	// ErrUnauthorized indicates the operation requires an authenticated actor
	ErrUnauthorized = errors.New("authentication required")

	// ErrFileTooLarge indicates an upload exceeded the size limit
	ErrFileTooLarge = errors.New("file too large")

	// ErrUnsupportedMediaType indicates an upload's media type is not allowed
	ErrUnsupportedMediaType = errors.New("unsupported media type")

	// ErrStorageFailure indicates the object store could not complete a call
	ErrStorageFailure = errors.New("storage failure")

	// ErrPersistence indicates the repository could not complete a call
	ErrPersistence = errors.New("persistence failure")
)

// ValidationError names the offending field of a rejected input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// ContentError represents an error related to content operations
type ContentError struct {
	ContentID uuid.UUID
	Op        string
	Err       error
}

func (e *ContentError) Error() string {
	return fmt.Sprintf("content operation %s failed for content %s: %v", e.Op, e.ContentID, e.Err)
}

func (e *ContentError) Unwrap() error {
	return e.Err
}

// UploadError represents an error related to a file upload or removal
type UploadError struct {
	Key      string
	FileName string
	Op       string
	Err      error
}

func (e *UploadError) Error() string {
	name := e.Key
	if name == "" {
		name = e.FileName
	}
	return fmt.Sprintf("upload operation %s failed for %q: %v", e.Op, name, e.Err)
}

func (e *UploadError) Unwrap() error {
	return e.Err
}
