package api

import (
	"errors"
	"fmt"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/render"

	"github.com/tendant/edu-content/pkg/educontent"
)

const (
	maxJSONBodyBytes int64 = 1 << 20
	// formOverhead is the slack allowed on top of file bytes for multipart
	// boundaries and text fields.
	formOverhead    int64 = 1 << 20
	multipartMemory int64 = 8 << 20
)

func isMultipart(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "multipart/form-data"
}

// decodeJSON decodes a JSON body of at most maxJSONBodyBytes into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)
	if err := render.DecodeJSON(r.Body, v); err != nil {
		if isBodyTooLarge(err) {
			return &educontent.ValidationError{Field: "body", Reason: "is too large"}
		}
		return &educontent.ValidationError{Field: "body", Reason: "is not valid JSON"}
	}
	return nil
}

// maxRequestBytes is the largest body any endpoint accepts: a full batch of
// files plus form overhead.
func maxRequestBytes(svc educontent.Service) int64 {
	return int64(svc.MaxBatch())*svc.UploadPolicy().MaxBytes + formOverhead
}

// parseMultipart parses a multipart body of at most maxBytes. Callers must
// call r.MultipartForm.RemoveAll when done.
func parseMultipart(w http.ResponseWriter, r *http.Request, maxBytes int64) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		if isBodyTooLarge(err) {
			return fmt.Errorf("%w: request body exceeds %d bytes", educontent.ErrFileTooLarge, maxBytes)
		}
		return &educontent.ValidationError{Field: "body", Reason: "is not a valid multipart form"}
	}
	return nil
}

func isBodyTooLarge(err error) bool {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return true
	}
	// mime/multipart does not always wrap the reader error.
	return strings.Contains(err.Error(), "request body too large")
}

func formValue(r *http.Request, name string) (string, bool) {
	if r.MultipartForm == nil {
		return "", false
	}
	values, ok := r.MultipartForm.Value[name]
	if !ok || len(values) == 0 {
		return "", false
	}
	return values[0], true
}

func formString(r *http.Request, name string) string {
	v, _ := formValue(r, name)
	return v
}

func formStringPtr(r *http.Request, name string) *string {
	v, ok := formValue(r, name)
	if !ok {
		return nil
	}
	return &v
}

func formBool(r *http.Request, name string) (bool, error) {
	v, ok := formValue(r, name)
	if !ok || v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, &educontent.ValidationError{Field: name, Reason: "must be true or false"}
	}
	return b, nil
}

// openedFile is an uploaded multipart file ready for the upload pipeline.
type openedFile struct {
	upload educontent.FileUpload
	file   multipart.File
}

func (f *openedFile) Close() error {
	return f.file.Close()
}

func openFileHeader(fh *multipart.FileHeader) (*openedFile, error) {
	file, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open uploaded file %q: %w", fh.Filename, err)
	}
	return &openedFile{
		upload: educontent.FileUpload{
			FileName:  fh.Filename,
			MediaType: fh.Header.Get("Content-Type"),
			Size:      fh.Size,
			Reader:    file,
		},
		file: file,
	}, nil
}

// singleFile opens the only file in field. It returns nil when the field is
// absent.
func singleFile(r *http.Request, field string) (*openedFile, error) {
	if r.MultipartForm == nil {
		return nil, nil
	}
	headers := r.MultipartForm.File[field]
	switch len(headers) {
	case 0:
		return nil, nil
	case 1:
		return openFileHeader(headers[0])
	default:
		return nil, &educontent.ValidationError{Field: field, Reason: "accepts a single file"}
	}
}
