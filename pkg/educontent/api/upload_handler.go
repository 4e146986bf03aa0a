package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/tendant/edu-content/pkg/educontent"
)

// UploadHandler handles standalone file uploads that records attach later
// through their fileKey.
type UploadHandler struct {
	service educontent.Service
}

// NewUploadHandler creates a new upload handler
func NewUploadHandler(service educontent.Service) *UploadHandler {
	return &UploadHandler{service: service}
}

// Routes returns the routes for uploads. Every route requires an actor.
func (h *UploadHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(RequireActor)

	r.Post("/", h.Upload)
	r.Post("/single", h.UploadSingle)
	r.Post("/multiple", h.UploadMultiple)
	r.Delete("/{key}", h.DeleteFile)
	r.Delete("/*", h.DeleteFile)

	return r
}

// SingleUploadResponse is the response body of a validated single upload.
// FileName carries the storage key clients send back as fileKey.
type SingleUploadResponse struct {
	Message   string `json:"message"`
	FileURL   string `json:"fileUrl"`
	FileName  string `json:"fileName"`
	MediaType string `json:"mediaType"`
	Size      int64  `json:"size"`
}

// UploadResponse is the response body of the unvalidated upload endpoint.
type UploadResponse struct {
	URL string `json:"url"`
	Key string `json:"key"`
}

// UploadedFile reports the outcome of one file of a multi-file upload.
type UploadedFile struct {
	URL      string `json:"url,omitempty"`
	Key      string `json:"key,omitempty"`
	FileName string `json:"fileName"`
	State    string `json:"state"`
	Error    string `json:"error,omitempty"`
}

// MultipleUploadResponse is the response body of a multi-file upload.
type MultipleUploadResponse struct {
	Message string         `json:"message"`
	Files   []UploadedFile `json:"files"`
}

// UploadSingle stores one file that passes the size and media type policy.
func (h *UploadHandler) UploadSingle(w http.ResponseWriter, r *http.Request) {
	file, ok := h.openSingle(w, r)
	if !ok {
		return
	}
	defer r.MultipartForm.RemoveAll()
	defer file.Close()

	res, err := h.service.UploadFile(r.Context(), ActorFromContext(r.Context()), file.upload)
	recordUploads("single", res.Outcome())
	if err != nil {
		slog.Error("Failed to upload file", "file_name", file.upload.FileName, "error", err)
		renderError(w, r, err)
		return
	}

	render.JSON(w, r, SingleUploadResponse{
		Message:   "File uploaded successfully",
		FileURL:   res.URL,
		FileName:  res.Key,
		MediaType: res.MediaType,
		Size:      res.Size,
	})
}

// Upload stores one file of any media type. The size limit still applies.
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	file, ok := h.openSingle(w, r)
	if !ok {
		return
	}
	defer r.MultipartForm.RemoveAll()
	defer file.Close()

	res, err := h.service.UploadAnyFile(r.Context(), ActorFromContext(r.Context()), file.upload)
	recordUploads("any", res.Outcome())
	if err != nil {
		slog.Error("Failed to upload file", "file_name", file.upload.FileName, "error", err)
		renderError(w, r, err)
		return
	}
	render.JSON(w, r, UploadResponse{URL: res.URL, Key: res.Key})
}

// UploadMultiple stores up to the batch limit of files from the "files"
// field. Each file succeeds or fails on its own.
func (h *UploadHandler) UploadMultiple(w http.ResponseWriter, r *http.Request) {
	maxBatch := h.service.MaxBatch()
	maxBody := maxRequestBytes(h.service)
	if !isMultipart(r) {
		badRequest(w, r, "request must be multipart/form-data")
		return
	}
	if err := parseMultipart(w, r, maxBody); err != nil {
		renderError(w, r, err)
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		renderError(w, r, &educontent.ValidationError{Field: "files", Reason: "no files uploaded"})
		return
	}
	if len(headers) > maxBatch {
		renderError(w, r, &educontent.ValidationError{Field: "files", Reason: fmt.Sprintf("accepts at most %d files", maxBatch)})
		return
	}

	uploads := make([]educontent.FileUpload, 0, len(headers))
	for _, fh := range headers {
		file, err := openFileHeader(fh)
		if err != nil {
			slog.Error("Failed to open uploaded file", "file_name", fh.Filename, "error", err)
			renderError(w, r, err)
			return
		}
		defer file.Close()
		uploads = append(uploads, file.upload)
	}

	results, err := h.service.UploadFiles(r.Context(), ActorFromContext(r.Context()), uploads)
	if err != nil {
		renderError(w, r, err)
		return
	}

	files := make([]UploadedFile, 0, len(results))
	stored := 0
	for _, res := range results {
		item := UploadedFile{FileName: res.FileName, State: res.Outcome()}
		if res.Succeeded() {
			item.URL, item.Key = res.URL, res.Key
			stored++
		} else {
			item.Error = classify(res.Err).body.Message
		}
		recordUploads("multiple", res.Outcome())
		files = append(files, item)
	}

	render.JSON(w, r, MultipleUploadResponse{
		Message: fmt.Sprintf("%d of %d files uploaded successfully", stored, len(files)),
		Files:   files,
	})
}

// DeleteFile removes a stored file by key. Records referencing it lose
// their file reference.
func (h *UploadHandler) DeleteFile(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "key")
	if raw == "" {
		raw = chi.URLParam(r, "*")
	}
	key, err := url.PathUnescape(raw)
	if err != nil || key == "" {
		renderError(w, r, &educontent.ValidationError{Field: "key", Reason: "is not a valid file key"})
		return
	}

	if err := h.service.DeleteFile(r.Context(), ActorFromContext(r.Context()), key); err != nil {
		slog.Error("Failed to delete file", "key", key, "error", err)
		renderError(w, r, err)
		return
	}
	render.JSON(w, r, MessageResponse{Message: "File deleted successfully"})
}

// openSingle parses the form and opens its "file" part. On failure the
// response has been written.
func (h *UploadHandler) openSingle(w http.ResponseWriter, r *http.Request) (*openedFile, bool) {
	if !isMultipart(r) {
		badRequest(w, r, "request must be multipart/form-data")
		return nil, false
	}
	if err := parseMultipart(w, r, h.service.UploadPolicy().MaxBytes+formOverhead); err != nil {
		renderError(w, r, err)
		return nil, false
	}

	file, err := singleFile(r, "file")
	if err == nil && file == nil {
		err = &educontent.ValidationError{Field: "file", Reason: "no file uploaded"}
	}
	if err != nil {
		r.MultipartForm.RemoveAll()
		renderError(w, r, err)
		return nil, false
	}
	return file, true
}
