package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/tendant/edu-content/pkg/educontent"
)

// ContentHandler handles HTTP requests for educational content records
type ContentHandler struct {
	service educontent.Service
}

// NewContentHandler creates a new content handler
func NewContentHandler(service educontent.Service) *ContentHandler {
	return &ContentHandler{service: service}
}

// Routes returns the routes for content
func (h *ContentHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ListContent)
	r.Get("/vocabulary", h.GetVocabulary)
	r.Get("/{id}", h.GetContent)

	r.Group(func(r chi.Router) {
		r.Use(RequireActor)
		r.Get("/mine", h.ListMine)
		r.Post("/", h.CreateContent)
		r.Put("/{id}", h.UpdateContent)
		r.Delete("/{id}", h.DeleteContent)
	})

	return r
}

// CreateContentRequest is the request body for creating a content record.
// Owner and id fields sent by clients are ignored.
type CreateContentRequest struct {
	Title       string `json:"title" validate:"required,max=255"`
	Description string `json:"description" validate:"required"`
	ContentType string `json:"contentType" validate:"required,oneof=video document image link"`
	FileURL     string `json:"fileUrl" validate:"omitempty,url,max=2048"`
	FileKey     string `json:"fileKey" validate:"omitempty,max=1024"`
	AgeGroup    string `json:"ageGroup" validate:"required,agegroup"`
	ClassLevel  string `json:"classLevel" validate:"required,classlevel"`
	Category    string `json:"category" validate:"required,category"`
	Area        string `json:"area" validate:"required,area"`
	Status      string `json:"status" validate:"omitempty,oneof=draft published archived"`
}

func (req CreateContentRequest) toService() educontent.CreateContentRequest {
	return educontent.CreateContentRequest{
		Title:       req.Title,
		Description: req.Description,
		ContentType: educontent.ContentType(req.ContentType),
		FileURL:     req.FileURL,
		FileKey:     req.FileKey,
		AgeGroup:    req.AgeGroup,
		ClassLevel:  req.ClassLevel,
		Category:    req.Category,
		Area:        req.Area,
		Status:      educontent.ContentStatus(req.Status),
	}
}

// UpdateContentRequest is the request body for updating a content record.
// Omitted fields keep their current value.
type UpdateContentRequest struct {
	Title       *string `json:"title" validate:"omitempty,min=1,max=255"`
	Description *string `json:"description" validate:"omitempty,min=1"`
	ContentType *string `json:"contentType" validate:"omitempty,oneof=video document image link"`
	FileURL     *string `json:"fileUrl" validate:"omitempty,url,max=2048"`
	FileKey     *string `json:"fileKey" validate:"omitempty,max=1024"`
	AgeGroup    *string `json:"ageGroup" validate:"omitempty,agegroup"`
	ClassLevel  *string `json:"classLevel" validate:"omitempty,classlevel"`
	Category    *string `json:"category" validate:"omitempty,category"`
	Area        *string `json:"area" validate:"omitempty,area"`
	Status      *string `json:"status" validate:"omitempty,oneof=draft published archived"`
	RemoveFile  bool    `json:"removeFile"`
}

func (req UpdateContentRequest) toService() educontent.UpdateContentRequest {
	out := educontent.UpdateContentRequest{
		Title:       req.Title,
		Description: req.Description,
		FileURL:     req.FileURL,
		FileKey:     req.FileKey,
		AgeGroup:    req.AgeGroup,
		ClassLevel:  req.ClassLevel,
		Category:    req.Category,
		Area:        req.Area,
		RemoveFile:  req.RemoveFile,
	}
	if req.ContentType != nil {
		ct := educontent.ContentType(*req.ContentType)
		out.ContentType = &ct
	}
	if req.Status != nil {
		st := educontent.ContentStatus(*req.Status)
		out.Status = &st
	}
	return out
}

// MessageResponse is returned by operations without a resource body.
type MessageResponse struct {
	Message string `json:"message"`
}

// ListContent returns published records, optionally filtered by the
// classification query parameters.
func (h *ContentHandler) ListContent(w http.ResponseWriter, r *http.Request) {
	filter, err := filterFromQuery(r)
	if err != nil {
		renderError(w, r, err)
		return
	}

	contents, err := h.service.ListPublished(r.Context(), filter)
	if err != nil {
		slog.Error("Failed to list content", "error", err)
		renderError(w, r, err)
		return
	}
	render.JSON(w, r, nonNil(contents))
}

// ListMine returns the caller's own records in every status.
func (h *ContentHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	filter, err := filterFromQuery(r)
	if err != nil {
		renderError(w, r, err)
		return
	}
	if status := r.URL.Query().Get("status"); status != "" {
		filter.Status = educontent.ContentStatus(status)
		if !filter.Status.IsValid() {
			renderError(w, r, &educontent.ValidationError{Field: "status", Reason: "is not a valid status"})
			return
		}
	}

	contents, err := h.service.ListMine(r.Context(), ActorFromContext(r.Context()), filter)
	if err != nil {
		slog.Error("Failed to list own content", "error", err)
		renderError(w, r, err)
		return
	}
	render.JSON(w, r, nonNil(contents))
}

// GetVocabulary returns the classification values for client forms.
func (h *ContentHandler) GetVocabulary(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.service.Vocabulary())
}

// GetContent returns a single record visible to the caller.
func (h *ContentHandler) GetContent(w http.ResponseWriter, r *http.Request) {
	id, ok := contentID(w, r)
	if !ok {
		return
	}

	content, err := h.service.GetVisible(r.Context(), id, ActorFromContext(r.Context()))
	if err != nil {
		renderError(w, r, err)
		return
	}
	render.JSON(w, r, content)
}

// CreateContent creates a record owned by the caller. The body is JSON or a
// multipart form with an optional "file" part.
func (h *ContentHandler) CreateContent(w http.ResponseWriter, r *http.Request) {
	var req CreateContentRequest
	var file *openedFile

	if isMultipart(r) {
		if err := parseMultipart(w, r, h.service.UploadPolicy().MaxBytes+formOverhead); err != nil {
			renderError(w, r, err)
			return
		}
		defer r.MultipartForm.RemoveAll()

		req = CreateContentRequest{
			Title:       formString(r, "title"),
			Description: formString(r, "description"),
			ContentType: formString(r, "contentType"),
			FileURL:     formString(r, "fileUrl"),
			FileKey:     formString(r, "fileKey"),
			AgeGroup:    formString(r, "ageGroup"),
			ClassLevel:  formString(r, "classLevel"),
			Category:    formString(r, "category"),
			Area:        formString(r, "area"),
			Status:      formString(r, "status"),
		}
		var err error
		if file, err = singleFile(r, "file"); err != nil {
			renderError(w, r, err)
			return
		}
		if file != nil {
			defer file.Close()
		}
	} else if err := decodeJSON(w, r, &req); err != nil {
		renderError(w, r, err)
		return
	}

	if err := validateStruct(req); err != nil {
		renderError(w, r, err)
		return
	}

	var upload *educontent.FileUpload
	if file != nil {
		upload = &file.upload
	}

	content, err := h.service.Create(r.Context(), ActorFromContext(r.Context()), req.toService(), upload)
	if err != nil {
		slog.Error("Failed to create content", "error", err)
		renderError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, content)
}

// UpdateContent changes the fields present in the body. Only the owner or
// an admin may update a record.
func (h *ContentHandler) UpdateContent(w http.ResponseWriter, r *http.Request) {
	id, ok := contentID(w, r)
	if !ok {
		return
	}

	var req UpdateContentRequest
	var file *openedFile

	if isMultipart(r) {
		if err := parseMultipart(w, r, h.service.UploadPolicy().MaxBytes+formOverhead); err != nil {
			renderError(w, r, err)
			return
		}
		defer r.MultipartForm.RemoveAll()

		removeFile, err := formBool(r, "removeFile")
		if err != nil {
			renderError(w, r, err)
			return
		}
		req = UpdateContentRequest{
			Title:       formStringPtr(r, "title"),
			Description: formStringPtr(r, "description"),
			ContentType: formStringPtr(r, "contentType"),
			FileURL:     formStringPtr(r, "fileUrl"),
			FileKey:     formStringPtr(r, "fileKey"),
			AgeGroup:    formStringPtr(r, "ageGroup"),
			ClassLevel:  formStringPtr(r, "classLevel"),
			Category:    formStringPtr(r, "category"),
			Area:        formStringPtr(r, "area"),
			Status:      formStringPtr(r, "status"),
			RemoveFile:  removeFile,
		}
		if file, err = singleFile(r, "file"); err != nil {
			renderError(w, r, err)
			return
		}
		if file != nil {
			defer file.Close()
		}
	} else if err := decodeJSON(w, r, &req); err != nil {
		renderError(w, r, err)
		return
	}

	if err := validateStruct(req); err != nil {
		renderError(w, r, err)
		return
	}

	var upload *educontent.FileUpload
	if file != nil {
		upload = &file.upload
	}

	content, err := h.service.Update(r.Context(), ActorFromContext(r.Context()), id, req.toService(), upload)
	if err != nil {
		slog.Error("Failed to update content", "content_id", id, "error", err)
		renderError(w, r, err)
		return
	}
	render.JSON(w, r, content)
}

// DeleteContent removes a record and its stored file.
func (h *ContentHandler) DeleteContent(w http.ResponseWriter, r *http.Request) {
	id, ok := contentID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), ActorFromContext(r.Context()), id); err != nil {
		slog.Error("Failed to delete content", "content_id", id, "error", err)
		renderError(w, r, err)
		return
	}
	render.JSON(w, r, MessageResponse{Message: "Content deleted successfully"})
}

func contentID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	idStr := chi.URLParam(r, "id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		slog.Debug("Invalid content ID", "content_id", idStr, "error", err)
		renderError(w, r, &educontent.ValidationError{Field: "id", Reason: "must be a valid UUID"})
		return uuid.Nil, false
	}
	return id, true
}

func filterFromQuery(r *http.Request) (educontent.Filter, error) {
	q := r.URL.Query()
	filter := educontent.Filter{
		AgeGroup:   q.Get("ageGroup"),
		ClassLevel: q.Get("classLevel"),
		Category:   q.Get("category"),
		Area:       q.Get("area"),
	}
	if ct := q.Get("contentType"); ct != "" {
		filter.ContentType = educontent.ContentType(ct)
		if !filter.ContentType.IsValid() {
			return filter, &educontent.ValidationError{Field: "contentType", Reason: "is not a supported content type"}
		}
	}
	return filter, nil
}

func nonNil(contents []*educontent.Content) []*educontent.Content {
	if contents == nil {
		return []*educontent.Content{}
	}
	return contents
}
