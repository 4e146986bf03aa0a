package educontent

import "strings"

// CreateContentRequest contains the client-editable fields of a new record.
// The owner always comes from the actor.
type CreateContentRequest struct {
	Title       string
	Description string
	ContentType ContentType
	// FileURL is the external URL of link content.
	FileURL string
	// FileKey attaches a file uploaded earlier through the upload endpoints.
	FileKey    string
	AgeGroup   string
	ClassLevel string
	Category   string
	Area       string
	// Status defaults to draft.
	Status ContentStatus
}

// UpdateContentRequest contains the fields to change. Nil fields are kept.
type UpdateContentRequest struct {
	Title       *string
	Description *string
	ContentType *ContentType
	FileURL     *string
	FileKey     *string
	AgeGroup    *string
	ClassLevel  *string
	Category    *string
	Area        *string
	Status      *ContentStatus
	// RemoveFile detaches the current file and deletes it from the store.
	RemoveFile bool
}

func (r CreateContentRequest) content() *Content {
	c := &Content{
		Title:       strings.TrimSpace(r.Title),
		Description: strings.TrimSpace(r.Description),
		ContentType: r.ContentType,
		AgeGroup:    strings.TrimSpace(r.AgeGroup),
		ClassLevel:  strings.TrimSpace(r.ClassLevel),
		Category:    strings.TrimSpace(r.Category),
		Area:        strings.TrimSpace(r.Area),
		Status:      r.Status,
	}
	if c.Status == "" {
		c.Status = ContentStatusDraft
	}
	return c
}

func (r UpdateContentRequest) patch() ContentPatch {
	return ContentPatch{
		Title:       trimmed(r.Title),
		Description: trimmed(r.Description),
		ContentType: r.ContentType,
		AgeGroup:    trimmed(r.AgeGroup),
		ClassLevel:  trimmed(r.ClassLevel),
		Category:    trimmed(r.Category),
		Area:        trimmed(r.Area),
		Status:      r.Status,
		ClearFile:   r.RemoveFile,
	}
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}
