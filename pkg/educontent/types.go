package educontent

import (
	"time"

	"github.com/google/uuid"
)

// ContentType is the kind of learning resource a record describes.
type ContentType string

const (
	ContentTypeVideo    ContentType = "video"
	ContentTypeDocument ContentType = "document"
	ContentTypeImage    ContentType = "image"
	ContentTypeLink     ContentType = "link"
)

// ContentTypes lists every recognized content type.
var ContentTypes = []ContentType{
	ContentTypeVideo,
	ContentTypeDocument,
	ContentTypeImage,
	ContentTypeLink,
}

// IsValid reports whether t is a recognized content type.
func (t ContentType) IsValid() bool {
	switch t {
	case ContentTypeVideo, ContentTypeDocument, ContentTypeImage, ContentTypeLink:
		return true
	}
	return false
}

// IsFileBacked reports whether records of this type point at an uploaded file.
func (t ContentType) IsFileBacked() bool {
	return t == ContentTypeVideo || t == ContentTypeDocument || t == ContentTypeImage
}

// ContentStatus is the publication state of a record.
type ContentStatus string

const (
	ContentStatusDraft     ContentStatus = "draft"
	ContentStatusPublished ContentStatus = "published"
	ContentStatusArchived  ContentStatus = "archived"
)

// ContentStatuses lists every recognized status.
var ContentStatuses = []ContentStatus{
	ContentStatusDraft,
	ContentStatusPublished,
	ContentStatusArchived,
}

// IsValid reports whether s is a recognized status.
func (s ContentStatus) IsValid() bool {
	switch s {
	case ContentStatusDraft, ContentStatusPublished, ContentStatusArchived:
		return true
	}
	return false
}

// Role is the privilege level of an authenticated user.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// IsValid reports whether r is a recognized role.
func (r Role) IsValid() bool {
	return r == RoleUser || r == RoleAdmin
}

// Actor is the authenticated caller of an operation. A nil *Actor means the
// caller is anonymous.
type Actor struct {
	UserID uuid.UUID
	Role   Role
}

// IsAdmin reports whether the actor holds the admin role.
func (a *Actor) IsAdmin() bool {
	return a != nil && a.Role == RoleAdmin
}

// Content is a stored educational resource.
type Content struct {
	ID          uuid.UUID     `json:"id"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	ContentType ContentType   `json:"contentType"`
	FileURL     *string       `json:"fileUrl"`
	FileKey     string        `json:"fileKey,omitempty"`
	AgeGroup    string        `json:"ageGroup"`
	ClassLevel  string        `json:"classLevel"`
	Category    string        `json:"category"`
	Area        string        `json:"area"`
	Status      ContentStatus `json:"status"`
	OwnerID     uuid.UUID     `json:"ownerId"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

// IsPublished reports whether the record is visible to anonymous callers.
func (c *Content) IsPublished() bool {
	return c.Status == ContentStatusPublished
}

// Clone returns a deep copy of c.
func (c *Content) fileURL() string {
	if c.FileURL == nil {
		return ""
	}
	return *c.FileURL
}

func (c *Content) Clone() *Content {
	if c == nil {
		return nil
	}
	cp := *c
	if c.FileURL != nil {
		u := *c.FileURL
		cp.FileURL = &u
	}
	return &cp
}

// Validate checks the fields every stored record must carry.
func (c *Content) Validate() error {
	switch {
	case c.Title == "":
		return &ValidationError{Field: "title", Reason: "is required"}
	case c.Description == "":
		return &ValidationError{Field: "description", Reason: "is required"}
	case !c.ContentType.IsValid():
		return &ValidationError{Field: "contentType", Reason: "must be one of video, document, image, link"}
	case c.AgeGroup == "":
		return &ValidationError{Field: "ageGroup", Reason: "is required"}
	case c.ClassLevel == "":
		return &ValidationError{Field: "classLevel", Reason: "is required"}
	case c.Category == "":
		return &ValidationError{Field: "category", Reason: "is required"}
	case c.Area == "":
		return &ValidationError{Field: "area", Reason: "is required"}
	case !c.Status.IsValid():
		return &ValidationError{Field: "status", Reason: "must be one of draft, published, archived"}
	case c.OwnerID == uuid.Nil:
		return &ValidationError{Field: "ownerId", Reason: "is required"}
	}
	return nil
}

// ContentPatch carries the fields of an update. Nil fields are left as they
// are. ClearFile drops the file reference before FileURL and FileKey apply.
type ContentPatch struct {
	Title       *string
	Description *string
	ContentType *ContentType
	AgeGroup    *string
	ClassLevel  *string
	Category    *string
	Area        *string
	Status      *ContentStatus
	FileURL     *string
	FileKey     *string
	ClearFile   bool
}

// IsEmpty reports whether the patch changes nothing.
func (p ContentPatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.ContentType == nil &&
		p.AgeGroup == nil && p.ClassLevel == nil && p.Category == nil &&
		p.Area == nil && p.Status == nil && p.FileURL == nil && p.FileKey == nil &&
		!p.ClearFile
}

// Apply merges the patch into c. ID and OwnerID are never touched.
func (p ContentPatch) Apply(c *Content) {
	if p.Title != nil {
		c.Title = *p.Title
	}
	if p.Description != nil {
		c.Description = *p.Description
	}
	if p.ContentType != nil {
		c.ContentType = *p.ContentType
	}
	if p.AgeGroup != nil {
		c.AgeGroup = *p.AgeGroup
	}
	if p.ClassLevel != nil {
		c.ClassLevel = *p.ClassLevel
	}
	if p.Category != nil {
		c.Category = *p.Category
	}
	if p.Area != nil {
		c.Area = *p.Area
	}
	if p.Status != nil {
		c.Status = *p.Status
	}
	if p.ClearFile {
		c.FileURL = nil
		c.FileKey = ""
	}
	if p.FileURL != nil {
		u := *p.FileURL
		c.FileURL = &u
	}
	if p.FileKey != nil {
		c.FileKey = *p.FileKey
	}
}

// Filter selects records in List. Zero-valued fields impose no constraint;
// the present ones are combined with AND.
type Filter struct {
	Status      ContentStatus
	ContentType ContentType
	AgeGroup    string
	ClassLevel  string
	Category    string
	Area        string
	OwnerID     uuid.UUID
	FileKey     string
}

// Matches reports whether c satisfies every present field of the filter.
func (f Filter) Matches(c *Content) bool {
	if f.Status != "" && c.Status != f.Status {
		return false
	}
	if f.ContentType != "" && c.ContentType != f.ContentType {
		return false
	}
	if f.AgeGroup != "" && c.AgeGroup != f.AgeGroup {
		return false
	}
	if f.ClassLevel != "" && c.ClassLevel != f.ClassLevel {
		return false
	}
	if f.Category != "" && c.Category != f.Category {
		return false
	}
	if f.Area != "" && c.Area != f.Area {
		return false
	}
	if f.OwnerID != uuid.Nil && c.OwnerID != f.OwnerID {
		return false
	}
	if f.FileKey != "" && c.FileKey != f.FileKey {
		return false
	}
	return true
}
