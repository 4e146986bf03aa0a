package educontent

import (
	"net/url"
)

// ContentVariant is the type-specific payload of a record. Each content type
// carries its own required fields.
type ContentVariant interface {
	Type() ContentType
	Validate() error
}

// FileRef points at a file produced by the upload pipeline.
type FileRef struct {
	URL string
	Key string
}

func (f FileRef) validate() error {
	if f.URL != "" && f.Key == "" {
		return &ValidationError{Field: "fileUrl", Reason: "must reference an uploaded file"}
	}
	if f.Key != "" && f.URL == "" {
		return &ValidationError{Field: "fileUrl", Reason: "is missing for the uploaded file"}
	}
	return nil
}

type VideoContent struct{ File FileRef }

func (VideoContent) Type() ContentType { return ContentTypeVideo }
func (v VideoContent) Validate() error { return v.File.validate() }

type DocumentContent struct{ File FileRef }

func (DocumentContent) Type() ContentType { return ContentTypeDocument }
func (v DocumentContent) Validate() error { return v.File.validate() }

type ImageContent struct{ File FileRef }

func (ImageContent) Type() ContentType { return ContentTypeImage }
func (v ImageContent) Validate() error { return v.File.validate() }

// LinkContent points at an external resource.
type LinkContent struct {
	URL string
	// Key is set only when a file reference was wrongly attached to a link.
	Key string
}

func (LinkContent) Type() ContentType { return ContentTypeLink }

func (v LinkContent) Validate() error {
	if v.URL == "" {
		return &ValidationError{Field: "fileUrl", Reason: "is required for link content"}
	}
	if v.Key != "" {
		return &ValidationError{Field: "fileUrl", Reason: "link content cannot reference an uploaded file"}
	}
	u, err := url.Parse(v.URL)
	if err != nil || !u.IsAbs() || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return &ValidationError{Field: "fileUrl", Reason: "must be an absolute http(s) URL"}
	}
	return nil
}

// Variant returns the type-specific view of the record, or nil when the
// content type is not recognized.
func (c *Content) Variant() ContentVariant {
	ref := FileRef{Key: c.FileKey}
	if c.FileURL != nil {
		ref.URL = *c.FileURL
	}
	switch c.ContentType {
	case ContentTypeVideo:
		return VideoContent{File: ref}
	case ContentTypeDocument:
		return DocumentContent{File: ref}
	case ContentTypeImage:
		return ImageContent{File: ref}
	case ContentTypeLink:
		return LinkContent{URL: ref.URL, Key: ref.Key}
	}
	return nil
}
