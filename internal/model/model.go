// Package model defines the data structures shared between the validation,
// ingestion, and content-store layers.
package model

import "time"

// Status is the caller-facing post status.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
)

// ContentOrigin records where a draft's HTML came from. The sanitization
// policy applied to the HTML depends on it.
type ContentOrigin int

const (
	// OriginNone means the draft carried no content field at all.
	OriginNone ContentOrigin = iota
	// OriginRawHTML means the caller supplied HTML directly.
	OriginRawHTML
	// OriginConverted means the HTML was produced by the markdown converter.
	OriginConverted
)

// Draft is the request-side representation of a post. Pointer fields
// distinguish "absent" (nil) from "explicitly empty". The distinction
// drives partial-update semantics and must survive JSON decoding.
type Draft struct {
	Title         *string   `json:"title"`
	Content       *string   `json:"content"`
	Markdown      *string   `json:"markdown"`
	Excerpt       *string   `json:"excerpt"`
	Tags          *[]string `json:"tags"`
	Status        *string   `json:"status"`
	FeaturedImage *string   `json:"featured_image"`
}

// NewPost is the normalized record handed to the content store on create.
// Status here is already the backend's vocabulary (publish/draft).
type NewPost struct {
	Title   string
	Content string
	Excerpt string
	Status  string
}

// PostPatch carries only the fields to change on update; nil fields are
// left untouched by the content store.
type PostPatch struct {
	Title   *string
	Content *string
	Excerpt *string
	Status  *string
}

// PersistedPost is the content store's view of a post, surfaced read-only.
type PersistedPost struct {
	ID         int64
	Title      string
	CreatedAt  time.Time
	ModifiedAt time.Time
}
