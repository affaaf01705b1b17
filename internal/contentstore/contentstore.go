// Package contentstore abstracts the backing blog platform. The ingestion
// layer talks to this interface only; the WordPress implementation lives in
// wordpress.go.
package contentstore

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/berryhill/draftfly-wp/internal/model"
)

// ErrNotFound is returned when the target post does not exist.
var ErrNotFound = errors.New("post not found")

var log zerolog.Logger

func SetLogger(l zerolog.Logger) {
	log = l
}

// Store is the narrow surface the ingestion layer needs from the backend.
type Store interface {
	// CreatePost persists a new post and returns its stored form.
	CreatePost(ctx context.Context, post model.NewPost) (*model.PersistedPost, error)

	// UpdatePost applies the non-nil fields of patch to an existing post.
	// Returns ErrNotFound if the post does not exist.
	UpdatePost(ctx context.Context, id int64, patch model.PostPatch) (*model.PersistedPost, error)

	// GetPost fetches a post by id. Returns ErrNotFound if it does not exist.
	GetPost(ctx context.Context, id int64) (*model.PersistedPost, error)

	// SetTags replaces the post's tag set with the named tags, creating
	// any that do not exist yet.
	SetTags(ctx context.Context, id int64, tags []string) error

	// AttachFeaturedImage uploads the image bytes as a media item and sets
	// it as the post's featured image.
	AttachFeaturedImage(ctx context.Context, id int64, filename, contentType string, data []byte) error
}
