// Package ingest turns validated draft payloads into content-store writes.
// It owns the content pipeline: markdown conversion, origin-dependent
// sanitization, status mapping, and the best-effort enrichment steps
// (tags, featured image) that must never fail the write itself.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/berryhill/draftfly-wp/internal/contentstore"
	"github.com/berryhill/draftfly-wp/internal/model"
	"github.com/berryhill/draftfly-wp/internal/render"
	"github.com/berryhill/draftfly-wp/internal/sanitize"
	"github.com/berryhill/draftfly-wp/internal/validate"
)

var (
	// ErrCreateFailed wraps content-store failures during create.
	ErrCreateFailed = errors.New("post creation failed")
	// ErrUpdateFailed wraps content-store failures during update.
	ErrUpdateFailed = errors.New("post update failed")
)

var log zerolog.Logger

func SetLogger(l zerolog.Logger) {
	log = l
}

// ImageAttacher fetches a remote image and sets it as a post's featured
// image. Satisfied by media.Sideloader.
type ImageAttacher interface {
	Attach(ctx context.Context, postID int64, imageURL string) error
}

// Receipt is what the caller gets back after a successful write. The id is
// a string on the wire.
type Receipt struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	CreatedAt string `json:"created_at,omitempty"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

type Service struct {
	store    contentstore.Store
	renderer *render.Renderer
	images   ImageAttacher
}

func New(store contentstore.Store, renderer *render.Renderer, images ImageAttacher) *Service {
	return &Service{store: store, renderer: renderer, images: images}
}

// Create validates the draft and persists it as a new post.
func (s *Service) Create(ctx context.Context, draft model.Draft) (*Receipt, error) {
	if err := validate.Create(&draft); err != nil {
		return nil, err
	}

	content, _ := s.resolveContent(draft, false)

	post := model.NewPost{
		Title:   *draft.Title,
		Content: content,
		Status:  mapStatus(draft.Status),
	}
	if draft.Excerpt != nil {
		post.Excerpt = *draft.Excerpt
	}

	created, err := s.store.CreatePost(ctx, post)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCreateFailed, err)
	}

	s.enrich(ctx, created.ID, draft)

	return &Receipt{
		ID:        fmt.Sprintf("%d", created.ID),
		Title:     created.Title,
		CreatedAt: created.CreatedAt.UTC().Format(time.RFC3339),
	}, nil
}

// Update validates the patch and applies its present fields to an existing
// post. Absent fields are left untouched.
func (s *Service) Update(ctx context.Context, id int64, draft model.Draft) (*Receipt, error) {
	if err := validate.Update(&draft); err != nil {
		return nil, err
	}

	// Existence is checked up front so a missing post is reported as such
	// rather than as a write failure.
	if _, err := s.store.GetPost(ctx, id); err != nil {
		if errors.Is(err, contentstore.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrUpdateFailed, err)
	}

	patch := model.PostPatch{
		Title:   draft.Title,
		Excerpt: draft.Excerpt,
	}
	if content, ok := s.resolveContent(draft, true); ok {
		patch.Content = &content
	}
	if draft.Status != nil {
		mapped := mapStatus(draft.Status)
		patch.Status = &mapped
	}

	updated, err := s.store.UpdatePost(ctx, id, patch)
	if err != nil {
		if errors.Is(err, contentstore.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrUpdateFailed, err)
	}

	s.enrich(ctx, id, draft)

	return &Receipt{
		ID:        fmt.Sprintf("%d", id),
		Title:     updated.Title,
		UpdatedAt: updated.ModifiedAt.UTC().Format(time.RFC3339),
	}, nil
}

// resolveContent produces the sanitized HTML body for the draft. Markdown
// takes precedence over raw content; converted markdown gets the permissive
// policy (the converter's structural attributes survive), raw HTML gets the
// strict one. On create an empty markdown string counts as absent; on a
// partial update (patchSemantics) any present markdown wins, so an
// explicitly empty one clears the body. The second return reports whether
// the draft carried any content field at all.
func (s *Service) resolveContent(draft model.Draft, patchSemantics bool) (string, bool) {
	if draft.Markdown != nil {
		if *draft.Markdown == "" {
			if patchSemantics {
				return "", true
			}
		} else {
			html := string(s.renderer.RenderCached([]byte(*draft.Markdown)))
			return sanitize.ConvertedMarkdown(html), true
		}
	}
	if draft.Content != nil {
		return sanitize.PostBody(*draft.Content), true
	}
	return "", false
}

// enrich applies the best-effort steps after a successful write. Failures
// here are logged and swallowed; the post already exists.
func (s *Service) enrich(ctx context.Context, postID int64, draft model.Draft) {
	if draft.Tags != nil {
		if err := s.store.SetTags(ctx, postID, *draft.Tags); err != nil {
			log.Warn().Err(err).Int64("post_id", postID).Msg("Error setting tags")
		}
	}
	if draft.FeaturedImage != nil && *draft.FeaturedImage != "" && s.images != nil {
		if err := s.images.Attach(ctx, postID, *draft.FeaturedImage); err != nil {
			log.Warn().Err(err).Int64("post_id", postID).Msg("Error attaching featured image")
		}
	}
}

// mapStatus translates the caller-facing status into the content store's
// vocabulary. On create an absent status defaults to published; on update
// the caller never reaches here with a nil status.
func mapStatus(status *string) string {
	if status == nil || model.Status(*status) == model.StatusPublished {
		return "publish"
	}
	return "draft"
}
