// Package media fetches remote featured images and hands them to the
// content store. Fetches are bounded in time and size; the image can
// optionally be mirrored to an S3-compatible bucket for archival.
package media

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/berryhill/draftfly-wp/internal/contentstore"
)

var log zerolog.Logger

func SetLogger(l zerolog.Logger) {
	log = l
}

// Sideloader downloads an image from a caller-supplied URL and attaches it
// to a post as the featured image.
type Sideloader struct {
	store    contentstore.Store
	client   *http.Client
	maxBytes int64
	archive  *Archive
}

func NewSideloader(store contentstore.Store, timeout time.Duration, maxBytes int64) *Sideloader {
	return &Sideloader{
		store:    store,
		client:   &http.Client{Timeout: timeout},
		maxBytes: maxBytes,
	}
}

// WithArchive mirrors every fetched image to the given archive. Archive
// failures are logged and never fail the attach.
func (s *Sideloader) WithArchive(a *Archive) *Sideloader {
	s.archive = a
	return s
}

// Attach fetches imageURL and sets it as the featured image of the post.
func (s *Sideloader) Attach(ctx context.Context, postID int64, imageURL string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch image: unexpected status %d", resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		return fmt.Errorf("fetch image: not an image (%s)", contentType)
	}

	// Read one byte past the cap so an oversized body is detectable.
	data, err := io.ReadAll(io.LimitReader(resp.Body, s.maxBytes+1))
	if err != nil {
		return fmt.Errorf("read image: %w", err)
	}
	if int64(len(data)) > s.maxBytes {
		return fmt.Errorf("fetch image: exceeds %d byte limit", s.maxBytes)
	}

	filename := filenameFor(imageURL, contentType)
	if err := s.store.AttachFeaturedImage(ctx, postID, filename, contentType, data); err != nil {
		return err
	}

	if s.archive != nil {
		key := uuid.NewString() + path.Ext(filename)
		if err := s.archive.Put(ctx, key, contentType, data); err != nil {
			log.Error().Err(err).Str("key", key).Msg("Error archiving image")
		}
	}
	return nil
}

// filenameFor derives an upload filename from the source URL, falling back
// to a generated name when the path carries none.
func filenameFor(imageURL, contentType string) string {
	if u, err := url.Parse(imageURL); err == nil {
		base := path.Base(u.Path)
		if base != "" && base != "." && base != "/" && path.Ext(base) != "" {
			return base
		}
	}
	return uuid.NewString() + extForContentType(contentType)
}

func extForContentType(contentType string) string {
	switch contentType {
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	}
	return ".img"
}
