// Package validate checks inbound draft payloads before they reach the
// content store. Fields are pointers so that an absent field and an
// explicitly empty one can be told apart; validation only inspects fields
// that are present. The first offending field wins, in declaration order.
package validate

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/berryhill/draftfly-wp/internal/model"
)

// Error names the first field that failed and why.
type Error struct {
	Field   string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

var (
	markupPattern  = regexp.MustCompile(`<[^>]*>`)
	controlPattern = regexp.MustCompile(`[\x00-\x08\x0b\x0c\x0e-\x1f\x7f]`)
	spacePattern   = regexp.MustCompile(`\s+`)
)

// PlainText reduces a value meant for display as text, never markup, to a
// single trimmed line: tags and control characters are stripped and runs
// of whitespace collapse to one space.
func PlainText(s string) string {
	s = markupPattern.ReplaceAllString(s, "")
	s = controlPattern.ReplaceAllString(s, "")
	s = spacePattern.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// Create validates a payload for a new post. Title is the only required
// field. Plain-text fields are normalized in place.
func Create(d *model.Draft) error {
	if d.Title == nil || PlainText(*d.Title) == "" {
		return &Error{Field: "title", Message: "title is required"}
	}
	return common(d)
}

// Update validates a partial payload. Every field is optional, and a field
// that is explicitly present overwrites the stored value even when empty;
// a present-but-empty title blanks the post's title.
func Update(d *model.Draft) error {
	return common(d)
}

func common(d *model.Draft) error {
	if d.Title != nil {
		*d.Title = PlainText(*d.Title)
	}
	if d.Excerpt != nil {
		*d.Excerpt = PlainText(*d.Excerpt)
	}
	if d.Tags != nil {
		for i, tag := range *d.Tags {
			clean := PlainText(tag)
			if clean == "" {
				return &Error{Field: "tags", Message: "tags must be non-empty strings"}
			}
			(*d.Tags)[i] = clean
		}
	}
	if d.Status != nil {
		switch model.Status(*d.Status) {
		case model.StatusDraft, model.StatusPublished:
		default:
			return &Error{Field: "status", Message: "status must be draft or published"}
		}
	}
	if d.FeaturedImage != nil && *d.FeaturedImage != "" {
		if err := checkImageURL(*d.FeaturedImage); err != nil {
			return &Error{Field: "featured_image", Message: err.Error()}
		}
	}
	return nil
}

func checkImageURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("featured_image must be a valid URL")
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("featured_image must be an absolute http(s) URL")
	}
	return nil
}
