package contentstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/berryhill/draftfly-wp/internal/model"
)

// wpTimeLayout is the format WordPress uses for date_gmt and modified_gmt.
const wpTimeLayout = "2006-01-02T15:04:05"

// WordPress is a Store backed by the WordPress REST API, authenticated with
// an application password over HTTP Basic auth.
type WordPress struct {
	baseURL     string
	username    string
	appPassword string
	client      *http.Client
}

// NewWordPress builds a client for the site at baseURL (scheme and host,
// no /wp-json suffix).
func NewWordPress(baseURL, username, appPassword string, timeout time.Duration) *WordPress {
	return &WordPress{
		baseURL:     strings.TrimRight(baseURL, "/"),
		username:    username,
		appPassword: appPassword,
		client:      &http.Client{Timeout: timeout},
	}
}

// wpPost is the subset of a WordPress post resource we read back.
type wpPost struct {
	ID          int64  `json:"id"`
	DateGMT     string `json:"date_gmt"`
	ModifiedGMT string `json:"modified_gmt"`
	Title       struct {
		Raw      string `json:"raw"`
		Rendered string `json:"rendered"`
	} `json:"title"`
}

func (p *wpPost) toPersisted() *model.PersistedPost {
	title := p.Title.Raw
	if title == "" {
		title = p.Title.Rendered
	}
	created, _ := time.ParseInLocation(wpTimeLayout, p.DateGMT, time.UTC)
	modified, _ := time.ParseInLocation(wpTimeLayout, p.ModifiedGMT, time.UTC)
	return &model.PersistedPost{
		ID:         p.ID,
		Title:      title,
		CreatedAt:  created,
		ModifiedAt: modified,
	}
}

func (w *WordPress) CreatePost(ctx context.Context, post model.NewPost) (*model.PersistedPost, error) {
	body := map[string]any{
		"title":   post.Title,
		"content": post.Content,
		"status":  post.Status,
	}
	if post.Excerpt != "" {
		body["excerpt"] = post.Excerpt
	}

	resp, err := w.do(ctx, http.MethodPost, "/posts?context=edit", body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return nil, decodeError(resp)
	}

	var created wpPost
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return nil, fmt.Errorf("decode created post: %w", err)
	}
	log.Debug().Int64("post_id", created.ID).Msg("Created post")
	return created.toPersisted(), nil
}

func (w *WordPress) UpdatePost(ctx context.Context, id int64, patch model.PostPatch) (*model.PersistedPost, error) {
	body := map[string]any{}
	if patch.Title != nil {
		body["title"] = *patch.Title
	}
	if patch.Content != nil {
		body["content"] = *patch.Content
	}
	if patch.Excerpt != nil {
		body["excerpt"] = *patch.Excerpt
	}
	if patch.Status != nil {
		body["status"] = *patch.Status
	}

	resp, err := w.do(ctx, http.MethodPost, fmt.Sprintf("/posts/%d?context=edit", id), body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, decodeError(resp)
	}

	var updated wpPost
	if err := json.NewDecoder(resp.Body).Decode(&updated); err != nil {
		return nil, fmt.Errorf("decode updated post: %w", err)
	}
	log.Debug().Int64("post_id", id).Msg("Updated post")
	return updated.toPersisted(), nil
}

func (w *WordPress) GetPost(ctx context.Context, id int64) (*model.PersistedPost, error) {
	resp, err := w.do(ctx, http.MethodGet, fmt.Sprintf("/posts/%d?context=edit", id), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, decodeError(resp)
	}

	var post wpPost
	if err := json.NewDecoder(resp.Body).Decode(&post); err != nil {
		return nil, fmt.Errorf("decode post: %w", err)
	}
	return post.toPersisted(), nil
}

func (w *WordPress) SetTags(ctx context.Context, id int64, tags []string) error {
	ids := make([]int64, 0, len(tags))
	for _, name := range tags {
		tagID, err := w.ensureTag(ctx, name)
		if err != nil {
			return fmt.Errorf("resolve tag %q: %w", name, err)
		}
		ids = append(ids, tagID)
	}

	resp, err := w.do(ctx, http.MethodPost, fmt.Sprintf("/posts/%d", id), map[string]any{"tags": ids})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decodeError(resp)
	}
	return nil
}

func (w *WordPress) AttachFeaturedImage(ctx context.Context, id int64, filename, contentType string, data []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.baseURL+"/wp-json/wp/v2/media", bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.SetBasicAuth(w.username, w.appPassword)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Content-Disposition", fmt.Sprintf(`attachment; filename=%q`, filename))

	resp, err := w.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return decodeError(resp)
	}

	var media struct {
		ID int64 `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&media); err != nil {
		return fmt.Errorf("decode media: %w", err)
	}

	setResp, err := w.do(ctx, http.MethodPost, fmt.Sprintf("/posts/%d", id), map[string]any{"featured_media": media.ID})
	if err != nil {
		return err
	}
	defer setResp.Body.Close()

	if setResp.StatusCode != http.StatusOK {
		return decodeError(setResp)
	}
	log.Debug().Int64("post_id", id).Int64("media_id", media.ID).Msg("Attached featured image")
	return nil
}

// ensureTag returns the term id for the named tag, creating the term if
// the site does not have it yet.
func (w *WordPress) ensureTag(ctx context.Context, name string) (int64, error) {
	resp, err := w.do(ctx, http.MethodGet, "/tags?per_page=100&search="+url.QueryEscape(name), nil)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, decodeError(resp)
	}

	var terms []struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&terms); err != nil {
		return 0, fmt.Errorf("decode tags: %w", err)
	}
	for _, term := range terms {
		if strings.EqualFold(term.Name, name) {
			return term.ID, nil
		}
	}

	createResp, err := w.do(ctx, http.MethodPost, "/tags", map[string]string{"name": name})
	if err != nil {
		return 0, err
	}
	defer createResp.Body.Close()

	body, _ := io.ReadAll(createResp.Body)

	if createResp.StatusCode == http.StatusCreated {
		var term struct {
			ID int64 `json:"id"`
		}
		if err := json.Unmarshal(body, &term); err != nil {
			return 0, fmt.Errorf("decode created tag: %w", err)
		}
		return term.ID, nil
	}

	// Concurrent creation races surface as term_exists with the winner's id.
	var wpErr struct {
		Code string `json:"code"`
		Data struct {
			TermID int64 `json:"term_id"`
		} `json:"data"`
	}
	if json.Unmarshal(body, &wpErr) == nil && wpErr.Code == "term_exists" && wpErr.Data.TermID != 0 {
		return wpErr.Data.TermID, nil
	}
	return 0, fmt.Errorf("create tag failed (%d): %s", createResp.StatusCode, body)
}

// do performs an authenticated JSON request against the wp/v2 namespace.
func (w *WordPress) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, w.baseURL+"/wp-json/wp/v2"+path, bodyReader)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(w.username, w.appPassword)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return w.client.Do(req)
}

func decodeError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)

	var wpErr struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &wpErr) == nil && wpErr.Code != "" {
		if wpErr.Code == "rest_post_invalid_id" {
			return ErrNotFound
		}
		return fmt.Errorf("wordpress %s (%d): %s", wpErr.Code, resp.StatusCode, wpErr.Message)
	}
	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	return fmt.Errorf("wordpress: unexpected status %d: %s", resp.StatusCode, body)
}
