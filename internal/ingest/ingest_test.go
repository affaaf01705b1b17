package ingest

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/berryhill/draftfly-wp/internal/contentstore"
	"github.com/berryhill/draftfly-wp/internal/model"
	"github.com/berryhill/draftfly-wp/internal/render"
	"github.com/berryhill/draftfly-wp/internal/validate"
)

type mockStore struct {
	createPost func(ctx context.Context, post model.NewPost) (*model.PersistedPost, error)
	updatePost func(ctx context.Context, id int64, patch model.PostPatch) (*model.PersistedPost, error)
	getPost    func(ctx context.Context, id int64) (*model.PersistedPost, error)
	setTags    func(ctx context.Context, id int64, tags []string) error
}

func (m *mockStore) CreatePost(ctx context.Context, post model.NewPost) (*model.PersistedPost, error) {
	if m.createPost != nil {
		return m.createPost(ctx, post)
	}
	return &model.PersistedPost{ID: 1, Title: post.Title, CreatedAt: time.Now()}, nil
}

func (m *mockStore) UpdatePost(ctx context.Context, id int64, patch model.PostPatch) (*model.PersistedPost, error) {
	if m.updatePost != nil {
		return m.updatePost(ctx, id, patch)
	}
	return &model.PersistedPost{ID: id, ModifiedAt: time.Now()}, nil
}

func (m *mockStore) GetPost(ctx context.Context, id int64) (*model.PersistedPost, error) {
	if m.getPost != nil {
		return m.getPost(ctx, id)
	}
	return &model.PersistedPost{ID: id}, nil
}

func (m *mockStore) SetTags(ctx context.Context, id int64, tags []string) error {
	if m.setTags != nil {
		return m.setTags(ctx, id, tags)
	}
	return nil
}

func (m *mockStore) AttachFeaturedImage(ctx context.Context, id int64, filename, contentType string, data []byte) error {
	return nil
}

type mockAttacher struct {
	attach func(ctx context.Context, postID int64, imageURL string) error
}

func (m *mockAttacher) Attach(ctx context.Context, postID int64, imageURL string) error {
	if m.attach != nil {
		return m.attach(ctx, postID, imageURL)
	}
	return nil
}

func strPtr(s string) *string       { return &s }
func tagsPtr(t ...string) *[]string { return &t }

func newService(store contentstore.Store, images ImageAttacher) *Service {
	return New(store, render.New("classic", "gruvbox"), images)
}

func TestCreateRequiresTitle(t *testing.T) {
	called := false
	store := &mockStore{createPost: func(ctx context.Context, post model.NewPost) (*model.PersistedPost, error) {
		called = true
		return nil, nil
	}}

	_, err := newService(store, nil).Create(context.Background(), model.Draft{})
	var vErr *validate.Error
	if !errors.As(err, &vErr) {
		t.Fatalf("Expected validation error, got %v", err)
	}
	if called {
		t.Error("Store must not be called for an invalid draft")
	}
}

func TestCreateStatusMapping(t *testing.T) {
	cases := []struct {
		status *string
		want   string
	}{
		// Absent status defaults to published on create.
		{nil, "publish"},
		{strPtr("draft"), "draft"},
		{strPtr("published"), "publish"},
	}
	for _, c := range cases {
		var got string
		store := &mockStore{createPost: func(ctx context.Context, post model.NewPost) (*model.PersistedPost, error) {
			got = post.Status
			return &model.PersistedPost{ID: 1, Title: post.Title}, nil
		}}
		_, err := newService(store, nil).Create(context.Background(), model.Draft{
			Title:  strPtr("A Post"),
			Status: c.status,
		})
		if err != nil {
			t.Fatalf("Expected create to succeed, got %v", err)
		}
		if got != c.want {
			t.Errorf("Expected stored status %q, got %q", c.want, got)
		}
	}
}

func TestCreateMarkdownTakesPrecedence(t *testing.T) {
	var got string
	store := &mockStore{createPost: func(ctx context.Context, post model.NewPost) (*model.PersistedPost, error) {
		got = post.Content
		return &model.PersistedPost{ID: 1, Title: post.Title}, nil
	}}

	_, err := newService(store, nil).Create(context.Background(), model.Draft{
		Title:    strPtr("A Post"),
		Markdown: strPtr("# Heading\n\nbody"),
		Content:  strPtr("<p>ignored raw html</p>"),
	})
	if err != nil {
		t.Fatalf("Expected create to succeed, got %v", err)
	}
	if !strings.Contains(got, "<h1") || !strings.Contains(got, "Heading") {
		t.Errorf("Expected converted markdown, got %q", got)
	}
	if strings.Contains(got, "ignored raw html") {
		t.Error("Raw content must be ignored when markdown is present")
	}
}

func TestCreateRawHTMLIsSanitizedStrictly(t *testing.T) {
	var got string
	store := &mockStore{createPost: func(ctx context.Context, post model.NewPost) (*model.PersistedPost, error) {
		got = post.Content
		return &model.PersistedPost{ID: 1, Title: post.Title}, nil
	}}

	_, err := newService(store, nil).Create(context.Background(), model.Draft{
		Title:   strPtr("A Post"),
		Content: strPtr(`<p>keep</p><script>alert(1)</script><div class="x">strip class</div>`),
	})
	if err != nil {
		t.Fatalf("Expected create to succeed, got %v", err)
	}
	if !strings.Contains(got, "<p>keep</p>") {
		t.Errorf("Expected structural HTML to survive, got %q", got)
	}
	if strings.Contains(got, "script") || strings.Contains(got, `class="x"`) {
		t.Errorf("Expected strict sanitization, got %q", got)
	}
}

func TestCreateStoreFailure(t *testing.T) {
	store := &mockStore{createPost: func(ctx context.Context, post model.NewPost) (*model.PersistedPost, error) {
		return nil, errors.New("backend down")
	}}

	_, err := newService(store, nil).Create(context.Background(), model.Draft{Title: strPtr("A Post")})
	if !errors.Is(err, ErrCreateFailed) {
		t.Errorf("Expected ErrCreateFailed, got %v", err)
	}
}

func TestCreateReceipt(t *testing.T) {
	createdAt := time.Date(2026, 9, 1, 12, 0, 0, 0, time.FixedZone("CEST", 2*3600))
	store := &mockStore{createPost: func(ctx context.Context, post model.NewPost) (*model.PersistedPost, error) {
		return &model.PersistedPost{ID: 42, Title: post.Title, CreatedAt: createdAt}, nil
	}}

	receipt, err := newService(store, nil).Create(context.Background(), model.Draft{Title: strPtr("A Post")})
	if err != nil {
		t.Fatalf("Expected create to succeed, got %v", err)
	}
	if receipt.ID != "42" {
		t.Errorf("Expected string id \"42\", got %q", receipt.ID)
	}
	if receipt.CreatedAt != "2026-09-01T10:00:00Z" {
		t.Errorf("Expected UTC timestamp, got %q", receipt.CreatedAt)
	}
	if receipt.UpdatedAt != "" {
		t.Errorf("Create receipt must not carry updated_at, got %q", receipt.UpdatedAt)
	}
}

func TestUpdateNotFound(t *testing.T) {
	updateCalled := false
	store := &mockStore{
		getPost: func(ctx context.Context, id int64) (*model.PersistedPost, error) {
			return nil, contentstore.ErrNotFound
		},
		updatePost: func(ctx context.Context, id int64, patch model.PostPatch) (*model.PersistedPost, error) {
			updateCalled = true
			return nil, nil
		},
	}

	_, err := newService(store, nil).Update(context.Background(), 99, model.Draft{Title: strPtr("New Title")})
	if !errors.Is(err, contentstore.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	if updateCalled {
		t.Error("Update must not be attempted for a missing post")
	}
}

func TestUpdateLeavesAbsentFieldsUntouched(t *testing.T) {
	var got model.PostPatch
	store := &mockStore{updatePost: func(ctx context.Context, id int64, patch model.PostPatch) (*model.PersistedPost, error) {
		got = patch
		return &model.PersistedPost{ID: id, Title: "Renamed"}, nil
	}}

	_, err := newService(store, nil).Update(context.Background(), 5, model.Draft{Title: strPtr("Renamed")})
	if err != nil {
		t.Fatalf("Expected update to succeed, got %v", err)
	}
	if got.Title == nil || *got.Title != "Renamed" {
		t.Errorf("Expected title in patch, got %v", got.Title)
	}
	if got.Content != nil || got.Excerpt != nil || got.Status != nil {
		t.Errorf("Absent fields must stay nil in the patch: %+v", got)
	}
}

func TestUpdateEmptyContentClearsBody(t *testing.T) {
	var got model.PostPatch
	store := &mockStore{updatePost: func(ctx context.Context, id int64, patch model.PostPatch) (*model.PersistedPost, error) {
		got = patch
		return &model.PersistedPost{ID: id}, nil
	}}

	_, err := newService(store, nil).Update(context.Background(), 5, model.Draft{Content: strPtr("")})
	if err != nil {
		t.Fatalf("Expected update to succeed, got %v", err)
	}
	if got.Content == nil || *got.Content != "" {
		t.Errorf("Explicitly empty content must clear the body, got %v", got.Content)
	}
}

func TestCreateEmptyMarkdownFallsBackToContent(t *testing.T) {
	var got string
	store := &mockStore{createPost: func(ctx context.Context, post model.NewPost) (*model.PersistedPost, error) {
		got = post.Content
		return &model.PersistedPost{ID: 1, Title: post.Title}, nil
	}}

	_, err := newService(store, nil).Create(context.Background(), model.Draft{
		Title:    strPtr("A Post"),
		Markdown: strPtr(""),
		Content:  strPtr("<p>raw body</p>"),
	})
	if err != nil {
		t.Fatalf("Expected create to succeed, got %v", err)
	}
	if !strings.Contains(got, "raw body") {
		t.Errorf("Empty markdown on create must fall back to content, got %q", got)
	}
}

func TestUpdateEmptyMarkdownClearsBody(t *testing.T) {
	var got model.PostPatch
	store := &mockStore{updatePost: func(ctx context.Context, id int64, patch model.PostPatch) (*model.PersistedPost, error) {
		got = patch
		return &model.PersistedPost{ID: id}, nil
	}}

	_, err := newService(store, nil).Update(context.Background(), 5, model.Draft{Markdown: strPtr("")})
	if err != nil {
		t.Fatalf("Expected update to succeed, got %v", err)
	}
	if got.Content == nil || *got.Content != "" {
		t.Errorf("Explicitly empty markdown must clear the body, got %v", got.Content)
	}
}

func TestUpdateEmptyTitleOverwrites(t *testing.T) {
	var got model.PostPatch
	store := &mockStore{updatePost: func(ctx context.Context, id int64, patch model.PostPatch) (*model.PersistedPost, error) {
		got = patch
		return &model.PersistedPost{ID: id}, nil
	}}

	_, err := newService(store, nil).Update(context.Background(), 5, model.Draft{Title: strPtr("")})
	if err != nil {
		t.Fatalf("Expected update to succeed, got %v", err)
	}
	if got.Title == nil || *got.Title != "" {
		t.Errorf("Explicitly empty title must overwrite, got %v", got.Title)
	}
}

func TestEnrichmentIsBestEffort(t *testing.T) {
	var tagsSet []string
	var attachedURL string
	store := &mockStore{setTags: func(ctx context.Context, id int64, tags []string) error {
		tagsSet = tags
		return errors.New("taxonomy exploded")
	}}
	images := &mockAttacher{attach: func(ctx context.Context, postID int64, imageURL string) error {
		attachedURL = imageURL
		return errors.New("cdn unreachable")
	}}

	receipt, err := newService(store, images).Create(context.Background(), model.Draft{
		Title:         strPtr("A Post"),
		Tags:          tagsPtr("go", "web"),
		FeaturedImage: strPtr("https://cdn.example.com/x.png"),
	})
	if err != nil {
		t.Fatalf("Enrichment failures must not fail the create, got %v", err)
	}
	if receipt == nil || receipt.ID == "" {
		t.Fatal("Expected a receipt despite enrichment failures")
	}
	if len(tagsSet) != 2 {
		t.Errorf("Expected tags to be attempted, got %v", tagsSet)
	}
	if attachedURL != "https://cdn.example.com/x.png" {
		t.Errorf("Expected image attach to be attempted, got %q", attachedURL)
	}
}
