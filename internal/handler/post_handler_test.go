package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"seungpyo.lee/BlogPlatform/internal/adapter"
	"seungpyo.lee/BlogPlatform/internal/config"
	"seungpyo.lee/BlogPlatform/internal/domain"
	"seungpyo.lee/BlogPlatform/internal/metrics"
	"seungpyo.lee/BlogPlatform/internal/repository/memory"
	"seungpyo.lee/BlogPlatform/internal/service"
	"seungpyo.lee/BlogPlatform/pkg/jwt"
	"seungpyo.lee/BlogPlatform/pkg/logger"
)

type envelope struct {
	Success    bool                      `json:"success"`
	Error      string                    `json:"error"`
	Count      int                       `json:"count"`
	Total      int64                     `json:"total"`
	Pagination map[string]domain.PageRef `json:"pagination"`
	Data       json.RawMessage           `json:"data"`
}

type testServer struct {
	router   *gin.Engine
	store    *memory.Store
	registry *prometheus.Registry
	author   string
	other    string
	admin    string
	category uint
}

func testConfig() *config.PostConfig {
	return &config.PostConfig{DefaultPageLimit: 10, MaxPageLimit: 100, MaxEmbeddedComments: 500}
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx := context.Background()
	store := memory.NewStore()
	tokens := jwt.NewTokenManagerWithoutRedis("test-secret")

	users := []*domain.User{
		{Name: "Author", Email: "author@example.com", Role: domain.RoleUser},
		{Name: "Other", Email: "other@example.com", Role: domain.RoleUser},
		{Name: "Admin", Email: "admin@example.com", Role: domain.RoleAdmin},
	}
	bearer := make([]string, len(users))
	for i, u := range users {
		if err := store.Users().FirstOrCreate(ctx, u); err != nil {
			t.Fatalf("seed user: %v", err)
		}
		token, err := tokens.GenerateAccessToken(u.ID, u.Name, string(u.Role), time.Hour)
		if err != nil {
			t.Fatalf("token: %v", err)
		}
		bearer[i] = token
	}
	category := &domain.Category{Name: "Technology", Slug: "technology", Color: "#3B82F6"}
	if err := store.Categories().Create(ctx, category); err != nil {
		t.Fatalf("seed category: %v", err)
	}

	log := logger.Discard()
	conf := testConfig()
	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector(reg)
	svc := service.NewPostService(service.Repositories{
		Posts:      store.Posts(),
		Comments:   store.Comments(),
		Categories: store.Categories(),
		Tags:       store.Tags(),
	}, adapter.NewContentAdapter(), collector, log, conf)

	router := NewRouter(NewPostHandler(svc, conf, log), RouterOptions{
		Tokens:   tokens,
		Log:      log,
		Metrics:  collector,
		Gatherer: reg,
		Health:   func(context.Context) error { return nil },
	})
	return &testServer{
		router:   router,
		store:    store,
		registry: reg,
		author:   bearer[0],
		other:    bearer[1],
		admin:    bearer[2],
		category: category.ID,
	}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) createPost(t *testing.T, title string, published bool, tags ...string) domain.Post {
	t.Helper()
	w := s.do(t, http.MethodPost, "/posts", s.author, gin.H{
		"title":       title,
		"content":     "<p>About " + title + "</p>",
		"category":    s.category,
		"tags":        tags,
		"isPublished": published,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create %q: status %d: %s", title, w.Code, w.Body.String())
	}
	var post domain.Post
	decodeData(t, w, &post)
	return post
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v\nraw: %s", err, w.Body.String())
	}
	return env
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder, dst any) envelope {
	t.Helper()
	env := decodeEnvelope(t, w)
	if !env.Success {
		t.Fatalf("expected success envelope, got %s", w.Body.String())
	}
	if err := json.Unmarshal(env.Data, dst); err != nil {
		t.Fatalf("decode data: %v\nraw: %s", err, env.Data)
	}
	return env
}

func expectError(t *testing.T, w *httptest.ResponseRecorder, status int, msg string) {
	t.Helper()
	if w.Code != status {
		t.Fatalf("status: got %d, want %d (%s)", w.Code, status, w.Body.String())
	}
	env := decodeEnvelope(t, w)
	if env.Success {
		t.Error("error responses must carry success=false")
	}
	if msg != "" && env.Error != msg {
		t.Errorf("error: got %q, want %q", env.Error, msg)
	}
}

func TestPostLifecycle(t *testing.T) {
	s := newTestServer(t)

	created := s.createPost(t, "Lifecycle", true, "go")
	if created.ViewCount != 0 || created.AuthorID == 0 {
		t.Fatalf("created: %+v", created)
	}
	path := fmt.Sprintf("/posts/%d", created.ID)

	w := s.do(t, http.MethodGet, path, "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("anonymous get: %d", w.Code)
	}
	var fetched domain.Post
	decodeData(t, w, &fetched)
	if fetched.Title != "Lifecycle" || fetched.ViewCount != 1 {
		t.Errorf("fetched: title=%q views=%d", fetched.Title, fetched.ViewCount)
	}
	if fetched.Author == nil || fetched.Author.Name != "Author" || fetched.Category == nil || fetched.Category.Slug != "technology" {
		t.Errorf("references not resolved: author=%+v category=%+v", fetched.Author, fetched.Category)
	}

	w = s.do(t, http.MethodPut, path, s.other, gin.H{"title": "Stolen"})
	expectError(t, w, http.StatusUnauthorized, "not authorized to update this post")

	w = s.do(t, http.MethodPut, path, s.author, gin.H{"title": "Lifecycle v2"})
	if w.Code != http.StatusOK {
		t.Fatalf("owner update: %d %s", w.Code, w.Body.String())
	}
	var updated domain.Post
	decodeData(t, w, &updated)
	if updated.Title != "Lifecycle v2" || updated.Content != created.Content {
		t.Errorf("updated: %+v", updated)
	}

	w = s.do(t, http.MethodDelete, path, s.admin, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("admin delete: %d %s", w.Code, w.Body.String())
	}
	if strings.TrimSpace(w.Body.String()) != `{"success":true,"data":{}}` {
		t.Errorf("delete body: %s", w.Body.String())
	}

	w = s.do(t, http.MethodGet, path, "", nil)
	expectError(t, w, http.StatusNotFound, fmt.Sprintf("post not found with id of %d", created.ID))
}

func TestWriteRoutesRequireToken(t *testing.T) {
	s := newTestServer(t)
	created := s.createPost(t, "Guarded", true)
	path := fmt.Sprintf("/posts/%d", created.ID)

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/posts"},
		{http.MethodPut, path},
		{http.MethodDelete, path},
		{http.MethodPost, path + "/comments"},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := s.do(t, tt.method, tt.path, "", gin.H{"content": "x"})
			expectError(t, w, http.StatusUnauthorized, "")
		})
	}

	w := s.do(t, http.MethodGet, "/posts", "garbage-token", nil)
	expectError(t, w, http.StatusUnauthorized, "invalid access token")
}

func TestCreatePostValidation(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/posts", s.author, gin.H{"content": "body", "category": s.category})
	expectError(t, w, http.StatusBadRequest, "title is required")

	w = s.do(t, http.MethodPost, "/posts", s.author, gin.H{"title": "t", "content": "body"})
	expectError(t, w, http.StatusBadRequest, "category is required")

	w = s.do(t, http.MethodPost, "/posts", s.author, gin.H{"title": "   ", "content": "body", "category": s.category})
	expectError(t, w, http.StatusBadRequest, "")

	w = s.do(t, http.MethodPost, "/posts", s.author, gin.H{"title": "t", "content": "body", "category": 404})
	expectError(t, w, http.StatusNotFound, "category not found with id of 404")
}

func TestCreatePostIgnoresServerOwnedFields(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/posts", s.other, gin.H{
		"title":     "Sneaky",
		"content":   "body",
		"category":  s.category,
		"authorId":  1,
		"viewCount": 1000,
		"comments":  []gin.H{{"content": "fake"}},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}
	var post domain.Post
	decodeData(t, w, &post)
	if post.AuthorID != 2 || post.ViewCount != 0 || len(post.Comments) != 0 || post.IsPublished {
		t.Errorf("server-owned fields bound from input: %+v", post)
	}
}

func TestListPostsEnvelopeAndPagination(t *testing.T) {
	s := newTestServer(t)
	for i := 0; i < 25; i++ {
		s.createPost(t, fmt.Sprintf("post %02d", i), true)
	}

	w := s.do(t, http.MethodGet, "/posts?page=1&limit=10", "", nil)
	var first []domain.Post
	env := decodeData(t, w, &first)
	if env.Count != 10 || env.Total != 25 || len(first) != 10 {
		t.Fatalf("page 1: count=%d total=%d len=%d", env.Count, env.Total, len(first))
	}
	if _, ok := env.Pagination["prev"]; ok {
		t.Error("page 1 must not have prev")
	}
	if env.Pagination["next"] != (domain.PageRef{Page: 2, Limit: 10}) {
		t.Errorf("page 1 next: %+v", env.Pagination["next"])
	}

	w = s.do(t, http.MethodGet, "/posts?page=3&limit=10", "", nil)
	var last []domain.Post
	env = decodeData(t, w, &last)
	if env.Count != 5 || len(last) != 5 {
		t.Fatalf("page 3: count=%d", env.Count)
	}
	if _, ok := env.Pagination["next"]; ok {
		t.Error("page 3 must not have next")
	}
	if env.Pagination["prev"] != (domain.PageRef{Page: 2, Limit: 10}) {
		t.Errorf("page 3 prev: %+v", env.Pagination["prev"])
	}

	w = s.do(t, http.MethodGet, "/posts?page=abc&limit=-4", "", nil)
	env = decodeEnvelope(t, w)
	if w.Code != http.StatusOK || env.Count != 10 {
		t.Errorf("malformed paging should degrade to defaults: %d count=%d", w.Code, env.Count)
	}
}

func TestListPostsVisibility(t *testing.T) {
	s := newTestServer(t)
	s.createPost(t, "public", true)
	s.createPost(t, "draft one", false)
	s.createPost(t, "draft two", false)

	var posts []domain.Post
	env := decodeData(t, s.do(t, http.MethodGet, "/posts", "", nil), &posts)
	if env.Total != 1 || posts[0].Title != "public" {
		t.Errorf("default listing: total=%d", env.Total)
	}

	env = decodeData(t, s.do(t, http.MethodGet, "/posts?published=false", "", nil), &posts)
	if env.Total != 2 {
		t.Errorf("drafts listing: total=%d", env.Total)
	}
	for _, p := range posts {
		if p.IsPublished {
			t.Errorf("published post %d in draft listing", p.ID)
		}
	}

	env = decodeData(t, s.do(t, http.MethodGet, "/posts?category=not-a-number", "", nil), &posts)
	if env.Total != 0 || len(posts) != 0 {
		t.Errorf("malformed category should match nothing: total=%d", env.Total)
	}
}

func TestListPostsSearch(t *testing.T) {
	s := newTestServer(t)
	tagged := s.createPost(t, "Weekend", true, "kubernetes")
	s.createPost(t, "Cooking", true, "pasta")

	var posts []domain.Post
	env := decodeData(t, s.do(t, http.MethodGet, "/posts?search=KUBER", "", nil), &posts)
	if env.Total != 1 || posts[0].ID != tagged.ID {
		t.Errorf("tag search: total=%d", env.Total)
	}

	env = decodeData(t, s.do(t, http.MethodGet, "/posts?search=nothing-matches", "", nil), &posts)
	if env.Total != 0 || env.Count != 0 || len(posts) != 0 {
		t.Errorf("no match: total=%d count=%d", env.Total, env.Count)
	}
	if len(env.Pagination) != 0 {
		t.Errorf("no match pagination: %+v", env.Pagination)
	}
}

func TestComments(t *testing.T) {
	s := newTestServer(t)
	post := s.createPost(t, "Chatty", true)
	path := fmt.Sprintf("/posts/%d/comments", post.ID)

	w := s.do(t, http.MethodPost, path, s.other, gin.H{"content": "   "})
	expectError(t, w, http.StatusBadRequest, "")

	w = s.do(t, http.MethodPost, "/posts/999/comments", s.other, gin.H{"content": "hello"})
	expectError(t, w, http.StatusNotFound, "post not found with id of 999")

	var comments []domain.Comment
	for i := 0; i < 3; i++ {
		w = s.do(t, http.MethodPost, path, s.other, gin.H{"content": fmt.Sprintf("comment %d", i)})
		if w.Code != http.StatusOK {
			t.Fatalf("add comment: %d %s", w.Code, w.Body.String())
		}
		decodeData(t, w, &comments)
	}
	if len(comments) != 3 || comments[0].Content != "comment 0" || comments[2].Content != "comment 2" {
		t.Fatalf("comments: %+v", comments)
	}
	if comments[0].Author == nil || comments[0].Author.Name != "Other" || comments[0].AuthorID != 2 {
		t.Errorf("comment author: %+v", comments[0])
	}

	var page []domain.Comment
	env := decodeData(t, s.do(t, http.MethodGet, path+"?page=2&limit=2", "", nil), &page)
	if env.Total != 3 || len(page) != 1 || page[0].Content != "comment 2" {
		t.Errorf("comment page 2: total=%d %+v", env.Total, page)
	}
	if env.Pagination["prev"] != (domain.PageRef{Page: 1, Limit: 2}) {
		t.Errorf("comment page 2 prev: %+v", env.Pagination)
	}
}

func TestMalformedPostID(t *testing.T) {
	s := newTestServer(t)

	for _, raw := range []string{"abc", "0", "-1", "9223372036854775808", "18446744073709551615"} {
		t.Run(raw, func(t *testing.T) {
			w := s.do(t, http.MethodGet, "/posts/"+raw, "", nil)
			expectError(t, w, http.StatusNotFound, "post not found with id of "+raw)

			w = s.do(t, http.MethodDelete, "/posts/"+raw, s.admin, nil)
			expectError(t, w, http.StatusNotFound, "post not found with id of "+raw)
		})
	}
}

func TestListPostsOutOfRangeParams(t *testing.T) {
	s := newTestServer(t)
	s.createPost(t, "only", true, "go")

	var posts []domain.Post
	w := s.do(t, http.MethodGet, "/posts?page=9223372036854775807&limit=10", "", nil)
	env := decodeData(t, w, &posts)
	if w.Code != http.StatusOK || env.Count != 0 || len(posts) != 0 || env.Total != 1 {
		t.Errorf("huge page: status=%d count=%d total=%d", w.Code, env.Count, env.Total)
	}
	if _, ok := env.Pagination["next"]; ok {
		t.Errorf("huge page must not link forward: %+v", env.Pagination)
	}
	if prev, ok := env.Pagination["prev"]; ok && prev.Page < 1 {
		t.Errorf("prev page overflowed: %+v", prev)
	}

	w = s.do(t, http.MethodGet, "/posts?category=18446744073709551615", "", nil)
	env = decodeData(t, w, &posts)
	if w.Code != http.StatusOK || env.Total != 0 {
		t.Errorf("out of range category: status=%d total=%d", w.Code, env.Total)
	}

	w = s.do(t, http.MethodGet, "/posts?search=%FF%FE", "", nil)
	env = decodeData(t, w, &posts)
	if w.Code != http.StatusOK || env.Total != 1 {
		t.Errorf("invalid utf-8 search: status=%d total=%d", w.Code, env.Total)
	}
}

func TestPostDetailAlwaysCarriesComments(t *testing.T) {
	s := newTestServer(t)
	post := s.createPost(t, "Quiet", true)

	w := s.do(t, http.MethodGet, fmt.Sprintf("/posts/%d", post.ID), "", nil)
	env := decodeEnvelope(t, w)
	var detail map[string]json.RawMessage
	if err := json.Unmarshal(env.Data, &detail); err != nil {
		t.Fatalf("decode detail: %v", err)
	}
	if got := strings.TrimSpace(string(detail["comments"])); got != "[]" {
		t.Errorf("comments: got %q, want []", got)
	}
	if string(detail["title"]) != `"Quiet"` {
		t.Errorf("post fields should be inlined: %s", env.Data)
	}

	w = s.do(t, http.MethodGet, "/posts", "", nil)
	env = decodeEnvelope(t, w)
	var items []map[string]json.RawMessage
	if err := json.Unmarshal(env.Data, &items); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("list: got %d items", len(items))
	}
	if _, ok := items[0]["comments"]; ok {
		t.Error("list items should not carry comments")
	}
}

func TestTagsHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)
	s.createPost(t, "a", true, "web", "go")
	s.createPost(t, "b", false, "hidden")

	var tags []string
	env := decodeData(t, s.do(t, http.MethodGet, "/tags", "", nil), &tags)
	if env.Count != 2 || strings.Join(tags, ",") != "go,web" {
		t.Errorf("tags: %v", tags)
	}

	w := s.do(t, http.MethodGet, "/health", "", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"ok"`) {
		t.Errorf("health: %d %s", w.Code, w.Body.String())
	}

	w = s.do(t, http.MethodGet, "/metrics", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("metrics: %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `blog_post_mutations_total{op="create"} 2`) {
		t.Errorf("expected mutation counter in scrape output:\n%s", w.Body.String())
	}
}

type brokenService struct {
	domain.PostService
}

func (brokenService) ListPosts(context.Context, domain.PostQuery) (*domain.PostPage, error) {
	return nil, errors.New("pq: connection refused")
}

func TestUnexpectedErrorsAreHidden(t *testing.T) {
	gin.SetMode(gin.TestMode)
	log := logger.Discard()
	router := NewRouter(NewPostHandler(brokenService{}, testConfig(), log), RouterOptions{
		Tokens: jwt.NewTokenManagerWithoutRedis("test-secret"),
		Log:    log,
	})

	req := httptest.NewRequest(http.MethodGet, "/posts", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	expectError(t, w, http.StatusInternalServerError, "Server Error")
	if strings.Contains(w.Body.String(), "connection refused") {
		t.Error("internal error details leaked to the client")
	}
}

func TestHealthReportsStoreFailure(t *testing.T) {
	gin.SetMode(gin.TestMode)
	log := logger.Discard()
	router := NewRouter(NewPostHandler(brokenService{}, testConfig(), log), RouterOptions{
		Tokens: jwt.NewTokenManagerWithoutRedis("test-secret"),
		Log:    log,
		Health: func(context.Context) error { return errors.New("down") },
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status: got %d, want 503", w.Code)
	}
}
