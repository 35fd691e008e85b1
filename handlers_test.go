package pubcontent

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/eringen/pubcontent/content"
)

func testDocs() []content.Document {
	return []content.Document{
		{"id": "1", "_path": "/", "_partial": false, "title": "Home"},
		{"id": "9", "_path": "/posts/nine", "_partial": false, "title": "Nine", "description": "Post nine",
			"category": []any{"go", "web"}, "date": "2024-01-09", "last_updated": "2024-03-01"},
		{"id": "10", "_path": "/posts/ten", "_partial": false, "title": "Ten", "category": "rust",
			"date": "2024-01-10", "last_updated": "2024-02-01"},
		{"id": "11", "_path": "/posts/eleven", "_partial": false, "title": "Eleven", "draft": true,
			"last_updated": "2024-04-01"},
		{"id": "2", "_path": "/snippets/two", "_partial": false, "title": "Two", "last_updated": "2024-01-20"},
		{"id": "3", "_path": "/_partials/nav", "_partial": true, "title": "Nav"},
	}
}

func newTestApp(t *testing.T, store content.Store, mutate func(*SiteConfig)) *App {
	t.Helper()
	cfg := SiteConfig{Name: "Test Blog", URL: "https://example.com", Description: "Notes"}
	if mutate != nil {
		mutate(&cfg)
	}
	a := New(cfg, WithStore(store))
	if err := a.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	return a
}

func doRequest(a *App, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	a.Echo.ServeHTTP(rec, req)
	return rec
}

type countingStore struct {
	content.Store
	finds atomic.Int32
}

func (s *countingStore) Find(ctx context.Context, spec content.Spec) ([]content.Document, error) {
	s.finds.Add(1)
	return s.Store.Find(ctx, spec)
}

type brokenStore struct{}

func (brokenStore) Find(context.Context, content.Spec) ([]content.Document, error) {
	return nil, errors.New("disk gone")
}

func (brokenStore) FindOne(context.Context, content.Spec) (content.Document, bool, error) {
	return nil, false, errors.New("disk gone")
}

func TestFeedRoute(t *testing.T) {
	a := newTestApp(t, content.NewMemoryStore(testDocs()...), nil)
	rec := doRequest(a, "/rss.xml")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/xml" {
		t.Errorf("Content-Type = %q, want text/xml", ct)
	}
	body := rec.Body.String()

	// Most recently updated first: nine (03-01), ten (02-01), two (01-20).
	nine := strings.Index(body, "<title>Nine</title>")
	ten := strings.Index(body, "<title>Ten</title>")
	two := strings.Index(body, "<title>Two</title>")
	if nine < 0 || ten < 0 || two < 0 {
		t.Fatalf("missing entries in feed:\n%s", body)
	}
	if !(nine < ten && ten < two) {
		t.Errorf("entries out of order: nine=%d ten=%d two=%d", nine, ten, two)
	}
	for _, hidden := range []string{"Eleven", "Nav", "<title>Home</title>"} {
		if strings.Contains(body, hidden) {
			t.Errorf("feed should not contain %q", hidden)
		}
	}
	if !strings.Contains(body, "<link>https://example.com/posts/nine</link>") {
		t.Errorf("feed should link absolute URLs:\n%s", body)
	}
	if !strings.Contains(body, `href="https://example.com/rss.xml"`) {
		t.Errorf("feed should reference its own URL:\n%s", body)
	}
}

func TestFeedStoreUnavailable(t *testing.T) {
	a := newTestApp(t, brokenStore{}, nil)
	rec := doRequest(a, "/rss.xml")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	var resp errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if resp.Error == "" || strings.Contains(resp.Error, "disk gone") {
		t.Errorf("error = %q, want generic message", resp.Error)
	}
}

func TestResponseCacheServesRepeatRequests(t *testing.T) {
	store := &countingStore{Store: content.NewMemoryStore(testDocs()...)}
	a := newTestApp(t, store, nil)
	for range 3 {
		if rec := doRequest(a, "/rss.xml"); rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
	}
	if n := store.finds.Load(); n != 1 {
		t.Errorf("store queried %d times, want 1", n)
	}

	a.Cache.Invalidate()
	doRequest(a, "/rss.xml")
	if n := store.finds.Load(); n != 2 {
		t.Errorf("store queried %d times after invalidate, want 2", n)
	}
}

func TestResponseCacheDisabled(t *testing.T) {
	store := &countingStore{Store: content.NewMemoryStore(testDocs()...)}
	a := newTestApp(t, store, func(c *SiteConfig) { c.CacheTTL = -1 })
	doRequest(a, "/rss.xml")
	doRequest(a, "/rss.xml")
	if n := store.finds.Load(); n != 2 {
		t.Errorf("store queried %d times, want 2", n)
	}
}

func TestListRoute(t *testing.T) {
	a := newTestApp(t, content.NewMemoryStore(testDocs()...), nil)
	rec := doRequest(a, "/api/list/posts?per_page=1")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp listResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	// Drafts are excluded and ids sort numerically: 10 before 9.
	if len(resp.Items) != 1 || resp.Items[0].Path() != "/posts/ten" {
		t.Fatalf("items = %v", resp.Items)
	}
	if !resp.HasNext || resp.Page != 1 || resp.PerPage != 1 {
		t.Errorf("page = %+v", resp)
	}

	rec = doRequest(a, "/api/list/posts?page=2&per_page=1")
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Items) != 1 || resp.Items[0].Path() != "/posts/nine" || resp.HasNext {
		t.Errorf("page 2 = %+v", resp)
	}
}

func TestListRouteCategoryAndFields(t *testing.T) {
	a := newTestApp(t, content.NewMemoryStore(testDocs()...), nil)
	rec := doRequest(a, "/api/list/posts?category=web&fields=title,_path")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp listResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Items) != 1 {
		t.Fatalf("items = %v", resp.Items)
	}
	item := resp.Items[0]
	if item.Title() != "Nine" {
		t.Errorf("title = %q", item.Title())
	}
	if _, ok := item["date"]; ok || len(item) != 2 {
		t.Errorf("projection not applied: %v", item)
	}
}

func TestListRouteBadParams(t *testing.T) {
	a := newTestApp(t, content.NewMemoryStore(testDocs()...), nil)
	for _, path := range []string{"/api/list/posts?page=0", "/api/list/posts?per_page=abc"} {
		if rec := doRequest(a, path); rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", path, rec.Code)
		}
	}
}

func TestListRouteCapsPerPage(t *testing.T) {
	a := newTestApp(t, content.NewMemoryStore(testDocs()...), func(c *SiteConfig) {
		c.DefaultPerPage = 1
		c.MaxPerPage = 2
	})
	rec := doRequest(a, "/api/list/posts?per_page=50")
	var resp listResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.PerPage != 2 {
		t.Errorf("per_page = %d, want 2", resp.PerPage)
	}
}

func TestDocRoute(t *testing.T) {
	a := newTestApp(t, content.NewMemoryStore(testDocs()...), nil)

	rec := doRequest(a, "/api/doc/posts/nine")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var doc content.Document
	if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if doc.Title() != "Nine" {
		t.Errorf("title = %q", doc.Title())
	}

	for _, path := range []string{"/api/doc/posts/eleven", "/api/doc/posts/missing", "/api/doc/_partials/nav"} {
		if rec := doRequest(a, path); rec.Code != http.StatusNotFound {
			t.Errorf("%s: status = %d, want 404", path, rec.Code)
		}
	}
}

func TestDocRoutePreviewDrafts(t *testing.T) {
	a := newTestApp(t, content.NewMemoryStore(testDocs()...), func(c *SiteConfig) { c.PreviewDrafts = true })
	rec := doRequest(a, "/api/doc/posts/eleven")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if cc := rec.Header().Get("Cache-Control"); cc != "private, no-cache" {
		t.Errorf("Cache-Control = %q", cc)
	}
}

func TestSitemapRoute(t *testing.T) {
	a := newTestApp(t, content.NewMemoryStore(testDocs()...), nil)
	rec := doRequest(a, "/sitemap.xml")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != sitemapContentType {
		t.Errorf("Content-Type = %q", ct)
	}
	body := rec.Body.String()
	if !strings.HasPrefix(body, "<?xml") {
		t.Errorf("missing XML header: %s", body)
	}
	for _, want := range []string{
		"<loc>https://example.com/</loc>",
		"<loc>https://example.com/posts/nine</loc><lastmod>2024-03-01</lastmod>",
		"<loc>https://example.com/snippets/two</loc>",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("sitemap missing %q:\n%s", want, body)
		}
	}
	if strings.Contains(body, "eleven") || strings.Contains(body, "_partials") {
		t.Errorf("sitemap lists drafts or partials:\n%s", body)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	a := newTestApp(t, content.NewMemoryStore(testDocs()...), nil)
	if rec := doRequest(a, "/healthz"); rec.Code != http.StatusOK {
		t.Errorf("healthz status = %d", rec.Code)
	}
	doRequest(a, "/rss.xml")
	rec := doRequest(a, "/metrics")
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "pubcontent_store_queries_total") {
		t.Error("metrics should expose store query counters")
	}
}

func TestRateLimit(t *testing.T) {
	a := newTestApp(t, content.NewMemoryStore(testDocs()...), func(c *SiteConfig) {
		c.RateLimit = 1
		c.RateBurst = 1
	})
	if rec := doRequest(a, "/api/list/posts"); rec.Code != http.StatusOK {
		t.Fatalf("first request status = %d", rec.Code)
	}
	if rec := doRequest(a, "/api/list/posts"); rec.Code != http.StatusTooManyRequests {
		t.Errorf("second request status = %d, want 429", rec.Code)
	}
	if rec := doRequest(a, "/healthz"); rec.Code != http.StatusOK {
		t.Errorf("healthz should skip the limiter, status = %d", rec.Code)
	}
}

func TestRenderFeedSkipsMalformed(t *testing.T) {
	docs := append(testDocs(), content.Document{"id": "12", "_path": "/posts/untitled", "_partial": false})
	a := newTestApp(t, content.NewMemoryStore(docs...), nil)
	f, err := a.RenderFeed(context.Background())
	if err != nil {
		t.Fatalf("RenderFeed failed: %v", err)
	}
	if len(f.Entries) != 3 {
		t.Errorf("entries = %d, want 3", len(f.Entries))
	}
	if len(f.Skipped) != 1 || f.Skipped[0].Path != "/posts/untitled" {
		t.Errorf("skipped = %v", f.Skipped)
	}
}
