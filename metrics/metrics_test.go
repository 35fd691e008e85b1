package metrics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/eringen/pubcontent/content"
)

func TestMiddlewareRecordsRoutePattern(t *testing.T) {
	e := echo.New()
	e.Use(Middleware())
	e.GET("/api/doc/*", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	e.GET("/missing", func(c echo.Context) error {
		return echo.ErrNotFound
	})

	for _, path := range []string{"/api/doc/posts/a", "/api/doc/posts/b", "/missing"} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	}

	if got := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/api/doc/*", "200")); got < 2 {
		t.Errorf("requests for /api/doc/* = %v, want >= 2", got)
	}
	if got := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/missing", "404")); got < 1 {
		t.Errorf("404 requests = %v, want >= 1", got)
	}
}

type brokenStore struct{}

func (brokenStore) Find(context.Context, content.Spec) ([]content.Document, error) {
	return nil, content.Unavailable("find", errors.New("gone"))
}

func (brokenStore) FindOne(context.Context, content.Spec) (content.Document, bool, error) {
	return nil, false, content.Unavailable("find one", errors.New("gone"))
}

func TestInstrumentedStoreOutcomes(t *testing.T) {
	ctx := context.Background()
	mem := InstrumentStore(content.NewMemoryStore(content.Document{"_path": "/posts/a"}), "test-mem")

	if _, err := mem.Find(ctx, content.Spec{}); err != nil {
		t.Fatalf("Find: %v", err)
	}
	if _, _, err := mem.FindOne(ctx, content.Spec{Filter: content.Filter{content.Eq("_path", "/nope")}}); err != nil {
		t.Fatalf("FindOne: %v", err)
	}
	if _, err := mem.Find(ctx, content.Spec{Limit: -1}); !errors.Is(err, content.ErrInvalidSpec) {
		t.Fatalf("Find invalid: %v", err)
	}
	broken := InstrumentStore(brokenStore{}, "test-broken")
	if _, err := broken.Find(ctx, content.Spec{}); !errors.Is(err, content.ErrStoreUnavailable) {
		t.Fatalf("broken Find: %v", err)
	}

	checks := []struct {
		store, op, outcome string
	}{
		{"test-mem", "find", "ok"},
		{"test-mem", "find_one", "not_found"},
		{"test-mem", "find", "invalid"},
		{"test-broken", "find", "unavailable"},
	}
	for _, c := range checks {
		if got := testutil.ToFloat64(storeQueriesTotal.WithLabelValues(c.store, c.op, c.outcome)); got != 1 {
			t.Errorf("%s/%s/%s = %v, want 1", c.store, c.op, c.outcome, got)
		}
	}
}

func TestRegisterTwice(t *testing.T) {
	reg := prometheus.NewRegistry()
	if err := Register(reg); err != nil {
		t.Fatalf("first Register: %v", err)
	}
	if err := Register(reg); err != nil {
		t.Fatalf("second Register: %v", err)
	}
}
