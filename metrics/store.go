package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/eringen/pubcontent/content"
)

// InstrumentedStore wraps a content store with query metrics.
type InstrumentedStore struct {
	inner content.Store
	name  string
}

// InstrumentStore wraps inner; name labels its metrics (e.g. "fs", "sqlite").
func InstrumentStore(inner content.Store, name string) *InstrumentedStore {
	return &InstrumentedStore{inner: inner, name: name}
}

// Find implements content.Store.
func (s *InstrumentedStore) Find(ctx context.Context, spec content.Spec) ([]content.Document, error) {
	start := time.Now()
	docs, err := s.inner.Find(ctx, spec)
	s.observe("find", start, err, true)
	return docs, err
}

// FindOne implements content.Store.
func (s *InstrumentedStore) FindOne(ctx context.Context, spec content.Spec) (content.Document, bool, error) {
	start := time.Now()
	doc, ok, err := s.inner.FindOne(ctx, spec)
	s.observe("find_one", start, err, ok)
	return doc, ok, err
}

func (s *InstrumentedStore) observe(op string, start time.Time, err error, found bool) {
	storeQueryDuration.WithLabelValues(s.name, op).Observe(time.Since(start).Seconds())
	outcome := "ok"
	switch {
	case errors.Is(err, content.ErrInvalidSpec):
		outcome = "invalid"
	case err != nil:
		outcome = "unavailable"
	case !found:
		outcome = "not_found"
	}
	storeQueriesTotal.WithLabelValues(s.name, op, outcome).Inc()
}
