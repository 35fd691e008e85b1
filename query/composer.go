// Package query composes listing and lookup queries over a content store.
//
// Listings (FetchMany, FetchPage) are curated views: published documents only,
// newest id first. Lookups (FetchOne) target a specific document, published or
// not, so detail and preview pages can reach drafts.
package query

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/eringen/pubcontent/content"
)

// DefaultSort orders listings by id, newest first, comparing ids as numbers.
var DefaultSort = []content.SortKey{content.NumericDesc(content.FieldID)}

// FetchOptions tunes a listing query. The zero value lists every published
// document in DefaultSort order.
type FetchOptions struct {
	// Limit caps the result count. Zero means no cap.
	Limit int
	// Skip drops this many documents from the front of the sorted result.
	Skip int
	// Projection lists the fields to keep. Nil keeps all fields.
	Projection []string
	// Sort replaces DefaultSort when non-empty.
	Sort []content.SortKey
	// IncludeDrafts disables the implicit draft != true constraint.
	IncludeDrafts bool
}

// Composer builds query specs and runs them against a content store.
// It holds no mutable state and is safe for concurrent use.
type Composer struct {
	store  content.Store
	logger *zap.Logger
}

// Option configures a Composer.
type Option func(*Composer)

// WithLogger sets the logger used for query diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(c *Composer) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a Composer over store.
func New(store content.Store, opts ...Option) *Composer {
	c := &Composer{store: store, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListingSpec builds the spec FetchMany executes. The implicit draft
// exclusion is added unless opts.IncludeDrafts is set or filter already
// constrains the draft field.
func ListingSpec(source string, filter content.Filter, opts FetchOptions) content.Spec {
	if !opts.IncludeDrafts && !filter.Has(content.FieldDraft) {
		filter = filter.With(content.Ne(content.FieldDraft, true))
	}
	sortKeys := DefaultSort
	if len(opts.Sort) > 0 {
		sortKeys = opts.Sort
	}
	return content.Spec{
		Source:     source,
		Filter:     filter,
		Sort:       sortKeys,
		Projection: opts.Projection,
		Skip:       opts.Skip,
		Limit:      opts.Limit,
	}
}

// FetchMany lists the documents under source matching filter. An empty match
// yields an empty slice and a nil error.
func (c *Composer) FetchMany(ctx context.Context, source string, filter content.Filter, opts FetchOptions) ([]content.Document, error) {
	spec := ListingSpec(source, filter, opts)
	if err := spec.Validate(); err != nil {
		return nil, fmt.Errorf("query: fetch many: %w", err)
	}
	docs, err := c.store.Find(ctx, spec)
	if err != nil {
		return nil, c.storeError("fetch many", source, err)
	}
	if docs == nil {
		docs = []content.Document{}
	}
	c.logger.Debug("fetched documents",
		zap.String("source", source),
		zap.Int("filters", len(spec.Filter)),
		zap.Int("count", len(docs)),
	)
	return docs, nil
}

// FetchOne returns the first document under source matching filter, in the
// store's natural order. Drafts are not excluded. The boolean is false when
// nothing matches; that is not an error.
func (c *Composer) FetchOne(ctx context.Context, source string, filter content.Filter) (content.Document, bool, error) {
	spec := content.Spec{Source: source, Filter: filter}
	if err := spec.Validate(); err != nil {
		return nil, false, fmt.Errorf("query: fetch one: %w", err)
	}
	doc, ok, err := c.store.FindOne(ctx, spec)
	if err != nil {
		return nil, false, c.storeError("fetch one", source, err)
	}
	return doc, ok, nil
}

func (c *Composer) storeError(op, source string, err error) error {
	if errors.Is(err, content.ErrInvalidSpec) {
		return fmt.Errorf("query: %s: %w", op, err)
	}
	c.logger.Warn("content store failure",
		zap.String("op", op),
		zap.String("source", source),
		zap.Error(err),
	)
	return fmt.Errorf("query: %s: %w", op, content.Unavailable(op, err))
}
