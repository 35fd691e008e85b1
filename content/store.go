package content

import (
	"context"
	"slices"
)

// Store is a read-only content collection.
//
// Find returns the documents matching spec; an empty result is not an error.
// FindOne returns the first match in the store's natural enumeration order,
// or false when nothing matches. Failures to reach or parse the collection
// are reported as errors matching ErrStoreUnavailable.
type Store interface {
	Find(ctx context.Context, spec Spec) ([]Document, error)
	FindOne(ctx context.Context, spec Spec) (Document, bool, error)
}

// MemoryStore serves a fixed document set. Its natural order is the order the
// documents were given in.
type MemoryStore struct {
	docs []Document
}

// NewMemoryStore creates a MemoryStore over docs.
func NewMemoryStore(docs ...Document) *MemoryStore {
	return &MemoryStore{docs: slices.Clone(docs)}
}

// Find implements Store.
func (m *MemoryStore) Find(ctx context.Context, spec Spec) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, Unavailable("find", err)
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	return Apply(m.docs, spec), nil
}

// FindOne implements Store.
func (m *MemoryStore) FindOne(ctx context.Context, spec Spec) (Document, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, Unavailable("find one", err)
	}
	if err := spec.Validate(); err != nil {
		return nil, false, err
	}
	doc, ok := ApplyOne(m.docs, spec)
	return doc, ok, nil
}

// Len returns the number of documents held.
func (m *MemoryStore) Len() int { return len(m.docs) }

// All returns the documents in natural order.
func (m *MemoryStore) All() []Document { return slices.Clone(m.docs) }
