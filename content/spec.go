package content

import (
	"fmt"
	"strings"
)

// Spec describes one query against a content store. Stores apply its parts in
// a fixed order: source and filter, then sort, then skip and limit, and
// finally projection.
type Spec struct {
	// Source restricts the query to the subtree rooted at this path, e.g.
	// "posts" or "/posts". Empty searches the whole collection.
	Source string
	Filter Filter
	Sort   []SortKey
	// Projection lists the fields to retain. Nil keeps every field.
	Projection []string
	Skip       int
	// Limit caps the result count. Zero means no cap.
	Limit int
}

// Validate checks the spec for values no store can execute.
func (s Spec) Validate() error {
	if s.Limit < 0 {
		return fmt.Errorf("%w: limit must be positive, got %d", ErrInvalidSpec, s.Limit)
	}
	if s.Skip < 0 {
		return fmt.Errorf("%w: skip must not be negative, got %d", ErrInvalidSpec, s.Skip)
	}
	for _, k := range s.Sort {
		if k.Field == "" {
			return fmt.Errorf("%w: sort field is required", ErrInvalidSpec)
		}
	}
	return s.Filter.validate()
}

// SourcePrefix returns the normalized path prefix for Source: a leading slash,
// no trailing slash, and "" for the whole collection.
func (s Spec) SourcePrefix() string {
	src := strings.Trim(strings.TrimSpace(s.Source), "/")
	if src == "" {
		return ""
	}
	return "/" + src
}

// InSource reports whether doc lives under the spec's source subtree.
func (s Spec) InSource(doc Document) bool {
	prefix := s.SourcePrefix()
	if prefix == "" {
		return true
	}
	p := doc.Path()
	return p == prefix || strings.HasPrefix(p, prefix+"/")
}

// Apply evaluates spec over docs, which must be in the store's natural
// enumeration order. docs is not modified; the returned slice is new.
func Apply(docs []Document, spec Spec) []Document {
	out := make([]Document, 0, len(docs))
	for _, d := range docs {
		if spec.InSource(d) && spec.Filter.Matches(d) {
			out = append(out, d)
		}
	}
	SortDocuments(out, spec.Sort)

	if spec.Skip > 0 {
		if spec.Skip >= len(out) {
			out = out[:0]
		} else {
			out = out[spec.Skip:]
		}
	}
	if spec.Limit > 0 && len(out) > spec.Limit {
		out = out[:spec.Limit]
	}
	if spec.Projection != nil {
		for i, d := range out {
			out[i] = d.Project(spec.Projection)
		}
	}
	return out
}

// ApplyOne returns the first document Apply would produce, or false.
func ApplyOne(docs []Document, spec Spec) (Document, bool) {
	spec.Limit = 1
	res := Apply(docs, spec)
	if len(res) == 0 {
		return nil, false
	}
	return res[0], true
}
