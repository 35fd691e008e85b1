package content

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
)

// SortKey orders documents by one field. Numeric keys compare values as
// numbers even when they are stored as strings, so "10" sorts after "9".
type SortKey struct {
	Field   string
	Desc    bool
	Numeric bool
}

// Asc builds an ascending lexicographic sort key.
func Asc(field string) SortKey { return SortKey{Field: field} }

// Desc builds a descending lexicographic sort key.
func Desc(field string) SortKey { return SortKey{Field: field, Desc: true} }

// NumericDesc builds a descending numeric-aware sort key.
func NumericDesc(field string) SortKey { return SortKey{Field: field, Desc: true, Numeric: true} }

// compare orders a and b on this key. Documents lacking the field sort last
// regardless of direction.
func (k SortKey) compare(a, b Document) int {
	va, okA := a[k.Field]
	vb, okB := b[k.Field]
	okA = okA && va != nil
	okB = okB && vb != nil
	switch {
	case !okA && !okB:
		return 0
	case !okA:
		return 1
	case !okB:
		return -1
	}
	c := k.compareValues(va, vb)
	if k.Desc {
		return -c
	}
	return c
}

func (k SortKey) compareValues(a, b any) int {
	if k.Numeric {
		fa, okA := toNumber(a)
		fb, okB := toNumber(b)
		switch {
		case okA && okB:
			return cmp.Compare(fa, fb)
		case okA:
			return -1
		case okB:
			return 1
		}
	}
	if fa, ok := toFloat(a); ok {
		if fb, ok := toFloat(b); ok {
			return cmp.Compare(fa, fb)
		}
	}
	if ta, ok := toTime(a); ok {
		if tb, ok := toTime(b); ok {
			return ta.Compare(tb)
		}
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

// SortDocuments stably sorts docs in place by keys, in priority order.
func SortDocuments(docs []Document, keys []SortKey) {
	if len(keys) == 0 {
		return
	}
	slices.SortStableFunc(docs, func(a, b Document) int {
		for _, k := range keys {
			if c := k.compare(a, b); c != 0 {
				return c
			}
		}
		return 0
	})
}
