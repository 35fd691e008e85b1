package content

import (
	"context"
	"errors"
	"testing"
	"time"
)

func ids(docs []Document) []string {
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = d.String(FieldID)
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestConditionMatches(t *testing.T) {
	doc := Document{
		"id":       3,
		"category": "go",
		"draft":    false,
		"date":     time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
	}
	tests := []struct {
		name string
		cond Condition
		want bool
	}{
		{"eq string", Eq("category", "go"), true},
		{"eq string mismatch", Eq("category", "rust"), false},
		{"eq int vs float", Eq("id", 3.0), true},
		{"eq int vs string", Eq("id", "3"), true},
		{"eq bool", Eq("draft", false), true},
		{"eq bool vs string", Eq("draft", "false"), true},
		{"eq time vs date string", Eq("date", "2024-01-15"), true},
		{"eq missing field", Eq("author", "me"), false},
		{"ne present", Ne("category", "rust"), true},
		{"ne equal", Ne("category", "go"), false},
		{"ne missing field", Ne("author", "me"), true},
		{"in hit", In("category", "rust", "go"), true},
		{"in miss", In("category", "rust", "zig"), false},
		{"in missing field", In("author", "me"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cond.Matches(doc); got != tt.want {
				t.Errorf("%s %v %v: got %v, want %v", tt.cond.Field, tt.cond.Op, tt.cond.Value, got, tt.want)
			}
		})
	}
}

func TestListFieldMatchesAnyElement(t *testing.T) {
	doc := Document{"category": []any{"go", "web"}, "tags": []string{"sql"}}
	if !Eq("category", "web").Matches(doc) {
		t.Error("eq should match a list element")
	}
	if !In("category", "rust", "go").Matches(doc) {
		t.Error("in should match a list element")
	}
	if Ne("category", "go").Matches(doc) {
		t.Error("ne should fail when any element equals the value")
	}
	if !Eq("tags", "sql").Matches(doc) {
		t.Error("eq should match a []string element")
	}
}

func TestDraftNotEqualMatchesMissingFlag(t *testing.T) {
	f := Filter{Ne(FieldDraft, true)}
	if !f.Matches(Document{"id": 1}) {
		t.Error("document without draft flag should match draft != true")
	}
	if f.Matches(Document{"id": 1, "draft": true}) {
		t.Error("draft document should not match draft != true")
	}
}

func TestFilterWithDoesNotAlias(t *testing.T) {
	base := make(Filter, 1, 4)
	base[0] = Eq("a", 1)
	extended := base.With(Ne("draft", true))
	other := base.With(Eq("b", 2))
	if len(extended) != 2 || extended[1].Field != "draft" {
		t.Fatalf("extended = %v", extended)
	}
	if other[1].Field != "b" {
		t.Fatalf("other = %v", other)
	}
	if len(base) != 1 {
		t.Fatalf("base modified: %v", base)
	}
}

func TestSortNumericAwareDescending(t *testing.T) {
	docs := []Document{
		{"id": "9"}, {"id": "10"}, {"id": "2"}, {"id": 11},
	}
	SortDocuments(docs, []SortKey{NumericDesc(FieldID)})
	want := []string{"11", "10", "9", "2"}
	if got := ids(docs); !equalStrings(got, want) {
		t.Errorf("order = %v, want %v", got, want)
	}
}

func TestSortLexicographicWhenNotNumeric(t *testing.T) {
	docs := []Document{{"id": "9"}, {"id": "10"}}
	SortDocuments(docs, []SortKey{Desc(FieldID)})
	if got := ids(docs); !equalStrings(got, []string{"9", "10"}) {
		t.Errorf("order = %v, want [9 10]", got)
	}
}

func TestSortIsStable(t *testing.T) {
	docs := []Document{
		{"id": 1, "title": "first"},
		{"id": 2, "title": "second"},
		{"id": 1, "title": "third"},
		{"id": 2, "title": "fourth"},
	}
	SortDocuments(docs, []SortKey{NumericDesc(FieldID)})
	var titles []string
	for _, d := range docs {
		titles = append(titles, d.Title())
	}
	want := []string{"second", "fourth", "first", "third"}
	if !equalStrings(titles, want) {
		t.Errorf("titles = %v, want %v", titles, want)
	}
}

func TestSortMissingFieldLast(t *testing.T) {
	docs := []Document{
		{"id": "a"},
		{"id": "b", "last_updated": "2024-01-01"},
		{"id": "c", "last_updated": "2024-03-01"},
	}
	SortDocuments(docs, []SortKey{Desc(FieldLastUpdated)})
	if got := ids(docs); !equalStrings(got, []string{"c", "b", "a"}) {
		t.Errorf("desc order = %v", got)
	}
	SortDocuments(docs, []SortKey{Asc(FieldLastUpdated)})
	if got := ids(docs); !equalStrings(got, []string{"b", "c", "a"}) {
		t.Errorf("asc order = %v", got)
	}
}

func TestApplyOrderOfOperations(t *testing.T) {
	docs := []Document{
		{"id": 1, "_path": "/posts/a", "category": "go"},
		{"id": 5, "_path": "/posts/b", "category": "rust"},
		{"id": 3, "_path": "/posts/c", "category": "go"},
		{"id": 4, "_path": "/snippets/d", "category": "go"},
		{"id": 2, "_path": "/posts/e", "category": "go"},
	}
	spec := Spec{
		Source: "posts",
		Filter: Filter{Eq("category", "go")},
		Sort:   []SortKey{NumericDesc(FieldID)},
		Limit:  2,
	}
	got := Apply(docs, spec)
	if ids := ids(got); !equalStrings(ids, []string{"3", "2"}) {
		t.Errorf("ids = %v, want [3 2]", ids)
	}

	spec.Skip = 1
	got = Apply(docs, spec)
	if ids := ids(got); !equalStrings(ids, []string{"2", "1"}) {
		t.Errorf("skipped ids = %v, want [2 1]", ids)
	}

	spec.Skip = 10
	if got := Apply(docs, spec); len(got) != 0 {
		t.Errorf("expected empty result past the end, got %v", ids(got))
	}
}

func TestApplyLimitIsPrefix(t *testing.T) {
	var docs []Document
	for i := 0; i < 20; i++ {
		docs = append(docs, Document{"id": i % 7, "seq": i})
	}
	spec := Spec{Sort: []SortKey{NumericDesc(FieldID)}}
	full := Apply(docs, spec)
	for n := 1; n <= 25; n++ {
		spec.Limit = n
		limited := Apply(docs, spec)
		if len(limited) > n {
			t.Fatalf("limit %d returned %d docs", n, len(limited))
		}
		for i := range limited {
			if limited[i]["seq"] != full[i]["seq"] {
				t.Fatalf("limit %d: position %d differs from unlimited result", n, i)
			}
		}
	}
}

func TestApplyProjectionAfterSort(t *testing.T) {
	docs := []Document{
		{"id": 1, "title": "a", "body": "x"},
		{"id": 2, "title": "b", "body": "y"},
	}
	got := Apply(docs, Spec{Sort: []SortKey{NumericDesc(FieldID)}, Projection: []string{"title"}})
	if len(got) != 2 || got[0].Title() != "b" {
		t.Fatalf("got %v", got)
	}
	if _, ok := got[0]["body"]; ok {
		t.Error("projection should drop body")
	}
	if _, ok := got[0]["id"]; ok {
		t.Error("projection should drop id even though it was the sort key")
	}
	if _, ok := docs[1]["body"]; !ok {
		t.Error("projection must not mutate source documents")
	}
}

func TestSourceMatchesSegmentBoundary(t *testing.T) {
	spec := Spec{Source: "/posts/"}
	cases := map[string]bool{
		"/posts":        true,
		"/posts/a":      true,
		"/posts/a/b":    true,
		"/postscript/a": false,
		"/snippets/a":   false,
	}
	for path, want := range cases {
		if got := spec.InSource(Document{"_path": path}); got != want {
			t.Errorf("InSource(%q) = %v, want %v", path, got, want)
		}
	}
}

func TestSpecValidate(t *testing.T) {
	bad := []Spec{
		{Limit: -1},
		{Skip: -2},
		{Sort: []SortKey{{}}},
		{Filter: Filter{{Field: "", Op: OpEq}}},
		{Filter: Filter{{Field: "a", Op: Op(99)}}},
		{Filter: Filter{{Field: "a", Op: OpIn, Value: "x"}}},
	}
	for i, s := range bad {
		if err := s.Validate(); !errors.Is(err, ErrInvalidSpec) {
			t.Errorf("case %d: err = %v, want ErrInvalidSpec", i, err)
		}
	}
	if err := (Spec{Limit: 3, Filter: Filter{In("a", 1, 2)}}).Validate(); err != nil {
		t.Errorf("valid spec rejected: %v", err)
	}
}

func TestMemoryStoreFindOneNaturalOrder(t *testing.T) {
	s := NewMemoryStore(
		Document{"id": 1, "_path": "/posts/a", "tag": "x"},
		Document{"id": 9, "_path": "/posts/b", "tag": "x"},
	)
	ctx := context.Background()

	doc, ok, err := s.FindOne(ctx, Spec{Filter: Filter{Eq("tag", "x")}})
	if err != nil || !ok {
		t.Fatalf("FindOne: ok=%v err=%v", ok, err)
	}
	if doc.Path() != "/posts/a" {
		t.Errorf("FindOne picked %q, want first in natural order", doc.Path())
	}

	doc, ok, err = s.FindOne(ctx, Spec{Filter: Filter{Eq("tag", "x")}, Sort: []SortKey{NumericDesc(FieldID)}})
	if err != nil || !ok || doc.Path() != "/posts/b" {
		t.Errorf("sorted FindOne = %v ok=%v err=%v", doc, ok, err)
	}

	_, ok, err = s.FindOne(ctx, Spec{Filter: Filter{Eq("tag", "nope")}})
	if err != nil || ok {
		t.Errorf("expected not found without error, got ok=%v err=%v", ok, err)
	}
}

func TestMemoryStoreCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewMemoryStore().Find(ctx, Spec{})
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("err = %v, want ErrStoreUnavailable", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want to unwrap to context.Canceled", err)
	}
}

func TestDocumentAccessors(t *testing.T) {
	d := Document{
		"category":     []any{"go", " ", "web"},
		"draft":        "true",
		"last_updated": "2024-02-03T10:00:00Z",
	}
	if got := d.Strings("category"); !equalStrings(got, []string{"go", "web"}) {
		t.Errorf("Strings = %v", got)
	}
	if !d.Draft() {
		t.Error("string draft flag should parse")
	}
	ts, ok := d.Time(FieldLastUpdated)
	if !ok || ts.Month() != time.February {
		t.Errorf("Time = %v, %v", ts, ok)
	}
	if (Document{}).Draft() {
		t.Error("missing draft flag should default to false")
	}
}
