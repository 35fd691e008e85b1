// Package content defines the document model of a content collection and the
// query primitives (filters, sort keys, projections) evaluated against it.
package content

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Well-known document fields.
const (
	FieldID          = "id"
	FieldPath        = "_path"
	FieldTitle       = "title"
	FieldDescription = "description"
	FieldCategory    = "category"
	FieldDate        = "date"
	FieldLastUpdated = "last_updated"
	FieldDraft       = "draft"
	FieldPartial     = "_partial"
	FieldBody        = "body"
)

// Document is one content record. Stores own documents; callers must treat
// them as read-only.
type Document map[string]any

// Get returns the raw value of field and whether it is present.
func (d Document) Get(field string) (any, bool) {
	v, ok := d[field]
	return v, ok
}

// ID returns the document id as stored (number or string), or nil.
func (d Document) ID() any { return d[FieldID] }

// Path returns the document's location, e.g. "/posts/hello".
func (d Document) Path() string { return d.String(FieldPath) }

// Title returns the document title.
func (d Document) Title() string { return d.String(FieldTitle) }

// Description returns the document description.
func (d Document) Description() string { return d.String(FieldDescription) }

// Draft reports whether the document is flagged as unpublished.
// A missing flag means published.
func (d Document) Draft() bool { return d.Bool(FieldDraft) }

// Partial reports whether the document is a fragment rather than a whole page.
func (d Document) Partial() bool { return d.Bool(FieldPartial) }

// String returns field formatted as a string. Missing and nil fields yield "".
func (d Document) String(field string) string {
	v, ok := d[field]
	if !ok || v == nil {
		return ""
	}
	switch s := v.(type) {
	case string:
		return s
	case time.Time:
		return s.Format(time.RFC3339)
	default:
		return fmt.Sprint(v)
	}
}

// Bool returns field as a boolean. Strings "true"/"false" are accepted.
func (d Document) Bool(field string) bool {
	switch b := d[field].(type) {
	case bool:
		return b
	case string:
		v, err := strconv.ParseBool(strings.TrimSpace(b))
		return err == nil && v
	}
	return false
}

// Strings returns field as a list of non-empty strings. A scalar value becomes a
// single-element list.
func (d Document) Strings(field string) []string {
	var out []string
	switch v := d[field].(type) {
	case nil:
		return nil
	case []string:
		for _, s := range v {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	case []any:
		for _, item := range v {
			if item == nil {
				continue
			}
			if s := strings.TrimSpace(fmt.Sprint(item)); s != "" {
				out = append(out, s)
			}
		}
	default:
		if s := strings.TrimSpace(d.String(field)); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// timeLayouts lists the date formats accepted in string-typed date fields.
var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	time.RFC1123Z,
	time.RFC1123,
}

// Time returns field as a timestamp. Both time.Time values and date strings in
// common layouts are accepted.
func (d Document) Time(field string) (time.Time, bool) {
	return toTime(d[field])
}

func toTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, !t.IsZero()
	case string:
		s := strings.TrimSpace(t)
		for _, layout := range timeLayouts {
			if parsed, err := time.Parse(layout, s); err == nil {
				return parsed, true
			}
		}
	}
	return time.Time{}, false
}

// Project returns a copy of d holding only the listed fields. A nil field list
// returns d itself.
func (d Document) Project(fields []string) Document {
	if fields == nil {
		return d
	}
	out := make(Document, len(fields))
	for _, f := range fields {
		if v, ok := d[f]; ok {
			out[f] = v
		}
	}
	return out
}
