package content

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Op is a filter operator.
type Op uint8

const (
	// OpEq matches documents whose field equals the value.
	OpEq Op = iota + 1
	// OpNe matches documents whose field differs from the value, including
	// documents that lack the field.
	OpNe
	// OpIn matches documents whose field equals any element of a value list.
	OpIn
)

func (o Op) String() string {
	switch o {
	case OpEq:
		return "$eq"
	case OpNe:
		return "$ne"
	case OpIn:
		return "$in"
	default:
		return fmt.Sprintf("Op(%d)", uint8(o))
	}
}

// Condition is a single filter clause on one field.
type Condition struct {
	Field string
	Op    Op
	Value any
}

// Eq builds an exact-match condition.
func Eq(field string, value any) Condition {
	return Condition{Field: field, Op: OpEq, Value: value}
}

// Ne builds a not-equal condition.
func Ne(field string, value any) Condition {
	return Condition{Field: field, Op: OpNe, Value: value}
}

// In builds a membership condition.
func In(field string, values ...any) Condition {
	return Condition{Field: field, Op: OpIn, Value: values}
}

func (c Condition) validate() error {
	if c.Field == "" {
		return fmt.Errorf("%w: filter field is required", ErrInvalidSpec)
	}
	switch c.Op {
	case OpEq, OpNe:
		return nil
	case OpIn:
		if _, ok := c.Value.([]any); !ok {
			return fmt.Errorf("%w: %s on %q needs a value list", ErrInvalidSpec, c.Op, c.Field)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown operator %s on %q", ErrInvalidSpec, c.Op, c.Field)
	}
}

// Matches reports whether doc satisfies the condition.
func (c Condition) Matches(doc Document) bool {
	actual, exists := doc[c.Field]
	switch c.Op {
	case OpEq:
		return exists && matchValue(actual, c.Value)
	case OpNe:
		return !exists || !matchValue(actual, c.Value)
	case OpIn:
		if !exists {
			return false
		}
		values, _ := c.Value.([]any)
		for _, v := range values {
			if matchValue(actual, v) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// matchValue compares actual to want. A list-valued field matches when any
// of its elements does.
func matchValue(actual, want any) bool {
	switch list := actual.(type) {
	case []any:
		return slices.ContainsFunc(list, func(v any) bool { return equalValues(v, want) })
	case []string:
		return slices.ContainsFunc(list, func(v string) bool { return equalValues(v, want) })
	}
	return equalValues(actual, want)
}

// Filter is a conjunction of conditions. The empty filter matches everything.
type Filter []Condition

// Matches reports whether doc satisfies every condition.
func (f Filter) Matches(doc Document) bool {
	for _, c := range f {
		if !c.Matches(doc) {
			return false
		}
	}
	return true
}

// Has reports whether any condition constrains field.
func (f Filter) Has(field string) bool {
	for _, c := range f {
		if c.Field == field {
			return true
		}
	}
	return false
}

// With returns a new filter holding f's conditions followed by extra.
// f itself is never modified.
func (f Filter) With(extra ...Condition) Filter {
	out := make(Filter, 0, len(f)+len(extra))
	out = append(out, f...)
	return append(out, extra...)
}

func (f Filter) validate() error {
	for _, c := range f {
		if err := c.validate(); err != nil {
			return err
		}
	}
	return nil
}

// equalValues compares scalars loosely: numbers by value, booleans and times
// by value, and anything else by its printed form. Document values decoded
// from YAML, JSON or SQLite arrive with different Go types for the same datum.
func equalValues(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if fa, ok := toFloat(a); ok {
		if fb, ok := toFloat(b); ok {
			return fa == fb
		}
	}
	if ba, ok := a.(bool); ok {
		bb, ok := toBool(b)
		return ok && ba == bb
	}
	if bb, ok := b.(bool); ok {
		ba, ok := toBool(a)
		return ok && ba == bb
	}
	if ta, ok := a.(time.Time); ok {
		tb, ok := toTime(b)
		return ok && ta.Equal(tb)
	}
	if tb, ok := b.(time.Time); ok {
		ta, ok := toTime(a)
		return ok && ta.Equal(tb)
	}
	return fmt.Sprint(a) == fmt.Sprint(b)
}

func toBool(v any) (bool, bool) {
	switch b := v.(type) {
	case bool:
		return b, true
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(b))
		return parsed, err == nil
	}
	return false, false
}

// toFloat converts Go numeric types. Strings are not numbers here; numeric
// string handling is opt-in per sort key.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}

// toNumber is toFloat plus numeric strings.
func toNumber(v any) (float64, bool) {
	if f, ok := toFloat(v); ok {
		return f, true
	}
	if s, ok := v.(string); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err == nil && !math.IsNaN(f) {
			return f, true
		}
	}
	return 0, false
}
