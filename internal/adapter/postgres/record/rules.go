package record

import (
	"context"
	"fmt"
	"net/mail"
	"reflect"
	"slices"
	"strings"
	"unicode/utf8"
)

// Rule is one validation constraint on one field. Rules run in declaration
// order and the first failure stops validation.
type Rule[E any] struct {
	field string
	check func(ctx context.Context, r *Repository[E], m *Model[E], v any) (string, error)
}

// Field returns the field the rule constrains.
func (r Rule[E]) Field() string { return r.field }

// Required rejects nil, zero values and blank strings.
func Required[E any](field string) Rule[E] {
	return Rule[E]{field: field, check: func(_ context.Context, _ *Repository[E], _ *Model[E], v any) (string, error) {
		if isBlank(v) {
			return "is required", nil
		}
		return "", nil
	}}
}

// MaxLen limits a string field to n characters.
func MaxLen[E any](field string, n int) Rule[E] {
	return Rule[E]{field: field, check: func(_ context.Context, _ *Repository[E], _ *Model[E], v any) (string, error) {
		if s, ok := stringValue(v); ok && utf8.RuneCountInString(s) > n {
			return fmt.Sprintf("must be at most %d characters", n), nil
		}
		return "", nil
	}}
}

// MinLen requires a non-empty string field to have at least n characters.
// Emptiness is Required's concern.
func MinLen[E any](field string, n int) Rule[E] {
	return Rule[E]{field: field, check: func(_ context.Context, _ *Repository[E], _ *Model[E], v any) (string, error) {
		if s, ok := stringValue(v); ok && s != "" && utf8.RuneCountInString(s) < n {
			return fmt.Sprintf("must be at least %d characters", n), nil
		}
		return "", nil
	}}
}

// OneOf restricts a field to a fixed set of values.
func OneOf[E any](field string, allowed ...string) Rule[E] {
	return Rule[E]{field: field, check: func(_ context.Context, _ *Repository[E], _ *Model[E], v any) (string, error) {
		s, ok := stringValue(v)
		if !ok || s == "" {
			return "", nil
		}
		if !slices.Contains(allowed, s) {
			return "must be one of: " + strings.Join(allowed, ", "), nil
		}
		return "", nil
	}}
}

// Email requires a bare RFC 5322 address, without a display name.
func Email[E any](field string) Rule[E] {
	return Rule[E]{field: field, check: func(_ context.Context, _ *Repository[E], _ *Model[E], v any) (string, error) {
		s, ok := stringValue(v)
		if !ok || s == "" {
			return "", nil
		}
		addr, err := mail.ParseAddress(s)
		if err != nil || addr.Address != s {
			return "must be a valid email address", nil
		}
		return "", nil
	}}
}

// Unique requires no other row of the table to hold the same value.
func Unique[E any](field string) Rule[E] {
	return Rule[E]{field: field, check: func(ctx context.Context, r *Repository[E], m *Model[E], v any) (string, error) {
		if isBlank(v) {
			return "", nil
		}
		taken, err := r.Exists(ctx, field, v, m.ID())
		if err != nil {
			return "", err
		}
		if taken {
			return "has already been taken", nil
		}
		return "", nil
	}}
}

func stringValue(v any) (string, bool) {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return "", false
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.String {
		return "", false
	}
	return rv.String(), true
}

func isBlank(v any) bool {
	if v == nil {
		return true
	}
	if s, ok := stringValue(v); ok {
		return strings.TrimSpace(s) == ""
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		return rv.IsNil()
	}
	return rv.IsZero()
}
