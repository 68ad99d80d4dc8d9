package record

import "reflect"

// Column binds a whitelisted field name to one struct field of E.
// Build columns with Field.
type Column[E any] struct {
	name string
	get  func(*E) any
	set  func(*E, any) bool
}

// Name returns the database column name.
func (c Column[E]) Name() string { return c.name }

// Field declares a column named name backed by the struct field that ref
// points at. Values written through the dynamic surface are coerced to T:
// nil becomes the zero value, numeric kinds convert between each other,
// named string types accept plain strings, and a pointer field accepts
// either a value or a pointer.
func Field[E, T any](name string, ref func(*E) *T) Column[E] {
	return Column[E]{
		name: name,
		get:  func(e *E) any { return *ref(e) },
		set: func(e *E, v any) bool {
			t, ok := coerce[T](v)
			if !ok {
				return false
			}
			*ref(e) = t
			return true
		},
	}
}

func coerce[T any](v any) (T, bool) {
	var zero T
	if v == nil {
		return zero, true
	}
	if t, ok := v.(T); ok {
		return t, true
	}

	target := reflect.TypeFor[T]()
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return zero, true
		}
		rv = rv.Elem()
	}

	if target.Kind() == reflect.Pointer {
		elem, ok := convert(rv, target.Elem())
		if !ok {
			return zero, false
		}
		p := reflect.New(target.Elem())
		p.Elem().Set(elem)
		return p.Interface().(T), true
	}

	out, ok := convert(rv, target)
	if !ok {
		return zero, false
	}
	return out.Interface().(T), true
}

func convert(v reflect.Value, to reflect.Type) (reflect.Value, bool) {
	if v.Type() == to {
		return v, true
	}
	// int -> string is a legal Go conversion but never a meaningful one here.
	if isNumber(v.Kind()) != isNumber(to.Kind()) {
		return reflect.Value{}, false
	}
	if !v.Type().ConvertibleTo(to) {
		return reflect.Value{}, false
	}
	return v.Convert(to), true
}

func isNumber(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

// cloneValue copies the pointee of pointer values so a snapshot cannot be
// altered by later writes through the entity.
func cloneValue(v any) any {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() || rv.Kind() != reflect.Pointer || rv.IsNil() {
		return v
	}
	p := reflect.New(rv.Elem().Type())
	p.Elem().Set(rv.Elem())
	return p.Interface()
}
