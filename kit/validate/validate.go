// Package validate checks loosely shaped values (structs, or maps with
// string keys such as decoded front matter) against an explicit set of
// required and optional fields. Every failing field produces its own
// *FieldError, and all of them are joined into a single *ValidationError.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"
)

type Validator interface{ Validate() error }

var ErrRequired = errors.New("is required")

type ValidationError struct{ Err error }

func (e *ValidationError) Error() string { return e.Err.Error() }
func (e *ValidationError) Unwrap() error { return e.Err }

func IsValidationError(err error) bool {
	var validationErr *ValidationError
	return errors.As(err, &validationErr)
}

type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	if errors.Is(e.Err, ErrRequired) {
		return fmt.Sprintf("%s %v", e.Field, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *FieldError) Unwrap() error { return e.Err }

// FieldErrors extracts every *FieldError wrapped (directly or through
// errors.Join) inside err.
func FieldErrors(err error) []*FieldError {
	var out []*FieldError
	var walk func(error)
	walk = func(e error) {
		if e == nil {
			return
		}
		if fe, ok := e.(*FieldError); ok {
			out = append(out, fe)
			return
		}
		switch u := e.(type) {
		case interface{ Unwrap() []error }:
			for _, inner := range u.Unwrap() {
				walk(inner)
			}
		case interface{ Unwrap() error }:
			walk(u.Unwrap())
		}
	}
	walk(err)
	return out
}

/////////////////////////////////////////////////////////////////////
/////// OBJECT CHECKER
/////////////////////////////////////////////////////////////////////

type ObjectChecker struct {
	base   reflect.Value
	isMap  bool
	errors []error
	fields []*FieldChecker
}

// An "object" is a struct, a map with string keys, or a pointer to
// either. Anything else fails immediately.
func Object(object any) *ObjectChecker {
	oc := &ObjectChecker{}
	if object == nil {
		oc.errors = append(oc.errors, errors.New("object cannot be nil"))
		return oc
	}
	base := reflect.ValueOf(object)
	for base.Kind() == reflect.Ptr || base.Kind() == reflect.Interface {
		if base.IsNil() {
			oc.errors = append(oc.errors, errors.New("object cannot be nil"))
			return oc
		}
		base = base.Elem()
	}
	switch {
	case base.Kind() == reflect.Struct:
	case base.Kind() == reflect.Map && base.Type().Key().Kind() == reflect.String:
		oc.isMap = true
	default:
		oc.errors = append(oc.errors, fmt.Errorf("object must be a struct or a map with string keys (got %T)", object))
		return oc
	}
	oc.base = base
	return oc
}

func (oc *ObjectChecker) Required(field string) *FieldChecker { return oc.field(field, true) }
func (oc *ObjectChecker) Optional(field string) *FieldChecker { return oc.field(field, false) }

func (oc *ObjectChecker) Error() error {
	errs := slices.Clone(oc.errors)
	for _, f := range oc.fields {
		if f.err != nil {
			errs = append(errs, f.err)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return &ValidationError{Err: errors.Join(errs...)}
}

func (oc *ObjectChecker) field(name string, required bool) *FieldChecker {
	fc := &FieldChecker{name: name}
	oc.fields = append(oc.fields, fc)
	if !oc.base.IsValid() {
		fc.done = true
		return fc
	}

	if oc.isMap {
		fc.initEntry(oc.base.MapIndex(reflect.ValueOf(name).Convert(oc.base.Type().Key())), required)
		return fc
	}
	rv := oc.base.FieldByName(name)
	if rv.IsValid() && !rv.CanInterface() {
		rv = reflect.Value{}
	}
	fc.init(rv, required)
	return fc
}

/////////////////////////////////////////////////////////////////////
/////// FIELD CHECKER
/////////////////////////////////////////////////////////////////////

type FieldChecker struct {
	name    string
	value   any
	present bool
	done    bool
	err     error
}

func (fc *FieldChecker) init(rv reflect.Value, required bool) {
	fc.initAbsent(rv, isEffectivelyZero(rv), required)
}

// initEntry is init for map entries. A key that is set counts as present
// even when its value is a zero number or false; only a missing key, a
// nil value or a blank string is absent.
func (fc *FieldChecker) initEntry(rv reflect.Value, required bool) {
	fc.initAbsent(rv, isAbsentEntry(rv), required)
}

func (fc *FieldChecker) initAbsent(rv reflect.Value, absent, required bool) {
	if absent {
		fc.done = true
		if required {
			fc.err = &FieldError{Field: fc.name, Err: ErrRequired}
		}
		return
	}
	fc.present = true
	fc.value = rv.Interface()
	if v, ok := fc.value.(Validator); ok {
		fc.fail(v.Validate())
	}
}

// Present reports whether the field held a non-zero value.
func (fc *FieldChecker) Present() bool { return fc.present }

// Value returns the raw field value, or nil if absent.
func (fc *FieldChecker) Value() any { return fc.value }

func (fc *FieldChecker) Err() error { return fc.err }

// Check runs f against the value when it is present and no earlier
// rule has failed.
func (fc *FieldChecker) Check(f func(v any) error) *FieldChecker {
	if fc.done || !fc.present {
		return fc
	}
	fc.fail(f(fc.value))
	return fc
}

func (fc *FieldChecker) OneOf(allowed ...any) *FieldChecker {
	return fc.Check(func(v any) error {
		if reflect.TypeOf(v).Comparable() && slices.Contains(allowed, v) {
			return nil
		}
		return fmt.Errorf("must be one of %v (got %v)", allowed, v)
	})
}

// IsString requires the value to be a string.
func (fc *FieldChecker) IsString() *FieldChecker {
	return fc.Check(func(v any) error {
		if _, ok := v.(string); !ok {
			return fmt.Errorf("must be a string (got %T)", v)
		}
		return nil
	})
}

func (fc *FieldChecker) fail(err error) {
	if err == nil {
		return
	}
	fc.done = true
	fc.err = &FieldError{Field: fc.name, Err: err}
}

/////////////////////////////////////////////////////////////////////
/////// ANY CHECKER
/////////////////////////////////////////////////////////////////////

type AnyChecker struct{ fc FieldChecker }

func Any(label string, anything any) *AnyChecker {
	return &AnyChecker{fc: FieldChecker{name: label, value: anything}}
}

func (c *AnyChecker) Required() *AnyChecker {
	c.fc.init(reflect.ValueOf(c.fc.value), true)
	return c
}

func (c *AnyChecker) Optional() *AnyChecker {
	c.fc.init(reflect.ValueOf(c.fc.value), false)
	return c
}

func (c *AnyChecker) Check(f func(v any) error) *AnyChecker {
	c.fc.Check(f)
	return c
}

func (c *AnyChecker) Error() error {
	if c.fc.err == nil {
		return nil
	}
	return &ValidationError{Err: c.fc.err}
}

/////////////////////////////////////////////////////////////////////
/////// UTILS
/////////////////////////////////////////////////////////////////////

func isAbsentEntry(v reflect.Value) bool {
	if !v.IsValid() {
		return true
	}
	for v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return true
		}
		v = v.Elem()
	}
	if v.Kind() == reflect.String {
		return strings.TrimSpace(v.String()) == ""
	}
	return false
}

func isEffectivelyZero(v reflect.Value) bool {
	if !v.IsValid() {
		return true
	}
	for v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return true
		}
		v = v.Elem()
	}
	switch v.Kind() {
	case reflect.Struct:
		return false
	case reflect.Map, reflect.Slice:
		return v.IsNil() || v.Len() == 0
	case reflect.String:
		return strings.TrimSpace(v.String()) == ""
	default:
		return v.IsZero()
	}
}
