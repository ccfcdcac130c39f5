package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/Lllllllleong/ecoaction/internal/document"
)

// ErrValidationFailed matches every *ValidationError.
var ErrValidationFailed = errors.New("validation failed")

// Violation is one broken field rule or invariant.
type Violation struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

func (v Violation) String() string {
	if v.Path == "" {
		return v.Message
	}
	return v.Path + ": " + v.Message
}

// ValidationError lists every violation found in a rejected candidate.
type ValidationError struct {
	Kind       Kind
	Violations []Violation
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = v.String()
	}
	return fmt.Sprintf("%s failed validation with %d violation(s): %s",
		e.Kind, len(e.Violations), strings.Join(parts, "; "))
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidationFailed
}

// ValidatedDocument is a candidate document that satisfied every rule of its schema.
// It can only be produced by validation and is never modified afterwards.
type ValidatedDocument struct {
	kind    Kind
	version string
	body    document.Object
}

func (d ValidatedDocument) Kind() Kind { return d.kind }

func (d ValidatedDocument) Version() string { return d.version }

// IsZero reports whether d was never produced by validation.
func (d ValidatedDocument) IsZero() bool { return d.body == nil }

// Get returns a copy of the top-level field key.
func (d ValidatedDocument) Get(key string) (document.Value, bool) {
	v, ok := d.body[key]
	if !ok {
		return nil, false
	}
	return document.Clone(v), true
}

// Body returns a deep copy of the document tree.
func (d ValidatedDocument) Body() document.Object {
	return d.body.Clone()
}

func (d ValidatedDocument) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.body)
}

// Validate checks candidate against every field rule and invariant of s. On success the
// returned document is a normalized copy: enum values are trimmed and lower-cased and
// absent optional fields with a default are filled in.
func (s *Schema) Validate(candidate document.Object) (ValidatedDocument, error) {
	if diag, degraded := document.Degraded(candidate); degraded {
		return ValidatedDocument{}, &ValidationError{
			Kind:       s.Kind,
			Violations: []Violation{{Path: document.DiagnosticField, Message: diag.Error()}},
		}
	}

	v := &validator{}
	body := v.object("", s.Fields, s.AllowExtra, candidate)
	for _, inv := range s.Invariants {
		v.violations = append(v.violations, inv.Check(body)...)
	}

	if len(v.violations) > 0 {
		return ValidatedDocument{}, &ValidationError{Kind: s.Kind, Violations: v.violations}
	}
	return ValidatedDocument{kind: s.Kind, version: s.Version, body: body}, nil
}

type validator struct {
	violations []Violation
}

func (v *validator) fail(path, format string, args ...any) {
	v.violations = append(v.violations, Violation{Path: path, Message: fmt.Sprintf(format, args...)})
}

// object validates in against fields and returns the normalized copy.
func (v *validator) object(path string, fields []Field, allowExtra bool, in document.Object) document.Object {
	out := make(document.Object, len(in))
	declared := make(map[string]bool, len(fields))

	for _, f := range fields {
		declared[f.Name] = true
		fieldPath := joinPath(path, f.Name)
		val, present := in[f.Name]
		if !present || (f.Optional && document.KindOf(val) == document.KindNull) {
			switch {
			case f.Optional && f.Default != nil:
				out[f.Name] = document.Clone(f.Default)
			case f.Optional:
				if present {
					out[f.Name] = document.Null{}
				}
			default:
				v.fail(fieldPath, "required field missing")
			}
			continue
		}
		out[f.Name] = v.value(fieldPath, f, val)
	}

	for _, key := range in.Keys() {
		if declared[key] {
			continue
		}
		if !allowExtra {
			v.fail(joinPath(path, key), "unexpected field")
			continue
		}
		out[key] = document.Clone(in[key])
	}
	return out
}

// value validates one value against f and returns its normalized copy.
func (v *validator) value(path string, f Field, val document.Value) document.Value {
	if got := document.KindOf(val); !typeMatches(f.Type, got) {
		v.fail(path, "expected %s, got %s", f.Type, got)
		return document.Clone(val)
	}

	switch t := val.(type) {
	case document.String:
		s := string(t)
		if f.NonEmpty && strings.TrimSpace(s) == "" {
			v.fail(path, "must not be empty")
		}
		if len(f.Enum) > 0 {
			s = normalizeEnum(s)
			if !slices.Contains(f.Enum, s) {
				v.fail(path, "%q is not one of %s", string(t), strings.Join(f.Enum, ", "))
			}
		}
		return document.String(s)

	case document.Number:
		n := float64(t)
		if f.NonNegative && n < 0 {
			v.fail(path, "must be non-negative, got %v", n)
		}
		if f.Integer && n != math.Trunc(n) {
			v.fail(path, "must be a whole number, got %v", n)
		}
		if f.Min != nil && n < *f.Min {
			v.fail(path, "must be at least %v, got %v", *f.Min, n)
		}
		if f.Max != nil && n > *f.Max {
			v.fail(path, "must be at most %v, got %v", *f.Max, n)
		}
		return t

	case document.List:
		if f.NonEmpty && len(t) == 0 {
			v.fail(path, "must not be empty")
		}
		out := make(document.List, len(t))
		for i, e := range t {
			elemPath := fmt.Sprintf("%s[%d]", path, i)
			if f.Elem == nil {
				out[i] = document.Clone(e)
				continue
			}
			out[i] = v.value(elemPath, *f.Elem, e)
		}
		return out

	case document.Object:
		return v.object(path, f.Fields, f.AllowExtra || len(f.Fields) == 0, t)
	}
	return val
}

func typeMatches(t Type, k document.Kind) bool {
	switch t {
	case TypeString:
		return k == document.KindString
	case TypeNumber:
		return k == document.KindNumber
	case TypeBool:
		return k == document.KindBool
	case TypeList:
		return k == document.KindList
	case TypeObject:
		return k == document.KindObject
	}
	return false
}

func joinPath(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "." + name
}
