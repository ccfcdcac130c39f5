package merge

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Lllllllleong/ecoaction/internal/document"
	"github.com/Lllllllleong/ecoaction/internal/schema"
)

var ErrKindMismatch = errors.New("document kind mismatch")

// KindMismatchError is the panic value of Merge when an argument has the wrong kind.
type KindMismatchError struct {
	Argument string
	Want     schema.Kind
	Got      schema.Kind
}

func (e *KindMismatchError) Error() string {
	return fmt.Sprintf("merge: %s argument has kind %q, want %q", e.Argument, e.Got, e.Want)
}

func (e *KindMismatchError) Is(target error) bool {
	return target == ErrKindMismatch
}

// Metadata keys of the encoded record.
const (
	FieldOwnerID       = "owner_id"
	FieldGeneratedAt   = "generated_at"
	FieldSchemaVersion = "schema_version"
	FieldSources       = "sources"
)

// CompositeRecord is the merged view of one owner's profile and footprint analysis.
type CompositeRecord struct {
	OwnerID       string
	Fields        document.Object
	GeneratedAt   time.Time
	SchemaVersion string
	Sources       []string
}

// Flatten returns the record as a single object: every provenance field plus the
// metadata keys.
func (r *CompositeRecord) Flatten() document.Object {
	out := r.Fields.Clone()
	if out == nil {
		out = document.Object{}
	}
	sources := make(document.List, len(r.Sources))
	for i, s := range r.Sources {
		sources[i] = document.String(s)
	}
	out[FieldOwnerID] = document.String(r.OwnerID)
	out[FieldGeneratedAt] = document.String(r.GeneratedAt.UTC().Format(time.RFC3339Nano))
	out[FieldSchemaVersion] = document.String(r.SchemaVersion)
	out[FieldSources] = sources
	return out
}

// MarshalJSON encodes the flattened record. Keys are sorted, so equal records encode to
// identical bytes.
func (r *CompositeRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Flatten())
}

// UnmarshalJSON decodes a record written by MarshalJSON.
func (r *CompositeRecord) UnmarshalJSON(data []byte) error {
	v, err := document.Parse(data)
	if err != nil {
		return err
	}
	obj, ok := v.(document.Object)
	if !ok {
		return fmt.Errorf("composite record: expected object, got %s", v.Kind())
	}
	parsed, err := ParseRecord(obj)
	if err != nil {
		return err
	}
	*r = *parsed
	return nil
}

// ParseRecord rebuilds a record from its flattened form.
func ParseRecord(flat document.Object) (*CompositeRecord, error) {
	owner, ok := flat.GetString(FieldOwnerID)
	if !ok || owner == "" {
		return nil, fmt.Errorf("composite record: missing %s", FieldOwnerID)
	}
	version, _ := flat.GetString(FieldSchemaVersion)

	var generatedAt time.Time
	if ts, ok := flat.GetString(FieldGeneratedAt); ok {
		t, err := time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return nil, fmt.Errorf("composite record: %s: %w", FieldGeneratedAt, err)
		}
		generatedAt = t
	}

	var sources []string
	if list, ok := flat.GetList(FieldSources); ok {
		for _, s := range list {
			if str, ok := s.(document.String); ok {
				sources = append(sources, string(str))
			}
		}
	}

	fields := make(document.Object, len(Provenance))
	for _, rule := range Provenance {
		if v, ok := flat[rule.Field]; ok {
			fields[rule.Field] = document.Clone(v)
		} else {
			fields[rule.Field] = document.Clone(rule.Default)
		}
	}

	return &CompositeRecord{
		OwnerID:       owner,
		Fields:        fields,
		GeneratedAt:   generatedAt,
		SchemaVersion: version,
		Sources:       sources,
	}, nil
}

// Merger builds composite records. The zero value is not usable; call New.
type Merger struct {
	now func() time.Time
}

type Option func(*Merger)

// WithClock sets the source of GeneratedAt.
func WithClock(now func() time.Time) Option {
	return func(m *Merger) { m.now = now }
}

func New(opts ...Option) *Merger {
	m := &Merger{now: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Merge combines profile and analysis following Provenance. Passing a document of the
// wrong kind is a programming error: Merge panics with a *KindMismatchError.
func (m *Merger) Merge(profile, analysis schema.ValidatedDocument, owner string) *CompositeRecord {
	if profile.Kind() != schema.KindProfile {
		panic(&KindMismatchError{Argument: "profile", Want: schema.KindProfile, Got: profile.Kind()})
	}
	if analysis.Kind() != schema.KindFootprintAnalysis {
		panic(&KindMismatchError{Argument: "analysis", Want: schema.KindFootprintAnalysis, Got: analysis.Kind()})
	}

	sources := map[schema.Kind]schema.ValidatedDocument{
		schema.KindProfile:           profile,
		schema.KindFootprintAnalysis: analysis,
	}
	fields := make(document.Object, len(Provenance))
	for _, rule := range Provenance {
		v, ok := sources[rule.Source].Get(rule.SourceField())
		if !ok || document.KindOf(v) == document.KindNull {
			v = document.Clone(rule.Default)
		}
		fields[rule.Field] = v
	}

	return &CompositeRecord{
		OwnerID:       owner,
		Fields:        fields,
		GeneratedAt:   m.now().UTC(),
		SchemaVersion: schema.Version,
		Sources:       []string{string(schema.KindProfile), string(schema.KindFootprintAnalysis)},
	}
}
