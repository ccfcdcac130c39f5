package schema

import (
	"errors"
	"fmt"

	"github.com/Masterminds/semver/v3"

	"github.com/Lllllllleong/ecoaction/internal/document"
)

// ErrIncompatibleVersion reports a schema version outside the supported major version.
var ErrIncompatibleVersion = errors.New("incompatible schema version")

// Registry holds the schema of every document kind. It is immutable after NewRegistry
// and safe for concurrent use.
type Registry struct {
	schemas    map[Kind]*Schema
	config     Config
	constraint *semver.Constraints
}

// NewRegistry builds the schemas for cfg.
func NewRegistry(cfg Config) (*Registry, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid schema config: %w", err)
	}
	// Stored documents stay readable across minor and patch releases of Version.
	constraint, err := semver.NewConstraint("^" + Version)
	if err != nil {
		return nil, fmt.Errorf("invalid schema version: %w", err)
	}

	schemas := []*Schema{
		profileSchema(),
		footprintAnalysisSchema(),
		challengePlanSchema(cfg),
		dailyTaskBatchSchema(cfg),
		updatePlanSchema(cfg),
	}
	r := &Registry{
		schemas:    make(map[Kind]*Schema, len(schemas)),
		config:     cfg,
		constraint: constraint,
	}
	for _, s := range schemas {
		r.schemas[s.Kind] = s
	}
	return r, nil
}

// DefaultRegistry builds the registry for DefaultConfig.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(DefaultConfig())
	if err != nil {
		panic(err)
	}
	return r
}

// Config returns the parameters the registry was built with.
func (r *Registry) Config() Config { return r.config }

// Schema returns the schema registered for kind.
func (r *Registry) Schema(kind Kind) (*Schema, error) {
	s, ok := r.schemas[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	return s, nil
}

// Schemas returns every schema in Kinds order.
func (r *Registry) Schemas() []*Schema {
	out := make([]*Schema, 0, len(Kinds))
	for _, k := range Kinds {
		out = append(out, r.schemas[k])
	}
	return out
}

// Validate checks candidate against the schema of kind.
func (r *Registry) Validate(candidate document.Object, kind Kind) (ValidatedDocument, error) {
	s, err := r.Schema(kind)
	if err != nil {
		return ValidatedDocument{}, err
	}
	return s.Validate(candidate)
}

// Skeleton returns the degraded-document skeleton for kind, or an empty object for an
// unknown kind.
func (r *Registry) Skeleton(kind Kind) document.Object {
	s, err := r.Schema(kind)
	if err != nil {
		return document.Object{}
	}
	return s.Skeleton()
}

// Compatible reports whether a document stamped with version can be read by this
// registry.
func (r *Registry) Compatible(version string) error {
	v, err := semver.NewVersion(version)
	if err != nil {
		return fmt.Errorf("%w: invalid version %q: %v", ErrIncompatibleVersion, version, err)
	}
	if !r.constraint.Check(v) {
		return fmt.Errorf("%w: %s does not satisfy ^%s", ErrIncompatibleVersion, version, Version)
	}
	return nil
}

// Restore re-validates a stored document body. It is how storage layers turn persisted
// trees back into ValidatedDocument values.
func (r *Registry) Restore(kind Kind, version string, body document.Object) (ValidatedDocument, error) {
	if err := r.Compatible(version); err != nil {
		return ValidatedDocument{}, err
	}
	doc, err := r.Validate(body, kind)
	if err != nil {
		return ValidatedDocument{}, fmt.Errorf("stored %s document no longer validates: %w", kind, err)
	}
	return doc, nil
}
