package schema

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Lllllllleong/ecoaction/internal/document"
)

// Invariant is a document-level rule checked after every field rule.
type Invariant interface {
	Check(doc document.Object) []Violation
	String() string
}

// ExactCount requires the list at Path to hold exactly N items.
type ExactCount struct {
	Path string
	N    int
}

func (c ExactCount) Check(doc document.Object) []Violation {
	items, ok := listAt(doc, c.Path)
	if !ok {
		return nil
	}
	if len(items) != c.N {
		return []Violation{{
			Path:    c.Path,
			Message: fmt.Sprintf("expected exactly %d items, got %d", c.N, len(items)),
		}}
	}
	return nil
}

func (c ExactCount) String() string {
	return fmt.Sprintf("len(%s) == %d", c.Path, c.N)
}

// ExactDistribution requires the items of the list at Path, grouped by Field, to match
// Expected exactly. Values absent from Expected must not occur at all.
type ExactDistribution struct {
	Path     string
	Field    string
	Expected Distribution
}

func (d ExactDistribution) Check(doc document.Object) []Violation {
	items, ok := listAt(doc, d.Path)
	if !ok {
		return nil
	}

	got := map[string]int{}
	for _, it := range items {
		obj, ok := it.(document.Object)
		if !ok {
			continue
		}
		if v, ok := obj.GetString(d.Field); ok {
			got[normalizeEnum(v)]++
		}
	}

	var violations []Violation
	seen := map[string]bool{}
	for _, b := range d.Expected {
		seen[b.Value] = true
		if got[b.Value] != b.Count {
			violations = append(violations, Violation{
				Path:    d.Path,
				Message: fmt.Sprintf("%s: expected %d, got %d", b.Value, b.Count, got[b.Value]),
			})
		}
	}

	var unexpected []string
	for v := range got {
		if !seen[v] {
			unexpected = append(unexpected, v)
		}
	}
	sort.Strings(unexpected)
	for _, v := range unexpected {
		violations = append(violations, Violation{
			Path:    d.Path,
			Message: fmt.Sprintf("%s: expected 0, got %d", v, got[v]),
		})
	}
	return violations
}

func (d ExactDistribution) String() string {
	return fmt.Sprintf("count(%s by %s) == {%s}", d.Path, d.Field, d.Expected)
}

func listAt(doc document.Object, path string) (document.List, bool) {
	v, ok := document.Lookup(doc, path)
	if !ok {
		return nil, false
	}
	l, ok := v.(document.List)
	return l, ok
}

func normalizeEnum(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
