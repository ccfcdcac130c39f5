// Package merge combines a validated profile and a validated footprint analysis of the
// same owner into one composite record.
package merge

import (
	"github.com/Lllllllleong/ecoaction/internal/document"
	"github.com/Lllllllleong/ecoaction/internal/schema"
)

// Rule says which source document a composite field is copied from, and the value used
// when the source does not carry it.
type Rule struct {
	Field   string
	Source  schema.Kind
	From    string
	Default document.Value
}

// SourceField is the key read from the source document.
func (r Rule) SourceField() string {
	if r.From != "" {
		return r.From
	}
	return r.Field
}

func fromProfile(field string, def document.Value) Rule {
	return Rule{Field: field, Source: schema.KindProfile, Default: def}
}

func fromAnalysis(field string, def document.Value) Rule {
	return Rule{Field: field, Source: schema.KindFootprintAnalysis, Default: def}
}

// Provenance is the field table of a composite record, in output order. Narrative and
// demographic fields come from the profile; footprint, scoring and benchmark fields come
// from the analysis.
var Provenance = []Rule{
	fromProfile("narrative_text", document.String("")),
	fromProfile("demographics", document.Object{}),
	fromProfile("lifestyle_habits", document.Object{}),
	fromProfile("consumption_patterns", document.Object{}),
	fromProfile("psychographic_insights", document.Object{}),
	fromProfile("key_levers", document.List{}),

	fromAnalysis("total_carbon_footprint_kg", document.Number(0)),
	fromAnalysis("total_carbon_footprint_tonnes", document.Number(0)),
	fromAnalysis("category_breakdown", document.Object{}),
	fromAnalysis("sustainability_score", document.Number(0)),
	fromAnalysis("score_category", document.String("unknown")),
	fromAnalysis("regional_comparison", document.Object{}),
	fromAnalysis("key_lever_validations", document.List{}),
	fromAnalysis("top_impact_categories", document.List{}),
	fromAnalysis("priority_reduction_areas", document.List{}),
	fromAnalysis("fun_comparison_facts", document.List{}),
	fromAnalysis("calculation_method", document.String("Standard emission factors applied")),
	fromAnalysis("data_confidence", document.String("medium")),

	// The analysis has its own psychographic insights; they must not replace the profile's.
	{Field: "psychographic_insights_analyst", Source: schema.KindFootprintAnalysis, From: "psychographic_insights", Default: document.List{}},
}
