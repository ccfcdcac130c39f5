package schema

import (
	"github.com/Lllllllleong/ecoaction/internal/document"
)

// Schema is the versioned description of one document kind. Schemas are built by
// NewRegistry and must not be modified afterwards.
type Schema struct {
	Kind       Kind        `yaml:"kind"`
	Version    string      `yaml:"version"`
	Fields     []Field     `yaml:"fields"`
	Invariants []Invariant `yaml:"-"`
	AllowExtra bool        `yaml:"allow_extra"`
}

// Skeleton returns the default document used when extraction degrades: every required
// field set to its default or the zero value of its type.
func (s *Schema) Skeleton() document.Object {
	return skeletonOf(s.Fields)
}

func profileSchema() *Schema {
	return &Schema{
		Kind:    KindProfile,
		Version: Version,
		Fields: []Field{
			object("demographics",
				str("location"),
				str("climate"),
				num("household_size").integer(),
				str("home_type"),
				str("ownership"),
			).extra(),
			object("lifestyle_habits",
				object("diet",
					str("type"),
					str("meat_frequency"),
					str("food_waste"),
				).extra(),
				object("transportation",
					str("primary_mode"),
					str("car_type"),
					str("commute_details"),
				).extra(),
				object("energy_usage",
					str("heating_source"),
					str("ac_usage"),
					str("energy_conservation_habits"),
				).extra(),
			).extra(),
			object("consumption_patterns",
				str("shopping_frequency"),
				str("plastic_usage"),
				str("recycling_habit"),
			).extra(),
			object("psychographic_insights",
				strList("motivations"),
				strList("barriers"),
				strList("goals"),
			).extra(),
			strList("key_levers"),
			text("narrative_text"),
		},
		AllowExtra: true,
	}
}

func footprintAnalysisSchema() *Schema {
	return &Schema{
		Kind:    KindFootprintAnalysis,
		Version: Version,
		Fields: []Field{
			num("total_carbon_footprint_kg"),
			num("total_carbon_footprint_tonnes"),
			object("category_breakdown",
				num("transportation_kg"),
				num("diet_kg"),
				num("home_energy_kg"),
				num("shopping_kg"),
				num("digital_footprint_kg"),
				num("other_kg"),
			).extra(),
			strList("top_impact_categories"),
			num("sustainability_score").between(0, 10),
			str("score_category").optional(),
			object("regional_comparison",
				str("user_location"),
				num("local_average_kg"),
				str("comparison_status"),
				Field{Name: "percentage_difference", Type: TypeNumber},
			).extra(),
			objectList("key_lever_validations",
				str("lever"),
				boolean("validated"),
				str("impact_category"),
				num("potential_reduction_kg"),
				str("validation_reason"),
			),
			objectList("psychographic_insights",
				str("insight_text"),
				str("related_motivation"),
				str("addresses_barrier"),
				str("actionable_next_step"),
			).optional(),
			strList("fun_comparison_facts").optional(),
			strList("priority_reduction_areas"),
			str("calculation_method").optional(),
			enum("data_confidence", "high", "medium", "low").optional(),
		},
		AllowExtra: true,
	}
}

func challengeFields() []Field {
	return []Field{
		text("id"),
		text("title"),
		str("description"),
		enum("difficulty", Difficulties...),
		enum("category", Categories...),
		{Name: "steps", Type: TypeList, NonEmpty: true, Elem: &Field{Type: TypeString, NonEmpty: true}},
		num("co2_savings_kg"),
		str("time_required"),
		str("deadline").optional(),
		str("success_metrics").optional(),
		str("motivation"),
		boolean("completed").optional().withDefault(document.Bool(false)),
	}
}

func challengeInvariants(cfg Config) []Invariant {
	return []Invariant{
		ExactCount{Path: "challenges", N: cfg.ChallengeCount},
		ExactDistribution{Path: "challenges", Field: "difficulty", Expected: cfg.ChallengeDistribution},
	}
}

func challengePlanSchema(cfg Config) *Schema {
	return &Schema{
		Kind:    KindChallengePlan,
		Version: Version,
		Fields: []Field{
			str("week_focus"),
			str("priority_area"),
			objectList("challenges", challengeFields()...),
			num("total_potential_savings"),
			str("motivation_message"),
		},
		Invariants: challengeInvariants(cfg),
	}
}

func updatePlanSchema(cfg Config) *Schema {
	return &Schema{
		Kind:    KindUpdatePlan,
		Version: Version,
		Fields: []Field{
			str("update_analysis"),
			str("planning_adjustments"),
			str("week_focus"),
			objectList("challenges", challengeFields()...),
			num("total_potential_savings"),
			str("motivation_message"),
			str("future_planning_notes"),
		},
		Invariants: challengeInvariants(cfg),
	}
}

func dailyTaskBatchSchema(cfg Config) *Schema {
	return &Schema{
		Kind:    KindDailyTaskBatch,
		Version: Version,
		Fields: []Field{
			str("congratulations_message"),
			str("daily_focus"),
			objectList("new_daily_tasks",
				text("id"),
				text("title"),
				str("action"),
				str("why"),
				strList("steps").nonEmpty(),
				num("co2_savings"),
				enum("difficulty", Difficulties...).optional().withDefault(document.String("easy")),
				str("task_type").optional().withDefault(document.String("daily")),
				str("frequency").optional().withDefault(document.String("daily")),
				boolean("completed").optional().withDefault(document.Bool(false)),
			),
			str("motivation"),
		},
		Invariants: []Invariant{
			ExactCount{Path: "new_daily_tasks", N: cfg.DailyTaskCount},
		},
	}
}
