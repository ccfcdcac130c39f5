// Package schematest provides candidate documents that satisfy the default schemas, for
// use in tests.
package schematest

import (
	"fmt"

	"github.com/Lllllllleong/ecoaction/internal/document"
)

// Profile returns a valid profile candidate.
func Profile() document.Object {
	return document.Object{
		"demographics": document.Object{
			"location":       document.String("Canberra, Australia"),
			"climate":        document.String("Temperate"),
			"household_size": document.Number(2),
			"home_type":      document.String("Apartment"),
			"ownership":      document.String("Rent"),
		},
		"lifestyle_habits": document.Object{
			"diet": document.Object{
				"type":           document.String("Omnivore"),
				"meat_frequency": document.String("Few times a week"),
				"food_waste":     document.String("Low"),
			},
			"transportation": document.Object{
				"primary_mode":    document.String("Car"),
				"car_type":        document.String("Petrol"),
				"commute_details": document.String("15km daily"),
			},
			"energy_usage": document.Object{
				"heating_source":             document.String("Gas"),
				"ac_usage":                   document.String("Summer only"),
				"energy_conservation_habits": document.String("Moderate"),
			},
		},
		"consumption_patterns": document.Object{
			"shopping_frequency": document.String("Monthly"),
			"plastic_usage":      document.String("Medium"),
			"recycling_habit":    document.String("Always"),
		},
		"psychographic_insights": document.Object{
			"motivations": document.List{document.String("Save money")},
			"barriers":    document.List{document.String("Time")},
			"goals":       document.List{document.String("Drive less")},
		},
		"key_levers":     document.List{document.String("Switch commute to bus"), document.String("Cut meat")},
		"narrative_text": document.String("A renter who drives daily and wants to save money."),
	}
}

// Analysis returns a valid footprint analysis candidate. The optional fields
// score_category, calculation_method, data_confidence and fun_comparison_facts are left
// out so merge defaults apply.
func Analysis() document.Object {
	return document.Object{
		"total_carbon_footprint_kg":     document.Number(9200),
		"total_carbon_footprint_tonnes": document.Number(9.2),
		"category_breakdown": document.Object{
			"transportation_kg":    document.Number(3800),
			"diet_kg":              document.Number(2100),
			"home_energy_kg":       document.Number(1900),
			"shopping_kg":          document.Number(900),
			"digital_footprint_kg": document.Number(200),
			"other_kg":             document.Number(300),
		},
		"top_impact_categories": document.List{document.String("transportation"), document.String("diet")},
		"sustainability_score":  document.Number(5.5),
		"regional_comparison": document.Object{
			"user_location":         document.String("Canberra, Australia"),
			"local_average_kg":      document.Number(15000),
			"comparison_status":     document.String("below"),
			"percentage_difference": document.Number(-38.7),
		},
		"key_lever_validations": document.List{
			document.Object{
				"lever":                  document.String("Switch commute to bus"),
				"validated":              document.Bool(true),
				"impact_category":        document.String("transportation"),
				"potential_reduction_kg": document.Number(1200),
				"validation_reason":      document.String("Largest category"),
			},
		},
		"psychographic_insights": document.List{
			document.Object{
				"insight_text":         document.String("Bus fares cost less than fuel."),
				"related_motivation":   document.String("Save money"),
				"addresses_barrier":    document.String("Time"),
				"actionable_next_step": document.String("Try the bus twice this week"),
			},
		},
		"priority_reduction_areas": document.List{document.String("transportation")},
	}
}

// Challenge returns a valid challenge item with the given id number and difficulty.
func Challenge(n int, difficulty string) document.Object {
	return document.Object{
		"id":             document.String(fmt.Sprintf("challenge_%d", n)),
		"title":          document.String(fmt.Sprintf("Challenge %d", n)),
		"description":    document.String("Do the thing."),
		"difficulty":     document.String(difficulty),
		"category":       document.String("transport"),
		"steps":          document.List{document.String("Start"), document.String("Finish")},
		"co2_savings_kg": document.Number(1.5),
		"time_required":  document.String("10 minutes"),
		"motivation":     document.String("It helps."),
	}
}

// ChallengePlan returns a challenge plan candidate with one challenge per difficulty.
func ChallengePlan(difficulties ...string) document.Object {
	challenges := make(document.List, len(difficulties))
	for i, d := range difficulties {
		challenges[i] = Challenge(i+1, d)
	}
	return document.Object{
		"week_focus":              document.String("Greener commutes"),
		"priority_area":           document.String("transport"),
		"challenges":              challenges,
		"total_potential_savings": document.Number(1.5 * float64(len(difficulties))),
		"motivation_message":      document.String("You've got this."),
	}
}

// DefaultDifficulties matches the default 3 easy, 2 medium, 1 hard distribution.
var DefaultDifficulties = []string{"easy", "easy", "easy", "medium", "medium", "hard"}

// DailyTask returns a valid daily task with the given id number.
func DailyTask(n int) document.Object {
	return document.Object{
		"id":          document.String(fmt.Sprintf("daily_%d", n)),
		"title":       document.String("Unplug chargers"),
		"action":      document.String("Unplug idle chargers before bed"),
		"why":         document.String("Standby power adds up"),
		"steps":       document.List{document.String("Check outlets")},
		"co2_savings": document.Number(0.1),
	}
}

// DailyTaskBatch returns a daily task batch with n tasks.
func DailyTaskBatch(n int) document.Object {
	tasks := make(document.List, n)
	for i := range tasks {
		tasks[i] = DailyTask(i + 1)
	}
	return document.Object{
		"congratulations_message": document.String("Nice work!"),
		"daily_focus":             document.String("Home energy"),
		"new_daily_tasks":         tasks,
		"motivation":              document.String("Small habits compound."),
	}
}
