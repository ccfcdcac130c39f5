// Package schema declares the document schemas a candidate document is validated
// against, including the structural invariants over item lists.
package schema

import (
	"errors"
	"fmt"
)

// Version is the schema version stamped on every validated document.
const Version = "1.0.0"

// Kind names a document schema.
type Kind string

const (
	KindProfile           Kind = "profile"
	KindFootprintAnalysis Kind = "footprint_analysis"
	KindChallengePlan     Kind = "challenge_plan"
	KindDailyTaskBatch    Kind = "daily_task_batch"
	KindUpdatePlan        Kind = "update_plan"
)

// Kinds lists every registered document kind.
var Kinds = []Kind{
	KindProfile,
	KindFootprintAnalysis,
	KindChallengePlan,
	KindDailyTaskBatch,
	KindUpdatePlan,
}

// ErrUnknownKind reports a kind name outside the registered document kinds.
var ErrUnknownKind = errors.New("unknown document kind")

// ParseKind converts s into a Kind.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Difficulty tiers and categories used by plan items.
var (
	Difficulties = []string{"easy", "medium", "hard"}
	Categories   = []string{"diet", "transport", "energy", "waste", "consumption"}
)
