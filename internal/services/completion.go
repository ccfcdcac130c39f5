package services

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/Lllllllleong/ecoaction/internal/gcp"
	"github.com/Lllllllleong/ecoaction/internal/ledger"
	"github.com/Lllllllleong/ecoaction/internal/models"
)

// CompletionConfig holds configuration for the completion service.
type CompletionConfig struct {
	ProjectID       string
	UnlockThreshold int
}

// CompletionFunction records item completions and reports plan progress.
type CompletionFunction struct {
	ledger *ledger.Ledger
	config CompletionConfig
}

func NewCompletion(ctx context.Context) (*CompletionFunction, error) {
	projectID := gcp.GetEnv("GOOGLE_CLOUD_PROJECT_ID", "")
	if projectID == "" {
		return nil, fmt.Errorf("GOOGLE_CLOUD_PROJECT_ID environment variable must be set")
	}
	threshold, err := strconv.Atoi(gcp.GetEnv("UNLOCK_THRESHOLD", "3"))
	if err != nil || threshold < 1 {
		return nil, fmt.Errorf("UNLOCK_THRESHOLD must be a positive integer")
	}
	config := CompletionConfig{ProjectID: projectID, UnlockThreshold: threshold}

	registry, err := loadRegistry()
	if err != nil {
		return nil, fmt.Errorf("failed to load schema registry: %w", err)
	}
	firestoreStore, err := newFirestoreStore(ctx, config.ProjectID, registry)
	if err != nil {
		return nil, err
	}

	return &CompletionFunction{
		ledger: ledger.New(firestoreStore),
		config: config,
	}, nil
}

// Record stores one completion. Repeating a call is safe and reports already_recorded.
func (f *CompletionFunction) Record(ctx context.Context, req *models.CompletionRequest) (*models.CompletionResponse, error) {
	logCtx := slog.With("ownerId", req.OwnerID, "planId", req.PlanID, "itemId", req.ItemID)
	if req.OwnerID == "" || req.PlanID == "" || req.ItemID == "" {
		return nil, badRequest("ownerId, planId and itemId are required")
	}

	outcome, err := f.ledger.Record(ctx, req.OwnerID, req.PlanID, req.ItemID, req.Status, req.Note)
	if err != nil {
		logCtx.Error("Failed to record completion", "error", err)
		return nil, err
	}
	logCtx.Info("Completion recorded", "outcome", outcome.String())

	key := ledger.Key{OwnerID: req.OwnerID, PlanID: req.PlanID, ItemID: req.ItemID}
	return &models.CompletionResponse{Outcome: outcome.String(), EventID: key.EventID()}, nil
}

// Progress reports how many items of a plan are complete and whether the next batch of
// daily tasks is unlocked.
func (f *CompletionFunction) Progress(ctx context.Context, req *models.ProgressRequest) (*models.ProgressResponse, error) {
	if req.OwnerID == "" || req.PlanID == "" {
		return nil, badRequest("ownerId and planId are required")
	}
	if req.Total < 0 {
		return nil, badRequest("total must not be negative")
	}

	p, err := f.ledger.Progress(ctx, req.OwnerID, req.PlanID, req.Total, f.config.UnlockThreshold)
	if err != nil {
		slog.Error("Failed to compute progress", "ownerId", req.OwnerID, "planId", req.PlanID, "error", err)
		return nil, err
	}
	items := p.Items
	if items == nil {
		items = []string{}
	}
	return &models.ProgressResponse{
		Completed:      p.Completed,
		Total:          p.Total,
		Threshold:      p.Threshold,
		Unlocked:       p.Unlocked,
		CompletedItems: items,
	}, nil
}
