package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/Lllllllleong/ecoaction/internal/gcp"
	"github.com/Lllllllleong/ecoaction/internal/merge"
	"github.com/Lllllllleong/ecoaction/internal/models"
	"github.com/Lllllllleong/ecoaction/internal/schema"
	"github.com/Lllllllleong/ecoaction/internal/store"
)

// ErrMissingDocument is returned when an owner lacks one of the documents to merge.
var ErrMissingDocument = errors.New("document missing")

// MergerConfig holds configuration for the merger service.
type MergerConfig struct {
	ProjectID string
}

// MergerFunction combines an owner's profile and footprint analysis into a composite record.
type MergerFunction struct {
	store  store.Store
	merger *merge.Merger
	config MergerConfig
}

func NewMerger(ctx context.Context) (*MergerFunction, error) {
	projectID := gcp.GetEnv("GOOGLE_CLOUD_PROJECT_ID", "")
	if projectID == "" {
		return nil, fmt.Errorf("GOOGLE_CLOUD_PROJECT_ID environment variable must be set")
	}
	config := MergerConfig{ProjectID: projectID}

	registry, err := loadRegistry()
	if err != nil {
		return nil, fmt.Errorf("failed to load schema registry: %w", err)
	}
	firestoreStore, err := newFirestoreStore(ctx, config.ProjectID, registry)
	if err != nil {
		return nil, err
	}

	return &MergerFunction{
		store:  firestoreStore,
		merger: merge.New(),
		config: config,
	}, nil
}

// Process fetches both source documents concurrently, merges them and stores the record.
func (f *MergerFunction) Process(ctx context.Context, req *models.MergeRequest) (*models.MergeResponse, error) {
	logCtx := slog.With("ownerId", req.OwnerID, "executionId", req.ExecutionID)
	if req.OwnerID == "" {
		return nil, badRequest("ownerId is required")
	}
	logCtx.Info("Starting merge.")

	var profile, analysis schema.ValidatedDocument
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		doc, err := f.fetch(gctx, req.OwnerID, schema.KindProfile)
		profile = doc
		return err
	})
	g.Go(func() error {
		doc, err := f.fetch(gctx, req.OwnerID, schema.KindFootprintAnalysis)
		analysis = doc
		return err
	})
	if err := g.Wait(); err != nil {
		logCtx.Error("Failed to fetch source documents", "error", err)
		return nil, err
	}

	record := f.merger.Merge(profile, analysis, req.OwnerID)
	if err := f.store.PutCompositeRecord(ctx, req.OwnerID, record); err != nil {
		logCtx.Error("Failed to store composite record", "error", err)
		return nil, err
	}

	logCtx.Info("Merge complete.", "fields", len(record.Fields))
	return &models.MergeResponse{Status: "success", Record: record}, nil
}

func (f *MergerFunction) fetch(ctx context.Context, owner string, kind schema.Kind) (schema.ValidatedDocument, error) {
	doc, err := f.store.GetValidatedDocument(ctx, owner, kind)
	if errors.Is(err, store.ErrNotFound) {
		return doc, fmt.Errorf("%w: no %s stored for %s", ErrMissingDocument, kind, owner)
	}
	return doc, err
}
