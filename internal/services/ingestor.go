package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"cloud.google.com/go/storage"

	"github.com/Lllllllleong/ecoaction/internal/document"
	"github.com/Lllllllleong/ecoaction/internal/gcp"
	"github.com/Lllllllleong/ecoaction/internal/models"
	"github.com/Lllllllleong/ecoaction/internal/schema"
	"github.com/Lllllllleong/ecoaction/internal/store"
)

// Input formats of an ingest request.
const (
	FormatJSON     = "json"
	FormatSections = "sections"
)

// sectionsSuffix marks uploaded objects that hold labeled-section text.
const sectionsSuffix = ".sections.txt"

// IngestorConfig holds configuration for the ingestor service.
type IngestorConfig struct {
	ProjectID        string
	VertexAIRegion   string
	VertexModel      string
	ArchiveBucket    string
	WorkflowID       string
	WorkflowLocation string
	MaxObjectBytes   int64
}

// IngestorFunction turns raw generator output into validated, stored documents.
type IngestorFunction struct {
	registry  *schema.Registry
	store     store.Store
	generator Generator
	archive   Archiver
	trigger   Trigger
	objects   ObjectReader
	config    IngestorConfig
	now       func() time.Time
}

// NewIngestor creates an IngestorFunction from the environment. The archive bucket and
// the merge workflow are optional.
func NewIngestor(ctx context.Context) (*IngestorFunction, error) {
	projectID := gcp.GetEnv("GOOGLE_CLOUD_PROJECT_ID", "")
	if projectID == "" {
		return nil, fmt.Errorf("GOOGLE_CLOUD_PROJECT_ID environment variable must be set")
	}

	config := IngestorConfig{
		ProjectID:        projectID,
		VertexAIRegion:   gcp.GetEnv("VERTEX_AI_REGION", "us-central1"),
		VertexModel:      gcp.GetEnv("VERTEX_MODEL", gcp.DefaultModel),
		ArchiveBucket:    gcp.GetEnv("RAW_ARCHIVE_BUCKET", ""),
		WorkflowID:       gcp.GetEnv("MERGE_WORKFLOW_ID", ""),
		WorkflowLocation: gcp.GetEnv("WORKFLOW_LOCATION", "us-central1"),
		MaxObjectBytes:   1 << 20,
	}

	registry, err := loadRegistry()
	if err != nil {
		return nil, fmt.Errorf("failed to load schema registry: %w", err)
	}

	firestoreStore, err := newFirestoreStore(ctx, config.ProjectID, registry)
	if err != nil {
		return nil, err
	}

	storageClient, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	vertexClient, err := gcp.NewVertexClient(ctx, config.ProjectID, config.VertexAIRegion, config.VertexModel)
	if err != nil {
		return nil, fmt.Errorf("failed to create vertex client: %w", err)
	}

	f := &IngestorFunction{
		registry:  registry,
		store:     firestoreStore,
		generator: vertexClient,
		objects:   gcp.NewObjectReader(storageClient, config.MaxObjectBytes),
		config:    config,
		now:       time.Now,
	}
	if config.ArchiveBucket != "" {
		f.archive = gcp.NewRawArchive(storageClient, config.ArchiveBucket)
	}
	if config.WorkflowID != "" {
		trigger, err := gcp.NewWorkflowTrigger(ctx, config.ProjectID, config.WorkflowLocation, config.WorkflowID)
		if err != nil {
			return nil, err
		}
		f.trigger = trigger
	}

	slog.Info("Ingestor initialized", "archiveBucket", config.ArchiveBucket, "mergeWorkflow", config.WorkflowID)
	return f, nil
}

// Process ingests one document. Degraded and invalid input are reported in the response,
// not as errors; errors are reserved for bad requests and infrastructure failures.
func (f *IngestorFunction) Process(ctx context.Context, req *models.IngestRequest) (*models.IngestResponse, error) {
	logCtx := slog.With("ownerId", req.OwnerID, "kind", req.Kind)

	if req.OwnerID == "" {
		return nil, badRequest("ownerId is required")
	}
	kind, err := schema.ParseKind(req.Kind)
	if err != nil {
		return nil, badRequest("%v", err)
	}
	format, err := parseFormat(req.Format, kind)
	if err != nil {
		return nil, err
	}

	var raw any
	switch {
	case len(req.Raw) > 0:
		raw = rawInput(req.Raw)
	case req.Prompt != "":
		if f.generator == nil {
			return nil, badRequest("generation is not configured")
		}
		logCtx.Info("Generating document", "format", format)
		text, err := f.generator.Generate(ctx, req.Prompt)
		if err != nil {
			logCtx.Error("Call to generator failed", "error", err)
			return nil, err
		}
		raw = text
	default:
		return nil, badRequest("one of raw or prompt is required")
	}

	return f.ingest(ctx, req.OwnerID, kind, format, raw)
}

// ProcessObject ingests an uploaded object named "<owner>/<kind>/<file>". Objects ending
// in ".sections.txt" are read as labeled sections.
func (f *IngestorFunction) ProcessObject(ctx context.Context, e GCSEvent) (*models.IngestResponse, error) {
	logCtx := slog.With("bucket", e.Bucket, "object", e.Name)

	parts := strings.Split(e.Name, "/")
	if len(parts) != 3 || parts[0] == "" || parts[2] == "" {
		logCtx.Warn("Ignoring object outside the <owner>/<kind>/<file> layout")
		return nil, badRequest("object %q is not named <owner>/<kind>/<file>", e.Name)
	}
	owner, kindName, file := parts[0], parts[1], parts[2]
	kind, err := schema.ParseKind(kindName)
	if err != nil {
		return nil, badRequest("%v", err)
	}
	format := FormatJSON
	if strings.HasSuffix(file, sectionsSuffix) {
		format = FormatSections
	}
	if _, err := parseFormat(format, kind); err != nil {
		return nil, err
	}

	data, err := f.objects.ReadObject(ctx, e.Bucket, e.Name)
	if err != nil {
		logCtx.Error("Failed to read uploaded object", "error", err)
		return nil, err
	}
	logCtx.Info("Ingesting uploaded object", "ownerId", owner, "kind", kind, "format", format, "bytes", len(data))
	return f.ingest(ctx, owner, kind, format, string(data))
}

func (f *IngestorFunction) ingest(ctx context.Context, owner string, kind schema.Kind, format string, raw any) (*models.IngestResponse, error) {
	logCtx := slog.With("ownerId", owner, "kind", kind)
	resp := &models.IngestResponse{Kind: string(kind)}

	skeleton := f.registry.Skeleton(kind)
	var candidate document.Object
	if format == FormatSections {
		var text string
		switch t := raw.(type) {
		case string:
			text = t
		case json.RawMessage:
			text = string(t)
		}
		var diags []document.Diagnostic
		candidate, diags = document.ParseSections(text, document.WithSkeleton(skeleton))
		for _, d := range diags {
			resp.Diagnostics = append(resp.Diagnostics, d.String())
		}
		if len(diags) > 0 {
			logCtx.Info("Section parser reported diagnostics", "count", len(diags))
		}
	} else {
		candidate = document.Extract(raw, document.WithSkeleton(skeleton))
	}

	if degraded, ok := document.Degraded(candidate); ok {
		logCtx.Warn("Extraction degraded", "reason", degraded.Reason)
		resp.Status = models.StatusDegraded
		resp.Reason = degraded.Reason
		if f.archive != nil {
			objectName := fmt.Sprintf("degraded/%s/%s/%s.txt", sanitizeObjectName(owner), kind, f.now().UTC().Format("20060102T150405.000000000Z"))
			uri, err := f.archive.Archive(ctx, objectName, degraded.Raw)
			if err != nil {
				logCtx.Error("Failed to archive degraded input", "error", err)
			} else {
				resp.ArchiveGCSUri = uri
			}
		}
		return resp, nil
	}

	doc, err := f.registry.Validate(candidate, kind)
	if err != nil {
		var verr *schema.ValidationError
		if !errors.As(err, &verr) {
			return nil, err
		}
		logCtx.Warn("Document failed validation", "violations", len(verr.Violations))
		resp.Status = models.StatusInvalid
		for _, v := range verr.Violations {
			resp.Violations = append(resp.Violations, v.String())
		}
		return resp, nil
	}

	if err := f.store.PutValidatedDocument(ctx, owner, doc); err != nil {
		logCtx.Error("Failed to store document", "error", err)
		return nil, err
	}
	resp.Status = models.StatusStored
	resp.Document = doc
	logCtx.Info("Document stored")

	if executionID, err := f.maybeTriggerMerge(ctx, owner, kind); err != nil {
		// The document is stored; a later ingest retries the merge.
		logCtx.Error("Failed to trigger merge workflow", "error", err)
	} else {
		resp.WorkflowExecutionID = executionID
	}
	return resp, nil
}

// maybeTriggerMerge starts the merge workflow once both a profile and a footprint
// analysis are stored for owner.
func (f *IngestorFunction) maybeTriggerMerge(ctx context.Context, owner string, kind schema.Kind) (string, error) {
	if f.trigger == nil {
		return "", nil
	}
	var other schema.Kind
	switch kind {
	case schema.KindProfile:
		other = schema.KindFootprintAnalysis
	case schema.KindFootprintAnalysis:
		other = schema.KindProfile
	default:
		return "", nil
	}
	if _, err := f.store.GetValidatedDocument(ctx, owner, other); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", nil
		}
		return "", err
	}
	return f.trigger.Trigger(ctx, models.MergeRequest{OwnerID: owner})
}

// parseFormat resolves the requested format. Labeled sections only describe challenge plans.
func parseFormat(format string, kind schema.Kind) (string, error) {
	switch format {
	case "", FormatJSON:
		return FormatJSON, nil
	case FormatSections:
		if kind != schema.KindChallengePlan {
			return "", badRequest("format %q is only supported for %s", format, schema.KindChallengePlan)
		}
		return FormatSections, nil
	}
	return "", badRequest("unknown format %q", format)
}

// rawInput unwraps a JSON string payload into its text. Any other JSON value is handed
// to the extractor as is.
func rawInput(msg json.RawMessage) any {
	trimmed := strings.TrimSpace(string(msg))
	if strings.HasPrefix(trimmed, `"`) {
		var text string
		if err := json.Unmarshal(msg, &text); err == nil {
			return text
		}
	}
	return json.RawMessage(trimmed)
}
