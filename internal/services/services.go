// Package services holds the business logic behind each Cloud Function. Every service
// follows the same shape: a Config read from the environment, a Function struct holding
// clients, and Process methods taking and returning the payloads in internal/models.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/Lllllllleong/ecoaction/internal/gcp"
	"github.com/Lllllllleong/ecoaction/internal/schema"
	"github.com/Lllllllleong/ecoaction/internal/store"
)

// ErrBadRequest marks errors caused by the caller's payload.
var ErrBadRequest = errors.New("bad request")

func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrBadRequest, fmt.Sprintf(format, args...))
}

// GCSEvent is the payload of a Cloud Storage object finalize event.
type GCSEvent struct {
	Bucket string `json:"bucket"`
	Name   string `json:"name"`
}

// Generator produces raw text for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Archiver keeps raw text that could not be recovered and returns where it went.
type Archiver interface {
	Archive(ctx context.Context, objectName, content string) (string, error)
}

// Trigger starts a workflow execution and returns its name.
type Trigger interface {
	Trigger(ctx context.Context, payload any) (string, error)
}

// ObjectReader reads a whole Cloud Storage object.
type ObjectReader interface {
	ReadObject(ctx context.Context, bucket, name string) ([]byte, error)
}

// loadRegistry builds the schema registry. SCHEMA_CONFIG_PATH names a YAML config file;
// CHALLENGE_DISTRIBUTION (e.g. "easy=3,medium=2,hard=1") overrides its distribution.
func loadRegistry() (*schema.Registry, error) {
	cfg := schema.DefaultConfig()
	if path := gcp.GetEnv("SCHEMA_CONFIG_PATH", ""); path != "" {
		loaded, err := schema.LoadConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if raw := gcp.GetEnv("CHALLENGE_DISTRIBUTION", ""); raw != "" {
		dist, err := schema.ParseDistribution(raw)
		if err != nil {
			return nil, fmt.Errorf("CHALLENGE_DISTRIBUTION: %w", err)
		}
		cfg = cfg.WithDistribution(dist)
	}
	registry, err := schema.NewRegistry(cfg)
	if err != nil {
		return nil, err
	}
	slog.Info("Schema registry loaded",
		"version", schema.Version,
		"challengeCount", cfg.ChallengeCount,
		"distribution", cfg.ChallengeDistribution.String(),
		"dailyTaskCount", cfg.DailyTaskCount,
	)
	return registry, nil
}

// newFirestoreStore connects the Firestore-backed store for projectID.
func newFirestoreStore(ctx context.Context, projectID string, registry *schema.Registry) (*store.FirestoreStore, error) {
	client, err := gcp.NewFirestoreClient(ctx, projectID, gcp.GetEnv("FIRESTORE_DATABASE", ""))
	if err != nil {
		return nil, err
	}
	return store.NewFirestoreStore(client, registry), nil
}

// nonAlphanumericRegex is a compiled regex for efficiency.
var nonAlphanumericRegex = regexp.MustCompile(`[^a-z0-9_-]+`)

// sanitizeObjectName turns an owner id into a safe GCS object name component.
func sanitizeObjectName(s string) string {
	sanitized := nonAlphanumericRegex.ReplaceAllString(strings.ToLower(s), "_")
	sanitized = strings.Trim(sanitized, "_")

	const maxLength = 100
	if len(sanitized) > maxLength {
		sanitized = strings.Trim(sanitized[:maxLength], "_")
	}
	if sanitized == "" {
		return "unknown"
	}
	return sanitized
}
