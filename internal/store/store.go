// Package store persists validated documents, composite records and completion events.
package store

import (
	"context"
	"errors"

	"github.com/Lllllllleong/ecoaction/internal/merge"
	"github.com/Lllllllleong/ecoaction/internal/models"
	"github.com/Lllllllleong/ecoaction/internal/schema"
)

var (
	// ErrNotFound reports a read of a key that holds nothing.
	ErrNotFound = errors.New("not found")
	// ErrConflict reports a write that would break a uniqueness constraint.
	ErrConflict = errors.New("conflict")
)

// Store is the logical persistence contract of the pipeline. Get methods return
// ErrNotFound when nothing is stored under the key.
type Store interface {
	PutValidatedDocument(ctx context.Context, owner string, doc schema.ValidatedDocument) error
	GetValidatedDocument(ctx context.Context, owner string, kind schema.Kind) (schema.ValidatedDocument, error)
	PutCompositeRecord(ctx context.Context, owner string, rec *merge.CompositeRecord) error
	GetCompositeRecord(ctx context.Context, owner string) (*merge.CompositeRecord, error)

	GetCompletion(ctx context.Context, id string) (*models.CompletionEvent, error)
	CreateCompletion(ctx context.Context, ev *models.CompletionEvent) error
	UpdateCompletion(ctx context.Context, ev *models.CompletionEvent, prevStatus string) error
	ListCompletions(ctx context.Context, ownerID, planID string) ([]*models.CompletionEvent, error)
}

func documentID(owner string, kind schema.Kind) string {
	return owner + "_" + string(kind)
}
