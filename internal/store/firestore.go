package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/Lllllllleong/ecoaction/internal/document"
	"github.com/Lllllllleong/ecoaction/internal/merge"
	"github.com/Lllllllleong/ecoaction/internal/models"
	"github.com/Lllllllleong/ecoaction/internal/schema"
)

// Default collection names.
const (
	DocumentsCollection   = "documents"
	RecordsCollection     = "profiles"
	CompletionsCollection = "completion_events"
)

// FirestoreStore implements Store on Cloud Firestore. Documents are re-validated
// against the registry when read back.
type FirestoreStore struct {
	client   *firestore.Client
	registry *schema.Registry
	now      func() time.Time
}

func NewFirestoreStore(client *firestore.Client, registry *schema.Registry) *FirestoreStore {
	return &FirestoreStore{client: client, registry: registry, now: time.Now}
}

func (s *FirestoreStore) PutValidatedDocument(ctx context.Context, owner string, doc schema.ValidatedDocument) error {
	if doc.IsZero() {
		return fmt.Errorf("refusing to store an unvalidated document")
	}
	body, _ := document.ToAny(doc.Body()).(map[string]any)
	stored := models.StoredDocument{
		OwnerID:       owner,
		Kind:          string(doc.Kind()),
		SchemaVersion: doc.Version(),
		Body:          body,
		StoredAt:      s.now().UTC(),
	}
	id := documentID(owner, doc.Kind())
	if _, err := s.client.Collection(DocumentsCollection).Doc(id).Set(ctx, stored); err != nil {
		return fmt.Errorf("failed to write document %s: %w", id, err)
	}
	return nil
}

func (s *FirestoreStore) GetValidatedDocument(ctx context.Context, owner string, kind schema.Kind) (schema.ValidatedDocument, error) {
	id := documentID(owner, kind)
	snap, err := s.client.Collection(DocumentsCollection).Doc(id).Get(ctx)
	if err != nil {
		return schema.ValidatedDocument{}, translate(err, "document "+id)
	}
	var stored models.StoredDocument
	if err := snap.DataTo(&stored); err != nil {
		return schema.ValidatedDocument{}, fmt.Errorf("failed to decode document %s: %w", id, err)
	}
	body, err := document.FromAny(stored.Body)
	if err != nil {
		return schema.ValidatedDocument{}, fmt.Errorf("failed to convert document %s: %w", id, err)
	}
	obj, _ := body.(document.Object)
	doc, err := s.registry.Restore(kind, stored.SchemaVersion, obj)
	if err != nil {
		slog.Warn("Stored document no longer validates", "documentId", id, "error", err)
		return schema.ValidatedDocument{}, err
	}
	return doc, nil
}

func (s *FirestoreStore) PutCompositeRecord(ctx context.Context, owner string, rec *merge.CompositeRecord) error {
	data, _ := document.ToAny(rec.Flatten()).(map[string]any)
	if _, err := s.client.Collection(RecordsCollection).Doc(owner).Set(ctx, data); err != nil {
		return fmt.Errorf("failed to write composite record of %s: %w", owner, err)
	}
	return nil
}

func (s *FirestoreStore) GetCompositeRecord(ctx context.Context, owner string) (*merge.CompositeRecord, error) {
	snap, err := s.client.Collection(RecordsCollection).Doc(owner).Get(ctx)
	if err != nil {
		return nil, translate(err, "composite record of "+owner)
	}
	flat, err := document.FromAny(snap.Data())
	if err != nil {
		return nil, fmt.Errorf("failed to convert composite record of %s: %w", owner, err)
	}
	obj, _ := flat.(document.Object)
	return merge.ParseRecord(obj)
}

func (s *FirestoreStore) GetCompletion(ctx context.Context, id string) (*models.CompletionEvent, error) {
	snap, err := s.client.Collection(CompletionsCollection).Doc(id).Get(ctx)
	if err != nil {
		return nil, translate(err, "completion "+id)
	}
	var ev models.CompletionEvent
	if err := snap.DataTo(&ev); err != nil {
		return nil, fmt.Errorf("failed to decode completion %s: %w", id, err)
	}
	ev.ID = snap.Ref.ID
	return &ev, nil
}

// CreateCompletion relies on Firestore's create-if-absent semantics, so two concurrent
// writers of the same event cannot both succeed.
func (s *FirestoreStore) CreateCompletion(ctx context.Context, ev *models.CompletionEvent) error {
	if _, err := s.client.Collection(CompletionsCollection).Doc(ev.ID).Create(ctx, ev); err != nil {
		return translate(err, "completion "+ev.ID)
	}
	return nil
}

// UpdateCompletion replaces the event inside a transaction, and only while the stored
// status is still prevStatus.
func (s *FirestoreStore) UpdateCompletion(ctx context.Context, ev *models.CompletionEvent, prevStatus string) error {
	ref := s.client.Collection(CompletionsCollection).Doc(ev.ID)
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			return err
		}
		var current models.CompletionEvent
		if err := snap.DataTo(&current); err != nil {
			return fmt.Errorf("failed to decode completion %s: %w", ev.ID, err)
		}
		if current.Status != prevStatus {
			return fmt.Errorf("completion %s is %s, not %s: %w", ev.ID, current.Status, prevStatus, ErrConflict)
		}
		return tx.Set(ref, ev)
	})
	if err == nil || errors.Is(err, ErrConflict) {
		return err
	}
	return translate(err, "completion "+ev.ID)
}

func (s *FirestoreStore) ListCompletions(ctx context.Context, ownerID, planID string) ([]*models.CompletionEvent, error) {
	iter := s.client.Collection(CompletionsCollection).
		Where("ownerId", "==", ownerID).
		Where("planId", "==", planID).
		Documents(ctx)
	defer iter.Stop()

	var out []*models.CompletionEvent
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list completions: %w", err)
		}
		var ev models.CompletionEvent
		if err := snap.DataTo(&ev); err != nil {
			return nil, fmt.Errorf("failed to decode completion %s: %w", snap.Ref.ID, err)
		}
		ev.ID = snap.Ref.ID
		out = append(out, &ev)
	}
	return out, nil
}

// translate maps gRPC status codes onto the package sentinels.
func translate(err error, what string) error {
	switch status.Code(err) {
	case codes.NotFound:
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	case codes.AlreadyExists, codes.Aborted, codes.FailedPrecondition:
		return fmt.Errorf("%s: %w", what, ErrConflict)
	}
	return fmt.Errorf("failed to access %s: %w", what, err)
}
