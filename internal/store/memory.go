package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/Lllllllleong/ecoaction/internal/document"
	"github.com/Lllllllleong/ecoaction/internal/merge"
	"github.com/Lllllllleong/ecoaction/internal/models"
	"github.com/Lllllllleong/ecoaction/internal/schema"
)

// MemoryStore keeps everything in process memory. It backs tests and the local CLI.
type MemoryStore struct {
	mu      sync.RWMutex
	docs    map[string]schema.ValidatedDocument
	records map[string]document.Object
	events  map[string]models.CompletionEvent
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		docs:    map[string]schema.ValidatedDocument{},
		records: map[string]document.Object{},
		events:  map[string]models.CompletionEvent{},
	}
}

func (s *MemoryStore) PutValidatedDocument(_ context.Context, owner string, doc schema.ValidatedDocument) error {
	if doc.IsZero() {
		return fmt.Errorf("refusing to store an unvalidated document")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[documentID(owner, doc.Kind())] = doc
	return nil
}

func (s *MemoryStore) GetValidatedDocument(_ context.Context, owner string, kind schema.Kind) (schema.ValidatedDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[documentID(owner, kind)]
	if !ok {
		return schema.ValidatedDocument{}, fmt.Errorf("%s document of %s: %w", kind, owner, ErrNotFound)
	}
	return doc, nil
}

func (s *MemoryStore) PutCompositeRecord(_ context.Context, owner string, rec *merge.CompositeRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[owner] = rec.Flatten()
	return nil
}

func (s *MemoryStore) GetCompositeRecord(_ context.Context, owner string) (*merge.CompositeRecord, error) {
	s.mu.RLock()
	flat, ok := s.records[owner]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("composite record of %s: %w", owner, ErrNotFound)
	}
	return merge.ParseRecord(flat)
}

func (s *MemoryStore) GetCompletion(_ context.Context, id string) (*models.CompletionEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ev, ok := s.events[id]
	if !ok {
		return nil, fmt.Errorf("completion %s: %w", id, ErrNotFound)
	}
	return &ev, nil
}

func (s *MemoryStore) CreateCompletion(_ context.Context, ev *models.CompletionEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.events[ev.ID]; exists {
		return fmt.Errorf("completion %s: %w", ev.ID, ErrConflict)
	}
	s.events[ev.ID] = *ev
	return nil
}

func (s *MemoryStore) UpdateCompletion(_ context.Context, ev *models.CompletionEvent, prevStatus string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.events[ev.ID]
	if !ok {
		return fmt.Errorf("completion %s: %w", ev.ID, ErrNotFound)
	}
	if current.Status != prevStatus {
		return fmt.Errorf("completion %s is %s, not %s: %w", ev.ID, current.Status, prevStatus, ErrConflict)
	}
	s.events[ev.ID] = *ev
	return nil
}

func (s *MemoryStore) ListCompletions(_ context.Context, ownerID, planID string) ([]*models.CompletionEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.CompletionEvent
	for _, ev := range s.events {
		if ev.OwnerID == ownerID && ev.PlanID == planID {
			ev := ev
			out = append(out, &ev)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ItemID < out[j].ItemID })
	return out, nil
}
