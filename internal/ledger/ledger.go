// Package ledger records per-item completion events idempotently.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/Lllllllleong/ecoaction/internal/models"
	"github.com/Lllllllleong/ecoaction/internal/store"
)

// StatusCompleted is the status that marks an item done. A completed event is never
// replaced.
const StatusCompleted = "completed"

// Outcome says whether Record wrote a new event.
type Outcome int

const (
	Created Outcome = iota + 1
	AlreadyRecorded
)

func (o Outcome) String() string {
	switch o {
	case Created:
		return "created"
	case AlreadyRecorded:
		return "already_recorded"
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// eventNamespace scopes completion event ids.
var eventNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("urn:ecoaction:completion-event"))

// Key identifies the single event allowed per owner, plan and item.
type Key struct {
	OwnerID string
	PlanID  string
	ItemID  string
}

// EventID is the deterministic id of the event for k.
func (k Key) EventID() string {
	name := k.OwnerID + "\x00" + k.PlanID + "\x00" + k.ItemID
	return uuid.NewSHA1(eventNamespace, []byte(name)).String()
}

// Store is the persistence the ledger needs. CreateCompletion must fail with
// store.ErrConflict when an event with the same id exists, and GetCompletion with
// store.ErrNotFound when none does. UpdateCompletion replaces an event only while its
// stored status equals prevStatus and fails with store.ErrConflict otherwise.
type Store interface {
	GetCompletion(ctx context.Context, id string) (*models.CompletionEvent, error)
	CreateCompletion(ctx context.Context, ev *models.CompletionEvent) error
	UpdateCompletion(ctx context.Context, ev *models.CompletionEvent, prevStatus string) error
	ListCompletions(ctx context.Context, ownerID, planID string) ([]*models.CompletionEvent, error)
}

// Ledger records completion events on top of a Store.
type Ledger struct {
	store Store
	now   func() time.Time
}

type Option func(*Ledger)

// WithClock sets the source of RecordedAt.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

func New(s Store, opts ...Option) *Ledger {
	l := &Ledger{store: s, now: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// maxAttempts bounds how often Record re-reads an event after losing a write race.
const maxAttempts = 3

// Record stores the event for (owner, planID, itemID) unless an equivalent one exists.
// An existing completed event, or one with the same status, makes the call a no-op that
// returns AlreadyRecorded. A write that keeps losing to concurrent writers is reported
// the same way.
func (l *Ledger) Record(ctx context.Context, owner, planID, itemID, status, note string) (Outcome, error) {
	if owner == "" || planID == "" || itemID == "" {
		return 0, fmt.Errorf("owner, plan and item ids are required")
	}
	if status == "" {
		status = StatusCompleted
	}
	key := Key{OwnerID: owner, PlanID: planID, ItemID: itemID}
	id := key.EventID()

	for attempt := 0; attempt < maxAttempts; attempt++ {
		ev := &models.CompletionEvent{
			ID:         id,
			OwnerID:    owner,
			PlanID:     planID,
			ItemID:     itemID,
			Status:     status,
			Note:       note,
			RecordedAt: l.now().UTC(),
		}
		outcome, err := l.write(ctx, ev)
		if errors.Is(err, store.ErrConflict) || errors.Is(err, store.ErrNotFound) {
			continue
		}
		return outcome, err
	}
	return AlreadyRecorded, nil
}

// write makes one attempt at storing ev. A store.ErrConflict or store.ErrNotFound result
// means a concurrent writer changed the event since it was read.
func (l *Ledger) write(ctx context.Context, ev *models.CompletionEvent) (Outcome, error) {
	existing, err := l.store.GetCompletion(ctx, ev.ID)
	switch {
	case err == nil:
		if existing.Status == StatusCompleted || existing.Status == ev.Status {
			return AlreadyRecorded, nil
		}
		if err := l.store.UpdateCompletion(ctx, ev, existing.Status); err != nil {
			if errors.Is(err, store.ErrConflict) || errors.Is(err, store.ErrNotFound) {
				return 0, err
			}
			return 0, fmt.Errorf("failed to update completion %s: %w", ev.ID, err)
		}
		return Created, nil
	case errors.Is(err, store.ErrNotFound):
	default:
		return 0, fmt.Errorf("failed to look up completion %s: %w", ev.ID, err)
	}

	if err := l.store.CreateCompletion(ctx, ev); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return 0, err
		}
		return 0, fmt.Errorf("failed to create completion %s: %w", ev.ID, err)
	}
	return Created, nil
}

// Completed returns the sorted ids of the items of planID that owner completed.
func (l *Ledger) Completed(ctx context.Context, owner, planID string) ([]string, error) {
	events, err := l.store.ListCompletions(ctx, owner, planID)
	if err != nil {
		return nil, fmt.Errorf("failed to list completions: %w", err)
	}
	seen := map[string]bool{}
	var items []string
	for _, ev := range events {
		if ev.Status != StatusCompleted || seen[ev.ItemID] {
			continue
		}
		seen[ev.ItemID] = true
		items = append(items, ev.ItemID)
	}
	sort.Strings(items)
	return items, nil
}

// Progress is the completion count of a plan against an unlock threshold.
type Progress struct {
	Completed int
	Total     int
	Threshold int
	Unlocked  bool
	Items     []string
}

// Progress counts the completed items of planID. The plan is unlocked, which grants the
// owner a new batch of daily tasks, once threshold items are complete.
func (l *Ledger) Progress(ctx context.Context, owner, planID string, total, threshold int) (Progress, error) {
	items, err := l.Completed(ctx, owner, planID)
	if err != nil {
		return Progress{}, err
	}
	return Progress{
		Completed: len(items),
		Total:     total,
		Threshold: threshold,
		Unlocked:  threshold > 0 && len(items) >= threshold,
		Items:     items,
	}, nil
}
