package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lllllllleong/ecoaction/internal/document"
	"github.com/Lllllllleong/ecoaction/internal/merge"
	"github.com/Lllllllleong/ecoaction/internal/models"
	"github.com/Lllllllleong/ecoaction/internal/schema"
	"github.com/Lllllllleong/ecoaction/internal/schema/schematest"
	"github.com/Lllllllleong/ecoaction/internal/store"
)

var _ store.Store = (*store.MemoryStore)(nil)
var _ store.Store = (*store.FirestoreStore)(nil)

func validated(t *testing.T, kind schema.Kind, body document.Object) schema.ValidatedDocument {
	t.Helper()
	doc, err := schema.DefaultRegistry().Validate(body, kind)
	require.NoError(t, err)
	return doc
}

func TestMemoryStore_Documents(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()

	_, err := s.GetValidatedDocument(ctx, "u1", schema.KindProfile)
	assert.ErrorIs(t, err, store.ErrNotFound)

	profile := validated(t, schema.KindProfile, schematest.Profile())
	require.NoError(t, s.PutValidatedDocument(ctx, "u1", profile))

	got, err := s.GetValidatedDocument(ctx, "u1", schema.KindProfile)
	require.NoError(t, err)
	assert.Equal(t, schema.KindProfile, got.Kind())
	assert.True(t, document.Equal(profile.Body(), got.Body()))

	_, err = s.GetValidatedDocument(ctx, "u2", schema.KindProfile)
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.GetValidatedDocument(ctx, "u1", schema.KindFootprintAnalysis)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestMemoryStore_RejectsZeroDocument(t *testing.T) {
	err := store.NewMemoryStore().PutValidatedDocument(context.Background(), "u1", schema.ValidatedDocument{})
	assert.Error(t, err)
}

func TestMemoryStore_CompositeRecords(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()

	_, err := s.GetCompositeRecord(ctx, "u1")
	assert.ErrorIs(t, err, store.ErrNotFound)

	m := merge.New(merge.WithClock(func() time.Time {
		return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	}))
	rec := m.Merge(
		validated(t, schema.KindProfile, schematest.Profile()),
		validated(t, schema.KindFootprintAnalysis, schematest.Analysis()),
		"u1",
	)
	require.NoError(t, s.PutCompositeRecord(ctx, "u1", rec))

	got, err := s.GetCompositeRecord(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, rec.OwnerID, got.OwnerID)
	assert.True(t, rec.GeneratedAt.Equal(got.GeneratedAt))
	assert.Equal(t, rec.Sources, got.Sources)
	assert.True(t, document.Equal(rec.Fields, got.Fields))
}

func TestMemoryStore_Completions(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	at := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	ev := &models.CompletionEvent{ID: "e1", OwnerID: "u1", PlanID: "p1", ItemID: "challenge_2", Status: "completed", RecordedAt: at}
	require.NoError(t, s.CreateCompletion(ctx, ev))
	assert.ErrorIs(t, s.CreateCompletion(ctx, ev), store.ErrConflict)

	other := &models.CompletionEvent{ID: "e2", OwnerID: "u1", PlanID: "p1", ItemID: "challenge_1", Status: "skipped", RecordedAt: at}
	require.NoError(t, s.CreateCompletion(ctx, other))
	require.NoError(t, s.CreateCompletion(ctx, &models.CompletionEvent{ID: "e3", OwnerID: "u1", PlanID: "p2", ItemID: "challenge_1"}))

	listed, err := s.ListCompletions(ctx, "u1", "p1")
	require.NoError(t, err)
	var items []string
	for _, e := range listed {
		items = append(items, e.ItemID)
	}
	if diff := cmp.Diff([]string{"challenge_1", "challenge_2"}, items); diff != "" {
		t.Errorf("ListCompletions() mismatch (-want +got):\n%s", diff)
	}

	other.Status = "completed"
	assert.ErrorIs(t, s.UpdateCompletion(ctx, other, "in_progress"), store.ErrConflict)
	require.NoError(t, s.UpdateCompletion(ctx, other, "skipped"))
	assert.ErrorIs(t, s.UpdateCompletion(ctx, other, "skipped"), store.ErrConflict, "status already moved on")
	assert.ErrorIs(t, s.UpdateCompletion(ctx, &models.CompletionEvent{ID: "missing"}, ""), store.ErrNotFound)
	got, err := s.GetCompletion(ctx, "e2")
	require.NoError(t, err)
	assert.Equal(t, "completed", got.Status)

	// Returned events are copies.
	got.Status = "mutated"
	again, err := s.GetCompletion(ctx, "e2")
	require.NoError(t, err)
	assert.Equal(t, "completed", again.Status)

	_, err = s.GetCompletion(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}
