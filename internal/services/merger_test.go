package services

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lllllllleong/ecoaction/internal/merge"
	"github.com/Lllllllleong/ecoaction/internal/models"
	"github.com/Lllllllleong/ecoaction/internal/schema"
	"github.com/Lllllllleong/ecoaction/internal/schema/schematest"
	"github.com/Lllllllleong/ecoaction/internal/store"
)

func seed(t *testing.T, s *store.MemoryStore, owner string, kind schema.Kind) {
	t.Helper()
	body := schematest.Profile()
	if kind == schema.KindFootprintAnalysis {
		body = schematest.Analysis()
	}
	doc, err := schema.DefaultRegistry().Validate(body, kind)
	require.NoError(t, err)
	require.NoError(t, s.PutValidatedDocument(context.Background(), owner, doc))
}

func TestMerger_Process(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	seed(t, s, "u1", schema.KindProfile)
	seed(t, s, "u1", schema.KindFootprintAnalysis)
	f := &MergerFunction{store: s, merger: merge.New()}

	resp, err := f.Process(ctx, &models.MergeRequest{OwnerID: "u1", ExecutionID: "exec-1"})
	require.NoError(t, err)
	assert.Equal(t, "success", resp.Status)

	stored, err := s.GetCompositeRecord(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1", stored.OwnerID)
	assert.Equal(t, []string{"profile", "footprint_analysis"}, stored.Sources)

	encoded, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.Contains(t, string(encoded), `"owner_id":"u1"`)
}

func TestMerger_MissingDocument(t *testing.T) {
	s := store.NewMemoryStore()
	seed(t, s, "u1", schema.KindProfile)
	f := &MergerFunction{store: s, merger: merge.New()}

	_, err := f.Process(context.Background(), &models.MergeRequest{OwnerID: "u1"})
	assert.ErrorIs(t, err, ErrMissingDocument)

	_, err = s.GetCompositeRecord(context.Background(), "u1")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestMerger_RequiresOwner(t *testing.T) {
	f := &MergerFunction{store: store.NewMemoryStore(), merger: merge.New()}
	_, err := f.Process(context.Background(), &models.MergeRequest{})
	assert.ErrorIs(t, err, ErrBadRequest)
}
