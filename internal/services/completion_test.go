package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lllllllleong/ecoaction/internal/ledger"
	"github.com/Lllllllleong/ecoaction/internal/models"
	"github.com/Lllllllleong/ecoaction/internal/store"
)

func newCompletionFixture() *CompletionFunction {
	return &CompletionFunction{
		ledger: ledger.New(store.NewMemoryStore()),
		config: CompletionConfig{UnlockThreshold: 2},
	}
}

func TestCompletion_RecordIsIdempotent(t *testing.T) {
	f := newCompletionFixture()
	ctx := context.Background()
	req := &models.CompletionRequest{OwnerID: "u1", PlanID: "week-1", ItemID: "challenge_1"}

	first, err := f.Record(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "created", first.Outcome)

	second, err := f.Record(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "already_recorded", second.Outcome)
	assert.Equal(t, first.EventID, second.EventID)
}

func TestCompletion_Progress(t *testing.T) {
	f := newCompletionFixture()
	ctx := context.Background()

	empty, err := f.Progress(ctx, &models.ProgressRequest{OwnerID: "u1", PlanID: "week-1", Total: 6})
	require.NoError(t, err)
	assert.Equal(t, []string{}, empty.CompletedItems)
	assert.False(t, empty.Unlocked)

	for _, item := range []string{"challenge_1", "challenge_4"} {
		_, err := f.Record(ctx, &models.CompletionRequest{OwnerID: "u1", PlanID: "week-1", ItemID: item})
		require.NoError(t, err)
	}
	got, err := f.Progress(ctx, &models.ProgressRequest{OwnerID: "u1", PlanID: "week-1", Total: 6})
	require.NoError(t, err)
	assert.Equal(t, &models.ProgressResponse{
		Completed:      2,
		Total:          6,
		Threshold:      2,
		Unlocked:       true,
		CompletedItems: []string{"challenge_1", "challenge_4"},
	}, got)
}

func TestCompletion_BadRequests(t *testing.T) {
	f := newCompletionFixture()
	ctx := context.Background()

	_, err := f.Record(ctx, &models.CompletionRequest{OwnerID: "u1", PlanID: "week-1"})
	assert.ErrorIs(t, err, ErrBadRequest)

	_, err = f.Progress(ctx, &models.ProgressRequest{OwnerID: "u1"})
	assert.ErrorIs(t, err, ErrBadRequest)

	_, err = f.Progress(ctx, &models.ProgressRequest{OwnerID: "u1", PlanID: "week-1", Total: -1})
	assert.ErrorIs(t, err, ErrBadRequest)
}
