package store

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestTranslate(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"not found", status.Error(codes.NotFound, "no document"), ErrNotFound},
		{"already exists", status.Error(codes.AlreadyExists, "document exists"), ErrConflict},
		{"aborted transaction", status.Error(codes.Aborted, "contention"), ErrConflict},
		{"failed precondition", status.Error(codes.FailedPrecondition, "stale"), ErrConflict},
		{"unavailable", status.Error(codes.Unavailable, "try later"), nil},
		{"plain error", errors.New("boom"), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := translate(tt.err, "completion e1")
			assert.Contains(t, got.Error(), "completion e1")
			if tt.want != nil {
				assert.ErrorIs(t, got, tt.want)
				return
			}
			assert.NotErrorIs(t, got, ErrNotFound)
			assert.NotErrorIs(t, got, ErrConflict)
			assert.ErrorIs(t, got, tt.err)
		})
	}
}
