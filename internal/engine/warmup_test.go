package engine

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
)

type fakeLocker struct {
	ok  bool
	err error
}

func (f fakeLocker) AcquireWarmupLock(ctx context.Context, days int) (bool, error) {
	return f.ok, f.err
}

func TestWarmupSnapshot(t *testing.T) {
	tests := []struct {
		name      string
		locker    WarmupLocker
		wantCalls int
	}{
		{"disabled", nil, 0},
		{"lock taken", fakeLocker{ok: true}, 1},
		{"another instance", fakeLocker{ok: false}, 0},
		{"redis down", fakeLocker{err: errors.New("dial tcp: refused")}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := WarmupSnapshot(context.Background(), tt.locker, zap.NewNop(), 1, func(ctx context.Context, days int) error {
				calls++
				if days != 1 {
					t.Fatalf("unexpected days %d", days)
				}
				return nil
			})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if calls != tt.wantCalls {
				t.Fatalf("refresh called %d times, want %d", calls, tt.wantCalls)
			}
		})
	}
}
