package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name               string
		documentsPerSecond float64
		expectUnlimited    bool
	}{
		{
			name:               "unlimited_zero",
			documentsPerSecond: 0,
			expectUnlimited:    true,
		},
		{
			name:               "unlimited_negative",
			documentsPerSecond: -1,
			expectUnlimited:    true,
		},
		{
			name:               "limited_one_per_second",
			documentsPerSecond: 1,
			expectUnlimited:    false,
		},
		{
			name:               "limited_fractional",
			documentsPerSecond: 0.5,
			expectUnlimited:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			limiter := New(tt.documentsPerSecond)
			if limiter == nil {
				t.Fatal("New() returned nil")
			}

			limit := limiter.Limit()
			if tt.expectUnlimited {
				if limit != 0 {
					t.Errorf("Limit() = %f, want 0 (unlimited)", limit)
				}
			} else if limit != tt.documentsPerSecond {
				t.Errorf("Limit() = %f, want %f", limit, tt.documentsPerSecond)
			}
		})
	}
}

func TestLimiter_Allow(t *testing.T) {
	t.Run("unlimited_allows_all", func(t *testing.T) {
		limiter := New(0)

		for i := range 10 {
			if !limiter.Allow() {
				t.Errorf("unlimited limiter denied document %d", i)
			}
		}
	})

	t.Run("limited_respects_rate", func(t *testing.T) {
		limiter := New(1)

		if !limiter.Allow() {
			t.Error("first document should be allowed")
		}
		if limiter.Allow() {
			t.Error("second immediate document should be denied")
		}
	})
}

func TestLimiter_Wait(t *testing.T) {
	t.Run("unlimited_no_wait", func(t *testing.T) {
		limiter := New(0)

		start := time.Now()
		if err := limiter.Wait(context.Background()); err != nil {
			t.Errorf("Wait() failed: %v", err)
		}
		if duration := time.Since(start); duration > 10*time.Millisecond {
			t.Errorf("unlimited limiter took too long: %v", duration)
		}
	})

	t.Run("context_cancellation", func(t *testing.T) {
		limiter := New(1)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()

		// use up the immediate token
		if err := limiter.Wait(context.Background()); err != nil {
			t.Errorf("first Wait() failed: %v", err)
		}

		if err := limiter.Wait(ctx); err == nil {
			t.Error("expected context cancellation error")
		}
	})
}
