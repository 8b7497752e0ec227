package common

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/halverson/gearshift/internal/service"
)

func TestWithRetry(t *testing.T) {
	opts := service.RetryOptions{
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2.0,
	}

	t.Run("succeeds first try", func(t *testing.T) {
		calls := 0
		err := WithRetry(context.Background(), func() error {
			calls++
			return nil
		}, opts)
		if err != nil || calls != 1 {
			t.Errorf("err = %v, calls = %d", err, calls)
		}
	})

	t.Run("retries locked database", func(t *testing.T) {
		calls := 0
		err := WithRetry(context.Background(), func() error {
			calls++
			if calls < 3 {
				return errors.New("database is locked")
			}
			return nil
		}, opts)
		if err != nil || calls != 3 {
			t.Errorf("err = %v, calls = %d", err, calls)
		}
	})

	t.Run("does not retry other errors", func(t *testing.T) {
		calls := 0
		want := errors.New("constraint violation")
		err := WithRetry(context.Background(), func() error {
			calls++
			return want
		}, opts)
		if !errors.Is(err, want) || calls != 1 {
			t.Errorf("err = %v, calls = %d", err, calls)
		}
	})

	t.Run("gives up after max attempts", func(t *testing.T) {
		calls := 0
		err := WithRetry(context.Background(), func() error {
			calls++
			return errors.New("database is locked")
		}, opts)
		if !errors.Is(err, ErrMaxRetries) {
			t.Errorf("err = %v, want ErrMaxRetries", err)
		}
		if calls != opts.MaxAttempts {
			t.Errorf("calls = %d, want %d", calls, opts.MaxAttempts)
		}
	})

	t.Run("honors context cancellation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := WithRetry(ctx, func() error {
			return errors.New("database is locked")
		}, opts)
		if !errors.Is(err, context.Canceled) {
			t.Errorf("err = %v, want context.Canceled", err)
		}
	})
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		err  error
		name string
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "locked database", err: errors.New("database is locked"), want: true},
		{name: "locked table", err: errors.New("database table is locked"), want: true},
		{name: "wrapped locked", err: errors.New("save failed: Database Is Locked"), want: true},
		{name: "other error", err: errors.New("UNIQUE constraint failed"), want: false},
		{name: "explicit retryable", err: &RetryableError{Err: errors.New("x"), Retryable: true}, want: true},
		{name: "explicit not retryable", err: &RetryableError{Err: errors.New("database is locked"), Retryable: false}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.want {
				t.Errorf("IsRetryable() = %v, want %v", got, tt.want)
			}
		})
	}
}
