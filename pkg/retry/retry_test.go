package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fastConfig() Config {
	return Config{
		Enabled:      true,
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2.0,
	}
}

func TestRetry_SucceedsAfterFailures(t *testing.T) {
	attempts := 0
	err := Retry(context.Background(), fastConfig(), func() error {
		attempts++
		if attempts < 3 {
			return errors.New("transient")
		}
		return nil
	})

	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestRetry_ExhaustsAttempts(t *testing.T) {
	boom := errors.New("boom")
	attempts := 0
	err := Retry(context.Background(), fastConfig(), func() error {
		attempts++
		return boom
	})

	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped boom, got %v", err)
	}
	// MaxAttempts retries after the initial attempt.
	if attempts != 4 {
		t.Errorf("attempts = %d, want 4", attempts)
	}
}

func TestRetry_NonRetryableStopsImmediately(t *testing.T) {
	fatal := errors.New("fatal")
	cfg := fastConfig()
	cfg.NonRetryableErrors = []error{fatal}

	attempts := 0
	err := Retry(context.Background(), cfg, func() error {
		attempts++
		return fatal
	})

	if !errors.Is(err, fatal) {
		t.Fatalf("expected fatal, got %v", err)
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1", attempts)
	}
}

func TestRetry_Disabled(t *testing.T) {
	cfg := fastConfig()
	cfg.Enabled = false

	attempts := 0
	_ = Retry(context.Background(), cfg, func() error {
		attempts++
		return errors.New("x")
	})

	if attempts != 1 {
		t.Errorf("attempts = %d, want 1", attempts)
	}
}

func TestRetry_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Retry(ctx, fastConfig(), func() error {
		return errors.New("never retried")
	})

	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
