package circuitbreaker

import (
	"context"
	"errors"
	"testing"
	"time"
)

func testConfig() Config {
	return Config{
		FailureThreshold:    3,
		SuccessThreshold:    2,
		Timeout:             20 * time.Millisecond,
		MaxRequestsHalfOpen: 2,
	}
}

func TestCircuitBreaker_OpensAfterThreshold(t *testing.T) {
	cb := New(testConfig())
	boom := errors.New("boom")

	for i := 0; i < 3; i++ {
		_ = cb.Execute(context.Background(), func() error { return boom })
	}

	if cb.State() != StateOpen {
		t.Fatalf("state = %v, want open", cb.State())
	}

	// Rejected without invoking fn.
	called := false
	err := cb.Execute(context.Background(), func() error {
		called = true
		return nil
	})
	if err == nil {
		t.Fatal("expected rejection error")
	}
	if called {
		t.Error("fn should not run while circuit is open")
	}
}

func TestCircuitBreaker_RecoversThroughHalfOpen(t *testing.T) {
	cb := New(testConfig())
	boom := errors.New("boom")

	for i := 0; i < 3; i++ {
		_ = cb.Execute(context.Background(), func() error { return boom })
	}

	time.Sleep(25 * time.Millisecond)

	// Two successes in half-open close the circuit.
	for i := 0; i < 2; i++ {
		if err := cb.Execute(context.Background(), func() error { return nil }); err != nil {
			t.Fatalf("probe %d failed: %v", i, err)
		}
	}

	if cb.State() != StateClosed {
		t.Fatalf("state = %v, want closed", cb.State())
	}
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	cb := New(testConfig())
	boom := errors.New("boom")

	for i := 0; i < 3; i++ {
		_ = cb.Execute(context.Background(), func() error { return boom })
	}

	time.Sleep(25 * time.Millisecond)

	_ = cb.Execute(context.Background(), func() error { return boom })

	if cb.State() != StateOpen {
		t.Fatalf("state = %v, want open", cb.State())
	}
}

func TestCircuitBreaker_Reset(t *testing.T) {
	cb := New(testConfig())
	boom := errors.New("boom")

	for i := 0; i < 3; i++ {
		_ = cb.Execute(context.Background(), func() error { return boom })
	}

	cb.Reset()
	if cb.State() != StateClosed {
		t.Fatalf("state = %v, want closed after reset", cb.State())
	}
}
