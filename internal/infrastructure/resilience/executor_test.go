package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
)

func fastConfig() Config {
	return Config{
		RetryMaxAttempts:    3,
		RetryInitialBackoff: time.Millisecond,
		RetryMaxBackoff:     2 * time.Millisecond,
		RetryMultiplier:     2,
		BreakerEnabled:      false,
	}
}

func TestQueryRetriesTemporaryFailureAndReturnsValue(t *testing.T) {
	exec := NewExecutor(fastConfig())

	attempts := 0
	errTemp := errors.New("temporary")
	got, err := Query(context.Background(), exec, "processes.list", func(context.Context) ([]string, error) {
		attempts++
		if attempts < 3 {
			return nil, errTemp
		}
		return []string{"a", "b"}, nil
	}, func(err error) ErrorClassification {
		return ErrorClassification{Retryable: errors.Is(err, errTemp), RecordFailure: true}
	})
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if attempts != 3 || len(got) != 2 {
		t.Fatalf("expected 3 attempts and 2 values, got attempts=%d values=%v", attempts, got)
	}
}

func TestExecuteDoesNotRetryPermanentFailure(t *testing.T) {
	exec := NewExecutor(fastConfig())

	attempts := 0
	errPermanent := errors.New("permanent")
	err := exec.Execute(context.Background(), "op", func(context.Context) error {
		attempts++
		return errPermanent
	}, func(error) ErrorClassification {
		return ErrorClassification{}
	})
	if !errors.Is(err, errPermanent) {
		t.Fatalf("expected permanent error, got %v", err)
	}
	if attempts != 1 {
		t.Fatalf("expected 1 attempt, got %d", attempts)
	}
}

func TestExecuteStopsOnCancelledContext(t *testing.T) {
	exec := NewExecutor(fastConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := exec.Execute(ctx, "op", func(context.Context) error {
		called = true
		return nil
	}, nil)
	if !IsContextError(err) {
		t.Fatalf("expected context error, got %v", err)
	}
	if called {
		t.Fatalf("operation must not run with a cancelled context")
	}
}

func TestQueryWithNilExecutorRunsOnce(t *testing.T) {
	calls := 0
	got, err := Query(context.Background(), nil, "op", func(context.Context) (int, error) {
		calls++
		return 7, nil
	}, nil)
	if err != nil || got != 7 || calls != 1 {
		t.Fatalf("Query(nil) = %d, %v after %d calls", got, err, calls)
	}
}

func TestExecuteOpensCircuitAfterFailures(t *testing.T) {
	var states []string
	exec := NewExecutor(Config{
		RetryMaxAttempts:        1,
		RetryInitialBackoff:     time.Millisecond,
		RetryMaxBackoff:         time.Millisecond,
		RetryMultiplier:         2,
		BreakerEnabled:          true,
		BreakerMinRequests:      2,
		BreakerFailureRatio:     0.5,
		BreakerOpenTimeout:      50 * time.Millisecond,
		BreakerHalfOpenMaxCalls: 1,
		OnStateChange: func(_, state string) {
			states = append(states, state)
		},
	})

	errTemp := errors.New("temporary")
	classifier := func(error) ErrorClassification {
		return ErrorClassification{Retryable: false, RecordFailure: true}
	}

	for i := 0; i < 2; i++ {
		err := exec.Execute(context.Background(), "op", func(context.Context) error {
			return errTemp
		}, classifier)
		if !errors.Is(err, errTemp) {
			t.Fatalf("expected temporary error on iteration %d, got %v", i, err)
		}
	}

	err := exec.Execute(context.Background(), "op", func(context.Context) error {
		t.Fatalf("circuit should be open and must not call operation")
		return nil
	}, classifier)
	if !errors.Is(err, gobreaker.ErrOpenState) || !IsCircuitOpen(err) {
		t.Fatalf("expected open state error, got %v", err)
	}
	if len(states) != 1 || states[0] != gobreaker.StateOpen.String() {
		t.Fatalf("expected one transition to open, got %v", states)
	}
}
