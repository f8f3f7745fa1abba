package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func testConfig(maxRetries int) *RetryConfig {
	return &RetryConfig{
		MaxRetries:    maxRetries,
		InitialDelay:  10 * time.Millisecond,
		MaxDelay:      100 * time.Millisecond,
		BackoffFactor: 2.0,
		Jitter:        false,
	}
}

func TestRetryExecutor_SuccessOnFirstAttempt(t *testing.T) {
	ctx := context.Background()
	executor := NewRetryExecutor(testConfig(3))
	callCount := 0

	err := executor.Execute(ctx, func(ctx context.Context) error {
		callCount++
		return nil
	})
	if err != nil {
		t.Errorf("Expected no error, got: %v", err)
	}

	if callCount != 1 {
		t.Errorf("Expected 1 call, got: %d", callCount)
	}
}

func TestRetryExecutor_SuccessAfterRetries(t *testing.T) {
	ctx := context.Background()
	executor := NewRetryExecutor(testConfig(3))
	callCount := 0

	err := executor.Execute(ctx, func(ctx context.Context) error {
		callCount++
		if callCount < 3 {
			return errors.New("temporary error")
		}
		return nil
	})
	if err != nil {
		t.Errorf("Expected no error, got: %v", err)
	}

	if callCount != 3 {
		t.Errorf("Expected 3 calls, got: %d", callCount)
	}
}

func TestRetryExecutor_FailureAfterMaxRetries(t *testing.T) {
	ctx := context.Background()
	executor := NewRetryExecutor(testConfig(2))
	callCount := 0

	err := executor.Execute(ctx, func(ctx context.Context) error {
		callCount++
		return errors.New("timeout")
	})

	if err == nil {
		t.Error("Expected error, got nil")
	}

	if callCount != 3 { // Initial attempt + 2 retries
		t.Errorf("Expected 3 calls, got: %d", callCount)
	}

	expectedMsg := "operation failed after 2 retries"
	if err.Error() != expectedMsg+": timeout" {
		t.Errorf("Expected error message to contain '%s', got: %v", expectedMsg, err)
	}
}

func TestRetryExecutor_NonRetryableError(t *testing.T) {
	ctx := context.Background()
	executor := NewRetryExecutor(testConfig(3))
	callCount := 0

	err := executor.Execute(ctx, func(ctx context.Context) error {
		callCount++
		return errors.New("validation error")
	})

	if err == nil {
		t.Error("Expected error, got nil")
	}

	if callCount != 1 {
		t.Errorf("Expected 1 call, got: %d", callCount)
	}
}

func TestRetryExecutor_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	executor := NewRetryExecutor(&RetryConfig{
		MaxRetries:    5,
		InitialDelay:  50 * time.Millisecond,
		MaxDelay:      time.Second,
		BackoffFactor: 2.0,
		Jitter:        false,
	})

	callCount := 0
	err := executor.Execute(ctx, func(ctx context.Context) error {
		callCount++
		cancel()
		return errors.New("timeout")
	})

	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got: %v", err)
	}

	if callCount != 1 {
		t.Errorf("Expected 1 call before cancellation, got: %d", callCount)
	}
}

func TestDefaultRetryableChecker(t *testing.T) {
	checker := &DefaultRetryableChecker{}

	tests := []struct {
		name      string
		err       error
		retryable bool
	}{
		{"nil error", nil, false},
		{"connection refused", errors.New("dial tcp: connection refused"), true},
		{"timeout", errors.New("request timeout"), true},
		{"rate limited", errors.New("webhook rate limited"), true},
		{"bad gateway", errors.New("unexpected status 502"), true},
		{"service unavailable", errors.New("unexpected status 503"), true},
		{"validation", errors.New("invalid payload"), false},
		{"not found", errors.New("resource not found"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := checker.IsRetryable(tt.err); got != tt.retryable {
				t.Errorf("IsRetryable(%v) = %v, want %v", tt.err, got, tt.retryable)
			}
		})
	}
}

func TestWithRetry_UsesDefaults(t *testing.T) {
	ctx := context.Background()
	callCount := 0

	err := WithRetry(ctx, func(ctx context.Context) error {
		callCount++
		if callCount < 2 {
			return errors.New("connection reset")
		}
		return nil
	})
	if err != nil {
		t.Errorf("Expected no error, got: %v", err)
	}

	if callCount != 2 {
		t.Errorf("Expected 2 calls, got: %d", callCount)
	}
}
