package helpers

import (
	"errors"
	"testing"
	"time"
)

// -----------------------------------------------------------------------------

func TestErrorWrapping(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewNavigationError("failed to load page", cause)

	if !errors.Is(err, cause) {
		t.Errorf("expected the cause to be reachable via errors.Is")
	}
	if err.Error() != "failed to load page: connection refused" {
		t.Errorf("unexpected message: %s", err.Error())
	}

	bare := NewExtractionError("no rows", nil)
	if bare.Error() != "no rows" {
		t.Errorf("unexpected message without cause: %s", bare.Error())
	}
}

// -----------------------------------------------------------------------------

func TestRetryWithBackoffSucceedsAfterFailures(t *testing.T) {
	attempts := 0
	res, err := RetryWithBackoff("flaky op", 3, time.Millisecond, func() (interface{}, error) {
		attempts++
		if attempts < 3 {
			return nil, errors.New("transient")
		}
		return "done", nil
	})
	if err != nil {
		t.Fatalf("expected success on third attempt: %v", err)
	}
	if res != "done" {
		t.Errorf("unexpected result: %v", res)
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
}

// -----------------------------------------------------------------------------

func TestRetryWithBackoffGivesUp(t *testing.T) {
	attempts := 0
	final := errors.New("still broken")
	_, err := RetryWithBackoff("doomed op", 2, time.Millisecond, func() (interface{}, error) {
		attempts++
		return nil, final
	})
	if err != final {
		t.Errorf("expected the last error back, got %v", err)
	}
	if attempts != 2 {
		t.Errorf("expected 2 attempts, got %d", attempts)
	}
}
