package utils

import (
	"errors"
	"testing"
	"time"
)

func TestRetryRecoversAfterFailures(t *testing.T) {
	r := &RetryConfig{MaxAttempts: 3, BaseDelay: time.Millisecond, Logger: NewLogger()}

	attempts := 0
	err := r.Do("flaky op", func() error {
		attempts++
		if attempts < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if attempts != 3 {
		t.Errorf("attempts: got %d, want 3", attempts)
	}
}

func TestRetryGivesUpAfterMaxAttempts(t *testing.T) {
	r := &RetryConfig{MaxAttempts: 2, BaseDelay: time.Millisecond, Logger: NewLogger()}

	sentinel := errors.New("hard failure")
	attempts := 0
	err := r.Do("doomed op", func() error {
		attempts++
		return sentinel
	})
	if attempts != 2 {
		t.Errorf("attempts: got %d, want 2", attempts)
	}
	if !errors.Is(err, sentinel) {
		t.Errorf("error must wrap the last failure, got %v", err)
	}
}
