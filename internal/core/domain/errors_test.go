package domain

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"transient", Transientf("navigate", "page load timed out"), true},
		{"structural", Structuralf("discover", "no matching target found"), false},
		{"wrapped transient", fmt.Errorf("record 100: %w", Transient("submit", errors.New("stale element"))), true},
		{"transient deadline", Transient("wait_idle", context.DeadlineExceeded), true},
		{"bare deadline", context.DeadlineExceeded, false},
		{"canceled", context.Canceled, false},
		{"canceled inside transient", Transient("navigate", context.Canceled), false},
		{"unclassified", errors.New("something odd"), false},
	}

	for _, tt := range tests {
		if got := IsRetryable(tt.err); got != tt.want {
			t.Errorf("%s: IsRetryable(%v) = %v, want %v", tt.name, tt.err, got, tt.want)
		}
	}
}

func TestOpErrorUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := Transient("submit", cause)
	if !errors.Is(err, cause) {
		t.Errorf("expected errors.Is to find the cause through OpError")
	}
}
