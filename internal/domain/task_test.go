package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestTask_IsTerminal(t *testing.T) {
	tests := []struct {
		status TaskStatus
		want   bool
	}{
		{TaskActive, false},
		{TaskPendingVerification, false},
		{TaskCompleted, true},
		{TaskFailed, true},
		{TaskExpired, true},
	}
	for _, tt := range tests {
		task := Task{Status: tt.status}
		if got := task.IsTerminal(); got != tt.want {
			t.Errorf("IsTerminal(%s) = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestTask_ReclaimableAt(t *testing.T) {
	active := Task{Status: TaskActive, Deadline: 1000}
	if got := active.ReclaimableAt(); got != 1000+GracePeriod {
		t.Errorf("active ReclaimableAt = %d, want %d", got, 1000+GracePeriod)
	}

	// Marking completed before the deadline starts the window early.
	early := Task{Status: TaskPendingVerification, Deadline: 1000, MarkedCompletedAt: 400}
	if got := early.ReclaimableAt(); got != 400+GracePeriod {
		t.Errorf("early-marked ReclaimableAt = %d, want %d", got, 400+GracePeriod)
	}

	// A pending mark never pushes the window past the deadline.
	late := Task{Status: TaskPendingVerification, Deadline: 1000, MarkedCompletedAt: 1500}
	if got := late.ReclaimableAt(); got != 1000+GracePeriod {
		t.Errorf("late-marked ReclaimableAt = %d, want %d", got, 1000+GracePeriod)
	}
}

func TestErrorCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{ErrOwnerOnly, 100},
		{ErrTaskNotFound, 101},
		{ErrUnauthorized, 102},
		{ErrInvalidAmount, 103},
		{ErrTaskNotExpired, 104},
		{ErrAlreadyVerified, 105},
		{ErrInsufficientBalance, 106},
		{ErrSameUser, 107},
		{ErrInvalidDeadline, 108},
		{ErrTaskNotActive, 0},
		{errors.New("something else"), 0},
	}
	for _, tt := range tests {
		if got := ErrorCode(tt.err); got != tt.want {
			t.Errorf("ErrorCode(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestErrorCode_Wrapped(t *testing.T) {
	wrapped := fmt.Errorf("create task: %w", ErrInsufficientBalance)
	if got := ErrorCode(wrapped); got != 106 {
		t.Errorf("ErrorCode(wrapped) = %d, want 106", got)
	}
}
