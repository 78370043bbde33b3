package domain

import "errors"

// ─── Sentinel Errors ────────────────────────────────────────────────────────
// Domain errors are pure, with no infrastructure dependency. Each carries a
// numeric contract code matching the original on-chain error constants.

var (
	ErrOwnerOnly           = errors.New("caller is not the contract owner")
	ErrTaskNotFound        = errors.New("task not found")
	ErrUnauthorized        = errors.New("caller is not authorized for this task")
	ErrInvalidAmount       = errors.New("stake amount must be positive")
	ErrTaskNotExpired      = errors.New("task deadline plus grace period has not elapsed")
	ErrAlreadyVerified     = errors.New("task has already been verified")
	ErrInsufficientBalance = errors.New("insufficient balance to fund stake")
	ErrSameUser            = errors.New("buddy must differ from creator")
	ErrInvalidDeadline     = errors.New("deadline must be in the future")

	ErrTaskNotActive = errors.New("task is not active")
	ErrTitleTooLong  = errors.New("title exceeds maximum length")
	ErrDescTooLong   = errors.New("description exceeds maximum length")
)

// ErrorCode returns the on-chain style numeric code for a ledger error,
// or 0 if the error has no contract code.
func ErrorCode(err error) int {
	switch {
	case errors.Is(err, ErrOwnerOnly):
		return 100
	case errors.Is(err, ErrTaskNotFound):
		return 101
	case errors.Is(err, ErrUnauthorized):
		return 102
	case errors.Is(err, ErrInvalidAmount):
		return 103
	case errors.Is(err, ErrTaskNotExpired):
		return 104
	case errors.Is(err, ErrAlreadyVerified):
		return 105
	case errors.Is(err, ErrInsufficientBalance):
		return 106
	case errors.Is(err, ErrSameUser):
		return 107
	case errors.Is(err, ErrInvalidDeadline):
		return 108
	default:
		return 0
	}
}
