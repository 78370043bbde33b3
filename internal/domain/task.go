// Package domain holds the core escrow types and business rules.
// A Task is a goal-accountability contract: the creator bonds a stake,
// a buddy attests the outcome, and the ledger moves funds accordingly.
package domain

// Principal is an account identity that can hold balance and call
// ledger operations. Opaque to the ledger; any non-empty string.
type Principal string

// TaskStatus tracks the escrow task lifecycle.
type TaskStatus string

const (
	TaskActive              TaskStatus = "active"
	TaskPendingVerification TaskStatus = "pending_verification"
	TaskCompleted           TaskStatus = "completed"
	TaskFailed              TaskStatus = "failed"
	TaskExpired             TaskStatus = "expired"
)

// GracePeriod is the number of blocks past a task's deadline before the
// creator may reclaim the stake. 288 blocks is 48 hours at 10 min/block.
const GracePeriod uint64 = 288

// Bounds on user-supplied text fields, mirroring the on-chain ascii limits.
const (
	MaxTitleLen       = 100
	MaxDescriptionLen = 500
)

// Task is a single accountability contract. Once Verified is true the
// record is immutable and persists as an audit trail.
type Task struct {
	ID                uint64     `json:"id"`
	Creator           Principal  `json:"creator"`
	Buddy             Principal  `json:"buddy"`
	Title             string     `json:"title"`
	Description       string     `json:"description"`
	StakeAmount       int64      `json:"stake_amount"`
	Deadline          uint64     `json:"deadline"`
	Status            TaskStatus `json:"status"`
	Verified          bool       `json:"verified"`
	CreatedAt         uint64     `json:"created_at"`
	MarkedCompletedAt uint64     `json:"marked_completed_at,omitempty"`
	VerificationTime  uint64     `json:"verification_time,omitempty"`
}

// IsTerminal returns true once the task has been resolved.
func (t *Task) IsTerminal() bool {
	return t.Status == TaskCompleted || t.Status == TaskFailed || t.Status == TaskExpired
}

// ReclaimableAt returns the block height at which the creator may reclaim
// the stake. Marking a task completed starts the buddy-response window
// early, so the earlier of the two anchors applies.
func (t *Task) ReclaimableAt() uint64 {
	anchor := t.Deadline
	if t.Status == TaskPendingVerification && t.MarkedCompletedAt < anchor {
		anchor = t.MarkedCompletedAt
	}
	return anchor + GracePeriod
}

// UserStats aggregates lifetime task counters per principal.
// TotalStaked is cumulative; it is never decremented on resolution.
type UserStats struct {
	TasksCreated   uint64 `json:"tasks_created"`
	TasksCompleted uint64 `json:"tasks_completed"`
	TasksFailed    uint64 `json:"tasks_failed"`
	TotalStaked    int64  `json:"total_staked"`
}
