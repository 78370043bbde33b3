// Package escrow implements the goal-accountability escrow ledger.
// A creator bonds a stake against a self-declared task, a buddy attests
// the outcome, and funds move atomically on attestation or expiry.
//
// All mutations are serialized behind a single writer and applied inside
// one sqlite transaction: no operation partially applies, and no
// interleaving of two operations on the same task is observable.
package escrow

import (
	"sync"

	"github.com/bitbond-network/bitbond/internal/app/bank"
	"github.com/bitbond-network/bitbond/internal/domain"
	"github.com/bitbond-network/bitbond/internal/infra/metrics"
	"github.com/bitbond-network/bitbond/internal/infra/sqlite"
)

// Clock supplies the logical block height for deadline arithmetic.
// The ledger never reads wall-clock time.
type Clock interface {
	Height() uint64
}

// Service is the escrow ledger state machine.
type Service struct {
	mu    sync.Mutex
	db    *sqlite.DB
	clock Clock
}

// NewService creates an escrow service over the store and clock.
func NewService(db *sqlite.DB, clock Clock) *Service {
	return &Service{db: db, clock: clock}
}

// CreateTaskParams are the caller-supplied fields of a new task.
type CreateTaskParams struct {
	Buddy       domain.Principal
	Title       string
	Description string
	StakeAmount int64
	Deadline    uint64
}

// CreateTask bonds the caller's stake into custody and stores a new
// active task. Returns the allocated task id. The txid ties the ledger
// entries back to the caller's submission.
func (s *Service) CreateTask(caller domain.Principal, p CreateTaskParams, txid string) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.Buddy == caller {
		return 0, domain.ErrSameUser
	}
	if p.StakeAmount <= 0 {
		return 0, domain.ErrInvalidAmount
	}
	height := s.clock.Height()
	if p.Deadline <= height {
		return 0, domain.ErrInvalidDeadline
	}
	if len(p.Title) > domain.MaxTitleLen {
		return 0, domain.ErrTitleTooLong
	}
	if len(p.Description) > domain.MaxDescriptionLen {
		return 0, domain.ErrDescTooLong
	}

	var id uint64
	err := s.db.WithTx(func(tx *sqlite.Tx) error {
		balance, err := tx.AccountBalance(string(caller))
		if err != nil {
			return err
		}
		if balance < p.StakeAmount {
			return domain.ErrInsufficientBalance
		}

		id, err = tx.AllocateTaskID()
		if err != nil {
			return err
		}

		task := domain.Task{
			ID:          id,
			Creator:     caller,
			Buddy:       p.Buddy,
			Title:       p.Title,
			Description: p.Description,
			StakeAmount: p.StakeAmount,
			Deadline:    p.Deadline,
			Status:      domain.TaskActive,
			CreatedAt:   height,
		}
		if err := tx.InsertTask(task); err != nil {
			return err
		}

		// Bond the stake into custody
		if err := bank.Transfer(tx, domain.TxBond, string(caller), domain.AccountEscrow, p.StakeAmount, id, txid); err != nil {
			return err
		}

		return tx.BumpUserStats(caller, 1, 0, 0, p.StakeAmount)
	})
	if err != nil {
		return 0, err
	}

	metrics.TasksCreated.Inc()
	metrics.StakeBonded.Observe(float64(p.StakeAmount))
	s.updateCustodyGauge()
	return id, nil
}

// VerifyTask records the buddy's attestation. On success the stake is
// released back to the creator; on failure it is forfeited to the
// treasury. Exactly once per task; retries fail with AlreadyVerified.
func (s *Service) VerifyTask(caller domain.Principal, id uint64, success bool, txid string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	height := s.clock.Height()

	err := s.db.WithTx(func(tx *sqlite.Tx) error {
		task, err := tx.Task(id)
		if err != nil {
			return err
		}
		if task == nil {
			return domain.ErrTaskNotFound
		}
		if task.Buddy != caller {
			return domain.ErrUnauthorized
		}
		if task.Verified {
			return domain.ErrAlreadyVerified
		}

		if success {
			if err := tx.ResolveTask(id, domain.TaskCompleted, height); err != nil {
				return err
			}
			if err := bank.Transfer(tx, domain.TxRelease, domain.AccountEscrow, string(task.Creator), task.StakeAmount, id, txid); err != nil {
				return err
			}
			return tx.BumpUserStats(task.Creator, 0, 1, 0, 0)
		}

		if err := tx.ResolveTask(id, domain.TaskFailed, height); err != nil {
			return err
		}
		if err := bank.Transfer(tx, domain.TxPenalty, domain.AccountEscrow, domain.AccountTreasury, task.StakeAmount, id, txid); err != nil {
			return err
		}
		return tx.BumpUserStats(task.Creator, 0, 0, 1, 0)
	})
	if err != nil {
		return false, err
	}

	if success {
		metrics.TasksResolved.WithLabelValues("completed").Inc()
	} else {
		metrics.TasksResolved.WithLabelValues("failed").Inc()
	}
	s.updateCustodyGauge()
	return success, nil
}

// MarkTaskCompleted lets the creator self-declare completion, moving the
// task into pending verification. No funds move; the buddy-response
// window starts at the current height.
func (s *Service) MarkTaskCompleted(caller domain.Principal, id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	height := s.clock.Height()

	return s.db.WithTx(func(tx *sqlite.Tx) error {
		task, err := tx.Task(id)
		if err != nil {
			return err
		}
		if task == nil {
			return domain.ErrTaskNotFound
		}
		if task.Creator != caller {
			return domain.ErrUnauthorized
		}
		if task.Verified {
			return domain.ErrAlreadyVerified
		}
		if task.Status != domain.TaskActive {
			return domain.ErrTaskNotActive
		}
		return tx.MarkTaskCompleted(id, height)
	})
}

// ReclaimExpiredStake returns the stake to the creator once the deadline
// plus grace period has elapsed with no attestation. This bounds custody
// lock-up: a creator can always eventually recover funds.
func (s *Service) ReclaimExpiredStake(caller domain.Principal, id uint64, txid string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	height := s.clock.Height()

	err := s.db.WithTx(func(tx *sqlite.Tx) error {
		task, err := tx.Task(id)
		if err != nil {
			return err
		}
		if task == nil {
			return domain.ErrTaskNotFound
		}
		if task.Creator != caller {
			return domain.ErrUnauthorized
		}
		if task.Verified {
			return domain.ErrAlreadyVerified
		}
		if height < task.ReclaimableAt() {
			return domain.ErrTaskNotExpired
		}

		if err := tx.ResolveTask(id, domain.TaskExpired, height); err != nil {
			return err
		}
		return bank.Transfer(tx, domain.TxReclaim, domain.AccountEscrow, string(task.Creator), task.StakeAmount, id, txid)
	})
	if err != nil {
		return false, err
	}

	metrics.TasksResolved.WithLabelValues("expired").Inc()
	s.updateCustodyGauge()
	return true, nil
}

// ─── Read-Only Queries ──────────────────────────────────────────────────────
// Queries never error on a missing id. Absence is expected, not
// exceptional.

// Task returns a task by id, or nil if it does not exist.
func (s *Service) Task(id uint64) (*domain.Task, error) {
	return s.db.Task(id)
}

// UserStats returns a principal's stats, zero-valued if the principal
// has never created a task.
func (s *Service) UserStats(p domain.Principal) (domain.UserStats, error) {
	return s.db.UserStats(p)
}

// NextTaskID returns the id the next created task will receive.
func (s *Service) NextTaskID() (uint64, error) {
	return s.db.NextTaskID()
}

// ContractBalance returns the custody balance: the sum of all stakes not
// yet released.
func (s *Service) ContractBalance() (int64, error) {
	return s.db.AccountBalance(domain.AccountEscrow)
}

// IsTaskExpired reports whether a task exists, is unresolved, and has
// passed its reclaim height. Nonexistent ids return false, not an error.
func (s *Service) IsTaskExpired(id uint64) (bool, error) {
	task, err := s.db.Task(id)
	if err != nil {
		return false, err
	}
	if task == nil || task.Verified {
		return false, nil
	}
	return s.clock.Height() >= task.ReclaimableAt(), nil
}

// TasksByCreator returns all tasks created by a principal, newest first.
func (s *Service) TasksByCreator(p domain.Principal) ([]domain.Task, error) {
	return s.db.TasksByCreator(p)
}

// TasksByBuddy returns all tasks awaiting a principal's attestation or
// previously attested by them, newest first.
func (s *Service) TasksByBuddy(p domain.Principal) ([]domain.Task, error) {
	return s.db.TasksByBuddy(p)
}

func (s *Service) updateCustodyGauge() {
	if bal, err := s.db.AccountBalance(domain.AccountEscrow); err == nil {
		metrics.CustodyBalance.Set(float64(bal))
	}
}
