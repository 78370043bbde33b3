// Package health provides automated health checks for the escrow daemon.
// Beyond liveness, the checks assert the ledger's accounting invariants:
// matched double-entry sums and custody equal to unresolved stakes.
package health

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bitbond-network/bitbond/internal/domain"
	"github.com/bitbond-network/bitbond/internal/infra/sqlite"
)

// Check defines a single health check.
type Check struct {
	Name    string
	CheckFn func(ctx context.Context) error
}

// Status represents the result of a health check.
type Status struct {
	Name      string    `json:"name"`
	Healthy   bool      `json:"healthy"`
	Error     string    `json:"error,omitempty"`
	CheckedAt time.Time `json:"checked_at"`
}

// Checker runs periodic health checks.
type Checker struct {
	mu       sync.RWMutex
	checks   []Check
	statuses []Status
	interval time.Duration
}

// NewChecker creates a health checker with the standard ledger checks.
func NewChecker(db *sqlite.DB) *Checker {
	return &Checker{
		interval: 60 * time.Second,
		checks: []Check{
			{
				Name: "sqlite",
				CheckFn: func(ctx context.Context) error {
					return db.Ping()
				},
			},
			{
				Name: "double_entry",
				CheckFn: func(ctx context.Context) error {
					return checkDoubleEntry(db)
				},
			},
			{
				Name: "custody",
				CheckFn: func(ctx context.Context) error {
					return checkCustody(db)
				},
			},
		},
	}
}

// Run starts the health check loop. Call in a goroutine.
func (c *Checker) Run(ctx context.Context) {
	// Run immediately on start
	c.runAll(ctx)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.runAll(ctx)
		}
	}
}

func (c *Checker) runAll(ctx context.Context) {
	statuses := make([]Status, len(c.checks))
	for i, check := range c.checks {
		s := Status{
			Name:      check.Name,
			CheckedAt: time.Now(),
		}
		if err := check.CheckFn(ctx); err != nil {
			s.Healthy = false
			s.Error = err.Error()
		} else {
			s.Healthy = true
		}
		statuses[i] = s
	}

	c.mu.Lock()
	c.statuses = statuses
	c.mu.Unlock()
}

// Statuses returns the latest health check results.
func (c *Checker) Statuses() []Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	result := make([]Status, len(c.statuses))
	copy(result, c.statuses)
	return result
}

// IsHealthy returns true if all checks pass.
func (c *Checker) IsHealthy() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, s := range c.statuses {
		if !s.Healthy {
			return false
		}
	}
	return true
}

// ─── Check Implementations ──────────────────────────────────────────────────

// checkDoubleEntry verifies SUM(debits) == SUM(credits) across the ledger.
func checkDoubleEntry(db *sqlite.DB) error {
	debits, credits, err := db.LedgerSums()
	if err != nil {
		return fmt.Errorf("ledger sums: %w", err)
	}
	if debits != credits {
		return fmt.Errorf("ledger out of balance: debits=%d credits=%d", debits, credits)
	}
	return nil
}

// checkCustody verifies the escrow account holds exactly the sum of
// stakes of all unresolved tasks.
func checkCustody(db *sqlite.DB) error {
	custody, err := db.AccountBalance(domain.AccountEscrow)
	if err != nil {
		return fmt.Errorf("custody balance: %w", err)
	}
	staked, err := db.UnresolvedStakeTotal()
	if err != nil {
		return fmt.Errorf("unresolved stakes: %w", err)
	}
	if custody != staked {
		return fmt.Errorf("custody mismatch: escrow=%d unresolved stakes=%d", custody, staked)
	}
	return nil
}
