package health

import (
	"context"
	"testing"
	"time"

	"github.com/bitbond-network/bitbond/internal/domain"
	"github.com/bitbond-network/bitbond/internal/infra/sqlite"
)

func newTestDB(t *testing.T) *sqlite.DB {
	t.Helper()
	db, err := sqlite.Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestChecker_HealthyOnEmptyLedger(t *testing.T) {
	db := newTestDB(t)
	c := NewChecker(db)

	c.runAll(context.Background())

	if !c.IsHealthy() {
		t.Errorf("empty ledger unhealthy: %+v", c.Statuses())
	}
	if len(c.Statuses()) != 3 {
		t.Errorf("Statuses() = %d checks, want 3", len(c.Statuses()))
	}
}

func TestChecker_DetectsUnbalancedLedger(t *testing.T) {
	db := newTestDB(t)

	// A lone debit with no matching credit breaks double entry.
	err := db.WithTx(func(tx *sqlite.Tx) error {
		_, err := tx.InsertLedgerEntry(domain.LedgerEntry{
			Timestamp: time.Now(),
			Type:      domain.TxBond,
			EntryType: domain.EntryDebit,
			Account:   "alice",
			Amount:    100,
			Balance:   -100,
		})
		return err
	})
	if err != nil {
		t.Fatalf("setup error: %v", err)
	}

	c := NewChecker(db)
	c.runAll(context.Background())

	if c.IsHealthy() {
		t.Error("unbalanced ledger reported healthy")
	}
}

func TestChecker_DetectsCustodyMismatch(t *testing.T) {
	db := newTestDB(t)

	// An unresolved task with no matching escrow funds.
	err := db.WithTx(func(tx *sqlite.Tx) error {
		return tx.InsertTask(domain.Task{
			ID: 1, Creator: "alice", Buddy: "bob", Title: "t",
			StakeAmount: 500, Deadline: 100, Status: domain.TaskActive, CreatedAt: 1,
		})
	})
	if err != nil {
		t.Fatalf("setup error: %v", err)
	}

	c := NewChecker(db)
	c.runAll(context.Background())

	if c.IsHealthy() {
		t.Error("custody mismatch reported healthy")
	}

	var custodyStatus *Status
	for i := range c.Statuses() {
		s := c.Statuses()[i]
		if s.Name == "custody" {
			custodyStatus = &s
		}
	}
	if custodyStatus == nil || custodyStatus.Healthy {
		t.Errorf("custody check = %+v, want unhealthy", custodyStatus)
	}
}
