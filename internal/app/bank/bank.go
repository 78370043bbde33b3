// Package bank implements the double-entry balance ledger backing the
// escrow. Every fund movement creates matched DEBIT/CREDIT entries.
// SUM(debits) == SUM(credits) is an invariant.
package bank

import (
	"fmt"
	"time"

	"github.com/bitbond-network/bitbond/internal/domain"
	"github.com/bitbond-network/bitbond/internal/infra/sqlite"
)

// Service manages principal balances and the system accounts.
type Service struct {
	db *sqlite.DB
}

// NewService creates a bank service.
func NewService(db *sqlite.DB) *Service {
	return &Service{db: db}
}

// Balance returns the spendable balance of a principal.
func (s *Service) Balance(p domain.Principal) (int64, error) {
	return s.db.AccountBalance(string(p))
}

// CustodyBalance returns the funds held in escrow for unresolved tasks.
func (s *Service) CustodyBalance() (int64, error) {
	return s.db.AccountBalance(domain.AccountEscrow)
}

// Deposit credits a principal from the reserve account. The reserve is
// the faucet source and may go negative.
func (s *Service) Deposit(p domain.Principal, amount int64, txid string) error {
	if amount <= 0 {
		return domain.ErrInvalidAmount
	}
	return s.db.WithTx(func(tx *sqlite.Tx) error {
		return Transfer(tx, domain.TxDeposit, domain.AccountReserve, string(p), amount, 0, txid)
	})
}

// History returns recent ledger entries for a principal.
func (s *Service) History(p domain.Principal, limit int) ([]domain.LedgerEntry, error) {
	return s.db.LedgerEntries(string(p), limit)
}

// Transfer moves amount between two accounts inside an open transaction,
// recording matched DEBIT (source) and CREDIT (destination) entries with
// running balances. Callers enforce sufficiency on spendable accounts.
func Transfer(tx *sqlite.Tx, txType domain.TransactionType, from, to string, amount int64, taskID uint64, txid string) error {
	if amount <= 0 {
		return fmt.Errorf("transfer amount must be positive, got %d", amount)
	}

	now := time.Now()

	fromBal, err := tx.AccountBalance(from)
	if err != nil {
		return fmt.Errorf("get %s balance: %w", from, err)
	}
	toBal, err := tx.AccountBalance(to)
	if err != nil {
		return fmt.Errorf("get %s balance: %w", to, err)
	}

	// DEBIT the source
	_, err = tx.InsertLedgerEntry(domain.LedgerEntry{
		Timestamp: now,
		Type:      txType,
		EntryType: domain.EntryDebit,
		Account:   from,
		Amount:    amount,
		TaskID:    taskID,
		TxID:      txid,
		Balance:   fromBal - amount,
	})
	if err != nil {
		return fmt.Errorf("debit %s: %w", from, err)
	}

	// CREDIT the destination
	_, err = tx.InsertLedgerEntry(domain.LedgerEntry{
		Timestamp: now,
		Type:      txType,
		EntryType: domain.EntryCredit,
		Account:   to,
		Amount:    amount,
		TaskID:    taskID,
		TxID:      txid,
		Balance:   toBal + amount,
	})
	if err != nil {
		return fmt.Errorf("credit %s: %w", to, err)
	}

	return nil
}
