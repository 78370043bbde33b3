package domain

import "time"

// ─── Ledger Types ───────────────────────────────────────────────────────────
// Every fund movement creates matched DEBIT/CREDIT entries.
// SUM(debits) == SUM(credits) is an invariant checked by the health package.

// EntryType represents the accounting side of a ledger entry.
type EntryType string

const (
	EntryDebit  EntryType = "DEBIT"
	EntryCredit EntryType = "CREDIT"
)

// TransactionType represents the business reason for a fund movement.
type TransactionType string

const (
	TxDeposit TransactionType = "DEPOSIT" // faucet into a principal account
	TxBond    TransactionType = "BOND"    // stake locked into custody at creation
	TxRelease TransactionType = "RELEASE" // stake returned on successful verification
	TxPenalty TransactionType = "PENALTY" // stake forfeited to treasury on failure
	TxReclaim TransactionType = "RECLAIM" // stake recovered after expiry
)

// Well-known ledger accounts. Principal accounts use the principal string
// itself as the account name.
const (
	AccountEscrow   = "escrow"   // custody for unresolved stakes
	AccountTreasury = "treasury" // forfeited stakes
	AccountReserve  = "reserve"  // faucet source, may go negative
)

// LedgerEntry is a single row in the double-entry escrow ledger.
// Balance is the account's running balance after this entry.
type LedgerEntry struct {
	ID        int64           `json:"id"`
	Timestamp time.Time       `json:"timestamp"`
	Type      TransactionType `json:"type"`
	EntryType EntryType       `json:"entry_type"`
	Account   string          `json:"account"`
	Amount    int64           `json:"amount"`
	TaskID    uint64          `json:"task_id,omitempty"`
	TxID      string          `json:"txid,omitempty"`
	Balance   int64           `json:"balance"`
}
