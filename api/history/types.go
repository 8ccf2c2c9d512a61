package history

import (
	"time"

	"github.com/shopspring/decimal"
)

// SheetType classifies the transaction format of one worksheet or CSV.
type SheetType string

const (
	SheetTypePayin           SheetType = "payin"
	SheetTypePayout          SheetType = "payout"
	SheetTypeManualWithdraw  SheetType = "manual_withdraw"
	SheetTypeDepositSheet    SheetType = "deposit_sheet"
	SheetTypeWithdrawalSheet SheetType = "withdrawal_sheet"
	SheetTypeWalletStatement SheetType = "wallet_statement"
	SheetTypeGameHistory     SheetType = "game_history"
	SheetTypeBonusHistory    SheetType = "bonus_history"
	SheetTypeUnknown         SheetType = "unknown"
)

// Record is the canonical transaction produced by the multi-format import.
// Config carries every source column that has no canonical home, verbatim.
type Record struct {
	ID         string                 `json:"id"`
	UserID     string                 `json:"user_id"`
	CompanyID  string                 `json:"company_id"`
	PlayedAt   time.Time              `json:"played_at"`
	Amount     decimal.Decimal        `json:"amount"`
	Type       string                 `json:"type"`
	Status     string                 `json:"status"`
	Config     map[string]interface{} `json:"config"`
	CreatedAt  time.Time              `json:"created_at"`
	UpdatedAt  time.Time              `json:"updated_at"`
	IsObsolete bool                   `json:"is_obsolete"`
}

// LedgerEntry is one user-aggregate row produced by the panel-ledger import.
// UserID here is the external panel identifier; the import resolves it to an
// internal user before persisting.
type LedgerEntry struct {
	UserID                 string          `json:"user_id"`
	LastPlayedDate         string          `json:"last_played_date"`
	FirstTimeDepositAmount decimal.Decimal `json:"first_time_deposit_amount"`
	NumberOfDeposits       int64           `json:"number_of_deposits"`
	TotalDepositAmount     decimal.Decimal `json:"total_deposit_amount"`
	TotalWinningAmount     decimal.Decimal `json:"total_winning_amount"`
	TotalWithdrawalAmount  decimal.Decimal `json:"total_withdrawal_amount"`
	AvailablePoints        decimal.Decimal `json:"available_points"`
}

// Fingerprint is the tuple the dedup gate matches against existing rows. Two
// entries sharing a fingerprint are treated as the same real-world event and
// only the first is kept. The default tuple conflates two distinct same-day
// same-amount transactions for one user; that imprecision is deliberate and
// documented, which is why the strategy is pluggable.
type Fingerprint struct {
	UserID                string
	LastPlayedDate        string
	TotalWithdrawalAmount decimal.Decimal
	TotalDepositAmount    decimal.Decimal
}

// FingerprintFunc derives the dedup fingerprint for a ledger entry.
type FingerprintFunc func(e LedgerEntry) Fingerprint

// DefaultFingerprint is the documented approximate tuple.
func DefaultFingerprint(e LedgerEntry) Fingerprint {
	return Fingerprint{
		UserID:                e.UserID,
		LastPlayedDate:        e.LastPlayedDate,
		TotalWithdrawalAmount: e.TotalWithdrawalAmount,
		TotalDepositAmount:    e.TotalDepositAmount,
	}
}

// SheetResult is the per-sheet breakdown of an import run.
type SheetResult struct {
	SheetType   SheetType  `json:"sheetType"`
	Processed   int        `json:"processed"`
	Inserted    int        `json:"inserted"`
	Errors      []RowError `json:"errors"`
	InsertedIDs []string   `json:"insertedIds"`
}

// RowError records one recovered per-row or per-sheet failure.
type RowError struct {
	Sheet string `json:"sheet"`
	Row   int    `json:"row,omitempty"`
	Error string `json:"error"`
}

// ImportResult aggregates the outcome of one multi-format file import.
type ImportResult struct {
	Sheets         map[string]SheetResult `json:"sheets"`
	TotalProcessed int                    `json:"totalProcessed"`
	TotalInserted  int                    `json:"totalInserted"`
	TotalErrors    int                    `json:"totalErrors"`
	AllInsertedIDs []string               `json:"allInsertedIds"`
}

// LedgerResult summarizes one panel-ledger import.
type LedgerResult struct {
	InsertedCount  int      `json:"insertedCount"`
	DuplicateCount int      `json:"duplicateCount"`
	TotalProcessed int      `json:"totalProcessed"`
	CompanyName    string   `json:"companyName"`
	RecordIDs      []string `json:"recordIds"`
}
