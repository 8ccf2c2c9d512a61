package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store is the persistence surface of the import paths. The import services
// depend on this interface so they can be exercised without a database.
type Store interface {
	InsertRecords(ctx context.Context, records []Record) ([]string, error)
	ExistsFingerprint(ctx context.Context, fp Fingerprint) (bool, error)
	HasOriginalID(ctx context.Context, originalID, recordType string) (bool, error)
	InsertLedgerEntries(ctx context.Context, companyID string, entries []ResolvedLedgerEntry) ([]string, error)
}

// ResolvedLedgerEntry pairs a ledger entry with the internal user id it
// resolved to.
type ResolvedLedgerEntry struct {
	UserID string
	Entry  LedgerEntry
}

type PgStore struct {
	pool *pgxpool.Pool
}

func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

// InsertRecords persists canonical records with one multi-VALUES statement
// and returns the new ids in insertion order.
func (s *PgStore) InsertRecords(ctx context.Context, records []Record) ([]string, error) {
	if len(records) == 0 {
		return nil, nil
	}

	const cols = 10
	placeholders := make([]string, 0, len(records))
	args := make([]interface{}, 0, len(records)*cols)
	for i, r := range records {
		cfg, err := json.Marshal(r.Config)
		if err != nil {
			return nil, fmt.Errorf("marshal config for record %s: %w", r.ID, err)
		}
		base := i * cols
		placeholders = append(placeholders, fmt.Sprintf("($%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8, base+9, base+10))
		args = append(args, r.ID, r.UserID, r.CompanyID, r.PlayedAt, r.Amount.String(),
			r.Type, r.Status, cfg, r.CreatedAt, r.UpdatedAt)
	}

	sql := `INSERT INTO history
		(id, user_id, company_id, played_at, amount, type, status, config, created_at, updated_at)
		VALUES ` + strings.Join(placeholders, ", ") + ` RETURNING id`

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("insert history batch: %w", err)
	}
	defer rows.Close()

	ids := make([]string, 0, len(records))
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ExistsFingerprint reports whether a ledger row with the same fingerprint
// tuple has already been imported.
func (s *PgStore) ExistsFingerprint(ctx context.Context, fp Fingerprint) (bool, error) {
	var id string
	err := s.pool.QueryRow(ctx, `
		SELECT h.id
		FROM history h
		JOIN users u ON u.id = h.user_id
		WHERE u.user_id = $1
		  AND h.last_played_date = $2
		  AND h.total_withdrawal_amount = $3
		  AND h.total_deposit_amount = $4
		  AND h.is_obsolete = false
		LIMIT 1`,
		fp.UserID, fp.LastPlayedDate,
		fp.TotalWithdrawalAmount.String(), fp.TotalDepositAmount.String()).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("fingerprint lookup: %w", err)
	}
	return true, nil
}

// HasOriginalID is the stricter dedup lookup keyed on a source-provided
// transaction id carried in the config blob.
func (s *PgStore) HasOriginalID(ctx context.Context, originalID, recordType string) (bool, error) {
	var id string
	err := s.pool.QueryRow(ctx, `
		SELECT id FROM history
		WHERE config->>'original_id' = $1
		  AND type = $2
		  AND is_obsolete = false
		LIMIT 1`, originalID, recordType).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("original id lookup: %w", err)
	}
	return true, nil
}

// InsertLedgerEntries persists user-aggregate rows in one multi-VALUES
// statement and returns the new ids.
func (s *PgStore) InsertLedgerEntries(ctx context.Context, companyID string, entries []ResolvedLedgerEntry) ([]string, error) {
	if len(entries) == 0 {
		return nil, nil
	}

	const cols = 9
	placeholders := make([]string, 0, len(entries))
	args := make([]interface{}, 0, len(entries)*cols)
	for i, re := range entries {
		base := i * cols
		placeholders = append(placeholders, fmt.Sprintf("($%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8, base+9))
		e := re.Entry
		args = append(args, uuid.New().String(), re.UserID, companyID, e.LastPlayedDate,
			e.TotalDepositAmount.String(), e.TotalWithdrawalAmount.String(),
			e.TotalWinningAmount.String(), e.NumberOfDeposits, e.AvailablePoints.String())
	}

	sql := `INSERT INTO history
		(id, user_id, company_id, last_played_date, total_deposit_amount,
		 total_withdrawal_amount, total_winning_amount, number_of_deposits, available_points)
		VALUES ` + strings.Join(placeholders, ", ") + ` RETURNING id`

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("insert ledger batch: %w", err)
	}
	defer rows.Close()

	ids := make([]string, 0, len(entries))
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
