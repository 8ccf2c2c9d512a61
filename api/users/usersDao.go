package users

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// User is the internal entity behind the external panel identifier. The
// external identifier is globally unique: the ON CONFLICT target below is
// the authority on user identity, company is an attribute of the user.
type User struct {
	ID                     string          `json:"id"`
	UserID                 string          `json:"user_id"`
	CompanyID              string          `json:"company_id"`
	AgentID                *string         `json:"agent_id"`
	FirstTimeDepositAmount decimal.Decimal `json:"first_time_deposit_amount"`
	NumberOfDeposits       int64           `json:"number_of_deposits"`
	TotalDepositAmount     decimal.Decimal `json:"total_deposit_amount"`
	TotalWinningAmount     decimal.Decimal `json:"total_winning_amount"`
	TotalWithdrawalAmount  decimal.Decimal `json:"total_withdrawal_amount"`
	AvailablePoints        decimal.Decimal `json:"available_points"`
	FirstDepositDate       *time.Time      `json:"first_deposit_date"`
	LastPlayedDate         *time.Time      `json:"last_played_date"`
	IsObsolete             bool            `json:"is_obsolete"`
	CreatedAt              time.Time       `json:"created_at"`
	UpdatedAt              time.Time       `json:"updated_at"`
}

// UpsertPayload carries one sighting of a user. Numeric fields are deltas:
// the conflict clause adds them onto the stored aggregates.
type UpsertPayload struct {
	UserID                 string
	CompanyID              string
	AgentID                *string
	FirstTimeDepositAmount decimal.Decimal
	NumberOfDeposits       int64
	TotalDepositAmount     decimal.Decimal
	TotalWinningAmount     decimal.Decimal
	TotalWithdrawalAmount  decimal.Decimal
	AvailablePoints        decimal.Decimal
	FirstDepositDate       *string
	LastPlayedDate         *string
}

const userColumns = `id, user_id, company_id, agent_id,
	first_time_deposit_amount, number_of_deposits, total_deposit_amount,
	total_winning_amount, total_withdrawal_amount, available_points,
	first_deposit_date, last_played_date, is_obsolete, created_at, updated_at`

// Store is the storage surface the resolver and the import services need.
type Store interface {
	GetByExternalID(ctx context.Context, externalID string) (*User, error)
	Upsert(ctx context.Context, p UpsertPayload) (*User, error)
	AssignAgent(ctx context.Context, externalID, agentID string) error
}

type PgStore struct {
	pool *pgxpool.Pool
}

func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

// GetByExternalID returns nil when the external id has never been seen.
func (s *PgStore) GetByExternalID(ctx context.Context, externalID string) (*User, error) {
	return scanUser(s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE user_id = $1`, externalID))
}

// Upsert inserts a user or, on conflict with the unique external id, adds
// the numeric deltas onto the stored aggregates. The unique constraint plus
// this conflict clause is the single creation strategy: a plain
// select-then-insert would race under concurrent imports of overlapping data.
func (s *PgStore) Upsert(ctx context.Context, p UpsertPayload) (*User, error) {
	return scanUser(s.pool.QueryRow(ctx, `
		INSERT INTO users (
			id, user_id, company_id, agent_id,
			first_time_deposit_amount, number_of_deposits, total_deposit_amount,
			total_winning_amount, total_withdrawal_amount, available_points,
			first_deposit_date, last_played_date, is_obsolete, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, false, now(), now())
		ON CONFLICT (user_id) DO UPDATE SET
			company_id = EXCLUDED.company_id,
			agent_id = COALESCE(EXCLUDED.agent_id, users.agent_id),
			first_time_deposit_amount = users.first_time_deposit_amount + EXCLUDED.first_time_deposit_amount,
			number_of_deposits = users.number_of_deposits + EXCLUDED.number_of_deposits,
			total_deposit_amount = users.total_deposit_amount + EXCLUDED.total_deposit_amount,
			total_winning_amount = users.total_winning_amount + EXCLUDED.total_winning_amount,
			total_withdrawal_amount = users.total_withdrawal_amount + EXCLUDED.total_withdrawal_amount,
			available_points = users.available_points + EXCLUDED.available_points,
			first_deposit_date = LEAST(users.first_deposit_date, EXCLUDED.first_deposit_date),
			last_played_date = GREATEST(users.last_played_date, EXCLUDED.last_played_date),
			updated_at = now()
		RETURNING `+userColumns,
		uuid.New().String(), p.UserID, p.CompanyID, p.AgentID,
		p.FirstTimeDepositAmount.String(), p.NumberOfDeposits, p.TotalDepositAmount.String(),
		p.TotalWinningAmount.String(), p.TotalWithdrawalAmount.String(), p.AvailablePoints.String(),
		p.FirstDepositDate, p.LastPlayedDate))
}

// AssignAgent re-pairs an existing user with an agent, leaving the
// aggregate columns alone.
func (s *PgStore) AssignAgent(ctx context.Context, externalID, agentID string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE users SET agent_id = $2, updated_at = now() WHERE user_id = $1`, externalID, agentID)
	return err
}

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(
		&u.ID, &u.UserID, &u.CompanyID, &u.AgentID,
		&u.FirstTimeDepositAmount, &u.NumberOfDeposits, &u.TotalDepositAmount,
		&u.TotalWinningAmount, &u.TotalWithdrawalAmount, &u.AvailablePoints,
		&u.FirstDepositDate, &u.LastPlayedDate, &u.IsObsolete, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}
