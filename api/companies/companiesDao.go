package companies

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Company struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// GetCompanyByID returns nil when no company matches.
func GetCompanyByID(ctx context.Context, pool *pgxpool.Pool, id string) (*Company, error) {
	return scanCompany(pool.QueryRow(ctx,
		`SELECT id, name, created_at, updated_at FROM companies WHERE id = $1`, id))
}

// GetCompanyByName returns nil when no company matches.
func GetCompanyByName(ctx context.Context, pool *pgxpool.Pool, name string) (*Company, error) {
	return scanCompany(pool.QueryRow(ctx,
		`SELECT id, name, created_at, updated_at FROM companies WHERE name = $1`, name))
}

// CreateCompany inserts a new company. The name column carries a unique
// constraint; a concurrent create of the same name resolves through the
// ON CONFLICT clause instead of failing.
func CreateCompany(ctx context.Context, pool *pgxpool.Pool, name string) (*Company, error) {
	return scanCompany(pool.QueryRow(ctx, `
		INSERT INTO companies (id, name, created_at, updated_at)
		VALUES ($1, $2, now(), now())
		ON CONFLICT (name) DO UPDATE SET updated_at = companies.updated_at
		RETURNING id, name, created_at, updated_at`,
		uuid.New().String(), name))
}

// GetOrCreateCompany is the lazy creation path used by imports: companies
// come into existence on first reference.
func GetOrCreateCompany(ctx context.Context, pool *pgxpool.Pool, name string) (*Company, error) {
	company, err := GetCompanyByName(ctx, pool, name)
	if err != nil {
		return nil, err
	}
	if company != nil {
		return company, nil
	}
	return CreateCompany(ctx, pool, name)
}

func scanCompany(row pgx.Row) (*Company, error) {
	var c Company
	err := row.Scan(&c.ID, &c.Name, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}
