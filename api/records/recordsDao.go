// Package records logs completed ledger imports: who uploaded which file
// for which company. Append-only audit data, never read by the pipeline.
package records

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Record struct {
	ID          string    `json:"id"`
	LoginUserID string    `json:"login_user_id"`
	CompanyID   string    `json:"company_id"`
	File        string    `json:"file"`
	CreatedAt   time.Time `json:"created_at"`
}

func CreateRecord(ctx context.Context, pool *pgxpool.Pool, loginUserID, companyID, file string) (*Record, error) {
	rec := Record{
		ID:          uuid.New().String(),
		LoginUserID: loginUserID,
		CompanyID:   companyID,
		File:        file,
	}
	err := pool.QueryRow(ctx, `
		INSERT INTO records (id, login_user_id, company_id, file, created_at)
		VALUES ($1, $2, $3, $4, now())
		RETURNING created_at`,
		rec.ID, rec.LoginUserID, rec.CompanyID, rec.File).Scan(&rec.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func GetRecordsByCompany(ctx context.Context, pool *pgxpool.Pool, companyID string) ([]Record, error) {
	rows, err := pool.Query(ctx, `
		SELECT id, login_user_id, company_id, file, created_at
		FROM records WHERE company_id = $1 ORDER BY created_at DESC`, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Record, 0)
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.ID, &r.LoginUserID, &r.CompanyID, &r.File, &r.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
