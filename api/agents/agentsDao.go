package agents

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Agent struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// NormalizeName lower-cases and trims an agent name. All lookups and
// inserts go through this so "Self", "SELF" and "self" are one agent.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// GetAgentByName returns nil when no agent matches.
func GetAgentByName(ctx context.Context, pool *pgxpool.Pool, name string) (*Agent, error) {
	return scanAgent(pool.QueryRow(ctx,
		`SELECT id, name, created_at FROM agents WHERE name = $1`, NormalizeName(name)))
}

func CreateAgent(ctx context.Context, pool *pgxpool.Pool, name string) (*Agent, error) {
	return scanAgent(pool.QueryRow(ctx, `
		INSERT INTO agents (id, name, created_at)
		VALUES ($1, $2, now())
		ON CONFLICT (name) DO UPDATE SET name = agents.name
		RETURNING id, name, created_at`,
		uuid.New().String(), NormalizeName(name)))
}

// GetOrCreateAgent creates agents lazily on first reference, including the
// reserved "self" sentinel for house traffic.
func GetOrCreateAgent(ctx context.Context, pool *pgxpool.Pool, name string) (*Agent, error) {
	agent, err := GetAgentByName(ctx, pool, name)
	if err != nil {
		return nil, err
	}
	if agent != nil {
		return agent, nil
	}
	return CreateAgent(ctx, pool, name)
}

func scanAgent(row pgx.Row) (*Agent, error) {
	var a Agent
	err := row.Scan(&a.ID, &a.Name, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}
