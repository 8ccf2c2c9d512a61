package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"PanelLedger/internal/config"
)

// ReportsDAO serves the read-only aggregation queries. It runs on
// database/sql rather than the pgx pool because the report rows lean on
// pq.Array scans for the ARRAY_AGG columns.
type ReportsDAO struct {
	db *sql.DB
}

func NewReportsDAO(db *sql.DB) *ReportsDAO {
	return &ReportsDAO{db: db}
}

// AgentReportRow partitions one agent's clients into active and inactive
// sets for a report window.
type AgentReportRow struct {
	AgentName            string   `json:"agent_name"`
	ActiveClientIDs      []string `json:"active_client_ids"`
	InactiveClientIDs    []string `json:"inactive_client_ids"`
	ActiveClientsCount   int64    `json:"active_clients_count"`
	InactiveClientsCount int64    `json:"inactive_clients_count"`
}

// AgentTotalsRow carries one agent's day totals.
type AgentTotalsRow struct {
	AgentName             string          `json:"agent_name"`
	ActiveClientsCount    int64           `json:"active_clients_count"`
	TotalDepositAmount    decimal.Decimal `json:"total_deposit_amount"`
	TotalWithdrawalAmount decimal.Decimal `json:"total_withdrawal_amount"`
}

// HourlySummary is the global day snapshot sent on the hourly schedule.
type HourlySummary struct {
	Time                  string          `json:"time"`
	TotalDepositAmount    decimal.Decimal `json:"total_deposit_amount"`
	TotalWithdrawalAmount decimal.Decimal `json:"total_withdrawal_amount"`
	TotalReversalAmount   decimal.Decimal `json:"total_reversal_amount"`
	UserCount             int64           `json:"user_count"`
}

// BusinessDate truncates a moment to the report calendar day in the fixed
// reporting timezone.
func BusinessDate(now time.Time) string {
	loc, err := time.LoadLocation(config.ReportTimeZone)
	if err != nil {
		loc = time.UTC
	}
	return now.In(loc).Format("2006-01-02")
}

// noiseFilter excludes rows that describe internal book-keeping rather than
// player activity: loyalty credits, holds, bonuses and withdraw reversals.
const noiseFilter = `NOT (
	h.config->>'Description' ILIKE '%lc%'
	OR h.config->>'Remark' ILIKE '%lc%'
	OR h.config->>'Remark' ILIKE '%Hold%'
	OR h.config->>'Remark' ILIKE '%Bonus%'
	OR h.config->>'Description' ILIKE '%Withdraw Reversal%'
)`

// GetDailyAgentReport partitions every agent's clients into active and
// inactive sets over the trailing 7-day window.
func (d *ReportsDAO) GetDailyAgentReport(ctx context.Context) ([]AgentReportRow, error) {
	const sqlText = `
		WITH RecentActivity AS (
			SELECT DISTINCT u.user_id AS user_string_id, u.agent_id
			FROM history h
			INNER JOIN users u ON u.id = h.user_id
			WHERE h.played_at::date >= CURRENT_DATE - INTERVAL '7 days'
			  AND h.is_obsolete = false
			  AND h.user_id IS NOT NULL
		)
		SELECT
			a.name AS agent_name,
			COALESCE(ARRAY_AGG(DISTINCT ra.user_string_id) FILTER (WHERE ra.user_string_id IS NOT NULL), '{}') AS active_client_ids,
			COALESCE(ARRAY_AGG(DISTINCT u.user_id) FILTER (WHERE ra.user_string_id IS NULL AND u.user_id IS NOT NULL), '{}') AS inactive_client_ids,
			COUNT(DISTINCT ra.user_string_id) AS active_clients_count,
			COUNT(DISTINCT CASE WHEN ra.user_string_id IS NULL THEN u.user_id END) AS inactive_clients_count
		FROM agents a
		LEFT JOIN users u ON u.agent_id = a.id
		LEFT JOIN RecentActivity ra ON ra.user_string_id = u.user_id
		GROUP BY a.id, a.name
		ORDER BY a.name`

	return d.queryAgentReport(ctx, sqlText)
}

// GetHourlyActiveClients partitions clients per agent for one business day,
// grouping unpaired users under "Unassigned". Returns a single zero-filled
// row when the day has no data so downstream formatting never sees nulls.
func (d *ReportsDAO) GetHourlyActiveClients(ctx context.Context, reportDate string) ([]AgentReportRow, error) {
	const sqlText = `
		WITH ActiveClients AS (
			SELECT DISTINCT u.user_id AS user_string_id, u.agent_id
			FROM history h
			JOIN users u ON u.id = h.user_id
			WHERE h.played_at::date = $1
			  AND h.is_obsolete = false
		)
		SELECT
			COALESCE(TRIM(a.name), 'Unassigned') AS agent_name,
			COALESCE(ARRAY_AGG(DISTINCT ac.user_string_id) FILTER (WHERE ac.user_string_id IS NOT NULL), '{}') AS active_client_ids,
			COALESCE(ARRAY_AGG(DISTINCT u.user_id) FILTER (WHERE ac.user_string_id IS NULL AND u.user_id IS NOT NULL), '{}') AS inactive_client_ids,
			COUNT(DISTINCT ac.user_string_id) AS active_clients_count,
			COUNT(DISTINCT u.user_id) FILTER (WHERE ac.user_string_id IS NULL) AS inactive_clients_count
		FROM users u
		LEFT JOIN agents a ON u.agent_id = a.id
		LEFT JOIN ActiveClients ac ON ac.user_string_id = u.user_id
		GROUP BY TRIM(a.name)
		ORDER BY TRIM(a.name)`

	rows, err := d.queryAgentReport(ctx, sqlText, reportDate)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return []AgentReportRow{{
			AgentName:         "Unassigned",
			ActiveClientIDs:   []string{},
			InactiveClientIDs: []string{},
		}}, nil
	}
	return rows, nil
}

// GetHourlyAgentTotals sums deposits and withdrawals per agent for one
// business day. SUCCESS/APPROVED rows only, noise filtered.
func (d *ReportsDAO) GetHourlyAgentTotals(ctx context.Context, reportDate string) ([]AgentTotalsRow, error) {
	sqlText := `
		WITH DailyHistory AS (
			SELECT
				h.user_id,
				u.user_id AS user_string_id,
				u.agent_id,
				SUM(CASE WHEN h.type IN ('PAYIN', 'DEPOSIT') AND h.status IN ('SUCCESS', 'APPROVED') THEN h.amount ELSE 0 END) AS deposit_amount,
				SUM(CASE WHEN h.type IN ('PAYOUT', 'WITHDRAWAL') AND h.status IN ('SUCCESS', 'APPROVED') THEN h.amount ELSE 0 END) AS withdrawal_amount
			FROM history h
			INNER JOIN users u ON u.id = h.user_id
			WHERE h.played_at::date = $1
			  AND h.is_obsolete = false
			  AND h.user_id IS NOT NULL
			  AND ` + noiseFilter + `
			GROUP BY h.user_id, u.user_id, u.agent_id
		)
		SELECT
			COALESCE(TRIM(a.name), 'Unassigned') AS agent_name,
			COUNT(DISTINCT dh.user_string_id) AS active_clients_count,
			COALESCE(SUM(dh.deposit_amount), 0) AS total_deposit_amount,
			COALESCE(SUM(dh.withdrawal_amount), 0) AS total_withdrawal_amount
		FROM agents a
		RIGHT JOIN DailyHistory dh ON dh.agent_id = a.id
		GROUP BY a.id, a.name
		HAVING COUNT(DISTINCT dh.user_string_id) > 0
		ORDER BY COALESCE(TRIM(a.name), 'Unassigned')`

	rows, err := d.db.QueryContext(ctx, sqlText, reportDate)
	if err != nil {
		return nil, fmt.Errorf("hourly agent totals: %w", err)
	}
	defer rows.Close()

	out := []AgentTotalsRow{}
	for rows.Next() {
		var r AgentTotalsRow
		if err := rows.Scan(&r.AgentName, &r.ActiveClientsCount, &r.TotalDepositAmount, &r.TotalWithdrawalAmount); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// GetHourlySummary computes the day's global totals, zero-filled, with a
// pre-formatted report time for the message header.
func (d *ReportsDAO) GetHourlySummary(ctx context.Context, reportDate string, now time.Time) (*HourlySummary, error) {
	sqlText := `
		WITH DailyHistory AS (
			SELECT
				u.user_id AS user_string_id,
				CASE WHEN h.type IN ('PAYIN', 'DEPOSIT') THEN h.amount ELSE 0 END AS deposit_amount,
				CASE WHEN h.type IN ('PAYOUT', 'WITHDRAWAL') THEN h.amount ELSE 0 END AS withdrawal_amount
			FROM history h
			JOIN users u ON u.id = h.user_id
			WHERE h.played_at::date = $1
			  AND h.is_obsolete = false
			  AND h.status IN ('SUCCESS', 'APPROVED')
			  AND ` + noiseFilter + `
		),
		ReversalHistory AS (
			SELECT COALESCE(SUM(h.amount), 0) AS total_reversal_amount
			FROM history h
			WHERE h.played_at::date = $1
			  AND h.is_obsolete = false
			  AND h.config->>'Description' ILIKE '%Withdraw Reversal%'
		)
		SELECT
			COALESCE(SUM(dh.deposit_amount), 0) AS total_deposit_amount,
			COALESCE(SUM(dh.withdrawal_amount), 0) AS total_withdrawal_amount,
			(SELECT total_reversal_amount FROM ReversalHistory) AS total_reversal_amount,
			COUNT(DISTINCT dh.user_string_id) AS user_count
		FROM DailyHistory dh`

	summary := &HourlySummary{Time: formatReportTime(now)}
	err := d.db.QueryRowContext(ctx, sqlText, reportDate).Scan(
		&summary.TotalDepositAmount, &summary.TotalWithdrawalAmount,
		&summary.TotalReversalAmount, &summary.UserCount)
	if err != nil {
		return nil, fmt.Errorf("hourly summary: %w", err)
	}
	return summary, nil
}

// GetUnassignedUsersReport is the 7-day activity partition restricted to
// users without an agent.
func (d *ReportsDAO) GetUnassignedUsersReport(ctx context.Context) ([]AgentReportRow, error) {
	const sqlText = `
		WITH RecentActivity AS (
			SELECT DISTINCT u.user_id AS user_string_id
			FROM history h
			JOIN users u ON u.id = h.user_id
			WHERE h.played_at::date >= CURRENT_DATE - INTERVAL '7 days'
			  AND h.is_obsolete = false
		)
		SELECT
			'Unassigned' AS agent_name,
			COALESCE(ARRAY_AGG(DISTINCT CASE WHEN ra.user_string_id IS NOT NULL THEN ra.user_string_id END), '{}') AS active_client_ids,
			COALESCE(ARRAY_AGG(DISTINCT CASE WHEN ra.user_string_id IS NULL THEN u.user_id END), '{}') AS inactive_client_ids,
			COUNT(DISTINCT CASE WHEN ra.user_string_id IS NOT NULL THEN ra.user_string_id END) AS active_clients_count,
			COUNT(DISTINCT CASE WHEN ra.user_string_id IS NULL THEN u.user_id END) AS inactive_clients_count
		FROM users u
		LEFT JOIN RecentActivity ra ON ra.user_string_id = u.user_id
		WHERE u.agent_id IS NULL
		GROUP BY agent_name
		ORDER BY agent_name`

	return d.queryAgentReport(ctx, sqlText)
}

func (d *ReportsDAO) queryAgentReport(ctx context.Context, sqlText string, args ...interface{}) ([]AgentReportRow, error) {
	rows, err := d.db.QueryContext(ctx, sqlText, args...)
	if err != nil {
		return nil, fmt.Errorf("agent report query: %w", err)
	}
	defer rows.Close()

	out := []AgentReportRow{}
	for rows.Next() {
		var r AgentReportRow
		if err := rows.Scan(&r.AgentName, pq.Array(&r.ActiveClientIDs), pq.Array(&r.InactiveClientIDs),
			&r.ActiveClientsCount, &r.InactiveClientsCount); err != nil {
			return nil, err
		}
		if r.ActiveClientIDs == nil {
			r.ActiveClientIDs = []string{}
		}
		if r.InactiveClientIDs == nil {
			r.InactiveClientIDs = []string{}
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// formatReportTime renders "3:04 PM 02-01-2006" in the reporting timezone.
func formatReportTime(now time.Time) string {
	loc, err := time.LoadLocation(config.ReportTimeZone)
	if err != nil {
		loc = time.UTC
	}
	return now.In(loc).Format("3:04 PM 02-01-2006")
}
