package jobs

import (
	"encoding/csv"
	"os"
	"strconv"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PanelLedger/api/history"
)

func TestGenerateReportCSV(t *testing.T) {
	reports := []history.AgentReportRow{
		{
			AgentName:            "rashid",
			ActiveClientIDs:      []string{"p1", "p2"},
			InactiveClientIDs:    []string{"p3"},
			ActiveClientsCount:   2,
			InactiveClientsCount: 1,
		},
		{
			AgentName:         "self",
			ActiveClientIDs:   []string{},
			InactiveClientIDs: []string{},
		},
	}

	path, err := GenerateReportCSV(reports, "daily", "01/06/2025")
	require.NoError(t, err)
	defer os.Remove(path)

	assert.True(t, strings.HasSuffix(path, "daily_report_01-06-2025.csv"),
		"path-unsafe characters in the date must be replaced, got %s", path)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)

	require.Len(t, rows, 3)
	assert.Equal(t, []string{"agent", "total_clients", "active_count", "inactive_count", "active_clients_1", "inactive_clients_1"}, rows[0])
	assert.Equal(t, []string{"rashid", "3", "2", "1", "p1,p2", "p3"}, rows[1])
	assert.Equal(t, []string{"self", "0", "0", "0", "", ""}, rows[2])
}

func TestGenerateReportCSVSplitsLargeIDLists(t *testing.T) {
	ids := make([]string, 1200)
	for i := range ids {
		ids[i] = "u" + strconv.Itoa(i)
	}
	reports := []history.AgentReportRow{
		{AgentName: "big", ActiveClientIDs: ids, ActiveClientsCount: 1200, InactiveClientIDs: []string{}},
	}

	path, err := GenerateReportCSV(reports, "hourly-active-clients", "2025-06-01")
	require.NoError(t, err)
	defer os.Remove(path)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)

	header := rows[0]
	assert.Contains(t, header, "active_clients_1")
	assert.Contains(t, header, "active_clients_2")
	assert.Contains(t, header, "active_clients_3")
	assert.NotContains(t, header, "active_clients_4")

	// 500 + 500 + 200
	first := strings.Split(rows[1][4], ",")
	last := strings.Split(rows[1][6], ",")
	assert.Len(t, first, 500)
	assert.Len(t, last, 200)
}

func TestSplitIDColumnsEmpty(t *testing.T) {
	assert.Empty(t, splitIDColumns(nil))
	assert.Equal(t, []string{"a,b"}, splitIDColumns([]string{"a", "b"}))
}

func TestFormatHourlySummary(t *testing.T) {
	summary := &history.HourlySummary{
		Time:                  "12:30 PM 01-06-2025",
		TotalDepositAmount:    decimal.NewFromInt(1000),
		TotalWithdrawalAmount: decimal.NewFromInt(400),
		UserCount:             7,
	}
	totals := []history.AgentTotalsRow{
		{AgentName: "rashid", ActiveClientsCount: 3, TotalDepositAmount: decimal.NewFromInt(600), TotalWithdrawalAmount: decimal.NewFromInt(100)},
	}

	msg := FormatHourlySummary(summary, totals)
	assert.Contains(t, msg, "<b>Hourly Summary</b> 12:30 PM 01-06-2025")
	assert.Contains(t, msg, "Deposits: 1000.00")
	assert.Contains(t, msg, "Active users: 7")
	assert.Contains(t, msg, "rashid: 3 clients, in 600.00, out 100.00")
}
