package history

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PanelLedger/api/companies"
	"PanelLedger/api/constants"
	"PanelLedger/api/users"
	"PanelLedger/internal/fileparse"
)

type memoryUserStore struct {
	users map[string]*users.User
}

func newMemoryUserStore() *memoryUserStore {
	return &memoryUserStore{users: make(map[string]*users.User)}
}

func (m *memoryUserStore) GetByExternalID(_ context.Context, externalID string) (*users.User, error) {
	return m.users[externalID], nil
}

func (m *memoryUserStore) Upsert(_ context.Context, p users.UpsertPayload) (*users.User, error) {
	u, ok := m.users[p.UserID]
	if !ok {
		u = &users.User{ID: "uid-" + p.UserID, UserID: p.UserID, CompanyID: p.CompanyID}
		m.users[p.UserID] = u
	}
	u.TotalDepositAmount = u.TotalDepositAmount.Add(p.TotalDepositAmount)
	u.TotalWithdrawalAmount = u.TotalWithdrawalAmount.Add(p.TotalWithdrawalAmount)
	u.TotalWinningAmount = u.TotalWinningAmount.Add(p.TotalWinningAmount)
	u.NumberOfDeposits += p.NumberOfDeposits
	return u, nil
}

func (m *memoryUserStore) AssignAgent(_ context.Context, externalID, agentID string) error {
	if u, ok := m.users[externalID]; ok {
		u.AgentID = &agentID
	}
	return nil
}

func testCompany() *companies.Company {
	return &companies.Company{ID: "co-1", Name: "Skyexch"}
}

func testResolver() *users.Resolver {
	return users.NewResolver(newMemoryUserStore())
}

func TestTransformPayinRow(t *testing.T) {
	row := fileparse.Row{
		"Id":               "TXN-1001",
		"User":             "player7",
		"Updated At":       "03/04/2025 10:30:00",
		"Recieved Amount":  "1500.50",
		"Requested Amount": "1500.00",
		"Status":           "success",
		"Bank UTR":         "UTR998877",
	}
	rec, err := TransformerFor(SheetTypePayin)(context.Background(), row, testCompany(), testResolver())
	require.NoError(t, err)

	assert.Equal(t, "uid-player7", rec.UserID)
	assert.Equal(t, "co-1", rec.CompanyID)
	assert.Equal(t, constants.TypePayin, rec.Type)
	assert.Equal(t, constants.StatusSuccess, rec.Status)
	assert.True(t, rec.Amount.Equal(decimal.RequireFromString("1500.50")))
	// day-first: 3 April, not 4 March
	assert.Equal(t, time.April, rec.PlayedAt.Month())
	assert.Equal(t, 3, rec.PlayedAt.Day())
	assert.Equal(t, "TXN-1001", rec.Config["original_id"])
	assert.Equal(t, "UTR998877", rec.Config["bank_utr"])
	assert.Equal(t, "Skyexch", rec.Config["selected_company_name"])
}

func TestTransformPayinFallsBackToRequestedAmount(t *testing.T) {
	row := fileparse.Row{"User": "p1", "Requested Amount": "200"}
	rec, err := TransformerFor(SheetTypePayin)(context.Background(), row, testCompany(), testResolver())
	require.NoError(t, err)
	assert.True(t, rec.Amount.Equal(decimal.NewFromInt(200)))
	assert.Equal(t, constants.StatusPending, rec.Status)
}

func TestTransformPayoutApprovedBecomesSuccess(t *testing.T) {
	row := fileparse.Row{
		"User":             "p2",
		"Requested Amount": "900",
		"Status":           "Approved",
		"SNO":              "17",
	}
	rec, err := TransformerFor(SheetTypePayout)(context.Background(), row, testCompany(), testResolver())
	require.NoError(t, err)
	assert.Equal(t, constants.TypePayout, rec.Type)
	assert.Equal(t, constants.StatusSuccess, rec.Status)
	assert.Equal(t, "17", rec.Config["sno"])
}

func TestTransformManualWithdrawRow(t *testing.T) {
	row := fileparse.Row{
		"UserName":     "p3",
		"WithdrawName": "cashout",
		"PaymentDate":  "2025-06-01 12:00:00",
		"AccountData":  "bank xyz",
		"Amount":       "450",
		"Remark":       "ok",
	}
	rec, err := TransformerFor(SheetTypeManualWithdraw)(context.Background(), row, testCompany(), testResolver())
	require.NoError(t, err)
	assert.Equal(t, constants.TypeManualWithdraw, rec.Type)
	assert.True(t, rec.Amount.Equal(decimal.NewFromInt(450)))
	assert.Equal(t, "cashout", rec.Config["withdraw_name"])
	assert.Equal(t, "Skyexch", rec.Config["merchant_code"])
}

func TestTransformDepositSheetAliases(t *testing.T) {
	row := fileparse.Row{
		"ID NAME": "p4",
		"DATE":    "01-06-2025",
		"AMOUNT":  "not-a-number",
		"UTR":     "U1",
		"REFILL":  "yes",
	}
	rec, err := TransformerFor(SheetTypeDepositSheet)(context.Background(), row, testCompany(), testResolver())
	require.NoError(t, err)
	assert.Equal(t, constants.TypeDeposit, rec.Type)
	assert.True(t, rec.Amount.IsZero(), "unparseable amount must default to zero")
	assert.Equal(t, "yes", rec.Config["refill"])
}

func TestTransformDepositSheetMissingUser(t *testing.T) {
	row := fileparse.Row{"DATE": "01-06-2025", "AMOUNT": "5"}
	_, err := TransformerFor(SheetTypeDepositSheet)(context.Background(), row, testCompany(), testResolver())
	assert.Error(t, err)
}

func TestTransformWithdrawalSheetRow(t *testing.T) {
	row := fileparse.Row{
		"ID NAME": "p5",
		"Date":    "02/06/2025",
		"Amount":  "75.25",
		"POINT":   "10",
	}
	rec, err := TransformerFor(SheetTypeWithdrawalSheet)(context.Background(), row, testCompany(), testResolver())
	require.NoError(t, err)
	assert.Equal(t, constants.TypeWithdrawal, rec.Type)
	assert.Equal(t, "10", rec.Config["point"])
}

func TestTransformGenericRow(t *testing.T) {
	row := fileparse.Row{
		"User":   "p6",
		"Amount": "33",
		"Date":   "2025-05-05",
		"Extra":  "kept",
	}
	rec, err := TransformerFor(SheetTypeGameHistory)(context.Background(), row, testCompany(), testResolver())
	require.NoError(t, err)
	assert.Equal(t, "GAME_HISTORY", rec.Type)
	assert.Equal(t, constants.StatusCompleted, rec.Status)
	original := rec.Config["original_data"].(map[string]interface{})
	assert.Equal(t, "kept", original["Extra"])
}

func TestTransformGenericRowNoUser(t *testing.T) {
	row := fileparse.Row{"Amount": "33"}
	_, err := TransformerFor(SheetTypeUnknown)(context.Background(), row, testCompany(), testResolver())
	assert.Error(t, err)
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"1,500.50", "1500.5"},
		{"-42", "42"},
		{"", "0"},
		{"abc", "0"},
		{" 7 ", "7"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parseAmount(tt.raw).String(), "raw=%q", tt.raw)
	}
}
