package history

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PanelLedger/internal/fileparse"
)

func TestProcessSheetsThreeSheetWorkbook(t *testing.T) {
	sheets := []fileparse.Sheet{
		{
			Name: "Payin",
			Rows: []fileparse.Row{
				{"User": "p1", "Recieved Amount": "100", "Updated At": "01/06/2025", "Status": "SUCCESS"},
				{"User": "p2", "Bank UTR": "U77", "Updated At": "01/06/2025"}, // no amount
			},
		},
		{
			Name: "Mystery",
			Rows: []fileparse.Row{
				{"User": "p3", "Something": "else"},
			},
		},
		{
			Name: "Empty",
			Rows: nil,
		},
	}

	store := newMemoryHistoryStore()
	result := processSheets(context.Background(), store, testResolver(), sheets, testCompany())

	assert.Equal(t, 3, result.TotalProcessed)
	assert.Equal(t, 3, result.TotalInserted)
	assert.Equal(t, 0, result.TotalErrors)
	assert.Len(t, result.AllInsertedIDs, 3)

	require.Contains(t, result.Sheets, "Payin")
	payin := result.Sheets["Payin"]
	assert.Equal(t, SheetTypePayin, payin.SheetType)
	assert.Equal(t, 2, payin.Processed)
	assert.Equal(t, 2, payin.Inserted)

	require.Contains(t, result.Sheets, "Mystery")
	assert.Equal(t, SheetTypeUnknown, result.Sheets["Mystery"].SheetType)

	// empty sheet is skipped, not reported
	assert.NotContains(t, result.Sheets, "Empty")

	// missing amount inserts as zero rather than erroring
	var zeroAmounts int
	for _, r := range store.records {
		if r.Amount.IsZero() {
			zeroAmounts++
		}
	}
	assert.Equal(t, 2, zeroAmounts, "the no-amount payin row and the unknown row default to zero")
}

func TestProcessSheetsCollectsRowErrors(t *testing.T) {
	sheets := []fileparse.Sheet{
		{
			Name: "Deposit June",
			Rows: []fileparse.Row{
				{"ID NAME": "p1", "DATE": "01/06/2025", "AMOUNT": "50"},
				{"DATE": "01/06/2025", "AMOUNT": "60"}, // no user id
				{"ID NAME": "p2", "DATE": "01/06/2025", "AMOUNT": "70"},
			},
		},
	}

	store := newMemoryHistoryStore()
	result := processSheets(context.Background(), store, testResolver(), sheets, testCompany())

	assert.Equal(t, 3, result.TotalProcessed)
	assert.Equal(t, 2, result.TotalInserted)
	assert.Equal(t, 1, result.TotalErrors)

	sheet := result.Sheets["Deposit June"]
	assert.Equal(t, SheetTypeDepositSheet, sheet.SheetType)
	require.Len(t, sheet.Errors, 1)
	assert.Equal(t, 2, sheet.Errors[0].Row)
}

func TestProcessSheetsSharesResolverAcrossSheets(t *testing.T) {
	sheets := []fileparse.Sheet{
		{Name: "A", Rows: []fileparse.Row{{"User": "same", "Amount": "1"}}},
		{Name: "B", Rows: []fileparse.Row{{"User": "same", "Amount": "2"}}},
	}

	userStore := newMemoryUserStore()
	store := newMemoryHistoryStore()
	processSheets(context.Background(), store, newResolverOver(userStore), sheets, testCompany())

	assert.Len(t, userStore.users, 1, "one user entity across sheets")
	require.Len(t, store.records, 2)
	assert.Equal(t, store.records[0].UserID, store.records[1].UserID)
}
