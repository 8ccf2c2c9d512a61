package fileparse

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "upload.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestParseFileUnsupportedExtension(t *testing.T) {
	_, err := ParseFile("whatever.bin", ".bin")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	// Validation happens before any file access.
	_, err = ParseFile("does-not-exist.txt", "txt")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestParseFileMissingCSV(t *testing.T) {
	_, err := ParseFile(filepath.Join(t.TempDir(), "nope.csv"), ".csv")
	assert.ErrorIs(t, err, ErrFileFormat)
}

func TestParseCSVSingleImplicitSheet(t *testing.T) {
	path := writeTempCSV(t, "User , Amount,Status\nalice, 100 ,SUCCESS\n\nbob,,PENDING\n")
	sheets, err := ParseFile(path, "csv")
	require.NoError(t, err)
	require.Len(t, sheets, 1)
	assert.Equal(t, "CSV", sheets[0].Name)

	rows := sheets[0].Rows
	require.Len(t, rows, 2)
	assert.Equal(t, "alice", rows[0]["User"])
	assert.Equal(t, "100", rows[0]["Amount"])
	assert.Equal(t, "SUCCESS", rows[0]["Status"])

	// Empty cells are omitted from the row map, not stored as "".
	_, ok := rows[1]["Amount"]
	assert.False(t, ok)
}

func TestParseCSVRaggedRows(t *testing.T) {
	path := writeTempCSV(t, "User,Amount\nalice,100,extra\nbob\n")
	sheets, err := ParseFile(path, ".csv")
	require.NoError(t, err)
	rows := sheets[0].Rows
	require.Len(t, rows, 2)
	assert.Equal(t, "100", rows[0]["Amount"])
	assert.Equal(t, "bob", rows[1]["User"])
}

func TestFindHeaderRowSkipsSummaryRows(t *testing.T) {
	raw := [][]string{
		{"Panel Export"},
		{"Generated", "2025-08-15"},
		{"SR.NO", "DATE", "AMOUNT", ""},
		{"1", "15/08/2025", "500", "note"},
		{"", "", "", ""},
		{"2", "16/08/2025", "750", ""},
	}
	idx, headers := findHeaderRow(raw)
	require.Equal(t, 2, idx)
	assert.Equal(t, []string{"SR.NO", "DATE", "AMOUNT", "Column_3"}, headers)

	sheet := sheetFromRaw("Deposit", raw)
	require.Len(t, sheet.Rows, 2)
	assert.Equal(t, "500", sheet.Rows[0]["AMOUNT"])
	assert.Equal(t, "note", sheet.Rows[0]["Column_3"])
	assert.Equal(t, "750", sheet.Rows[1]["AMOUNT"])
}

func TestFindHeaderRowKeywordIsCaseInsensitive(t *testing.T) {
	raw := [][]string{
		{"username", "amount", "remark"},
		{"alice", "10", "x"},
	}
	idx, _ := findHeaderRow(raw)
	assert.Equal(t, 0, idx)
}

func TestSheetFromRawFallsBackToFirstRow(t *testing.T) {
	raw := [][]string{
		{"ColA", "ColB"},
		{"1", "2"},
	}
	sheet := sheetFromRaw("Sheet1", raw)
	require.Len(t, sheet.Rows, 1)
	assert.Equal(t, "1", sheet.Rows[0]["ColA"])
	assert.Equal(t, "2", sheet.Rows[0]["ColB"])
}

func TestSheetFromRawEmptySheet(t *testing.T) {
	sheet := sheetFromRaw("Empty", nil)
	assert.Empty(t, sheet.Rows)
}

func TestNormalizeCell(t *testing.T) {
	assert.Equal(t, "ID NAME", normalizeCell(" ID  NAME "))
	assert.Equal(t, "", normalizeCell("    "))
}
