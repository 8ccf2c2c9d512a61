package history

import (
	"strings"

	"PanelLedger/internal/fileparse"
)

// DetectSheetType classifies a sheet by its header names and sheet name.
// Pure function; case-insensitive. The checks are ordered because header
// sets overlap: the four-column manual-withdraw signature is the most
// specific and must win even when the sheet name suggests otherwise, then
// sheet-name hints, then format-distinctive columns, then generic keyword
// fallbacks.
func DetectSheetType(rows []fileparse.Row, headers []string, sheetName string) SheetType {
	if len(rows) == 0 {
		return SheetTypeUnknown
	}

	lower := make(map[string]bool, len(headers))
	for _, h := range headers {
		lower[strings.ToLower(strings.TrimSpace(h))] = true
	}
	lowerSheet := strings.ToLower(sheetName)

	if lower["username"] && lower["withdrawname"] && lower["paymentdate"] && lower["accountdata"] {
		return SheetTypeManualWithdraw
	}

	if strings.Contains(lowerSheet, "deposit") || (lower["id name"] && lower["refill"]) {
		return SheetTypeDepositSheet
	}

	if strings.Contains(lowerSheet, "withdrawal") || (lower["id name"] && lower["point"]) {
		return SheetTypeWithdrawalSheet
	}

	if lower["payin merchant commission"] || lower["bank utr"] || lower["recieved amount"] {
		return SheetTypePayin
	}

	if lower["payout commission"] || lower["sno"] || (lower["merchant order id"] && lower["requested amount"]) {
		return SheetTypePayout
	}

	if lower["transaction id"] && lower["wallet balance"] {
		return SheetTypeWalletStatement
	}

	if lower["game id"] || lower["game name"] {
		return SheetTypeGameHistory
	}

	if lower["bonus amount"] || lower["bonus type"] {
		return SheetTypeBonusHistory
	}

	return SheetTypeUnknown
}

// HeadersOf returns the header names of a sheet as seen by the detector:
// the keys of the first data row.
func HeadersOf(rows []fileparse.Row) []string {
	if len(rows) == 0 {
		return nil
	}
	headers := make([]string, 0, len(rows[0]))
	for k := range rows[0] {
		headers = append(headers, k)
	}
	return headers
}
