package history

import (
	"context"
	"log"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"PanelLedger/api/companies"
	"PanelLedger/api/constants"
	"PanelLedger/api/records"
	"PanelLedger/api/users"
	"PanelLedger/internal/config"
	"PanelLedger/internal/dateparse"
	"PanelLedger/internal/fileparse"
)

// PanelDelimiters separate the two participants in a panel's from/to column.
var PanelDelimiters = []string{"→", "←", "<-", "->", "/", "\\"}

// requiredParticipants maps a company (lowercased) to the house account that
// must appear in every genuine ledger row of that panel. A file where the
// participant never appears is not that panel's export.
var requiredParticipants = map[string]string{
	"anna247": "admin",
}

// ErrNotPanelFile rejects a file whose mandated participant is absent from
// every row.
var ErrNotPanelFile = constants.NewBadRequestError(constants.ErrNotValidPanelFile)

// splitParticipants breaks a from/to string on any known delimiter and
// returns the trimmed non-empty parts.
func splitParticipants(fromTo string) []string {
	s := fromTo
	for _, d := range PanelDelimiters {
		s = strings.ReplaceAll(s, d, "\x00")
	}
	parts := []string{}
	for _, p := range strings.Split(s, "\x00") {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

// ParsePanelSheet is the strict transformer family: rows come in two shapes
// keyed on whether the sheet carries a "Date & Time" or a plain "Date"
// column. Rows whose participants fail the company's required-participant
// check are dropped; if the mandated participant never appears in a
// non-empty sheet, the whole file is rejected with ErrNotPanelFile.
func ParsePanelSheet(rows []fileparse.Row, companyName string) ([]LedgerEntry, error) {
	required := requiredParticipants[strings.ToLower(strings.TrimSpace(companyName))]

	entries := make([]LedgerEntry, 0, len(rows))
	seenRequired := false
	for _, row := range rows {
		entry, hasRequired := parsePanelRow(row, required)
		if hasRequired {
			seenRequired = true
		}
		if entry != nil {
			entries = append(entries, *entry)
		}
	}

	if required != "" && len(rows) > 0 && !seenRequired {
		return nil, ErrNotPanelFile
	}
	return entries, nil
}

// parsePanelRow maps one ledger row to an entry, or nil when the row is
// dropped. Debit > 0 raises the deposit counters, Credit > 0 raises the
// withdrawal and winning counters; both are computed unconditionally.
func parsePanelRow(row fileparse.Row, required string) (*LedgerEntry, bool) {
	fromTo := firstValue(row, "FromTo", "From → To", "From -> To", "From To", "From/To")
	parts := splitParticipants(fromTo)
	if len(parts) == 0 {
		return nil, false
	}

	hasRequired := false
	counterparty := ""
	for _, p := range parts {
		if required != "" && strings.EqualFold(p, required) {
			hasRequired = true
			continue
		}
		if counterparty == "" {
			counterparty = p
		}
	}
	if required != "" && !hasRequired {
		return nil, false
	}
	if counterparty == "" {
		return nil, hasRequired
	}

	dateRaw := firstValue(row, "Date & Time", "Date")
	playedDate, ok := dateparse.ToDateOnly(dateRaw)
	if !ok {
		playedDate = dateparse.ToTimestamp(dateRaw).Format(constants.DateFormat)
	}

	entry := LedgerEntry{
		UserID:         counterparty,
		LastPlayedDate: playedDate,
	}

	debit := parseAmount(firstValue(row, "Debit", "DEBIT"))
	credit := parseAmount(firstValue(row, "Credit", "CREDIT"))
	if debit.IsPositive() {
		entry.TotalDepositAmount = debit
		entry.NumberOfDeposits = 1
	}
	if credit.IsPositive() {
		entry.TotalWithdrawalAmount = credit
		entry.TotalWinningAmount = credit
	}
	return &entry, hasRequired
}

// ImportLedger runs dedup, user aggregation and batched insertion over
// parsed ledger entries. Duplicates are counted before the user upsert so a
// re-imported file never double-counts aggregates.
func ImportLedger(ctx context.Context, store Store, resolver *users.Resolver, entries []LedgerEntry, company *companies.Company, fingerprint FingerprintFunc) (*LedgerResult, error) {
	if fingerprint == nil {
		fingerprint = DefaultFingerprint
	}

	result := &LedgerResult{CompanyName: company.Name, RecordIDs: []string{}}

	for start := 0; start < len(entries); start += config.BatchSize {
		end := start + config.BatchSize
		if end > len(entries) {
			end = len(entries)
		}

		valid := make([]ResolvedLedgerEntry, 0, end-start)
		for _, entry := range entries[start:end] {
			dup, err := store.ExistsFingerprint(ctx, fingerprint(entry))
			if err != nil {
				log.Printf("[ERROR] dedup check for user %s: %v", entry.UserID, err)
				continue
			}
			if dup {
				result.DuplicateCount++
				log.Printf("[INFO] duplicate entry found for user: %s", entry.UserID)
				continue
			}

			user, err := resolver.Apply(ctx, users.UpsertPayload{
				UserID:                 entry.UserID,
				CompanyID:              company.ID,
				FirstTimeDepositAmount: entry.FirstTimeDepositAmount,
				NumberOfDeposits:       entry.NumberOfDeposits,
				TotalDepositAmount:     entry.TotalDepositAmount,
				TotalWinningAmount:     entry.TotalWinningAmount,
				TotalWithdrawalAmount:  entry.TotalWithdrawalAmount,
				AvailablePoints:        entry.AvailablePoints,
				LastPlayedDate:         &entry.LastPlayedDate,
			})
			if err != nil {
				log.Printf("[ERROR] resolving user %s: %v", entry.UserID, err)
				continue
			}
			valid = append(valid, ResolvedLedgerEntry{UserID: user.ID, Entry: entry})
		}

		ids, err := store.InsertLedgerEntries(ctx, company.ID, valid)
		if err != nil {
			return nil, err
		}
		result.RecordIDs = append(result.RecordIDs, ids...)
	}

	result.InsertedCount = len(result.RecordIDs)
	result.TotalProcessed = len(entries)
	return result, nil
}

// ImportPanelLedger is the bulk ledger entry point: get or create the
// company, import the entries, then log a records row for the upload.
func ImportPanelLedger(ctx context.Context, pool *pgxpool.Pool, entries []LedgerEntry, companyName, loginUserID, fileName string) (*LedgerResult, error) {
	if len(entries) == 0 {
		return nil, constants.NewBadRequestError(constants.ErrNoRecordsToProcess)
	}
	if strings.TrimSpace(companyName) == "" {
		return nil, constants.NewBadRequestError(constants.ErrCompanyRequired)
	}

	company, err := companies.GetOrCreateCompany(ctx, pool, companyName)
	if err != nil {
		return nil, err
	}

	store := NewPgStore(pool)
	resolver := users.NewResolver(users.NewPgStore(pool))
	result, err := ImportLedger(ctx, store, resolver, entries, company, DefaultFingerprint)
	if err != nil {
		return nil, err
	}

	if _, err := records.CreateRecord(ctx, pool, loginUserID, company.ID, fileName); err != nil {
		log.Printf("[ERROR] recording upload %s: %v", fileName, err)
	}

	log.Printf("[AUDIT] ledger import company=%s inserted=%d duplicates=%d processed=%d",
		company.Name, result.InsertedCount, result.DuplicateCount, result.TotalProcessed)
	return result, nil
}

// ImportPanelFile parses an uploaded panel export and imports every sheet's
// ledger rows.
func ImportPanelFile(ctx context.Context, pool *pgxpool.Pool, filePath, ext, companyName, loginUserID, fileName string) (*LedgerResult, error) {
	sheets, err := fileparse.ParseFile(filePath, ext)
	if err != nil {
		return nil, err
	}

	entries := []LedgerEntry{}
	for _, sheet := range sheets {
		sheetEntries, err := ParsePanelSheet(sheet.Rows, companyName)
		if err != nil {
			return nil, err
		}
		entries = append(entries, sheetEntries...)
	}
	return ImportPanelLedger(ctx, pool, entries, companyName, loginUserID, fileName)
}
