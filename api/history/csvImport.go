package history

import (
	"context"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"

	"PanelLedger/api/companies"
	"PanelLedger/api/constants"
	"PanelLedger/api/users"
	"PanelLedger/internal/config"
	"PanelLedger/internal/fileparse"
)

// ProcessAnyFile drives the multi-format import end to end for one uploaded
// file: parse, detect per sheet, transform per row collecting errors, insert
// survivors in batches. Only a bad file or a bad company aborts; everything
// else lands in the structured result.
func ProcessAnyFile(ctx context.Context, pool *pgxpool.Pool, filePath, companyID, ext string) (*ImportResult, error) {
	if companyID == "" {
		return nil, constants.NewBadRequestError(constants.ErrCompanyIDRequired)
	}

	sheets, err := fileparse.ParseFile(filePath, ext)
	if err != nil {
		return nil, err
	}

	company, err := companies.GetCompanyByID(ctx, pool, companyID)
	if err != nil {
		return nil, fmt.Errorf("lookup company %s: %w", companyID, err)
	}
	if company == nil {
		return nil, constants.NewNotFoundError(fmt.Sprintf("company with ID %s not found", companyID))
	}

	store := NewPgStore(pool)
	resolver := users.NewResolver(users.NewPgStore(pool))
	return processSheets(ctx, store, resolver, sheets, company), nil
}

// processSheets runs detection, transformation and batched insertion over
// parsed sheets. A bad row never aborts its sheet; a failing sheet never
// aborts the file.
func processSheets(ctx context.Context, store Store, resolver *users.Resolver, sheets []fileparse.Sheet, company *companies.Company) *ImportResult {
	result := &ImportResult{
		Sheets:         make(map[string]SheetResult),
		AllInsertedIDs: []string{},
	}

	for _, sheet := range sheets {
		if len(sheet.Rows) == 0 {
			continue
		}

		sheetType := DetectSheetType(sheet.Rows, HeadersOf(sheet.Rows), sheet.Name)
		transform := TransformerFor(sheetType)
		log.Printf("[INFO] sheet %q detected as %s (%d rows)", sheet.Name, sheetType, len(sheet.Rows))

		records := make([]Record, 0, len(sheet.Rows))
		errs := []RowError{}
		for i, row := range sheet.Rows {
			rec, err := transform(ctx, row, company, resolver)
			if err != nil {
				log.Printf("[ERROR] sheet %q row %d: %v", sheet.Name, i+1, err)
				errs = append(errs, RowError{Sheet: sheet.Name, Row: i + 1, Error: err.Error()})
				continue
			}
			records = append(records, *rec)
		}

		insertedIDs := make([]string, 0, len(records))
		for start := 0; start < len(records); start += config.BatchSize {
			end := start + config.BatchSize
			if end > len(records) {
				end = len(records)
			}
			ids, err := store.InsertRecords(ctx, records[start:end])
			if err != nil {
				log.Printf("[ERROR] sheet %q insert batch: %v", sheet.Name, err)
				errs = append(errs, RowError{Sheet: sheet.Name, Error: err.Error()})
				break
			}
			insertedIDs = append(insertedIDs, ids...)
		}

		result.Sheets[sheet.Name] = SheetResult{
			SheetType:   sheetType,
			Processed:   len(sheet.Rows),
			Inserted:    len(insertedIDs),
			Errors:      errs,
			InsertedIDs: insertedIDs,
		}
		result.TotalProcessed += len(sheet.Rows)
		result.TotalInserted += len(insertedIDs)
		result.TotalErrors += len(errs)
		result.AllInsertedIDs = append(result.AllInsertedIDs, insertedIDs...)
	}

	return result
}
