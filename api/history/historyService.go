package history

import (
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"

	"PanelLedger/api"
	"PanelLedger/api/constants"
	"PanelLedger/api/records"
	"PanelLedger/internal/serviceiface"
)

// UploadCSVImport handles the multi-format import upload: one file plus the
// target company id. The response is always a 200 with the structured
// breakdown unless the file or company themselves are bad.
func UploadCSVImport(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			api.RespondWithError(w, http.StatusBadRequest, "Failed to parse multipart form")
			return
		}

		companyID := r.FormValue("company_id")
		if companyID == "" {
			api.RespondWithError(w, http.StatusBadRequest, constants.ErrCompanyIDRequired)
			return
		}

		file, fh, err := r.FormFile("file")
		if err != nil {
			api.RespondWithError(w, http.StatusBadRequest, constants.ErrNoFileUploaded)
			return
		}
		file.Close()

		ext := api.FileExt(fh.Filename)
		if !api.IsSupportedImportExt(ext) {
			api.RespondWithError(w, http.StatusBadRequest, constants.ErrUnsupportedFormat+": "+ext)
			return
		}

		path, err := api.SaveUploadedFile(fh)
		if err != nil {
			api.RespondWithError(w, http.StatusInternalServerError, "Failed to store upload: "+err.Error())
			return
		}
		defer os.Remove(path)

		result, err := ProcessAnyFile(r.Context(), pool, path, companyID, ext)
		if err != nil {
			api.RespondWithServiceError(w, err)
			return
		}

		log.Printf("[AUDIT] csv import company=%s file=%s processed=%d inserted=%d errors=%d",
			companyID, fh.Filename, result.TotalProcessed, result.TotalInserted, result.TotalErrors)
		api.RespondWithPayload(w, map[string]interface{}{
			"sheets":         result.Sheets,
			"totalProcessed": result.TotalProcessed,
			"totalInserted":  result.TotalInserted,
			"totalErrors":    result.TotalErrors,
			"allInsertedIds": result.AllInsertedIDs,
		})
	}
}

// UploadPanelLedger handles the strict panel-ledger upload: one file plus a
// company name to resolve or create.
func UploadPanelLedger(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			api.RespondWithError(w, http.StatusBadRequest, "Failed to parse multipart form")
			return
		}

		companyName := r.FormValue("company_name")
		if companyName == "" {
			api.RespondWithError(w, http.StatusBadRequest, constants.ErrCompanyRequired)
			return
		}
		loginUserID := r.FormValue("login_user_id")

		file, fh, err := r.FormFile("file")
		if err != nil {
			api.RespondWithError(w, http.StatusBadRequest, constants.ErrNoFileUploaded)
			return
		}
		file.Close()

		ext := api.FileExt(fh.Filename)
		if !api.IsSupportedImportExt(ext) {
			api.RespondWithError(w, http.StatusBadRequest, constants.ErrUnsupportedFormat+": "+ext)
			return
		}

		path, err := api.SaveUploadedFile(fh)
		if err != nil {
			api.RespondWithError(w, http.StatusInternalServerError, "Failed to store upload: "+err.Error())
			return
		}
		defer os.Remove(path)

		result, err := ImportPanelFile(r.Context(), pool, path, ext, companyName, loginUserID, fh.Filename)
		if err != nil {
			api.RespondWithServiceError(w, err)
			return
		}

		api.RespondWithPayload(w, map[string]interface{}{
			"insertedCount":  result.InsertedCount,
			"duplicateCount": result.DuplicateCount,
			"totalProcessed": result.TotalProcessed,
			"companyName":    result.CompanyName,
			"recordIds":      result.RecordIDs,
		})
	}
}

// CreateLedgerEntries accepts pre-parsed ledger entries as JSON, for callers
// that do their own file handling.
func CreateLedgerEntries(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			CompanyName string        `json:"company_name"`
			LoginUserID string        `json:"login_user_id"`
			FileName    string        `json:"file_name"`
			Entries     []LedgerEntry `json:"entries"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			api.RespondWithError(w, http.StatusBadRequest, constants.ErrInvalidJSON)
			return
		}

		result, err := ImportPanelLedger(r.Context(), pool, req.Entries, req.CompanyName, req.LoginUserID, req.FileName)
		if err != nil {
			api.RespondWithServiceError(w, err)
			return
		}
		api.RespondWithPayload(w, map[string]interface{}{
			"insertedCount":  result.InsertedCount,
			"duplicateCount": result.DuplicateCount,
			"totalProcessed": result.TotalProcessed,
			"companyName":    result.CompanyName,
			"recordIds":      result.RecordIDs,
		})
	}
}

// GetDailyAgentReport serves the 7-day agent partition on demand.
func GetDailyAgentReport(db *sql.DB) http.HandlerFunc {
	dao := NewReportsDAO(db)
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := dao.GetDailyAgentReport(r.Context())
		if err != nil {
			api.RespondWithServiceError(w, err)
			return
		}
		api.RespondWithPayload(w, map[string]interface{}{"report": rows})
	}
}

// GetImportRecords lists the upload audit trail for one company.
func GetImportRecords(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		companyID := r.URL.Query().Get("company_id")
		if companyID == "" {
			api.RespondWithError(w, http.StatusBadRequest, constants.ErrCompanyIDRequired)
			return
		}
		recs, err := records.GetRecordsByCompany(r.Context(), pool, companyID)
		if err != nil {
			api.RespondWithServiceError(w, err)
			return
		}
		api.RespondWithPayload(w, map[string]interface{}{"records": recs})
	}
}

// GetHourlySummaryReport serves the current business day's global totals.
func GetHourlySummaryReport(db *sql.DB) http.HandlerFunc {
	dao := NewReportsDAO(db)
	return func(w http.ResponseWriter, r *http.Request) {
		now := time.Now()
		summary, err := dao.GetHourlySummary(r.Context(), BusinessDate(now), now)
		if err != nil {
			api.RespondWithServiceError(w, err)
			return
		}
		api.RespondWithPayload(w, map[string]interface{}{"summary": summary})
	}
}

// StartHistoryService serves the import and report endpoints.
func StartHistoryService(pool *pgxpool.Pool, db *sql.DB) {
	r := mux.NewRouter()
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		api.RespondWithError(w, http.StatusMethodNotAllowed, constants.ErrMethodNotAllowed)
	})
	r.HandleFunc("/history/import/csv", UploadCSVImport(pool)).Methods("POST")
	r.HandleFunc("/history/import/ledger", UploadPanelLedger(pool)).Methods("POST")
	r.HandleFunc("/history/ledger", CreateLedgerEntries(pool)).Methods("POST")
	r.HandleFunc("/history/records", GetImportRecords(pool)).Methods("GET")
	r.HandleFunc("/history/reports/daily-agents", GetDailyAgentReport(db)).Methods("GET")
	r.HandleFunc("/history/reports/hourly-summary", GetHourlySummaryReport(db)).Methods("GET")

	log.Println("History Service started on :5143")
	if err := http.ListenAndServe(":5143", r); err != nil {
		log.Fatalf("History Service failed: %v", err)
	}
}

// HistoryService is the lifecycle wrapper started by the app manager.
type HistoryService struct {
	pool *pgxpool.Pool
	db   *sql.DB
}

func NewHistoryService(pool *pgxpool.Pool, db *sql.DB) serviceiface.Service {
	return &HistoryService{pool: pool, db: db}
}

func (s *HistoryService) Name() string {
	return "history"
}

func (s *HistoryService) Start() error {
	go StartHistoryService(s.pool, s.db)
	return nil
}

func (s *HistoryService) Stop() error {
	return nil
}
