package users

import (
	"encoding/json"
	"log"
	"net/http"
	"os"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"

	"PanelLedger/api"
	"PanelLedger/api/companies"
	"PanelLedger/api/constants"
	"PanelLedger/api/records"
	"PanelLedger/internal/fileparse"
	"PanelLedger/internal/serviceiface"
)

// pairingUploadExts is the pairing workflow's accepted set. It is wider than
// the importer's: panels hand out .pdf pairing lists that are filed as-is.
var pairingUploadExts = map[string]bool{
	constants.ExtCSV:  true,
	constants.ExtXLSX: true,
	constants.ExtXLS:  true,
	constants.ExtPDF:  true,
}

// CreateUsersHandler accepts a JSON array of pairing inputs.
func CreateUsersHandler(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var items []PairingInput
		if err := json.NewDecoder(r.Body).Decode(&items); err != nil {
			api.RespondWithError(w, http.StatusBadRequest, constants.ErrInvalidJSON)
			return
		}
		if len(items) == 0 {
			api.RespondWithError(w, http.StatusBadRequest, constants.ErrNoRecordsToProcess)
			return
		}

		result, err := CreateUsers(r.Context(), pool, items)
		if err != nil {
			api.RespondWithServiceError(w, err)
			return
		}
		api.RespondWithPayload(w, map[string]interface{}{
			"created_count": result.CreatedCount,
			"paired_count":  result.PairedCount,
			"skipped_count": result.SkippedCount,
			"errors":        result.Errors,
		})
	}
}

// UploadPairingFile accepts a tabular pairing file (or a .pdf, which is only
// filed, never parsed) plus a default company name.
func UploadPairingFile(pool *pgxpool.Pool) http.HandlerFunc {
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
		if !pairingUploadExts[ext] {
			api.RespondWithError(w, http.StatusBadRequest, constants.ErrUnsupportedFormat+": "+ext)
			return
		}

		if ext == constants.ExtPDF {
			logPairingUpload(r, pool, loginUserID, companyName, fh.Filename)
			api.RespondWithPayload(w, map[string]interface{}{
				"created_count": 0,
				"paired_count":  0,
				"skipped_count": 0,
				"filed":         fh.Filename,
			})
			return
		}

		path, err := api.SaveUploadedFile(fh)
		if err != nil {
			api.RespondWithError(w, http.StatusInternalServerError, "Failed to store upload: "+err.Error())
			return
		}
		defer os.Remove(path)

		sheets, err := fileparse.ParseFile(path, ext)
		if err != nil {
			api.RespondWithServiceError(w, err)
			return
		}

		items := []PairingInput{}
		for _, sheet := range sheets {
			items = append(items, PairingsFromRows(sheet.Rows, companyName)...)
		}

		result, err := CreateUsers(r.Context(), pool, items)
		if err != nil {
			api.RespondWithServiceError(w, err)
			return
		}
		logPairingUpload(r, pool, loginUserID, companyName, fh.Filename)

		api.RespondWithPayload(w, map[string]interface{}{
			"created_count": result.CreatedCount,
			"paired_count":  result.PairedCount,
			"skipped_count": result.SkippedCount,
			"errors":        result.Errors,
		})
	}
}

func logPairingUpload(r *http.Request, pool *pgxpool.Pool, loginUserID, companyName, fileName string) {
	company, err := companies.GetOrCreateCompany(r.Context(), pool, companyName)
	if err != nil {
		log.Printf("[ERROR] resolving company %s for upload record: %v", companyName, err)
		return
	}
	if _, err := records.CreateRecord(r.Context(), pool, loginUserID, company.ID, fileName); err != nil {
		log.Printf("[ERROR] recording pairing upload %s: %v", fileName, err)
	}
}

// StartUsersService serves the pairing endpoints.
func StartUsersService(pool *pgxpool.Pool) {
	r := mux.NewRouter()
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		api.RespondWithError(w, http.StatusMethodNotAllowed, constants.ErrMethodNotAllowed)
	})
	r.HandleFunc("/users", CreateUsersHandler(pool)).Methods("POST")
	r.HandleFunc("/users/upload", UploadPairingFile(pool)).Methods("POST")

	log.Println("Users Service started on :5243")
	if err := http.ListenAndServe(":5243", r); err != nil {
		log.Fatalf("Users Service failed: %v", err)
	}
}

// UsersService is the lifecycle wrapper started by the app manager.
type UsersService struct {
	pool *pgxpool.Pool
}

func NewUsersService(pool *pgxpool.Pool) serviceiface.Service {
	return &UsersService{pool: pool}
}

func (s *UsersService) Name() string {
	return "users"
}

func (s *UsersService) Start() error {
	go StartUsersService(s.pool)
	return nil
}

func (s *UsersService) Stop() error {
	return nil
}
