package api

import (
	"encoding/json"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"PanelLedger/api/constants"
)

// RespondWithError sends the standard failure envelope.
func RespondWithError(w http.ResponseWriter, status int, errMsg string) {
	log.Println("[ERROR]", errMsg)
	w.Header().Set(constants.HeaderContentType, constants.ContentTypeJSON)
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": false,
		"error":   errMsg,
	})
}

// RespondWithPayload sends a success envelope with the given payload fields.
func RespondWithPayload(w http.ResponseWriter, payload map[string]interface{}) {
	w.Header().Set(constants.HeaderContentType, constants.ContentTypeJSON)
	body := map[string]interface{}{"success": true}
	for k, v := range payload {
		body[k] = v
	}
	json.NewEncoder(w).Encode(body)
}

// RespondWithServiceError maps a service error to its HTTP status and sends
// the failure envelope.
func RespondWithServiceError(w http.ResponseWriter, err error) {
	RespondWithError(w, constants.StatusFor(err), err.Error())
}

// FileExt returns the lowercased extension of an uploaded file name.
func FileExt(filename string) string {
	return strings.ToLower(filepath.Ext(filename))
}

// IsSupportedImportExt reports whether the multi-format importer accepts the
// extension.
func IsSupportedImportExt(ext string) bool {
	for _, e := range constants.SupportedImportExtensions {
		if e == ext {
			return true
		}
	}
	return false
}

// SaveUploadedFile spools a multipart upload to a temp file and returns its
// path. The caller removes the file when done.
func SaveUploadedFile(fh *multipart.FileHeader) (string, error) {
	src, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	dst, err := os.CreateTemp("", "upload-*"+FileExt(fh.Filename))
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(dst.Name())
		return "", err
	}
	return dst.Name(), nil
}
