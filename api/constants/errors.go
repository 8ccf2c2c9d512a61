package constants

import "net/http"

// HTTPError carries a user-facing message together with the status the
// gateway should respond with. Row-level transform failures never become
// HTTPErrors; they are collected in the per-sheet error lists instead.
type HTTPError struct {
	Status  int
	Message string
}

func (e *HTTPError) Error() string {
	return e.Message
}

func NewBadRequestError(msg string) *HTTPError {
	if msg == "" {
		msg = "Bad request"
	}
	return &HTTPError{Status: http.StatusBadRequest, Message: msg}
}

func NewNotFoundError(msg string) *HTTPError {
	if msg == "" {
		msg = "Not found"
	}
	return &HTTPError{Status: http.StatusNotFound, Message: msg}
}

func NewInternalServerError(msg string) *HTTPError {
	if msg == "" {
		msg = "Internal server error"
	}
	return &HTTPError{Status: http.StatusInternalServerError, Message: msg}
}

// StatusFor maps an error to the HTTP status a handler should write.
// Unknown error types are treated as internal failures.
func StatusFor(err error) int {
	if httpErr, ok := err.(*HTTPError); ok {
		return httpErr.Status
	}
	return http.StatusInternalServerError
}
