package response

import (
	"encoding/json"
	"errors"
	"net/http"

	"gitlab.com/mips-autograder.net/internal/core/ports/primary"
	"gitlab.com/mips-autograder.net/internal/static/errs"
)

type ErrorMessage struct {
	Success    bool   `json:"success"`
	Message    string `json:"error"`
	StatusCode int    `json:"status_code"`
}

func WriteError(w http.ResponseWriter, err ErrorMessage) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.StatusCode)
	_ = json.NewEncoder(w).Encode(err)
}

func WriteSuccess(w http.ResponseWriter, data interface{}) {
	WriteJSON(w, http.StatusOK, data)
}

func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// Fail writes a client error with the given status.
func Fail(w http.ResponseWriter, statusCode int, message string) {
	WriteError(w, ErrorMessage{Message: message, StatusCode: statusCode})
}

// StatusFor maps service errors onto HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, errs.ErrValidation),
		errors.Is(err, errs.EmailRequired),
		errors.Is(err, errs.EmailDomainDenied),
		errors.Is(err, errs.PasswordTooShort):
		return http.StatusBadRequest
	case errors.Is(err, errs.ErrUnauthorized),
		errors.Is(err, errs.InvalidCredentials),
		errors.Is(err, errs.AccountDisabled):
		return http.StatusUnauthorized
	case errors.Is(err, errs.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, errs.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, errs.ErrConflict):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// FromError writes err with its mapped status. Internal errors are logged and
// never leak their text to the client.
func FromError(w http.ResponseWriter, logger primary.Logger, msg string, err error) {
	code := StatusFor(err)
	if code == http.StatusInternalServerError {
		logger.Error(msg, "error", err)
		Fail(w, code, msg)
		return
	}
	Fail(w, code, err.Error())
}
