package httputil

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	errs "github.com/matzehuels/graphopt/pkg/errors"
)

// ErrorBody is the JSON shape of an error response.
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail carries the error code and a user-facing message.
type ErrorDetail struct {
	Code    errs.Code `json:"code"`
	Message string    `json:"message"`
}

var statusByCode = map[errs.Code]int{
	errs.ErrCodeInvalidInput:  http.StatusBadRequest,
	errs.ErrCodeInvalidFormat: http.StatusBadRequest,
	errs.ErrCodeInvalidConfig: http.StatusBadRequest,
	errs.ErrCodeInvalidPath:   http.StatusBadRequest,
	errs.ErrCodeInvalidGraph:  http.StatusUnprocessableEntity,
	errs.ErrCodeNotFound:      http.StatusNotFound,
	errs.ErrCodeUnsupported:   http.StatusNotImplemented,
}

// StatusFor returns the HTTP status for err.
func StatusFor(err error) int {
	if status, ok := statusByCode[errs.GetCode(err)]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// WriteJSON writes v as JSON with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError writes err as a JSON error response and returns the status used.
func WriteError(w http.ResponseWriter, err error) int {
	status := StatusFor(err)
	code := errs.GetCode(err)
	msg := errs.UserMessage(err)
	if status == http.StatusInternalServerError {
		if code == "" {
			code = errs.ErrCodeInternal
		}
		msg = "internal error"
	}
	WriteJSON(w, status, ErrorBody{Error: ErrorDetail{Code: code, Message: msg}})
	return status
}

// ReadBody reads r's body, failing with INVALID_INPUT if it exceeds limit
// bytes or is empty.
func ReadBody(w http.ResponseWriter, r *http.Request, limit int64) ([]byte, error) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, limit))
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return nil, errs.New(errs.ErrCodeInvalidInput, "request body exceeds %d bytes", limit)
	}
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidInput, err, "read request body")
	}
	if len(data) == 0 {
		return nil, errs.New(errs.ErrCodeInvalidInput, "request body is empty")
	}
	return data, nil
}
