/*
Package resp provides helper functions for constructing and sending HTTP JSON responses.

Status payloads are written as-is; errors use a coded envelope so clients can tell
a rate limit from a missing route.
*/
package resp

import (
	"encoding/json"
	"net/http"

	"cursorrelay/internal/pkg/errs"
	"cursorrelay/internal/pkg/logx"
)

// ErrorResponse is the JSON body returned for every coded error.
type ErrorResponse struct {
	// Code is the business error code, see the errs package.
	Code int `json:"code"`

	// Message is the readable error description.
	Message string `json:"message"`
}

// RespondJSON sets the Content-Type and writes payload with the given status.
func RespondJSON(w http.ResponseWriter, r *http.Request, httpStatus int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")

	response, err := json.Marshal(payload)
	if err != nil {
		logx.Error(
			err,
			"Error encoding JSON response",
			"http_status", httpStatus,
			"request_uri", r.RequestURI,
		)

		http.Error(w, "Error encoding JSON response", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(httpStatus)
	if _, err := w.Write(response); err != nil {
		logx.Warn("Failed to write JSON response", "error", err.Error())
	}
}

// RespondOK writes payload with HTTP 200.
func RespondOK(w http.ResponseWriter, r *http.Request, payload any) {
	RespondJSON(w, r, http.StatusOK, payload)
}

// RespondError writes the coded error envelope with the error's HTTP status.
func RespondError(w http.ResponseWriter, r *http.Request, customErr *errs.CustomError) {
	if customErr == nil {
		customErr = errs.NewError(errs.ErrUnknown)
	}

	RespondJSON(w, r, customErr.Status, ErrorResponse{
		Code:    customErr.Code,
		Message: customErr.Message,
	})
}
