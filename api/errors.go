package api

import (
	"errors"
	"net/http"

	"github.com/dealforge/deal-engine/deals"
	"github.com/dealforge/deal-engine/factory"
	"github.com/dealforge/deal-engine/store/sqlite"
	"github.com/dealforge/deal-engine/waterfall"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
	// Fields is set for input validation failures.
	Fields []factory.ValidationError `json:"fields,omitempty"`
}

// IsClientError reports whether err was caused by the request.
func IsClientError(err error) bool {
	return errors.Is(err, factory.ErrInvalidInput) ||
		errors.Is(err, deals.ErrUnknownDealType) ||
		errors.Is(err, waterfall.ErrUnknownPreset) ||
		errors.Is(err, waterfall.ErrInvalidTiers)
}

// IsNotFound reports whether err means the resource does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, sqlite.ErrNotFound)
}

func statusFor(err error) int {
	switch {
	case IsNotFound(err):
		return http.StatusNotFound
	case IsClientError(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
		var verrs factory.ValidationErrors
		var verr *factory.ValidationError
		switch {
		case errors.As(err, &verrs):
			resp.Fields = verrs
		case errors.As(err, &verr):
			resp.Fields = []factory.ValidationError{*verr}
		}
	}
	writeJSON(w, status, resp)
}

// writeErrorFor picks the status from err.
func writeErrorFor(w http.ResponseWriter, message string, err error) {
	writeError(w, statusFor(err), message, err)
}
