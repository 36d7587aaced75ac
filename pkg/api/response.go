package api

import (
	"encoding/json"
	"net/http"

	"github.com/NobleMathews/dev-versioner/pkg/errors"
	"github.com/NobleMathews/dev-versioner/pkg/report"
)

// StatusFor maps an error code to an HTTP status.
func StatusFor(code errors.Code) int {
	switch code {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidPackage, errors.ErrCodeUnsupportedEcosystem:
		return http.StatusBadRequest
	case errors.ErrCodeNotFound:
		return http.StatusNotFound
	case errors.ErrCodeUnsupportedVCSHost:
		return http.StatusUnprocessableEntity
	case errors.ErrCodeParse, errors.ErrCodeNetwork:
		return http.StatusBadGateway
	case errors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	body := report.NewErrorBody(err)
	writeJSON(w, StatusFor(body.Code), map[string]*report.ErrorBody{"error": body})
}
