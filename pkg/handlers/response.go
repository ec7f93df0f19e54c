package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/songo-bi/songo-engine/pkg/apperrors"
	enginesql "github.com/songo-bi/songo-engine/pkg/sql"
	"github.com/songo-bi/songo-engine/pkg/sqlbuilder"
)

// ErrorResponse writes a JSON error response and returns any encoding error.
func ErrorResponse(w http.ResponseWriter, statusCode int, errorCode, message string) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(map[string]string{
		"error":   errorCode,
		"message": message,
	})
}

// WriteJSON writes a JSON response and returns any encoding error.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	if statusCode != http.StatusOK {
		w.WriteHeader(statusCode)
	}
	return json.NewEncoder(w).Encode(data)
}

// WriteServiceError maps engine errors to HTTP responses:
// unknown datasource/table → 404, no connection for the database → 503,
// everything else (build errors, invalid requests, backend failures) → 400.
func WriteServiceError(w http.ResponseWriter, err error) error {
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		return ErrorResponse(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, apperrors.ErrConnectionUnavailable):
		return ErrorResponse(w, http.StatusServiceUnavailable, "connection_unavailable", err.Error())
	case errors.Is(err, sqlbuilder.ErrUnknownColumn),
		errors.Is(err, sqlbuilder.ErrEmptyTableName),
		errors.Is(err, enginesql.ErrMultipleStatements),
		errors.Is(err, enginesql.ErrEmptyStatement),
		errors.Is(err, apperrors.ErrUnsupportedVizType):
		return ErrorResponse(w, http.StatusBadRequest, "invalid_request", err.Error())
	default:
		return ErrorResponse(w, http.StatusBadRequest, "query_failed", err.Error())
	}
}
