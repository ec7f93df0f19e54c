package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/songo-bi/songo-engine/pkg/services"
)

// ExecuteSQLRequest is the request body for ad-hoc SQL execution.
type ExecuteSQLRequest struct {
	DatabaseID uuid.UUID `json:"database_id"`
	SQL        string    `json:"sql"`
	Limit      int       `json:"limit,omitempty"`
}

// ExecuteSQLResponse contains the result of an ad-hoc SQL query.
type ExecuteSQLResponse struct {
	Columns  []string `json:"columns"`
	Rows     [][]any  `json:"rows"`
	RowCount int      `json:"row_count"`
}

// SQLLabHandler handles ad-hoc SQL execution endpoints.
type SQLLabHandler struct {
	dataService services.DataService
	logger      *zap.Logger
}

// NewSQLLabHandler creates a new SQLLabHandler.
func NewSQLLabHandler(dataService services.DataService, logger *zap.Logger) *SQLLabHandler {
	return &SQLLabHandler{dataService: dataService, logger: logger}
}

// RegisterRoutes registers the SQL lab handler's routes on the given mux.
func (h *SQLLabHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/sql/execute", h.ExecuteSQL)
}

// ExecuteSQL handles POST /api/v1/sql/execute requests.
// Runs a single SQL statement against the given database with a row limit.
func (h *SQLLabHandler) ExecuteSQL(w http.ResponseWriter, r *http.Request) {
	var req ExecuteSQLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}
	if req.DatabaseID == uuid.Nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_request", "database_id is required")
		return
	}

	result, err := h.dataService.ExecuteSQL(r.Context(), req.DatabaseID, req.SQL, req.Limit)
	if err != nil {
		h.logger.Warn("SQL execution failed",
			zap.String("database_id", req.DatabaseID.String()),
			zap.Error(err))
		_ = WriteServiceError(w, err)
		return
	}

	response := ExecuteSQLResponse{
		Columns:  result.ColumnNames(),
		Rows:     result.Rows,
		RowCount: result.RowCount,
	}
	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to encode SQL execution response", zap.Error(err))
	}
}
