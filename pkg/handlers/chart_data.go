package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/songo-bi/songo-engine/pkg/models"
	"github.com/songo-bi/songo-engine/pkg/services"
)

// ChartDataHandler handles chart data query endpoints.
type ChartDataHandler struct {
	dataService services.DataService
	logger      *zap.Logger
}

// NewChartDataHandler creates a new ChartDataHandler.
func NewChartDataHandler(dataService services.DataService, logger *zap.Logger) *ChartDataHandler {
	return &ChartDataHandler{dataService: dataService, logger: logger}
}

// RegisterRoutes registers the chart data handler's routes on the given mux.
func (h *ChartDataHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/chart/data", h.ChartData)
}

// ChartData handles POST /api/v1/chart/data requests.
// Builds a SQL query from the chart request, executes it against the
// datasource's database, and returns the shaped rows.
func (h *ChartDataHandler) ChartData(w http.ResponseWriter, r *http.Request) {
	var req models.ChartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}

	result, err := h.dataService.ChartData(r.Context(), &req)
	if err != nil {
		h.logger.Warn("Chart data request failed",
			zap.String("datasource_id", req.DatasourceID.String()),
			zap.Error(err))
		_ = WriteServiceError(w, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, result); err != nil {
		h.logger.Error("Failed to encode chart data response", zap.Error(err))
	}
}
