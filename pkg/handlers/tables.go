package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/songo-bi/songo-engine/pkg/catalog"
	"github.com/songo-bi/songo-engine/pkg/models"
	"github.com/songo-bi/songo-engine/pkg/services"
)

// TableSummary is a listing entry for a registered table.
type TableSummary struct {
	ID          uuid.UUID `json:"id"`
	DatabaseID  uuid.UUID `json:"database_id"`
	Name        string    `json:"name"`
	Schema      string    `json:"schema,omitempty"`
	ColumnCount int       `json:"column_count"`
}

// TablesHandler handles table catalog endpoints.
type TablesHandler struct {
	catalog     *catalog.Catalog
	dataService services.DataService
	logger      *zap.Logger
}

// NewTablesHandler creates a new TablesHandler.
func NewTablesHandler(cat *catalog.Catalog, dataService services.DataService, logger *zap.Logger) *TablesHandler {
	return &TablesHandler{catalog: cat, dataService: dataService, logger: logger}
}

// RegisterRoutes registers the tables handler's routes on the given mux.
func (h *TablesHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/tables", h.ListTables)
	mux.HandleFunc("GET /api/v1/tables/{id}", h.TableMetadata)
}

// ListTables handles GET /api/v1/tables requests.
// Returns summaries of every table registered in the catalog.
func (h *TablesHandler) ListTables(w http.ResponseWriter, r *http.Request) {
	tables := h.catalog.Tables()
	summaries := make([]TableSummary, 0, len(tables))
	for _, t := range tables {
		summaries = append(summaries, summarizeTable(t))
	}

	if err := WriteJSON(w, http.StatusOK, summaries); err != nil {
		h.logger.Error("Failed to encode tables response", zap.Error(err))
	}
}

// TableMetadata handles GET /api/v1/tables/{id} requests.
// Returns the table descriptor plus its row count and sample rows.
func (h *TablesHandler) TableMetadata(w http.ResponseWriter, r *http.Request) {
	tableID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid table ID")
		return
	}

	metadata, err := h.dataService.TableMetadata(r.Context(), tableID)
	if err != nil {
		h.logger.Warn("Table metadata request failed",
			zap.String("table_id", tableID.String()),
			zap.Error(err))
		_ = WriteServiceError(w, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, metadata); err != nil {
		h.logger.Error("Failed to encode table metadata response", zap.Error(err))
	}
}

func summarizeTable(t *models.Table) TableSummary {
	return TableSummary{
		ID:          t.ID,
		DatabaseID:  t.DatabaseID,
		Name:        t.Name,
		Schema:      t.Schema,
		ColumnCount: len(t.Columns),
	}
}
