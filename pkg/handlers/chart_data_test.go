package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/songo-bi/songo-engine/pkg/adapters/datasource"
	"github.com/songo-bi/songo-engine/pkg/apperrors"
	"github.com/songo-bi/songo-engine/pkg/models"
	"github.com/songo-bi/songo-engine/pkg/services"
	"github.com/songo-bi/songo-engine/pkg/sqlbuilder"
	"github.com/songo-bi/songo-engine/pkg/viz"
)

func shapedRecords(t *testing.T, result *datasource.QueryResult) []viz.Record {
	t.Helper()
	records, err := viz.Shape(result, models.VizTypeTable)
	require.NoError(t, err)
	return records
}

func newChartServer(t *testing.T, svc *fakeDataService) *http.ServeMux {
	t.Helper()
	mux := http.NewServeMux()
	NewChartDataHandler(svc, zaptest.NewLogger(t)).RegisterRoutes(mux)
	return mux
}

func TestChartData_Success(t *testing.T) {
	result := &datasource.QueryResult{
		Columns: []datasource.ColumnInfo{
			{Name: "category", Type: "VARCHAR"},
			{Name: "revenue", Type: "NUMERIC"},
		},
		Rows:     [][]any{{"books", 120.5}, {"games", 80.0}},
		RowCount: 2,
	}
	svc := &fakeDataService{chartData: &services.ChartData{
		Query:    `SELECT category, SUM(total) AS "revenue" FROM orders GROUP BY category LIMIT 100`,
		Columns:  []string{"category", "revenue"},
		Data:     shapedRecords(t, result),
		RowCount: 2,
		IsCached: true,
	}}
	mux := newChartServer(t, svc)

	body, err := json.Marshal(models.ChartRequest{
		DatasourceID: uuid.New(),
		Groupby:      []models.ColumnRef{{Name: "category"}},
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/chart/data", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Query    string           `json:"query"`
		Columns  []string         `json:"columns"`
		Data     []map[string]any `json:"data"`
		RowCount int              `json:"row_count"`
		IsCached bool             `json:"is_cached"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []string{"category", "revenue"}, resp.Columns)
	assert.Len(t, resp.Data, 2)
	assert.Equal(t, "books", resp.Data[0]["category"])
	assert.Equal(t, 2, resp.RowCount)
	assert.True(t, resp.IsCached)
}

func TestChartData_InvalidBody(t *testing.T) {
	mux := newChartServer(t, &fakeDataService{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/chart/data", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid_request")
}

func TestChartData_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "unknown datasource",
			err:        fmt.Errorf("table %s: %w", uuid.New(), apperrors.ErrNotFound),
			wantStatus: http.StatusNotFound,
			wantCode:   "not_found",
		},
		{
			name:       "database unavailable",
			err:        fmt.Errorf("resolving connection: %w", apperrors.ErrConnectionUnavailable),
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   "connection_unavailable",
		},
		{
			name:       "unknown column",
			err:        fmt.Errorf("building query: %w", sqlbuilder.ErrUnknownColumn),
			wantStatus: http.StatusBadRequest,
			wantCode:   "invalid_request",
		},
		{
			name:       "unsupported viz type",
			err:        fmt.Errorf("shaping: %w", apperrors.ErrUnsupportedVizType),
			wantStatus: http.StatusBadRequest,
			wantCode:   "invalid_request",
		},
		{
			name:       "execution failure",
			err:        fmt.Errorf("query failed: connection reset"),
			wantStatus: http.StatusBadRequest,
			wantCode:   "query_failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux := newChartServer(t, &fakeDataService{chartErr: tt.err})

			body, err := json.Marshal(models.ChartRequest{DatasourceID: uuid.New()})
			require.NoError(t, err)

			req := httptest.NewRequest(http.MethodPost, "/api/v1/chart/data", bytes.NewReader(body))
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantCode)
		})
	}
}
