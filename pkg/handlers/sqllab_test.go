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
	enginesql "github.com/songo-bi/songo-engine/pkg/sql"
)

func newSQLLabServer(t *testing.T, svc *fakeDataService) *http.ServeMux {
	t.Helper()
	mux := http.NewServeMux()
	NewSQLLabHandler(svc, zaptest.NewLogger(t)).RegisterRoutes(mux)
	return mux
}

func postSQL(t *testing.T, mux *http.ServeMux, body ExecuteSQLRequest) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/sql/execute", bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestExecuteSQL_Success(t *testing.T) {
	svc := &fakeDataService{sqlResult: &datasource.QueryResult{
		Columns: []datasource.ColumnInfo{
			{Name: "id", Type: "INTEGER"},
			{Name: "name", Type: "VARCHAR"},
		},
		Rows:     [][]any{{float64(1), "alpha"}},
		RowCount: 1,
	}}
	mux := newSQLLabServer(t, svc)
	databaseID := uuid.New()

	rec := postSQL(t, mux, ExecuteSQLRequest{
		DatabaseID: databaseID,
		SQL:        "SELECT id, name FROM users",
		Limit:      50,
	})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, databaseID, svc.gotDatabase)
	assert.Equal(t, "SELECT id, name FROM users", svc.gotSQL)
	assert.Equal(t, 50, svc.gotLimit)

	var resp ExecuteSQLResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []string{"id", "name"}, resp.Columns)
	assert.Equal(t, 1, resp.RowCount)
	require.Len(t, resp.Rows, 1)
	assert.Equal(t, "alpha", resp.Rows[0][1])
}

func TestExecuteSQL_MissingDatabaseID(t *testing.T) {
	mux := newSQLLabServer(t, &fakeDataService{})

	rec := postSQL(t, mux, ExecuteSQLRequest{SQL: "SELECT 1"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "database_id is required")
}

func TestExecuteSQL_InvalidBody(t *testing.T) {
	mux := newSQLLabServer(t, &fakeDataService{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sql/execute", strings.NewReader("not json"))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExecuteSQL_MultipleStatements(t *testing.T) {
	svc := &fakeDataService{sqlErr: fmt.Errorf("validating statement: %w", enginesql.ErrMultipleStatements)}
	mux := newSQLLabServer(t, svc)

	rec := postSQL(t, mux, ExecuteSQLRequest{
		DatabaseID: uuid.New(),
		SQL:        "SELECT 1; DROP TABLE users",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid_request")
}

func TestExecuteSQL_UnknownDatabase(t *testing.T) {
	svc := &fakeDataService{sqlErr: fmt.Errorf("database %s: %w", uuid.New(), apperrors.ErrNotFound)}
	mux := newSQLLabServer(t, svc)

	rec := postSQL(t, mux, ExecuteSQLRequest{
		DatabaseID: uuid.New(),
		SQL:        "SELECT 1",
	})

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
