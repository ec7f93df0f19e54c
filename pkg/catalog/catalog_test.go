package catalog

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/songo-bi/songo-engine/pkg/apperrors"
	"github.com/songo-bi/songo-engine/pkg/models"
)

func testDatabase() *models.Database {
	return &models.Database{
		ID:   uuid.New(),
		Name: "analytics",
		Type: "postgres",
		Config: map[string]any{
			"host":     "localhost",
			"database": "analytics",
			"user":     "bi",
		},
	}
}

func TestCatalog_RegisterDatabase(t *testing.T) {
	cat := New()
	db := testDatabase()
	require.NoError(t, cat.RegisterDatabase(db))

	got, err := cat.Database(context.Background(), db.ID)
	require.NoError(t, err)
	assert.Equal(t, "analytics", got.Name)

	_, err = cat.Database(context.Background(), uuid.New())
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestCatalog_RegisterDatabase_Invalid(t *testing.T) {
	cat := New()
	assert.Error(t, cat.RegisterDatabase(&models.Database{Name: "x", Type: "postgres"}), "missing id")
	assert.Error(t, cat.RegisterDatabase(&models.Database{ID: uuid.New(), Type: "postgres"}), "missing name")
	assert.Error(t, cat.RegisterDatabase(&models.Database{ID: uuid.New(), Name: "x"}), "missing type")
}

func TestCatalog_RegisterTable(t *testing.T) {
	cat := New()
	db := testDatabase()
	require.NoError(t, cat.RegisterDatabase(db))

	table := &models.Table{
		ID:         uuid.New(),
		DatabaseID: db.ID,
		Name:       "orders",
		Columns: []models.Column{
			{Name: "category", Type: "VARCHAR", Groupby: true, Filterable: true},
		},
	}
	require.NoError(t, cat.RegisterTable(table))

	got, err := cat.Table(context.Background(), table.ID)
	require.NoError(t, err)
	assert.Equal(t, "orders", got.Name)

	_, err = cat.Table(context.Background(), uuid.New())
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestCatalog_RegisterTable_UnknownDatabase(t *testing.T) {
	cat := New()
	table := &models.Table{
		ID:         uuid.New(),
		DatabaseID: uuid.New(),
		Name:       "orders",
	}
	assert.Error(t, cat.RegisterTable(table))
}

func TestCatalog_Tables_Sorted(t *testing.T) {
	cat := New()
	db := testDatabase()
	require.NoError(t, cat.RegisterDatabase(db))

	for _, name := range []string{"orders", "accounts", "items"} {
		require.NoError(t, cat.RegisterTable(&models.Table{
			ID:         uuid.New(),
			DatabaseID: db.ID,
			Name:       name,
		}))
	}

	tables := cat.Tables()
	require.Len(t, tables, 3)
	assert.Equal(t, "accounts", tables[0].Name)
	assert.Equal(t, "items", tables[1].Name)
	assert.Equal(t, "orders", tables[2].Name)
}

func TestCatalog_ReplaceTables(t *testing.T) {
	cat := New()
	db := testDatabase()
	require.NoError(t, cat.RegisterDatabase(db))

	old := &models.Table{ID: uuid.New(), DatabaseID: db.ID, Name: "orders"}
	require.NoError(t, cat.RegisterTable(old))

	fresh := []*models.Table{
		{ID: uuid.New(), DatabaseID: db.ID, Name: "orders_v2"},
		{ID: uuid.New(), DatabaseID: db.ID, Name: "customers"},
	}
	require.NoError(t, cat.ReplaceTables(db.ID, fresh))

	_, err := cat.Table(context.Background(), old.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound, "old table dropped by refresh")
	assert.Len(t, cat.Tables(), 2)
}

func TestCatalog_ReplaceTables_WrongDatabase(t *testing.T) {
	cat := New()
	db := testDatabase()
	require.NoError(t, cat.RegisterDatabase(db))

	err := cat.ReplaceTables(db.ID, []*models.Table{
		{ID: uuid.New(), DatabaseID: uuid.New(), Name: "stray"},
	})
	assert.Error(t, err)
}
