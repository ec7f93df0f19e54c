package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const catalogYAML = `
databases:
  - name: analytics
    type: postgres
    cache_timeout: 600
    config:
      host: localhost
      port: 5432
      user: bi
      database: analytics
tables:
  - database: analytics
    name: orders
    schema: public
    columns:
      - name: category
        type: VARCHAR
      - name: total
        type: DECIMAL
        groupby: false
      - name: created_at
        type: DATE
        is_dttm: true
      - name: fiscal_quarter
        type: VARCHAR
        expression: "CONCAT('Q', QUARTER(created_at))"
`

func TestParse(t *testing.T) {
	cat, err := Parse([]byte(catalogYAML))
	require.NoError(t, err)

	tables := cat.Tables()
	require.Len(t, tables, 1)
	table := tables[0]
	assert.Equal(t, "orders", table.Name)
	assert.Equal(t, "public", table.Schema)
	require.Len(t, table.Columns, 4)

	// groupby/filterable default to true unless set
	cat0, ok := table.Column("category")
	require.True(t, ok)
	assert.True(t, cat0.Groupby)
	assert.True(t, cat0.Filterable)

	total, ok := table.Column("total")
	require.True(t, ok)
	assert.False(t, total.Groupby)

	created, ok := table.Column("created_at")
	require.True(t, ok)
	assert.True(t, created.IsDatetime)

	fq, ok := table.Column("fiscal_quarter")
	require.True(t, ok)
	assert.Equal(t, "CONCAT('Q', QUARTER(created_at))", fq.Expression)

	db, err := cat.Database(context.Background(), table.DatabaseID)
	require.NoError(t, err)
	assert.Equal(t, "analytics", db.Name)
	assert.Equal(t, "postgres", db.Type)
	assert.Equal(t, 600, db.CacheTimeout)
}

func TestParse_DerivedIDsAreStable(t *testing.T) {
	cat1, err := Parse([]byte(catalogYAML))
	require.NoError(t, err)
	cat2, err := Parse([]byte(catalogYAML))
	require.NoError(t, err)

	assert.Equal(t, cat1.Tables()[0].ID, cat2.Tables()[0].ID,
		"same file must derive the same table id")
}

func TestParse_UnknownDatabaseRef(t *testing.T) {
	_, err := Parse([]byte(`
tables:
  - database: nope
    name: orders
`))
	assert.Error(t, err)
}

func TestParse_InvalidExplicitID(t *testing.T) {
	_, err := Parse([]byte(`
databases:
  - id: not-a-uuid
    name: analytics
    type: postgres
`))
	assert.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(catalogYAML), 0o600))

	cat, err := LoadFile(path)
	require.NoError(t, err)
	assert.Len(t, cat.Tables(), 1)

	_, err = LoadFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}
