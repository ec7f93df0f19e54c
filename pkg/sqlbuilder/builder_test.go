package sqlbuilder

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/songo-bi/songo-engine/pkg/models"
)

func ordersTable() *models.Table {
	return &models.Table{
		ID:         uuid.New(),
		DatabaseID: uuid.New(),
		Name:       "orders",
		Columns: []models.Column{
			{Name: "category", Type: "VARCHAR", Groupby: true, Filterable: true},
			{Name: "region", Type: "VARCHAR", Groupby: true, Filterable: true},
			{Name: "total", Type: "DECIMAL", Filterable: true},
			{Name: "created_at", Type: "DATE", IsDatetime: true, Filterable: true},
			{Name: "fiscal_year", Type: "INTEGER", Groupby: true, Expression: "EXTRACT(YEAR FROM created_at)"},
		},
	}
}

func TestBuild_GroupbyWithMetric(t *testing.T) {
	req := &models.ChartRequest{
		Groupby:  []models.ColumnRef{models.NamedColumn("category")},
		Metrics:  []models.Metric{{Expression: "SUM(total)", Label: "revenue"}},
		RowLimit: 5,
	}

	sql, err := Build(ordersTable(), req)
	require.NoError(t, err)
	assert.Equal(t, `SELECT category, SUM(total) AS "revenue" FROM orders GROUP BY category LIMIT 5`, sql)
}

func TestBuild_OrderByMetricLabel(t *testing.T) {
	req := &models.ChartRequest{
		Groupby:  []models.ColumnRef{models.NamedColumn("category")},
		Metrics:  []models.Metric{{Expression: "SUM(total)", Label: "revenue"}},
		OrderBy:  []models.OrderSpec{{Column: "revenue", Descending: true}},
		RowLimit: 5,
	}

	sql, err := Build(ordersTable(), req)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(sql, `ORDER BY revenue DESC LIMIT 5`), sql)
}

func TestBuild_Deterministic(t *testing.T) {
	table := ordersTable()
	req := &models.ChartRequest{
		Groupby: []models.ColumnRef{models.NamedColumn("category"), models.NamedColumn("region")},
		Metrics: []models.Metric{
			{Expression: "SUM(total)", Label: "revenue"},
			{Expression: "COUNT(*)", Label: "orders"},
		},
		Where:    "total > 0",
		Having:   "SUM(total) > 100",
		OrderBy:  []models.OrderSpec{{Column: "revenue", Descending: true}, {Column: "category"}},
		RowLimit: 100,
	}

	first, err := Build(table, req)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := Build(table, req)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestBuild_ClauseOmission(t *testing.T) {
	req := &models.ChartRequest{}

	sql, err := Build(ordersTable(), req)
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM orders", sql)
	for _, kw := range []string{"WHERE", "GROUP BY", "HAVING", "ORDER BY", "LIMIT"} {
		assert.NotContains(t, sql, kw)
	}
}

func TestBuild_ClauseOrder(t *testing.T) {
	req := &models.ChartRequest{
		Groupby:  []models.ColumnRef{models.NamedColumn("category")},
		Metrics:  []models.Metric{{Expression: "SUM(total)", Label: "revenue"}},
		Where:    "region = 'EMEA'",
		Having:   "SUM(total) > 1000",
		OrderBy:  []models.OrderSpec{{Column: "revenue", Descending: true}},
		RowLimit: 10,
	}

	sql, err := Build(ordersTable(), req)
	require.NoError(t, err)
	assert.Equal(t,
		`SELECT category, SUM(total) AS "revenue" FROM orders WHERE region = 'EMEA' GROUP BY category HAVING SUM(total) > 1000 ORDER BY revenue DESC LIMIT 10`,
		sql)
}

func TestBuild_SchemaQualifiedFrom(t *testing.T) {
	table := ordersTable()
	table.Schema = "sales"

	sql, err := Build(table, &models.ChartRequest{})
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM sales.orders", sql)
}

func TestBuild_ColumnExpressionOverride(t *testing.T) {
	req := &models.ChartRequest{
		Groupby: []models.ColumnRef{models.NamedColumn("fiscal_year")},
		Metrics: []models.Metric{{Expression: "SUM(total)", Label: "revenue"}},
	}

	sql, err := Build(ordersTable(), req)
	require.NoError(t, err)
	// SELECT uses the raw expression, GROUP BY keeps the column name.
	assert.Contains(t, sql, "SELECT EXTRACT(YEAR FROM created_at),")
	assert.Contains(t, sql, "GROUP BY fiscal_year")
}

func TestBuild_ExpressionGroupby(t *testing.T) {
	req := &models.ChartRequest{
		Groupby: []models.ColumnRef{models.ExpressionColumn("LOWER(region)", "region_lc")},
		Metrics: []models.Metric{{Expression: "COUNT(*)", Label: "n"}},
	}

	sql, err := Build(ordersTable(), req)
	require.NoError(t, err)
	assert.Contains(t, sql, "SELECT LOWER(region),")
	assert.Contains(t, sql, "GROUP BY LOWER(region)")
}

func TestBuild_MetricLabelDefaultsToExpression(t *testing.T) {
	req := &models.ChartRequest{
		Metrics: []models.Metric{{Expression: "COUNT(*)"}},
	}

	sql, err := Build(ordersTable(), req)
	require.NoError(t, err)
	assert.Equal(t, `SELECT COUNT(*) AS "COUNT(*)" FROM orders`, sql)
}

func TestBuild_UnknownGroupbyColumn(t *testing.T) {
	req := &models.ChartRequest{
		Groupby: []models.ColumnRef{models.NamedColumn("nope")},
	}

	_, err := Build(ordersTable(), req)
	assert.ErrorIs(t, err, ErrUnknownColumn)
}

func TestBuild_UnknownOrderByColumn(t *testing.T) {
	req := &models.ChartRequest{
		OrderBy: []models.OrderSpec{{Column: "nope"}},
	}

	_, err := Build(ordersTable(), req)
	assert.ErrorIs(t, err, ErrUnknownColumn)
}

func TestBuild_EmptyOrderByEntriesSkipped(t *testing.T) {
	req := &models.ChartRequest{
		OrderBy: []models.OrderSpec{{Column: ""}, {Column: "total", Descending: true}},
	}

	sql, err := Build(ordersTable(), req)
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM orders ORDER BY total DESC", sql)
}

func TestBuild_HavingWithoutGroupbyOmitted(t *testing.T) {
	req := &models.ChartRequest{Having: "SUM(total) > 10"}

	sql, err := Build(ordersTable(), req)
	require.NoError(t, err)
	assert.NotContains(t, sql, "HAVING")
}

func TestBuild_EmptyTableName(t *testing.T) {
	table := &models.Table{Name: "   "}
	_, err := Build(table, &models.ChartRequest{})
	assert.ErrorIs(t, err, ErrEmptyTableName)
}
