// Package sqlbuilder turns a chart request plus its table descriptor into a
// single SQL statement. Assembly is plain text: WHERE and HAVING predicates
// arrive as caller-validated SQL fragments and are passed through verbatim,
// so the builder performs no escaping. Build is pure; identical inputs
// always produce byte-identical SQL, which the cache layer relies on.
package sqlbuilder

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/songo-bi/songo-engine/pkg/models"
)

var (
	// ErrUnknownColumn indicates a groupby or order-by entry referenced a
	// column the table does not have and carried no expression fallback.
	ErrUnknownColumn = errors.New("unknown column")

	// ErrEmptyTableName indicates the table descriptor has no name.
	ErrEmptyTableName = errors.New("table name is empty")
)

// Build assembles the SQL statement for a chart request.
//
// Clause order is fixed: SELECT, FROM, WHERE, GROUP BY, HAVING, ORDER BY,
// LIMIT. Absent clauses are omitted entirely. HAVING is only emitted when
// a GROUP BY is present.
func Build(table *models.Table, req *models.ChartRequest) (string, error) {
	if strings.TrimSpace(table.Name) == "" {
		return "", ErrEmptyTableName
	}

	selectParts, groupParts, err := resolveGroupby(table, req.Groupby)
	if err != nil {
		return "", err
	}
	for _, m := range req.Metrics {
		selectParts = append(selectParts, fmt.Sprintf("%s AS %q", m.Expression, m.DisplayLabel()))
	}
	if len(selectParts) == 0 {
		selectParts = []string{"*"}
	}

	parts := []string{
		"SELECT " + strings.Join(selectParts, ", "),
		"FROM " + table.QualifiedName(),
	}

	if req.Where != "" {
		parts = append(parts, "WHERE "+req.Where)
	}

	if len(groupParts) > 0 {
		parts = append(parts, "GROUP BY "+strings.Join(groupParts, ", "))
		if req.Having != "" {
			parts = append(parts, "HAVING "+req.Having)
		}
	}

	orderParts, err := resolveOrderBy(table, req)
	if err != nil {
		return "", err
	}
	if len(orderParts) > 0 {
		parts = append(parts, "ORDER BY "+strings.Join(orderParts, ", "))
	}

	if req.RowLimit > 0 {
		parts = append(parts, "LIMIT "+strconv.Itoa(req.RowLimit))
	}

	return strings.Join(parts, " "), nil
}

// resolveGroupby maps groupby references to SELECT expressions and GROUP BY
// terms. Named references must exist in the table; the column's raw
// Expression override, when set, wins for the SELECT list while GROUP BY
// always uses the plain column name. Expression references pass through.
func resolveGroupby(table *models.Table, refs []models.ColumnRef) (selectParts, groupParts []string, err error) {
	for _, ref := range refs {
		if ref.IsExpression() {
			selectParts = append(selectParts, ref.Expression)
			groupParts = append(groupParts, ref.Expression)
			continue
		}

		col, ok := table.Column(ref.Name)
		if !ok {
			return nil, nil, fmt.Errorf("groupby column %q: %w", ref.Name, ErrUnknownColumn)
		}
		if col.Expression != "" {
			selectParts = append(selectParts, col.Expression)
		} else {
			selectParts = append(selectParts, col.Name)
		}
		groupParts = append(groupParts, col.Name)
	}
	return selectParts, groupParts, nil
}

// resolveOrderBy maps order entries to ORDER BY terms. A term may name a
// table column or a metric label. Entries with an empty column are skipped;
// a non-empty column matching neither is an error.
func resolveOrderBy(table *models.Table, req *models.ChartRequest) ([]string, error) {
	var parts []string
	for _, spec := range req.OrderBy {
		if spec.Column == "" {
			continue
		}
		if !orderColumnResolvable(table, req, spec.Column) {
			return nil, fmt.Errorf("order-by column %q: %w", spec.Column, ErrUnknownColumn)
		}
		dir := "ASC"
		if spec.Descending {
			dir = "DESC"
		}
		parts = append(parts, spec.Column+" "+dir)
	}
	return parts, nil
}

func orderColumnResolvable(table *models.Table, req *models.ChartRequest, name string) bool {
	if _, ok := table.Column(name); ok {
		return true
	}
	for _, m := range req.Metrics {
		if m.DisplayLabel() == name {
			return true
		}
	}
	for _, ref := range req.Groupby {
		if ref.IsExpression() && ref.Label == name {
			return true
		}
	}
	return false
}
