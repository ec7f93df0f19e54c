package models

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// VizType identifies the visualization family a chart request targets.
type VizType string

const (
	VizTypeTable VizType = "table"
	VizTypeBar   VizType = "bar"
	VizTypeLine  VizType = "line"
	VizTypeArea  VizType = "area"
	VizTypePie   VizType = "pie"
)

// Valid reports whether v is a known visualization type.
func (v VizType) Valid() bool {
	switch v {
	case VizTypeTable, VizTypeBar, VizTypeLine, VizTypeArea, VizTypePie:
		return true
	}
	return false
}

// DefaultRowLimit bounds chart queries that do not specify their own limit.
const DefaultRowLimit = 1000

// ColumnRef references a column in a chart request: either a named catalog
// column or a raw SQL expression with a display label. The variant is fixed
// at parse time; downstream code only calls IsExpression.
type ColumnRef struct {
	Name       string `json:"name,omitempty"`
	Expression string `json:"expression,omitempty"`
	Label      string `json:"label,omitempty"`
}

// NamedColumn returns a ColumnRef for a catalog column.
func NamedColumn(name string) ColumnRef {
	return ColumnRef{Name: name}
}

// ExpressionColumn returns a ColumnRef carrying a raw SQL expression.
func ExpressionColumn(expr, label string) ColumnRef {
	return ColumnRef{Expression: expr, Label: label}
}

// IsExpression reports whether the reference carries a raw SQL expression.
func (c ColumnRef) IsExpression() bool {
	return c.Expression != ""
}

// UnmarshalJSON accepts either a bare string (column name) or an object.
// Chart builders submit both forms; the loose shape is resolved here once
// and never inspected again.
func (c *ColumnRef) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		*c = NamedColumn(name)
		return nil
	}

	var obj struct {
		Name       string `json:"name"`
		ColumnName string `json:"column_name"`
		Expression string `json:"expression"`
		SQLExpr    string `json:"sqlExpression"`
		Label      string `json:"label"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("column reference must be a string or object: %w", err)
	}

	ref := ColumnRef{Label: obj.Label}
	switch {
	case obj.Expression != "":
		ref.Expression = obj.Expression
	case obj.SQLExpr != "":
		ref.Expression = obj.SQLExpr
	case obj.Name != "":
		ref.Name = obj.Name
	case obj.ColumnName != "":
		ref.Name = obj.ColumnName
	default:
		return fmt.Errorf("column reference needs a name or expression")
	}
	*c = ref
	return nil
}

// Metric is an aggregate SQL expression with a display label.
type Metric struct {
	Expression string `json:"expression"`
	Label      string `json:"label,omitempty"`
}

// DisplayLabel returns the metric label, falling back to the expression.
func (m Metric) DisplayLabel() string {
	if m.Label != "" {
		return m.Label
	}
	return m.Expression
}

// UnmarshalJSON accepts either a bare expression string or an object.
func (m *Metric) UnmarshalJSON(data []byte) error {
	var expr string
	if err := json.Unmarshal(data, &expr); err == nil {
		*m = Metric{Expression: expr}
		return nil
	}

	var obj struct {
		Expression string `json:"expression"`
		SQLExpr    string `json:"sqlExpression"`
		Label      string `json:"label"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("metric must be a string or object: %w", err)
	}
	if obj.Expression == "" {
		obj.Expression = obj.SQLExpr
	}
	if obj.Expression == "" {
		return fmt.Errorf("metric needs an expression")
	}
	*m = Metric{Expression: obj.Expression, Label: obj.Label}
	return nil
}

// OrderSpec is one ORDER BY entry.
type OrderSpec struct {
	Column     string `json:"column"`
	Descending bool   `json:"descending,omitempty"`
}

// ChartRequest is the declarative input to the chart-query engine.
type ChartRequest struct {
	DatasourceID uuid.UUID   `json:"datasource_id"`
	Groupby      []ColumnRef `json:"groupby,omitempty"`
	Metrics      []Metric    `json:"metrics,omitempty"`
	Where        string      `json:"where,omitempty"`
	Having       string      `json:"having,omitempty"`
	OrderBy      []OrderSpec `json:"order_by,omitempty"`
	RowLimit     int         `json:"row_limit,omitempty"`
	VizType      VizType     `json:"viz_type,omitempty"`
}

// Normalize applies request defaults in place.
func (r *ChartRequest) Normalize() {
	if r.RowLimit <= 0 {
		r.RowLimit = DefaultRowLimit
	}
	if r.VizType == "" {
		r.VizType = VizTypeTable
	}
}

// Validate checks the request is well-formed enough to build SQL from.
func (r *ChartRequest) Validate() error {
	if r.DatasourceID == uuid.Nil {
		return fmt.Errorf("datasource_id is required")
	}
	if !r.VizType.Valid() {
		return fmt.Errorf("viz_type %q: %s", r.VizType, "unknown visualization type")
	}
	for _, m := range r.Metrics {
		if m.Expression == "" {
			return fmt.Errorf("metric expression is required")
		}
	}
	return nil
}
