// Package viz shapes tabular query results into visualization-ready records.
package viz

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/songo-bi/songo-engine/pkg/adapters/datasource"
	"github.com/songo-bi/songo-engine/pkg/apperrors"
	"github.com/songo-bi/songo-engine/pkg/models"
)

// Record is one shaped row: column name → value, preserving the result's
// column order (plain maps would JSON-marshal with sorted keys).
type Record struct {
	columns []string
	values  []any
}

// Get returns the value for a column name.
func (r Record) Get(column string) (any, bool) {
	for i, name := range r.columns {
		if name == column {
			return r.values[i], true
		}
	}
	return nil, false
}

// Columns returns the record's column names in result order.
func (r Record) Columns() []string {
	return r.columns
}

// MarshalJSON emits a JSON object whose keys appear in column order.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range r.columns {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		value, err := json.Marshal(r.values[i])
		if err != nil {
			return nil, err
		}
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON restores a record from its JSON object form, keeping the
// key order of the document (cached payloads round-trip through this).
func (r *Record) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("record must be a JSON object")
	}

	var columns []string
	var values []any
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("record key must be a string")
		}

		var value any
		if err := dec.Decode(&value); err != nil {
			return err
		}
		columns = append(columns, key)
		values = append(values, value)
	}

	if _, err := dec.Token(); err != nil { // closing brace
		return err
	}

	r.columns = columns
	r.values = values
	return nil
}

// Shape converts a query result into the record shape the given
// visualization family expects. Every supported viz type currently uses
// the same per-row mapping: pivoting bar/line series and picking pie
// label/value columns is left to the caller. An empty result shapes to an
// empty slice, never an error. Pure function, no I/O.
func Shape(result *datasource.QueryResult, vizType models.VizType) ([]Record, error) {
	if !vizType.Valid() {
		return nil, fmt.Errorf("viz type %q: %w", vizType, apperrors.ErrUnsupportedVizType)
	}

	columns := result.ColumnNames()
	records := make([]Record, 0, len(result.Rows))
	for _, row := range result.Rows {
		records = append(records, Record{
			columns: columns,
			values:  row,
		})
	}
	return records, nil
}
