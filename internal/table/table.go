// Package table parses examples tables: rows of parameter values keyed by a
// header row, with an optional inline property block.
//
//	{headerSeparator=!,valueSeparator=!}
//	!name!age!
//	!-- a commented row
//	!Ada!36!
package table

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/chriserin/story/internal/params"
)

// RowNotFoundError is returned for a row index outside [0, RowCount).
type RowNotFoundError struct {
	Row int
}

func (e *RowNotFoundError) Error() string {
	return fmt.Sprintf("row %d not found", e.Row)
}

// store is the row storage. Tables derived with WithDefaults point at the
// same store, so a change through one is seen by all of them.
type store struct {
	headers []string
	data    []map[string]string
}

// Table is a parsed examples table. Its With* methods other than
// WithDefaults change the table in place and must not run concurrently with
// any other use of the same table.
type Table struct {
	props      Properties
	rows       *store
	defaults   params.Row
	named      map[string]string
	converters *params.Converters
}

func (t *Table) Properties() Properties {
	return t.props
}

// Headers returns the header list, repeated names included.
func (t *Table) Headers() []string {
	return append([]string(nil), t.rows.headers...)
}

func (t *Table) RowCount() int {
	return len(t.rows.data)
}

func (t *Table) IsEmpty() bool {
	return len(t.rows.headers) == 0 && len(t.rows.data) == 0
}

// MetaByRow reports whether the first column holds per-row meta.
func (t *Table) MetaByRow() bool {
	return t.props.MetaByRow()
}

func (t *Table) check(row int) error {
	if row < 0 || row >= len(t.rows.data) {
		return &RowNotFoundError{Row: row}
	}
	return nil
}

func (t *Table) filled(row int) map[string]string {
	values := make(map[string]string, len(t.rows.headers))
	for k, v := range t.rows.data[row] {
		values[k] = v
	}
	for _, h := range t.rows.headers {
		if _, ok := values[h]; !ok {
			values[h] = ""
		}
	}
	return values
}

// Row returns a copy of the row holding every header. Headers the row
// lacks are stored as empty values on first access.
func (t *Table) Row(row int) (map[string]string, error) {
	if err := t.check(row); err != nil {
		return nil, err
	}
	stored := t.rows.data[row]
	for _, h := range t.rows.headers {
		if _, ok := stored[h]; !ok {
			stored[h] = ""
		}
	}
	return t.filled(row), nil
}

// Rows returns every row as by Row.
func (t *Table) Rows() []map[string]string {
	out := make([]map[string]string, 0, len(t.rows.data))
	for i := range t.rows.data {
		r, _ := t.Row(i)
		out = append(out, r)
	}
	return out
}

// RowAsParameters wraps a row with the table's default chain. When
// replaceNamed is set, named parameters are substituted into the values
// first.
func (t *Table) RowAsParameters(row int, replaceNamed bool) (*params.Parameters, error) {
	if err := t.check(row); err != nil {
		return nil, err
	}
	values := t.filled(row)
	if replaceNamed {
		values = params.ReplaceNamed(values, t.named)
	}
	return params.New(values, t.converters, t.defaults), nil
}

func (t *Table) RowsAsParameters(replaceNamed bool) []*params.Parameters {
	out := make([]*params.Parameters, 0, len(t.rows.data))
	for i := range t.rows.data {
		p, _ := t.RowAsParameters(i, replaceNamed)
		out = append(out, p)
	}
	return out
}

// RowsAs maps every row onto shape. See params.MapTo for field resolution.
func (t *Table) RowsAs(shape params.RecordShape, fieldNames map[string]string) ([]params.Record, error) {
	var out []params.Record
	for _, p := range t.RowsAsParameters(false) {
		rec, err := params.MapTo(p, shape, fieldNames)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// WithDefaults returns a table over the same rows whose lookups fall back to
// defaults, then to this table's own defaults.
func (t *Table) WithDefaults(defaults params.Row) *Table {
	d := *t
	d.defaults = params.Chain(defaults, t.defaults)
	return &d
}

func (t *Table) WithNamedParameters(named map[string]string) *Table {
	t.named = make(map[string]string, len(named))
	for k, v := range named {
		t.named[k] = v
	}
	return t
}

// WithRowValues overwrites values of one row. Unknown headers are appended to
// the header list in sorted order.
func (t *Table) WithRowValues(row int, values map[string]string) error {
	if err := t.check(row); err != nil {
		return err
	}
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	stored := t.rows.data[row]
	for _, k := range keys {
		stored[k] = values[k]
		if !contains(t.rows.headers, k) {
			t.rows.headers = append(t.rows.headers, k)
		}
	}
	return nil
}

// WithRows replaces every row. A nil headers list takes the sorted keys of
// the first row.
func (t *Table) WithRows(headers []string, rows []map[string]string) *Table {
	if headers == nil && len(rows) > 0 {
		for k := range rows[0] {
			headers = append(headers, k)
		}
		sort.Strings(headers)
	}
	t.rows.headers = append([]string(nil), headers...)
	t.rows.data = make([]map[string]string, 0, len(rows))
	for _, r := range rows {
		c := make(map[string]string, len(r))
		for k, v := range r {
			c[k] = v
		}
		t.rows.data = append(t.rows.data, c)
	}
	return t
}

// AsString formats the table so that parsing the result yields the same
// headers and rows. A table without headers formats as "".
func (t *Table) AsString() string {
	if len(t.rows.headers) == 0 {
		return ""
	}
	var sb strings.Builder
	if props := t.props.serialized(); props != "" {
		sb.WriteString("{" + props + "}\n")
	}
	header, indented := t.frame(t.props.HeaderSeparator(), t.rows.headers)
	if indented {
		// leading whitespace of the first line is trimmed on parse
		sb.WriteString(t.props.IgnorableSeparator() + "\n")
	}
	sb.WriteString(header + "\n")
	for _, row := range t.Rows() {
		cells := make([]string, len(t.rows.headers))
		for i, h := range t.rows.headers {
			cells[i] = row[h]
		}
		line, _ := t.frame(t.props.ValueSeparator(), cells)
		sb.WriteString(line + "\n")
	}
	return sb.String()
}

// frame joins cells with sep. A line that would read as ignorable is
// indented, since rows are trimmed before splitting.
func (t *Table) frame(sep string, cells []string) (string, bool) {
	line := sep + strings.Join(cells, sep) + sep
	if strings.TrimSpace(line) != "" && ignorable(line, t.props.IgnorableSeparator()) {
		return " " + line, true
	}
	return line, false
}

// WriteTo writes AsString to w.
func (t *Table) WriteTo(w io.Writer) (int64, error) {
	n, err := io.WriteString(w, t.AsString())
	return int64(n), err
}

func (t *Table) String() string {
	return fmt.Sprintf("Table{headers=%v, rows=%d, props=%q}", t.rows.headers, len(t.rows.data), t.props.Inline())
}
