// Package params materializes table rows as typed parameters.
package params

// Row is a read view over named string values.
type Row interface {
	Value(name string) (string, bool)
	Values() map[string]string
}

// MapRow is a Row backed by a map. The map is not copied.
type MapRow map[string]string

func (r MapRow) Value(name string) (string, bool) {
	v, ok := r[name]
	return v, ok
}

func (r MapRow) Values() map[string]string {
	out := make(map[string]string, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Empty is a Row with no values.
var Empty Row = MapRow{}

type chainedRow struct {
	rows []Row
}

// Chain resolves names nearest-first: row, then each default in order.
func Chain(row Row, defaults ...Row) Row {
	rows := make([]Row, 0, len(defaults)+1)
	for _, r := range append([]Row{row}, defaults...) {
		if r == nil {
			continue
		}
		if c, ok := r.(*chainedRow); ok {
			rows = append(rows, c.rows...)
			continue
		}
		rows = append(rows, r)
	}
	return &chainedRow{rows: rows}
}

func (c *chainedRow) Value(name string) (string, bool) {
	for _, r := range c.rows {
		if v, ok := r.Value(name); ok {
			return v, true
		}
	}
	return "", false
}

func (c *chainedRow) Values() map[string]string {
	out := map[string]string{}
	for i := len(c.rows) - 1; i >= 0; i-- {
		for k, v := range c.rows[i].Values() {
			out[k] = v
		}
	}
	return out
}
