package params

import (
	"fmt"
	"sort"
	"strings"
)

// ValueNotFoundError is returned when a name resolves in neither the row nor
// any of its defaults.
type ValueNotFoundError struct {
	Name string
}

func (e *ValueNotFoundError) Error() string {
	return fmt.Sprintf("value not found for %q", e.Name)
}

// Parameters is a row plus its default chain, with typed lookup. Building one
// never mutates the table the row came from.
type Parameters struct {
	row        Row
	converters *Converters
}

// New wraps values with the given defaults, nearest first.
func New(values map[string]string, converters *Converters, defaults ...Row) *Parameters {
	if converters == nil {
		converters = NewConverters()
	}
	return &Parameters{row: Chain(MapRow(values), defaults...), converters: converters}
}

// Row exposes the chained row, for use as a default of another table.
func (p *Parameters) Row() Row {
	return p.row
}

func (p *Parameters) Value(name string) (string, bool) {
	return p.row.Value(name)
}

// Values returns the merged view, nearest values winning.
func (p *Parameters) Values() map[string]string {
	return p.row.Values()
}

// ValueAs coerces the named value into shape.
func (p *Parameters) ValueAs(name string, shape Shape) (any, error) {
	v, ok := p.row.Value(name)
	if !ok {
		return nil, &ValueNotFoundError{Name: name}
	}
	return p.converters.Convert(v, shape)
}

// ValueOr is ValueAs with a fallback for a missing name. Conversion errors
// are still returned.
func (p *Parameters) ValueOr(name string, shape Shape, def any) (any, error) {
	if _, ok := p.row.Value(name); !ok {
		return def, nil
	}
	return p.ValueAs(name, shape)
}

// ReplaceNamed returns a copy of values in which every occurrence of each
// named key is replaced literally by its value. Longer keys are applied
// first so that "<name>" wins over "<n".
func ReplaceNamed(values, named map[string]string) map[string]string {
	keys := make([]string, 0, len(named))
	for k := range named {
		if k != "" {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	out := make(map[string]string, len(values))
	for name, v := range values {
		for _, k := range keys {
			v = strings.ReplaceAll(v, k, named[k])
		}
		out[name] = v
	}
	return out
}

// As coerces the named value into T using the built-in shape for T.
func As[T any](p *Parameters, name string) (T, error) {
	var zero T
	shape, ok := shapeOf[T]()
	if !ok {
		return zero, fmt.Errorf("%w for %T", ErrNoConverter, zero)
	}
	v, err := p.ValueAs(name, shape)
	if err != nil {
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("converter for %s returned %T", shape, v)
	}
	return t, nil
}
