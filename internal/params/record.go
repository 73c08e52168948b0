package params

import (
	"fmt"
	"sort"
)

// Field describes one target field of a record shape. Param, when set, is the
// header name the field answers to in place of its own name.
type Field struct {
	Name  string
	Param string
	Shape Shape
}

// RecordShape is an explicit description of the record a row maps onto.
type RecordShape struct {
	Name   string
	Fields []Field
}

func (s RecordShape) field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Param != "" && f.Param == name {
			return f, true
		}
	}
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Record holds coerced values keyed by field name.
type Record map[string]any

// NotMappableError is returned when a row cannot be mapped onto a shape.
type NotMappableError struct {
	Values map[string]string
	Shape  string
	Err    error
}

func (e *NotMappableError) Error() string {
	return fmt.Sprintf("%v not mappable to type %s: %v", e.Values, e.Shape, e.Err)
}

func (e *NotMappableError) Unwrap() error {
	return e.Err
}

// MapTo coerces every value of p onto shape. fieldNames optionally renames a
// header to a field name before the field is looked up. The first header that
// cannot be resolved or coerced aborts the mapping.
func MapTo(p *Parameters, shape RecordShape, fieldNames map[string]string) (Record, error) {
	values := p.Values()
	headers := make([]string, 0, len(values))
	for h := range values {
		headers = append(headers, h)
	}
	sort.Strings(headers)

	rec := Record{}
	for _, h := range headers {
		name := h
		if mapped, ok := fieldNames[h]; ok {
			name = mapped
		}
		f, ok := shape.field(name)
		if !ok {
			return nil, &NotMappableError{Values: values, Shape: shape.Name, Err: fmt.Errorf("no field for %q", name)}
		}
		v, err := p.ValueAs(h, f.Shape)
		if err != nil {
			return nil, &NotMappableError{Values: values, Shape: shape.Name, Err: err}
		}
		rec[f.Name] = v
	}
	return rec, nil
}
