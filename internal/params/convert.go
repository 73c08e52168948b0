package params

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cast"
)

// Shape names the target a string value is coerced into.
type Shape string

const (
	String   Shape = "string"
	Int      Shape = "int"
	Int64    Shape = "int64"
	Float64  Shape = "float64"
	Bool     Shape = "bool"
	Duration Shape = "duration"
	Time     Shape = "time"
	Strings  Shape = "[]string"
	Ints     Shape = "[]int"
	Floats   Shape = "[]float64"
)

// ErrNoConverter is returned when no converter is registered for a shape.
var ErrNoConverter = errors.New("no converter for shape")

// ConvertFunc coerces a raw value.
type ConvertFunc func(value string) (any, error)

// Converters maps shapes to conversion functions. Registration and
// conversion may run concurrently.
type Converters struct {
	mu      sync.RWMutex
	byShape map[Shape]ConvertFunc
	listSep string
}

// NewConverters returns a registry with the built-in scalar and list shapes.
// List values are comma separated and each element is trimmed.
func NewConverters() *Converters {
	c := &Converters{byShape: map[Shape]ConvertFunc{}, listSep: ","}
	c.Register(String, func(v string) (any, error) { return v, nil })
	c.Register(Int, func(v string) (any, error) { return cast.ToIntE(decimal(v)) })
	c.Register(Int64, func(v string) (any, error) { return cast.ToInt64E(decimal(v)) })
	c.Register(Float64, func(v string) (any, error) { return cast.ToFloat64E(strings.TrimSpace(v)) })
	c.Register(Bool, func(v string) (any, error) { return cast.ToBoolE(strings.TrimSpace(v)) })
	c.Register(Duration, func(v string) (any, error) { return cast.ToDurationE(strings.TrimSpace(v)) })
	c.Register(Time, func(v string) (any, error) { return cast.ToTimeE(strings.TrimSpace(v)) })
	c.Register(Strings, func(v string) (any, error) { return c.split(v), nil })
	c.Register(Ints, func(v string) (any, error) {
		out := []int{}
		for _, s := range c.split(v) {
			n, err := cast.ToIntE(decimal(s))
			if err != nil {
				return nil, err
			}
			out = append(out, n)
		}
		return out, nil
	})
	c.Register(Floats, func(v string) (any, error) {
		out := []float64{}
		for _, s := range c.split(v) {
			f, err := cast.ToFloat64E(s)
			if err != nil {
				return nil, err
			}
			out = append(out, f)
		}
		return out, nil
	})
	return c
}

// Register adds or replaces the converter for shape.
func (c *Converters) Register(shape Shape, fn ConvertFunc) *Converters {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byShape[shape] = fn
	return c
}

// Has reports whether shape has a converter.
func (c *Converters) Has(shape Shape) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.byShape[shape]
	return ok
}

// Convert coerces value into shape.
func (c *Converters) Convert(value string, shape Shape) (any, error) {
	c.mu.RLock()
	fn, ok := c.byShape[shape]
	c.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrNoConverter, shape)
	}
	v, err := fn(value)
	if err != nil {
		return nil, fmt.Errorf("converting %q to %s: %w", value, shape, err)
	}
	return v, nil
}

// decimal strips leading zeros from a plain decimal so that cast does not
// read it as octal.
func decimal(v string) string {
	v = strings.TrimSpace(v)
	sign := ""
	if strings.HasPrefix(v, "-") || strings.HasPrefix(v, "+") {
		sign, v = v[:1], v[1:]
	}
	if len(v) < 2 || v[0] != '0' || strings.IndexFunc(v, func(r rune) bool { return r < '0' || r > '9' }) >= 0 {
		return sign + v
	}
	if digits := strings.TrimLeft(v, "0"); digits != "" {
		return sign + digits
	}
	return sign + "0"
}

func (c *Converters) split(v string) []string {
	out := []string{}
	if strings.TrimSpace(v) == "" {
		return out
	}
	for _, s := range strings.Split(v, c.listSep) {
		out = append(out, strings.TrimSpace(s))
	}
	return out
}

// shapeOf picks the built-in shape for T.
func shapeOf[T any]() (Shape, bool) {
	var zero T
	switch any(zero).(type) {
	case string:
		return String, true
	case int:
		return Int, true
	case int64:
		return Int64, true
	case float64:
		return Float64, true
	case bool:
		return Bool, true
	case time.Duration:
		return Duration, true
	case time.Time:
		return Time, true
	case []string:
		return Strings, true
	case []int:
		return Ints, true
	case []float64:
		return Floats, true
	}
	return "", false
}
