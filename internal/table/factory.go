package table

import (
	"fmt"
	"io/fs"
	"strings"

	"github.com/chriserin/story/internal/keywords"
	"github.com/chriserin/story/internal/params"
)

// Shape under which a Factory registers table conversion, so that a single
// parameter value can itself be read as a table.
const Shape params.Shape = "table"

// Loader resolves a table given by resource path rather than inline text.
type Loader interface {
	LoadText(path string) (string, error)
}

// FSLoader loads tables from a file system.
type FSLoader struct {
	FS fs.FS
}

func (l FSLoader) LoadText(path string) (string, error) {
	data, err := fs.ReadFile(l.FS, path)
	if err != nil {
		return "", fmt.Errorf("loading table %s: %w", path, err)
	}
	return string(data), nil
}

// Factory creates tables sharing one configuration.
type Factory struct {
	headerSep    string
	valueSep     string
	ignorableSep string
	converters   *params.Converters
	transformers *Transformers
	loader       Loader
}

type Option func(*Factory)

// WithKeywords takes the default separators from a keyword table.
func WithKeywords(k *keywords.Keywords) Option {
	return func(f *Factory) {
		f.headerSep = k.ExamplesTableHeaderSeparator
		f.valueSep = k.ExamplesTableValueSeparator
		f.ignorableSep = k.ExamplesTableIgnorableSeparator
	}
}

func WithSeparators(header, value, ignorable string) Option {
	return func(f *Factory) {
		f.headerSep, f.valueSep, f.ignorableSep = header, value, ignorable
	}
}

func WithConverters(c *params.Converters) Option {
	return func(f *Factory) { f.converters = c }
}

func WithTransformers(t *Transformers) Option {
	return func(f *Factory) { f.transformers = t }
}

func WithLoader(l Loader) Option {
	return func(f *Factory) { f.loader = l }
}

// NewFactory builds a factory with "|" separators, "|--" ignorable rows, the
// built-in converters and transformers, and no loader. The converters gain a
// Shape entry that parses with this factory.
func NewFactory(opts ...Option) *Factory {
	f := &Factory{headerSep: "|", valueSep: "|", ignorableSep: "|--"}
	for _, opt := range opts {
		opt(f)
	}
	if f.converters == nil {
		f.converters = params.NewConverters()
	}
	if f.transformers == nil {
		f.transformers = NewTransformers()
	}
	f.converters.Register(Shape, func(v string) (any, error) {
		return f.Parse(v)
	})
	return f
}

func (f *Factory) Converters() *params.Converters {
	return f.converters
}

func (f *Factory) Transformers() *Transformers {
	return f.transformers
}

// Create parses input as a table, or, when a loader is configured and input
// looks like a resource path, as the path of a table to load.
func (f *Factory) Create(input string) (*Table, error) {
	trimmed := strings.TrimSpace(input)
	if f.loader != nil && f.isPath(trimmed) {
		text, err := f.loader.LoadText(trimmed)
		if err != nil {
			return nil, err
		}
		return f.Parse(text)
	}
	return f.Parse(input)
}

// isPath reports whether s is a single line with no property block and no
// header separator.
func (f *Factory) isPath(s string) bool {
	if s == "" || strings.HasPrefix(s, "{") || strings.ContainsAny(s, "\r\n") {
		return false
	}
	return !strings.Contains(s, f.headerSep)
}

// Parse parses table text. The only error is an unregistered transformer.
// Parsing the same text twice yields equal tables.
func (f *Factory) Parse(text string) (*Table, error) {
	t := &Table{
		props:      newProperties(f.headerSep, f.valueSep, f.ignorableSep),
		defaults:   params.Empty,
		named:      map[string]string{},
		converters: f.converters,
	}
	propsText, body, ok := stripProperties(strings.TrimSpace(text))
	if ok {
		t.props.load(propsText)
	}
	if name := t.props.Transformer(); name != "" {
		transformed, err := f.transformers.Transform(name, body, t.props)
		if err != nil {
			return nil, err
		}
		body = transformed
	}
	headers, data := parseByRows(body, t.props)
	t.rows = &store{headers: headers, data: data}
	return t, nil
}

// Empty returns a table with no headers and no rows.
func (f *Factory) Empty() *Table {
	t, _ := f.Parse("")
	return t
}

// Parse parses text with a factory built from opts.
func Parse(text string, opts ...Option) (*Table, error) {
	return NewFactory(opts...).Parse(text)
}
