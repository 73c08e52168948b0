package table

import (
	"fmt"
	"strings"
	"sync"

	"github.com/mattn/go-runewidth"
)

// Names of the built-in transformers.
const (
	FromLandscape = "FROM_LANDSCAPE"
	Formatting    = "FORMATTING"
	Replacing     = "REPLACING"
)

// Transformer rewrites raw table text before it is split into rows.
type Transformer func(text string, props Properties) (string, error)

// TransformerNotFoundError is returned when a table names a transformer that
// was never registered.
type TransformerNotFoundError struct {
	Name string
}

func (e *TransformerNotFoundError) Error() string {
	return fmt.Sprintf("transformer %q not found", e.Name)
}

// Transformers is a registry of named transformers, safe for concurrent use.
type Transformers struct {
	mu     sync.RWMutex
	byName map[string]Transformer
}

// NewTransformers returns a registry holding the built-in transformers.
func NewTransformers() *Transformers {
	t := &Transformers{byName: map[string]Transformer{}}
	t.Register(FromLandscape, fromLandscape)
	t.Register(Formatting, formatting)
	t.Register(Replacing, replacing)
	return t
}

func (t *Transformers) Register(name string, fn Transformer) *Transformers {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.byName[name] = fn
	return t
}

func (t *Transformers) Transform(name, text string, props Properties) (string, error) {
	t.mu.RLock()
	fn, ok := t.byName[name]
	t.mu.RUnlock()
	if !ok {
		return "", &TransformerNotFoundError{Name: name}
	}
	return fn(text, props)
}

// fromLandscape turns a table whose rows are "|header|v1|v2|..." into the
// usual one-header-row layout.
func fromLandscape(text string, props Properties) (string, error) {
	var headers []string
	columns := map[string][]string{}
	width := 0
	for _, line := range splitLines(text) {
		if ignorable(line, props.IgnorableSeparator()) {
			continue
		}
		cells := parseRow(line, props.HeaderSeparator(), props.CommentSeparator(), props.Trim())
		h := cells[0]
		if _, ok := columns[h]; !ok {
			headers = append(headers, h)
		}
		columns[h] = cells[1:]
		if len(cells)-1 > width {
			width = len(cells) - 1
		}
	}
	if len(headers) == 0 {
		return "", nil
	}

	hs, vs := props.HeaderSeparator(), props.ValueSeparator()
	var sb strings.Builder
	sb.WriteString(hs + strings.Join(headers, hs) + hs + "\n")
	for i := 0; i < width; i++ {
		for _, h := range headers {
			v := ""
			if i < len(columns[h]) {
				v = columns[h][i]
			}
			sb.WriteString(vs + v)
		}
		sb.WriteString(vs + "\n")
	}
	return sb.String(), nil
}

// formatting pads every column to its widest cell. Ignorable lines are kept
// as they are.
func formatting(text string, props Properties) (string, error) {
	type line struct {
		raw   string
		cells []string
	}
	var lines []line
	var widths []int
	header := true
	for _, raw := range splitLines(text) {
		if ignorable(raw, props.IgnorableSeparator()) {
			if strings.TrimSpace(raw) != "" {
				lines = append(lines, line{raw: raw})
			}
			continue
		}
		sep := props.ValueSeparator()
		if header {
			sep = props.HeaderSeparator()
		}
		cells := parseRow(raw, sep, props.CommentSeparator(), true)
		for i, c := range cells {
			if i >= len(widths) {
				widths = append(widths, 0)
			}
			if w := runewidth.StringWidth(c); w > widths[i] {
				widths[i] = w
			}
		}
		lines = append(lines, line{cells: cells})
		header = false
	}

	var sb strings.Builder
	header = true
	for _, l := range lines {
		if l.cells == nil {
			sb.WriteString(l.raw + "\n")
			continue
		}
		sep := props.ValueSeparator()
		if header {
			sep = props.HeaderSeparator()
			header = false
		}
		for i, c := range l.cells {
			sb.WriteString(sep + runewidth.FillRight(c, widths[i]))
		}
		sb.WriteString(sep + "\n")
	}
	return sb.String(), nil
}

// replacing substitutes the "replacing" property with "replacement".
func replacing(text string, props Properties) (string, error) {
	from, ok := props.Get("replacing")
	if !ok || from == "" {
		return text, nil
	}
	to, _ := props.Get("replacement")
	return strings.ReplaceAll(text, from, to), nil
}
