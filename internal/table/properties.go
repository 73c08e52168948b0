package table

import (
	"strconv"
	"strings"
)

// Recognized property keys.
const (
	KeyIgnorableSeparator = "ignorableSeparator"
	KeyHeaderSeparator    = "headerSeparator"
	KeyValueSeparator     = "valueSeparator"
	KeyCommentSeparator   = "commentSeparator"
	KeyTrim               = "trim"
	KeyTransformer        = "transformer"
	KeyMetaByRow          = "metaByRow"
)

// Properties is the effective configuration of one table: the separator
// defaults overlaid with the inline {k=v,...} block. It is never mutated
// after parsing.
type Properties struct {
	keys   []string
	values map[string]string
	inline []string
	source string
}

func newProperties(header, value, ignorable string) Properties {
	p := Properties{values: map[string]string{}}
	p.set(KeyIgnorableSeparator, ignorable)
	p.set(KeyHeaderSeparator, header)
	p.set(KeyValueSeparator, value)
	return p
}

func (p *Properties) set(key, value string) {
	if _, ok := p.values[key]; !ok {
		p.keys = append(p.keys, key)
	}
	p.values[key] = value
}

// Get returns any property, recognized or not.
func (p Properties) Get(key string) (string, bool) {
	v, ok := p.values[key]
	return v, ok
}

// Keys lists property keys in the order they were first set.
func (p Properties) Keys() []string {
	return append([]string(nil), p.keys...)
}

func (p Properties) HeaderSeparator() string { return p.values[KeyHeaderSeparator] }
func (p Properties) ValueSeparator() string { return p.values[KeyValueSeparator] }
func (p Properties) IgnorableSeparator() string { return p.values[KeyIgnorableSeparator] }
func (p Properties) CommentSeparator() string { return p.values[KeyCommentSeparator] }
func (p Properties) Transformer() string { return p.values[KeyTransformer] }

// Trim defaults to true; only a value parsing as false disables it.
func (p Properties) Trim() bool {
	return p.boolean(KeyTrim, true)
}

func (p Properties) MetaByRow() bool {
	return p.boolean(KeyMetaByRow, false)
}

func (p Properties) boolean(key string, def bool) bool {
	v, ok := p.values[key]
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return def
	}
	return b
}

// Inline returns the property block text as written, without braces.
func (p Properties) Inline() string {
	return p.source
}

// serialized is the property block emitted by AsString. The transformer is
// left out since the emitted rows are already transformed.
func (p Properties) serialized() string {
	if _, ok := p.values[KeyTransformer]; !ok {
		return p.source
	}
	var parts []string
	for _, k := range p.inline {
		if k == KeyTransformer {
			continue
		}
		parts = append(parts, k+"="+p.values[k])
	}
	return strings.Join(parts, ",")
}

// stripProperties splits a leading {...} block from the table text. The
// block ends at the first closing brace.
func stripProperties(text string) (props, rest string, ok bool) {
	if !strings.HasPrefix(text, "{") {
		return "", text, false
	}
	end := strings.Index(text, "}")
	if end < 0 {
		return "", text, false
	}
	return text[1:end], strings.TrimLeft(text[end+1:], " \t\r\n\f"), true
}

// load reads comma separated assignments with java-properties
// line rules: '=' or ':' separate key and value, lines starting with '#' or
// '!' are comments, and a backslash escapes the next character.
func (p *Properties) load(text string) {
	p.source = text
	for _, line := range strings.Split(text, ",") {
		line = strings.TrimLeft(line, " \t\f\r\n")
		if line == "" || line[0] == '#' || line[0] == '!' {
			continue
		}
		key, value := splitAssignment(line)
		if key == "" {
			continue
		}
		if !contains(p.inline, key) {
			p.inline = append(p.inline, key)
		}
		p.set(key, value)
	}
}

func splitAssignment(line string) (string, string) {
	var key strings.Builder
	i := 0
	for i < len(line) {
		c := line[i]
		if c == '\\' && i+1 < len(line) {
			key.WriteByte(unescape(line[i+1]))
			i += 2
			continue
		}
		if c == '=' || c == ':' || c == ' ' || c == '\t' || c == '\f' {
			break
		}
		key.WriteByte(c)
		i++
	}
	rest := strings.TrimLeft(line[i:], " \t\f")
	if rest != "" && (rest[0] == '=' || rest[0] == ':') {
		rest = strings.TrimLeft(rest[1:], " \t\f")
	}
	var value strings.Builder
	for j := 0; j < len(rest); j++ {
		if rest[j] == '\\' && j+1 < len(rest) {
			value.WriteByte(unescape(rest[j+1]))
			j++
			continue
		}
		value.WriteByte(rest[j])
	}
	return key.String(), strings.TrimRight(value.String(), "\r\n")
}

func unescape(c byte) byte {
	switch c {
	case 't':
		return '\t'
	case 'n':
		return '\n'
	case 'r':
		return '\r'
	case 'f':
		return '\f'
	}
	return c
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
