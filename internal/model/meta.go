// Package model holds the parsed form of a story document.
package model

import (
	"regexp"
	"strings"
	"unicode"
)

// Meta is an ordered set of name/value tags.
type Meta struct {
	names  []string
	values map[string]string
}

// ParseMeta reads "@name value" properties. Text after the ignorable marker
// within a property is dropped. A repeated name keeps its first position and
// its last value.
func ParseMeta(text, metaProperty, ignorable string) Meta {
	var m Meta
	if metaProperty == "" {
		return m
	}
	for _, prop := range strings.Split(text, metaProperty) {
		if ignorable != "" {
			if i := strings.Index(prop, ignorable); i >= 0 {
				prop = prop[:i]
			}
		}
		prop = strings.TrimSpace(prop)
		if prop == "" {
			continue
		}
		name, value := prop, ""
		if i := strings.IndexFunc(prop, unicode.IsSpace); i >= 0 {
			name, value = prop[:i], strings.TrimSpace(prop[i:])
		}
		m = m.With(name, value)
	}
	return m
}

// With returns a copy of m with name set to value.
func (m Meta) With(name, value string) Meta {
	c := Meta{names: append([]string(nil), m.names...), values: make(map[string]string, len(m.values)+1)}
	for k, v := range m.values {
		c.values[k] = v
	}
	if _, ok := c.values[name]; !ok {
		c.names = append(c.names, name)
	}
	c.values[name] = value
	return c
}

func (m Meta) IsEmpty() bool {
	return len(m.names) == 0
}

func (m Meta) Names() []string {
	return append([]string(nil), m.names...)
}

func (m Meta) HasProperty(name string) bool {
	_, ok := m.values[name]
	return ok
}

func (m Meta) Get(name string) (string, bool) {
	v, ok := m.values[name]
	return v, ok
}

// Property returns the value of name, or "" when absent.
func (m Meta) Property(name string) string {
	return m.values[name]
}

// Values splits a multi-valued property on whitespace.
func (m Meta) Values(name string) []string {
	return strings.Fields(m.values[name])
}

// InheritFrom returns m completed with the properties of parent it lacks.
func (m Meta) InheritFrom(parent Meta) Meta {
	out := m
	for _, name := range parent.names {
		if !m.HasProperty(name) {
			out = out.With(name, parent.values[name])
		}
	}
	return out
}

// MetaFilter selects meta by include (+name value) and exclude (-name value)
// properties. A value of "*" wildcards, an empty value matches any value.
type MetaFilter struct {
	text    string
	include []filterProperty
	exclude []filterProperty
}

type filterProperty struct {
	name  string
	value string
}

func ParseMetaFilter(text string) MetaFilter {
	f := MetaFilter{text: strings.TrimSpace(text)}
	var current *filterProperty
	for _, word := range strings.Fields(text) {
		if len(word) > 1 && (word[0] == '+' || word[0] == '-') {
			p := filterProperty{name: word[1:]}
			if word[0] == '+' {
				f.include = append(f.include, p)
				current = &f.include[len(f.include)-1]
			} else {
				f.exclude = append(f.exclude, p)
				current = &f.exclude[len(f.exclude)-1]
			}
			continue
		}
		if current == nil {
			continue
		}
		if current.value != "" {
			current.value += " "
		}
		current.value += word
	}
	return f
}

func (f MetaFilter) IsEmpty() bool {
	return len(f.include) == 0 && len(f.exclude) == 0
}

func (f MetaFilter) String() string {
	return f.text
}

// Allow reports whether meta passes the filter. With includes only, some
// include must match; with excludes only, no exclude may match; with both,
// an include must match and no exclude may.
func (f MetaFilter) Allow(meta Meta) bool {
	switch {
	case len(f.include) > 0 && len(f.exclude) == 0:
		return matchAny(f.include, meta)
	case len(f.include) == 0 && len(f.exclude) > 0:
		return !matchAny(f.exclude, meta)
	case len(f.include) > 0:
		return matchAny(f.include, meta) && !matchAny(f.exclude, meta)
	}
	return true
}

func matchAny(props []filterProperty, meta Meta) bool {
	for _, p := range props {
		v, ok := meta.Get(p.name)
		if !ok {
			continue
		}
		if p.value == "" || matchValue(p.value, v) {
			return true
		}
	}
	return false
}

func matchValue(pattern, value string) bool {
	if !strings.Contains(pattern, "*") {
		return pattern == value
	}
	expr := "^" + strings.ReplaceAll(regexp.QuoteMeta(pattern), `\*`, ".*") + "$"
	return regexp.MustCompile(expr).MatchString(value)
}
