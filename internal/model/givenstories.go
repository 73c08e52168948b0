package model

import (
	"strconv"
	"strings"

	"github.com/chriserin/story/internal/table"
)

// GivenStory is one referenced story path, optionally followed by an anchor:
// "path#{1}" selects examples row 1 as parameters, "path#{id:7;lang:en}"
// carries its own parameters.
type GivenStory struct {
	Path             string
	Anchor           string
	AnchorParameters map[string]string
	Parameters       map[string]string
}

func ParseGivenStory(text string) GivenStory {
	text = strings.TrimSpace(text)
	g := GivenStory{Path: text, AnchorParameters: map[string]string{}, Parameters: map[string]string{}}
	start := strings.Index(text, "#{")
	if start < 0 {
		return g
	}
	g.Path = strings.TrimSpace(text[:start])
	anchor := text[start+2:]
	if end := strings.Index(anchor, "}"); end >= 0 {
		anchor = anchor[:end]
	}
	g.Anchor = strings.TrimSpace(anchor)
	for _, pair := range strings.Split(g.Anchor, ";") {
		k, v, ok := strings.Cut(pair, ":")
		if ok && strings.TrimSpace(k) != "" {
			g.AnchorParameters[strings.TrimSpace(k)] = strings.TrimSpace(v)
		}
	}
	return g
}

func (g GivenStory) HasAnchor() bool {
	return g.Anchor != ""
}

func (g GivenStory) HasAnchorParameters() bool {
	return len(g.AnchorParameters) > 0
}

// String renders the reference as written, minus surrounding space.
func (g GivenStory) String() string {
	if !g.HasAnchor() {
		return g.Path
	}
	return g.Path + "#{" + g.Anchor + "}"
}

// GivenStories is the comma separated list of stories to run first. The zero
// value is empty.
type GivenStories struct {
	text     string
	stories  []GivenStory
	examples *table.Table
}

func ParseGivenStories(text string) GivenStories {
	g := GivenStories{text: text}
	if strings.TrimSpace(text) == "" {
		return g
	}
	for _, part := range strings.Split(text, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		g.stories = append(g.stories, ParseGivenStory(part))
	}
	return g
}

func (g GivenStories) IsEmpty() bool {
	return len(g.stories) == 0
}

func (g GivenStories) AsString() string {
	return g.text
}

func (g GivenStories) Paths() []string {
	paths := make([]string, 0, len(g.stories))
	for _, s := range g.stories {
		paths = append(paths, s.Path)
	}
	return paths
}

// RequireParameters reports whether any story is anchored and so needs an
// examples table to resolve its parameters.
func (g GivenStories) RequireParameters() bool {
	for _, s := range g.stories {
		if s.HasAnchor() {
			return true
		}
	}
	return false
}

// UseExamplesTable returns a copy bound to t for anchor resolution.
func (g GivenStories) UseExamplesTable(t *table.Table) GivenStories {
	g.examples = t
	return g
}

// Stories returns the stories with parameters resolved: an integer anchor
// within the bound table's rows yields that row, anything else yields none.
func (g GivenStories) Stories() []GivenStory {
	out := make([]GivenStory, 0, len(g.stories))
	for _, s := range g.stories {
		s.Parameters = g.parametersFor(s.Anchor)
		out = append(out, s)
	}
	return out
}

func (g GivenStories) parametersFor(anchor string) map[string]string {
	row, err := strconv.Atoi(anchor)
	if err != nil || g.examples == nil {
		return map[string]string{}
	}
	values, err := g.examples.Row(row)
	if err != nil {
		return map[string]string{}
	}
	return values
}
