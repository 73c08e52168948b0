package model

import (
	"path/filepath"

	"github.com/chriserin/story/internal/table"
)

// Scenario is one titled list of steps with its own meta, given stories and
// examples table. Steps keep their starting word and are not yet templated.
type Scenario struct {
	Title        string
	Meta         Meta
	GivenStories GivenStories
	Examples     *table.Table
	Steps        []string
}

// EffectiveMeta is the scenario meta completed with the story meta.
func (s Scenario) EffectiveMeta(story Meta) Meta {
	return s.Meta.InheritFrom(story)
}

func (s Scenario) HasExamples() bool {
	return s.Examples != nil && s.Examples.RowCount() > 0
}

// Story is one parsed document.
type Story struct {
	Path         string
	Description  string
	Meta         Meta
	Narrative    Narrative
	GivenStories GivenStories
	Lifecycle    Lifecycle
	Scenarios    []Scenario
	name         string
}

// NamedAs sets the display name.
func (s *Story) NamedAs(name string) {
	s.name = name
}

// Name returns the display name, else the base name of the path.
func (s *Story) Name() string {
	if s.name != "" {
		return s.name
	}
	if s.Path == "" {
		return ""
	}
	return filepath.Base(s.Path)
}

// StepCount totals the steps of every scenario.
func (s *Story) StepCount() int {
	n := 0
	for _, sc := range s.Scenarios {
		n += len(sc.Steps)
	}
	return n
}
