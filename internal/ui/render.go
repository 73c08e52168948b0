package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	lgtable "github.com/charmbracelet/lipgloss/table"

	"github.com/chriserin/story/internal/keywords"
	"github.com/chriserin/story/internal/model"
	"github.com/chriserin/story/internal/table"
)

// ShowStory renders every section of a parsed story.
func ShowStory(w io.Writer, story *model.Story, k *keywords.Keywords) {
	if story.Description != "" {
		fmt.Fprintln(w, story.Description)
		fmt.Fprintln(w)
	}
	if !story.Meta.IsEmpty() {
		showMeta(w, story.Meta, k)
	}
	ShowNarrative(w, story.Narrative, k)
	if !story.GivenStories.IsEmpty() {
		fmt.Fprintln(w, keywordStyle.Render(k.GivenStories)+" "+strings.Join(givenStoryNames(story.GivenStories), ", "))
	}
	ShowLifecycle(w, story.Lifecycle, k)
	for i, sc := range story.Scenarios {
		if i > 0 || !story.Lifecycle.IsEmpty() {
			fmt.Fprintln(w)
		}
		ShowScenario(w, sc, k)
	}
}

func ShowNarrative(w io.Writer, n model.Narrative, k *keywords.Keywords) {
	if n.IsEmpty() {
		return
	}
	fmt.Fprintln(w, keywordStyle.Render(k.Narrative))
	fmt.Fprintln(w, n.AsString(k))
}

func ShowLifecycle(w io.Writer, l model.Lifecycle, k *keywords.Keywords) {
	if l.IsEmpty() {
		return
	}
	fmt.Fprintln(w, keywordStyle.Render(k.Lifecycle))
	if steps := l.BeforeSteps(); len(steps) > 0 {
		fmt.Fprintln(w, keywordStyle.Render(k.Before))
		ShowSteps(w, steps)
	}
	if len(l.After()) > 0 {
		fmt.Fprintln(w, keywordStyle.Render(k.After))
	}
	for _, g := range l.After() {
		fmt.Fprintln(w, keywordStyle.Render(k.Outcome)+" "+outcomeText(g.Outcome.String()))
		if g.MetaFilter != "" {
			fmt.Fprintln(w, keywordStyle.Render(k.MetaFilter)+" "+g.MetaFilter)
		}
		ShowSteps(w, g.Steps)
	}
}

func ShowScenario(w io.Writer, sc model.Scenario, k *keywords.Keywords) {
	fmt.Fprintln(w, strings.TrimSpace(keywordStyle.Render(k.Scenario)+" "+sc.Title))
	if !sc.Meta.IsEmpty() {
		showMeta(w, sc.Meta, k)
	}
	if !sc.GivenStories.IsEmpty() {
		fmt.Fprintln(w, keywordStyle.Render(k.GivenStories)+" "+strings.Join(givenStoryNames(sc.GivenStories), ", "))
	}
	ShowSteps(w, sc.Steps)
	if sc.HasExamples() {
		fmt.Fprintln(w, keywordStyle.Render(k.ExamplesTable))
		ShowTable(w, sc.Examples)
	}
}

// ShowSteps prints steps as written; ignorable steps are dimmed.
func ShowSteps(w io.Writer, steps []string) {
	for _, step := range steps {
		if strings.HasPrefix(step, "!--") {
			fmt.Fprintln(w, faintStyle.Render(step))
			continue
		}
		fmt.Fprintln(w, step)
	}
}

func showMeta(w io.Writer, m model.Meta, k *keywords.Keywords) {
	fmt.Fprintln(w, keywordStyle.Render(k.Meta))
	for _, name := range m.Names() {
		line := k.MetaProperty + name
		if v := m.Property(name); v != "" {
			line += " " + v
		}
		fmt.Fprintln(w, metaStyle.Render(line))
	}
}

func givenStoryNames(g model.GivenStories) []string {
	var names []string
	for _, s := range g.Stories() {
		names = append(names, s.String())
	}
	return names
}

// ShowTable draws t with a box border. Tables without headers print nothing.
func ShowTable(w io.Writer, t *table.Table) {
	headers := t.Headers()
	if len(headers) == 0 {
		return
	}
	rows := make([][]string, 0, t.RowCount())
	for _, row := range t.Rows() {
		cells := make([]string, len(headers))
		for i, h := range headers {
			cells[i] = row[h]
		}
		rows = append(rows, cells)
	}
	out := lgtable.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			style := lipgloss.NewStyle().Padding(0, 1)
			if row == lgtable.HeaderRow {
				return style.Bold(true)
			}
			return style
		})
	fmt.Fprintln(w, out.Render())
}
