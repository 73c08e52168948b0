package parser

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/chriserin/story/internal/keywords"
	"github.com/chriserin/story/internal/model"
	"github.com/chriserin/story/internal/table"
)

const fullStory = `A story description
spanning two lines

Meta:
@author Mauro
@theme parsing

Narrative:
In order to communicate effectively
As a development team
I want to use behaviour-driven specs

GivenStories: path/one.story,
              path/two.story

Lifecycle:
Before:
Given a setup step
After:
Outcome: ANY
Given an any step
Outcome: success
MetaFilter: +theme ui
Given a success step
Outcome: FAILURE
Given a failure step

Scenario: A scenario with examples
Meta:
@skip
@theme examples
GivenStories: path/three.story#{0}
Given a step with a <one>
When a step with a <two>
Then another step
!-- A comment
Examples:
|one|two|
|11|12|
|21|22|

Scenario: A second scenario
Given a plain step
And another plain step
`

func mustParse(t *testing.T, text string, opts ...Option) *model.Story {
	t.Helper()
	story, err := New(opts...).Parse(text, "stories/full.story")
	require.NoError(t, err)
	return story
}

func TestParse_Description(t *testing.T) {
	story := mustParse(t, fullStory)

	assert.Equal(t, "A story description\nspanning two lines", story.Description)
	assert.Equal(t, "full.story", story.Name())
}

func TestParse_StoryMeta(t *testing.T) {
	story := mustParse(t, fullStory)

	assert.Equal(t, []string{"author", "theme"}, story.Meta.Names())
	assert.Equal(t, "Mauro", story.Meta.Property("author"))
	assert.Equal(t, "parsing", story.Meta.Property("theme"))
}

func TestParse_Narrative(t *testing.T) {
	story := mustParse(t, fullStory)

	n := story.Narrative
	require.False(t, n.IsEmpty())
	assert.False(t, n.IsAlternative())
	assert.Equal(t, "communicate effectively", n.InOrderTo())
	assert.Equal(t, "development team", n.AsA())
	assert.Equal(t, "use behaviour-driven specs", n.IWantTo())
}

func TestParse_AlternativeNarrative(t *testing.T) {
	story := mustParse(t, `Narrative:
As a development team
I want to use behaviour-driven specs
So that we communicate effectively
Scenario: x
Given y`)

	n := story.Narrative
	require.False(t, n.IsEmpty())
	assert.True(t, n.IsAlternative())
	assert.Equal(t, "development team", n.AsA())
	assert.Equal(t, "use behaviour-driven specs", n.IWantTo())
	assert.Equal(t, "we communicate effectively", n.SoThat())
}

func TestParse_NarrativeWithoutShapeIsEmpty(t *testing.T) {
	story := mustParse(t, "Narrative:\nJust some prose\nScenario: x\nGiven y")

	assert.True(t, story.Narrative.IsEmpty())
}

func TestParse_StoryGivenStories(t *testing.T) {
	story := mustParse(t, fullStory)

	assert.Equal(t, []string{"path/one.story", "path/two.story"}, story.GivenStories.Paths())
	assert.False(t, story.GivenStories.RequireParameters())
}

func TestParse_Lifecycle(t *testing.T) {
	story := mustParse(t, fullStory)

	l := story.Lifecycle
	require.False(t, l.IsEmpty())
	assert.Equal(t, []string{"Given a setup step"}, l.BeforeSteps())
	require.Len(t, l.After(), 3)
	assert.Equal(t, []model.Outcome{model.OutcomeAny, model.OutcomeSuccess, model.OutcomeFailure}, l.Outcomes())
	assert.Equal(t, "+theme ui", l.After()[1].MetaFilter)

	ui := model.ParseMeta("@theme ui", "@", "")
	api := model.ParseMeta("@theme api", "@", "")
	assert.Equal(t, []string{"Given an any step"}, l.AfterSteps(model.OutcomeAny, ui))
	assert.Equal(t, []string{"Given a success step"}, l.AfterSteps(model.OutcomeSuccess, ui))
	assert.Empty(t, l.AfterSteps(model.OutcomeSuccess, api))
	assert.Equal(t, []string{"Given a failure step"}, l.AfterSteps(model.OutcomeFailure, api))
}

func TestParse_LifecycleBeforeOnly(t *testing.T) {
	story := mustParse(t, "Lifecycle:\nBefore:\nGiven a\nGiven b\nScenario: s\nGiven c")

	assert.Equal(t, []string{"Given a", "Given b"}, story.Lifecycle.BeforeSteps())
	assert.Empty(t, story.Lifecycle.After())
}

func TestParse_LifecycleAfterOnly(t *testing.T) {
	story := mustParse(t, "Lifecycle:\nAfter:\nGiven a\nScenario: s\nGiven c")

	require.False(t, story.Lifecycle.IsEmpty())
	assert.Empty(t, story.Lifecycle.BeforeSteps())
	require.Len(t, story.Lifecycle.After(), 1)
	assert.Equal(t, model.OutcomeAny, story.Lifecycle.After()[0].Outcome)
	assert.Equal(t, []string{"Given a"}, story.Lifecycle.After()[0].Steps)
}

func TestParse_LifecycleBeforeAfterAfter(t *testing.T) {
	story := mustParse(t, "Lifecycle:\nAfter:\nGiven a\nBefore:\nGiven b\nScenario: s\nGiven c")

	assert.Equal(t, []string{"Given b"}, story.Lifecycle.BeforeSteps())
	assert.Empty(t, story.Lifecycle.After())
}

func TestParse_LifecycleWithoutGroupsIsEmpty(t *testing.T) {
	story := mustParse(t, "Lifecycle:\nGiven a\nScenario: s\nGiven c")

	assert.True(t, story.Lifecycle.IsEmpty())
}

func TestParse_Scenarios(t *testing.T) {
	story := mustParse(t, fullStory)

	require.Len(t, story.Scenarios, 2)

	first := story.Scenarios[0]
	assert.Equal(t, "A scenario with examples", first.Title)
	assert.Equal(t, []string{"skip", "theme"}, first.Meta.Names())
	assert.Equal(t, "examples", first.Meta.Property("theme"))
	assert.Equal(t, []string{
		"Given a step with a <one>",
		"When a step with a <two>",
		"Then another step",
		"!-- A comment",
	}, first.Steps)
	require.True(t, first.HasExamples())
	assert.Equal(t, []string{"one", "two"}, first.Examples.Headers())
	assert.Equal(t, 2, first.Examples.RowCount())

	second := story.Scenarios[1]
	assert.Equal(t, "A second scenario", second.Title)
	assert.True(t, second.Meta.IsEmpty())
	assert.Equal(t, []string{"Given a plain step", "And another plain step"}, second.Steps)
	assert.False(t, second.HasExamples())
}

func TestParse_ScenarioGivenStoriesBoundToExamples(t *testing.T) {
	story := mustParse(t, fullStory)

	gs := story.Scenarios[0].GivenStories
	require.True(t, gs.RequireParameters())
	stories := gs.Stories()
	require.Len(t, stories, 1)
	assert.Equal(t, "path/three.story", stories[0].Path)
	assert.Equal(t, map[string]string{"one": "11", "two": "12"}, stories[0].Parameters)
}

func TestParse_ScenarioMetaInheritsStoryMeta(t *testing.T) {
	story := mustParse(t, fullStory)

	m := story.Scenarios[0].EffectiveMeta(story.Meta)
	assert.Equal(t, "examples", m.Property("theme"))
	assert.Equal(t, "Mauro", m.Property("author"))
}

func TestParse_EmptyDocument(t *testing.T) {
	for _, text := range []string{"", "   \n\n  "} {
		story := mustParse(t, text)

		assert.Equal(t, "", story.Description)
		assert.True(t, story.Meta.IsEmpty())
		assert.True(t, story.Narrative.IsEmpty())
		assert.True(t, story.GivenStories.IsEmpty())
		assert.True(t, story.Lifecycle.IsEmpty())
		assert.Empty(t, story.Scenarios)
	}
}

func TestParse_StepSegmentation(t *testing.T) {
	story := mustParse(t, "Scenario: two steps\nGiven a precondition\nWhen an action happens")

	require.Len(t, story.Scenarios, 1)
	assert.Equal(t, []string{"Given a precondition", "When an action happens"}, story.Scenarios[0].Steps)
}

func TestParse_MultilineStep(t *testing.T) {
	story := mustParse(t, "Scenario: s\nGiven a table:\n|a|b|\n|1|2|\n\nThen done\n\n")

	assert.Equal(t, []string{"Given a table:\n|a|b|\n|1|2|", "Then done"}, story.Scenarios[0].Steps)
}

func TestParse_IndentedWordsAreNotSteps(t *testing.T) {
	story := mustParse(t, "Scenario: s\nGiven a step\n  When indented\nThen next\nThenceforth continues")

	assert.Equal(t, []string{"Given a step\n  When indented", "Then next\nThenceforth continues"}, story.Scenarios[0].Steps)
}

func TestParse_ScenarioWithoutTitle(t *testing.T) {
	story := mustParse(t, "Scenario:\nGiven a step")

	require.Len(t, story.Scenarios, 1)
	assert.Equal(t, "", story.Scenarios[0].Title)
	assert.Equal(t, []string{"Given a step"}, story.Scenarios[0].Steps)
}

func TestParse_ScenarioWithoutSteps(t *testing.T) {
	story := mustParse(t, "Scenario: only a title")

	require.Len(t, story.Scenarios, 1)
	assert.Equal(t, "only a title", story.Scenarios[0].Title)
	assert.Empty(t, story.Scenarios[0].Steps)
}

func TestParse_NoScenarioKeyword(t *testing.T) {
	story := mustParse(t, "GivenStories: a.story\nGiven a step\nThen a result")

	require.Len(t, story.Scenarios, 1)
	assert.Equal(t, []string{"Given a step", "Then a result"}, story.Scenarios[0].Steps)
	assert.True(t, story.GivenStories.IsEmpty(), "story level sections need a scenario keyword")
	assert.Equal(t, []string{"a.story"}, story.Scenarios[0].GivenStories.Paths())
}

func TestParse_NoScenarioKeywordHasNoTitleWithoutBoundary(t *testing.T) {
	story := mustParse(t, "Narrative:\nIn order to x\nAs a y\nI want to z")

	require.Len(t, story.Scenarios, 1)
	assert.Equal(t, "", story.Scenarios[0].Title)
	assert.Empty(t, story.Scenarios[0].Steps)
	assert.Equal(t, "x", story.Narrative.InOrderTo())
}

func TestParse_ExamplesWithProperties(t *testing.T) {
	story := mustParse(t, "Scenario: s\nGiven <a>\nExamples:\n{headerSeparator=!,valueSeparator=!}\n!a!b!\n!1!2!")

	ex := story.Scenarios[0].Examples
	assert.Equal(t, []string{"a", "b"}, ex.Headers())
	row, err := ex.Row(0)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a": "1", "b": "2"}, row)
	assert.Equal(t, []string{"Given <a>"}, story.Scenarios[0].Steps)
}

func TestParse_UnknownTransformerFails(t *testing.T) {
	_, err := New().Parse("Scenario: s\nGiven x\nExamples:\n{transformer=NOPE}\n|a|\n|1|", "x.story")

	var nf *table.TransformerNotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "NOPE", nf.Name)
}

func TestParse_GermanKeywords(t *testing.T) {
	de, err := keywords.ForLocale("de")
	require.NoError(t, err)

	story := mustParse(t, `Meta:
@thema parser

Szenario: Erster Fall
GegebeneGeschichten: a.story
Gegeben ein Schritt
Wenn etwas passiert
Dann stimmt es
Beispiele:
|x|
|1|`, WithKeywords(de))

	assert.Equal(t, "parser", story.Meta.Property("thema"))
	require.Len(t, story.Scenarios, 1)
	sc := story.Scenarios[0]
	assert.Equal(t, "Erster Fall", sc.Title)
	assert.Equal(t, []string{"a.story"}, sc.GivenStories.Paths())
	assert.Equal(t, []string{"Gegeben ein Schritt", "Wenn etwas passiert", "Dann stimmt es"}, sc.Steps)
	assert.Equal(t, 1, sc.Examples.RowCount())
}

func TestParse_Idempotent(t *testing.T) {
	p := New()
	a, err := p.Parse(fullStory, "a.story")
	require.NoError(t, err)
	b, err := p.Parse(fullStory, "a.story")
	require.NoError(t, err)

	assert.Equal(t, a.Scenarios[0].Steps, b.Scenarios[0].Steps)
	assert.Equal(t, a.Scenarios[0].Examples.Rows(), b.Scenarios[0].Examples.Rows())
	assert.Equal(t, a.Meta, b.Meta)
}

func TestParse_LogsAtDebug(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)

	mustParse(t, fullStory, WithLogger(zap.New(core)))

	entries := logs.FilterMessage("parsed story").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "stories/full.story", fields["path"])
	assert.EqualValues(t, 2, fields["scenarios"])
}

func TestParse_WithTableFactory(t *testing.T) {
	var loaded bytes.Buffer
	f := table.NewFactory(table.WithLoader(loaderFunc(func(path string) (string, error) {
		loaded.WriteString(path)
		return "|a|\n|1|\n|2|", nil
	})))

	story := mustParse(t, "Scenario: s\nGiven <a>\nExamples:\ndata/rows.table", WithTableFactory(f))

	assert.Equal(t, "data/rows.table", loaded.String())
	assert.Equal(t, 2, story.Scenarios[0].Examples.RowCount())
}

func TestParse_InlineExamplesNotLoaded(t *testing.T) {
	f := table.NewFactory(table.WithLoader(loaderFunc(func(path string) (string, error) {
		return "", errors.New("no such table: " + path)
	})))

	story := mustParse(t, "Scenario: s\nGiven <a>\nExamples:\n{headerSeparator=!,valueSeparator=!}\n!a!b!\n!1!2!", WithTableFactory(f))

	ex := story.Scenarios[0].Examples
	assert.Equal(t, []string{"a", "b"}, ex.Headers())
	assert.Equal(t, []map[string]string{{"a": "1", "b": "2"}}, ex.Rows())
}

type loaderFunc func(path string) (string, error)

func (f loaderFunc) LoadText(path string) (string, error) { return f(path) }
