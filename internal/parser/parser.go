// Package parser segments story documents into the model. Every section is
// located by scanning for its keyword and slicing up to the nearest following
// boundary keyword; a missing keyword or boundary leaves the section empty.
package parser

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/chriserin/story/internal/keywords"
	"github.com/chriserin/story/internal/model"
	"github.com/chriserin/story/internal/table"
)

// StoryParser turns document text into a story.
type StoryParser interface {
	Parse(text, path string) (*model.Story, error)
}

// Parser is safe for concurrent use.
type Parser struct {
	keywords *keywords.Keywords
	tables   *table.Factory
	logger   *zap.Logger
}

type Option func(*Parser)

func WithKeywords(k *keywords.Keywords) Option {
	return func(p *Parser) { p.keywords = k }
}

// WithTableFactory sets the factory for examples tables. Without it the
// parser builds one from its keywords.
func WithTableFactory(f *table.Factory) Option {
	return func(p *Parser) { p.tables = f }
}

func WithLogger(l *zap.Logger) Option {
	return func(p *Parser) { p.logger = l }
}

func New(opts ...Option) *Parser {
	p := &Parser{keywords: keywords.Default(), logger: zap.NewNop()}
	for _, opt := range opts {
		opt(p)
	}
	if p.tables == nil {
		p.tables = table.NewFactory(table.WithKeywords(p.keywords))
	}
	return p
}

func (p *Parser) Keywords() *keywords.Keywords {
	return p.keywords
}

// Parse builds a story from text. Malformed or partial documents never fail;
// the only errors come from an examples table that names an unregistered
// transformer or a resource the table loader cannot read.
func (p *Parser) Parse(text, path string) (*model.Story, error) {
	k := p.keywords
	preamble, hasScenario := text, false
	if i := strings.Index(text, k.Scenario); i >= 0 {
		preamble, hasScenario = text[:i], true
	}

	story := &model.Story{
		Path:        path,
		Description: p.description(text),
		Meta:        p.storyMeta(preamble),
		Narrative:   p.narrative(preamble),
	}
	if hasScenario {
		story.GivenStories = p.storyGivenStories(preamble)
		story.Lifecycle = p.lifecycle(preamble)
	}

	scenarios, err := p.scenarios(text)
	if err != nil {
		return nil, err
	}
	story.Scenarios = scenarios

	p.logger.Debug("parsed story",
		zap.String("path", path),
		zap.Int("scenarios", len(scenarios)),
		zap.Int("steps", story.StepCount()),
		zap.Bool("lifecycle", !story.Lifecycle.IsEmpty()),
	)
	return story, nil
}

func (p *Parser) description(text string) string {
	k := p.keywords
	end := index(text, 0, k.Meta, k.Narrative, k.Lifecycle, k.Scenario)
	if end == len(text) {
		return ""
	}
	return strings.TrimSpace(text[:end])
}

func (p *Parser) storyMeta(preamble string) model.Meta {
	k := p.keywords
	span, ok := section(preamble, k.Meta, k.Narrative, k.Lifecycle, k.GivenStories)
	if !ok {
		return model.Meta{}
	}
	return p.meta(span)
}

func (p *Parser) meta(span string) model.Meta {
	return model.ParseMeta(strings.TrimSpace(span), p.keywords.MetaProperty, p.keywords.Ignorable)
}

func (p *Parser) narrative(preamble string) model.Narrative {
	k := p.keywords
	span, ok := section(preamble, k.Narrative, k.GivenStories, k.Lifecycle)
	if !ok {
		return model.Narrative{}
	}
	if w := strings.LastIndex(span, k.IWantTo); w >= 0 {
		if a := strings.LastIndex(span[:w], k.AsA); a >= 0 {
			if o := strings.LastIndex(span[:a], k.InOrderTo); o >= 0 {
				return model.NewNarrative(
					strings.TrimSpace(span[o+len(k.InOrderTo):a]),
					strings.TrimSpace(span[a+len(k.AsA):w]),
					strings.TrimSpace(span[w+len(k.IWantTo):]),
				)
			}
		}
	}
	if s := strings.LastIndex(span, k.SoThat); s >= 0 {
		if w := strings.LastIndex(span[:s], k.IWantTo); w >= 0 {
			if a := strings.LastIndex(span[:w], k.AsA); a >= 0 {
				return model.NewAlternativeNarrative(
					strings.TrimSpace(span[a+len(k.AsA):w]),
					strings.TrimSpace(span[w+len(k.IWantTo):s]),
					strings.TrimSpace(span[s+len(k.SoThat):]),
				)
			}
		}
	}
	return model.Narrative{}
}

func (p *Parser) storyGivenStories(preamble string) model.GivenStories {
	span, ok := section(preamble, p.keywords.GivenStories, p.keywords.Lifecycle)
	if !ok {
		return model.GivenStories{}
	}
	return model.ParseGivenStories(strings.TrimSpace(span))
}

func (p *Parser) lifecycle(preamble string) model.Lifecycle {
	k := p.keywords
	span, ok := section(preamble, k.Lifecycle)
	if !ok {
		return model.Lifecycle{}
	}
	b := strings.LastIndex(span, k.Before)
	a := strings.LastIndex(span, k.After)
	if b < 0 && a < 0 {
		return model.Lifecycle{}
	}
	if a >= 0 {
		if i := strings.LastIndex(span[:a], k.Before); i >= 0 {
			return model.NewLifecycle(p.group(span[i+len(k.Before):a]), p.afterGroups(span[a+len(k.After):])...)
		}
	}
	// a Before with no After following it makes the whole tail before steps
	if b >= 0 {
		return model.NewLifecycle(p.group(span[b+len(k.Before):]))
	}
	return model.NewLifecycle(model.Steps{}, p.afterGroups(span[a+len(k.After):])...)
}

func (p *Parser) group(span string) model.Steps {
	return model.Steps{Outcome: model.OutcomeAny, Steps: p.steps("\n" + strings.TrimSpace(span))}
}

func (p *Parser) afterGroups(span string) []model.Steps {
	k := p.keywords
	var groups []model.Steps
	for _, piece := range strings.Split(span, k.Outcome) {
		piece = strings.TrimSpace(piece)
		if piece == "" {
			continue
		}
		g := model.Steps{Outcome: model.OutcomeAny}
		g.Outcome, piece = p.outcome(piece)
		if rest := strings.TrimSpace(piece); strings.HasPrefix(rest, k.MetaFilter) {
			expr := rest[len(k.MetaFilter):]
			end := len(expr)
			if starts := p.stepStarts(expr); len(starts) > 0 {
				end = starts[0]
			}
			g.MetaFilter = strings.TrimSpace(expr[:end])
			piece = expr[end:]
		}
		g.Steps = p.steps("\n" + strings.TrimSpace(piece))
		groups = append(groups, g)
	}
	return groups
}

func (p *Parser) outcome(piece string) (model.Outcome, string) {
	k := p.keywords
	words := []struct {
		word    string
		outcome model.Outcome
	}{
		{k.OutcomeAny, model.OutcomeAny},
		{k.OutcomeSuccess, model.OutcomeSuccess},
		{k.OutcomeFailure, model.OutcomeFailure},
	}
	for _, w := range words {
		if w.word != "" && len(piece) >= len(w.word) && strings.EqualFold(piece[:len(w.word)], w.word) {
			return w.outcome, piece[len(w.word):]
		}
	}
	return model.OutcomeAny, piece
}

func (p *Parser) scenarios(text string) ([]model.Scenario, error) {
	k := p.keywords
	body, hasScenario := text, false
	if i := strings.Index(text, k.Scenario); i >= 0 {
		body, hasScenario = text[i+len(k.Scenario):], true
	}
	var scenarios []model.Scenario
	for _, piece := range strings.Split(body, k.Scenario) {
		if strings.TrimSpace(piece) == "" {
			continue
		}
		sc, err := p.scenario("\n"+piece, hasScenario)
		if err != nil {
			return nil, err
		}
		scenarios = append(scenarios, sc)
	}
	return scenarios, nil
}

// scenario parses one scenario fragment. text holds everything after the
// scenario keyword and starts with a line break. Only a fragment that follows
// the keyword has a title running to the end of text.
func (p *Parser) scenario(text string, keyword bool) (model.Scenario, error) {
	k := p.keywords
	titleEnd := index(text, 0, append(p.lineStarts(), k.Meta, "\n"+k.ExamplesTable)...)
	if !keyword && titleEnd == len(text) {
		titleEnd = 0
	}
	sc := model.Scenario{Title: strings.TrimSpace(text[:titleEnd])}

	body := text[titleEnd:]
	if !strings.HasPrefix(body, "\n") {
		body = "\n" + body
	}

	head := body
	if i := strings.Index(body, "\n"+k.ExamplesTable); i >= 0 {
		head = body[:i]
	}
	if span, ok := section(head, k.Meta, append(p.lineStarts(), k.GivenStories)...); ok {
		sc.Meta = p.meta(span)
	}

	if i := strings.Index(head, "\n"+k.GivenStories); i >= 0 {
		from := i + 1 + len(k.GivenStories)
		end := index(head, from, p.lineStarts()...)
		sc.GivenStories = model.ParseGivenStories(strings.TrimSpace(head[from:end]))
	}

	examples := p.tables.Empty()
	if i := strings.Index(body, "\n"+k.ExamplesTable); i >= 0 {
		t, err := p.tables.Create(strings.TrimSpace(body[i+1+len(k.ExamplesTable):]))
		if err != nil {
			return model.Scenario{}, err
		}
		examples = t
	}
	sc.Examples = examples
	if sc.GivenStories.RequireParameters() {
		sc.GivenStories = sc.GivenStories.UseExamplesTable(examples)
	}

	sc.Steps = p.steps(body)
	return sc, nil
}

// steps splits text into steps. A step starts at a line beginning with a
// starting word followed by whitespace and runs to the next such line, the
// examples keyword, or the end of text.
func (p *Parser) steps(text string) []string {
	if i := strings.Index(text, "\n"+p.keywords.ExamplesTable); i >= 0 {
		text = text[:i]
	}
	starts := p.stepStarts(text)
	steps := make([]string, 0, len(starts))
	for n, start := range starts {
		end := len(text)
		if n+1 < len(starts) {
			end = starts[n+1]
		}
		steps = append(steps, strings.TrimRightFunc(text[start+1:end], unicode.IsSpace))
	}
	return steps
}

// stepStarts returns the offsets of line breaks that introduce a step.
func (p *Parser) stepStarts(text string) []int {
	var starts []int
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' && p.startsStep(text[i+1:]) {
			starts = append(starts, i)
		}
	}
	return starts
}

func (p *Parser) startsStep(line string) bool {
	for _, w := range p.keywords.StartingWords() {
		if w == "" || !strings.HasPrefix(line, w) {
			continue
		}
		r, _ := utf8.DecodeRuneInString(line[len(w):])
		if unicode.IsSpace(r) {
			return true
		}
	}
	return false
}

// lineStarts returns each starting word prefixed by a line break.
func (p *Parser) lineStarts() []string {
	words := p.keywords.StartingWords()
	out := make([]string, 0, len(words))
	for _, w := range words {
		out = append(out, "\n"+w)
	}
	return out
}

// section returns the text after the last occurrence of keyword up to the
// nearest boundary, or the end of text.
func section(text, keyword string, boundaries ...string) (string, bool) {
	if keyword == "" {
		return "", false
	}
	i := strings.LastIndex(text, keyword)
	if i < 0 {
		return "", false
	}
	from := i + len(keyword)
	return text[from:index(text, from, boundaries...)], true
}

// index returns the smallest offset at or after from where any boundary
// occurs, or len(text) when none does.
func index(text string, from int, boundaries ...string) int {
	end := len(text)
	for _, b := range boundaries {
		if b == "" {
			continue
		}
		if i := strings.Index(text[from:], b); i >= 0 && from+i < end {
			end = from + i
		}
	}
	return end
}
