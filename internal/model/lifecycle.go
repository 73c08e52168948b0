package model

import (
	"strings"

	"github.com/chriserin/story/internal/keywords"
)

// Outcome selects which after-steps run for a scenario result.
type Outcome int

const (
	OutcomeAny Outcome = iota
	OutcomeSuccess
	OutcomeFailure
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "SUCCESS"
	case OutcomeFailure:
		return "FAILURE"
	}
	return "ANY"
}

// ParseOutcome accepts an outcome by its canonical name or its localized
// keyword, ignoring case.
func ParseOutcome(k *keywords.Keywords, word string) (Outcome, bool) {
	word = strings.TrimSpace(word)
	for _, o := range []struct {
		outcome Outcome
		local   string
	}{
		{OutcomeAny, k.OutcomeAny},
		{OutcomeSuccess, k.OutcomeSuccess},
		{OutcomeFailure, k.OutcomeFailure},
	} {
		if strings.EqualFold(word, o.outcome.String()) || strings.EqualFold(word, o.local) {
			return o.outcome, true
		}
	}
	return OutcomeAny, false
}

// Steps is one lifecycle step group.
type Steps struct {
	Outcome    Outcome
	MetaFilter string
	Steps      []string
}

// Lifecycle holds the before group and the after groups run around every
// scenario. The zero value is absent.
type Lifecycle struct {
	present bool
	before  Steps
	after   []Steps
}

func NewLifecycle(before Steps, after ...Steps) Lifecycle {
	return Lifecycle{present: true, before: before, after: after}
}

func (l Lifecycle) IsEmpty() bool {
	return !l.present
}

func (l Lifecycle) Before() Steps {
	return l.before
}

func (l Lifecycle) BeforeSteps() []string {
	return l.before.Steps
}

func (l Lifecycle) After() []Steps {
	return l.after
}

// Outcomes lists the outcome of each after group, in order.
func (l Lifecycle) Outcomes() []Outcome {
	var out []Outcome
	for _, s := range l.after {
		out = append(out, s.Outcome)
	}
	return out
}

// AfterSteps collects the steps of after groups for outcome. A group with a
// meta filter contributes only when meta is empty or passes the filter.
func (l Lifecycle) AfterSteps(outcome Outcome, meta Meta) []string {
	var steps []string
	for _, s := range l.after {
		if s.Outcome != outcome {
			continue
		}
		if s.MetaFilter != "" && !meta.IsEmpty() && !ParseMetaFilter(s.MetaFilter).Allow(meta) {
			continue
		}
		steps = append(steps, s.Steps...)
	}
	return steps
}
