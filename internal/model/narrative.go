package model

import (
	"strings"

	"github.com/chriserin/story/internal/keywords"
)

// NarrativeKind tells which textual shape a narrative was written in.
type NarrativeKind int

const (
	NarrativeAbsent NarrativeKind = iota
	NarrativeInOrderTo
	NarrativeSoThat
)

// Narrative is absent, or one of the two textual forms:
// "In order to / As a / I want to" or "As a / I want to / So that".
// The zero value is absent.
type Narrative struct {
	kind      NarrativeKind
	inOrderTo string
	asA       string
	iWantTo   string
	soThat    string
}

func NewNarrative(inOrderTo, asA, iWantTo string) Narrative {
	return Narrative{kind: NarrativeInOrderTo, inOrderTo: inOrderTo, asA: asA, iWantTo: iWantTo}
}

func NewAlternativeNarrative(asA, iWantTo, soThat string) Narrative {
	return Narrative{kind: NarrativeSoThat, asA: asA, iWantTo: iWantTo, soThat: soThat}
}

func (n Narrative) Kind() NarrativeKind { return n.kind }
func (n Narrative) InOrderTo() string { return n.inOrderTo }
func (n Narrative) AsA() string       { return n.asA }
func (n Narrative) IWantTo() string   { return n.iWantTo }
func (n Narrative) SoThat() string    { return n.soThat }

func (n Narrative) IsEmpty() bool {
	return n.kind == NarrativeAbsent
}

// IsAlternative reports the "As a / I want to / So that" form, i.e. an empty
// "in order to" field.
func (n Narrative) IsAlternative() bool {
	return n.inOrderTo == ""
}

// AsString renders the narrative with the given keywords, one clause per line.
func (n Narrative) AsString(k *keywords.Keywords) string {
	if n.IsEmpty() {
		return ""
	}
	var lines []string
	if n.IsAlternative() {
		lines = []string{k.AsA + " " + n.asA, k.IWantTo + " " + n.iWantTo, k.SoThat + " " + n.soThat}
	} else {
		lines = []string{k.InOrderTo + " " + n.inOrderTo, k.AsA + " " + n.asA, k.IWantTo + " " + n.iWantTo}
	}
	return strings.Join(lines, "\n")
}
