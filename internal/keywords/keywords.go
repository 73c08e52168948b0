// Package keywords holds the localized tokens that delimit the sections of a
// story document.
package keywords

import (
	"embed"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/mitchellh/mapstructure"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

//go:embed locales/*.yaml
var localeFS embed.FS

// Keywords is one locale's keyword table. It is a plain value and is safe to
// share between goroutines once built.
type Keywords struct {
	Meta                            string `yaml:"meta"`
	MetaProperty                    string `yaml:"metaProperty"`
	Narrative                       string `yaml:"narrative"`
	InOrderTo                       string `yaml:"inOrderTo"`
	AsA                             string `yaml:"asA"`
	IWantTo                         string `yaml:"iWantTo"`
	SoThat                          string `yaml:"soThat"`
	Scenario                        string `yaml:"scenario"`
	GivenStories                    string `yaml:"givenStories"`
	Lifecycle                       string `yaml:"lifecycle"`
	Before                          string `yaml:"before"`
	After                           string `yaml:"after"`
	ExamplesTable                   string `yaml:"examplesTable"`
	ExamplesTableHeaderSeparator    string `yaml:"examplesTableHeaderSeparator"`
	ExamplesTableValueSeparator     string `yaml:"examplesTableValueSeparator"`
	ExamplesTableIgnorableSeparator string `yaml:"examplesTableIgnorableSeparator"`
	Given                           string `yaml:"given"`
	When                            string `yaml:"when"`
	Then                            string `yaml:"then"`
	And                             string `yaml:"and"`
	Ignorable                       string `yaml:"ignorable"`
	Outcome                         string `yaml:"outcome"`
	OutcomeAny                      string `yaml:"outcomeAny"`
	OutcomeSuccess                  string `yaml:"outcomeSuccess"`
	OutcomeFailure                  string `yaml:"outcomeFailure"`
	MetaFilter                      string `yaml:"metaFilter"`
}

var supported = []language.Tag{
	language.English,
	language.German,
	language.French,
	language.Italian,
	language.Portuguese,
}

var matcher = language.NewMatcher(supported)

var english = mustLocale("en")

// Default returns the English keyword table.
func Default() *Keywords {
	k := *english
	return &k
}

// StartingWords returns the words that open a step, in matching order.
func (k *Keywords) StartingWords() []string {
	return []string{k.Given, k.When, k.Then, k.And, k.Ignorable}
}

// Locales lists the embedded locale names.
func Locales() []string {
	names := make([]string, 0, len(supported))
	for _, t := range supported {
		names = append(names, t.String())
	}
	sort.Strings(names)
	return names
}

// ForLocale returns the table for the embedded locale that best matches tag,
// e.g. "de-CH" resolves to the German table.
func ForLocale(tag string) (*Keywords, error) {
	t, err := language.Parse(tag)
	if err != nil {
		return nil, fmt.Errorf("parsing locale %q: %w", tag, err)
	}
	_, idx, conf := matcher.Match(t)
	if conf == language.No {
		return nil, fmt.Errorf("no keywords for locale %q (have %s)", tag, strings.Join(Locales(), ", "))
	}
	base, _ := supported[idx].Base()
	return loadLocale(base.String())
}

// Load reads a YAML keyword table. Keys absent from r keep their English value.
func Load(r io.Reader) (*Keywords, error) {
	k := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(k); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decoding keywords: %w", err)
	}
	if err := k.Validate(); err != nil {
		return nil, err
	}
	return k, nil
}

// WithOverrides returns a copy of k with the named keywords replaced. Names
// are the YAML keys of the locale files, e.g. "scenario" or "given".
func (k *Keywords) WithOverrides(overrides map[string]string) (*Keywords, error) {
	c := *k
	if len(overrides) == 0 {
		return &c, nil
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:     "yaml",
		Result:      &c,
		ErrorUnused: true,
	})
	if err != nil {
		return nil, fmt.Errorf("creating decoder: %w", err)
	}
	if err := dec.Decode(overrides); err != nil {
		return nil, fmt.Errorf("applying keyword overrides: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate reports keywords that are empty. An empty keyword would match
// everywhere and collapse every section boundary.
func (k *Keywords) Validate() error {
	var raw map[string]string
	data, err := yaml.Marshal(k)
	if err != nil {
		return fmt.Errorf("encoding keywords: %w", err)
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decoding keywords: %w", err)
	}
	var empty []string
	for name, v := range raw {
		if v == "" {
			empty = append(empty, name)
		}
	}
	if len(empty) > 0 {
		sort.Strings(empty)
		return fmt.Errorf("empty keywords: %s", strings.Join(empty, ", "))
	}
	return nil
}

func loadLocale(name string) (*Keywords, error) {
	data, err := localeFS.ReadFile("locales/" + name + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("reading locale %s: %w", name, err)
	}
	var k Keywords
	if err := yaml.Unmarshal(data, &k); err != nil {
		return nil, fmt.Errorf("decoding locale %s: %w", name, err)
	}
	return &k, nil
}

func mustLocale(name string) *Keywords {
	k, err := loadLocale(name)
	if err != nil {
		panic(err)
	}
	return k
}
