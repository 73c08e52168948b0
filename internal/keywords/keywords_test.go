package keywords

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_English(t *testing.T) {
	k := Default()
	assert.Equal(t, "Scenario:", k.Scenario)
	assert.Equal(t, "Examples:", k.ExamplesTable)
	assert.Equal(t, "|--", k.ExamplesTableIgnorableSeparator)
	assert.Equal(t, []string{"Given", "When", "Then", "And", "!--"}, k.StartingWords())
}

func TestDefault_ReturnsCopy(t *testing.T) {
	k := Default()
	k.Scenario = "Changed:"
	assert.Equal(t, "Scenario:", Default().Scenario)
}

func TestForLocale_Regional(t *testing.T) {
	k, err := ForLocale("de-CH")
	require.NoError(t, err)
	assert.Equal(t, "Szenario:", k.Scenario)
	assert.Equal(t, "Gegeben", k.Given)
}

func TestForLocale_AllEmbeddedLocalesValidate(t *testing.T) {
	for _, name := range Locales() {
		k, err := ForLocale(name)
		require.NoError(t, err, name)
		assert.NoError(t, k.Validate(), name)
	}
}

func TestForLocale_Unknown(t *testing.T) {
	_, err := ForLocale("ja")
	assert.Error(t, err)
}

func TestForLocale_Malformed(t *testing.T) {
	_, err := ForLocale("not a locale!")
	assert.Error(t, err)
}

func TestLoad_PartialTableKeepsDefaults(t *testing.T) {
	k, err := Load(strings.NewReader("scenario: \"Case:\"\ngiven: Assuming\n"))
	require.NoError(t, err)
	assert.Equal(t, "Case:", k.Scenario)
	assert.Equal(t, "Assuming", k.Given)
	assert.Equal(t, "When", k.When)
}

func TestLoad_UnknownKey(t *testing.T) {
	_, err := Load(strings.NewReader("scenrio: \"Case:\"\n"))
	assert.Error(t, err)
}

func TestWithOverrides(t *testing.T) {
	k, err := Default().WithOverrides(map[string]string{"examplesTable": "Table:"})
	require.NoError(t, err)
	assert.Equal(t, "Table:", k.ExamplesTable)
	assert.Equal(t, "Examples:", Default().ExamplesTable)
}

func TestWithOverrides_RejectsUnknownKey(t *testing.T) {
	_, err := Default().WithOverrides(map[string]string{"scenarioo": "Case:"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scenarioo")
}

func TestWithOverrides_RejectsEmpty(t *testing.T) {
	_, err := Default().WithOverrides(map[string]string{"scenario": ""})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scenario")
}
