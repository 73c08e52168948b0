package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const accountStory = `Account access
Narrative:
As a customer
I want to sign in
So that I can see my orders
Lifecycle:
Before:
Given the site is up
Scenario: User logs in
Given the user is on the login page
When the user enters valid credentials
Then the user sees the dashboard

Scenario: User logs in with a role
Given a user with role <role>
!-- roles come from the directory
Then the menu shows <menu>
Examples:
|role|menu|
|admin|all|
|guest|some|`

func runShow(t *testing.T, id string) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, RunShow(&buf, id))
	return buf.String()
}

func runShowHistory(t *testing.T, id string) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, RunShowHistory(&buf, id))
	return buf.String()
}

func setupAccount(t *testing.T) {
	t.Helper()
	inTempDir(t)
	runInit(t)
	writeStory(t, "stories/account.story", accountStory)
	runSync(t)
}

func TestShow_SingleScenario(t *testing.T) {
	setupAccount(t)

	out := runShow(t, "1")

	assert.Contains(t, out, "#1  account.story")
	assert.Contains(t, out, "Outcome: none")
	assert.Contains(t, out, "Scenario: User logs in")
	assert.Contains(t, out, "When the user enters valid credentials")
	assert.NotContains(t, out, "with a role")
}

func TestShow_IncludesNarrativeAndLifecycle(t *testing.T) {
	setupAccount(t)

	out := runShow(t, "1")

	assert.Contains(t, out, "Narrative:")
	assert.Contains(t, out, "So that I can see my orders")
	assert.Contains(t, out, "Lifecycle:")
	assert.Contains(t, out, "Given the site is up")
	assert.Less(t, strings.Index(out, "Lifecycle:"), strings.Index(out, "Scenario:"))
}

func TestShow_IncludesExamples(t *testing.T) {
	setupAccount(t)

	out := runShow(t, "2")

	assert.Contains(t, out, "Examples:")
	assert.Contains(t, out, "admin")
	assert.Contains(t, out, "guest")
	assert.Contains(t, out, "!-- roles come from the directory")
}

func TestShow_AcceptsHashPrefix(t *testing.T) {
	setupAccount(t)

	out := runShow(t, "#2")

	assert.Contains(t, out, "#2  account.story")
}

func TestShow_DisplaysCurrentOutcome(t *testing.T) {
	setupAccount(t)
	runStatusUpdate(t, "1", "FAILURE")
	runStatusUpdate(t, "1", "SUCCESS")

	out := runShow(t, "1")

	assert.Contains(t, out, "Outcome: SUCCESS")
}

func TestShow_UnknownIDReturnsError(t *testing.T) {
	setupAccount(t)

	var buf bytes.Buffer
	err := RunShow(&buf, "99")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "scenario 99 not found")
}

func TestShow_RequiresInit(t *testing.T) {
	inTempDir(t)

	var buf bytes.Buffer
	err := RunShow(&buf, "1")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "run `story init` first")
}

func TestShow_FallsBackToIndexedSteps(t *testing.T) {
	setupAccount(t)
	writeStory(t, "stories/account.story", "Scenario: Something else\nGiven nothing")

	out := runShow(t, "1")

	assert.Contains(t, out, "Scenario: User logs in")
	assert.Contains(t, out, "Then the user sees the dashboard")
	assert.NotContains(t, out, "Something else")
}

func TestShow_HistoryFlag(t *testing.T) {
	setupAccount(t)
	runStatusUpdate(t, "1", "FAILURE")
	runStatusUpdate(t, "1", "SUCCESS")

	out := runShowHistory(t, "1")

	assert.Contains(t, out, "History:")
	assert.Contains(t, out, "#1")
	assert.Contains(t, out, "User logs in")
	assert.Contains(t, out, "SUCCESS")
	assert.Contains(t, out, "FAILURE")
	assert.Less(t, strings.Index(out, "SUCCESS"), strings.Index(out, "FAILURE"))
	assert.NotContains(t, out, "Scenario:")
}

func TestShow_HistoryWithoutOutcomes(t *testing.T) {
	setupAccount(t)

	out := runShowHistory(t, "1")

	assert.Contains(t, out, "History:")
	assert.Contains(t, out, "none")
}
