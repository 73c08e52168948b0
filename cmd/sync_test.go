package cmd

import (
	"bytes"
	"context"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chriserin/story/internal/db"
)

const loginStory = `Users sign in with a password.
Meta:
@theme auth
Scenario: User logs in
Given a registered user
When they log in
Then they see the dashboard

Scenario: User fails login
Meta:
@severity high
Given a registered user
When they enter a wrong password
Then they see an error
Examples:
|password|
|wrong|
|blank|`

func runSync(t *testing.T) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, RunSync(&buf))
	return buf.String()
}

func TestSync_RegisterNewFile(t *testing.T) {
	inTempDir(t)
	runInit(t)
	writeStory(t, "stories/login.story", loginStory)

	out := runSync(t)

	sqlDB, err := db.Open("stories/story.db")
	require.NoError(t, err)
	defer sqlDB.Close()

	var filePath string
	require.NoError(t, sqlDB.QueryRow(`SELECT file_path FROM files`).Scan(&filePath))
	assert.Equal(t, "stories/login.story", filePath)
	assert.Contains(t, out, "new  stories/login.story")
}

func TestSync_RegisterMultipleFiles(t *testing.T) {
	inTempDir(t)
	runInit(t)
	writeStory(t, "stories/login.story", loginStory)
	writeStory(t, "stories/checkout.story", "Scenario: pay\nGiven a cart")

	out := runSync(t)

	assert.Contains(t, out, "new  stories/login.story")
	assert.Contains(t, out, "new  stories/checkout.story")
	assert.Less(t, strings.Index(out, "checkout"), strings.Index(out, "login"))
}

func TestSync_WalksSubdirectories(t *testing.T) {
	inTempDir(t)
	runInit(t)
	writeStory(t, "stories/auth/login.story", loginStory)

	out := runSync(t)

	assert.Contains(t, out, "new  stories/auth/login.story")
}

func TestSync_ShowAlreadyTrackedFile(t *testing.T) {
	inTempDir(t)
	runInit(t)
	writeStory(t, "stories/login.story", loginStory)

	runSync(t)
	out := runSync(t)

	assert.Contains(t, out, "trk  stories/login.story")
}

func TestSync_ChangedFileIsUpdated(t *testing.T) {
	inTempDir(t)
	runInit(t)
	writeStory(t, "stories/login.story", loginStory)
	runSync(t)

	writeStory(t, "stories/login.story", loginStory+"\n|expired|")
	out := runSync(t)

	assert.Contains(t, out, "upd  stories/login.story")

	sqlDB, err := db.Open("stories/story.db")
	require.NoError(t, err)
	defer sqlDB.Close()
	s, err := db.FindScenario(sqlDB, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, s.ExampleRows)
}

func TestSync_DeletedFileIsRemoved(t *testing.T) {
	inTempDir(t)
	runInit(t)
	writeStory(t, "stories/login.story", loginStory)
	runSync(t)

	require.NoError(t, os.Remove("stories/login.story"))
	out := runSync(t)

	assert.Contains(t, out, "del  stories/login.story")
	assert.Contains(t, out, "synced 0 files, 0 scenarios")
}

func TestSync_NoStories(t *testing.T) {
	inTempDir(t)
	runInit(t)

	out := runSync(t)

	assert.Contains(t, out, "synced 0 files")
}

func TestSync_OtherFilesIgnored(t *testing.T) {
	inTempDir(t)
	runInit(t)
	writeStory(t, "stories/notes.txt", "Scenario: not a story")
	writeStory(t, "stories/login.story", loginStory)

	out := runSync(t)

	assert.NotContains(t, out, "notes.txt")
	assert.Contains(t, out, "synced 1 files, 2 scenarios")
}

func TestSync_StoresScenarios(t *testing.T) {
	inTempDir(t)
	runInit(t)
	writeStory(t, "stories/login.story", loginStory)

	runSync(t)

	sqlDB, err := db.Open("stories/story.db")
	require.NoError(t, err)
	defer sqlDB.Close()

	scenarios, err := db.Scenarios(sqlDB)
	require.NoError(t, err)
	require.Len(t, scenarios, 2)
	assert.Equal(t, "User logs in", scenarios[0].Title)
	assert.Equal(t, 3, scenarios[0].Steps)
	assert.Equal(t, "auth", scenarios[0].Meta.Property("theme"))
	assert.Equal(t, "User fails login", scenarios[1].Title)
	assert.Equal(t, 2, scenarios[1].ExampleRows)
	assert.Equal(t, "high", scenarios[1].Meta.Property("severity"))
	assert.Equal(t, "auth", scenarios[1].Meta.Property("theme"))
}

func TestSync_IsIdempotent(t *testing.T) {
	inTempDir(t)
	runInit(t)
	writeStory(t, "stories/login.story", loginStory)

	runSync(t)
	runSync(t)

	sqlDB, err := db.Open("stories/story.db")
	require.NoError(t, err)
	defer sqlDB.Close()

	var count int
	require.NoError(t, sqlDB.QueryRow(`SELECT COUNT(*) FROM scenarios`).Scan(&count))
	assert.Equal(t, 2, count)
}

func TestSync_CustomExtension(t *testing.T) {
	inTempDir(t)
	require.NoError(t, os.WriteFile(".story.yaml", []byte("extension: .txt\n"), 0o644))
	runInit(t)
	writeStory(t, "stories/login.txt", loginStory)

	out := runSync(t)

	assert.Contains(t, out, "new  stories/login.txt")
}

func TestSync_GermanLocale(t *testing.T) {
	inTempDir(t)
	require.NoError(t, os.WriteFile(".story.yaml", []byte("locale: de\n"), 0o644))
	runInit(t)
	writeStory(t, "stories/anmelden.story", "Szenario: Anmelden\nGegeben sei ein Nutzer\nDann sieht er das Dashboard")

	out := runSync(t)

	assert.Contains(t, out, "synced 1 files, 1 scenarios")
}

func TestSync_WithoutInit(t *testing.T) {
	inTempDir(t)

	var buf bytes.Buffer
	err := RunSync(&buf)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "run `story init` first")
}

func TestWatch_InitialSyncThenStop(t *testing.T) {
	inTempDir(t)
	runInit(t)
	writeStory(t, "stories/login.story", loginStory)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	var buf bytes.Buffer
	require.NoError(t, RunWatch(ctx, &buf))
	assert.Contains(t, buf.String(), "new  stories/login.story")
}

// gateWriter blocks the first write after arm until release is closed.
type gateWriter struct {
	mu      sync.Mutex
	buf     bytes.Buffer
	armed   bool
	entered chan struct{}
	release chan struct{}
}

func newGateWriter() *gateWriter {
	return &gateWriter{entered: make(chan struct{}), release: make(chan struct{})}
}

func (g *gateWriter) arm() {
	g.mu.Lock()
	g.armed = true
	g.mu.Unlock()
}

func (g *gateWriter) Write(p []byte) (int, error) {
	g.mu.Lock()
	blocked := g.armed
	g.armed = false
	g.mu.Unlock()
	if blocked {
		close(g.entered)
		<-g.release
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.buf.Write(p)
}

func (g *gateWriter) String() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.buf.String()
}

func TestWatch_WaitsForRunningResync(t *testing.T) {
	inTempDir(t)
	runInit(t)
	writeStory(t, "stories/login.story", loginStory)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w := newGateWriter()
	done := make(chan error, 1)
	go func() { done <- RunWatch(ctx, w) }()

	require.Eventually(t, func() bool {
		return strings.Contains(w.String(), "synced 1 files")
	}, 2*time.Second, 10*time.Millisecond)

	w.arm()
	writeStory(t, "stories/login.story", loginStory+"\nThen they log out")
	select {
	case <-w.entered:
	case <-time.After(3 * time.Second):
		t.Fatal("resync did not start")
	}

	cancel()
	select {
	case <-done:
		t.Fatal("returned while a resync was still writing")
	case <-time.After(100 * time.Millisecond):
	}

	close(w.release)
	require.NoError(t, <-done)
	out := w.String()
	assert.Contains(t, out, "upd  stories/login.story")

	time.Sleep(debounce + 100*time.Millisecond)
	assert.Equal(t, out, w.String())
}
