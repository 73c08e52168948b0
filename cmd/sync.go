package cmd

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/chriserin/story/internal/db"
	"github.com/chriserin/story/internal/ui"
)

var watchFlag bool

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Parse stories and index their scenarios",
	RunE: func(cmd *cobra.Command, args []string) error {
		if watchFlag {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return RunWatch(ctx, cmd.OutOrStdout())
		}
		return RunSync(cmd.OutOrStdout())
	},
}

func init() {
	syncCmd.Flags().BoolVarP(&watchFlag, "watch", "w", false, "Re-sync whenever a story changes")
	rootCmd.AddCommand(syncCmd)
}

const debounce = 500 * time.Millisecond

func RunSync(w io.Writer) error {
	e, err := loadEnv()
	if err != nil {
		return err
	}
	if err := e.requireInit(); err != nil {
		return err
	}
	return e.syncAll(w)
}

func (e *env) syncAll(w io.Writer) error {
	sqlDB, err := db.Open(e.cfg.DatabasePath())
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer sqlDB.Close()

	paths, err := e.storyFiles()
	if err != nil {
		return err
	}

	scenarios := 0
	for _, path := range paths {
		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		story, err := e.parser.Parse(string(content), path)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", path, err)
		}
		change, err := db.SaveStory(sqlDB, story, db.Hash(content))
		if err != nil {
			return err
		}
		logger.Debug("synced story", zap.String("path", path), zap.String("change", string(change)))
		ui.ChangeLine(w, change, path)
		scenarios += len(story.Scenarios)
	}

	removed, err := db.RemoveMissing(sqlDB, paths)
	if err != nil {
		return err
	}
	for _, path := range removed {
		ui.ChangeLine(w, db.Removed, path)
	}

	ui.SummaryLine(w, len(paths), scenarios)
	return nil
}

// storyFiles lists every story under the stories directory, sorted.
func (e *env) storyFiles() ([]string, error) {
	var paths []string
	err := filepath.WalkDir(e.cfg.StoriesDir(), func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(path, e.cfg.Extension) {
			paths = append(paths, filepath.ToSlash(path))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", e.cfg.StoriesDir(), err)
	}
	sort.Strings(paths)
	return paths, nil
}

// RunWatch syncs once, then again after story changes settle, until ctx is done.
func RunWatch(ctx context.Context, w io.Writer) error {
	e, err := loadEnv()
	if err != nil {
		return err
	}
	if err := e.requireInit(); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	err = filepath.WalkDir(e.cfg.StoriesDir(), func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return err
		}
		return watcher.Add(path)
	})
	if err != nil {
		return fmt.Errorf("watching %s: %w", e.cfg.StoriesDir(), err)
	}

	var mu sync.Mutex
	stopped := false
	resync := func() {
		mu.Lock()
		defer mu.Unlock()
		if stopped {
			return
		}
		if err := e.syncAll(w); err != nil {
			logger.Error("sync failed", zap.Error(err))
		}
	}
	resync()

	// a resync already running finishes before RunWatch returns
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
		mu.Lock()
		stopped = true
		mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = watcher.Add(event.Name)
					continue
				}
			}
			if !strings.HasSuffix(event.Name, e.cfg.Extension) {
				continue
			}
			logger.Debug("story changed", zap.String("path", event.Name), zap.Stringer("op", event.Op))
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounce, resync)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", zap.Error(err))
		}
	}
}
