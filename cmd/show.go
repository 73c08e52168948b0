package cmd

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/chriserin/story/internal/db"
	"github.com/chriserin/story/internal/model"
	"github.com/chriserin/story/internal/ui"
)

var historyFlag bool

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a scenario by ID",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if historyFlag {
			return RunShowHistory(cmd.OutOrStdout(), args[0])
		}
		return RunShow(cmd.OutOrStdout(), args[0])
	},
}

func init() {
	showCmd.Flags().BoolVar(&historyFlag, "history", false, "Show the outcome history instead of the scenario")
	rootCmd.AddCommand(showCmd)
}

// RunShow prints a scenario with the narrative and lifecycle of its story.
// When the story no longer parses to the indexed scenario, the indexed steps
// are shown instead.
func RunShow(w io.Writer, rawID string) error {
	id, err := parseID(rawID)
	if err != nil {
		return err
	}
	e, err := loadEnv()
	if err != nil {
		return err
	}
	if err := e.requireInit(); err != nil {
		return err
	}

	sqlDB, err := db.Open(e.cfg.DatabasePath())
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer sqlDB.Close()

	s, err := db.FindScenario(sqlDB, id)
	if err != nil {
		return err
	}

	ui.ShowHeader(w, s.ID, filepath.Base(s.FilePath))
	ui.ShowOutcome(w, s.Outcome)

	story, err := e.parseFile(s.FilePath)
	if err == nil && s.Position < len(story.Scenarios) && story.Scenarios[s.Position].Title == s.Title {
		if !story.Narrative.IsEmpty() {
			fmt.Fprintln(w)
			ui.ShowNarrative(w, story.Narrative, e.keywords)
		}
		if !story.Lifecycle.IsEmpty() {
			fmt.Fprintln(w)
			ui.ShowLifecycle(w, story.Lifecycle, e.keywords)
		}
		fmt.Fprintln(w)
		ui.ShowScenario(w, story.Scenarios[s.Position], e.keywords)
		return nil
	}
	if err != nil {
		logger.Warn("cannot reparse story", zap.String("path", s.FilePath), zap.Error(err))
	}

	steps, err := db.Steps(sqlDB, s.ID)
	if err != nil {
		return err
	}
	fmt.Fprintln(w)
	ui.ShowScenario(w, model.Scenario{Title: s.Title, Steps: steps}, e.keywords)
	return nil
}

func RunShowHistory(w io.Writer, rawID string) error {
	id, err := parseID(rawID)
	if err != nil {
		return err
	}
	e, err := loadEnv()
	if err != nil {
		return err
	}
	if err := e.requireInit(); err != nil {
		return err
	}

	sqlDB, err := db.Open(e.cfg.DatabasePath())
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer sqlDB.Close()

	s, err := db.FindScenario(sqlDB, id)
	if err != nil {
		return err
	}
	entries, err := db.History(sqlDB, s.ID)
	if err != nil {
		return err
	}

	ui.ShowHeader(w, s.ID, filepath.Base(s.FilePath))
	fmt.Fprintln(w, s.Title)
	fmt.Fprintln(w)
	ui.ShowHistory(w, entries)
	return nil
}
