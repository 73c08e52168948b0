package cmd

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/chriserin/story/internal/db"
	"github.com/chriserin/story/internal/model"
	"github.com/chriserin/story/internal/ui"
)

var statusCmd = &cobra.Command{
	Use:   "status [<id> <outcome>]",
	Short: "Summarize the index or record a scenario outcome",
	RunE: func(cmd *cobra.Command, args []string) error {
		switch len(args) {
		case 0:
			return RunStatusReport(cmd.OutOrStdout())
		case 2:
			return RunStatusUpdate(cmd.OutOrStdout(), args[0], args[1])
		}
		return fmt.Errorf("usage: story status <id> <outcome>")
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

var reportOrder = []string{"SUCCESS", "FAILURE", "ANY", "none"}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimPrefix(raw, "#"), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid scenario ID: %s", raw)
	}
	return id, nil
}

// RunStatusUpdate records an outcome for a scenario and prints the lifecycle
// after-steps that outcome triggers: the ANY groups first, then the groups of
// the recorded outcome.
func RunStatusUpdate(w io.Writer, rawID, word string) error {
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
	outcome, ok := model.ParseOutcome(e.keywords, word)
	if !ok {
		return fmt.Errorf("unknown outcome %q, want one of %s, %s, %s",
			word, e.keywords.OutcomeAny, e.keywords.OutcomeSuccess, e.keywords.OutcomeFailure)
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
	previous, err := db.RecordOutcome(sqlDB, id, outcome.String())
	if err != nil {
		return err
	}
	ui.OutcomeConfirm(w, id, previous, outcome.String())

	story, err := e.parseFile(s.FilePath)
	if err != nil {
		logger.Warn("cannot reparse story", zap.String("path", s.FilePath), zap.Error(err))
		return nil
	}
	steps := story.Lifecycle.AfterSteps(model.OutcomeAny, s.Meta)
	if outcome != model.OutcomeAny {
		steps = append(steps, story.Lifecycle.AfterSteps(outcome, s.Meta)...)
	}
	if len(steps) > 0 {
		fmt.Fprintln(w)
		ui.ShowSteps(w, steps)
	}
	return nil
}

func RunStatusReport(w io.Writer) error {
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

	counts, err := db.Count(sqlDB)
	if err != nil {
		return err
	}
	ui.ShowCounts(w, counts, reportOrder)
	return nil
}

func (e *env) parseFile(path string) (*model.Story, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return e.parser.Parse(string(content), path)
}
