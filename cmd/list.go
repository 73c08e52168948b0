package cmd

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/chriserin/story/internal/db"
	"github.com/chriserin/story/internal/model"
	"github.com/chriserin/story/internal/ui"
)

// ListOptions narrows `story list`. Outcome names are canonical or localized;
// "none" selects scenarios with no recorded outcome.
type ListOptions struct {
	Meta    string
	File    string
	Include []string
	Exclude []string
}

var (
	listMetaFlag    string
	listFileFlag    string
	listOutcomeFlag []string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List indexed scenarios",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := ListOptions{Meta: listMetaFlag, File: listFileFlag}
		for _, o := range listOutcomeFlag {
			if strings.HasPrefix(o, "!") {
				opts.Exclude = append(opts.Exclude, o[1:])
			} else {
				opts.Include = append(opts.Include, o)
			}
		}
		return RunList(cmd.OutOrStdout(), opts)
	},
}

func init() {
	listCmd.Flags().StringVar(&listMetaFlag, "meta", "", `Meta filter, e.g. "+theme auth -skip"`)
	listCmd.Flags().StringVar(&listFileFlag, "file", "", "Only scenarios from this story file or directory")
	listCmd.Flags().StringSliceVar(&listOutcomeFlag, "outcome", nil, "Filter by latest outcome; prefix with ! to exclude")
	rootCmd.AddCommand(listCmd)
}

func RunList(w io.Writer, opts ListOptions) error {
	e, err := loadEnv()
	if err != nil {
		return err
	}
	if err := e.requireInit(); err != nil {
		return err
	}

	include, err := e.outcomeNames(opts.Include)
	if err != nil {
		return err
	}
	exclude, err := e.outcomeNames(opts.Exclude)
	if err != nil {
		return err
	}
	filter := model.ParseMetaFilter(opts.Meta)

	sqlDB, err := db.Open(e.cfg.DatabasePath())
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer sqlDB.Close()

	scenarios, err := db.Scenarios(sqlDB)
	if err != nil {
		return err
	}

	var results []db.Scenario
	for _, s := range scenarios {
		outcome := s.Outcome
		if outcome == "" {
			outcome = "none"
		}
		if len(include) > 0 && !include[outcome] {
			continue
		}
		if exclude[outcome] {
			continue
		}
		if !filter.Allow(s.Meta) {
			continue
		}
		if opts.File != "" && !inFile(s.FilePath, opts.File) {
			continue
		}
		results = append(results, s)
	}

	if len(results) == 0 {
		return nil
	}

	idWidth, fileWidth, titleWidth := 0, 0, 0
	for _, s := range results {
		idWidth = max(idWidth, len(ui.ID(s.ID)))
		fileWidth = max(fileWidth, runewidth.StringWidth(filepath.Base(s.FilePath)))
		titleWidth = max(titleWidth, runewidth.StringWidth(s.Title))
	}

	for _, s := range results {
		ui.ListRow(w, s, filepath.Base(s.FilePath), idWidth, fileWidth, titleWidth)
	}
	return nil
}

// outcomeNames resolves user supplied outcome names to their stored form.
func (e *env) outcomeNames(names []string) (map[string]bool, error) {
	set := map[string]bool{}
	for _, name := range names {
		if strings.EqualFold(name, "none") {
			set["none"] = true
			continue
		}
		o, ok := model.ParseOutcome(e.keywords, name)
		if !ok {
			return nil, fmt.Errorf("unknown outcome %q", name)
		}
		set[o.String()] = true
	}
	return set, nil
}

func inFile(path, want string) bool {
	want = filepath.ToSlash(filepath.Clean(want))
	return path == want ||
		filepath.Base(path) == want ||
		strings.HasPrefix(path, strings.TrimSuffix(want, "/")+"/")
}
