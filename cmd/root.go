package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/chriserin/story/internal/config"
	"github.com/chriserin/story/internal/keywords"
	"github.com/chriserin/story/internal/logging"
	"github.com/chriserin/story/internal/parser"
	"github.com/chriserin/story/internal/table"
)

var (
	verboseFlag bool
	configFlag  string
	localeFlag  string

	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:          "story",
	Short:        "Index and inspect behaviour stories",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		l, err := logging.New(verboseFlag)
		if err != nil {
			return err
		}
		logger = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Log debug output to stderr")
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "Path to the project file (default ./"+config.FileName+")")
	rootCmd.PersistentFlags().StringVar(&localeFlag, "locale", "", "Keyword locale, e.g. en, de, pt-BR")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// env is what every command needs once configuration is resolved.
type env struct {
	cfg      *config.Config
	keywords *keywords.Keywords
	tables   *table.Factory
	parser   parser.StoryParser
}

func loadEnv() (*env, error) {
	cfg, err := config.Load(".", config.Flags{
		ConfigPath: configFlag,
		Locale:     localeFlag,
		Verbose:    verboseFlag,
	})
	if err != nil {
		return nil, err
	}
	k, err := cfg.KeywordTable()
	if err != nil {
		return nil, fmt.Errorf("keywords: %w", err)
	}
	factory := table.NewFactory(
		table.WithKeywords(k),
		table.WithLoader(table.FSLoader{FS: os.DirFS(cfg.TablesDir())}),
	)
	var p parser.StoryParser = parser.New(
		parser.WithKeywords(k),
		parser.WithTableFactory(factory),
		parser.WithLogger(logger),
	)
	transformers := []parser.StoryTransformer{parser.NormalizeNewlines}
	if len(cfg.Replace) > 0 {
		transformers = append(transformers, parser.Replacing(cfg.Replace))
	}
	p = parser.NewTransforming(p, transformers...)
	return &env{cfg: cfg, keywords: k, tables: factory, parser: p}, nil
}

// requireInit fails unless `story init` has created the stories directory.
func (e *env) requireInit() error {
	if _, err := os.Stat(e.cfg.StoriesDir()); os.IsNotExist(err) {
		return fmt.Errorf("run `story init` first")
	}
	return nil
}
