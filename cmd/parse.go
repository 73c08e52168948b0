package cmd

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/chriserin/story/internal/ui"
)

var parseCmd = &cobra.Command{
	Use:   "parse <file>",
	Short: "Parse a story and print its structure",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return RunParse(cmd.OutOrStdout(), args[0])
	},
}

func init() {
	rootCmd.AddCommand(parseCmd)
}

// RunParse prints every section of the story at path. It needs no index.
func RunParse(w io.Writer, path string) error {
	e, err := loadEnv()
	if err != nil {
		return err
	}
	story, err := e.parseFile(path)
	if err != nil {
		return err
	}
	ui.ShowStory(w, story, e.keywords)
	return nil
}
