package cmd

import (
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/chriserin/story/internal/params"
	"github.com/chriserin/story/internal/table"
	"github.com/chriserin/story/internal/ui"
)

var (
	tableFormatFlag string
	tableTypesFlag  map[string]string
)

var tableCmd = &cobra.Command{
	Use:   "table <file|->",
	Short: "Parse an examples table and print it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return RunTable(cmd.OutOrStdout(), cmd.InOrStdin(), args[0], TableOptions{
			Format: tableFormatFlag,
			Types:  tableTypesFlag,
		})
	},
}

func init() {
	tableCmd.Flags().StringVarP(&tableFormatFlag, "format", "f", "box", "Output format: box, text or yaml")
	tableCmd.Flags().StringToStringVar(&tableTypesFlag, "types", nil, "Column types for yaml output, e.g. count=int,on=bool")
	rootCmd.AddCommand(tableCmd)
}

type TableOptions struct {
	Format string
	// Types maps a header to the shape its yaml values are converted to.
	Types map[string]string
}

// RunTable parses the table in path, or stdin when path is "-", and prints it
// as a box, as normalized table text, or as a YAML list of rows.
func RunTable(w io.Writer, stdin io.Reader, path string, opts TableOptions) error {
	e, err := loadEnv()
	if err != nil {
		return err
	}

	var data []byte
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	t, err := e.tables.Parse(string(data))
	if err != nil {
		return err
	}

	switch opts.Format {
	case "box":
		ui.ShowTable(w, t)
	case "text":
		_, err = t.WriteTo(w)
	case "yaml":
		var rows []map[string]any
		if rows, err = typedRows(t, e.tables.Converters(), opts.Types); err == nil {
			err = writeRows(w, t.Headers(), rows)
		}
	default:
		err = fmt.Errorf("unknown format %q", opts.Format)
	}
	return err
}

// typedRows converts every row, leaving columns without a type as strings.
func typedRows(t *table.Table, converters *params.Converters, types map[string]string) ([]map[string]any, error) {
	headers := t.Headers()
	for h, name := range types {
		if !slices.Contains(headers, h) {
			return nil, fmt.Errorf("unknown column %q", h)
		}
		if !converters.Has(params.Shape(name)) {
			return nil, fmt.Errorf("unknown type %q for column %q", name, h)
		}
	}

	shape := params.RecordShape{Name: "row"}
	for _, h := range headers {
		if slices.ContainsFunc(shape.Fields, func(f params.Field) bool { return f.Name == h }) {
			continue
		}
		s := params.String
		if name, ok := types[h]; ok {
			s = params.Shape(name)
		}
		shape.Fields = append(shape.Fields, params.Field{Name: h, Shape: s})
	}

	records, err := t.RowsAs(shape, nil)
	if err != nil {
		return nil, err
	}
	rows := make([]map[string]any, 0, len(records))
	for _, rec := range records {
		rows = append(rows, rec)
	}
	return rows, nil
}

// writeRows encodes the rows as YAML mappings keeping header order.
func writeRows(w io.Writer, headers []string, rows []map[string]any) error {
	doc := &yaml.Node{Kind: yaml.SequenceNode}
	for _, row := range rows {
		m := &yaml.Node{Kind: yaml.MappingNode}
		seen := map[string]bool{}
		for _, h := range headers {
			if seen[h] {
				continue
			}
			seen[h] = true
			value := &yaml.Node{}
			if err := value.Encode(row[h]); err != nil {
				return fmt.Errorf("encoding %s: %w", h, err)
			}
			m.Content = append(m.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: h}, value)
		}
		doc.Content = append(doc.Content, m)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encoding rows: %w", err)
	}
	return enc.Close()
}
