package table

import (
	"regexp"
	"strings"
)

var rowSeparator = regexp.MustCompile(`\r?\n`)

func splitLines(text string) []string {
	return rowSeparator.Split(text, -1)
}

// ignorable reports whether a line is skipped: blank, or starting with the
// ignorable separator.
func ignorable(line, ignorableSep string) bool {
	if strings.TrimSpace(line) == "" {
		return true
	}
	return ignorableSep != "" && strings.HasPrefix(line, ignorableSep)
}

// parseRow splits one framed row into cells. The outer separators are
// optional. Comments are cut from each cell before trimming.
func parseRow(row, sep, commentSep string, trim bool) []string {
	row = strings.TrimSpace(row)
	var cells []string
	if sep == "" {
		cells = []string{row}
	} else {
		row = strings.TrimPrefix(row, sep)
		row = strings.TrimSuffix(row, sep)
		cells = strings.Split(row, sep)
	}
	for i, c := range cells {
		if commentSep != "" {
			if idx := strings.Index(c, commentSep); idx >= 0 {
				c = c[:idx]
			}
		}
		if trim {
			c = strings.TrimSpace(c)
		}
		cells[i] = c
	}
	return cells
}

// parseByRows reads the header line then the data lines. Data cells are
// zipped onto headers by position: missing cells stay absent, extra cells are
// dropped. A repeated header keeps every occurrence in the header list while
// the row map holds the value of its last column.
func parseByRows(text string, props Properties) ([]string, []map[string]string) {
	var headers []string
	var data []map[string]string
	headerFound := false
	for _, line := range splitLines(text) {
		if ignorable(line, props.IgnorableSeparator()) {
			continue
		}
		if !headerFound {
			headers = parseRow(line, props.HeaderSeparator(), props.CommentSeparator(), props.Trim())
			headerFound = true
			continue
		}
		cells := parseRow(line, props.ValueSeparator(), props.CommentSeparator(), props.Trim())
		row := make(map[string]string, len(headers))
		for i, c := range cells {
			if i >= len(headers) {
				break
			}
			row[headers[i]] = c
		}
		data = append(data, row)
	}
	return headers, data
}
