package ui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"

	"github.com/chriserin/story/internal/db"
)

var (
	newStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	updStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	delStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	trkStyle     = lipgloss.NewStyle().Faint(true)
	idStyle      = lipgloss.NewStyle().Bold(true)
	keywordStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	metaStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("5"))
	faintStyle   = lipgloss.NewStyle().Faint(true)
)

var outcomeStyles = map[string]lipgloss.Style{
	"SUCCESS": lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
	"FAILURE": lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
	"ANY":     lipgloss.NewStyle().Foreground(lipgloss.Color("4")),
}

// ChangeLine prints one sync marker and path.
func ChangeLine(w io.Writer, change db.Change, path string) {
	style := trkStyle
	switch change {
	case db.Added:
		style = newStyle
	case db.Updated:
		style = updStyle
	case db.Removed:
		style = delStyle
	}
	fmt.Fprintln(w, style.Render(string(change))+"  "+path)
}

func SummaryLine(w io.Writer, files, scenarios int) {
	fmt.Fprintf(w, "synced %s files, %s scenarios\n", humanize.Comma(int64(files)), humanize.Comma(int64(scenarios)))
}

// ID renders a scenario id the way commands accept it.
func ID(id int64) string {
	return fmt.Sprintf("#%d", id)
}

func outcomeText(outcome string) string {
	if outcome == "" {
		return faintStyle.Render("none")
	}
	if style, ok := outcomeStyles[outcome]; ok {
		return style.Render(outcome)
	}
	return outcome
}

// ListRow prints one scenario with columns padded to the given display widths.
func ListRow(w io.Writer, s db.Scenario, fileName string, idWidth, fileWidth, titleWidth int) {
	fmt.Fprintf(w, "%s  %s  %s  %3d steps  %s\n",
		idStyle.Render(fmt.Sprintf("%-*s", idWidth, ID(s.ID))),
		runewidth.FillRight(fileName, fileWidth),
		runewidth.FillRight(s.Title, titleWidth),
		s.Steps,
		outcomeText(s.Outcome),
	)
}

func ShowHeader(w io.Writer, id int64, fileName string) {
	fmt.Fprintln(w, idStyle.Render(ID(id))+"  "+fileName)
}

func ShowOutcome(w io.Writer, outcome string) {
	fmt.Fprintln(w, "Outcome: "+outcomeText(outcome))
}

// ShowHistory prints recorded outcomes with aligned timestamps.
func ShowHistory(w io.Writer, entries []db.OutcomeEntry) {
	fmt.Fprintln(w, "History:")
	if len(entries) == 0 {
		fmt.Fprintln(w, "  "+outcomeText(""))
		return
	}
	width := 0
	for _, e := range entries {
		if len(e.Outcome) > width {
			width = len(e.Outcome)
		}
	}
	for _, e := range entries {
		fmt.Fprintf(w, "  %s%*s  %s  %s\n",
			outcomeText(e.Outcome), width-len(e.Outcome), "",
			e.RecordedAt.Format("Jan _2, 2006 3:04pm"),
			faintStyle.Render(humanize.Time(e.RecordedAt)),
		)
	}
}

// OutcomeConfirm prints the transition recorded by `story status`.
func OutcomeConfirm(w io.Writer, id int64, previous, outcome string) {
	if previous == "" {
		fmt.Fprintf(w, "%s  %s\n", idStyle.Render(ID(id)), outcomeText(outcome))
		return
	}
	fmt.Fprintf(w, "%s  %s → %s\n", idStyle.Render(ID(id)), outcomeText(previous), outcomeText(outcome))
}

// ShowCounts prints the index summary.
func ShowCounts(w io.Writer, c db.Counts, order []string) {
	fmt.Fprintf(w, "Stories:      %s\n", humanize.Comma(int64(c.Stories)))
	fmt.Fprintf(w, "Scenarios:    %s\n", humanize.Comma(int64(c.Scenarios)))
	fmt.Fprintf(w, "Steps:        %s\n", humanize.Comma(int64(c.Steps)))
	fmt.Fprintf(w, "Example rows: %s\n", humanize.Comma(int64(c.ExampleRows)))
	if c.Scenarios == 0 {
		return
	}
	for _, outcome := range order {
		if n := c.Outcomes[outcome]; n > 0 {
			label := outcome
			if outcome == "none" {
				label = ""
			}
			fmt.Fprintf(w, "  %s: %d\n", outcomeText(label), n)
		}
	}
}
