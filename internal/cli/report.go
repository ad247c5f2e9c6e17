package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

var (
	styleReportTitle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("#b4befe"))

	styleReportLabel = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#a6adc8"))

	styleReportValue = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("#cdd6f4"))

	styleReportBorder = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("#585b70")).
				Padding(0, 2)
)

// runSummary is the root command's default action: a single walk over the
// configured sources, reported as a human-readable table when stdout is a
// terminal, or as plain "key: value" lines when it isn't (piped output,
// CI logs).
func runSummary(cmd *cobra.Command, args []string) error {
	s, err := newScanner(flagValues)
	if err != nil {
		return err
	}

	ctx := context.Background()

	candidates, err := s.Scan(ctx)
	if err != nil {
		return err
	}
	files, err := s.GetFiles(ctx)
	if err != nil {
		return err
	}
	globs, err := s.GetGlobs(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if isOutputTerminal(out) {
		fmt.Fprintln(out, renderReportTable(len(files), len(candidates), len(globs)))
		return nil
	}

	fmt.Fprintf(out, "files: %d\n", len(files))
	fmt.Fprintf(out, "candidates: %d\n", len(candidates))
	fmt.Fprintf(out, "globs: %d\n", len(globs))
	return nil
}

// isOutputTerminal reports whether w is connected to an interactive
// terminal. Non-*os.File writers (buffers captured in tests, pipes to
// other processes) are never treated as terminals.
func isOutputTerminal(w interface{ Write([]byte) (int, error) }) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func renderReportTable(fileCount, candidateCount, globCount int) string {
	row := func(label string, value int) string {
		return styleReportLabel.Render(fmt.Sprintf("%-12s", label)) + styleReportValue.Render(fmt.Sprintf("%d", value))
	}

	body := lipgloss.JoinVertical(lipgloss.Left,
		styleReportTitle.Render("watchglob scan summary"),
		"",
		row("files", fileCount),
		row("candidates", candidateCount),
		row("globs", globCount),
	)

	return styleReportBorder.Render(body)
}
