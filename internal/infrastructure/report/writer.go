package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/felixgeelhaar/lcovhtml/internal/application"
	"github.com/felixgeelhaar/lcovhtml/internal/infrastructure/badge"
)

// Format selects how a run summary is printed.
type Format string

const (
	FormatText  Format = "text"
	FormatJSON  Format = "json"
	FormatBrief Format = "brief"
)

// ParseFormat validates a --format value. Empty means text.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON, FormatBrief:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported output format: %s", s)
	}
}

// Writer prints run summaries.
type Writer struct{}

func (Writer) Write(w io.Writer, result application.GenerateResult, format Format) error {
	switch format {
	case FormatJSON:
		payload := struct {
			application.GenerateResult
			Skipped bool `json:"skipped"`
		}{result, result.Skipped()}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(payload)
	case FormatBrief:
		_, err := fmt.Fprintln(w, Brief(result))
		return err
	case FormatText, "":
		return writeText(w, result)
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}

func writeText(w io.Writer, result application.GenerateResult) error {
	if result.Skipped() {
		_, err := fmt.Fprintf(w, "No files matched %s; nothing written.\n", result.Config.Input)
		return err
	}

	colorize := colorEnabled(w)
	styles := map[string]lipgloss.Style{
		"pass": lipgloss.NewStyle().Foreground(lipgloss.Color("#16A34A")).Bold(true),
		"warn": lipgloss.NewStyle().Foreground(lipgloss.Color("#CA8A04")).Bold(true),
		"fail": lipgloss.NewStyle().Foreground(lipgloss.Color("#DC2626")).Bold(true),
	}
	title := lipgloss.NewStyle().Bold(true)

	name := result.Config.Name
	if colorize {
		name = title.Render(name)
	}
	fmt.Fprintf(w, "%s: %d input(s), %d source file(s)\n", name, len(result.Inputs), result.Files)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "Metric\tCoverage\tCovered\tTotal")
	for _, v := range views(result.Totals) {
		text := v.Text
		if style, ok := styles[v.Class]; ok && colorize {
			text = style.Render(text)
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%d\t%d\n", v.Label, text, v.Covered, v.Total)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Report written to %s\n", result.Config.OutputPath())
	return err
}

func colorEnabled(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(file.Fd()) || isatty.IsCygwinTerminal(file.Fd())
}

// Brief returns a single-line summary optimized for agents and CI logs.
// Format: OK | NAME | XX.X% lines | N files | M inputs -> DIR
func Brief(result application.GenerateResult) string {
	if result.Skipped() {
		return fmt.Sprintf("SKIP | %s | no files matched %s", result.Config.Name, result.Config.Input)
	}
	return fmt.Sprintf("OK | %s | %s lines | %d files | %d inputs -> %s",
		result.Config.Name,
		badge.FormatPercent(result.Totals.Lines),
		result.Files,
		len(result.Inputs),
		result.Config.OutputPath(),
	)
}

