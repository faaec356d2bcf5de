// Package render centralizes output rendering for the stratum CLI.
//
// Format selection rules:
//   - If output is a TTY, default to table
//   - If output is not a TTY, default to json
//   - --format always overrides defaults
//   - Invalid formats are errors
//
// Color handling: --no-color affects table output only. TUI mode styles
// itself and ignores --no-color.
package render

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/stratum-data/stratum/cli/tui"
	"github.com/stratum-data/stratum/report"
	"github.com/stratum-data/stratum/types"
)

// Format represents an output format.
type Format string

// Supported formats.
const (
	FormatJSON  Format = "json"
	FormatTable Format = "table"
	FormatYAML  Format = "yaml"
)

// ParseFormat parses a format string, returning an error for invalid
// formats. Empty input is passed through for the caller to default.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "json":
		return FormatJSON, nil
	case "table":
		return FormatTable, nil
	case "yaml":
		return FormatYAML, nil
	case "":
		return "", nil
	default:
		return "", fmt.Errorf("invalid format: %q (must be json, table, or yaml)", s)
	}
}

// Renderer handles output formatting for graph and plan payloads.
type Renderer struct {
	format  Format
	noColor bool
	out     io.Writer
}

// NewRenderer creates a renderer from CLI context, applying the format
// selection rules. Output goes to the app writer so tests can capture it.
func NewRenderer(c *cli.Context) (*Renderer, error) {
	format, err := ParseFormat(c.String("format"))
	if err != nil {
		return nil, err
	}
	if c.Bool("json") {
		format = FormatJSON
	}

	if format == "" {
		if isTTY(os.Stdout) {
			format = FormatTable
		} else {
			format = FormatJSON
		}
	}

	out := io.Writer(os.Stdout)
	if c.App != nil && c.App.Writer != nil {
		out = c.App.Writer
	}

	return &Renderer{
		format:  format,
		noColor: c.Bool("no-color"),
		out:     out,
	}, nil
}

// NewRendererWithWriter creates a renderer with a custom writer (for
// testing).
func NewRendererWithWriter(format Format, noColor bool, out io.Writer) *Renderer {
	return &Renderer{
		format:  format,
		noColor: noColor,
		out:     out,
	}
}

// Graph renders a compiled graph in the configured format.
func (r *Renderer) Graph(g *types.CompiledGraph) error {
	switch r.format {
	case FormatJSON:
		return report.NewGraph(g).Encode(r.out)
	case FormatYAML:
		return r.renderYAML(report.NewGraph(g))
	case FormatTable:
		return r.graphTable(g)
	default:
		return fmt.Errorf("unknown format: %s", r.format)
	}
}

// Plan renders a run plan in the configured format.
func (r *Renderer) Plan(p *types.RunPlan) error {
	switch r.format {
	case FormatJSON:
		return report.EncodePlan(r.out, p)
	case FormatYAML:
		return r.renderYAML(p)
	case FormatTable:
		return r.planTable(p)
	default:
		return fmt.Errorf("unknown format: %s", r.format)
	}
}

// Value renders an arbitrary payload (version info, scaffold summaries).
// Table format falls back to YAML, which reads fine for small flat structs.
func (r *Renderer) Value(v any) error {
	if r.format == FormatJSON {
		return report.EncodeJSON(r.out, v)
	}
	return r.renderYAML(v)
}

// GraphTUI starts the interactive graph inspector.
func (r *Renderer) GraphTUI(g *types.CompiledGraph) error {
	return tui.RunGraph(g)
}

func (r *Renderer) renderYAML(v any) error {
	enc := yaml.NewEncoder(r.out)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
)

func (r *Renderer) styled(style lipgloss.Style, s string) string {
	if r.noColor {
		return s
	}
	return style.Render(s)
}

func (r *Renderer) graphTable(g *types.CompiledGraph) error {
	fmt.Fprintf(r.out, "%s  %d actions, %d errors (core %s)\n\n",
		r.styled(headerStyle, "compiled graph"),
		len(g.Actions), len(g.GraphErrors), g.DataformCoreVersion)

	w := tabwriter.NewWriter(r.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TYPE\tTARGET\tFILE\tTAGS")
	for _, a := range g.Actions {
		name := a.Target.String()
		if a.Disabled {
			name += " (disabled)"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			a.Type, name, a.FileName, strings.Join(a.Tags, ","))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if len(g.GraphErrors) > 0 {
		fmt.Fprintf(r.out, "\n%s\n", r.styled(errorStyle, "errors:"))
		for _, e := range g.GraphErrors {
			fmt.Fprintf(r.out, "  %s\n", e.Error())
		}
	}
	return nil
}

func (r *Renderer) planTable(p *types.RunPlan) error {
	fmt.Fprintf(r.out, "%s  %s\n\n",
		r.styled(headerStyle, "run plan"),
		r.styled(mutedStyle, p.RunID))

	w := tabwriter.NewWriter(r.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TYPE\tTARGET\tHERMETICITY\tTASKS")
	for _, a := range p.Actions {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\n",
			a.Type, a.Target.String(), a.Hermeticity, len(a.Tasks))
	}
	return w.Flush()
}

// isTTY returns true if the writer is a TTY.
func isTTY(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
