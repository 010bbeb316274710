// Package report turns parsed SUFI2 results into a markdown summary for the terminal
// and a YAML document for other tools.
package report

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"

	"github.com/umputun/sufi2/pkg/result"
)

// DefaultMaxRows limits goal table rows shown in markdown.
const DefaultMaxRows = 20

// Report collects what a calibration pass produced. nil or empty parts are skipped.
type Report struct {
	Project  string
	Version  string
	Goal     *result.GoalSummary
	Manifest []string
	Traces   []*result.VariableTrace

	GoalColumns []string // goal table columns shown in markdown, empty for all
	TraceData   bool     // include every trace value in YAML, not only the summary
}

// TraceStats summarizes one variable trace.
type TraceStats struct {
	Name       string   `yaml:"name"`
	Iterations int      `yaml:"iterations"`
	TimeSteps  int      `yaml:"time_steps"`
	Min        *float64 `yaml:"min,omitempty"`
	Max        *float64 `yaml:"max,omitempty"`
	Mean       *float64 `yaml:"mean,omitempty"`
	Missing    int      `yaml:"missing,omitempty"` // NaN cells from padding
}

// Stats computes the summary of a trace over all iterations. min, max and mean stay nil
// when every cell is missing.
func Stats(v *result.VariableTrace) TraceStats {
	res := TraceStats{Name: v.Name, Iterations: len(v.Iterations), TimeSteps: v.Rows()}
	lo, hi, sum, n := math.Inf(1), math.Inf(-1), 0.0, 0
	for _, col := range v.Values {
		for _, x := range col {
			if math.IsNaN(x) {
				res.Missing++
				continue
			}
			lo, hi, sum, n = min(lo, x), max(hi, x), sum+x, n+1
		}
	}
	if n > 0 {
		mean := sum / float64(n)
		res.Min, res.Max, res.Mean = &lo, &hi, &mean
	}
	return res
}

// Markdown builds the markdown report. maxRows limits the goal table, 0 means DefaultMaxRows
// and a negative value shows every row.
func Markdown(r Report, maxRows int) string {
	if maxRows == 0 {
		maxRows = DefaultMaxRows
	}

	var b strings.Builder
	b.WriteString("# SUFI2 results\n\n")
	if r.Project != "" {
		fmt.Fprintf(&b, "- **project:** `%s`\n", r.Project)
	}
	if r.Version != "" {
		fmt.Fprintf(&b, "- **swat-cup:** %s\n", r.Version)
	}

	if g := r.Goal; g != nil {
		b.WriteString("\n## Goal function\n\n")
		fmt.Fprintf(&b, "- **type:** %s\n", g.GoalFunctionType)
		fmt.Fprintf(&b, "- **parameters:** %s\n", humanize.Comma(int64(g.ParameterCount)))
		fmt.Fprintf(&b, "- **simulations:** %s\n", humanize.Comma(int64(g.SimulationCount)))
		if len(g.Table.Columns) > 0 {
			b.WriteString("\n")
			rows := g.Table.Rows
			if maxRows > 0 && len(rows) > maxRows {
				rows = rows[:maxRows]
			}
			columns, body := g.Table.Columns, rows
			if sel := goalColumns(g.Table, r.GoalColumns); len(sel) > 0 {
				columns, body = sel, pick(g.Table, sel, len(rows))
			}
			writeTable(&b, columns, body)
			if len(rows) < len(g.Table.Rows) {
				fmt.Fprintf(&b, "\n_%s of %s rows shown_\n", humanize.Comma(int64(len(rows))),
					humanize.Comma(int64(len(g.Table.Rows))))
			}
		}
	}

	if len(r.Manifest) > 0 && len(r.Traces) == 0 {
		b.WriteString("\n## Variables\n\n")
		for _, name := range r.Manifest {
			fmt.Fprintf(&b, "- `%s`\n", name)
		}
	}

	if len(r.Traces) > 0 {
		b.WriteString("\n## Variable traces\n\n")
		rows := make([][]string, 0, len(r.Traces))
		for _, v := range r.Traces {
			s := Stats(v)
			rows = append(rows, []string{s.Name, humanize.Comma(int64(s.Iterations)), humanize.Comma(int64(s.TimeSteps)),
				formatValue(s.Min), formatValue(s.Max), formatValue(s.Mean), humanize.Comma(int64(s.Missing))})
		}
		writeTable(&b, []string{"file", "iterations", "time steps", "min", "max", "mean", "missing"}, rows)
	}
	return b.String()
}

// Render renders markdown for terminal display. with noColor the content is returned unchanged.
func Render(content string, noColor bool) (string, error) {
	if noColor {
		return content, nil
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return "", fmt.Errorf("create renderer: %w", err)
	}

	res, err := renderer.Render(content)
	if err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return res, nil
}

type yamlGoal struct {
	Type        string     `yaml:"type"`
	Parameters  int        `yaml:"parameters"`
	Simulations int        `yaml:"simulations"`
	Columns     []string   `yaml:"columns,omitempty"`
	Rows        [][]string `yaml:"rows,omitempty,flow"`
}

type yamlTrace struct {
	TraceStats `yaml:",inline"`
	Columns    []string   `yaml:"columns,omitempty,flow"`
	Rows       [][]string `yaml:"rows,omitempty,flow"`
}

type yamlReport struct {
	Project  string      `yaml:"project,omitempty"`
	Version  string      `yaml:"swatcup_version,omitempty"`
	Goal     *yamlGoal   `yaml:"goal,omitempty"`
	Manifest []string    `yaml:"manifest,omitempty"`
	Traces   []yamlTrace `yaml:"traces,omitempty"`
}

// YAML encodes the report. the goal table is kept whole, traces are summarized unless
// TraceData asks for their values too.
func YAML(r Report) ([]byte, error) {
	doc := yamlReport{Project: r.Project, Version: r.Version, Manifest: r.Manifest}
	if g := r.Goal; g != nil {
		doc.Goal = &yamlGoal{Type: g.GoalFunctionType, Parameters: g.ParameterCount,
			Simulations: g.SimulationCount, Columns: g.Table.Columns, Rows: g.Table.Rows}
	}
	for _, v := range r.Traces {
		tr := yamlTrace{TraceStats: Stats(v)}
		if r.TraceData {
			tbl := v.Table()
			tr.Columns, tr.Rows = tbl.Columns, tbl.Rows
		}
		doc.Traces = append(doc.Traces, tr)
	}

	data, err := yaml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal report: %w", err)
	}
	return data, nil
}

// goalColumns returns the wanted columns present in t, in the wanted order.
func goalColumns(t result.Table, wanted []string) []string {
	var res []string
	for _, name := range wanted {
		if t.Column(name) >= 0 {
			res = append(res, name)
		}
	}
	return res
}

// pick returns the first n rows of t restricted to columns. missing cells stay empty.
func pick(t result.Table, columns []string, n int) [][]string {
	res := make([][]string, 0, n)
	for i := range n {
		row := make([]string, len(columns))
		for c, name := range columns {
			row[c], _ = t.Value(i, name)
		}
		res = append(res, row)
	}
	return res
}

func writeTable(b *strings.Builder, columns []string, rows [][]string) {
	b.WriteString("| " + strings.Join(escapeCells(columns), " | ") + " |\n")
	b.WriteString("|" + strings.Repeat("---|", len(columns)) + "\n")
	for _, row := range rows {
		cells := make([]string, len(columns))
		copy(cells, row) // short rows padded, long rows cut to the header
		b.WriteString("| " + strings.Join(escapeCells(cells), " | ") + " |\n")
	}
}

func escapeCells(cells []string) []string {
	res := make([]string, len(cells))
	for i, c := range cells {
		res[i] = strings.ReplaceAll(c, "|", `\|`)
	}
	return res
}

func formatValue(v *float64) string {
	if v == nil {
		return "-"
	}
	return humanize.FtoaWithDigits(*v, 4)
}
