package report

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/umputun/sufi2/pkg/result"
)

func sampleGoal() *result.GoalSummary {
	return &result.GoalSummary{
		ParameterCount:   2,
		SimulationCount:  1500,
		GoalFunctionType: "NS",
		Table: result.Table{
			Columns: []string{"Sim_No.", "r__CN2.mgt", "v__ALPHA_BF.gw", "goal_value"},
			Rows: [][]string{
				{"1", "-0.12", "0.51", "0.64"},
				{"2", "0.08", "0.33", "0.71"},
				{"3", "0.02"},
			},
		},
	}
}

func sampleTrace() *result.VariableTrace {
	return &result.VariableTrace{
		Name:       "FLOW_OUT_1.txt",
		Iterations: []int{1, 2},
		TimeSteps:  []int{1, 2},
		Values:     [][]float64{{1.5, 2.5}, {4, math.NaN()}},
	}
}

func TestStats(t *testing.T) {
	s := Stats(sampleTrace())
	assert.Equal(t, "FLOW_OUT_1.txt", s.Name)
	assert.Equal(t, 2, s.Iterations)
	assert.Equal(t, 2, s.TimeSteps)
	assert.Equal(t, 1, s.Missing)
	require.NotNil(t, s.Min)
	assert.InDelta(t, 1.5, *s.Min, 1e-9)
	assert.InDelta(t, 4.0, *s.Max, 1e-9)
	assert.InDelta(t, 8.0/3, *s.Mean, 1e-9)
}

func TestStats_AllMissing(t *testing.T) {
	s := Stats(&result.VariableTrace{Name: "x", Iterations: []int{1}, TimeSteps: []int{1},
		Values: [][]float64{{math.NaN()}}})
	assert.Nil(t, s.Min)
	assert.Nil(t, s.Max)
	assert.Nil(t, s.Mean)
	assert.Equal(t, 1, s.Missing)
}

func TestMarkdown(t *testing.T) {
	md := Markdown(Report{Project: "/data/proj", Version: "2019", Goal: sampleGoal(),
		Traces: []*result.VariableTrace{sampleTrace()}}, 0)

	assert.Contains(t, md, "# SUFI2 results")
	assert.Contains(t, md, "- **project:** `/data/proj`")
	assert.Contains(t, md, "- **swat-cup:** 2019")
	assert.Contains(t, md, "- **type:** NS")
	assert.Contains(t, md, "- **simulations:** 1,500")
	assert.Contains(t, md, "| Sim_No. | r__CN2.mgt | v__ALPHA_BF.gw | goal_value |")
	assert.Contains(t, md, "|---|---|---|---|")
	assert.Contains(t, md, "| 2 | 0.08 | 0.33 | 0.71 |")
	assert.Contains(t, md, "| 3 | 0.02 |  |  |", "short row padded to header width")
	assert.Contains(t, md, "## Variable traces")
	assert.Contains(t, md, "| FLOW_OUT_1.txt | 2 | 2 | 1.5 | 4 | 2.6667 | 1 |")
	assert.NotContains(t, md, "rows shown")
	assert.NotContains(t, md, "## Variables\n", "manifest list skipped when traces are present")
}

func TestMarkdown_RowLimit(t *testing.T) {
	md := Markdown(Report{Goal: sampleGoal()}, 2)
	assert.Contains(t, md, "_2 of 3 rows shown_")
	assert.NotContains(t, md, "| 3 | 0.02")

	md = Markdown(Report{Goal: sampleGoal()}, -1)
	assert.Contains(t, md, "| 3 | 0.02")
}

func TestMarkdown_GoalColumns(t *testing.T) {
	md := Markdown(Report{Goal: sampleGoal(), GoalColumns: []string{"goal_value", "bogus", "Sim_No."}}, 0)
	assert.Contains(t, md, "| goal_value | Sim_No. |\n|---|---|\n")
	assert.Contains(t, md, "| 0.71 | 2 |")
	assert.Contains(t, md, "|  | 3 |", "short row leaves the missing cell empty")
	assert.NotContains(t, md, "r__CN2.mgt")

	md = Markdown(Report{Goal: sampleGoal(), GoalColumns: []string{"bogus"}}, 0)
	assert.Contains(t, md, "| Sim_No. | r__CN2.mgt | v__ALPHA_BF.gw | goal_value |", "no known column shows all")
}

func TestMarkdown_ManifestOnly(t *testing.T) {
	md := Markdown(Report{Manifest: []string{"FLOW_OUT_1.txt", "SED_OUT_3.txt"}}, 0)
	assert.Contains(t, md, "## Variables")
	assert.Contains(t, md, "- `SED_OUT_3.txt`")
	assert.NotContains(t, md, "## Goal function")
}

func TestMarkdown_EscapesPipes(t *testing.T) {
	g := &result.GoalSummary{Table: result.Table{Columns: []string{"a|b"}, Rows: [][]string{{"x|y"}}}}
	md := Markdown(Report{Goal: g}, 0)
	assert.Contains(t, md, `| a\|b |`)
	assert.Contains(t, md, `| x\|y |`)
}

func TestRender(t *testing.T) {
	content := "# SUFI2 results\n\n- **type:** NS"

	plain, err := Render(content, true)
	require.NoError(t, err)
	assert.Equal(t, content, plain)

	rendered, err := Render(content, false)
	require.NoError(t, err)
	assert.NotEqual(t, content, rendered)
	assert.Contains(t, rendered, "SUFI2 results")
	assert.Contains(t, rendered, "NS")

	empty, err := Render("", false)
	require.NoError(t, err)
	assert.Empty(t, strings.TrimSpace(empty))
}

func TestYAML(t *testing.T) {
	data, err := YAML(Report{Project: "/data/proj", Version: "5.1.6.2", Goal: sampleGoal(),
		Manifest: []string{"FLOW_OUT_1.txt"}, Traces: []*result.VariableTrace{sampleTrace()}})
	require.NoError(t, err)

	var doc struct {
		Project string `yaml:"project"`
		Version string `yaml:"swatcup_version"`
		Goal    struct {
			Type        string     `yaml:"type"`
			Parameters  int        `yaml:"parameters"`
			Simulations int        `yaml:"simulations"`
			Columns     []string   `yaml:"columns"`
			Rows        [][]string `yaml:"rows"`
		} `yaml:"goal"`
		Manifest []string     `yaml:"manifest"`
		Traces   []TraceStats `yaml:"traces"`
	}
	require.NoError(t, yaml.Unmarshal(data, &doc))
	assert.Equal(t, "/data/proj", doc.Project)
	assert.Equal(t, "5.1.6.2", doc.Version)
	assert.Equal(t, "NS", doc.Goal.Type)
	assert.Equal(t, 1500, doc.Goal.Simulations)
	assert.Len(t, doc.Goal.Rows, 3)
	assert.Equal(t, []string{"FLOW_OUT_1.txt"}, doc.Manifest)
	require.Len(t, doc.Traces, 1)
	assert.Equal(t, 1, doc.Traces[0].Missing)
	require.NotNil(t, doc.Traces[0].Max)
	assert.InDelta(t, 4.0, *doc.Traces[0].Max, 1e-9)
}

func TestYAML_TraceData(t *testing.T) {
	r := Report{Traces: []*result.VariableTrace{sampleTrace()}}
	data, err := YAML(r)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "columns")

	r.TraceData = true
	data, err = YAML(r)
	require.NoError(t, err)
	var doc struct {
		Traces []struct {
			Name    string     `yaml:"name"`
			Columns []string   `yaml:"columns"`
			Rows    [][]string `yaml:"rows"`
		} `yaml:"traces"`
	}
	require.NoError(t, yaml.Unmarshal(data, &doc))
	require.Len(t, doc.Traces, 1)
	assert.Equal(t, "FLOW_OUT_1.txt", doc.Traces[0].Name)
	assert.Equal(t, []string{"time_step", "1", "2"}, doc.Traces[0].Columns)
	assert.Equal(t, [][]string{{"1", "1.5", "4"}, {"2", "2.5", "NaN"}}, doc.Traces[0].Rows)
}

func TestYAML_Empty(t *testing.T) {
	data, err := YAML(Report{})
	require.NoError(t, err)
	assert.Equal(t, "{}\n", string(data))
}
