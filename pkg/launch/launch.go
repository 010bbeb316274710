// Package launch maps SUFI2 stages to the platform-specific launcher files of a SWAT-CUP version.
// the strategy is picked once per session, callers resolve stages without platform checks.
package launch

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"slices"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/umputun/sufi2/pkg/status"
)

// Version is a supported SWAT-CUP release.
type Version string

// supported SWAT-CUP versions.
const (
	Version5162 Version = "5.1.6.2"
	Version2019 Version = "2019"
)

// errors returned by strategies.
var (
	ErrUnknownStage        = errors.New("no launcher for stage")
	ErrUnsupportedPlatform = errors.New("unsupported platform")
)

// Command is the launcher for one stage, relative to the project root.
type Command struct {
	File        string   `yaml:"file"`                  // launcher file in the project root
	Interpreter []string `yaml:"interpreter,omitempty"` // optional prefix, e.g. [cmd, /C]
}

// Strategy resolves a stage to its launcher.
type Strategy interface {
	Name() string
	Resolve(stage status.Stage) (Command, error)
	Launchers() []string
}

// Table is a fixed stage -> launcher mapping. it implements Strategy.
type Table struct {
	Label  string                   `yaml:"name"`
	Stages map[status.Stage]Command `yaml:"stages"`
}

// Name returns the table label.
func (t *Table) Name() string { return t.Label }

// Resolve returns the launcher for stage.
func (t *Table) Resolve(stage status.Stage) (Command, error) {
	c, ok := t.Stages[stage]
	if !ok || c.File == "" {
		return Command{}, fmt.Errorf("%w %q in %s", ErrUnknownStage, stage, t.Label)
	}
	return c, nil
}

// Launchers returns launcher file names in stage order, used for the permission bootstrap.
func (t *Table) Launchers() []string {
	res := make([]string, 0, len(t.Stages))
	for _, s := range status.Stages() {
		if c, ok := t.Stages[s]; ok && c.File != "" {
			res = append(res, c.File)
		}
	}
	return res
}

// linux projects ship the same .bat launchers, written as shell scripts without a shebang.
var (
	batch = []string{"cmd", "/C"}
	shell = []string{"sh"}
)

// builtin tables keyed by version and GOOS.
var builtin = map[Version]map[string]*Table{
	Version5162: {
		"linux": {Label: "swatcup-5.1.6.2/linux", Stages: map[status.Stage]Command{
			status.StagePrepare:     {File: "SUFI2_Pre.bat", Interpreter: shell},
			status.StageExecute:     {File: "SUFI2_Run.bat", Interpreter: shell},
			status.StagePostProcess: {File: "SUFI2_Post.bat", Interpreter: shell},
		}},
		"windows": {Label: "swatcup-5.1.6.2/windows", Stages: map[status.Stage]Command{
			status.StagePrepare:     {File: "SUFI2_pre.bat", Interpreter: batch},
			status.StageExecute:     {File: "SUFI2_run.bat", Interpreter: batch},
			status.StagePostProcess: {File: "SUFI2_post.bat", Interpreter: batch},
		}},
	},
	Version2019: {
		"linux": {Label: "swatcup-2019/linux", Stages: map[status.Stage]Command{
			status.StagePrepare:     {File: "SUFI2_Pre.bat", Interpreter: shell},
			status.StageExecute:     {File: "SUFI2_Run.bat", Interpreter: shell},
			status.StagePostProcess: {File: "SUFI2_Post.bat", Interpreter: shell},
		}},
		"windows": {Label: "swatcup-2019/windows", Stages: map[status.Stage]Command{
			status.StagePrepare:     {File: "SUFI2_Pre.bat", Interpreter: batch},
			status.StageExecute:     {File: "SUFI2_Run.bat", Interpreter: batch},
			status.StagePostProcess: {File: "SUFI2_Post.bat", Interpreter: batch},
		}},
	},
}

// ParseVersion converts a configured version string.
func ParseVersion(s string) (Version, error) {
	switch strings.TrimSpace(s) {
	case "5.1.6.2", "v5.1.6.2", "5162":
		return Version5162, nil
	case "2019":
		return Version2019, nil
	default:
		return "", fmt.Errorf("unsupported swat-cup version %q", s)
	}
}

// ForPlatform returns the built-in table for a version on goos.
// linux tables are reused for other unix systems.
func ForPlatform(goos string, v Version) (*Table, error) {
	byOS, ok := builtin[v]
	if !ok {
		return nil, fmt.Errorf("unsupported swat-cup version %q", v)
	}
	key := goos
	if goos != "windows" {
		key = "linux"
	}
	t, ok := byOS[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s for swat-cup %s", ErrUnsupportedPlatform, goos, v)
	}
	return t.clone(), nil
}

// Current returns the built-in table for the running platform.
func Current(v Version) (*Table, error) {
	return ForPlatform(runtime.GOOS, v)
}

// LoadTable reads a launcher table from a YAML file:
//
//	name: my-build
//	stages:
//	  prepare: {file: SUFI2_Pre.sh}
//	  execute: {file: SUFI2_Run.sh}
//	  post_process: {file: SUFI2_Post.sh, interpreter: [sh]}
func LoadTable(path string) (*Table, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from user config
	if err != nil {
		return nil, fmt.Errorf("read launcher table: %w", err)
	}
	return ParseTable(data)
}

// ParseTable parses YAML launcher table data. unknown stage names are rejected.
func ParseTable(data []byte) (*Table, error) {
	var raw struct {
		Name   string             `yaml:"name"`
		Stages map[string]Command `yaml:"stages"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse launcher table: %w", err)
	}
	if len(raw.Stages) == 0 {
		return nil, errors.New("launcher table has no stages")
	}

	t := &Table{Label: raw.Name, Stages: make(map[status.Stage]Command, len(raw.Stages))}
	if t.Label == "" {
		t.Label = "custom"
	}
	names := make([]string, 0, len(raw.Stages))
	for name := range raw.Stages {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		stage, err := status.ParseStage(name)
		if err != nil {
			return nil, fmt.Errorf("launcher table: %w", err)
		}
		c := raw.Stages[name]
		if strings.TrimSpace(c.File) == "" {
			return nil, fmt.Errorf("launcher table: stage %s has no file", stage)
		}
		t.Stages[stage] = c
	}
	return t, nil
}

func (t *Table) clone() *Table {
	res := &Table{Label: t.Label, Stages: make(map[status.Stage]Command, len(t.Stages))}
	for k, v := range t.Stages {
		v.Interpreter = append([]string(nil), v.Interpreter...)
		res.Stages[k] = v
	}
	return res
}

// Tool is one of the SUFI2 programs the stage launchers chain together. they are run
// one at a time when a stage needs to be replayed piecewise.
type Tool string

// SUFI2 programs shipped in the project root.
const (
	ToolLHSample Tool = "SUFI2_LH_sample.exe" // latin hypercube parameter sampling
	ToolExecute  Tool = "SUFI2_execute.exe"   // model runs for every sampled set
	ToolGoalFn   Tool = "SUFI2_goal_fn.exe"   // goal function over all runs
	ToolNewPars  Tool = "SUFI2_new_pars.exe"  // suggested parameter ranges
	Tool95PPU    Tool = "SUFI2_95ppu.exe"     // 95 percent prediction uncertainty
	Tool95PPUBeh Tool = "SUFI2_95ppu_beh.exe" // 95ppu of behavioral runs
)

// Tools returns the SUFI2 programs in the order a full pass runs them.
func Tools() []Tool {
	return []Tool{ToolLHSample, ToolExecute, ToolGoalFn, ToolNewPars, Tool95PPU, Tool95PPUBeh}
}

// ParseTool accepts a program file name or its short form, e.g. "goal_fn" or "SUFI2_goal_fn".
func ParseTool(name string) (Tool, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	key = strings.TrimSuffix(key, ".exe")
	key = strings.TrimPrefix(key, "sufi2_")
	for _, t := range Tools() {
		short := strings.TrimPrefix(strings.TrimSuffix(strings.ToLower(string(t)), ".exe"), "sufi2_")
		if key == short {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown sufi2 tool %q", name)
}

// Command returns the launcher for the tool. programs are run directly on every platform.
func (t Tool) Command() Command { return Command{File: string(t)} }

// helper programs the stage launchers call besides the SUFI2 tools.
var helpers = []string{
	"swat.exe", "SWAT_Edit.exe", "95ppu_NO_Obs.exe", "SUFI2_make_input.exe",
	"SUFI2_extract_hru.exe", "SUFI2_extract_rch.exe", "SUFI2_extract_sub.exe",
	"extract_hru_No_Obs.exe", "extract_rch_No_Obs.exe", "extract_sub_No_Obs.exe",
	"extract_hru_Yield_annual_No_Obs_subAvg.exe", "SUFI2_extract.bat",
}

// Programs returns every SUFI2 and SWAT program a project ships next to its launchers.
func Programs() []string {
	res := make([]string, 0, len(Tools())+len(helpers))
	for _, t := range Tools() {
		res = append(res, string(t))
	}
	return append(res, helpers...)
}

// Executables returns the files that need the execute bit before a pass: the strategy's
// launchers followed by Programs, without duplicates.
func Executables(s Strategy) []string {
	res := slices.Clone(s.Launchers())
	for _, p := range Programs() {
		if !slices.Contains(res, p) {
			res = append(res, p)
		}
	}
	return res
}
