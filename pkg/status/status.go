// Package status defines shared execution-model types for sufi2.
// stage names and the stage holder used by session, runner, progress, and notify packages.
package status

import "fmt"

// Stage is one phase of a SUFI2 calibration pass.
type Stage string

// Stage constants in the order a calibration pass runs them.
const (
	StagePrepare     Stage = "prepare"      // SUFI2_pre, parameter sampling (green)
	StageExecute     Stage = "execute"      // SUFI2_run, model runs (cyan)
	StagePostProcess Stage = "post_process" // SUFI2_post, goal and trace extraction (magenta)
)

// Stages returns all stages in pass order.
func Stages() []Stage {
	return []Stage{StagePrepare, StageExecute, StagePostProcess}
}

// ParseStage converts a stage name to a Stage. accepts the short aliases used on the command line.
func ParseStage(name string) (Stage, error) {
	switch name {
	case "prepare", "pre":
		return StagePrepare, nil
	case "execute", "run":
		return StageExecute, nil
	case "post_process", "post-process", "post":
		return StagePostProcess, nil
	default:
		return "", fmt.Errorf("unknown stage %q", name)
	}
}

// Valid reports whether s is one of the known stages.
func (s Stage) Valid() bool {
	switch s {
	case StagePrepare, StageExecute, StagePostProcess:
		return true
	}
	return false
}
