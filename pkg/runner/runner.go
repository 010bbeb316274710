// Package runner drives a calibration pass: the requested SUFI2 stages in order, then the
// results they left behind.
package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/umputun/sufi2/pkg/project"
	"github.com/umputun/sufi2/pkg/result"
	"github.com/umputun/sufi2/pkg/status"
)

//go:generate moq -out mocks/session.go -pkg mocks -skip-ensure -fmt goimports . Session

// errors returned by the runner.
var (
	ErrStageFailed = errors.New("stage failed")
	ErrStaleOutput = errors.New("output directory holds results of a previous pass")
)

// StageError reports a stage that exited with a non-zero code.
type StageError struct {
	Stage status.Stage
	Code  int
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s exited with code %d", e.Stage, e.Code)
}

// Unwrap returns ErrStageFailed.
func (e *StageError) Unwrap() error { return ErrStageFailed }

// Session is the part of session.Session the runner uses.
type Session interface {
	Project() *project.Context
	Run(ctx context.Context, stage status.Stage) (int, error)
	Launch(stage status.Stage) error
	IsRunning() bool
	ReturnCode() (int, bool)
	Kill() error
	ReadGoal() (*result.GoalSummary, error)
	ReadManifest() ([]string, error)
	ReadTraces(ctx context.Context) ([]*result.VariableTrace, error)
}

// Logger provides logging functionality.
type Logger interface {
	Print(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Config holds runner configuration.
type Config struct {
	Stages       []status.Stage // stages to run, in this order
	Async        bool           // launch stages in the background and poll them
	PollInterval time.Duration  // poll period for background stages
	FailOnStale  bool           // refuse to prepare over a populated SUFI2.OUT instead of warning
	GoalWait     time.Duration  // wait up to this long for goal.txt after post-processing, 0 to skip
	Goal         bool           // parse goal.txt after the stages
	Traces       bool           // parse the manifest and every trace it lists
	CopyOutput   string         // copy SUFI2.OUT here after a successful pass, empty to skip
}

// StageRun is the record of one finished stage.
type StageRun struct {
	Stage    status.Stage
	Code     int
	Duration time.Duration
}

// Outcome is what a pass produced. result fields stay empty unless requested.
type Outcome struct {
	Stages   []StageRun
	Goal     *result.GoalSummary
	Manifest []string
	Traces   []*result.VariableTrace
}

// Runner chains stages of one session.
type Runner struct {
	cfg  Config
	log  Logger
	sess Session
	now  func() time.Time
}

// New creates a runner. a zero poll interval falls back to one second.
func New(cfg Config, sess Session, log Logger) *Runner {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}
	return &Runner{cfg: cfg, log: log, sess: sess, now: time.Now}
}

// Run executes the configured stages, stopping at the first failure, then reads the
// requested results. the outcome holds every stage that finished, also on error.
func (r *Runner) Run(ctx context.Context) (*Outcome, error) {
	out := &Outcome{}
	proj := r.sess.Project()

	created, err := proj.EnsureWorkDir()
	if err != nil {
		return out, fmt.Errorf("work dir: %w", err)
	}
	if created {
		r.log.Print("created work dir %s", proj.WorkDir())
	}

	if len(r.cfg.Stages) > 0 && r.cfg.Stages[0] == status.StagePrepare {
		if err := r.checkStale(proj); err != nil {
			return out, err
		}
	}

	for _, stage := range r.cfg.Stages {
		if err := ctx.Err(); err != nil {
			return out, fmt.Errorf("before %s: %w", stage, err)
		}
		start := r.now()
		code, err := r.runStage(ctx, stage)
		if err != nil {
			return out, err
		}
		run := StageRun{Stage: stage, Code: code, Duration: r.now().Sub(start)}
		out.Stages = append(out.Stages, run)
		if code != 0 {
			return out, &StageError{Stage: stage, Code: code}
		}
	}

	if err := r.readResults(ctx, out); err != nil {
		return out, err
	}

	if r.cfg.CopyOutput != "" {
		if err := proj.CopyOutput(r.cfg.CopyOutput); err != nil {
			return out, err //nolint:wrapcheck // error names source and destination
		}
		r.log.Print("copied %s to %s", proj.OutputDir(), r.cfg.CopyOutput)
	}
	return out, nil
}

// checkStale looks at SUFI2.OUT before prepare. a populated directory means an earlier pass
// left results that this pass will overwrite piecemeal.
func (r *Runner) checkStale(proj *project.Context) error {
	state, err := proj.OutputState()
	if err != nil {
		return fmt.Errorf("output state: %w", err)
	}
	if state != project.OutputPopulated {
		return nil
	}
	if r.cfg.FailOnStale {
		return fmt.Errorf("%w: %s", ErrStaleOutput, proj.OutputDir())
	}
	r.log.Warn("%s already populated, results of a previous pass will be overwritten", proj.OutputDir())
	return nil
}

func (r *Runner) runStage(ctx context.Context, stage status.Stage) (int, error) {
	if !r.cfg.Async {
		code, err := r.sess.Run(ctx, stage)
		if err != nil {
			return code, fmt.Errorf("run %s: %w", stage, err)
		}
		return code, nil
	}

	if err := r.sess.Launch(stage); err != nil {
		return 0, fmt.Errorf("launch %s: %w", stage, err)
	}
	ticker := time.NewTicker(r.cfg.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			if err := r.sess.Kill(); err != nil {
				r.log.Error("kill %s: %v", stage, err)
			}
			return 0, fmt.Errorf("%s: %w", stage, ctx.Err())
		case <-ticker.C:
			if r.sess.IsRunning() {
				continue
			}
			code, ok := r.sess.ReturnCode()
			if !ok {
				continue
			}
			r.log.Print("%s: exited with code %d", stage, code)
			return code, nil
		}
	}
}

func (r *Runner) readResults(ctx context.Context, out *Outcome) error {
	if r.cfg.Goal {
		if r.cfg.GoalWait > 0 && slices.Contains(r.cfg.Stages, status.StagePostProcess) {
			path := filepath.Join(r.sess.Project().OutputDir(), result.GoalFileName)
			waitCtx, cancel := context.WithTimeout(ctx, r.cfg.GoalWait)
			err := result.WaitForFile(waitCtx, path)
			cancel()
			if err != nil {
				return fmt.Errorf("wait for %s: %w", result.GoalFileName, err)
			}
		}
		goal, err := r.sess.ReadGoal()
		if err != nil {
			return fmt.Errorf("goal summary: %w", err)
		}
		out.Goal = goal
		r.log.Print("goal %s: %d simulations, %d parameters", goal.GoalFunctionType, goal.SimulationCount,
			goal.ParameterCount)
	}

	if r.cfg.Traces {
		manifest, err := r.sess.ReadManifest()
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				r.log.Warn("no variable manifest, traces skipped")
				return nil
			}
			return fmt.Errorf("manifest: %w", err)
		}
		out.Manifest = manifest
		traces, err := r.sess.ReadTraces(ctx)
		if err != nil {
			return fmt.Errorf("traces: %w", err)
		}
		out.Traces = traces
		r.log.Print("read %d variable traces", len(traces))
	}
	return nil
}
