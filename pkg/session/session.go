// Package session sequences the three SUFI2 stages of a project, blocking or detached,
// and reads back what the toolchain produced.
//
// A Session owns its run guard, so two sessions never share state. Callers are expected
// to defer Close, which kills a detached run still in flight.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/umputun/sufi2/pkg/executor"
	"github.com/umputun/sufi2/pkg/guard"
	"github.com/umputun/sufi2/pkg/launch"
	"github.com/umputun/sufi2/pkg/project"
	"github.com/umputun/sufi2/pkg/result"
	"github.com/umputun/sufi2/pkg/status"
)

//go:generate moq -out mocks/invoker.go -pkg mocks -skip-ensure -fmt goimports . Invoker

// ErrClosed is returned by stage operations after Close.
var ErrClosed = errors.New("session closed")

// Invoker starts toolchain executables. *executor.Invoker implements it.
type Invoker interface {
	RunSync(ctx context.Context, c executor.Command) (int, error)
	RunAsync(c executor.Command) (executor.Process, error)
}

// Logger is the logging surface used by the session.
type Logger interface {
	Print(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Print(string, ...any) {}

// Option configures a Session.
type Option func(*Session)

// WithInvoker replaces the default invoker, which streams sync output to stdout.
func WithInvoker(inv Invoker) Option {
	return func(s *Session) { s.invoker = inv }
}

// WithStrict makes trace parsing fail on lines it would otherwise skip.
func WithStrict(strict bool) Option {
	return func(s *Session) { s.strict = strict }
}

// WithLogger sets the logger for stage start and finish messages.
func WithLogger(l Logger) Option {
	return func(s *Session) { s.log = l }
}

// WithStageHolder shares the stage holder with other components, e.g. the progress logger.
func WithStageHolder(h *status.StageHolder) Option {
	return func(s *Session) { s.stage = h }
}

// Session runs the toolchain of one project.
type Session struct {
	project  *project.Context
	strategy launch.Strategy
	invoker  Invoker
	log      Logger
	stage    *status.StageHolder
	strict   bool

	guard guard.Guard

	mu         sync.Mutex
	closed     bool
	syncName   string             // stage or tool of the sync run in flight, empty if none
	syncCancel context.CancelFunc // cancels the sync run in flight
}

// New makes a session for proj. the launch strategy is chosen once here and used for every stage.
func New(proj *project.Context, strategy launch.Strategy, opts ...Option) *Session {
	s := &Session{
		project:  proj,
		strategy: strategy,
		log:      nopLogger{},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.invoker == nil {
		s.invoker = executor.New(nil)
	}
	if s.stage == nil {
		s.stage = &status.StageHolder{}
	}
	return s
}

// Project returns the project the session runs.
func (s *Session) Project() *project.Context { return s.project }

// Strategy returns the launch strategy.
func (s *Session) Strategy() launch.Strategy { return s.strategy }

// Prepare runs SUFI2_pre and blocks until it exits.
func (s *Session) Prepare(ctx context.Context) (int, error) {
	return s.Run(ctx, status.StagePrepare)
}

// Execute runs SUFI2_run and blocks until it exits.
func (s *Session) Execute(ctx context.Context) (int, error) {
	return s.Run(ctx, status.StageExecute)
}

// PostProcess runs SUFI2_post and blocks until it exits.
func (s *Session) PostProcess(ctx context.Context) (int, error) {
	return s.Run(ctx, status.StagePostProcess)
}

// PrepareAsync starts SUFI2_pre in the background.
func (s *Session) PrepareAsync() error { return s.Launch(status.StagePrepare) }

// ExecuteAsync starts SUFI2_run in the background.
func (s *Session) ExecuteAsync() error { return s.Launch(status.StageExecute) }

// PostProcessAsync starts SUFI2_post in the background.
func (s *Session) PostProcessAsync() error { return s.Launch(status.StagePostProcess) }

// Run executes stage and blocks until it exits, returning its exit code. a non-zero code is
// not an error. it refuses to start while another run of this session is live.
func (s *Session) Run(ctx context.Context, stage status.Stage) (int, error) {
	cmd, err := s.command(stage)
	if err != nil {
		return 0, err
	}
	return s.runSync(ctx, string(stage), cmd, func() { s.stage.Set(stage) })
}

// RunTool runs a single SUFI2 program from the project root and blocks until it exits.
// the current stage is left as is, tools are pieces of a stage.
func (s *Session) RunTool(ctx context.Context, tool launch.Tool) (int, error) {
	c := tool.Command()
	cmd := executor.Command{Path: c.File, Dir: s.project.Root(), Interpreter: c.Interpreter}
	return s.runSync(ctx, string(tool), cmd, func() {})
}

func (s *Session) runSync(ctx context.Context, name string, cmd executor.Command, started func()) (int, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return 0, fmt.Errorf("%s: %w", name, ErrClosed)
	}
	if err := s.busyLocked(name); err != nil {
		s.mu.Unlock()
		return 0, err
	}
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	s.syncName, s.syncCancel = name, cancel
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.syncName, s.syncCancel = "", nil
		s.mu.Unlock()
	}()

	started()
	s.log.Print("%s: running %s", name, cmd.Path)
	code, err := s.invoker.RunSync(runCtx, cmd)
	if err != nil {
		return code, fmt.Errorf("%s: %w", name, err)
	}
	s.log.Print("%s: exited with code %d", name, code)
	return code, nil
}

// Launch starts stage in the background. it fails with guard.ErrAlreadyRunning while another
// run of this session is live, leaving that run untouched.
func (s *Session) Launch(stage status.Stage) error {
	cmd, err := s.command(stage)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("%s: %w", stage, ErrClosed)
	}
	if s.syncName != "" {
		return fmt.Errorf("launch %s: %w (active stage %s)", stage, guard.ErrAlreadyRunning, s.syncName)
	}

	_, err = s.guard.Launch(stage, func() (guard.Process, error) {
		return s.invoker.RunAsync(cmd)
	})
	if err != nil {
		return err //nolint:wrapcheck // guard errors already name the stage
	}
	s.stage.Set(stage)
	s.log.Print("%s: started %s in background", stage, cmd.Path)
	return nil
}

// IsRunning reports whether a background run is live. non-blocking.
func (s *Session) IsRunning() bool { return s.guard.IsRunning() }

// Wait blocks until the background run exits and returns its exit code.
func (s *Session) Wait() (int, error) {
	code, err := s.guard.Wait()
	if err != nil {
		return 0, fmt.Errorf("wait: %w", err)
	}
	return code, nil
}

// ReturnCode polls the exit code of the last background run, false while it is still running.
func (s *Session) ReturnCode() (int, bool) { return s.guard.ReturnCode() }

// Kill terminates the background run if there is one.
func (s *Session) Kill() error {
	if err := s.guard.Kill(); err != nil {
		return fmt.Errorf("kill: %w", err)
	}
	return nil
}

// State returns the state of the background run guard.
func (s *Session) State() guard.State { return s.guard.State() }

// Stage returns the stage started last, sync or background. empty before the first run.
func (s *Session) Stage() status.Stage { return s.stage.Get() }

// Close kills any live run and marks the session closed. safe to call more than once.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	cancel := s.syncCancel
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	return s.Kill()
}

// ReadGoal parses goal.txt from the project output directory.
func (s *Session) ReadGoal() (*result.GoalSummary, error) {
	return result.ParseGoalSummary(s.project.OutputDir()) //nolint:wrapcheck // errors carry the file path
}

// ReadManifest reads the variable manifest of the project.
func (s *Session) ReadManifest() ([]string, error) {
	return result.ReadVariableManifest(s.project.Root()) //nolint:wrapcheck // errors carry the file path
}

// ReadTrace parses one variable trace file from the output directory.
func (s *Session) ReadTrace(name string) (*result.VariableTrace, error) {
	return result.ParseVariableTrace(s.project.OutputDir(), name, s.traceOptions()) //nolint:wrapcheck // errors carry the file path
}

// ReadTraces reads the manifest and parses every trace it lists, in manifest order.
func (s *Session) ReadTraces(ctx context.Context) ([]*result.VariableTrace, error) {
	names, err := s.ReadManifest()
	if err != nil {
		return nil, err
	}
	return result.ReadTraces(ctx, s.project.OutputDir(), names, s.traceOptions()) //nolint:wrapcheck // errors carry the file path
}

func (s *Session) traceOptions() result.TraceOptions {
	return result.TraceOptions{Strict: s.strict}
}

// busyLocked reports a live run, sync or background.
func (s *Session) busyLocked(name string) error {
	if s.syncName != "" {
		return fmt.Errorf("run %s: %w (active stage %s)", name, guard.ErrAlreadyRunning, s.syncName)
	}
	if s.guard.IsRunning() {
		active := s.guard.Current().Stage
		return fmt.Errorf("run %s: %w (active stage %s)", name, guard.ErrAlreadyRunning, active)
	}
	return nil
}

// command resolves stage to an executor command rooted at the project directory.
func (s *Session) command(stage status.Stage) (executor.Command, error) {
	c, err := s.strategy.Resolve(stage)
	if err != nil {
		return executor.Command{}, fmt.Errorf("resolve %s: %w", stage, err)
	}
	return executor.Command{Path: c.File, Dir: s.project.Root(), Interpreter: c.Interpreter}, nil
}
