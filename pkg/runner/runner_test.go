package runner_test

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/sufi2/pkg/project"
	"github.com/umputun/sufi2/pkg/result"
	"github.com/umputun/sufi2/pkg/runner"
	"github.com/umputun/sufi2/pkg/runner/mocks"
	"github.com/umputun/sufi2/pkg/status"
)

type mockLogger struct {
	mu    sync.Mutex
	lines []string
}

func (l *mockLogger) add(tag, format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, tag+fmt.Sprintf(format, args...))
}

func (l *mockLogger) Print(format string, args ...any) { l.add("", format, args...) }
func (l *mockLogger) Warn(format string, args ...any)  { l.add("WARN: ", format, args...) }
func (l *mockLogger) Error(format string, args ...any) { l.add("ERROR: ", format, args...) }

func (l *mockLogger) all() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return strings.Join(l.lines, "\n")
}

func newProject(t *testing.T) *project.Context {
	t.Helper()
	proj, err := project.Open(t.TempDir())
	require.NoError(t, err)
	return proj
}

// syncSession returns a mock running stages synchronously with the given exit codes.
func syncSession(proj *project.Context, codes map[status.Stage]int) *mocks.SessionMock {
	return &mocks.SessionMock{
		ProjectFunc: func() *project.Context { return proj },
		RunFunc: func(_ context.Context, stage status.Stage) (int, error) {
			return codes[stage], nil
		},
	}
}

func TestRunner_SyncStagesInOrder(t *testing.T) {
	proj := newProject(t)
	sess := syncSession(proj, nil)
	log := &mockLogger{}

	r := runner.New(runner.Config{Stages: status.Stages()}, sess, log)
	out, err := r.Run(context.Background())
	require.NoError(t, err)

	calls := sess.RunCalls()
	require.Len(t, calls, 3)
	assert.Equal(t, status.StagePrepare, calls[0].Stage)
	assert.Equal(t, status.StageExecute, calls[1].Stage)
	assert.Equal(t, status.StagePostProcess, calls[2].Stage)

	require.Len(t, out.Stages, 3)
	assert.Equal(t, status.StagePostProcess, out.Stages[2].Stage)
	assert.Nil(t, out.Goal, "results not requested")
	assert.DirExists(t, proj.WorkDir())
	assert.Contains(t, log.all(), "created work dir")
}

func TestRunner_StopsOnNonZeroExit(t *testing.T) {
	proj := newProject(t)
	sess := syncSession(proj, map[status.Stage]int{status.StageExecute: 2})

	r := runner.New(runner.Config{Stages: status.Stages(), Goal: true}, sess, &mockLogger{})
	out, err := r.Run(context.Background())
	require.Error(t, err)
	require.ErrorIs(t, err, runner.ErrStageFailed)

	var stageErr *runner.StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, status.StageExecute, stageErr.Stage)
	assert.Equal(t, 2, stageErr.Code)
	assert.Equal(t, "execute exited with code 2", err.Error())

	assert.Len(t, sess.RunCalls(), 2, "post_process never started")
	require.Len(t, out.Stages, 2)
	assert.Equal(t, 2, out.Stages[1].Code)
}

func TestRunner_SessionError(t *testing.T) {
	proj := newProject(t)
	sess := &mocks.SessionMock{
		ProjectFunc: func() *project.Context { return proj },
		RunFunc: func(context.Context, status.Stage) (int, error) {
			return 0, errors.New("executable not found")
		},
	}

	r := runner.New(runner.Config{Stages: []status.Stage{status.StageExecute}}, sess, &mockLogger{})
	_, err := r.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run execute: executable not found")
}

func TestRunner_StaleOutput(t *testing.T) {
	populate := func(t *testing.T, proj *project.Context) {
		t.Helper()
		require.NoError(t, os.MkdirAll(proj.OutputDir(), 0o750))
		require.NoError(t, os.WriteFile(filepath.Join(proj.OutputDir(), "goal.txt"), []byte("old"), 0o600))
	}

	t.Run("warn", func(t *testing.T) {
		proj := newProject(t)
		populate(t, proj)
		sess := syncSession(proj, nil)
		log := &mockLogger{}

		_, err := runner.New(runner.Config{Stages: status.Stages()}, sess, log).Run(context.Background())
		require.NoError(t, err)
		assert.Contains(t, log.all(), "WARN: "+proj.OutputDir()+" already populated")
		assert.Len(t, sess.RunCalls(), 3)
	})

	t.Run("fail", func(t *testing.T) {
		proj := newProject(t)
		populate(t, proj)
		sess := syncSession(proj, nil)

		_, err := runner.New(runner.Config{Stages: status.Stages(), FailOnStale: true}, sess, &mockLogger{}).
			Run(context.Background())
		require.ErrorIs(t, err, runner.ErrStaleOutput)
		assert.Empty(t, sess.RunCalls())
	})

	t.Run("not checked without prepare", func(t *testing.T) {
		proj := newProject(t)
		populate(t, proj)
		sess := syncSession(proj, nil)

		_, err := runner.New(runner.Config{Stages: []status.Stage{status.StagePostProcess}, FailOnStale: true},
			sess, &mockLogger{}).Run(context.Background())
		require.NoError(t, err)
	})
}

func TestRunner_AsyncPolling(t *testing.T) {
	proj := newProject(t)
	var polls atomic.Int32
	sess := &mocks.SessionMock{
		ProjectFunc: func() *project.Context { return proj },
		LaunchFunc: func(status.Stage) error {
			polls.Store(0)
			return nil
		},
		IsRunningFunc: func() bool { return polls.Add(1) < 3 },
		ReturnCodeFunc: func() (int, bool) {
			return 0, true
		},
	}
	log := &mockLogger{}

	r := runner.New(runner.Config{Stages: status.Stages(), Async: true, PollInterval: time.Millisecond}, sess, log)
	out, err := r.Run(context.Background())
	require.NoError(t, err)

	launches := sess.LaunchCalls()
	require.Len(t, launches, 3)
	assert.Equal(t, status.StagePostProcess, launches[2].Stage)
	assert.GreaterOrEqual(t, len(sess.IsRunningCalls()), 9, "each stage polled until it stopped")
	assert.Len(t, out.Stages, 3)
	assert.Contains(t, log.all(), "post_process: exited with code 0")
	assert.Empty(t, sess.RunCalls())
}

func TestRunner_AsyncNonZero(t *testing.T) {
	proj := newProject(t)
	sess := &mocks.SessionMock{
		ProjectFunc:    func() *project.Context { return proj },
		LaunchFunc:     func(status.Stage) error { return nil },
		IsRunningFunc:  func() bool { return false },
		ReturnCodeFunc: func() (int, bool) { return 5, true },
	}

	r := runner.New(runner.Config{Stages: status.Stages(), Async: true, PollInterval: time.Millisecond}, sess, &mockLogger{})
	_, err := r.Run(context.Background())
	var stageErr *runner.StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, status.StagePrepare, stageErr.Stage)
	assert.Equal(t, 5, stageErr.Code)
	assert.Len(t, sess.LaunchCalls(), 1)
}

func TestRunner_AsyncCanceledKills(t *testing.T) {
	proj := newProject(t)
	ctx, cancel := context.WithCancel(context.Background())
	sess := &mocks.SessionMock{
		ProjectFunc: func() *project.Context { return proj },
		LaunchFunc: func(status.Stage) error {
			time.AfterFunc(20*time.Millisecond, cancel)
			return nil
		},
		IsRunningFunc: func() bool { return true },
		KillFunc:      func() error { return nil },
	}

	r := runner.New(runner.Config{Stages: []status.Stage{status.StageExecute}, Async: true,
		PollInterval: 5 * time.Millisecond}, sess, &mockLogger{})
	_, err := r.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Len(t, sess.KillCalls(), 1)
}

func TestRunner_AsyncLaunchError(t *testing.T) {
	proj := newProject(t)
	sess := &mocks.SessionMock{
		ProjectFunc: func() *project.Context { return proj },
		LaunchFunc:  func(status.Stage) error { return errors.New("already running") },
	}
	_, err := runner.New(runner.Config{Stages: []status.Stage{status.StageExecute}, Async: true}, sess,
		&mockLogger{}).Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "launch execute: already running")
}

func TestRunner_CanceledBeforeStage(t *testing.T) {
	proj := newProject(t)
	sess := syncSession(proj, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := runner.New(runner.Config{Stages: status.Stages()}, sess, &mockLogger{}).Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, sess.RunCalls())
}

func TestRunner_ReadsResults(t *testing.T) {
	proj := newProject(t)
	goal := &result.GoalSummary{ParameterCount: 2, SimulationCount: 10, GoalFunctionType: "NS"}
	traces := []*result.VariableTrace{{Name: "FLOW_OUT_1.txt"}}
	sess := syncSession(proj, nil)
	sess.ReadGoalFunc = func() (*result.GoalSummary, error) { return goal, nil }
	sess.ReadManifestFunc = func() ([]string, error) { return []string{"FLOW_OUT_1.txt"}, nil }
	sess.ReadTracesFunc = func(context.Context) ([]*result.VariableTrace, error) { return traces, nil }
	log := &mockLogger{}

	r := runner.New(runner.Config{Stages: []status.Stage{status.StagePostProcess}, Goal: true, Traces: true}, sess, log)
	out, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Same(t, goal, out.Goal)
	assert.Equal(t, []string{"FLOW_OUT_1.txt"}, out.Manifest)
	assert.Equal(t, traces, out.Traces)
	assert.Contains(t, log.all(), "goal NS: 10 simulations, 2 parameters")
	assert.Contains(t, log.all(), "read 1 variable traces")
}

func TestRunner_MissingManifestSkipsTraces(t *testing.T) {
	proj := newProject(t)
	sess := syncSession(proj, nil)
	sess.ReadManifestFunc = func() ([]string, error) {
		return nil, fmt.Errorf("open var_file_name.txt: %w", os.ErrNotExist)
	}
	log := &mockLogger{}

	out, err := runner.New(runner.Config{Traces: true}, sess, log).Run(context.Background())
	require.NoError(t, err)
	assert.Nil(t, out.Traces)
	assert.Empty(t, sess.ReadTracesCalls())
	assert.Contains(t, log.all(), "WARN: no variable manifest")
}

func TestRunner_GoalError(t *testing.T) {
	proj := newProject(t)
	sess := syncSession(proj, nil)
	sess.ReadGoalFunc = func() (*result.GoalSummary, error) { return nil, result.ErrMalformedHeader }

	_, err := runner.New(runner.Config{Goal: true}, sess, &mockLogger{}).Run(context.Background())
	require.ErrorIs(t, err, result.ErrMalformedHeader)
	assert.Contains(t, err.Error(), "goal summary")
}

func TestRunner_GoalWait(t *testing.T) {
	t.Run("file appears", func(t *testing.T) {
		proj := newProject(t)
		require.NoError(t, os.MkdirAll(proj.OutputDir(), 0o750))
		sess := syncSession(proj, nil)
		sess.RunFunc = func(context.Context, status.Stage) (int, error) {
			time.AfterFunc(30*time.Millisecond, func() {
				_ = os.WriteFile(filepath.Join(proj.OutputDir(), result.GoalFileName), []byte("x"), 0o600)
			})
			return 0, nil
		}
		sess.ReadGoalFunc = func() (*result.GoalSummary, error) { return &result.GoalSummary{}, nil }

		r := runner.New(runner.Config{Stages: []status.Stage{status.StagePostProcess}, Goal: true,
			GoalWait: 5 * time.Second}, sess, &mockLogger{})
		_, err := r.Run(context.Background())
		require.NoError(t, err)
		assert.Len(t, sess.ReadGoalCalls(), 1)
	})

	t.Run("timeout", func(t *testing.T) {
		proj := newProject(t)
		require.NoError(t, os.MkdirAll(proj.OutputDir(), 0o750))
		sess := syncSession(proj, nil)
		sess.ReadGoalFunc = func() (*result.GoalSummary, error) { return &result.GoalSummary{}, nil }

		r := runner.New(runner.Config{Stages: []status.Stage{status.StagePostProcess}, Goal: true,
			GoalWait: 50 * time.Millisecond}, sess, &mockLogger{})
		_, err := r.Run(context.Background())
		require.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Empty(t, sess.ReadGoalCalls())
	})

	t.Run("skipped without post_process", func(t *testing.T) {
		proj := newProject(t)
		sess := syncSession(proj, nil)
		sess.ReadGoalFunc = func() (*result.GoalSummary, error) { return &result.GoalSummary{}, nil }

		r := runner.New(runner.Config{Goal: true, GoalWait: time.Hour}, sess, &mockLogger{})
		_, err := r.Run(context.Background())
		require.NoError(t, err)
	})
}

func TestRunner_CopyOutput(t *testing.T) {
	proj := newProject(t)
	require.NoError(t, os.MkdirAll(proj.OutputDir(), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(proj.OutputDir(), result.GoalFileName), []byte("goal"), 0o600))
	dst := filepath.Join(t.TempDir(), "pass1")
	log := &mockLogger{}

	_, err := runner.New(runner.Config{Stages: []status.Stage{status.StagePostProcess}, CopyOutput: dst},
		syncSession(proj, nil), log).Run(context.Background())
	require.NoError(t, err)
	data, err := os.ReadFile(filepath.Join(dst, result.GoalFileName))
	require.NoError(t, err)
	assert.Equal(t, "goal", string(data))
	assert.Contains(t, log.all(), "copied "+proj.OutputDir()+" to "+dst)

	t.Run("not after a failed stage", func(t *testing.T) {
		other := filepath.Join(t.TempDir(), "pass2")
		sess := syncSession(proj, map[status.Stage]int{status.StagePostProcess: 1})
		_, err := runner.New(runner.Config{Stages: []status.Stage{status.StagePostProcess}, CopyOutput: other},
			sess, &mockLogger{}).Run(context.Background())
		require.ErrorIs(t, err, runner.ErrStageFailed)
		assert.NoDirExists(t, other)
	})

	t.Run("existing destination", func(t *testing.T) {
		_, err := runner.New(runner.Config{CopyOutput: dst}, syncSession(proj, nil), &mockLogger{}).
			Run(context.Background())
		require.ErrorIs(t, err, fs.ErrExist)
	})
}
