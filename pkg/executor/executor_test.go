package executor_test

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/sufi2/pkg/executor"
	"github.com/umputun/sufi2/pkg/executor/mocks"
)

// writeScript creates an executable shell script in dir and returns its name.
func writeScript(t *testing.T, dir, name, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are not supported on windows")
	}
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o700)) //nolint:gosec // test script must be executable
	return name
}

// fakeProcess is a controllable executor.Process.
type fakeProcess struct {
	code int
	done chan struct{}
	once sync.Once
}

func newFakeProcess(code int) *fakeProcess {
	return &fakeProcess{code: code, done: make(chan struct{})}
}

func (p *fakeProcess) exit()    { p.once.Do(func() { close(p.done) }) }
func (p *fakeProcess) Pid() int { return 42 }
func (p *fakeProcess) Exited() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

func (p *fakeProcess) ExitCode() (int, bool) {
	if !p.Exited() {
		return 0, false
	}
	return p.code, true
}

func (p *fakeProcess) Wait() int {
	<-p.done
	return p.code
}

func (p *fakeProcess) Kill() error {
	p.code = executor.KilledExitCode
	p.exit()
	return nil
}

func TestInvoker_RunSync_ExitCodeAndOutput(t *testing.T) {
	dir := t.TempDir()
	name := writeScript(t, dir, "SUFI2_Pre.sh", "echo line one\necho line two >&2\nprintf tail\nexit 3\n")

	var lines []string
	inv := executor.New(func(line string) { lines = append(lines, line) })

	code, err := inv.RunSync(context.Background(), executor.Command{Path: name, Dir: dir})
	require.NoError(t, err)
	assert.Equal(t, 3, code, "non-zero exit is a value, not an error")
	assert.Equal(t, []string{"line one", "line two", "tail"}, lines)
}

func TestInvoker_RunSync_WorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	name := writeScript(t, dir, "pwd.sh", "touch marker.txt\n")

	inv := executor.New(func(string) {})
	code, err := inv.RunSync(context.Background(), executor.Command{Path: name, Dir: dir})
	require.NoError(t, err)
	assert.Equal(t, 0, code)
	assert.FileExists(t, filepath.Join(dir, "marker.txt"))
}

func TestInvoker_RunSync_NotFound(t *testing.T) {
	inv := executor.New(nil)
	_, err := inv.RunSync(context.Background(), executor.Command{Path: "missing.sh", Dir: t.TempDir()})
	require.Error(t, err)
	require.ErrorIs(t, err, executor.ErrExecutableNotFound)
	require.ErrorIs(t, err, os.ErrNotExist)

	var execErr *executor.Error
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, "missing.sh", filepath.Base(execErr.Path))
}

func TestInvoker_RunSync_SpawnError(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "SUFI2_Run.bat"), []byte("echo"), 0o600))

	inv := executor.New(nil)
	_, err := inv.RunSync(context.Background(), executor.Command{
		Path: "SUFI2_Run.bat", Dir: dir, Interpreter: []string{"no-such-interpreter-sufi2"},
	})
	require.ErrorIs(t, err, executor.ErrSpawn)
	assert.NotErrorIs(t, err, executor.ErrExecutableNotFound)
}

func TestInvoker_RunSync_ContextCanceled(t *testing.T) {
	dir := t.TempDir()
	name := writeScript(t, dir, "slow.sh", "sleep 30\n")

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	start := time.Now()
	code, err := executor.New(func(string) {}).RunSync(ctx, executor.Command{Path: name, Dir: dir})
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, executor.KilledExitCode, code)
	assert.Less(t, time.Since(start), 10*time.Second)
}

func TestInvoker_RunSync_AlreadyCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	mock := &mocks.CommandRunnerMock{}
	inv := executor.New(nil)
	inv.SetRunner(mock)

	_, err := inv.RunSync(ctx, executor.Command{Path: "x", Dir: t.TempDir()})
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, mock.StartCalls())
}

func TestInvoker_RunAsync_PollAndKill(t *testing.T) {
	dir := t.TempDir()
	name := writeScript(t, dir, "SUFI2_Run.sh", "sleep 30\n")

	proc, err := executor.New(nil).RunAsync(executor.Command{Path: name, Dir: dir})
	require.NoError(t, err)
	assert.Positive(t, proc.Pid())
	assert.False(t, proc.Exited())
	_, ok := proc.ExitCode()
	assert.False(t, ok)

	require.NoError(t, proc.Kill())
	assert.Equal(t, executor.KilledExitCode, proc.Wait())
	assert.True(t, proc.Exited())
	code, ok := proc.ExitCode()
	assert.True(t, ok)
	assert.Equal(t, executor.KilledExitCode, code)

	require.NoError(t, proc.Kill(), "killing an exited process is a no-op")
}

func TestInvoker_RunAsync_NaturalExit(t *testing.T) {
	dir := t.TempDir()
	name := writeScript(t, dir, "SUFI2_Post.sh", "echo ignored\nexit 7\n")

	proc, err := executor.New(nil).RunAsync(executor.Command{Path: name, Dir: dir})
	require.NoError(t, err)
	assert.Equal(t, 7, proc.Wait())
	code, ok := proc.ExitCode()
	assert.True(t, ok)
	assert.Equal(t, 7, code)
}

func TestInvoker_RunAsync_UsesRunner(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "SUFI2_Pre.sh"), []byte("x"), 0o600))

	fp := newFakeProcess(0)
	mock := &mocks.CommandRunnerMock{
		StartFunc: func(_ executor.Command, _ io.Writer) (executor.Process, error) { return fp, nil },
	}
	inv := executor.New(nil)
	inv.SetRunner(mock)

	proc, err := inv.RunAsync(executor.Command{Path: "SUFI2_Pre.sh", Dir: dir})
	require.NoError(t, err)
	assert.Same(t, fp, proc)

	calls := mock.StartCalls()
	require.Len(t, calls, 1)
	assert.Nil(t, calls[0].Output, "async runs discard output")
	assert.Equal(t, dir, calls[0].C.Dir)
}

func TestInvoker_RunSync_RunnerError(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "SUFI2_Pre.sh"), []byte("x"), 0o600))

	mock := &mocks.CommandRunnerMock{
		StartFunc: func(_ executor.Command, _ io.Writer) (executor.Process, error) {
			return nil, errors.New("permission denied")
		},
	}
	inv := executor.New(nil)
	inv.SetRunner(mock)

	_, err := inv.RunSync(context.Background(), executor.Command{Path: "SUFI2_Pre.sh", Dir: dir})
	require.ErrorIs(t, err, executor.ErrSpawn)
	assert.Contains(t, err.Error(), "permission denied")
}

func TestCommand_Resolved(t *testing.T) {
	assert.Equal(t, filepath.Join("/proj", "SUFI2_Pre.sh"), executor.Command{Path: "SUFI2_Pre.sh", Dir: "/proj"}.Resolved())
	abs := filepath.Join(t.TempDir(), "x.sh")
	assert.Equal(t, abs, executor.Command{Path: abs, Dir: "/proj"}.Resolved())
	assert.Equal(t, "x.sh", executor.Command{Path: "x.sh"}.Resolved())
}
