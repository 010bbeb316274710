// Package executor launches the external SUFI2 toolchain executables, blocking or detached.
package executor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
)

//go:generate moq -out mocks/command_runner.go -pkg mocks -skip-ensure -fmt goimports . CommandRunner

// KilledExitCode is the exit code reported for a process terminated by Kill or context cancellation.
const KilledExitCode = -1

// error kinds returned by the invoker, wrapped in *Error.
var (
	ErrExecutableNotFound = errors.New("executable not found")
	ErrSpawn              = errors.New("spawn failed")
)

// Error describes a launch failure for a specific executable.
type Error struct {
	Kind error  // ErrExecutableNotFound or ErrSpawn
	Path string // resolved executable path
	Err  error  // underlying os error, may be nil
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Kind, e.Path)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Path, e.Err)
}

// Unwrap exposes both the kind and the underlying error to errors.Is / errors.As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Command describes a single launch of a toolchain executable.
type Command struct {
	Path        string   // executable or script; relative paths are resolved against Dir
	Dir         string   // working directory, normally the project root
	Interpreter []string // optional launcher prefix, e.g. ["cmd", "/C"] for batch files
}

// Resolved returns the absolute executable path.
func (c Command) Resolved() string {
	if filepath.IsAbs(c.Path) || c.Dir == "" {
		return c.Path
	}
	return filepath.Join(c.Dir, c.Path)
}

// Process is a started external process.
type Process interface {
	Pid() int
	Exited() bool           // non-blocking poll
	ExitCode() (int, bool)  // exit code, false while still running
	Wait() int              // blocks until exit, returns exit code
	Kill() error            // unconditional forced termination of the whole process group
}

// CommandRunner abstracts process creation for testing.
type CommandRunner interface {
	Start(c Command, output io.Writer) (Process, error)
}

// execCommandRunner is the default command runner using os/exec.
type execCommandRunner struct{}

func (r *execCommandRunner) Start(c Command, output io.Writer) (Process, error) {
	path := c.Resolved()
	var cmd *exec.Cmd
	if len(c.Interpreter) > 0 {
		args := append(append([]string{}, c.Interpreter[1:]...), path)
		cmd = exec.Command(c.Interpreter[0], args...) //nolint:gosec,noctx // launcher comes from the stage table; cancellation via process group kill
	} else {
		cmd = exec.Command(path) //nolint:gosec,noctx // same as above
	}
	cmd.Dir = c.Dir

	// create new process group so we can kill all descendants on cleanup
	setupProcessGroup(cmd)

	// nil output makes os/exec connect the null device
	if output != nil {
		cmd.Stdout = output
		cmd.Stderr = output
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start command: %w", err)
	}
	return newOSProcess(cmd), nil
}

// Invoker runs toolchain executables in a working directory.
type Invoker struct {
	OutputHandler func(line string) // receives each output line of sync runs; nil writes to os.Stdout
	runner        CommandRunner     // for testing, nil uses default
}

// New makes an Invoker streaming sync output to handler.
func New(handler func(line string)) *Invoker {
	return &Invoker{OutputHandler: handler}
}

// SetRunner sets the command runner for testing purposes.
func (inv *Invoker) SetRunner(r CommandRunner) {
	inv.runner = r
}

// RunSync launches the executable and blocks until it exits, forwarding its combined output
// line by line. a non-zero exit code is returned as a value, not as an error.
// if ctx is canceled the process group is killed and the context error is returned.
func (inv *Invoker) RunSync(ctx context.Context, c Command) (int, error) {
	// check context before starting to avoid spawning a process that will be immediately killed
	if err := ctx.Err(); err != nil {
		return KilledExitCode, fmt.Errorf("context already canceled: %w", err)
	}

	lw := newLineWriter(inv.lineHandler())
	proc, err := inv.start(c, lw)
	if err != nil {
		return 0, err
	}

	done := make(chan int, 1)
	go func() { done <- proc.Wait() }()

	select {
	case code := <-done:
		lw.Flush()
		return code, nil
	case <-ctx.Done():
		if killErr := proc.Kill(); killErr != nil {
			lw.Flush()
			return KilledExitCode, fmt.Errorf("kill after cancel: %w", killErr)
		}
		<-done
		lw.Flush()
		return KilledExitCode, fmt.Errorf("context done: %w", ctx.Err())
	}
}

// RunAsync launches the executable and returns immediately. output is discarded.
func (inv *Invoker) RunAsync(c Command) (Process, error) {
	return inv.start(c, nil)
}

// start verifies the executable exists and spawns it.
func (inv *Invoker) start(c Command, output io.Writer) (Process, error) {
	path := c.Resolved()
	if _, err := os.Stat(path); err != nil {
		return nil, &Error{Kind: ErrExecutableNotFound, Path: path, Err: err}
	}

	runner := inv.runner
	if runner == nil {
		runner = &execCommandRunner{}
	}

	proc, err := runner.Start(c, output)
	if err != nil {
		return nil, &Error{Kind: ErrSpawn, Path: path, Err: err}
	}
	return proc, nil
}

func (inv *Invoker) lineHandler() func(string) {
	if inv.OutputHandler != nil {
		return inv.OutputHandler
	}
	return func(line string) { _, _ = io.WriteString(os.Stdout, line+"\n") }
}
