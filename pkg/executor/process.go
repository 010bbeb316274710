package executor

import (
	"bytes"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"sync"
)

// osProcess tracks a started exec.Cmd. a single background goroutine reaps the process
// so that Exited can poll without blocking.
type osProcess struct {
	cmd  *exec.Cmd
	done chan struct{}

	mu     sync.Mutex
	code   int
	killed bool
}

// newOSProcess wraps an already started command and begins reaping it in background.
func newOSProcess(cmd *exec.Cmd) *osProcess {
	p := &osProcess{cmd: cmd, done: make(chan struct{})}
	go p.reap()
	return p
}

func (p *osProcess) reap() {
	err := p.cmd.Wait()
	code := 0
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			code = exitErr.ExitCode()
		} else {
			code = KilledExitCode
		}
	}

	p.mu.Lock()
	if p.killed {
		code = KilledExitCode
	}
	p.code = code
	p.mu.Unlock()
	close(p.done)
}

func (p *osProcess) Pid() int {
	if p.cmd.Process == nil {
		return 0
	}
	return p.cmd.Process.Pid
}

func (p *osProcess) Exited() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

func (p *osProcess) ExitCode() (int, bool) {
	if !p.Exited() {
		return 0, false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.code, true
}

func (p *osProcess) Wait() int {
	<-p.done
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.code
}

// Kill terminates the entire process group. killing an exited process is a no-op.
func (p *osProcess) Kill() error {
	if p.Exited() {
		return nil
	}
	p.mu.Lock()
	p.killed = true
	p.mu.Unlock()

	if err := killProcessGroup(p.cmd); err != nil {
		return fmt.Errorf("kill pid %d: %w", p.Pid(), err)
	}
	return nil
}

// lineWriter splits written bytes into lines and hands each to fn.
// os/exec serializes writes when Stdout and Stderr share one writer.
type lineWriter struct {
	fn  func(string)
	buf bytes.Buffer
}

func newLineWriter(fn func(string)) *lineWriter {
	return &lineWriter{fn: fn}
}

func (w *lineWriter) Write(p []byte) (int, error) {
	w.buf.Write(p)
	for {
		idx := bytes.IndexByte(w.buf.Bytes(), '\n')
		if idx < 0 {
			break
		}
		line := string(w.buf.Next(idx + 1))
		w.fn(strings.TrimRight(line, "\r\n"))
	}
	return len(p), nil
}

// Flush emits any trailing partial line.
func (w *lineWriter) Flush() {
	if w.buf.Len() == 0 {
		return
	}
	w.fn(strings.TrimRight(w.buf.String(), "\r\n"))
	w.buf.Reset()
}
