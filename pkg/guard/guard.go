// Package guard tracks the single asynchronous toolchain run a session may have in flight.
//
// A Guard moves between three states:
//
//	Idle --Launch--> Running --exit/Kill--> Finished(code) --Launch--> Running
//
// Launch fails with ErrAlreadyRunning while a run is live; it never queues or replaces.
// The running -> finished transition happens lazily, when IsRunning, ReturnCode, Wait or
// Kill observes that the process has exited.
package guard

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/umputun/sufi2/pkg/status"
)

// State of the guard.
type State int

// guard states.
const (
	Idle State = iota
	Running
	Finished
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Finished:
		return "finished"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

var transitions = map[State]map[State]bool{
	Idle:     {Running: true},
	Running:  {Finished: true},
	Finished: {Running: true},
}

// errors returned by the guard.
var (
	ErrAlreadyRunning = errors.New("sufi2 is already running")
	ErrNoRun          = errors.New("no run has been launched")
)

// Process is the subset of a started external process the guard needs.
type Process interface {
	Exited() bool
	ExitCode() (int, bool)
	Wait() int
	Kill() error
}

// Handle is the live or most recent run.
type Handle struct {
	Stage   status.Stage
	Proc    Process
	Started time.Time
}

// Guard holds at most one run handle. safe for concurrent use, although a session is
// expected to drive it from a single goroutine.
type Guard struct {
	mu     sync.Mutex
	state  State
	handle *Handle
	code   int
}

// Launch starts a run for stage via launcher. it fails with ErrAlreadyRunning if a run is
// live, leaving that run untouched. if launcher fails the guard state is not changed.
func (g *Guard) Launch(stage status.Stage, launcher func() (Process, error)) (*Handle, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.refreshLocked()
	if g.state == Running {
		return nil, fmt.Errorf("launch %s: %w (active stage %s)", stage, ErrAlreadyRunning, g.handle.Stage)
	}

	proc, err := launcher()
	if err != nil {
		return nil, fmt.Errorf("launch %s: %w", stage, err)
	}

	h := &Handle{Stage: stage, Proc: proc, Started: time.Now()}
	g.moveLocked(Running)
	g.handle = h
	g.code = 0
	return h, nil
}

// IsRunning reports whether the held run exists and its process has not exited. non-blocking.
func (g *Guard) IsRunning() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.refreshLocked()
	return g.state == Running
}

// ReturnCode polls the exit code of the last run. false while running or when nothing was launched.
func (g *Guard) ReturnCode() (int, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.refreshLocked()
	if g.state != Finished {
		return 0, false
	}
	return g.code, true
}

// Wait blocks until the current run exits and returns its exit code.
// for an already finished run it returns the recorded code immediately.
func (g *Guard) Wait() (int, error) {
	g.mu.Lock()
	h := g.handle
	if h == nil {
		g.mu.Unlock()
		return 0, ErrNoRun
	}
	g.mu.Unlock()

	// block outside the lock so IsRunning and Kill stay responsive
	code := h.Proc.Wait()

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.handle == h && g.state == Running {
		g.finishLocked(code)
	}
	if g.handle == h {
		return g.code, nil
	}
	return code, nil
}

// Kill forcibly terminates the running process and waits for it to be reaped.
// it is a no-op when nothing is running.
func (g *Guard) Kill() error {
	g.mu.Lock()
	g.refreshLocked()
	if g.state != Running {
		g.mu.Unlock()
		return nil
	}
	h := g.handle
	g.mu.Unlock()

	if err := h.Proc.Kill(); err != nil {
		return fmt.Errorf("kill %s: %w", h.Stage, err)
	}
	code := h.Proc.Wait()

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.handle == h && g.state == Running {
		g.finishLocked(code)
	}
	return nil
}

// State returns the current state after polling the process.
func (g *Guard) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.refreshLocked()
	return g.state
}

// Current returns the live or most recent handle, nil before the first launch.
func (g *Guard) Current() *Handle {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.handle
}

// refreshLocked moves a running guard to finished if its process has exited.
func (g *Guard) refreshLocked() {
	if g.state != Running {
		return
	}
	if code, ok := g.handle.Proc.ExitCode(); ok {
		g.finishLocked(code)
	}
}

func (g *Guard) finishLocked(code int) {
	g.moveLocked(Finished)
	g.code = code
}

// moveLocked applies a transition. disallowed transitions indicate a bug in the guard itself.
func (g *Guard) moveLocked(to State) {
	if !transitions[g.state][to] {
		panic(fmt.Sprintf("guard: disallowed transition %s -> %s", g.state, to))
	}
	g.state = to
}
