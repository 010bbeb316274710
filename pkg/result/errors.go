package result

import (
	"errors"
	"fmt"
	"strings"
)

// sentinel errors, matched with errors.Is.
var (
	ErrMalformedHeader = errors.New("malformed goal header")
	ErrEmptyTrace      = errors.New("trace has no iterations")
	ErrMalformedTrace  = errors.New("malformed trace")
)

// MalformedHeaderError reports a goal summary header line that does not carry the expected label or value.
type MalformedHeaderError struct {
	Path     string // goal file
	Line     int    // 1-based line number
	Expected string // expected label, or a description of the expected value
	Found    string // offending token, empty at end of file
}

func (e *MalformedHeaderError) Error() string {
	found := fmt.Sprintf("%q", e.Found)
	if e.Found == "" {
		found = "end of file"
	}
	return fmt.Sprintf("%s:%d: %v: expected %s, found %s", e.Path, e.Line, ErrMalformedHeader, e.Expected, found)
}

func (e *MalformedHeaderError) Unwrap() error { return ErrMalformedHeader }

// TraceLineError reports a trace line that cannot be interpreted. raised for any
// uninterpretable line in strict mode.
type TraceLineError struct {
	Path   string
	Line   int
	Tokens []string
	Reason string
}

func (e *TraceLineError) Error() string {
	return fmt.Sprintf("%s:%d: %v: %s: %q", e.Path, e.Line, ErrMalformedTrace, e.Reason, strings.Join(e.Tokens, " "))
}

func (e *TraceLineError) Unwrap() error { return ErrMalformedTrace }

// TraceShapeError reports an iteration whose time steps differ from the first iteration's. strict mode only.
type TraceShapeError struct {
	Path      string
	Iteration int
	Want      int // rows in the first iteration
	Got       int // rows in this iteration
	Step      int // row index of the first mismatching time step, -1 for a length mismatch
}

func (e *TraceShapeError) Error() string {
	if e.Step >= 0 {
		return fmt.Sprintf("%s: %v: iteration %d time step at row %d differs from first iteration",
			e.Path, ErrMalformedTrace, e.Iteration, e.Step+1)
	}
	return fmt.Sprintf("%s: %v: iteration %d has %d time steps, first iteration has %d",
		e.Path, ErrMalformedTrace, e.Iteration, e.Got, e.Want)
}

func (e *TraceShapeError) Unwrap() error { return ErrMalformedTrace }
