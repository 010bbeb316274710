package result

import (
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strconv"
	"strings"
)

// TraceOptions controls variable trace parsing.
type TraceOptions struct {
	// Strict turns lines the parser would otherwise skip into errors: token counts other
	// than one or two, pairs before the first iteration marker, and iterations whose time
	// steps differ from the first iteration's. non-numeric markers and pairs always fail.
	Strict bool
}

// VariableTrace is one output variable across calibration iterations.
// rows are indexed by the first iteration's time steps; there is one column per
// iteration in the order iterations appear in the file. other iterations are aligned
// by position, not by time step value. in lenient mode shorter iterations are padded
// with NaN and longer ones truncated.
type VariableTrace struct {
	Name       string
	Iterations []int       // column keys, encounter order, duplicates kept
	TimeSteps  []int       // row index
	Values     [][]float64 // Values[column][row]
}

// Rows returns the number of time steps.
func (v *VariableTrace) Rows() int { return len(v.TimeSteps) }

// Column returns the values of the first column for iteration.
func (v *VariableTrace) Column(iteration int) ([]float64, bool) {
	for i, it := range v.Iterations {
		if it == iteration {
			return v.Values[i], true
		}
	}
	return nil, false
}

// Table renders the trace as a string table with a time_step column followed by one column per iteration.
func (v *VariableTrace) Table() Table {
	t := Table{Columns: make([]string, 0, len(v.Iterations)+1)}
	t.Columns = append(t.Columns, "time_step")
	for _, it := range v.Iterations {
		t.Columns = append(t.Columns, strconv.Itoa(it))
	}
	for r, step := range v.TimeSteps {
		row := make([]string, 0, len(t.Columns))
		row = append(row, strconv.Itoa(step))
		for c := range v.Iterations {
			row = append(row, strconv.FormatFloat(v.Values[c][r], 'g', -1, 64))
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// ParseVariableTrace reads a trace file from the SUFI2 output directory.
func ParseVariableTrace(outputDir, filename string, opts TraceOptions) (*VariableTrace, error) {
	path := filepath.Join(outputDir, filename)
	f, err := openFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	res, err := DecodeVariableTrace(f, path, opts)
	if err != nil {
		return nil, err
	}
	res.Name = filename
	return res, nil
}

type series struct {
	iteration int
	steps     []int
	values    []float64
}

// DecodeVariableTrace parses trace content. a line with one token opens a new iteration,
// a line with two tokens appends a (time step, value) pair to the open iteration.
func DecodeVariableTrace(r io.Reader, name string, opts TraceOptions) (*VariableTrace, error) {
	scanner := newScanner(r)
	var all []*series
	var cur *series
	lineNo := 0

	skip := func(tokens []string, reason string) error {
		if !opts.Strict {
			return nil
		}
		return &TraceLineError{Path: name, Line: lineNo, Tokens: tokens, Reason: reason}
	}

	for scanner.Scan() {
		lineNo++
		tokens := strings.Fields(scanner.Text())
		switch len(tokens) {
		case 1:
			it, err := strconv.Atoi(tokens[0])
			if err != nil {
				return nil, &TraceLineError{Path: name, Line: lineNo, Tokens: tokens, Reason: "iteration marker is not an integer"}
			}
			cur = &series{iteration: it}
			all = append(all, cur)
		case 2:
			if cur == nil {
				if skipErr := skip(tokens, "value before first iteration marker"); skipErr != nil {
					return nil, skipErr
				}
				continue
			}
			step, stepErr := strconv.Atoi(tokens[0])
			val, valErr := strconv.ParseFloat(tokens[1], 64)
			if stepErr != nil || valErr != nil {
				return nil, &TraceLineError{Path: name, Line: lineNo, Tokens: tokens, Reason: "time step or value is not numeric"}
			}
			cur.steps = append(cur.steps, step)
			cur.values = append(cur.values, val)
		case 0:
			// blank separator lines are never an error
		default:
			if skipErr := skip(tokens, fmt.Sprintf("expected 1 or 2 tokens, got %d", len(tokens))); skipErr != nil {
				return nil, skipErr
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}

	if len(all) == 0 {
		return nil, fmt.Errorf("%s: %w", name, ErrEmptyTrace)
	}
	return assemble(all, name, opts)
}

// assemble aligns every iteration positionally with the first iteration's time steps.
func assemble(all []*series, name string, opts TraceOptions) (*VariableTrace, error) {
	index := all[0].steps
	res := &VariableTrace{
		Iterations: make([]int, 0, len(all)),
		TimeSteps:  append([]int(nil), index...),
		Values:     make([][]float64, 0, len(all)),
	}

	for _, s := range all {
		if opts.Strict {
			if err := checkShape(s, index, name); err != nil {
				return nil, err
			}
		}
		col := make([]float64, len(index))
		for i := range col {
			if i < len(s.values) {
				col[i] = s.values[i]
				continue
			}
			col[i] = math.NaN()
		}
		res.Iterations = append(res.Iterations, s.iteration)
		res.Values = append(res.Values, col)
	}
	return res, nil
}

func checkShape(s *series, index []int, name string) error {
	if len(s.steps) != len(index) {
		return &TraceShapeError{Path: name, Iteration: s.iteration, Want: len(index), Got: len(s.steps), Step: -1}
	}
	for i, step := range s.steps {
		if step != index[i] {
			return &TraceShapeError{Path: name, Iteration: s.iteration, Want: len(index), Got: len(s.steps), Step: i}
		}
	}
	return nil
}
