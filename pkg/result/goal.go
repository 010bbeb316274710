package result

import (
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
)

// GoalFileName is the goal summary written by SUFI2_post into SUFI2.OUT.
const GoalFileName = "goal.txt"

// goal header labels, in their fixed order.
const (
	labelParameters  = "no_pars="
	labelSimulations = "no_Sims="
	labelGoalType    = "type_of_goal_fn="
)

// GoalSummary is the parsed goal function output: three header values and the per-simulation table.
// the table is taken as-is; its row count is not checked against SimulationCount.
type GoalSummary struct {
	ParameterCount   int
	SimulationCount  int
	GoalFunctionType string
	Table            Table
}

// ParseGoalSummary reads goal.txt from the SUFI2 output directory.
func ParseGoalSummary(outputDir string) (*GoalSummary, error) {
	path := filepath.Join(outputDir, GoalFileName)
	f, err := openFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return DecodeGoalSummary(f, path)
}

// DecodeGoalSummary parses goal summary content. name identifies the source in errors.
func DecodeGoalSummary(r io.Reader, name string) (*GoalSummary, error) {
	scanner := newScanner(r)
	lineNo := 0
	next := func() (string, bool) {
		if !scanner.Scan() {
			return "", false
		}
		lineNo++
		return scanner.Text(), true
	}

	var res GoalSummary
	for _, h := range []struct {
		label string
		set   func(string) error
	}{
		{labelParameters, intSetter(&res.ParameterCount)},
		{labelSimulations, intSetter(&res.SimulationCount)},
		{labelGoalType, func(v string) error { res.GoalFunctionType = v; return nil }},
	} {
		line, ok := next()
		if !ok {
			if err := scanner.Err(); err != nil {
				return nil, fmt.Errorf("read %s: %w", name, err)
			}
			return nil, &MalformedHeaderError{Path: name, Line: lineNo + 1, Expected: fmt.Sprintf("%q", h.label)}
		}
		value, err := headerValue(line, h.label)
		if err != nil {
			err.Path, err.Line = name, lineNo
			return nil, err
		}
		if setErr := h.set(value); setErr != nil {
			return nil, &MalformedHeaderError{Path: name, Line: lineNo,
				Expected: fmt.Sprintf("non-negative integer after %q", h.label), Found: value}
		}
	}

	headerSeen := false
	for {
		line, ok := next()
		if !ok {
			break
		}
		tokens := tokenize(line)
		if len(tokens) == 0 {
			continue
		}
		if !headerSeen {
			res.Table.Columns = tokens
			headerSeen = true
			continue
		}
		res.Table.Rows = append(res.Table.Rows, tokens)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return &res, nil
}

// headerValue checks that line starts with label and returns the value that follows it.
// accepted spellings: "label value", "label=value" glued, and "label = value" with a detached '='.
func headerValue(line, label string) (string, *MalformedHeaderError) {
	tokens := tokenize(line)
	if len(tokens) == 0 {
		return "", &MalformedHeaderError{Expected: fmt.Sprintf("%q", label), Found: strings.TrimSpace(line)}
	}

	first := tokens[0]
	bare := strings.TrimSuffix(label, "=")
	switch {
	case first == label:
		if len(tokens) > 1 {
			return tokens[1], nil
		}
	case strings.HasPrefix(first, label):
		return first[len(label):], nil
	case first == bare && len(tokens) > 1 && tokens[1] == "=":
		if len(tokens) > 2 {
			return tokens[2], nil
		}
	default:
		return "", &MalformedHeaderError{Expected: fmt.Sprintf("%q", label), Found: first}
	}
	return "", &MalformedHeaderError{Expected: fmt.Sprintf("value after %q", label), Found: strings.Join(tokens, " ")}
}

func intSetter(dst *int) func(string) error {
	return func(v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse %q: %w", v, err)
		}
		if n < 0 {
			return fmt.Errorf("negative value %d", n)
		}
		*dst = n
		return nil
	}
}
