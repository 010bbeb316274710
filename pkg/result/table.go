// Package result parses SUFI2 output files: the goal function summary (goal.txt),
// the variable manifest (var_file_name.txt) and per-variable iteration traces.
package result

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// maxLineBuffer is the largest line the parsers accept. goal.txt rows grow with the parameter count.
const maxLineBuffer = 4 * 1024 * 1024

// tokenCutset is stripped from both ends of every token.
const tokenCutset = "\"'`,;:!?()[]{}"

// Table is a whitespace-delimited table taken verbatim from a file.
type Table struct {
	Columns []string
	Rows    [][]string
}

// Len returns the number of rows.
func (t Table) Len() int { return len(t.Rows) }

// Column returns the index of a named column, -1 if absent.
func (t Table) Column(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Value returns the cell at row, column name. false if the row is short or the column unknown.
func (t Table) Value(row int, name string) (string, bool) {
	col := t.Column(name)
	if col < 0 || row < 0 || row >= len(t.Rows) || col >= len(t.Rows[row]) {
		return "", false
	}
	return t.Rows[row][col], true
}

// tokenize splits a line on runs of whitespace and strips surrounding quote and punctuation
// characters from each token. tokens that are pure punctuation are dropped.
func tokenize(line string) []string {
	fields := strings.Fields(line)
	res := fields[:0]
	for _, f := range fields {
		if t := strings.Trim(f, tokenCutset); t != "" {
			res = append(res, t)
		}
	}
	return res
}

// newScanner returns a line scanner with a buffer large enough for wide goal tables.
func newScanner(r io.Reader) *bufio.Scanner {
	scanner := bufio.NewScanner(r)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, maxLineBuffer)
	return scanner
}

// openFile opens a result file, naming it in the error.
func openFile(path string) (*os.File, error) {
	f, err := os.Open(path) //nolint:gosec // path built from the project output directory
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return f, nil
}
