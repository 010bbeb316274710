// Package progress provides timestamped logging to file and stdout with color support.
package progress

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/umputun/sufi2/pkg/config"
	"github.com/umputun/sufi2/pkg/status"
)

// FileName is the progress log written into the project work directory.
const FileName = "sufi2-progress.txt"

// Colors holds the resolved colors of a logger.
type Colors struct {
	stages    map[status.Stage]*color.Color
	info      *color.Color
	warn      *color.Color
	err       *color.Color
	timestamp *color.Color
}

// NewColors builds colors from config values. unset or malformed entries fall back to
// plain terminal colors.
func NewColors(cfg config.ColorConfig) *Colors {
	pick := func(value string, fallback color.Attribute) *color.Color {
		if r, g, b, ok := config.RGB(value); ok {
			return color.RGB(r, g, b)
		}
		return color.New(fallback)
	}
	return &Colors{
		stages: map[status.Stage]*color.Color{
			status.StagePrepare:     pick(cfg.Prepare, color.FgGreen),
			status.StageExecute:     pick(cfg.Execute, color.FgCyan),
			status.StagePostProcess: pick(cfg.PostProcess, color.FgMagenta),
		},
		info:      pick(cfg.Info, color.FgWhite),
		warn:      pick(cfg.Warn, color.FgYellow),
		err:       pick(cfg.Error, color.FgRed),
		timestamp: pick(cfg.Timestamp, color.FgWhite),
	}
}

// Info returns the color for informational messages.
func (c *Colors) Info() *color.Color { return c.info }

// stage returns the color of a stage, info color before the first stage.
func (c *Colors) stage(s status.Stage) *color.Color {
	if col, ok := c.stages[s]; ok {
		return col
	}
	return c.info
}

// Config holds logger configuration.
type Config struct {
	Path    string             // progress file; empty logs to stdout only
	Project string             // project root, written to the header
	Version string             // swat-cup version, written to the header
	Stages  []status.Stage     // stages requested for this run, written to the header
	NoColor bool               // disable color output (sets color.NoColor globally)
	Colors  config.ColorConfig // output colors
}

// Logger writes timestamped output to both file and stdout.
// safe for concurrent use: sync output lines arrive from the process reader goroutine.
type Logger struct {
	mu        sync.Mutex
	file      *os.File
	path      string
	stdout    io.Writer
	startTime time.Time
	holder    *status.StageHolder
	colors    *Colors
}

// NewLogger creates a logger writing to both a progress file and stdout.
// the stage holder drives line colors; nil makes a private one.
func NewLogger(cfg Config, holder *status.StageHolder) (*Logger, error) {
	if cfg.NoColor {
		color.NoColor = true
	}
	if holder == nil {
		holder = &status.StageHolder{}
	}

	l := &Logger{
		stdout:    os.Stdout,
		startTime: time.Now(),
		holder:    holder,
		colors:    NewColors(cfg.Colors),
	}
	if cfg.Path == "" {
		return l, nil
	}

	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create progress dir: %w", err)
		}
	}
	f, err := os.Create(cfg.Path) //nolint:gosec // path derived from the project work dir
	if err != nil {
		return nil, fmt.Errorf("create progress file: %w", err)
	}
	l.file, l.path = f, cfg.Path

	stages := make([]string, 0, len(cfg.Stages))
	for _, s := range cfg.Stages {
		stages = append(stages, string(s))
	}
	l.writeFile("# SUFI2 Progress Log\n")
	l.writeFile("Project: %s\n", cfg.Project)
	l.writeFile("SWAT-CUP: %s\n", cfg.Version)
	l.writeFile("Stages: %s\n", strings.Join(stages, ", "))
	l.writeFile("Started: %s\n", l.startTime.Format("2006-01-02 15:04:05"))
	l.writeFile("%s\n\n", strings.Repeat("-", 60))

	return l, nil
}

// Path returns the progress file path.
func (l *Logger) Path() string { return l.path }

// Stage returns the stage currently coloring output.
func (l *Logger) Stage() status.Stage { return l.holder.Get() }

// timestampFormat is the format for timestamps: YY-MM-DD HH:MM:SS
const timestampFormat = "06-01-02 15:04:05"

// Print writes a timestamped message to both file and stdout.
func (l *Logger) Print(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	timestamp := time.Now().Format(timestampFormat)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.writeFile("[%s] %s\n", timestamp, msg)
	tsStr := l.colors.timestamp.Sprintf("[%s]", timestamp)
	l.writeStdout("%s %s\n", tsStr, l.colors.stage(l.holder.Get()).Sprint(msg))
}

// PrintRaw writes without timestamp.
func (l *Logger) PrintRaw(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	l.mu.Lock()
	defer l.mu.Unlock()
	l.writeFile("%s", msg)
	l.writeStdout("%s", msg)
}

// getTerminalWidth returns terminal width, using COLUMNS env var or syscall.
// Defaults to 80 if detection fails. Returns content width (total - 20 for timestamp).
func getTerminalWidth() int {
	const minWidth = 40

	if cols := os.Getenv("COLUMNS"); cols != "" {
		if w, err := strconv.Atoi(cols); err == nil && w > 0 {
			return max(w-20, minWidth)
		}
	}

	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		return max(w-20, minWidth)
	}

	return 80 - 20
}

// wrapText wraps text to specified width, breaking on word boundaries.
func wrapText(text string, width int) string {
	if width <= 0 || len(text) <= width {
		return text
	}

	var result strings.Builder
	lineLen := 0
	for i, word := range strings.Fields(text) {
		if i == 0 {
			result.WriteString(word)
			lineLen = len(word)
			continue
		}
		if lineLen+1+len(word) <= width {
			result.WriteString(" ")
			result.WriteString(word)
			lineLen += 1 + len(word)
			continue
		}
		result.WriteString("\n")
		result.WriteString(word)
		lineLen = len(word)
	}
	return result.String()
}

// PrintAligned writes toolchain output with a timestamp on the first line and continuation
// lines indented under it. long lines are wrapped to the terminal width.
func (l *Logger) PrintAligned(text string) {
	text = strings.TrimRight(text, "\n")
	if text == "" {
		return
	}

	timestamp := time.Now().Format(timestampFormat)
	indent := strings.Repeat(" ", 20) // aligns with "[YY-MM-DD HH:MM:SS] "
	width := getTerminalWidth()

	var lines []string
	for line := range strings.SplitSeq(text, "\n") {
		if len(line) > width {
			lines = append(lines, strings.Split(wrapText(line, width), "\n")...)
			continue
		}
		lines = append(lines, line)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	stageColor := l.colors.stage(l.holder.Get())
	tsPrefix := l.colors.timestamp.Sprintf("[%s]", timestamp)
	for i, line := range lines {
		switch {
		case line == "":
			l.writeFile("\n")
			l.writeStdout("\n")
		case i == 0:
			l.writeFile("[%s] %s\n", timestamp, line)
			l.writeStdout("%s %s\n", tsPrefix, stageColor.Sprint(line))
		default:
			l.writeFile("%s%s\n", indent, line)
			l.writeStdout("%s%s\n", indent, stageColor.Sprint(line))
		}
	}
}

// Error writes an error message in red.
func (l *Logger) Error(format string, args ...any) {
	l.tagged("ERROR", l.colors.err, format, args...)
}

// Warn writes a warning message in yellow.
func (l *Logger) Warn(format string, args ...any) {
	l.tagged("WARN", l.colors.warn, format, args...)
}

func (l *Logger) tagged(tag string, c *color.Color, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	timestamp := time.Now().Format(timestampFormat)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.writeFile("[%s] %s: %s\n", timestamp, tag, msg)
	tsStr := l.colors.timestamp.Sprintf("[%s]", timestamp)
	l.writeStdout("%s %s\n", tsStr, c.Sprintf("%s: %s", tag, msg))
}

// Elapsed returns formatted elapsed time since start.
func (l *Logger) Elapsed() string {
	return humanize.RelTime(l.startTime, time.Now(), "", "")
}

// Duration returns the elapsed time since start.
func (l *Logger) Duration() time.Duration {
	return time.Since(l.startTime)
}

// Close writes footer and closes the progress file.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}

	l.writeFile("\n%s\n", strings.Repeat("-", 60))
	l.writeFile("Completed: %s (%s)\n", time.Now().Format("2006-01-02 15:04:05"), l.Elapsed())

	err := l.file.Close()
	l.file = nil
	if err != nil {
		return fmt.Errorf("close progress file: %w", err)
	}
	return nil
}

func (l *Logger) writeFile(format string, args ...any) {
	if l.file != nil {
		fmt.Fprintf(l.file, format, args...)
	}
}

func (l *Logger) writeStdout(format string, args ...any) {
	fmt.Fprintf(l.stdout, format, args...)
}
