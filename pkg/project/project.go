// Package project locates a SWAT-CUP SUFI2 project and its input and output directories.
package project

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
)

// directory names inside a SUFI2 project.
const (
	InputDirName  = "SUFI2.IN"
	OutputDirName = "SUFI2.OUT"
	WorkDirName   = "swatcuppython" // sufi2 working folder, holds progress logs
)

// ErrDirectoryNotFound is returned when the project root does not exist or is not a directory.
var ErrDirectoryNotFound = errors.New("project directory not found")

// OutputState describes the output directory before a pass starts.
type OutputState int

// output directory states.
const (
	OutputMissing   OutputState = iota // SUFI2.OUT does not exist
	OutputEmpty                        // exists with no entries
	OutputPopulated                    // has entries, left by a previous or failed pass
)

func (s OutputState) String() string {
	switch s {
	case OutputMissing:
		return "missing"
	case OutputEmpty:
		return "empty"
	case OutputPopulated:
		return "populated"
	default:
		return fmt.Sprintf("output(%d)", int(s))
	}
}

// Context identifies a calibration project. it outlives any single run.
type Context struct {
	root string
}

// Open validates that root exists, is a directory and is writable.
func Open(root string) (*Context, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve project path: %w", err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrDirectoryNotFound, abs)
		}
		return nil, fmt.Errorf("stat project: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrDirectoryNotFound, abs)
	}

	if err := checkWritable(abs); err != nil {
		return nil, err
	}
	return &Context{root: abs}, nil
}

// Root returns the absolute project root.
func (c *Context) Root() string { return c.root }

// InputDir returns the SUFI2.IN directory.
func (c *Context) InputDir() string { return filepath.Join(c.root, InputDirName) }

// OutputDir returns the SUFI2.OUT directory.
func (c *Context) OutputDir() string { return filepath.Join(c.root, OutputDirName) }

// WorkDir returns the sufi2 working folder.
func (c *Context) WorkDir() string { return filepath.Join(c.root, WorkDirName) }

// Path joins elements onto the project root.
func (c *Context) Path(elem ...string) string {
	return filepath.Join(append([]string{c.root}, elem...)...)
}

// OutputState inspects SUFI2.OUT. a populated directory before Prepare means a stale or failed pass.
func (c *Context) OutputState() (OutputState, error) {
	f, err := os.Open(c.OutputDir())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return OutputMissing, nil
		}
		return OutputMissing, fmt.Errorf("open output dir: %w", err)
	}
	defer f.Close()

	names, err := f.Readdirnames(1)
	if err != nil && !errors.Is(err, io.EOF) {
		return OutputMissing, fmt.Errorf("read output dir: %w", err)
	}
	if len(names) == 0 {
		return OutputEmpty, nil
	}
	return OutputPopulated, nil
}

// EnsureWorkDir creates the working folder if missing. reports whether it was created.
func (c *Context) EnsureWorkDir() (bool, error) {
	dir := c.WorkDir()
	info, err := os.Stat(dir)
	if err == nil {
		if !info.IsDir() {
			return false, fmt.Errorf("work dir %s is not a directory", dir)
		}
		return false, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return false, fmt.Errorf("stat work dir: %w", err)
	}
	if err := os.Mkdir(dir, 0o750); err != nil {
		return false, fmt.Errorf("create work dir: %w", err)
	}
	return true, nil
}

// Bootstrap makes the given launchers and programs in the project root executable.
// windows needs no execute bit, there it is a no-op. missing files are skipped and
// reported by the invoker when they are launched. returns the files that were changed.
func (c *Context) Bootstrap(files []string) ([]string, error) {
	if runtime.GOOS == "windows" {
		return nil, nil
	}
	var changed []string
	for _, name := range files {
		path := c.Path(name)
		info, err := os.Stat(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return changed, fmt.Errorf("stat %s: %w", name, err)
		}
		mode := info.Mode().Perm()
		if mode&0o100 != 0 {
			continue
		}
		if err := os.Chmod(path, mode|0o100); err != nil { //nolint:gosec // launchers must be executable by owner
			return changed, fmt.Errorf("chmod %s: %w", name, err)
		}
		changed = append(changed, name)
	}
	return changed, nil
}

// CopyOutput copies the whole output directory tree to dst, which must not exist yet.
func (c *Context) CopyOutput(dst string) error {
	if _, err := os.Lstat(dst); err == nil {
		return fmt.Errorf("copy output to %s: %w", dst, fs.ErrExist)
	}
	if err := os.CopyFS(dst, os.DirFS(c.OutputDir())); err != nil {
		return fmt.Errorf("copy output to %s: %w", dst, err)
	}
	return nil
}

// checkWritable probes the directory by creating and removing a temp file.
func checkWritable(dir string) error {
	f, err := os.CreateTemp(dir, ".sufi2-probe-*")
	if err != nil {
		return fmt.Errorf("project directory %s is not writable: %w", dir, err)
	}
	name := f.Name()
	_ = f.Close()
	if err := os.Remove(name); err != nil {
		return fmt.Errorf("remove probe file: %w", err)
	}
	return nil
}
