package result

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// ManifestFileName lists the variable trace files of a project, one per line.
const ManifestFileName = "var_file_name.txt"

// manifestDir is the project subdirectory holding the manifest.
const manifestDir = "SUFI2.IN"

// ReadVariableManifest reads SUFI2.IN/var_file_name.txt under projectDir.
// trailing whitespace is trimmed per line; order and duplicates are kept as written.
func ReadVariableManifest(projectDir string) ([]string, error) {
	path := filepath.Join(projectDir, manifestDir, ManifestFileName)
	f, err := openFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return DecodeManifest(f, path)
}

// DecodeManifest parses manifest content. a final newline does not add an empty entry,
// blank lines in the middle are kept so positions match the file.
func DecodeManifest(r io.Reader, name string) ([]string, error) {
	scanner := newScanner(r)
	var names []string
	for scanner.Scan() {
		names = append(names, strings.TrimRight(scanner.Text(), " \t\r\v\f"))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	// drop blank lines at the very end, left by editors and by the toolchain itself
	for len(names) > 0 && names[len(names)-1] == "" {
		names = names[:len(names)-1]
	}
	return names, nil
}
