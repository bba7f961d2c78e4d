// Package artifact writes stage outputs atomically: a failed run must never
// leave a partial file that looks like a valid artifact.
package artifact

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
)

// WriteFile writes an artifact via a temp file in the target directory and
// renames it into place only after fn succeeds. On any error the temp file
// is removed and the destination is untouched.
func WriteFile(path string, fn func(w io.Writer) error) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return eris.Wrapf(err, "artifact: create temp for %s", path)
	}
	tmpPath := tmp.Name()

	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}

	w := bufio.NewWriter(tmp)
	if err := fn(w); err != nil {
		cleanup()
		return err
	}
	if err := w.Flush(); err != nil {
		cleanup()
		return eris.Wrapf(err, "artifact: flush %s", path)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return eris.Wrapf(err, "artifact: close temp for %s", path)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return eris.Wrapf(err, "artifact: rename into %s", path)
	}
	return nil
}

// WriteLines persists an order-significant list, one entry per line.
// Used for the predictor-list artifact.
func WriteLines(path string, lines []string) error {
	return WriteFile(path, func(w io.Writer) error {
		for _, line := range lines {
			if _, err := io.WriteString(w, line+"\n"); err != nil {
				return eris.Wrapf(err, "artifact: write %s", path)
			}
		}
		return nil
	})
}

// ReadLines reads an order-significant list written by WriteLines,
// skipping blank lines.
func ReadLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "artifact: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	var lines []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	if err := sc.Err(); err != nil {
		return nil, eris.Wrapf(err, "artifact: read %s", path)
	}
	return lines, nil
}
