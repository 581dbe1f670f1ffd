// Package candidate lists and reads the CV files of one batch.
package candidate

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spigell/cv-assessor/internal/document"
)

var ErrNoCandidates = errors.New("no candidate files found")

// Candidate is one CV file. ID is the file name.
type Candidate struct {
	ID   string
	Path string
}

// List returns the supported files directly inside dir, sorted by name.
// Hidden files and sub-directories are ignored.
func List(dir string) ([]Candidate, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read candidates folder: %w", err)
	}

	var out []Candidate
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || strings.HasPrefix(name, "~$") {
			continue
		}
		if !document.Supported(name) {
			continue
		}
		out = append(out, Candidate{ID: name, Path: filepath.Join(dir, name)})
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoCandidates, dir)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Read converts the CV into plain text. Failures wrap document.ErrUnreadable.
func Read(ctx context.Context, path string) (string, error) {
	src, err := document.Load(ctx, path)
	if err != nil {
		return "", err
	}

	text := document.Text(src)
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: %s: no text", document.ErrUnreadable, filepath.Base(path))
	}
	return text, nil
}
