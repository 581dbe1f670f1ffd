package document

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

const (
	// MinExtractedTextLength is the shortest text accepted from an external
	// converter before the conversion is considered failed.
	MinExtractedTextLength = 50
)

// SupportedExtensions lists the file extensions Load understands.
var SupportedExtensions = []string{".docx", ".doc", ".pdf", ".txt", ".md"}

// execCommand is replaced in tests.
var execCommand = exec.CommandContext

// Supported reports whether Load can convert the file.
func Supported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range SupportedExtensions {
		if e == ext {
			return true
		}
	}
	return false
}

// Load converts the file at path into a Source. Every failure wraps
// ErrUnreadable.
func Load(ctx context.Context, path string) (Source, error) {
	src, err := load(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrUnreadable, filepath.Base(path), err)
	}
	return src, nil
}

func load(ctx context.Context, path string) (Source, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".docx":
		return ReadDOCX(path)
	case ".txt", ".md":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		return NewText(path, string(data)), nil
	case ".pdf":
		out, err := convert(ctx, "pdftotext", path, "-")
		if err != nil {
			return nil, fmt.Errorf("pdf conversion requires 'pdftotext' (poppler-utils): %w", err)
		}
		return NewText(path, out), nil
	case ".doc":
		out, err := convert(ctx, "antiword", path)
		if err != nil {
			return nil, fmt.Errorf("doc conversion requires 'antiword': %w", err)
		}
		return NewText(path, out), nil
	default:
		return nil, fmt.Errorf("unsupported file type: %s", ext)
	}
}

func convert(ctx context.Context, name string, args ...string) (string, error) {
	out, err := execCommand(ctx, name, args...).Output()
	if err != nil {
		return "", err
	}

	text := string(out)
	if len(strings.TrimSpace(text)) < MinExtractedTextLength {
		return "", fmt.Errorf("extracted text is too short (likely a scanned document)")
	}
	return text, nil
}
