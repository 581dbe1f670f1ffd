package candidate

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spigell/cv-assessor/internal/document"
)

func touch(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
}

func TestList(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "zoe.pdf", "")
	touch(t, dir, "adam.docx", "")
	touch(t, dir, "notes.png", "")
	touch(t, dir, ".hidden.txt", "")
	touch(t, dir, "~$adam.docx", "")
	touch(t, dir, "mark.TXT", "")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "archive.pdf"), 0o700))

	list, err := List(dir)
	require.NoError(t, err)

	ids := make([]string, 0, len(list))
	for _, c := range list {
		ids = append(ids, c.ID)
	}
	assert.Equal(t, []string{"adam.docx", "mark.TXT", "zoe.pdf"}, ids)
	assert.Equal(t, filepath.Join(dir, "adam.docx"), list[0].Path)
}

func TestListErrors(t *testing.T) {
	_, err := List(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)

	empty := t.TempDir()
	touch(t, empty, "photo.jpg", "")
	_, err = List(empty)
	assert.True(t, errors.Is(err, ErrNoCandidates))
}

func TestRead(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "jane.txt", "Jane Doe\nProcurement expert, 12 years")
	touch(t, dir, "blank.txt", "  \n\n")

	text, err := Read(context.Background(), filepath.Join(dir, "jane.txt"))
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe\nProcurement expert, 12 years", text)

	_, err = Read(context.Background(), filepath.Join(dir, "blank.txt"))
	assert.ErrorIs(t, err, document.ErrUnreadable)

	_, err = Read(context.Background(), filepath.Join(dir, "missing.docx"))
	assert.ErrorIs(t, err, document.ErrUnreadable)
}
