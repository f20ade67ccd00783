package excel

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ports "tiledash/internal/sheets"
)

var sample = ports.Grid{
	{"Name", "Next Payment", "Amount"},
	{"Netflix", "2024-05-10", "15.49"},
	{"Rent", "2024-05-01", "1500.00"},
	{"Total", "", "1515.49"},
}

func TestRenderReadBack(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, "upcoming", sample))
	require.NotZero(t, buf.Len())

	got, err := ReadGrid(&buf)
	require.NoError(t, err)
	require.Len(t, got, len(sample))
	assert.Equal(t, sample[0], got[0])
	assert.Equal(t, "Netflix", got[1][0])
	assert.Equal(t, "2024-05-10", got[1][1])
	assert.Equal(t, "15.49", got[1][2])
	assert.Equal(t, "1515.49", got[3][2])
}

func TestRenderEmptyGrid(t *testing.T) {
	var buf bytes.Buffer
	assert.ErrorIs(t, Render(&buf, "x", nil), ports.ErrEmptyGrid)
}

func TestFileWriter(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "exports")
	w := &FileWriter{Dir: dir}

	ref, err := w.WriteGrid(context.Background(), "spend by/category", sample)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "spend-by-category.xlsx"), ref)

	f, err := os.Open(ref)
	require.NoError(t, err)
	defer f.Close()
	got, err := ReadGrid(f)
	require.NoError(t, err)
	assert.Len(t, got, len(sample))
}

func TestFileWriterEmptyLeavesNoFile(t *testing.T) {
	dir := t.TempDir()
	_, err := (&FileWriter{Dir: dir}).WriteGrid(context.Background(), "empty", ports.Grid{})
	require.Error(t, err)
	_, statErr := os.Stat(filepath.Join(dir, "empty.xlsx"))
	assert.True(t, os.IsNotExist(statErr))
}
