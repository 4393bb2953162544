package io

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gobias/domain/core"
	"gobias/domain/table"
)

func writeTempCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "demo.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadTableCSV(t *testing.T) {
	path := writeTempCSV(t, "id,group,score\np1,A,1.5\np2,B,\np3,C\n")

	f, err := ReadTable(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"id", "group", "score"}, f.Columns())
	assert.Equal(t, 3, f.Len())

	v := f.Value("score", 0)
	assert.Equal(t, table.TypeNumeric, v.Type)
	n, ok := v.AsNumeric()
	require.True(t, ok)
	assert.Equal(t, 1.5, n)

	assert.True(t, f.Value("score", 1).IsMissing())
	// Short rows are padded with missing cells.
	assert.True(t, f.Value("score", 2).IsMissing())
}

func TestReadTableUnsupportedExtension(t *testing.T) {
	_, err := ReadTable("demo.txt")
	assert.ErrorIs(t, err, core.ErrInvalidOption)
}

func TestReadTableMissingFile(t *testing.T) {
	_, err := ReadTable(filepath.Join(t.TempDir(), "absent.csv"))
	assert.Error(t, err)
}

func TestReadTableHeaderOnly(t *testing.T) {
	path := writeTempCSV(t, "id,group\n")
	_, err := ReadTable(path)
	assert.Error(t, err)
}
