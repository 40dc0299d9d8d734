package io

import (
	stdio "io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, dir, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, content, 0o644))
	return path
}

func TestFileReaderReadAt(t *testing.T) {
	for _, mapped := range []bool{false, true} {
		path := touch(t, t.TempDir(), "data.db", []byte("0123456789"))

		reader := NewFileReader(path)
		require.NoError(t, reader.Open(mapped))

		out := make([]byte, 4)
		n, err := reader.ReadAt(out, 3)
		require.NoError(t, err)
		assert.Equal(t, 4, n)
		assert.Equal(t, "3456", string(out))
		assert.Equal(t, int64(10), reader.Size())

		n, err = reader.ReadAt(out, 8)
		assert.Equal(t, 2, n)
		assert.ErrorIs(t, err, stdio.EOF)

		_, err = reader.ReadAt(out, -1)
		assert.ErrorIs(t, err, ErrNegativeRange)

		require.NoError(t, reader.Close())
		require.NoError(t, reader.Close())
	}
}

func TestFileReaderNotOpened(t *testing.T) {
	reader := NewFileReader(filepath.Join(t.TempDir(), "missing.db"))

	_, err := reader.ReadAt(make([]byte, 1), 0)
	assert.ErrorIs(t, err, ErrNotOpened)
	assert.Error(t, reader.Open(false))
}

func TestFindCompanions(t *testing.T) {
	dir := t.TempDir()
	table := touch(t, dir, "Orders.DB", nil)
	touch(t, dir, "orders.px", nil)
	touch(t, dir, "ORDERS.MB", nil)
	touch(t, dir, "orders.X02", nil)
	touch(t, dir, "customers.px", nil)

	found, err := FindCompanions(table)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "orders.px"), found.Index)
	assert.Equal(t, filepath.Join(dir, "ORDERS.MB"), found.Blob)
}

func TestFindCompanionsStemExtension(t *testing.T) {
	dir := t.TempDir()
	table := touch(t, dir, "items.db", nil)
	touch(t, dir, "items.PX.bak", nil)

	found, err := FindCompanions(table)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "items.PX.bak"), found.Index)
	assert.Empty(t, found.Blob)
}

func TestFindCompanionsNone(t *testing.T) {
	dir := t.TempDir()
	table := touch(t, dir, "lonely.db", nil)

	found, err := FindCompanions(table)
	require.NoError(t, err)
	assert.Equal(t, Companions{}, found)
}

func TestFindTable(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "TESTTAB.DB", nil)

	path, err := FindTable(dir, "testtab")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "TESTTAB.DB"), path)

	_, err = FindTable(dir, "other")
	assert.ErrorIs(t, err, ErrTableNotFound)
}
