package main

import (
	"archive/zip"
	"compress/gzip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnpackIfArchivePlainFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(path, []byte("a;b\n"), 0644))

	got, err := UnpackIfArchive(path)
	require.NoError(t, err)
	assert.Equal(t, path, got)
}

func TestUnpackIfArchiveGzip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.csv.gz")

	f, err := os.Create(path)
	require.NoError(t, err)
	gw := gzip.NewWriter(f)
	_, err = gw.Write([]byte("theme;views\neconomy;100\n"))
	require.NoError(t, err)
	require.NoError(t, gw.Close())
	require.NoError(t, f.Close())

	got, err := UnpackIfArchive(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "data.csv"), got)

	content, err := os.ReadFile(got)
	require.NoError(t, err)
	assert.Equal(t, "theme;views\neconomy;100\n", string(content))

	// архив удален
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestUnpackIfArchiveZipLargestFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dump.zip")

	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)

	small, err := zw.Create("readme.txt")
	require.NoError(t, err)
	small.Write([]byte("notes"))

	big, err := zw.Create("data.csv")
	require.NoError(t, err)
	big.Write([]byte("theme;views\neconomy;100\nsport;50\n"))

	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	got, err := UnpackIfArchive(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "data.csv"), got)
}

func TestUnpackIfArchiveEmptyZip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.zip")

	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	_, err = UnpackIfArchive(path)
	assert.Error(t, err)
}
