package main

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/pevans/fairscrape/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")

	n, err := exportFile(context.Background(), path, nil, func(_ context.Context, w io.Writer, _ *storage.DB) (int, error) {
		_, err := io.WriteString(w, "\"url\"\n")
		return 1, err
	})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "\"url\"\n", string(data))
}

func TestExportFile_WriteError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	boom := errors.New("store went away")

	_, err := exportFile(context.Background(), path, nil, func(context.Context, io.Writer, *storage.DB) (int, error) {
		return 0, boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestExportFile_CreateError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "out.csv")

	_, err := exportFile(context.Background(), path, nil, func(context.Context, io.Writer, *storage.DB) (int, error) {
		t.Fatal("write must not run without a file")
		return 0, nil
	})
	assert.ErrorContains(t, err, "failed to create output file")
}
