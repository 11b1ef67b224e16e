package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShaderWatcherSignalsKernelSources(t *testing.T) {
	dir := t.TempDir()
	w, err := WatchShaders(dir, nil)
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "common.wgsl"), []byte("// edited"), 0o644))

	select {
	case name := <-w.Changed:
		assert.Equal(t, "common.wgsl", filepath.Base(name))
	case <-time.After(5 * time.Second):
		t.Fatal("no change signalled")
	}
}

func TestWatchShadersMissingDir(t *testing.T) {
	_, err := WatchShaders(filepath.Join(t.TempDir(), "missing"), nil)
	assert.Error(t, err)
}
