package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEnvMissingFileIsSilent(t *testing.T) {
	assert.NoError(t, loadEnv(filepath.Join(t.TempDir(), ".env")))
}

func TestLoadEnvReadsFile(t *testing.T) {
	t.Setenv("CROPLENS_TEST_BACKEND", "")
	os.Unsetenv("CROPLENS_TEST_BACKEND")

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("CROPLENS_TEST_BACKEND=http://backend:8000\n"), 0600))

	require.NoError(t, loadEnv(path))
	assert.Equal(t, "http://backend:8000", os.Getenv("CROPLENS_TEST_BACKEND"))
}

func TestLoadEnvUnreadablePathFails(t *testing.T) {
	// a directory exists but cannot be read as a file
	assert.Error(t, loadEnv(t.TempDir()))
}
