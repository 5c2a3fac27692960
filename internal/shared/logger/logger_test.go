package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// unset clears key for the test and restores it afterwards
func unset(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	require.NoError(t, os.Unsetenv(key))
}

// chdir switches into dir for the test and restores the previous working directory afterwards
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { require.NoError(t, os.Chdir(prev)) })
}

func TestBuildReadsDotEnv(t *testing.T) {
	unset(t, "LOG_LEVEL")
	unset(t, "APP_ENV")
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("LOG_LEVEL=error\n"), 0o600))
	chdir(t, dir)

	l, err := build()
	require.NoError(t, err)
	require.False(t, l.Core().Enabled(zap.InfoLevel))
	require.True(t, l.Core().Enabled(zap.ErrorLevel))
}

func TestBuildEnvironmentWinsOverDotEnv(t *testing.T) {
	unset(t, "APP_ENV")
	t.Setenv("LOG_LEVEL", "debug")
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("LOG_LEVEL=error\n"), 0o600))
	chdir(t, dir)

	l, err := build()
	require.NoError(t, err)
	require.True(t, l.Core().Enabled(zap.DebugLevel))
}

func TestBuildRejectsBadLevel(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("LOG_LEVEL", "loud")
	_, err := build()
	require.Error(t, err)
}
