package logger

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestResolveLogFilePathDefaultDir(t *testing.T) {
	tmpDir := t.TempDir()
	oldWD, err := os.Getwd()
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = os.Chdir(oldWD)
	})
	require.NoError(t, os.Chdir(tmpDir))

	got, err := resolveLogFilePath(Options{})
	require.NoError(t, err)

	realTmpDir, err := filepath.EvalSymlinks(tmpDir)
	require.NoError(t, err)
	realGot, err := filepath.EvalSymlinks(filepath.Dir(got))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(realTmpDir, defaultLogDirName), realGot)
	assert.Equal(t, defaultLogFilename, filepath.Base(got))
}

func TestNewReleaseWritesToConfiguredFile(t *testing.T) {
	tmpDir := t.TempDir()
	log := New("release", Options{Dir: tmpDir, Filename: "release.log"})
	log.Info("release-log-test")
	_ = log.Sync()

	content, err := os.ReadFile(filepath.Join(tmpDir, "release.log"))
	require.NoError(t, err)
	assert.Contains(t, string(content), "release-log-test")
}

func TestNewDebugDoesNotWriteFile(t *testing.T) {
	tmpDir := t.TempDir()
	log := New("debug", Options{Dir: tmpDir, Filename: "debug.log"})
	log.Info("debug-log-test")
	_ = log.Sync()

	_, err := os.Stat(filepath.Join(tmpDir, "debug.log"))
	assert.True(t, os.IsNotExist(err), "debug mode should not create log file")
}

func TestNewReleaseHonorsLevel(t *testing.T) {
	tmpDir := t.TempDir()
	log := New("release", Options{Dir: tmpDir, Filename: "warn.log", Level: "warn"})
	log.Info("info-dropped")
	log.Warn("warn-kept")
	_ = log.Sync()

	content, err := os.ReadFile(filepath.Join(tmpDir, "warn.log"))
	require.NoError(t, err)
	assert.NotContains(t, string(content), "info-dropped")
	assert.Contains(t, string(content), "warn-kept")
}

func TestResolveLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, resolveLevel("", true).Level())
	assert.Equal(t, zapcore.InfoLevel, resolveLevel("", false).Level())
	assert.Equal(t, zapcore.ErrorLevel, resolveLevel(" error ", true).Level())
	assert.Equal(t, zapcore.InfoLevel, resolveLevel("loud", false).Level())
}

func TestFromContextFallsBackToGlobal(t *testing.T) {
	assert.NotNil(t, FromContext(context.Background()))

	ctx := WithContext(context.Background(), "request_id", "req-1")
	scoped := FromContext(ctx)
	assert.NotNil(t, scoped)
	assert.NotSame(t, S(), scoped)
}
