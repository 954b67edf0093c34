package analyzer_test

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/securecicd/backend/internal/analyzer"
	"github.com/securecicd/backend/pkg/config"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// setupAnalyzerDir builds an analyzer directory whose "python" is a shell
// script, so runs execute a controllable process.
func setupAnalyzerDir(t *testing.T, script string) config.AnalyzerConfig {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "analyzer.py"), []byte("# stub\n"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "reports"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "json_output"), 0o755))

	bin := filepath.Join(dir, "fake-python.sh")
	require.NoError(t, os.WriteFile(bin, []byte("#!/bin/sh\n"+script), 0o755))

	return config.AnalyzerConfig{Dir: dir, PythonBin: bin}
}

func TestRunner_MissingScript(t *testing.T) {
	cfg := config.AnalyzerConfig{Dir: t.TempDir(), PythonBin: "python"}
	runner := analyzer.NewRunner(cfg, discardLogger())

	_, err := runner.Run(context.Background(), "https://github.com/example/repo")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "analyzer not found")
}

func TestRunner_SuccessWithAnnouncedNames(t *testing.T) {
	cfg := setupAnalyzerDir(t, `
echo "analyzing $4"
touch reports/app-1.pdf
touch json_output/app-1.json
echo "Report saved to reports/app-1.pdf"
echo "JSON saved to json_output/app-1.json"
`)
	runner := analyzer.NewRunner(cfg, discardLogger())

	result, err := runner.Run(context.Background(), "https://github.com/example/repo")
	require.NoError(t, err)

	assert.Equal(t, "app-1.pdf", result.PDFFile)
	assert.Equal(t, "app-1.json", result.JSONFile)
	assert.Equal(t, filepath.Join(cfg.Dir, "reports", "app-1.pdf"), result.PDFPath)
	assert.Equal(t, filepath.Join(cfg.Dir, "json_output", "app-1.json"), result.JSONPath)
	assert.Contains(t, result.Output, "analyzing https://github.com/example/repo")
}

func TestRunner_AnnouncedNameWinsOverNewerFile(t *testing.T) {
	// The output names one artifact while a different, newer file also lands
	// in the directory. The announced name is authoritative.
	cfg := setupAnalyzerDir(t, `
touch reports/app-20240101.pdf
sleep 0.01
touch reports/other.pdf
echo "Report saved to reports/app-20240101.pdf"
`)
	runner := analyzer.NewRunner(cfg, discardLogger())

	result, err := runner.Run(context.Background(), "repo")
	require.NoError(t, err)
	assert.Equal(t, "app-20240101.pdf", result.PDFFile)
}

func TestRunner_SnapshotFallbackWhenOutputSilent(t *testing.T) {
	cfg := setupAnalyzerDir(t, `
touch reports/quiet.pdf
touch json_output/quiet.json
echo "done"
`)
	runner := analyzer.NewRunner(cfg, discardLogger())

	result, err := runner.Run(context.Background(), "repo")
	require.NoError(t, err)
	assert.Equal(t, "quiet.pdf", result.PDFFile)
	assert.Equal(t, "quiet.json", result.JSONFile)
}

func TestRunner_NoArtifacts(t *testing.T) {
	cfg := setupAnalyzerDir(t, `echo "nothing to do"`)
	runner := analyzer.NewRunner(cfg, discardLogger())

	result, err := runner.Run(context.Background(), "repo")
	require.NoError(t, err)
	assert.Empty(t, result.PDFFile)
	assert.Empty(t, result.JSONFile)
	assert.Empty(t, result.PDFPath)
	assert.Empty(t, result.JSONPath)
}

func TestRunner_NonzeroExit(t *testing.T) {
	cfg := setupAnalyzerDir(t, `
echo "fatal: clone failed" >&2
exit 3
`)
	runner := analyzer.NewRunner(cfg, discardLogger())

	_, err := runner.Run(context.Background(), "repo")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "analyzer exited with code 3")
	assert.Contains(t, err.Error(), "fatal: clone failed")
}
