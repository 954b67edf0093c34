package analyzer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/securecicd/backend/pkg/config"
)

const (
	analyzerScript = "analyzer.py"

	// Combined stdout+stderr is tail-bounded so a chatty run cannot grow
	// memory without limit; only the most recent output survives.
	maxCombinedOutput = 120000

	// On a nonzero exit only the end of the output is embedded in the error,
	// which is where Python tracebacks land.
	errorTailLen = 800
)

// RunResult is the outcome of one successful analyzer invocation. File and
// path fields are empty when the run produced no artifact of that kind.
type RunResult struct {
	Output   string
	PDFFile  string
	JSONFile string
	PDFPath  string
	JSONPath string
}

// Runner launches the Python analyzer as a subprocess and resolves the report
// artifacts it wrote. Safe for concurrent use.
type Runner struct {
	dir       string
	pythonBin string
	maxFiles  int
	logger    *slog.Logger
}

func NewRunner(cfg config.AnalyzerConfig, logger *slog.Logger) *Runner {
	pythonBin := cfg.PythonBin
	if pythonBin == "" {
		pythonBin = "python"
	}
	return &Runner{
		dir:       cfg.Dir,
		pythonBin: pythonBin,
		maxFiles:  cfg.MaxFiles,
		logger:    logger,
	}
}

// Dir is the analyzer working directory. Report downloads are contained to it.
func (r *Runner) Dir() string { return r.dir }

func (r *Runner) ReportsDir() string { return filepath.Join(r.dir, "reports") }

func (r *Runner) JSONDir() string { return filepath.Join(r.dir, "json_output") }

// Run executes the analyzer against repoURL and blocks until it exits.
// Artifact names are taken from the process output when announced there,
// falling back to a before/after snapshot of the output directories.
func (r *Runner) Run(ctx context.Context, repoURL string) (*RunResult, error) {
	script := filepath.Join(r.dir, analyzerScript)
	if _, err := os.Stat(script); err != nil {
		return nil, fmt.Errorf("analyzer not found: expected %s", script)
	}

	reportsDir := r.ReportsDir()
	jsonDir := r.JSONDir()

	beforePDF := ListFilesByExtension(reportsDir, ".pdf")
	beforeJSON := ListFilesByExtension(jsonDir, ".json")

	args := []string{"-X", "utf8", analyzerScript, repoURL}
	if r.maxFiles > 0 {
		args = append(args, "--max-files", strconv.Itoa(r.maxFiles))
	}

	out := newTailBuffer(maxCombinedOutput)
	cmd := exec.CommandContext(ctx, r.pythonBin, args...)
	cmd.Dir = r.dir
	cmd.Env = append(os.Environ(), "PYTHONUTF8=1")
	cmd.Stdout = out
	cmd.Stderr = out

	r.logger.Info("starting analyzer", "repository", repoURL, "python", r.pythonBin)

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to run analyzer: %w", err)
	}

	err := cmd.Wait()
	output := out.String()

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, fmt.Errorf("analyzer exited with code %d. %s",
				exitErr.ExitCode(), tail(output, errorTailLen))
		}
		return nil, fmt.Errorf("failed to run analyzer: %w", err)
	}

	names := ExtractReportNames(output)

	pdfFile := names.PDFFile
	if pdfFile == "" {
		if f := NewestAddedFile(beforePDF, ListFilesByExtension(reportsDir, ".pdf")); f != nil {
			pdfFile = f.Name
		}
	}
	jsonFile := names.JSONFile
	if jsonFile == "" {
		if f := NewestAddedFile(beforeJSON, ListFilesByExtension(jsonDir, ".json")); f != nil {
			jsonFile = f.Name
		}
	}

	result := &RunResult{Output: output, PDFFile: pdfFile, JSONFile: jsonFile}
	if pdfFile != "" {
		result.PDFPath = filepath.Join(reportsDir, pdfFile)
	}
	if jsonFile != "" {
		result.JSONPath = filepath.Join(jsonDir, jsonFile)
	}

	r.logger.Info("analyzer finished", "repository", repoURL,
		"pdf_file", pdfFile, "json_file", jsonFile)

	return result, nil
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}

// tailBuffer keeps at most the last limit bytes written to it. Both process
// streams write to the same buffer, so it locks around appends.
type tailBuffer struct {
	mu    sync.Mutex
	limit int
	buf   []byte
}

func newTailBuffer(limit int) *tailBuffer {
	return &tailBuffer{limit: limit}
}

func (b *tailBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.buf = append(b.buf, p...)
	if len(b.buf) > b.limit {
		trimmed := make([]byte, b.limit)
		copy(trimmed, b.buf[len(b.buf)-b.limit:])
		b.buf = trimmed
	}
	return len(p), nil
}

func (b *tailBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return string(b.buf)
}
