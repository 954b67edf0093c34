package scans

import (
	"context"

	"github.com/securecicd/backend/internal/analyzer"
)

// AnalyzerRunner executes one analyzer run to completion. Satisfied by
// *analyzer.Runner; tests substitute a stub.
type AnalyzerRunner interface {
	Run(ctx context.Context, repoURL string) (*analyzer.RunResult, error)
}

var _ AnalyzerRunner = (*analyzer.Runner)(nil)
