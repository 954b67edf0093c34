package scans

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/securecicd/backend/internal/analyzer"
	"github.com/securecicd/backend/internal/database/models"
)

var (
	ErrScanNotFound   = errors.New("scan not found")
	ErrAlreadyRunning = errors.New("scan is already running")
)

const noArtifactsMessage = "Analyzer finished without generating report files. " +
	"The repository may not contain supported code files."

// Service owns the scan run lifecycle: it admits at most one in-flight run
// per scan, executes the analyzer in a background goroutine, and persists the
// terminal state. The in-flight set is process-local; the persisted status
// backs it up across restarts.
type Service struct {
	db     *gorm.DB
	runner AnalyzerRunner
	logger *slog.Logger

	mu       sync.Mutex
	inflight map[uuid.UUID]struct{}
}

func NewService(db *gorm.DB, runner AnalyzerRunner, logger *slog.Logger) *Service {
	return &Service{
		db:       db,
		runner:   runner,
		logger:   logger,
		inflight: make(map[uuid.UUID]struct{}),
	}
}

// StartRun transitions the scan to running and launches the analyzer in the
// background. It returns once the running state is persisted; the caller gets
// the refreshed record, not the outcome. Returns ErrAlreadyRunning when the
// scan is in flight here or marked running in the database.
func (s *Service) StartRun(ctx context.Context, ownerID, scanID uuid.UUID) (*models.Scan, error) {
	var scan models.Scan
	err := s.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", scanID, ownerID).
		First(&scan).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrScanNotFound
		}
		return nil, err
	}

	// Reserve before persisting so two concurrent requests cannot both pass
	// the status check.
	s.mu.Lock()
	if _, ok := s.inflight[scan.ID]; ok || scan.Status == models.ScanStatusRunning {
		s.mu.Unlock()
		return nil, ErrAlreadyRunning
	}
	s.inflight[scan.ID] = struct{}{}
	s.mu.Unlock()

	now := time.Now()
	scan.Status = models.ScanStatusRunning
	scan.Progress = 5
	scan.StartedAt = &now
	scan.CompletedAt = nil
	scan.ErrorMessage = ""
	scan.AnalyzerLogTail = ""
	scan.AnalysisSummary = nil
	scan.Findings = models.FindingList{}
	scan.ReportFiles = &models.ReportFiles{}

	if err := s.db.WithContext(ctx).Save(&scan).Error; err != nil {
		s.release(scan.ID)
		return nil, err
	}

	go s.processRun(scan.ID, scan.ProjectID, scan.RepositoryURL)

	return &scan, nil
}

func (s *Service) release(scanID uuid.UUID) {
	s.mu.Lock()
	delete(s.inflight, scanID)
	s.mu.Unlock()
}

// Running reports whether the scan is currently in flight in this process.
func (s *Service) Running(scanID uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.inflight[scanID]
	return ok
}

func (s *Service) processRun(scanID, projectID uuid.UUID, repoURL string) {
	defer s.release(scanID)
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("scan run panicked", "scan_id", scanID, "panic", r)
			s.saveFailure(scanID, "Analyzer execution failed", "")
		}
	}()

	result, err := s.runner.Run(context.Background(), repoURL)
	if err != nil {
		s.logger.Error("analyzer run failed", "scan_id", scanID, "error", err)
		s.saveFailure(scanID, err.Error(), err.Error())
		return
	}

	if result.PDFFile == "" && result.JSONFile == "" {
		s.logger.Warn("analyzer produced no artifacts", "scan_id", scanID)
		s.saveFailure(scanID, noArtifactsMessage, result.Output)
		return
	}

	var summary *models.AnalysisSummary
	var findings models.FindingList
	if result.JSONPath != "" {
		report, err := analyzer.ParseReportFile(result.JSONPath)
		if err != nil {
			// A completed run with an unreadable report still counts as
			// completed; the PDF may be fine.
			s.logger.Warn("could not parse report", "scan_id", scanID, "error", err)
		} else {
			summary = report.Summary()
			findings = report.Findings(models.MaxFindings)
		}
	}

	var scan models.Scan
	if err := s.db.First(&scan, "id = ?", scanID).Error; err != nil {
		// Deleted while running; nothing left to update.
		s.logger.Warn("scan record gone after run", "scan_id", scanID)
		return
	}

	now := time.Now()
	scan.Status = models.ScanStatusCompleted
	scan.Progress = 100
	scan.CompletedAt = &now
	scan.AnalyzerLogTail = lastChars(result.Output, models.MaxLogTailLen)
	scan.AnalysisSummary = summary
	scan.Findings = findings
	scan.ReportFiles = &models.ReportFiles{
		PDFFile:  optional(result.PDFFile),
		PDFPath:  optional(result.PDFPath),
		JSONFile: optional(result.JSONFile),
		JSONPath: optional(result.JSONPath),
	}

	if err := s.db.Save(&scan).Error; err != nil {
		s.logger.Error("saving completed scan", "scan_id", scanID, "error", err)
		return
	}

	s.updateProject(projectID, summary, now)

	s.logger.Info("scan completed", "scan_id", scanID,
		"issues", len(findings), "has_summary", summary != nil)
}

// updateProject stamps the project's last scan time and, when a summary is
// available, derives its risk score: a perfect overall of 100 is zero risk.
func (s *Service) updateProject(projectID uuid.UUID, summary *models.AnalysisSummary, at time.Time) {
	updates := map[string]any{"last_scan": at}
	if summary != nil {
		risk := math.Round((100-summary.Metrics.Overall)*10) / 10
		updates["risk_score"] = risk
	}
	err := s.db.Model(&models.Project{}).
		Where("id = ?", projectID).
		Updates(updates).Error
	if err != nil {
		s.logger.Error("updating project after scan", "project_id", projectID, "error", err)
	}
}

func (s *Service) saveFailure(scanID uuid.UUID, message, logSource string) {
	var scan models.Scan
	if err := s.db.First(&scan, "id = ?", scanID).Error; err != nil {
		s.logger.Warn("scan record gone after failure", "scan_id", scanID)
		return
	}

	if message == "" {
		message = "Analyzer execution failed"
	}

	now := time.Now()
	scan.Status = models.ScanStatusFailed
	scan.Progress = 100
	scan.CompletedAt = &now
	scan.ErrorMessage = firstChars(message, models.MaxErrorMessageLen)
	scan.AnalyzerLogTail = lastChars(logSource, models.MaxLogTailLen)

	if err := s.db.Save(&scan).Error; err != nil {
		s.logger.Error("saving failed scan", "scan_id", scanID, "error", err)
	}
}

// Hydrate repairs a scan record whose stored summary predates the skills-gap
// fields by re-reading the JSON artifact. Best effort: any problem leaves the
// record as stored.
func (s *Service) Hydrate(scan *models.Scan) {
	if scan.Status != models.ScanStatusCompleted || scan.AnalysisSummary.HasSkillsGapData() {
		return
	}
	if scan.ReportFiles == nil || scan.ReportFiles.JSONPath == nil {
		return
	}

	report, err := analyzer.ParseReportFile(*scan.ReportFiles.JSONPath)
	if err != nil {
		return
	}

	scan.AnalysisSummary = report.Summary()
	if len(scan.Findings) == 0 {
		scan.Findings = report.Findings(models.MaxFindings)
	}

	err = s.db.Model(scan).
		Select("analysis_summary", "findings").
		Updates(map[string]any{
			"analysis_summary": scan.AnalysisSummary,
			"findings":         scan.Findings,
		}).Error
	if err != nil {
		s.logger.Warn("persisting hydrated summary", "scan_id", scan.ID, "error", err)
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func firstChars(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func lastChars(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
