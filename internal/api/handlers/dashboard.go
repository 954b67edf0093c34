package handlers

import (
	"net/http"
	"strconv"
	"time"

	"gorm.io/gorm"

	"github.com/securecicd/backend/internal/api/dto"
	"github.com/securecicd/backend/internal/api/middleware"
	"github.com/securecicd/backend/internal/database/models"
)

type DashboardHandler struct {
	db *gorm.DB
}

func NewDashboardHandler(db *gorm.DB) *DashboardHandler {
	return &DashboardHandler{db: db}
}

type DashboardResponse struct {
	TotalProjects   int64            `json:"total_projects"`
	TotalScans      int64            `json:"total_scans"`
	ScansByStatus   map[string]int64 `json:"scans_by_status"`
	AverageRisk     float64          `json:"average_risk"`
	RisksBySeverity map[string]int64 `json:"risks_by_severity"`
	RecentScans     []models.Scan    `json:"recent_scans"`
}

// Overview handles GET /api/dashboard: counters and recent activity for the
// authenticated user.
func (h *DashboardHandler) Overview(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.GetUserID(r.Context())

	resp := DashboardResponse{
		ScansByStatus:   make(map[string]int64),
		RisksBySeverity: make(map[string]int64),
	}

	if err := h.db.Model(&models.Project{}).
		Where("owner_id = ?", ownerID).
		Count(&resp.TotalProjects).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to load dashboard"})
		return
	}

	if err := h.db.Model(&models.Scan{}).
		Where("owner_id = ?", ownerID).
		Count(&resp.TotalScans).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to load dashboard"})
		return
	}

	var statusCounts []struct {
		Status string
		Count  int64
	}
	if err := h.db.Model(&models.Scan{}).
		Select("status, count(*) as count").
		Where("owner_id = ?", ownerID).
		Group("status").
		Scan(&statusCounts).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to load dashboard"})
		return
	}
	for _, sc := range statusCounts {
		resp.ScansByStatus[sc.Status] = sc.Count
	}

	var severityCounts []struct {
		Severity string
		Count    int64
	}
	if err := h.db.Model(&models.Risk{}).
		Select("severity, count(*) as count").
		Where("owner_id = ? AND status = ?", ownerID, models.RiskStatusOpen).
		Group("severity").
		Scan(&severityCounts).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to load dashboard"})
		return
	}
	for _, sc := range severityCounts {
		resp.RisksBySeverity[sc.Severity] = sc.Count
	}

	var avg *float64
	if err := h.db.Model(&models.Project{}).
		Select("avg(risk_score)").
		Where("owner_id = ?", ownerID).
		Scan(&avg).Error; err == nil && avg != nil {
		resp.AverageRisk = *avg
	}

	if err := h.db.Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Limit(5).
		Find(&resp.RecentScans).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to load dashboard"})
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

type TrendPoint struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

// RisksTrend handles GET /api/dashboard/risks/trend: risks opened per day
// over the requested window (default 30 days). Bucketing happens in Go so the
// query stays portable across postgres and the sqlite test driver.
func (h *DashboardHandler) RisksTrend(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.GetUserID(r.Context())

	days := 30
	if v := r.URL.Query().Get("days"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 365 {
			days = n
		}
	}
	since := time.Now().AddDate(0, 0, -days)

	var risks []models.Risk
	if err := h.db.Where("owner_id = ? AND created_at >= ?", ownerID, since).
		Find(&risks).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to load risk trend"})
		return
	}

	byDay := make(map[string]int64)
	for _, risk := range risks {
		byDay[risk.CreatedAt.Format("2006-01-02")]++
	}

	points := make([]TrendPoint, 0, days)
	for d := 0; d < days; d++ {
		date := since.AddDate(0, 0, d+1).Format("2006-01-02")
		points = append(points, TrendPoint{Date: date, Count: byDay[date]})
	}

	writeJSON(w, http.StatusOK, dto.ListResponse{Count: len(points), Data: points})
}

type ScanStatsResponse struct {
	Total              int64            `json:"total"`
	ByStatus           map[string]int64 `json:"by_status"`
	AverageDurationSec float64          `json:"average_duration_sec"`
}

// ScanStats handles GET /api/dashboard/scans/stats.
func (h *DashboardHandler) ScanStats(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.GetUserID(r.Context())

	resp := ScanStatsResponse{ByStatus: make(map[string]int64)}

	var statusCounts []struct {
		Status string
		Count  int64
	}
	if err := h.db.Model(&models.Scan{}).
		Select("status, count(*) as count").
		Where("owner_id = ?", ownerID).
		Group("status").
		Scan(&statusCounts).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to load scan stats"})
		return
	}
	for _, sc := range statusCounts {
		resp.ByStatus[sc.Status] = sc.Count
		resp.Total += sc.Count
	}

	var completed []models.Scan
	if err := h.db.Select("started_at", "completed_at").
		Where("owner_id = ? AND status = ?", ownerID, models.ScanStatusCompleted).
		Find(&completed).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to load scan stats"})
		return
	}

	var total time.Duration
	var counted int
	for _, scan := range completed {
		if scan.StartedAt != nil && scan.CompletedAt != nil {
			total += scan.CompletedAt.Sub(*scan.StartedAt)
			counted++
		}
	}
	if counted > 0 {
		resp.AverageDurationSec = total.Seconds() / float64(counted)
	}

	writeJSON(w, http.StatusOK, resp)
}

// VulnerabilityTypes handles GET /api/dashboard/vulnerabilities/types:
// category counts summed across the user's completed scan summaries. The
// summaries live as jsonb, so the aggregation runs over loaded rows.
func (h *DashboardHandler) VulnerabilityTypes(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.GetUserID(r.Context())

	var completed []models.Scan
	if err := h.db.Where("owner_id = ? AND status = ?", ownerID, models.ScanStatusCompleted).
		Find(&completed).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to load vulnerability types"})
		return
	}

	types := make(map[string]int)
	for _, scan := range completed {
		if scan.AnalysisSummary == nil {
			continue
		}
		for category, count := range scan.AnalysisSummary.CategoryCounts {
			types[category] += count
		}
	}

	writeJSON(w, http.StatusOK, types)
}
