package analyzer

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/securecicd/backend/internal/database/models"
)

// The analyzer's JSON report is untrusted and only partially shaped: fields
// may be missing, null, or the wrong type depending on tool version. Every
// accessor below decodes with a default instead of failing, so building a
// summary never errors once the document itself parses.

// flexFloat decodes a JSON number, a numeric string, or anything else as a
// finite float64, defaulting to 0.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	*f = 0

	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		if !math.IsNaN(n) && !math.IsInf(n, 0) {
			*f = flexFloat(n)
		}
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		n, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err == nil && !math.IsNaN(n) && !math.IsInf(n, 0) {
			*f = flexFloat(n)
		}
	}

	return nil
}

// flexString decodes a JSON string or number as a string, defaulting to "".
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	*f = ""

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = flexString(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*f = flexString(n.String())
	}

	return nil
}

// CriticalIssue is one entry of the report's critical_issues array. Raw keeps
// the entry verbatim for storage as a scan finding.
type CriticalIssue struct {
	Severity string
	Category string
	Raw      json.RawMessage
}

func (c *CriticalIssue) UnmarshalJSON(data []byte) error {
	c.Raw = append(json.RawMessage(nil), data...)

	var aux struct {
		Severity      flexString `json:"severity"`
		CategoryLabel flexString `json:"category_label"`
		Category      flexString `json:"category"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return nil
	}

	c.Severity = string(aux.Severity)
	c.Category = string(aux.CategoryLabel)
	if c.Category == "" {
		c.Category = string(aux.Category)
	}
	return nil
}

type issueList []CriticalIssue

func (l *issueList) UnmarshalJSON(data []byte) error {
	var issues []CriticalIssue
	if err := json.Unmarshal(data, &issues); err != nil {
		*l = nil
		return nil
	}
	*l = issues
	return nil
}

type aggregateMetrics struct {
	OverallScore    flexFloat `json:"overall_score"`
	Accuracy        flexFloat `json:"accuracy"`
	Complexity      flexFloat `json:"complexity"`
	Efficiency      flexFloat `json:"efficiency"`
	Maintainability flexFloat `json:"maintainability"`
	Documentation   flexFloat `json:"documentation"`
}

func (m *aggregateMetrics) UnmarshalJSON(data []byte) error {
	type plain aggregateMetrics
	var v plain
	if err := json.Unmarshal(data, &v); err == nil {
		*m = aggregateMetrics(v)
	}
	return nil
}

type identifiedGap struct {
	Skill    flexString `json:"skill"`
	Score    flexFloat  `json:"score"`
	Severity flexString `json:"severity"`
}

type skillsGapAnalysis struct {
	OverallProficiency flexFloat                `json:"overall_proficiency"`
	SkillLevels        map[string]flexFloat     `json:"skill_levels"`
	IdentifiedGaps     []identifiedGap          `json:"identified_gaps"`
}

func (g *skillsGapAnalysis) UnmarshalJSON(data []byte) error {
	type plain skillsGapAnalysis
	var v plain
	if err := json.Unmarshal(data, &v); err == nil {
		*g = skillsGapAnalysis(v)
	}
	return nil
}

// Report is the parsed form of one analyzer JSON artifact.
type Report struct {
	TotalFilesAnalyzed flexFloat         `json:"total_files_analyzed"`
	AggregateMetrics   aggregateMetrics  `json:"aggregate_metrics"`
	CriticalIssues     issueList         `json:"critical_issues"`
	SkillsGapAnalysis  skillsGapAnalysis `json:"skills_gap_analysis"`
}

func ParseReport(data []byte) (*Report, error) {
	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parsing analyzer report: %w", err)
	}
	return &r, nil
}

func ParseReportFile(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading analyzer report: %w", err)
	}
	return ParseReport(data)
}

// Summary normalizes the report into the shape stored on a scan record.
// Deterministic for a given report; ordering follows the source arrays.
func (r *Report) Summary() *models.AnalysisSummary {
	severityCounts := map[string]int{"High": 0, "Medium": 0, "Low": 0}
	categoryCounts := map[string]int{}

	for _, issue := range r.CriticalIssues {
		severity := issue.Severity
		if severity == "" {
			severity = "Low"
		}
		severityCounts[severity]++

		category := issue.Category
		if category == "" {
			category = "Other"
		}
		categoryCounts[category]++
	}

	skillLevels := make(map[string]float64, len(r.SkillsGapAnalysis.SkillLevels))
	for name, score := range r.SkillsGapAnalysis.SkillLevels {
		skillLevels[name] = float64(score)
	}

	gaps := make([]models.SkillGap, 0, len(r.SkillsGapAnalysis.IdentifiedGaps))
	for _, gap := range r.SkillsGapAnalysis.IdentifiedGaps {
		severity := string(gap.Severity)
		if severity == "" {
			severity = "Medium"
		}
		gaps = append(gaps, models.SkillGap{
			Skill:    string(gap.Skill),
			Score:    float64(gap.Score),
			Severity: severity,
		})
	}

	return &models.AnalysisSummary{
		TotalFilesAnalyzed: int(r.TotalFilesAnalyzed),
		TotalIssues:        len(r.CriticalIssues),
		Metrics: models.MetricScores{
			Overall:         float64(r.AggregateMetrics.OverallScore),
			Accuracy:        float64(r.AggregateMetrics.Accuracy),
			Complexity:      float64(r.AggregateMetrics.Complexity),
			Efficiency:      float64(r.AggregateMetrics.Efficiency),
			Maintainability: float64(r.AggregateMetrics.Maintainability),
			Documentation:   float64(r.AggregateMetrics.Documentation),
		},
		SkillsGap: models.SkillsGap{
			OverallProficiency: float64(r.SkillsGapAnalysis.OverallProficiency),
			SkillLevels:        skillLevels,
			IdentifiedGaps:     gaps,
		},
		SeverityCounts: severityCounts,
		CategoryCounts: categoryCounts,
	}
}

// Findings returns up to limit raw critical-issue entries in report order.
func (r *Report) Findings(limit int) models.FindingList {
	findings := models.FindingList{}
	for i, issue := range r.CriticalIssues {
		if i >= limit {
			break
		}
		findings = append(findings, issue.Raw)
	}
	return findings
}
