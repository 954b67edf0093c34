package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"gorm.io/gorm"

	"github.com/securecicd/backend/internal/database/models"
)

const defaultMaxScanAge = 2 * time.Hour

// Handler processes background tasks.
type Handler struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewHandler(db *gorm.DB, logger *slog.Logger) *Handler {
	return &Handler{db: db, logger: logger}
}

// Register wires the handler into an asynq mux.
func (h *Handler) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(TypeReapStaleScans, h.HandleReapStaleScans)
}

// HandleReapStaleScans fails scans stuck in running longer than the payload
// allows. A scan is orphaned in that state when the API process dies mid-run,
// since the in-flight goroutine dies with it.
func (h *Handler) HandleReapStaleScans(ctx context.Context, t *asynq.Task) error {
	var payload ReapStaleScansPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshaling payload: %w", err)
	}

	maxAge := time.Duration(payload.MaxAgeMinutes) * time.Minute
	if maxAge <= 0 {
		maxAge = defaultMaxScanAge
	}
	cutoff := time.Now().Add(-maxAge)

	now := time.Now()
	result := h.db.WithContext(ctx).Model(&models.Scan{}).
		Where("status = ? AND started_at < ?", models.ScanStatusRunning, cutoff).
		Updates(map[string]any{
			"status":        models.ScanStatusFailed,
			"progress":      100,
			"completed_at":  now,
			"error_message": "Scan timed out: no completion recorded within the allowed window",
		})
	if result.Error != nil {
		return fmt.Errorf("reaping stale scans: %w", result.Error)
	}

	if result.RowsAffected > 0 {
		h.logger.Warn("reaped stale scans", "count", result.RowsAffected, "older_than", maxAge.String())
	}

	return nil
}
