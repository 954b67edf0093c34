package tasks

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

// Task type names
const (
	TypeReapStaleScans = "scan:reap_stale"
)

// ReapStaleScansPayload bounds how long a scan may stay in running before the
// reaper fails it. Zero falls back to the handler default.
type ReapStaleScansPayload struct {
	MaxAgeMinutes int `json:"max_age_minutes"`
}

func NewReapStaleScansTask(payload ReapStaleScansPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeReapStaleScans, data), nil
}
