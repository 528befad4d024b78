package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTokensPurge removes expired issued tokens.
	TaskTokensPurge = "tokens:purge"
	// TaskCatalogWarmup refreshes the cached software catalog.
	TaskCatalogWarmup = "catalog:warmup"
)

// TokensPurgePayload contains options for the token purge job.
type TokensPurgePayload struct {
	Before string `json:"before,omitempty"`
}

// NewTokensPurgeTask builds a purge task. An empty before means "now".
func NewTokensPurgeTask(payload TokensPurgePayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTokensPurge, body, asynq.Queue(QueueDefault)), nil
}

// CatalogWarmupPayload contains options for the catalog warmup job.
type CatalogWarmupPayload struct {
	Force bool `json:"force"`
}

// NewCatalogWarmupTask builds a warmup task.
func NewCatalogWarmupTask(force bool) (*asynq.Task, error) {
	body, err := json.Marshal(CatalogWarmupPayload{Force: force})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskCatalogWarmup, body, asynq.Queue(QueueDefault)), nil
}
