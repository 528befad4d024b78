package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/accesshub/accesshub/internal/auth"
	jobmetrics "github.com/accesshub/accesshub/internal/jobs"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// TokensPurgeJob deletes issued tokens whose expiry has passed.
type TokensPurgeJob struct {
	Auth    *auth.Service
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	clock   func() time.Time
}

// NewTokensPurgeJob wires dependencies for the purge handler.
func NewTokensPurgeJob(authSvc *auth.Service, logger *slog.Logger, metrics *jobmetrics.Metrics) *TokensPurgeJob {
	return &TokensPurgeJob{
		Auth:    authSvc,
		Logger:  logger,
		Metrics: metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle processes token purge tasks.
func (j *TokensPurgeJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Auth == nil {
		return errors.New("tokens purge: handler not configured")
	}
	var payload TokensPurgePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	cutoff := j.now()
	if payload.Before != "" {
		parsed, err := time.Parse(time.RFC3339, payload.Before)
		if err != nil {
			return asynq.SkipRetry
		}
		cutoff = parsed
	}

	tracker := j.metrics().Track(TaskTokensPurge)
	purged, err := j.Auth.PurgeExpiredTokens(ctx, cutoff)
	if err = tracker.End(err); err != nil {
		j.logger().Error("purge expired tokens", slog.Any("error", err))
		return err
	}
	j.logger().Info("purged expired tokens", slog.Int64("count", purged), slog.Time("cutoff", cutoff))
	return nil
}

func (j *TokensPurgeJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskTokensPurge))
	}
	return slog.Default().With(slog.String("job", TaskTokensPurge))
}

func (j *TokensPurgeJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *TokensPurgeJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
