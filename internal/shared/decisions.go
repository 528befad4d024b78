package shared

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DecisionAction enumerates lifecycle actions recorded for an access request.
type DecisionAction string

const (
	DecisionSubmit  DecisionAction = "SUBMIT"
	DecisionApprove DecisionAction = "APPROVE"
	DecisionReject  DecisionAction = "REJECT"
)

// DecisionLog is one entry in the review history of an access request.
type DecisionLog struct {
	ID      int64
	RefID   uuid.UUID
	ActorID int64
	Action  DecisionAction
	Note    string
	At      time.Time
}

// DecisionRecorder persists the review history of access requests. The
// request row itself only carries the latest status; the recorder keeps who
// decided what, and when.
type DecisionRecorder struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewDecisionRecorder constructs DecisionRecorder.
func NewDecisionRecorder(pool *pgxpool.Pool, logger *slog.Logger) *DecisionRecorder {
	return &DecisionRecorder{pool: pool, logger: logger}
}

// Record writes a decision entry to the database.
func (r *DecisionRecorder) Record(ctx context.Context, log DecisionLog) error {
	if r == nil {
		return errors.New("decision recorder not initialised")
	}
	if log.RefID == uuid.Nil {
		return errors.New("decision ref id required")
	}
	if log.ActorID == 0 {
		return errors.New("decision actor required")
	}
	if log.Action == "" {
		return errors.New("decision action required")
	}
	var at *time.Time
	if !log.At.IsZero() {
		at = &log.At
	}
	_, err := r.pool.Exec(ctx, `INSERT INTO request_decisions (ref_id, actor_id, action, note, at)
VALUES ($1, $2, $3, $4, COALESCE($5, NOW()))`, log.RefID, log.ActorID, string(log.Action), log.Note, at)
	if err != nil {
		if r.logger != nil {
			r.logger.Error("record decision", slog.Any("error", err))
		}
		return err
	}
	return nil
}

// List returns the decision history for one request, oldest first.
func (r *DecisionRecorder) List(ctx context.Context, ref uuid.UUID) ([]DecisionLog, error) {
	if r == nil {
		return nil, errors.New("decision recorder not initialised")
	}
	rows, err := r.pool.Query(ctx, `SELECT id, ref_id, actor_id, action, note, at
FROM request_decisions WHERE ref_id=$1 ORDER BY at ASC`, ref)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var logs []DecisionLog
	for rows.Next() {
		var l DecisionLog
		var action string
		if err := rows.Scan(&l.ID, &l.RefID, &l.ActorID, &action, &l.Note, &l.At); err != nil {
			return nil, err
		}
		l.Action = DecisionAction(action)
		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return logs, nil
}
