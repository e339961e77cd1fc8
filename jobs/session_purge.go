package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	jobmetrics "github.com/showroom-admin/backoffice/internal/jobs"
)

// SessionStore deletes expired session registrations.
type SessionStore interface {
	DeleteExpiredSessions(ctx context.Context, before time.Time) (int64, error)
}

// PGSessionStore implements SessionStore on user_sessions.
type PGSessionStore struct {
	Pool *pgxpool.Pool
}

// DeleteExpiredSessions removes rows that expired before the cutoff.
func (s PGSessionStore) DeleteExpiredSessions(ctx context.Context, before time.Time) (int64, error) {
	tag, err := s.Pool.Exec(ctx, `DELETE FROM user_sessions WHERE expires_at < $1`, before)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// SessionPurgeJob removes user_sessions rows whose login has expired.
type SessionPurgeJob struct {
	Store   SessionStore
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	clock   func() time.Time
}

// NewSessionPurgeJob initialises the purge handler.
func NewSessionPurgeJob(store SessionStore, logger *slog.Logger, metrics *jobmetrics.Metrics) *SessionPurgeJob {
	return &SessionPurgeJob{
		Store:   store,
		Logger:  logger,
		Metrics: metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle executes a purge run.
func (j *SessionPurgeJob) Handle(ctx context.Context, t *asynq.Task) (err error) {
	if j == nil || j.Store == nil {
		return errors.New("session purge: handler not configured")
	}
	var payload SessionPurgePayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return fmt.Errorf("session purge payload: %w", asynq.SkipRetry)
		}
	}
	if payload.GraceMinutes < 0 {
		payload.GraceMinutes = 0
	}

	tracker := j.Metrics.Track(TaskSessionPurge)
	defer func() {
		err = tracker.End(err)
	}()

	cutoff := j.clock().Add(-time.Duration(payload.GraceMinutes) * time.Minute)
	deleted, err := j.Store.DeleteExpiredSessions(ctx, cutoff)
	if err != nil {
		j.logger().Error("session purge failed", slog.Any("error", err))
		return fmt.Errorf("session purge: %w", err)
	}
	j.Metrics.AddAffected(TaskSessionPurge, deleted)
	j.logger().Info("session purge finished", slog.Int64("deleted", deleted), slog.Time("cutoff", cutoff))
	return nil
}

func (j *SessionPurgeJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
