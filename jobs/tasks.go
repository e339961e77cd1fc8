package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskSessionPurge removes expired login registrations.
	TaskSessionPurge = "session:purge"
)

// SessionPurgePayload configures a purge run.
type SessionPurgePayload struct {
	// GraceMinutes keeps sessions this long past their expiry.
	GraceMinutes int `json:"grace_minutes"`
}

// NewSessionPurgeTask constructs an Asynq task.
func NewSessionPurgeTask(graceMinutes int) (*asynq.Task, error) {
	data, err := json.Marshal(SessionPurgePayload{GraceMinutes: graceMinutes})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSessionPurge, data), nil
}
