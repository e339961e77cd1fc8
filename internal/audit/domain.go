package audit

import "time"

// Entry is one stored admin change.
type Entry struct {
	ID         int64
	OccurredAt time.Time
	ActorID    *int64
	ActorEmail string
	Action     string
	Entity     string
	EntityID   string
	// Meta is the raw JSON payload.
	Meta string
}
