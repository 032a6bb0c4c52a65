package domain

import "time"

type EventAction string

const (
	ActionUpsert EventAction = "upsert"
	ActionDelete EventAction = "delete"
)

// PostEvent announces one committed chunk of writes or deletions.
type PostEvent struct {
	ID        string      `json:"id"`
	Action    EventAction `json:"action"`
	Source    Source      `json:"source,omitempty"`
	IDs       []string    `json:"ids"`
	Timestamp time.Time   `json:"timestamp"`
}
