package domain

import "time"

// RunStats holds statistics about one ingestion run of a single source.
type RunStats struct {
	Source    Source
	Fetched   int
	Dropped   int
	Written   int
	Chunks    int
	Published int
	Errors    int
	Duration  time.Duration
}

type RunState struct {
	Source       string    `db:"source" bson:"_id"`
	LastRunAt    time.Time `db:"last_run_at" bson:"lastRunAt"`
	LastWritten  int64     `db:"last_written" bson:"lastWritten"`
	TotalWritten int64     `db:"total_written" bson:"totalWritten"`
}

// CleanupStats reports one deletion pass.
type CleanupStats struct {
	Rule     string
	Scanned  int
	Deleted  int
	Chunks   int
	Duration time.Duration
}
