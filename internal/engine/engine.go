package engine

import (
	"database/sql"
	"time"

	"foldbench/internal/config"
	"foldbench/internal/events"
	"foldbench/internal/repo"
)

// Engine coordinates the curation workflow: batch allocation, work-item
// leasing, session checkpointing and the commit fold. All cross-curator
// coordination lives in the store's atomic statements; the Engine itself
// holds no mutable state and is safe for concurrent use.
type Engine struct {
	DB     *sql.DB
	Repo   repo.Repo
	Events events.Writer
	Config *config.Config
	Now    func() time.Time
}

func New(db *sql.DB, cfg *config.Config) Engine {
	return Engine{
		DB:     db,
		Repo:   repo.Repo{DB: db},
		Events: events.Writer{DB: db},
		Config: cfg,
		Now:    time.Now,
	}
}

func (e Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

// Timestamp returns the engine clock as an RFC3339 UTC string, the format
// every store column uses.
func (e Engine) Timestamp() string {
	return timestamp(e.now())
}

func timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
