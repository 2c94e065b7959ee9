package filesync

import (
	"context"
	"time"
)

// FileChange is one edit that should eventually reach the File Store.
type FileChange struct {
	ProjectID string    `json:"projectId"`
	Path      string    `json:"path"`
	Content   string    `json:"content"`
	At        time.Time `json:"at"`
}

// Key identifies the file a change targets.
func (c FileChange) Key() string {
	return c.ProjectID + "/" + c.Path
}

// Persister accepts edits after they have been broadcast. Persist must not
// block the caller on store I/O; delivery is best-effort.
type Persister interface {
	Persist(change FileChange)
}

// PersisterFunc adapts a function to Persister.
type PersisterFunc func(change FileChange)

func (f PersisterFunc) Persist(change FileChange) { f(change) }

// Flusher is implemented by persisters that buffer writes.
type Flusher interface {
	Flush(ctx context.Context) error
}
