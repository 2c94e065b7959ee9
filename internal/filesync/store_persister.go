package filesync

import (
	"context"
	"sync"
	"time"

	"collab-service/internal/filestore"
	"collab-service/internal/metrics"
	"collab-service/pkg/logger"
)

// StorePersister writes edits straight to the File Store. Each file has at
// most one write in flight; edits that arrive meanwhile collapse into the
// latest one, so a file's writes land in arrival order and a slow store never
// builds an unbounded backlog.
type StorePersister struct {
	store   filestore.Store
	timeout time.Duration

	mu      sync.Mutex
	pending map[string]FileChange // latest unwritten change per file
	active  map[string]struct{}   // files with a running writer
	idle    chan struct{}         // closed when active drains to empty
	closed  bool

	logger *logger.Logger
}

func NewStorePersister(store filestore.Store, timeout time.Duration, log *logger.Logger) *StorePersister {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &StorePersister{
		store:   store,
		timeout: timeout,
		pending: make(map[string]FileChange),
		active:  make(map[string]struct{}),
		logger:  log.Component("store_persister"),
	}
}

var _ Persister = (*StorePersister)(nil)

func (p *StorePersister) Persist(change FileChange) {
	key := change.Key()

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		p.logger.Warn("Persister closed, dropping change", "projectID", change.ProjectID, "path", change.Path)
		return
	}
	if prev, ok := p.pending[key]; ok {
		p.logger.Debug("Coalescing file write", "projectID", change.ProjectID, "path", change.Path, "replaced", prev.At)
	}
	p.pending[key] = change
	if _, running := p.active[key]; running {
		return
	}
	p.active[key] = struct{}{}
	go p.drain(key)
}

func (p *StorePersister) drain(key string) {
	for {
		p.mu.Lock()
		change, ok := p.pending[key]
		if !ok {
			delete(p.active, key)
			if len(p.active) == 0 && p.idle != nil {
				close(p.idle)
				p.idle = nil
			}
			p.mu.Unlock()
			return
		}
		delete(p.pending, key)
		p.mu.Unlock()

		p.write(change)
	}
}

func (p *StorePersister) write(change FileChange) {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	if _, err := p.store.Upsert(ctx, change.ProjectID, change.Path, change.Content); err != nil {
		metrics.PersistFailures.Inc()
		p.logger.Error("Failed to persist file change",
			"projectID", change.ProjectID, "path", change.Path, "error", err)
		return
	}
	p.logger.Debug("File change persisted", "projectID", change.ProjectID, "path", change.Path)
}

// Flush waits until every accepted change has been written or ctx is done.
func (p *StorePersister) Flush(ctx context.Context) error {
	p.mu.Lock()
	if len(p.active) == 0 {
		p.mu.Unlock()
		return nil
	}
	if p.idle == nil {
		p.idle = make(chan struct{})
	}
	idle := p.idle
	p.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting changes and flushes the ones already accepted.
func (p *StorePersister) Close(ctx context.Context) error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	return p.Flush(ctx)
}
