package filesync

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"collab-service/internal/filestore"
	"collab-service/internal/models"
	"collab-service/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gatedStore blocks every Upsert until release is closed and records the
// content of each write.
type gatedStore struct {
	filestore.Store
	release chan struct{}

	mu     sync.Mutex
	writes []string
}

func (g *gatedStore) Upsert(ctx context.Context, projectID, name, content string) (*models.File, error) {
	<-g.release
	g.mu.Lock()
	g.writes = append(g.writes, content)
	g.mu.Unlock()
	return g.Store.Upsert(ctx, projectID, name, content)
}

func TestStorePersisterWritesChange(t *testing.T) {
	store := filestore.NewMemoryStore()
	p := NewStorePersister(store, time.Second, logger.Discard())

	p.Persist(FileChange{ProjectID: "p1", Path: "main.js", Content: "x"})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, p.Flush(ctx))

	file, err := store.GetByName(context.Background(), "p1", "main.js")
	require.NoError(t, err)
	assert.Equal(t, "x", file.Content)
}

func TestStorePersisterCoalescesPerFile(t *testing.T) {
	gate := &gatedStore{Store: filestore.NewMemoryStore(), release: make(chan struct{})}
	p := NewStorePersister(gate, time.Second, logger.Discard())

	// The first write is held at the gate; the rest queue behind it and only
	// the newest survives.
	for i := 1; i <= 5; i++ {
		p.Persist(FileChange{ProjectID: "p1", Path: "main.js", Content: fmt.Sprintf("v%d", i)})
	}
	close(gate.release)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, p.Flush(ctx))

	gate.mu.Lock()
	writes := append([]string(nil), gate.writes...)
	gate.mu.Unlock()

	require.NotEmpty(t, writes)
	assert.LessOrEqual(t, len(writes), 2)
	assert.Equal(t, "v5", writes[len(writes)-1])

	file, err := gate.Store.GetByName(context.Background(), "p1", "main.js")
	require.NoError(t, err)
	assert.Equal(t, "v5", file.Content)
}

func TestStorePersisterFlushHonoursContext(t *testing.T) {
	gate := &gatedStore{Store: filestore.NewMemoryStore(), release: make(chan struct{})}
	p := NewStorePersister(gate, time.Second, logger.Discard())
	defer close(gate.release)

	p.Persist(FileChange{ProjectID: "p1", Path: "main.js", Content: "x"})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, p.Flush(ctx), context.DeadlineExceeded)
}

type errStore struct {
	filestore.Store
	calls int
	mu    sync.Mutex
}

func (e *errStore) Upsert(ctx context.Context, projectID, name, content string) (*models.File, error) {
	e.mu.Lock()
	e.calls++
	e.mu.Unlock()
	return nil, errors.New("connection refused")
}

func TestStorePersisterSurvivesFailures(t *testing.T) {
	store := &errStore{}
	p := NewStorePersister(store, time.Second, logger.Discard())

	p.Persist(FileChange{ProjectID: "p1", Path: "a.js", Content: "x"})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, p.Flush(ctx))

	p.Persist(FileChange{ProjectID: "p1", Path: "b.js", Content: "y"})
	require.NoError(t, p.Flush(ctx))

	store.mu.Lock()
	defer store.mu.Unlock()
	assert.Equal(t, 2, store.calls)
}

func TestStorePersisterCloseRejectsNewChanges(t *testing.T) {
	store := filestore.NewMemoryStore()
	p := NewStorePersister(store, time.Second, logger.Discard())

	require.NoError(t, p.Close(context.Background()))
	p.Persist(FileChange{ProjectID: "p1", Path: "main.js", Content: "x"})

	_, err := store.GetByName(context.Background(), "p1", "main.js")
	assert.ErrorIs(t, err, filestore.ErrNotFound)
}
