package filesync

import (
	"context"
	"errors"
	"sync"
	"testing"

	"collab-service/internal/filestore"
	"collab-service/internal/models"
	"collab-service/internal/realtime"
	"collab-service/internal/realtime/realtimetest"
	"collab-service/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturePersister struct {
	mu      sync.Mutex
	changes []FileChange
}

func (c *capturePersister) Persist(change FileChange) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.changes = append(c.changes, change)
}

type fixture struct {
	router    *Router
	store     *filestore.MemoryStore
	recorder  *realtimetest.Recorder
	persisted *capturePersister
}

func newFixture(opts Options) *fixture {
	f := &fixture{
		store:     filestore.NewMemoryStore(),
		recorder:  realtimetest.NewRecorder(),
		persisted: &capturePersister{},
	}
	f.router = NewRouter(f.store, f.persisted, f.recorder, opts, logger.Discard())
	return f
}

func TestOnJoinProjectSendsSnapshotToJoinerOnly(t *testing.T) {
	f := newFixture(Options{})
	ctx := context.Background()
	_, err := f.store.Upsert(ctx, "p1", "b.js", "b")
	require.NoError(t, err)
	_, err = f.store.Upsert(ctx, "p1", "a.js", "a")
	require.NoError(t, err)

	require.NoError(t, f.router.OnJoinProject(ctx, "p1", "s1"))

	deliveries := f.recorder.Deliveries()
	require.Len(t, deliveries, 1)
	assert.Equal(t, realtimetest.ScopeSession, deliveries[0].Scope)
	assert.Equal(t, "s1", deliveries[0].SessionID)
	assert.Equal(t, realtime.FilesUpdate{Files: []models.FileSnapshot{
		{Path: "a.js", Content: "a"},
		{Path: "b.js", Content: "b"},
	}}, deliveries[0].Event.Data)
}

func TestOnJoinEmptyProject(t *testing.T) {
	f := newFixture(Options{})

	require.NoError(t, f.router.OnJoinProject(context.Background(), "empty", "s1"))

	got := f.recorder.Named(realtime.EventFilesUpdate)
	require.Len(t, got, 1)
	assert.Equal(t, realtime.FilesUpdate{Files: []models.FileSnapshot{}}, got[0].Event.Data)
}

func TestOnCodeChangeExcludesSenderAndPersists(t *testing.T) {
	f := newFixture(Options{})

	f.router.OnCodeChange("p1", "src//main.js", "let x = 1", "s1")

	deliveries := f.recorder.Named(realtime.EventCodeUpdate)
	require.Len(t, deliveries, 1)
	assert.Equal(t, realtime.ProjectRoom("p1"), deliveries[0].Room)
	assert.Equal(t, "s1", deliveries[0].Except)
	assert.Equal(t, realtime.CodeUpdate{File: "src/main.js", Content: "let x = 1"}, deliveries[0].Event.Data)

	require.Len(t, f.persisted.changes, 1)
	assert.Equal(t, "p1", f.persisted.changes[0].ProjectID)
	assert.Equal(t, "src/main.js", f.persisted.changes[0].Path)
}

func TestOnCodeChangeAllowsEmptyContent(t *testing.T) {
	f := newFixture(Options{})

	f.router.OnCodeChange("p1", "main.js", "", "s1")

	assert.Len(t, f.recorder.Named(realtime.EventCodeUpdate), 1)
	assert.Len(t, f.persisted.changes, 1)
}

func TestOnCodeChangeDropsMissingFields(t *testing.T) {
	f := newFixture(Options{})

	f.router.OnCodeChange("", "main.js", "x", "s1")
	f.router.OnCodeChange("p1", "  ", "x", "s1")

	assert.Empty(t, f.recorder.Deliveries())
	assert.Empty(t, f.persisted.changes)
}

func TestOnCreateFileAnnouncesThenSnapshots(t *testing.T) {
	f := newFixture(Options{})
	ctx := context.Background()

	require.NoError(t, f.router.OnCreateFile(ctx, "p1", "main.js", "// hi", "s1"))

	deliveries := f.recorder.Deliveries()
	require.Len(t, deliveries, 2)

	assert.Equal(t, realtime.EventFileCreated, deliveries[0].Event.Name)
	assert.Empty(t, deliveries[0].Except)
	assert.Equal(t, realtime.FileCreated{Path: "main.js", Content: "// hi"}, deliveries[0].Event.Data)

	assert.Equal(t, realtime.EventFilesUpdate, deliveries[1].Event.Name)
	assert.Equal(t, realtimetest.ScopeRoom, deliveries[1].Scope)
	assert.Equal(t, realtime.FilesUpdate{Files: []models.FileSnapshot{{Path: "main.js", Content: "// hi"}}},
		deliveries[1].Event.Data)
}

func TestOnCreateFileUpsertsByDefault(t *testing.T) {
	f := newFixture(Options{})
	ctx := context.Background()

	require.NoError(t, f.router.OnCreateFile(ctx, "p1", "main.js", "v1", "s1"))
	require.NoError(t, f.router.OnCreateFile(ctx, "p1", "./main.js", "v2", "s1"))

	files, err := f.store.ListByProject(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "v2", files[0].Content)
	assert.Empty(t, f.recorder.Named(realtime.EventError))
}

func TestOnCreateFileStrictReportsDuplicateToSenderOnly(t *testing.T) {
	f := newFixture(Options{StrictCreate: true})
	ctx := context.Background()

	require.NoError(t, f.router.OnCreateFile(ctx, "p1", "main.js", "v1", "s1"))
	f.recorder.Reset()

	err := f.router.OnCreateFile(ctx, "p1", "main.js", "v2", "s2")
	require.ErrorIs(t, err, filestore.ErrAlreadyExists)

	deliveries := f.recorder.Deliveries()
	require.Len(t, deliveries, 1)
	assert.Equal(t, realtimetest.ScopeSession, deliveries[0].Scope)
	assert.Equal(t, "s2", deliveries[0].SessionID)
	assert.Equal(t, realtime.ErrCodeFileExists, deliveries[0].Event.Data.(realtime.ErrorData).Code)

	file, err := f.store.GetByName(ctx, "p1", "main.js")
	require.NoError(t, err)
	assert.Equal(t, "v1", file.Content)
}

func TestOnCreateFolderWritesPlaceholder(t *testing.T) {
	f := newFixture(Options{})
	ctx := context.Background()

	require.NoError(t, f.router.OnCreateFolder(ctx, "p1", "/src//utils/", "s1"))

	file, err := f.store.GetByName(ctx, "p1", "src/utils/.gitkeep")
	require.NoError(t, err)
	assert.Empty(t, file.Content)

	deliveries := f.recorder.Deliveries()
	require.Len(t, deliveries, 2)
	assert.Equal(t, realtime.FolderCreated{Path: "src/utils"}, deliveries[0].Event.Data)
	assert.Equal(t, realtime.EventFilesUpdate, deliveries[1].Event.Name)
}

func TestOnCreateFolderMissingName(t *testing.T) {
	f := newFixture(Options{})

	err := f.router.OnCreateFolder(context.Background(), "p1", " ", "s1")
	assert.ErrorIs(t, err, filestore.ErrInvalidInput)
	assert.Empty(t, f.recorder.Deliveries())
}

func TestOnCreateFileRejectsFolderPath(t *testing.T) {
	f := newFixture(Options{})
	ctx := context.Background()

	err := f.router.OnCreateFile(ctx, "p1", "dir/", "x", "s1")
	assert.ErrorIs(t, err, filestore.ErrInvalidInput)
	assert.Empty(t, f.recorder.Deliveries())

	files, err := f.store.ListByProject(ctx, "p1")
	require.NoError(t, err)
	assert.Empty(t, files)
}

type failingStore struct {
	filestore.Store
}

func (failingStore) Upsert(ctx context.Context, projectID, name, content string) (*models.File, error) {
	return nil, errors.New("database unavailable")
}

func TestOnCreateFileStoreFailureBroadcastsNothing(t *testing.T) {
	rec := realtimetest.NewRecorder()
	router := NewRouter(failingStore{filestore.NewMemoryStore()}, &capturePersister{}, rec, Options{}, logger.Discard())

	err := router.OnCreateFile(context.Background(), "p1", "main.js", "x", "s1")
	assert.Error(t, err)
	assert.Empty(t, rec.Deliveries())
}
