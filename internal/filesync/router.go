package filesync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"collab-service/internal/filestore"
	"collab-service/internal/models"
	"collab-service/internal/realtime"
	"collab-service/pkg/logger"
)

type Options struct {
	// StrictCreate makes createFile fail on an existing name instead of
	// overwriting it.
	StrictCreate bool
	// StoreTimeout bounds each synchronous File Store call.
	StoreTimeout time.Duration
}

// Router bridges live file events with the File Store. Broadcasts for edits go
// out before persistence; creates are written first and then announced.
type Router struct {
	store       filestore.Store
	persister   Persister
	broadcaster realtime.Broadcaster
	opts        Options
	now         func() time.Time
	logger      *logger.Logger
}

func NewRouter(store filestore.Store, persister Persister, broadcaster realtime.Broadcaster, opts Options, log *logger.Logger) *Router {
	if opts.StoreTimeout <= 0 {
		opts.StoreTimeout = 5 * time.Second
	}
	return &Router{
		store:       store,
		persister:   persister,
		broadcaster: broadcaster,
		opts:        opts,
		now:         time.Now,
		logger:      log.Component("filesync"),
	}
}

// OnJoinProject sends the project's file list to the joining session only.
func (r *Router) OnJoinProject(ctx context.Context, projectID, sessionID string) error {
	files, err := r.snapshot(ctx, projectID)
	if err != nil {
		r.logger.Error("Failed to load files for joining session",
			"projectID", projectID, "sessionID", sessionID, "error", err)
		return err
	}
	r.broadcaster.ToSession(sessionID, realtime.NewEvent(realtime.EventFilesUpdate, realtime.FilesUpdate{Files: files}))
	return nil
}

// OnCodeChange relays an edit to the other sessions in the room and hands it
// to the persister. The broadcast does not wait for, or depend on, the write.
func (r *Router) OnCodeChange(projectID, filePath, content, sessionID string) {
	path := filestore.Normalize(filePath)
	if projectID == "" || path == "" {
		r.logger.Warn("Dropping codeChange with missing field",
			"projectID", projectID, "file", filePath, "sessionID", sessionID)
		return
	}

	r.broadcaster.ToRoom(realtime.ProjectRoom(projectID),
		realtime.NewEvent(realtime.EventCodeUpdate, realtime.CodeUpdate{File: path, Content: content}),
		sessionID)

	r.persister.Persist(FileChange{ProjectID: projectID, Path: path, Content: content, At: r.now()})
}

// OnCreateFile writes the file, announces it to the whole room and then sends
// the room the file list as read after the write.
func (r *Router) OnCreateFile(ctx context.Context, projectID, filename, content, sessionID string) error {
	path := filestore.Normalize(filename)
	if projectID == "" || path == "" || filestore.IsFolderPath(filename) {
		r.logger.Warn("Dropping createFile with missing field",
			"projectID", projectID, "filename", filename, "sessionID", sessionID)
		return fmt.Errorf("create file: %w", filestore.ErrInvalidInput)
	}

	file, err := r.write(ctx, projectID, path, content, r.opts.StrictCreate)
	if err != nil {
		if errors.Is(err, filestore.ErrAlreadyExists) {
			r.broadcaster.ToSession(sessionID, realtime.NewEvent(realtime.EventError, realtime.ErrorData{
				Code:    realtime.ErrCodeFileExists,
				Message: fmt.Sprintf("file %q already exists", path),
			}))
		}
		r.logger.Error("Failed to create file", "projectID", projectID, "path", path, "error", err)
		return err
	}

	room := realtime.ProjectRoom(projectID)
	r.broadcaster.ToRoom(room,
		realtime.NewEvent(realtime.EventFileCreated, realtime.FileCreated{Path: file.Name, Content: file.Content}), "")
	return r.broadcastSnapshot(ctx, projectID)
}

// OnCreateFolder records a folder through its placeholder file.
func (r *Router) OnCreateFolder(ctx context.Context, projectID, folderName, sessionID string) error {
	placeholder := filestore.FolderPlaceholder(folderName)
	if projectID == "" || placeholder == "" {
		r.logger.Warn("Dropping createFolder with missing field",
			"projectID", projectID, "folderName", folderName, "sessionID", sessionID)
		return fmt.Errorf("create folder: %w", filestore.ErrInvalidInput)
	}

	if _, err := r.write(ctx, projectID, placeholder, "", false); err != nil {
		r.logger.Error("Failed to create folder", "projectID", projectID, "path", placeholder, "error", err)
		return err
	}

	folder := placeholder[:len(placeholder)-len("/.gitkeep")]
	r.broadcaster.ToRoom(realtime.ProjectRoom(projectID),
		realtime.NewEvent(realtime.EventFolderCreated, realtime.FolderCreated{Path: folder}), "")
	return r.broadcastSnapshot(ctx, projectID)
}

func (r *Router) write(ctx context.Context, projectID, path, content string, strict bool) (*models.File, error) {
	ctx, cancel := context.WithTimeout(ctx, r.opts.StoreTimeout)
	defer cancel()

	if strict {
		return r.store.Create(ctx, projectID, path, content)
	}
	return r.store.Upsert(ctx, projectID, path, content)
}

func (r *Router) broadcastSnapshot(ctx context.Context, projectID string) error {
	files, err := r.snapshot(ctx, projectID)
	if err != nil {
		r.logger.Error("Failed to load files after write", "projectID", projectID, "error", err)
		return err
	}
	r.broadcaster.ToRoom(realtime.ProjectRoom(projectID),
		realtime.NewEvent(realtime.EventFilesUpdate, realtime.FilesUpdate{Files: files}), "")
	return nil
}

func (r *Router) snapshot(ctx context.Context, projectID string) ([]models.FileSnapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, r.opts.StoreTimeout)
	defer cancel()

	files, err := r.store.ListByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("list files of project %s: %w", projectID, err)
	}
	return models.Snapshot(files), nil
}
