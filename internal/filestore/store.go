package filestore

import (
	"context"
	"errors"

	"collab-service/internal/models"
)

var (
	ErrNotFound      = errors.New("file not found")
	ErrAlreadyExists = errors.New("file already exists")
	ErrInvalidInput  = errors.New("invalid input")
)

// Store is the File Store collaborator. Implementations normalize names
// before every lookup and write.
type Store interface {
	Create(ctx context.Context, projectID, name, content string) (*models.File, error)
	GetByID(ctx context.Context, id string) (*models.File, error)
	GetByName(ctx context.Context, projectID, name string) (*models.File, error)
	ListByProject(ctx context.Context, projectID string) ([]*models.File, error)
	UpdateContent(ctx context.Context, id, content string) (*models.File, error)
	Upsert(ctx context.Context, projectID, name, content string) (*models.File, error)
	Delete(ctx context.Context, id string) error
}
