package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"collab-service/internal/filestore"
	"collab-service/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FileRepository is the gorm-backed File Store. It works against any dialect
// opened by database.NewConnection; the connection must have TranslateError
// enabled so unique violations surface as gorm.ErrDuplicatedKey.
type FileRepository struct {
	db *gorm.DB
}

func NewFileRepository(db *gorm.DB) *FileRepository {
	return &FileRepository{db}
}

var _ filestore.Store = (*FileRepository)(nil)

func (r *FileRepository) Create(ctx context.Context, projectID, name, content string) (*models.File, error) {
	name = filestore.Normalize(name)
	if projectID == "" || name == "" {
		return nil, fmt.Errorf("create file: %w", filestore.ErrInvalidInput)
	}

	file := newFile(projectID, name, content)
	if err := r.db.WithContext(ctx).Create(file).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("create %s: %w", name, filestore.ErrAlreadyExists)
		}
		return nil, fmt.Errorf("create %s: %w", name, err)
	}
	return file, nil
}

func (r *FileRepository) GetByID(ctx context.Context, id string) (*models.File, error) {
	var file models.File
	err := r.db.WithContext(ctx).First(&file, "id = ?", id).Error
	if err != nil {
		return nil, translate(err, "file "+id)
	}
	return &file, nil
}

func (r *FileRepository) GetByName(ctx context.Context, projectID, name string) (*models.File, error) {
	name = filestore.Normalize(name)

	var file models.File
	err := r.db.WithContext(ctx).
		Where("project_id = ? AND name = ?", projectID, name).
		First(&file).Error
	if err != nil {
		return nil, translate(err, fmt.Sprintf("file %s in project %s", name, projectID))
	}
	return &file, nil
}

func (r *FileRepository) ListByProject(ctx context.Context, projectID string) ([]*models.File, error) {
	files := make([]*models.File, 0)
	err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("name").
		Find(&files).Error
	if err != nil {
		return nil, fmt.Errorf("list files of project %s: %w", projectID, err)
	}
	return files, nil
}

func (r *FileRepository) UpdateContent(ctx context.Context, id, content string) (*models.File, error) {
	res := r.db.WithContext(ctx).
		Model(&models.File{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"content": content, "updated_at": time.Now()})
	if res.Error != nil {
		return nil, fmt.Errorf("update file %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("file %s: %w", id, filestore.ErrNotFound)
	}
	return r.GetByID(ctx, id)
}

// Upsert inserts the file or overwrites the content of the existing
// (project, name) row in one statement, then reads back the stored row.
func (r *FileRepository) Upsert(ctx context.Context, projectID, name, content string) (*models.File, error) {
	name = filestore.Normalize(name)
	if projectID == "" || name == "" {
		return nil, fmt.Errorf("upsert file: %w", filestore.ErrInvalidInput)
	}

	file := newFile(projectID, name, content)
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "project_id"}, {Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"content", "updated_at"}),
		}).
		Create(file).Error
	if err != nil {
		return nil, fmt.Errorf("upsert %s: %w", name, err)
	}
	return r.GetByName(ctx, projectID, name)
}

func (r *FileRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&models.File{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("delete file %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("file %s: %w", id, filestore.ErrNotFound)
	}
	return nil
}

func newFile(projectID, name, content string) *models.File {
	now := time.Now()
	return &models.File{
		ID:        uuid.New().String(),
		ProjectID: projectID,
		Name:      name,
		Content:   content,
		Language:  filestore.Language(name),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func translate(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", what, filestore.ErrNotFound)
	}
	return fmt.Errorf("%s: %w", what, err)
}
