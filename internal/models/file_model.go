package models

import "time"

/** --------------------ENTITIES-------------------- */
// File is a project file persisted by the File Store. Name is always stored
// normalized; (ProjectID, Name) is unique.
type File struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	ProjectID string    `gorm:"size:64;not null;uniqueIndex:idx_files_project_name" json:"projectId"`
	Name      string    `gorm:"size:512;not null;uniqueIndex:idx_files_project_name" json:"name"`
	Content   string    `gorm:"type:text" json:"content"`
	Language  string    `gorm:"size:32" json:"language"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

/** -------------------- DTOs -------------------- */
// FileSnapshot is one entry of a filesUpdate snapshot.
type FileSnapshot struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// Snapshot converts records into the wire snapshot, preserving order.
func Snapshot(files []*File) []FileSnapshot {
	out := make([]FileSnapshot, 0, len(files))
	for _, f := range files {
		out = append(out, FileSnapshot{Path: f.Name, Content: f.Content})
	}
	return out
}
