package realtime

import "collab-service/internal/models"

// Inbound is a decoded, validated client event.
type Inbound interface {
	Event() EventName
}

type UserAuthenticated struct {
	UserID string `json:"userId" validate:"required"`
}

type JoinProject struct {
	ProjectID string `json:"projectId" validate:"required"`
	UserID    string `json:"userId" validate:"required"`
}

type LeaveProject struct {
	ProjectID string `json:"projectId" validate:"required"`
}

// CodeChange carries Content as a pointer: an empty file is a legal edit,
// a missing content field is not.
type CodeChange struct {
	File      string  `json:"file" validate:"required"`
	Content   *string `json:"content" validate:"required"`
	ProjectID string  `json:"projectId" validate:"required"`
}

type CreateFile struct {
	ProjectID string `json:"projectId" validate:"required"`
	Filename  string `json:"filename" validate:"required"`
	Content   string `json:"content"`
}

type CreateFolder struct {
	ProjectID  string `json:"projectId" validate:"required"`
	FolderName string `json:"folderName" validate:"required"`
}

type JoinChat struct {
	RecipientID string `json:"recipientId" validate:"required"`
}

type LeaveChat struct {
	RecipientID string `json:"recipientId" validate:"required"`
}

type SendMessage struct {
	SenderID    string             `json:"senderId" validate:"required"`
	RecipientID string             `json:"recipientId" validate:"required"`
	Content     string             `json:"content"`
	Type        models.MessageKind `json:"type" validate:"omitempty,oneof=text file"`
	FileName    string             `json:"fileName,omitempty"`
	FileURL     string             `json:"fileUrl,omitempty" validate:"omitempty,uri"`
}

type Typing struct {
	RecipientID string `json:"recipientId" validate:"required"`
	IsTyping    bool   `json:"isTyping"`
}

type UserLogout struct{}

func (UserAuthenticated) Event() EventName { return EventUserAuthenticated }
func (JoinProject) Event() EventName       { return EventJoinProject }
func (LeaveProject) Event() EventName      { return EventLeaveProject }
func (CodeChange) Event() EventName        { return EventCodeChange }
func (CreateFile) Event() EventName        { return EventCreateFile }
func (CreateFolder) Event() EventName      { return EventCreateFolder }
func (JoinChat) Event() EventName          { return EventJoinChat }
func (LeaveChat) Event() EventName         { return EventLeaveChat }
func (SendMessage) Event() EventName       { return EventSendMessage }
func (Typing) Event() EventName            { return EventTyping }
func (UserLogout) Event() EventName        { return EventUserLogout }

// Outbound payloads.

type FilesUpdate struct {
	Files []models.FileSnapshot `json:"files"`
}

type FileCreated struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

type FolderCreated struct {
	Path string `json:"path"`
}

type CodeUpdate struct {
	File    string `json:"file"`
	Content string `json:"content"`
}

type UserTyping struct {
	UserID   string `json:"userId"`
	IsTyping bool   `json:"isTyping"`
}

type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes sent in ErrorData.
const (
	ErrCodeFileExists = "FILE_EXISTS"
)
