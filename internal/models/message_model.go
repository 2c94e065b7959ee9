package models

// enum
type MessageKind string

const (
	MessageKindText MessageKind = "text"
	MessageKindFile MessageKind = "file"
)

func (k MessageKind) IsValid() bool {
	return k == MessageKindText || k == MessageKindFile
}

// Message is a direct message between two users. Messages are immutable once
// stored and are never persisted outside the process.
type Message struct {
	ID          string      `json:"id"`
	SenderID    string      `json:"senderId"`
	RecipientID string      `json:"recipientId"`
	Content     string      `json:"content"`
	Timestamp   int64       `json:"timestamp"` // unix milliseconds
	Type        MessageKind `json:"type"`
	FileName    string      `json:"fileName,omitempty"`
	FileURL     string      `json:"fileUrl,omitempty"`
}

// UserStatus is one row of the usersUpdate and projectUsers payloads.
type UserStatus struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

const (
	StatusOnline  = "online"
	StatusOffline = "offline"
)

func StatusOf(online bool) string {
	if online {
		return StatusOnline
	}
	return StatusOffline
}
