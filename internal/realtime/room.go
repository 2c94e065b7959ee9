package realtime

import (
	"fmt"
	"strings"
)

// RoomID names a broadcast scope.
type RoomID string

const (
	projectRoomPrefix = "project:"
	chatRoomPrefix    = "chat:"
)

func ProjectRoom(projectID string) RoomID {
	return RoomID(projectRoomPrefix + projectID)
}

// ChatRoomID is the order-independent id of the conversation between two
// users. The shorter-sorting id is length-prefixed so that no two distinct
// pairs can produce the same id, whatever characters the user ids contain.
func ChatRoomID(userA, userB string) string {
	if userB < userA {
		userA, userB = userB, userA
	}
	return fmt.Sprintf("%d:%s:%s", len(userA), userA, userB)
}

func ChatRoom(userA, userB string) RoomID {
	return RoomID(chatRoomPrefix + ChatRoomID(userA, userB))
}

func (r RoomID) IsProject() bool {
	return strings.HasPrefix(string(r), projectRoomPrefix)
}

func (r RoomID) IsChat() bool {
	return strings.HasPrefix(string(r), chatRoomPrefix)
}

// ProjectID returns the project id of a project room, or "".
func (r RoomID) ProjectID() string {
	if !r.IsProject() {
		return ""
	}
	return strings.TrimPrefix(string(r), projectRoomPrefix)
}
