package realtime

// EventName is the "event" field of every websocket frame.
type EventName string

// Inbound events (client -> server).
const (
	EventUserAuthenticated EventName = "userAuthenticated"
	EventJoinProject       EventName = "joinProject"
	EventLeaveProject      EventName = "leaveProject"
	EventCodeChange        EventName = "codeChange"
	EventCreateFile        EventName = "createFile"
	EventCreateFolder      EventName = "createFolder"
	EventJoinChat          EventName = "joinChat"
	EventLeaveChat         EventName = "leaveChat"
	EventSendMessage       EventName = "sendMessage"
	EventTyping            EventName = "typing"
	EventUserLogout        EventName = "userLogout"
)

// Outbound events (server -> client).
const (
	EventFilesUpdate   EventName = "filesUpdate"
	EventFileCreated   EventName = "fileCreated"
	EventFolderCreated EventName = "folderCreated"
	EventCodeUpdate    EventName = "codeUpdate"
	EventUsersUpdate   EventName = "usersUpdate"
	EventProjectUsers  EventName = "projectUsers"
	EventChatHistory   EventName = "chatHistory"
	EventNewMessage    EventName = "newMessage"
	EventUserTyping    EventName = "userTyping"
	EventError         EventName = "error"
)

func (e EventName) String() string {
	return string(e)
}

// IsInbound reports whether clients may send this event.
func (e EventName) IsInbound() bool {
	_, ok := inboundFactories[e]
	return ok
}

// GetAllInboundEvents lists every event a client may send.
func GetAllInboundEvents() []EventName {
	return []EventName{
		EventUserAuthenticated, EventJoinProject, EventLeaveProject, EventCodeChange,
		EventCreateFile, EventCreateFolder, EventJoinChat, EventLeaveChat,
		EventSendMessage, EventTyping, EventUserLogout,
	}
}
