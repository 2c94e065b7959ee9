package websocket

import (
	"context"
	"errors"
	"sync"
	"time"

	"collab-service/internal/directmsg"
	"collab-service/internal/filesync"
	"collab-service/internal/metrics"
	"collab-service/internal/presence"
	"collab-service/internal/realtime"
	"collab-service/internal/rooms"
	"collab-service/pkg/logger"

	"github.com/google/uuid"
)

var (
	ErrClientDisconnected = errors.New("client disconnected")
	ErrSendBufferFull     = errors.New("send buffer full")
)

// Transport is the connection a Session writes to. Send must not block; a
// transport that cannot keep up closes itself.
type Transport interface {
	Send(data []byte) error
	Close() error
}

// Session is one physical connection and the identity bound to it.
type Session struct {
	ID        string
	transport Transport

	mu     sync.RWMutex
	userID string
	// pinned is set when the identity came from a verified token; later
	// userAuthenticated events may not change it.
	pinned bool
}

func (s *Session) UserID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userID
}

// bind sets the session's user and returns the one it replaced.
func (s *Session) bind(userID string, pinned bool) (previous string, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pinned && s.userID != userID {
		return s.userID, false
	}
	previous = s.userID
	s.userID = userID
	s.pinned = s.pinned || pinned
	return previous, true
}

// Hub owns every Session and routes inbound events to the presence, room,
// file and chat components. It is also their Broadcaster.
type Hub struct {
	sessions map[string]*Session
	mu       sync.RWMutex

	// Unregister requests from client read loops
	unregister chan string

	presence *presence.Registry
	rooms    *rooms.Tracker
	files    *filesync.Router
	chat     *directmsg.Service

	ctx    context.Context
	cancel context.CancelFunc

	logger *logger.Logger
}

func NewHub(registry *presence.Registry, tracker *rooms.Tracker, log *logger.Logger) *Hub {
	ctx, cancel := context.WithCancel(context.Background())

	return &Hub{
		sessions:   make(map[string]*Session),
		unregister: make(chan string),
		presence:   registry,
		rooms:      tracker,
		ctx:        ctx,
		cancel:     cancel,
		logger:     log.Component("hub"),
	}
}

// Use attaches the components that need the hub as their Broadcaster. It must
// be called before the first Dispatch.
func (h *Hub) Use(files *filesync.Router, chat *directmsg.Service) {
	h.files = files
	h.chat = chat
}

var (
	_ realtime.Broadcaster = (*Hub)(nil)
	_ presence.Notifier    = (*Hub)(nil)
)

func (h *Hub) Run() {
	for {
		select {
		case sessionID := <-h.unregister:
			h.Disconnect(sessionID)

		case <-h.ctx.Done():
			h.logger.Info("WebSocket hub shutting down")
			return
		}
	}
}

// Stop terminates every session and ends Run.
func (h *Hub) Stop() {
	h.cancel()

	h.mu.RLock()
	ids := make([]string, 0, len(h.sessions))
	for id := range h.sessions {
		ids = append(ids, id)
	}
	h.mu.RUnlock()

	for _, id := range ids {
		h.Disconnect(id)
	}
}

// requestUnregister hands a closed session to Run, falling back to a direct
// Disconnect when the loop is not draining.
func (h *Hub) requestUnregister(sessionID string) {
	select {
	case h.unregister <- sessionID:
	case <-h.ctx.Done():
		h.Disconnect(sessionID)
	case <-time.After(5 * time.Second):
		h.logger.Warn("Timeout sending unregister request", "sessionID", sessionID)
		h.Disconnect(sessionID)
	}
}

// Connect registers a new unauthenticated session on t.
func (h *Hub) Connect(t Transport) *Session {
	return h.ConnectAs(t, "")
}

// ConnectAs registers a session whose user was already verified by the
// identity provider. An empty userID leaves the session unauthenticated.
func (h *Hub) ConnectAs(t Transport, userID string) *Session {
	return h.connect(uuid.NewString(), t, userID)
}

func (h *Hub) connect(sessionID string, t Transport, userID string) *Session {
	s := &Session{ID: sessionID, transport: t}

	h.mu.Lock()
	h.sessions[s.ID] = s
	h.mu.Unlock()
	metrics.WsConnections.Inc()

	h.logger.Info("Session connected", "sessionID", s.ID, "userID", userID)
	if userID != "" {
		s.bind(userID, true)
		h.presence.MarkOnline(userID, s.ID)
	}
	return s
}

// Disconnect terminates a session: it leaves every room, goes offline in the
// presence registry and its transport is closed. Unknown ids are ignored.
func (h *Hub) Disconnect(sessionID string) {
	h.mu.Lock()
	s, ok := h.sessions[sessionID]
	if ok {
		delete(h.sessions, sessionID)
	}
	h.mu.Unlock()
	if !ok {
		return
	}
	metrics.WsConnections.Dec()

	left := h.rooms.LeaveAll(sessionID)
	h.presence.MarkOffline(sessionID)
	if err := s.transport.Close(); err != nil {
		h.logger.Debug("Error closing transport", "sessionID", sessionID, "error", err)
	}
	h.logger.Info("Session terminated", "sessionID", sessionID, "userID", s.UserID(), "rooms", len(left))
}

// Session returns a live session.
func (h *Hub) Session(sessionID string) (*Session, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	s, ok := h.sessions[sessionID]
	return s, ok
}

func (h *Hub) SessionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// Dispatch decodes one inbound frame from sessionID and routes it. Frames
// from one session must be dispatched sequentially. Nothing is returned to
// the sender on failure; bad events are logged and dropped.
func (h *Hub) Dispatch(ctx context.Context, sessionID string, frame []byte) {
	s, ok := h.Session(sessionID)
	if !ok {
		h.logger.Debug("Dropping frame for unknown session", "sessionID", sessionID)
		return
	}

	evt, err := realtime.Decode(frame)
	if err != nil {
		metrics.WsEventsDropped.WithLabelValues(metrics.ReasonDecode).Inc()
		h.logger.Warn("Dropping undecodable event", "sessionID", sessionID, "error", err)
		return
	}
	metrics.WsEventsTotal.WithLabelValues(evt.Event().String()).Inc()

	userID := s.UserID()
	if userID == "" && evt.Event() != realtime.EventUserAuthenticated && evt.Event() != realtime.EventUserLogout {
		h.drop(metrics.ReasonUnauthenticated, "Dropping event from unauthenticated session",
			"sessionID", sessionID, "event", evt.Event())
		return
	}

	switch e := evt.(type) {
	case *realtime.UserAuthenticated:
		h.authenticate(s, e.UserID)

	case *realtime.JoinProject:
		h.joinProject(ctx, s, userID, e)

	case *realtime.LeaveProject:
		h.rooms.LeaveProject(e.ProjectID, sessionID)

	case *realtime.CodeChange:
		h.files.OnCodeChange(e.ProjectID, e.File, *e.Content, sessionID)

	case *realtime.CreateFile:
		h.files.OnCreateFile(ctx, e.ProjectID, e.Filename, e.Content, sessionID)

	case *realtime.CreateFolder:
		h.files.OnCreateFolder(ctx, e.ProjectID, e.FolderName, sessionID)

	case *realtime.JoinChat:
		h.chat.Join(userID, e.RecipientID, sessionID, func() bool {
			_, ok := h.rooms.JoinChat(userID, e.RecipientID, sessionID)
			return ok
		})

	case *realtime.LeaveChat:
		h.rooms.LeaveChat(userID, e.RecipientID, sessionID)

	case *realtime.SendMessage:
		if e.SenderID != userID {
			h.drop(metrics.ReasonInvalid, "Dropping message with foreign senderId",
				"sessionID", sessionID, "userID", userID, "senderID", e.SenderID)
			return
		}
		h.chat.Send(directmsg.SendRequest{
			SenderID:    userID,
			RecipientID: e.RecipientID,
			Content:     e.Content,
			Type:        e.Type,
			FileName:    e.FileName,
			FileURL:     e.FileURL,
		})

	case *realtime.Typing:
		h.chat.SetTyping(userID, e.RecipientID, e.IsTyping, sessionID)

	case *realtime.UserLogout:
		h.logger.Info("User logged out", "sessionID", sessionID, "userID", userID)
		h.Disconnect(sessionID)

	default:
		h.logger.Warn("No handler for event", "sessionID", sessionID, "event", evt.Event())
	}
}

func (h *Hub) authenticate(s *Session, userID string) {
	previous, ok := s.bind(userID, false)
	if !ok {
		h.drop(metrics.ReasonInvalid, "Dropping userAuthenticated that contradicts token identity",
			"sessionID", s.ID, "userID", previous, "claimed", userID)
		return
	}
	if previous != "" && previous != userID {
		// Rooms joined as the previous user are not the new user's to hear.
		left := h.rooms.LeaveAll(s.ID)
		h.logger.Info("Session switched user", "sessionID", s.ID, "from", previous, "to", userID, "roomsLeft", len(left))
	}
	h.presence.MarkOnline(userID, s.ID)
}

func (h *Hub) joinProject(ctx context.Context, s *Session, userID string, e *realtime.JoinProject) {
	if e.UserID != userID {
		h.drop(metrics.ReasonInvalid, "Dropping joinProject for another user",
			"sessionID", s.ID, "userID", userID, "claimed", e.UserID)
		return
	}

	members, ok := h.rooms.JoinProject(e.ProjectID, userID, s.ID)
	if !ok {
		return
	}
	h.ToRoom(realtime.ProjectRoom(e.ProjectID), realtime.NewEvent(realtime.EventProjectUsers, members), "")
	h.files.OnJoinProject(ctx, e.ProjectID, s.ID)
}

func (h *Hub) drop(reason, msg string, args ...any) {
	metrics.WsEventsDropped.WithLabelValues(reason).Inc()
	h.logger.Warn(msg, args...)
}

// PresenceChanged broadcasts the presence table to every session.
func (h *Hub) PresenceChanged(change presence.Change) {
	h.ToAll(realtime.NewEvent(realtime.EventUsersUpdate, change.Snapshot))
}

func (h *Hub) ToSession(sessionID string, evt realtime.Event) {
	s, ok := h.Session(sessionID)
	if !ok {
		return
	}
	data, err := realtime.Encode(evt)
	if err != nil {
		h.logger.Error("Failed to encode event", "event", evt.Name, "error", err)
		return
	}
	h.send(s, data)
}

func (h *Hub) ToRoom(room realtime.RoomID, evt realtime.Event, exceptSessionID string) {
	ids := h.rooms.Sessions(room)
	if len(ids) == 0 {
		return
	}
	data, err := realtime.Encode(evt)
	if err != nil {
		h.logger.Error("Failed to encode event", "event", evt.Name, "room", room, "error", err)
		return
	}

	h.mu.RLock()
	targets := make([]*Session, 0, len(ids))
	for _, id := range ids {
		if id == exceptSessionID {
			continue
		}
		if s, ok := h.sessions[id]; ok {
			targets = append(targets, s)
		}
	}
	h.mu.RUnlock()

	for _, s := range targets {
		h.send(s, data)
	}
}

func (h *Hub) ToAll(evt realtime.Event) {
	data, err := realtime.Encode(evt)
	if err != nil {
		h.logger.Error("Failed to encode event", "event", evt.Name, "error", err)
		return
	}

	h.mu.RLock()
	targets := make([]*Session, 0, len(h.sessions))
	for _, s := range h.sessions {
		targets = append(targets, s)
	}
	h.mu.RUnlock()

	for _, s := range targets {
		h.send(s, data)
	}
}

// send never calls back into the hub: a failed transport closes itself and
// its read loop unregisters the session.
func (h *Hub) send(s *Session, data []byte) {
	if err := s.transport.Send(data); err != nil {
		h.logger.Warn("Failed to deliver event", "sessionID", s.ID, "error", err)
		if cerr := s.transport.Close(); cerr != nil {
			h.logger.Debug("Error closing transport", "sessionID", s.ID, "error", cerr)
		}
	}
}
