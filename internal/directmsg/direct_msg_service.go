package directmsg

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"collab-service/internal/metrics"
	"collab-service/internal/models"
	"collab-service/internal/realtime"
	"collab-service/pkg/logger"

	"github.com/google/uuid"
)

var (
	ErrMissingSender    = errors.New("message has no sender")
	ErrMissingRecipient = errors.New("message has no recipient")
	ErrEmptyMessage     = errors.New("message has no content")
	ErrInvalidKind      = errors.New("unknown message type")
)

type SendRequest struct {
	SenderID    string
	RecipientID string
	Content     string
	Type        models.MessageKind
	FileName    string
	FileURL     string
}

// Service routes direct messages and typing indicators between two users.
// Within one chat room, storing a message and broadcasting it happen under
// the room's lock, so newMessage order equals history order.
type Service struct {
	history     HistoryRepository
	broadcaster realtime.Broadcaster
	now         func() time.Time
	logger      *logger.Logger

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

func NewService(history HistoryRepository, broadcaster realtime.Broadcaster, log *logger.Logger) *Service {
	return &Service{
		history:     history,
		broadcaster: broadcaster,
		now:         time.Now,
		logger:      log.Component("directmsg"),
		locks:       make(map[string]*sync.Mutex),
	}
}

func (s *Service) roomLock(roomID string) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	l, ok := s.locks[roomID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[roomID] = l
	}
	return l
}

// RoomID is the chat room shared by two users, whatever the argument order.
func RoomID(userA, userB string) string {
	return realtime.ChatRoomID(userA, userB)
}

// Send stores a message and delivers it to every session in the chat room,
// the sender's own sessions included.
func (s *Service) Send(req SendRequest) (models.Message, error) {
	if err := validateRequest(&req); err != nil {
		s.logger.Warn("Dropping message", "senderID", req.SenderID, "recipientID", req.RecipientID, "error", err)
		return models.Message{}, err
	}

	msg := models.Message{
		ID:          uuid.NewString(),
		SenderID:    req.SenderID,
		RecipientID: req.RecipientID,
		Content:     req.Content,
		Timestamp:   s.now().UnixMilli(),
		Type:        req.Type,
		FileName:    req.FileName,
		FileURL:     req.FileURL,
	}

	roomID := RoomID(msg.SenderID, msg.RecipientID)
	l := s.roomLock(roomID)
	l.Lock()
	defer l.Unlock()

	s.history.Append(roomID, msg)
	metrics.ChatMessagesTotal.Inc()

	s.broadcaster.ToRoom(realtime.ChatRoom(msg.SenderID, msg.RecipientID),
		realtime.NewEvent(realtime.EventNewMessage, msg), "")
	return msg, nil
}

// History returns the stored messages between two users, oldest first.
func (s *Service) History(userA, userB string) []models.Message {
	return s.history.Messages(RoomID(userA, userB))
}

// SendHistory replays the chat history to one session.
func (s *Service) SendHistory(userA, userB, sessionID string) {
	s.broadcaster.ToSession(sessionID, realtime.NewEvent(realtime.EventChatHistory, s.History(userA, userB)))
}

// Join runs subscribe and then replays the history to sessionID, with no
// message sent in between. A message is therefore either in the replay or
// delivered as newMessage afterwards, never both. It reports subscribe's
// result; nothing is replayed when subscribe fails.
func (s *Service) Join(userA, userB, sessionID string, subscribe func() bool) bool {
	l := s.roomLock(RoomID(userA, userB))
	l.Lock()
	defer l.Unlock()

	if !subscribe() {
		return false
	}
	s.SendHistory(userA, userB, sessionID)
	return true
}

// SetTyping tells the other sessions in the chat room that senderID started
// or stopped typing. Nothing is stored.
func (s *Service) SetTyping(senderID, recipientID string, isTyping bool, sessionID string) {
	if senderID == "" || recipientID == "" {
		s.logger.Warn("Dropping typing indicator with missing id", "senderID", senderID, "recipientID", recipientID)
		return
	}
	s.broadcaster.ToRoom(realtime.ChatRoom(senderID, recipientID),
		realtime.NewEvent(realtime.EventUserTyping, realtime.UserTyping{UserID: senderID, IsTyping: isTyping}),
		sessionID)
}

func validateRequest(req *SendRequest) error {
	if req.SenderID == "" {
		return ErrMissingSender
	}
	if req.RecipientID == "" {
		return ErrMissingRecipient
	}
	if req.Type == "" {
		req.Type = models.MessageKindText
	}
	if !req.Type.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidKind, req.Type)
	}
	if req.Type == models.MessageKindFile {
		if req.FileURL == "" {
			return fmt.Errorf("%w: file message without fileUrl", ErrEmptyMessage)
		}
		return nil
	}
	if req.Content == "" {
		return ErrEmptyMessage
	}
	return nil
}
