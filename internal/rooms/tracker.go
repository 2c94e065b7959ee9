package rooms

import (
	"sort"
	"sync"

	"collab-service/internal/models"
	"collab-service/internal/realtime"
	"collab-service/pkg/logger"
)

// StatusSource reports presence for a list of users. *presence.Registry
// satisfies it.
type StatusSource interface {
	Statuses(userIDs []string) []models.UserStatus
}

// Tracker keeps broadcast subscriptions for project and chat rooms plus the
// logical member set of each project. Member sets only ever grow; leaving a
// room drops the subscription and nothing else.
type Tracker struct {
	mu           sync.RWMutex
	subscribers  map[realtime.RoomID]map[string]struct{} // room -> sessionIDs
	sessionRooms map[string]map[realtime.RoomID]struct{} // sessionID -> rooms
	members      map[string]map[string]struct{}          // projectID -> userIDs

	presence StatusSource
	logger   *logger.Logger
}

func NewTracker(presence StatusSource, log *logger.Logger) *Tracker {
	return &Tracker{
		subscribers:  make(map[realtime.RoomID]map[string]struct{}),
		sessionRooms: make(map[string]map[realtime.RoomID]struct{}),
		members:      make(map[string]map[string]struct{}),
		presence:     presence,
		logger:       log.Component("rooms"),
	}
}

// JoinProject subscribes sessionID to the project room and records userID as
// a member. It returns every member with their current status, sorted by id.
// ok is false when an id is missing; the join is then dropped.
func (t *Tracker) JoinProject(projectID, userID, sessionID string) (members []models.UserStatus, ok bool) {
	if projectID == "" || userID == "" || sessionID == "" {
		t.logger.Warn("Dropping joinProject with missing id",
			"projectID", projectID, "userID", userID, "sessionID", sessionID)
		return nil, false
	}

	t.mu.Lock()
	t.subscribeLocked(realtime.ProjectRoom(projectID), sessionID)
	set, exists := t.members[projectID]
	if !exists {
		set = make(map[string]struct{})
		t.members[projectID] = set
	}
	set[userID] = struct{}{}
	ids := sortedKeys(set)
	t.mu.Unlock()

	t.logger.Debug("Session joined project", "projectID", projectID, "userID", userID, "sessionID", sessionID)
	return t.presence.Statuses(ids), true
}

// LeaveProject drops the session's subscription to the project room. The user
// stays a member.
func (t *Tracker) LeaveProject(projectID, sessionID string) bool {
	if projectID == "" || sessionID == "" {
		t.logger.Warn("Dropping leaveProject with missing id", "projectID", projectID, "sessionID", sessionID)
		return false
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	return t.unsubscribeLocked(realtime.ProjectRoom(projectID), sessionID)
}

// JoinChat subscribes sessionID to the chat room shared by userA and userB.
func (t *Tracker) JoinChat(userA, userB, sessionID string) (realtime.RoomID, bool) {
	if userA == "" || userB == "" || sessionID == "" {
		t.logger.Warn("Dropping joinChat with missing id", "userA", userA, "userB", userB, "sessionID", sessionID)
		return "", false
	}

	room := realtime.ChatRoom(userA, userB)
	t.mu.Lock()
	t.subscribeLocked(room, sessionID)
	t.mu.Unlock()
	return room, true
}

func (t *Tracker) LeaveChat(userA, userB, sessionID string) bool {
	if userA == "" || userB == "" || sessionID == "" {
		t.logger.Warn("Dropping leaveChat with missing id", "userA", userA, "userB", userB, "sessionID", sessionID)
		return false
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	return t.unsubscribeLocked(realtime.ChatRoom(userA, userB), sessionID)
}

// Sessions returns the sessions subscribed to room, sorted.
func (t *Tracker) Sessions(room realtime.RoomID) []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return sortedKeys(t.subscribers[room])
}

// Rooms returns the rooms sessionID is subscribed to.
func (t *Tracker) Rooms(sessionID string) []realtime.RoomID {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return sortedRooms(t.sessionRooms[sessionID])
}

func (t *Tracker) IsSubscribed(room realtime.RoomID, sessionID string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.subscribers[room][sessionID]
	return ok
}

// LeaveAll drops every subscription held by sessionID and returns the rooms
// it left.
func (t *Tracker) LeaveAll(sessionID string) []realtime.RoomID {
	t.mu.Lock()
	defer t.mu.Unlock()

	left := sortedRooms(t.sessionRooms[sessionID])
	for _, room := range left {
		t.unsubscribeLocked(room, sessionID)
	}
	return left
}

// Members returns the logical members of a project, sorted.
func (t *Tracker) Members(projectID string) []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return sortedKeys(t.members[projectID])
}

func (t *Tracker) subscribeLocked(room realtime.RoomID, sessionID string) {
	subs, ok := t.subscribers[room]
	if !ok {
		subs = make(map[string]struct{})
		t.subscribers[room] = subs
	}
	subs[sessionID] = struct{}{}

	joined, ok := t.sessionRooms[sessionID]
	if !ok {
		joined = make(map[realtime.RoomID]struct{})
		t.sessionRooms[sessionID] = joined
	}
	joined[room] = struct{}{}
}

func (t *Tracker) unsubscribeLocked(room realtime.RoomID, sessionID string) bool {
	subs, ok := t.subscribers[room]
	if !ok {
		return false
	}
	if _, ok := subs[sessionID]; !ok {
		return false
	}
	delete(subs, sessionID)
	if len(subs) == 0 {
		delete(t.subscribers, room)
	}

	if joined := t.sessionRooms[sessionID]; joined != nil {
		delete(joined, room)
		if len(joined) == 0 {
			delete(t.sessionRooms, sessionID)
		}
	}
	return true
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func sortedRooms(set map[realtime.RoomID]struct{}) []realtime.RoomID {
	out := make([]realtime.RoomID, 0, len(set))
	for r := range set {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
