package presence

import (
	"sort"
	"sync"

	"collab-service/internal/models"
	"collab-service/pkg/logger"
)

// Change describes one online/offline transition together with the full
// presence table as it stood right after the transition.
type Change struct {
	UserID   string
	Online   bool
	Snapshot []models.UserStatus
}

// Notifier observes presence transitions. Notifiers are called one change at
// a time, in the order the transitions happened, and must not call back into
// the Registry.
type Notifier interface {
	PresenceChanged(change Change)
}

// Registry tracks which sessions belong to which user. A user is online while
// at least one session is bound to them.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]string              // sessionID -> userID
	users    map[string]map[string]struct{} // userID -> sessionIDs
	known    map[string]struct{}            // every user ever seen, for snapshots

	// emitMu is taken before mu is released so notifications leave in
	// mutation order.
	emitMu    sync.Mutex
	notifiers []Notifier

	logger *logger.Logger
}

func NewRegistry(log *logger.Logger, notifiers ...Notifier) *Registry {
	return &Registry{
		sessions:  make(map[string]string),
		users:     make(map[string]map[string]struct{}),
		known:     make(map[string]struct{}),
		notifiers: notifiers,
		logger:    log.Component("presence"),
	}
}

// AddNotifier registers an observer. It is meant for wiring at startup.
func (r *Registry) AddNotifier(n Notifier) {
	r.emitMu.Lock()
	defer r.emitMu.Unlock()
	r.notifiers = append(r.notifiers, n)
}

// MarkOnline binds sessionID to userID. Binding the same pair twice is a
// no-op. A session already bound to another user is moved, which may take
// that user offline. It reports whether userID transitioned to online.
func (r *Registry) MarkOnline(userID, sessionID string) bool {
	if userID == "" || sessionID == "" {
		r.logger.Warn("Ignoring markOnline with missing id", "userID", userID, "sessionID", sessionID)
		return false
	}

	r.mu.Lock()
	changes := make([]Change, 0, 2)

	if prev, bound := r.sessions[sessionID]; bound {
		if prev == userID {
			r.mu.Unlock()
			return false
		}
		if r.detachLocked(prev, sessionID) {
			changes = append(changes, Change{UserID: prev, Online: false})
		}
	}

	r.sessions[sessionID] = userID
	r.known[userID] = struct{}{}
	set, ok := r.users[userID]
	if !ok {
		set = make(map[string]struct{})
		r.users[userID] = set
	}
	set[sessionID] = struct{}{}
	cameOnline := len(set) == 1
	if cameOnline {
		changes = append(changes, Change{UserID: userID, Online: true})
	}

	r.emitLocked(changes)
	return cameOnline
}

// MarkOffline unbinds sessionID. The owning user goes offline only when this
// was their last session. Unknown sessions are ignored. It reports whether a
// user transitioned to offline.
func (r *Registry) MarkOffline(sessionID string) bool {
	r.mu.Lock()
	userID, bound := r.sessions[sessionID]
	if !bound {
		r.mu.Unlock()
		return false
	}

	wentOffline := r.detachLocked(userID, sessionID)
	var changes []Change
	if wentOffline {
		changes = []Change{{UserID: userID, Online: false}}
	} else {
		r.logger.Debug("Session closed, user still online", "userID", userID, "sessionID", sessionID)
	}

	r.emitLocked(changes)
	return wentOffline
}

func (r *Registry) IsOnline(userID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users[userID]) > 0
}

// UserOf returns the user bound to sessionID.
func (r *Registry) UserOf(sessionID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	userID, ok := r.sessions[sessionID]
	return userID, ok
}

// SessionCount returns the number of live sessions bound to userID.
func (r *Registry) SessionCount(userID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users[userID])
}

// Snapshot lists every known user with their status, sorted by id.
func (r *Registry) Snapshot() []models.UserStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshotLocked()
}

// Statuses reports the status of the given users, in the given order.
func (r *Registry) Statuses(userIDs []string) []models.UserStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.UserStatus, 0, len(userIDs))
	for _, id := range userIDs {
		out = append(out, models.UserStatus{ID: id, Status: models.StatusOf(len(r.users[id]) > 0)})
	}
	return out
}

func (r *Registry) detachLocked(userID, sessionID string) bool {
	delete(r.sessions, sessionID)
	set := r.users[userID]
	delete(set, sessionID)
	if len(set) == 0 {
		delete(r.users, userID)
		return true
	}
	return false
}

func (r *Registry) snapshotLocked() []models.UserStatus {
	ids := make([]string, 0, len(r.known))
	for id := range r.known {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]models.UserStatus, 0, len(ids))
	for _, id := range ids {
		out = append(out, models.UserStatus{ID: id, Status: models.StatusOf(len(r.users[id]) > 0)})
	}
	return out
}

// emitLocked is called with mu held and releases it. Snapshots are taken
// under mu; notifiers run under emitMu only.
func (r *Registry) emitLocked(changes []Change) {
	if len(changes) == 0 {
		r.mu.Unlock()
		return
	}
	snap := r.snapshotLocked()
	for i := range changes {
		changes[i].Snapshot = snap
	}

	r.emitMu.Lock()
	r.mu.Unlock()
	defer r.emitMu.Unlock()

	for _, c := range changes {
		r.logger.Info("Presence changed", "userID", c.UserID, "online", c.Online)
		for _, n := range r.notifiers {
			n.PresenceChanged(c)
		}
	}
}
