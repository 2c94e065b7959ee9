// Package realtimetest provides a Broadcaster that records deliveries.
package realtimetest

import (
	"sync"

	"collab-service/internal/realtime"
)

type Scope string

const (
	ScopeSession Scope = "session"
	ScopeRoom    Scope = "room"
	ScopeAll     Scope = "all"
)

// Delivery is one recorded Broadcaster call.
type Delivery struct {
	Scope     Scope
	SessionID string
	Room      realtime.RoomID
	Except    string
	Event     realtime.Event
}

type Recorder struct {
	mu         sync.Mutex
	deliveries []Delivery
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

var _ realtime.Broadcaster = (*Recorder)(nil)

func (r *Recorder) ToSession(sessionID string, evt realtime.Event) {
	r.record(Delivery{Scope: ScopeSession, SessionID: sessionID, Event: evt})
}

func (r *Recorder) ToRoom(room realtime.RoomID, evt realtime.Event, exceptSessionID string) {
	r.record(Delivery{Scope: ScopeRoom, Room: room, Except: exceptSessionID, Event: evt})
}

func (r *Recorder) ToAll(evt realtime.Event) {
	r.record(Delivery{Scope: ScopeAll, Event: evt})
}

func (r *Recorder) record(d Delivery) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deliveries = append(r.deliveries, d)
}

// Deliveries returns a copy of everything recorded so far.
func (r *Recorder) Deliveries() []Delivery {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Delivery, len(r.deliveries))
	copy(out, r.deliveries)
	return out
}

// Named returns the recorded deliveries of one event name.
func (r *Recorder) Named(name realtime.EventName) []Delivery {
	out := make([]Delivery, 0)
	for _, d := range r.Deliveries() {
		if d.Event.Name == name {
			out = append(out, d)
		}
	}
	return out
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deliveries = nil
}
