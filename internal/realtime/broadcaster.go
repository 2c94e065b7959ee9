package realtime

// Broadcaster delivers outbound events to sessions. Delivery is
// fire-and-forget; a session that cannot accept the event is dropped by the
// implementation, never reported to the caller.
type Broadcaster interface {
	// ToSession sends to one session.
	ToSession(sessionID string, evt Event)

	// ToRoom sends to every session subscribed to room except exceptSessionID
	// (empty means nobody is excluded).
	ToRoom(room RoomID, evt Event, exceptSessionID string)

	// ToAll sends to every connected session.
	ToAll(evt Event)
}
