package directmsg

import (
	"sync"

	"collab-service/internal/models"
)

// DefaultHistoryLimit is how many messages a chat room keeps.
const DefaultHistoryLimit = 100

// HistoryRepository stores the ordered message history of each chat room.
type HistoryRepository interface {
	Append(roomID string, msg models.Message)
	Messages(roomID string) []models.Message
}

// MemoryHistory keeps history for the lifetime of the process. Each room holds
// at most limit messages; the oldest are evicted first.
type MemoryHistory struct {
	mu    sync.RWMutex
	rooms map[string][]models.Message
	limit int
}

func NewMemoryHistory(limit int) *MemoryHistory {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &MemoryHistory{
		rooms: make(map[string][]models.Message),
		limit: limit,
	}
}

func (h *MemoryHistory) Append(roomID string, msg models.Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	history := append(h.rooms[roomID], msg)
	if over := len(history) - h.limit; over > 0 {
		// Copy down so the evicted prefix can be collected.
		history = append(make([]models.Message, 0, h.limit), history[over:]...)
	}
	h.rooms[roomID] = history
}

// Messages returns a copy of the room's history in arrival order. A room with
// no messages yields an empty, non-nil slice.
func (h *MemoryHistory) Messages(roomID string) []models.Message {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]models.Message, len(h.rooms[roomID]))
	copy(out, h.rooms[roomID])
	return out
}
