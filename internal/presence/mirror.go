package presence

import (
	"context"
	"sync"
	"time"

	"collab-service/pkg/logger"
)

// Mirror publishes presence outside the process, e.g. services.RedisService.
type Mirror interface {
	SetUserOnline(ctx context.Context, userID string) error
	SetUserOffline(ctx context.Context, userID string) error
}

// MirrorNotifier forwards transitions to a Mirror from a single goroutine, so
// the mirror sees them in order without blocking the registry on network I/O.
type MirrorNotifier struct {
	mirror  Mirror
	timeout time.Duration
	queue   chan Change
	done    chan struct{}
	logger  *logger.Logger

	mu     sync.Mutex
	closed bool
}

func NewMirrorNotifier(mirror Mirror, timeout time.Duration, log *logger.Logger) *MirrorNotifier {
	m := &MirrorNotifier{
		mirror:  mirror,
		timeout: timeout,
		queue:   make(chan Change, 1024),
		done:    make(chan struct{}),
		logger:  log.Component("presence_mirror"),
	}
	go m.run()
	return m
}

func (m *MirrorNotifier) PresenceChanged(change Change) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		m.logger.Debug("Presence mirror closed, dropping change", "userID", change.UserID, "online", change.Online)
		return
	}

	select {
	case m.queue <- change:
	default:
		m.logger.Warn("Presence mirror queue full, dropping change", "userID", change.UserID, "online", change.Online)
	}
}

// Close stops accepting changes and waits for queued ones to be written.
func (m *MirrorNotifier) Close() {
	m.mu.Lock()
	if !m.closed {
		m.closed = true
		close(m.queue)
	}
	m.mu.Unlock()
	<-m.done
}

func (m *MirrorNotifier) run() {
	defer close(m.done)
	for change := range m.queue {
		ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
		var err error
		if change.Online {
			err = m.mirror.SetUserOnline(ctx, change.UserID)
		} else {
			err = m.mirror.SetUserOffline(ctx, change.UserID)
		}
		cancel()
		if err != nil {
			m.logger.Error("Failed to mirror presence", "userID", change.UserID, "online", change.Online, "error", err)
		}
	}
}
