package presence

import (
	"sort"
	"sync"

	"go.uber.org/zap"

	"chatwire/metrics"
)

// Event is the envelope pushed over a live connection.
type Event struct {
	Name string `json:"event"`
	Data any    `json:"data"`
}

// Push channel event names.
const (
	EventNewMessage  = "newMessage"
	EventOnlineUsers = "getOnlineUsers"
)

// Session is a live push channel to one client. Implementations must be safe
// for concurrent Send calls.
type Session interface {
	Send(e Event) error
	Close() error
}

// Registry tracks which users currently hold a live push channel. At most one
// session per user; a later registration replaces (and closes) the earlier
// one. State is process-local and lost on restart.
type Registry struct {
	mu     sync.RWMutex
	byUser map[string]Session
	byConn map[Session]string
	log    *zap.SugaredLogger
}

func NewRegistry(log *zap.SugaredLogger) *Registry {
	return &Registry{
		byUser: make(map[string]Session),
		byConn: make(map[Session]string),
		log:    log,
	}
}

// Register binds s to userID, replacing any prior session for that user, and
// broadcasts the updated online-user set. The replacement and the broadcast
// happen under one lock so a concurrent Lookup never sees a half-applied
// state.
func (r *Registry) Register(userID string, s Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, ok := r.byUser[userID]; ok && prev != s {
		delete(r.byConn, prev)
		_ = prev.Close()
		r.log.Infow("replaced existing session", "user_id", userID)
	} else {
		metrics.WSSessions.Inc()
	}
	r.byUser[userID] = s
	r.byConn[s] = userID

	r.log.Infow("session registered", "user_id", userID, "online", len(r.byUser))
	r.broadcastOnlineLocked()
}

// Unregister removes whatever binding currently points at s. No-op when s is
// not bound (e.g. it was already replaced by a newer connection).
func (r *Registry) Unregister(s Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	userID, ok := r.byConn[s]
	if !ok {
		return
	}
	delete(r.byConn, s)
	delete(r.byUser, userID)
	metrics.WSSessions.Dec()

	r.log.Infow("session unregistered", "user_id", userID, "online", len(r.byUser))
	r.broadcastOnlineLocked()
}

// Lookup returns the live session for userID, if any. Pure read.
func (r *Registry) Lookup(userID string) (Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.byUser[userID]
	return s, ok
}

// OnlineUsers returns a sorted snapshot of user IDs with a live session.
func (r *Registry) OnlineUsers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.onlineLocked()
}

func (r *Registry) onlineLocked() []string {
	ids := make([]string, 0, len(r.byUser))
	for id := range r.byUser {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// broadcastOnlineLocked pushes the current online-user set to every session.
// Callers must hold the write lock; session writes are serialized by the
// session itself, so holding the lock across them is safe.
func (r *Registry) broadcastOnlineLocked() {
	evt := Event{Name: EventOnlineUsers, Data: r.onlineLocked()}
	for s, userID := range r.byConn {
		if err := s.Send(evt); err != nil {
			r.log.Warnw("online-users broadcast failed", "user_id", userID, "err", err)
		}
	}
}
