package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"chatwire/apperr"
	"chatwire/models"
)

// Memory is an in-process MessageStore/UserStore used in development mode and
// tests. Same validation and ordering semantics as the Mongo backend.
type Memory struct {
	mu       sync.RWMutex
	messages []models.Message
	users    map[string]models.User
}

func NewMemory() *Memory {
	return &Memory{users: make(map[string]models.User)}
}

func (m *Memory) Ping(ctx context.Context) error { return nil }

func (m *Memory) CreateMessage(ctx context.Context, msg models.Message) (models.Message, error) {
	if err := validateMessage(msg); err != nil {
		return models.Message{}, err
	}
	msg.ID = uuid.NewString()
	msg.CreatedAt = time.Now().UTC()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msg)
	return msg, nil
}

func (m *Memory) ListConversation(ctx context.Context, a, b string) ([]models.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []models.Message
	for _, msg := range m.messages {
		if (msg.SenderID == a && msg.ReceiverID == b) || (msg.SenderID == b && msg.ReceiverID == a) {
			out = append(out, msg)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// PutUser seeds a user record, for dev mode and tests.
func (m *Memory) PutUser(u models.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID] = u
}

func (m *Memory) GetUser(ctx context.Context, id string) (models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return models.User{}, apperr.NotFoundError{Kind: "user", ID: id}
	}
	return u, nil
}

func (m *Memory) ListUsersExcept(ctx context.Context, id string) ([]models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.User, 0, len(m.users))
	for _, u := range m.users {
		if u.ID != id {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
