package api

import (
	"sync"

	"github.com/gorilla/websocket"

	"chatwire/presence"
)

// wsSession adapts a gorilla connection to presence.Session. gorilla permits
// one concurrent writer, so pushes and registry broadcasts are serialized
// through a mutex.
type wsSession struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func newWSSession(conn *websocket.Conn) *wsSession { return &wsSession{conn: conn} }

func (s *wsSession) Send(e presence.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteJSON(e)
}

func (s *wsSession) Close() error { return s.conn.Close() }
