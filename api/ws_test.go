package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatwire/models"
	"chatwire/presence"
)

type wireEvent struct {
	Name string          `json:"event"`
	Data json.RawMessage `json:"data"`
}

func dialWS(t *testing.T, ts *httptest.Server, token string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) wireEvent {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var evt wireEvent
	require.NoError(t, conn.ReadJSON(&evt))
	return evt
}

func TestWSRejectsMissingToken(t *testing.T) {
	f := newFixture(t)
	ts := httptest.NewServer(f.srv)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/ws")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestWSConnectBroadcastsOnlineUsers(t *testing.T) {
	f := newFixture(t)
	ts := httptest.NewServer(f.srv)
	defer ts.Close()

	bob := dialWS(t, ts, "bob")
	evt := readEvent(t, bob)
	assert.Equal(t, presence.EventOnlineUsers, evt.Name)
	var online []string
	require.NoError(t, json.Unmarshal(evt.Data, &online))
	assert.Equal(t, []string{"bob"}, online)

	_ = dialWS(t, ts, "alice")
	evt = readEvent(t, bob)
	require.NoError(t, json.Unmarshal(evt.Data, &online))
	assert.Equal(t, []string{"alice", "bob"}, online)
}

func TestSendPushesToOnlineRecipient(t *testing.T) {
	f := newFixture(t)
	ts := httptest.NewServer(f.srv)
	defer ts.Close()

	bob := dialWS(t, ts, "bob")
	// First event confirms registration completed before the send.
	_ = readEvent(t, bob)

	w := doJSON(t, f.srv, "POST", "/messages/send/bob", "alice", `{"content":"hi bob","kind":"text"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var sent models.Message
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sent))

	evt := readEvent(t, bob)
	assert.Equal(t, presence.EventNewMessage, evt.Name)
	var pushed models.Message
	require.NoError(t, json.Unmarshal(evt.Data, &pushed))
	assert.Equal(t, sent.ID, pushed.ID, "pushed message carries the same id as the HTTP response")
	assert.Equal(t, "hi bob", pushed.Content)
}

func TestDisconnectRemovesPresence(t *testing.T) {
	f := newFixture(t)
	ts := httptest.NewServer(f.srv)
	defer ts.Close()

	bob := dialWS(t, ts, "bob")
	_ = readEvent(t, bob)
	_, ok := f.registry.Lookup("bob")
	require.True(t, ok)

	require.NoError(t, bob.Close())
	require.Eventually(t, func() bool {
		_, ok := f.registry.Lookup("bob")
		return !ok
	}, 2*time.Second, 10*time.Millisecond)
}

func TestSecondConnectionReplacesFirst(t *testing.T) {
	f := newFixture(t)
	ts := httptest.NewServer(f.srv)
	defer ts.Close()

	first := dialWS(t, ts, "bob")
	_ = readEvent(t, first)

	second := dialWS(t, ts, "bob")
	_ = readEvent(t, second)

	// The first connection is closed server-side; its read loop ends.
	require.NoError(t, first.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		var evt wireEvent
		if err := first.ReadJSON(&evt); err != nil {
			break
		}
	}

	// New sends reach only the surviving session.
	w := doJSON(t, f.srv, "POST", "/messages/send/bob", "alice", `{"content":"again","kind":"text"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	evt := readEvent(t, second)
	assert.Equal(t, presence.EventNewMessage, evt.Name)
}
