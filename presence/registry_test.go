package presence

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatwire/logger"
)

type fakeSession struct {
	mu     sync.Mutex
	events []Event
	closed bool
}

func (f *fakeSession) Send(e Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, e)
	return nil
}

func (f *fakeSession) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeSession) received() []Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Event, len(f.events))
	copy(out, f.events)
	return out
}

func TestRegisterLookupUnregister(t *testing.T) {
	r := NewRegistry(logger.Nop())
	s := &fakeSession{}

	_, ok := r.Lookup("alice")
	assert.False(t, ok)

	r.Register("alice", s)
	got, ok := r.Lookup("alice")
	require.True(t, ok)
	assert.Same(t, s, got.(*fakeSession))

	r.Unregister(s)
	_, ok = r.Lookup("alice")
	assert.False(t, ok)
}

func TestRegisterOverwritesPriorSession(t *testing.T) {
	r := NewRegistry(logger.Nop())
	first := &fakeSession{}
	second := &fakeSession{}

	r.Register("alice", first)
	r.Register("alice", second)

	got, ok := r.Lookup("alice")
	require.True(t, ok)
	assert.Same(t, second, got.(*fakeSession))
	assert.True(t, first.closed, "replaced session should be closed")

	// Unregistering the stale session must not evict the live one.
	r.Unregister(first)
	_, ok = r.Lookup("alice")
	assert.True(t, ok)
}

func TestUnregisterUnknownSessionIsNoop(t *testing.T) {
	r := NewRegistry(logger.Nop())
	r.Unregister(&fakeSession{})
	assert.Empty(t, r.OnlineUsers())
}

func TestOnlineBroadcastOnRegisterAndUnregister(t *testing.T) {
	r := NewRegistry(logger.Nop())
	alice := &fakeSession{}
	bob := &fakeSession{}

	r.Register("alice", alice)
	r.Register("bob", bob)

	events := alice.received()
	require.Len(t, events, 2)
	assert.Equal(t, EventOnlineUsers, events[0].Name)
	assert.Equal(t, []string{"alice"}, events[0].Data)
	assert.Equal(t, []string{"alice", "bob"}, events[1].Data)

	r.Unregister(bob)
	events = alice.received()
	require.Len(t, events, 3)
	assert.Equal(t, []string{"alice"}, events[2].Data)
}

func TestOnlineUsersSorted(t *testing.T) {
	r := NewRegistry(logger.Nop())
	r.Register("zoe", &fakeSession{})
	r.Register("amy", &fakeSession{})
	r.Register("mia", &fakeSession{})
	assert.Equal(t, []string{"amy", "mia", "zoe"}, r.OnlineUsers())
}

func TestConcurrentRegisterLookup(t *testing.T) {
	r := NewRegistry(logger.Nop())
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(2)
		s := &fakeSession{}
		go func() {
			defer wg.Done()
			r.Register("user", s)
			r.Unregister(s)
		}()
		go func() {
			defer wg.Done()
			if got, ok := r.Lookup("user"); ok && got == nil {
				t.Error("lookup returned nil session while present")
			}
		}()
	}
	wg.Wait()
	_, ok := r.Lookup("user")
	assert.False(t, ok, "all sessions unregistered")
}
