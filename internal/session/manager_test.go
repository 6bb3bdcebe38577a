package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeView struct {
	id     string
	closed bool
}

func (v *fakeView) Close() { v.closed = true }

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newTestManager(max int, idle time.Duration) (*Manager[*fakeView], *clock) {
	c := &clock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	m := NewManager[*fakeView]("test", max, idle)
	m.now = c.now
	return m, c
}

func build(id string) *fakeView { return &fakeView{id: id} }

func TestManager_CreateGet(t *testing.T) {
	m, _ := newTestManager(10, time.Minute)

	id, v := m.Create(build)
	require.NotEmpty(t, id)
	assert.Equal(t, id, v.id)

	got, ok := m.Get(id)
	require.True(t, ok)
	assert.Same(t, v, got)

	_, ok = m.Get("missing")
	assert.False(t, ok)
	assert.Equal(t, 1, m.Len())
}

func TestManager_Remove(t *testing.T) {
	m, _ := newTestManager(10, time.Minute)
	id, v := m.Create(build)

	assert.True(t, m.Remove(id))
	assert.True(t, v.closed)
	assert.False(t, m.Remove(id))
	assert.Equal(t, 0, m.Len())
}

func TestManager_EvictsLeastRecentlyUsed(t *testing.T) {
	m, c := newTestManager(2, time.Hour)

	first, firstView := m.Create(build)
	c.t = c.t.Add(time.Second)
	second, _ := m.Create(build)
	c.t = c.t.Add(time.Second)
	_, ok := m.Get(first)
	require.True(t, ok)
	c.t = c.t.Add(time.Second)

	m.Create(build)

	assert.Equal(t, 2, m.Len())
	_, ok = m.Get(second)
	assert.False(t, ok, "least recently used view should be evicted")
	_, ok = m.Get(first)
	assert.True(t, ok)
	assert.False(t, firstView.closed)
}

func TestManager_CleanupOldSessions(t *testing.T) {
	m, c := newTestManager(10, 30*time.Minute)

	stale, staleView := m.Create(build)
	c.t = c.t.Add(20 * time.Minute)
	fresh, _ := m.Create(build)
	c.t = c.t.Add(15 * time.Minute)

	removed := m.CleanupOldSessions()
	assert.Equal(t, 1, removed)
	assert.True(t, staleView.closed)

	_, ok := m.Get(stale)
	assert.False(t, ok)
	_, ok = m.Get(fresh)
	assert.True(t, ok)
}

func TestManager_TouchKeepsAlive(t *testing.T) {
	m, c := newTestManager(10, 30*time.Minute)
	id, _ := m.Create(build)

	for i := 0; i < 4; i++ {
		c.t = c.t.Add(20 * time.Minute)
		_, ok := m.Get(id)
		require.True(t, ok)
		assert.Equal(t, 0, m.CleanupOldSessions())
	}
}

func TestManager_StartCleanupStops(t *testing.T) {
	m := NewManager[*fakeView]("test", 10, time.Nanosecond)
	m.Create(build)

	ctx, cancel := context.WithCancel(context.Background())
	m.StartCleanup(ctx, time.Millisecond)

	assert.Eventually(t, func() bool { return m.Len() == 0 }, time.Second, 5*time.Millisecond)
	cancel()
}

func TestManager_NonCloserValues(t *testing.T) {
	m := NewManager[string]("plain", 1, time.Minute)
	m.Create(func(id string) string { return "a" })
	_, v := m.Create(func(id string) string { return "b" })

	assert.Equal(t, "b", v)
	assert.Equal(t, 1, m.Len())
}
