package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestManager(t *testing.T, clock *fakeClock) *Manager {
	t.Helper()

	m := NewManager(Options{Debounce: time.Hour, TTL: 2 * time.Hour, Now: clock.Now})
	t.Cleanup(m.Close)

	return m
}

func TestManagerCreateGetDelete(t *testing.T) {
	m := newTestManager(t, &fakeClock{now: time.Unix(0, 0)})
	ctx := context.Background()

	s, err := m.Create(ctx, "")
	require.NoError(t, err)
	assert.NotEmpty(t, s.ID)
	assert.Equal(t, "Neurobagel", s.Resolver.Status().Name)

	got, err := m.Get(s.ID)
	require.NoError(t, err)
	assert.Same(t, s, got)
	assert.Equal(t, 1, m.Len())

	require.NoError(t, m.Delete(s.ID))
	assert.ErrorIs(t, m.Delete(s.ID), ErrSessionNotFound)

	_, err = m.Get(s.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestManagerCreateUnknownConfigFallsBack(t *testing.T) {
	m := newTestManager(t, &fakeClock{now: time.Unix(0, 0)})

	s, err := m.Create(context.Background(), "Nope")
	require.NoError(t, err)

	status := s.Resolver.Status()
	assert.Equal(t, "Neurobagel", status.Name)
	assert.True(t, status.FellBack)
}

func TestManagerEvictIdle(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	m := newTestManager(t, clock)
	ctx := context.Background()

	a, err := m.Create(ctx, "")
	require.NoError(t, err)
	b, err := m.Create(ctx, "Minimal")
	require.NoError(t, err)

	clock.Advance(90 * time.Minute)
	assert.Zero(t, m.EvictIdle())

	_, err = m.Get(a.ID)
	require.NoError(t, err)

	clock.Advance(time.Hour)
	assert.Equal(t, 1, m.EvictIdle())

	_, err = m.Get(a.ID)
	assert.NoError(t, err)

	_, err = m.Get(b.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestManagerRunStopsOnCancel(t *testing.T) {
	m := newTestManager(t, &fakeClock{now: time.Unix(0, 0)})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		m.Run(ctx)
		close(done)
	}()

	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestManagerListConfigs(t *testing.T) {
	m := newTestManager(t, &fakeClock{now: time.Unix(0, 0)})

	names, err := m.ListConfigs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Minimal", "Neurobagel"}, names)
}
