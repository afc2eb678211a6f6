package sse

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStream(t *testing.T, hub *Hub, keepAlive time.Duration, opts ...StreamOption) *Stream {
	t.Helper()
	s, err := NewStream(hub, StreamConfig{KeepAliveInterval: keepAlive, KeepAliveText: "keep-alive-text"}, opts...)
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func TestStreamConfig_Defaults(t *testing.T) {
	var cfg StreamConfig
	cfg.ApplyDefaults()
	assert.Equal(t, "/todos/stream", cfg.Path)
	assert.Equal(t, 600*time.Second, cfg.KeepAliveInterval)
	assert.Equal(t, "keep-alive-text", cfg.KeepAliveText)
	require.NoError(t, cfg.Validate())
}

func TestStream_EventFrames(t *testing.T) {
	hub := NewHub(HubConfig{})
	s := newTestStream(t, hub, time.Minute)

	require.NoError(t, hub.Publish("1"))
	require.NoError(t, hub.Publish("hello\n"))

	f, err := s.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, EventFrame(1, "<div>1</div>"), f)

	f, err = s.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, EventFrame(2, "<div>hello\n</div>"), f)
}

func TestStream_CustomFormatter(t *testing.T) {
	hub := NewHub(HubConfig{})
	s := newTestStream(t, hub, time.Minute, WithFormatter(RawFormatter))

	require.NoError(t, hub.Publish("plain"))
	f, err := s.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "plain", f.Data)
}

func TestStream_KeepAliveWhenIdle(t *testing.T) {
	hub := NewHub(HubConfig{})
	s := newTestStream(t, hub, 30*time.Millisecond)

	start := time.Now()
	f, err := s.Next(context.Background())
	require.NoError(t, err)
	assert.True(t, f.IsKeepAlive())
	assert.Equal(t, "keep-alive-text", f.Data)
	assert.GreaterOrEqual(t, time.Since(start), 25*time.Millisecond)

	// Keep-alives repeat while idle.
	f, err = s.Next(context.Background())
	require.NoError(t, err)
	assert.True(t, f.IsKeepAlive())
}

func TestStream_EventsResetKeepAliveClock(t *testing.T) {
	hub := NewHub(HubConfig{})
	s := newTestStream(t, hub, 200*time.Millisecond)

	for range 3 {
		time.Sleep(50 * time.Millisecond)
		require.NoError(t, hub.Publish("tick"))
		f, err := s.Next(context.Background())
		require.NoError(t, err)
		assert.False(t, f.IsKeepAlive(), "an event within the interval must not be preceded by a keep-alive")
	}

	last := time.Now()
	f, err := s.Next(context.Background())
	require.NoError(t, err)
	assert.True(t, f.IsKeepAlive())
	assert.GreaterOrEqual(t, time.Since(last), 180*time.Millisecond)
}

func TestStream_EOFAfterHubStopDrainsQueue(t *testing.T) {
	hub := NewHub(HubConfig{})
	s := newTestStream(t, hub, time.Minute)

	require.NoError(t, hub.Publish("last"))
	hub.Stop()

	f, err := s.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "<div>last</div>", f.Data)

	_, err = s.Next(context.Background())
	assert.ErrorIs(t, err, io.EOF)
	assert.ErrorIs(t, s.Err(), ErrHubClosed)
}

func TestStream_EOFAfterOverflow(t *testing.T) {
	hub := NewHub(HubConfig{QueueSize: 1})
	s := newTestStream(t, hub, time.Minute)

	require.NoError(t, hub.Publish("1"))
	require.NoError(t, hub.Publish("2"))

	f, err := s.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(1), f.ID)
	_, err = s.Next(context.Background())
	assert.ErrorIs(t, err, io.EOF)
	assert.ErrorIs(t, s.Err(), ErrSlowSubscriber)
}

func TestStream_ContextCancel(t *testing.T) {
	hub := NewHub(HubConfig{})
	s := newTestStream(t, hub, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := s.Next(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStream_CloseUnsubscribesOnce(t *testing.T) {
	hub := NewHub(HubConfig{})
	s, err := NewStream(hub, StreamConfig{})
	require.NoError(t, err)
	require.Equal(t, 1, hub.Len())
	require.Same(t, s.Subscription(), hub.Subscriber(s.ID()))

	s.Close()
	s.Close()
	assert.Equal(t, 0, hub.Len())
	assert.NoError(t, s.Err())

	_, err = s.Next(context.Background())
	assert.ErrorIs(t, err, io.EOF)
}

func TestNewStream_HubClosed(t *testing.T) {
	hub := NewHub(HubConfig{})
	hub.Stop()
	_, err := NewStream(hub, StreamConfig{})
	assert.ErrorIs(t, err, ErrHubClosed)
}
