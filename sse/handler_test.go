package sse

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newStreamServer(t *testing.T, hub *Hub, cfg StreamConfig) *httptest.Server {
	t.Helper()
	cfg.ApplyDefaults()
	router := gin.New()
	router.GET(cfg.Path, Handler(hub, cfg))
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func openStream(t *testing.T, ctx context.Context, url string) (*http.Response, *Reader) {
	t.Helper()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp, NewReader(resp.Body, WithComments())
}

func TestServeSSE_StreamsEvents(t *testing.T) {
	hub := NewHub(HubConfig{})
	srv := newStreamServer(t, hub, StreamConfig{})

	resp, r := openStream(t, context.Background(), srv.URL+"/todos/stream")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))
	assert.Equal(t, "no-cache", resp.Header.Get("Cache-Control"))

	m, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, ConnectedComment, m.Comment)

	require.Eventually(t, func() bool { return hub.Len() == 1 }, time.Second, 5*time.Millisecond)
	require.NoError(t, hub.Publish("1"))
	require.NoError(t, hub.Publish("2"))

	m, err = r.Next()
	require.NoError(t, err)
	assert.Equal(t, Message{ID: "1", Data: "<div>1</div>"}, m)
	m, err = r.Next()
	require.NoError(t, err)
	assert.Equal(t, Message{ID: "2", Data: "<div>2</div>"}, m)
}

func TestServeSSE_RawAndKeepAlive(t *testing.T) {
	hub := NewHub(HubConfig{})
	srv := newStreamServer(t, hub, StreamConfig{Path: "/stream", Raw: true, KeepAliveInterval: 20 * time.Millisecond, KeepAliveText: "ping"})

	_, r := openStream(t, context.Background(), srv.URL+"/stream")
	m, err := r.Next()
	require.NoError(t, err)
	require.Equal(t, ConnectedComment, m.Comment)

	m, err = r.Next()
	require.NoError(t, err)
	assert.True(t, m.IsComment())
	assert.Equal(t, "ping", m.Comment)

	require.NoError(t, hub.Publish("a\nb"))
	for {
		m, err = r.Next()
		require.NoError(t, err)
		if !m.IsComment() {
			break
		}
	}
	assert.Equal(t, "a\nb", m.Data)
}

func TestServeSSE_ClientDisconnectUnsubscribes(t *testing.T) {
	hub := NewHub(HubConfig{})
	srv := newStreamServer(t, hub, StreamConfig{})

	ctx, cancel := context.WithCancel(context.Background())
	_, r := openStream(t, ctx, srv.URL+"/todos/stream")
	_, err := r.Next()
	require.NoError(t, err)
	require.Eventually(t, func() bool { return hub.Len() == 1 }, time.Second, 5*time.Millisecond)

	cancel()
	require.Eventually(t, func() bool { return hub.Len() == 0 }, 2*time.Second, 5*time.Millisecond)
	require.NoError(t, hub.Publish("nobody listening"))
}

func TestServeSSE_HubStopEndsStream(t *testing.T) {
	hub := NewHub(HubConfig{})
	srv := newStreamServer(t, hub, StreamConfig{})

	_, r := openStream(t, context.Background(), srv.URL+"/todos/stream")
	_, err := r.Next()
	require.NoError(t, err)
	require.Eventually(t, func() bool { return hub.Len() == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, hub.Publish("bye"))
	hub.Stop()

	m, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, "<div>bye</div>", m.Data)
	_, err = r.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestServeSSE_StoppedHub(t *testing.T) {
	hub := NewHub(HubConfig{})
	hub.Stop()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/todos/stream", nil)
	ServeSSE(rec, req, hub, StreamConfig{})

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body, "error")
}

type plainWriter struct {
	header http.Header
	status int
	body   []byte
}

func (w *plainWriter) Header() http.Header         { return w.header }
func (w *plainWriter) WriteHeader(status int)      { w.status = status }
func (w *plainWriter) Write(b []byte) (int, error) { w.body = append(w.body, b...); return len(b), nil }

func TestServeSSE_RequiresFlusher(t *testing.T) {
	hub := NewHub(HubConfig{})
	w := &plainWriter{header: http.Header{}}
	req := httptest.NewRequest(http.MethodGet, "/todos/stream", nil)

	ServeSSE(w, req, hub, StreamConfig{})

	assert.Equal(t, http.StatusInternalServerError, w.status)
	assert.Equal(t, 0, hub.Len())
}
