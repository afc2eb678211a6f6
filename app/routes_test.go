package app

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kbukum/eventhub/bootstrap"
	"github.com/kbukum/eventhub/errors"
	"github.com/kbukum/eventhub/logger"
	"github.com/kbukum/eventhub/process"
	"github.com/kbukum/eventhub/sse"
)

// startService runs the full service on a random port and returns its base
// URL.
func startService(t *testing.T, mutate ...func(*Config)) (*Service, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := DefaultConfig()
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 0
	cfg.Ticker.Enabled = false
	for _, m := range mutate {
		m(cfg)
	}

	a, err := bootstrap.NewApp(cfg,
		bootstrap.WithLogger(logger.NewWithWriter(io.Discard, "app-test")),
		bootstrap.WithSummaryOutput(io.Discard),
		bootstrap.WithGracefulTimeout(2*time.Second),
	)
	require.NoError(t, err)
	// ApplyDefaults in NewApp turns port 0 back into 3000.
	a.Cfg.Server.Port = 0

	s, err := Register(a)
	require.NoError(t, err)
	require.NoError(t, a.Start(context.Background()))
	t.Cleanup(func() { _ = a.Shutdown(context.Background()) })

	return s, "http://" + s.Server.Addr()
}

func post(t *testing.T, url, contentType, body string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Post(url, contentType, strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(b)
}

func get(t *testing.T, url string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(b)
}

func TestPages(t *testing.T) {
	_, base := startService(t)

	resp, body := get(t, base+"/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
	assert.Contains(t, body, `hx-post="/cmd"`)
	assert.Contains(t, body, "Run echo hello")

	resp, body = get(t, base+"/stream")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `sse-connect="/todos/stream"`)

	resp, body = get(t, base+"/styles.css")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/css")
	assert.Contains(t, body, ".events")
}

func TestCreateUser(t *testing.T) {
	_, base := startService(t)

	resp, body := post(t, base+"/users", "application/json", `{"username":"ferris"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode, body)
	var user User
	require.NoError(t, json.Unmarshal([]byte(body), &user))
	assert.Equal(t, User{ID: 1337, Username: "ferris"}, user)

	for _, bad := range []string{`{}`, `{"username":""}`, `not json`, ``} {
		resp, body := post(t, base+"/users", "application/json", bad)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "body %q", bad)
		assert.Contains(t, body, string(errors.ErrCodeInvalidInput))
	}
}

func TestCommandBroadcastsToStream(t *testing.T) {
	s, base := startService(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"/todos/stream", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
	require.Eventually(t, func() bool { return s.Hub.Len() == 1 }, 2*time.Second, 10*time.Millisecond)

	cmdResp, body := post(t, base+"/cmd", "text/plain", "")
	require.Equal(t, http.StatusOK, cmdResp.StatusCode)
	assert.Equal(t, CommandSucceeded, body)

	msg, err := sse.NewReader(resp.Body).Next()
	require.NoError(t, err)
	assert.Equal(t, "<div>hello\n</div>", msg.Data)
	assert.Equal(t, "1", msg.ID)
}

func TestTickerFeedsStream(t *testing.T) {
	s, base := startService(t, func(c *Config) {
		c.Ticker.Enabled = true
		c.Ticker.Interval = 20 * time.Millisecond
		c.Ticker.Sequence = true
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"/todos/stream", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	r := sse.NewReader(resp.Body)
	first, err := r.Next()
	require.NoError(t, err)
	second, err := r.Next()
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(first.Data, "<div>") && strings.HasSuffix(first.Data, "</div>"))
	assert.NotEqual(t, first.Data, second.Data, "sequence payloads increase")
	assert.Positive(t, s.Ticker.Published())
}

func TestCommandFailure(t *testing.T) {
	s, base := startService(t, func(c *Config) {
		c.Command.Command = process.Command{Binary: "false"}
	})
	sub, err := s.Hub.Subscribe()
	require.NoError(t, err)

	resp, body := post(t, base+"/cmd", "text/plain", "")
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)

	var errResp errors.ErrorResponse
	require.NoError(t, json.Unmarshal([]byte(body), &errResp))
	assert.Equal(t, errors.ErrCodeCommandFailed, errResp.Error.Code)
	assert.Equal(t, "exit", errResp.Error.Details["kind"])
	assert.Zero(t, sub.Len(), "failed commands publish nothing")
}

func TestCommandRateLimit(t *testing.T) {
	_, base := startService(t, func(c *Config) {
		c.Server.RateLimit.RequestsPerMinute = 1
	})

	first, _ := post(t, base+"/cmd", "text/plain", "")
	second, body := post(t, base+"/cmd", "text/plain", "")
	assert.Equal(t, http.StatusOK, first.StatusCode)
	assert.Equal(t, http.StatusTooManyRequests, second.StatusCode)
	assert.NotEmpty(t, second.Header.Get("Retry-After"))
	assert.Contains(t, body, string(errors.ErrCodeRateLimited))
}

func TestOperationalEndpoints(t *testing.T) {
	_, base := startService(t)

	resp, body := get(t, base+"/health")
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	var health struct {
		Status     string `json:"status"`
		Components []struct {
			Name string `json:"name"`
		} `json:"components"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &health))
	assert.Equal(t, "healthy", health.Status)
	var names []string
	for _, c := range health.Components {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"observability", "http-server", "hub", "command", "ticker"}, names)

	resp, body = get(t, base+"/metrics")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var metrics map[string]any
	require.NoError(t, json.NewDecoder(bytes.NewReader([]byte(body))).Decode(&metrics))
	app, ok := metrics["app"].(map[string]any)
	require.True(t, ok, body)
	assert.Equal(t, float64(0), app["subscribers"])
}

func TestShutdownEndsStreams(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := DefaultConfig()
	cfg.Server.Host = "127.0.0.1"
	cfg.Ticker.Enabled = false

	a, err := bootstrap.NewApp(cfg,
		bootstrap.WithLogger(logger.NewWithWriter(io.Discard, "app-test")),
		bootstrap.WithSummaryOutput(io.Discard),
		bootstrap.WithGracefulTimeout(2*time.Second),
	)
	require.NoError(t, err)
	a.Cfg.Server.Port = 0
	s, err := Register(a)
	require.NoError(t, err)
	require.NoError(t, a.Start(context.Background()))

	resp, err := http.Get("http://" + s.Server.Addr() + "/todos/stream")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Eventually(t, func() bool { return s.Hub.Len() == 1 }, 2*time.Second, 10*time.Millisecond)

	start := time.Now()
	require.NoError(t, a.Shutdown(context.Background()))
	assert.Less(t, time.Since(start), time.Second, "open streams must not hold up shutdown")

	_, err = io.ReadAll(resp.Body)
	assert.NoError(t, err)
	assert.True(t, s.Hub.Closed())
}
