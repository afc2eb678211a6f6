package httpclient

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/kbukum/eventhub/logger"
	"github.com/kbukum/eventhub/sse"
)

const maxErrorBody = 4096

// Handler receives every message read from the stream. Returning an error
// ends Subscribe with that error.
type Handler func(sse.Message) error

// Option configures optional Client dependencies.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client, for example with an
// httptest server's client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the client's logger.
func WithLogger(l *logger.Logger) Option {
	return func(c *Client) { c.log = l }
}

// Client subscribes to a server-sent event stream, reconnecting with
// Last-Event-ID when configured to.
type Client struct {
	config     Config
	httpClient *http.Client
	log        *logger.Logger
}

// New validates cfg and creates a Client.
func New(cfg Config, opts ...Option) (*Client, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = (&net.Dialer{Timeout: cfg.ConnectTimeout, KeepAlive: 30 * time.Second}).DialContext
	transport.ResponseHeaderTimeout = cfg.ConnectTimeout

	c := &Client{
		config:     cfg,
		httpClient: &http.Client{Transport: transport},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		c.log = logger.WithComponent("httpclient")
	}
	return c, nil
}

// Open makes one connection attempt and returns a reader over the stream.
// lastEventID is sent as Last-Event-ID when not empty.
func (c *Client) Open(ctx context.Context, lastEventID string) (*sse.Reader, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.URL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")
	for k, v := range c.config.Headers {
		req.Header.Set(k, v)
	}
	if lastEventID != "" {
		req.Header.Set("Last-Event-ID", lastEventID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return nil, NewTimeoutError(err)
		}
		return nil, NewConnectionError(err)
	}

	if classErr := ClassifyStatusCode(resp.StatusCode, nil); classErr != nil {
		classErr.Body, _ = io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		_ = resp.Body.Close()
		return nil, classErr
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		_ = resp.Body.Close()
		return nil, &Error{StatusCode: resp.StatusCode, Code: ErrCodeNotStream, Message: "unexpected content type " + ct}
	}
	return sse.NewReader(resp.Body, sse.WithComments()), nil
}

// Subscribe reads the stream and passes every message to handle until ctx
// is canceled, handle fails, or the stream ends without Reconnect. With
// Reconnect it resubscribes after the delay the server announced (or
// ReconnectDelay), resuming from the last seen event ID. A canceled ctx
// returns nil.
func (c *Client) Subscribe(ctx context.Context, handle Handler) error {
	var (
		lastID   string
		delay    = c.config.ReconnectDelay
		failures int
	)

	for {
		err := c.consume(ctx, lastID, handle, &lastID, &delay)
		if ctx.Err() != nil {
			return nil
		}
		var handlerErr handlerError
		if errors.As(err, &handlerErr) {
			return handlerErr.err
		}
		if !c.config.Reconnect {
			return err
		}
		if err != nil && !IsRetryable(err) {
			return err
		}

		if err != nil {
			failures++
			if c.config.MaxReconnects > 0 && failures > c.config.MaxReconnects {
				return err
			}
		} else {
			failures = 0
		}

		fields := logger.Fields("url", c.config.URL, "delay", delay.String(), "last_event_id", lastID)
		if err != nil {
			fields[logger.FieldError] = err.Error()
		}
		c.log.Info("stream ended, reconnecting", fields)

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(delay):
		}
	}
}

type handlerError struct{ err error }

func (e handlerError) Error() string { return e.err.Error() }

// consume runs one connection. It returns nil when the server ends the
// stream cleanly.
func (c *Client) consume(ctx context.Context, from string, handle Handler, lastID *string, delay *time.Duration) error {
	r, err := c.Open(ctx, from)
	if err != nil {
		return err
	}
	defer r.Close()

	for {
		msg, err := r.Next()
		if d := r.Retry(); d > 0 {
			*delay = d
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return NewConnectionError(err)
		}
		if msg.ID != "" {
			*lastID = msg.ID
		}
		if err := handle(msg); err != nil {
			return handlerError{err}
		}
	}
}
