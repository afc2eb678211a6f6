package sse

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "github.com/kbukum/eventhub/errors"
	"github.com/kbukum/eventhub/logger"
)

// ConnectedComment is written as a comment as soon as a stream opens, so
// clients and proxies see the response start before the first event.
const ConnectedComment = "connected"

// ServeSSE subscribes the request to hub and streams frames until the client
// goes away, the hub stops or the subscriber is disconnected. The
// subscription is released on every exit path.
func ServeSSE(w http.ResponseWriter, r *http.Request, hub *Hub, cfg StreamConfig, opts ...StreamOption) {
	log := logger.WithContext(r.Context()).WithComponent("sse")

	flusher, ok := w.(http.Flusher)
	if !ok {
		log.Error("streaming not supported by response writer")
		apperrors.Internal(errors.New("streaming not supported")).WriteHTTP(w)
		return
	}

	stream, err := NewStream(hub, cfg, opts...)
	if err != nil {
		log.Warn("stream rejected", logger.Fields(logger.FieldError, err.Error()))
		apperrors.ServiceUnavailable("event hub").WithCause(err).WriteHTTP(w)
		return
	}
	defer stream.Close()

	// Long-lived responses must outlive the server's WriteTimeout.
	rc := http.NewResponseController(w)
	if err := rc.SetWriteDeadline(time.Time{}); err != nil && !errors.Is(err, http.ErrNotSupported) {
		log.Warn("could not clear write deadline", logger.Fields(logger.FieldError, err.Error()))
	}

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	if _, err := w.Write(CommentBytes(ConnectedComment)); err != nil {
		return
	}
	flusher.Flush()

	log = log.WithSubscriber(stream.ID())
	log.Debug("stream opened", logger.Fields("remote_addr", r.RemoteAddr))

	ctx := r.Context()
	for {
		frame, err := stream.Next(ctx)
		if err != nil {
			logStreamEnd(log, err, stream.Err())
			return
		}
		if _, err := w.Write(frame.Bytes()); err != nil {
			log.Debug("stream write failed", logger.Fields(logger.FieldError, err.Error()))
			return
		}
		flusher.Flush()
	}
}

func logStreamEnd(log *logger.Logger, err, reason error) {
	switch {
	case errors.Is(err, context.Canceled):
		log.Debug("stream closed by client")
	case errors.Is(err, io.EOF) && reason != nil:
		log.Debug("stream ended by hub", logger.Fields("reason", reason.Error()))
	default:
		log.Debug("stream ended", logger.Fields(logger.FieldError, err.Error()))
	}
}

// Handler adapts ServeSSE to gin.
func Handler(hub *Hub, cfg StreamConfig, opts ...StreamOption) gin.HandlerFunc {
	return func(c *gin.Context) {
		ServeSSE(c.Writer, c.Request, hub, cfg, opts...)
	}
}
