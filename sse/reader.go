package sse

import (
	"bufio"
	"io"
	"strconv"
	"strings"
	"time"
)

const maxLineSize = 1 << 20

// Message is one block read from an event stream.
type Message struct {
	// ID is the value of the last id field, if any.
	ID string
	// Event is the event type, empty for the default "message" type.
	Event string
	// Data is the payload; multiple data lines are joined with newlines.
	Data string
	// Comment holds comment lines, set only for comment-only blocks when the
	// reader was created WithComments.
	Comment string
}

// IsComment reports whether m is a comment-only block.
func (m Message) IsComment() bool { return m.Comment != "" && m.Data == "" }

// ReaderOption configures a Reader.
type ReaderOption func(*Reader)

// WithComments makes Next return comment-only blocks such as keep-alives.
func WithComments() ReaderOption {
	return func(r *Reader) { r.comments = true }
}

// Reader parses a text/event-stream body.
type Reader struct {
	scanner  *bufio.Scanner
	body     io.ReadCloser
	comments bool
	retry    time.Duration
}

// NewReader creates a Reader over body.
func NewReader(body io.ReadCloser, opts ...ReaderOption) *Reader {
	sc := bufio.NewScanner(body)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	r := &Reader{scanner: sc, body: body}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Next returns the next message. It returns io.EOF when the stream ends.
func (r *Reader) Next() (Message, error) {
	var (
		msg      Message
		data     []string
		comments []string
		hasData  bool
	)

	flush := func() (Message, bool) {
		if hasData {
			msg.Data = strings.Join(data, "\n")
			return msg, true
		}
		if r.comments && len(comments) > 0 {
			msg.Comment = strings.Join(comments, "\n")
			return msg, true
		}
		return Message{}, false
	}

	for r.scanner.Scan() {
		line := strings.TrimSuffix(r.scanner.Text(), "\r")
		if line == "" {
			if m, ok := flush(); ok {
				return m, nil
			}
			msg, data, comments = Message{}, nil, nil
			continue
		}

		field, value := parseLine(line)
		switch field {
		case "":
			comments = append(comments, value)
		case "data":
			data = append(data, value)
			hasData = true
		case "event":
			msg.Event = value
		case "id":
			msg.ID = value
		case "retry":
			if ms, err := strconv.Atoi(value); err == nil && ms >= 0 {
				r.retry = time.Duration(ms) * time.Millisecond
			}
		}
	}

	if err := r.scanner.Err(); err != nil {
		return Message{}, err
	}
	if m, ok := flush(); ok {
		return m, nil
	}
	return Message{}, io.EOF
}

// Retry returns the reconnection delay last announced by the server, zero
// if none.
func (r *Reader) Retry() time.Duration { return r.retry }

// Close releases the underlying stream.
func (r *Reader) Close() error {
	return r.body.Close()
}

// parseLine splits "field: value". A single space after the colon is
// dropped. Comment lines yield an empty field.
func parseLine(line string) (field, value string) {
	field, value, found := strings.Cut(line, ":")
	if !found {
		return line, ""
	}
	return field, strings.TrimPrefix(value, " ")
}
