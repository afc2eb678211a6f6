package sse

import (
	"strconv"
	"strings"
)

// FrameKind distinguishes real events from keep-alives.
type FrameKind int

const (
	// FrameEvent carries a published event.
	FrameEvent FrameKind = iota
	// FrameKeepAlive is a comment that keeps idle connections open.
	FrameKeepAlive
)

// Frame is one unit written to an SSE response.
type Frame struct {
	Kind FrameKind
	// ID is the event ID. Unused for keep-alives.
	ID uint64
	// Data is the formatted event payload or the keep-alive text.
	Data string
}

// EventFrame returns a frame for a formatted event.
func EventFrame(id uint64, data string) Frame {
	return Frame{Kind: FrameEvent, ID: id, Data: data}
}

// KeepAliveFrame returns a keep-alive comment frame.
func KeepAliveFrame(text string) Frame {
	return Frame{Kind: FrameKeepAlive, Data: text}
}

// IsKeepAlive reports whether the frame is a keep-alive comment.
func (f Frame) IsKeepAlive() bool { return f.Kind == FrameKeepAlive }

// Bytes encodes the frame in the text/event-stream format. Events become an
// id line and one data line per payload line; keep-alives become comment
// lines, which clients never surface as messages. Both end with a blank line.
func (f Frame) Bytes() []byte {
	var b strings.Builder
	if f.Kind == FrameKeepAlive {
		writeLines(&b, ":", f.Data)
	} else {
		b.WriteString("id: ")
		b.WriteString(strconv.FormatUint(f.ID, 10))
		b.WriteByte('\n')
		writeLines(&b, "data:", f.Data)
	}
	b.WriteByte('\n')
	return []byte(b.String())
}

// CommentBytes encodes a standalone comment, e.g. the connection greeting.
func CommentBytes(text string) []byte {
	return KeepAliveFrame(text).Bytes()
}

// writeLines writes one "<prefix> <line>" per line of text. CR and CRLF count
// as line breaks, since a bare CR would end the field on the client.
func writeLines(b *strings.Builder, prefix, text string) {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	for line := range strings.SplitSeq(text, "\n") {
		b.WriteString(prefix)
		if line != "" {
			b.WriteByte(' ')
			b.WriteString(line)
		}
		b.WriteByte('\n')
	}
}

// Formatter renders an event's payload before framing.
type Formatter func(Event) string

// HTMLFormatter wraps the payload in a div, ready for an htmx swap.
func HTMLFormatter(ev Event) string {
	return "<div>" + ev.Data + "</div>"
}

// RawFormatter passes the payload through unchanged.
func RawFormatter(ev Event) string {
	return ev.Data
}
