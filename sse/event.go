package sse

import (
	"errors"
	"time"
)

// Event is one published message. Every subscriber receives its own copy.
type Event struct {
	// ID is assigned by the hub and strictly increases per hub.
	ID uint64
	// Data is the opaque payload, delivered unchanged.
	Data string
	// Time is when the hub accepted the event.
	Time time.Time
}

// Termination reasons reported by Subscription.Err.
var (
	// ErrHubClosed means the hub was stopped.
	ErrHubClosed = errors.New("sse: hub closed")
	// ErrSlowSubscriber means the subscriber's queue overflowed under the
	// disconnect policy.
	ErrSlowSubscriber = errors.New("sse: subscriber queue overflow")
)

// DropPolicy decides what happens when an event meets a full subscriber queue.
type DropPolicy string

const (
	// DropDisconnect removes the subscriber. Events already queued are still
	// delivered, then its stream ends and the client reconnects.
	DropDisconnect DropPolicy = "disconnect"
	// DropNewest discards the incoming event for that subscriber.
	DropNewest DropPolicy = "drop-newest"
	// DropOldest discards the oldest queued event to make room.
	DropOldest DropPolicy = "drop-oldest"
)

func (p DropPolicy) String() string { return string(p) }
