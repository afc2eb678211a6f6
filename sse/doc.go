// Package sse fans string events out to long-lived Server-Sent Events
// subscribers.
//
// A Hub assigns each published event a sequence ID and enqueues it, without
// blocking, into the bounded queue of every current Subscription. A Stream
// turns one subscription into a lazy sequence of wire frames, interleaving
// keep-alive comments when the hub is quiet, and ServeSSE writes those frames
// to an HTTP response.
//
//	hub := sse.NewHub(sse.HubConfig{QueueSize: 10})
//	defer hub.Stop()
//
//	router.GET("/todos/stream", sse.Handler(hub, streamCfg))
//	_ = hub.Publish("1")
//
// A subscriber whose queue is full is handled by the hub's DropPolicy; the
// publisher and the other subscribers never notice.
package sse
