// Package app assembles eventhub: configuration, the HTTP routes and pages,
// and the wiring of hub, producers and server into the bootstrap lifecycle.
package app
