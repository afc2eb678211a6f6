// Package component defines the lifecycle contract shared by the hub, the
// producers and the HTTP server, and a Registry that starts them in
// registration order and stops them in reverse.
package component
