// Package process runs external commands to completion and classifies how
// they failed: could not start, exited non-zero, or killed when the context
// ended.
package process
