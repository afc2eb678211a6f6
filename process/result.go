package process

import (
	"errors"
	"time"
)

// Result holds the output and status of a completed subprocess.
type Result struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int // -1 if the process never started or was killed
	Duration time.Duration
}

// Failure classes returned (wrapped) by Run.
var (
	// ErrStart means the process could not be launched.
	ErrStart = errors.New("process: failed to start")
	// ErrExit means the process ran and exited non-zero.
	ErrExit = errors.New("process: non-zero exit")
	// ErrKilled means the context ended before the process did.
	ErrKilled = errors.New("process: killed by context")
)

// Kind names the failure class of an error returned by Run: "launch",
// "exit", "timeout" or "" when err is nil or unclassified.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrKilled):
		return "timeout"
	case errors.Is(err, ErrExit):
		return "exit"
	case errors.Is(err, ErrStart):
		return "launch"
	default:
		return ""
	}
}
