package process_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/kbukum/eventhub/process"
	"github.com/kbukum/eventhub/resilience"
)

func TestRunEcho(t *testing.T) {
	result, err := process.Run(context.Background(), process.Command{
		Binary: "echo",
		Args:   []string{"hello"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.ExitCode != 0 {
		t.Fatalf("expected exit code 0, got %d", result.ExitCode)
	}
	if string(result.Stdout) != "hello\n" {
		t.Fatalf("expected %q, got %q", "hello\n", result.Stdout)
	}
}

func TestRunStdin(t *testing.T) {
	result, err := process.Run(context.Background(), process.Command{
		Binary: "cat",
		Stdin:  strings.NewReader("from stdin"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(result.Stdout) != "from stdin" {
		t.Fatalf("expected 'from stdin', got %q", result.Stdout)
	}
}

func TestRunExitCode(t *testing.T) {
	result, err := process.Run(context.Background(), process.Command{
		Binary: "sh",
		Args:   []string{"-c", "echo oops >&2; exit 42"},
	})
	if !errors.Is(err, process.ErrExit) {
		t.Fatalf("expected ErrExit, got %v", err)
	}
	if process.Kind(err) != "exit" {
		t.Errorf("expected kind exit, got %q", process.Kind(err))
	}
	if result.ExitCode != 42 {
		t.Fatalf("expected exit code 42, got %d", result.ExitCode)
	}
	if strings.TrimSpace(string(result.Stderr)) != "oops" {
		t.Fatalf("expected 'oops' on stderr, got %q", result.Stderr)
	}
}

func TestRunMissingBinary(t *testing.T) {
	result, err := process.Run(context.Background(), process.Command{
		Binary: "/nonexistent/eventhub-test-binary",
	})
	if !errors.Is(err, process.ErrStart) {
		t.Fatalf("expected ErrStart, got %v", err)
	}
	if process.Kind(err) != "launch" {
		t.Errorf("expected kind launch, got %q", process.Kind(err))
	}
	if result.ExitCode != -1 {
		t.Errorf("expected exit code -1, got %d", result.ExitCode)
	}
}

func TestRunEmptyBinary(t *testing.T) {
	_, err := process.Run(context.Background(), process.Command{})
	if !errors.Is(err, process.ErrStart) {
		t.Fatalf("expected ErrStart for empty binary, got %v", err)
	}
}

func TestRunContextCancel(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	result, err := process.Run(ctx, process.Command{
		Binary:      "sleep",
		Args:        []string{"10"},
		GracePeriod: 500 * time.Millisecond,
	})
	if !errors.Is(err, process.ErrKilled) {
		t.Fatalf("expected ErrKilled, got %v", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline in chain, got %v", err)
	}
	if process.Kind(err) != "timeout" {
		t.Errorf("expected kind timeout, got %q", process.Kind(err))
	}
	if result.Duration > 5*time.Second {
		t.Fatalf("process took too long to kill: %v", result.Duration)
	}
}

func TestRunEnv(t *testing.T) {
	result, err := process.Run(context.Background(), process.Command{
		Binary: "sh",
		Args:   []string{"-c", "echo $EVENTHUB_TEST_VAR"},
		Env:    []string{"EVENTHUB_TEST_VAR=hello123"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(string(result.Stdout)) != "hello123" {
		t.Fatalf("expected 'hello123', got %q", result.Stdout)
	}
}

func TestKind(t *testing.T) {
	if process.Kind(nil) != "" {
		t.Error("nil error has no kind")
	}
	if process.Kind(errors.New("other")) != "" {
		t.Error("unclassified error has no kind")
	}
}

func TestCommandString(t *testing.T) {
	cmd := process.Command{Binary: "echo", Args: []string{"hello", "world"}}
	if cmd.String() != "echo hello world" {
		t.Errorf("unexpected command line %q", cmd.String())
	}
	if (process.Command{Binary: "true"}).String() != "true" {
		t.Error("expected bare binary")
	}
}

func TestRunnerTimeout(t *testing.T) {
	r := process.NewRunner(process.RunnerConfig{Timeout: 50 * time.Millisecond, GracePeriod: 100 * time.Millisecond}, nil)
	_, err := r.Run(context.Background(), process.Command{Binary: "sleep", Args: []string{"5"}})
	if process.Kind(err) != "timeout" {
		t.Fatalf("expected timeout, got %v", err)
	}
}

func TestRunnerGuardTripsBreaker(t *testing.T) {
	guard := resilience.NewGuard(resilience.GuardConfig{
		Name:    "command",
		Breaker: resilience.CircuitBreakerConfig{MaxFailures: 2, Timeout: time.Hour},
	})
	r := process.NewRunner(process.RunnerConfig{}, guard)
	failing := process.Command{Binary: "false"}

	for i := 0; i < 2; i++ {
		if _, err := r.Run(context.Background(), failing); !errors.Is(err, process.ErrExit) {
			t.Fatalf("run %d: expected ErrExit, got %v", i, err)
		}
	}

	result, err := r.Run(context.Background(), process.Command{Binary: "echo", Args: []string{"hi"}})
	if !errors.Is(err, resilience.ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}
	if result != nil {
		t.Error("expected no result when the breaker rejects")
	}
}

func TestRunnerSuccessKeepsBreakerClosed(t *testing.T) {
	guard := resilience.NewGuard(resilience.GuardConfig{Breaker: resilience.CircuitBreakerConfig{MaxFailures: 1}})
	r := process.NewRunner(process.RunnerConfig{}, guard)

	for i := 0; i < 3; i++ {
		if _, err := r.Run(context.Background(), process.Command{Binary: "true"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if guard.Breaker().State() != resilience.StateClosed {
		t.Errorf("expected closed breaker, got %s", guard.Breaker().State())
	}
}
