package component

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

type fakeComponent struct {
	name     string
	startErr error
	stopErr  error
	health   Health
	log      *[]string
	stopCtx  context.Context
}

func (f *fakeComponent) Name() string { return f.name }

func (f *fakeComponent) Start(context.Context) error {
	if f.log != nil {
		*f.log = append(*f.log, "start:"+f.name)
	}
	return f.startErr
}

func (f *fakeComponent) Stop(ctx context.Context) error {
	f.stopCtx = ctx
	if f.log != nil {
		*f.log = append(*f.log, "stop:"+f.name)
	}
	return f.stopErr
}

func (f *fakeComponent) Health(context.Context) Health { return f.health }

func TestRegisterDuplicate(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(&fakeComponent{name: "hub"}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if err := r.Register(&fakeComponent{name: "hub"}); err == nil {
		t.Error("expected error for duplicate registration")
	}
}

func TestGetAndAll(t *testing.T) {
	r := NewRegistry()
	hub := &fakeComponent{name: "hub"}
	ticker := &fakeComponent{name: "ticker"}
	_ = r.Register(hub)
	_ = r.Register(ticker)

	if r.Get("hub") != hub {
		t.Error("expected Get to return the registered component")
	}
	if r.Get("missing") != nil {
		t.Error("expected nil for unknown component")
	}
	all := r.All()
	if len(all) != 2 || all[0] != hub || all[1] != ticker {
		t.Errorf("expected registration order, got %v", all)
	}
}

func TestStartStopOrder(t *testing.T) {
	var log []string
	r := NewRegistry()
	for _, name := range []string{"hub", "ticker", "server"} {
		_ = r.Register(&fakeComponent{name: name, log: &log})
	}

	if err := r.StartAll(context.Background()); err != nil {
		t.Fatalf("StartAll failed: %v", err)
	}
	if err := r.StopAll(context.Background()); err != nil {
		t.Fatalf("StopAll failed: %v", err)
	}

	want := "start:hub,start:ticker,start:server,stop:server,stop:ticker,stop:hub"
	if got := strings.Join(log, ","); got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
}

func TestStartAllErrorStopsStartedOnly(t *testing.T) {
	var log []string
	r := NewRegistry()
	_ = r.Register(&fakeComponent{name: "hub", log: &log})
	_ = r.Register(&fakeComponent{name: "ticker", log: &log, startErr: errors.New("boom")})
	_ = r.Register(&fakeComponent{name: "server", log: &log})

	if err := r.StartAll(context.Background()); err == nil {
		t.Fatal("expected start error")
	}
	_ = r.StopAll(context.Background())

	want := "start:hub,start:ticker,stop:hub"
	if got := strings.Join(log, ","); got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
}

func TestStopAllJoinsErrors(t *testing.T) {
	errA := errors.New("a")
	errB := errors.New("b")
	r := NewRegistry()
	_ = r.Register(&fakeComponent{name: "a", stopErr: errA})
	_ = r.Register(&fakeComponent{name: "b", stopErr: errB})
	_ = r.StartAll(context.Background())

	err := r.StopAll(context.Background())
	if !errors.Is(err, errA) || !errors.Is(err, errB) {
		t.Errorf("expected both stop errors, got %v", err)
	}
}

func TestStopTimeoutApplied(t *testing.T) {
	c := &fakeComponent{name: "hub"}
	r := NewRegistry()
	r.SetStopTimeout(time.Second)
	_ = r.Register(c)
	_ = r.StartAll(context.Background())
	_ = r.StopAll(context.Background())

	deadline, ok := c.stopCtx.Deadline()
	if !ok {
		t.Fatal("expected stop context to carry a deadline")
	}
	if time.Until(deadline) > time.Second {
		t.Errorf("deadline too far away: %v", time.Until(deadline))
	}
}

func TestHealthAll(t *testing.T) {
	r := NewRegistry()
	_ = r.Register(&fakeComponent{name: "hub", health: Health{Name: "hub", Status: StatusHealthy}})
	_ = r.Register(&fakeComponent{name: "command", health: Health{Name: "command", Status: StatusDegraded}})

	results := r.HealthAll(context.Background())
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[1].Status != StatusDegraded {
		t.Errorf("expected degraded, got %s", results[1].Status)
	}
}
