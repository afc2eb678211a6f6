package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestNewDefault(t *testing.T) {
	l := NewDefault("eventhub")
	if l == nil {
		t.Fatal("expected non-nil logger")
	}
	if l.service != "eventhub" {
		t.Errorf("expected service 'eventhub', got %q", l.service)
	}
}

func TestNewInvalidLevel(t *testing.T) {
	l := New(&Config{Level: "invalid-level", Format: "json", Output: "stdout"}, "test")
	if l == nil {
		t.Fatal("expected logger to be created even with invalid level")
	}
}

func TestNewWithWriter_WritesJSON(t *testing.T) {
	Init(&Config{Level: "debug", Format: "json"})
	var buf bytes.Buffer
	l := NewWithWriter(&buf, "eventhub").WithComponent("hub")
	l.Info("subscriber registered", Fields(FieldSubscriberID, "abc"))

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v (%q)", err, buf.String())
	}
	if entry["message"] != "subscriber registered" {
		t.Errorf("unexpected message %v", entry["message"])
	}
	if entry[FieldComponent] != "hub" {
		t.Errorf("expected component=hub, got %v", entry[FieldComponent])
	}
	if entry[FieldSubscriberID] != "abc" {
		t.Errorf("expected subscriber_id=abc, got %v", entry[FieldSubscriberID])
	}
}

func TestWithContext_RequestID(t *testing.T) {
	Init(&Config{Level: "debug", Format: "json"})
	var buf bytes.Buffer
	l := NewWithWriter(&buf, "eventhub")

	ctx := ContextWithRequestID(context.Background(), "req-1")
	if RequestIDFromContext(ctx) != "req-1" {
		t.Fatalf("expected request id round trip")
	}
	l.WithContext(ctx).Info("hello")

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if entry[FieldRequestID] != "req-1" {
		t.Errorf("expected request_id=req-1, got %v", entry[FieldRequestID])
	}
}

func TestWithContext_NoRequestID(t *testing.T) {
	l := NewDefault("test")
	if l.WithContext(context.Background()) != l {
		t.Error("expected the same logger when the context carries nothing")
	}
}

func TestWithSubscriberAndFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, "eventhub").
		WithSubscriber("sub-1").
		WithFields(map[string]interface{}{FieldPolicy: "drop-oldest"})
	l.Warn("events dropped")

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if entry[FieldSubscriberID] != "sub-1" || entry[FieldPolicy] != "drop-oldest" {
		t.Errorf("unexpected entry %v", entry)
	}
	if entry["level"] != "warn" {
		t.Errorf("expected warn level, got %v", entry["level"])
	}
}

func TestConsoleWriterTags(t *testing.T) {
	var buf bytes.Buffer
	zl := zerolog.New(consoleWriter(&buf, "eventhub", true))
	zl.Info().Str(FieldCommand, "echo").Msg("command ran")

	out := buf.String()
	for _, want := range []string{"[EVE][INF]", "command ran", "command:echo"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in %q", want, out)
		}
	}
}

func TestEnabled(t *testing.T) {
	Init(&Config{Level: "warn", Format: "json"})
	defer Init(&Config{Level: "info", Format: "json"})

	l := GetGlobalLogger()
	if l.Enabled("info") {
		t.Error("info must be disabled at warn level")
	}
	if !l.Enabled("error") {
		t.Error("error must be enabled at warn level")
	}
	if l.Enabled("nonsense") {
		t.Error("unknown levels are never enabled")
	}
}

func TestInit(t *testing.T) {
	Init(&Config{Level: "info", Format: "console", Output: "stdout", ServiceName: "eventhub"})
	gl := GetGlobalLogger()
	if gl == nil {
		t.Fatal("expected global logger to be set after Init")
	}
	if gl.service != "eventhub" {
		t.Errorf("expected service 'eventhub', got %q", gl.service)
	}
}

func TestGetGlobalLoggerDefault(t *testing.T) {
	globalLogger = nil
	if GetGlobalLogger() == nil {
		t.Fatal("expected default global logger to be created")
	}
}

func TestPackageLevelFunctions(t *testing.T) {
	Init(&Config{Level: "debug", Format: "console", Output: "stdout"})
	Info("info msg")
	Warn("warn msg")
}

func TestConfigApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.Level != "info" {
		t.Errorf("expected level 'info', got %q", cfg.Level)
	}
	if cfg.Format != "console" {
		t.Errorf("expected format 'console', got %q", cfg.Format)
	}
	if cfg.Output != "stdout" {
		t.Errorf("expected output 'stdout', got %q", cfg.Output)
	}
	if !cfg.Timestamp {
		t.Error("expected Timestamp to be true")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"valid", Config{Level: "info", Format: "json"}, false},
		{"valid console", Config{Level: "debug", Format: "console"}, false},
		{"invalid level", Config{Level: "bad", Format: "json"}, true},
		{"invalid format", Config{Level: "info", Format: "xml"}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if (err != nil) != tc.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestFields(t *testing.T) {
	tests := []struct {
		name     string
		input    []interface{}
		expected map[string]interface{}
	}{
		{"key-value pairs", []interface{}{"op", "publish", "id", 42}, map[string]interface{}{"op": "publish", "id": 42}},
		{"odd number of args", []interface{}{"op", "publish", "trailing"}, map[string]interface{}{"op": "publish"}},
		{"non-string key skipped", []interface{}{123, "value", "key", "val"}, map[string]interface{}{"key": "val"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result := Fields(tc.input...)
			if len(result) != len(tc.expected) {
				t.Errorf("expected %d fields, got %d", len(tc.expected), len(result))
			}
			for k, v := range tc.expected {
				if result[k] != v {
					t.Errorf("Fields[%q] = %v, expected %v", k, result[k], v)
				}
			}
		})
	}
}

func TestErrorAndDurationFields(t *testing.T) {
	fields := ErrorFields("trigger", fmt.Errorf("something broke"))
	if fields[FieldOperation] != "trigger" {
		t.Errorf("expected operation 'trigger', got %v", fields[FieldOperation])
	}
	if fields[FieldError] != "something broke" {
		t.Errorf("expected error 'something broke', got %v", fields[FieldError])
	}

	d := DurationFields("trigger", 150*time.Millisecond)
	if d[FieldDuration] != int64(150) {
		t.Errorf("expected duration 150, got %v", d[FieldDuration])
	}

	merged := MergeWithError(nil, fmt.Errorf("x"))
	if merged[FieldError] != "x" {
		t.Errorf("expected error field from nil map, got %v", merged[FieldError])
	}
}
