package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestInitialize_SilentByDefault(t *testing.T) {
	t.Setenv(LogLevelEnvVar, "")

	if err := Initialize(""); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}

	if GetLogger().Core().Enabled(zapcore.ErrorLevel) {
		t.Error("logger should be silent when no level is configured")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"info", zapcore.InfoLevel},
		{"warn", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"verbose", zapcore.InfoLevel},
		{"WARN", zapcore.WarnLevel},
		{"fatal", zapcore.InfoLevel},
	}

	for _, tt := range tests {
		if got := parseLevel(tt.in); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLogSDKEvent_Fields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	SetLogger(zap.New(core))
	defer SetLogger(nil)

	LogSDKEvent("paymentStatus", zap.String("status", "PAYMENT_COMPLETED"))

	entries := logs.FilterMessage("SDK event").All()
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}

	fields := entries[0].ContextMap()
	if fields["kind"] != "paymentStatus" {
		t.Errorf("kind = %v, want paymentStatus", fields["kind"])
	}
	if fields["status"] != "PAYMENT_COMPLETED" {
		t.Errorf("status = %v, want PAYMENT_COMPLETED", fields["status"])
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("abcdef", 3); got != "abc..." {
		t.Errorf("truncate() = %q, want abc...", got)
	}
	if got := truncate("ab", 3); got != "ab" {
		t.Errorf("truncate() = %q, want ab", got)
	}
}

func TestFrameTypeName(t *testing.T) {
	tests := map[int]string{1: "text", 2: "binary", 8: "close", 9: "ping", 10: "pong", 42: "unknown(42)"}
	for in, want := range tests {
		if got := frameTypeName(in); got != want {
			t.Errorf("frameTypeName(%d) = %q, want %q", in, got, want)
		}
	}
}

func TestLogWebSocketMessage_TruncatesText(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	SetLogger(zap.New(core))
	defer SetLogger(nil)

	LogWebSocketMessage("127.0.0.1:1", "sent", 1, []byte(strings.Repeat("x", maxLoggedPayload+10)))
	LogWebSocketMessage("127.0.0.1:1", "sent", 2, []byte{0x01})

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	content, ok := entries[0].ContextMap()["content"].(string)
	if !ok || len(content) != maxLoggedPayload+3 {
		t.Errorf("text content length = %d, want %d", len(content), maxLoggedPayload+3)
	}
	if _, ok := entries[1].ContextMap()["content"]; ok {
		t.Error("binary frames should not log content")
	}
}

func TestInitializeToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checkout.log")
	if err := InitializeToFile("debug", path); err != nil {
		t.Fatalf("InitializeToFile() error = %v", err)
	}
	defer SetLogger(nil)

	Info("hello from test")
	Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !strings.Contains(string(data), "hello from test") {
		t.Errorf("log file = %q", data)
	}
}
