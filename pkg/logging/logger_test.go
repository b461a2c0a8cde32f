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

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    zapcore.Level
		wantErr bool
	}{
		{"", zapcore.DebugLevel, false},
		{"debug", zapcore.DebugLevel, false},
		{"INFO", zapcore.InfoLevel, false},
		{"warning", zapcore.WarnLevel, false},
		{"error", zapcore.ErrorLevel, false},
		{"loud", zapcore.DebugLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestNewLogger_RejectsUnknownFormat(t *testing.T) {
	if _, err := NewLogger(ComponentHub, Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestNewLogger_FileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hub.log")

	logger, err := NewLogger(ComponentHub, Options{OutputFile: path, EnableColors: true})
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	logger.ComponentInfo(ComponentHub, "hello", zap.String("channel", "orders"))
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	out := string(data)
	if !strings.Contains(out, "[HUB] hello") {
		t.Errorf("expected component-tagged message, got %q", out)
	}
	if strings.Contains(out, "\033[") {
		t.Errorf("file output should not contain ANSI colors: %q", out)
	}
}

func TestComponentMessages(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := NewObservedLogger(core)

	logger.ComponentDebug(ComponentRedis, "d")
	logger.ComponentInfo(ComponentGateway, "i")
	logger.ComponentWarn(ComponentLibP2P, "w")
	logger.ComponentError(ComponentOlric, "e")

	entries := logs.AllUntimed()
	want := []string{"[REDIS] d", "[GATEWAY] i", "[LIBP2P] w", "[OLRIC] e"}
	if len(entries) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(entries))
	}
	for i, e := range entries {
		if e.Message != want[i] {
			t.Errorf("entry %d: expected %q, got %q", i, want[i], e.Message)
		}
	}
}

func TestNopLogger(t *testing.T) {
	logger := NewNopLogger()
	logger.ComponentInfo(ComponentHub, "discarded")
}
