package log

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"testing"
)

// parseJSONLines parses newline-delimited JSON log output.
func parseJSONLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()

	var entries []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]interface{}
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("Failed to parse log line %q: %v", line, err)
		}
		entries = append(entries, entry)
	}
	return entries
}

func TestZerologProviderEmitsJSON(t *testing.T) {
	buf := &bytes.Buffer{}
	provider := NewZerologProviderWithWriter(slog.LevelDebug, buf)

	logger := provider.GetLoggerWithName("tree.classifier")
	logger.Info("fit completed",
		OperationKey, OperationFit,
		SamplesKey, 4000,
	)

	entries := parseJSONLines(t, buf)
	if len(entries) != 1 {
		t.Fatalf("Expected 1 log entry, got %d", len(entries))
	}

	entry := entries[0]
	if entry["message"] != "fit completed" {
		t.Errorf("Expected message 'fit completed', got %v", entry["message"])
	}
	if entry[ComponentKey] != "tree.classifier" {
		t.Errorf("Expected component 'tree.classifier', got %v", entry[ComponentKey])
	}
	if entry[OperationKey] != OperationFit {
		t.Errorf("Expected operation %q, got %v", OperationFit, entry[OperationKey])
	}
	if entry[SamplesKey] != 4000.0 {
		t.Errorf("Expected %s=4000, got %v", SamplesKey, entry[SamplesKey])
	}
	if _, ok := entry["time"]; !ok {
		t.Error("Expected timestamp field in log entry")
	}
}

func TestZerologProviderLevelFiltering(t *testing.T) {
	buf := &bytes.Buffer{}
	provider := NewZerologProviderWithWriter(slog.LevelWarn, buf)

	logger := provider.GetLogger()
	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message")
	logger.Error("error message")

	output := buf.String()
	if strings.Contains(output, "debug message") {
		t.Error("Debug message should be filtered at Warn level")
	}
	if strings.Contains(output, "info message") {
		t.Error("Info message should be filtered at Warn level")
	}
	if !strings.Contains(output, "warn message") {
		t.Error("Warn message should pass at Warn level")
	}
	if !strings.Contains(output, "error message") {
		t.Error("Error message should pass at Warn level")
	}
}

func TestZerologLoggerErrorWithLeadingError(t *testing.T) {
	buf := &bytes.Buffer{}
	provider := NewZerologProviderWithWriter(slog.LevelDebug, buf)

	logger := provider.GetLogger()
	testErr := fmt.Errorf("grid is empty")
	logger.Error("tuning failed",
		testErr,
		ErrorCodeKey, ErrorEmptyGrid,
	)

	entries := parseJSONLines(t, buf)
	if len(entries) != 1 {
		t.Fatalf("Expected 1 log entry, got %d", len(entries))
	}

	entry := entries[0]
	if entry["error"] != "grid is empty" {
		t.Errorf("Expected error field 'grid is empty', got %v", entry["error"])
	}
	if entry[ErrorCodeKey] != ErrorEmptyGrid {
		t.Errorf("Expected error code %q, got %v", ErrorEmptyGrid, entry[ErrorCodeKey])
	}
}

func TestZerologLoggerWith(t *testing.T) {
	buf := &bytes.Buffer{}
	provider := NewZerologProviderWithWriter(slog.LevelDebug, buf)

	contextLogger := provider.GetLogger().With(
		ModelNameKey, "GaussianNB",
		RandomSeedKey, 42,
	)
	contextLogger.Info("baseline trained")

	entries := parseJSONLines(t, buf)
	if len(entries) != 1 {
		t.Fatalf("Expected 1 log entry, got %d", len(entries))
	}

	entry := entries[0]
	if entry[ModelNameKey] != "GaussianNB" {
		t.Errorf("Expected model name 'GaussianNB', got %v", entry[ModelNameKey])
	}
	if entry[RandomSeedKey] != 42.0 {
		t.Errorf("Expected seed 42, got %v", entry[RandomSeedKey])
	}
}

func TestZerologLoggerEnabled(t *testing.T) {
	buf := &bytes.Buffer{}
	provider := NewZerologProviderWithWriter(slog.LevelInfo, buf)
	logger := provider.GetLogger()
	ctx := context.Background()

	if logger.Enabled(ctx, LevelDebug) {
		t.Error("Debug should be disabled at Info level")
	}
	if !logger.Enabled(ctx, LevelInfo) {
		t.Error("Info should be enabled at Info level")
	}
	if !logger.Enabled(ctx, LevelError) {
		t.Error("Error should be enabled at Info level")
	}
}

func TestFromSlogLevel(t *testing.T) {
	tests := []struct {
		in   slog.Level
		want Level
	}{
		{slog.LevelDebug, LevelDebug},
		{slog.LevelInfo, LevelInfo},
		{slog.LevelWarn, LevelWarn},
		{slog.LevelError, LevelError},
	}

	for _, tt := range tests {
		if got := FromSlogLevel(tt.in); got != tt.want {
			t.Errorf("FromSlogLevel(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestGlobalProviderSwap(t *testing.T) {
	// Restore whatever provider was installed before this test.
	providerMu.RLock()
	old := globalProvider
	providerMu.RUnlock()
	defer SetLoggerProvider(old)

	testProvider, buf := NewTestLoggerProvider(LevelDebug)
	SetLoggerProvider(testProvider)

	GetLoggerWithName("analysis.describe").Info("summary computed")

	if !strings.Contains(buf.String(), "summary computed") {
		t.Error("Expected package-level logger to route through the installed provider")
	}
	if !strings.Contains(buf.String(), "analysis.describe") {
		t.Error("Expected component name in output")
	}
}
