package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"curator/internal/services"
)

func TestConsoleHandlerFormatsLine(t *testing.T) {
	var buf bytes.Buffer
	lvl := new(slog.LevelVar)
	logger := slog.New(newConsoleHandler(&buf, lvl))

	logger = WithComponent(logger, "validator")
	logger.Info("match accepted", String("item_id", "abc123"), Float64("confidence", 0.97))

	line := buf.String()
	for _, want := range []string{"INFO", "validator:", "match accepted", "item_id=abc123", "confidence=0.97"} {
		if !strings.Contains(line, want) {
			t.Errorf("line missing %q: %s", want, line)
		}
	}
}

func TestConsoleHandlerQuotesValues(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(newConsoleHandler(&buf, new(slog.LevelVar)))

	logger.Info("scanned", String("album", "Buddha-Bar XII (disc 1)"))

	if !strings.Contains(buf.String(), `album="Buddha-Bar XII (disc 1)"`) {
		t.Fatalf("value not quoted: %s", buf.String())
	}
}

func TestConsoleHandlerLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	lvl := new(slog.LevelVar)
	lvl.Set(slog.LevelWarn)
	logger := slog.New(newConsoleHandler(&buf, lvl))

	logger.Info("hidden")
	logger.Warn("visible")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info line should be filtered: %s", out)
	}
	if !strings.Contains(out, "visible") {
		t.Fatalf("warn line missing: %s", out)
	}
}

func TestJSONHandlerLowercasesLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(newJSONHandler(&buf, new(slog.LevelVar)))

	logger.Error("boom", String("item_id", "abc"))

	var payload map[string]any
	if err := json.Unmarshal(buf.Bytes(), &payload); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if payload["level"] != "error" {
		t.Fatalf("level = %v, want error", payload["level"])
	}
	if payload["item_id"] != "abc" {
		t.Fatalf("item_id = %v", payload["item_id"])
	}
}

func TestWithContextCarriesIdentifiers(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(newConsoleHandler(&buf, new(slog.LevelVar)))

	ctx := services.WithItemID(context.Background(), "deadbeef1234")
	ctx = services.WithPhase(ctx, "validating")

	WithContext(ctx, logger).Info("working")

	line := buf.String()
	if !strings.Contains(line, "item_id=deadbeef1234") || !strings.Contains(line, "phase=validating") {
		t.Fatalf("context attrs missing: %s", line)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "yaml"}); err == nil {
		t.Fatal("expected error for unknown format")
	}
}
