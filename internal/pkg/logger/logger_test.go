package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func TestLogErrorUsesContextLogger(t *testing.T) {
	var buf bytes.Buffer
	l := zerolog.New(&buf).With().Str("request_id", "req-1").Logger()
	ctx := WithContext(context.Background(), &l)

	LogError(ctx, errors.New("db down"), "ledger insert failed", "reference", "ref_abc123", "credits", 25, "dangling")

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log output is not json: %v (%s)", err, buf.String())
	}
	if entry["request_id"] != "req-1" || entry["reference"] != "ref_abc123" || entry["error"] != "db down" {
		t.Fatalf("unexpected log entry: %v", entry)
	}
	if entry["credits"] != float64(25) {
		t.Fatalf("expected credits field, got %v", entry["credits"])
	}
	if _, ok := entry["dangling"]; ok {
		t.Fatalf("dangling key should be dropped")
	}
}

func TestFromContextFallsBackToGlobal(t *testing.T) {
	if FromContext(context.Background()) != &log.Logger {
		t.Fatalf("expected global logger")
	}
}

func TestInitJSON(t *testing.T) {
	var buf bytes.Buffer
	prev := log.Logger
	prevLevel := zerolog.GlobalLevel()
	defer func() {
		log.Logger = prev
		zerolog.SetGlobalLevel(prevLevel)
	}()

	Init(Config{Level: "warn", Environment: "production", Output: &buf})
	log.Info().Msg("hidden")
	log.Warn().Msg("shown")

	if bytes.Contains(buf.Bytes(), []byte("hidden")) {
		t.Fatalf("info should be filtered at warn level: %s", buf.String())
	}
	if !bytes.Contains(buf.Bytes(), []byte(`"service":"agroci-api"`)) {
		t.Fatalf("expected service field: %s", buf.String())
	}
}
