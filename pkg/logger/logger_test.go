package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]zerolog.Level{
		"trace":   zerolog.TraceLevel,
		"DEBUG":   zerolog.DebugLevel,
		" warn ":  zerolog.WarnLevel,
		"warning": zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"":        zerolog.InfoLevel,
		"bogus":   zerolog.InfoLevel,
	}
	for in, want := range tests {
		if got := parseLevel(in); got != want {
			t.Fatalf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNew_FiltersByLevelAndTagsService(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Level: "warn", Service: "storefront", Output: &buf})

	log.Info().Msg("dropped")
	if buf.Len() != 0 {
		t.Fatalf("info event should be filtered at warn level")
	}

	log.Warn().Msg("kept")
	var event map[string]any
	if err := json.Unmarshal(buf.Bytes(), &event); err != nil {
		t.Fatalf("expected JSON output: %v", err)
	}
	if event["service"] != "storefront" || event["message"] != "kept" {
		t.Fatalf("unexpected event: %v", event)
	}
}

func TestInit_SingletonAndComponent(t *testing.T) {
	reset()
	t.Cleanup(reset)

	var first, second bytes.Buffer
	Init(Options{Output: &first})
	Init(Options{Output: &second})

	items := Component("items")
	items.Info().Msg("hello")
	if second.Len() != 0 {
		t.Fatalf("second Init must not replace the logger")
	}

	var event map[string]any
	if err := json.Unmarshal(first.Bytes(), &event); err != nil {
		t.Fatalf("expected JSON output: %v", err)
	}
	if event["component"] != "items" {
		t.Fatalf("expected component field, got %v", event)
	}
}

func TestGet_NopBeforeInit(t *testing.T) {
	reset()
	t.Cleanup(reset)

	l := Get()
	if l.GetLevel() != zerolog.Disabled {
		t.Fatalf("expected a disabled logger before Init, got level %v", l.GetLevel())
	}

	var buf bytes.Buffer
	Init(Options{Output: &buf})
	l = Get()
	l.Info().Msg("after init")
	if buf.Len() == 0 {
		t.Fatalf("logger from Get should write after Init")
	}
}
