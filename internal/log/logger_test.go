package log

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]zerolog.Level{
		"debug":   zerolog.DebugLevel,
		"INFO":    zerolog.InfoLevel,
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

	if got := New("warn").GetLevel(); got != zerolog.WarnLevel {
		t.Fatalf("expected warn logger, got %v", got)
	}
}

func TestNewWithWriterTagsService(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter("debug", &buf)

	logger.Debug().Str("room", "main").Msg("history delivered")
	logger.Trace().Msg("hidden")

	out := buf.String()
	for _, want := range []string{"history delivered", "service=" + Service, "room=main"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in log output %q", want, out)
		}
	}
	if strings.Contains(out, "hidden") {
		t.Fatalf("trace record leaked at debug level: %q", out)
	}
}
