package shared

import (
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestParseLogLevel(t *testing.T) {
	tc := []struct {
		name  string
		input string
		want  log.Level
	}{
		{name: "empty defaults to info", input: "", want: log.InfoLevel},
		{name: "debug", input: "debug", want: log.DebugLevel},
		{name: "mixed case", input: "WaRn", want: log.WarnLevel},
		{name: "unknown defaults to info", input: "chatty", want: log.InfoLevel},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseLogLevel(tt.input); got != tt.want {
				t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestGenerateID(t *testing.T) {
	a, b := GenerateID(), GenerateID()
	if a == b {
		t.Error("expected distinct ids")
	}
	if len(a) != 36 {
		t.Errorf("expected uuid string of length 36, got %d", len(a))
	}
}

func TestMarshalJSON(t *testing.T) {
	data := map[string]int{"tracks": 2}

	t.Run("compact", func(t *testing.T) {
		got, err := MarshalJSON(data, false)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(got) != `{"tracks":2}` {
			t.Errorf("got %s", got)
		}
	})

	t.Run("pretty", func(t *testing.T) {
		got, err := MarshalJSON(data, true)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(string(got), "\n  \"tracks\": 2") {
			t.Errorf("expected indented JSON, got %s", got)
		}
	})

	t.Run("unsupported value", func(t *testing.T) {
		if _, err := MarshalJSON(make(chan int), false); err == nil {
			t.Error("expected error for channel value")
		}
	})
}

func TestGenerateState(t *testing.T) {
	a, err := GenerateState()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, _ := GenerateState()
	if a == b {
		t.Error("expected distinct states")
	}
	if strings.ContainsAny(a, "+/=") {
		t.Errorf("expected url safe state, got %q", a)
	}
}

func TestOpenBrowserUnsupportedPlatform(t *testing.T) {
	orig := getRuntime
	defer func() { getRuntime = orig }()
	getRuntime = func() string { return "plan9" }

	if err := OpenBrowser("http://example.com"); err == nil || !strings.Contains(err.Error(), "unsupported platform") {
		t.Errorf("expected unsupported platform error, got %v", err)
	}
}
