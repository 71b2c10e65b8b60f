package log

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
)

func TestSetOutputRedirects(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(io.Discard)
	SetLevel(LevelInfo)

	Info("event created", "id", "abc")
	Debug("hidden")
	Error("save failed", errors.New("disk full"))

	out := buf.String()
	for _, want := range []string{"event created", "abc", "save failed", "disk full"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in %q", want, out)
		}
	}
	if strings.Contains(out, "hidden") {
		t.Error("debug line written at info level")
	}
}

func TestSetOutputWhileLogging(t *testing.T) {
	var wg sync.WaitGroup
	for i := range 4 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for range 50 {
				Info("tick", "worker", i)
			}
		}()
		go func() {
			defer wg.Done()
			for range 50 {
				SetOutput(io.Discard)
			}
		}()
	}
	wg.Wait()
}

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"debug":   LevelDebug,
		" WARN ":  LevelWarn,
		"warning": LevelWarn,
		"error":   LevelError,
		"":        LevelInfo,
		"verbose": LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q): expected %s, got %s", in, want, got)
		}
	}
}
