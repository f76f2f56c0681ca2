package debug

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLogDisabledWritesNothing(t *testing.T) {
	var buf bytes.Buffer
	EnableWriter(&buf)
	Disable()
	Log("seq", "hello %d", 1)
	LogEvery(1, "seq", "hello again")
	if buf.Len() != 0 {
		t.Fatalf("disabled logger wrote %q", buf.String())
	}
	if Enabled() {
		t.Errorf("Enabled() = true after Disable")
	}
}

func TestLogWriterFormat(t *testing.T) {
	var buf bytes.Buffer
	EnableWriter(&buf)
	defer Disable()

	Log("clock", "period=%d", 500)
	line := buf.String()
	if !strings.Contains(line, "clock") || !strings.Contains(line, "period=500") {
		t.Errorf("log line = %q", line)
	}
	if !strings.HasPrefix(line, "[") || !strings.HasSuffix(line, "\n") {
		t.Errorf("log line not timestamped and terminated: %q", line)
	}
}

func TestLogEvery(t *testing.T) {
	var buf bytes.Buffer
	EnableWriter(&buf)
	defer Disable()

	for i := 0; i < 10; i++ {
		LogEvery(5, "midi", "clock pulse")
	}
	if got := strings.Count(buf.String(), "clock pulse"); got != 2 {
		t.Errorf("LogEvery(5) wrote %d lines in 10 calls, want 2", got)
	}
}

func TestEnableFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "debug.log")
	if err := Enable(path); err != nil {
		t.Fatalf("Enable: %v", err)
	}
	Log("store", "saved bank %d", 2)
	Disable()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), "saved bank 2") {
		t.Errorf("log file missing line:\n%s", data)
	}
}
