package debug

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

var (
	out      io.Writer
	closer   io.Closer
	mu       sync.Mutex
	enabled  bool
	counters = make(map[string]int)
)

// DefaultPath is ~/.config/tweakseq/debug.log
func DefaultPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "tweakseq", "debug.log")
}

// Enable starts logging to path, truncating it. An empty path uses DefaultPath.
func Enable(path string) error {
	mu.Lock()
	defer mu.Unlock()

	if enabled {
		return nil
	}
	if path == "" {
		path = DefaultPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}

	out, closer = f, f
	enabled = true
	write("debug", "=== tweakseq debug log ===")
	return nil
}

// EnableWriter logs to w instead of a file
func EnableWriter(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	out, closer = w, nil
	enabled = true
}

// Disable stops debug logging
func Disable() {
	mu.Lock()
	defer mu.Unlock()

	if closer != nil {
		closer.Close()
	}
	out, closer = nil, nil
	enabled = false
	counters = make(map[string]int)
}

// Enabled reports whether log lines are being written
func Enabled() bool {
	mu.Lock()
	defer mu.Unlock()
	return enabled
}

// Log writes a message under a category
func Log(category, format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()

	if !enabled || out == nil {
		return
	}
	write(category, fmt.Sprintf(format, args...))
}

// write expects mu to be held
func write(category, msg string) {
	ts := time.Now().Format("15:04:05.000")
	fmt.Fprintf(out, "[%s] %-6s %s\n", ts, category, msg)
	if f, ok := out.(*os.File); ok {
		f.Sync() // see the tail even after a crash
	}
}

// LogEvery logs only every nth call for a given category and format.
// Use it on per-beat and per-message paths.
func LogEvery(n int, category, format string, args ...any) {
	mu.Lock()
	if !enabled {
		mu.Unlock()
		return
	}
	key := category + format
	counters[key]++
	count := counters[key]
	mu.Unlock()

	if n <= 1 || count%n == 0 {
		Log(category, format+" (every %d, count=%d)", append(args, n, count)...)
	}
}
