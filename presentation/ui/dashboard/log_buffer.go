package dashboard

import (
	"strings"
	"sync"
)

const defaultLogCapacity = 256

// LogFeed is read by the dashboard's log pane.
type LogFeed interface {
	Tail(limit int) []string
}

// LogBuffer is a fixed-size ring of log lines. It is an io.Writer so the
// logger can write into it while the dashboard owns the terminal.
type LogBuffer struct {
	mu       sync.Mutex
	capacity int
	lines    []string
	head     int // next write position
	count    int
	partial  string
}

func NewLogBuffer(capacity int) *LogBuffer {
	if capacity <= 0 {
		capacity = defaultLogCapacity
	}
	return &LogBuffer{
		capacity: capacity,
		lines:    make([]string, capacity),
	}
}

func (b *LogBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	chunk := string(p)
	for len(chunk) > 0 {
		idx := strings.IndexByte(chunk, '\n')
		if idx < 0 {
			b.partial += chunk
			break
		}
		b.partial += chunk[:idx]
		b.appendLocked(strings.TrimRight(b.partial, "\r"))
		b.partial = ""
		chunk = chunk[idx+1:]
	}
	return len(p), nil
}

// Tail returns up to limit of the newest complete lines, oldest first.
func (b *LogBuffer) Tail(limit int) []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	if limit <= 0 || b.count == 0 {
		return nil
	}
	n := min(b.count, limit)
	out := make([]string, n)
	start := (b.head - n + b.capacity) % b.capacity
	if start+n <= b.capacity {
		copy(out, b.lines[start:start+n])
	} else {
		first := b.capacity - start
		copy(out, b.lines[start:])
		copy(out[first:], b.lines[:n-first])
	}
	return out
}

func (b *LogBuffer) appendLocked(line string) {
	b.lines[b.head] = line
	b.head = (b.head + 1) % b.capacity
	if b.count < b.capacity {
		b.count++
	}
}
