package runtime

import (
	"bytes"
	"io"
	"log"
	"slices"
	"sync"
)

// AuditInstance keeps the most recent log lines of the process so chat
// front-ends can show them. It is nil until InstallAuditLogger runs.
var AuditInstance *AuditLogger

// AuditLogger is an io.Writer that remembers the last limit complete lines
// written to it. A trailing line without a newline waits for the next Write.
type AuditLogger struct {
	mu      sync.RWMutex
	lines   []string
	limit   int
	partial []byte
}

func NewAuditLogger(limit int) *AuditLogger {
	if limit <= 0 {
		limit = 1
	}
	return &AuditLogger{
		lines: make([]string, 0, 2*limit),
		limit: limit,
	}
}

// InstallAuditLogger tees the standard logger into out and a buffer of the
// last limit lines, and publishes it as AuditInstance. A nil out keeps log
// lines in the buffer only.
func InstallAuditLogger(limit int, out io.Writer) *AuditLogger {
	a := NewAuditLogger(limit)
	if out == nil {
		log.SetOutput(a)
	} else {
		log.SetOutput(io.MultiWriter(out, a))
	}
	AuditInstance = a
	return a
}

func (a *AuditLogger) Write(p []byte) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	data := append(a.partial, p...)
	for {
		line, rest, found := bytes.Cut(data, []byte{'\n'})
		if !found {
			break
		}
		a.keep(string(bytes.TrimSuffix(line, []byte{'\r'})))
		data = rest
	}
	a.partial = bytes.Clone(data)
	return len(p), nil
}

// keep appends line and drops the oldest ones once twice the limit has
// piled up, so trimming happens once per limit lines.
func (a *AuditLogger) keep(line string) {
	a.lines = append(a.lines, line)
	if len(a.lines) < 2*a.limit {
		return
	}
	n := copy(a.lines, a.lines[len(a.lines)-a.limit:])
	clear(a.lines[n:])
	a.lines = a.lines[:n]
}

// GetLastLogs returns up to n of the retained lines, oldest first.
func (a *AuditLogger) GetLastLogs(n int) []string {
	a.mu.RLock()
	defer a.mu.RUnlock()

	n = min(n, a.limit, len(a.lines))
	if n <= 0 {
		return []string{}
	}
	return slices.Clone(a.lines[len(a.lines)-n:])
}
