package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"
)

// AuditLog records every approval the matcher produces (exchange invocations
// and withdraw payloads) as JSON lines.
type AuditLog interface {
	Append(event string, fields map[string]any)
}

type NopAuditLog struct{}

func NewNopAuditLog() *NopAuditLog                    { return &NopAuditLog{} }
func (NopAuditLog) Append(_ string, _ map[string]any) {}

type FileAuditLog struct {
	mu sync.Mutex
	f  *os.File
}

func NewFileAuditLog(path string) (*FileAuditLog, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	return &FileAuditLog{f: f}, nil
}

func (w *FileAuditLog) Append(event string, fields map[string]any) {
	entry := make(map[string]any, len(fields)+2)
	for k, v := range fields {
		entry[k] = v
	}
	entry["event"] = event
	entry["ts"] = time.Now().UTC().Format(time.RFC3339)
	line, err := json.Marshal(entry)
	if err != nil {
		line = []byte(fmt.Sprintf(`{"event":%q,"error":%q}`, event, err.Error()))
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	fmt.Fprintln(w.f, string(line))
}

func (w *FileAuditLog) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.f.Close()
}

var _ AuditLog = (*NopAuditLog)(nil)
var _ AuditLog = (*FileAuditLog)(nil)
