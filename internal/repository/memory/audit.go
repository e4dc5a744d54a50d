package memory

import (
	"context"
	"sync"
	"time"

	"github.com/cmlabs-hris/leave-engine/internal/domain/audit"
	"github.com/google/uuid"
)

// DefaultAuditCapacity bounds the in-memory audit log.
const DefaultAuditCapacity = 10000

// AuditLog is a bounded ring of audit entries; the oldest entry is dropped when full.
type AuditLog struct {
	mu      sync.Mutex
	entries []audit.Entry
	start   int
	size    int
}

var _ audit.Emitter = (*AuditLog)(nil)

func NewAuditLog(capacity int) *AuditLog {
	if capacity <= 0 {
		capacity = DefaultAuditCapacity
	}
	return &AuditLog{entries: make([]audit.Entry, capacity)}
}

// Record implements audit.Emitter.
func (l *AuditLog) Record(ctx context.Context, entry audit.Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if entry.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return err
		}
		entry.ID = id.String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	capacity := len(l.entries)
	if l.size < capacity {
		l.entries[(l.start+l.size)%capacity] = entry
		l.size++
		return nil
	}
	l.entries[l.start] = entry
	l.start = (l.start + 1) % capacity
	return nil
}

// Entries returns the retained entries, oldest first.
func (l *AuditLog) Entries() []audit.Entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]audit.Entry, l.size)
	for i := 0; i < l.size; i++ {
		out[i] = l.entries[(l.start+i)%len(l.entries)]
	}
	return out
}

// ForResource returns the retained entries of one resource, oldest first.
func (l *AuditLog) ForResource(resource, resourceID string) []audit.Entry {
	var out []audit.Entry
	for _, e := range l.Entries() {
		if e.Resource == resource && e.ResourceID == resourceID {
			out = append(out, e)
		}
	}
	return out
}
