package forest

import (
	"context"
	"sync"
	"time"

	"github.com/danieljhkim/atelier/internal/event"
)

// Record is one journaled event.
type Record struct {
	ForestPkgID string
	ForestID    string
	Event       event.Event
	At          time.Time
}

// Journal persists applied events so forests survive restarts.
type Journal interface {
	// Append stores rec after every previously appended record.
	Append(ctx context.Context, rec Record) error

	// Load returns every record in append order.
	Load(ctx context.Context) ([]Record, error)
}

// MemoryJournal keeps records in memory.
type MemoryJournal struct {
	mu      sync.Mutex
	records []Record
}

// NewMemoryJournal creates an empty MemoryJournal.
func NewMemoryJournal() *MemoryJournal {
	return &MemoryJournal{}
}

// Append implements Journal.
func (j *MemoryJournal) Append(ctx context.Context, rec Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	rec.Event = rec.Event.Clone()
	j.records = append(j.records, rec)
	return nil
}

// Load implements Journal.
func (j *MemoryJournal) Load(ctx context.Context) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]Record(nil), j.records...), nil
}
