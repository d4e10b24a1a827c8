package forest

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/danieljhkim/atelier/internal/clock"
	"github.com/danieljhkim/atelier/internal/event"
)

type forestKey struct {
	pkgID string
	id    string
}

// Manager owns every forest of the configured forest packages.
type Manager struct {
	trees   map[string][]string
	journal Journal
	clock   clock.Clock
	logger  *slog.Logger

	mu      sync.Mutex
	forests map[forestKey]*Forest
}

// NewManager creates a manager. trees maps each forest package to the tree
// names its forests hold.
func NewManager(trees map[string][]string, journal Journal, clk clock.Clock, logger *slog.Logger) *Manager {
	if journal == nil {
		journal = NewMemoryJournal()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		trees:   trees,
		journal: journal,
		clock:   clk,
		logger:  logger,
		forests: make(map[forestKey]*Forest),
	}
}

// Forest returns the forest, creating it on first use.
func (m *Manager) Forest(pkgID, forestID string) (*Forest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.forestLocked(pkgID, forestID)
}

func (m *Manager) forestLocked(pkgID, forestID string) (*Forest, error) {
	key := forestKey{pkgID: pkgID, id: forestID}
	if f, ok := m.forests[key]; ok {
		return f, nil
	}
	names, ok := m.trees[pkgID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownForest, pkgID)
	}
	if forestID == "" {
		return nil, fmt.Errorf("%w: empty forest id in %s", ErrUnknownForest, pkgID)
	}
	f := NewForest(pkgID, forestID, names)
	m.forests[key] = f
	return f, nil
}

// PostEvent validates ev, journals it, then applies it. Calls are applied
// in the order they acquire the manager.
func (m *Manager) PostEvent(ctx context.Context, pkgID, forestID string, ev event.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	f, err := m.forestLocked(pkgID, forestID)
	if err != nil {
		return err
	}
	if err := f.Check(ev); err != nil {
		return err
	}
	rec := Record{ForestPkgID: pkgID, ForestID: forestID, Event: ev, At: m.clock.Now()}
	if err := m.journal.Append(ctx, rec); err != nil {
		return fmt.Errorf("failed to journal event: %w", err)
	}
	if err := f.Apply(ev); err != nil {
		return err
	}
	m.logger.Debug("event applied", "forest_pkg", pkgID, "forest", forestID, "type", ev.EventType())
	return nil
}

// ReadTree returns a deep copy of one tree.
func (m *Manager) ReadTree(pkgID, forestID, treeID string) (*Tree, error) {
	f, err := m.Forest(pkgID, forestID)
	if err != nil {
		return nil, err
	}
	return f.Tree(treeID)
}

// Replay rebuilds forests from the journal. Records that no longer apply,
// for example because the forest package was removed from the tool
// config, are logged and skipped.
func (m *Manager) Replay(ctx context.Context) (int, error) {
	records, err := m.journal.Load(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load journal: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	applied := 0
	for i, rec := range records {
		f, err := m.forestLocked(rec.ForestPkgID, rec.ForestID)
		if err == nil {
			err = f.Apply(rec.Event)
		}
		if err != nil {
			m.logger.Warn("skipping journaled event", "position", i, "forest_pkg", rec.ForestPkgID, "forest", rec.ForestID, "error", err)
			continue
		}
		applied++
	}
	m.logger.Info("journal replayed", "events", applied, "skipped", len(records)-applied)
	return applied, nil
}

// ForestIDs returns the ids of the live forests of pkgID, sorted.
func (m *Manager) ForestIDs(pkgID string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for key := range m.forests {
		if key.pkgID == pkgID {
			out = append(out, key.id)
		}
	}
	sort.Strings(out)
	return out
}
