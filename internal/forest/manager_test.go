package forest

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/danieljhkim/atelier/internal/clock"
	"github.com/danieljhkim/atelier/internal/event"
)

var pageTrees = map[string][]string{"page": {componentTree, cssTree}}

func newTestManager(j Journal) (*Manager, *bytes.Buffer) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	clk := clock.NewFakeClock(time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC))
	return NewManager(pageTrees, j, clk, logger), &logs
}

type failingJournal struct{ MemoryJournal }

func (j *failingJournal) Append(context.Context, Record) error {
	return errors.New("disk full")
}

func TestManager_PostEventJournalsThenApplies(t *testing.T) {
	j := NewMemoryJournal()
	m, _ := newTestManager(j)
	ctx := context.Background()

	if err := m.PostEvent(ctx, "page", "home", create(componentTree, "n1", event.BodyID, 0)); err != nil {
		t.Fatalf("PostEvent failed: %v", err)
	}
	if err := m.PostEvent(ctx, "page", "home", create(componentTree, "n1", event.BodyID, 0)); !errors.Is(err, ErrDuplicateNode) {
		t.Fatalf("expected ErrDuplicateNode, got %v", err)
	}

	records, _ := j.Load(ctx)
	if len(records) != 1 {
		t.Fatalf("expected only the valid event journaled, got %d", len(records))
	}
	if records[0].At.IsZero() {
		t.Error("expected journal timestamp")
	}

	tree, err := m.ReadTree("page", "home", componentTree)
	if err != nil {
		t.Fatalf("ReadTree failed: %v", err)
	}
	if !tree.Has("n1") {
		t.Error("expected n1 in tree")
	}
}

func TestManager_UnknownForest(t *testing.T) {
	m, _ := newTestManager(nil)
	err := m.PostEvent(context.Background(), "blog", "home", create(componentTree, "n1", event.BodyID, 0))
	if !errors.Is(err, ErrUnknownForest) {
		t.Fatalf("expected ErrUnknownForest, got %v", err)
	}
	if _, err := m.ReadTree("blog", "home", componentTree); !errors.Is(err, ErrUnknownForest) {
		t.Fatalf("expected ErrUnknownForest from ReadTree, got %v", err)
	}
}

func TestManager_JournalFailureDoesNotApply(t *testing.T) {
	m, _ := newTestManager(&failingJournal{})
	err := m.PostEvent(context.Background(), "page", "home", create(componentTree, "n1", event.BodyID, 0))
	if err == nil || !strings.Contains(err.Error(), "disk full") {
		t.Fatalf("expected journal error, got %v", err)
	}
	tree, _ := m.ReadTree("page", "home", componentTree)
	if tree.Has("n1") {
		t.Error("event applied despite journal failure")
	}
}

func TestManager_ForestsAreIndependent(t *testing.T) {
	m, _ := newTestManager(nil)
	ctx := context.Background()
	if err := m.PostEvent(ctx, "page", "home", create(componentTree, "n1", event.BodyID, 0)); err != nil {
		t.Fatal(err)
	}
	if err := m.PostEvent(ctx, "page", "about", create(componentTree, "n1", event.BodyID, 0)); err != nil {
		t.Fatalf("same id in another forest should apply: %v", err)
	}
	ids := m.ForestIDs("page")
	if len(ids) != 2 || ids[0] != "about" || ids[1] != "home" {
		t.Errorf("ForestIDs() = %v", ids)
	}
}

func TestManager_ReplayRestoresTrees(t *testing.T) {
	j := NewMemoryJournal()
	first, _ := newTestManager(j)
	ctx := context.Background()
	for _, ev := range []event.Event{
		create(componentTree, "n1", event.BodyID, 0),
		create(cssTree, "c1", event.BodyID, 0),
		event.NewLink(cssTree, "c1", "n1"),
	} {
		if err := first.PostEvent(ctx, "page", "home", ev); err != nil {
			t.Fatalf("PostEvent failed: %v", err)
		}
	}
	// A record for a forest package that is no longer configured.
	_ = j.Append(ctx, Record{ForestPkgID: "blog", ForestID: "x", Event: create(componentTree, "z", event.BodyID, 0)})

	second, logs := newTestManager(j)
	applied, err := second.Replay(ctx)
	if err != nil {
		t.Fatalf("Replay failed: %v", err)
	}
	if applied != 3 {
		t.Errorf("applied = %d, want 3", applied)
	}
	if !strings.Contains(logs.String(), "skipping journaled event") {
		t.Errorf("expected skipped record to be logged: %s", logs.String())
	}

	css, err := second.ReadTree("page", "home", cssTree)
	if err != nil {
		t.Fatalf("ReadTree failed: %v", err)
	}
	if len(css.Links) != 1 || css.Links[0] != (Link{ChildID: "c1", RefID: "n1"}) {
		t.Errorf("links = %+v", css.Links)
	}
}
