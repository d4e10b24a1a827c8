package replay

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
	"github.com/danieljhkim/atelier/internal/forest"
	"github.com/danieljhkim/atelier/internal/ids"
)

type fakeTemplates map[string][]event.Event

func (f fakeTemplates) TemplateEvents(_ context.Context, dir, name string) ([]event.Event, error) {
	events, ok := f[dir+"/"+name]
	if !ok {
		return nil, errors.New("template not found")
	}
	return events, nil
}

type dropFixture struct {
	manager *forest.Manager
	dropper *Dropper
	logs    *bytes.Buffer
}

func newDropFixture(t *testing.T) *dropFixture {
	t.Helper()
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	m := forest.NewManager(map[string][]string{"page": {DefaultComponentTree, "cssTree"}}, nil,
		clock.NewFakeClock(time.Time{}), logger)

	ctx := context.Background()
	for _, ev := range []event.Event{
		event.NewCreate(DefaultComponentTree, "p7", event.Parent{ID: event.BodyID, Index: 0}),
		event.NewCreate(DefaultComponentTree, "a", event.Parent{ID: "p7", Index: 0}),
		event.NewCreate(DefaultComponentTree, "b", event.Parent{ID: "p7", Index: 1}),
	} {
		if err := m.PostEvent(ctx, "page", "home", ev); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	gen := ids.NewSequenceGenerator("gen-")
	engine := NewEngine(gen, newFakeAliases(), m, WithLogger(logger))
	tmpls := fakeTemplates{"basics/card": scenarioTemplate(), "basics/styled": cssFirstTemplate()}
	return &dropFixture{
		manager: m,
		dropper: NewDropper(engine, tmpls, m, BoxGeometry{}, gen, logger),
		logs:    &logs,
	}
}

func TestDrop_OntoComponent(t *testing.T) {
	fx := newDropFixture(t)
	index := 2
	res, err := fx.dropper.Drop(context.Background(), DropRequest{
		Dir: "basics", Name: "card", NewRootID: "n1", CaughtBy: "p7", Index: &index,
		ForestPkgID: "page", ForestID: "home",
	})
	if err != nil {
		t.Fatalf("Drop failed: %v", err)
	}
	if res.Emitted != 3 {
		t.Fatalf("emitted %d, want 3", res.Emitted)
	}

	tree, err := fx.manager.ReadTree("page", "home", DefaultComponentTree)
	if err != nil {
		t.Fatal(err)
	}
	n1, ok := tree.Nodes["n1"]
	if !ok {
		t.Fatal("expected n1 in live tree")
	}
	if n1.Parent != (event.Parent{ID: "p7", Index: 2}) {
		t.Errorf("n1 parent = %+v", n1.Parent)
	}
	if len(tree.Children("n1")) != 1 {
		t.Errorf("expected one child under n1")
	}
	if len(tree.Links) != 1 || tree.Links[0].RefID != "n1" {
		t.Errorf("links = %+v", tree.Links)
	}
}

func TestDrop_MintedRootIDWhenRootIsNotFirst(t *testing.T) {
	fx := newDropFixture(t)
	index := 0
	res, err := fx.dropper.Drop(context.Background(), DropRequest{
		Dir: "basics", Name: "styled", CaughtBy: "p7", Index: &index,
		ForestPkgID: "page", ForestID: "home",
	})
	if err != nil {
		t.Fatalf("Drop failed: %v", err)
	}
	if res.RootID == "" {
		t.Fatal("expected the minted root id on the result")
	}
	tree, err := fx.manager.ReadTree("page", "home", DefaultComponentTree)
	if err != nil {
		t.Fatal(err)
	}
	root, ok := tree.Nodes[res.RootID]
	if !ok || root.Parent.ID != "p7" {
		t.Errorf("RootID %q does not name the node placed under p7", res.RootID)
	}
}

func TestDrop_UnknownTargetEmitsNothing(t *testing.T) {
	fx := newDropFixture(t)
	before, _ := fx.manager.ReadTree("page", "home", DefaultComponentTree)

	res, err := fx.dropper.Drop(context.Background(), DropRequest{
		Dir: "basics", Name: "card", NewRootID: "n1", CaughtBy: "ghost",
		ForestPkgID: "page", ForestID: "home",
	})
	if !errors.Is(err, ErrUnknownDropTarget) {
		t.Fatalf("expected ErrUnknownDropTarget, got %v", err)
	}
	if res != nil {
		t.Errorf("expected no result, got %+v", res)
	}
	after, _ := fx.manager.ReadTree("page", "home", DefaultComponentTree)
	if len(after.Nodes) != len(before.Nodes) || len(after.Links) != 0 {
		t.Error("unknown drop target changed the tree")
	}
	if !strings.Contains(fx.logs.String(), "ghost") {
		t.Errorf("expected warning naming the target: %s", fx.logs.String())
	}
}

func TestDrop_OntoBodyUsesGeometry(t *testing.T) {
	fx := newDropFixture(t)
	res, err := fx.dropper.Drop(context.Background(), DropRequest{
		Dir: "basics", Name: "card", CaughtBy: event.BodyID,
		Point:       Point{X: 10, Y: 500},
		Boxes:       map[string]Rect{"p7": {X: 0, Y: 0, Width: 800, Height: 300}},
		ForestPkgID: "page", ForestID: "home",
	})
	if err != nil {
		t.Fatalf("Drop failed: %v", err)
	}
	root := res.Events[0].(*event.CreateEvent)
	if root.State.Parent != (event.Parent{ID: event.BodyID, Index: 1}) {
		t.Errorf("root parent = %+v, want body index 1", root.State.Parent)
	}
	if root.ID == "" || root.ID == "t1" {
		t.Errorf("expected a minted root id, got %q", root.ID)
	}
}

func TestDrop_RootIDCollision(t *testing.T) {
	fx := newDropFixture(t)
	_, err := fx.dropper.Drop(context.Background(), DropRequest{
		Dir: "basics", Name: "card", NewRootID: "a", CaughtBy: "p7",
		ForestPkgID: "page", ForestID: "home",
	})
	if !errors.Is(err, ErrIDCollision) {
		t.Fatalf("expected ErrIDCollision, got %v", err)
	}
}

func TestDrop_UnknownForest(t *testing.T) {
	fx := newDropFixture(t)
	_, err := fx.dropper.Drop(context.Background(), DropRequest{
		Dir: "basics", Name: "card", CaughtBy: event.BodyID,
		ForestPkgID: "blog", ForestID: "home",
	})
	if !errors.Is(err, forest.ErrUnknownForest) {
		t.Fatalf("expected ErrUnknownForest, got %v", err)
	}
}

func TestBoxGeometry_Index(t *testing.T) {
	children := []*forest.Node{
		{ID: "a", Parent: event.Parent{ID: "p", Index: 0}},
		{ID: "b", Parent: event.Parent{ID: "p", Index: 1}},
		{ID: "c", Parent: event.Parent{ID: "p", Index: 2}},
	}
	// a and b share the first row, c sits below them.
	boxes := map[string]Rect{
		"a": {X: 0, Y: 0, Width: 100, Height: 50},
		"b": {X: 100, Y: 0, Width: 100, Height: 50},
		"c": {X: 0, Y: 60, Width: 200, Height: 50},
	}

	tests := []struct {
		name string
		at   Point
		want int
	}{
		{"above everything", Point{X: 150, Y: -10}, 0},
		{"left half of a", Point{X: 10, Y: 25}, 0},
		{"right half of a", Point{X: 90, Y: 25}, 1},
		{"right half of b", Point{X: 190, Y: 25}, 2},
		{"between rows", Point{X: 150, Y: 55}, 2},
		{"below everything", Point{X: 10, Y: 200}, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := (BoxGeometry{}).Index(children, boxes, tt.at); got != tt.want {
				t.Errorf("Index() = %d, want %d", got, tt.want)
			}
		})
	}

	if got := (BoxGeometry{}).Index(nil, nil, Point{}); got != 0 {
		t.Errorf("Index() with no children = %d, want 0", got)
	}
	if got := (BoxGeometry{}).Index(children, nil, Point{}); got != 3 {
		t.Errorf("Index() without boxes = %d, want 3", got)
	}
}
