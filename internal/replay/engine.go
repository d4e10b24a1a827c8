// Package replay instantiates recorded templates into a live forest.
//
// Instantiation runs in two phases. The alias phase asks the alias
// resolver for a fresh alias for every CREATE event that carries a
// meta.key, all requests in parallel, and waits for every one of them.
// Only then does the rewrite phase replace identifiers: the template root
// takes the caller's new root id and is re-parented at the drop target,
// every other id is replaced through a per-call memoized map so the
// instantiated subtree stays internally consistent. Events are emitted in
// their original order.
package replay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/danieljhkim/atelier/internal/event"
	"github.com/danieljhkim/atelier/internal/ids"
)

// DefaultAliasTimeout bounds the alias phase when no timeout is configured.
const DefaultAliasTimeout = 10 * time.Second

// AliasResolver mints aliases unique within a package namespace.
type AliasResolver interface {
	NewAlias(ctx context.Context, packageID, key string) (string, error)
}

// EventSink applies events to a forest.
type EventSink interface {
	PostEvent(ctx context.Context, forestPkgID, forestID string, ev event.Event) error
}

// Target describes where and as what a template is instantiated.
type Target struct {
	// Parent is the drop target the template root attaches to.
	Parent event.Parent

	// NewRootID becomes the id of the template root.
	NewRootID string

	// PackageID is the forest package; it is also the alias namespace.
	PackageID string
	ForestID  string

	// Exists reports whether an id is already used in the destination.
	// Optional; when nil no collision check is made.
	Exists func(id string) bool
}

// Result is the outcome of one instantiation.
type Result struct {
	// RootID is the id the template root received.
	RootID string

	// Events is the rewritten batch in emission order.
	Events []event.Event

	// Emitted is how many events the sink accepted.
	Emitted int

	// Aliases maps new ids to the aliases they received.
	Aliases map[string]string
}

// Engine instantiates templates.
type Engine struct {
	ids          ids.Generator
	aliases      AliasResolver
	sink         EventSink
	aliasTimeout time.Duration
	logger       *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithAliasTimeout bounds the alias phase.
func WithAliasTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.aliasTimeout = d
		}
	}
}

// WithLogger sets the engine logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewEngine creates an Engine. sink may be nil when only Rewrite is used.
func NewEngine(gen ids.Generator, aliases AliasResolver, sink EventSink, opts ...Option) *Engine {
	e := &Engine{
		ids:          gen,
		aliases:      aliases,
		sink:         sink,
		aliasTimeout: DefaultAliasTimeout,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Rewrite returns the instantiated copy of events without emitting it.
// The input events are not modified.
func (e *Engine) Rewrite(ctx context.Context, events []event.Event, t Target) ([]event.Event, error) {
	out, _, err := e.rewrite(ctx, events, t)
	return out, err
}

// Instantiate rewrites events and posts them to the sink in order. On a
// sink error the batch stops; events already posted stay applied and the
// returned Result says how many.
func (e *Engine) Instantiate(ctx context.Context, events []event.Event, t Target) (*Result, error) {
	if e.sink == nil {
		return nil, errors.New("replay engine has no event sink")
	}
	out, aliasByNewID, err := e.rewrite(ctx, events, t)
	if err != nil {
		return nil, err
	}

	res := &Result{RootID: t.NewRootID, Events: out, Aliases: aliasByNewID}
	for i, ev := range out {
		if err := e.sink.PostEvent(ctx, t.PackageID, t.ForestID, ev); err != nil {
			return res, fmt.Errorf("post event %d of %d: %w", i+1, len(out), err)
		}
		res.Emitted++
	}
	e.logger.Info("template instantiated",
		"forest_pkg", t.PackageID, "forest", t.ForestID,
		"root", t.NewRootID, "parent", t.Parent.ID, "index", t.Parent.Index,
		"events", res.Emitted)
	return res, nil
}

func (e *Engine) rewrite(ctx context.Context, events []event.Event, t Target) ([]event.Event, map[string]string, error) {
	if t.NewRootID == "" {
		return nil, nil, fmt.Errorf("%w: empty new root id", ErrIDCollision)
	}
	if t.Exists != nil && t.Exists(t.NewRootID) {
		return nil, nil, fmt.Errorf("%w: root id %s already exists", ErrIDCollision, t.NewRootID)
	}
	rootIdx, err := validate(events)
	if err != nil {
		return nil, nil, err
	}

	aliasByOldID, err := e.resolveAliases(ctx, events, t.PackageID)
	if err != nil {
		return nil, nil, err
	}

	repl := newReplacements(e.ids, t.Exists)
	repl.bind(events[rootIdx].(*event.CreateEvent).ID, t.NewRootID)

	out := make([]event.Event, 0, len(events))
	aliasByNewID := make(map[string]string, len(aliasByOldID))
	for i, ev := range events {
		switch src := ev.(type) {
		case *event.CreateEvent:
			c := src.Clone().(*event.CreateEvent)
			if i == rootIdx {
				c.ID = t.NewRootID
				c.State.Parent = t.Parent
			} else {
				if c.ID, err = repl.get(src.ID); err != nil {
					return nil, nil, err
				}
				if c.State.Parent.ID, err = repl.get(src.State.Parent.ID); err != nil {
					return nil, nil, err
				}
			}
			if alias, ok := aliasByOldID[src.ID]; ok {
				c.State.Alias = alias
				aliasByNewID[c.ID] = alias
			}
			out = append(out, c)
		case *event.LinkEvent:
			l := src.Clone().(*event.LinkEvent)
			if l.ChildID, err = repl.get(src.ChildID); err != nil {
				return nil, nil, err
			}
			if l.RefID, err = repl.get(src.RefID); err != nil {
				return nil, nil, err
			}
			out = append(out, l)
		default:
			return nil, nil, fmt.Errorf("%w: event %d has type %T", ErrMalformedTemplate, i, ev)
		}
	}
	return out, aliasByNewID, nil
}

// resolveAliases runs the alias phase. Every request must finish before it
// returns; a request that never returns is cut off by the alias timeout.
func (e *Engine) resolveAliases(ctx context.Context, events []event.Event, packageID string) (map[string]string, error) {
	aliases := make(map[string]string)
	if e.aliases == nil {
		return aliases, nil
	}

	actx, cancel := context.WithTimeout(ctx, e.aliasTimeout)
	defer cancel()

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(actx)
	for _, ev := range events {
		c, ok := ev.(*event.CreateEvent)
		if !ok || c.Key() == "" {
			continue
		}
		oldID, key := c.ID, c.Key()
		g.Go(func() error {
			alias, err := e.aliases.NewAlias(gctx, packageID, key)
			if err != nil {
				return fmt.Errorf("alias for %s (%s): %w", oldID, key, err)
			}
			mu.Lock()
			aliases[oldID] = alias
			mu.Unlock()
			return nil
		})
	}

	done := make(chan error, 1)
	go func() { done <- g.Wait() }()

	select {
	case err := <-done:
		if err == nil {
			return aliases, nil
		}
		if errors.Is(actx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, fmt.Errorf("%w after %s: %v", ErrAliasTimeout, e.aliasTimeout, err)
		}
		return nil, err
	case <-actx.Done():
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		e.logger.Warn("alias phase timed out", "package", packageID, "timeout", e.aliasTimeout)
		return nil, fmt.Errorf("%w after %s", ErrAliasTimeout, e.aliasTimeout)
	}
}

// validate checks the template's shape and returns the index of its root.
func validate(events []event.Event) (int, error) {
	rootIdx := -1
	created := make(map[string]bool)
	for i, ev := range events {
		c, ok := ev.(*event.CreateEvent)
		if !ok {
			continue
		}
		if c.ID == "" {
			return -1, fmt.Errorf("%w: event %d has no id", ErrMalformedTemplate, i)
		}
		if created[c.ID] {
			return -1, fmt.Errorf("%w: id %s created twice", ErrMalformedTemplate, c.ID)
		}
		if c.State.Parent.ID == event.TemplateRootID {
			if rootIdx != -1 {
				return -1, fmt.Errorf("%w: more than one root (%s, %s)", ErrMalformedTemplate,
					events[rootIdx].(*event.CreateEvent).ID, c.ID)
			}
			rootIdx = i
		} else if !created[c.State.Parent.ID] && !reserved(c.State.Parent.ID) {
			return -1, fmt.Errorf("%w: %s is created before its parent %s", ErrMalformedTemplate, c.ID, c.State.Parent.ID)
		}
		created[c.ID] = true
	}
	if rootIdx == -1 {
		return -1, fmt.Errorf("%w: no CREATE event is parented to %s", ErrMalformedTemplate, event.TemplateRootID)
	}

	for i, ev := range events {
		l, ok := ev.(*event.LinkEvent)
		if !ok {
			continue
		}
		for _, id := range []string{l.ChildID, l.RefID} {
			if !created[id] {
				return -1, fmt.Errorf("%w: link %d references %s which the template does not create", ErrMalformedTemplate, i, id)
			}
		}
	}
	return rootIdx, nil
}
