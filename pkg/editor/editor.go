// Package editor owns a single editing session over a layer stack.
//
// An [Editor] starts Unloaded. [Editor.Load] fetches a raw sample from a
// [Source], normalizes and renumbers it, and only then swaps it in. A load that
// fails or is cancelled leaves the previous state (Unloaded or the previous
// stack) untouched. Once Loaded, structural edits ([Editor.AddLayer],
// [Editor.Reorder], [Editor.Renumber]) always finish with a renumber, so the
// stack observed between calls has dense orders. Every successful change is
// published to subscribers as an [Event].
//
// A UI layer holds the Editor by reference and re-renders from events rather
// than owning the data:
//
//	ed := editor.New(logger)
//	cancel := ed.Subscribe(func(ev editor.Event) { redraw(ev.Stack) })
//	defer cancel()
//	if err := ed.Load(ctx, loader.FileSource{Path: "207296_model.json"}); err != nil {
//	    return err
//	}
//
// Editor methods are safe for concurrent use. Field edits go through
// [Editor.Update], which validates a copy of the layer before swapping it in.
package editor

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/layerstack/pkg/errors"
	"github.com/matzehuels/layerstack/pkg/observability"
	"github.com/matzehuels/layerstack/pkg/sample"
)

// State is the lifecycle state of an Editor.
type State int

const (
	// Unloaded means no stack is present. Only Load and Replace are allowed.
	Unloaded State = iota
	// Loaded means a normalized, renumbered stack is present.
	Loaded
)

func (s State) String() string {
	if s == Loaded {
		return "loaded"
	}
	return "unloaded"
}

// Editor is the single owner of a layer stack.
type Editor struct {
	logger *log.Logger

	mu     sync.Mutex
	state  State
	stack  *sample.Stack
	source string
	gen    uint64 // incremented by every Load; a load only swaps if still current
	subs   map[int]func(Event)
	nextID int
}

// New creates an Unloaded editor. A nil logger discards output.
func New(logger *log.Logger) *Editor {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Editor{logger: logger, subs: make(map[int]func(Event))}
}

// State returns the current lifecycle state.
func (e *Editor) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// SourceName describes where the current stack was loaded from, or "" when
// Unloaded.
func (e *Editor) SourceName() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.source
}

// Load fetches a raw sample from src, normalizes and renumbers it, and makes
// it the current stack.
//
// Fetch failures, including cancellation of ctx, are returned as
// LOAD_TRANSPORT with the cause preserved, so errors.Is(err,
// context.Canceled) still holds. Normalization failures are returned as
// MALFORMED_MODEL. If another Load starts before this one completes, this
// one's result is discarded and LOAD_TRANSPORT is returned. In every failure
// case the prior state is kept.
func (e *Editor) Load(ctx context.Context, src Source) error {
	name := describe(src)

	e.mu.Lock()
	e.gen++
	gen := e.gen
	e.mu.Unlock()

	start := time.Now()
	observability.Editor().OnLoadStart(ctx, name)
	e.logger.Debug("loading sample", "source", name)

	st, err := fetch(ctx, src, name)
	if err == nil {
		err = e.swap(gen, st, name)
	}

	layers := 0
	if st != nil {
		layers = st.Len()
	}
	observability.Editor().OnLoadComplete(ctx, name, layers, time.Since(start), err)
	if err != nil {
		e.logger.Warn("load failed", "source", name, "error", err)
		return err
	}
	e.logger.Info("loaded sample", "source", name, "layers", layers)
	return nil
}

func fetch(ctx context.Context, src Source, name string) (*sample.Stack, error) {
	raw, err := src.Fetch(ctx)
	if err != nil {
		if errors.Is(err, errors.ErrCodeLoadTransport) {
			return nil, err
		}
		return nil, errors.Transport(err, "fetch %s", name)
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.Transport(err, "fetch %s", name)
	}

	st, err := sample.Normalize(raw)
	if err != nil {
		return nil, err
	}
	st.Renumber()
	return st, nil
}

// Replace normalizes raw and makes it the current stack without fetching.
// It cancels the effect of any Load still in flight.
func (e *Editor) Replace(raw sample.RawSample) error {
	st, err := sample.Normalize(raw)
	if err != nil {
		return err
	}
	st.Renumber()

	e.mu.Lock()
	e.gen++
	gen := e.gen
	e.mu.Unlock()
	return e.swap(gen, st, "replace")
}

func (e *Editor) swap(gen uint64, st *sample.Stack, name string) error {
	e.mu.Lock()
	if gen != e.gen {
		e.mu.Unlock()
		return errors.New(errors.ErrCodeLoadTransport, "load of %s superseded by a later load", name)
	}
	e.state = Loaded
	e.stack = st
	e.source = name
	ev := e.event(EventLoaded, "")
	e.mu.Unlock()

	e.publish(ev)
	return nil
}

// Stack returns a deep copy of the current stack.
func (e *Editor) Stack() (*sample.Stack, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != Loaded {
		return nil, errNotLoaded("read stack")
	}
	return e.stack.Clone(), nil
}

// Layer returns a copy of the layer with the given id.
func (e *Editor) Layer(id string) (*sample.Layer, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != Loaded {
		return nil, errNotLoaded("find layer")
	}
	l := e.stack.Find(id)
	if l == nil {
		return nil, errors.New(errors.ErrCodeLayerNotFound, "no layer with id %q", id)
	}
	return l.Clone(), nil
}

// Lookup resolves a layer by id, id prefix, or unique name and returns a
// copy.
func (e *Editor) Lookup(ref string) (*sample.Layer, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != Loaded {
		return nil, errNotLoaded("find layer")
	}
	l, err := e.stack.Lookup(ref)
	if err != nil {
		return nil, err
	}
	return l.Clone(), nil
}

// AddLayer appends a copy of template (or the default layer when nil),
// renumbers, and returns the new layer's id. The new layer is always last.
func (e *Editor) AddLayer(ctx context.Context, template *sample.Layer) (string, error) {
	var id string
	err := e.edit(ctx, "add", func(st *sample.Stack) (EventKind, string, error) {
		l, err := st.AddLayer(template)
		if err != nil {
			return 0, "", err
		}
		st.Renumber()
		id = l.ID
		return EventAdded, l.ID, nil
	})
	return id, err
}

// Reorder moves the layer with the given id to pos in display order.
func (e *Editor) Reorder(ctx context.Context, id string, pos int) error {
	return e.edit(ctx, "reorder", func(st *sample.Stack) (EventKind, string, error) {
		if err := st.Reorder(id, pos); err != nil {
			return 0, "", err
		}
		return EventReordered, id, nil
	})
}

// Renumber re-sorts the stack by order and reassigns dense orders.
func (e *Editor) Renumber(ctx context.Context) error {
	return e.edit(ctx, "renumber", func(st *sample.Stack) (EventKind, string, error) {
		st.Renumber()
		return EventRenumbered, "", nil
	})
}

// Rename renames a layer and its conventionally named parameters.
func (e *Editor) Rename(ctx context.Context, id, name string) error {
	return e.edit(ctx, "rename", func(st *sample.Stack) (EventKind, string, error) {
		l := st.Find(id)
		if l == nil {
			return 0, "", errors.New(errors.ErrCodeLayerNotFound, "no layer with id %q", id)
		}
		if err := l.Rename(name); err != nil {
			return 0, "", err
		}
		return EventRenamed, id, nil
	})
}

// Update applies fn to a copy of the layer with the given id and swaps the
// copy in only if fn succeeds and the result validates. The layer id cannot
// be changed. On any failure the stack is unchanged and nothing is
// published; validation failures are MALFORMED_MODEL.
func (e *Editor) Update(ctx context.Context, id string, fn func(*sample.Layer) error) error {
	return e.edit(ctx, "update", func(st *sample.Stack) (EventKind, string, error) {
		i := st.Index(id)
		if i < 0 {
			return 0, "", errors.New(errors.ErrCodeLayerNotFound, "no layer with id %q", id)
		}
		l := st.Layers[i].Clone()
		if err := fn(l); err != nil {
			return 0, "", err
		}
		l.ID = id
		if err := l.Validate(); err != nil {
			return 0, "", err
		}
		st.Layers[i] = l
		return EventUpdated, id, nil
	})
}

func (e *Editor) edit(ctx context.Context, op string, fn func(*sample.Stack) (EventKind, string, error)) error {
	e.mu.Lock()
	if e.state != Loaded {
		e.mu.Unlock()
		err := errNotLoaded(op)
		observability.Editor().OnEdit(ctx, op, 0, err)
		return err
	}
	kind, id, err := fn(e.stack)
	layers := e.stack.Len()
	var ev Event
	if err == nil {
		ev = e.event(kind, id)
	}
	e.mu.Unlock()

	observability.Editor().OnEdit(ctx, op, layers, err)
	if err != nil {
		e.logger.Debug("edit rejected", "op", op, "error", err)
		return err
	}
	e.logger.Debug("edited stack", "op", op, "layer", id, "layers", layers)
	e.publish(ev)
	return nil
}

func errNotLoaded(op string) error {
	return errors.New(errors.ErrCodeNotLoaded, "cannot %s: no sample loaded", op)
}
