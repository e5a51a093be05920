package editor

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/layerstack/pkg/errors"
	"github.com/matzehuels/layerstack/pkg/observability"
	"github.com/matzehuels/layerstack/pkg/sample"
)

// rawStack builds a raw sample of default layers with the given names. When
// orders is non-nil, layer i gets orders[i].
func rawStack(names []string, orders []int) sample.RawSample {
	raw := sample.RawSample{}
	for i, name := range names {
		rl := sample.DefaultLayer(name).Raw()
		rl.Order = nil
		if orders != nil {
			o := orders[i]
			rl.Order = &o
		}
		raw.Layers = append(raw.Layers, rl)
	}
	return raw
}

func stackNames(st *sample.Stack) []string {
	var out []string
	for _, l := range st.Layers {
		out = append(out, l.Name)
	}
	return out
}

func loaded(t *testing.T, names ...string) *Editor {
	t.Helper()
	ed := New(nil)
	if err := ed.Load(context.Background(), Static(rawStack(names, nil))); err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	return ed
}

func mustStack(t *testing.T, ed *Editor) *sample.Stack {
	t.Helper()
	st, err := ed.Stack()
	if err != nil {
		t.Fatalf("Stack() error: %v", err)
	}
	return st
}

func TestUnloadedRejectsEdits(t *testing.T) {
	ctx := context.Background()
	ed := New(nil)

	if ed.State() != Unloaded {
		t.Fatalf("State() = %v, want unloaded", ed.State())
	}

	tests := []struct {
		name string
		call func() error
	}{
		{"AddLayer", func() error { _, err := ed.AddLayer(ctx, nil); return err }},
		{"Reorder", func() error { return ed.Reorder(ctx, "x", 0) }},
		{"Renumber", func() error { return ed.Renumber(ctx) }},
		{"Rename", func() error { return ed.Rename(ctx, "x", "y") }},
		{"Update", func() error { return ed.Update(ctx, "x", func(*sample.Layer) error { return nil }) }},
		{"Stack", func() error { _, err := ed.Stack(); return err }},
		{"Layer", func() error { _, err := ed.Layer("x"); return err }},
		{"Lookup", func() error { _, err := ed.Lookup("x"); return err }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.call(); !errors.Is(err, errors.ErrCodeNotLoaded) {
				t.Errorf("%s() error = %v, want NOT_LOADED", tt.name, err)
			}
		})
	}
}

func TestLoadNormalizesAndRenumbers(t *testing.T) {
	ed := New(nil)
	var events []Event
	ed.Subscribe(func(ev Event) { events = append(events, ev) })

	raw := rawStack([]string{"order2", "order0", "order1"}, []int{2, 0, 1})
	if err := ed.Load(context.Background(), Static(raw)); err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if ed.State() != Loaded {
		t.Errorf("State() = %v, want loaded", ed.State())
	}
	st := mustStack(t, ed)
	if diff := cmp.Diff([]string{"order0", "order1", "order2"}, stackNames(st)); diff != "" {
		t.Errorf("names (-want +got):\n%s", diff)
	}
	if !st.Dense() {
		t.Error("orders are not dense after Load")
	}
	if len(events) != 1 || events[0].Kind != EventLoaded {
		t.Fatalf("events = %v, want one loaded event", events)
	}
	if diff := cmp.Diff(st, events[0].Stack); diff != "" {
		t.Errorf("event stack (-want +got):\n%s", diff)
	}
}

func TestLoadFailureKeepsPriorState(t *testing.T) {
	fetchErr := stderrors.New("connection refused")
	malformed := rawStack([]string{"bad"}, nil)
	malformed.Layers[0].Material = nil

	tests := []struct {
		name string
		src  Source
		code errors.Code
	}{
		{"fetch error", SourceFunc(func(context.Context) (sample.RawSample, error) {
			return sample.RawSample{}, fetchErr
		}), errors.ErrCodeLoadTransport},
		{"coded transport error", SourceFunc(func(context.Context) (sample.RawSample, error) {
			return sample.RawSample{}, errors.Transport(fetchErr, "GET /api/testdata")
		}), errors.ErrCodeLoadTransport},
		{"malformed sample", Static(malformed), errors.ErrCodeMalformedModel},
	}

	for _, tt := range tests {
		t.Run(tt.name+" from loaded", func(t *testing.T) {
			ed := loaded(t, "Cu", "Ti")
			before := mustStack(t, ed)

			var published int
			ed.Subscribe(func(Event) { published++ })

			err := ed.Load(context.Background(), tt.src)
			if !errors.Is(err, tt.code) {
				t.Fatalf("Load() error = %v, want %s", err, tt.code)
			}
			if diff := cmp.Diff(before, mustStack(t, ed)); diff != "" {
				t.Errorf("stack changed after failed load (-before +after):\n%s", diff)
			}
			if published != 0 {
				t.Errorf("published %d events after failed load", published)
			}
		})

		t.Run(tt.name+" from unloaded", func(t *testing.T) {
			ed := New(nil)
			if err := ed.Load(context.Background(), tt.src); !errors.Is(err, tt.code) {
				t.Fatalf("Load() error = %v, want %s", err, tt.code)
			}
			if ed.State() != Unloaded {
				t.Errorf("State() = %v, want unloaded", ed.State())
			}
		})
	}
}

func TestLoadTransportKeepsCause(t *testing.T) {
	cause := stderrors.New("connection refused")
	ed := New(nil)
	err := ed.Load(context.Background(), SourceFunc(func(context.Context) (sample.RawSample, error) {
		return sample.RawSample{}, cause
	}))
	if !stderrors.Is(err, cause) {
		t.Errorf("Load() error = %v, want cause preserved", err)
	}
}

func TestLoadCancelled(t *testing.T) {
	ed := loaded(t, "Cu")
	before := mustStack(t, ed)

	ctx, cancel := context.WithCancel(context.Background())
	started := make(chan struct{})
	src := SourceFunc(func(ctx context.Context) (sample.RawSample, error) {
		close(started)
		<-ctx.Done()
		return sample.RawSample{}, ctx.Err()
	})

	done := make(chan error, 1)
	go func() { done <- ed.Load(ctx, src) }()
	<-started
	cancel()

	err := <-done
	if !errors.Is(err, errors.ErrCodeLoadTransport) {
		t.Errorf("Load() error = %v, want LOAD_TRANSPORT", err)
	}
	if !stderrors.Is(err, context.Canceled) {
		t.Errorf("Load() error = %v, want context.Canceled in chain", err)
	}
	if diff := cmp.Diff(before, mustStack(t, ed)); diff != "" {
		t.Errorf("stack changed after cancelled load:\n%s", diff)
	}
}

func TestLoadCancelledAfterFetchReturns(t *testing.T) {
	ed := New(nil)
	ctx, cancel := context.WithCancel(context.Background())
	src := SourceFunc(func(context.Context) (sample.RawSample, error) {
		cancel()
		return rawStack([]string{"Cu"}, nil), nil
	})

	err := ed.Load(ctx, src)
	if !stderrors.Is(err, context.Canceled) {
		t.Errorf("Load() error = %v, want context.Canceled", err)
	}
	if ed.State() != Unloaded {
		t.Errorf("State() = %v, want unloaded", ed.State())
	}
}

func TestSupersededLoadIsDiscarded(t *testing.T) {
	ed := New(nil)

	started := make(chan struct{})
	release := make(chan struct{})
	slow := SourceFunc(func(context.Context) (sample.RawSample, error) {
		close(started)
		<-release
		return rawStack([]string{"slow"}, nil), nil
	})

	done := make(chan error, 1)
	go func() { done <- ed.Load(context.Background(), slow) }()
	<-started

	if err := ed.Load(context.Background(), Static(rawStack([]string{"fast"}, nil))); err != nil {
		t.Fatalf("second Load() error: %v", err)
	}
	close(release)

	if err := <-done; !errors.Is(err, errors.ErrCodeLoadTransport) {
		t.Errorf("first Load() error = %v, want LOAD_TRANSPORT", err)
	}
	if diff := cmp.Diff([]string{"fast"}, stackNames(mustStack(t, ed))); diff != "" {
		t.Errorf("stack (-want +got):\n%s", diff)
	}
}

func TestReplace(t *testing.T) {
	ed := loaded(t, "Cu")
	if err := ed.Replace(rawStack([]string{"b", "a"}, []int{1, 0})); err != nil {
		t.Fatalf("Replace() error: %v", err)
	}
	if diff := cmp.Diff([]string{"a", "b"}, stackNames(mustStack(t, ed))); diff != "" {
		t.Errorf("names (-want +got):\n%s", diff)
	}

	bad := rawStack([]string{"x"}, nil)
	bad.Layers[0].Thickness.Bounds = []sample.Float{5, 1}
	if err := ed.Replace(bad); !errors.Is(err, errors.ErrCodeMalformedModel) {
		t.Errorf("Replace() error = %v, want MALFORMED_MODEL", err)
	}
	if diff := cmp.Diff([]string{"a", "b"}, stackNames(mustStack(t, ed))); diff != "" {
		t.Errorf("stack changed after failed Replace:\n%s", diff)
	}
}

func TestAddLayer(t *testing.T) {
	ctx := context.Background()
	ed := loaded(t, "Cu", "Ti")

	var events []Event
	ed.Subscribe(func(ev Event) { events = append(events, ev) })

	id, err := ed.AddLayer(ctx, nil)
	if err != nil {
		t.Fatalf("AddLayer() error: %v", err)
	}

	st := mustStack(t, ed)
	if st.Len() != 3 || st.Layers[2].ID != id {
		t.Fatalf("layers = %v, want new layer last", stackNames(st))
	}
	if !st.Dense() {
		t.Error("orders are not dense after AddLayer")
	}
	if st.Layers[2].Name != sample.DefaultLayerName {
		t.Errorf("new layer name = %q, want %q", st.Layers[2].Name, sample.DefaultLayerName)
	}
	if len(events) != 1 || events[0].Kind != EventAdded || events[0].LayerID != id {
		t.Errorf("events = %+v, want one added event for %s", events, id)
	}
}

func TestAddLayerOnEmptyStack(t *testing.T) {
	ed := New(nil)
	if err := ed.Replace(sample.RawSample{}); err != nil {
		t.Fatalf("Replace() error: %v", err)
	}
	if _, err := ed.AddLayer(context.Background(), nil); err != nil {
		t.Fatalf("AddLayer() error: %v", err)
	}
	st := mustStack(t, ed)
	if st.Len() != 1 || st.Layers[0].Order != 0 {
		t.Errorf("stack = %+v, want one layer at order 0", st.Layers)
	}
}

func TestReorder(t *testing.T) {
	ctx := context.Background()
	ed := loaded(t, "A", "B", "C", "D")
	st := mustStack(t, ed)

	if err := ed.Reorder(ctx, st.Layers[3].ID, 1); err != nil {
		t.Fatalf("Reorder() error: %v", err)
	}
	if diff := cmp.Diff([]string{"A", "D", "B", "C"}, stackNames(mustStack(t, ed))); diff != "" {
		t.Errorf("names (-want +got):\n%s", diff)
	}

	var published int
	ed.Subscribe(func(Event) { published++ })
	before := mustStack(t, ed)

	if err := ed.Reorder(ctx, st.Layers[0].ID, 9); !errors.Is(err, errors.ErrCodeOutOfRange) {
		t.Errorf("Reorder(9) error = %v, want OUT_OF_RANGE", err)
	}
	if err := ed.Reorder(ctx, "nope", 0); !errors.Is(err, errors.ErrCodeLayerNotFound) {
		t.Errorf("Reorder(nope) error = %v, want LAYER_NOT_FOUND", err)
	}
	if diff := cmp.Diff(before, mustStack(t, ed)); diff != "" {
		t.Errorf("stack changed after failed Reorder:\n%s", diff)
	}
	if published != 0 {
		t.Errorf("published %d events after failed edits", published)
	}
}

func TestRenumberAfterFieldEdit(t *testing.T) {
	ctx := context.Background()
	ed := loaded(t, "A", "B", "C")
	st := mustStack(t, ed)

	err := ed.Update(ctx, st.Layers[0].ID, func(l *sample.Layer) error {
		l.Order = 10
		return nil
	})
	if err != nil {
		t.Fatalf("Update() error: %v", err)
	}

	if err := ed.Renumber(ctx); err != nil {
		t.Fatalf("Renumber() error: %v", err)
	}
	if diff := cmp.Diff([]string{"B", "C", "A"}, stackNames(mustStack(t, ed))); diff != "" {
		t.Errorf("names (-want +got):\n%s", diff)
	}
}

func TestRenameAndUpdate(t *testing.T) {
	ctx := context.Background()
	ed := loaded(t, "Cu")
	id := mustStack(t, ed).Layers[0].ID

	if err := ed.Rename(ctx, id, "Copper"); err != nil {
		t.Fatalf("Rename() error: %v", err)
	}
	l, _ := ed.Layer(id)
	if l.Name != "Copper" || l.Thickness.Name != "Copper thickness" {
		t.Errorf("layer = %q / %q, want renamed", l.Name, l.Thickness.Name)
	}
	if err := ed.Rename(ctx, "nope", "x"); !errors.Is(err, errors.ErrCodeLayerNotFound) {
		t.Errorf("Rename(nope) error = %v, want LAYER_NOT_FOUND", err)
	}

	l.Thickness.Value = 1
	if got, _ := ed.Layer(id); got.Thickness.Value == 1 {
		t.Error("Layer() returned the live layer")
	}

	err := ed.Update(ctx, id, func(l *sample.Layer) error {
		l.Thickness.Value = 42
		return nil
	})
	if err != nil {
		t.Errorf("Update() error: %v", err)
	}
	if got, _ := ed.Layer(id); got.Thickness.Value != 42 {
		t.Errorf("thickness = %v after Update, want 42", got.Thickness.Value)
	}
	if err := ed.Update(ctx, "nope", func(*sample.Layer) error { return nil }); !errors.Is(err, errors.ErrCodeLayerNotFound) {
		t.Errorf("Update(nope) error = %v, want LAYER_NOT_FOUND", err)
	}
}

func TestUpdateRejectedLeavesStackValid(t *testing.T) {
	ctx := context.Background()
	ed := loaded(t, "Cu", "Si")
	before := mustStack(t, ed)
	id := before.Layers[0].ID

	published := 0
	cancel := ed.Subscribe(func(Event) { published++ })
	defer cancel()

	tests := []struct {
		name string
		fn   func(*sample.Layer) error
	}{
		{"reversed bounds", func(l *sample.Layer) error {
			l.InterfaceWidth.Bounds = &sample.Range{Min: 10, Max: 1}
			return nil
		}},
		{"negative order", func(l *sample.Layer) error {
			l.Order = -1
			return nil
		}},
		{"callback error", func(l *sample.Layer) error {
			l.Thickness.Value = 99
			return errors.New(errors.ErrCodeInvalidInput, "abort")
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ed.Update(ctx, id, tt.fn); err == nil {
				t.Fatal("Update() accepted the edit")
			}
			st := mustStack(t, ed)
			if err := st.Validate(); err != nil {
				t.Errorf("stack invalid after rejected Update: %v", err)
			}
			if diff := cmp.Diff(before, st); diff != "" {
				t.Errorf("stack changed after rejected Update:\n%s", diff)
			}
		})
	}
	if published != 0 {
		t.Errorf("published %d events for rejected updates", published)
	}
}

func TestUpdateKeepsID(t *testing.T) {
	ctx := context.Background()
	ed := loaded(t, "Cu")
	id := mustStack(t, ed).Layers[0].ID

	err := ed.Update(ctx, id, func(l *sample.Layer) error {
		l.ID = "other"
		return nil
	})
	if err != nil {
		t.Fatalf("Update() error: %v", err)
	}
	if _, err := ed.Layer(id); err != nil {
		t.Errorf("layer lost its id: %v", err)
	}
}

func TestStackIsSnapshot(t *testing.T) {
	ed := loaded(t, "Cu")
	st := mustStack(t, ed)
	st.Layers[0].Name = "changed"

	if got := mustStack(t, ed).Layers[0].Name; got != "Cu" {
		t.Errorf("editor layer name = %q, want Cu", got)
	}
}

func TestSubscribeCancel(t *testing.T) {
	ed := loaded(t, "Cu")
	var count int
	cancel := ed.Subscribe(func(Event) { count++ })

	if err := ed.Renumber(context.Background()); err != nil {
		t.Fatalf("Renumber() error: %v", err)
	}
	cancel()
	if err := ed.Renumber(context.Background()); err != nil {
		t.Fatalf("Renumber() error: %v", err)
	}
	if count != 1 {
		t.Errorf("received %d events, want 1", count)
	}
}

type recordingHooks struct {
	observability.NoopEditorHooks
	mu    sync.Mutex
	loads []string
	edits []string
}

func (h *recordingHooks) OnLoadComplete(_ context.Context, source string, _ int, _ time.Duration, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err != nil {
		source += " (failed)"
	}
	h.loads = append(h.loads, source)
}

func (h *recordingHooks) OnEdit(_ context.Context, op string, _ int, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err != nil {
		op += " (failed)"
	}
	h.edits = append(h.edits, op)
}

type namedSource struct{ Source }

func (namedSource) String() string { return "fixture" }

func TestEditorHooks(t *testing.T) {
	hooks := &recordingHooks{}
	observability.SetEditorHooks(hooks)
	defer observability.Reset()

	ctx := context.Background()
	ed := New(nil)
	_ = ed.Renumber(ctx)
	if err := ed.Load(ctx, namedSource{Static(rawStack([]string{"A", "B"}, nil))}); err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if _, err := ed.AddLayer(ctx, nil); err != nil {
		t.Fatalf("AddLayer() error: %v", err)
	}
	_ = ed.Reorder(ctx, "missing", 0)

	if diff := cmp.Diff([]string{"fixture"}, hooks.loads); diff != "" {
		t.Errorf("loads (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"renumber (failed)", "add", "reorder (failed)"}, hooks.edits); diff != "" {
		t.Errorf("edits (-want +got):\n%s", diff)
	}
	if ed.SourceName() != "fixture" {
		t.Errorf("SourceName() = %q, want fixture", ed.SourceName())
	}
}
