package sample

import (
	"cmp"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/matzehuels/layerstack/pkg/errors"
)

// Stack is an ordered sequence of layers, top to bottom.
//
// After [Stack.Renumber] the Order values are exactly 0..n-1 and match the
// slice order. Between edits (right after [Stack.AddLayer]) the values may
// be non-dense until the next renumber.
type Stack struct {
	Name   string
	Layers []*Layer
}

// Normalize builds a Stack from a raw sample.
//
// Layers are taken in source order. A layer without an order gets its
// position index, a layer without an id gets a fresh UUID. Values, fixed
// flags, limits, and bounds are copied as given. Missing limits default to
// (-inf, inf).
//
// Normalize fails with a MALFORMED_MODEL error if a layer lacks thickness,
// interface, or material (or the material lacks rho or irho), if any
// parameter's limits or bounds are malformed or bounds fall outside limits,
// if a thickness lower limit is negative, if an explicit order is negative,
// or if two layers share an id. The input is never modified.
func Normalize(raw RawSample) (*Stack, error) {
	st := &Stack{
		Name:   raw.Name,
		Layers: make([]*Layer, 0, len(raw.Layers)),
	}
	seen := make(map[string]int, len(raw.Layers))

	for i, rl := range raw.Layers {
		l, err := normalizeLayer(i, rl)
		if err != nil {
			return nil, err
		}
		if prev, dup := seen[l.ID]; dup {
			return nil, errors.Malformed("layers %d and %d share id %q", prev, i, l.ID)
		}
		seen[l.ID] = i
		st.Layers = append(st.Layers, l)
	}
	return st, nil
}

func normalizeLayer(i int, rl RawLayer) (*Layer, error) {
	where := layerLabel(i, rl.Name)

	switch {
	case rl.Thickness == nil:
		return nil, errors.Malformed("%s: missing thickness", where)
	case rl.Interface == nil:
		return nil, errors.Malformed("%s: missing interface", where)
	case rl.Material == nil:
		return nil, errors.Malformed("%s: missing material", where)
	case rl.Material.Rho == nil:
		return nil, errors.Malformed("%s: material missing rho", where)
	case rl.Material.Irho == nil:
		return nil, errors.Malformed("%s: material missing irho", where)
	}

	l := &Layer{
		ID:       rl.ID,
		Name:     rl.Name,
		Material: Material{Name: rl.Material.Name, Extra: maps.Clone(rl.Material.Extra)},
		Order:    i,
		Extra:    maps.Clone(rl.Extra),
	}
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	if rl.Order != nil {
		if *rl.Order < 0 {
			return nil, errors.Malformed("%s: order %d is negative", where, *rl.Order)
		}
		l.Order = *rl.Order
	}

	var err error
	if l.Thickness, err = rl.Thickness.parameter(where + " thickness"); err != nil {
		return nil, err
	}
	if l.Thickness.Limits.Min < 0 {
		return nil, errors.Malformed("%s: thickness lower limit %s is negative", where, formatFloat(l.Thickness.Limits.Min))
	}
	if l.InterfaceWidth, err = rl.Interface.parameter(where + " interface"); err != nil {
		return nil, err
	}
	if l.Material.Rho, err = rl.Material.Rho.parameter(where + " rho"); err != nil {
		return nil, err
	}
	if l.Material.Irho, err = rl.Material.Irho.parameter(where + " irho"); err != nil {
		return nil, err
	}
	if l.Magnetism, err = magnetism(rl.Magnetism); err != nil {
		return nil, errors.Wrap(errors.ErrCodeMalformedModel, err, "%s: magnetism", where)
	}
	return l, nil
}

func layerLabel(i int, name string) string {
	if name == "" {
		return "layer " + strconv.Itoa(i)
	}
	return "layer " + strconv.Itoa(i) + " (" + name + ")"
}

// Len returns the number of layers.
func (s *Stack) Len() int { return len(s.Layers) }

// Renumber stably sorts the layers by Order and reassigns Order 0..n-1.
// Layers with equal Order keep their relative position. Renumber is
// idempotent.
func (s *Stack) Renumber() {
	slices.SortStableFunc(s.Layers, byOrder)
	for i, l := range s.Layers {
		l.Order = i
	}
}

func byOrder(a, b *Layer) int { return cmp.Compare(a.Order, b.Order) }

// Dense reports whether the orders are exactly 0..n-1 in slice order.
func (s *Stack) Dense() bool {
	for i, l := range s.Layers {
		if l.Order != i {
			return false
		}
	}
	return true
}

// AddLayer appends a copy of template, or [DefaultLayer] when template is
// nil, and returns the appended layer so the caller can edit it in place.
//
// The new layer gets a fresh ID and an Order greater than every existing
// order, so it sorts last until the next [Stack.Renumber]. Existing layers
// are not touched. A template that violates the parameter invariants is
// rejected with MALFORMED_MODEL and nothing is appended.
func (s *Stack) AddLayer(template *Layer) (*Layer, error) {
	var l *Layer
	if template != nil {
		if err := template.Validate(); err != nil {
			return nil, err
		}
		l = template.Clone()
	} else {
		l = DefaultLayer(DefaultLayerName)
	}
	l.ID = uuid.NewString()
	l.Order = s.nextOrder()
	s.Layers = append(s.Layers, l)
	return l, nil
}

func (s *Stack) nextOrder() int {
	next := 0
	for _, l := range s.Layers {
		next = max(next, l.Order+1)
	}
	return next
}

// Reorder moves the layer with the given id to position pos (0-based) in
// display order and renumbers the stack. Positions equal to the layer count
// move the layer to the end.
//
// Reorder fails with OUT_OF_RANGE when pos is negative or greater than the
// layer count, and with LAYER_NOT_FOUND for an unknown id. On failure the
// stack is unchanged.
func (s *Stack) Reorder(id string, pos int) error {
	n := len(s.Layers)
	if pos < 0 || pos > n {
		return errors.New(errors.ErrCodeOutOfRange, "position %d outside [0, %d]", pos, n)
	}

	ordered := slices.Clone(s.Layers)
	slices.SortStableFunc(ordered, byOrder)
	cur := slices.IndexFunc(ordered, func(l *Layer) bool { return l.ID == id })
	if cur < 0 {
		return errors.New(errors.ErrCodeLayerNotFound, "no layer with id %q", id)
	}

	moving := ordered[cur]
	ordered = slices.Delete(ordered, cur, cur+1)
	ordered = slices.Insert(ordered, min(pos, len(ordered)), moving)

	s.Layers = ordered
	for i, l := range s.Layers {
		l.Order = i
	}
	return nil
}

// Index returns the slice position of the layer with the given id, or -1.
func (s *Stack) Index(id string) int {
	return slices.IndexFunc(s.Layers, func(l *Layer) bool { return l.ID == id })
}

// Find returns the layer with the given id, or nil.
func (s *Stack) Find(id string) *Layer {
	if i := s.Index(id); i >= 0 {
		return s.Layers[i]
	}
	return nil
}

// Lookup resolves a user-supplied reference to a layer. The reference may be
// a full id, a unique id prefix of at least 4 characters, or an exact layer
// name shared by no other layer.
func (s *Stack) Lookup(ref string) (*Layer, error) {
	if l := s.Find(ref); l != nil {
		return l, nil
	}

	var matches []*Layer
	for _, l := range s.Layers {
		if l.Name == ref || (len(ref) >= 4 && strings.HasPrefix(l.ID, ref)) {
			matches = append(matches, l)
		}
	}
	switch len(matches) {
	case 0:
		return nil, errors.New(errors.ErrCodeLayerNotFound, "no layer matches %q", ref)
	case 1:
		return matches[0], nil
	}
	return nil, errors.New(errors.ErrCodeInvalidInput, "%q matches %d layers", ref, len(matches))
}

// Validate checks every layer and the uniqueness of ids.
func (s *Stack) Validate() error {
	seen := make(map[string]bool, len(s.Layers))
	for _, l := range s.Layers {
		if seen[l.ID] {
			return errors.Malformed("duplicate layer id %q", l.ID)
		}
		seen[l.ID] = true
		if err := l.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Clone returns a deep copy of the stack.
func (s *Stack) Clone() *Stack {
	c := &Stack{Name: s.Name, Layers: make([]*Layer, len(s.Layers))}
	for i, l := range s.Layers {
		c.Layers[i] = l.Clone()
	}
	return c
}

// Raw converts the stack to its wire form in slice order.
func (s *Stack) Raw() RawSample {
	raw := RawSample{Name: s.Name, Layers: make([]RawLayer, len(s.Layers))}
	for i, l := range s.Layers {
		raw.Layers[i] = l.Raw()
	}
	return raw
}
