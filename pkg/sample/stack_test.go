package sample

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand/v2"
	"slices"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/layerstack/pkg/errors"
)

func param(name string, value float64, fixed bool, limits [2]float64, bounds *[2]float64) *RawParameter {
	p := &RawParameter{
		Name:   name,
		Slot:   RawSlot{Value: Float(value)},
		Fixed:  fixed,
		Limits: []Float{Float(limits[0]), Float(limits[1])},
	}
	if bounds != nil {
		p.Bounds = []Float{Float(bounds[0]), Float(bounds[1])}
	}
	return p
}

var (
	inf     = math.Inf(1)
	nonNeg  = [2]float64{0, inf}
	anyReal = [2]float64{-inf, inf}
)

func rawLayer(name string, order *int) RawLayer {
	return RawLayer{
		Name:      name,
		Thickness: param(name+" thickness", 50, false, nonNeg, &[2]float64{20, 60}),
		Interface: param(name+" interface", 12.7, false, nonNeg, &[2]float64{1, 20}),
		Magnetism: json.RawMessage("null"),
		Material: &RawMaterial{
			Name: name,
			Rho:  param(name+" rho", -1.238, true, anyReal, nil),
			Irho: param(name+" irho", 0, true, anyReal, nil),
		},
		Order: order,
	}
}

func intp(v int) *int { return &v }

func ids(st *Stack) []string {
	out := make([]string, len(st.Layers))
	for i, l := range st.Layers {
		out[i] = l.ID
	}
	return out
}

func names(st *Stack) []string {
	out := make([]string, len(st.Layers))
	for i, l := range st.Layers {
		out[i] = l.Name
	}
	return out
}

func orders(st *Stack) []int {
	out := make([]int, len(st.Layers))
	for i, l := range st.Layers {
		out[i] = l.Order
	}
	return out
}

// randomRaw builds a raw sample of n layers. When withOrders is set each
// layer gets a random order in [0, n), so duplicates and gaps are common.
func randomRaw(r *rand.Rand, n int, withOrders bool) RawSample {
	raw := RawSample{}
	for i := range n {
		var order *int
		if withOrders {
			order = intp(r.IntN(n))
		}
		raw.Layers = append(raw.Layers, rawLayer(fmt.Sprintf("L%d", i), order))
	}
	return raw
}

func mustNormalize(t *testing.T, raw RawSample) *Stack {
	t.Helper()
	st, err := Normalize(raw)
	if err != nil {
		t.Fatalf("Normalize() error: %v", err)
	}
	return st
}

func TestNormalizeAssignsSourcePosition(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	for trial := range 50 {
		n := r.IntN(8)
		st := mustNormalize(t, randomRaw(r, n, false))

		for i, l := range st.Layers {
			if l.Order != i {
				t.Fatalf("trial %d: layer %d Order = %d, want %d", trial, i, l.Order, i)
			}
		}

		before := ids(st)
		st.Renumber()
		if diff := cmp.Diff(before, ids(st)); diff != "" {
			t.Fatalf("trial %d: Renumber changed sequence (-before +after):\n%s", trial, diff)
		}
	}
}

func TestNormalizeKeepsExplicitFields(t *testing.T) {
	raw := RawSample{Layers: []RawLayer{rawLayer("Ti", intp(7))}}
	raw.Layers[0].ID = "ti-layer"

	st := mustNormalize(t, raw)
	l := st.Layers[0]

	if l.ID != "ti-layer" {
		t.Errorf("ID = %q, want %q", l.ID, "ti-layer")
	}
	if l.Order != 7 {
		t.Errorf("Order = %d, want 7", l.Order)
	}
	if l.Thickness.Value != 50 || l.Thickness.Fixed {
		t.Errorf("Thickness = %+v, want value 50 free", l.Thickness)
	}
	if l.Thickness.Bounds == nil || *l.Thickness.Bounds != (Range{20, 60}) {
		t.Errorf("Thickness.Bounds = %v, want [20, 60]", l.Thickness.Bounds)
	}
	if !math.IsInf(l.Material.Rho.Limits.Min, -1) || !math.IsInf(l.Material.Rho.Limits.Max, 1) {
		t.Errorf("Rho.Limits = %v, want unbounded", l.Material.Rho.Limits)
	}
	if l.Material.Rho.Bounds != nil {
		t.Errorf("Rho.Bounds = %v, want nil", l.Material.Rho.Bounds)
	}
	if l.Magnetism != nil {
		t.Errorf("Magnetism = %s, want nil", l.Magnetism)
	}
}

func TestNormalizeGeneratesUniqueIDs(t *testing.T) {
	st := mustNormalize(t, randomRaw(rand.New(rand.NewPCG(3, 4)), 6, false))
	seen := map[string]bool{}
	for _, id := range ids(st) {
		if id == "" || seen[id] {
			t.Fatalf("id %q empty or duplicated", id)
		}
		seen[id] = true
	}
}

func TestNormalizeDefaultsMissingLimits(t *testing.T) {
	raw := RawSample{Layers: []RawLayer{rawLayer("Si", nil)}}
	raw.Layers[0].Material.Rho.Limits = nil

	st := mustNormalize(t, raw)
	if got := st.Layers[0].Material.Rho.Limits; got != Unbounded() {
		t.Errorf("Rho.Limits = %v, want %v", got, Unbounded())
	}
}

func TestNormalizeMalformed(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*RawLayer)
	}{
		{"missing thickness", func(l *RawLayer) { l.Thickness = nil }},
		{"missing interface", func(l *RawLayer) { l.Interface = nil }},
		{"missing material", func(l *RawLayer) { l.Material = nil }},
		{"missing rho", func(l *RawLayer) { l.Material.Rho = nil }},
		{"missing irho", func(l *RawLayer) { l.Material.Irho = nil }},
		{"reversed bounds", func(l *RawLayer) { l.Thickness.Bounds = []Float{5, 1} }},
		{"bounds below limits", func(l *RawLayer) { l.Interface.Bounds = []Float{-1, 10} }},
		{"bounds above limits", func(l *RawLayer) {
			l.Material.Rho.Limits = []Float{-2, 2}
			l.Material.Rho.Bounds = []Float{0, 3}
		}},
		{"reversed limits", func(l *RawLayer) { l.Material.Irho.Limits = []Float{1, -1} }},
		{"limits not a pair", func(l *RawLayer) { l.Thickness.Limits = []Float{0} }},
		{"bounds not a pair", func(l *RawLayer) { l.Thickness.Bounds = []Float{0, 1, 2} }},
		{"negative thickness limit", func(l *RawLayer) { l.Thickness.Limits = []Float{-1, Inf(1)} }},
		{"negative order", func(l *RawLayer) { l.Order = intp(-1) }},
		{"invalid magnetism", func(l *RawLayer) { l.Magnetism = json.RawMessage("{") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := RawSample{Layers: []RawLayer{rawLayer("Cu", nil), rawLayer("Ti", nil)}}
			tt.mutate(&raw.Layers[1])

			st, err := Normalize(raw)
			if err == nil {
				t.Fatalf("Normalize() = %v, want error", names(st))
			}
			if !errors.Is(err, errors.ErrCodeMalformedModel) {
				t.Errorf("Normalize() error = %v, want MALFORMED_MODEL", err)
			}
		})
	}
}

func TestNormalizeRejectsDuplicateIDs(t *testing.T) {
	raw := RawSample{Layers: []RawLayer{rawLayer("Cu", nil), rawLayer("Ti", nil)}}
	raw.Layers[0].ID = "same"
	raw.Layers[1].ID = "same"

	if _, err := Normalize(raw); !errors.Is(err, errors.ErrCodeMalformedModel) {
		t.Errorf("Normalize() error = %v, want MALFORMED_MODEL", err)
	}
}

func TestRenumberDense(t *testing.T) {
	r := rand.New(rand.NewPCG(5, 6))
	for trial := range 100 {
		n := r.IntN(10)
		st := mustNormalize(t, randomRaw(r, n, true))
		before := st.Clone()

		st.Renumber()

		want := make([]int, n)
		for i := range want {
			want[i] = i
		}
		if diff := cmp.Diff(want, orders(st)); diff != "" {
			t.Fatalf("trial %d: orders after Renumber (-want +got):\n%s", trial, diff)
		}

		// Stable: equal orders keep their source position.
		expected := slices.Clone(before.Layers)
		slices.SortStableFunc(expected, byOrder)
		if diff := cmp.Diff(ids(&Stack{Layers: expected}), ids(st)); diff != "" {
			t.Fatalf("trial %d: sequence (-want +got):\n%s", trial, diff)
		}

		again := ids(st)
		st.Renumber()
		if diff := cmp.Diff(again, ids(st)); diff != "" {
			t.Fatalf("trial %d: Renumber not idempotent:\n%s", trial, diff)
		}
	}
}

func TestRenumberScenario(t *testing.T) {
	raw := RawSample{Layers: []RawLayer{
		rawLayer("order2", intp(2)),
		rawLayer("order0", intp(0)),
		rawLayer("order1", intp(1)),
	}}
	st := mustNormalize(t, raw)
	st.Renumber()

	if diff := cmp.Diff([]string{"order0", "order1", "order2"}, names(st)); diff != "" {
		t.Errorf("names (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{0, 1, 2}, orders(st)); diff != "" {
		t.Errorf("orders (-want +got):\n%s", diff)
	}
}

func TestAddLayerDefaultOnEmptyStack(t *testing.T) {
	st := &Stack{}
	l, err := st.AddLayer(nil)
	if err != nil {
		t.Fatalf("AddLayer() error: %v", err)
	}
	st.Renumber()

	if st.Len() != 1 || st.Layers[0] != l {
		t.Fatalf("stack = %v, want the single new layer", names(st))
	}
	if l.Order != 0 {
		t.Errorf("Order = %d, want 0", l.Order)
	}
	if l.Name != DefaultLayerName {
		t.Errorf("Name = %q, want %q", l.Name, DefaultLayerName)
	}
	if !l.Thickness.Fixed {
		t.Error("Thickness.Fixed = false, want true")
	}
	if l.Thickness.Limits != NonNegative() {
		t.Errorf("Thickness.Limits = %v, want [0, inf]", l.Thickness.Limits)
	}
	if l.InterfaceWidth.Fixed {
		t.Error("InterfaceWidth.Fixed = true, want false")
	}
	if l.InterfaceWidth.Bounds == nil || *l.InterfaceWidth.Bounds != (Range{0, 100}) {
		t.Errorf("InterfaceWidth.Bounds = %v, want [0, 100]", l.InterfaceWidth.Bounds)
	}
	for _, p := range l.Parameters() {
		if p.Value != 0 {
			t.Errorf("%s value = %g, want 0", p.Name, p.Value)
		}
		if p.Fixed && p.Bounds != nil {
			t.Errorf("%s is fixed but has bounds %v", p.Name, *p.Bounds)
		}
	}
	if l.Magnetism != nil {
		t.Errorf("Magnetism = %s, want nil", l.Magnetism)
	}
	if err := st.Validate(); err != nil {
		t.Errorf("Validate() error: %v", err)
	}
}

func TestAddLayerSortsLast(t *testing.T) {
	r := rand.New(rand.NewPCG(7, 8))
	for trial := range 50 {
		st := mustNormalize(t, randomRaw(r, r.IntN(8), true))
		before := st.Clone()

		l, err := st.AddLayer(nil)
		if err != nil {
			t.Fatalf("AddLayer() error: %v", err)
		}
		for i, old := range before.Layers {
			if diff := cmp.Diff(old, st.Layers[i]); diff != "" {
				t.Fatalf("trial %d: AddLayer mutated layer %d:\n%s", trial, i, diff)
			}
		}

		st.Renumber()
		if last := st.Layers[st.Len()-1]; last != l {
			t.Fatalf("trial %d: last layer = %q, want the new layer", trial, last.Name)
		}
	}
}

func TestAddLayerFromTemplate(t *testing.T) {
	st := mustNormalize(t, RawSample{Layers: []RawLayer{rawLayer("Cu", nil)}})
	template := st.Layers[0]

	l, err := st.AddLayer(template)
	if err != nil {
		t.Fatalf("AddLayer() error: %v", err)
	}
	if l == template || l.ID == template.ID {
		t.Error("AddLayer should append a copy with a fresh id")
	}
	if l.Name != "Cu" || l.Thickness.Value != template.Thickness.Value {
		t.Errorf("copy = %+v, want fields of template", l)
	}

	l.Thickness.Bounds.Max = 999
	if template.Thickness.Bounds.Max == 999 {
		t.Error("mutating the copy changed the template")
	}
}

func TestAddLayerRejectsInvalidTemplate(t *testing.T) {
	st := &Stack{}
	bad := DefaultLayer("bad")
	bad.InterfaceWidth.Bounds = &Range{Min: 5, Max: 1}

	if _, err := st.AddLayer(bad); !errors.Is(err, errors.ErrCodeMalformedModel) {
		t.Errorf("AddLayer() error = %v, want MALFORMED_MODEL", err)
	}
	if st.Len() != 0 {
		t.Errorf("Len() = %d, want 0", st.Len())
	}
}

func TestReorderProperty(t *testing.T) {
	r := rand.New(rand.NewPCG(9, 10))
	for trial := range 200 {
		n := 1 + r.IntN(8)
		st := mustNormalize(t, randomRaw(r, n, true))

		display := st.Clone()
		display.Renumber()

		target := display.Layers[r.IntN(n)].ID
		k := r.IntN(n)
		if err := st.Reorder(target, k); err != nil {
			t.Fatalf("trial %d: Reorder() error: %v", trial, err)
		}

		if got := st.Layers[k].ID; got != target {
			t.Fatalf("trial %d: layer at %d = %s, want %s", trial, k, got, target)
		}
		if !st.Dense() {
			t.Fatalf("trial %d: orders not dense: %v", trial, orders(st))
		}

		others := slices.DeleteFunc(ids(display), func(id string) bool { return id == target })
		rest := slices.DeleteFunc(ids(st), func(id string) bool { return id == target })
		if diff := cmp.Diff(others, rest); diff != "" {
			t.Fatalf("trial %d: relative order of other layers changed:\n%s", trial, diff)
		}
	}
}

func TestReorderToEnd(t *testing.T) {
	st := mustNormalize(t, RawSample{Layers: []RawLayer{rawLayer("A", nil), rawLayer("B", nil), rawLayer("C", nil)}})
	if err := st.Reorder(st.Layers[0].ID, 3); err != nil {
		t.Fatalf("Reorder() error: %v", err)
	}
	if diff := cmp.Diff([]string{"B", "C", "A"}, names(st)); diff != "" {
		t.Errorf("names (-want +got):\n%s", diff)
	}
}

func TestReorderErrorsLeaveStackUnchanged(t *testing.T) {
	tests := []struct {
		name string
		id   func(*Stack) string
		pos  int
		code errors.Code
	}{
		{"negative position", func(s *Stack) string { return s.Layers[0].ID }, -1, errors.ErrCodeOutOfRange},
		{"position past count", func(s *Stack) string { return s.Layers[0].ID }, 4, errors.ErrCodeOutOfRange},
		{"unknown layer", func(*Stack) string { return "missing" }, 1, errors.ErrCodeLayerNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := RawSample{Layers: []RawLayer{rawLayer("A", intp(2)), rawLayer("B", intp(0)), rawLayer("C", intp(1))}}
			st := mustNormalize(t, raw)
			before := st.Clone()

			err := st.Reorder(tt.id(st), tt.pos)
			if !errors.Is(err, tt.code) {
				t.Fatalf("Reorder() error = %v, want %s", err, tt.code)
			}
			if diff := cmp.Diff(before, st); diff != "" {
				t.Errorf("stack changed on failure (-before +after):\n%s", diff)
			}
		})
	}
}

func TestRoundTripThroughRaw(t *testing.T) {
	r := rand.New(rand.NewPCG(11, 12))
	for trial := range 30 {
		st := mustNormalize(t, randomRaw(r, r.IntN(6), true))
		st.Renumber()
		if st.Len() > 0 {
			st.Layers[0].Magnetism = json.RawMessage(`{"rhoM":0.1,"thetaM":270}`)
		}

		// Through the wire encoding, not just the Go structs.
		data, err := json.Marshal(st.Raw())
		if err != nil {
			t.Fatalf("Marshal() error: %v", err)
		}
		var raw RawSample
		if err := json.Unmarshal(data, &raw); err != nil {
			t.Fatalf("Unmarshal() error: %v", err)
		}

		got := mustNormalize(t, raw)
		if diff := cmp.Diff(st, got); diff != "" {
			t.Fatalf("trial %d: round trip (-want +got):\n%s", trial, diff)
		}
	}
}

func TestUnknownKeysSurvive(t *testing.T) {
	in := `{"name":"film","layers":[{"name":"Cu","units":"angstrom",
		"thickness":{"name":"Cu thickness","slot":{"value":10},"fixed":true,"limits":[0,100],"bounds":null,"note":"x"},
		"interface":{"name":"Cu interface","slot":{"value":1},"fixed":true,"limits":[0,100],"bounds":null},
		"magnetism":null,
		"material":{"name":"Cu Material","source":"nist",
			"rho":{"name":"Cu rho","slot":{"value":6.5},"fixed":true,"limits":[-10,10],"bounds":null},
			"irho":{"name":"Cu irho","slot":{"value":0},"fixed":true,"limits":[-10,10],"bounds":null}}}]}`

	var raw RawSample
	if err := json.Unmarshal([]byte(in), &raw); err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}
	st := mustNormalize(t, raw)
	l := st.Layers[0].Clone()
	if string(l.Extra["units"]) != `"angstrom"` {
		t.Errorf("layer extra = %s, want units", l.Extra)
	}
	if string(l.Thickness.Extra["note"]) != `"x"` {
		t.Errorf("thickness extra = %s, want note", l.Thickness.Extra)
	}

	data, err := json.Marshal(st.Raw())
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}
	for _, want := range []string{`"units":"angstrom"`, `"note":"x"`, `"source":"nist"`} {
		if !strings.Contains(string(data), want) {
			t.Errorf("output missing %s:\n%s", want, data)
		}
	}

	// A known key never appears twice, whatever its case.
	var again RawParameter
	if err := json.Unmarshal([]byte(`{"Name":"t","slot":{"value":1}}`), &again); err != nil {
		t.Fatal(err)
	}
	if again.Name != "t" || len(again.Extra) != 0 {
		t.Errorf("RawParameter = %+v, want name t and no extra", again)
	}
}

func TestLookup(t *testing.T) {
	raw := RawSample{Layers: []RawLayer{rawLayer("Cu", nil), rawLayer("Ti", nil), rawLayer("Ti", nil)}}
	raw.Layers[0].ID = "0a1b2c3d-cu"
	raw.Layers[1].ID = "9f8e7d6c-ti"
	raw.Layers[2].ID = "9f8e0000-ti"
	st := mustNormalize(t, raw)

	tests := []struct {
		ref    string
		wantID string
		code   errors.Code
	}{
		{"0a1b2c3d-cu", "0a1b2c3d-cu", ""},
		{"Cu", "0a1b2c3d-cu", ""},
		{"9f8e7d", "9f8e7d6c-ti", ""},
		{"Ti", "", errors.ErrCodeInvalidInput},
		{"9f8e", "", errors.ErrCodeInvalidInput},
		{"9f8", "", errors.ErrCodeLayerNotFound},
		{"Si", "", errors.ErrCodeLayerNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			l, err := st.Lookup(tt.ref)
			if tt.code != "" {
				if !errors.Is(err, tt.code) {
					t.Fatalf("Lookup(%q) error = %v, want %s", tt.ref, err, tt.code)
				}
				return
			}
			if err != nil {
				t.Fatalf("Lookup(%q) error: %v", tt.ref, err)
			}
			if l.ID != tt.wantID {
				t.Errorf("Lookup(%q) = %s, want %s", tt.ref, l.ID, tt.wantID)
			}
		})
	}
}

func TestLayerRename(t *testing.T) {
	l := DefaultLayer(DefaultLayerName)
	if err := l.Rename("SEI"); err != nil {
		t.Fatalf("Rename() error: %v", err)
	}

	want := []string{"SEI thickness", "SEI interface", "SEI rho", "SEI irho"}
	var got []string
	for _, p := range l.Parameters() {
		got = append(got, p.Name)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("parameter names (-want +got):\n%s", diff)
	}
	if l.Material.Name != "SEI Material" {
		t.Errorf("Material.Name = %q, want %q", l.Material.Name, "SEI Material")
	}

	if err := l.Rename(""); !errors.Is(err, errors.ErrCodeInvalidName) {
		t.Errorf("Rename(\"\") error = %v, want INVALID_NAME", err)
	}
}

func TestFreeParameters(t *testing.T) {
	l := DefaultLayer("X")
	free := l.FreeParameters()
	if len(free) != 1 || free[0] != &l.InterfaceWidth {
		t.Errorf("FreeParameters() = %v, want only the interface", free)
	}
}
