package sample

import (
	"bytes"
	"encoding/json"
	"maps"
	"strings"

	"github.com/matzehuels/layerstack/pkg/errors"
)

// DefaultLayerName is the name given to layers created without a template.
const DefaultLayerName = "New Layer"

// Default search range of the interface roughness of a new layer.
const (
	defaultInterfaceMin = 0
	defaultInterfaceMax = 100
)

// Material holds the optical constants of a substance.
type Material struct {
	Name  string
	Rho   Parameter // real scattering length density
	Irho  Parameter // imaginary (absorptive) scattering length density
	Extra map[string]json.RawMessage
}

// Layer is one stratum of a sample.
//
// Order defines the display and physical sequence, top to bottom. Magnetism
// is carried through untouched; nil means the layer is not magnetic. Extra
// holds unrecognized wire keys of the layer record.
type Layer struct {
	ID             string
	Name           string
	Thickness      Parameter
	InterfaceWidth Parameter
	Magnetism      json.RawMessage
	Material       Material
	Order          int
	Extra          map[string]json.RawMessage
}

// DefaultLayer returns the layer template used by [Stack.AddLayer] when no
// template is given. Every parameter is fixed at 0 except the interface
// roughness, which is free with bounds [0, 100]. Thickness and interface are
// limited to [0, inf); rho and irho are unbounded.
//
// The returned layer has no ID and Order 0.
func DefaultLayer(name string) *Layer {
	return &Layer{
		Name: name,
		Thickness: Parameter{
			Name:   name + " thickness",
			Fixed:  true,
			Limits: NonNegative(),
		},
		InterfaceWidth: Parameter{
			Name:   name + " interface",
			Fixed:  false,
			Limits: NonNegative(),
			Bounds: &Range{Min: defaultInterfaceMin, Max: defaultInterfaceMax},
		},
		Material: Material{
			Name: name + " Material",
			Rho: Parameter{
				Name:   name + " rho",
				Fixed:  true,
				Limits: Unbounded(),
			},
			Irho: Parameter{
				Name:   name + " irho",
				Fixed:  true,
				Limits: Unbounded(),
			},
		},
	}
}

// Parameters returns pointers to the layer's four parameters in display
// order: thickness, interface, rho, irho.
func (l *Layer) Parameters() []*Parameter {
	return []*Parameter{&l.Thickness, &l.InterfaceWidth, &l.Material.Rho, &l.Material.Irho}
}

// FreeParameters returns the parameters that take part in fitting.
func (l *Layer) FreeParameters() []*Parameter {
	var free []*Parameter
	for _, p := range l.Parameters() {
		if p.Free() {
			free = append(free, p)
		}
	}
	return free
}

// Rename changes the layer name. Parameter and material names that follow
// the "<layer> <suffix>" convention are renamed along with it.
func (l *Layer) Rename(name string) error {
	if err := errors.ValidateLayerName(name); err != nil {
		return err
	}
	old := l.Name
	l.Name = name
	if old == "" {
		return nil
	}
	for _, p := range l.Parameters() {
		p.Name = renamePrefix(p.Name, old, name)
	}
	l.Material.Name = renamePrefix(l.Material.Name, old, name)
	return nil
}

func renamePrefix(s, old, name string) string {
	if rest, ok := strings.CutPrefix(s, old+" "); ok {
		return name + " " + rest
	}
	return s
}

// Validate checks every parameter of the layer and the thickness lower limit.
func (l *Layer) Validate() error {
	if l.Thickness.Limits.Min < 0 {
		return errors.Malformed("layer %q: thickness lower limit %s is negative", l.Name, formatFloat(l.Thickness.Limits.Min))
	}
	if l.Order < 0 {
		return errors.Malformed("layer %q: order %d is negative", l.Name, l.Order)
	}
	for _, p := range l.Parameters() {
		if err := p.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Clone returns a deep copy of the layer.
func (l *Layer) Clone() *Layer {
	c := *l
	c.Thickness = l.Thickness.clone()
	c.InterfaceWidth = l.InterfaceWidth.clone()
	c.Material.Rho = l.Material.Rho.clone()
	c.Material.Irho = l.Material.Irho.clone()
	c.Material.Extra = maps.Clone(l.Material.Extra)
	c.Extra = maps.Clone(l.Extra)
	if l.Magnetism != nil {
		c.Magnetism = bytes.Clone(l.Magnetism)
	}
	return &c
}

// Raw converts the layer to its wire form, including ID and Order.
func (l *Layer) Raw() RawLayer {
	order := l.Order
	rl := RawLayer{
		ID:        l.ID,
		Name:      l.Name,
		Thickness: l.Thickness.raw(),
		Interface: l.InterfaceWidth.raw(),
		Material: &RawMaterial{
			Name:  l.Material.Name,
			Rho:   l.Material.Rho.raw(),
			Irho:  l.Material.Irho.raw(),
			Extra: maps.Clone(l.Material.Extra),
		},
		Order: &order,
		Extra: maps.Clone(l.Extra),
	}
	if l.Magnetism != nil {
		rl.Magnetism = bytes.Clone(l.Magnetism)
	}
	return rl
}

// magnetism normalizes an opaque magnetism record: JSON null and absent
// become nil, anything else is compacted so re-encoding is stable.
func magnetism(raw json.RawMessage) (json.RawMessage, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, trimmed); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
