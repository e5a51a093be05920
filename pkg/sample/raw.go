package sample

import (
	"bytes"
	"encoding/json"
	"strings"
)

// RawSample is the inbound/outbound record of a sample as exchanged with
// loaders and consumers. Pointer fields are nil when the key was absent.
type RawSample struct {
	Name   string     `json:"name,omitempty"`
	Layers []RawLayer `json:"layers"`
}

// RawLayer is the wire form of a [Layer]. The interface roughness travels
// under the key "interface". Extra holds unrecognized keys as raw JSON.
type RawLayer struct {
	ID        string                     `json:"id,omitempty"`
	Name      string                     `json:"name"`
	Thickness *RawParameter              `json:"thickness"`
	Interface *RawParameter              `json:"interface"`
	Magnetism json.RawMessage            `json:"magnetism"`
	Material  *RawMaterial               `json:"material"`
	Order     *int                       `json:"order,omitempty"`
	Extra     map[string]json.RawMessage `json:"-"`
}

// RawMaterial is the wire form of a [Material].
type RawMaterial struct {
	Name  string                     `json:"name"`
	Rho   *RawParameter              `json:"rho"`
	Irho  *RawParameter              `json:"irho"`
	Extra map[string]json.RawMessage `json:"-"`
}

// RawParameter is the wire form of a [Parameter]. Limits and Bounds are
// two-element arrays; Bounds is null when no search range is defined.
type RawParameter struct {
	Name   string                     `json:"name"`
	Slot   RawSlot                    `json:"slot"`
	Fixed  bool                       `json:"fixed"`
	Limits []Float                    `json:"limits"`
	Bounds []Float                    `json:"bounds"`
	Extra  map[string]json.RawMessage `json:"-"`
}

// RawSlot holds the current value of a parameter.
type RawSlot struct {
	Value Float `json:"value"`
}

var (
	layerKeys     = []string{"id", "name", "thickness", "interface", "magnetism", "material", "order"}
	materialKeys  = []string{"name", "rho", "irho"}
	parameterKeys = []string{"name", "slot", "fixed", "limits", "bounds"}
)

// MarshalJSON implements json.Marshaler.
func (rl RawLayer) MarshalJSON() ([]byte, error) {
	type plain RawLayer
	return marshalExtra(plain(rl), rl.Extra)
}

// UnmarshalJSON implements json.Unmarshaler.
func (rl *RawLayer) UnmarshalJSON(data []byte) error {
	type plain RawLayer
	var p plain
	extra, err := unmarshalExtra(data, &p, layerKeys)
	if err != nil {
		return err
	}
	*rl = RawLayer(p)
	rl.Extra = extra
	return nil
}

// MarshalJSON implements json.Marshaler.
func (rm RawMaterial) MarshalJSON() ([]byte, error) {
	type plain RawMaterial
	return marshalExtra(plain(rm), rm.Extra)
}

// UnmarshalJSON implements json.Unmarshaler.
func (rm *RawMaterial) UnmarshalJSON(data []byte) error {
	type plain RawMaterial
	var p plain
	extra, err := unmarshalExtra(data, &p, materialKeys)
	if err != nil {
		return err
	}
	*rm = RawMaterial(p)
	rm.Extra = extra
	return nil
}

// MarshalJSON implements json.Marshaler.
func (rp RawParameter) MarshalJSON() ([]byte, error) {
	type plain RawParameter
	return marshalExtra(plain(rp), rp.Extra)
}

// UnmarshalJSON implements json.Unmarshaler.
func (rp *RawParameter) UnmarshalJSON(data []byte) error {
	type plain RawParameter
	var p plain
	extra, err := unmarshalExtra(data, &p, parameterKeys)
	if err != nil {
		return err
	}
	*rp = RawParameter(p)
	rp.Extra = extra
	return nil
}

// marshalExtra encodes v and merges extra into the resulting object. Known
// keys win over extra keys of the same name.
func marshalExtra(v any, extra map[string]json.RawMessage) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil || len(extra) == 0 {
		return data, err
	}
	fields := make(map[string]json.RawMessage, len(extra)+8)
	for k, raw := range extra {
		fields[k] = raw
	}
	var known map[string]json.RawMessage
	if err := json.Unmarshal(data, &known); err != nil {
		return nil, err
	}
	for k, raw := range known {
		fields[k] = raw
	}
	return json.Marshal(fields)
}

// unmarshalExtra decodes data into v and returns the keys v does not know.
// Key matching is case-insensitive, like encoding/json.
func unmarshalExtra(data []byte, v any, known []string) (map[string]json.RawMessage, error) {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil, nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return nil, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	var extra map[string]json.RawMessage
	for k, raw := range fields {
		if isKnown(k, known) {
			continue
		}
		if extra == nil {
			extra = make(map[string]json.RawMessage)
		}
		extra[k] = raw
	}
	return extra, nil
}

func isKnown(key string, known []string) bool {
	for _, k := range known {
		if strings.EqualFold(k, key) {
			return true
		}
	}
	return false
}
