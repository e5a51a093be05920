package io

import (
	"encoding/json"
	"maps"
	"slices"

	"github.com/matzehuels/layerstack/pkg/errors"
	"github.com/matzehuels/layerstack/pkg/sample"
)

// Document is an inbound or outbound sample document.
//
// Exactly one of Sample or Models is normally set. Extra holds every other
// top-level key as raw JSON.
type Document struct {
	Sample *sample.RawSample
	Models []ModelEntry
	Extra  map[string]json.RawMessage
}

// ModelEntry is one element of a document's "models" list.
type ModelEntry struct {
	Sample *sample.RawSample
	Extra  map[string]json.RawMessage
}

// Select returns the raw sample at index.
//
// A document with a top-level sample only has index 0. A document with models
// has one index per entry. Select fails with MALFORMED_MODEL when the document
// has neither, when index is out of range, or when the selected model entry
// has no sample.
func (d *Document) Select(index int) (sample.RawSample, error) {
	switch {
	case d.Sample != nil:
		if index != 0 {
			return sample.RawSample{}, errors.Malformed("model %d requested but document has a single sample", index)
		}
		return *d.Sample, nil
	case len(d.Models) > 0:
		if index < 0 || index >= len(d.Models) {
			return sample.RawSample{}, errors.Malformed("model %d requested but document has %d models", index, len(d.Models))
		}
		m := d.Models[index]
		if m.Sample == nil {
			return sample.RawSample{}, errors.Malformed("model %d has no sample", index)
		}
		return *m.Sample, nil
	}
	return sample.RawSample{}, errors.Malformed("document has neither sample nor models")
}

// ModelCount returns the number of selectable samples.
func (d *Document) ModelCount() int {
	if d.Sample != nil {
		return 1
	}
	return len(d.Models)
}

// WithStack returns a copy of the document with the sample at index replaced
// by st. Other models and unknown keys are preserved. An empty document
// accepts index 0 and gains a top-level sample. The stack is renumbered on a
// copy first, so st itself is not modified.
func (d *Document) WithStack(index int, st *sample.Stack) (*Document, error) {
	raw := outbound(st)
	out := &Document{Models: slices.Clone(d.Models), Extra: maps.Clone(d.Extra)}

	if d.Sample != nil || len(d.Models) == 0 {
		if index != 0 {
			return nil, errors.Malformed("model %d requested but document has a single sample", index)
		}
		out.Sample = &raw
		return out, nil
	}

	if index < 0 || index >= len(d.Models) {
		return nil, errors.Malformed("model %d requested but document has %d models", index, len(d.Models))
	}
	out.Models[index] = ModelEntry{Sample: &raw, Extra: maps.Clone(d.Models[index].Extra)}
	return out, nil
}

func outbound(st *sample.Stack) sample.RawSample {
	c := st.Clone()
	c.Renumber()
	return c.Raw()
}

// MarshalJSON implements json.Marshaler.
func (d Document) MarshalJSON() ([]byte, error) {
	fields := maps.Clone(d.Extra)
	if fields == nil {
		fields = make(map[string]json.RawMessage, 2)
	}
	if d.Sample != nil {
		if err := setField(fields, "sample", d.Sample); err != nil {
			return nil, err
		}
	}
	if d.Models != nil {
		if err := setField(fields, "models", d.Models); err != nil {
			return nil, err
		}
	}
	return json.Marshal(fields)
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Document) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	var out Document
	if raw, ok := fields["sample"]; ok && !isNull(raw) {
		out.Sample = new(sample.RawSample)
		if err := json.Unmarshal(raw, out.Sample); err != nil {
			return err
		}
	}
	if raw, ok := fields["models"]; ok && !isNull(raw) {
		if err := json.Unmarshal(raw, &out.Models); err != nil {
			return err
		}
	}
	delete(fields, "sample")
	delete(fields, "models")
	if len(fields) > 0 {
		out.Extra = fields
	}
	*d = out
	return nil
}

// MarshalJSON implements json.Marshaler.
func (m ModelEntry) MarshalJSON() ([]byte, error) {
	fields := maps.Clone(m.Extra)
	if fields == nil {
		fields = make(map[string]json.RawMessage, 1)
	}
	if m.Sample != nil {
		if err := setField(fields, "sample", m.Sample); err != nil {
			return nil, err
		}
	}
	return json.Marshal(fields)
}

// UnmarshalJSON implements json.Unmarshaler.
func (m *ModelEntry) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	var out ModelEntry
	if raw, ok := fields["sample"]; ok && !isNull(raw) {
		out.Sample = new(sample.RawSample)
		if err := json.Unmarshal(raw, out.Sample); err != nil {
			return err
		}
	}
	delete(fields, "sample")
	if len(fields) > 0 {
		out.Extra = fields
	}
	*m = out
	return nil
}

func setField(fields map[string]json.RawMessage, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	fields[key] = b
	return nil
}

func isNull(raw json.RawMessage) bool {
	return string(raw) == "null"
}
