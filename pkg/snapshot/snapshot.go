// Package snapshot stores named copies of a layer stack.
//
// A snapshot is the outbound JSON document of a stack, saved under a short
// name so an editing session can be resumed or compared later. Two backends
// are provided:
//   - file: one JSON file per snapshot under ~/.config/layerstack/snapshots/
//   - mongo: one document per snapshot in the "snapshots" collection
//
// Any snapshot can be loaded back into an editor through [Source]:
//
//	store, err := snapshot.NewFileStore("")
//	if err != nil {
//	    return err
//	}
//	if err := store.Save(ctx, "before-reorder", st); err != nil {
//	    return err
//	}
//	err = ed.Load(ctx, snapshot.Source(store, "before-reorder"))
//
// Names must start with a letter or digit and may contain letters, digits,
// '.', '_', and '-'.
package snapshot

import (
	"bytes"
	"context"
	"time"

	"github.com/matzehuels/layerstack/pkg/editor"
	"github.com/matzehuels/layerstack/pkg/errors"
	"github.com/matzehuels/layerstack/pkg/io"
	"github.com/matzehuels/layerstack/pkg/sample"
)

// Info describes a stored snapshot without its content.
type Info struct {
	Name      string    `json:"name" bson:"_id"`
	Layers    int       `json:"layers" bson:"layers"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// Store persists snapshots. Implementations are safe for concurrent use.
type Store interface {
	// Save creates or replaces the snapshot called name.
	Save(ctx context.Context, name string, st *sample.Stack) error

	// Get loads the snapshot called name. A missing snapshot fails with
	// NOT_FOUND.
	Get(ctx context.Context, name string) (*sample.Stack, error)

	// List returns all snapshots sorted by name.
	List(ctx context.Context) ([]Info, error)

	// Delete removes the snapshot called name. A missing snapshot fails with
	// NOT_FOUND.
	Delete(ctx context.Context, name string) error

	// Close releases backend resources.
	Close() error
}

// Source adapts a stored snapshot to editor.Source.
func Source(store Store, name string) editor.Source {
	return source{store: store, name: name}
}

type source struct {
	store Store
	name  string
}

func (s source) Fetch(ctx context.Context) (sample.RawSample, error) {
	st, err := s.store.Get(ctx, s.name)
	if err != nil {
		return sample.RawSample{}, errors.Transport(err, "snapshot %s", s.name)
	}
	return st.Raw(), nil
}

func (s source) String() string { return "snapshot:" + s.name }

// encode renders st as an outbound document.
func encode(st *sample.Stack) ([]byte, error) {
	var buf bytes.Buffer
	if err := io.WriteJSON(st, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// decode turns a stored document back into a renumbered stack.
func decode(name string, data []byte) (*sample.Stack, error) {
	doc, err := io.ParseDocument(data)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "snapshot %s is corrupt", name)
	}
	raw, err := doc.Select(0)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "snapshot %s is corrupt", name)
	}
	st, err := sample.Normalize(raw)
	if err != nil {
		return nil, err
	}
	st.Renumber()
	return st, nil
}

func notFound(name string) error {
	return errors.New(errors.ErrCodeNotFound, "snapshot %q not found", name)
}
