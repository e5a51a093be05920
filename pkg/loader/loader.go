// Package loader provides the external sources a sample is loaded from.
//
// Both sources implement editor.Source. Any failure to obtain or decode the
// document (missing file, network error, non-2xx status, invalid JSON,
// missing model) is returned as a LOAD_TRANSPORT error wrapping the cause.
// Schema validation of the selected sample happens later, in
// sample.Normalize, and fails with MALFORMED_MODEL.
//
//	src := &loader.HTTPSource{URL: "http://localhost:3000/api/testdata", Cache: c}
//	if err := ed.Load(ctx, src); err != nil {
//	    ...
//	}
package loader

import (
	"context"
	"fmt"

	"github.com/matzehuels/layerstack/pkg/editor"
	"github.com/matzehuels/layerstack/pkg/errors"
	"github.com/matzehuels/layerstack/pkg/io"
	"github.com/matzehuels/layerstack/pkg/sample"
)

// FileSource reads a sample document from a local JSON file.
type FileSource struct {
	Path  string
	Model int // index into "models"; 0 for a top-level sample
}

// Fetch reads and decodes the file and selects the configured model.
func (s FileSource) Fetch(ctx context.Context) (sample.RawSample, error) {
	if err := ctx.Err(); err != nil {
		return sample.RawSample{}, errors.Transport(err, "read %s", s.Path)
	}
	doc, err := io.ImportDocument(s.Path)
	if err != nil {
		return sample.RawSample{}, errors.Transport(err, "read %s", s.Path)
	}
	return selectModel(doc, s.Model, s.Path)
}

// Document reads and decodes the whole file.
func (s FileSource) Document(ctx context.Context) (*io.Document, error) {
	doc, err := io.ImportDocument(s.Path)
	if err != nil {
		return nil, errors.Transport(err, "read %s", s.Path)
	}
	return doc, nil
}

func (s FileSource) String() string { return describe(s.Path, s.Model) }

func selectModel(doc *io.Document, model int, where string) (sample.RawSample, error) {
	raw, err := doc.Select(model)
	if err != nil {
		return sample.RawSample{}, errors.Transport(err, "%s", where)
	}
	return raw, nil
}

func describe(where string, model int) string {
	if model == 0 {
		return where
	}
	return fmt.Sprintf("%s#%d", where, model)
}

// DocumentSource is a Source that can also return the whole document, so a
// caller can write an edited stack back next to its sibling models.
type DocumentSource interface {
	editor.Source
	Document(ctx context.Context) (*io.Document, error)
}

var (
	_ DocumentSource = FileSource{}
	_ DocumentSource = (*HTTPSource)(nil)
)
