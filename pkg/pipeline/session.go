package pipeline

import (
	stdio "io"

	"github.com/matzehuels/layerstack/pkg/editor"
	"github.com/matzehuels/layerstack/pkg/io"
	"github.com/matzehuels/layerstack/pkg/sample"
)

// Session is an opened document with one model loaded for editing.
type Session struct {
	Editor   *editor.Editor
	Document *io.Document
	Model    int
	Ref      string
}

// Stack returns a copy of the edited stack.
func (s *Session) Stack() (*sample.Stack, error) {
	return s.Editor.Stack()
}

// Updated returns the original document with the edited model written back.
func (s *Session) Updated() (*io.Document, error) {
	st, err := s.Editor.Stack()
	if err != nil {
		return nil, err
	}
	return s.Document.WithStack(s.Model, st)
}

// Write encodes the updated document to w.
func (s *Session) Write(w stdio.Writer) error {
	doc, err := s.Updated()
	if err != nil {
		return err
	}
	return io.WriteDocument(doc, w)
}

// Save writes the updated document to path.
func (s *Session) Save(path string) error {
	doc, err := s.Updated()
	if err != nil {
		return err
	}
	return io.ExportDocument(doc, path)
}
