package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/layerstack/pkg/sample"
)

// WriteJSON encodes st as a standalone {"sample": ...} document and writes it
// to w with two-space indentation. Orders are renumbered on a copy, so the
// output is always dense and in array order. The output can be re-imported
// with [ReadDocument] and normalizes back to an equal stack.
func WriteJSON(st *sample.Stack, w io.Writer) error {
	raw := outbound(st)
	return WriteDocument(&Document{Sample: &raw}, w)
}

// ExportJSON writes st to a JSON file at path.
// This is a convenience wrapper around [WriteJSON] for file-based output.
func ExportJSON(st *sample.Stack, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteJSON(st, f)
}

// WriteDocument encodes doc to w with two-space indentation.
func WriteDocument(doc *Document, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ExportDocument writes doc to a JSON file at path.
func ExportDocument(doc *Document, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteDocument(doc, f)
}
