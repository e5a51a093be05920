// Package io provides JSON import and export for sample documents.
//
// # Overview
//
// A sample document is what loaders fetch and what consumers receive. It
// carries one sample either at the top level or inside a list of models:
//
//	{"sample": {"layers": [...]}}
//
//	{"models": [{"sample": {"layers": [...]}, "probe": {...}}, ...]}
//
// Keys other than "sample" and "models" are kept verbatim, at the top level
// and inside each model entry, so a document can be imported, edited, and
// exported without losing data this package does not understand.
//
// # Layer Fields
//
// Each layer has "name", "thickness", "interface", "magnetism", and
// "material" (with "rho" and "irho"). Each parameter has "name",
// "slot": {"value": x}, "fixed", "limits", and "bounds". Infinite limits are
// spelled "inf" and "-inf". Layers may also carry "id" and "order"; both are
// optional on input and always written on output.
//
// # Import
//
// Use [ImportDocument] to read a file, or [ReadDocument] to read from any
// io.Reader, then select the sample with [Document.Select]:
//
//	doc, err := io.ImportDocument("207296_model.json")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	raw, err := doc.Select(0)
//
// Decoding checks JSON syntax and field types only. Schema rules (missing
// parameters, limits and bounds) are enforced by [sample.Normalize].
//
// # Export
//
// Use [WriteJSON] or [ExportJSON] to emit a stack as a standalone
// {"sample": ...} document, or [Document.WithStack] and [WriteDocument] to put
// an edited stack back into the document it came from. Exported stacks are
// always renumbered so orders are dense and match array order.
//
// [sample.Normalize]: github.com/matzehuels/layerstack/pkg/sample.Normalize
package io
