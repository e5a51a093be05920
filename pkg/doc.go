// Package pkg provides the core libraries for Layerstack, an editor for
// reflectometry sample models.
//
// # Overview
//
// A sample is a stack of layers (films on a substrate). Each layer carries a
// thickness, an interface roughness, and a material with real and imaginary
// scattering length density, and each of those is a fit [sample.Parameter]
// with a value, limits, and a fixed/free flag. The pkg directory is organized
// into these areas:
//
//  1. [sample] - The layer stack model: normalize, renumber, add, reorder
//  2. [io] - The JSON document format ({"sample": ...} or {"models": [...]})
//  3. [editor] - A single editing session with Unloaded/Loaded states and events
//  4. [loader] - Sources that fetch documents from files and URLs
//  5. [render] - Drawing a stack as DOT, SVG, PDF, or PNG
//
// # Architecture
//
// The typical data flow through Layerstack:
//
//	File or /api/testdata URL
//	         ↓
//	    [loader] package (fetch, cache, select model)
//	         ↓
//	    [sample] package (normalize + renumber)
//	         ↓
//	    [editor] package (add, reorder, renumber, rename)
//	         ↓
//	    [io] package (write back into the document)
//
// # Quick Start
//
// Load a model and move its last layer to the top:
//
//	ed := editor.New(nil)
//	if err := ed.Load(ctx, loader.FileSource{Path: "207296_model.json"}); err != nil {
//	    return err
//	}
//	st, _ := ed.Stack()
//	last := st.Layers[st.Len()-1]
//	if err := ed.Reorder(ctx, last.ID, 0); err != nil {
//	    return err
//	}
//
// # Supporting Packages
//
// [pipeline] - Opens a reference into an editing session and renders stacks
// through the cache. Used by the CLI and the tests.
//
// [cache] - Byte caches keyed by content hash: file, Redis, and null backends.
//
// [snapshot] - Named copies of a stack stored on disk or in MongoDB.
//
// [httputil] - Cached, retrying GET requests.
//
// [errors] - Coded errors (MALFORMED_MODEL, OUT_OF_RANGE, LOAD_TRANSPORT).
//
// [observability] - Hooks for load, edit, render, cache, and HTTP events.
//
// # Testing
//
//	go test ./pkg/...                    # All tests
//	go test -tags integration ./pkg/...  # Include Redis and MongoDB tests
package pkg
