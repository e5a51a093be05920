// Package pipeline wires loading, editing, rendering, and saving for one-shot
// commands.
//
// Both the CLI and the HTTP server open documents the same way: resolve a
// reference to a source, fetch the whole document (through the cache for
// URLs), and hand the selected model to an [editor.Editor]. A [Session]
// remembers which document and model it came from so edits can be written
// back without losing sibling models or unknown keys.
//
//	runner := pipeline.NewRunner(fileCache, nil, logger)
//	defer runner.Close()
//
//	sess, err := runner.Open(ctx, "207296_model.json", pipeline.Options{})
//	if err != nil {
//	    return err
//	}
//	if _, err := sess.Editor.AddLayer(ctx, nil); err != nil {
//	    return err
//	}
//	return sess.Save("207296_model.json")
package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/layerstack/pkg/cache"
	"github.com/matzehuels/layerstack/pkg/editor"
	"github.com/matzehuels/layerstack/pkg/io"
	"github.com/matzehuels/layerstack/pkg/loader"
	"github.com/matzehuels/layerstack/pkg/render/profile"
	"github.com/matzehuels/layerstack/pkg/sample"
)

// TTLRender is how long rendered diagrams are cached.
const TTLRender = 24 * time.Hour

// Runner encapsulates document loading and rendering with caching.
//
// The Runner is stateless except for the cache and logger. Multiple
// goroutines can safely use the same Runner.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	// TTL is how long fetched documents are cached. Zero uses the loader default.
	TTL time.Duration
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Options selects what to open.
type Options struct {
	// Model is the index into the document's models array.
	Model int

	// Refresh skips the document cache for URLs.
	Refresh bool
}

// Open fetches the document behind ref and loads the selected model into a
// new editor. ref is a file path or an http(s) URL.
func (r *Runner) Open(ctx context.Context, ref string, opts Options) (*Session, error) {
	src := loader.Open(ref, loader.Options{
		Model:   opts.Model,
		Cache:   r.Cache,
		Keyer:   r.Keyer,
		TTL:     r.TTL,
		Refresh: opts.Refresh,
		Logger:  r.Logger,
	})

	doc, err := src.Document(ctx)
	if err != nil {
		return nil, err
	}

	ed := editor.New(r.Logger)
	if err := ed.Load(ctx, fixed{doc: doc, model: opts.Model, name: describe(src)}); err != nil {
		return nil, err
	}
	return &Session{Editor: ed, Document: doc, Model: opts.Model, Ref: ref}, nil
}

// RenderWithCacheInfo draws st in format and reports whether the result came
// from the cache. Keys are derived from the stack's outbound JSON with layer
// ids cleared, so stacks that differ only in generated ids share cached
// output.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, st *sample.Stack, format string, opts profile.Options) ([]byte, bool, error) {
	keyed := st.Clone()
	for _, l := range keyed.Layers {
		l.ID = ""
	}
	var buf bytes.Buffer
	if err := io.WriteJSON(keyed, &buf); err != nil {
		return nil, false, fmt.Errorf("serialize stack for cache key: %w", err)
	}
	key := r.Keyer.RenderKey(cache.Hash(buf.Bytes()), cache.RenderKeyOpts{Format: format, Detailed: opts.Detailed})

	if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
		r.Logger.Debug("render cache hit", "format", format)
		return data, true, nil
	}

	out, err := profile.Render(ctx, st, format, opts)
	if err != nil {
		return nil, false, err
	}
	if err := r.Cache.Set(ctx, key, out, TTLRender); err != nil {
		r.Logger.Warn("cache write failed", "error", err)
	}
	return out, false, nil
}

// Render is a convenience wrapper that calls RenderWithCacheInfo and discards the cache hit info.
func (r *Runner) Render(ctx context.Context, st *sample.Stack, format string, opts profile.Options) ([]byte, error) {
	out, _, err := r.RenderWithCacheInfo(ctx, st, format, opts)
	return out, err
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// fixed serves an already fetched document to the editor.
type fixed struct {
	doc   *io.Document
	model int
	name  string
}

func (f fixed) Fetch(ctx context.Context) (sample.RawSample, error) {
	return f.doc.Select(f.model)
}

func (f fixed) String() string { return f.name }

func describe(src loader.DocumentSource) string {
	if s, ok := src.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%T", src)
}
