package loader

import (
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/layerstack/pkg/cache"
	"github.com/matzehuels/layerstack/pkg/errors"
)

// Options configures [Open].
type Options struct {
	Model   int
	Cache   cache.Cache
	Keyer   cache.Keyer
	TTL     time.Duration
	Refresh bool
	Logger  *log.Logger
}

// Open returns an HTTPSource for http(s) references and a FileSource for
// everything else.
func Open(ref string, opts Options) DocumentSource {
	if errors.IsURL(ref) {
		return &HTTPSource{
			URL:     ref,
			Model:   opts.Model,
			Cache:   opts.Cache,
			Keyer:   opts.Keyer,
			TTL:     opts.TTL,
			Refresh: opts.Refresh,
			Logger:  opts.Logger,
		}
	}
	return FileSource{Path: ref, Model: opts.Model}
}
