package editor

import (
	"context"
	"fmt"

	"github.com/matzehuels/layerstack/pkg/sample"
)

// Source fetches a raw sample from outside the process.
//
// Fetch may block and must honor ctx cancellation. Implementations live in
// the loader and snapshot packages.
type Source interface {
	Fetch(ctx context.Context) (sample.RawSample, error)
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func(ctx context.Context) (sample.RawSample, error)

// Fetch calls f(ctx).
func (f SourceFunc) Fetch(ctx context.Context) (sample.RawSample, error) { return f(ctx) }

// Static returns a Source that always yields raw.
func Static(raw sample.RawSample) Source {
	return SourceFunc(func(context.Context) (sample.RawSample, error) { return raw, nil })
}

func describe(src Source) string {
	if s, ok := src.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%T", src)
}
