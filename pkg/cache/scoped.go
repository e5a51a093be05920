package cache

// ScopedKeyer wraps a Keyer with a prefix so that several environments can
// share one backend without colliding.
//
// Example usage:
//
//	// Keys for a staging server sharing the production Redis
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "staging:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// DocumentKey generates a prefixed key for document caching.
func (k *ScopedKeyer) DocumentKey(source string) string {
	return k.prefix + k.inner.DocumentKey(source)
}

// RenderKey generates a prefixed key for render caching.
func (k *ScopedKeyer) RenderKey(stackHash string, opts RenderKeyOpts) string {
	return k.prefix + k.inner.RenderKey(stackHash, opts)
}
