package cache

// Keyer generates cache keys.
type Keyer interface {
	// DocumentKey generates a key for a sample document fetched from source.
	DocumentKey(source string) string

	// RenderKey generates a key for a rendered depiction of a stack.
	// stackHash identifies the stack content (see [Hash]).
	RenderKey(stackHash string, opts RenderKeyOpts) string
}

// RenderKeyOpts holds the render options that affect the output.
type RenderKeyOpts struct {
	Format   string `json:"format"`
	Detailed bool   `json:"detailed"`
}

// DefaultKeyer is the standard key layout.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// DocumentKey returns "document:<sha256(source)>".
func (DefaultKeyer) DocumentKey(source string) string {
	return hashKey("document", source)
}

// RenderKey returns "render:<sha256(stackHash, opts)>".
func (DefaultKeyer) RenderKey(stackHash string, opts RenderKeyOpts) string {
	return hashKey("render", stackHash, opts)
}
