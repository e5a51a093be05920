package loader

import (
	"context"
	"net/http"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/layerstack/pkg/cache"
	"github.com/matzehuels/layerstack/pkg/errors"
	"github.com/matzehuels/layerstack/pkg/httputil"
	"github.com/matzehuels/layerstack/pkg/io"
	"github.com/matzehuels/layerstack/pkg/sample"
)

// Defaults for HTTPSource.
const (
	DefaultAttempts = 3
	DefaultDelay    = 500 * time.Millisecond
	DefaultTTL      = time.Hour
)

// HTTPSource fetches a sample document with GET, typically from a
// /api/testdata endpoint.
//
// Raw response bodies are cached under Keyer.DocumentKey(URL) for TTL.
// Only bodies that decode as a document are cached. Refresh skips the cache
// read but still writes the fresh body.
type HTTPSource struct {
	URL      string
	Model    int
	Client   *http.Client
	Cache    cache.Cache
	Keyer    cache.Keyer
	TTL      time.Duration
	Attempts int
	Delay    time.Duration
	Refresh  bool
	Logger   *log.Logger
}

// Fetch retrieves the document and selects the configured model.
func (s *HTTPSource) Fetch(ctx context.Context) (sample.RawSample, error) {
	doc, err := s.Document(ctx)
	if err != nil {
		return sample.RawSample{}, err
	}
	return selectModel(doc, s.Model, s.URL)
}

// Document retrieves and decodes the whole document.
func (s *HTTPSource) Document(ctx context.Context) (*io.Document, error) {
	if err := errors.ValidateURL(s.URL); err != nil {
		return nil, errors.Transport(err, "GET %s", s.URL)
	}
	c, keyer := s.cache(), s.keyer()
	key := keyer.DocumentKey(s.URL)

	if !s.Refresh {
		if data, ok, err := c.Get(ctx, key); err != nil {
			s.logger().Warn("cache read failed", "key", key, "error", err)
		} else if ok {
			if doc, err := io.ParseDocument(data); err == nil {
				s.logger().Debug("document cache hit", "url", s.URL)
				return doc, nil
			}
			_ = c.Delete(ctx, key)
		}
	}

	var body []byte
	err := httputil.Retry(ctx, s.attempts(), s.delay(), func() error {
		var err error
		body, err = httputil.Get(ctx, s.Client, s.URL)
		if err != nil && httputil.IsRetryable(err) {
			s.logger().Debug("retrying fetch", "url", s.URL, "error", err)
		}
		return err
	})
	if err != nil {
		return nil, errors.Transport(err, "GET %s", s.URL)
	}

	doc, err := io.ParseDocument(body)
	if err != nil {
		return nil, errors.Transport(err, "GET %s", s.URL)
	}

	if err := c.Set(ctx, key, body, s.ttl()); err != nil {
		s.logger().Warn("cache write failed", "key", key, "error", err)
	}
	return doc, nil
}

func (s *HTTPSource) String() string { return describe(s.URL, s.Model) }

func (s *HTTPSource) cache() cache.Cache {
	if s.Cache == nil {
		return cache.NewNullCache()
	}
	return s.Cache
}

func (s *HTTPSource) keyer() cache.Keyer {
	if s.Keyer == nil {
		return cache.NewDefaultKeyer()
	}
	return s.Keyer
}

func (s *HTTPSource) ttl() time.Duration {
	if s.TTL == 0 {
		return DefaultTTL
	}
	return s.TTL
}

func (s *HTTPSource) attempts() int {
	if s.Attempts <= 0 {
		return DefaultAttempts
	}
	return s.Attempts
}

func (s *HTTPSource) delay() time.Duration {
	if s.Delay <= 0 {
		return DefaultDelay
	}
	return s.Delay
}

func (s *HTTPSource) logger() *log.Logger {
	if s.Logger == nil {
		return log.Default()
	}
	return s.Logger
}
