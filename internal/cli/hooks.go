package cli

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/layerstack/pkg/observability"
)

// logHooks writes observability events to the debug log.
type logHooks struct {
	logger *log.Logger
}

func newLogHooks(l *log.Logger) *logHooks {
	return &logHooks{logger: l}
}

func (h *logHooks) OnLoadStart(_ context.Context, source string) {
	h.logger.Debug("load start", "source", source)
}

func (h *logHooks) OnLoadComplete(_ context.Context, source string, layers int, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("load failed", "source", source, "duration", d.Round(time.Millisecond), "error", err)
		return
	}
	h.logger.Debug("load complete", "source", source, "layers", layers, "duration", d.Round(time.Millisecond))
}

func (h *logHooks) OnEdit(_ context.Context, op string, layers int, err error) {
	if err != nil {
		h.logger.Debug("edit rejected", "op", op, "error", err)
		return
	}
	h.logger.Debug("edit", "op", op, "layers", layers)
}

func (h *logHooks) OnRenderStart(_ context.Context, format string, layers int) {
	h.logger.Debug("render start", "format", format, "layers", layers)
}

func (h *logHooks) OnRenderComplete(_ context.Context, format string, size int, d time.Duration, err error) {
	h.logger.Debug("render complete", "format", format, "bytes", size, "duration", d.Round(time.Millisecond), "error", err)
}

func (h *logHooks) OnCacheHit(_ context.Context, keyType string) {
	h.logger.Debug("cache hit", "type", keyType)
}

func (h *logHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.logger.Debug("cache miss", "type", keyType)
}

func (h *logHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.logger.Debug("cache set", "type", keyType, "bytes", size)
}

func (h *logHooks) OnRequest(_ context.Context, method, host, path string) {
	h.logger.Debug("http request", "method", method, "host", host, "path", path)
}

func (h *logHooks) OnResponse(_ context.Context, method, host, path string, status int, d time.Duration) {
	h.logger.Debug("http response", "method", method, "host", host, "path", path, "status", status, "duration", d.Round(time.Millisecond))
}

func (h *logHooks) OnError(_ context.Context, method, host, path string, err error) {
	h.logger.Debug("http error", "method", method, "host", host, "path", path, "error", err)
}

var (
	_ observability.EditorHooks = (*logHooks)(nil)
	_ observability.RenderHooks = (*logHooks)(nil)
	_ observability.CacheHooks  = (*logHooks)(nil)
	_ observability.HTTPHooks   = (*logHooks)(nil)
)
