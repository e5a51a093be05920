package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/matzehuels/layerstack/pkg/errors"
	"github.com/matzehuels/layerstack/pkg/io"
	"github.com/matzehuels/layerstack/pkg/render/profile"
	"github.com/matzehuels/layerstack/pkg/sample"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"source": s.source,
		"models": s.doc.ModelCount(),
		"uptime": time.Since(s.started).Seconds(),
	})
}

func (s *Server) handleTestData(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(s.data)
}

func (s *Server) handleSample(w http.ResponseWriter, r *http.Request) {
	st, err := s.stack(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	var buf bytes.Buffer
	if err := io.WriteJSON(st, &buf); err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = profile.FormatSVG
	}
	if format != profile.FormatSVG && format != profile.FormatDOT {
		s.writeError(w, errors.New(errors.ErrCodeInvalidInput, "format must be svg or dot"))
		return
	}
	st, err := s.stack(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	detailed, _ := strconv.ParseBool(r.URL.Query().Get("detailed"))
	out, err := profile.Render(r.Context(), st, format, profile.Options{Detailed: detailed})
	if err != nil {
		s.writeError(w, err)
		return
	}
	if format == profile.FormatSVG {
		w.Header().Set("Content-Type", "image/svg+xml")
	} else {
		w.Header().Set("Content-Type", "text/vnd.graphviz")
	}
	_, _ = w.Write(out)
}

// stack normalizes the model selected by the "model" query parameter.
func (s *Server) stack(r *http.Request) (*sample.Stack, error) {
	index := 0
	if v := r.URL.Query().Get("model"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, errors.New(errors.ErrCodeInvalidInput, "model must be an integer, got %q", v)
		}
		index = n
	}
	raw, err := s.doc.Select(index)
	if err != nil {
		return nil, err
	}
	st, err := sample.Normalize(raw)
	if err != nil {
		return nil, err
	}
	st.Renumber()
	return st, nil
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	status := statusFor(code)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
	}
	writeJSON(w, status, errorResponse{Error: errors.UserMessage(err), Code: string(code)})
}

func statusFor(code errors.Code) int {
	switch code {
	case errors.ErrCodeInvalidInput, errors.ErrCodeOutOfRange:
		return http.StatusBadRequest
	case errors.ErrCodeMalformedModel:
		return http.StatusUnprocessableEntity
	case errors.ErrCodeNotFound, errors.ErrCodeLayerNotFound:
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
