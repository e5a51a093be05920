package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/layerstack/pkg/errors"
	lsio "github.com/matzehuels/layerstack/pkg/io"
)

func newTestServer(t *testing.T, path string) *httptest.Server {
	t.Helper()
	data, err := lsio.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile(%s) error: %v", path, err)
	}
	return serveBytes(t, data)
}

func serveBytes(t *testing.T, data []byte) *httptest.Server {
	t.Helper()
	srv, err := New(data, "test.json", log.NewWithOptions(io.Discard, log.Options{}))
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func get(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return resp, body
}

func TestTestData(t *testing.T) {
	ts := newTestServer(t, "../../pkg/io/testdata/models.json")

	resp, body := get(t, ts.URL+"/api/testdata")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, body = %s", resp.StatusCode, body)
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q, want *", got)
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(body, &doc); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	if _, ok := doc["$schema"]; !ok {
		t.Error("unknown top-level keys were dropped")
	}
	var models []json.RawMessage
	if err := json.Unmarshal(doc["models"], &models); err != nil || len(models) != 2 {
		t.Errorf("models = %d (%v), want 2", len(models), err)
	}
}

func TestTestDataServesBytesAsLoaded(t *testing.T) {
	data := []byte(`{
  "sample": {
    "layers": [
      {
        "name": "Si",
        "units": "angstrom",
        "thickness": {"name": "Si thickness", "slot": {"value": 0}, "fixed": true, "limits": [0, "inf"], "bounds": null, "note": "x"},
        "interface": {"name": "Si interface", "slot": {"value": 3}, "fixed": true, "limits": [0, "inf"], "bounds": null},
        "magnetism": null,
        "material": {
          "name": "Si Material",
          "rho": {"name": "Si rho", "slot": {"value": 2.07}, "fixed": true, "limits": ["-inf", "inf"], "bounds": null},
          "irho": {"name": "Si irho", "slot": {"value": 0}, "fixed": true, "limits": ["-inf", "inf"], "bounds": null}
        }
      }
    ]
  }
}
`)
	ts := serveBytes(t, data)

	resp, body := get(t, ts.URL+"/api/testdata")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, body = %s", resp.StatusCode, body)
	}
	if string(body) != string(data) {
		t.Errorf("body differs from the loaded file:\n%s", body)
	}
	if got := resp.Header.Get("Content-Type"); got != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", got)
	}

	_, body = get(t, ts.URL+"/api/sample")
	for _, want := range []string{`"units":"angstrom"`, `"note":"x"`} {
		if !strings.Contains(strings.Join(strings.Fields(string(body)), ""), want) {
			t.Errorf("/api/sample missing %s:\n%s", want, body)
		}
	}
}

func TestNewRejectsInvalidJSON(t *testing.T) {
	if _, err := New([]byte("{"), "bad.json", nil); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("New() error = %v, want INVALID_FORMAT", err)
	}
}

type outbound struct {
	Sample struct {
		Layers []struct {
			ID    string `json:"id"`
			Name  string `json:"name"`
			Order int    `json:"order"`
		} `json:"layers"`
	} `json:"sample"`
}

func TestSample(t *testing.T) {
	ts := newTestServer(t, "../../pkg/io/testdata/sample.json")

	resp, body := get(t, ts.URL+"/api/sample")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, body = %s", resp.StatusCode, body)
	}
	var out outbound
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatal(err)
	}
	if len(out.Sample.Layers) != 4 {
		t.Fatalf("layers = %d, want 4", len(out.Sample.Layers))
	}
	for i, l := range out.Sample.Layers {
		if l.Order != i {
			t.Errorf("layer %d (%s) order = %d", i, l.Name, l.Order)
		}
		if l.ID == "" {
			t.Errorf("layer %d has no id", i)
		}
	}
}

func TestSampleModelSelection(t *testing.T) {
	ts := newTestServer(t, "../../pkg/io/testdata/models.json")

	tests := []struct {
		query      string
		wantStatus int
		wantCode   string
		wantFirst  string
	}{
		{"", http.StatusOK, "", "SEI"},
		{"?model=1", http.StatusOK, "", "H2O"},
		{"?model=5", http.StatusUnprocessableEntity, "MALFORMED_MODEL", ""},
		{"?model=x", http.StatusBadRequest, "INVALID_INPUT", ""},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			resp, body := get(t, ts.URL+"/api/sample"+tt.query)
			if resp.StatusCode != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", resp.StatusCode, tt.wantStatus, body)
			}
			if tt.wantCode != "" {
				var e errorResponse
				if err := json.Unmarshal(body, &e); err != nil || e.Code != tt.wantCode {
					t.Errorf("error response = %s, want code %s", body, tt.wantCode)
				}
				return
			}
			var out outbound
			if err := json.Unmarshal(body, &out); err != nil {
				t.Fatal(err)
			}
			if len(out.Sample.Layers) == 0 || out.Sample.Layers[0].Name != tt.wantFirst {
				t.Errorf("first layer = %+v, want %s", out.Sample.Layers, tt.wantFirst)
			}
		})
	}
}

func TestRender(t *testing.T) {
	ts := newTestServer(t, "../../pkg/io/testdata/sample.json")

	resp, body := get(t, ts.URL+"/api/render?format=dot&detailed=true")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, body = %s", resp.StatusCode, body)
	}
	if !strings.HasPrefix(string(body), "digraph") || !strings.Contains(string(body), "thickness:") {
		t.Errorf("unexpected DOT:\n%s", body)
	}

	resp, body = get(t, ts.URL+"/api/render?format=png")
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("png status = %d, want 400 (body %s)", resp.StatusCode, body)
	}
}

func TestHealthAndPreflight(t *testing.T) {
	ts := newTestServer(t, "../../pkg/io/testdata/sample.json")

	resp, body := get(t, ts.URL+"/healthz")
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), `"status":"ok"`) {
		t.Errorf("healthz = %d %s", resp.StatusCode, body)
	}

	req, _ := http.NewRequest(http.MethodOptions, ts.URL+"/api/testdata", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "GET")
	pre, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	pre.Body.Close()
	if pre.StatusCode != http.StatusNoContent || pre.Header.Get("Access-Control-Allow-Origin") != "*" {
		t.Errorf("preflight = %d %v", pre.StatusCode, pre.Header)
	}

	resp, _ = get(t, ts.URL+"/api/nope")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown route status = %d, want 404", resp.StatusCode)
	}
}

func TestListenAndServeShutdown(t *testing.T) {
	data, err := lsio.ReadFile("../../pkg/io/testdata/sample.json")
	if err != nil {
		t.Fatal(err)
	}
	srv, err := New(data, "sample.json", log.NewWithOptions(io.Discard, log.Options{}))
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.ListenAndServe(ctx, "127.0.0.1:0") }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("ListenAndServe() error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
