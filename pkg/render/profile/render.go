package profile

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/layerstack/pkg/errors"
	"github.com/matzehuels/layerstack/pkg/observability"
	"github.com/matzehuels/layerstack/pkg/render"
	"github.com/matzehuels/layerstack/pkg/sample"
)

// Output formats accepted by [Render].
const (
	FormatDOT = "dot"
	FormatSVG = "svg"
	FormatPDF = "pdf"
	FormatPNG = "png"
)

// Formats lists the supported output formats.
var Formats = []string{FormatDOT, FormatSVG, FormatPDF, FormatPNG}

// PNGScale is the scale factor used for PNG output.
const PNGScale = 2.0

// Render draws st in the given format. Unknown formats fail with
// INVALID_INPUT.
func Render(ctx context.Context, st *sample.Stack, format string, opts Options) ([]byte, error) {
	start := time.Now()
	observability.Render().OnRenderStart(ctx, format, st.Len())

	out, err := renderFormat(ctx, st, format, opts)
	observability.Render().OnRenderComplete(ctx, format, len(out), time.Since(start), err)
	return out, err
}

func renderFormat(ctx context.Context, st *sample.Stack, format string, opts Options) ([]byte, error) {
	dot := ToDOT(st, opts)
	if format == FormatDOT {
		return []byte(dot), nil
	}
	switch format {
	case FormatSVG, FormatPDF, FormatPNG:
	default:
		return nil, errors.New(errors.ErrCodeInvalidInput, "unsupported format %q (want one of dot, svg, pdf, png)", format)
	}

	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	switch format {
	case FormatPDF:
		return render.ToPDF(ctx, svg)
	case FormatPNG:
		return render.ToPNG(ctx, svg, PNGScale)
	}
	return svg, nil
}

// RenderSVG renders DOT source to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's pt-sized root element with a plain
// viewBox so the SVG scales in a browser.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	root := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(root))
}
