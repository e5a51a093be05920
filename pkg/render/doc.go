// Package render converts rendered stack diagrams between output formats.
//
// Diagram generation lives in the [profile] subpackage, which turns a layer
// stack into Graphviz DOT and SVG. This package only handles the last step:
// converting SVG to PDF or PNG with the external rsvg-convert tool.
//
//	svg, err := profile.RenderSVG(ctx, profile.ToDOT(st, profile.Options{}))
//	pdf, err := render.ToPDF(ctx, svg)
//	png, err := render.ToPNG(ctx, svg, 2.0) // 2x scale
//
// [profile]: github.com/matzehuels/layerstack/pkg/render/profile
package render
