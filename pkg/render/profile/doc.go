// Package profile renders a layer stack as a depth-profile diagram.
//
// # Overview
//
// Each layer becomes a box in a single top-to-bottom column, in stack order,
// so the drawing reads like a cross-section of the sample: the ambient medium
// on top, the substrate at the bottom. Layers with at least one free (fitted)
// parameter are shaded, and free values are marked with an asterisk.
//
// # Usage
//
// Convert a stack to DOT, then render to SVG:
//
//	dot := profile.ToDOT(st, profile.Options{Detailed: true})
//	svg, err := profile.RenderSVG(ctx, dot)
//
// [Render] does both and also converts to PDF or PNG:
//
//	pdf, err := profile.Render(ctx, st, profile.FormatPDF, profile.Options{})
//
// # Options
//
//   - Detailed: when true, labels include thickness, interface, and rho/irho
//     of every layer. When false, only the layer name is shown.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering. PDF and PNG conversion requires librsvg (rsvg-convert).
package profile
