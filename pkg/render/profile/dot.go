package profile

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/matzehuels/layerstack/pkg/sample"
)

// Options configures profile diagram rendering.
type Options struct {
	// Detailed adds parameter values to each layer's label.
	Detailed bool
}

// Box heights are scaled from layer thickness into this range (inches).
const (
	minHeight = 0.5
	maxHeight = 2.5
)

// ToDOT converts a stack to Graphviz DOT source. Layers are emitted in slice
// order and chained with invisible edges so Graphviz keeps them in one column.
// Node ids are the layer ids.
func ToDOT(st *sample.Stack, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"filled\", fillcolor=white, fontsize=18, width=4, fixedsize=false];\n")
	buf.WriteString("  edge [style=invis];\n")
	buf.WriteString("  ranksep=0;\n")
	buf.WriteString("  nodesep=0;\n")
	if st.Name != "" {
		fmt.Fprintf(&buf, "  label=%q;\n", st.Name)
		buf.WriteString("  labelloc=t;\n")
	}
	buf.WriteString("\n")

	maxThickness := thickest(st)
	for i, l := range st.Layers {
		attrs := fmtAttrs(l, fmtLabel(l, opts.Detailed), maxThickness)
		fmt.Fprintf(&buf, "  %s [%s];\n", nodeName(i), strings.Join(attrs, ", "))
	}

	if len(st.Layers) > 1 {
		buf.WriteString("\n")
		for i := 1; i < len(st.Layers); i++ {
			fmt.Fprintf(&buf, "  %s -> %s;\n", nodeName(i-1), nodeName(i))
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

// nodeName names layers by position so output does not depend on ids.
func nodeName(i int) string {
	return fmt.Sprintf("l%d", i)
}

func fmtLabel(l *sample.Layer, detailed bool) string {
	if !detailed {
		return l.Name
	}
	parts := []string{
		l.Name,
		"thickness: " + fmtValue(l.Thickness),
		"interface: " + fmtValue(l.InterfaceWidth),
		"rho: " + fmtValue(l.Material.Rho) + "  irho: " + fmtValue(l.Material.Irho),
	}
	return strings.Join(parts, "\n")
}

func fmtValue(p sample.Parameter) string {
	s := strconv.FormatFloat(p.Value, 'g', 6, 64)
	if p.Free() {
		s += "*"
	}
	return s
}

func fmtAttrs(l *sample.Layer, label string, maxThickness float64) []string {
	attrs := []string{
		fmt.Sprintf("label=%q", label),
		fmt.Sprintf("height=%.2f", boxHeight(l.Thickness.Value, maxThickness)),
	}
	if len(l.FreeParameters()) > 0 {
		attrs = append(attrs, "fillcolor=lightyellow")
	}
	if l.Magnetism != nil {
		attrs = append(attrs, "peripheries=2")
	}
	return attrs
}

func thickest(st *sample.Stack) float64 {
	var m float64
	for _, l := range st.Layers {
		if v := l.Thickness.Value; !math.IsInf(v, 0) && v > m {
			m = v
		}
	}
	return m
}

// boxHeight maps thickness linearly into [minHeight, maxHeight]. Zero-thickness
// layers (ambient media and substrates) get the minimum.
func boxHeight(thickness, maxThickness float64) float64 {
	if maxThickness <= 0 || thickness <= 0 || math.IsInf(thickness, 0) {
		return minHeight
	}
	return minHeight + (maxHeight-minHeight)*math.Min(thickness/maxThickness, 1)
}
