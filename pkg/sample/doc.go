// Package sample provides the layer-stack model of a reflectometry sample.
//
// # Overview
//
// A sample is an ordered stack of [Layer] values, listed top to bottom. Each
// layer owns a thickness, an interface roughness, and a [Material] with real
// (rho) and imaginary (irho) scattering densities. Every tunable quantity is
// a [Parameter] carrying a value, a fixed/free flag, physical limits, and an
// optional fitting search range (bounds).
//
// # Loading
//
// Raw records arrive from an external loader as [RawSample]. [Normalize] is
// the single point of schema enforcement: it rejects layers missing required
// fields and parameters whose bounds fall outside their limits, assigns
// identifiers and source-position orders where absent, and returns a [Stack].
// Infinite limits travel on the wire as the strings "inf" and "-inf" and are
// converted to math.Inf by [Float]; no string ever reaches the model.
//
// # Ordering
//
// Each layer carries an integer Order. [Stack.Renumber] stably sorts the
// stack by Order and compacts the values into 0..n-1. [Stack.AddLayer]
// appends with an order past every existing one, and [Stack.Reorder] moves a
// layer to a new display position and renumbers. Operations that fail leave
// the stack untouched.
//
//	st, err := sample.Normalize(raw)
//	if err != nil {
//	    return err
//	}
//	st.Renumber()
//	l, _ := st.AddLayer(nil)
//	_ = st.Reorder(l.ID, 0)
//
// # Concurrency
//
// A Stack is a plain value owned by one editing session. It is not safe for
// concurrent use without external synchronization.
package sample
