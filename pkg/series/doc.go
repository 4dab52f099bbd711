// Package series turns ordered telemetry batches into a chart-ready series.
//
// It covers three steps:
//
//   - Reconstruction: repairing device patch indices that wrap or reset into
//     a continuous logical index ([Reconstruct], [Resume], [Carry]).
//   - Assembly: concatenating batches in acquisition order and selecting a
//     closed [start, end] window ([Assemble], [Window], [Bound]).
//   - Cursor resolution: mapping a pixel coordinate on the x axis to the
//     sample under it in constant time ([Resolver], [Axis]).
//
// # Usage
//
//	s, err := series.Assemble(batches, series.AssembleOptions{
//	    Reconstruct: true,
//	    Window:      series.Window{Start: series.At(100), End: series.Unset()},
//	})
//	if err != nil {
//	    return err
//	}
//	r, err := series.NewResolver(s, 1460)
//	if err != nil {
//	    return err
//	}
//	sample, err := r.Resolve(pointerX)
//
// An assembled [Series] is never mutated. A [Resolver] holds no mutable state
// and may be shared between goroutines.
//
// # Version
//
// Current version: 1.0.0
// Minimum compatible version: 1.0.0
//
// See version.go for version constants that can be used programmatically.
package series
