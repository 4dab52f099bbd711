// Package state persists reconstruction progress between runs.
//
// Reconstruction threads a carry (last raw patch index, last logical index)
// through the whole series. Saving that carry together with the number of
// batches already consumed lets a later run, or the directory watcher,
// reconstruct only the new batches and still produce the same logical
// indices as a full pass.
//
//	repo := state.NewFileRepository("/path/to/state/dir")
//
//	s, err := repo.Load(ctx)
//	if err != nil {
//	    return err
//	}
//	next, carry := series.ResumeBatches(s.Carry, newBatches)
//	s.Advance(carry, next)
//	if err := repo.Save(ctx, s); err != nil {
//	    return err
//	}
//
// State JSON uses snake_case field names.
//
// # Version
//
// Current version: 2.0.0
// Minimum compatible version: 2.0.0
//
// See version.go for version constants that can be used programmatically.
package state
