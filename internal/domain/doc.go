// Package domain contains the core entities of patchview.
//
// This package is the innermost layer. It has no dependencies on
// infrastructure concerns (file system, sqlite, logging) and holds only the
// record shapes and the error kinds shared by every other layer.
//
// # Entities
//
//   - [Record]: a single telemetry sample with its device patch index
//   - [RecordMeta]: the JSON wire shape of a record, flat or nested
//   - [Batch]: the records of one fetched chunk, in acquisition order
//
// Records are value types. Once a series is assembled nothing mutates them;
// reconstruction and windowing return new slices.
package domain
