package series

import "github.com/bft-labs/patchview/internal/domain"

// Errors returned by this package. They alias the domain errors so callers
// can match them with errors.Is without importing internal packages.
var (
	ErrMalformedRecord = domain.ErrMalformedRecord
	ErrInvalidWindow   = domain.ErrInvalidWindow
	ErrEmptySeries     = domain.ErrEmptySeries
	ErrInvalidAxis     = domain.ErrInvalidAxis
)

// Record is a single telemetry sample.
type Record = domain.Record

// Batch is the records of one fetched chunk.
type Batch = domain.Batch
