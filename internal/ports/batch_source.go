package ports

import (
	"context"

	"github.com/bft-labs/patchview/internal/domain"
)

// BatchSource provides already-fetched chunks of records.
// Acquisition itself (network, retries) is outside the core; a source only
// hands over resolved batches.
type BatchSource interface {
	// Batches returns every available batch ordered by acquisition sequence.
	// A malformed record aborts the call with domain.ErrMalformedRecord.
	Batches(ctx context.Context) ([]domain.Batch, error)
}

// BatchStore persists batches. Saving a batch and reading it back must
// reproduce the same records in the same order with identical values.
type BatchStore interface {
	BatchSource

	// Save persists b and returns it with its store id set.
	Save(ctx context.Context, b domain.Batch) (domain.Batch, error)
}
