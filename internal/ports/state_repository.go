package ports

import (
	"context"

	"github.com/bft-labs/patchview/pkg/state"
)

// StateRepository handles persistence of reconstruction progress so that a
// later run resumes from the last batch boundary.
type StateRepository interface {
	// Load retrieves the last saved state.
	// Returns an empty state and nil error if no state exists.
	Load(ctx context.Context) (state.State, error)

	// Save persists the state atomically.
	Save(ctx context.Context, s state.State) error

	// Reset discards saved state, forcing a full reconstruction.
	Reset(ctx context.Context) error
}
