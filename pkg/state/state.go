package state

import (
	"time"

	"github.com/bft-labs/patchview/pkg/series"
)

// State records how far reconstruction has progressed through a device's
// ordered batches.
type State struct {
	// DeviceID is the device the batches belong to.
	DeviceID string `json:"device_id"`

	// Carry is the fold state after the last consumed record.
	Carry series.Carry `json:"carry"`

	// Batches is the number of batches consumed so far.
	Batches int `json:"batches"`

	// Records is the number of records consumed so far.
	Records int `json:"records"`

	// LastSeq is the sequence number of the last consumed batch.
	LastSeq int `json:"last_seq"`

	// LastBatchID is the store id of the last consumed batch, if any.
	LastBatchID string `json:"last_batch_id,omitempty"`

	// LastTS is the timestamp of the last consumed record.
	LastTS int64 `json:"last_ts"`

	// UpdatedAt is when the state was last advanced.
	UpdatedAt time.Time `json:"updated_at"`
}

// New returns an empty state for a device.
func New(deviceID string) State {
	return State{DeviceID: deviceID}
}

// IsEmpty returns true if no batch has been consumed.
func (s State) IsEmpty() bool {
	return s.Batches == 0 && !s.Carry.Started
}

// Advance records that batches were reconstructed and c is the new carry.
func (s *State) Advance(c series.Carry, batches []series.Batch) {
	s.Carry = c
	for _, b := range batches {
		s.Batches++
		s.Records += b.Size()
		s.LastSeq = b.Seq
		if b.ID != "" {
			s.LastBatchID = b.ID
		}
		if r := b.LastRecord(); r != nil {
			s.LastTS = r.TS
		}
	}
	s.UpdatedAt = time.Now()
}

// Pending returns the batches of an ordered list that sort after the last
// consumed batch. Batches at or before LastSeq are never pending; a caller
// that finds one of them unconsumed has to start over from New.
func (s State) Pending(batches []series.Batch) []series.Batch {
	if s.IsEmpty() {
		return batches
	}
	var out []series.Batch
	for _, b := range batches {
		if b.Seq > s.LastSeq {
			out = append(out, b)
		}
	}
	return out
}
