package series

// Carry is the running state of the reconstruction fold: the raw patch index
// and the logical index of the last record seen. Handing a Carry from one
// batch to the next makes reconstruction resumable at batch boundaries.
type Carry struct {
	PrevPatch   int64 `json:"prev_patch"`
	PrevLogical int64 `json:"prev_logical"`
	Started     bool  `json:"started"`

	// Wraps counts backward jumps of the patch index seen so far.
	Wraps int `json:"wraps"`
}

// Step folds one raw patch index into the carry. It returns the logical
// index for that record, the next carry and whether a wrap was detected.
//
// The first record takes its own patch index. After that a backward jump is
// treated as a counter reset and the new low value is added on top of the
// larger of the previous raw and logical values; otherwise the delta from
// the previous raw value is accumulated.
func (c Carry) Step(patch int64) (int64, Carry, bool) {
	if !c.Started {
		return patch, Carry{PrevPatch: patch, PrevLogical: patch, Started: true}, false
	}

	var logical int64
	wrapped := patch < c.PrevPatch
	if wrapped {
		if c.PrevPatch < c.PrevLogical {
			logical = c.PrevLogical + patch
		} else {
			logical = c.PrevPatch + patch
		}
		c.Wraps++
	} else {
		logical = c.PrevLogical + (patch - c.PrevPatch)
	}

	c.PrevPatch = patch
	c.PrevLogical = logical
	return logical, c, wrapped
}

// Resume continues reconstruction from c over records and returns annotated
// copies together with the carry after the last record. The input slice is
// not modified. A zero Carry starts a new series.
func Resume(c Carry, records []Record) ([]Record, Carry) {
	out := make([]Record, len(records))
	for i, r := range records {
		var logical int64
		logical, c, _ = c.Step(r.PatchIndex)
		out[i] = r.WithLogical(logical)
	}
	return out, c
}

// Reconstruct computes the logical index of every record in a full series.
// It returns ErrEmptySeries when records is empty.
func Reconstruct(records []Record) ([]Record, Carry, error) {
	if len(records) == 0 {
		return nil, Carry{}, ErrEmptySeries
	}
	out, c := Resume(Carry{}, records)
	return out, c, nil
}

// ResumeBatches reconstructs consecutive batches, carrying the state across
// each boundary. It returns the annotated batches and the final carry.
func ResumeBatches(c Carry, batches []Batch) ([]Batch, Carry) {
	out := make([]Batch, len(batches))
	for i, b := range batches {
		out[i] = b
		out[i].Records, c = Resume(c, b.Records)
	}
	return out, c
}
