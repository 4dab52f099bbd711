package series

// Concat joins record slices in the order given. It never sorts or
// removes duplicates.
func Concat(batches ...[]Record) []Record {
	n := 0
	for _, b := range batches {
		n += len(b)
	}
	out := make([]Record, 0, n)
	for _, b := range batches {
		out = append(out, b...)
	}
	return out
}

// ConcatBatches joins the records of batches in acquisition order.
func ConcatBatches(batches []Batch) []Record {
	parts := make([][]Record, len(batches))
	for i, b := range batches {
		parts[i] = b.Records
	}
	return Concat(parts...)
}

// AssembleOptions controls Assemble.
type AssembleOptions struct {
	// Reconstruct computes logical indices over the full concatenated
	// series before the window is applied.
	Reconstruct bool

	// From resumes reconstruction from a previous carry instead of
	// starting a new series.
	From Carry

	// Window selects the part of the series to keep.
	Window Window
}

// Assemble concatenates batches, optionally reconstructs logical indices
// and applies the window. On error no series is returned.
func Assemble(batches []Batch, opts AssembleOptions) (*Series, error) {
	records := ConcatBatches(batches)
	if len(records) == 0 {
		return nil, ErrEmptySeries
	}

	s := &Series{records: records}
	if opts.Reconstruct {
		s.records, s.carry = Resume(opts.From, records)
		s.reconstructed = true
	}

	if opts.Window.IsFull() {
		return s, nil
	}
	return s.Window(opts.Window)
}
