package series

// Series is an assembled, ordered and immutable run of records.
type Series struct {
	records       []Record
	carry         Carry
	reconstructed bool
}

// NewSeries wraps a copy of records. The caller keeps ownership of the input.
func NewSeries(records []Record) *Series {
	return &Series{records: append([]Record(nil), records...)}
}

// Len returns the number of records.
func (s *Series) Len() int {
	if s == nil {
		return 0
	}
	return len(s.records)
}

// Empty returns true if the series has no records.
func (s *Series) Empty() bool {
	return s.Len() == 0
}

// At returns the record at position i. It panics when i is out of range,
// like a slice index.
func (s *Series) At(i int) Record {
	return s.records[i]
}

// Records returns a copy of the records in order.
func (s *Series) Records() []Record {
	return append([]Record(nil), s.records...)
}

// Carry returns the reconstruction state after the last record of the full
// assembled series. It is the zero Carry when reconstruction did not run.
func (s *Series) Carry() Carry {
	return s.carry
}

// Reconstructed reports whether logical indices have been computed.
func (s *Series) Reconstructed() bool {
	return s.reconstructed
}

// Window returns a new series holding the closed interval selected by w.
// The receiver is left untouched.
func (s *Series) Window(w Window) (*Series, error) {
	start, end, err := w.Resolve(s.Len())
	if err != nil {
		return nil, err
	}
	return &Series{
		records:       append([]Record(nil), s.records[start:end+1]...),
		carry:         s.carry,
		reconstructed: s.reconstructed,
	}, nil
}

// Append returns a new series with more records attached, continuing the
// reconstruction from the current carry when the series is reconstructed.
func (s *Series) Append(records []Record) *Series {
	next := &Series{
		carry:         s.carry,
		reconstructed: s.reconstructed,
	}
	if s.reconstructed {
		records, next.carry = Resume(s.carry, records)
	}
	next.records = make([]Record, 0, len(s.records)+len(records))
	next.records = append(next.records, s.records...)
	next.records = append(next.records, records...)
	return next
}

// PatchExtent returns the minimum and maximum raw patch index.
func (s *Series) PatchExtent() (int64, int64, error) {
	return s.extent(func(r Record) int64 { return r.PatchIndex })
}

// IndexExtent returns the minimum and maximum of Record.Index.
func (s *Series) IndexExtent() (int64, int64, error) {
	return s.extent(func(r Record) int64 { return r.Index() })
}

// TimeRange returns the timestamps of the first and last record.
func (s *Series) TimeRange() (int64, int64, error) {
	if s.Empty() {
		return 0, 0, ErrEmptySeries
	}
	return s.records[0].TS, s.records[len(s.records)-1].TS, nil
}

func (s *Series) extent(field func(Record) int64) (int64, int64, error) {
	if s.Empty() {
		return 0, 0, ErrEmptySeries
	}
	lo := field(s.records[0])
	hi := lo
	for _, r := range s.records[1:] {
		v := field(r)
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi, nil
}

// Summary describes a series for logs and status output.
type Summary struct {
	Len           int   `json:"len"`
	FirstTS       int64 `json:"first_ts"`
	LastTS        int64 `json:"last_ts"`
	Wraps         int   `json:"wraps"`
	Reconstructed bool  `json:"reconstructed"`
	FirstIndex    int64 `json:"first_index"`
	LastIndex     int64 `json:"last_index"`
}

// Summary counts backward patch jumps within the series and reports its edges.
func (s *Series) Summary() Summary {
	sum := Summary{Len: s.Len()}
	if sum.Len == 0 {
		return sum
	}
	sum.Reconstructed = s.reconstructed
	first, last := s.records[0], s.records[len(s.records)-1]
	sum.FirstTS, sum.LastTS = first.TS, last.TS
	sum.FirstIndex, sum.LastIndex = first.Index(), last.Index()
	for i := 1; i < len(s.records); i++ {
		if s.records[i].PatchIndex < s.records[i-1].PatchIndex {
			sum.Wraps++
		}
	}
	return sum
}
