package domain

import "fmt"

// Record is one telemetry sample.
type Record struct {
	// PatchIndex is the device-reported counter. It may reset or jump
	// backward and is only meaningful relative to the previous record.
	PatchIndex int64

	// TS is the device/server timestamp in unix milliseconds.
	TS int64

	// DpTS is a secondary timestamp, carried through untouched.
	DpTS int64

	// AppIndex is the application-side counter, carried through untouched.
	AppIndex int64

	// LogicalIndex is the reconstructed ordinal of the record within the
	// full series. Only valid when HasLogical is true.
	LogicalIndex int64
	HasLogical   bool
}

// Logical returns the reconstructed index and whether it has been computed.
func (r Record) Logical() (int64, bool) {
	return r.LogicalIndex, r.HasLogical
}

// Index returns the value downstream consumers should key on: the logical
// index once reconstructed, the raw patch index before that.
func (r Record) Index() int64 {
	if r.HasLogical {
		return r.LogicalIndex
	}
	return r.PatchIndex
}

// WithLogical returns a copy of r annotated with the given logical index.
func (r Record) WithLogical(idx int64) Record {
	r.LogicalIndex = idx
	r.HasLogical = true
	return r
}

// RecordMeta is the JSON shape of a record as stored in chunk files.
//
// Two layouts are accepted. The flat layout uses patchIndex/ts/dpTs/appIndex.
// The raw history payload nests them: AE.AB is ts, AE.AC is dpTs, AF.AA is
// the patch index and AF.AB the app index. Flat fields win when both exist.
type RecordMeta struct {
	PatchIndex *int64 `json:"patchIndex,omitempty"`
	TS         *int64 `json:"ts,omitempty"`
	DpTS       *int64 `json:"dpTs,omitempty"`
	AppIndex   *int64 `json:"appIndex,omitempty"`
	Index      *int64 `json:"index,omitempty"`

	AE *timestampBlock `json:"AE,omitempty"`
	AF *counterBlock   `json:"AF,omitempty"`
}

type timestampBlock struct {
	AB *int64 `json:"AB,omitempty"`
	AC *int64 `json:"AC,omitempty"`
}

type counterBlock struct {
	AA *int64 `json:"AA,omitempty"`
	AB *int64 `json:"AB,omitempty"`
}

// ToRecord converts the wire shape to a Record.
// A missing patch index or timestamp is reported as ErrMalformedRecord.
func (m RecordMeta) ToRecord() (Record, error) {
	patch := m.PatchIndex
	ts := m.TS
	dpTs := m.DpTS
	app := m.AppIndex
	if m.AE != nil {
		ts = firstSet(ts, m.AE.AB)
		dpTs = firstSet(dpTs, m.AE.AC)
	}
	if m.AF != nil {
		patch = firstSet(patch, m.AF.AA)
		app = firstSet(app, m.AF.AB)
	}

	if patch == nil {
		return Record{}, fmt.Errorf("%w: patchIndex missing", ErrMalformedRecord)
	}
	if ts == nil {
		return Record{}, fmt.Errorf("%w: ts missing", ErrMalformedRecord)
	}

	r := Record{
		PatchIndex: *patch,
		TS:         *ts,
		DpTS:       valueOr(dpTs),
		AppIndex:   valueOr(app),
	}
	if m.Index != nil {
		r = r.WithLogical(*m.Index)
	}
	return r, nil
}

// ToMeta converts a Record to its flat wire shape.
func (r Record) ToMeta() RecordMeta {
	m := RecordMeta{
		PatchIndex: ptr(r.PatchIndex),
		TS:         ptr(r.TS),
		DpTS:       ptr(r.DpTS),
		AppIndex:   ptr(r.AppIndex),
	}
	if r.HasLogical {
		m.Index = ptr(r.LogicalIndex)
	}
	return m
}

func firstSet(a, b *int64) *int64 {
	if a != nil {
		return a
	}
	return b
}

func valueOr(p *int64) int64 {
	if p == nil {
		return 0
	}
	return *p
}

func ptr(v int64) *int64 { return &v }
