package series

import (
	"fmt"
	"math"
	"time"
)

// Axis is a linear scale mapping a continuous domain onto a pixel range.
type Axis struct {
	Domain [2]float64
	Range  [2]float64
}

// IndexAxis returns the x axis of a chart plotting length samples by
// position across width pixels: domain [0, length-1], range [0, width].
func IndexAxis(length int, width float64) Axis {
	return Axis{
		Domain: [2]float64{0, float64(length - 1)},
		Range:  [2]float64{0, width},
	}
}

// Scale maps a domain value to a pixel coordinate.
func (a Axis) Scale(v float64) float64 {
	d := a.Domain[1] - a.Domain[0]
	if d == 0 {
		return a.Range[0]
	}
	return a.Range[0] + (v-a.Domain[0])*(a.Range[1]-a.Range[0])/d
}

// Invert maps a pixel coordinate back to a domain value.
func (a Axis) Invert(px float64) float64 {
	r := a.Range[1] - a.Range[0]
	if r == 0 {
		return a.Domain[0]
	}
	return a.Domain[0] + (px-a.Range[0])*(a.Domain[1]-a.Domain[0])/r
}

// Validate checks the axis can be inverted.
func (a Axis) Validate() error {
	for _, v := range []float64{a.Domain[0], a.Domain[1], a.Range[0], a.Range[1]} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: non-finite bound", ErrInvalidAxis)
		}
	}
	if a.Range[0] == a.Range[1] {
		return fmt.Errorf("%w: empty pixel range", ErrInvalidAxis)
	}
	return nil
}

// Sample is the record under the cursor with its display values.
type Sample struct {
	// Position is the record position within the series.
	Position int

	Record Record

	// Index is the logical index when reconstructed, else the patch index.
	Index int64

	// Timestamp is Record.TS formatted as MM/DD hh:mm:ss:mmm.
	Timestamp string

	// Label is the tooltip line for the sample.
	Label string
}

// Resolver maps pointer coordinates to samples of one series.
type Resolver struct {
	series *Series
	axis   Axis
	loc    *time.Location
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithLocation sets the time zone used to format timestamps.
// The default is time.Local.
func WithLocation(loc *time.Location) ResolverOption {
	return func(r *Resolver) {
		if loc != nil {
			r.loc = loc
		}
	}
}

// WithAxis overrides the default index axis.
func WithAxis(a Axis) ResolverOption {
	return func(r *Resolver) {
		r.axis = a
	}
}

// NewResolver builds a resolver over s whose x axis spans width pixels.
func NewResolver(s *Series, width float64, opts ...ResolverOption) (*Resolver, error) {
	if s.Empty() {
		return nil, ErrEmptySeries
	}
	if !(width > 0) || math.IsInf(width, 0) {
		return nil, fmt.Errorf("%w: width %v", ErrInvalidAxis, width)
	}
	r := &Resolver{
		series: s,
		axis:   IndexAxis(s.Len(), width),
		loc:    time.Local,
	}
	for _, opt := range opts {
		opt(r)
	}
	if err := r.axis.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

// Axis returns the axis used by the resolver.
func (r *Resolver) Axis() Axis {
	return r.axis
}

// Resolve returns the sample under pixel coordinate px. Coordinates past
// either edge of the plot resolve to the first or last sample.
func (r *Resolver) Resolve(px float64) (Sample, error) {
	pos, err := position(r.series.Len(), r.axis, px)
	if err != nil {
		return Sample{}, err
	}
	return newSample(r.series, pos, r.loc), nil
}

// ResolveAxis is the stateless form of Resolver.Resolve for callers that
// manage the axis themselves.
func ResolveAxis(s *Series, px float64, a Axis, loc *time.Location) (Sample, error) {
	if s.Empty() {
		return Sample{}, ErrEmptySeries
	}
	if err := a.Validate(); err != nil {
		return Sample{}, err
	}
	if loc == nil {
		loc = time.Local
	}
	pos, err := position(s.Len(), a, px)
	if err != nil {
		return Sample{}, err
	}
	return newSample(s, pos, loc), nil
}

// position inverts px, clamps to [0, n-1] and floors.
func position(n int, a Axis, px float64) (int, error) {
	if math.IsNaN(px) {
		return 0, fmt.Errorf("%w: NaN coordinate", ErrInvalidAxis)
	}
	if n == 1 {
		return 0, nil
	}
	v := a.Invert(px)
	if math.IsNaN(v) {
		return 0, fmt.Errorf("%w: coordinate %v does not invert", ErrInvalidAxis, px)
	}
	last := float64(n - 1)
	switch {
	case v < 0:
		v = 0
	case v > last:
		v = last
	}
	return int(math.Floor(v)), nil
}

func newSample(s *Series, pos int, loc *time.Location) Sample {
	rec := s.At(pos)
	ts := FormatTimestamp(rec.TS, loc)
	return Sample{
		Position:  pos,
		Record:    rec,
		Index:     rec.Index(),
		Timestamp: ts,
		Label:     tooltipLabel(pos, rec, ts),
	}
}
