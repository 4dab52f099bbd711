package series

import (
	"fmt"
	"strconv"
)

// Bound is an optional window bound. The zero value is unset, which is
// distinct from an explicit bound at position 0.
type Bound struct {
	value int
	set   bool
}

// Unset returns a bound that selects the series edge.
func Unset() Bound { return Bound{} }

// At returns a bound at record position i.
func At(i int) Bound { return Bound{value: i, set: true} }

// Get returns the bound position and whether it was set.
func (b Bound) Get() (int, bool) { return b.value, b.set }

// IsSet reports whether the bound was set explicitly.
func (b Bound) IsSet() bool { return b.set }

// Or returns the bound position, or def when unset.
func (b Bound) Or(def int) int {
	if !b.set {
		return def
	}
	return b.value
}

func (b Bound) String() string {
	if !b.set {
		return "unset"
	}
	return strconv.Itoa(b.value)
}

// Window selects the closed interval [Start, End] of record positions.
// An unset Start means 0 and an unset End means length-1.
type Window struct {
	Start Bound
	End   Bound
}

// FullWindow returns a window covering the whole series.
func FullWindow() Window { return Window{} }

// IsFull reports whether no bound was requested.
func (w Window) IsFull() bool {
	return !w.Start.set && !w.End.set
}

// Resolve returns the concrete inclusive bounds for a series of the given
// length. Bounds outside [0, length-1] and start > end are ErrInvalidWindow;
// they are never clamped.
func (w Window) Resolve(length int) (int, int, error) {
	if length <= 0 {
		return 0, 0, ErrEmptySeries
	}
	start := w.Start.Or(0)
	end := w.End.Or(length - 1)

	if start < 0 || start > length-1 {
		return 0, 0, fmt.Errorf("%w: start %d outside [0, %d]", ErrInvalidWindow, start, length-1)
	}
	if end < 0 || end > length-1 {
		return 0, 0, fmt.Errorf("%w: end %d outside [0, %d]", ErrInvalidWindow, end, length-1)
	}
	if start > end {
		return 0, 0, fmt.Errorf("%w: start %d after end %d", ErrInvalidWindow, start, end)
	}
	return start, end, nil
}

func (w Window) String() string {
	return fmt.Sprintf("[%s, %s]", w.Start, w.End)
}
