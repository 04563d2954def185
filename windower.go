package vgrid

import (
	"sort"
	"strconv"
)

const (
	// DefaultRowHeight is the estimated height of an unmeasured row.
	DefaultRowHeight = 40
	// DefaultOverscan is the number of extra rows kept on each side of the viewport.
	DefaultOverscan = 10
)

// Window is the slice of display rows that must exist for a scroll position,
// plus the spacer sizes that stand in for everything outside it.
type Window struct {
	First, Last   int // inclusive; Last < First when there are no rows
	PaddingBefore float64
	PaddingAfter  float64
	TotalSize     float64
	All           bool // virtualization disabled: every row, no padding
}

// Len returns the number of rows in the window.
func (w Window) Len() int {
	if w.Last < w.First {
		return 0
	}
	return w.Last - w.First + 1
}

// Contains reports whether display row i is inside the window.
func (w Window) Contains(i int) bool { return i >= w.First && i <= w.Last }

// ScrollAlign picks where ScrollOffsetFor places the target row.
type ScrollAlign uint8

const (
	AlignAuto ScrollAlign = iota // move as little as possible
	AlignStart
	AlignEnd
)

// Windower decides which rows intersect the viewport. It keeps a prefix sum
// of row heights (measured where known, estimated otherwise) that is only
// rebuilt from the lowest row whose height changed.
type Windower struct {
	estimate float64
	overscan int
	disabled bool

	count    int
	key      func(int) string
	measured map[string]float64
	prefix   []float64 // prefix[i] is the top of row i; prefix[count] is the total
	dirty    int       // first prefix entry that is stale
}

// WindowerOption configures a Windower.
type WindowerOption func(*Windower)

// WindowEstimate sets the height assumed for unmeasured rows.
func WindowEstimate(h float64) WindowerOption {
	return func(w *Windower) {
		if h > 0 {
			w.estimate = h
		}
	}
}

// WindowOverscan sets the number of extra rows rendered beyond each edge.
func WindowOverscan(rows int) WindowerOption {
	return func(w *Windower) { w.overscan = max(0, rows) }
}

// WindowDisabled turns virtualization off: every row is always in the window.
func WindowDisabled(disabled bool) WindowerOption {
	return func(w *Windower) { w.disabled = disabled }
}

// NewWindower creates a Windower with no rows.
func NewWindower(opts ...WindowerOption) *Windower {
	w := &Windower{
		estimate: DefaultRowHeight,
		overscan: DefaultOverscan,
		measured: make(map[string]float64),
		prefix:   []float64{0},
		dirty:    1,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// ComputeWindow is the stateless form: it builds a Windower for one call.
// measuredHeights maps row index to its rendered height.
func ComputeWindow(rowCount int, scrollOffset, viewportHeight, rowHeightEstimate float64, measuredHeights map[int]float64, overscan int) Window {
	w := NewWindower(WindowEstimate(rowHeightEstimate), WindowOverscan(overscan))
	w.SetRows(rowCount, nil)
	for i, h := range measuredHeights {
		w.Measure(i, h)
	}
	return w.Window(scrollOffset, viewportHeight)
}

// Disabled reports whether virtualization is off.
func (w *Windower) Disabled() bool { return w.disabled }

// SetDisabled switches virtualization off or on.
func (w *Windower) SetDisabled(disabled bool) { w.disabled = disabled }

// Len returns the row count.
func (w *Windower) Len() int { return w.count }

// SetRows sets the row count. key identifies rows so measurements follow a
// row when the order changes; nil keys rows by index.
func (w *Windower) SetRows(count int, key func(int) string) {
	count = max(0, count)
	if key == nil && w.key == nil {
		// index-keyed rows before min(old, new) keep their heights and sums
		w.dirty = min(w.dirty, min(w.count, count)+1)
	} else {
		w.dirty = 1
	}
	w.count = count
	w.key = key
	if cap(w.prefix) < count+1 {
		grown := make([]float64, count+1)
		copy(grown, w.prefix)
		w.prefix = grown
	} else {
		w.prefix = w.prefix[:count+1]
	}
}

// ResetMeasurements forgets every measured height.
func (w *Windower) ResetMeasurements() {
	clear(w.measured)
	w.dirty = 1
}

func (w *Windower) keyOf(i int) string {
	if w.key != nil {
		return w.key(i)
	}
	return strconv.Itoa(i)
}

// Height returns the measured height of row i, or the estimate.
func (w *Windower) Height(i int) float64 {
	if h, ok := w.measured[w.keyOf(i)]; ok {
		return h
	}
	return w.estimate
}

// Measure records the rendered height of row i. It returns true when the
// height differs from what the windower assumed.
func (w *Windower) Measure(i int, height float64) bool {
	if i < 0 || i >= w.count || height <= 0 {
		return false
	}
	if w.Height(i) == height {
		return false
	}
	w.measured[w.keyOf(i)] = height
	w.dirty = min(w.dirty, i+1)
	return true
}

// ensure brings stale prefix entries up to date, leaving earlier ones alone.
func (w *Windower) ensure() {
	if w.dirty > w.count {
		return
	}
	for i := max(w.dirty, 1); i <= w.count; i++ {
		w.prefix[i] = w.prefix[i-1] + w.Height(i-1)
	}
	w.dirty = w.count + 1
}

// TotalSize returns the height of every row together.
func (w *Windower) TotalSize() float64 {
	w.ensure()
	return w.prefix[w.count]
}

// Offset returns the top of row i.
func (w *Windower) Offset(i int) float64 {
	w.ensure()
	i = min(max(i, 0), w.count)
	return w.prefix[i]
}

// IndexAt returns the row under offset, or -1 when there are no rows.
func (w *Windower) IndexAt(offset float64) int {
	if w.count == 0 {
		return -1
	}
	w.ensure()
	i := sort.Search(w.count, func(i int) bool { return w.prefix[i+1] > offset })
	return min(i, w.count-1)
}

// ClampOffset limits a scroll offset to the scrollable range.
func (w *Windower) ClampOffset(offset, viewportHeight float64) float64 {
	maxOffset := max(0, w.TotalSize()-max(0, viewportHeight))
	return min(max(offset, 0), maxOffset)
}

// ScrollOffsetFor returns the scroll offset that brings row i into view.
func (w *Windower) ScrollOffsetFor(i int, current, viewportHeight float64, align ScrollAlign) float64 {
	if w.count == 0 {
		return 0
	}
	i = min(max(i, 0), w.count-1)
	top, bottom := w.Offset(i), w.Offset(i+1)
	var target float64
	switch align {
	case AlignStart:
		target = top
	case AlignEnd:
		target = bottom - viewportHeight
	default:
		switch {
		case top < current:
			target = top
		case bottom > current+viewportHeight:
			target = bottom - viewportHeight
		default:
			target = current
		}
	}
	return w.ClampOffset(target, viewportHeight)
}

// Window computes the visible range for a scroll position.
func (w *Windower) Window(scrollOffset, viewportHeight float64) Window {
	if w.disabled {
		return Window{First: 0, Last: w.count - 1, TotalSize: w.TotalSize(), All: true}
	}
	if w.count == 0 {
		return Window{First: 0, Last: -1}
	}

	total := w.TotalSize()
	viewportHeight = max(0, viewportHeight)
	offset := w.ClampOffset(scrollOffset, viewportHeight)
	margin := float64(w.overscan) * (total / float64(w.count))

	lo := offset - margin
	hi := offset + viewportHeight + margin

	// first row whose bottom is past lo, last row whose top is before hi
	first := sort.Search(w.count, func(i int) bool { return w.prefix[i+1] > lo })
	first = min(first, w.count-1)
	last := sort.Search(w.count, func(i int) bool { return w.prefix[i] >= hi }) - 1
	last = max(last, first)

	return Window{
		First:         first,
		Last:          last,
		PaddingBefore: w.prefix[first],
		PaddingAfter:  total - w.prefix[last+1],
		TotalSize:     total,
	}
}
