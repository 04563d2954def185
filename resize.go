package vgrid

// ResizeMode controls when a column resize reaches the store.
type ResizeMode uint8

const (
	// ResizeLive applies every pointer move to the store as it happens.
	ResizeLive ResizeMode = iota
	// ResizeOnEnd previews moves and commits a single resize on release.
	ResizeOnEnd
)

func (m ResizeMode) String() string {
	if m == ResizeOnEnd {
		return "onEnd"
	}
	return "live"
}

// ParseResizeMode maps a config name onto a ResizeMode.
func ParseResizeMode(name string) (ResizeMode, bool) {
	switch name {
	case "", "live", "onChange":
		return ResizeLive, true
	case "onEnd", "end":
		return ResizeOnEnd, true
	default:
		return ResizeLive, false
	}
}

// ColumnResizer turns a pointer drag on a resize handle into store resizes.
type ColumnResizer struct {
	store  *ColumnStore
	mode   ResizeMode
	active string
	lastX  float64
	startW float64
	delta  float64 // pending delta in ResizeOnEnd mode
}

// NewColumnResizer creates a resizer bound to a store.
func NewColumnResizer(store *ColumnStore, mode ResizeMode) *ColumnResizer {
	return &ColumnResizer{store: store, mode: mode}
}

// Begin starts resizing a column from pointer position x.
func (r *ColumnResizer) Begin(id string, x float64) bool {
	if !r.store.Has(id) {
		return false
	}
	r.active = id
	r.lastX = x
	r.startW = r.store.Width(id)
	r.delta = 0
	return true
}

// Active returns the column being resized, or "".
func (r *ColumnResizer) Active() string { return r.active }

// Move reports the new pointer position.
func (r *ColumnResizer) Move(x float64) {
	if r.active == "" {
		return
	}
	d := x - r.lastX
	r.lastX = x
	if r.mode == ResizeLive {
		r.store.Resize(r.active, d)
		return
	}
	r.delta += d
}

// PreviewWidth returns the width the active column would have if released
// now. For live resizes this is the committed width.
func (r *ColumnResizer) PreviewWidth() float64 {
	if r.active == "" {
		return 0
	}
	if r.mode == ResizeLive {
		return r.store.Width(r.active)
	}
	return r.store.clampWidth(r.active, r.startW+r.delta)
}

// End releases the handle, committing a pending resize in ResizeOnEnd mode.
func (r *ColumnResizer) End() {
	if r.active == "" {
		return
	}
	if r.mode == ResizeOnEnd && r.delta != 0 {
		r.store.Resize(r.active, r.delta)
	}
	r.reset()
}

// Cancel abandons the resize. Live moves already applied are rolled back to
// the width the column had at Begin.
func (r *ColumnResizer) Cancel() {
	if r.active == "" {
		return
	}
	if r.mode == ResizeLive && r.store.Width(r.active) != r.startW {
		r.store.SetWidth(r.active, r.startW)
	}
	r.reset()
}

func (r *ColumnResizer) reset() {
	r.active = ""
	r.delta = 0
	r.lastX = 0
	r.startW = 0
}
