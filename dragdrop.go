package vgrid

import "math"

// DragPhase is the state of the drag/drop state machine.
type DragPhase uint8

const (
	DragIdle     DragPhase = iota
	DragPending            // pointer is down on a header but has not moved far enough
	DragDragging           // a column is being dragged
)

func (p DragPhase) String() string {
	switch p {
	case DragPending:
		return "pending"
	case DragDragging:
		return "dragging"
	default:
		return "idle"
	}
}

// TargetKind says what the dragged column is hovering over.
type TargetKind uint8

const (
	TargetNone TargetKind = iota
	TargetColumn
	TargetGroupZone
)

// DropTarget is a hover or drop location.
type DropTarget struct {
	Kind     TargetKind
	ColumnID string // set for TargetColumn
}

// ColumnTarget returns a drop target over a column header.
func ColumnTarget(id string) DropTarget { return DropTarget{Kind: TargetColumn, ColumnID: id} }

// GroupZoneTarget returns a drop target over the grouping zone.
func GroupZoneTarget() DropTarget { return DropTarget{Kind: TargetGroupZone} }

// Preview is what a drop would do right now. It is never committed.
type Preview struct {
	Source   string
	Target   DropTarget
	Order    []string      // set when hovering a column
	Grouping GroupingState // set when hovering the grouping zone
}

// Active reports whether the preview would change anything on drop.
func (p Preview) Active() bool { return p.Target.Kind != TargetNone }

// CommitKind says which mutation a drop applied.
type CommitKind uint8

const (
	CommitNone CommitKind = iota
	CommitReorder
	CommitGrouping
)

// Commit describes the single mutation a drop applied.
type Commit struct {
	Kind   CommitKind
	Source string
	Target string // target column for reorders
}

// DefaultDragThreshold is how far the pointer must travel before a press
// on a header turns into a drag.
const DefaultDragThreshold = 4

// DragCoordinator tracks at most one dragged column and turns hovers into
// previews and drops into exactly one ColumnStore mutation.
type DragCoordinator struct {
	store     *ColumnStore
	threshold float64

	phase   DragPhase
	source  string
	originX float64
	originY float64
	hover   DropTarget
}

// NewDragCoordinator creates an idle coordinator. threshold <= 0 uses
// DefaultDragThreshold.
func NewDragCoordinator(store *ColumnStore, threshold float64) *DragCoordinator {
	if threshold <= 0 {
		threshold = DefaultDragThreshold
	}
	return &DragCoordinator{store: store, threshold: threshold}
}

// Phase returns the current phase.
func (d *DragCoordinator) Phase() DragPhase { return d.phase }

// Source returns the dragged column id, or "" when idle.
func (d *DragCoordinator) Source() string { return d.source }

// Hovered returns the current hover target.
func (d *DragCoordinator) Hovered() DropTarget { return d.hover }

// PointerDown arms a drag on a column header. The drag starts once the
// pointer moves past the threshold.
func (d *DragCoordinator) PointerDown(id string, x, y float64) bool {
	if d.phase != DragIdle || !d.store.Has(id) {
		return false
	}
	d.phase = DragPending
	d.source = id
	d.originX, d.originY = x, y
	return true
}

// PointerMove promotes a pending press into a drag once it passes the threshold.
func (d *DragCoordinator) PointerMove(x, y float64) DragPhase {
	if d.phase == DragPending && math.Hypot(x-d.originX, y-d.originY) >= d.threshold {
		d.phase = DragDragging
	}
	return d.phase
}

// PointerUp ends a press. A press that never became a drag is a click and
// changes nothing; a drag is dropped on the current hover target.
func (d *DragCoordinator) PointerUp() (Commit, bool) {
	switch d.phase {
	case DragPending:
		d.reset()
		return Commit{}, false
	case DragDragging:
		return d.Drop()
	}
	return Commit{}, false
}

// Begin starts dragging a column immediately, for keyboard-driven hosts.
func (d *DragCoordinator) Begin(id string) bool {
	if d.phase == DragDragging || !d.store.Has(id) {
		return false
	}
	d.phase = DragDragging
	d.source = id
	d.hover = DropTarget{}
	return true
}

// Hover reports what the dragged column is over. It is ignored unless a drag
// is in progress.
func (d *DragCoordinator) Hover(t DropTarget) {
	if d.phase != DragDragging {
		return
	}
	if t.Kind == TargetColumn && !d.store.Has(t.ColumnID) {
		t = DropTarget{}
	}
	d.hover = t
}

// Preview returns what dropping now would do, without touching the store.
func (d *DragCoordinator) Preview() Preview {
	if d.phase != DragDragging {
		return Preview{}
	}
	p := Preview{Source: d.source, Target: d.hover}
	st := d.store.Snapshot()
	switch d.hover.Kind {
	case TargetColumn:
		p.Order = ReorderColumns(st.Order, d.source, d.hover.ColumnID)
	case TargetGroupZone:
		p.Grouping = toggled(st.Grouping, d.source)
	}
	return p
}

// Drop commits the hover target and returns to idle. Dropping with no
// target, or on the dragged column itself, changes nothing.
func (d *DragCoordinator) Drop() (Commit, bool) {
	if d.phase != DragDragging {
		return Commit{}, false
	}
	src, target := d.source, d.hover
	d.reset()

	switch target.Kind {
	case TargetColumn:
		if d.store.Reorder(src, target.ColumnID) {
			return Commit{Kind: CommitReorder, Source: src, Target: target.ColumnID}, true
		}
	case TargetGroupZone:
		if d.store.ToggleGrouping(src) {
			return Commit{Kind: CommitGrouping, Source: src}, true
		}
	}
	return Commit{}, false
}

// Cancel abandons the drag without mutating anything.
func (d *DragCoordinator) Cancel() {
	d.reset()
}

// LeaveViewport cancels a drag whose pointer left the grid entirely.
func (d *DragCoordinator) LeaveViewport() {
	d.reset()
}

func (d *DragCoordinator) reset() {
	d.phase = DragIdle
	d.source = ""
	d.hover = DropTarget{}
	d.originX, d.originY = 0, 0
}

func toggled(g GroupingState, id string) GroupingState {
	out := make(GroupingState, 0, len(g)+1)
	found := false
	for _, v := range g {
		if v == id {
			found = true
			continue
		}
		out = append(out, v)
	}
	if !found {
		out = append(out, id)
	}
	return out
}
