// Package vgrid is a virtualized data grid engine: sortable, groupable,
// reorderable, resizable and pinnable columns over large datasets, where
// only the rows inside the viewport are ever composed.
//
// A Grid ties together a ColumnStore (column order, pins, sizes, sort and
// grouping), the row model Pipeline, a Windower and a DragCoordinator. Hosts
// report scroll positions with OnScroll and draw the View; TextRenderer is a
// ready-made host for terminals.
package vgrid

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/hashicorp/go-multierror"
)

// GridOption configures a Grid.
type GridOption func(*gridSettings)

type gridSettings struct {
	virtualize    bool
	rowHeight     float64
	overscan      int
	dragThreshold float64
	resizeMode    ResizeMode
	logger        *slog.Logger
	slot          *Slot
	summary       map[string]string
	storeOpts     []StoreOption
	background    bool
}

// WithVirtualization turns row windowing on or off. It is on by default.
func WithVirtualization(enabled bool) GridOption {
	return func(s *gridSettings) { s.virtualize = enabled }
}

// WithRowHeight sets the estimated height of unmeasured rows.
func WithRowHeight(h float64) GridOption {
	return func(s *gridSettings) { s.rowHeight = h }
}

// WithOverscan sets how many rows are kept beyond each edge of the viewport.
func WithOverscan(rows int) GridOption {
	return func(s *gridSettings) { s.overscan = rows }
}

// WithDragThreshold sets how far a header press must move to start a drag.
func WithDragThreshold(d float64) GridOption {
	return func(s *gridSettings) { s.dragThreshold = d }
}

// WithResizeMode picks live or on-release column resizing.
func WithResizeMode(m ResizeMode) GridOption {
	return func(s *gridSettings) { s.resizeMode = m }
}

// WithLogger sets the logger. Grids log nothing by default.
func WithLogger(l *slog.Logger) GridOption {
	return func(s *gridSettings) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithAccessorySlot sets the slot the grid publishes its grouping zone and
// row counts into.
func WithAccessorySlot(slot *Slot) GridOption {
	return func(s *gridSettings) { s.slot = slot }
}

// WithSummary sets a summary row shown under the header, keyed by column id.
func WithSummary(cells map[string]string) GridOption {
	return func(s *gridSettings) { s.summary = cloneMap(cells) }
}

// WithStoreOptions passes options through to the grid's ColumnStore.
func WithStoreOptions(opts ...StoreOption) GridOption {
	return func(s *gridSettings) { s.storeOpts = append(s.storeOpts, opts...) }
}

// WithConfig applies a loaded Config.
func WithConfig(cfg Config) GridOption {
	return func(s *gridSettings) {
		for _, opt := range cfg.GridOptions() {
			opt(s)
		}
	}
}

// WithBackgroundRows stops the grid from rebuilding its row model inline.
// Once the first model exists, changes to records, sort or grouping leave
// the current model in place; the host takes the input from PendingRequest,
// builds it elsewhere (usually on a Worker) and hands it back with Install.
func WithBackgroundRows(enabled bool) GridOption {
	return func(s *gridSettings) {
		s.background = enabled
	}
}

func (s *gridSettings) validate() error {
	var errs *multierror.Error
	if s.rowHeight <= 0 {
		errs = multierror.Append(errs, fmt.Errorf("%w: row height must be positive, got %v", ErrInvalidConfig, s.rowHeight))
	}
	if s.overscan < 0 {
		errs = multierror.Append(errs, fmt.Errorf("%w: overscan must not be negative, got %d", ErrInvalidConfig, s.overscan))
	}
	return errs.ErrorOrNil()
}

// ----------------------------------------------------------------------------
// grid
// ----------------------------------------------------------------------------

// Grid wires the column store, the row model pipeline, the windower and the
// drag/drop coordinator together and composes what a host has to draw.
// A Grid is not safe for concurrent use; hosts drive it from one goroutine.
type Grid[T any] struct {
	cols     *ColumnSet[T]
	store    *ColumnStore
	drag     *DragCoordinator
	resizer  *ColumnResizer
	windower *Windower
	pipeline Pipeline[T]
	log      *slog.Logger
	slot     *Slot
	summary  map[string]string

	background bool

	records  []T
	version  uint64
	stale    bool
	model    *RowModel[T]
	fp       uint64
	grouping GroupingState

	offset   float64
	viewport float64

	unsubscribe func()
}

// NewGrid creates a grid over records. The column store starts with the
// declared column order and the widths from each column's meta.
func NewGrid[T any](cols *ColumnSet[T], records []T, opts ...GridOption) (*Grid[T], error) {
	if cols == nil {
		return nil, ErrNoColumns
	}
	s := &gridSettings{
		virtualize:    true,
		rowHeight:     DefaultRowHeight,
		overscan:      DefaultOverscan,
		dragThreshold: DefaultDragThreshold,
		logger:        discardLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.validate(); err != nil {
		return nil, err
	}

	storeOpts := make([]StoreOption, 0, len(cols.Leaves())+len(s.storeOpts))
	for _, c := range cols.Leaves() {
		m := c.Meta
		if m.Width > 0 || m.MinWidth > 0 || m.MaxWidth > 0 {
			storeOpts = append(storeOpts, WithWidthBounds(c.ID, m.Width, m.MinWidth, m.MaxWidth))
		}
	}
	storeOpts = append(storeOpts, s.storeOpts...)

	g := &Grid[T]{
		cols:     cols,
		store:    NewColumnStore(cols.IDs(), storeOpts...),
		windower: NewWindower(WindowEstimate(s.rowHeight), WindowOverscan(s.overscan), WindowDisabled(!s.virtualize)),
		pipeline: Pipeline[T]{Columns: cols},
		log:      s.logger,
		slot:     s.slot,
		summary:  s.summary,
		records:  records,
		stale:    true,

		background: s.background,
	}
	g.drag = NewDragCoordinator(g.store, s.dragThreshold)
	g.resizer = NewColumnResizer(g.store, s.resizeMode)
	g.unsubscribe = g.store.Subscribe(func(prev, next ColumnState) {
		// only sort and grouping reach the row model; the fingerprint
		// check in refresh skips the rest
		g.stale = true
	})
	return g, nil
}

// Close detaches the grid from its store.
func (g *Grid[T]) Close() {
	if g.unsubscribe != nil {
		g.unsubscribe()
		g.unsubscribe = nil
	}
}

// Columns returns the grid's column set.
func (g *Grid[T]) Columns() *ColumnSet[T] { return g.cols }

// Store returns the column state store.
func (g *Grid[T]) Store() *ColumnStore { return g.store }

// Drag returns the drag/drop coordinator.
func (g *Grid[T]) Drag() *DragCoordinator { return g.drag }

// Resizer returns the column resizer.
func (g *Grid[T]) Resizer() *ColumnResizer { return g.resizer }

// Records returns the records the grid was last given.
func (g *Grid[T]) Records() []T { return g.records }

// SetRecords replaces the dataset. The row model is rebuilt on next use.
func (g *Grid[T]) SetRecords(records []T) {
	g.records = records
	g.invalidate()
}

// SetRowKey sets how leaf row ids are derived from records.
func (g *Grid[T]) SetRowKey(fn func(rec T, index int) string) {
	g.pipeline.RowKey = fn
	g.invalidate()
}

// SetFilter sets the filter stage of the pipeline. nil keeps every row.
func (g *Grid[T]) SetFilter(fn FilterFunc[T]) {
	g.pipeline.Filter = fn
	g.invalidate()
}

func (g *Grid[T]) invalidate() {
	g.version++
	g.stale = true
}

// Model returns the current row model, rebuilding it if its inputs changed.
func (g *Grid[T]) Model() *RowModel[T] {
	g.refresh()
	return g.model
}

// Rows returns the flattened display rows.
func (g *Grid[T]) Rows() []*Row[T] { return g.Model().Rows() }

// fingerprint hashes everything the row model depends on.
func (g *Grid[T]) fingerprint(st ColumnState) uint64 {
	h := xxhash.New()
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], g.version)
	_, _ = h.Write(buf[:])
	for _, e := range st.Sort {
		_, _ = h.WriteString(e.ColumnID)
		_, _ = h.Write([]byte{0, byte(e.Dir)})
	}
	_, _ = h.Write([]byte{0xff})
	for _, id := range st.Grouping {
		_, _ = h.WriteString(id)
		_, _ = h.Write([]byte{0})
	}
	return h.Sum64()
}

func (g *Grid[T]) refresh() {
	if !g.stale && g.model != nil {
		return
	}

	st := g.store.Snapshot()
	fp := g.fingerprint(st)
	if g.model != nil && fp == g.fp {
		g.stale = false
		return
	}
	if g.model != nil && g.background {
		// stays stale until the host installs the next model
		return
	}
	g.stale = false

	start := time.Now()
	m := g.pipeline.Compute(g.records, st.Sort, st.Grouping, g.carriedExpansion(st))
	g.adopt(m, st, fp, time.Since(start))
}

// carriedExpansion is the expansion state the next model starts from: the
// current one while grouping is unchanged, none after it changes.
func (g *Grid[T]) carriedExpansion(st ColumnState) ExpansionState {
	if g.model == nil {
		return nil
	}
	if !slices.Equal(g.grouping, st.Grouping) {
		g.log.Debug("grouping changed, expansion reset", "grouping", st.Grouping)
		return nil
	}
	return g.model.Expansion()
}

// PendingRequest returns the pipeline input for the current records and
// column state. It reports false when the current model is up to date.
func (g *Grid[T]) PendingRequest() (Request[T], bool) {
	st := g.store.Snapshot()
	fp := g.fingerprint(st)
	if g.model != nil && fp == g.fp {
		return Request[T]{}, false
	}
	return Request[T]{
		Records:     g.records,
		Sort:        st.Sort,
		Grouping:    st.Grouping,
		Expansion:   g.carriedExpansion(st),
		fingerprint: fp,
	}, true
}

// Install adopts a model built from a request taken with PendingRequest.
// It reports false and keeps the current model when records, sort or
// grouping changed after the request was taken.
func (g *Grid[T]) Install(req Request[T], m *RowModel[T], took time.Duration) bool {
	st := g.store.Snapshot()
	if m == nil || req.fingerprint == 0 || req.fingerprint != g.fingerprint(st) {
		g.log.Debug("stale row model ignored")
		return false
	}
	if g.model != nil && slices.Equal(g.grouping, st.Grouping) {
		// groups toggled while the model was being built
		m.restoreExpansion(g.model.Expansion())
	}
	g.stale = false
	g.adopt(m, st, req.fingerprint, took)
	return true
}

// Pipeline returns a copy of the grid's pipeline, for hosts that build row
// models off their event loop.
func (g *Grid[T]) Pipeline() Pipeline[T] { return g.pipeline }

func (g *Grid[T]) adopt(m *RowModel[T], st ColumnState, fp uint64, took time.Duration) {
	g.model = m
	g.fp = fp
	g.grouping = slices.Clone(st.Grouping)
	g.log.Debug("row model rebuilt",
		"records", len(g.records),
		"rows", g.model.Len(),
		"leaves", len(g.model.Leaves()),
		"took", took)

	if err := g.model.Err(); err != nil {
		count := 1
		var merr *multierror.Error
		if errors.As(err, &merr) {
			count = len(merr.Errors)
		}
		g.log.Warn("row model built with failures", "count", count, "err", err)
	}
	g.syncRows()
}

// syncRows hands the current display rows to the windower and republishes
// the accessory slot.
func (g *Grid[T]) syncRows() {
	m := g.model
	g.windower.SetRows(m.Len(), func(i int) string { return m.At(i).ID })
	g.offset = g.windower.ClampOffset(g.offset, g.viewport)
	g.publish()
}

// ----------------------------------------------------------------------------
// scrolling
// ----------------------------------------------------------------------------

// OnScroll reports the scroll container's offset and height. Hosts call it
// on both scroll and resize.
func (g *Grid[T]) OnScroll(offset, viewportHeight float64) {
	g.viewport = max(0, viewportHeight)
	g.Scroll(offset)
}

// SetViewport changes the viewport height, keeping the offset in range.
func (g *Grid[T]) SetViewport(height float64) {
	g.OnScroll(g.offset, height)
}

// Scroll moves to an absolute offset, clamped to the scrollable range.
func (g *Grid[T]) Scroll(offset float64) {
	g.refresh()
	g.offset = g.windower.ClampOffset(offset, g.viewport)
}

// ScrollBy moves the offset by delta.
func (g *Grid[T]) ScrollBy(delta float64) { g.Scroll(g.offset + delta) }

// ScrollOffset returns the current scroll offset.
func (g *Grid[T]) ScrollOffset() float64 { return g.offset }

// Viewport returns the viewport height.
func (g *Grid[T]) Viewport() float64 { return g.viewport }

// ScrollToRow scrolls a display row into view.
func (g *Grid[T]) ScrollToRow(id string, align ScrollAlign) bool {
	m := g.Model()
	i := slices.IndexFunc(m.Rows(), func(r *Row[T]) bool { return r.ID == id })
	if i < 0 {
		return false
	}
	g.offset = g.windower.ScrollOffsetFor(i, g.offset, g.viewport, align)
	return true
}

// ScrollToIndex scrolls display row i into view.
func (g *Grid[T]) ScrollToIndex(i int, align ScrollAlign) {
	g.refresh()
	g.offset = g.windower.ScrollOffsetFor(i, g.offset, g.viewport, align)
}

// RowAt returns the index of the display row under a viewport-relative y.
func (g *Grid[T]) RowAt(y float64) int {
	g.refresh()
	return g.windower.IndexAt(g.offset + y)
}

// MeasureRow records the rendered height of display row i.
func (g *Grid[T]) MeasureRow(i int, height float64) bool {
	g.refresh()
	return g.windower.Measure(i, height)
}

// Window returns the rows that must be rendered for the current offset.
func (g *Grid[T]) Window() Window {
	g.refresh()
	return g.windower.Window(g.offset, g.viewport)
}

// ----------------------------------------------------------------------------
// expansion
// ----------------------------------------------------------------------------

// ToggleExpanded expands or collapses a group row.
func (g *Grid[T]) ToggleExpanded(rowID string) bool {
	return g.expansionChanged(g.Model().ToggleExpanded(rowID), "toggle expanded", rowID)
}

// SetExpanded expands or collapses a group row.
func (g *Grid[T]) SetExpanded(rowID string, expanded bool) bool {
	return g.expansionChanged(g.Model().SetExpanded(rowID, expanded), "set expanded", rowID)
}

// ExpandAll expands every group row.
func (g *Grid[T]) ExpandAll() {
	g.Model().ExpandAll()
	g.syncRows()
}

// CollapseAll collapses every group row.
func (g *Grid[T]) CollapseAll() {
	g.Model().CollapseAll()
	g.syncRows()
}

func (g *Grid[T]) expansionChanged(changed bool, op, id string) bool {
	if !changed {
		g.log.Debug("ignored", "op", op, "row", id)
		return false
	}
	g.syncRows()
	return true
}

// ----------------------------------------------------------------------------
// column state shortcuts
// ----------------------------------------------------------------------------

// ToggleSort cycles a column's sort. See ColumnStore.ToggleSort.
func (g *Grid[T]) ToggleSort(id string, multi bool) bool {
	return g.logged(g.store.ToggleSort(id, multi), "toggle sort", id)
}

// ToggleGrouping groups or ungroups by a column.
func (g *Grid[T]) ToggleGrouping(id string) bool {
	return g.logged(g.store.ToggleGrouping(id), "toggle grouping", id)
}

// TogglePin pins or unpins a column.
func (g *Grid[T]) TogglePin(id string, side PinSide) bool {
	return g.logged(g.store.TogglePin(id, side), "toggle pin", id)
}

// Reorder moves dragged into target's position.
func (g *Grid[T]) Reorder(dragged, target string) bool {
	return g.logged(g.store.Reorder(dragged, target), "reorder", dragged)
}

// Resize changes a column's width by delta.
func (g *Grid[T]) Resize(id string, delta float64) bool {
	return g.logged(g.store.Resize(id, delta), "resize", id)
}

func (g *Grid[T]) logged(changed bool, op, id string) bool {
	if !changed {
		g.log.Debug("ignored", "op", op, "column", id)
	}
	return changed
}

// ----------------------------------------------------------------------------
// accessory
// ----------------------------------------------------------------------------

// GroupingPrompt is shown in an empty grouping zone.
const GroupingPrompt = "Drag and drop column here to group"

// GroupingZone returns the chips of the grouping zone, outermost first.
func (g *Grid[T]) GroupingZone() []GroupChip {
	grouping := g.store.Snapshot().Grouping
	chips := make([]GroupChip, 0, len(grouping))
	for _, id := range grouping {
		label := id
		if c, ok := g.cols.Lookup(id); ok {
			label = c.Header
		}
		chips = append(chips, GroupChip{ColumnID: id, Label: label})
	}
	return chips
}

// Accessory returns what the grid publishes into its accessory slot.
func (g *Grid[T]) Accessory() Accessory {
	m := g.Model()
	a := Accessory{
		Chips:    g.GroupingZone(),
		Rows:     m.Len(),
		Leaves:   len(m.Leaves()),
		Dragging: g.drag.Source(),
	}
	if len(a.Chips) == 0 {
		a.Prompt = GroupingPrompt
	}
	return a
}

func (g *Grid[T]) publish() {
	if g.slot == nil || g.model == nil {
		return
	}
	g.slot.publish(g.Accessory())
}

// ----------------------------------------------------------------------------
// export
// ----------------------------------------------------------------------------

// Export writes every leaf row, in display order and regardless of group
// expansion, using the current column order.
func (g *Grid[T]) Export(w io.Writer, opts ExportOptions) error {
	m := g.Model()
	cols := g.cols.ordered(visibleIDs(g.visibleColumns(g.store.Snapshot())))
	if err := ExportDelimited(w, m.OrderedLeaves(), cols, opts); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	g.log.Info("exported rows", "rows", len(m.OrderedLeaves()), "columns", len(cols))
	return nil
}
