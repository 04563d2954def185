package vgrid

import (
	"maps"
	"slices"
	"sync"
)

// Direction is a sort direction.
type Direction uint8

const (
	Ascending Direction = iota
	Descending
)

func (d Direction) String() string {
	if d == Descending {
		return "desc"
	}
	return "asc"
}

// SortEntry sorts by one column.
type SortEntry struct {
	ColumnID string
	Dir      Direction
}

// SortState is a composite sort; earlier entries take priority.
type SortState []SortEntry

// Lookup returns the direction of a column's entry and its priority.
func (s SortState) Lookup(id string) (dir Direction, priority int, ok bool) {
	for i, e := range s {
		if e.ColumnID == id {
			return e.Dir, i, true
		}
	}
	return Ascending, -1, false
}

// GroupingState lists grouping column ids, outermost first.
type GroupingState []string

// Contains reports whether the column is grouped.
func (g GroupingState) Contains(id string) bool { return slices.Contains(g, id) }

// PinSide is the edge a pinned column sticks to.
type PinSide uint8

const (
	PinNone PinSide = iota
	PinLeft
	PinRight
)

func (p PinSide) String() string {
	switch p {
	case PinLeft:
		return "left"
	case PinRight:
		return "right"
	default:
		return "none"
	}
}

const (
	// DefaultColumnWidth is the estimated width of a column without one.
	DefaultColumnWidth = 150
	// DefaultMinColumnWidth is the floor applied when resizing.
	DefaultMinColumnWidth = 20
	defaultHistoryLimit   = 100
)

// ColumnState is an immutable snapshot of the column configuration.
type ColumnState struct {
	Order    []string
	Pinned   map[string]PinSide
	Sizes    map[string]float64 // explicit sizes only; see ColumnStore.Width
	Sort     SortState
	Grouping GroupingState
}

// Clone returns a deep copy.
func (s ColumnState) Clone() ColumnState {
	return ColumnState{
		Order:    slices.Clone(s.Order),
		Pinned:   cloneMap(s.Pinned),
		Sizes:    cloneMap(s.Sizes),
		Sort:     slices.Clone(s.Sort),
		Grouping: slices.Clone(s.Grouping),
	}
}

// PinSide returns where a column is pinned.
func (s ColumnState) PinSide(id string) PinSide { return s.Pinned[id] }

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	maps.Copy(out, m)
	return out
}

// ----------------------------------------------------------------------------
// store
// ----------------------------------------------------------------------------

type widthBounds struct {
	def, min, max float64
}

// ColumnStore owns the column state of one grid. Every mutator is
// synchronous and total: it either applies completely and returns true, or
// leaves the state untouched and returns false. Unknown ids are no-ops.
// Readers get deep copies, so they never observe a partial mutation.
type ColumnStore struct {
	mu        sync.RWMutex
	known     map[string]bool
	bounds    map[string]widthBounds
	minWidth  float64
	estimate  func(id string) float64
	state     ColumnState
	history   []ColumnState
	histLimit int
	listeners []func(prev, next ColumnState)
}

// StoreOption configures a ColumnStore.
type StoreOption func(*ColumnStore)

// WithPinned pins columns to a side initially.
func WithPinned(side PinSide, ids ...string) StoreOption {
	return func(s *ColumnStore) {
		for _, id := range ids {
			if s.known[id] && side != PinNone {
				s.state.Pinned[id] = side
			}
		}
	}
}

// WithWidthEstimator sets how default widths are estimated for columns
// without an explicit width bound.
func WithWidthEstimator(fn func(id string) float64) StoreOption {
	return func(s *ColumnStore) { s.estimate = fn }
}

// WithWidthBounds sets a column's default, minimum and maximum widths.
// Zero values fall back to the estimator, the global minimum, and no maximum.
func WithWidthBounds(id string, def, lo, hi float64) StoreOption {
	return func(s *ColumnStore) {
		if s.known[id] {
			s.bounds[id] = widthBounds{def: def, min: lo, max: hi}
		}
	}
}

// WithMinWidth sets the global resize floor.
func WithMinWidth(w float64) StoreOption {
	return func(s *ColumnStore) { s.minWidth = w }
}

// WithInitialSort seeds the sort state. Unknown and repeated ids are dropped.
func WithInitialSort(sort SortState) StoreOption {
	return func(s *ColumnStore) {
		seen := make(map[string]bool, len(sort))
		s.state.Sort = nil
		for _, e := range sort {
			if s.known[e.ColumnID] && !seen[e.ColumnID] && e.Dir <= Descending {
				seen[e.ColumnID] = true
				s.state.Sort = append(s.state.Sort, e)
			}
		}
	}
}

// WithInitialGrouping seeds the grouping state. Unknown and repeated ids
// are dropped.
func WithInitialGrouping(ids ...string) StoreOption {
	return func(s *ColumnStore) {
		s.state.Grouping = nil
		for _, id := range ids {
			if s.known[id] && !s.state.Grouping.Contains(id) {
				s.state.Grouping = append(s.state.Grouping, id)
			}
		}
	}
}

// WithHistoryLimit bounds the undo history.
func WithHistoryLimit(n int) StoreOption {
	return func(s *ColumnStore) { s.histLimit = n }
}

// NewColumnStore creates a store whose order is the given ids. Duplicate ids
// are collapsed to their first occurrence.
func NewColumnStore(ids []string, opts ...StoreOption) *ColumnStore {
	s := &ColumnStore{
		known:     make(map[string]bool, len(ids)),
		bounds:    make(map[string]widthBounds),
		minWidth:  DefaultMinColumnWidth,
		histLimit: defaultHistoryLimit,
		state: ColumnState{
			Pinned: make(map[string]PinSide),
			Sizes:  make(map[string]float64),
		},
	}
	for _, id := range ids {
		if !s.known[id] {
			s.known[id] = true
			s.state.Order = append(s.state.Order, id)
		}
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Snapshot returns a deep copy of the current state.
func (s *ColumnStore) Snapshot() ColumnState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

// Order returns a copy of the current column order.
func (s *ColumnStore) Order() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.state.Order)
}

// Has reports whether id is a known column.
func (s *ColumnStore) Has(id string) bool { return s.known[id] }

// Width returns the column's explicit size, or its estimated default.
func (s *ColumnStore) Width(id string) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.widthIn(s.state, id)
}

// DefaultWidth returns the estimated width used when no size is set.
func (s *ColumnStore) DefaultWidth(id string) float64 {
	if b, ok := s.bounds[id]; ok && b.def > 0 {
		return b.def
	}
	if s.estimate != nil {
		if w := s.estimate(id); w > 0 {
			return w
		}
	}
	return DefaultColumnWidth
}

func (s *ColumnStore) widthIn(st ColumnState, id string) float64 {
	if w, ok := st.Sizes[id]; ok {
		return w
	}
	return s.DefaultWidth(id)
}

func (s *ColumnStore) clampWidth(id string, w float64) float64 {
	lo := s.minWidth
	var hi float64
	if b, ok := s.bounds[id]; ok {
		if b.min > 0 {
			lo = b.min
		}
		hi = b.max
	}
	if hi > 0 && w > hi {
		w = hi
	}
	return max(lo, w)
}

// Subscribe registers a change listener and returns an unsubscribe function.
// Listeners run synchronously after the mutation is applied.
func (s *ColumnStore) Subscribe(fn func(prev, next ColumnState)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
	idx := len(s.listeners) - 1
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		// zero out rather than reorder so other indexes stay valid
		s.listeners[idx] = nil
	}
}

// apply runs fn against a copy of the state and commits it if fn reports a
// change. The previous state is kept for Undo.
func (s *ColumnStore) apply(fn func(next *ColumnState) bool) bool {
	s.mu.Lock()
	next := s.state.Clone()
	if !fn(&next) {
		s.mu.Unlock()
		return false
	}
	prev := s.state
	s.pushHistory(prev)
	s.state = next
	listeners := slices.Clone(s.listeners)
	s.mu.Unlock()

	s.notify(listeners, prev, next)
	return true
}

func (s *ColumnStore) pushHistory(st ColumnState) {
	if s.histLimit <= 0 {
		return
	}
	s.history = append(s.history, st)
	if over := len(s.history) - s.histLimit; over > 0 {
		s.history = slices.Delete(s.history, 0, over)
	}
}

func (s *ColumnStore) notify(listeners []func(prev, next ColumnState), prev, next ColumnState) {
	for _, fn := range listeners {
		if fn != nil {
			fn(prev.Clone(), next.Clone())
		}
	}
}

// History returns copies of the previous states, oldest first.
func (s *ColumnStore) History() []ColumnState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ColumnState, len(s.history))
	for i, st := range s.history {
		out[i] = st.Clone()
	}
	return out
}

// Undo restores the state before the most recent mutation.
func (s *ColumnStore) Undo() bool {
	s.mu.Lock()
	if len(s.history) == 0 {
		s.mu.Unlock()
		return false
	}
	prev := s.state
	s.state = s.history[len(s.history)-1]
	s.history = s.history[:len(s.history)-1]
	next := s.state
	listeners := slices.Clone(s.listeners)
	s.mu.Unlock()

	s.notify(listeners, prev, next)
	return true
}

// ----------------------------------------------------------------------------
// mutators
// ----------------------------------------------------------------------------

// Reorder moves dragged into target's position. See ReorderColumns.
func (s *ColumnStore) Reorder(dragged, target string) bool {
	if dragged == target || !s.known[dragged] || !s.known[target] {
		return false
	}
	return s.apply(func(st *ColumnState) bool {
		order := ReorderColumns(st.Order, dragged, target)
		if sameOrder(order, st.Order) {
			return false
		}
		st.Order = order
		return true
	})
}

// SetOrder replaces the order. It must be a permutation of the known ids.
func (s *ColumnStore) SetOrder(order []string) bool {
	if !validOrder(order, s.known) {
		return false
	}
	return s.apply(func(st *ColumnState) bool {
		if sameOrder(order, st.Order) {
			return false
		}
		st.Order = slices.Clone(order)
		return true
	})
}

// ToggleSort cycles a column through ascending, descending and unsorted.
// Without multi every other sort entry is cleared first; with multi the
// column's entry cycles in place and other entries keep their priority.
func (s *ColumnStore) ToggleSort(id string, multi bool) bool {
	if !s.known[id] {
		return false
	}
	return s.apply(func(st *ColumnState) bool {
		dir, i, ok := st.Sort.Lookup(id)
		var next *SortEntry
		switch {
		case !ok:
			next = &SortEntry{ColumnID: id, Dir: Ascending}
		case dir == Ascending:
			next = &SortEntry{ColumnID: id, Dir: Descending}
		}

		if !multi {
			st.Sort = nil
			if next != nil {
				st.Sort = SortState{*next}
			}
			return true
		}
		switch {
		case !ok:
			st.Sort = append(st.Sort, *next)
		case next != nil:
			st.Sort[i] = *next
		default:
			st.Sort = slices.Delete(st.Sort, i, i+1)
		}
		return true
	})
}

// SetSort replaces the sort state. Unknown or repeated ids reject the call.
func (s *ColumnStore) SetSort(sort SortState) bool {
	if !validSort(sort, s.known) {
		return false
	}
	return s.apply(func(st *ColumnState) bool {
		if slices.Equal(st.Sort, sort) {
			return false
		}
		st.Sort = slices.Clone(sort)
		return true
	})
}

// ClearSort removes every sort entry.
func (s *ColumnStore) ClearSort() bool {
	return s.apply(func(st *ColumnState) bool {
		if len(st.Sort) == 0 {
			return false
		}
		st.Sort = nil
		return true
	})
}

// ToggleGrouping appends the column to the grouping if absent, removes it
// if present.
func (s *ColumnStore) ToggleGrouping(id string) bool {
	if !s.known[id] {
		return false
	}
	return s.apply(func(st *ColumnState) bool {
		if i := slices.Index(st.Grouping, id); i >= 0 {
			st.Grouping = slices.Delete(st.Grouping, i, i+1)
		} else {
			st.Grouping = append(st.Grouping, id)
		}
		return true
	})
}

// SetGrouping replaces the grouping. Unknown or repeated ids reject the call.
func (s *ColumnStore) SetGrouping(ids ...string) bool {
	if !validGrouping(ids, s.known) {
		return false
	}
	return s.apply(func(st *ColumnState) bool {
		if slices.Equal(st.Grouping, GroupingState(ids)) {
			return false
		}
		st.Grouping = slices.Clone(ids)
		return true
	})
}

// ClearGrouping removes every grouping column.
func (s *ColumnStore) ClearGrouping() bool {
	return s.apply(func(st *ColumnState) bool {
		if len(st.Grouping) == 0 {
			return false
		}
		st.Grouping = nil
		return true
	})
}

// Resize adds delta to the column's width, clamped to its bounds.
// Hosts call it continuously while a resize handle is dragged.
func (s *ColumnStore) Resize(id string, delta float64) bool {
	if !s.known[id] {
		return false
	}
	return s.apply(func(st *ColumnState) bool {
		cur := s.widthIn(*st, id)
		w := s.clampWidth(id, cur+delta)
		if w == cur {
			return false
		}
		st.Sizes[id] = w
		return true
	})
}

// SetWidth sets an explicit width, clamped to the column's bounds.
func (s *ColumnStore) SetWidth(id string, w float64) bool {
	if !s.known[id] {
		return false
	}
	return s.apply(func(st *ColumnState) bool {
		w = s.clampWidth(id, w)
		if cur, ok := st.Sizes[id]; ok && cur == w {
			return false
		}
		st.Sizes[id] = w
		return true
	})
}

// ResetSize drops an explicit width so the column reverts to its default.
func (s *ColumnStore) ResetSize(id string) bool {
	if !s.known[id] {
		return false
	}
	return s.apply(func(st *ColumnState) bool {
		if !explicit(st, id) {
			return false
		}
		delete(st.Sizes, id)
		return true
	})
}

// TogglePin pins a column to side, or unpins it if it is already pinned
// there. Pinning never changes the order.
func (s *ColumnStore) TogglePin(id string, side PinSide) bool {
	if !s.known[id] || (side != PinLeft && side != PinRight) {
		return false
	}
	return s.apply(func(st *ColumnState) bool {
		if st.Pinned[id] == side {
			delete(st.Pinned, id)
		} else {
			st.Pinned[id] = side
		}
		return true
	})
}

// Unpin removes any pin from the column.
func (s *ColumnStore) Unpin(id string) bool {
	return s.apply(func(st *ColumnState) bool {
		if _, ok := st.Pinned[id]; !ok {
			return false
		}
		delete(st.Pinned, id)
		return true
	})
}

func explicit(st *ColumnState, id string) bool {
	_, ok := st.Sizes[id]
	return ok
}

// ----------------------------------------------------------------------------
// validation
// ----------------------------------------------------------------------------

func validOrder(order []string, known map[string]bool) bool {
	if len(order) != len(known) {
		return false
	}
	seen := make(map[string]bool, len(order))
	for _, id := range order {
		if !known[id] || seen[id] {
			return false
		}
		seen[id] = true
	}
	return true
}

func validSort(sort SortState, known map[string]bool) bool {
	seen := make(map[string]bool, len(sort))
	for _, e := range sort {
		if !known[e.ColumnID] || seen[e.ColumnID] || e.Dir > Descending {
			return false
		}
		seen[e.ColumnID] = true
	}
	return true
}

func validGrouping(ids []string, known map[string]bool) bool {
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if !known[id] || seen[id] {
			return false
		}
		seen[id] = true
	}
	return true
}
