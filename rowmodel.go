package vgrid

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"slices"
	"strconv"

	"github.com/hashicorp/go-multierror"
)

// RowKind distinguishes leaf rows from synthetic group rows.
type RowKind uint8

const (
	LeafRow RowKind = iota
	GroupRow
)

func (k RowKind) String() string {
	if k == GroupRow {
		return "group"
	}
	return "leaf"
}

// Row is one display row: either a leaf wrapping a record, or a group
// bucketing leaf rows that share a grouping column value.
type Row[T any] struct {
	ID       string
	Kind     RowKind
	Depth    int
	ParentID string

	// leaf rows
	Index  int // position in the input record slice
	Record T

	// group rows
	GroupColumn string
	GroupValue  any // nil when the bucket holds rows with a missing value
	LeafCount   int
	Expanded    bool
	Aggregates  map[string]any
	SubRows     []*Row[T]

	cols    *ColumnSet[T]
	values  []any
	present []bool
}

// IsGroup reports whether the row is a group row.
func (r *Row[T]) IsGroup() bool { return r.Kind == GroupRow }

// Value returns the row's value for a column. For leaf rows it is the
// accessor result; for group rows it is the group key on the grouping column
// and the aggregate elsewhere. ok is false for missing values.
func (r *Row[T]) Value(columnID string) (any, bool) {
	if r.Kind == GroupRow {
		if columnID == r.GroupColumn {
			return r.GroupValue, r.GroupValue != nil
		}
		v, ok := r.Aggregates[columnID]
		return v, ok && v != nil
	}
	if r.cols == nil {
		return nil, false
	}
	i, ok := r.cols.position(columnID)
	if !ok || !r.present[i] {
		return nil, false
	}
	return r.values[i], true
}

// FilterFunc decides whether an evaluated leaf row takes part in sorting and
// grouping. Returning false drops the row from the model.
type FilterFunc[T any] func(row *Row[T]) bool

// ExpansionState records which group rows are collapsed. Groups not listed
// are expanded, so a freshly grouped model starts fully expanded.
type ExpansionState map[string]bool

// IsExpanded reports whether the group with the given id is expanded.
func (e ExpansionState) IsExpanded(id string) bool { return !e[id] }

// Clone returns an independent copy.
func (e ExpansionState) Clone() ExpansionState {
	out := make(ExpansionState, len(e))
	for k, v := range e {
		if v {
			out[k] = true
		}
	}
	return out
}

// ----------------------------------------------------------------------------
// pipeline
// ----------------------------------------------------------------------------

// Pipeline turns records plus sort and grouping state into display rows:
// evaluate -> filter -> sort -> group -> flatten.
type Pipeline[T any] struct {
	Columns *ColumnSet[T]
	Filter  FilterFunc[T]                // nil keeps every row
	RowKey  func(rec T, index int) string // nil uses the input index
}

// ComputeDisplayRows runs the default pipeline and returns the flattened rows.
func ComputeDisplayRows[T any](records []T, cols *ColumnSet[T], sort SortState, grouping GroupingState) []*Row[T] {
	p := &Pipeline[T]{Columns: cols}
	return p.Compute(records, sort, grouping, nil).Rows()
}

// Compute rebuilds the whole row model. expansion may be nil; it is copied,
// never retained.
func (p *Pipeline[T]) Compute(records []T, sort SortState, grouping GroupingState, expansion ExpansionState) *RowModel[T] {
	b := &modelBuilder[T]{
		cols:   p.Columns,
		used:   make(map[string]int, len(records)),
		expand: expansion.Clone(),
	}

	leaves := b.evaluate(records, p.RowKey)
	if p.Filter != nil {
		leaves = slices.DeleteFunc(leaves, func(r *Row[T]) bool { return !p.Filter(r) })
	}
	b.sort(leaves, sort)

	m := &RowModel[T]{
		leaves:    leaves,
		expansion: b.expand,
		byID:      make(map[string]*Row[T], len(leaves)),
	}
	groupCols := b.groupColumns(grouping)
	if len(groupCols) == 0 {
		m.tree = leaves
	} else {
		m.tree = b.group(leaves, groupCols, 0, "")
		m.grouped = true
	}
	m.index(m.tree)
	m.flatten()
	m.err = b.errs.ErrorOrNil()
	return m
}

type modelBuilder[T any] struct {
	cols   *ColumnSet[T]
	used   map[string]int
	expand ExpansionState
	errs   *multierror.Error
}

// uniqueID returns id, or id with a "#n" suffix if it was already handed out.
func (b *modelBuilder[T]) uniqueID(id string) string {
	n := b.used[id]
	b.used[id] = n + 1
	if n == 0 {
		return id
	}
	return b.uniqueID(id + "#" + strconv.Itoa(n))
}

func (b *modelBuilder[T]) evaluate(records []T, key func(T, int) string) []*Row[T] {
	leaves := b.cols.Leaves()
	rows := make([]*Row[T], len(records))
	for i, rec := range records {
		id := strconv.Itoa(i)
		if key != nil {
			id = key(rec, i)
		}
		row := &Row[T]{
			ID:      b.uniqueID(id),
			Kind:    LeafRow,
			Index:   i,
			Record:  rec,
			cols:    b.cols,
			values:  make([]any, len(leaves)),
			present: make([]bool, len(leaves)),
		}
		for ci, col := range leaves {
			v, err := safeAccess(col.Accessor, rec)
			if err != nil {
				if !errors.Is(err, ErrMissingValue) {
					b.errs = multierror.Append(b.errs, &AccessorError{ColumnID: col.ID, RowIndex: i, Err: err})
				}
				continue
			}
			row.values[ci] = v
			row.present[ci] = v != nil
		}
		rows[i] = row
	}
	return rows
}

type sortKey struct {
	pos  int
	cmp  CompareFunc
	desc bool
}

func (b *modelBuilder[T]) sort(rows []*Row[T], state SortState) {
	keys := make([]sortKey, 0, len(state))
	for _, e := range state {
		pos, ok := b.cols.position(e.ColumnID)
		if !ok {
			continue
		}
		keys = append(keys, sortKey{pos: pos, cmp: b.cols.leaves[pos].comparator(), desc: e.Dir == Descending})
	}
	if len(keys) == 0 {
		return
	}
	slices.SortStableFunc(rows, func(x, y *Row[T]) int {
		for _, k := range keys {
			c := compareCells(x.values[k.pos], x.present[k.pos], y.values[k.pos], y.present[k.pos], k.cmp)
			if k.desc {
				c = -c
			}
			if c != 0 {
				return c
			}
		}
		return 0
	})
}

// compareCells orders missing values below everything else.
func compareCells(a any, aok bool, b any, bok bool, cmp CompareFunc) int {
	switch {
	case !aok && !bok:
		return 0
	case !aok:
		return -1
	case !bok:
		return 1
	}
	return cmp(a, b)
}

func (b *modelBuilder[T]) groupColumns(grouping GroupingState) []int {
	out := make([]int, 0, len(grouping))
	for _, id := range grouping {
		pos, ok := b.cols.position(id)
		if ok && !slices.Contains(out, pos) {
			out = append(out, pos)
		}
	}
	return out
}

// group partitions rows by groupCols[level], recursing for deeper levels.
// Buckets keep the first-appearance order of the (already sorted) rows.
func (b *modelBuilder[T]) group(rows []*Row[T], groupCols []int, level int, parentID string) []*Row[T] {
	if level == len(groupCols) {
		for _, r := range rows {
			r.Depth = level
			r.ParentID = parentID
		}
		return rows
	}

	col := b.cols.leaves[groupCols[level]]
	pos := groupCols[level]

	type bucket struct {
		value any
		rows  []*Row[T]
	}
	var order []*bucket
	buckets := make(map[any]*bucket)
	for _, r := range rows {
		var k any = missingBucket{}
		if r.present[pos] {
			k = bucketKey(r.values[pos])
		}
		bk, ok := buckets[k]
		if !ok {
			bk = &bucket{}
			if r.present[pos] {
				bk.value = r.values[pos]
			}
			buckets[k] = bk
			order = append(order, bk)
		}
		bk.rows = append(bk.rows, r)
	}

	groups := make([]*Row[T], 0, len(order))
	for _, bk := range order {
		id := col.ID + ":" + groupLabel(bk.value)
		if parentID != "" {
			id = parentID + ">" + id
		}
		id = b.uniqueID(id)
		g := &Row[T]{
			ID:          id,
			Kind:        GroupRow,
			Depth:       level,
			ParentID:    parentID,
			GroupColumn: col.ID,
			GroupValue:  bk.value,
			LeafCount:   len(bk.rows),
			Expanded:    b.expand.IsExpanded(id),
			Aggregates:  b.aggregate(bk.rows, groupCols, id),
			cols:        b.cols,
		}
		g.SubRows = b.group(bk.rows, groupCols, level+1, id)
		groups = append(groups, g)
	}
	return groups
}

func (b *modelBuilder[T]) aggregate(rows []*Row[T], groupCols []int, groupID string) map[string]any {
	out := make(map[string]any, len(b.cols.leaves))
	values := make([]any, 0, len(rows))
	for ci, col := range b.cols.leaves {
		if slices.Contains(groupCols, ci) {
			continue
		}
		values = values[:0]
		for _, r := range rows {
			if r.present[ci] {
				values = append(values, r.values[ci])
			}
		}
		v, err := safeAggregate(col.aggregator(), values, len(rows))
		if err != nil {
			b.errs = multierror.Append(b.errs, fmt.Errorf("aggregate %q for group %q: %w", col.ID, groupID, err))
			continue
		}
		out[col.ID] = v
	}
	return out
}

func safeAggregate(fn Aggregator, values []any, rows int) (v any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("aggregator panic: %v", r)
		}
	}()
	return fn(slices.Clone(values), rows), nil
}

type (
	missingBucket struct{}
	nanBucket     struct{}
)

// bucketKey returns a map key for v. Numbers of any Go type compare by value
// and every NaN shares one key. Other comparable values key as themselves,
// the rest by their printed form.
func bucketKey(v any) any {
	if v == nil {
		return missingBucket{}
	}
	if f, ok := toFloat64(v); ok {
		switch {
		case math.IsNaN(f):
			return nanBucket{}
		case !exactFloat(v, f):
			// integer too large for a float64; keep it distinct
			return v
		}
		return f
	}
	if rv := reflect.ValueOf(v); rv.Comparable() {
		return v
	}
	return fmt.Sprintf("%T:%v", v, v)
}

// exactFloat reports whether f holds the numeric value v without rounding.
func exactFloat(v any, f float64) bool {
	switch n := v.(type) {
	case int:
		return f >= -(1<<63) && f < 1<<63 && int64(f) == int64(n)
	case int64:
		return f >= -(1<<63) && f < 1<<63 && int64(f) == n
	case uint:
		return f < 1<<64 && uint64(f) == uint64(n)
	case uint64:
		return f < 1<<64 && uint64(f) == n
	}
	return true
}

func groupLabel(v any) string {
	if v == nil {
		return "(missing)"
	}
	return fmt.Sprint(v)
}

// ----------------------------------------------------------------------------
// row model
// ----------------------------------------------------------------------------

// RowModel is the output of one pipeline run. Only expansion can change
// after construction; anything else requires a new Compute.
type RowModel[T any] struct {
	tree      []*Row[T]
	leaves    []*Row[T]
	flat      []*Row[T]
	byID      map[string]*Row[T]
	expansion ExpansionState
	grouped   bool
	err       error
}

// Rows returns the flattened display rows.
func (m *RowModel[T]) Rows() []*Row[T] { return m.flat }

// Len returns the number of flattened display rows.
func (m *RowModel[T]) Len() int { return len(m.flat) }

// At returns the display row at index i, or nil when out of range.
func (m *RowModel[T]) At(i int) *Row[T] {
	if i < 0 || i >= len(m.flat) {
		return nil
	}
	return m.flat[i]
}

// Tree returns the top-level rows: groups when grouped, leaves otherwise.
func (m *RowModel[T]) Tree() []*Row[T] { return m.tree }

// Leaves returns every leaf row after filtering and sorting, including those
// hidden inside collapsed groups.
func (m *RowModel[T]) Leaves() []*Row[T] { return m.leaves }

// OrderedLeaves returns every leaf row in display order, as if all groups
// were expanded.
func (m *RowModel[T]) OrderedLeaves() []*Row[T] {
	if !m.grouped {
		return m.leaves
	}
	out := make([]*Row[T], 0, len(m.leaves))
	var walk func(rows []*Row[T])
	walk = func(rows []*Row[T]) {
		for _, r := range rows {
			if r.Kind == GroupRow {
				walk(r.SubRows)
				continue
			}
			out = append(out, r)
		}
	}
	walk(m.tree)
	return out
}

// Grouped reports whether the model was built with an active grouping.
func (m *RowModel[T]) Grouped() bool { return m.grouped }

// Row looks a row up by id.
func (m *RowModel[T]) Row(id string) (*Row[T], bool) {
	r, ok := m.byID[id]
	return r, ok
}

// Expansion returns a copy of the collapsed-group set.
func (m *RowModel[T]) Expansion() ExpansionState { return m.expansion.Clone() }

// Err returns the accessor and aggregation failures collected while
// building the model, or nil.
func (m *RowModel[T]) Err() error { return m.err }

// SetExpanded expands or collapses a group row. It returns false when the id
// is not a group row or the state did not change.
func (m *RowModel[T]) SetExpanded(id string, expanded bool) bool {
	r, ok := m.byID[id]
	if !ok || r.Kind != GroupRow || r.Expanded == expanded {
		return false
	}
	r.Expanded = expanded
	if expanded {
		delete(m.expansion, id)
	} else {
		m.expansion[id] = true
	}
	m.flatten()
	return true
}

// ToggleExpanded flips a group row's expansion.
func (m *RowModel[T]) ToggleExpanded(id string) bool {
	r, ok := m.byID[id]
	if !ok || r.Kind != GroupRow {
		return false
	}
	return m.SetExpanded(id, !r.Expanded)
}

// ExpandAll expands every group row.
func (m *RowModel[T]) ExpandAll() {
	m.setAll(true)
}

// CollapseAll collapses every group row.
func (m *RowModel[T]) CollapseAll() {
	m.setAll(false)
}

// restoreExpansion applies a collapsed-group set to every group row.
func (m *RowModel[T]) restoreExpansion(e ExpansionState) {
	m.expansion = make(ExpansionState)
	for id, r := range m.byID {
		if r.Kind != GroupRow {
			continue
		}
		r.Expanded = e.IsExpanded(id)
		if !r.Expanded {
			m.expansion[id] = true
		}
	}
	m.flatten()
}

func (m *RowModel[T]) setAll(expanded bool) {
	for id, r := range m.byID {
		if r.Kind != GroupRow {
			continue
		}
		r.Expanded = expanded
		if expanded {
			delete(m.expansion, id)
		} else {
			m.expansion[id] = true
		}
	}
	m.flatten()
}

func (m *RowModel[T]) index(rows []*Row[T]) {
	for _, r := range rows {
		m.byID[r.ID] = r
		if r.Kind == GroupRow {
			m.index(r.SubRows)
		}
	}
}

// flatten walks the tree depth-first, descending only into expanded groups.
func (m *RowModel[T]) flatten() {
	flat := make([]*Row[T], 0, len(m.flat))
	var walk func(rows []*Row[T])
	walk = func(rows []*Row[T]) {
		for _, r := range rows {
			flat = append(flat, r)
			if r.Kind == GroupRow && r.Expanded {
				walk(r.SubRows)
			}
		}
	}
	walk(m.tree)
	m.flat = flat
}
