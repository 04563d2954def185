package vgrid

import (
	"fmt"
)

// Accessor extracts the value a column shows for a record.
// Returning an error (or panicking) marks the value as missing for that row.
type Accessor[T any] func(rec T) (any, error)

// ColumnMeta carries layout hints that the core passes through to renderers.
type ColumnMeta struct {
	Width     float64 // initial width; zero means estimate
	MinWidth  float64
	MaxWidth  float64 // zero means unbounded
	ClassName string
	Flush     bool // render without cell padding
}

// ColumnSpec is the non-generic part of a column definition. ColumnOptions
// operate on it so presets like Number or Currency work for any record type.
type ColumnSpec struct {
	Header    string
	Footer    string
	Meta      ColumnMeta
	Aggregate Aggregator  // nil means Count
	Compare   CompareFunc // nil means CompareValues

	align    Align
	hasAlign bool
	format   func(any) string
	style    func(any) Style
}

// ColumnOption configures a column.
type ColumnOption func(*ColumnSpec)

// Column is a leaf column definition.
type Column[T any] struct {
	ColumnSpec

	ID       string
	Accessor Accessor[T]
	Renderer CellRenderer[T] // nil means TextCells

	parent string
}

// NewColumn creates a leaf column. The header defaults to the id.
func NewColumn[T any](id string, accessor Accessor[T], opts ...ColumnOption) *Column[T] {
	c := &Column[T]{ID: id, Accessor: accessor}
	c.Header = id
	for _, opt := range opts {
		opt(&c.ColumnSpec)
	}
	return c
}

// WithRenderer replaces the column's cell renderer.
func (c *Column[T]) WithRenderer(r CellRenderer[T]) *Column[T] {
	c.Renderer = r
	return c
}

// Parent returns the id of the column group this column was declared in, if any.
func (c *Column[T]) Parent() string { return c.parent }

func (c *Column[T]) renderer() CellRenderer[T] {
	if c.Renderer != nil {
		return c.Renderer
	}
	return TextCells[T]{}
}

func (c *Column[T]) aggregator() Aggregator {
	if c.Aggregate != nil {
		return c.Aggregate
	}
	return Count
}

func (c *Column[T]) comparator() CompareFunc {
	if c.Compare != nil {
		return c.Compare
	}
	return CompareValues
}

// Header sets the header label.
func Header(label string) ColumnOption { return func(s *ColumnSpec) { s.Header = label } }

// Footer sets the footer label.
func Footer(label string) ColumnOption { return func(s *ColumnSpec) { s.Footer = label } }

// Width sets the initial column width.
func Width(w float64) ColumnOption { return func(s *ColumnSpec) { s.Meta.Width = w } }

// MinWidth sets the lower bound used when resizing.
func MinWidth(w float64) ColumnOption { return func(s *ColumnSpec) { s.Meta.MinWidth = w } }

// MaxWidth sets the upper bound used when resizing.
func MaxWidth(w float64) ColumnOption { return func(s *ColumnSpec) { s.Meta.MaxWidth = w } }

// ClassName attaches a host-specific class name.
func ClassName(name string) ColumnOption { return func(s *ColumnSpec) { s.Meta.ClassName = name } }

// Flush disables cell padding for the column.
func Flush() ColumnOption { return func(s *ColumnSpec) { s.Meta.Flush = true } }

// AggregateWith sets the aggregation used for group rows.
func AggregateWith(fn Aggregator) ColumnOption { return func(s *ColumnSpec) { s.Aggregate = fn } }

// CompareWith sets the sort comparator.
func CompareWith(fn CompareFunc) ColumnOption { return func(s *ColumnSpec) { s.Compare = fn } }

// ----------------------------------------------------------------------------
// column groups
// ----------------------------------------------------------------------------

// ColumnGroup is a parent header spanning a fixed list of leaf columns.
type ColumnGroup[T any] struct {
	ID      string
	Header  string
	Columns []*Column[T]
}

// Group declares a column group. Groups only nest one level deep.
func Group[T any](id, header string, cols ...*Column[T]) *ColumnGroup[T] {
	return &ColumnGroup[T]{ID: id, Header: header, Columns: cols}
}

// ColumnDef is either a *Column or a *ColumnGroup.
type ColumnDef[T any] interface {
	defID() string
}

func (c *Column[T]) defID() string      { return c.ID }
func (g *ColumnGroup[T]) defID() string { return g.ID }

// ----------------------------------------------------------------------------
// column set
// ----------------------------------------------------------------------------

// ColumnSet is the validated, immutable set of columns a grid is built from.
type ColumnSet[T any] struct {
	leaves []*Column[T]
	byID   map[string]*Column[T]
	pos    map[string]int
	groups map[string]*ColumnGroup[T]
}

// NewColumnSet validates the definitions and flattens them into leaf columns.
// Column and group ids share one namespace and must be unique and non-empty.
func NewColumnSet[T any](defs ...ColumnDef[T]) (*ColumnSet[T], error) {
	s := &ColumnSet[T]{
		byID:   make(map[string]*Column[T]),
		pos:    make(map[string]int),
		groups: make(map[string]*ColumnGroup[T]),
	}
	seen := make(map[string]bool)
	claim := func(id string) error {
		if id == "" {
			return ErrEmptyColumnID
		}
		if seen[id] {
			return fmt.Errorf("%w: %q", ErrDuplicateColumn, id)
		}
		seen[id] = true
		return nil
	}
	addLeaf := func(c *Column[T], parent string) error {
		if err := claim(c.ID); err != nil {
			return err
		}
		c.parent = parent
		s.pos[c.ID] = len(s.leaves)
		s.leaves = append(s.leaves, c)
		s.byID[c.ID] = c
		return nil
	}

	for _, def := range defs {
		switch d := def.(type) {
		case *Column[T]:
			if err := addLeaf(d, ""); err != nil {
				return nil, err
			}
		case *ColumnGroup[T]:
			if err := claim(d.ID); err != nil {
				return nil, err
			}
			s.groups[d.ID] = d
			for _, c := range d.Columns {
				if err := addLeaf(c, d.ID); err != nil {
					return nil, err
				}
			}
		}
	}
	if len(s.leaves) == 0 {
		return nil, ErrNoColumns
	}
	return s, nil
}

// Leaves returns leaf columns in declaration order.
func (s *ColumnSet[T]) Leaves() []*Column[T] { return s.leaves }

// IDs returns leaf column ids in declaration order.
func (s *ColumnSet[T]) IDs() []string {
	ids := make([]string, len(s.leaves))
	for i, c := range s.leaves {
		ids[i] = c.ID
	}
	return ids
}

// Lookup returns the leaf column with the given id.
func (s *ColumnSet[T]) Lookup(id string) (*Column[T], bool) {
	c, ok := s.byID[id]
	return c, ok
}

// position returns the index of a leaf column in declaration order.
func (s *ColumnSet[T]) position(id string) (int, bool) {
	i, ok := s.pos[id]
	return i, ok
}

// GroupOf returns the column group a leaf was declared in.
func (s *ColumnSet[T]) GroupOf(id string) (*ColumnGroup[T], bool) {
	c, ok := s.byID[id]
	if !ok || c.parent == "" {
		return nil, false
	}
	g, ok := s.groups[c.parent]
	return g, ok
}

// HasGroups reports whether any column group was declared.
func (s *ColumnSet[T]) HasGroups() bool { return len(s.groups) > 0 }

// ordered resolves ids to columns, skipping unknown ids.
func (s *ColumnSet[T]) ordered(ids []string) []*Column[T] {
	out := make([]*Column[T], 0, len(ids))
	for _, id := range ids {
		if c, ok := s.byID[id]; ok {
			out = append(out, c)
		}
	}
	return out
}
