package vgrid

import (
	"fmt"
	"strconv"
)

// CellContext is what a renderer gets for one cell.
type CellContext[T any] struct {
	Column  *Column[T]
	Row     *Row[T]
	Value   any  // accessor value, group key, or aggregate depending on the cell
	Missing bool // Value is absent
}

// CellRenderer renders the parts of a column. Each method covers one role,
// so a column can override only the roles it cares about by embedding
// TextCells.
type CellRenderer[T any] interface {
	Header(col *Column[T]) string
	Footer(col *Column[T]) string
	Cell(ctx CellContext[T]) string
	AggregatedCell(ctx CellContext[T]) string
	GroupedCell(ctx CellContext[T]) string
}

// TextCells is the default renderer. Values go through the column's
// formatter; grouped cells show the group key and its leaf count.
type TextCells[T any] struct{}

func (TextCells[T]) Header(col *Column[T]) string { return col.Header }

func (TextCells[T]) Footer(col *Column[T]) string { return col.Footer }

func (TextCells[T]) Cell(ctx CellContext[T]) string {
	return ctx.Column.FormatValue(ctx.Value, !ctx.Missing)
}

func (TextCells[T]) AggregatedCell(ctx CellContext[T]) string {
	if ctx.Missing {
		return ""
	}
	if n, ok := ctx.Value.(int); ok && ctx.Column.Aggregate == nil {
		// default count: not a value of the column, so skip its formatter
		return insertCommas(strconv.Itoa(n))
	}
	if e, ok := ctx.Value.(Extent); ok {
		return ctx.Column.FormatValue(e.Min, e.Min != nil) + " - " + ctx.Column.FormatValue(e.Max, e.Max != nil)
	}
	return ctx.Column.FormatValue(ctx.Value, true)
}

func (TextCells[T]) GroupedCell(ctx CellContext[T]) string {
	label := groupLabel(ctx.Value)
	if !ctx.Missing {
		label = ctx.Column.FormatValue(ctx.Value, true)
	}
	return fmt.Sprintf("%s (%d)", label, ctx.Row.LeafCount)
}
