package vgrid

// VisibleColumn is a leaf column as laid out for display.
type VisibleColumn struct {
	ID      string
	Header  string
	Parent  string // column group id, if any
	Width   float64
	Left    float64 // x position within the full row
	Pin     PinSide
	Sticky  float64 // distance from the pinned edge; zero when unpinned
	Grouped bool
}

// CellKind says which renderer role produced a cell.
type CellKind uint8

const (
	CellValue       CellKind = iota // leaf row value
	CellGrouped                     // group row on its own grouping column
	CellAggregated                  // group row on a regular column
	CellPlaceholder                 // grouped column on a row that is not its group
)

func (k CellKind) String() string {
	switch k {
	case CellGrouped:
		return "grouped"
	case CellAggregated:
		return "aggregated"
	case CellPlaceholder:
		return "placeholder"
	default:
		return "value"
	}
}

// Cell is one rendered cell.
type Cell struct {
	ColumnID string
	Kind     CellKind
	Text     string
	Value    any
	Missing  bool
	Align    Align
	Style    Style
	Styled   bool // Style was set by the column
}

// VisibleRow is a display row inside the window.
type VisibleRow[T any] struct {
	*Row[T]
	Position int // index in the flattened display rows
	Top      float64
	Height   float64
	Cells    []Cell
}

// View is everything a host needs to draw one frame.
type View[T any] struct {
	Columns    []VisibleColumn
	HeaderRows [][]HeaderCell
	Summary    []string // nil without a summary row
	Rows       []VisibleRow[T]
	Footer     []string // nil when no column has a footer
	Window     Window
	TotalWidth float64
	Offset     float64
	Viewport   float64
	Preview    Preview
	Accessory  Accessory
}

// View composes the current frame.
func (g *Grid[T]) View() View[T] {
	m := g.Model()
	st := g.store.Snapshot()
	cols := g.visibleColumns(st)
	win := g.windower.Window(g.offset, g.viewport)

	v := View[T]{
		Columns:    cols,
		HeaderRows: headerRows(g.cols, cols, st),
		Window:     win,
		Offset:     g.offset,
		Viewport:   g.viewport,
		Preview:    g.drag.Preview(),
		Accessory:  g.Accessory(),
	}
	for _, c := range cols {
		v.TotalWidth += c.Width
	}
	if g.summary != nil {
		v.Summary = make([]string, len(cols))
		for i, c := range cols {
			v.Summary[i] = g.summary[c.ID]
		}
	}
	v.Footer = g.footer(cols)

	v.Rows = make([]VisibleRow[T], 0, win.Len())
	for i := win.First; i <= win.Last; i++ {
		r := m.At(i)
		if r == nil {
			break
		}
		v.Rows = append(v.Rows, VisibleRow[T]{
			Row:      r,
			Position: i,
			Top:      g.windower.Offset(i),
			Height:   g.windower.Height(i),
			Cells:    g.cells(r, cols),
		})
	}
	if g.slot != nil {
		g.slot.publish(v.Accessory)
	}
	return v
}

// visibleColumns orders leaf columns for display: grouped columns first in
// grouping order, then left-pinned, unpinned and right-pinned columns, each
// in column order.
func (g *Grid[T]) visibleColumns(st ColumnState) []VisibleColumn {
	var grouped, left, center, right []string
	for _, id := range st.Grouping {
		if g.store.Has(id) {
			grouped = append(grouped, id)
		}
	}
	for _, id := range st.Order {
		if st.Grouping.Contains(id) {
			continue
		}
		switch st.PinSide(id) {
		case PinLeft:
			left = append(left, id)
		case PinRight:
			right = append(right, id)
		default:
			center = append(center, id)
		}
	}

	out := make([]VisibleColumn, 0, len(st.Order))
	var x float64
	add := func(ids []string) {
		for _, id := range ids {
			c, ok := g.cols.Lookup(id)
			if !ok {
				continue
			}
			w := g.store.widthIn(st, id)
			out = append(out, VisibleColumn{
				ID:      id,
				Header:  c.Header,
				Parent:  c.Parent(),
				Width:   w,
				Left:    x,
				Pin:     st.PinSide(id),
				Grouped: st.Grouping.Contains(id),
			})
			x += w
		}
	}
	add(grouped)
	add(left)
	add(center)
	add(right)

	// sticky offsets accumulate from each pinned edge
	var fromLeft float64
	for i := range out {
		if out[i].Pin == PinLeft {
			out[i].Sticky = fromLeft
			fromLeft += out[i].Width
		}
	}
	var fromRight float64
	for i := len(out) - 1; i >= 0; i-- {
		if out[i].Pin == PinRight {
			out[i].Sticky = fromRight
			fromRight += out[i].Width
		}
	}
	return out
}

func visibleIDs(cols []VisibleColumn) []string {
	ids := make([]string, len(cols))
	for i, c := range cols {
		ids[i] = c.ID
	}
	return ids
}

func (g *Grid[T]) footer(cols []VisibleColumn) []string {
	out := make([]string, len(cols))
	has := false
	for i, vc := range cols {
		c, ok := g.cols.Lookup(vc.ID)
		if !ok {
			continue
		}
		out[i] = c.renderer().Footer(c)
		has = has || out[i] != ""
	}
	if !has {
		return nil
	}
	return out
}

// cells renders one row. Which renderer role applies depends on the row
// kind and on whether the column is grouped.
func (g *Grid[T]) cells(r *Row[T], cols []VisibleColumn) []Cell {
	out := make([]Cell, len(cols))
	for i, vc := range cols {
		col, ok := g.cols.Lookup(vc.ID)
		if !ok {
			continue
		}
		cell := Cell{ColumnID: vc.ID}
		ctx := CellContext[T]{Column: col, Row: r}
		switch {
		case r.IsGroup() && vc.ID == r.GroupColumn:
			cell.Kind = CellGrouped
			ctx.Value, ctx.Missing = r.GroupValue, r.GroupValue == nil
			cell.Text = col.renderer().GroupedCell(ctx)
		case vc.Grouped:
			cell.Kind = CellPlaceholder
		case r.IsGroup():
			cell.Kind = CellAggregated
			v, ok := r.Value(vc.ID)
			ctx.Value, ctx.Missing = v, !ok
			cell.Text = col.renderer().AggregatedCell(ctx)
		default:
			cell.Kind = CellValue
			v, ok := r.Value(vc.ID)
			ctx.Value, ctx.Missing = v, !ok
			cell.Text = col.renderer().Cell(ctx)
			if ok {
				cell.Style, cell.Styled = col.CellStyle(v)
			}
		}
		cell.Value, cell.Missing = ctx.Value, ctx.Missing
		cell.Align = col.Alignment(ctx.Value)
		if cell.Kind == CellGrouped {
			cell.Align = AlignLeft
		}
		out[i] = cell
	}
	return out
}
