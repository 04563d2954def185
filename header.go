package vgrid

// HeaderCell is one cell of a header row. Group cells span the leaf columns
// declared under them; placeholder cells fill the group row above leaves
// that have no group.
type HeaderCell struct {
	ID          string // leaf column id, or group id
	Label       string
	Span        int
	Width       float64
	Pin         PinSide
	Placeholder bool
	Group       bool
	Columns     []string // leaf columns covered, in display order

	// leaf cells only
	Sorted       bool
	SortDir      Direction
	SortPriority int // zero-based; only meaningful with more than one sort entry
	Grouped      bool
}

// headerRows lays out the header for columns in display order: a single
// leaf row, or a group row above it when any column group was declared.
func headerRows[T any](set *ColumnSet[T], cols []VisibleColumn, st ColumnState) [][]HeaderCell {
	leaves := make([]HeaderCell, 0, len(cols))
	for _, vc := range cols {
		col, ok := set.Lookup(vc.ID)
		if !ok {
			continue
		}
		dir, prio, sorted := st.Sort.Lookup(vc.ID)
		leaves = append(leaves, HeaderCell{
			ID:           vc.ID,
			Label:        col.renderer().Header(col),
			Span:         1,
			Width:        vc.Width,
			Pin:          vc.Pin,
			Columns:      []string{vc.ID},
			Sorted:       sorted,
			SortDir:      dir,
			SortPriority: prio,
			Grouped:      vc.Grouped,
		})
	}
	if !set.HasGroups() {
		return [][]HeaderCell{leaves}
	}

	top := make([]HeaderCell, 0, len(leaves))
	for i, leaf := range leaves {
		g, grouped := set.GroupOf(leaf.ID)
		if grouped && i > 0 {
			// extend the previous cell when the group continues on the same pin side
			prev := &top[len(top)-1]
			if prev.Group && prev.ID == g.ID && prev.Pin == leaf.Pin {
				prev.Span++
				prev.Width += leaf.Width
				prev.Columns = append(prev.Columns, leaf.ID)
				continue
			}
		}
		cell := HeaderCell{
			ID:      leaf.ID,
			Span:    1,
			Width:   leaf.Width,
			Pin:     leaf.Pin,
			Columns: []string{leaf.ID},
		}
		if grouped {
			cell.ID = g.ID
			cell.Label = g.Header
			cell.Group = true
		} else {
			cell.Placeholder = true
		}
		top = append(top, cell)
	}
	return [][]HeaderCell{top, leaves}
}
