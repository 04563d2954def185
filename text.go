package vgrid

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// TextStyles are the lipgloss styles a TextRenderer draws with.
type TextStyles struct {
	Header      lipgloss.Style
	GroupHeader lipgloss.Style
	Cell        lipgloss.Style
	AltRow      lipgloss.Style
	Selected    lipgloss.Style
	GroupRow    lipgloss.Style
	Summary     lipgloss.Style
	Footer      lipgloss.Style
	Pinned      lipgloss.Style
	DragSource  lipgloss.Style
	DropTarget  lipgloss.Style
	Zone        lipgloss.Style
	ZoneActive  lipgloss.Style
	Chip        lipgloss.Style
}

// DefaultTextStyles returns the styles used by NewTextRenderer.
func DefaultTextStyles() TextStyles {
	return TextStyles{
		Header:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("238")),
		GroupHeader: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("240")),
		Cell:        lipgloss.NewStyle(),
		AltRow:      lipgloss.NewStyle().Background(lipgloss.Color("235")),
		Selected:    lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("111")),
		GroupRow:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("147")),
		Summary:     lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Background(lipgloss.Color("240")),
		Footer:      lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("245")),
		Pinned:      lipgloss.NewStyle().Foreground(lipgloss.Color("229")),
		DragSource:  lipgloss.NewStyle().Faint(true).Background(lipgloss.Color("238")),
		DropTarget:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("62")),
		Zone:        lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		ZoneActive:  lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Background(lipgloss.Color("62")),
		Chip:        lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Background(lipgloss.Color("61")),
	}
}

// TextRenderer draws a View as terminal lines. Column widths and row
// heights are in cells and lines, so a grid drawn this way should use a
// row height of 1 and a width estimator such as TextWidthEstimator.
type TextRenderer[T any] struct {
	Styles    TextStyles
	Selected  func(row *Row[T]) bool // nil selects nothing
	Alternate bool                   // shade every other leaf row
	Separator string

	// ScrollColumns skips this many unpinned columns from the left.
	ScrollColumns int
}

// NewTextRenderer creates a renderer with the default styles.
func NewTextRenderer[T any]() *TextRenderer[T] {
	return &TextRenderer[T]{Styles: DefaultTextStyles(), Alternate: true, Separator: " "}
}

// textColumn is a column placed on screen.
type textColumn struct {
	index int // into View.Columns
	width int // content width, separator excluded
}

// layout picks the columns that fit in width: every pinned column, then as
// many unpinned columns as fit after the scrolled-past ones.
func (r *TextRenderer[T]) layout(v View[T], width int) []textColumn {
	sep := runewidth.StringWidth(r.Separator)
	cell := func(i int) textColumn {
		return textColumn{index: i, width: max(1, int(v.Columns[i].Width)-sep)}
	}

	var left, mid, right []textColumn
	used := 0
	for i, c := range v.Columns {
		switch c.Pin {
		case PinLeft:
			left = append(left, cell(i))
			used += left[len(left)-1].width + sep
		case PinRight:
			right = append(right, cell(i))
			used += right[len(right)-1].width + sep
		}
	}

	skip := max(0, r.ScrollColumns)
	for i, c := range v.Columns {
		if c.Pin != PinNone {
			continue
		}
		if skip > 0 {
			skip--
			continue
		}
		tc := cell(i)
		if width > 0 && used+tc.width+sep > width {
			if rest := width - used - sep; rest > 0 {
				tc.width = rest
				mid = append(mid, tc)
			}
			break
		}
		used += tc.width + sep
		mid = append(mid, tc)
	}

	out := make([]textColumn, 0, len(left)+len(mid)+len(right))
	out = append(out, left...)
	out = append(out, mid...)
	return append(out, right...)
}

// Render draws the header rows, summary, visible rows and footer. width
// limits the line width; zero means unlimited.
func (r *TextRenderer[T]) Render(v View[T], width int) string {
	cols := r.layout(v, width)
	var lines []string

	for depth, row := range v.HeaderRows {
		if depth < len(v.HeaderRows)-1 {
			lines = append(lines, r.groupHeaderLine(v, row, cols))
			continue
		}
		lines = append(lines, r.headerLine(v, row, cols))
	}
	if v.Summary != nil {
		lines = append(lines, r.line(cols, func(tc textColumn) (string, Align, lipgloss.Style) {
			return v.Summary[tc.index], AlignLeft, r.Styles.Summary
		}))
	}

	leaf := 0
	for _, row := range v.Rows {
		base := r.Styles.Cell
		switch {
		case r.Selected != nil && r.Selected(row.Row):
			base = r.Styles.Selected
		case row.IsGroup():
			base = r.Styles.GroupRow
		case r.Alternate && leaf%2 == 1:
			base = r.Styles.AltRow
		}
		if !row.IsGroup() {
			leaf++
		}
		lines = append(lines, r.line(cols, func(tc textColumn) (string, Align, lipgloss.Style) {
			cell := row.Cells[tc.index]
			text := cell.Text
			if cell.Kind == CellGrouped {
				marker := "▸ "
				if row.Expanded {
					marker = "▾ "
				}
				text = strings.Repeat("  ", row.Depth) + marker + text
			}
			style := base
			if cell.Styled {
				style = cell.Style.Inherit(base)
			} else if v.Columns[tc.index].Pin != PinNone && !row.IsGroup() {
				style = r.Styles.Pinned.Inherit(base)
			}
			return text, cell.Align, style
		}))
	}

	if v.Footer != nil {
		lines = append(lines, r.line(cols, func(tc textColumn) (string, Align, lipgloss.Style) {
			return v.Footer[tc.index], AlignLeft, r.Styles.Footer
		}))
	}
	return strings.Join(lines, "\n")
}

func (r *TextRenderer[T]) headerLine(v View[T], cells []HeaderCell, cols []textColumn) string {
	multi := sortCount(cells) > 1
	return r.line(cols, func(tc textColumn) (string, Align, lipgloss.Style) {
		c := v.Columns[tc.index]
		h := cells[tc.index]
		label := h.Label
		if h.Sorted {
			if h.SortDir == Descending {
				label += " ▼"
			} else {
				label += " ▲"
			}
			if multi {
				label += strconv.Itoa(h.SortPriority + 1)
			}
		}
		style := r.Styles.Header
		switch {
		case v.Preview.Source == c.ID:
			style = r.Styles.DragSource
		case v.Preview.Target.Kind == TargetColumn && v.Preview.Target.ColumnID == c.ID:
			style = r.Styles.DropTarget
		}
		return label, AlignLeft, style
	})
}

func sortCount(cells []HeaderCell) int {
	n := 0
	for _, c := range cells {
		if c.Sorted {
			n++
		}
	}
	return n
}

// groupHeaderLine draws a group header row. A group cell covers every
// on-screen column it spans, so its label is centred over what is visible.
func (r *TextRenderer[T]) groupHeaderLine(v View[T], cells []HeaderCell, cols []textColumn) string {
	owner := make(map[string]int, len(v.Columns))
	for ci, hc := range cells {
		for _, id := range hc.Columns {
			owner[id] = ci
		}
	}
	sep := runewidth.StringWidth(r.Separator)

	var b strings.Builder
	for i := 0; i < len(cols); {
		ci := owner[v.Columns[cols[i].index].ID]
		hc := cells[ci]
		w := cols[i].width
		j := i + 1
		for j < len(cols) && owner[v.Columns[cols[j].index].ID] == ci {
			w += sep + cols[j].width
			j++
		}
		label, style := hc.Label, r.Styles.GroupHeader
		if hc.Placeholder {
			label = ""
		}
		b.WriteString(style.Render(fit(label, w, AlignCenter)))
		if j < len(cols) {
			b.WriteString(r.Separator)
		}
		i = j
	}
	return b.String()
}

func (r *TextRenderer[T]) line(cols []textColumn, cell func(textColumn) (string, Align, lipgloss.Style)) string {
	var b strings.Builder
	for i, tc := range cols {
		text, align, style := cell(tc)
		b.WriteString(style.Render(fit(text, tc.width, align)))
		if i < len(cols)-1 {
			b.WriteString(style.Render(r.Separator))
		}
	}
	return b.String()
}

// fit truncates or pads text to exactly width cells.
func fit(text string, width int, align Align) string {
	if width <= 0 {
		return ""
	}
	text = strings.ReplaceAll(text, "\n", " ")
	if runewidth.StringWidth(text) > width {
		text = runewidth.Truncate(text, width, "…")
	}
	switch align {
	case AlignRight:
		return runewidth.FillLeft(text, width)
	case AlignCenter:
		pad := width - runewidth.StringWidth(text)
		return strings.Repeat(" ", pad/2) + runewidth.FillRight(text, width-pad/2)
	default:
		return runewidth.FillRight(text, width)
	}
}

// RenderZone draws the grouping zone: the chips, or the prompt when nothing
// is grouped. active highlights it as a drop target; width pads the prompt.
func (r *TextRenderer[T]) RenderZone(a Accessory, active bool, width int) string {
	style := r.Styles.Zone
	if active {
		style = r.Styles.ZoneActive
	}
	if len(a.Chips) == 0 {
		return style.Render(fit(a.Prompt, max(width, runewidth.StringWidth(a.Prompt)), AlignLeft))
	}
	parts := make([]string, 0, len(a.Chips)+1)
	parts = append(parts, style.Render("Groups:"))
	for _, c := range a.Chips {
		parts = append(parts, r.Styles.Chip.Render(" "+c.Label+" × "))
	}
	return strings.Join(parts, " ")
}

// ----------------------------------------------------------------------------
// width estimation
// ----------------------------------------------------------------------------

const (
	minTextColumnWidth = 6
	maxTextColumnWidth = 40
)

// TextWidthEstimator measures headers and the first sample records with
// runewidth and returns a width estimator for WithWidthEstimator. Widths
// include room for a sort indicator and the column separator.
func TextWidthEstimator[T any](cols *ColumnSet[T], records []T, sample int) func(id string) float64 {
	if sample <= 0 || sample > len(records) {
		sample = len(records)
	}
	widths := make(map[string]float64, len(cols.Leaves()))
	for _, c := range cols.Leaves() {
		w := runewidth.StringWidth(c.Header) + 2
		for _, rec := range records[:sample] {
			v, err := safeAccess(c.Accessor, rec)
			if err != nil {
				continue
			}
			if cw := runewidth.StringWidth(c.FormatValue(v, v != nil)); cw > w {
				w = cw
			}
		}
		widths[c.ID] = float64(min(max(w, minTextColumnWidth), maxTextColumnWidth) + 1)
	}
	return func(id string) float64 { return widths[id] }
}
