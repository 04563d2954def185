package main

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"vgrid"
)

// styles
var (
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	focusStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
)

// backgroundRows is the dataset size from which sorting and grouping are
// computed on a worker instead of inside the key handler.
const backgroundRows = 50_000

func newRunCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Browse the dataset interactively",
		RunE: func(cmd *cobra.Command, _ []string) error {
			background := len(a.people) >= backgroundRows
			slot := vgrid.NewSlot()
			g, err := a.newGrid(slot, vgrid.WithBackgroundRows(background))
			if err != nil {
				return err
			}
			defer g.Close()

			m := newModel(g, slot)
			if background {
				m.worker = vgrid.NewWorker(g.Pipeline(), a.logger)
				defer m.worker.Close()
				a.logger.Debug("row model runs on a worker", "rows", len(a.people))
			}
			if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
				return fmt.Errorf("run ui: %w", err)
			}
			return nil
		},
	}
}

type model struct {
	grid   *vgrid.Grid[Person]
	text   *vgrid.TextRenderer[Person]
	slot   *vgrid.Slot
	width  int
	height int

	cursor   int // display row
	focus    int // index into the view's columns
	selected map[string]bool
	status   string
	zone     bool // drag is hovering the grouping zone

	worker *vgrid.Worker[Person] // nil for small datasets
	busy   bool
}

// rowsMsg carries a row model built by the worker.
type rowsMsg vgrid.Result[Person]

func newModel(g *vgrid.Grid[Person], slot *vgrid.Slot) *model {
	m := &model{
		grid:     g,
		text:     vgrid.NewTextRenderer[Person](),
		slot:     slot,
		selected: make(map[string]bool),
	}
	m.text.Selected = func(r *vgrid.Row[Person]) bool {
		return m.selected[r.ID] || m.cursorRow() == r
	}
	return m
}

func (m *model) Init() tea.Cmd { return nil }

// chrome is the number of lines around the scrolling body: grouping zone,
// header rows, summary, footer and status line.
func (m *model) chrome() int {
	v := m.grid.View()
	n := 2 + len(v.HeaderRows)
	if v.Summary != nil {
		n++
	}
	if v.Footer != nil {
		n++
	}
	return n
}

func (m *model) resize() {
	m.grid.OnScroll(m.grid.ScrollOffset(), float64(max(1, m.height-m.chrome())))
	m.grid.ScrollToIndex(m.cursor, vgrid.AlignAuto)
}

func (m *model) cursorRow() *vgrid.Row[Person] {
	return m.grid.Model().At(m.cursor)
}

func (m *model) columns() []vgrid.VisibleColumn {
	return m.grid.View().Columns
}

func (m *model) focused() string {
	cols := m.columns()
	if len(cols) == 0 {
		return ""
	}
	m.focus = min(max(m.focus, 0), len(cols)-1)
	return cols[m.focus].ID
}

func (m *model) moveCursor(delta int) {
	n := m.grid.Model().Len()
	if n == 0 {
		m.cursor = 0
		return
	}
	m.cursor = min(max(m.cursor+delta, 0), n-1)
	m.grid.ScrollToIndex(m.cursor, vgrid.AlignAuto)
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return m, nil
	case tea.KeyMsg:
		if m.grid.Drag().Phase() == vgrid.DragDragging {
			return m.updateDrag(msg)
		}
		return m.updateGrid(msg)
	case rowsMsg:
		if m.worker.IsLatest(msg.ID) {
			m.busy = false
		}
		if m.grid.Install(msg.Request, msg.Model, msg.Took) {
			m.moveCursor(0)
			m.resize()
		}
	}
	return m, nil
}

// recompute hands changed sort or grouping to the worker. The grid keeps
// showing the previous rows until the result is installed.
func (m *model) recompute() tea.Cmd {
	if m.worker == nil {
		return nil
	}
	req, ok := m.grid.PendingRequest()
	if !ok {
		return nil
	}
	id := m.worker.Dispatch(context.Background(), req)
	if id == 0 {
		return nil
	}
	m.busy = true
	w := m.worker
	return func() tea.Msg {
		res, err := w.Wait(context.Background(), id)
		if err != nil {
			return nil
		}
		return rowsMsg(res)
	}
}

func (m *model) updateGrid(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	page := max(1, int(m.grid.Viewport())-1)
	id := m.focused()
	var cmd tea.Cmd

	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "up", "k":
		m.moveCursor(-1)
	case "down", "j":
		m.moveCursor(1)
	case "pgup":
		m.moveCursor(-page)
	case "pgdown", " ":
		m.moveCursor(page)
	case "home":
		m.moveCursor(-m.cursor)
	case "end":
		m.moveCursor(m.grid.Model().Len())
	case "left", "h":
		m.focus--
		m.scrollToFocus()
	case "right", "l":
		m.focus++
		m.scrollToFocus()
	case "s":
		m.report(m.grid.ToggleSort(id, false), "sort %s", id)
		cmd = m.recompute()
	case "S":
		m.report(m.grid.ToggleSort(id, true), "add sort %s", id)
		cmd = m.recompute()
	case "g":
		m.report(m.grid.ToggleGrouping(id), "grouping %s", id)
		m.cursor = 0
		m.grid.Scroll(0)
		cmd = m.recompute()
	case "[":
		m.report(m.grid.TogglePin(id, vgrid.PinLeft), "pin %s left", id)
	case "]":
		m.report(m.grid.TogglePin(id, vgrid.PinRight), "pin %s right", id)
	case "+", "=":
		m.resizeColumn(id, 1)
	case "-":
		m.resizeColumn(id, -1)
	case "0":
		m.report(m.grid.Store().ResetSize(id), "reset width of %s", id)
	case "m":
		if m.grid.Drag().Begin(id) {
			m.zone = false
			m.status = "moving " + id + ": ←/→ pick a target, z group zone, enter drop, esc cancel"
		}
	case "u":
		m.report(m.grid.Store().Undo(), "undo")
		cmd = m.recompute()
	case "enter":
		if r := m.cursorRow(); r != nil && r.IsGroup() {
			m.grid.ToggleExpanded(r.ID)
		}
	case "x":
		if r := m.cursorRow(); r != nil && !r.IsGroup() {
			m.selected[r.ID] = !m.selected[r.ID]
		}
	case "e":
		m.grid.ExpandAll()
	case "E":
		m.grid.CollapseAll()
		m.cursor = min(m.cursor, max(0, m.grid.Model().Len()-1))
	}
	m.resize()
	return m, cmd
}

// updateDrag handles keys while a column is being moved. The hover target
// walks across the header; nothing changes until the drop.
func (m *model) updateDrag(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	d := m.grid.Drag()
	cols := m.columns()
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		d.Cancel()
		m.status = "move cancelled"
		return m, nil
	case "left", "h":
		m.focus = max(0, m.focus-1)
		m.zone = false
	case "right", "l":
		m.focus = min(len(cols)-1, m.focus+1)
		m.zone = false
	case "z":
		m.zone = !m.zone
	case "enter":
		commit, ok := d.Drop()
		switch {
		case !ok:
			m.status = "nothing moved"
		case commit.Kind == vgrid.CommitGrouping:
			m.status = "grouping " + commit.Source
			m.cursor = 0
		default:
			m.status = fmt.Sprintf("moved %s to %s", commit.Source, commit.Target)
		}
		m.resize()
		return m, m.recompute()
	}
	if m.zone {
		d.Hover(vgrid.GroupZoneTarget())
	} else if len(cols) > 0 {
		d.Hover(vgrid.ColumnTarget(cols[m.focus].ID))
	}
	m.scrollToFocus()
	return m, nil
}

func (m *model) resizeColumn(id string, delta float64) {
	r := m.grid.Resizer()
	if !r.Begin(id, 0) {
		return
	}
	r.Move(delta)
	r.End()
	m.status = fmt.Sprintf("%s width %.0f", id, m.grid.Store().Width(id))
}

// scrollToFocus keeps the focused column on screen by adjusting how many
// unpinned columns are scrolled past.
func (m *model) scrollToFocus() {
	cols := m.columns()
	if len(cols) == 0 {
		return
	}
	m.focus = min(max(m.focus, 0), len(cols)-1)
	if cols[m.focus].Pin != vgrid.PinNone {
		return
	}
	// position of the focused column among the unpinned ones
	pos := 0
	for _, c := range cols[:m.focus] {
		if c.Pin == vgrid.PinNone {
			pos++
		}
	}
	if pos < m.text.ScrollColumns {
		m.text.ScrollColumns = pos
		return
	}
	var pinned float64
	for _, c := range cols {
		if c.Pin != vgrid.PinNone {
			pinned += c.Width
		}
	}
	for m.text.ScrollColumns < pos {
		var used float64
		n := 0
		for _, c := range cols {
			if c.Pin != vgrid.PinNone {
				continue
			}
			if n >= m.text.ScrollColumns && n <= pos {
				used += c.Width
			}
			n++
		}
		if pinned+used <= float64(m.width) {
			break
		}
		m.text.ScrollColumns++
	}
}

func (m *model) report(changed bool, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if !changed {
		msg += " (no change)"
	}
	m.status = msg
}

func (m *model) View() string {
	if m.width == 0 {
		return "loading…"
	}
	v := m.grid.View()
	acc, _ := m.slot.Content()

	var b strings.Builder
	b.WriteString(m.text.RenderZone(acc, m.zone && m.grid.Drag().Phase() == vgrid.DragDragging, m.width))
	b.WriteString("\n")
	b.WriteString(m.text.Render(v, m.width))
	b.WriteString("\n")

	focus := ""
	if cols := v.Columns; len(cols) > 0 && m.focus < len(cols) {
		focus = focusStyle.Render(cols[m.focus].Header)
	}
	line := fmt.Sprintf("%d/%d rows  %d leaves  column %s  %s",
		min(m.cursor+1, acc.Rows), acc.Rows, acc.Leaves, focus, statusStyle.Render(m.status))
	if m.busy {
		line += helpStyle.Render("  computing…")
	} else if m.status == "" {
		line += helpStyle.Render("s sort  g group  m move  [ ] pin  +/- width  enter expand  u undo  q quit")
	}
	b.WriteString(line)
	return b.String()
}
