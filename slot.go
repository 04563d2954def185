package vgrid

import (
	"slices"
	"sync"
)

// GroupChip is one entry of the grouping zone.
type GroupChip struct {
	ColumnID string
	Label    string
}

// Accessory is the content a grid projects outside its own table: the
// grouping zone and the row counts an export control needs.
type Accessory struct {
	Chips    []GroupChip
	Prompt   string // shown when nothing is grouped
	Rows     int    // display rows
	Leaves   int    // leaf rows after filtering
	Dragging string // column being dragged, if any
}

// Slot is a host-owned container the grid writes its accessory content
// into. The host passes it in with WithAccessorySlot and reads or
// subscribes to it; several grids must each get their own Slot.
type Slot struct {
	mu        sync.RWMutex
	content   Accessory
	set       bool
	listeners []func(Accessory)
}

// NewSlot creates an empty slot.
func NewSlot() *Slot { return &Slot{} }

// Content returns the last published accessory and whether anything was
// published yet.
func (s *Slot) Content() (Accessory, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneAccessory(s.content), s.set
}

// Subscribe registers fn to run after every publish. It returns an
// unsubscribe function.
func (s *Slot) Subscribe(fn func(Accessory)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
	idx := len(s.listeners) - 1
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.listeners[idx] = nil
	}
}

// publish stores content and notifies listeners when it changed.
func (s *Slot) publish(a Accessory) {
	s.mu.Lock()
	if s.set && accessoryEqual(s.content, a) {
		s.mu.Unlock()
		return
	}
	s.content = cloneAccessory(a)
	s.set = true
	listeners := slices.Clone(s.listeners)
	s.mu.Unlock()

	for _, fn := range listeners {
		if fn != nil {
			fn(cloneAccessory(a))
		}
	}
}

func cloneAccessory(a Accessory) Accessory {
	a.Chips = slices.Clone(a.Chips)
	return a
}

func accessoryEqual(a, b Accessory) bool {
	return a.Prompt == b.Prompt && a.Rows == b.Rows && a.Leaves == b.Leaves &&
		a.Dragging == b.Dragging && slices.Equal(a.Chips, b.Chips)
}
