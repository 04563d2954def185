package vgrid

import "slices"

// ReorderColumns returns a new order with dragged moved into target's slot.
// The dragged id is removed and reinserted at the index target held before
// the removal, so a column dragged leftwards lands immediately before the
// target and one dragged rightwards lands immediately after it. The input
// slice is never modified. Equal or unknown ids return an unchanged copy.
func ReorderColumns(order []string, dragged, target string) []string {
	out := slices.Clone(order)
	if dragged == target {
		return out
	}
	from := slices.Index(out, dragged)
	to := slices.Index(out, target)
	if from < 0 || to < 0 {
		return out
	}
	out = slices.Delete(out, from, from+1)
	return slices.Insert(out, to, dragged)
}

// sameOrder reports whether a and b hold the same ids in the same order.
func sameOrder(a, b []string) bool { return slices.Equal(a, b) }
