package vgrid

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReorderColumns(t *testing.T) {
	tests := []struct {
		name            string
		order           []string
		dragged, target string
		want            []string
	}{
		{"leftwards", []string{"x", "y", "z"}, "z", "x", []string{"z", "x", "y"}},
		{"rightwards", []string{"x", "y", "z"}, "x", "z", []string{"y", "z", "x"}},
		{"neighbour right", []string{"x", "y", "z"}, "x", "y", []string{"y", "x", "z"}},
		{"neighbour left", []string{"x", "y", "z"}, "y", "x", []string{"y", "x", "z"}},
		{"same id", []string{"x", "y", "z"}, "y", "y", []string{"x", "y", "z"}},
		{"unknown dragged", []string{"x", "y", "z"}, "q", "y", []string{"x", "y", "z"}},
		{"unknown target", []string{"x", "y", "z"}, "x", "q", []string{"x", "y", "z"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := slices.Clone(tt.order)
			got := ReorderColumns(in, tt.dragged, tt.target)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.order, in, "input must not be modified")
			assert.ElementsMatch(t, tt.order, got)
		})
	}
}
