package vgrid

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedWidth(w float64) GridOption {
	return WithStoreOptions(WithWidthEstimator(func(string) float64 { return w }))
}

func TestFit(t *testing.T) {
	tests := []struct {
		text  string
		width int
		align Align
		want  string
	}{
		{"abc", 5, AlignLeft, "abc  "},
		{"abc", 5, AlignRight, "  abc"},
		{"abc", 5, AlignCenter, " abc "},
		{"ab", 5, AlignCenter, " ab  "},
		{"abcdef", 4, AlignLeft, "abc…"},
		{"a\nb", 3, AlignLeft, "a b"},
		{"日本語", 4, AlignLeft, "日… "},
		{"abc", 0, AlignLeft, ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, fit(tt.text, tt.width, tt.align), "fit(%q, %d)", tt.text, tt.width)
	}
}

func TestTextRender(t *testing.T) {
	g := newPersonGrid(t, statusRecords(), WithRowHeight(1), WithOverscan(0), fixedWidth(6))
	g.OnScroll(0, 10)

	r := &TextRenderer[person]{Separator: "|"}
	got := strings.Split(r.Render(g.View(), 0), "\n")
	assert.Equal(t, []string{
		"Name |Age  |Stat…|Team ",
		"ann  |    1|a    |red  ",
		"bob  |    2|b    |red  ",
		"cat  |    3|a    |blue ",
	}, got)
}

func TestTextRenderWidthLimit(t *testing.T) {
	g := newPersonGrid(t, statusRecords(), WithRowHeight(1), WithOverscan(0), fixedWidth(6))
	g.OnScroll(0, 1)
	r := &TextRenderer[person]{Separator: "|"}

	lines := strings.Split(r.Render(g.View(), 12), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Name |Age  ", lines[0])

	// a partly visible column is cut to what remains
	lines = strings.Split(r.Render(g.View(), 14), "\n")
	assert.Equal(t, "Name |Age  |…", lines[0])
	assert.Equal(t, "ann  |    1|a", lines[1])
}

func TestTextRenderPinnedAndScrolled(t *testing.T) {
	g := newPersonGrid(t, statusRecords(), WithRowHeight(1), WithOverscan(0), fixedWidth(6))
	require.True(t, g.TogglePin("team", PinLeft))
	g.OnScroll(0, 1)

	r := &TextRenderer[person]{Separator: "|", ScrollColumns: 1}
	lines := strings.Split(r.Render(g.View(), 0), "\n")
	assert.Equal(t, []string{
		"Team |Age  |Stat…",
		"red  |    1|a    ",
	}, lines)
}

func TestTextRenderGroups(t *testing.T) {
	g := newPersonGrid(t, statusRecords(), WithRowHeight(1), WithOverscan(0), fixedWidth(12))
	require.True(t, g.ToggleGrouping("status"))
	require.True(t, g.ToggleSort("age", false))
	require.True(t, g.ToggleSort("name", true))
	g.OnScroll(0, 10)

	r := &TextRenderer[person]{Separator: " "}
	out := r.Render(g.View(), 0)
	assert.Contains(t, out, "▾ a (2)")
	assert.Contains(t, out, "Age ▲1")
	assert.Contains(t, out, "Name ▲2")

	require.True(t, g.ToggleExpanded("status:a"))
	out = r.Render(g.View(), 0)
	assert.Contains(t, out, "▸ a (2)")
	assert.NotContains(t, out, "cat")
}

func TestTextRenderColumnGroups(t *testing.T) {
	cols, err := NewColumnSet[person](
		Group("who", "Who",
			NewColumn("name", Value(func(p person) any { return p.Name }), Header("Name")),
			NewColumn("team", Value(func(p person) any { return p.Team }), Header("Team")),
		),
		NewColumn("age", Value(func(p person) any { return p.Age }), Header("Age")),
	)
	require.NoError(t, err)
	g, err := NewGrid(cols, statusRecords(), WithRowHeight(1), fixedWidth(6))
	require.NoError(t, err)
	defer g.Close()
	g.OnScroll(0, 1)

	r := &TextRenderer[person]{Separator: "|"}
	lines := strings.Split(r.Render(g.View(), 0), "\n")
	require.GreaterOrEqual(t, len(lines), 2)
	assert.Equal(t, "    Who    |     ", lines[0])
	assert.Equal(t, "Name |Team |Age  ", lines[1])
}

func TestRenderZone(t *testing.T) {
	g := newPersonGrid(t, statusRecords())
	r := &TextRenderer[person]{}

	assert.Equal(t, GroupingPrompt+"      ", r.RenderZone(g.Accessory(), false, 40))
	assert.Equal(t, GroupingPrompt, r.RenderZone(g.Accessory(), true, 0))

	require.True(t, g.ToggleGrouping("status"))
	require.True(t, g.ToggleGrouping("team"))
	assert.Equal(t, "Groups:  Status ×   Team × ", r.RenderZone(g.Accessory(), false, 0))
}

func TestTextWidthEstimator(t *testing.T) {
	records := append(statusRecords(), person{Name: strings.Repeat("x", 50)})

	est := TextWidthEstimator(personColumns(t), records, 0)
	assert.Equal(t, 41.0, est("name"), "clamped to the widest column")
	assert.Equal(t, 9.0, est("status"), "header plus sort indicator")
	assert.Equal(t, 7.0, est("age"), "at least the narrowest column")
	assert.Equal(t, 7.0, est("team"))
	assert.Zero(t, est("nope"))

	// only the sampled records are measured
	est = TextWidthEstimator(personColumns(t), records, 3)
	assert.Equal(t, 7.0, est("name"))
}
