package vgrid

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConfigDefaults(t *testing.T) {
	cfg, err := ParseConfig([]byte("overscan: 4\n"))
	require.NoError(t, err)

	want := DefaultConfig()
	want.Overscan = 4
	assert.Equal(t, want, cfg)
}

func TestParseConfigFull(t *testing.T) {
	data := []byte(`
virtualize: false
row_height: 1
overscan: 2
drag_threshold: 0
resize_mode: onEnd
min_column_width: 4
pinned_left: [name]
pinned_right: [team]
grouping: [status]
sort:
  - column: age
    desc: true
  - column: name
log_level: debug
`)
	cfg, err := ParseConfig(data)
	require.NoError(t, err)
	assert.False(t, cfg.Virtualize)
	assert.Equal(t, 1.0, cfg.RowHeight)
	assert.Equal(t, "onEnd", cfg.ResizeMode)
	assert.Equal(t, []string{"name"}, cfg.PinnedLeft)
	assert.Equal(t, SortState{{ColumnID: "age", Dir: Descending}, {ColumnID: "name"}}, cfg.SortState())
}

func TestConfigValidateCollectsEveryProblem(t *testing.T) {
	cfg := Config{
		RowHeight:      0,
		Overscan:       -1,
		DragThreshold:  -1,
		MinColumnWidth: -1,
		ResizeMode:     "sideways",
		LogLevel:       "loud",
		PinnedLeft:     []string{"a"},
		PinnedRight:    []string{"a"},
		Grouping:       []string{"b", "b"},
		Sort:           []SortConfig{{Column: "c"}, {Column: "c"}, {}},
	}
	err := cfg.Validate()
	require.ErrorIs(t, err, ErrInvalidConfig)

	var merr *multierror.Error
	require.ErrorAs(t, err, &merr)
	assert.Len(t, merr.Errors, 10)
	for _, e := range merr.Errors {
		assert.ErrorIs(t, e, ErrInvalidConfig)
	}
	assert.Contains(t, err.Error(), `column "a" pinned on both sides`)
}

func TestConfigValidateLogLevel(t *testing.T) {
	for _, level := range []string{"", "  ", "warn", "WARN", " Debug ", "Error"} {
		cfg := DefaultConfig()
		cfg.LogLevel = level
		assert.NoError(t, cfg.Validate(), "log_level %q", level)
	}

	cfg := DefaultConfig()
	cfg.LogLevel = "loud"
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)

	cfg, err := ParseConfig([]byte("log_level: WARN\n"))
	require.NoError(t, err)
	assert.Equal(t, "WARN", ParseLogLevel(cfg.LogLevel).String())
}

func TestParseConfigRejectsBadYAML(t *testing.T) {
	_, err := ParseConfig([]byte("overscan: [nope"))
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = ParseConfig([]byte("row_height: -3"))
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "grid.yaml")
	require.NoError(t, os.WriteFile(path, []byte("grouping: [status]\n"), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"status"}, cfg.Grouping)

	_, err = LoadConfig(filepath.Join(dir, "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestWithConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RowHeight = 1
	cfg.Overscan = 0
	cfg.ResizeMode = "onEnd"
	cfg.PinnedLeft = []string{"team"}
	cfg.Grouping = []string{"status", "nope"}
	cfg.Sort = []SortConfig{{Column: "age", Desc: true}}
	cfg.MinColumnWidth = 5

	g := newPersonGrid(t, statusRecords(), WithConfig(cfg))
	st := g.Store().Snapshot()
	assert.Equal(t, GroupingState{"status"}, st.Grouping)
	assert.Equal(t, SortState{{ColumnID: "age", Dir: Descending}}, st.Sort)
	assert.Equal(t, PinLeft, st.PinSide("team"))

	require.True(t, g.Store().SetWidth("age", 1))
	assert.Equal(t, 5.0, g.Store().Width("age"))

	require.True(t, g.Resizer().Begin("age", 0))
	g.Resizer().Move(10)
	assert.Equal(t, 5.0, g.Store().Width("age"), "onEnd mode defers the resize")
	g.Resizer().End()
	assert.Equal(t, 15.0, g.Store().Width("age"))

	g.OnScroll(0, 2)
	assert.Equal(t, 1, g.Window().Last)
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, "DEBUG", ParseLogLevel(" Debug ").String())
	assert.Equal(t, "ERROR", ParseLogLevel("error").String())
	assert.Equal(t, "WARN", ParseLogLevel("").String())
	assert.Equal(t, "WARN", ParseLogLevel("chatty").String())
}
