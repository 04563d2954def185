package vgrid

import (
	"fmt"
	"os"
	"strings"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"
)

// SortConfig is one sort entry in a config file.
type SortConfig struct {
	Column string `yaml:"column" mapstructure:"column"`
	Desc   bool   `yaml:"desc" mapstructure:"desc"`
}

// Config holds the grid settings a host may load from a file. The same
// tags serve yaml.v3 and viper's mapstructure decoding.
type Config struct {
	Virtualize     bool         `yaml:"virtualize" mapstructure:"virtualize"`
	RowHeight      float64      `yaml:"row_height" mapstructure:"row_height"`
	Overscan       int          `yaml:"overscan" mapstructure:"overscan"`
	DragThreshold  float64      `yaml:"drag_threshold" mapstructure:"drag_threshold"`
	ResizeMode     string       `yaml:"resize_mode" mapstructure:"resize_mode"`
	MinColumnWidth float64      `yaml:"min_column_width" mapstructure:"min_column_width"`
	PinnedLeft     []string     `yaml:"pinned_left" mapstructure:"pinned_left"`
	PinnedRight    []string     `yaml:"pinned_right" mapstructure:"pinned_right"`
	Grouping       []string     `yaml:"grouping" mapstructure:"grouping"`
	Sort           []SortConfig `yaml:"sort" mapstructure:"sort"`
	LogLevel       string       `yaml:"log_level" mapstructure:"log_level"`
}

// DefaultConfig returns the settings a grid uses when nothing is configured.
func DefaultConfig() Config {
	return Config{
		Virtualize:     true,
		RowHeight:      DefaultRowHeight,
		Overscan:       DefaultOverscan,
		DragThreshold:  DefaultDragThreshold,
		ResizeMode:     ResizeLive.String(),
		MinColumnWidth: DefaultMinColumnWidth,
		LogLevel:       "warn",
	}
}

// LoadConfig reads and validates a YAML config file. Keys missing from the
// file keep their DefaultConfig values.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg, err := ParseConfig(data)
	if err != nil {
		return Config{}, fmt.Errorf("load config %s: %w", path, err)
	}
	return cfg, nil
}

// ParseConfig decodes and validates YAML config data.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports every problem with the config at once. Column ids are
// not checked here; the column store ignores ids it does not know.
func (c Config) Validate() error {
	var errs *multierror.Error
	fail := func(format string, args ...any) {
		errs = multierror.Append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...))
	}

	if c.RowHeight <= 0 {
		fail("row_height must be positive, got %v", c.RowHeight)
	}
	if c.Overscan < 0 {
		fail("overscan must not be negative, got %d", c.Overscan)
	}
	if c.DragThreshold < 0 {
		fail("drag_threshold must not be negative, got %v", c.DragThreshold)
	}
	if c.MinColumnWidth < 0 {
		fail("min_column_width must not be negative, got %v", c.MinColumnWidth)
	}
	if _, ok := ParseResizeMode(c.ResizeMode); !ok {
		fail("unknown resize_mode %q", c.ResizeMode)
	}
	if _, ok := lookupLogLevel(c.LogLevel); strings.TrimSpace(c.LogLevel) != "" && !ok {
		fail("unknown log_level %q", c.LogLevel)
	}

	left := make(map[string]bool, len(c.PinnedLeft))
	for _, id := range c.PinnedLeft {
		left[id] = true
	}
	for _, id := range c.PinnedRight {
		if left[id] {
			fail("column %q pinned on both sides", id)
		}
	}

	seen := make(map[string]bool, len(c.Grouping))
	for _, id := range c.Grouping {
		if seen[id] {
			fail("column %q grouped twice", id)
		}
		seen[id] = true
	}
	seen = make(map[string]bool, len(c.Sort))
	for _, s := range c.Sort {
		if s.Column == "" {
			fail("sort entry without a column")
		} else if seen[s.Column] {
			fail("column %q sorted twice", s.Column)
		}
		seen[s.Column] = true
	}
	return errs.ErrorOrNil()
}

// SortState converts the configured sort entries.
func (c Config) SortState() SortState {
	if len(c.Sort) == 0 {
		return nil
	}
	out := make(SortState, 0, len(c.Sort))
	for _, s := range c.Sort {
		dir := Ascending
		if s.Desc {
			dir = Descending
		}
		out = append(out, SortEntry{ColumnID: s.Column, Dir: dir})
	}
	return out
}

// GridOptions turns the config into grid options.
func (c Config) GridOptions() []GridOption {
	mode, _ := ParseResizeMode(c.ResizeMode)
	store := []StoreOption{
		WithPinned(PinLeft, c.PinnedLeft...),
		WithPinned(PinRight, c.PinnedRight...),
	}
	if c.MinColumnWidth > 0 {
		store = append(store, WithMinWidth(c.MinColumnWidth))
	}
	if len(c.Grouping) > 0 {
		store = append(store, WithInitialGrouping(c.Grouping...))
	}
	if len(c.Sort) > 0 {
		store = append(store, WithInitialSort(c.SortState()))
	}
	return []GridOption{
		WithVirtualization(c.Virtualize),
		WithRowHeight(c.RowHeight),
		WithOverscan(c.Overscan),
		WithDragThreshold(c.DragThreshold),
		WithResizeMode(mode),
		WithStoreOptions(store...),
	}
}
