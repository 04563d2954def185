package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"vgrid"
)

// app carries what every subcommand needs once flags and config are read.
type app struct {
	v      *viper.Viper
	cfg    vgrid.Config
	logger *slog.Logger
	closer io.Closer
	people []Person
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}

	root := &cobra.Command{
		Use:   "griddemo",
		Short: "Browse a generated dataset in a virtualized grid",
		Long: `griddemo renders a generated people dataset with vgrid.

Configuration sources (in order of precedence):
1. Command line flags
2. GRIDDEMO_* environment variables
3. griddemo.yaml in the current directory or $HOME/.config/griddemo
4. Defaults

Examples:
  # Browse 10000 rows grouped by status
  griddemo run --rows 10000 --group-by status

  # Print the first page sorted by age, descending
  griddemo print --sort-by age:desc

  # Export every row as CSV
  griddemo export people.csv`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.closer != nil {
				_ = a.closer.Close()
			}
		},
	}

	flags := root.PersistentFlags()
	flags.String("config", "", "config file (default griddemo.yaml)")
	flags.Int("rows", 1000, "number of generated records")
	flags.Uint64("seed", 1, "seed for the generated records")
	flags.String("log-level", "warn", "log level: debug|info|warn|error")
	flags.Bool("log-stderr", false, "log to stderr instead of the log file")
	flags.Bool("virtualize", true, "only render rows inside the viewport")
	flags.Int("overscan", vgrid.DefaultOverscan, "rows rendered beyond each viewport edge")
	flags.String("resize-mode", "live", "column resize mode: live|onEnd")
	flags.StringSlice("group-by", nil, "group by these column ids")
	flags.StringSlice("sort-by", nil, "sort entries as column[:desc]")
	flags.StringSlice("pin-left", []string{"firstName", "lastName"}, "columns pinned to the left edge")
	flags.StringSlice("pin-right", nil, "columns pinned to the right edge")

	root.AddCommand(newRunCmd(a), newPrintCmd(a), newExportCmd(a))
	return root
}

// setup reads flags, environment and config file into a.cfg, initialises
// logging and generates the dataset.
func (a *app) setup(cmd *cobra.Command) error {
	v := a.v
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("bind flags: %w", err)
	}
	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("griddemo")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/griddemo")
	}
	v.SetEnvPrefix("GRIDDEMO")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || v.GetString("config") != "" {
			return fmt.Errorf("read config: %w", err)
		}
	}

	cfg, err := a.config()
	if err != nil {
		return err
	}
	a.cfg = cfg

	logger, closer, err := initLogging(cfg.LogLevel, v.GetBool("log-stderr"))
	if err != nil {
		return err
	}
	a.logger, a.closer = logger, closer

	a.people = generatePeople(v.GetInt("rows"), v.GetUint64("seed"))
	a.logger.Debug("dataset generated", "rows", len(a.people), "seed", v.GetUint64("seed"))
	return nil
}

// config merges the config file with flag overrides. File keys use the
// Config field names; flags only win when set explicitly or when the file
// does not mention the key.
func (a *app) config() (vgrid.Config, error) {
	v := a.v
	cfg := vgrid.DefaultConfig()
	// terminal rows are one line high
	cfg.RowHeight = 1
	cfg.MinColumnWidth = 4
	if err := v.Unmarshal(&cfg); err != nil {
		return vgrid.Config{}, fmt.Errorf("decode config: %w", err)
	}

	override := func(flag, key string, apply func()) {
		if v.IsSet(key) && !v.IsSet(flag) {
			return
		}
		apply()
	}
	override("log-level", "log_level", func() { cfg.LogLevel = v.GetString("log-level") })
	override("virtualize", "virtualize", func() { cfg.Virtualize = v.GetBool("virtualize") })
	override("overscan", "overscan", func() { cfg.Overscan = v.GetInt("overscan") })
	override("resize-mode", "resize_mode", func() { cfg.ResizeMode = v.GetString("resize-mode") })
	override("pin-left", "pinned_left", func() { cfg.PinnedLeft = v.GetStringSlice("pin-left") })
	override("pin-right", "pinned_right", func() { cfg.PinnedRight = v.GetStringSlice("pin-right") })
	if g := v.GetStringSlice("group-by"); len(g) > 0 {
		cfg.Grouping = g
	}
	if s := v.GetStringSlice("sort-by"); len(s) > 0 {
		cfg.Sort = parseSortFlags(s)
	}

	if err := cfg.Validate(); err != nil {
		return vgrid.Config{}, err
	}
	return cfg, nil
}

// parseSortFlags turns "age:desc" style flags into sort config entries.
func parseSortFlags(entries []string) []vgrid.SortConfig {
	out := make([]vgrid.SortConfig, 0, len(entries))
	for _, e := range entries {
		col, dir, _ := strings.Cut(e, ":")
		out = append(out, vgrid.SortConfig{Column: col, Desc: strings.EqualFold(dir, "desc")})
	}
	return out
}

// newGrid builds the demo grid from the loaded config.
func (a *app) newGrid(slot *vgrid.Slot, extra ...vgrid.GridOption) (*vgrid.Grid[Person], error) {
	cols, err := peopleColumns()
	if err != nil {
		return nil, err
	}
	opts := []vgrid.GridOption{
		vgrid.WithConfig(a.cfg),
		vgrid.WithLogger(a.logger),
		vgrid.WithSummary(summaryRow(cols, len(a.people))),
	}
	if slot != nil {
		opts = append(opts, vgrid.WithAccessorySlot(slot))
	}
	opts = append(opts, vgrid.WithStoreOptions(
		vgrid.WithWidthEstimator(vgrid.TextWidthEstimator(cols, a.people, 200)),
	))
	opts = append(opts, extra...)

	g, err := vgrid.NewGrid(cols, a.people, opts...)
	if err != nil {
		return nil, err
	}
	g.SetRowKey(personKey)
	return g, nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
