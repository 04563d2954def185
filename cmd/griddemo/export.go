package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"vgrid"
)

// errLocked is returned when another export holds the output file.
var errLocked = errors.New("output file is locked by another export")

func newExportCmd(a *app) *cobra.Command {
	var (
		delimiter string
		header    bool
		formatted bool
		wait      time.Duration
	)
	cmd := &cobra.Command{
		Use:   "export <file>",
		Short: "Write every row as delimited text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := vgrid.ExportOptions{Header: header, Formatted: formatted}
			if delimiter != "" {
				r := []rune(delimiter)
				if len(r) != 1 {
					return fmt.Errorf("delimiter must be a single character, got %q", delimiter)
				}
				opts.Delimiter = r[0]
			}

			g, err := a.newGrid(nil)
			if err != nil {
				return err
			}
			defer g.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), wait)
			defer cancel()
			if err := exportLocked(ctx, args[0], func(f *os.File) error {
				return g.Export(f, opts)
			}); err != nil {
				return err
			}
			a.logger.Info("export finished", "path", args[0], "rows", len(g.Model().Leaves()))
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d rows to %s\n", len(g.Model().Leaves()), args[0])
			return nil
		},
	}
	cmd.Flags().StringVar(&delimiter, "delimiter", ",", "field delimiter")
	cmd.Flags().BoolVar(&header, "header", true, "write a header line")
	cmd.Flags().BoolVar(&formatted, "formatted", false, "write values as displayed")
	cmd.Flags().DurationVar(&wait, "lock-timeout", 5*time.Second, "how long to wait for the output lock")
	return cmd
}

// exportLocked holds an exclusive lock next to path while write fills it,
// so concurrent exports to the same file never interleave.
func exportLocked(ctx context.Context, path string, write func(*os.File) error) (err error) {
	lock := flock.New(path + ".lock")
	locked, err := lock.TryLockContext(ctx, 100*time.Millisecond)
	if err != nil {
		return fmt.Errorf("lock %s: %w", path, err)
	}
	if !locked {
		return fmt.Errorf("%w: %s", errLocked, path)
	}
	defer func() {
		if uerr := lock.Unlock(); uerr != nil && err == nil {
			err = fmt.Errorf("unlock %s: %w", path, uerr)
		}
		_ = os.Remove(lock.Path())
	}()

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if err = write(tmp); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmp.Name(), err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename into %s: %w", path, err)
	}
	return nil
}
