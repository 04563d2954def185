package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"vgrid"
)

const (
	defaultPrintWidth  = 120
	defaultPrintHeight = 30
)

func newPrintCmd(a *app) *cobra.Command {
	var (
		offset int
		width  int
		height int
		expand bool
	)
	cmd := &cobra.Command{
		Use:   "print",
		Short: "Print one page of the grid without starting the UI",
		RunE: func(cmd *cobra.Command, _ []string) error {
			w, h := printSize(width, height)

			g, err := a.newGrid(nil)
			if err != nil {
				return err
			}
			defer g.Close()

			if !expand && len(a.cfg.Grouping) > 0 {
				g.CollapseAll()
			}
			g.OnScroll(float64(offset), float64(h))

			text := vgrid.NewTextRenderer[Person]()
			if !term.IsTerminal(int(os.Stdout.Fd())) {
				// plain text when piped
				text.Styles = vgrid.TextStyles{}
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, text.RenderZone(g.Accessory(), false, w))
			fmt.Fprintln(out, text.Render(g.View(), w))
			return nil
		},
	}
	cmd.Flags().IntVar(&offset, "offset", 0, "first row to print")
	cmd.Flags().IntVar(&width, "width", 0, "line width (default terminal width)")
	cmd.Flags().IntVar(&height, "height", 0, "rows to print (default terminal height)")
	cmd.Flags().BoolVar(&expand, "expand", false, "print groups expanded")
	return cmd
}

// printSize picks the page size: explicit flags first, then the terminal
// size, then fixed defaults when stdout is not a terminal.
func printSize(width, height int) (int, int) {
	if width > 0 && height > 0 {
		return width, height
	}
	w, h, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 || h <= 0 {
		w, h = defaultPrintWidth, defaultPrintHeight
	}
	if width > 0 {
		w = width
	}
	if height > 0 {
		h = height
	}
	return w, h
}
