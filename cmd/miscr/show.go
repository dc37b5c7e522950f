package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Zuo-Peng/miscreaders/internal/render"
	"github.com/Zuo-Peng/miscreaders/pkg/readers"
	"github.com/Zuo-Peng/miscreaders/pkg/usage"
)

// tableFlags are shared by the commands that load one view of one export.
type tableFlags struct {
	format string
	view   string
	filter string
}

func (f *tableFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.format, "format", "auto",
		"Export format (auto/stayfree-xls/stayfree-backup/loophabit/moonwatch/moonwatch-dir)")
	cmd.Flags().StringVar(&f.view, "view", "", "View to show (usage/count/unlocks/repetitions); default is the reader's first")
	cmd.Flags().StringVar(&f.filter, "filter", "", "Keep entities containing this text (case-insensitive)")
}

// load opens path and returns the reader with the selected, filtered view.
func (f *tableFlags) load(g *globals, path string) (readers.Reader, *usage.Table, error) {
	r, err := readers.Open(path, f.format, g.readerOptions()...)
	if err != nil {
		return nil, nil, err
	}
	view := readers.View(f.view)
	if view == "" {
		view = r.Views()[0]
	}
	tbl, err := r.View(view)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w (available: %v)", path, err, r.Views())
	}
	g.logger.Debug("loaded", "path", path, "view", view, "rows", tbl.Len())
	return r, filterTable(tbl, f.filter), nil
}

func filterTable(tbl *usage.Table, filter string) *usage.Table {
	if filter == "" {
		return tbl
	}
	keep := make(map[string]bool)
	for _, e := range tbl.Search(filter) {
		keep[e] = true
	}
	var rows []usage.Record
	for _, r := range tbl.Rows() {
		if keep[r.Entity] {
			rows = append(rows, r)
		}
	}
	return usage.NewTable(tbl.Measure(), tbl.EntityColumn(), rows)
}

func isTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

func terminalWidth() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return 0
	}
	return w
}

func showCmd(g *globals) *cobra.Command {
	var flags tableFlags
	var limit int
	var habits bool

	cmd := &cobra.Command{
		Use:   "show <path>",
		Short: "Print the normalized daily table of an export",
		Long: `Print one view of an export as a daily table: date, entity, amount, device.
On a terminal the table is drawn with borders and the middle rows are elided
past --limit; when piped, every row is written as TSV with durations in µs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, tbl, err := flags.load(g, args[0])
			if err != nil {
				return err
			}

			if !isTTY() {
				return render.TSV(os.Stdout, tbl)
			}

			if lh, ok := r.(*readers.LoophabitReader); ok && habits {
				fmt.Print(render.Habits(lh.Habits()))
				fmt.Println()
			}
			fmt.Println(render.Table(tbl, render.Options{
				Color:     true,
				Limit:     limit,
				Width:     terminalWidth(),
				Highlight: flags.filter,
			}))
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().IntVar(&limit, "limit", 20, "Max rows drawn on a terminal (0 = all)")
	cmd.Flags().BoolVar(&habits, "habits", false, "List the habits before the table (loophabit only)")

	return cmd
}
