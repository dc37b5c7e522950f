package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/miscreaders/internal/config"
	"github.com/Zuo-Peng/miscreaders/internal/render"
	"github.com/Zuo-Peng/miscreaders/internal/scan"
	"github.com/Zuo-Peng/miscreaders/internal/store"
	"github.com/Zuo-Peng/miscreaders/pkg/readers"
)

func doctorCmd(g *globals) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "doctor [path]",
		Short: "Self-check: show config, Moonwatch logs, and what an export contains",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("=== Config ===")
			cfgPath := g.configPath
			if cfgPath == "" {
				if home, err := os.UserHomeDir(); err == nil {
					cfgPath = config.Path(home)
				}
			}
			if _, err := os.Stat(cfgPath); err != nil {
				fmt.Printf("  Path: %s (NOT FOUND, using defaults)\n", cfgPath)
			} else {
				fmt.Printf("  Path: %s (OK)\n", cfgPath)
			}
			fmt.Printf("  Timezone: %s\n", g.cfg.Timezone)
			fmt.Printf("  Plain number unit: %s\n", g.cfg.PlainNumberUnit)
			if g.cfg.IdleCutoff != "" {
				fmt.Printf("  Idle cutoff: %s\n", g.cfg.IdleCutoff)
			}
			fmt.Printf("  Date layouts: %s\n", strings.Join(g.cfg.DateLayouts, " | "))

			fmt.Println("\n=== Moonwatch ===")
			checkDir("Log dir", g.cfg.MoonwatchDir)
			if files, err := scan.ScanLogDir(g.cfg.MoonwatchDir); err == nil {
				var size int64
				var newest int64
				for _, f := range files {
					size += f.Size
					if f.Mtime > newest {
						newest = f.Mtime
					}
				}
				fmt.Printf("  Log files: %d (%s)\n", len(files), humanize.Bytes(uint64(size)))
				if newest > 0 {
					fmt.Printf("  Last written: %s\n", humanize.Time(time.Unix(newest, 0)))
				}
			}

			if len(args) == 0 {
				return nil
			}
			return inspect(g, args[0], format)
		},
	}

	cmd.Flags().StringVar(&format, "format", "auto", "Export format of path (see 'miscr show --help')")
	return cmd
}

// inspect reports the detected format of path, its raw tables when it is a
// SQLite database, and the shape of every view.
func inspect(g *globals, path, format string) error {
	fmt.Println("\n=== Export ===")
	fmt.Printf("  Path: %s\n", path)
	info, err := os.Stat(path)
	if err != nil {
		fmt.Printf("  Status: NOT FOUND\n")
		return nil
	}
	if !info.IsDir() {
		fmt.Printf("  Size: %s\n", humanize.Bytes(uint64(info.Size())))
	}

	f, err := scan.ParseFormat(format)
	if err != nil {
		return err
	}
	if f == scan.FormatUnknown {
		f, _ = scan.Detect(path)
	}
	if f == scan.FormatUnknown {
		fmt.Println("  Format: UNKNOWN (pass --format)")
		return nil
	}
	fmt.Printf("  Format: %s\n", f)

	if f == scan.FormatLoophabit {
		checkTables(path, "Habits", "Repetitions")
	}

	r, err := readers.Open(path, string(f), g.readerOptions()...)
	if err != nil {
		fmt.Printf("  Read error: %v\n", err)
		return nil
	}

	fmt.Println("\n=== Views ===")
	for _, v := range r.Views() {
		tbl, err := r.View(v)
		if err != nil {
			fmt.Printf("  %s: %v\n", v, err)
			continue
		}
		line := fmt.Sprintf("  %s: %s, %d %ss", v, render.Shape(tbl.Len(), len(tbl.Columns())), len(tbl.Entities()), tbl.EntityColumn())
		if first, last, ok := tbl.DateRange(); ok {
			line += fmt.Sprintf(", %s..%s", first, last)
		}
		fmt.Println(line)
	}

	if lh, ok := r.(*readers.LoophabitReader); ok {
		fmt.Println("\n=== Habits ===")
		fmt.Print(render.Habits(lh.Habits()))
	}
	if mw, ok := r.(*readers.MoonwatchReader); ok {
		fmt.Printf("\n=== Files: %d ===\n", len(mw.Files()))
	}
	return nil
}

func checkTables(path string, tables ...string) {
	db, err := store.OpenReadOnly(path)
	if err != nil {
		fmt.Printf("  SQLite: %v\n", err)
		return
	}
	defer db.Close()

	for _, t := range tables {
		ok, err := db.HasTable(t)
		if err != nil || !ok {
			fmt.Printf("  Table %s: MISSING\n", t)
			continue
		}
		n, err := db.RowCount(t)
		if err != nil {
			fmt.Printf("  Table %s: %v\n", t, err)
			continue
		}
		cols, _ := db.Columns(t)
		fmt.Printf("  Table %s: %s rows (%s)\n", t, humanize.Comma(int64(n)), strings.Join(cols, ", "))
	}
}

func checkDir(name, path string) {
	if info, err := os.Stat(path); err != nil {
		fmt.Printf("  %s: %s (NOT FOUND)\n", name, path)
	} else if !info.IsDir() {
		fmt.Printf("  %s: %s (NOT A DIRECTORY)\n", name, path)
	} else {
		fmt.Printf("  %s: %s (OK)\n", name, path)
	}
}
