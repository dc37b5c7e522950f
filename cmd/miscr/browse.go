package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/miscreaders/internal/tui"
)

func browseCmd(g *globals) *cobra.Command {
	var flags tableFlags

	cmd := &cobra.Command{
		Use:   "browse <path>",
		Short: "Browse entity totals and their daily rows interactively",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !isTTY() {
				return fmt.Errorf("browse needs a terminal; use 'miscr show' when piping")
			}
			_, tbl, err := flags.load(g, args[0])
			if err != nil {
				return err
			}
			return tui.Run(tbl, filepath.Base(args[0]))
		},
	}

	flags.register(cmd)
	return cmd
}
