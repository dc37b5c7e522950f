package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/miscreaders/internal/render"
)

func totalsCmd(g *globals) *cobra.Command {
	var flags tableFlags

	cmd := &cobra.Command{
		Use:   "totals <path>",
		Short: "Sum each entity over the whole export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, tbl, err := flags.load(g, args[0])
			if err != nil {
				return err
			}
			fmt.Println(render.Totals(tbl, render.Options{
				Color: isTTY(),
				Width: terminalWidth(),
			}))
			return nil
		},
	}

	flags.register(cmd)
	return cmd
}
