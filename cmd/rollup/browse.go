package main

import (
	"github.com/spf13/cobra"

	"github.com/dkoosis/rollup/pkg/browse"
)

func (a *app) browseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Explore the tree interactively",
		Long: `Keys: up/down select, enter focuses the selected node, backspace
returns to the previous focus, +/- change the breadth cap, q quits.`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			if a.input == "-" {
				return usagef("browse reads keys from the terminal; pass the input with --input FILE")
			}
			if !isTTYWriter(a.stdout) {
				return usagef("browse needs a terminal")
			}
			built, err := a.build(cmd.Context())
			if err != nil {
				return err
			}
			v := a.view(0)
			return browse.Run(cmd.Context(), built, browse.Options{
				MaxChildren: v.MaxChildren,
				OrderBy:     v.OrderBy,
				TieBreak:    v.TieBreak,
				Theme:       theme(a.cfg.Theme),
			})
		},
	}
}
