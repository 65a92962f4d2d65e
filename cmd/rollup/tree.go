package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/dkoosis/rollup/pkg/render"
)

func (a *app) treeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tree",
		Short: "Show the bounded tree from the root",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.show(cmd, 0)
		},
	}
}

func (a *app) subtreeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "subtree NODE",
		Short: "Show the ancestors of NODE followed by its bounded subtree",
		Long: `NODE is a node id printed by an earlier tree run with the same input
and flags; ids are stable for identical input.`,
		Args: usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil || id < 1 {
				return usagef("node id must be a positive integer, got %q", args[0])
			}
			return a.show(cmd, id)
		},
	}
}

// show renders the view rooted at focus and sets exit code 1 when the
// top of the rendered tree has failures.
func (a *app) show(cmd *cobra.Command, focus int) error {
	built, err := a.build(cmd.Context())
	if err != nil {
		return err
	}
	doc, err := built.Document(a.view(focus))
	if err != nil {
		return err
	}
	if err := write(a.stdout, a.renderer(), doc); err != nil {
		return err
	}
	if doc.HasFailures() {
		a.code = 1
	}
	return nil
}

func write(w io.Writer, r render.Renderer, doc render.Document) error {
	if _, err := io.WriteString(w, r.Render(doc)); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	return nil
}
