package main

import (
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/dkoosis/rollup/internal/config"
	"github.com/dkoosis/rollup/internal/server"
)

func (a *app) serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve trees over HTTP",
		Long: `Endpoints:

  GET /api/v1/{tests|problems}/tree         bounded tree from the root
  GET /api/v1/{tests|problems}/tree/:node   ancestors of node and its subtree
  GET /metrics                              prometheus metrics
  GET /healthz                              liveness

Query parameters: maxChildren, orderBy, tieBreak, splitByBuild,
groupParallel, head, format (json or llm).`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := a.loadModel(cmd.Context())
			if err != nil {
				return err
			}
			if a.cfg.Log.Level != "debug" {
				gin.SetMode(gin.ReleaseMode)
			}
			srv := server.New(m, server.Defaults{
				MaxChildren:     a.cfg.MaxChildren,
				OrderBy:         a.cfg.OrderBy,
				TestTieBreak:    a.cfg.TestTieBreak,
				ProblemTieBreak: a.cfg.ProblemTieBreak,
				SplitByBuild:    a.cfg.SplitByBuild,
				GroupParallel:   a.cfg.GroupParallel,
			}, a.logger)
			return srv.Run(cmd.Context(), a.cfg.Server.Addr)
		},
	}
	cmd.Flags().String("addr", config.DefaultConfig().Server.Addr, "listen address")
	return cmd
}
