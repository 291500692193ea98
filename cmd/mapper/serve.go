package main

import (
	"github.com/spf13/cobra"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/iyulab/forensic-mapper/internal/analyzer"
	"github.com/iyulab/forensic-mapper/internal/config"
	"github.com/iyulab/forensic-mapper/internal/logging"
	"github.com/iyulab/forensic-mapper/internal/mcp"
	"github.com/iyulab/forensic-mapper/internal/orchestrator"
)

func newServeCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server over stdio",
		Long: `Starts an MCP server over stdin/stdout exposing evaluate_documents,
parse_response and analyze_report. analyze_report needs a usable LLM
configuration; the other tools work without one.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logging.New("serve")

			var provider analyzer.Provider
			var opts []analyzer.Option
			cfg, err := config.LoadOrDefault(configPath)
			if err != nil {
				log.Warn("no usable LLM configuration, analyze_report disabled", "error", err)
			} else {
				p, err := analyzer.NewProvider(cmd.Context(), cfg.LLM.Provider, cfg.LLM.APIKey, cfg.LLM.Model, cfg.LLM.Endpoint, cfg.LLM.Timeout)
				if err != nil {
					log.Warn("create provider, analyze_report disabled", "error", err)
				} else {
					provider = analyzer.WithRetry(p, cfg.LLM.Retries)
					opts = orchestrator.StageOptions(cfg)
				}
			}

			srv := mcp.NewServer(version, provider, opts...)
			log.Info("starting MCP server over stdio", "analyze_report", provider != nil)
			return srv.MCPServer.Run(cmd.Context(), &sdkmcp.StdioTransport{})
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "config.toml", "path to config file")
	return cmd
}
