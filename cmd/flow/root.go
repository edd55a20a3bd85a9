package main

import (
	"github.com/spf13/cobra"

	"github.com/ad-astra-video/flow/config"
	"github.com/ad-astra-video/flow/gateway"
)

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "flow",
		Short:         "Terminal client for the AI-pipeline gateway",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.flow/config.yaml)")

	root.AddCommand(newStoryCmd(&configPath))
	root.AddCommand(newImageCmd(&configPath))
	root.AddCommand(newLogsCmd(&configPath))
	root.AddCommand(newChatCmd(&configPath))

	return root
}

func newGateway(cfg config.Config) *gateway.Client {
	return gateway.New(cfg.BaseURL, gateway.WithTimeoutSeconds(cfg.TimeoutSeconds))
}
