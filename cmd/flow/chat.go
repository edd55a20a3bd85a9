package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/ad-astra-video/flow"
	bt "github.com/ad-astra-video/flow/bubbletea"
	"github.com/ad-astra-video/flow/config"
)

func newChatCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Interactive chat TUI over streamed generations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}

			runner := flow.NewRunner(newGateway(cfg))
			generate := func(ctx context.Context, prompt string, onEvent func(flow.Event)) flow.Snapshot {
				session := flow.NewSession("")
				runner.Run(ctx, session, flow.Request{
					Path:       "/chat",
					Capability: "chat",
					Prompt:     prompt,
					Timeout:    cfg.Timeout(),
				}, flow.WithEventHandler(onEvent))
				return session.Snapshot()
			}

			return bt.Run(cmd.Context(), bt.NewChat(generate, flow.DefaultTheme()))
		},
	}
}
