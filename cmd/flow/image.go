package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"pkt.systems/pslog"

	"github.com/ad-astra-video/flow"
	"github.com/ad-astra-video/flow/config"
)

func newImageCmd(configPath *string) *cobra.Command {
	var params []string

	cmd := &cobra.Command{
		Use:   "image <prompt>...",
		Short: "Generate images, one prompt at a time",
		Long: `Generate one image per prompt. Generations run through a queue so the
gateway sees at most one request at a time; each result prints as soon as
its generation finishes.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			parameters, err := parseParams(params)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			queue := flow.NewQueue(flow.NewRunner(newGateway(cfg)))
			defer queue.Close()

			sessions := make([]*flow.Session, 0, len(args))
			for _, prompt := range args {
				sessions = append(sessions, queue.Enqueue(ctx, flow.Request{
					Path:       "/generate/image",
					Capability: "image-generation",
					Prompt:     prompt,
					Parameters: parameters,
					Timeout:    cfg.Timeout(),
				}))
			}

			var failed int
			for i, session := range sessions {
				select {
				case <-session.Done():
				case <-ctx.Done():
					return ctx.Err()
				}
				snap := session.Snapshot()
				if snap.Err != nil {
					failed++
					pslog.Ctx(ctx).With("prompt", args[i], "err", snap.Err).Error("image generation failed")
					continue
				}
				fmt.Fprintln(cmd.OutOrStdout(), snap.Text)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d generations failed", failed, len(sessions))
			}
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&params, "param", nil, "generation parameter as key=value (repeatable)")
	return cmd
}
