package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"pkt.systems/pslog"

	"github.com/ad-astra-video/flow"
	"github.com/ad-astra-video/flow/config"
	"github.com/ad-astra-video/flow/goldmark"
)

// renderWidth is the column width for markdown output. Streamed output is
// left unwrapped, so only finished renders use it.
const renderWidth = 80

func newStoryCmd(configPath *string) *cobra.Command {
	var (
		render bool
		params []string
	)

	cmd := &cobra.Command{
		Use:   "story <prompt>",
		Short: "Stream a generated story to stdout",
		Args:  cobra.MinimumNArgs(1),
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
			prompt := strings.Join(args, " ")
			runner := flow.NewRunner(newGateway(cfg))
			session := flow.NewSession("")

			pslog.Ctx(ctx).With("session", session.ID()).Debug("starting story generation")

			runner.Run(ctx, session, flow.Request{
				Path:       "/generate/story",
				Capability: "story-generation",
				Prompt:     prompt,
				Parameters: parameters,
				Timeout:    cfg.Timeout(),
			}, flow.WithEventHandler(func(e flow.Event) {
				if delta, ok := e.(flow.EventContentDelta); ok && !render {
					fmt.Fprint(cmd.OutOrStdout(), delta.Delta)
				}
			}))

			snap := session.Snapshot()
			if snap.Err != nil {
				if snap.Text != "" && !render {
					fmt.Fprintln(cmd.OutOrStdout())
				}
				return snap.Err
			}
			if render {
				fmt.Fprintln(cmd.OutOrStdout(), goldmark.Render(snap.Text, renderWidth, flow.DefaultTheme()))
			} else {
				fmt.Fprintln(cmd.OutOrStdout())
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&render, "render", false, "render the finished story as markdown")
	cmd.Flags().StringArrayVar(&params, "param", nil, "generation parameter as key=value (repeatable)")
	return cmd
}

// parseParams converts key=value pairs into a parameters map. Numeric
// values stay strings; the gateway interprets them per capability.
func parseParams(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid parameter %q, expected key=value", pair)
		}
		out[key] = value
	}
	return out, nil
}
