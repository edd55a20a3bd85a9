package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"pkt.systems/pslog"

	"github.com/ad-astra-video/flow"
	bt "github.com/ad-astra-video/flow/bubbletea"
	"github.com/ad-astra-video/flow/config"
	"github.com/ad-astra-video/flow/eventlog"
	"github.com/ad-astra-video/flow/gateway"
)

func newLogsCmd(configPath *string) *cobra.Command {
	var (
		url   string
		plain bool
	)

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Watch the gateway event feed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			feedURL := cfg.LogStreamURL
			if url != "" {
				feedURL = url
			}
			if feedURL == "" {
				return fmt.Errorf("no event feed URL; set log_stream_url or pass --url")
			}

			ctx := cmd.Context()
			logger := pslog.Ctx(ctx)

			records := make(chan flow.Record, 256)
			opts := []gateway.SubOption{gateway.WithLogger(logger)}
			if cfg.LogTransport == config.TransportWS {
				opts = append(opts, gateway.WithWebSocket())
			}
			sub := gateway.Subscribe(feedURL, func(rec flow.Record) {
				select {
				case records <- rec:
				default:
					// Drop rather than block the feed reader when the
					// consumer falls behind.
				}
			}, opts...)
			defer sub.Disconnect()

			if plain {
				if err := sub.Connect(ctx); err != nil {
					return err
				}
				ticker := time.NewTicker(250 * time.Millisecond)
				defer ticker.Stop()
				for {
					select {
					case rec := <-records:
						fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s %s\n",
							rec.Timestamp.Format("15:04:05"), rec.Topic, rec.Key, string(rec.Raw))
					case <-ticker.C:
						// A dead feed must not leave piped consumers hanging.
						if sub.State() == flow.ConnError {
							return sub.Err()
						}
					case <-ctx.Done():
						return nil
					}
				}
			}

			log := eventlog.New(eventlog.WithCap(cfg.LogCap))
			return bt.Run(ctx, bt.NewLog(log, sub, records, flow.DefaultTheme()))
		},
	}

	cmd.Flags().StringVar(&url, "url", "", "event feed URL (overrides log_stream_url)")
	cmd.Flags().BoolVar(&plain, "plain", false, "print records to stdout instead of the dashboard")
	return cmd
}
