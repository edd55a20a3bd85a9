// Command flow is a terminal client for an AI-pipeline gateway: streamed
// story generation, queued image generation, an interactive chat TUI, and
// a live dashboard over the gateway event feed.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"

	"pkt.systems/pslog"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger := pslog.LoggerFromEnv(
		pslog.WithEnvWriter(os.Stderr),
		pslog.WithEnvOptions(pslog.Options{Mode: pslog.ModeConsole}),
	)
	ctx = pslog.ContextWithLogger(ctx, logger)
	log.SetOutput(pslog.LogLogger(logger).Writer())
	log.SetFlags(0)

	root := newRootCmd()
	if err := root.ExecuteContext(ctx); err != nil {
		pslog.Ctx(ctx).With("err", err).Error("flow command failed")
		return 1
	}
	return 0
}
