// Package bubbletea provides Bubble Tea TUIs for the flow client: a chat
// view over streamed generations and a live dashboard over the gateway
// event feed.
package bubbletea

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ad-astra-video/flow"
)

// GenerateFunc runs one generation. The onEvent callback is called for
// each streaming event. The function blocks until the generation completes
// or the context is cancelled, and returns the terminal session snapshot.
type GenerateFunc func(ctx context.Context, prompt string, onEvent func(flow.Event)) flow.Snapshot

// Run creates and runs a Bubble Tea program. It blocks until the program
// exits. When ctx is cancelled the program quits.
func Run(ctx context.Context, m tea.Model) error {
	p := tea.NewProgram(m, tea.WithAltScreen())
	go func() {
		<-ctx.Done()
		p.Quit()
	}()
	_, err := p.Run()
	return err
}

// StreamEventMsg wraps a streaming event for delivery to a model.
type StreamEventMsg struct {
	Event flow.Event
}

// GenerateDoneMsg signals that a generation has finished, in any terminal
// status.
type GenerateDoneMsg struct {
	Snapshot flow.Snapshot
}

// RecordMsg wraps an event feed record for delivery to the log model.
type RecordMsg struct {
	Record flow.Record
}

// FeedStateMsg reports a connection state change of the event feed.
type FeedStateMsg struct {
	State flow.ConnState
	Err   error
}
