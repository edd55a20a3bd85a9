package bubbletea

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ad-astra-video/flow"
	"github.com/ad-astra-video/flow/goldmark"
)

var _ tea.Model = ChatModel{}

// turn is one prompt/response exchange in the transcript.
type turn struct {
	prompt   string
	response string
	rendered string
	err      error
	done     bool
}

// ChatModel is the Bubble Tea model for interactive generation. Each
// submitted prompt becomes a transcript turn whose response fills in as
// deltas arrive; finished turns are re-rendered as markdown.
type ChatModel struct {
	// Input is the prompt input component. Exported for test access.
	Input textinput.Model
	// Viewport is the scrollable transcript area. Exported for test access.
	Viewport viewport.Model

	generate GenerateFunc
	theme    flow.Theme
	styles   Styles

	turns   []turn
	running bool
	cancel  context.CancelFunc
	eventCh chan flow.Event
	doneCh  chan flow.Snapshot
	ready   bool
}

// NewChat creates a chat model around a generate function.
func NewChat(generate GenerateFunc, theme flow.Theme) ChatModel {
	ti := textinput.New()
	ti.Placeholder = "Describe what to generate..."
	ti.Prompt = ""
	ti.Focus()

	return ChatModel{
		Input:    ti,
		generate: generate,
		theme:    theme,
		styles:   NewStyles(theme),
	}
}

// Running reports whether a generation is in flight.
func (m ChatModel) Running() bool { return m.running }

// Turns returns the number of transcript turns.
func (m ChatModel) Turns() int { return len(m.turns) }

// Init implements tea.Model.
func (m ChatModel) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m ChatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleWindowSize(msg), nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case StreamEventMsg:
		if delta, ok := msg.Event.(flow.EventContentDelta); ok && len(m.turns) > 0 {
			m.turns[len(m.turns)-1].response += delta.Delta
		}
		m.Viewport.SetContent(m.renderTranscript())
		m.Viewport.GotoBottom()
		if m.eventCh != nil {
			return m, listenForEvent(m.eventCh, m.doneCh)
		}
		return m, nil

	case GenerateDoneMsg:
		m.running = false
		m.cancel = nil
		m.eventCh = nil
		m.doneCh = nil
		if len(m.turns) > 0 {
			t := &m.turns[len(m.turns)-1]
			t.done = true
			t.err = msg.Snapshot.Err
			if t.err == nil {
				t.response = msg.Snapshot.Text
				t.rendered = goldmark.Render(t.response, m.Viewport.Width, m.theme)
			}
		}
		m.Viewport.SetContent(m.renderTranscript())
		m.Viewport.GotoBottom()
		cmd := m.Input.Focus()
		return m, cmd
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.Viewport, cmd = m.Viewport.Update(msg)
	cmds = append(cmds, cmd)
	if !m.running {
		m.Input, cmd = m.Input.Update(msg)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

// View implements tea.Model.
func (m ChatModel) View() string {
	if !m.ready {
		return "Initializing..."
	}
	var b strings.Builder
	b.WriteString(m.Viewport.View())
	b.WriteString("\n")
	b.WriteString(m.statusLine())
	b.WriteString("\n")
	b.WriteString(m.Input.View())
	return b.String()
}

func (m ChatModel) handleWindowSize(msg tea.WindowSizeMsg) ChatModel {
	vpHeight := msg.Height - 3
	if vpHeight < 1 {
		vpHeight = 1
	}
	if !m.ready {
		m.Viewport = viewport.New(msg.Width, vpHeight)
		m.ready = true
	} else {
		m.Viewport.Width = msg.Width
		m.Viewport.Height = vpHeight
	}
	m.Viewport.SetContent(m.renderTranscript())
	m.Input.Width = msg.Width
	return m
}

func (m ChatModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		if m.running {
			if m.cancel != nil {
				m.cancel()
			}
			return m, nil
		}
		return m, tea.Quit

	case tea.KeyEnter:
		if m.running {
			return m, nil
		}
		prompt := strings.TrimSpace(m.Input.Value())
		if prompt == "" {
			return m, nil
		}
		return m.submit(prompt)
	}

	// Idle keys go to both input and viewport. Character keys stay out of
	// the viewport so typing never scrolls the transcript.
	if !m.running {
		var cmds []tea.Cmd
		var cmd tea.Cmd
		if msg.Type != tea.KeyRunes {
			m.Viewport, cmd = m.Viewport.Update(msg)
			cmds = append(cmds, cmd)
		}
		m.Input, cmd = m.Input.Update(msg)
		cmds = append(cmds, cmd)
		return m, tea.Batch(cmds...)
	}
	return m, nil
}

func (m ChatModel) submit(prompt string) (tea.Model, tea.Cmd) {
	m.Input.SetValue("")
	m.Input.Blur()
	m.turns = append(m.turns, turn{prompt: prompt})
	m.Viewport.SetContent(m.renderTranscript())
	m.Viewport.GotoBottom()

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.eventCh = make(chan flow.Event, 256)
	m.doneCh = make(chan flow.Snapshot, 1)
	m.running = true

	return m, tea.Batch(
		startGenerate(ctx, m.generate, prompt, m.eventCh, m.doneCh),
		listenForEvent(m.eventCh, m.doneCh),
	)
}

func (m ChatModel) renderTranscript() string {
	var b strings.Builder
	for i, t := range m.turns {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(m.styles.Prompt.Render("> " + t.prompt))
		b.WriteString("\n\n")
		switch {
		case t.err != nil:
			b.WriteString(t.response)
			if t.response != "" {
				b.WriteString("\n")
			}
			b.WriteString(m.styles.Error.Render(fmt.Sprintf("Error: %v", t.err)))
		case t.done:
			b.WriteString(t.rendered)
		default:
			b.WriteString(t.response)
		}
	}
	return b.String()
}

func (m ChatModel) statusLine() string {
	if m.running {
		return m.styles.Muted.Render("Generating... Ctrl+C to cancel")
	}
	return m.styles.Muted.Render("Enter to send, Ctrl+C to quit")
}

// startGenerate runs the generation in a goroutine and signals completion.
func startGenerate(ctx context.Context, generate GenerateFunc, prompt string, eventCh chan<- flow.Event, doneCh chan<- flow.Snapshot) tea.Cmd {
	return func() tea.Msg {
		snap := generate(ctx, prompt, func(e flow.Event) {
			select {
			case eventCh <- e:
			case <-ctx.Done():
			}
		})
		close(eventCh)
		doneCh <- snap
		return nil
	}
}

// listenForEvent waits for the next event. When the channel closes it reads
// the terminal snapshot and returns GenerateDoneMsg.
func listenForEvent(ch <-chan flow.Event, doneCh <-chan flow.Snapshot) tea.Cmd {
	return func() tea.Msg {
		evt, ok := <-ch
		if !ok {
			return GenerateDoneMsg{Snapshot: <-doneCh}
		}
		return StreamEventMsg{Event: evt}
	}
}
