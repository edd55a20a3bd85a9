package bubbletea

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ad-astra-video/flow"
	"github.com/ad-astra-video/flow/eventlog"
)

var _ tea.Model = LogModel{}

// Feed is the connection surface the dashboard drives. It is satisfied by
// gateway.Subscription.
type Feed interface {
	Connect(ctx context.Context) error
	Disconnect()
	State() flow.ConnState
	Err() error
}

// LogModel is the Bubble Tea model for the live event dashboard. Records
// arrive on a channel fed by the subscription callback; the model appends
// them to the log and renders the filtered view.
type LogModel struct {
	// Filter is the filter input component. Exported for test access.
	Filter textinput.Model
	// Viewport is the scrollable record area. Exported for test access.
	Viewport viewport.Model

	feed    Feed
	log     *eventlog.Log
	records <-chan flow.Record
	styles  Styles

	cursor    int
	filtering bool
	feedState flow.ConnState
	feedErr   error
	ready     bool
}

// NewLog creates a dashboard model over a record log and a feed.
func NewLog(log *eventlog.Log, feed Feed, records <-chan flow.Record, theme flow.Theme) LogModel {
	fi := textinput.New()
	fi.Placeholder = "filter records"
	fi.Prompt = "/"

	return LogModel{
		Filter:    fi,
		feed:      feed,
		log:       log,
		records:   records,
		styles:    NewStyles(theme),
		feedState: flow.ConnDisconnected,
	}
}

// FeedState returns the last observed feed connection state.
func (m LogModel) FeedState() flow.ConnState { return m.feedState }

// Cursor returns the index of the selected record in the filtered view.
func (m LogModel) Cursor() int { return m.cursor }

// Init implements tea.Model.
func (m LogModel) Init() tea.Cmd {
	return tea.Batch(connectFeed(m.feed), waitForRecord(m.records))
}

// Update implements tea.Model.
func (m LogModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleWindowSize(msg), nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case RecordMsg:
		m.log.Append(msg.Record)
		m = m.refresh(true)
		return m, waitForRecord(m.records)

	case FeedStateMsg:
		m.feedState = msg.State
		m.feedErr = msg.Err
		return m, nil
	}

	var cmd tea.Cmd
	m.Viewport, cmd = m.Viewport.Update(msg)
	return m, cmd
}

// View implements tea.Model.
func (m LogModel) View() string {
	if !m.ready {
		return "Initializing..."
	}
	var b strings.Builder
	b.WriteString(m.Viewport.View())
	b.WriteString("\n")
	b.WriteString(m.statusLine())
	b.WriteString("\n")
	if m.filtering {
		b.WriteString(m.Filter.View())
	} else {
		b.WriteString(m.styles.Muted.Render("/ filter  enter expand  p pin  e/c all  C clear  d disconnect  r reconnect  q quit"))
	}
	return b.String()
}

func (m LogModel) handleWindowSize(msg tea.WindowSizeMsg) LogModel {
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
	m.Filter.Width = msg.Width
	return m.refresh(false)
}

func (m LogModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.filtering {
		switch msg.Type {
		case tea.KeyEnter, tea.KeyEsc:
			m.filtering = false
			m.Filter.Blur()
			return m, nil
		case tea.KeyCtrlC:
			return m, tea.Quit
		}
		var cmd tea.Cmd
		m.Filter, cmd = m.Filter.Update(msg)
		m.log.SetFilter(m.Filter.Value())
		m = m.clampCursor()
		return m.refresh(false), cmd
	}

	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "/":
		m.filtering = true
		cmd := m.Filter.Focus()
		return m, cmd
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
		return m.refresh(false), nil
	case "down", "j":
		if m.cursor < len(m.log.Filtered())-1 {
			m.cursor++
		}
		return m.refresh(false), nil
	case "enter":
		if rec, ok := m.selected(); ok {
			m.log.Toggle(rec.Sequence)
		}
		return m.refresh(false), nil
	case "p":
		if rec, ok := m.selected(); ok {
			m.log.Pin(rec.Sequence, !rec.Pinned)
		}
		return m.refresh(false), nil
	case "e":
		m.log.ExpandAll()
		return m.refresh(false), nil
	case "c":
		m.log.CollapseAll()
		return m.refresh(false), nil
	case "C":
		m.log.Clear()
		m.cursor = 0
		return m.refresh(false), nil
	case "d":
		m.feed.Disconnect()
		m.feedState = flow.ConnDisconnected
		m.feedErr = nil
		return m, nil
	case "r":
		if m.feedState == flow.ConnDisconnected || m.feedState == flow.ConnError {
			m.feedState = flow.ConnConnecting
			return m, connectFeed(m.feed)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.Viewport, cmd = m.Viewport.Update(msg)
	return m, cmd
}

func (m LogModel) selected() (flow.Record, bool) {
	filtered := m.log.Filtered()
	if m.cursor < 0 || m.cursor >= len(filtered) {
		return flow.Record{}, false
	}
	return filtered[m.cursor], true
}

func (m LogModel) clampCursor() LogModel {
	if n := len(m.log.Filtered()); m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	return m
}

func (m LogModel) refresh(follow bool) LogModel {
	if !m.ready {
		return m
	}
	m.Viewport.SetContent(m.renderRecords())
	if follow {
		m.Viewport.GotoBottom()
	}
	return m
}

func (m LogModel) renderRecords() string {
	filtered := m.log.Filtered()
	var b strings.Builder
	for i, rec := range filtered {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(m.renderRecord(rec, i == m.cursor))
	}
	return b.String()
}

func (m LogModel) renderRecord(rec flow.Record, selected bool) string {
	marker := "  "
	if rec.Pinned {
		marker = m.styles.Accent.Render("* ")
	}
	head := fmt.Sprintf("%s%s %s %s %s",
		marker,
		m.styles.Muted.Render(fmt.Sprintf("#%d", rec.Sequence)),
		m.styles.Muted.Render(rec.Timestamp.Format("15:04:05")),
		m.styles.Topic.Render(rec.Topic),
		m.styles.Key.Render(rec.Key),
	)
	if selected {
		head = m.styles.Cursor.Render(head)
	}
	if !rec.Expanded {
		return head
	}

	var b strings.Builder
	b.WriteString(head)
	for _, line := range wrapPlain(payloadText(rec), max(m.Viewport.Width-4, 20)) {
		b.WriteString("\n    ")
		b.WriteString(line)
	}
	return b.String()
}

// payloadText pretty-prints a JSON payload, falling back to the raw bytes.
func payloadText(rec flow.Record) string {
	var buf strings.Builder
	var pretty json.RawMessage
	if err := json.Unmarshal(rec.Raw, &pretty); err == nil {
		out, err := json.MarshalIndent(pretty, "", "  ")
		if err == nil {
			buf.Write(out)
			return buf.String()
		}
	}
	return string(rec.Raw)
}

func (m LogModel) statusLine() string {
	total := m.log.Len()
	shown := len(m.log.Filtered())
	state := m.feedState.String()
	switch m.feedState {
	case flow.ConnConnected:
		state = m.styles.Success.Render(state)
	case flow.ConnError:
		state = m.styles.Error.Render(fmt.Sprintf("%s: %v", state, m.feedErr))
	default:
		state = m.styles.Muted.Render(state)
	}
	return fmt.Sprintf("%s  %s", state, m.styles.Muted.Render(fmt.Sprintf("%d/%d records", shown, total)))
}

// connectFeed connects the feed and reports the resulting state.
func connectFeed(feed Feed) tea.Cmd {
	return func() tea.Msg {
		if err := feed.Connect(context.Background()); err != nil {
			return FeedStateMsg{State: flow.ConnError, Err: err}
		}
		return FeedStateMsg{State: flow.ConnConnected}
	}
}

// waitForRecord delivers the next record from the subscription channel.
func waitForRecord(ch <-chan flow.Record) tea.Cmd {
	return func() tea.Msg {
		rec, ok := <-ch
		if !ok {
			return nil
		}
		return RecordMsg{Record: rec}
	}
}
