package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	orchestration "github.com/koscakluka/sunday/core"
	"github.com/koscakluka/sunday/core/backend"
	"github.com/muesli/reflow/wordwrap"
)

const historyRequestTimeout = 10 * time.Second

// session is the part of the orchestrator driven by key presses.
type session interface {
	StartListening()
	StopListening()
	SendText(text string)
	CancelPlayback()
	CanCapture() bool
}

type historyStore interface {
	History(ctx context.Context) ([]backend.Turn, error)
	Clear(ctx context.Context) error
}

type (
	messageMsg            orchestration.Message
	statusMsg             orchestration.Status
	captureUnavailableMsg string
	historyLoadedMsg      struct {
		turns []backend.Turn
		err   error
	}
	historyClearedMsg struct{ err error }
)

type styles struct {
	title       lipgloss.Style
	pill        map[orchestration.Status]lipgloss.Style
	userLabel   lipgloss.Style
	agentLabel  lipgloss.Style
	systemLabel lipgloss.Style
	timestamp   lipgloss.Style
	help        lipgloss.Style
}

func newStyles() styles {
	pill := lipgloss.NewStyle().Padding(0, 1).Bold(true).Foreground(lipgloss.Color("#1a1a1a"))
	return styles{
		title: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#f5c542")),
		pill: map[orchestration.Status]lipgloss.Style{
			orchestration.StatusIdle:      pill.Background(lipgloss.Color("#9e9e9e")),
			orchestration.StatusListening: pill.Background(lipgloss.Color("#4caf50")),
			orchestration.StatusSpeaking:  pill.Background(lipgloss.Color("#42a5f5")),
		},
		userLabel:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#4caf50")),
		agentLabel:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#f5c542")),
		systemLabel: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ef5350")),
		timestamp:   lipgloss.NewStyle().Faint(true),
		help:        lipgloss.NewStyle().Faint(true),
	}
}

type model struct {
	session session
	history historyStore

	chatView   viewport.Model
	inputField textinput.Model
	styles     styles

	messages         []orchestration.Message
	status           orchestration.Status
	talking          bool
	captureAvailable bool

	width, height int
}

func newModel(session session, history historyStore) *model {
	ti := textinput.New()
	ti.Placeholder = "Type a message or press tab to talk..."
	ti.Focus()
	ti.CharLimit = 2000
	ti.Width = 80

	vp := viewport.New(80, 20)
	vp.SetContent("")

	return &model{
		session:          session,
		history:          history,
		chatView:         vp,
		inputField:       ti,
		styles:           newStyles(),
		status:           orchestration.StatusIdle,
		captureAvailable: session.CanCapture(),
	}
}

func (m *model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.loadHistory())
}

func (m *model) loadHistory() tea.Cmd {
	if m.history == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), historyRequestTimeout)
		defer cancel()
		turns, err := m.history.History(ctx)
		return historyLoadedMsg{turns: turns, err: err}
	}
}

func (m *model) clearHistory() tea.Cmd {
	if m.history == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), historyRequestTimeout)
		defer cancel()
		return historyClearedMsg{err: m.history.Clear(ctx)}
	}
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		if handled, cmd := m.handleKey(msg); handled {
			return m, cmd
		}

	case messageMsg:
		m.addMessage(orchestration.Message(msg))
		return m, nil

	case statusMsg:
		m.status = orchestration.Status(msg)
		return m, nil

	case captureUnavailableMsg:
		m.captureAvailable = false
		m.talking = false
		m.addSystemMessage(fmt.Sprintf("Push-to-talk disabled: %s", string(msg)))
		return m, nil

	case historyLoadedMsg:
		if msg.err != nil {
			logger.Warn("failed to load history", "error", msg.err)
			return m, nil
		}
		m.messages = append(turnsToMessages(msg.turns), m.messages...)
		m.updateChatContent()
		return m, nil

	case historyClearedMsg:
		if msg.err != nil {
			m.addSystemMessage(fmt.Sprintf("Failed to clear history: %v", msg.err))
			return m, nil
		}
		m.messages = nil
		m.addSystemMessage("History cleared")
		return m, nil
	}

	var cmd tea.Cmd
	m.inputField, cmd = m.inputField.Update(msg)
	cmds = append(cmds, cmd)

	m.chatView, cmd = m.chatView.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// handleKey reports whether the key was consumed.
func (m *model) handleKey(msg tea.KeyMsg) (bool, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		if m.talking {
			m.session.StopListening()
		}
		return true, tea.Quit

	case "tab":
		m.togglePushToTalk()
		return true, nil

	case "enter":
		text := strings.TrimSpace(m.inputField.Value())
		m.inputField.Reset()
		if text != "" {
			m.session.SendText(text)
		}
		return true, nil

	case "esc":
		m.session.CancelPlayback()
		return true, nil

	case "ctrl+l":
		return true, m.clearHistory()
	}

	return false, nil
}

func (m *model) togglePushToTalk() {
	if !m.captureAvailable {
		m.addSystemMessage("Speech recognition is not available, type your message instead")
		return
	}

	if m.talking {
		m.talking = false
		m.session.StopListening()
		return
	}
	m.talking = true
	m.session.StartListening()
}

func (m *model) resize(width, height int) {
	m.width = width
	m.height = height

	headerHeight := 1
	inputHeight := 1
	helpHeight := 1
	chatHeight := height - headerHeight - inputHeight - helpHeight - 3
	if chatHeight < 3 {
		chatHeight = 3
	}

	m.chatView.Width = width
	m.chatView.Height = chatHeight
	m.inputField.Width = width - 4
	m.updateChatContent()
}

func (m *model) addSystemMessage(text string) {
	m.addMessage(orchestration.Message{
		Sender:    orchestration.SenderSystem,
		Text:      text,
		Timestamp: time.Now(),
	})
}

func (m *model) addMessage(message orchestration.Message) {
	m.messages = append(m.messages, message)
	m.updateChatContent()
}

func (m *model) updateChatContent() {
	width := m.chatView.Width
	if width <= 0 {
		width = 80
	}

	var sb strings.Builder
	for _, message := range m.messages {
		sb.WriteString(m.renderMessage(message, width))
		sb.WriteString("\n")
	}

	m.chatView.SetContent(sb.String())
	m.chatView.GotoBottom()
}

func (m *model) renderMessage(message orchestration.Message, width int) string {
	var label string
	switch message.Sender {
	case orchestration.SenderUser:
		label = m.styles.userLabel.Render(message.Sender + ":")
	case orchestration.SenderAssistant:
		label = m.styles.agentLabel.Render(message.Sender + ":")
	default:
		label = m.styles.systemLabel.Render(message.Sender + ":")
	}

	header := label
	if !message.Timestamp.IsZero() {
		header += " " + m.styles.timestamp.Render(message.Timestamp.Local().Format("15:04"))
	}

	return header + "\n" + wordwrap.String(message.Text, width) + "\n"
}

func (m *model) View() string {
	pill, ok := m.styles.pill[m.status]
	if !ok {
		pill = m.styles.pill[orchestration.StatusIdle]
	}
	header := m.styles.title.Render("Sunday") + " " + pill.Render(m.status.String())
	if m.talking {
		header += " " + m.styles.help.Render("(talking, tab to stop)")
	}

	help := "tab talk · enter send · esc stop reply · ctrl+l clear · ctrl+c quit"
	if !m.captureAvailable {
		help = "enter send · esc stop reply · ctrl+l clear · ctrl+c quit"
	}

	return strings.Join([]string{
		header,
		m.chatView.View(),
		m.inputField.View(),
		m.styles.help.Render(help),
	}, "\n")
}

// turnsToMessages converts persisted history into transcript entries.
func turnsToMessages(turns []backend.Turn) []orchestration.Message {
	messages := make([]orchestration.Message, 0, len(turns))
	for _, turn := range turns {
		sender := orchestration.SenderSystem
		switch turn.Role {
		case "user":
			sender = orchestration.SenderUser
		case "assistant":
			sender = orchestration.SenderAssistant
		}
		messages = append(messages, orchestration.Message{
			Sender:    sender,
			Text:      turn.Content,
			Timestamp: parseTimestamp(turn.Timestamp),
		})
	}
	return messages
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
}

func parseTimestamp(value string) time.Time {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Time{}
}
