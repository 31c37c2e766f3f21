package ui

import (
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/octanews/internal/wsclient"
)

const (
	// maxConsoleLines is the number of message lines kept in memory
	maxConsoleLines = 500

	// statePollInterval is how often the console refreshes the client state
	statePollInterval = 250 * time.Millisecond
)

// ConsoleClient is the part of an endpoint client the console drives
type ConsoleClient interface {
	SendText(message string) error
	State() wsclient.State
}

// InboundMsg delivers a message received by the client to the console
type InboundMsg struct {
	Text   string
	Binary []byte
}

type stateTickMsg struct{}

type lineKind int

const (
	lineInbound lineKind = iota
	lineOutbound
	lineNotice
	lineError
)

type consoleLine struct {
	at   time.Time
	kind lineKind
	text string
}

// consoleKeyMap defines key bindings for the console
type consoleKeyMap struct {
	Send  key.Binding
	Clear key.Binding
	Quit  key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k consoleKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Send, k.Clear, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k consoleKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Send, k.Clear, k.Quit}}
}

// ConsoleModel is the interactive message console of the connect command
type ConsoleModel struct {
	client   ConsoleClient
	endpoint string

	input   textinput.Model
	spinner spinner.Model
	help    help.Model
	keys    consoleKeyMap

	lines  []consoleLine
	state  wsclient.State
	width  int
	height int
}

// NewConsoleModel creates a console for client connected to endpoint
func NewConsoleModel(client ConsoleClient, endpoint string) ConsoleModel {
	input := textinput.New()
	input.Placeholder = "type a message and press enter"
	input.Prompt = OutboundMarker + " "
	input.Focus()

	s := spinner.New()
	s.Spinner = spinner.Dot

	width, height := GetTerminalSize()
	input.Width = width - 6

	return ConsoleModel{
		client:   client,
		endpoint: endpoint,
		input:    input,
		spinner:  s,
		help:     help.New(),
		keys: consoleKeyMap{
			Send: key.NewBinding(
				key.WithKeys("enter"),
				key.WithHelp("enter", "send"),
			),
			Clear: key.NewBinding(
				key.WithKeys("ctrl+l"),
				key.WithHelp("ctrl+l", "clear"),
			),
			Quit: key.NewBinding(
				key.WithKeys("esc", "ctrl+c"),
				key.WithHelp("esc", "quit"),
			),
		},
		state:  client.State(),
		width:  width,
		height: height,
	}
}

// Init implements tea.Model
func (m ConsoleModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick, pollState())
}

func pollState() tea.Cmd {
	return tea.Tick(statePollInterval, func(time.Time) tea.Msg {
		return stateTickMsg{}
	})
}

// Update implements tea.Model
func (m ConsoleModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = clampWidth(msg.Width)
		m.height = msg.Height
		m.input.Width = m.width - 6
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Clear):
			m.lines = nil
			return m, nil
		case key.Matches(msg, m.keys.Send):
			return m.send(), nil
		}

	case InboundMsg:
		if msg.Binary != nil {
			m.addLine(lineInbound, fmt.Sprintf("[%d bytes] %s", len(msg.Binary), hex.EncodeToString(msg.Binary)))
		} else {
			m.addLine(lineInbound, msg.Text)
		}
		return m, nil

	case stateTickMsg:
		if state := m.client.State(); state != m.state {
			m.addLine(lineNotice, "client is "+state.String())
			m.state = state
		}
		return m, pollState()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m ConsoleModel) send() ConsoleModel {
	text := m.input.Value()
	if text == "" {
		return m
	}
	m.input.Reset()

	if err := m.client.SendText(text); err != nil {
		m.addLine(lineError, err.Error())
		return m
	}
	m.addLine(lineOutbound, text)
	return m
}

func (m *ConsoleModel) addLine(kind lineKind, text string) {
	m.lines = append(m.lines, consoleLine{at: time.Now(), kind: kind, text: text})
	if len(m.lines) > maxConsoleLines {
		m.lines = m.lines[len(m.lines)-maxConsoleLines:]
	}
}

// View implements tea.Model
func (m ConsoleModel) View() string {
	header := RenderHeader("Console", m.endpoint, []Detail{{Key: "State", Value: m.stateLabel()}}, m.width)
	footer := lipgloss.JoinVertical(lipgloss.Left, m.input.View(), NoticeStyle.Render(m.help.View(m.keys)))

	// room left for messages between header and footer
	room := m.height - lipgloss.Height(header) - lipgloss.Height(footer) - 1
	if room < 3 {
		room = 3
	}
	lines := m.lines
	if len(lines) > room {
		lines = lines[len(lines)-room:]
	}

	rendered := make([]string, 0, room)
	for _, l := range lines {
		rendered = append(rendered, renderLine(l))
	}
	for len(rendered) < room {
		rendered = append(rendered, "")
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, strings.Join(rendered, "\n"), footer)
}

func (m ConsoleModel) stateLabel() string {
	switch m.state {
	case wsclient.StateConnecting, wsclient.StateReconnecting:
		return m.spinner.View() + " " + lipgloss.NewStyle().Foreground(WarningColor).Render(m.state.String())
	case wsclient.StateConnected:
		return lipgloss.NewStyle().Foreground(SuccessColor).Render(SuccessMarker + " " + m.state.String())
	case wsclient.StateFailed:
		return lipgloss.NewStyle().Foreground(ErrorColor).Render(FailureMarker + " " + m.state.String())
	default:
		return m.state.String()
	}
}

func renderLine(l consoleLine) string {
	stamp := NoticeStyle.Render(l.at.Format("15:04:05"))
	switch l.kind {
	case lineInbound:
		return stamp + " " + InboundStyle.Render(InboundMarker+" "+l.text)
	case lineOutbound:
		return stamp + " " + OutboundStyle.Render(OutboundMarker+" "+l.text)
	case lineError:
		return stamp + " " + ErrorMessageStyle.Render(FailureMarker+" "+l.text)
	default:
		return stamp + " " + NoticeStyle.Render(l.text)
	}
}
