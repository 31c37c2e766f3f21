package ui

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/muurk/octanews/internal/wsclient"
)

type fakeClient struct {
	sent  []string
	err   error
	state wsclient.State
}

func (f *fakeClient) SendText(message string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, message)
	return nil
}

func (f *fakeClient) State() wsclient.State {
	return f.state
}

func typeText(m ConsoleModel, text string) ConsoleModel {
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
	return next.(ConsoleModel)
}

func pressEnter(m ConsoleModel) ConsoleModel {
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	return next.(ConsoleModel)
}

func TestConsole_SendsInput(t *testing.T) {
	client := &fakeClient{state: wsclient.StateConnected}
	m := NewConsoleModel(client, "ws://localhost/m")

	m = pressEnter(typeText(m, "hello"))

	if len(client.sent) != 1 || client.sent[0] != "hello" {
		t.Fatalf("sent = %v", client.sent)
	}
	if m.input.Value() != "" {
		t.Errorf("input not cleared: %q", m.input.Value())
	}
	if len(m.lines) != 1 || m.lines[0].kind != lineOutbound {
		t.Errorf("lines = %+v", m.lines)
	}
}

func TestConsole_EmptyInputIsIgnored(t *testing.T) {
	client := &fakeClient{}
	m := pressEnter(NewConsoleModel(client, "ws://localhost/m"))
	if len(client.sent) != 0 || len(m.lines) != 0 {
		t.Errorf("sent = %v, lines = %v", client.sent, m.lines)
	}
}

func TestConsole_SendErrorIsShown(t *testing.T) {
	client := &fakeClient{err: errors.New("not connected")}
	m := pressEnter(typeText(NewConsoleModel(client, "ws://localhost/m"), "hi"))

	if len(m.lines) != 1 || m.lines[0].kind != lineError || m.lines[0].text != "not connected" {
		t.Errorf("lines = %+v", m.lines)
	}
}

func TestConsole_InboundMessages(t *testing.T) {
	m := NewConsoleModel(&fakeClient{}, "ws://localhost/m")

	next, _ := m.Update(InboundMsg{Text: "news"})
	next, _ = next.Update(InboundMsg{Binary: []byte{0xca, 0xfe}})
	m = next.(ConsoleModel)

	if len(m.lines) != 2 {
		t.Fatalf("lines = %+v", m.lines)
	}
	if m.lines[0].text != "news" || m.lines[1].text != "[2 bytes] cafe" {
		t.Errorf("lines = %+v", m.lines)
	}
	if !strings.Contains(m.View(), "news") {
		t.Error("View() should show inbound text")
	}
}

func TestConsole_StateChanges(t *testing.T) {
	client := &fakeClient{state: wsclient.StateConnected}
	m := NewConsoleModel(client, "ws://localhost/m")

	next, cmd := m.Update(stateTickMsg{})
	if cmd == nil {
		t.Error("state polling should continue")
	}
	if len(next.(ConsoleModel).lines) != 0 {
		t.Error("unchanged state should not add a line")
	}

	client.state = wsclient.StateReconnecting
	next, _ = next.Update(stateTickMsg{})
	m = next.(ConsoleModel)
	if len(m.lines) != 1 || !strings.Contains(m.lines[0].text, "reconnecting") {
		t.Errorf("lines = %+v", m.lines)
	}
}

func TestConsole_ClearAndQuit(t *testing.T) {
	m := NewConsoleModel(&fakeClient{}, "ws://localhost/m")
	next, _ := m.Update(InboundMsg{Text: "x"})
	next, _ = next.Update(tea.KeyMsg{Type: tea.KeyCtrlL})
	if len(next.(ConsoleModel).lines) != 0 {
		t.Error("ctrl+l should clear lines")
	}

	_, cmd := next.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if cmd == nil {
		t.Fatal("esc should quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("esc should produce tea.QuitMsg")
	}
}

func TestConsole_KeepsBoundedHistory(t *testing.T) {
	m := NewConsoleModel(&fakeClient{}, "ws://localhost/m")
	for i := 0; i < maxConsoleLines+10; i++ {
		m.addLine(lineNotice, "x")
	}
	if len(m.lines) != maxConsoleLines {
		t.Errorf("len(lines) = %d, want %d", len(m.lines), maxConsoleLines)
	}
}
