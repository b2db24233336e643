// Package tui renders a live capture-and-respond session in the terminal.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"dubashi.dev/session"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	sectionStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("69"))
	interimStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	statusStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

type sessionChanged struct{}

type opDone struct {
	label string
	err   error
}

type model struct {
	ctrl    *session.Controller
	snap    session.Snapshot
	input   textinput.Model
	width   int
	lastErr string
}

func newModel(ctrl *session.Controller) model {
	input := textinput.New()
	input.Placeholder = "type your reply in English, then press enter"
	input.CharLimit = 500

	return model{
		ctrl:  ctrl,
		snap:  ctrl.Snapshot(),
		input: input,
	}
}

func (m model) Init() tea.Cmd {
	return waitForChange(m.ctrl)
}

func waitForChange(ctrl *session.Controller) tea.Cmd {
	return func() tea.Msg {
		<-ctrl.Updates()
		return sessionChanged{}
	}
}

func runOp(label string, op func() error) tea.Cmd {
	return func() tea.Msg {
		return opDone{label: label, err: op()}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case sessionChanged:
		m.snap = m.ctrl.Snapshot()
		return m, waitForChange(m.ctrl)

	case opDone:
		m.snap = m.ctrl.Snapshot()
		if msg.err != nil {
			m.lastErr = fmt.Sprintf("%s: %v", msg.label, msg.err)
		} else {
			m.lastErr = ""
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.Width = msg.Width - 4
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.input.Focused() {
		switch msg.String() {
		case "enter":
			text := m.input.Value()
			m.input.Blur()
			m.input.SetValue("")
			return m, runOp("translate reply", func() error {
				_, err := m.ctrl.TranslateReply(context.Background(), text)
				return err
			})
		case "esc":
			m.input.Blur()
			return m, nil
		default:
			var cmd tea.Cmd
			m.input, cmd = m.input.Update(msg)
			return m, cmd
		}
	}

	switch msg.String() {
	case "q", "ctrl+c":
		// Stop any running capture before the program exits.
		m.ctrl.Reset()
		return m, tea.Quit
	case "s":
		return m, runOp("start", func() error {
			return m.ctrl.Start(context.Background())
		})
	case "t":
		return m, runOp("stop", func() error {
			return m.ctrl.Stop()
		})
	case "e":
		return m, runOp("translate", func() error {
			_, err := m.ctrl.TranslateTranscript(context.Background())
			return err
		})
	case "c":
		m.input.Focus()
		return m, textinput.Blink
	case "p":
		return m, runOp("speak", func() error {
			return m.ctrl.SpeakReply(context.Background())
		})
	case "r":
		m.ctrl.Reset()
		m.snap = m.ctrl.Snapshot()
		m.lastErr = ""
		return m, nil
	}

	return m, nil
}

func (m model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("dubashi"))
	b.WriteString(fmt.Sprintf("  [%s]", m.snap.State))
	if m.snap.SentenceLimit > 0 {
		b.WriteString(fmt.Sprintf("  %d/%d sentences", m.snap.Sentences, m.snap.SentenceLimit))
	}
	b.WriteString("\n\n")

	b.WriteString(sectionStyle.Render("Heard"))
	b.WriteString("\n")
	if m.snap.Committed != "" {
		b.WriteString(m.snap.Committed)
	}
	if m.snap.Interim != "" {
		if m.snap.Committed != "" {
			b.WriteString(" ")
		}
		b.WriteString(interimStyle.Render(m.snap.Interim))
	}
	b.WriteString("\n\n")

	b.WriteString(sectionStyle.Render("In English"))
	b.WriteString("\n")
	b.WriteString(m.snap.Translation)
	b.WriteString("\n\n")

	b.WriteString(sectionStyle.Render("Reply"))
	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")
	b.WriteString(m.snap.Reply)
	b.WriteString("\n\n")

	if m.snap.Status != "" {
		b.WriteString(statusStyle.Render(m.snap.Status))
		b.WriteString("\n")
	}
	if m.lastErr != "" {
		b.WriteString(statusStyle.Render(m.lastErr))
		b.WriteString("\n")
	}

	b.WriteString(helpStyle.Render(
		"s start · t stop · e translate · c compose · p speak · r reset · q quit"))
	b.WriteString("\n")

	return b.String()
}

// Run displays the session UI until the user quits.
func Run(ctrl *session.Controller) error {
	p := tea.NewProgram(newModel(ctrl), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
