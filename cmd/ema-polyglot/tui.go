package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	orchestration "github.com/koscakluka/ema-polyglot/core"
	"github.com/koscakluka/ema-polyglot/core/events"
	"github.com/koscakluka/ema-polyglot/core/language"
	"github.com/muesli/reflow/wordwrap"
)

const defaultWidth = 80

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	labelStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	languageStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	userStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	interimStyle  = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("245"))
	replyStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("117"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

type sessionEventMsg struct{ event events.Event }

type sessionEndedMsg struct{ err error }

type model struct {
	spinner spinner.Model
	width   int

	state      orchestration.State
	language   string
	speaking   bool
	interim    string
	transcript string
	reply      strings.Builder
	lastReply  string
	err        error
}

func newModel(defaultLanguage string) *model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	return &model{
		spinner:  s,
		width:    defaultWidth,
		state:    orchestration.StateUnconfigured,
		language: defaultLanguage,
	}
}

func (m *model) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case sessionEndedMsg:
		m.err = msg.err
		m.state = orchestration.StateEnded
		return m, tea.Quit
	case sessionEventMsg:
		m.apply(msg.event)
	}
	return m, nil
}

func (m *model) apply(event events.Event) {
	switch event := event.(type) {
	case events.SessionStateChanged:
		m.state = orchestration.State(event.To)
	case events.LanguageChanged:
		m.language = event.To
	case events.UserSpeechStarted:
		m.speaking = true
	case events.UserSpeechEnded:
		m.speaking = false
	case events.UserTranscriptInterimUpdated:
		m.interim = event.Transcript
	case events.UserTranscriptFinal:
		m.interim = ""
		m.transcript = event.Transcript
	case events.AssistantResponseSegment:
		m.reply.WriteString(event.Segment)
	case events.AssistantResponseFinal:
		if event.Text != "" {
			m.lastReply = event.Text
		}
		m.reply.Reset()
	}
}

func (m *model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("ema polyglot"))
	b.WriteString("\n\n")

	status := string(m.state)
	switch m.state {
	case orchestration.StateUnconfigured, orchestration.StateBuilding, orchestration.StateReady:
		status = m.spinner.View() + " " + status
	}
	fmt.Fprintf(&b, "%s %s   %s %s\n",
		labelStyle.Render("session"), status,
		labelStyle.Render("language"), languageStyle.Render(language.DisplayName(m.language)))

	if m.speaking {
		b.WriteString(labelStyle.Render("listening..."))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	wrap := func(text string) string { return wordwrap.String(text, max(m.width-2, 20)) }
	if m.transcript != "" {
		b.WriteString(labelStyle.Render("you"))
		b.WriteString("\n")
		b.WriteString(userStyle.Render(wrap(m.transcript)))
		b.WriteString("\n\n")
	}
	if m.interim != "" {
		b.WriteString(interimStyle.Render(wrap(m.interim)))
		b.WriteString("\n\n")
	}

	reply := m.reply.String()
	if reply == "" {
		reply = m.lastReply
	}
	if reply != "" {
		b.WriteString(labelStyle.Render("assistant"))
		b.WriteString("\n")
		b.WriteString(replyStyle.Render(wrap(reply)))
		b.WriteString("\n\n")
	}

	if m.err != nil {
		b.WriteString(errorStyle.Render(wrap(m.err.Error())))
		b.WriteString("\n")
	}
	b.WriteString(labelStyle.Render("q to quit"))
	b.WriteString("\n")
	return b.String()
}
