package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"easybingo/card"
	"easybingo/clipboard"
	"easybingo/game"
	"easybingo/listen"
	"easybingo/locale"
	"easybingo/log"
	"easybingo/notify"
)

// playActions is what the console asks of the session.
type playActions interface {
	AnnounceManual(n int) error
	ToggleListening()
	SetLocale(tag string)
}

type playModel struct {
	actions playActions
	loc     *locale.Localizer
	pal     palette

	cards  []card.Card
	marked [card.MaxNum + 1]bool
	called []int
	last   int

	state      listen.State
	failure    string
	heard      string
	notes      []notify.Notification
	deviceLine string
	hotkey     bool

	input         textinput.Model
	status        string
	statusIsError bool
	width, height int
}

func newPlayModel(actions playActions, cards []card.Card, loc *locale.Localizer, pal palette, deviceLine string, hotkey bool) playModel {
	in := textinput.New()
	in.Placeholder = loc.T("ui.manual_prompt", nil)
	in.CharLimit = 3
	in.Width = 16
	in.Focus()
	return playModel{
		actions:    actions,
		loc:        loc,
		pal:        pal,
		cards:      cards,
		deviceLine: deviceLine,
		hotkey:     hotkey,
		input:      in,
	}
}

func (m playModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m playModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "ctrl+t":
			m.actions.ToggleListening()
			return m, nil
		case "enter":
			m.submit()
			return m, nil
		case "ctrl+y":
			m.copyCalled()
			return m, nil
		case "ctrl+l":
			m.switchLocale()
			return m, nil
		}

	case numberMsg:
		if !m.marked[msg.N] {
			m.marked[msg.N] = true
			m.called = append(m.called, msg.N)
		}
		m.last = msg.N
		if msg.Source == game.Voice {
			m.status = ""
		}
		return m, nil

	case duplicateMsg:
		m.setStatus(m.loc.T("ui.already_announced", map[string]any{"Number": msg.N}), true)
		return m, nil

	case winMsg:
		m.setStatus(msg.Message, false)
		return m, nil

	case heardMsg:
		m.heard = msg.Text
		return m, nil

	case stateMsg:
		m.state = msg.State
		if msg.State == listen.Listening {
			m.failure = ""
		}
		return m, nil

	case failureMsg:
		m.failure = msg.Message
		return m, nil

	case notesMsg:
		m.notes = msg.Items
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// switchLocale moves to the next catalog language. The console relabels at
// once; the session follows for announcements and recognition.
func (m *playModel) switchLocale() {
	tag := nextLocale(m.loc.Tag())
	m.loc = locale.New(tag)
	m.input.Placeholder = m.loc.T("ui.manual_prompt", nil)
	m.actions.SetLocale(tag)
	m.setStatus(m.loc.T("ui.language", map[string]any{"Tag": tag}), false)
}

func nextLocale(tag string) string {
	for i, t := range locale.Supported {
		if t == tag {
			return locale.Supported[(i+1)%len(locale.Supported)]
		}
	}
	return locale.Supported[0]
}

func (m *playModel) setStatus(s string, isErr bool) {
	m.status = s
	m.statusIsError = isErr
}

func (m *playModel) submit() {
	raw := strings.TrimSpace(m.input.Value())
	if raw == "" {
		return
	}
	n, err := strconv.Atoi(raw)
	if err == nil {
		err = m.actions.AnnounceManual(n)
	}
	if err != nil {
		m.setStatus(m.loc.T("ui.invalid_number", map[string]any{"Input": raw}), true)
		return
	}
	m.input.SetValue("")
	m.setStatus("", false)
}

func (m *playModel) copyCalled() {
	if len(m.called) == 0 {
		return
	}
	if _, err := clipboard.CopyNumbers(m.called); err != nil {
		log.Warnf("clipboard: %v", err)
		m.setStatus(m.loc.T("ui.copy_failed", map[string]any{"Detail": err.Error()}), true)
		return
	}
	m.setStatus(m.loc.T("ui.copied", map[string]any{"Count": len(m.called)}), false)
}

func (m playModel) micBadge() string {
	style := lipgloss.NewStyle().Padding(0, 1).Bold(true)
	switch m.state {
	case listen.Listening:
		return style.Foreground(m.pal.MarkedFg).Background(m.pal.MarkedBg).Render("● " + m.loc.T("ui.mic_on", nil))
	case listen.Faulted:
		return style.Foreground(lipgloss.Color("231")).Background(m.pal.Error).Render("✕ " + m.loc.T("ui.mic_faulted", nil))
	default:
		return style.Foreground(m.pal.Dim).Render("○ " + m.loc.T("ui.mic_off", nil))
	}
}

func (m playModel) header() string {
	title := lipgloss.NewStyle().Foreground(m.pal.Title).Bold(true).Render(m.loc.T("ui.title", nil))
	last := m.loc.T("ui.none_yet", nil)
	if m.last > 0 {
		last = m.loc.T("ui.last", map[string]any{"Number": m.last})
	}
	lastStyled := lipgloss.NewStyle().Foreground(m.pal.Accent).Bold(true).Render(last)
	count := lipgloss.NewStyle().Foreground(m.pal.Dim).Render(m.loc.T("ui.announced", map[string]any{"Count": len(m.called)}))
	return lipgloss.JoinHorizontal(lipgloss.Center, title, "  ", lastStyled, "  ", count, "  ", m.micBadge())
}

// board shows 1-90 in nine columns of ten, announced numbers highlighted.
func (m playModel) board() string {
	on := lipgloss.NewStyle().Foreground(m.pal.MarkedFg).Background(m.pal.MarkedBg).Bold(true)
	off := lipgloss.NewStyle().Foreground(m.pal.Dim)
	lastStyle := lipgloss.NewStyle().Foreground(m.pal.MarkedFg).Background(m.pal.Title).Bold(true)

	var b strings.Builder
	for row := range 10 {
		for col := range 9 {
			n := col*10 + row + 1
			cell := fmt.Sprintf("%3d", n)
			switch {
			case n == m.last:
				b.WriteString(lastStyle.Render(cell))
			case m.marked[n]:
				b.WriteString(on.Render(cell))
			default:
				b.WriteString(off.Render(cell))
			}
			b.WriteString(" ")
		}
		if row < 9 {
			b.WriteString("\n")
		}
	}
	return lipgloss.NewStyle().
		Border(lipgloss.NormalBorder()).
		BorderForeground(m.pal.Border).
		Render(b.String())
}

func (m playModel) notifications() string {
	if len(m.notes) == 0 {
		return ""
	}
	live := lipgloss.NewStyle().Foreground(m.pal.Title).Bold(true)
	fading := lipgloss.NewStyle().Foreground(m.pal.Dim).Italic(true)
	lines := make([]string, 0, len(m.notes))
	for _, n := range m.notes {
		if n.Removing {
			lines = append(lines, fading.Render("  "+n.Message))
		} else {
			lines = append(lines, live.Render("★ "+n.Message))
		}
	}
	return strings.Join(lines, "\n")
}

func (m playModel) View() string {
	sections := []string{m.header(), ""}

	titles := func(i int) string { return m.loc.T("ui.card", map[string]any{"Card": i + 1}) }
	marked := func(n int) bool { return m.marked[n] }
	cards := renderCards(m.cards, titles, marked, m.pal, m.width-lipgloss.Width(m.board())-2)
	sections = append(sections, lipgloss.JoinHorizontal(lipgloss.Top, cards, " ", m.board()))

	if notes := m.notifications(); notes != "" {
		sections = append(sections, "", notes)
	}

	dim := lipgloss.NewStyle().Foreground(m.pal.Dim)
	if m.failure != "" {
		sections = append(sections, lipgloss.NewStyle().Foreground(m.pal.Warn).Render(m.failure))
	}
	if m.heard != "" {
		sections = append(sections, dim.Render(m.loc.T("ui.heard", map[string]any{"Text": m.heard})))
	}

	sections = append(sections, "", m.input.View())
	if m.status != "" {
		color := m.pal.Accent
		if m.statusIsError {
			color = m.pal.Error
		}
		sections = append(sections, lipgloss.NewStyle().Foreground(color).Render(m.status))
	}

	footer := m.loc.T("ui.help", nil)
	if m.hotkey {
		footer += " • ctrl+shift+space"
	}
	sections = append(sections, dim.Render(m.deviceLine+"  "+footer))
	return strings.Join(sections, "\n")
}
