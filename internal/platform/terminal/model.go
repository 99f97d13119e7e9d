package terminal

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/winloop/internal/platform"
)

// runStats is shared by every copy of the model Bubble Tea makes.
type runStats struct {
	dispatched int
	last       string
	focused    bool
	exited     bool
}

// model is the tea.Model behind the terminal window. It translates Bubble Tea
// messages into platform events and renders a small status frame.
type model struct {
	win      *window
	flow     platform.ControlFlow
	interval time.Duration
	dispatch platform.Dispatcher

	keys  keyMap
	help  help.Model
	theme Theme

	width, height int
	stats         *runStats
}

func newModel(win *window, cfg platform.RunConfig, dispatch platform.Dispatcher, theme Theme) model {
	return model{
		win:      win,
		flow:     cfg.ControlFlow,
		interval: cfg.Interval(),
		dispatch: dispatch,
		keys:     defaultKeyMap(),
		help:     help.New(),
		theme:    theme,
		stats:    &runStats{focused: true},
	}
}

// Messages

type resumedMsg struct{}

type tickMsg time.Time

type wakeMsg struct{}

type inboxMsg struct {
	event platform.Event
}

// Commands

func resumeCmd() tea.Msg { return resumedMsg{} }

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Init implements tea.Model.
func (m model) Init() tea.Cmd {
	cmds := []tea.Cmd{resumeCmd}
	if title := m.win.attrs.Title; title != "" {
		cmds = append(cmds, tea.SetWindowTitle(title))
	}
	if m.flow == platform.Poll {
		cmds = append(cmds, tickCmd(m.interval))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.stats.exited {
		return m, nil
	}
	id := m.win.id

	switch msg := msg.(type) {
	case resumedMsg:
		return m, m.emit(platform.Resumed{})

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		w, h := m.frameSize()
		if cmd := m.emit(platform.Resized{Window: id, Width: w, Height: h}); cmd != nil {
			return m, cmd
		}
		// A resized surface is stale under either policy.
		return m, m.emit(platform.RedrawRequested{Window: id})

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Close) {
			return m, m.emit(platform.CloseRequested{Window: id})
		}
		return m, m.emit(platform.KeyPressed{Window: id, Key: msg.String()})

	case tea.FocusMsg:
		m.stats.focused = true
		return m, m.emit(platform.Focused{Window: id, Focused: true})

	case tea.BlurMsg:
		m.stats.focused = false
		return m, m.emit(platform.Focused{Window: id, Focused: false})

	case tickMsg:
		if cmd := m.emit(platform.RedrawRequested{Window: id}); cmd != nil {
			return m, cmd
		}
		return m, tickCmd(m.interval)

	case inboxMsg:
		return m, m.emit(msg.event)

	case wakeMsg:
		return m, m.emit(platform.Wake{})
	}

	return m, nil
}

// emit hands ev to the dispatcher and returns tea.Quit once it asks to exit.
func (m model) emit(ev platform.Event) tea.Cmd {
	m.stats.dispatched++
	m.stats.last = platform.Describe(ev)
	if m.dispatch(ev) == platform.Exit {
		m.stats.exited = true
		return tea.Quit
	}
	return nil
}

// frameSize clamps the requested window size to the terminal.
func (m model) frameSize() (int, int) {
	w, h := m.width, m.height
	if a := m.win.attrs; a.Width > 0 && a.Width < w {
		w = a.Width
	}
	if a := m.win.attrs; a.Height > 0 && a.Height < h {
		h = a.Height
	}
	return w, h
}

// View implements tea.Model.
func (m model) View() string {
	if m.stats.exited || m.width == 0 || !m.win.attrs.Visible {
		return ""
	}
	st := m.theme.Styles(m.stats.focused)
	w, h := m.frameSize()

	row := func(label, value string) string {
		return st.Label.Render(label) + st.Value.Render(value)
	}
	rows := []string{
		st.Chip.Render("RUNNING"),
		"",
		row("policy", m.policyLabel()),
		row("events", fmt.Sprintf("%d", m.stats.dispatched)),
		row("last", m.stats.last),
		row("size", fmt.Sprintf("%dx%d", w, h)),
	}

	m.help.Width = w
	footer := st.Footer.Render(m.help.ShortHelpView(m.keys.ShortHelp()))

	if !m.win.attrs.Decorations {
		body := lipgloss.JoinVertical(lipgloss.Left, append(rows, "", footer)...)
		return lipgloss.NewStyle().Width(w).MaxHeight(h).Render(body)
	}

	title := m.win.attrs.Title
	if strings.TrimSpace(title) == "" {
		title = "winloop"
	}
	body := lipgloss.JoinVertical(lipgloss.Left,
		append(append([]string{st.Title.Render(title), ""}, rows...), "", footer)...)

	// The frame's border takes one cell on each side.
	return st.Frame.
		Width(max(w-2, 0)).
		Height(max(h-2, 0)).
		MaxHeight(h).
		Render(body)
}

func (m model) policyLabel() string {
	if m.flow == platform.Poll {
		return fmt.Sprintf("poll every %s", m.interval)
	}
	return "wait for events"
}
