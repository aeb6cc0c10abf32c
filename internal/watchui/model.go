// Package watchui provides the Bubble Tea dashboard that replays a host feed through the engine.
package watchui

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/tradescan/internal/engine"
	"github.com/verte-zerg/tradescan/internal/hostfeed"
	"github.com/verte-zerg/tradescan/internal/messages"
	"github.com/verte-zerg/tradescan/internal/model"
	"github.com/verte-zerg/tradescan/internal/price"
	"github.com/verte-zerg/tradescan/internal/stats"
)

const (
	tabHighlights = iota
	tabStats
)

// DefaultInterval is the delay between replayed frames.
const DefaultInterval = 500 * time.Millisecond

var (
	activeNavStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A"))
	inactiveNavStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#B0B0B0")).
				Padding(0, 1).
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#4A4A4A"))
	headerStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	statusStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	tableMutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#B8B8B8"))
)

type tickMsg time.Time

// SessionEndedMsg carries a finished session into the dashboard. Send it from the engine's
// session-end hook with Program.Send.
type SessionEndedMsg struct {
	Record model.SessionRecord
}

// Options configures the dashboard.
type Options struct {
	Interval time.Duration
	// Loop restarts the feed after the last frame.
	Loop     bool
	Messages *messages.Catalog
}

// Model implements the Bubble Tea watch UI.
type Model struct {
	engine *engine.Engine
	frames []hostfeed.Frame
	opts   Options
	msgs   *messages.Catalog

	next   int
	paused bool
	frame  hostfeed.Frame
	result engine.PassResult
	status string

	tabs       []string
	activeTab  int
	highlights table.Model
	statsView  viewport.Model

	width  int
	height int
}

// NewModel constructs a dashboard replaying frames through eng.
func NewModel(eng *engine.Engine, frames []hostfeed.Frame, opts Options) *Model {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Messages == nil {
		opts.Messages = messages.Default()
	}
	m := &Model{
		engine:     eng,
		frames:     frames,
		opts:       opts,
		msgs:       opts.Messages,
		tabs:       []string{"Highlights", "Stats"},
		highlights: buildHighlightTable(nil, 80, 10),
		statsView:  viewport.New(0, 0),
	}
	m.renderStats()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return m.tick()
}

func (m *Model) tick() tea.Cmd {
	return tea.Tick(m.opts.Interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		return m, nil
	case tickMsg:
		if !m.paused {
			m.step()
		}
		m.renderStats()
		return m, m.tick()
	case SessionEndedMsg:
		m.status = m.msgs.Format("session.ended", map[string]string{
			"session": shortID(msg.Record.ID),
			"reason":  msg.Record.Reason,
		})
		m.renderStats()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.String() == "q" {
			return m, tea.Quit
		}
		if msg.Type == tea.KeySpace {
			m.paused = !m.paused
			return m, nil
		}
		switch msg.String() {
		case "s":
			m.toggleSession()
			return m, nil
		case "m":
			m.engine.SetSoundsEnabled(!m.engine.SoundsEnabled())
			return m, nil
		case "n":
			m.step()
			m.renderStats()
			return m, nil
		case "left", "h":
			m.moveTab(-1)
			return m, nil
		case "right", "l":
			m.moveTab(1)
			return m, nil
		default:
			var cmd tea.Cmd
			if m.activeTab == tabHighlights {
				m.highlights, cmd = m.highlights.Update(msg)
			} else {
				m.statsView, cmd = m.statsView.Update(msg)
			}
			return m, cmd
		}
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	headerHeight, bodyHeight, footerHeight := m.layoutHeights()
	header := fitLines(m.renderHeader(), m.width, headerHeight)
	body := fitLines(m.renderBody(), m.width, bodyHeight)
	footer := fitLines(headerStyle.Render(strings.ReplaceAll(m.msgs.Get("watch.help"), "\n", "  ")), m.width, footerHeight)
	return strings.Join([]string{header, body, footer}, "\n")
}

// Result returns the outcome of the most recent pass.
func (m *Model) Result() engine.PassResult {
	return m.result
}

// step feeds the next frame to the engine.
func (m *Model) step() {
	if m.next >= len(m.frames) {
		if !m.opts.Loop || len(m.frames) == 0 {
			return
		}
		m.next = 0
	}
	m.frame = m.frames[m.next]
	m.next++
	m.result = m.engine.ProcessPass(m.frame.Events)
	width := m.width
	if width <= 0 {
		width = 80
	}
	_, bodyHeight, _ := m.layoutHeights()
	m.highlights = buildHighlightTable(m.highlightRows(), width, bodyHeight)
}

func (m *Model) toggleSession() {
	if m.engine.SessionActive() {
		m.engine.StopSession()
		return
	}
	id := m.engine.StartSession()
	minutes := m.engine.SessionRemaining().Minutes()
	m.status = m.msgs.Format("session.started", map[string]string{
		"session": shortID(id),
		"minutes": strconv.FormatFloat(minutes, 'f', -1, 64),
	})
}

func (m *Model) highlightRows() []table.Row {
	names := make(map[int]string, len(m.frame.Events))
	for _, ev := range m.frame.Events {
		names[ev.Slot] = ev.DisplayName
	}
	rows := make([]table.Row, 0, len(m.result.Highlights))
	for _, h := range m.result.Highlights {
		rows = append(rows, table.Row{
			strconv.Itoa(h.Slot),
			names[h.Slot],
			price.Format(h.UnitPrice),
			price.Format(h.MaxPrice),
			fmt.Sprintf("%.2f", h.Opacity),
			h.Color.Hex(),
		})
	}
	return rows
}

func buildHighlightTable(rows []table.Row, width, height int) table.Model {
	fixed := 5 + 10 + 10 + 8 + 10
	columns := []table.Column{
		{Title: "Slot", Width: 5},
		{Title: "Item", Width: maxInt(10, width-fixed-2)},
		{Title: "Unit", Width: 10},
		{Title: "Max", Width: 10},
		{Title: "Opacity", Width: 8},
		{Title: "Color", Width: 10},
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithHeight(maxInt(1, height-1)),
		table.WithFocused(true),
	)
	t.SetWidth(width)
	t.SetStyles(highlightTableStyles())
	return t
}

func highlightTableStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true).
		Padding(0, 1).
		PaddingLeft(0)
	styles.Cell = styles.Cell.
		Padding(0, 1).
		PaddingLeft(0)
	styles.Selected = styles.Cell.
		Foreground(lipgloss.Color("#F0F0F0")).
		Bold(true)
	return styles
}

func (m *Model) renderStats() {
	var buf bytes.Buffer
	if err := stats.RenderTerms(&buf, m.engine.AllStats()); err != nil {
		m.statsView.SetContent(fmt.Sprintf("Failed to render stats: %v", err))
		return
	}
	m.statsView.SetContent(strings.TrimRight(buf.String(), "\n"))
}

func (m *Model) layoutHeights() (headerHeight, bodyHeight, footerHeight int) {
	tabsHeight := lipgloss.Height(activeNavStyle.Render("X"))
	headerHeight = tabsHeight + 2
	footerHeight = 1
	bodyHeight = m.height - headerHeight - footerHeight
	if bodyHeight < 1 {
		bodyHeight = 1
	}
	return headerHeight, bodyHeight, footerHeight
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	_, bodyHeight, _ := m.layoutHeights()
	m.statsView.Width = m.width
	m.statsView.Height = bodyHeight
	m.highlights = buildHighlightTable(m.highlightRows(), m.width, bodyHeight)
}

func (m *Model) moveTab(delta int) {
	count := len(m.tabs)
	next := m.activeTab + delta
	if next < 0 {
		next = count - 1
	}
	if next >= count {
		next = 0
	}
	m.activeTab = next
	if m.activeTab == tabHighlights {
		m.highlights.Focus()
	} else {
		m.highlights.Blur()
	}
}

func (m *Model) renderTabs() string {
	parts := make([]string, 0, len(m.tabs))
	for i, tab := range m.tabs {
		if i == m.activeTab {
			parts = append(parts, activeNavStyle.Render(tab))
		} else {
			parts = append(parts, inactiveNavStyle.Render(tab))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m *Model) renderHeader() string {
	return m.renderTabs() + "\n" +
		headerStyle.Render(truncateLine(m.summaryLine(), m.width)) + "\n" +
		statusStyle.Render(truncateLine(m.status, m.width))
}

func (m *Model) summaryLine() string {
	session := "off"
	if m.engine.SessionActive() {
		session = m.engine.SessionRemaining().Round(time.Second).String() + " left"
	}
	state := "playing"
	if m.paused {
		state = "paused"
	}
	sounds := "on"
	if !m.engine.SoundsEnabled() {
		sounds = "off"
	}
	return fmt.Sprintf("Profile: %s  frame %d/%d (%s)  matched=%d  session=%s  sounds=%s",
		m.engine.ActiveProfile(), m.next, len(m.frames), state, m.result.Matched, session, sounds)
}

func (m *Model) renderBody() string {
	if m.activeTab == tabStats {
		return m.statsView.View()
	}
	if len(m.result.Highlights) == 0 {
		return "No highlighted items."
	}
	return tableMutedStyle.Render(m.highlights.View())
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func padLine(line string, width int) string {
	lineWidth := lipgloss.Width(line)
	if lineWidth < width {
		return line + strings.Repeat(" ", width-lineWidth)
	}
	return line
}

func fitLines(s string, width, height int) string {
	if width <= 0 || height <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}
	return strings.Join(lines, "\n")
}

func truncateLine(s string, width int) string {
	if width <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	if width <= 3 {
		return string(runes[:width])
	}
	return string(runes[:width-3]) + "..."
}
