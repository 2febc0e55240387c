// Package tui provides a Bubble Tea TUI for browsing an activity report.
package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fakeyudi/focuslog/internal/reconstruct"
	"github.com/fakeyudi/focuslog/internal/render"
)

const (
	colorAccent = lipgloss.Color("62")
	colorBright = lipgloss.Color("15")
	colorMuted  = lipgloss.Color("245")
	colorPanel  = lipgloss.Color("235")
	colorFaint  = lipgloss.Color("240")
)

var (
	titleStyle       = lipgloss.NewStyle().Bold(true).Foreground(colorBright).Background(colorAccent).Padding(0, 2)
	activeTabStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorBright).Background(colorAccent).Padding(0, 1)
	inactiveTabStyle = lipgloss.NewStyle().Foreground(colorMuted).Background(colorPanel).Padding(0, 1)
	tabSepStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("238")).Background(colorPanel)
	tabRowStyle      = lipgloss.NewStyle().Background(colorPanel)
	statusBarStyle   = lipgloss.NewStyle().Foreground(colorMuted).Background(colorPanel).Padding(0, 1)

	sectionHeader = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	labelStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("33"))
	dimStyle      = lipgloss.NewStyle().Foreground(colorFaint)
	timeStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("178"))
	barStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
)

type tabID int

const (
	tabSummary tabID = iota
	tabActivities
	tabGaps
	tabBuckets
	tabCount
)

var tabNames = [tabCount]string{"Summary", "Activities", "Gaps", "Buckets"}

// Model is the root Bubble Tea model for the report viewer.
type Model struct {
	summary   *render.Summary
	activeTab tabID
	viewports [tabCount]viewport.Model
	width     int
	height    int
	ready     bool
	// Gaps tab: chronological instead of largest first
	gapsByTime bool
}

// New creates a new TUI model for the given summary.
func New(s *render.Summary) Model {
	return Model{summary: s}
}

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			return m, tea.Quit
		case "tab", "l", "right":
			m.activeTab = (m.activeTab + 1) % tabCount
		case "shift+tab", "h", "left":
			m.activeTab = (m.activeTab - 1 + tabCount) % tabCount
		case "1", "2", "3", "4":
			m.activeTab = tabID(msg.String()[0] - '1')
		case "s":
			if m.activeTab == tabGaps {
				m.gapsByTime = !m.gapsByTime
				if m.ready {
					m.viewports[tabGaps].SetContent(m.renderTab(tabGaps))
					m.viewports[tabGaps].GotoTop()
				}
			}
		}
		var cmd tea.Cmd
		m.viewports[m.activeTab], cmd = m.viewports[m.activeTab].Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.initViewports()
		return m, nil
	}
	return m, nil
}

func (m Model) View() string {
	if !m.ready {
		return "Loading report…"
	}

	title := titleStyle.Width(m.width).Render("  focuslog  last " + m.summary.Window)

	tabs := make([]string, 0, 2*tabCount)
	for i, name := range tabNames {
		style := inactiveTabStyle
		if tabID(i) == m.activeTab {
			style = activeTabStyle
		}
		if i > 0 {
			tabs = append(tabs, tabSepStyle.Render("│"))
		}
		tabs = append(tabs, style.Render(fmt.Sprintf(" %d %s ", i+1, name)))
	}
	tabRow := tabRowStyle.Width(m.width).Render(lipgloss.JoinHorizontal(lipgloss.Top, tabs...))
	vp := m.viewports[m.activeTab]

	hint := "  ←/→ tab  ↑/↓ scroll  1-4 jump  q quit"
	if m.activeTab == tabGaps {
		order := "largest first"
		if m.gapsByTime {
			order = "oldest first"
		}
		hint += "  s sort (" + order + ")"
	}
	scroll := fmt.Sprintf("%3.0f%%", vp.ScrollPercent()*100)
	gap := max(1, m.width-lipgloss.Width(hint)-len(scroll)-2)
	status := statusBarStyle.Width(m.width).Render(hint + strings.Repeat(" ", gap) + scroll)

	return lipgloss.JoinVertical(lipgloss.Left, title, tabRow, vp.View(), status)
}

func (m *Model) initViewports() {
	// Title, tab row and status bar take one line each.
	height := max(1, m.height-3)
	for i := range m.viewports {
		m.viewports[i] = viewport.New(m.width, height)
		m.viewports[i].SetContent(m.renderTab(tabID(i)))
	}
}

func (m *Model) renderTab(t tabID) string {
	switch t {
	case tabSummary:
		return m.renderSummary()
	case tabActivities:
		return m.renderActivities()
	case tabGaps:
		return m.renderGaps()
	case tabBuckets:
		return m.renderBuckets()
	}
	return ""
}

func heading(s string) string {
	return "\n" + sectionHeader.Render("  "+s) + "\n\n"
}

func (m *Model) renderSummary() string {
	r := m.summary.Report
	var sb strings.Builder
	sb.WriteString(heading("Time Summary"))

	row := func(label, value string) {
		sb.WriteString(labelStyle.Render(fmt.Sprintf("  %-20s", label)) + "  " + value + "\n")
	}
	row("Data range:", render.DataRange(r))
	row("Records:", fmt.Sprintf("%d", r.Records))
	for _, hr := range render.HeaderRows(r) {
		row(hr.Metric+":", hr.Value)
	}
	row("Gaps:", fmt.Sprintf("%d", len(r.Gaps)))
	if len(r.Anomalies) > 0 {
		row("Skipped anomalies:", fmt.Sprintf("%d", len(r.Anomalies)))
	}
	return sb.String()
}

// bar draws a proportional bar for a share of tracked time.
func bar(p reconstruct.Percentage, width int) string {
	if !p.Defined || width <= 0 {
		return ""
	}
	n := int(p.Value / 100 * float64(width))
	return barStyle.Render(strings.Repeat("█", n)) + dimStyle.Render(strings.Repeat("░", width-n))
}

func (m *Model) renderActivities() string {
	r := m.summary.Report
	var sb strings.Builder
	sb.WriteString(heading(fmt.Sprintf("Activities (%d)", len(r.Activities))))
	if len(r.Activities) == 0 {
		sb.WriteString(dimStyle.Render("  (none)") + "\n")
		return sb.String()
	}
	barWidth := m.width - 60
	if barWidth > 30 {
		barWidth = 30
	}
	for i, a := range r.Activities {
		num := dimStyle.Render(fmt.Sprintf("  %3d.", i+1))
		fmt.Fprintf(&sb, "%s  %-28s %12s %8s  %s\n", num, truncate(a.Identity, 28), render.Clock(a.Seconds), a.Share, bar(a.Share, barWidth))
	}
	return sb.String()
}

func (m *Model) renderGaps() string {
	r := m.summary.Report
	var sb strings.Builder

	order := "largest first"
	if m.gapsByTime {
		order = "oldest first"
	}
	sb.WriteString(heading(fmt.Sprintf("Gaps (%d, %s)", len(r.Gaps), order)))

	gaps := append([]reconstruct.Gap(nil), r.Gaps...)
	if m.gapsByTime {
		sort.Slice(gaps, func(i, j int) bool { return gaps[i].Start.Before(gaps[j].Start) })
	}
	if len(gaps) == 0 {
		sb.WriteString(dimStyle.Render("  (no gaps in this window)") + "\n")
		return sb.String()
	}
	for _, g := range gaps {
		from := timeStyle.Render(render.Timestamp(g.Start))
		to := timeStyle.Render(render.Timestamp(g.End))
		sb.WriteString(fmt.Sprintf("  %s → %s  %s\n\n", from, to, render.Clock(g.Seconds)))
	}
	return sb.String()
}

func (m *Model) renderBuckets() string {
	var sb strings.Builder
	if m.summary.Buckets == nil {
		sb.WriteString(heading("Buckets"))
		sb.WriteString(dimStyle.Render("  (run report with --by hour or --by date)") + "\n")
		return sb.String()
	}
	sb.WriteString(heading("By " + m.summary.BucketBy))
	for _, line := range strings.Split(render.BucketTable(m.summary.Buckets, m.summary.BucketBy), "\n") {
		sb.WriteString("  " + line + "\n")
	}
	return sb.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// Run starts the TUI for the given summary.
func Run(s *render.Summary) error {
	p := tea.NewProgram(New(s), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
