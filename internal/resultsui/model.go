// Package resultsui provides the Bubble Tea results browser.
package resultsui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/calificador/internal/exam"
	"github.com/verte-zerg/calificador/internal/model"
	"github.com/verte-zerg/calificador/internal/report"
	"github.com/verte-zerg/calificador/internal/scoring"
)

const (
	tabSummary = iota
	tabCiencias
	tabHumanidades
	tabIngenieria
	tabReview
)

// tabPaths maps leaderboard tabs to their career path.
var tabPaths = map[int]exam.CareerPath{
	tabCiencias:    exam.PathA,
	tabHumanidades: exam.PathB,
	tabIngenieria:  exam.PathC,
}

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
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	cardStyle   = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
	cardTitleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	cardValueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	tableMutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#B8B8B8"))
)

// Model implements the Bubble Tea results browser over one batch.
type Model struct {
	batch *model.Batch

	tabs      []string
	activeTab int
	tables    map[int]*table.Model
	viewports map[int]*viewport.Model

	width  int
	height int
}

// NewModel constructs a browser for a graded batch.
func NewModel(batch *model.Batch) *Model {
	m := &Model{
		batch:     batch,
		tabs:      []string{"Resumen", "Ciencias", "Humanidades", "Ingeniería", "Revisión"},
		tables:    map[int]*table.Model{},
		viewports: map[int]*viewport.Model{},
	}
	for tab, path := range tabPaths {
		t := buildLeaderboardTable(report.Leaderboard(batch.Results, path, 0))
		m.tables[tab] = &t
	}
	for _, tab := range []int{tabSummary, tabReview} {
		vp := viewport.New(0, 0)
		m.viewports[tab] = &vp
	}
	m.renderTabContents()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		m.renderTabContents()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.String() == "q" {
			return m, tea.Quit
		}
		switch msg.String() {
		case "left", "h":
			m.moveTab(-1)
			return m, tea.ClearScreen
		case "right", "l":
			m.moveTab(1)
			return m, tea.ClearScreen
		case "g", "home":
			if t, ok := m.tables[m.activeTab]; ok {
				t.GotoTop()
			} else {
				m.viewports[m.activeTab].GotoTop()
			}
			return m, nil
		case "G", "end":
			if t, ok := m.tables[m.activeTab]; ok {
				t.GotoBottom()
			} else {
				m.viewports[m.activeTab].GotoBottom()
			}
			return m, nil
		default:
			var cmd tea.Cmd
			if t, ok := m.tables[m.activeTab]; ok {
				*t, cmd = t.Update(msg)
				return m, cmd
			}
			vp := m.viewports[m.activeTab]
			*vp, cmd = vp.Update(msg)
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
	footer := fitLines(headerStyle.Render("Nav: left/right  Scroll: up/down/pgup/pgdn  Top/bottom: g/G  Quit: q"), m.width, footerHeight)
	return strings.Join([]string{header, body, footer}, "\n")
}

// ActiveTab returns the name of the selected tab.
func (m *Model) ActiveTab() string {
	return m.tabs[m.activeTab]
}

func (m *Model) layoutHeights() (headerHeight, bodyHeight, footerHeight int) {
	tabsHeight := max(1, lipgloss.Height(activeNavStyle.Render("X")))
	headerHeight = tabsHeight + 1
	footerHeight = 1
	bodyHeight = max(1, m.height-headerHeight-footerHeight)
	return headerHeight, bodyHeight, footerHeight
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	_, bodyHeight, _ := m.layoutHeights()
	for _, vp := range m.viewports {
		vp.Width = m.width
		vp.Height = bodyHeight
	}
	for _, t := range m.tables {
		t.SetWidth(m.width)
		t.SetHeight(max(1, bodyHeight-1))
	}
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
	for tab, t := range m.tables {
		if tab == m.activeTab {
			t.Focus()
		} else {
			t.Blur()
		}
	}
}

func (m *Model) renderHeader() string {
	parts := make([]string, 0, len(m.tabs))
	for i, tab := range m.tabs {
		if i == m.activeTab {
			parts = append(parts, activeNavStyle.Render(tab))
		} else {
			parts = append(parts, inactiveNavStyle.Render(tab))
		}
	}
	row := lipgloss.JoinHorizontal(lipgloss.Top, parts...)
	tabs := fitLines(row, m.width, lipgloss.Height(row))
	info := fmt.Sprintf("Lote %s  %s  postulantes=%d  avisos=%d",
		m.batch.ID, m.batch.CreatedAt.Format("02/01/2006 15:04"), len(m.batch.Results), len(m.batch.Warnings))
	return tabs + "\n" + headerStyle.Render(runewidth.Truncate(info, m.width, "..."))
}

func (m *Model) renderBody() string {
	if t, ok := m.tables[m.activeTab]; ok {
		if len(t.Rows()) == 0 {
			return "Sin postulantes calificados."
		}
		return tableMutedStyle.Render(t.View())
	}
	return m.viewports[m.activeTab].View()
}

func (m *Model) renderTabContents() {
	width := m.width
	if width <= 0 {
		width = 80
	}
	m.viewports[tabSummary].SetContent(renderSummary(m.batch, width))
	m.viewports[tabReview].SetContent(renderReview(m.batch))
}

func renderSummary(batch *model.Batch, width int) string {
	s := report.Summarize(batch)
	cards := []string{
		metricCard("Postulantes", strconv.Itoa(s.Candidates)),
		metricCard("Nota promedio", fmt.Sprintf("%.2f", s.MeanGrade)),
		metricCard("Nota máxima", fmt.Sprintf("%.2f", s.BestGrade)),
		metricCard("Revisión", strconv.Itoa(s.Review)),
	}
	for _, p := range exam.CareerPaths {
		cards = append(cards, metricCard(p.DisplayName(), strconv.Itoa(s.PerPath[p])))
	}
	var top string
	if width < 80 {
		top = strings.Join(cards, "\n")
	} else {
		row1 := lipgloss.JoinHorizontal(lipgloss.Top, cards[:4]...)
		row2 := lipgloss.JoinHorizontal(lipgloss.Top, cards[4:]...)
		top = lipgloss.JoinVertical(lipgloss.Left, row1, row2)
	}
	lines := []string{
		top,
		"",
		"Distribución 0-20: [" + report.Sparkline(report.GradeDistribution(batch.Results)) + "]",
		"",
	}
	lines = append(lines, report.WeightLines(batch.Structure)...)
	lines = append(lines, "")
	if v, ok := batch.Scale.Uniform(); ok {
		lines = append(lines, conversionLine("", v))
	} else {
		for _, p := range exam.CareerPaths {
			lines = append(lines, conversionLine(p.DisplayName()+": ", batch.Scale.For(p)))
		}
	}
	return strings.Join(lines, "\n")
}

func renderReview(batch *model.Batch) string {
	review := report.ReviewList(batch.Results)
	lines := []string{fmt.Sprintf("Revisión manual: %d", len(review))}
	for _, r := range review {
		lines = append(lines, warnStyle.Render(fmt.Sprintf("  %s  tema=%s  %s", r.StudentCode, r.Variant, report.Observation(r))))
	}
	lines = append(lines, "", fmt.Sprintf("Avisos: %d", len(batch.Warnings)))
	for _, w := range batch.Warnings {
		lines = append(lines, fmt.Sprintf("  #%d %s  %s: %s", w.Seq, w.StudentCode, w.Kind, w.Message))
	}
	return strings.Join(lines, "\n")
}

func conversionLine(prefix string, v scoring.Vigesimal) string {
	return fmt.Sprintf("%sNota(20) = 20 × (Puntaje + %g) / %g", prefix, v.Offset, v.Denominator())
}

func metricCard(label, value string) string {
	content := fmt.Sprintf("%s\n%s", cardTitleStyle.Render(label), cardValueStyle.Render(value))
	return cardStyle.Render(content)
}

func buildLeaderboardTable(ranked []model.CandidateResult) table.Model {
	columns := []table.Column{
		{Title: "#", Width: 4},
		{Title: "Código", Width: 10},
		{Title: "DNI", Width: 10},
		{Title: "Tema", Width: 5},
		{Title: "Puntaje", Width: 8},
		{Title: "Nota (20)", Width: 9},
	}
	rows := make([]table.Row, 0, len(ranked))
	for i, r := range ranked {
		rows = append(rows, table.Row{
			strconv.Itoa(i + 1),
			r.StudentCode,
			r.DNI,
			r.Variant,
			strconv.FormatFloat(r.Total(), 'f', -1, 64),
			fmt.Sprintf("%.2f", r.Grade),
		})
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithHeight(10),
	)
	t.SetStyles(tableStyles())
	return t
}

func tableStyles() table.Styles {
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

func padLine(line string, width int) string {
	if w := lipgloss.Width(line); w < width {
		return line + strings.Repeat(" ", width-w)
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
