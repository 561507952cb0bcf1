package cli

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"facet/internal/core/ports"
	"facet/internal/data/history"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#3B82F6")).
			Bold(true).
			MarginLeft(2)
	docStyle     = lipgloss.NewStyle().Margin(1, 2)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F87171")).Bold(true)
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FBBF24")).Bold(true)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")).Bold(true)
	statusStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#64748B")).Italic(true)
)

type item struct {
	title string
	desc  string
}

func (i item) Title() string       { return i.title }
func (i item) Description() string { return i.desc }
func (i item) FilterValue() string { return i.title + " " + i.desc }

type panelMode int

const (
	panelIssues panelMode = iota
	panelClasses
)

// updateMsg carries a fresh projection state into the UI loop.
type updateMsg struct {
	classes    []ports.ClassSummary
	skipped    []ports.SkippedDecl
	failures   []ports.ParseFailure
	fileCount  int
	classCount int
}

type sourceJumpResultMsg struct {
	target string
	err    error
}

type model struct {
	issueList list.Model
	classList list.Model
	mode      panelMode

	projection ports.ProjectionService

	trendReport *history.TrendReport
	showTrend   bool

	lastUpdate   time.Time
	fileCount    int
	classCount   int
	failureCount int
	skippedCount int

	showDetails bool
	details     *ports.ClassInspection
	detailsErr  error
	stubOffset  int

	sourceJumpStatus string
}

func initialModel(projection ports.ProjectionService, trend *history.TrendReport) model {
	issueList := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	issueList.Title = "Projection Issues"
	issueList.SetShowStatusBar(false)
	issueList.SetFilteringEnabled(true)

	classList := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	classList.Title = "Projected Classes"
	classList.SetShowStatusBar(false)
	classList.SetFilteringEnabled(true)

	return model{
		issueList:   issueList,
		classList:   classList,
		mode:        panelIssues,
		projection:  projection,
		trendReport: trend,
	}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return handleKeyActions(msg, m)
	case tea.WindowSizeMsg:
		h, v := docStyle.GetFrameSize()
		width := msg.Width - h
		height := msg.Height - v - 8
		if height < 5 {
			height = 5
		}
		m.issueList.SetSize(width, height)
		m.classList.SetSize(width, height)
	case updateMsg:
		m.issueList.SetItems(issueItems(msg))
		m.classList.SetItems(classItems(msg.classes))
		m.fileCount = msg.fileCount
		m.classCount = msg.classCount
		m.failureCount = len(msg.failures)
		m.skippedCount = len(msg.skipped)
		m.lastUpdate = time.Now()
		if m.showDetails {
			m = m.refreshClassDetails()
		}
	case sourceJumpResultMsg:
		if msg.err != nil {
			m.sourceJumpStatus = statusStyle.Render(fmt.Sprintf("Source jump failed: %v", msg.err))
		} else {
			m.sourceJumpStatus = statusStyle.Render(fmt.Sprintf("Opened source: %s", msg.target))
		}
	}

	var cmd tea.Cmd
	if m.mode == panelClasses {
		m.classList, cmd = m.classList.Update(msg)
	} else {
		m.issueList, cmd = m.issueList.Update(msg)
	}
	return m, cmd
}

func (m model) View() string {
	header := titleStyle.Render("Facet Projection Monitor")
	status := statusStyle.Render(fmt.Sprintf("Last update: %s | %d files | %d classes",
		m.lastUpdate.Format("15:04:05"), m.fileCount, m.classCount))

	var health string
	switch {
	case m.failureCount > 0:
		health = errorStyle.Render(fmt.Sprintf("%d parse errors", m.failureCount))
		if m.skippedCount > 0 {
			health += " | " + warnStyle.Render(fmt.Sprintf("%d skipped", m.skippedCount))
		}
	case m.skippedCount > 0:
		health = warnStyle.Render(fmt.Sprintf("%d skipped declarations", m.skippedCount))
	default:
		health = successStyle.Render("Projection Clean")
	}

	var body string
	if m.mode == panelClasses {
		body = renderClassPanel(m)
	} else {
		body = m.issueList.View()
	}
	if m.showTrend {
		body += "\n" + renderTrendOverlay(m)
	}
	if m.sourceJumpStatus != "" {
		body += "\n" + m.sourceJumpStatus
	}

	return docStyle.Render(header + "\n" + status + "  " + health + "\n" + renderHelp(m) + "\n\n" + body)
}

func issueItems(msg updateMsg) []list.Item {
	items := make([]list.Item, 0, len(msg.failures)+len(msg.skipped))
	for _, failure := range msg.failures {
		items = append(items, item{
			title: "Parse Error",
			desc:  fmt.Sprintf("%s: %s", failure.File, failure.Message),
		})
	}
	for _, skipped := range msg.skipped {
		items = append(items, item{
			title: "Skipped Declaration",
			desc:  fmt.Sprintf("%s in %s (%s)", skipped.Name, skipped.File, skipped.Reason),
		})
	}
	return items
}

func classItems(classes []ports.ClassSummary) []list.Item {
	items := make([]list.Item, 0, len(classes))
	for _, class := range classes {
		desc := fmt.Sprintf("kind=%s methods=%d fields=%d", class.Kind, class.MethodCount, class.FieldCount)
		if class.Deprecated {
			desc += " deprecated"
		}
		if class.Local {
			desc += " local"
		}
		items = append(items, item{title: class.QualifiedName, desc: desc})
	}
	return items
}
