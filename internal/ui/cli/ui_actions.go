package cli

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
)

func handleKeyActions(msg tea.KeyMsg, m model) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	// A key pressed while a list filter is open belongs to the filter.
	filtering := m.issueList.FilterState() == list.Filtering ||
		m.classList.FilterState() == list.Filtering
	if !filtering {
		switch msg.String() {
		case "q":
			return m, tea.Quit
		case "tab":
			if m.mode == panelIssues {
				m.mode = panelClasses
			} else {
				m.mode = panelIssues
			}
			return m, nil
		case "t":
			m.showTrend = !m.showTrend
			return m, nil
		}

		if m.mode == panelClasses {
			switch msg.String() {
			case "enter":
				m.showDetails = true
				m.stubOffset = 0
				return m.refreshClassDetails(), nil
			case "esc", "backspace":
				if m.showDetails {
					m.showDetails = false
					m.details = nil
					m.detailsErr = nil
					m.stubOffset = 0
					return m, nil
				}
			case "j":
				if m.showDetails {
					if m.details != nil && m.stubOffset < maxStubOffset(m.details.JavaStub) {
						m.stubOffset++
					}
					return m, nil
				}
			case "k":
				if m.showDetails {
					if m.stubOffset > 0 {
						m.stubOffset--
					}
					return m, nil
				}
			case "o":
				if m.showDetails && m.details != nil && m.details.Summary.File != "" {
					return m, jumpToSourceCmd(m.details.Summary.File, m.details.Summary.Line)
				}
				m.sourceJumpStatus = statusStyle.Render("No source target available.")
				return m, nil
			}
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

func (m model) refreshClassDetails() model {
	if m.projection == nil {
		m.details = nil
		m.detailsErr = fmt.Errorf("projection service unavailable")
		return m
	}
	selected, ok := m.classList.SelectedItem().(item)
	if !ok {
		m.details = nil
		m.detailsErr = fmt.Errorf("no class selected")
		return m
	}
	inspection, err := m.projection.InspectClass(context.Background(), selected.title)
	if err != nil {
		m.details = nil
		m.detailsErr = err
		return m
	}
	m.details = &inspection
	m.detailsErr = nil
	if m.stubOffset > maxStubOffset(inspection.JavaStub) {
		m.stubOffset = 0
	}
	return m
}

// jumpToSourceCmd suspends the UI and opens the class source in $EDITOR.
func jumpToSourceCmd(file string, line int) tea.Cmd {
	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}

	var args []string
	if line > 0 && editorSupportsLineArg(editor) {
		args = append(args, fmt.Sprintf("+%d", line))
	}
	args = append(args, file)

	target := fmt.Sprintf("%s:%d", file, line)
	cmd := exec.Command(editor, args...)
	return tea.ExecProcess(cmd, func(err error) tea.Msg {
		return sourceJumpResultMsg{target: target, err: err}
	})
}

func editorSupportsLineArg(editor string) bool {
	base := filepath.Base(editor)
	return base == "vi" || strings.Contains(base, "vim")
}
