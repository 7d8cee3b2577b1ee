package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/bnodias/openclaw-mission-control/internal/board"
	"github.com/bnodias/openclaw-mission-control/internal/domain"
)

var (
	clrSubtle    = lipgloss.AdaptiveColor{Light: "#555555", Dark: "#666666"}
	clrHighlight = lipgloss.AdaptiveColor{Light: "#0F766E", Dark: "#2DD4BF"}
	clrRed       = lipgloss.AdaptiveColor{Light: "#B91C1C", Dark: "#F87171"}
	clrYellow    = lipgloss.AdaptiveColor{Light: "#B45309", Dark: "#F59E0B"}
	clrGreen     = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}
	clrDim       = lipgloss.AdaptiveColor{Light: "#999999", Dark: "#555555"}

	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(clrHighlight)
	dimStyle    = lipgloss.NewStyle().Foreground(clrDim)
	errorStyle  = lipgloss.NewStyle().Foreground(clrRed).Bold(true)
	statusStyle = lipgloss.NewStyle().Foreground(clrGreen).Bold(true)

	columnStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(clrSubtle).
			Padding(0, 1).
			Width(26)

	cardStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#333333", Dark: "#DDDDDD"})

	cardSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(clrHighlight)

	formStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(clrHighlight).
			Padding(1, 2).
			Width(60)
)

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	var content string
	switch m.currentScreen {
	case screenCreate:
		content = m.viewCreate()
	case screenComments:
		content = m.viewComments()
	default:
		content = m.viewBoard()
	}
	return content + "\n" + m.viewFooter()
}

func (m Model) viewBoard() string {
	header := titleStyle.Render(m.boardTitle())
	switch {
	case m.loadErr != nil:
		return header + "\n\n" + errorStyle.Render(m.loadErr.Error()) + "\n" + dimStyle.Render("Press r to retry.")
	case !m.loaded:
		return header + "\n\n" + dimStyle.Render("Loading board...")
	}

	columns := make([]string, 0, len(m.display.Columns))
	for colIdx, col := range m.display.Columns {
		var b strings.Builder
		b.WriteString(fmt.Sprintf("%s (%d)\n", col.Title, len(col.Cards)))
		for rowIdx, card := range col.Cards {
			style := cardStyle
			if colIdx == m.cursorCol && rowIdx == m.cursorRow {
				style = cardSelectedStyle
			}
			b.WriteString(style.Render(renderCard(card)) + "\n")
		}
		if len(col.Cards) == 0 {
			b.WriteString(dimStyle.Render("empty") + "\n")
		}
		columns = append(columns, columnStyle.Render(strings.TrimRight(b.String(), "\n")))
	}
	rendered := lipgloss.JoinHorizontal(lipgloss.Top, columns...)

	status := ""
	if m.refreshing {
		status = dimStyle.Render("refreshing...")
	} else if m.statusMsg != "" {
		status = statusStyle.Render(m.statusMsg)
	}
	return header + "\n" + rendered + "\n" + status
}

func renderCard(card board.Card) string {
	line := truncate(card.Task.Title, 22)
	meta := card.Assignee
	if card.Due != "" {
		meta += " due " + card.Due
	}
	badge := priorityBadge(card.Task.Priority)
	if badge != "" {
		meta += " " + badge
	}
	return line + "\n  " + meta
}

func priorityBadge(p domain.Priority) string {
	switch p {
	case domain.PriorityHigh:
		return lipgloss.NewStyle().Foreground(clrRed).Render("!high")
	case domain.PriorityLow:
		return lipgloss.NewStyle().Foreground(clrYellow).Render("low")
	}
	return ""
}

func (m Model) viewCreate() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("New task") + "\n\n")
	b.WriteString("Title\n" + m.titleInput.View() + "\n\n")
	b.WriteString("Description\n" + m.descInput.View() + "\n\n")
	b.WriteString("Priority: " + string(m.priority) + dimStyle.Render("  (ctrl+p cycles)") + "\n")
	if m.creating {
		b.WriteString("\n" + dimStyle.Render("Creating..."))
	}
	if m.createErr != nil {
		b.WriteString("\n" + errorStyle.Render(m.createErr.Error()))
	}
	return formStyle.Render(b.String())
}

func (m Model) viewComments() string {
	var b strings.Builder
	title := "Task"
	if m.selectedTask != nil {
		title = m.selectedTask.Title
	}
	b.WriteString(titleStyle.Render(title) + "\n")
	if m.selectedTask != nil && m.selectedTask.Description != "" {
		b.WriteString(dimStyle.Render(m.selectedTask.Description) + "\n")
	}
	b.WriteString("\nComments\n")
	switch {
	case m.threadLoading:
		b.WriteString(dimStyle.Render("Loading comments..."))
	case m.threadErr != nil:
		b.WriteString(errorStyle.Render(m.threadErr.Error()))
	case len(m.thread) == 0:
		b.WriteString(dimStyle.Render("No comments yet."))
	default:
		index := board.AssigneeIndex(m.agents.Data(), m.boardID)
		for _, comment := range m.thread {
			author := board.CommentAuthor(index, comment.AgentID)
			b.WriteString(fmt.Sprintf("%s %s\n  %s\n",
				titleStyle.Render(author),
				dimStyle.Render(board.FormatTimestamp(comment.CreatedAt)),
				comment.Message))
		}
	}
	return formStyle.Render(strings.TrimRight(b.String(), "\n"))
}

func (m Model) viewFooter() string {
	var keys string
	switch m.currentScreen {
	case screenCreate:
		keys = "enter create • tab field • ctrl+p priority • esc cancel"
	case screenComments:
		keys = "esc close"
	default:
		keys = "hjkl move • enter comments • n new task • r refresh • q quit"
	}
	return dimStyle.Render(keys)
}

func (m Model) boardTitle() string {
	if m.boardMeta.Name != "" {
		return m.boardMeta.Name + " board"
	}
	return "Board"
}

func truncate(s string, width int) string {
	if len(s) <= width {
		return s
	}
	if width <= 1 {
		return s[:width]
	}
	return s[:width-1] + "…"
}
