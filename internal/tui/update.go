package tui

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/bnodias/openclaw-mission-control/internal/domain"
	"github.com/bnodias/openclaw-mission-control/internal/orchestrator"
)

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case boardLoadedMsg:
		m.refreshing = false
		if msg.err != nil {
			m.loadErr = msg.err
			return m, nil
		}
		m.loadErr = nil
		m.loaded = true
		m.boardMeta = msg.meta
		m.project()
		return m, nil

	case taskCreatedMsg:
		m.creating = false
		if msg.err != nil {
			m.createErr = msg.err
			return m, nil
		}
		m.createErr = nil
		m.resetForm()
		m.currentScreen = screenBoard
		m.statusMsg = "Created task " + msg.task.ID.String()
		m.project()
		return m, nil

	case commentsLoadedMsg:
		if current, open := m.comments.Task(); !open || current != msg.taskID {
			// Stale resolution for a view that was closed or replaced.
			return m, nil
		}
		m.threadLoading = false
		if msg.err != nil {
			m.threadErr = msg.err
			return m, nil
		}
		m.threadErr = nil
		m.thread = msg.thread
		return m, nil
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		m.quitting = true
		return m, tea.Quit
	}
	switch m.currentScreen {
	case screenCreate:
		return m.handleCreateKey(msg)
	case screenComments:
		return m.handleCommentsKey(msg)
	default:
		return m.handleBoardKey(msg)
	}
}

func (m Model) handleBoardKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		m.quitting = true
		return m, tea.Quit

	case "h", "left":
		m.cursorCol--
		m.clampCursor()
	case "l", "right":
		m.cursorCol++
		m.clampCursor()
	case "j", "down":
		m.cursorRow++
		m.clampCursor()
	case "k", "up":
		m.cursorRow--
		m.clampCursor()

	case "r":
		if !m.refreshing {
			m.refreshing = true
			m.statusMsg = ""
			return m, m.loadBoard()
		}

	case "n":
		m.currentScreen = screenCreate
		m.inputFocused = 0
		m.titleInput.Focus()
		m.descInput.Blur()
		return m, textinput.Blink

	case "enter", " ":
		if card := m.selectedCard(); card != nil {
			task := card.Task
			m.selectedTask = &task
			m.thread = nil
			m.threadErr = nil
			m.threadLoading = true
			m.currentScreen = screenComments
			return m, m.loadComments(task.ID)
		}
	}
	return m, nil
}

func (m Model) handleCreateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.resetForm()
		m.currentScreen = screenBoard
		return m, nil

	case "tab", "shift+tab":
		m.inputFocused = 1 - m.inputFocused
		if m.inputFocused == 0 {
			m.titleInput.Focus()
			m.descInput.Blur()
		} else {
			m.descInput.Focus()
			m.titleInput.Blur()
		}
		return m, textinput.Blink

	case "ctrl+p":
		m.priority = nextPriority(m.priority)
		return m, nil

	case "enter":
		// The action stays disabled while its own mutation is in flight.
		if m.creating {
			return m, nil
		}
		m.creating = true
		m.createErr = nil
		return m, m.createTask(orchestrator.TaskForm{
			Title:       m.titleInput.Value(),
			Description: m.descInput.Value(),
			Priority:    m.priority,
		})
	}

	var cmd tea.Cmd
	if m.inputFocused == 0 {
		m.titleInput, cmd = m.titleInput.Update(msg)
	} else {
		m.descInput, cmd = m.descInput.Update(msg)
	}
	return m, cmd
}

func (m Model) handleCommentsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "q", "enter":
		m.comments.Close()
		m.selectedTask = nil
		m.thread = nil
		m.threadErr = nil
		m.threadLoading = false
		m.currentScreen = screenBoard
	}
	return m, nil
}

func (m *Model) resetForm() {
	m.titleInput.Reset()
	m.descInput.Reset()
	m.priority = domain.PriorityMedium
	m.createErr = nil
	m.inputFocused = 0
}
