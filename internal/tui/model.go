// Package tui is the terminal board screen. It renders the display model
// produced by the board projector and turns key presses into intents for the
// mutation orchestrator; it owns no collection data itself.
package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/bnodias/openclaw-mission-control/internal/board"
	"github.com/bnodias/openclaw-mission-control/internal/comments"
	"github.com/bnodias/openclaw-mission-control/internal/domain"
	"github.com/bnodias/openclaw-mission-control/internal/gateway"
	"github.com/bnodias/openclaw-mission-control/internal/orchestrator"
	"github.com/bnodias/openclaw-mission-control/internal/store"
)

// screen identifies which view the TUI is in.
type screen int

const (
	screenBoard    screen = iota // kanban columns (main)
	screenCreate                 // new task form
	screenComments               // task detail with comment thread
)

var priorityCycle = []domain.Priority{
	domain.PriorityLow,
	domain.PriorityMedium,
	domain.PriorityHigh,
}

// Model is the top-level bubbletea model.
type Model struct {
	gw       *gateway.Client
	orch     *orchestrator.Orchestrator
	boardID  domain.ID
	tasks    *store.Store[[]domain.Task]
	agents   *store.Store[[]domain.Agent]
	comments *comments.Loader

	width  int
	height int

	currentScreen screen

	// Board state.
	boardMeta  domain.Board
	loaded     bool
	refreshing bool
	loadErr    error
	projector  board.Projector
	display    board.Model
	cursorCol  int
	cursorRow  int

	// Create form.
	titleInput   textinput.Model
	descInput    textinput.Model
	inputFocused int // 0=title, 1=description
	priority     domain.Priority
	creating     bool
	createErr    error

	// Comments view.
	selectedTask  *domain.Task
	thread        []domain.TaskComment
	threadLoading bool
	threadErr     error

	statusMsg string
	quitting  bool
}

// New builds the TUI over an already constructed core.
func New(gw *gateway.Client, stores *store.Stores, orch *orchestrator.Orchestrator, boardID domain.ID) Model {
	ti := textinput.New()
	ti.Placeholder = "Task title..."
	ti.CharLimit = 120
	ti.Width = 50

	di := textinput.New()
	di.Placeholder = "Description (optional)..."
	di.CharLimit = 500
	di.Width = 50

	return Model{
		gw:            gw,
		orch:          orch,
		boardID:       boardID,
		tasks:         stores.TaskStore(boardID),
		agents:        stores.Agents,
		comments:      comments.NewLoader(gw),
		currentScreen: screenBoard,
		titleInput:    ti,
		descInput:     di,
		priority:      domain.PriorityMedium,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return m.loadBoard()
}

type boardLoadedMsg struct {
	meta domain.Board
	err  error
}

type taskCreatedMsg struct {
	task domain.Task
	err  error
}

type commentsLoadedMsg struct {
	taskID domain.ID
	thread []domain.TaskComment
	err    error
}

func (m Model) loadBoard() tea.Cmd {
	gw, tasks, agents, boardID := m.gw, m.tasks, m.agents, m.boardID
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		meta, err := board.Refresh(ctx, gw, tasks, agents, boardID)
		return boardLoadedMsg{meta: meta, err: err}
	}
}

func (m Model) createTask(form orchestrator.TaskForm) tea.Cmd {
	orch, boardID, tasks := m.orch, m.boardID, m.tasks
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		task, err := orch.CreateTask(ctx, boardID, tasks, form)
		return taskCreatedMsg{task: task, err: err}
	}
}

func (m Model) loadComments(taskID domain.ID) tea.Cmd {
	loader, boardID := m.comments, m.boardID
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		thread, err := loader.Open(ctx, boardID, taskID)
		return commentsLoadedMsg{taskID: taskID, thread: thread, err: err}
	}
}

// project recomputes the display model from the stores.
func (m *Model) project() {
	m.display = m.projector.Project(m.tasks.Data(), m.agents.Data(), m.boardID)
	m.clampCursor()
}

func (m *Model) clampCursor() {
	if m.cursorCol < 0 {
		m.cursorCol = 0
	}
	if max := len(m.display.Columns) - 1; m.cursorCol > max {
		m.cursorCol = max
	}
	cards := m.columnCards(m.cursorCol)
	if m.cursorRow >= len(cards) {
		m.cursorRow = len(cards) - 1
	}
	if m.cursorRow < 0 {
		m.cursorRow = 0
	}
}

func (m *Model) columnCards(col int) []board.Card {
	if col < 0 || col >= len(m.display.Columns) {
		return nil
	}
	return m.display.Columns[col].Cards
}

func (m *Model) selectedCard() *board.Card {
	cards := m.columnCards(m.cursorCol)
	if m.cursorRow < len(cards) {
		card := cards[m.cursorRow]
		return &card
	}
	return nil
}

func nextPriority(p domain.Priority) domain.Priority {
	for i, candidate := range priorityCycle {
		if candidate == p {
			return priorityCycle[(i+1)%len(priorityCycle)]
		}
	}
	return domain.PriorityMedium
}
