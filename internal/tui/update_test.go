package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/bnodias/openclaw-mission-control/internal/domain"
	"github.com/bnodias/openclaw-mission-control/internal/orchestrator"
	"github.com/bnodias/openclaw-mission-control/internal/store"
	"github.com/bnodias/openclaw-mission-control/internal/testutil"
)

func ptr(id domain.ID) *domain.ID { return &id }

func newTestModel(t *testing.T) (Model, *testutil.Server) {
	t.Helper()
	srv := testutil.NewServer()
	srv.Boards["b1"] = domain.Board{ID: "b1", Name: "Mission", Slug: "mission"}
	srv.Tasks["b1"] = []domain.Task{
		{ID: "1", Title: "triage", Status: domain.StatusInbox},
		{ID: "2", Title: "investigate", Status: domain.StatusInbox},
		{ID: "3", Title: "ship", Status: domain.StatusDone},
	}
	srv.Agents = []domain.Agent{{ID: "a1", Name: "clawbot", BoardID: ptr("b1")}}
	gw := srv.Client("", "")
	stores := store.NewStores(gw, nil)
	m := New(gw, stores, orchestrator.New(gw, stores, nil), "b1")
	return m, srv
}

// loadModel runs the initial fetch and feeds the result through Update.
func loadModel(t *testing.T, m Model) Model {
	t.Helper()
	msg := m.Init()()
	loaded, ok := msg.(boardLoadedMsg)
	if !ok {
		t.Fatalf("init msg = %T", msg)
	}
	if loaded.err != nil {
		t.Fatalf("initial load: %v", loaded.err)
	}
	next, _ := m.Update(loaded)
	return next.(Model)
}

func key(s string) tea.KeyMsg {
	if s == " " {
		return tea.KeyMsg{Type: tea.KeySpace}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestBoardLoadPopulatesColumns(t *testing.T) {
	m, _ := newTestModel(t)
	m = loadModel(t, m)

	if !m.loaded || m.loadErr != nil {
		t.Fatalf("loaded=%v err=%v", m.loaded, m.loadErr)
	}
	if m.boardMeta.Name != "Mission" {
		t.Fatalf("meta = %+v", m.boardMeta)
	}
	inbox := m.display.Column(domain.StatusInbox)
	if inbox == nil || len(inbox.Cards) != 2 {
		t.Fatalf("inbox = %+v", inbox)
	}
}

func TestBoardLoadFailureShowsError(t *testing.T) {
	m, srv := newTestModel(t)
	srv.FailPaths["GET /boards/b1"] = 500

	msg := m.Init()()
	next, _ := m.Update(msg)
	m = next.(Model)
	if m.loadErr == nil || m.loaded {
		t.Fatalf("loadErr=%v loaded=%v", m.loadErr, m.loaded)
	}
}

func TestCursorNavigationClamps(t *testing.T) {
	m, _ := newTestModel(t)
	m = loadModel(t, m)

	// Down within the inbox column, then past the end.
	next, _ := m.Update(key("j"))
	m = next.(Model)
	if m.cursorRow != 1 {
		t.Fatalf("row = %d", m.cursorRow)
	}
	next, _ = m.Update(key("j"))
	m = next.(Model)
	if m.cursorRow != 1 {
		t.Fatalf("row should clamp at 1, got %d", m.cursorRow)
	}

	// Left from column zero stays put.
	next, _ = m.Update(key("h"))
	m = next.(Model)
	if m.cursorCol != 0 {
		t.Fatalf("col = %d", m.cursorCol)
	}

	// Moving right into a shorter column pulls the row up.
	for i := 0; i < len(m.display.Columns); i++ {
		next, _ = m.Update(key("l"))
		m = next.(Model)
	}
	if m.cursorCol != len(m.display.Columns)-1 {
		t.Fatalf("col = %d", m.cursorCol)
	}
	if m.cursorRow != 0 {
		t.Fatalf("row = %d after entering short column", m.cursorRow)
	}
}

func TestCreateFlowReturnsToBoard(t *testing.T) {
	m, _ := newTestModel(t)
	m = loadModel(t, m)

	next, _ := m.Update(key("n"))
	m = next.(Model)
	if m.currentScreen != screenCreate {
		t.Fatalf("screen = %v", m.currentScreen)
	}
	m.titleInput.SetValue("new work")

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(Model)
	if !m.creating || cmd == nil {
		t.Fatalf("creating=%v cmd=%v", m.creating, cmd)
	}

	// A second enter while the mutation is in flight is ignored.
	_, repeat := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if repeat != nil {
		t.Fatal("double submit issued a second command")
	}

	created, ok := cmd().(taskCreatedMsg)
	if !ok || created.err != nil {
		t.Fatalf("create msg = %+v", created)
	}
	next, _ = m.Update(created)
	m = next.(Model)
	if m.currentScreen != screenBoard || m.creating {
		t.Fatalf("screen=%v creating=%v", m.currentScreen, m.creating)
	}
	inbox := m.display.Column(domain.StatusInbox)
	if len(inbox.Cards) != 3 || inbox.Cards[0].Task.Title != "new work" {
		t.Fatalf("inbox after create = %+v", inbox.Cards)
	}
}

func TestCreateFailureStaysOnForm(t *testing.T) {
	m, srv := newTestModel(t)
	m = loadModel(t, m)
	srv.FailPaths["POST /boards/b1/tasks"] = 422

	next, _ := m.Update(key("n"))
	m = next.(Model)
	m.titleInput.SetValue("doomed")
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(Model)

	next, _ = m.Update(cmd())
	m = next.(Model)
	if m.currentScreen != screenCreate || m.createErr == nil {
		t.Fatalf("screen=%v err=%v", m.currentScreen, m.createErr)
	}
}

func TestCommentsOpenAndClose(t *testing.T) {
	m, srv := newTestModel(t)
	srv.Comments["1"] = []domain.TaskComment{
		{ID: "c1", Message: "on it", AgentID: ptr("a1"), TaskID: ptr("1"), CreatedAt: "2026-02-01T10:00:00Z"},
	}
	m = loadModel(t, m)

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(Model)
	if m.currentScreen != screenComments || !m.threadLoading || cmd == nil {
		t.Fatalf("screen=%v loading=%v", m.currentScreen, m.threadLoading)
	}
	next, _ = m.Update(cmd())
	m = next.(Model)
	if m.threadLoading || len(m.thread) != 1 {
		t.Fatalf("loading=%v thread=%+v", m.threadLoading, m.thread)
	}

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m = next.(Model)
	if m.currentScreen != screenBoard || m.thread != nil || m.selectedTask != nil {
		t.Fatalf("state after close: %+v", m.thread)
	}
	if _, open := m.comments.Task(); open {
		t.Fatal("loader still open")
	}
}

func TestStaleCommentsMsgIgnored(t *testing.T) {
	m, srv := newTestModel(t)
	srv.Comments["1"] = []domain.TaskComment{
		{ID: "c1", Message: "stale", TaskID: ptr("1"), CreatedAt: "2026-02-01T10:00:00Z"},
	}
	m = loadModel(t, m)

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(Model)
	stale := cmd()

	// The view closes before the fetch resolves.
	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m = next.(Model)
	next, _ = m.Update(stale)
	m = next.(Model)
	if len(m.thread) != 0 {
		t.Fatalf("stale thread published: %+v", m.thread)
	}
}

func TestRefreshPicksUpServerChanges(t *testing.T) {
	m, srv := newTestModel(t)
	m = loadModel(t, m)

	srv.Tasks["b1"] = append(srv.Tasks["b1"], domain.Task{ID: "4", Title: "late arrival", Status: domain.StatusReview})
	next, cmd := m.Update(key("r"))
	m = next.(Model)
	if !m.refreshing || cmd == nil {
		t.Fatal("refresh did not start")
	}
	next, _ = m.Update(cmd())
	m = next.(Model)
	if m.refreshing {
		t.Fatal("refresh flag stuck")
	}
	review := m.display.Column(domain.StatusReview)
	if len(review.Cards) != 1 || review.Cards[0].Task.Title != "late arrival" {
		t.Fatalf("review = %+v", review.Cards)
	}
}

func TestLoadErrorClearsOnRetry(t *testing.T) {
	m, srv := newTestModel(t)
	srv.FailPaths["GET /agents"] = 500

	next, _ := m.Update(m.Init()())
	m = next.(Model)
	if m.loadErr == nil {
		t.Fatal("expected load error")
	}

	delete(srv.FailPaths, "GET /agents")
	next, cmd := m.Update(key("r"))
	m = next.(Model)
	next, _ = m.Update(cmd())
	m = next.(Model)
	if m.loadErr != nil || !m.loaded {
		t.Fatalf("err=%v loaded=%v", m.loadErr, m.loaded)
	}
}
