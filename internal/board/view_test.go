package board_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bnodias/openclaw-mission-control/internal/board"
	"github.com/bnodias/openclaw-mission-control/internal/domain"
	"github.com/bnodias/openclaw-mission-control/internal/gateway"
	"github.com/bnodias/openclaw-mission-control/internal/store"
	"github.com/bnodias/openclaw-mission-control/internal/testutil"
)

func seedBoard(srv *testutil.Server) {
	srv.Boards["b1"] = domain.Board{ID: "b1", Name: "Mission", Slug: "mission"}
	srv.Tasks["b1"] = []domain.Task{
		{ID: "1", Title: "triage", Status: domain.StatusInbox},
		{ID: "2", Title: "ship", Status: domain.StatusDone},
	}
	srv.Agents = []domain.Agent{{ID: "a1", Name: "clawbot", BoardID: ptr("b1")}}
}

func TestLoadView(t *testing.T) {
	srv := testutil.NewServer()
	seedBoard(srv)
	gw := srv.Client("", "")

	view, err := board.LoadView(context.Background(), gw, "b1")
	if err != nil {
		t.Fatalf("load view: %v", err)
	}
	if view.Board.Name != "Mission" {
		t.Fatalf("board = %+v", view.Board)
	}
	if len(view.Tasks) != 2 || len(view.Agents) != 1 {
		t.Fatalf("tasks=%d agents=%d", len(view.Tasks), len(view.Agents))
	}
}

func TestLoadViewAllOrNothing(t *testing.T) {
	cases := []struct {
		name     string
		failPath string
		wantMsg  string
	}{
		{"board fails", "GET /boards/b1", "load board"},
		{"tasks fail", "GET /boards/b1/tasks", "load tasks"},
		{"agents fail", "GET /agents", "load agents"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			srv := testutil.NewServer()
			seedBoard(srv)
			srv.FailPaths[c.failPath] = http.StatusInternalServerError
			gw := srv.Client("", "")

			view, err := board.LoadView(context.Background(), gw, "b1")
			if err == nil {
				t.Fatal("expected load failure")
			}
			if !strings.HasPrefix(err.Error(), c.wantMsg) {
				t.Fatalf("error = %v, want prefix %q", err, c.wantMsg)
			}
			// No partial data leaks out.
			if view.Board.ID != "" || view.Tasks != nil || view.Agents != nil {
				t.Fatalf("partial view = %+v", view)
			}
		})
	}
}

// The three legs of the fan-out share one client. Running them over a
// freshly constructed gateway (no transport injected) makes sure the client
// stays read-only under concurrent calls.
func TestLoadViewSharesOneClient(t *testing.T) {
	srv := testutil.NewServer()
	seedBoard(srv)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()
	gw := gateway.New(ts.URL, "7", "")

	for i := 0; i < 3; i++ {
		view, err := board.LoadView(context.Background(), gw, "b1")
		if err != nil {
			t.Fatalf("load view: %v", err)
		}
		if len(view.Tasks) != 2 || len(view.Agents) != 1 {
			t.Fatalf("tasks=%d agents=%d", len(view.Tasks), len(view.Agents))
		}
	}
}

func TestRefreshKeepsStoreDataOnPartialFailure(t *testing.T) {
	srv := testutil.NewServer()
	seedBoard(srv)
	gw := srv.Client("", "")
	tasks := store.NewTaskStore(gw, "b1")
	agents := store.NewStores(gw, nil).Agents

	if _, err := board.Refresh(context.Background(), gw, tasks, agents, "b1"); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	// The task leg fails on the next cycle; the combined view errors but the
	// stores keep what they have, and agents still picked up the new record.
	srv.Agents = append(srv.Agents, domain.Agent{ID: "a2", Name: "newbot"})
	srv.FailPaths["GET /boards/b1/tasks"] = http.StatusBadGateway

	_, err := board.Refresh(context.Background(), gw, tasks, agents, "b1")
	if err == nil || !strings.HasPrefix(err.Error(), "load tasks") {
		t.Fatalf("error = %v", err)
	}
	if len(tasks.Data()) != 2 {
		t.Fatalf("stale tasks lost: %+v", tasks.Data())
	}
	if len(agents.Data()) != 2 {
		t.Fatalf("agents = %+v", agents.Data())
	}
	if tasks.Phase() != store.Errored || agents.Phase() != store.Ready {
		t.Fatalf("phases: tasks=%v agents=%v", tasks.Phase(), agents.Phase())
	}
}
