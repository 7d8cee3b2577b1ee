package board

import (
	"context"
	"fmt"
	"sync"

	"github.com/bnodias/openclaw-mission-control/internal/domain"
	"github.com/bnodias/openclaw-mission-control/internal/gateway"
	"github.com/bnodias/openclaw-mission-control/internal/store"
)

// View is the combined result of the board fan-out load. It is only
// populated as a whole: if any leg fails the caller gets an error and no
// partial data.
type View struct {
	Board  domain.Board
	Tasks  []domain.Task
	Agents []domain.Agent
}

// LoadView issues the board, task, and agent fetches concurrently and waits
// for all three. The view is all-or-nothing: one failed leg fails the load,
// with the board error taking precedence, then tasks, then agents. Legs
// already in flight are not cancelled when a sibling fails.
func LoadView(ctx context.Context, gw *gateway.Client, boardID domain.ID) (View, error) {
	var (
		wg                            sync.WaitGroup
		view                          View
		boardErr, tasksErr, agentsErr error
	)
	wg.Add(3)
	go func() {
		defer wg.Done()
		view.Board, boardErr = gw.GetBoard(ctx, boardID)
	}()
	go func() {
		defer wg.Done()
		view.Tasks, tasksErr = gw.ListBoardTasks(ctx, boardID)
	}()
	go func() {
		defer wg.Done()
		view.Agents, agentsErr = gw.ListAgents(ctx)
	}()
	wg.Wait()

	switch {
	case boardErr != nil:
		return View{}, fmt.Errorf("load board: %w", boardErr)
	case tasksErr != nil:
		return View{}, fmt.Errorf("load tasks: %w", tasksErr)
	case agentsErr != nil:
		return View{}, fmt.Errorf("load agents: %w", agentsErr)
	}
	if view.Tasks == nil {
		view.Tasks = []domain.Task{}
	}
	if view.Agents == nil {
		view.Agents = []domain.Agent{}
	}
	return view, nil
}

// Refresh runs the same fan-out through the long-lived task and agent
// stores, so the stores keep ownership of their collections while the board
// view stays all-or-nothing. Individual stores retain whatever they loaded;
// the returned error only gates rendering of the combined view.
func Refresh(ctx context.Context, gw *gateway.Client, tasks *store.Store[[]domain.Task], agents *store.Store[[]domain.Agent], boardID domain.ID) (domain.Board, error) {
	var (
		wg                            sync.WaitGroup
		meta                          domain.Board
		boardErr, tasksErr, agentsErr error
	)
	wg.Add(3)
	go func() {
		defer wg.Done()
		meta, boardErr = gw.GetBoard(ctx, boardID)
	}()
	go func() {
		defer wg.Done()
		_, tasksErr = tasks.Refetch(ctx)
	}()
	go func() {
		defer wg.Done()
		_, agentsErr = agents.Refetch(ctx)
	}()
	wg.Wait()

	switch {
	case boardErr != nil:
		return domain.Board{}, fmt.Errorf("load board: %w", boardErr)
	case tasksErr != nil:
		return domain.Board{}, fmt.Errorf("load tasks: %w", tasksErr)
	case agentsErr != nil:
		return domain.Board{}, fmt.Errorf("load agents: %w", agentsErr)
	}
	return meta, nil
}
