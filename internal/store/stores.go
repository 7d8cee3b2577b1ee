package store

import (
	"context"
	"encoding/json"

	"github.com/bnodias/openclaw-mission-control/internal/domain"
	"github.com/bnodias/openclaw-mission-control/internal/gateway"
)

// Snapshot collection names shared with the offline view.
const (
	SnapAgents      = "agents"
	SnapEmployees   = "employees"
	SnapDepartments = "departments"
	SnapTeams       = "teams"
)

// Snapshotter persists the last successful payload per collection.
// Implemented by localstate.Store; nil disables persistence.
type Snapshotter interface {
	SaveSnapshot(collection string, payload []byte) error
}

// Stores bundles the directory-screen collections. Each store loads and
// fails independently; there is no all-or-nothing coupling here, unlike the
// board view fan-out.
type Stores struct {
	Agents      *Store[[]domain.Agent]
	Employees   *Store[[]domain.Employee]
	Departments *Store[[]domain.Department]
	Teams       *Store[[]domain.Team]

	gw    *gateway.Client
	snaps Snapshotter
}

// NewStores wires one store per directory collection to its gateway fetcher.
func NewStores(gw *gateway.Client, snaps Snapshotter) *Stores {
	return &Stores{
		gw:    gw,
		snaps: snaps,
		Agents: NewList(func(ctx context.Context) ([]domain.Agent, error) {
			return gw.ListAgents(ctx)
		}).OnSuccess(persist[[]domain.Agent](snaps, SnapAgents)),
		Employees: NewList(func(ctx context.Context) ([]domain.Employee, error) {
			return gw.ListEmployees(ctx)
		}).OnSuccess(persist[[]domain.Employee](snaps, SnapEmployees)),
		Departments: NewList(func(ctx context.Context) ([]domain.Department, error) {
			return gw.ListDepartments(ctx)
		}).OnSuccess(persist[[]domain.Department](snaps, SnapDepartments)),
		Teams: NewList(func(ctx context.Context) ([]domain.Team, error) {
			return gw.ListTeams(ctx, nil)
		}).OnSuccess(persist[[]domain.Team](snaps, SnapTeams)),
	}
}

// NewTaskStore builds the per-board task store.
func NewTaskStore(gw *gateway.Client, boardID domain.ID) *Store[[]domain.Task] {
	return NewList(func(ctx context.Context) ([]domain.Task, error) {
		return gw.ListBoardTasks(ctx, boardID)
	})
}

// TaskSnapshot names the offline snapshot for one board's tasks.
func TaskSnapshot(boardID domain.ID) string {
	return "tasks:" + boardID.String()
}

// TaskStore builds the per-board task store with snapshot persistence.
func (s *Stores) TaskStore(boardID domain.ID) *Store[[]domain.Task] {
	return NewTaskStore(s.gw, boardID).OnSuccess(persist[[]domain.Task](s.snaps, TaskSnapshot(boardID)))
}

func persist[T any](snaps Snapshotter, collection string) func(T) {
	if snaps == nil {
		return nil
	}
	return func(v T) {
		payload, err := json.Marshal(v)
		if err != nil {
			return
		}
		_ = snaps.SaveSnapshot(collection, payload)
	}
}
