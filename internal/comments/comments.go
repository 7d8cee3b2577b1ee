// Package comments loads the discussion thread for one task on demand. The
// thread's lifecycle is tied to the detail view: opening a task starts a
// fresh fetch, closing clears everything. Nothing is cached across
// open/close cycles, so every open reflects concurrent edits by others.
package comments

import (
	"context"
	"sync"

	"github.com/bnodias/openclaw-mission-control/internal/domain"
	"github.com/bnodias/openclaw-mission-control/internal/gateway"
)

// Loader is the per-task comment thread state, independent of board load
// state. A generation counter fences each open so a slow response for a
// previously viewed task can never appear under the current one.
type Loader struct {
	mu       sync.Mutex
	gw       *gateway.Client
	gen      uint64
	open     bool
	taskID   domain.ID
	comments []domain.TaskComment
	loading  bool
	err      error
}

// NewLoader builds a loader bound to one gateway.
func NewLoader(gw *gateway.Client) *Loader {
	return &Loader{gw: gw}
}

// Open starts a fresh load for the given task and blocks until it resolves.
// The returned slice is in server order. If the view was closed or reopened
// for another task while this call was in flight, the stale result is
// returned to the caller but not published to the loader state.
func (l *Loader) Open(ctx context.Context, boardID, taskID domain.ID) ([]domain.TaskComment, error) {
	l.mu.Lock()
	l.gen++
	gen := l.gen
	l.open = true
	l.taskID = taskID
	l.comments = nil
	l.err = nil
	l.loading = true
	l.mu.Unlock()

	data, err := l.gw.ListTaskComments(ctx, boardID, taskID)
	if data == nil {
		data = []domain.TaskComment{}
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if gen != l.gen || !l.open {
		return data, err
	}
	l.loading = false
	if err != nil {
		l.err = err
		return nil, err
	}
	l.comments = data
	return data, nil
}

// Close clears the loaded thread and any error. A load still in flight for
// the closed view resolves without publishing.
func (l *Loader) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.gen++
	l.open = false
	l.taskID = ""
	l.comments = nil
	l.err = nil
	l.loading = false
}

// Comments returns the thread for the currently open task, empty while a
// load is in flight.
func (l *Loader) Comments() []domain.TaskComment {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.comments == nil {
		return []domain.TaskComment{}
	}
	return l.comments
}

// Task returns the task the view is open for.
func (l *Loader) Task() (domain.ID, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.taskID, l.open
}

// IsLoading reports whether a fetch for the open task is in flight.
func (l *Loader) IsLoading() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loading
}

// Err returns the open view's load failure, if any.
func (l *Loader) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.err
}
