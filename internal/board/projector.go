// Package board derives the display model for one board: tasks bucketed
// into the fixed workflow columns, assignee names resolved against the agent
// directory, due dates formatted best-effort. Projection is pure; the only
// state is the memo of the last inputs.
package board

import (
	"reflect"
	"time"

	"github.com/bnodias/openclaw-mission-control/internal/domain"
)

// Unassigned is the fallback assignee label for tasks whose agent reference
// is absent or dangling.
const Unassigned = "Unassigned"

// AdminAuthor labels comments with no agent author.
const AdminAuthor = "Admin"

var columnTitles = map[domain.TaskStatus]string{
	domain.StatusInbox:      "Inbox",
	domain.StatusAssigned:   "Assigned",
	domain.StatusInProgress: "In Progress",
	domain.StatusTesting:    "Testing",
	domain.StatusReview:     "Review",
	domain.StatusDone:       "Done",
}

// Card is one task resolved for display.
type Card struct {
	Task     domain.Task
	Assignee string // Unassigned when the reference is absent or dangling
	Due      string // empty when due_at is missing or unparsable
}

// Column is one workflow bucket in board order.
type Column struct {
	Status domain.TaskStatus
	Title  string
	Cards  []Card
}

// Model is the resolved display model handed to the presentation layer.
type Model struct {
	BoardID domain.ID
	Columns []Column
}

// Column returns the bucket for a status, or nil for unknown statuses.
func (m Model) Column(status domain.TaskStatus) *Column {
	for i := range m.Columns {
		if m.Columns[i].Status == status {
			return &m.Columns[i]
		}
	}
	return nil
}

// AssigneeIndex maps agent ids to names, restricted to agents pinned to the
// given board. Agents without a board association are kept, so boards that
// share a pool still resolve names.
func AssigneeIndex(agents []domain.Agent, boardID domain.ID) map[domain.ID]string {
	index := make(map[domain.ID]string, len(agents))
	for _, agent := range agents {
		if agent.BoardID != nil && *agent.BoardID != boardID {
			continue
		}
		index[agent.ID] = agent.Name
	}
	return index
}

// CommentAuthor resolves a comment's author label against the assignee index.
func CommentAuthor(index map[domain.ID]string, agentID *domain.ID) string {
	if agentID == nil {
		return AdminAuthor
	}
	if name, ok := index[*agentID]; ok {
		return name
	}
	return "Agent"
}

// Project buckets tasks into the six workflow columns in a single pass,
// preserving input order within each bucket. Tasks with an unrecognized
// status land in the inbox column so bad data stays visible instead of
// silently dropping.
func Project(tasks []domain.Task, agents []domain.Agent, boardID domain.ID) Model {
	index := AssigneeIndex(agents, boardID)
	buckets := make(map[domain.TaskStatus][]Card, len(domain.Statuses))
	for _, task := range tasks {
		status := task.Status
		if !status.Known() {
			status = domain.StatusInbox
		}
		buckets[status] = append(buckets[status], Card{
			Task:     task,
			Assignee: assignee(index, task.AssignedAgentID),
			Due:      FormatDueDate(task.DueAt),
		})
	}
	columns := make([]Column, 0, len(domain.Statuses))
	for _, status := range domain.Statuses {
		columns = append(columns, Column{
			Status: status,
			Title:  columnTitles[status],
			Cards:  buckets[status],
		})
	}
	return Model{BoardID: boardID, Columns: columns}
}

func assignee(index map[domain.ID]string, agentID *domain.ID) string {
	if agentID == nil {
		return Unassigned
	}
	if name, ok := index[*agentID]; ok {
		return name
	}
	return Unassigned
}

// FormatDueDate renders a due timestamp as a short badge. Missing or
// unparsable values render as no badge at all.
func FormatDueDate(value *string) string {
	ts, ok := parseTimestamp(value)
	if !ok {
		return ""
	}
	return ts.Format("Jan 2")
}

// FormatTimestamp renders a comment timestamp, falling back to a dash
// placeholder for unparsable input.
func FormatTimestamp(value string) string {
	ts, ok := parseTimestamp(&value)
	if !ok {
		return "-"
	}
	return ts.Format("Jan 2 15:04")
}

func parseTimestamp(value *string) (time.Time, bool) {
	if value == nil || *value == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if ts, err := time.Parse(layout, *value); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// Projector memoizes Project on input identity: the same task and agent
// slices with the same board id return the previously computed model without
// recomputation.
type Projector struct {
	lastTasks  []domain.Task
	lastAgents []domain.Agent
	lastBoard  domain.ID
	cached     *Model
}

// Project returns the display model, recomputing only when an input
// reference changed.
func (p *Projector) Project(tasks []domain.Task, agents []domain.Agent, boardID domain.ID) Model {
	if p.cached != nil && boardID == p.lastBoard &&
		sameSlice(tasks, p.lastTasks) && sameSlice(agents, p.lastAgents) {
		return *p.cached
	}
	model := Project(tasks, agents, boardID)
	p.lastTasks, p.lastAgents, p.lastBoard = tasks, agents, boardID
	p.cached = &model
	return model
}

// sameSlice reports whether two slices share length and backing array.
func sameSlice[E any](a, b []E) bool {
	if len(a) != len(b) {
		return false
	}
	if len(a) == 0 {
		return true
	}
	return reflect.ValueOf(a).Pointer() == reflect.ValueOf(b).Pointer()
}
