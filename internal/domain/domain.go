package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ID is an opaque server-assigned identifier. Some collections use numeric
// ids and some use UUIDs; for cross-resource lookups the core treats both as
// strings, so decoding accepts either JSON form.
type ID string

func (id ID) String() string { return string(id) }

func (id *ID) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		*id = ""
		return nil
	}
	if strings.HasPrefix(trimmed, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// TaskStatus is the fixed workflow column set for a board.
type TaskStatus string

const (
	StatusInbox      TaskStatus = "inbox"
	StatusAssigned   TaskStatus = "assigned"
	StatusInProgress TaskStatus = "in_progress"
	StatusTesting    TaskStatus = "testing"
	StatusReview     TaskStatus = "review"
	StatusDone       TaskStatus = "done"
)

// Statuses lists the workflow columns in board order.
var Statuses = []TaskStatus{
	StatusInbox,
	StatusAssigned,
	StatusInProgress,
	StatusTesting,
	StatusReview,
	StatusDone,
}

// Known reports whether s is one of the fixed workflow columns.
func (s TaskStatus) Known() bool {
	for _, known := range Statuses {
		if s == known {
			return true
		}
	}
	return false
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// EmployeeType discriminates humans from automated agents in the directory.
type EmployeeType string

const (
	TypeHuman EmployeeType = "human"
	TypeAgent EmployeeType = "agent"
)

type Board struct {
	ID   ID     `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type Task struct {
	ID              ID         `json:"id"`
	Title           string     `json:"title"`
	Description     string     `json:"description,omitempty"`
	Status          TaskStatus `json:"status"`
	Priority        Priority   `json:"priority"`
	DueAt           *string    `json:"due_at,omitempty"`
	AssignedAgentID *ID        `json:"assigned_agent_id,omitempty"`
}

// Agent is the board-facing view of a directory entry that can take tasks.
// BoardID is absent on records not pinned to a single board.
type Agent struct {
	ID      ID      `json:"id"`
	Name    string  `json:"name"`
	BoardID *ID     `json:"board_id,omitempty"`
}

// Employee is a directory entry. Humans and agents share the table; the type
// field discriminates. An agent is assignable only once ProvisioningKey is set.
type Employee struct {
	ID              ID           `json:"id"`
	Name            string       `json:"name"`
	EmployeeType    EmployeeType `json:"employee_type"`
	Title           string       `json:"title,omitempty"`
	DepartmentID    *ID          `json:"department_id,omitempty"`
	TeamID          *ID          `json:"team_id,omitempty"`
	ManagerID       *ID          `json:"manager_id,omitempty"`
	Status          string       `json:"status"`
	ProvisioningKey string       `json:"provisioning_key,omitempty"`
}

// Assignable reports whether the entry may receive task assignments.
// Humans always qualify; agents only once provisioned.
func (e Employee) Assignable() bool {
	return e.EmployeeType != TypeAgent || e.ProvisioningKey != ""
}

type Department struct {
	ID   ID     `json:"id"`
	Name string `json:"name"`
}

type Team struct {
	ID           ID     `json:"id"`
	Name         string `json:"name"`
	DepartmentID *ID    `json:"department_id,omitempty"`
}

type TaskComment struct {
	ID        ID      `json:"id"`
	Message   string  `json:"message,omitempty"`
	AgentID   *ID     `json:"agent_id,omitempty"`
	TaskID    *ID     `json:"task_id,omitempty"`
	CreatedAt string  `json:"created_at"`
}
