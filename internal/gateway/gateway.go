// Package gateway is the single outbound call primitive for the Mission
// Control API. Every request carries the resolved actor identity and the
// capability token; non-2xx responses become typed *APIError values.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bnodias/openclaw-mission-control/internal/domain"
	"github.com/bnodias/openclaw-mission-control/internal/localstate"
)

// Client is a Mission Control HTTP API client.
type Client struct {
	BaseURL    string
	ActorID    string
	Token      string
	HTTPClient *http.Client
	Timeout    time.Duration
}

// New creates a client with sane defaults. actorID and token may be empty.
// The returned client is safe for concurrent use; nothing mutates it after
// construction.
func New(baseURL, actorID, token string) *Client {
	return &Client{
		BaseURL:    baseURL,
		ActorID:    actorID,
		Token:      token,
		Timeout:    10 * time.Second,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// ResolveActor picks the actor identity for this session: the cached value in
// local state wins, otherwise the config fallback is used and cached for next
// time. An empty result is fine; requests then omit the actor header.
func ResolveActor(state *localstate.Store, fallback string) string {
	if state != nil {
		if cached, err := state.Get(localstate.ActorKey); err == nil && cached != "" {
			return cached
		}
	}
	if fallback == "" {
		return ""
	}
	if state != nil {
		_ = state.Put(localstate.ActorKey, fallback)
	}
	return fallback
}

// APIError wraps non-2xx responses. The message concatenates the HTTP status
// code, status text, and raw response body.
type APIError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%d %s", e.StatusCode, e.Status)
	}
	return fmt.Sprintf("%d %s: %s", e.StatusCode, e.Status, e.Body)
}

// GetBoard fetches one board.
func (c *Client) GetBoard(ctx context.Context, boardID domain.ID) (domain.Board, error) {
	var resp domain.Board
	err := c.do(ctx, http.MethodGet, c.boardPath(boardID, ""), nil, &resp)
	return resp, err
}

// ListBoardTasks fetches the task collection of a board.
func (c *Client) ListBoardTasks(ctx context.Context, boardID domain.ID) ([]domain.Task, error) {
	var resp []domain.Task
	err := c.do(ctx, http.MethodGet, c.boardPath(boardID, "tasks"), nil, &resp)
	return resp, err
}

// TaskCreate is the create-task request body.
type TaskCreate struct {
	Title       string            `json:"title"`
	Description *string           `json:"description"`
	Status      domain.TaskStatus `json:"status"`
	Priority    domain.Priority   `json:"priority"`
}

// CreateTask creates a task on a board and returns the authoritative record.
func (c *Client) CreateTask(ctx context.Context, boardID domain.ID, body TaskCreate) (domain.Task, error) {
	var resp domain.Task
	err := c.do(ctx, http.MethodPost, c.boardPath(boardID, "tasks"), body, &resp)
	return resp, err
}

// ListAgents fetches the agent directory across all boards.
func (c *Client) ListAgents(ctx context.Context) ([]domain.Agent, error) {
	var resp []domain.Agent
	err := c.do(ctx, http.MethodGet, "agents", nil, &resp)
	return resp, err
}

// ListTaskComments fetches the comment thread of one task. Order is whatever
// the server returned; the client does not re-sort.
func (c *Client) ListTaskComments(ctx context.Context, boardID, taskID domain.ID) ([]domain.TaskComment, error) {
	var resp []domain.TaskComment
	p := c.boardPath(boardID, fmt.Sprintf("tasks/%s/comments", url.PathEscape(taskID.String())))
	err := c.do(ctx, http.MethodGet, p, nil, &resp)
	return resp, err
}

// ListEmployees fetches the directory (humans and agents share one table).
func (c *Client) ListEmployees(ctx context.Context) ([]domain.Employee, error) {
	var resp []domain.Employee
	err := c.do(ctx, http.MethodGet, "employees", nil, &resp)
	return resp, err
}

// ListDepartments fetches the department lookup collection.
func (c *Client) ListDepartments(ctx context.Context) ([]domain.Department, error) {
	var resp []domain.Department
	err := c.do(ctx, http.MethodGet, "departments", nil, &resp)
	return resp, err
}

// ListTeams fetches teams, optionally scoped to one department.
func (c *Client) ListTeams(ctx context.Context, departmentID *domain.ID) ([]domain.Team, error) {
	endpoint := "teams"
	if departmentID != nil {
		endpoint = fmt.Sprintf("teams?department_id=%s", url.QueryEscape(departmentID.String()))
	}
	var resp []domain.Team
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

// EmployeeCreate is the create-employee request body. Foreign keys are
// numeric on the wire; nil means no selection.
type EmployeeCreate struct {
	Name         string              `json:"name"`
	EmployeeType domain.EmployeeType `json:"employee_type"`
	Title        *string             `json:"title"`
	DepartmentID *int64              `json:"department_id"`
	TeamID       *int64              `json:"team_id"`
	ManagerID    *int64              `json:"manager_id"`
	Status       string              `json:"status"`
}

// CreateEmployee persists a new directory entry.
func (c *Client) CreateEmployee(ctx context.Context, body EmployeeCreate) (domain.Employee, error) {
	var resp domain.Employee
	err := c.do(ctx, http.MethodPost, "employees", body, &resp)
	return resp, err
}

// ProvisionEmployee issues the activation call that hands an agent its
// provisioning key. The returned record carries the key on success.
func (c *Client) ProvisionEmployee(ctx context.Context, employeeID domain.ID) (domain.Employee, error) {
	var resp domain.Employee
	err := c.do(ctx, http.MethodPost, c.employeePath(employeeID, "provision"), nil, &resp)
	return resp, err
}

// DeprovisionEmployee revokes an agent's provisioning key.
func (c *Client) DeprovisionEmployee(ctx context.Context, employeeID domain.ID) (domain.Employee, error) {
	var resp domain.Employee
	err := c.do(ctx, http.MethodPost, c.employeePath(employeeID, "deprovision"), nil, &resp)
	return resp, err
}

// NumericRef parses a foreign-key selection into its wire form. Empty input
// means no selection, not zero.
func NumericRef(value string) (*int64, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, nil
	}
	n, err := strconv.ParseInt(trimmed, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("reference %q is not numeric", value)
	}
	return &n, nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	// Fan-out loads share one client across goroutines, so do must not
	// write to c.
	client := c.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: c.Timeout}
	}
	fullURL := c.base() + "/" + strings.TrimLeft(endpoint, "/")
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, fullURL, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-Id", uuid.NewString())
	if c.ActorID != "" {
		req.Header.Set("X-Actor-Employee-Id", c.ActorID)
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	} else {
		req.Header.Set("Authorization", "")
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return &APIError{
			StatusCode: resp.StatusCode,
			Status:     statusText(resp),
			Body:       string(b),
		}
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

// statusText strips the leading code from resp.Status ("404 Not Found").
func statusText(resp *http.Response) string {
	if _, text, ok := strings.Cut(resp.Status, " "); ok {
		return text
	}
	return http.StatusText(resp.StatusCode)
}

func (c *Client) boardPath(boardID domain.ID, p string) string {
	base := fmt.Sprintf("boards/%s", url.PathEscape(boardID.String()))
	if p == "" {
		return base
	}
	return base + "/" + strings.TrimLeft(p, "/")
}

func (c *Client) employeePath(employeeID domain.ID, p string) string {
	return fmt.Sprintf("employees/%s/%s", url.PathEscape(employeeID.String()), strings.TrimLeft(p, "/"))
}

func (c *Client) base() string {
	return strings.TrimRight(c.BaseURL, "/")
}

// IsStatus reports whether err is an APIError with the given status code.
func IsStatus(err error, code int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == code
}
