// Package testutil provides an in-memory Mission Control API fake for
// package tests: the full route surface the client consumes, backed by maps,
// with switches for injecting failures.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/bnodias/openclaw-mission-control/internal/domain"
	"github.com/bnodias/openclaw-mission-control/internal/gateway"
)

// Server is a fake Mission Control backend.
type Server struct {
	mu sync.Mutex

	Boards      map[domain.ID]domain.Board
	Tasks       map[domain.ID][]domain.Task // keyed by board id
	Agents      []domain.Agent
	Employees   []domain.Employee
	Departments []domain.Department
	Teams       []domain.Team
	Comments    map[domain.ID][]domain.TaskComment // keyed by task id

	// FailPaths maps "METHOD path" to a status code returned instead of the
	// real handler, e.g. "GET /boards/b1/tasks" -> 500.
	FailPaths map[string]int

	// ProvisionCalls counts provisioning requests per employee id.
	ProvisionCalls map[domain.ID]int

	// RequestHeaders records the headers of every request, in order.
	RequestHeaders []http.Header

	// Requests records "METHOD path?query" for every request, in order.
	Requests []string

	nextID  int
	handler http.Handler
}

// NewServer builds an empty fake with all routes wired.
func NewServer() *Server {
	s := &Server{
		Boards:         map[domain.ID]domain.Board{},
		Tasks:          map[domain.ID][]domain.Task{},
		Comments:       map[domain.ID][]domain.TaskComment{},
		FailPaths:      map[string]int{},
		ProvisionCalls: map[domain.ID]int{},
		nextID:         100,
	}
	r := chi.NewRouter()
	r.Use(s.record)
	r.Get("/boards/{boardID}", s.getBoard)
	r.Get("/boards/{boardID}/tasks", s.listTasks)
	r.Post("/boards/{boardID}/tasks", s.createTask)
	r.Get("/boards/{boardID}/tasks/{taskID}/comments", s.listComments)
	r.Get("/agents", s.listAgents)
	r.Get("/employees", s.listEmployees)
	r.Post("/employees", s.createEmployee)
	r.Post("/employees/{employeeID}/provision", s.provision)
	r.Post("/employees/{employeeID}/deprovision", s.deprovision)
	r.Get("/departments", s.listDepartments)
	r.Get("/teams", s.listTeams)
	s.handler = r
	return s
}

// Client returns a gateway bound to this fake via an in-process transport.
func (s *Server) Client(actorID, token string) *gateway.Client {
	gw := gateway.New("http://mission-control", actorID, token)
	gw.HTTPClient = NewInProcessClient(s.handler)
	return gw
}

// Handler exposes the route surface for custom transports.
func (s *Server) Handler() http.Handler { return s.handler }

// NewID hands out a fresh server-assigned id.
func (s *Server) NewID() domain.ID {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	return domain.ID(strconv.Itoa(s.nextID))
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.RequestHeaders = append(s.RequestHeaders, r.Header.Clone())
		s.Requests = append(s.Requests, r.Method+" "+r.URL.RequestURI())
		if r.Method == http.MethodPost {
			if id, ok := provisionTarget(r.URL.Path); ok {
				s.ProvisionCalls[id]++
			}
		}
		status := s.FailPaths[r.Method+" "+r.URL.Path]
		s.mu.Unlock()
		if status != 0 {
			http.Error(w, "injected failure", status)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) getBoard(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	board, ok := s.Boards[domain.ID(chi.URLParam(r, "boardID"))]
	s.mu.Unlock()
	if !ok {
		http.Error(w, "board not found", http.StatusNotFound)
		return
	}
	writeJSON(w, board)
}

func (s *Server) listTasks(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	tasks := append([]domain.Task{}, s.Tasks[domain.ID(chi.URLParam(r, "boardID"))]...)
	s.mu.Unlock()
	writeJSON(w, tasks)
}

func (s *Server) createTask(w http.ResponseWriter, r *http.Request) {
	var body gateway.TaskCreate
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	boardID := domain.ID(chi.URLParam(r, "boardID"))
	task := domain.Task{
		ID:       s.NewID(),
		Title:    body.Title,
		Status:   body.Status,
		Priority: body.Priority,
	}
	if body.Description != nil {
		task.Description = *body.Description
	}
	s.mu.Lock()
	s.Tasks[boardID] = append(s.Tasks[boardID], task)
	s.mu.Unlock()
	writeJSONStatus(w, http.StatusCreated, task)
}

func (s *Server) listComments(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	thread := append([]domain.TaskComment{}, s.Comments[domain.ID(chi.URLParam(r, "taskID"))]...)
	s.mu.Unlock()
	writeJSON(w, thread)
}

func (s *Server) listAgents(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	agents := append([]domain.Agent{}, s.Agents...)
	s.mu.Unlock()
	writeJSON(w, agents)
}

func (s *Server) listEmployees(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	employees := append([]domain.Employee{}, s.Employees...)
	s.mu.Unlock()
	writeJSON(w, employees)
}

func (s *Server) createEmployee(w http.ResponseWriter, r *http.Request) {
	var body gateway.EmployeeCreate
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	employee := domain.Employee{
		ID:           s.NewID(),
		Name:         body.Name,
		EmployeeType: body.EmployeeType,
		Status:       body.Status,
	}
	if body.Title != nil {
		employee.Title = *body.Title
	}
	employee.DepartmentID = refID(body.DepartmentID)
	employee.TeamID = refID(body.TeamID)
	employee.ManagerID = refID(body.ManagerID)
	s.mu.Lock()
	s.Employees = append(s.Employees, employee)
	s.mu.Unlock()
	writeJSONStatus(w, http.StatusCreated, employee)
}

func (s *Server) provision(w http.ResponseWriter, r *http.Request) {
	id := domain.ID(chi.URLParam(r, "employeeID"))
	s.mu.Lock()
	idx := s.findEmployee(id)
	if idx < 0 {
		s.mu.Unlock()
		http.Error(w, "employee not found", http.StatusNotFound)
		return
	}
	s.Employees[idx].ProvisioningKey = fmt.Sprintf("agent:%s:main", id)
	updated := s.Employees[idx]
	s.mu.Unlock()
	writeJSON(w, updated)
}

func (s *Server) deprovision(w http.ResponseWriter, r *http.Request) {
	id := domain.ID(chi.URLParam(r, "employeeID"))
	s.mu.Lock()
	idx := s.findEmployee(id)
	if idx < 0 {
		s.mu.Unlock()
		http.Error(w, "employee not found", http.StatusNotFound)
		return
	}
	s.Employees[idx].ProvisioningKey = ""
	updated := s.Employees[idx]
	s.mu.Unlock()
	writeJSON(w, updated)
}

func (s *Server) listDepartments(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	departments := append([]domain.Department{}, s.Departments...)
	s.mu.Unlock()
	writeJSON(w, departments)
}

func (s *Server) listTeams(w http.ResponseWriter, r *http.Request) {
	scope := r.URL.Query().Get("department_id")
	s.mu.Lock()
	teams := make([]domain.Team, 0, len(s.Teams))
	for _, t := range s.Teams {
		if scope != "" && (t.DepartmentID == nil || t.DepartmentID.String() != scope) {
			continue
		}
		teams = append(teams, t)
	}
	s.mu.Unlock()
	writeJSON(w, teams)
}

// findEmployee requires s.mu held.
func (s *Server) findEmployee(id domain.ID) int {
	for i := range s.Employees {
		if s.Employees[i].ID == id {
			return i
		}
	}
	return -1
}

// provisionTarget extracts the employee id from /employees/{id}/provision.
func provisionTarget(path string) (domain.ID, bool) {
	const prefix = "/employees/"
	const suffix = "/provision"
	if !strings.HasPrefix(path, prefix) || !strings.HasSuffix(path, suffix) {
		return "", false
	}
	id := strings.TrimSuffix(strings.TrimPrefix(path, prefix), suffix)
	if id == "" || strings.Contains(id, "/") {
		return "", false
	}
	return domain.ID(id), true
}

func refID(n *int64) *domain.ID {
	if n == nil {
		return nil
	}
	id := domain.ID(strconv.FormatInt(*n, 10))
	return &id
}

func writeJSON(w http.ResponseWriter, v any) {
	writeJSONStatus(w, http.StatusOK, v)
}

func writeJSONStatus(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
