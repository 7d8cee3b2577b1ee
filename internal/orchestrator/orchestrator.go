// Package orchestrator executes create/update intents against the resource
// stores, keeping local state coherent without full reloads. It owns the
// provisioning cascade: a directory entry of type agent created without a
// provisioning key gets exactly one follow-up activation call before the
// creation is considered complete.
package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"github.com/bnodias/openclaw-mission-control/internal/domain"
	"github.com/bnodias/openclaw-mission-control/internal/gateway"
	"github.com/bnodias/openclaw-mission-control/internal/logging"
	"github.com/bnodias/openclaw-mission-control/internal/store"
)

// ValidationError is a local, pre-network rejection. No request is issued
// when one is returned.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Orchestrator coordinates mutations across the gateway and the stores.
type Orchestrator struct {
	gw     *gateway.Client
	stores *store.Stores
	log    *logging.Logger
}

// New builds an orchestrator. log may be nil.
func New(gw *gateway.Client, stores *store.Stores, log *logging.Logger) *Orchestrator {
	return &Orchestrator{gw: gw, stores: stores, log: log}
}

// TaskForm is the user intent behind a create-task submission.
type TaskForm struct {
	Title       string
	Description string
	Priority    domain.Priority
}

// CreateTask validates the form locally, creates the task on the server with
// status forced to inbox, and prepends the authoritative server-returned
// record to the task store. The priority defaults to medium.
func (o *Orchestrator) CreateTask(ctx context.Context, boardID domain.ID, tasks *store.Store[[]domain.Task], form TaskForm) (domain.Task, error) {
	title := strings.TrimSpace(form.Title)
	if title == "" {
		return domain.Task{}, &ValidationError{Field: "title", Reason: "must not be empty"}
	}
	priority := form.Priority
	if priority == "" {
		priority = domain.PriorityMedium
	}
	var description *string
	if d := strings.TrimSpace(form.Description); d != "" {
		description = &d
	}
	created, err := o.gw.CreateTask(ctx, boardID, gateway.TaskCreate{
		Title:       title,
		Description: description,
		Status:      domain.StatusInbox,
		Priority:    priority,
	})
	if err != nil {
		return domain.Task{}, err
	}
	if tasks != nil {
		tasks.Mutate(func(current []domain.Task) []domain.Task {
			merged := make([]domain.Task, 0, len(current)+1)
			merged = append(merged, created)
			return append(merged, current...)
		})
	}
	return created, nil
}

// ProvisionStatus is the cascade leg of an employee creation.
type ProvisionStatus string

const (
	ProvisionNotRequired ProvisionStatus = "not_required" // human, or key already present
	Provisioned          ProvisionStatus = "provisioned"
	ProvisionFailed      ProvisionStatus = "failed"
)

// EmployeeCreation reports both outcomes of the create-employee sequence.
// Creation success and provisioning success are independently observable;
// callers decide whether to surface a failed cascade.
type EmployeeCreation struct {
	Employee     domain.Employee
	Provisioning ProvisionStatus
	ProvisionErr error // set only when Provisioning == ProvisionFailed
}

// EmployeeForm is the user intent behind an add-person submission. Foreign
// keys arrive as raw form strings; empty means no selection.
type EmployeeForm struct {
	Name         string
	EmployeeType domain.EmployeeType
	Title        string
	DepartmentID string
	TeamID       string
	ManagerID    string
}

// CreateEmployee persists a directory entry and, for an agent returned
// without a provisioning key, issues the activation call. A failed cascade
// does not roll back or fail the creation; the entry stays created but
// unprovisioned and the directory shows that on the next refresh. The
// employee and team stores are refreshed after the sequence either way.
func (o *Orchestrator) CreateEmployee(ctx context.Context, form EmployeeForm) (EmployeeCreation, error) {
	body, err := buildEmployeeCreate(form)
	if err != nil {
		return EmployeeCreation{}, err
	}
	created, err := o.gw.CreateEmployee(ctx, body)
	if err != nil {
		return EmployeeCreation{}, err
	}
	result := EmployeeCreation{Employee: created, Provisioning: ProvisionNotRequired}
	if created.EmployeeType == domain.TypeAgent && created.ProvisioningKey == "" {
		provisioned, provErr := o.gw.ProvisionEmployee(ctx, created.ID)
		if provErr != nil {
			o.log.Printf("provision employee %s failed: %v", created.ID, provErr)
			result.Provisioning = ProvisionFailed
			result.ProvisionErr = provErr
		} else {
			result.Employee = provisioned
			result.Provisioning = Provisioned
		}
	}
	o.refreshDirectory(ctx)
	return result, nil
}

// Provision re-runs the activation call for an existing entry, e.g. after a
// failed cascade. Retries are always user-initiated.
func (o *Orchestrator) Provision(ctx context.Context, employeeID domain.ID) (domain.Employee, error) {
	updated, err := o.gw.ProvisionEmployee(ctx, employeeID)
	if err != nil {
		return domain.Employee{}, err
	}
	o.refreshDirectory(ctx)
	return updated, nil
}

// Deprovision revokes an agent's provisioning key.
func (o *Orchestrator) Deprovision(ctx context.Context, employeeID domain.ID) (domain.Employee, error) {
	updated, err := o.gw.DeprovisionEmployee(ctx, employeeID)
	if err != nil {
		return domain.Employee{}, err
	}
	o.refreshDirectory(ctx)
	return updated, nil
}

// refreshDirectory reloads the employee and team stores. Teams can gain
// membership counts as a side effect of new employees. Refresh failures are
// the stores' own errors, not the mutation's.
func (o *Orchestrator) refreshDirectory(ctx context.Context) {
	if o.stores == nil {
		return
	}
	if _, err := o.stores.Employees.Refetch(ctx); err != nil {
		o.log.Printf("refresh employees: %v", err)
	}
	if _, err := o.stores.Teams.Refetch(ctx); err != nil {
		o.log.Printf("refresh teams: %v", err)
	}
}

func buildEmployeeCreate(form EmployeeForm) (gateway.EmployeeCreate, error) {
	name := strings.TrimSpace(form.Name)
	if name == "" {
		return gateway.EmployeeCreate{}, &ValidationError{Field: "name", Reason: "must not be empty"}
	}
	employeeType := form.EmployeeType
	if employeeType == "" {
		employeeType = domain.TypeHuman
	}
	if employeeType != domain.TypeHuman && employeeType != domain.TypeAgent {
		return gateway.EmployeeCreate{}, &ValidationError{Field: "employee_type", Reason: "must be human or agent"}
	}
	departmentID, err := gateway.NumericRef(form.DepartmentID)
	if err != nil {
		return gateway.EmployeeCreate{}, &ValidationError{Field: "department_id", Reason: err.Error()}
	}
	teamID, err := gateway.NumericRef(form.TeamID)
	if err != nil {
		return gateway.EmployeeCreate{}, &ValidationError{Field: "team_id", Reason: err.Error()}
	}
	managerID, err := gateway.NumericRef(form.ManagerID)
	if err != nil {
		return gateway.EmployeeCreate{}, &ValidationError{Field: "manager_id", Reason: err.Error()}
	}
	var title *string
	if t := strings.TrimSpace(form.Title); t != "" {
		title = &t
	}
	return gateway.EmployeeCreate{
		Name:         name,
		EmployeeType: employeeType,
		Title:        title,
		DepartmentID: departmentID,
		TeamID:       teamID,
		ManagerID:    managerID,
		Status:       "active",
	}, nil
}
