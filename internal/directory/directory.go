// Package directory resolves display labels for the people screen. All
// references are soft; a dangling id yields a placeholder label rather than
// an error.
package directory

import (
	"fmt"

	"github.com/bnodias/openclaw-mission-control/internal/domain"
)

// Labels holds name lookups for the directory's foreign keys.
type Labels struct {
	departments map[domain.ID]string
	teams       map[domain.ID]string
	employees   map[domain.ID]string
}

// BuildLabels indexes the lookup collections by id.
func BuildLabels(departments []domain.Department, teams []domain.Team, employees []domain.Employee) Labels {
	l := Labels{
		departments: make(map[domain.ID]string, len(departments)),
		teams:       make(map[domain.ID]string, len(teams)),
		employees:   make(map[domain.ID]string, len(employees)),
	}
	for _, d := range departments {
		l.departments[d.ID] = d.Name
	}
	for _, t := range teams {
		l.teams[t.ID] = t.Name
	}
	for _, e := range employees {
		l.employees[e.ID] = e.Name
	}
	return l
}

// Department returns the department name, a Dept#<id> placeholder for a
// dangling reference, or "" when unset.
func (l Labels) Department(id *domain.ID) string {
	return l.resolve(l.departments, id, "Dept")
}

// Team returns the team name or its placeholder.
func (l Labels) Team(id *domain.ID) string {
	return l.resolve(l.teams, id, "Team")
}

// Manager returns the manager's name or its placeholder.
func (l Labels) Manager(id *domain.ID) string {
	return l.resolve(l.employees, id, "Emp")
}

func (l Labels) resolve(index map[domain.ID]string, id *domain.ID, placeholder string) string {
	if id == nil {
		return ""
	}
	if name, ok := index[*id]; ok {
		return name
	}
	return fmt.Sprintf("%s#%s", placeholder, id.String())
}
