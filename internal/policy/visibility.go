// Package policy decides which projects and issues a user may read and
// whether the user may write projects.
package policy

import (
	"context"
	"fmt"
	"slices"

	"siteflow/internal/apperr"
	"siteflow/internal/models"

	"gorm.io/gorm"
)

// AssignmentLookup returns the ids of the projects a user is assigned to.
type AssignmentLookup interface {
	AssignedProjects(ctx context.Context, userID uint) ([]uint, error)
}

// safetyPriorities are the priorities a safety officer can read.
var safetyPriorities = []models.Priority{models.PriorityHigh, models.PriorityCritical}

type scopeKind int

const (
	scopeNone scopeKind = iota
	scopeAll
	scopeProjects
)

// IssueScope is the subset of issues a user may read. The zero value
// matches nothing.
type IssueScope struct {
	kind       scopeKind
	projects   []uint
	trade      models.TradeName
	priorities []models.Priority
}

// IssueScopeFor computes the issue scope of user given its assigned projects.
// Unknown roles and sub-contractors without a specialty get an empty scope.
func IssueScopeFor(user models.User, assigned []uint) IssueScope {
	if user.Role.SeesEverything() {
		return IssueScope{kind: scopeAll}
	}
	if len(assigned) == 0 {
		return IssueScope{}
	}

	projects := slices.Clone(assigned)
	switch user.Role {
	case models.RoleSiteOfficer:
		return IssueScope{kind: scopeProjects, projects: projects}
	case models.RoleSubContractor:
		if user.Specialty == models.SpecialtyNone {
			return IssueScope{}
		}
		return IssueScope{kind: scopeProjects, projects: projects, trade: models.TradeName(user.Specialty)}
	case models.RoleSafetyOfficer:
		return IssueScope{kind: scopeProjects, projects: projects, priorities: safetyPriorities}
	default:
		return IssueScope{}
	}
}

// Apply restricts a query over the issues table to the scope. It selects
// exactly the rows Allows accepts.
func (s IssueScope) Apply(db *gorm.DB) *gorm.DB {
	switch s.kind {
	case scopeAll:
		return db
	case scopeProjects:
		db = db.Where("issues.project_id IN ?", s.projects)
		if s.trade != "" {
			db = db.Where("issues.trade = ?", s.trade)
		}
		if len(s.priorities) > 0 {
			db = db.Where("issues.priority IN ?", s.priorities)
		}
		return db
	default:
		return db.Where("1 = 0")
	}
}

// Allows reports whether a loaded issue falls inside the scope.
func (s IssueScope) Allows(issue models.Issue) bool {
	switch s.kind {
	case scopeAll:
		return true
	case scopeProjects:
		if !slices.Contains(s.projects, issue.ProjectID) {
			return false
		}
		if s.trade != "" && issue.Trade != s.trade {
			return false
		}
		if len(s.priorities) > 0 && !slices.Contains(s.priorities, issue.Priority) {
			return false
		}
		return true
	default:
		return false
	}
}

// ProjectScope is the subset of projects a user may read.
type ProjectScope struct {
	kind     scopeKind
	projects []uint
}

// ProjectScopeFor gives admins and project managers every project and
// everyone else their assigned projects.
func ProjectScopeFor(user models.User, assigned []uint) ProjectScope {
	if user.Role.SeesEverything() {
		return ProjectScope{kind: scopeAll}
	}
	if !user.Role.Valid() || len(assigned) == 0 {
		return ProjectScope{}
	}
	return ProjectScope{kind: scopeProjects, projects: slices.Clone(assigned)}
}

// Apply restricts a query over the projects table to the scope.
func (s ProjectScope) Apply(db *gorm.DB) *gorm.DB {
	switch s.kind {
	case scopeAll:
		return db
	case scopeProjects:
		return db.Where("projects.id IN ?", s.projects)
	default:
		return db.Where("1 = 0")
	}
}

// Allows reports whether a loaded project falls inside the scope.
func (s ProjectScope) Allows(project models.Project) bool {
	switch s.kind {
	case scopeAll:
		return true
	case scopeProjects:
		return slices.Contains(s.projects, project.ID)
	default:
		return false
	}
}

// AuthorizeProjectWrite allows project create, update and delete for admins
// and project managers only. action names the write in the denial message.
func AuthorizeProjectWrite(user models.User, action string) error {
	if user.Role.SeesEverything() {
		return nil
	}
	return apperr.Newf(apperr.Forbidden,
		"insufficient role: only project managers or admin can %s projects", action)
}

// Policy resolves scopes for a user, looking up assignments only when the
// role needs them.
type Policy struct {
	Lookup AssignmentLookup
}

func (p Policy) IssueScope(ctx context.Context, user models.User) (IssueScope, error) {
	if user.Role.SeesEverything() {
		return IssueScope{kind: scopeAll}, nil
	}
	assigned, err := p.assigned(ctx, user)
	if err != nil {
		return IssueScope{}, err
	}
	return IssueScopeFor(user, assigned), nil
}

func (p Policy) ProjectScope(ctx context.Context, user models.User) (ProjectScope, error) {
	if user.Role.SeesEverything() {
		return ProjectScope{kind: scopeAll}, nil
	}
	assigned, err := p.assigned(ctx, user)
	if err != nil {
		return ProjectScope{}, err
	}
	return ProjectScopeFor(user, assigned), nil
}

func (p Policy) assigned(ctx context.Context, user models.User) ([]uint, error) {
	if !user.Role.Valid() || p.Lookup == nil {
		return nil, nil
	}
	ids, err := p.Lookup.AssignedProjects(ctx, user.ID)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "load assigned projects", fmt.Errorf("user %d: %w", user.ID, err))
	}
	return ids, nil
}
