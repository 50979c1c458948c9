package policy

import (
	"context"
	"errors"
	"testing"

	"siteflow/internal/apperr"
	"siteflow/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type lookupFunc func(ctx context.Context, userID uint) ([]uint, error)

func (f lookupFunc) AssignedProjects(ctx context.Context, userID uint) ([]uint, error) {
	return f(ctx, userID)
}

func issue(project uint, trade models.TradeName, priority models.Priority) models.Issue {
	return models.Issue{ProjectID: project, Trade: trade, Priority: priority}
}

var catalogue = []models.Issue{
	issue(1, models.TradeElectrical, models.PriorityLow),
	issue(1, models.TradePlumbing, models.PriorityHigh),
	issue(2, models.TradeElectrical, models.PriorityCritical),
	issue(2, models.TradeStructural, models.PriorityMedium),
	issue(3, models.TradeElectrical, models.PriorityHigh),
}

func visible(scope IssueScope) []models.Issue {
	var out []models.Issue
	for _, is := range catalogue {
		if scope.Allows(is) {
			out = append(out, is)
		}
	}
	return out
}

func TestIssueScopeForRoles(t *testing.T) {
	assigned := []uint{1, 2}

	tests := []struct {
		name string
		user models.User
		want int
	}{
		{"admin sees all", models.User{Role: models.RoleAdmin}, 5},
		{"project manager sees all", models.User{Role: models.RoleProjectManager}, 5},
		{"site officer sees assigned projects", models.User{Role: models.RoleSiteOfficer}, 4},
		{"sub contractor sees its trade", models.User{Role: models.RoleSubContractor, Specialty: models.SpecialtyElectrical}, 2},
		{"sub contractor without specialty sees nothing", models.User{Role: models.RoleSubContractor}, 0},
		{"safety officer sees high and critical", models.User{Role: models.RoleSafetyOfficer}, 2},
		{"unknown role sees nothing", models.User{Role: "CLIENT"}, 0},
		{"role match is case sensitive", models.User{Role: "admin"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Len(t, visible(IssueScopeFor(tt.user, assigned)), tt.want)
		})
	}
}

func TestSafetyOfficerOnlySeesSevereAssignedIssues(t *testing.T) {
	scope := IssueScopeFor(models.User{Role: models.RoleSafetyOfficer}, []uint{1, 2})
	for _, is := range visible(scope) {
		assert.Contains(t, []models.Priority{models.PriorityHigh, models.PriorityCritical}, is.Priority)
		assert.Contains(t, []uint{1, 2}, is.ProjectID)
	}
}

func TestNoAssignmentsMeansEmptyScope(t *testing.T) {
	for _, role := range []models.UserRole{models.RoleSiteOfficer, models.RoleSafetyOfficer, models.RoleSubContractor} {
		scope := IssueScopeFor(models.User{Role: role, Specialty: models.SpecialtyPlumbing}, nil)
		assert.Equal(t, scopeNone, scope.kind, role)
		assert.Empty(t, visible(scope), role)
	}
}

func TestProjectScopeFor(t *testing.T) {
	projects := []models.Project{{ID: 1}, {ID: 2}, {ID: 3}}
	count := func(s ProjectScope) int {
		n := 0
		for _, p := range projects {
			if s.Allows(p) {
				n++
			}
		}
		return n
	}

	assert.Equal(t, 3, count(ProjectScopeFor(models.User{Role: models.RoleAdmin}, nil)))
	assert.Equal(t, 3, count(ProjectScopeFor(models.User{Role: models.RoleProjectManager}, nil)))
	assert.Equal(t, 1, count(ProjectScopeFor(models.User{Role: models.RoleSubContractor}, []uint{3})))
	assert.Equal(t, 0, count(ProjectScopeFor(models.User{Role: models.RoleSiteOfficer}, nil)))
	assert.Equal(t, 0, count(ProjectScopeFor(models.User{Role: "GUEST"}, []uint{1, 2})))
}

func TestAuthorizeProjectWrite(t *testing.T) {
	for _, role := range models.Roles {
		err := AuthorizeProjectWrite(models.User{Role: role}, "create")
		if role == models.RoleAdmin || role == models.RoleProjectManager {
			assert.NoError(t, err, role)
			continue
		}
		require.Error(t, err, role)
		assert.True(t, apperr.Is(err, apperr.Forbidden))
		assert.Contains(t, apperr.Message(err), "insufficient role")
	}
	assert.Error(t, AuthorizeProjectWrite(models.User{Role: ""}, "delete"))
}

func TestPolicySkipsLookupForPrivilegedRoles(t *testing.T) {
	calls := 0
	p := Policy{Lookup: lookupFunc(func(context.Context, uint) ([]uint, error) {
		calls++
		return []uint{2}, nil
	})}

	scope, err := p.IssueScope(context.Background(), models.User{ID: 1, Role: models.RoleAdmin})
	require.NoError(t, err)
	assert.Equal(t, scopeAll, scope.kind)
	assert.Zero(t, calls)

	scope, err = p.IssueScope(context.Background(), models.User{ID: 2, Role: models.RoleSiteOfficer})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.True(t, scope.Allows(issue(2, models.TradeHVAC, models.PriorityLow)))
	assert.False(t, scope.Allows(issue(1, models.TradeHVAC, models.PriorityLow)))
}

func TestPolicyLookupFailureIsInternal(t *testing.T) {
	p := Policy{Lookup: lookupFunc(func(context.Context, uint) ([]uint, error) {
		return nil, errors.New("db down")
	})}
	_, err := p.ProjectScope(context.Background(), models.User{ID: 9, Role: models.RoleSiteOfficer})
	require.Error(t, err)
	assert.Equal(t, apperr.Internal, apperr.KindOf(err))
}
