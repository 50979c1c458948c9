package notify

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"slices"
	"testing"

	"siteflow/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	users     []models.User
	created   []models.Notification
	createErr error
	lookupErr error
}

func (m *memStore) UsersWithSpecialty(_ context.Context, s models.Specialty) ([]models.User, error) {
	if m.lookupErr != nil {
		return nil, m.lookupErr
	}
	var out []models.User
	for _, u := range m.users {
		if u.Specialty == s {
			out = append(out, u)
		}
	}
	return out, nil
}

func (m *memStore) UsersWithRoles(_ context.Context, roles ...models.UserRole) ([]models.User, error) {
	var out []models.User
	for _, u := range m.users {
		if slices.Contains(roles, u.Role) {
			out = append(out, u)
		}
	}
	return out, nil
}

func (m *memStore) CreateNotifications(_ context.Context, ns []models.Notification) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.created = append(m.created, ns...)
	return nil
}

func crew() []models.User {
	return []models.User{
		{ID: 1, Role: models.RoleSubContractor, Specialty: models.SpecialtyElectrical},
		{ID: 2, Role: models.RoleProjectManager, Specialty: models.SpecialtyElectrical},
		{ID: 3, Role: models.RoleSiteOfficer},
		{ID: 4, Role: models.RoleSubContractor, Specialty: models.SpecialtyPlumbing},
		{ID: 5, Role: models.RoleSafetyOfficer},
		{ID: 6, Role: models.RoleAdmin},
	}
}

func newNotifier(store *memStore) *Notifier {
	return New(store, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func recipientIDs(ns []models.Notification) []uint {
	ids := make([]uint, 0, len(ns))
	for _, n := range ns {
		ids = append(ids, n.UserID)
	}
	slices.Sort(ids)
	return ids
}

func TestCommentOnElectricalIssueNotifiesUnion(t *testing.T) {
	store := &memStore{users: crew()}
	n := newNotifier(store)

	issue := models.Issue{ID: 10, IssueTitle: "Panel sparks", AssignedTo: models.TradeElectrical}
	comment := models.Comment{IssueID: 10, Content: "Isolated the breaker"}

	count := n.CommentCreated(context.Background(), comment, issue, "alice")
	assert.Equal(t, 3, count)
	assert.Equal(t, []uint{1, 2, 3}, recipientIDs(store.created))

	for _, note := range store.created {
		assert.False(t, note.IsRead)
		require.NotNil(t, note.IssueID)
		assert.Equal(t, uint(10), *note.IssueID)
		assert.Contains(t, note.Message, "alice commented: Isolated the breaker")
	}
}

func TestIssueCreatedUsesAssignedTrade(t *testing.T) {
	store := &memStore{users: crew()}
	n := newNotifier(store)

	issue := models.Issue{ID: 11, IssueTitle: "Burst pipe", Trade: models.TradeElectrical,
		AssignedTo: models.TradePlumbing, Priority: models.PriorityCritical}
	assert.Equal(t, 3, n.IssueCreated(context.Background(), issue))
	assert.Equal(t, []uint{2, 3, 4}, recipientIDs(store.created))
	assert.Equal(t, "New issue: Burst pipe", store.created[0].Title)
}

func TestTradeWithNoSpecialistsStillNotifiesWatchers(t *testing.T) {
	store := &memStore{users: crew()}
	n := newNotifier(store)

	count := n.NotifyTrade(context.Background(), models.TradeHVAC, "t", "m", nil)
	assert.Equal(t, 2, count)
	assert.Nil(t, store.created[0].IssueID)
}

func TestIssueUpdatedSendsNothing(t *testing.T) {
	store := &memStore{users: crew()}
	n := newNotifier(store)

	assert.Zero(t, n.IssueUpdated(context.Background(), models.Issue{AssignedTo: models.TradeElectrical}))
	assert.Empty(t, store.created)
}

func TestFailuresAreSwallowed(t *testing.T) {
	store := &memStore{users: crew(), createErr: errors.New("insert failed")}
	n := newNotifier(store)
	assert.Zero(t, n.NotifyTrade(context.Background(), models.TradeElectrical, "t", "m", nil))

	store = &memStore{users: crew(), lookupErr: errors.New("timeout")}
	n = newNotifier(store)
	assert.Equal(t, 2, n.NotifyTrade(context.Background(), models.TradeElectrical, "t", "m", nil))
}

func TestRecipientsDedupes(t *testing.T) {
	a := []models.User{{ID: 1}, {ID: 2}}
	b := []models.User{{ID: 2}, {ID: 3}, {ID: 1}}
	got := Recipients(a, b)
	require.Len(t, got, 3)
	assert.Equal(t, uint(1), got[0].ID)
	assert.Equal(t, uint(3), got[2].ID)
	assert.Empty(t, Recipients())
}
