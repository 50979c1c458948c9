package issues

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"siteflow/internal/apperr"
	"siteflow/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	issues    map[uint]models.Issue
	updateErr error
}

func (m *memStore) FindIssue(_ context.Context, id uint) (models.Issue, error) {
	is, ok := m.issues[id]
	if !ok {
		return models.Issue{}, apperr.New(apperr.NotFound, "Issue not found")
	}
	return is, nil
}

func (m *memStore) UpdateAssignment(_ context.Context, issue *models.Issue, trade models.TradeName) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	issue.AssignedTo = trade
	issue.UpdatedAt = issue.UpdatedAt.Add(time.Second)
	m.issues[issue.ID] = *issue
	return nil
}

type memHistory struct {
	entries []models.IssueHistory
	failN   int
}

func (h *memHistory) Record(_ context.Context, entry models.IssueHistory) error {
	if h.failN > 0 {
		h.failN--
		return errors.New("history table locked")
	}
	h.entries = append(h.entries, entry)
	return nil
}

func newFixture() (*Service, *memStore, *memHistory) {
	store := &memStore{issues: map[uint]models.Issue{
		15: {
			ID:         15,
			IssueTitle: "Exposed wiring on level 3",
			AssignedTo: models.TradeGeneral,
			ProjectID:  1,
			Project:    models.Project{ID: 1, ProjectName: "Harbour Tower"},
		},
	}}
	history := &memHistory{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(store, history, logger), store, history
}

func TestAssign(t *testing.T) {
	svc, store, history := newFixture()
	actor := models.User{ID: 7, Role: models.RoleSiteOfficer}

	res, err := svc.Assign(context.Background(), 15, "ELECTRICAL", actor)
	require.NoError(t, err)

	assert.Equal(t, models.TradeGeneral, res.OldAssignment)
	assert.Equal(t, models.TradeElectrical, res.NewAssignment)
	assert.Equal(t, "Harbour Tower", res.Project)
	assert.Equal(t, "Issue #15 assigned to ELECTRICAL", res.Message)
	assert.Equal(t, models.TradeElectrical, store.issues[15].AssignedTo)

	require.Len(t, history.entries, 1)
	entry := history.entries[0]
	assert.Equal(t, models.ActionAssignedTradeChanged, entry.Action)
	assert.Equal(t, "GENERAL", entry.OldValue)
	assert.Equal(t, "ELECTRICAL", entry.NewValue)
	assert.Equal(t, uint(7), entry.UserID)
	assert.Equal(t, uint(15), entry.IssueID)
}

func TestAssignErrors(t *testing.T) {
	svc, _, history := newFixture()
	ctx := context.Background()

	_, err := svc.Assign(ctx, 99, "ELECTRICAL", models.User{ID: 1})
	assert.True(t, apperr.Is(err, apperr.NotFound))

	_, err = svc.Assign(ctx, 15, "", models.User{ID: 1})
	assert.True(t, apperr.Is(err, apperr.InvalidArgument))

	_, err = svc.Assign(ctx, 15, "electrical", models.User{ID: 1})
	require.True(t, apperr.Is(err, apperr.InvalidArgument))
	assert.Contains(t, apperr.Message(err), "HVAC")

	// NotFound wins over a bad trade.
	_, err = svc.Assign(ctx, 99, "", models.User{ID: 1})
	assert.True(t, apperr.Is(err, apperr.NotFound))

	assert.Empty(t, history.entries)
}

func TestAssignSurvivesHistoryFailure(t *testing.T) {
	svc, store, history := newFixture()
	history.failN = 1
	ctx := context.Background()

	res, err := svc.Assign(ctx, 15, "PLUMBING", models.User{ID: 3})
	require.NoError(t, err)
	assert.Equal(t, models.TradePlumbing, res.NewAssignment)
	assert.Equal(t, models.TradePlumbing, store.issues[15].AssignedTo)
	assert.Empty(t, history.entries)

	_, err = svc.Assign(ctx, 15, "HVAC", models.User{ID: 3})
	require.NoError(t, err)
	require.Len(t, history.entries, 1)
	assert.Equal(t, "PLUMBING", history.entries[0].OldValue)
	assert.Equal(t, "HVAC", history.entries[0].NewValue)
}

func TestAssignPropagatesStoreFailure(t *testing.T) {
	svc, store, _ := newFixture()
	store.updateErr = apperr.Wrap(apperr.Internal, "save issue", errors.New("conn reset"))

	_, err := svc.Assign(context.Background(), 15, "HVAC", models.User{ID: 3})
	assert.Equal(t, apperr.Internal, apperr.KindOf(err))
}

func TestRecordCreated(t *testing.T) {
	svc, _, history := newFixture()
	svc.RecordCreated(context.Background(), models.Issue{ID: 4, IssueTitle: "Leak"}, models.User{ID: 2})

	require.Len(t, history.entries, 1)
	assert.Equal(t, models.ActionIssueCreated, history.entries[0].Action)
	assert.Equal(t, "Leak", history.entries[0].NewValue)
}
