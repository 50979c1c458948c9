// Package issues reassigns issues to trades and keeps their audit trail.
package issues

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"siteflow/internal/apperr"
	"siteflow/internal/models"
)

// Store loads and updates issues. FindIssue returns an apperr.NotFound
// error when no issue matches and preloads the issue's project.
type Store interface {
	FindIssue(ctx context.Context, id uint) (models.Issue, error)
	UpdateAssignment(ctx context.Context, issue *models.Issue, trade models.TradeName) error
}

// HistoryRecorder appends IssueHistory rows.
type HistoryRecorder interface {
	Record(ctx context.Context, entry models.IssueHistory) error
}

type Service struct {
	store   Store
	history HistoryRecorder
	logger  *slog.Logger
}

func NewService(store Store, history HistoryRecorder, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, history: history, logger: logger}
}

type AssignResult struct {
	IssueID       uint             `json:"issue_id"`
	IssueTitle    string           `json:"issue_title"`
	OldAssignment models.TradeName `json:"old_assignment"`
	NewAssignment models.TradeName `json:"new_assignment"`
	Project       string           `json:"project"`
	Message       string           `json:"message"`
}

// Assign moves issueID to newTrade on behalf of actor. A failed history
// append is logged and does not stop the assignment.
//
// The old value is read before the write without a row lock, so two
// concurrent assignments may both record the same old value.
func (s *Service) Assign(ctx context.Context, issueID uint, newTrade string, actor models.User) (AssignResult, error) {
	issue, err := s.store.FindIssue(ctx, issueID)
	if err != nil {
		return AssignResult{}, err
	}

	if newTrade == "" {
		return AssignResult{}, apperr.New(apperr.InvalidArgument, "assigned_trade is required")
	}
	trade := models.TradeName(newTrade)
	if !trade.Valid() {
		return AssignResult{}, apperr.Newf(apperr.InvalidArgument,
			"Invalid trade. Must be one of: %s", tradeList())
	}

	old := issue.AssignedTo
	s.record(ctx, models.IssueHistory{
		IssueID:  issue.ID,
		UserID:   actor.ID,
		Action:   models.ActionAssignedTradeChanged,
		OldValue: string(old),
		NewValue: string(trade),
	})

	if err := s.store.UpdateAssignment(ctx, &issue, trade); err != nil {
		return AssignResult{}, err
	}

	return AssignResult{
		IssueID:       issue.ID,
		IssueTitle:    issue.IssueTitle,
		OldAssignment: old,
		NewAssignment: trade,
		Project:       issue.Project.ProjectName,
		Message:       fmt.Sprintf("Issue #%d assigned to %s", issue.ID, trade),
	}, nil
}

// RecordCreated appends the issue_created entry for a freshly stored issue.
func (s *Service) RecordCreated(ctx context.Context, issue models.Issue, actor models.User) {
	s.record(ctx, models.IssueHistory{
		IssueID:  issue.ID,
		UserID:   actor.ID,
		Action:   models.ActionIssueCreated,
		NewValue: issue.IssueTitle,
	})
}

func (s *Service) record(ctx context.Context, entry models.IssueHistory) {
	if s.history == nil {
		return
	}
	if err := s.history.Record(ctx, entry); err != nil {
		s.logger.WarnContext(ctx, "issue history append failed",
			"issue_id", entry.IssueID,
			"action", entry.Action,
			"error", err,
		)
	}
}

func tradeList() string {
	names := make([]string, len(models.TradeNames))
	for i, t := range models.TradeNames {
		names[i] = string(t)
	}
	return strings.Join(names, ", ")
}
