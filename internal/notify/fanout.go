// Package notify creates in-app notifications when issues and comments are
// created.
package notify

import (
	"context"
	"fmt"
	"log/slog"

	"siteflow/internal/models"
)

// Store is the persistence the fan-out needs.
type Store interface {
	UsersWithSpecialty(ctx context.Context, specialty models.Specialty) ([]models.User, error)
	UsersWithRoles(ctx context.Context, roles ...models.UserRole) ([]models.User, error)
	CreateNotifications(ctx context.Context, notifications []models.Notification) error
}

// watcherRoles are notified of every trade event.
var watcherRoles = []models.UserRole{models.RoleProjectManager, models.RoleSiteOfficer}

type Notifier struct {
	store  Store
	logger *slog.Logger
}

func New(store Store, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{store: store, logger: logger}
}

// NotifyTrade notifies every user whose specialty is trade and every project
// manager and site officer, once per user. Failures are logged, never
// returned; the count of notifications written is returned.
func (n *Notifier) NotifyTrade(ctx context.Context, trade models.TradeName, title, message string, issue *models.Issue) int {
	specialists, err := n.store.UsersWithSpecialty(ctx, models.Specialty(trade))
	if err != nil {
		n.logger.WarnContext(ctx, "notify: load trade users", "trade", trade, "error", err)
	}
	watchers, err := n.store.UsersWithRoles(ctx, watcherRoles...)
	if err != nil {
		n.logger.WarnContext(ctx, "notify: load watchers", "trade", trade, "error", err)
	}

	recipients := Recipients(specialists, watchers)
	if len(recipients) == 0 {
		return 0
	}

	var issueID *uint
	if issue != nil {
		id := issue.ID
		issueID = &id
	}
	batch := make([]models.Notification, 0, len(recipients))
	for _, u := range recipients {
		batch = append(batch, models.Notification{
			UserID:  u.ID,
			IssueID: issueID,
			Title:   title,
			Message: message,
		})
	}

	if err := n.store.CreateNotifications(ctx, batch); err != nil {
		n.logger.WarnContext(ctx, "notify: create notifications",
			"trade", trade,
			"recipients", len(batch),
			"error", err,
		)
		return 0
	}
	return len(batch)
}

// IssueCreated notifies the trade the new issue is assigned to.
func (n *Notifier) IssueCreated(ctx context.Context, issue models.Issue) int {
	title := fmt.Sprintf("New issue: %s", issue.IssueTitle)
	message := fmt.Sprintf("A %s priority issue was reported for %s: %s",
		issue.Priority, issue.AssignedTo, issue.IssueTitle)
	return n.NotifyTrade(ctx, issue.AssignedTo, title, message, &issue)
}

// IssueUpdated deliberately sends nothing; only creation fans out.
func (n *Notifier) IssueUpdated(context.Context, models.Issue) int {
	return 0
}

// CommentCreated notifies the trade assigned to the commented issue.
func (n *Notifier) CommentCreated(ctx context.Context, comment models.Comment, issue models.Issue, author string) int {
	title := fmt.Sprintf("New comment on: %s", issue.IssueTitle)
	message := fmt.Sprintf("%s commented: %s", author, comment.Content)
	return n.NotifyTrade(ctx, issue.AssignedTo, title, message, &issue)
}

// Recipients merges user lists, keeping the first occurrence of each id.
func Recipients(lists ...[]models.User) []models.User {
	seen := make(map[uint]struct{})
	var out []models.User
	for _, list := range lists {
		for _, u := range list {
			if _, dup := seen[u.ID]; dup {
				continue
			}
			seen[u.ID] = struct{}{}
			out = append(out, u)
		}
	}
	return out
}
