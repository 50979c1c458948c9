// Package filters turns list query parameters into gorm query clauses.
package filters

import (
	"net/url"
	"strings"

	"siteflow/internal/apperr"
	"siteflow/internal/models"

	"gorm.io/gorm"
)

// priorityRank orders priorities by severity rather than alphabetically.
const priorityRank = "CASE issues.priority WHEN 'LOW' THEN 0 WHEN 'MEDIUM' THEN 1 WHEN 'HIGH' THEN 2 WHEN 'CRITICAL' THEN 3 END"

var issueOrderColumns = map[string]string{
	"priority":   priorityRank,
	"due_date":   "issues.due_date",
	"created_at": "issues.created_at",
}

type IssueQuery struct {
	Search   string
	Trade    models.TradeName
	Priority models.Priority
	Status   models.IssueStatus
	Ordering []string
}

// ParseIssueQuery reads search, trade, priority, status and ordering.
// Ordering is a comma separated list of fields, each optionally prefixed
// with "-" for descending order.
func ParseIssueQuery(v url.Values) (IssueQuery, error) {
	q := IssueQuery{Search: strings.TrimSpace(v.Get("search"))}

	if s := v.Get("trade"); s != "" {
		q.Trade = models.TradeName(s)
		if !q.Trade.Valid() {
			return IssueQuery{}, apperr.Newf(apperr.InvalidArgument, "invalid trade %q", s)
		}
	}
	if s := v.Get("priority"); s != "" {
		q.Priority = models.Priority(s)
		if !q.Priority.Valid() {
			return IssueQuery{}, apperr.Newf(apperr.InvalidArgument, "invalid priority %q", s)
		}
	}
	if s := v.Get("status"); s != "" {
		q.Status = models.IssueStatus(s)
		if !q.Status.Valid() {
			return IssueQuery{}, apperr.Newf(apperr.InvalidArgument, "invalid status %q", s)
		}
	}

	order, err := parseOrdering(v.Get("ordering"), issueOrderColumns)
	if err != nil {
		return IssueQuery{}, err
	}
	q.Ordering = order
	return q, nil
}

func (q IssueQuery) Apply(db *gorm.DB) *gorm.DB {
	if q.Search != "" {
		like := "%" + strings.ToLower(q.Search) + "%"
		db = db.Where("LOWER(issues.issue_title) LIKE ? OR LOWER(issues.detailed_description) LIKE ?", like, like)
	}
	if q.Trade != "" {
		db = db.Where("issues.trade = ?", q.Trade)
	}
	if q.Priority != "" {
		db = db.Where("issues.priority = ?", q.Priority)
	}
	if q.Status != "" {
		db = db.Where("issues.status = ?", q.Status)
	}
	for _, o := range q.Ordering {
		db = db.Order(o)
	}
	return db.Order("issues.id")
}

func parseOrdering(raw string, columns map[string]string) ([]string, error) {
	if raw == "" {
		return nil, nil
	}
	var out []string
	for _, field := range strings.Split(raw, ",") {
		field = strings.TrimSpace(field)
		desc := strings.HasPrefix(field, "-")
		col, ok := columns[strings.TrimPrefix(field, "-")]
		if !ok {
			return nil, apperr.Newf(apperr.InvalidArgument, "cannot order by %q", field)
		}
		if desc {
			col += " DESC"
		}
		out = append(out, col)
	}
	return out, nil
}
