package handlers

import (
	"net/http"
	"strings"

	"siteflow/internal/apperr"
	"siteflow/internal/filters"
	"siteflow/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm/clause"
)

type issueRequest struct {
	Project             *uint               `json:"project"`
	Trade               *models.TradeName   `json:"trade"`
	IssueTitle          *string             `json:"issue_title"`
	DetailedDescription *string             `json:"detailed_description"`
	Priority            *models.Priority    `json:"priority"`
	AssignedTo          *models.TradeName   `json:"assigned_to"`
	DueDate             *models.Date        `json:"due_date"`
	Status              *models.IssueStatus `json:"status"`
}

func (r issueRequest) apply(issue *models.Issue, partial bool) error {
	if !partial {
		var missing []string
		if r.Project == nil {
			missing = append(missing, "project")
		}
		if r.Trade == nil {
			missing = append(missing, "trade")
		}
		if r.IssueTitle == nil || strings.TrimSpace(*r.IssueTitle) == "" {
			missing = append(missing, "issue_title")
		}
		if r.Priority == nil {
			missing = append(missing, "priority")
		}
		if r.AssignedTo == nil {
			missing = append(missing, "assigned_to")
		}
		if r.DueDate == nil {
			missing = append(missing, "due_date")
		}
		if len(missing) > 0 {
			return apperr.Newf(apperr.InvalidArgument, "Missing required fields: %s", strings.Join(missing, ", "))
		}
	}

	if r.Project != nil {
		issue.ProjectID = *r.Project
	}
	if r.Trade != nil {
		if !r.Trade.Valid() {
			return apperr.Newf(apperr.InvalidArgument, "invalid trade %q", *r.Trade)
		}
		issue.Trade = *r.Trade
	}
	if r.IssueTitle != nil {
		title := strings.TrimSpace(*r.IssueTitle)
		if title == "" {
			return apperr.New(apperr.InvalidArgument, "issue_title may not be blank")
		}
		issue.IssueTitle = title
	}
	if r.DetailedDescription != nil {
		issue.DetailedDescription = *r.DetailedDescription
	}
	if r.Priority != nil {
		if !r.Priority.Valid() {
			return apperr.Newf(apperr.InvalidArgument, "invalid priority %q", *r.Priority)
		}
		issue.Priority = *r.Priority
	}
	if r.AssignedTo != nil {
		if !r.AssignedTo.Valid() {
			return apperr.Newf(apperr.InvalidArgument, "invalid assigned_to %q", *r.AssignedTo)
		}
		issue.AssignedTo = *r.AssignedTo
	}
	if r.DueDate != nil {
		issue.DueDate = *r.DueDate
	}
	if r.Status != nil {
		if !r.Status.Valid() {
			return apperr.Newf(apperr.InvalidArgument, "invalid status %q", *r.Status)
		}
		issue.Status = *r.Status
	}
	if issue.Status == "" {
		issue.Status = models.StatusOpen
	}
	return nil
}

// loadIssue loads the issue named by the path regardless of the caller's
// read scope. Nested write routes act on any existing issue.
func (h *Handler) loadIssue(c *gin.Context) (models.Issue, error) {
	var issue models.Issue
	id, err := idParam(c, "id", "Issue not found")
	if err != nil {
		return issue, err
	}
	err = h.db.WithContext(c.Request.Context()).Preload("Project").First(&issue, id).Error
	return issue, dbErr(err, "Issue not found")
}

// visibleIssue is loadIssue restricted to the caller's read scope. Issues
// the caller may not see are reported as missing.
func (h *Handler) visibleIssue(c *gin.Context) (models.Issue, error) {
	issue, err := h.loadIssue(c)
	if err != nil {
		return issue, err
	}
	scope, err := h.policy.IssueScope(c.Request.Context(), caller(c))
	if err != nil {
		return models.Issue{}, err
	}
	if !scope.Allows(issue) {
		return models.Issue{}, apperr.New(apperr.NotFound, "Issue not found")
	}
	return issue, nil
}

func (h *Handler) projectExists(c *gin.Context, id uint) error {
	var n int64
	if err := h.db.WithContext(c.Request.Context()).Model(&models.Project{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return dbErr(err, "")
	}
	if n == 0 {
		return apperr.Newf(apperr.InvalidArgument, "Invalid project %d: object does not exist", id)
	}
	return nil
}

// ListIssues supports search, trade, priority, status and ordering query
// parameters on top of the caller's visibility scope.
func (h *Handler) ListIssues(c *gin.Context) {
	q, err := filters.ParseIssueQuery(c.Request.URL.Query())
	if err != nil {
		h.fail(c, err)
		return
	}

	ctx := c.Request.Context()
	scope, err := h.policy.IssueScope(ctx, caller(c))
	if err != nil {
		h.fail(c, err)
		return
	}

	list := []models.Issue{}
	if err := q.Apply(scope.Apply(h.db.WithContext(ctx).Model(&models.Issue{}))).Find(&list).Error; err != nil {
		h.fail(c, dbErr(err, ""))
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) GetIssue(c *gin.Context) {
	issue, err := h.visibleIssue(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, issue)
}

func (h *Handler) CreateIssue(c *gin.Context) {
	var req issueRequest
	if err := bindJSON(c, &req); err != nil {
		h.fail(c, err)
		return
	}
	h.createIssue(c, req)
}

// createIssue stores the issue, then records issue_created history and
// notifies the assigned trade. Neither side effect can fail the request.
func (h *Handler) createIssue(c *gin.Context, req issueRequest) {
	var issue models.Issue
	if err := req.apply(&issue, false); err != nil {
		h.fail(c, err)
		return
	}
	if err := h.projectExists(c, issue.ProjectID); err != nil {
		h.fail(c, err)
		return
	}

	ctx := c.Request.Context()
	if err := h.db.WithContext(ctx).Omit(clause.Associations).Create(&issue).Error; err != nil {
		h.fail(c, dbErr(err, ""))
		return
	}

	user := caller(c)
	h.issues.RecordCreated(ctx, issue, user)
	h.notifier.IssueCreated(ctx, issue)

	c.JSON(http.StatusCreated, issue)
}

// UpdateIssue serves PUT (full) and PATCH (partial). Updates send no
// notifications.
func (h *Handler) UpdateIssue(c *gin.Context) {
	issue, err := h.visibleIssue(c)
	if err != nil {
		h.fail(c, err)
		return
	}

	var req issueRequest
	if err := bindJSON(c, &req); err != nil {
		h.fail(c, err)
		return
	}
	before := issue.ProjectID
	if err := req.apply(&issue, c.Request.Method == http.MethodPatch); err != nil {
		h.fail(c, err)
		return
	}
	if issue.ProjectID != before {
		if err := h.projectExists(c, issue.ProjectID); err != nil {
			h.fail(c, err)
			return
		}
	}

	ctx := c.Request.Context()
	if err := h.db.WithContext(ctx).Omit(clause.Associations).Save(&issue).Error; err != nil {
		h.fail(c, dbErr(err, ""))
		return
	}
	h.notifier.IssueUpdated(ctx, issue)

	c.JSON(http.StatusOK, issue)
}

func (h *Handler) DeleteIssue(c *gin.Context) {
	issue, err := h.visibleIssue(c)
	if err != nil {
		h.fail(c, err)
		return
	}

	ctx := c.Request.Context()
	var keys []string
	if err := h.db.WithContext(ctx).Model(&models.Attachment{}).
		Where("issue_id = ?", issue.ID).
		Pluck("file", &keys).Error; err != nil {
		h.fail(c, dbErr(err, ""))
		return
	}
	if err := h.db.WithContext(ctx).Delete(&models.Issue{}, issue.ID).Error; err != nil {
		h.fail(c, dbErr(err, ""))
		return
	}

	h.removeFiles(c, keys)
	c.Status(http.StatusNoContent)
}

// AssignIssue moves an issue to another trade.
func (h *Handler) AssignIssue(c *gin.Context) {
	issue, err := h.loadIssue(c)
	if err != nil {
		h.fail(c, err)
		return
	}

	var req struct {
		AssignedTrade string `json:"assigned_trade"`
	}
	if err := bindOptionalJSON(c, &req); err != nil {
		h.fail(c, err)
		return
	}

	res, err := h.issues.Assign(c.Request.Context(), issue.ID, req.AssignedTrade, caller(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// IssueHistory returns the issue's audit trail, oldest first.
func (h *Handler) IssueHistory(c *gin.Context) {
	issue, err := h.visibleIssue(c)
	if err != nil {
		h.fail(c, err)
		return
	}

	entries, err := h.history.ForIssue(c.Request.Context(), issue.ID)
	if err != nil {
		h.fail(c, err)
		return
	}
	if entries == nil {
		entries = []models.IssueHistory{}
	}
	c.JSON(http.StatusOK, entries)
}
