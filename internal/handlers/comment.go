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

// IssueComments lists an issue's comments, newest first.
func (h *Handler) IssueComments(c *gin.Context) {
	issue, err := h.visibleIssue(c)
	if err != nil {
		h.fail(c, err)
		return
	}

	comments := []models.Comment{}
	err = h.db.WithContext(c.Request.Context()).
		Where("issue_id = ?", issue.ID).
		Order("timestamp desc, id desc").
		Find(&comments).Error
	if err != nil {
		h.fail(c, dbErr(err, ""))
		return
	}
	c.JSON(http.StatusOK, comments)
}

// AddIssueComment stores a comment by the caller and notifies the issue's
// assigned trade.
func (h *Handler) AddIssueComment(c *gin.Context) {
	issue, err := h.loadIssue(c)
	if err != nil {
		h.fail(c, err)
		return
	}

	var req struct {
		Content string `json:"content"`
	}
	if err := bindOptionalJSON(c, &req); err != nil {
		h.fail(c, err)
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		h.fail(c, apperr.New(apperr.InvalidArgument, "Comment content is required"))
		return
	}

	user := caller(c)
	comment, err := h.createComment(c, issue, user, req.Content)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":     "Comment added successfully",
		"comment_id":  comment.ID,
		"content":     comment.Content,
		"user":        user.Username,
		"timestamp":   comment.Timestamp,
		"issue_id":    issue.ID,
		"issue_title": issue.IssueTitle,
	})
}

func (h *Handler) createComment(c *gin.Context, issue models.Issue, author models.User, content string) (models.Comment, error) {
	comment := models.Comment{IssueID: issue.ID, UserID: author.ID, Content: content}
	ctx := c.Request.Context()
	if err := h.db.WithContext(ctx).Omit(clause.Associations).Create(&comment).Error; err != nil {
		return comment, dbErr(err, "")
	}
	h.notifier.CommentCreated(ctx, comment, issue, author.Username)
	return comment, nil
}

// ListComments supports search, issue_id, user_id, date and ordering.
func (h *Handler) ListComments(c *gin.Context) {
	q, err := filters.ParseCommentQuery(c.Request.URL.Query())
	if err != nil {
		h.fail(c, err)
		return
	}

	comments := []models.Comment{}
	db := h.db.WithContext(c.Request.Context()).Model(&models.Comment{})
	if err := q.Apply(db, h.now()).Find(&comments).Error; err != nil {
		h.fail(c, dbErr(err, ""))
		return
	}
	c.JSON(http.StatusOK, comments)
}

func (h *Handler) findComment(c *gin.Context) (models.Comment, error) {
	var comment models.Comment
	id, err := idParam(c, "id", "Comment not found")
	if err != nil {
		return comment, err
	}
	err = h.db.WithContext(c.Request.Context()).First(&comment, id).Error
	return comment, dbErr(err, "Comment not found")
}

func (h *Handler) GetComment(c *gin.Context) {
	comment, err := h.findComment(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, comment)
}

type commentRequest struct {
	Issue   *uint   `json:"issue"`
	Content *string `json:"content"`
}

func (h *Handler) CreateComment(c *gin.Context) {
	var req commentRequest
	if err := bindJSON(c, &req); err != nil {
		h.fail(c, err)
		return
	}
	if req.Issue == nil || req.Content == nil || strings.TrimSpace(*req.Content) == "" {
		h.fail(c, apperr.New(apperr.InvalidArgument, "Missing required fields: issue, content"))
		return
	}

	var issue models.Issue
	if err := h.db.WithContext(c.Request.Context()).First(&issue, *req.Issue).Error; err != nil {
		err = dbErr(err, "")
		if apperr.Is(err, apperr.NotFound) {
			err = apperr.Newf(apperr.InvalidArgument, "Invalid issue %d: object does not exist", *req.Issue)
		}
		h.fail(c, err)
		return
	}

	comment, err := h.createComment(c, issue, caller(c), *req.Content)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}

// UpdateComment edits the content of a comment (PUT or PATCH).
func (h *Handler) UpdateComment(c *gin.Context) {
	comment, err := h.findComment(c)
	if err != nil {
		h.fail(c, err)
		return
	}

	var req commentRequest
	if err := bindJSON(c, &req); err != nil {
		h.fail(c, err)
		return
	}
	if req.Content == nil {
		if c.Request.Method != http.MethodPatch {
			h.fail(c, apperr.New(apperr.InvalidArgument, "Missing required fields: content"))
			return
		}
	} else {
		if strings.TrimSpace(*req.Content) == "" {
			h.fail(c, apperr.New(apperr.InvalidArgument, "content may not be blank"))
			return
		}
		comment.Content = *req.Content
	}

	if err := h.db.WithContext(c.Request.Context()).Model(&comment).Update("content", comment.Content).Error; err != nil {
		h.fail(c, dbErr(err, ""))
		return
	}
	c.JSON(http.StatusOK, comment)
}

func (h *Handler) DeleteComment(c *gin.Context) {
	comment, err := h.findComment(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	if err := h.db.WithContext(c.Request.Context()).Delete(&comment).Error; err != nil {
		h.fail(c, dbErr(err, ""))
		return
	}
	c.Status(http.StatusNoContent)
}
