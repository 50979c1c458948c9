package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"siteflow/internal/apperr"
	"siteflow/internal/models"
	"siteflow/internal/policy"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type projectRequest struct {
	ProjectName *string      `json:"project_name"`
	Description *string      `json:"description"`
	StartDate   *models.Date `json:"start_date"`
	EndDate     *models.Date `json:"end_date"`
}

// apply copies the request onto p. A full (non-partial) request must carry
// every required field.
func (r projectRequest) apply(p *models.Project, partial bool) error {
	if !partial {
		var missing []string
		if r.ProjectName == nil || strings.TrimSpace(*r.ProjectName) == "" {
			missing = append(missing, "project_name")
		}
		if r.StartDate == nil {
			missing = append(missing, "start_date")
		}
		if r.EndDate == nil {
			missing = append(missing, "end_date")
		}
		if len(missing) > 0 {
			return apperr.Newf(apperr.InvalidArgument, "Missing required fields: %s", strings.Join(missing, ", "))
		}
	}

	if r.ProjectName != nil {
		name := strings.TrimSpace(*r.ProjectName)
		if name == "" {
			return apperr.New(apperr.InvalidArgument, "project_name may not be blank")
		}
		p.ProjectName = name
	}
	if r.Description != nil {
		p.Description = *r.Description
	}
	if r.StartDate != nil {
		p.StartDate = *r.StartDate
	}
	if r.EndDate != nil {
		p.EndDate = *r.EndDate
	}

	if p.StartDate.After(p.EndDate) {
		return apperr.New(apperr.InvalidArgument, "end_date must not be before start_date")
	}
	return nil
}

// loadProject loads the project named by the path regardless of the
// caller's read scope.
func (h *Handler) loadProject(c *gin.Context, preload bool) (models.Project, error) {
	var project models.Project
	id, err := idParam(c, "id", "Project not found")
	if err != nil {
		return project, err
	}

	q := h.db.WithContext(c.Request.Context())
	if preload {
		q = q.Preload("Trades")
	}
	err = q.First(&project, id).Error
	return project, dbErr(err, "Project not found")
}

// visibleProject is loadProject restricted to the caller's read scope.
func (h *Handler) visibleProject(c *gin.Context, preload bool) (models.Project, error) {
	project, err := h.loadProject(c, preload)
	if err != nil {
		return project, err
	}
	scope, err := h.policy.ProjectScope(c.Request.Context(), caller(c))
	if err != nil {
		return models.Project{}, err
	}
	if !scope.Allows(project) {
		return models.Project{}, apperr.New(apperr.NotFound, "Project not found")
	}
	return project, nil
}

func (h *Handler) ListProjects(c *gin.Context) {
	ctx := c.Request.Context()
	scope, err := h.policy.ProjectScope(ctx, caller(c))
	if err != nil {
		h.fail(c, err)
		return
	}

	projects := []models.Project{}
	err = scope.Apply(h.db.WithContext(ctx)).
		Preload("Trades").
		Order("projects.id").
		Find(&projects).Error
	if err != nil {
		h.fail(c, dbErr(err, ""))
		return
	}
	c.JSON(http.StatusOK, projects)
}

func (h *Handler) GetProject(c *gin.Context) {
	project, err := h.visibleProject(c, true)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, project)
}

func (h *Handler) CreateProject(c *gin.Context) {
	if err := policy.AuthorizeProjectWrite(caller(c), "create"); err != nil {
		h.fail(c, err)
		return
	}

	var req projectRequest
	if err := bindJSON(c, &req); err != nil {
		h.fail(c, err)
		return
	}
	var project models.Project
	if err := req.apply(&project, false); err != nil {
		h.fail(c, err)
		return
	}

	if err := h.db.WithContext(c.Request.Context()).Omit(clause.Associations).Create(&project).Error; err != nil {
		h.fail(c, dbErr(err, ""))
		return
	}
	project.Trades = []models.Trade{}
	c.JSON(http.StatusCreated, project)
}

// UpdateProject serves PUT (full) and PATCH (partial).
func (h *Handler) UpdateProject(c *gin.Context) {
	if err := policy.AuthorizeProjectWrite(caller(c), "update"); err != nil {
		h.fail(c, err)
		return
	}

	project, err := h.visibleProject(c, false)
	if err != nil {
		h.fail(c, err)
		return
	}

	var req projectRequest
	if err := bindJSON(c, &req); err != nil {
		h.fail(c, err)
		return
	}
	if err := req.apply(&project, c.Request.Method == http.MethodPatch); err != nil {
		h.fail(c, err)
		return
	}

	ctx := c.Request.Context()
	if err := h.db.WithContext(ctx).Omit(clause.Associations).Save(&project).Error; err != nil {
		h.fail(c, dbErr(err, ""))
		return
	}
	if err := h.db.WithContext(ctx).Preload("Trades").First(&project, project.ID).Error; err != nil {
		h.fail(c, dbErr(err, "Project not found"))
		return
	}
	c.JSON(http.StatusOK, project)
}

// DeleteProject removes the project with its trades, issues and their
// children. Stored attachment files are removed after the commit.
func (h *Handler) DeleteProject(c *gin.Context) {
	if err := policy.AuthorizeProjectWrite(caller(c), "delete"); err != nil {
		h.fail(c, err)
		return
	}

	project, err := h.visibleProject(c, false)
	if err != nil {
		h.fail(c, err)
		return
	}

	ctx := c.Request.Context()
	var keys []string
	err = h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Attachment{}).
			Joins("JOIN issues ON issues.id = attachments.issue_id").
			Where("issues.project_id = ?", project.ID).
			Pluck("attachments.file", &keys).Error; err != nil {
			return err
		}
		return tx.Select(clause.Associations).Delete(&project).Error
	})
	if err != nil {
		h.fail(c, dbErr(err, ""))
		return
	}

	h.removeFiles(c, keys)
	c.Status(http.StatusNoContent)
}

func (h *Handler) removeFiles(c *gin.Context, keys []string) {
	for _, key := range keys {
		if err := h.files.Remove(key); err != nil {
			h.logger.WarnContext(c.Request.Context(), "remove attachment file", "key", key, "error", err)
		}
	}
}

// AddTrade attaches a trade to the project, reusing an existing one.
func (h *Handler) AddTrade(c *gin.Context) {
	project, err := h.loadProject(c, false)
	if err != nil {
		h.fail(c, err)
		return
	}

	var req struct {
		TradeName models.TradeName `json:"trade_name"`
	}
	if err := bindOptionalJSON(c, &req); err != nil {
		h.fail(c, err)
		return
	}
	if req.TradeName == "" {
		h.fail(c, apperr.New(apperr.InvalidArgument, "Trade name is required"))
		return
	}
	if !req.TradeName.Valid() {
		h.fail(c, apperr.Newf(apperr.InvalidArgument, "Invalid trade. Must be one of: %s", tradeChoices()))
		return
	}

	ctx := c.Request.Context()
	trade := models.Trade{Name: req.TradeName, ProjectID: &project.ID}
	res := h.db.WithContext(ctx).Omit(clause.Associations).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&trade)
	if res.Error != nil {
		h.fail(c, apperr.Wrap(apperr.Internal, "add trade", res.Error))
		return
	}
	created := res.RowsAffected > 0
	if !created {
		// lost to an existing row, possibly a concurrent insert
		trade = models.Trade{}
		err = h.db.WithContext(ctx).Where("name = ? AND project_id = ?", req.TradeName, project.ID).First(&trade).Error
		if err != nil {
			h.fail(c, apperr.Wrap(apperr.Internal, "add trade", err))
			return
		}
	}

	message := fmt.Sprintf("Trade '%s' already exists in project '%s'", req.TradeName, project.ProjectName)
	if created {
		message = fmt.Sprintf("Trade '%s' added to project '%s'", req.TradeName, project.ProjectName)
	}
	c.JSON(http.StatusCreated, gin.H{
		"message":      message,
		"project_id":   project.ID,
		"project_name": project.ProjectName,
		"trade_name":   req.TradeName,
		"trade_id":     trade.ID,
	})
}

// ProjectIssues lists the caller's visible issues of one project.
func (h *Handler) ProjectIssues(c *gin.Context) {
	project, err := h.visibleProject(c, false)
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
	err = scope.Apply(h.db.WithContext(ctx)).
		Where("issues.project_id = ?", project.ID).
		Order("issues.id").
		Find(&list).Error
	if err != nil {
		h.fail(c, dbErr(err, ""))
		return
	}
	c.JSON(http.StatusOK, list)
}

// CreateProjectIssue creates an issue in the project named by the path.
func (h *Handler) CreateProjectIssue(c *gin.Context) {
	project, err := h.loadProject(c, false)
	if err != nil {
		h.fail(c, err)
		return
	}

	var req issueRequest
	if err := bindJSON(c, &req); err != nil {
		h.fail(c, err)
		return
	}
	req.Project = &project.ID
	h.createIssue(c, req)
}

// AssignUser adds a user to the project's assigned users.
func (h *Handler) AssignUser(c *gin.Context) {
	id, err := idParam(c, "id", "Project not found")
	if err != nil {
		h.fail(c, err)
		return
	}
	ctx := c.Request.Context()

	var project models.Project
	if err := h.db.WithContext(ctx).First(&project, id).Error; err != nil {
		h.fail(c, dbErr(err, "Project not found"))
		return
	}

	var req struct {
		UserID uint `json:"user_id"`
	}
	if err := bindOptionalJSON(c, &req); err != nil {
		h.fail(c, err)
		return
	}
	if req.UserID == 0 {
		h.fail(c, apperr.New(apperr.InvalidArgument, "user_id is required"))
		return
	}

	var user models.User
	if err := h.db.WithContext(ctx).First(&user, req.UserID).Error; err != nil {
		h.fail(c, dbErr(err, "User not found"))
		return
	}

	if err := h.assignments.Assign(ctx, &user, &project); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":    fmt.Sprintf("User '%s' assigned to project '%s'", user.Username, project.ProjectName),
		"user_id":    user.ID,
		"project_id": project.ID,
	})
}

func tradeChoices() string {
	names := make([]string, len(models.TradeNames))
	for i, t := range models.TradeNames {
		names[i] = string(t)
	}
	return strings.Join(names, ", ")
}
