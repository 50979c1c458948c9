package handlers

import (
	"errors"
	"net/http"

	"siteflow/internal/apperr"
	"siteflow/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type tradeRequest struct {
	Name    *models.TradeName `json:"name"`
	Project *uint             `json:"project"`
}

func (h *Handler) ListTrades(c *gin.Context) {
	q := h.db.WithContext(c.Request.Context()).Order("id")
	if s := c.Query("project"); s != "" {
		q = q.Where("project_id = ?", s)
	}

	trades := []models.Trade{}
	if err := q.Find(&trades).Error; err != nil {
		h.fail(c, dbErr(err, ""))
		return
	}
	c.JSON(http.StatusOK, trades)
}

func (h *Handler) findTrade(c *gin.Context) (models.Trade, error) {
	var trade models.Trade
	id, err := idParam(c, "id", "Trade not found")
	if err != nil {
		return trade, err
	}
	err = h.db.WithContext(c.Request.Context()).First(&trade, id).Error
	return trade, dbErr(err, "Trade not found")
}

func (h *Handler) GetTrade(c *gin.Context) {
	trade, err := h.findTrade(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, trade)
}

// applyTrade validates req onto trade and checks the (name, project) pair
// is not taken by another trade.
func (h *Handler) applyTrade(c *gin.Context, req tradeRequest, trade *models.Trade, partial bool) error {
	if req.Name == nil && !partial {
		return apperr.New(apperr.InvalidArgument, "Missing required fields: name")
	}
	if req.Name != nil {
		if !req.Name.Valid() {
			return apperr.Newf(apperr.InvalidArgument, "Invalid trade. Must be one of: %s", tradeChoices())
		}
		trade.Name = *req.Name
	}
	if req.Project != nil {
		if err := h.projectExists(c, *req.Project); err != nil {
			return err
		}
		trade.ProjectID = req.Project
	} else if !partial {
		trade.ProjectID = nil
	}

	q := h.db.WithContext(c.Request.Context()).Where("name = ? AND id <> ?", trade.Name, trade.ID)
	if trade.ProjectID == nil {
		q = q.Where("project_id IS NULL")
	} else {
		q = q.Where("project_id = ?", *trade.ProjectID)
	}
	var existing models.Trade
	err := q.First(&existing).Error
	switch {
	case err == nil:
		return apperr.New(apperr.InvalidArgument, "Trade with this name and project already exists")
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return dbErr(err, "")
	}
	return nil
}

func (h *Handler) CreateTrade(c *gin.Context) {
	var req tradeRequest
	if err := bindJSON(c, &req); err != nil {
		h.fail(c, err)
		return
	}
	var trade models.Trade
	if err := h.applyTrade(c, req, &trade, false); err != nil {
		h.fail(c, err)
		return
	}
	if err := h.db.WithContext(c.Request.Context()).Create(&trade).Error; err != nil {
		h.fail(c, dbErr(err, ""))
		return
	}
	c.JSON(http.StatusCreated, trade)
}

func (h *Handler) UpdateTrade(c *gin.Context) {
	trade, err := h.findTrade(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	var req tradeRequest
	if err := bindJSON(c, &req); err != nil {
		h.fail(c, err)
		return
	}
	if err := h.applyTrade(c, req, &trade, c.Request.Method == http.MethodPatch); err != nil {
		h.fail(c, err)
		return
	}
	if err := h.db.WithContext(c.Request.Context()).Save(&trade).Error; err != nil {
		h.fail(c, dbErr(err, ""))
		return
	}
	c.JSON(http.StatusOK, trade)
}

func (h *Handler) DeleteTrade(c *gin.Context) {
	trade, err := h.findTrade(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	if err := h.db.WithContext(c.Request.Context()).Delete(&trade).Error; err != nil {
		h.fail(c, dbErr(err, ""))
		return
	}
	c.Status(http.StatusNoContent)
}
