// Package handlers implements the JSON API.
package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"siteflow/internal/apperr"
	"siteflow/internal/auth"
	"siteflow/internal/database"
	"siteflow/internal/issues"
	"siteflow/internal/middleware"
	"siteflow/internal/models"
	"siteflow/internal/notify"
	"siteflow/internal/policy"
	"siteflow/internal/storage"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type Handler struct {
	db          *gorm.DB
	tokens      *auth.Tokens
	files       storage.Local
	policy      policy.Policy
	assignments database.Assignments
	history     database.History
	notes       database.Notifications
	issues      *issues.Service
	notifier    *notify.Notifier
	logger      *slog.Logger
	now         func() time.Time
}

func New(db *gorm.DB, tokens *auth.Tokens, files storage.Local, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	assignments := database.Assignments{DB: db}
	history := database.History{DB: db}
	notes := database.Notifications{DB: db}

	return &Handler{
		db:          db,
		tokens:      tokens,
		files:       files,
		policy:      policy.Policy{Lookup: assignments},
		assignments: assignments,
		history:     history,
		notes:       notes,
		issues:      issues.NewService(database.Issues{DB: db}, history, logger),
		notifier:    notify.New(notes, logger),
		logger:      logger,
		now:         time.Now,
	}
}

// fail writes err as {"error": msg}. Internal causes are logged, not sent.
func (h *Handler) fail(c *gin.Context, err error) {
	status := apperr.Status(err)
	if status == http.StatusInternalServerError {
		h.logger.ErrorContext(c.Request.Context(), "request failed",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"error", err,
		)
	}
	c.JSON(status, gin.H{"error": apperr.Message(err)})
}

func idParam(c *gin.Context, name, notFoundMsg string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, apperr.New(apperr.NotFound, notFoundMsg)
	}
	return uint(id), nil
}

func bindJSON(c *gin.Context, dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		return apperr.Wrap(apperr.InvalidArgument, "invalid request body", err)
	}
	return nil
}

// bindOptionalJSON is bindJSON for handlers that check their own required
// fields. An empty body binds nothing.
func bindOptionalJSON(c *gin.Context, dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		return apperr.Wrap(apperr.InvalidArgument, "invalid request body", err)
	}
	return nil
}

// caller returns the authenticated user. Routes using it run behind
// middleware.RequireAuth.
func caller(c *gin.Context) models.User {
	u, _ := middleware.CurrentUser(c)
	return u
}

// dbErr translates a gorm error from a handler query.
func dbErr(err error, notFoundMsg string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperr.Wrap(apperr.NotFound, notFoundMsg, err)
	default:
		return apperr.Wrap(apperr.Internal, "database error", err)
	}
}
