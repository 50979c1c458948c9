package server

import (
	"net/http"
	"strings"
	"time"

	"siteflow/internal/auth"
	"siteflow/internal/config"
	"siteflow/internal/handlers"
	"siteflow/internal/middleware"
	"siteflow/internal/models"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func NewRouter(cfg *config.Config, db *gorm.DB, tokens *auth.Tokens, h *handlers.Handler) *gin.Engine {
	r := gin.Default()

	if len(cfg.CORSOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
			ExposeHeaders:    []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	store := cookie.NewStore([]byte(cfg.SessionSecret))
	store.Options(sessions.Options{Path: "/", HttpOnly: true, SameSite: http.SameSiteLaxMode})
	r.Use(sessions.Sessions("siteflow_session", store))

	if cfg.RequestTimeout > 0 {
		r.Use(middleware.Timeout(cfg.RequestTimeout))
	}
	r.Use(middleware.InjectUser(db, tokens))

	r.Static(cfg.MediaURL, cfg.UploadDir)

	api := r.Group("/api")

	// AUTH
	api.POST("/auth/register", h.Register)
	api.POST("/auth/login", h.Login)
	api.POST("/auth/refresh", h.Refresh)
	api.POST("/auth/logout", h.Logout)

	authed := api.Group("/")
	authed.Use(middleware.RequireAuth())

	authed.GET("/auth/profile", h.Profile)
	authed.PUT("/auth/profile", h.UpdateProfile)
	authed.PATCH("/auth/profile", h.UpdateProfile)
	authed.GET("/test-assigned-projects", h.TestAssignedProjects)

	// PROJECTS
	authed.GET("/projects", h.ListProjects)
	authed.POST("/projects", h.CreateProject)
	authed.GET("/projects/:id", h.GetProject)
	authed.PUT("/projects/:id", h.UpdateProject)
	authed.PATCH("/projects/:id", h.UpdateProject)
	authed.DELETE("/projects/:id", h.DeleteProject)
	authed.POST("/projects/:id/add_trade", h.AddTrade)
	authed.GET("/projects/:id/issues", h.ProjectIssues)
	authed.POST("/projects/:id/issues", h.CreateProjectIssue)

	// project membership is managed by admins and project managers
	authed.POST("/projects/:id/assign_user",
		middleware.RequireRole(models.RoleAdmin, models.RoleProjectManager),
		h.AssignUser,
	)

	// ISSUES
	authed.GET("/issues", h.ListIssues)
	authed.POST("/issues", h.CreateIssue)
	authed.GET("/issues/:id", h.GetIssue)
	authed.PUT("/issues/:id", h.UpdateIssue)
	authed.PATCH("/issues/:id", h.UpdateIssue)
	authed.DELETE("/issues/:id", h.DeleteIssue)
	authed.POST("/issues/:id/assign", h.AssignIssue)
	authed.GET("/issues/:id/history", h.IssueHistory)
	authed.GET("/issues/:id/comments", h.IssueComments)
	authed.POST("/issues/:id/comments", h.AddIssueComment)
	authed.POST("/issues/:id/upload", h.UploadAttachment)

	// COMMENTS
	authed.GET("/comments", h.ListComments)
	authed.POST("/comments", h.CreateComment)
	authed.GET("/comments/:id", h.GetComment)
	authed.PUT("/comments/:id", h.UpdateComment)
	authed.PATCH("/comments/:id", h.UpdateComment)
	authed.DELETE("/comments/:id", h.DeleteComment)

	// ATTACHMENTS
	authed.GET("/attachments", h.ListAttachments)
	authed.POST("/attachments", h.CreateAttachment)
	authed.GET("/attachments/:id", h.GetAttachment)
	authed.PUT("/attachments/:id", h.UpdateAttachment)
	authed.PATCH("/attachments/:id", h.UpdateAttachment)
	authed.DELETE("/attachments/:id", h.DeleteAttachment)

	// TRADES
	authed.GET("/trades", h.ListTrades)
	authed.POST("/trades", h.CreateTrade)
	authed.GET("/trades/:id", h.GetTrade)
	authed.PUT("/trades/:id", h.UpdateTrade)
	authed.PATCH("/trades/:id", h.UpdateTrade)
	authed.DELETE("/trades/:id", h.DeleteTrade)

	// NOTIFICATIONS
	authed.GET("/notifications", h.ListNotifications)
	authed.POST("/notifications/:id/read", h.MarkNotificationRead)

	// HEALTHCHECK
	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	return r
}

// TrimSlash serves "/api/projects/" as "/api/projects" without a redirect,
// so clients written against either form work.
func TrimSlash(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if p := r.URL.Path; len(p) > 1 && strings.HasSuffix(p, "/") {
			r.URL.Path = strings.TrimRight(p, "/")
			if r.URL.RawPath != "" {
				r.URL.RawPath = strings.TrimRight(r.URL.RawPath, "/")
			}
		}
		next.ServeHTTP(w, r)
	})
}
