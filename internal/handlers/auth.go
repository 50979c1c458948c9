package handlers

import (
	"net/http"
	"strings"

	"siteflow/internal/apperr"
	"siteflow/internal/auth"
	"siteflow/internal/middleware"
	"siteflow/internal/models"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

type registerRequest struct {
	Username  string           `json:"username"`
	Email     string           `json:"email"`
	Password  string           `json:"password"`
	Role      models.UserRole  `json:"role"`
	Specialty models.Specialty `json:"specialty"`
}

// Register creates an account. An omitted role defaults to ADMIN.
func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if err := bindJSON(c, &req); err != nil {
		h.fail(c, err)
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if req.Username == "" || req.Email == "" || req.Password == "" {
		h.fail(c, apperr.New(apperr.InvalidArgument, "Missing required fields: username, email, password"))
		return
	}
	if req.Role == "" {
		req.Role = models.RoleAdmin
	}
	if !req.Role.Valid() {
		h.fail(c, apperr.Newf(apperr.InvalidArgument, "Registration failed: invalid role %q", req.Role))
		return
	}
	if req.Specialty != models.SpecialtyNone && !req.Specialty.Valid() {
		h.fail(c, apperr.Newf(apperr.InvalidArgument, "Registration failed: invalid specialty %q", req.Specialty))
		return
	}

	ctx := c.Request.Context()
	var taken int64
	err := h.db.WithContext(ctx).Model(&models.User{}).
		Where("username = ? OR email = ?", req.Username, req.Email).
		Count(&taken).Error
	if err != nil {
		h.fail(c, dbErr(err, ""))
		return
	}
	if taken > 0 {
		h.fail(c, apperr.New(apperr.InvalidArgument, "Registration failed: username or email already in use"))
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.fail(c, apperr.Wrap(apperr.Internal, "hash password", err))
		return
	}
	user := models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         req.Role,
		Specialty:    req.Specialty,
	}
	if err := h.db.WithContext(ctx).Create(&user).Error; err != nil {
		h.fail(c, dbErr(err, ""))
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "User created!", "user_id": user.ID})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login exchanges credentials for a token pair and also opens a cookie
// session.
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := bindJSON(c, &req); err != nil {
		h.fail(c, err)
		return
	}

	invalid := apperr.New(apperr.Unauthenticated, "No active account found with the given credentials")

	var user models.User
	if err := h.db.WithContext(c.Request.Context()).
		Where("email = ?", strings.TrimSpace(req.Email)).
		First(&user).Error; err != nil {
		h.fail(c, invalid)
		return
	}
	if err := auth.CheckPassword(user.PasswordHash, req.Password); err != nil {
		h.fail(c, invalid)
		return
	}

	pair, err := h.tokens.Issue(user.ID, user.Email)
	if err != nil {
		h.fail(c, apperr.Wrap(apperr.Internal, "issue tokens", err))
		return
	}

	sess := sessions.Default(c)
	sess.Set("user_id", user.ID)
	sess.Set("role", string(user.Role))
	if err := sess.Save(); err != nil {
		h.logger.WarnContext(c.Request.Context(), "save session", "user_id", user.ID, "error", err)
	}

	c.JSON(http.StatusOK, gin.H{
		"access":  pair.Access,
		"refresh": pair.Refresh,
		"user":    user,
	})
}

func (h *Handler) Refresh(c *gin.Context) {
	var req struct {
		Refresh string `json:"refresh"`
	}
	if err := bindJSON(c, &req); err != nil {
		h.fail(c, err)
		return
	}
	if req.Refresh == "" {
		h.fail(c, apperr.New(apperr.InvalidArgument, "refresh is required"))
		return
	}

	access, err := h.tokens.Refresh(req.Refresh)
	if err != nil {
		h.fail(c, apperr.New(apperr.Unauthenticated, "Token is invalid or expired"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"access": access})
}

func (h *Handler) Logout(c *gin.Context) {
	sess := sessions.Default(c)
	sess.Clear()
	if err := sess.Save(); err != nil {
		h.logger.WarnContext(c.Request.Context(), "clear session", "error", err)
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

func (h *Handler) Profile(c *gin.Context) {
	c.JSON(http.StatusOK, caller(c))
}

type profileRequest struct {
	Username  *string           `json:"username"`
	Email     *string           `json:"email"`
	Password  *string           `json:"password"`
	Specialty *models.Specialty `json:"specialty"`
}

// UpdateProfile applies a partial update to the caller. The role is not
// editable here.
func (h *Handler) UpdateProfile(c *gin.Context) {
	var req profileRequest
	if err := bindJSON(c, &req); err != nil {
		h.fail(c, err)
		return
	}

	user := caller(c)
	updates := map[string]any{}

	if req.Username != nil {
		name := strings.TrimSpace(*req.Username)
		if name == "" {
			h.fail(c, apperr.New(apperr.InvalidArgument, "username may not be blank"))
			return
		}
		updates["username"] = name
	}
	if req.Email != nil {
		email := strings.TrimSpace(*req.Email)
		if email == "" {
			h.fail(c, apperr.New(apperr.InvalidArgument, "email may not be blank"))
			return
		}
		updates["email"] = email
	}
	if req.Specialty != nil {
		if *req.Specialty != models.SpecialtyNone && !req.Specialty.Valid() {
			h.fail(c, apperr.Newf(apperr.InvalidArgument, "invalid specialty %q", *req.Specialty))
			return
		}
		updates["specialty"] = *req.Specialty
	}
	if req.Password != nil {
		if *req.Password == "" {
			h.fail(c, apperr.New(apperr.InvalidArgument, "password may not be blank"))
			return
		}
		hash, err := auth.HashPassword(*req.Password)
		if err != nil {
			h.fail(c, apperr.Wrap(apperr.Internal, "hash password", err))
			return
		}
		updates["password_hash"] = hash
	}

	ctx := c.Request.Context()
	if name, ok := updates["username"]; ok {
		if err := h.ensureFree(c, "username", name, user.ID); err != nil {
			h.fail(c, err)
			return
		}
	}
	if email, ok := updates["email"]; ok {
		if err := h.ensureFree(c, "email", email, user.ID); err != nil {
			h.fail(c, err)
			return
		}
	}

	if len(updates) > 0 {
		if err := h.db.WithContext(ctx).Model(&user).Updates(updates).Error; err != nil {
			h.fail(c, dbErr(err, ""))
			return
		}
	}
	if err := h.db.WithContext(ctx).First(&user, user.ID).Error; err != nil {
		h.fail(c, dbErr(err, "User not found"))
		return
	}
	middleware.SetCurrentUser(c, user)
	c.JSON(http.StatusOK, user)
}

func (h *Handler) ensureFree(c *gin.Context, column string, value any, self uint) error {
	var n int64
	err := h.db.WithContext(c.Request.Context()).Model(&models.User{}).
		Where(column+" = ? AND id <> ?", value, self).
		Count(&n).Error
	if err != nil {
		return dbErr(err, "")
	}
	if n > 0 {
		return apperr.Newf(apperr.InvalidArgument, "%s already in use", column)
	}
	return nil
}

// TestAssignedProjects reports the caller's identity and project
// assignments.
func (h *Handler) TestAssignedProjects(c *gin.Context) {
	user := caller(c)
	ctx := c.Request.Context()

	var total int64
	if err := h.db.WithContext(ctx).Model(&models.Project{}).Count(&total).Error; err != nil {
		h.fail(c, dbErr(err, ""))
		return
	}

	assigned := []models.Project{}
	err := h.db.WithContext(ctx).Preload("Trades").
		Joins("JOIN user_assigned_projects uap ON uap.project_id = projects.id").
		Where("uap.user_id = ?", user.ID).
		Order("projects.id").
		Find(&assigned).Error
	if err != nil {
		h.fail(c, dbErr(err, ""))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_info": gin.H{
			"id":        user.ID,
			"email":     user.Email,
			"role":      user.Role,
			"specialty": user.Specialty,
		},
		"project_access": gin.H{
			"total_projects_in_system": total,
			"projects_assigned_to_me":  len(assigned),
			"assigned_projects":        assigned,
		},
	})
}
