package middleware

import (
	"strings"

	"siteflow/internal/auth"
	"siteflow/internal/models"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const currentUserKey = "CurrentUser"

// InjectUser resolves the caller from a Bearer access token or, failing
// that, from the cookie session, and stores it on the context. Requests
// without a valid principal pass through untouched.
func InjectUser(db *gorm.DB, tokens *auth.Tokens) gin.HandlerFunc {
	return func(c *gin.Context) {
		if uid := principal(c, tokens); uid > 0 {
			var user models.User
			if err := db.WithContext(c.Request.Context()).First(&user, uid).Error; err == nil {
				c.Set(currentUserKey, user)
			}
		}
		c.Next()
	}
}

func principal(c *gin.Context, tokens *auth.Tokens) uint {
	if header := c.GetHeader("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			return 0
		}
		uid, err := tokens.Verify(parts[1])
		if err != nil {
			return 0
		}
		return uid
	}

	sess := sessions.Default(c)
	if uid, ok := sess.Get("user_id").(uint); ok {
		return uid
	}
	return 0
}

// CurrentUser returns the user stored by InjectUser.
func CurrentUser(c *gin.Context) (models.User, bool) {
	v, ok := c.Get(currentUserKey)
	if !ok {
		return models.User{}, false
	}
	u, ok := v.(models.User)
	return u, ok
}

// SetCurrentUser replaces the caller stored on the context.
func SetCurrentUser(c *gin.Context, u models.User) {
	c.Set(currentUserKey, u)
}
