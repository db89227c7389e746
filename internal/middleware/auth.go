package middleware

import (
	"strings"

	"baytna-backend/internal/models"
	"baytna-backend/internal/session"
	"baytna-backend/pkg/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// SessionCookie carries the signed session token.
const SessionCookie = "baytna_session"

const (
	ctxUserID      = "userID"
	ctxCurrentUser = "currentUser"
	ctxSessionID   = "sessionID"
)

type Authenticator struct {
	db       *gorm.DB
	secret   string
	sessions *session.Store
}

func NewAuthenticator(db *gorm.DB, secret string, sessions *session.Store) *Authenticator {
	return &Authenticator{db: db, secret: secret, sessions: sessions}
}

// AuthMiddleware accepts the session cookie or an "Authorization: Bearer"
// header, checks the session is still live and loads the active user.
func (a *Authenticator) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := tokenFrom(c)
		if token == "" {
			utils.RespondError(c, utils.ErrUnauthorized("not logged in"))
			return
		}

		claims, err := utils.ValidateToken(a.secret, token)
		if err != nil {
			utils.RespondError(c, utils.ErrUnauthorized("invalid session"))
			return
		}

		owner, live, err := a.sessions.Lookup(c.Request.Context(), claims.SessionID)
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		if !live || (owner != 0 && owner != claims.UserID) {
			utils.RespondError(c, utils.ErrUnauthorized("session expired"))
			return
		}

		var user models.User
		if err := a.db.WithContext(c.Request.Context()).
			Where("id = ? AND is_active = ?", claims.UserID, true).
			First(&user).Error; err != nil {
			utils.RespondError(c, utils.ErrUnauthorized("account is not active"))
			return
		}

		c.Set(ctxUserID, user.ID)
		c.Set(ctxCurrentUser, &user)
		c.Set(ctxSessionID, claims.SessionID)
		c.Next()
	}
}

func tokenFrom(c *gin.Context) string {
	if cookie, err := c.Cookie(SessionCookie); err == nil && cookie != "" {
		return cookie
	}
	parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
	if len(parts) == 2 && parts[0] == "Bearer" {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

// CurrentUser returns the user loaded by AuthMiddleware.
func CurrentUser(c *gin.Context) *models.User {
	v, ok := c.Get(ctxCurrentUser)
	if !ok {
		return nil
	}
	u, _ := v.(*models.User)
	return u
}

func SessionID(c *gin.Context) string {
	return c.GetString(ctxSessionID)
}

// RequireCapability lets the request through when the user holds any of caps.
func RequireCapability(caps ...models.Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			utils.RespondError(c, utils.ErrUnauthorized("not logged in"))
			return
		}
		for _, cp := range caps {
			if user.Can(cp) {
				c.Next()
				return
			}
		}
		names := make([]string, len(caps))
		for i, cp := range caps {
			names[i] = string(cp)
		}
		utils.RespondError(c, utils.ErrForbidden("missing permission %s", strings.Join(names, " or ")))
	}
}

func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			utils.RespondError(c, utils.ErrUnauthorized("not logged in"))
			return
		}
		if !user.IsAdmin() {
			utils.RespondError(c, utils.ErrForbidden("admin only"))
			return
		}
		c.Next()
	}
}

// RequireRole lets admins and the listed roles through.
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			utils.RespondError(c, utils.ErrUnauthorized("not logged in"))
			return
		}
		if user.IsAdmin() {
			c.Next()
			return
		}
		for _, r := range roles {
			if user.Role == r {
				c.Next()
				return
			}
		}
		utils.RespondError(c, utils.ErrForbidden("your role cannot do this"))
	}
}
