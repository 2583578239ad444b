package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/matrific/matrific-web/internal/workspace"
	"github.com/matrific/matrific-web/pkg/logger"
)

// ContextWorkspaceKey is the gin context key storing the request's workspace.
const ContextWorkspaceKey = "workspace"

// CookieConfig describes the browser session cookie.
type CookieConfig struct {
	Name   string
	Secure bool
	MaxAge time.Duration
}

// Session resolves the workspace named by the session cookie, creating one
// (and the cookie) for new browsers. Authenticated sessions get their access
// token refreshed when it is about to expire.
func Session(manager *workspace.Manager, cookie CookieConfig, log *zap.Logger) gin.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}
	if cookie.Name == "" {
		cookie.Name = "matrific_sid"
	}
	return func(c *gin.Context) {
		raw, _ := c.Cookie(cookie.Name)
		ctx := c.Request.Context()

		ws, id, err := manager.Open(ctx, raw)
		if err != nil {
			log.Warn("workspace session restore failed", zap.String("workspace_id", id), zap.Error(err))
		}
		if id != raw {
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(cookie.Name, id, int(cookie.MaxAge.Seconds()), "/", "", cookie.Secure, true)
		}
		c.Set(ContextWorkspaceKey, ws)
		c.Set(logger.WorkspaceKey, id)

		if err := ws.Session.EnsureFresh(ctx); err != nil {
			log.Warn("access token refresh failed", zap.String("workspace_id", id), zap.Error(err))
		}
		c.Next()
	}
}

// CurrentWorkspace returns the workspace attached by Session.
func CurrentWorkspace(c *gin.Context) (*workspace.Workspace, bool) {
	value, exists := c.Get(ContextWorkspaceKey)
	if !exists {
		return nil, false
	}
	ws, ok := value.(*workspace.Workspace)
	return ws, ok && ws != nil
}
