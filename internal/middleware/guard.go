package middleware

import (
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	appErrors "github.com/matrific/matrific-web/pkg/errors"
	"github.com/matrific/matrific-web/pkg/response"
)

// Navigation targets used by the guards.
const (
	LoginPath           = "/login"
	ProfileCompletePath = "/completar-perfil"
)

// LoginRedirect builds the login location remembering the requested target.
func LoginRedirect(target string) string {
	if target == "" || target == LoginPath {
		return LoginPath
	}
	return LoginPath + "?next=" + url.QueryEscape(target)
}

// RequireAuth redirects anonymous requests to the login page.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		ws, ok := CurrentWorkspace(c)
		if !ok || !ws.Session.IsAuthenticated() {
			response.Redirect(c, LoginRedirect(c.Request.URL.RequestURI()))
			return
		}
		c.Next()
	}
}

// RequireCompleteProfile sends students whose profile is incomplete to
// completionPath. Requests for completionPath itself pass, as do users
// outside the student group.
func RequireCompleteProfile(completionPath string) gin.HandlerFunc {
	if completionPath == "" {
		completionPath = ProfileCompletePath
	}
	return func(c *gin.Context) {
		ws, ok := CurrentWorkspace(c)
		if !ok {
			c.Next()
			return
		}
		user := ws.Session.User()
		if user == nil || !user.IsStudent() || user.ProfileComplete {
			c.Next()
			return
		}
		if samePath(c.Request.URL.Path, completionPath) {
			c.Next()
			return
		}
		response.Redirect(c, completionPath)
	}
}

// RequireGroups allows users belonging to at least one of groups.
func RequireGroups(groups ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ws, ok := CurrentWorkspace(c)
		if !ok || !ws.Session.IsAuthenticated() {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if !ws.Session.User().HasAnyGroup(groups...) {
			response.Error(c, appErrors.ErrForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}

func samePath(a, b string) bool {
	return strings.TrimRight(a, "/") == strings.TrimRight(b, "/")
}
