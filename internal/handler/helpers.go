package handler

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/matrific/matrific-web/internal/middleware"
	"github.com/matrific/matrific-web/internal/workspace"
	appErrors "github.com/matrific/matrific-web/pkg/errors"
	"github.com/matrific/matrific-web/pkg/response"
	"github.com/matrific/matrific-web/pkg/validation"
)

// currentWorkspace answers 401 when the session middleware did not run.
func currentWorkspace(c *gin.Context) (*workspace.Workspace, bool) {
	ws, ok := middleware.CurrentWorkspace(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return nil, false
	}
	return ws, true
}

func parseID(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid "+name))
		return 0, false
	}
	return id, true
}

// bindJSON decodes the body into dst and runs the struct tag rules.
func bindJSON(c *gin.Context, dst interface{}, v *validator.Validate) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return false
	}
	if v == nil {
		return true
	}
	if err := v.Struct(dst); err != nil {
		if fields := validation.FromValidator(err); len(fields) > 0 {
			response.Error(c, fields.AsError(""))
			return false
		}
		response.Error(c, err)
		return false
	}
	return true
}

func notice(message, redirect string) map[string]interface{} {
	meta := map[string]interface{}{
		"notice": response.Notice{Phase: response.PhaseSuccess, Message: message},
	}
	if redirect != "" {
		meta["redirect"] = redirect
	}
	return meta
}

// safeNext keeps only local absolute paths as post-login targets.
func safeNext(next, fallback string) string {
	next = strings.TrimSpace(next)
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return fallback
	}
	if next == middleware.LoginPath || strings.HasPrefix(next, middleware.LoginPath+"?") {
		return fallback
	}
	return next
}
