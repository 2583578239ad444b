package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/matrific/matrific-web/internal/dto"
	"github.com/matrific/matrific-web/internal/middleware"
	"github.com/matrific/matrific-web/internal/navigation"
	"github.com/matrific/matrific-web/pkg/response"
)

// DefaultLanding is where users go after login when no target was kept.
const DefaultLanding = "/dashboard"

type workspaceEvicter interface {
	Evict(id string)
}

// AuthHandler exposes login, logout and the navigation menu.
type AuthHandler struct {
	validate   *validator.Validate
	workspaces workspaceEvicter
	logger     *zap.Logger
}

// NewAuthHandler constructs an AuthHandler. Workspaces, when set, drops the
// in-memory workspace of a browser that logged out.
func NewAuthHandler(validate *validator.Validate, workspaces workspaceEvicter, logger *zap.Logger) *AuthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandler{validate: validate, workspaces: workspaces, logger: logger}
}

// Login godoc
// @Summary Login
// @Description Exchanges credentials for tokens and loads the user into the browser session.
// @Tags Auth
// @Accept json
// @Produce json
// @Param payload body dto.LoginRequest true "Credentials"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	ws, ok := currentWorkspace(c)
	if !ok {
		return
	}
	var req dto.LoginRequest
	if !bindJSON(c, &req, h.validate) {
		return
	}

	ctx := c.Request.Context()
	if ws.Session.IsAuthenticated() {
		if err := ws.Session.Logout(ctx); err != nil {
			h.logger.Warn("clearing previous session failed", zap.Error(err))
		}
	}
	user, err := ws.Session.Login(ctx, req.Email, req.Password)
	if err != nil {
		response.Failure(c, err, "Não foi possível entrar. Verifique suas credenciais.")
		return
	}
	response.JSON(c, http.StatusOK, user, nil, notice("Bem-vindo(a), "+user.FullName(), safeNext(req.Next, DefaultLanding)))
}

// Logout godoc
// @Summary Logout
// @Description Invalidates the refresh token and clears every client store.
// @Tags Auth
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	ws, ok := currentWorkspace(c)
	if !ok {
		return
	}
	if err := ws.Session.Logout(c.Request.Context()); err != nil {
		response.Failure(c, err, "Não foi possível encerrar a sessão")
		return
	}
	if h.workspaces != nil {
		h.workspaces.Evict(ws.ID)
	}
	response.JSON(c, http.StatusOK, nil, nil, notice("Sessão encerrada", middleware.LoginPath))
}

// Menu godoc
// @Summary Navigation menu
// @Description Current user and the navigation entries their groups may see.
// @Tags Auth
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /menu [get]
func (h *AuthHandler) Menu(c *gin.Context) {
	ws, ok := currentWorkspace(c)
	if !ok {
		return
	}
	user := ws.Session.User()
	var groups []string
	if user != nil {
		groups = user.Groups
	}
	visible := navigation.Visible(navigation.Menu, groups)
	items := make([]dto.MenuItem, 0, len(visible))
	for _, item := range visible {
		items = append(items, dto.MenuItem{Label: item.Label, Path: item.Path})
	}
	response.OK(c, dto.MenuResponse{User: user, Items: items})
}
