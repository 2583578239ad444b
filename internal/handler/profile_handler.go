package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/matrific/matrific-web/internal/models"
	"github.com/matrific/matrific-web/pkg/response"
)

// ProfileHandler serves the student profile completion form.
type ProfileHandler struct {
	validate *validator.Validate
	logger   *zap.Logger
}

// NewProfileHandler constructs a ProfileHandler.
func NewProfileHandler(validate *validator.Validate, logger *zap.Logger) *ProfileHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProfileHandler{validate: validate, logger: logger}
}

// Get godoc
// @Summary Current student profile
// @Description Returns the stored profile, or null when it was never completed.
// @Tags Profile
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /completar-perfil [get]
func (h *ProfileHandler) Get(c *gin.Context) {
	ws, ok := currentWorkspace(c)
	if !ok {
		return
	}
	profile, err := ws.Students.FetchMe(c.Request.Context())
	if err != nil {
		response.Failure(c, err, "Não foi possível carregar seu perfil")
		return
	}
	response.OK(c, profile)
}

// Submit godoc
// @Summary Complete student profile
// @Description Validates and upserts the profile, then reloads the user so the completion flag updates.
// @Tags Profile
// @Accept json
// @Produce json
// @Param payload body models.StudentProfile true "Profile"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /completar-perfil [post]
func (h *ProfileHandler) Submit(c *gin.Context) {
	ws, ok := currentWorkspace(c)
	if !ok {
		return
	}
	var profile models.StudentProfile
	if !bindJSON(c, &profile, h.validate) {
		return
	}

	ctx := c.Request.Context()
	h.logger.Info("profile completion in_progress")
	saved, err := ws.Students.UpsertMe(ctx, profile)
	if err != nil {
		response.Failure(c, err, "Não foi possível salvar seu perfil")
		return
	}
	if _, err := ws.Session.RefreshUser(ctx); err != nil {
		h.logger.Warn("reloading user after profile completion failed", zap.Error(err))
		response.Failure(c, err, "Perfil salvo, mas não foi possível recarregar seus dados. Tente novamente.")
		return
	}
	response.JSON(c, http.StatusOK, saved, nil, notice("Perfil atualizado", DefaultLanding))
}
