package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/matrific/matrific-web/internal/models"
	"github.com/matrific/matrific-web/pkg/response"
)

// ProfessorHandler manages professors. Routes are restricted to CCA.
type ProfessorHandler struct {
	validate *validator.Validate
	logger   *zap.Logger
}

// NewProfessorHandler constructs a ProfessorHandler.
func NewProfessorHandler(validate *validator.Validate, logger *zap.Logger) *ProfessorHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProfessorHandler{validate: validate, logger: logger}
}

// List godoc
// @Summary List professors
// @Tags Professors
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /professores [get]
func (h *ProfessorHandler) List(c *gin.Context) {
	ws, ok := currentWorkspace(c)
	if !ok {
		return
	}
	professors, err := ws.Professors.FetchAll(c.Request.Context())
	if err != nil {
		response.Failure(c, err, "Não foi possível carregar os professores")
		return
	}
	response.OK(c, professors)
}

// Get godoc
// @Summary Get professor
// @Tags Professors
// @Produce json
// @Param id path int true "Professor ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /professores/{id} [get]
func (h *ProfessorHandler) Get(c *gin.Context) {
	ws, ok := currentWorkspace(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	professor, err := ws.Professors.FetchByID(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, professor)
}

// Create godoc
// @Summary Create professor
// @Tags Professors
// @Accept json
// @Produce json
// @Param payload body models.ProfessorInput true "Professor"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /professores [post]
func (h *ProfessorHandler) Create(c *gin.Context) {
	ws, ok := currentWorkspace(c)
	if !ok {
		return
	}
	var in models.ProfessorInput
	if !bindJSON(c, &in, h.validate) {
		return
	}
	professor, err := ws.Professors.Create(c.Request.Context(), in)
	if err != nil {
		response.Failure(c, err, "Não foi possível cadastrar o professor")
		return
	}
	h.logger.Info("professor created", zap.Int("professor_id", professor.ID))
	response.Created(c, professor, notice("Professor cadastrado", ""))
}

// Update godoc
// @Summary Update professor
// @Tags Professors
// @Accept json
// @Produce json
// @Param id path int true "Professor ID"
// @Param payload body models.ProfessorInput true "Professor"
// @Success 200 {object} response.Envelope
// @Router /professores/{id} [patch]
func (h *ProfessorHandler) Update(c *gin.Context) {
	ws, ok := currentWorkspace(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var in models.ProfessorInput
	if !bindJSON(c, &in, h.validate) {
		return
	}
	professor, err := ws.Professors.Update(c.Request.Context(), id, in)
	if err != nil {
		response.Failure(c, err, "Não foi possível salvar o professor")
		return
	}
	response.Success(c, http.StatusOK, professor, "Professor atualizado")
}
