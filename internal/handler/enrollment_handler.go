package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/matrific/matrific-web/internal/dto"
	"github.com/matrific/matrific-web/internal/models"
	appErrors "github.com/matrific/matrific-web/pkg/errors"
	"github.com/matrific/matrific-web/pkg/export"
	"github.com/matrific/matrific-web/pkg/response"
)

// EnrollmentHandler lists enrollments and serves the validator actions.
type EnrollmentHandler struct {
	validate *validator.Validate
	pdf      *export.PDFExporter
	logger   *zap.Logger
}

// NewEnrollmentHandler constructs an EnrollmentHandler.
func NewEnrollmentHandler(validate *validator.Validate, pdf *export.PDFExporter, logger *zap.Logger) *EnrollmentHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentHandler{validate: validate, pdf: pdf, logger: logger}
}

// List godoc
// @Summary List enrollments
// @Tags Enrollments
// @Produce json
// @Param curso_id query string false "Course ID"
// @Param status query string false "Status" Enums(AGUARDANDO_VALIDACAO, CONFIRMADA, LISTA_ESPERA, CANCELADA)
// @Success 200 {object} response.Envelope
// @Router /inscricoes [get]
func (h *EnrollmentHandler) List(c *gin.Context) {
	ws, ok := currentWorkspace(c)
	if !ok {
		return
	}
	filter := models.EnrollmentFilter{
		CourseID: strings.TrimSpace(c.Query("curso_id")),
		Status:   models.EnrollmentStatus(strings.ToUpper(strings.TrimSpace(c.Query("status")))),
	}
	if filter.CourseID != "" {
		if _, err := strconv.Atoi(filter.CourseID); err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "curso_id must be numeric"))
			return
		}
	}
	if filter.Status != "" && !knownStatus(filter.Status) {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unknown status"))
		return
	}
	items, err := ws.Enrollments.FetchAll(c.Request.Context(), filter)
	if err != nil {
		response.Failure(c, err, "Não foi possível carregar as inscrições")
		return
	}
	response.OK(c, items)
}

func knownStatus(status models.EnrollmentStatus) bool {
	for _, s := range models.EnrollmentStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// Validate godoc
// @Summary Approve or reject an enrollment
// @Description Rejections need motivoRecusa. The updated enrollment replaces the listed one.
// @Tags Enrollments
// @Accept json
// @Produce json
// @Param id path int true "Enrollment ID"
// @Param payload body dto.ValidateEnrollmentRequest true "Decision"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /inscricoes/{id}/validar [post]
func (h *EnrollmentHandler) Validate(c *gin.Context) {
	ws, ok := currentWorkspace(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.ValidateEnrollmentRequest
	if !bindJSON(c, &req, h.validate) {
		return
	}

	decision := models.EnrollmentDecision{Approve: *req.Approve, RejectionReason: req.RejectionReason}
	h.logger.Info("enrollment validation in_progress", zap.Int("enrollment_id", id), zap.Bool("approve", decision.Approve))
	enrollment, err := ws.Enrollments.Validate(c.Request.Context(), id, decision)
	if err != nil {
		response.Failure(c, err, "Não foi possível validar a inscrição")
		return
	}
	message := "Inscrição aprovada"
	if !decision.Approve {
		message = "Inscrição recusada"
	}
	response.Success(c, http.StatusOK, enrollment, message)
}

// Dossier godoc
// @Summary Enrollment dossier
// @Description PDF with the enrollment, the applicant's profile and the uploaded documents.
// @Tags Enrollments
// @Produce application/pdf
// @Param id path int true "Enrollment ID"
// @Success 200 {file} file
// @Router /inscricoes/{id}/dossie [get]
func (h *EnrollmentHandler) Dossier(c *gin.Context) {
	ws, ok := currentWorkspace(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	enrollment, err := ws.Enrollments.FetchByID(ctx, id)
	if err != nil {
		response.Error(c, err)
		return
	}

	dossier := models.Dossier{Enrollment: enrollment}
	if enrollment.StudentID > 0 {
		profile, err := ws.Students.FetchByID(ctx, enrollment.StudentID)
		switch {
		case err == nil:
			dossier.Profile = &profile
		case errors.Is(err, appErrors.ErrNotFound):
		default:
			response.Error(c, err)
			return
		}
	}

	body, err := h.pdf.RenderDocument(dossierDocument(dossier))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fmt.Sprintf("dossie-inscricao-%d.pdf", id)))
	c.Data(http.StatusOK, h.pdf.ContentType(), body)
}

func dossierDocument(d models.Dossier) export.Document {
	e := d.Enrollment
	doc := export.Document{
		Title:    fmt.Sprintf("Dossiê da inscrição #%d", e.ID),
		Subtitle: e.CourseName,
		Sections: []export.Section{{
			Title: "Inscrição",
			Fields: []export.KeyValue{
				{Label: "Aluno", Value: e.StudentName},
				{Label: "Tipo de vaga", Value: string(e.VacancyType)},
				{Label: "Matrícula", Value: e.RegistrationNumber},
				{Label: "Status", Value: string(e.Status)},
				{Label: "Motivo da recusa", Value: e.RejectionReason},
				{Label: "Data", Value: e.CreatedAt},
			},
		}},
		ItemsTitle: "Documentos enviados",
	}
	if p := d.Profile; p != nil {
		doc.Sections = append(doc.Sections, export.Section{
			Title: "Dados pessoais",
			Fields: []export.KeyValue{
				{Label: "Nome", Value: strings.TrimSpace(p.FirstName + " " + p.LastName)},
				{Label: "CPF", Value: p.CPF},
				{Label: "RG", Value: strings.TrimSpace(p.RG + " " + p.RGIssuer)},
				{Label: "Nascimento", Value: p.BirthDate},
				{Label: "Telefone", Value: p.Phone},
				{Label: "Endereço", Value: address(p)},
				{Label: "CEP", Value: p.CEP},
			},
		})
	}
	for _, file := range e.Documents {
		doc.Items = append(doc.Items, file.Name+" ("+file.URL+")")
	}
	return doc
}

func address(p *models.StudentProfile) string {
	number := strings.TrimSpace(p.Number + " " + p.Complement)
	return fmt.Sprintf("%s, %s - %s", p.Street, number, p.District)
}
