package handler

import (
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

// CourseHandler exposes course CRUD and the applicant list export.
type CourseHandler struct {
	validate *validator.Validate
	csv      *export.CSVExporter
	pdf      *export.PDFExporter
	logger   *zap.Logger
}

// NewCourseHandler constructs a CourseHandler.
func NewCourseHandler(validate *validator.Validate, csv *export.CSVExporter, pdf *export.PDFExporter, logger *zap.Logger) *CourseHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseHandler{validate: validate, csv: csv, pdf: pdf, logger: logger}
}

// List godoc
// @Summary List courses
// @Tags Courses
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /cursos [get]
func (h *CourseHandler) List(c *gin.Context) {
	ws, ok := currentWorkspace(c)
	if !ok {
		return
	}
	courses, err := ws.Courses.FetchAll(c.Request.Context())
	if err != nil {
		response.Failure(c, err, "Não foi possível carregar os cursos")
		return
	}
	response.OK(c, courses)
}

// Get godoc
// @Summary Get course
// @Tags Courses
// @Produce json
// @Param id path int true "Course ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /cursos/{id} [get]
func (h *CourseHandler) Get(c *gin.Context) {
	ws, ok := currentWorkspace(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	course, err := ws.Courses.FetchByID(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, course)
}

// Create godoc
// @Summary Create course
// @Tags Courses
// @Accept json
// @Produce json
// @Param payload body models.CourseInput true "Course"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /cursos [post]
func (h *CourseHandler) Create(c *gin.Context) {
	ws, ok := currentWorkspace(c)
	if !ok {
		return
	}
	var in models.CourseInput
	if !bindJSON(c, &in, h.validate) {
		return
	}
	h.logger.Info("course create in_progress", zap.String("name", in.Name))
	course, err := ws.Courses.Create(c.Request.Context(), in)
	if err != nil {
		response.Failure(c, err, "Não foi possível criar o curso")
		return
	}
	response.Created(c, course, notice("Curso criado", ""))
}

// Update godoc
// @Summary Update course
// @Tags Courses
// @Accept json
// @Produce json
// @Param id path int true "Course ID"
// @Param payload body models.CourseInput true "Course"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /cursos/{id} [patch]
func (h *CourseHandler) Update(c *gin.Context) {
	ws, ok := currentWorkspace(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var in models.CourseInput
	if !bindJSON(c, &in, h.validate) {
		return
	}
	h.logger.Info("course update in_progress", zap.Int("course_id", id))
	course, err := ws.Courses.Update(c.Request.Context(), id, in)
	if err != nil {
		response.Failure(c, err, "Não foi possível salvar o curso")
		return
	}
	response.Success(c, http.StatusOK, course, "Curso atualizado")
}

// Delete godoc
// @Summary Delete course
// @Description Requires confirm=true; the course is removed locally only after the API confirms.
// @Tags Courses
// @Produce json
// @Param id path int true "Course ID"
// @Param confirm query bool true "Explicit confirmation"
// @Success 200 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /cursos/{id} [delete]
func (h *CourseHandler) Delete(c *gin.Context) {
	ws, ok := currentWorkspace(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	confirmed, _ := strconv.ParseBool(c.Query("confirm"))
	h.logger.Info("course delete in_progress", zap.Int("course_id", id), zap.Bool("confirmed", confirmed))
	if err := ws.Courses.Delete(c.Request.Context(), id, confirmed); err != nil {
		response.Failure(c, err, "Não foi possível excluir o curso")
		return
	}
	response.Success(c, http.StatusOK, nil, "Curso excluído")
}

// ExportApplicants godoc
// @Summary Export course applicants
// @Tags Courses
// @Produce text/csv
// @Produce application/pdf
// @Param id path int true "Course ID"
// @Param format query string false "csv or pdf" Enums(csv, pdf)
// @Success 200 {file} file
// @Router /cursos/{id}/inscricoes/export [get]
func (h *CourseHandler) ExportApplicants(c *gin.Context) {
	ws, ok := currentWorkspace(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	format := strings.ToLower(c.DefaultQuery("format", dto.ExportCSV))
	if format != dto.ExportCSV && format != dto.ExportPDF {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf"))
		return
	}

	ctx := c.Request.Context()
	course, err := ws.Courses.FetchByID(ctx, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	enrollments, err := ws.Enrollments.Query(ctx, models.EnrollmentFilter{CourseID: strconv.Itoa(id)})
	if err != nil {
		response.Error(c, err)
		return
	}

	data := applicantDataset(enrollments)
	var (
		body        []byte
		contentType string
	)
	switch format {
	case dto.ExportPDF:
		body, err = h.pdf.Render(data, "Inscritos - "+course.Name)
		contentType = h.pdf.ContentType()
	default:
		body, err = h.csv.Render(data)
		contentType = h.csv.ContentType()
	}
	if err != nil {
		response.Error(c, err)
		return
	}

	filename := fmt.Sprintf("inscritos-curso-%d.%s", id, format)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, body)
}

func applicantDataset(enrollments []models.Enrollment) export.Dataset {
	headers := []string{"Inscrição", "Aluno", "Tipo de vaga", "Matrícula", "Status", "Data"}
	rows := make([]map[string]string, 0, len(enrollments))
	for _, e := range enrollments {
		rows = append(rows, map[string]string{
			"Inscrição":    strconv.Itoa(e.ID),
			"Aluno":        e.StudentName,
			"Tipo de vaga": string(e.VacancyType),
			"Matrícula":    e.RegistrationNumber,
			"Status":       string(e.Status),
			"Data":         e.CreatedAt,
		})
	}
	return export.Dataset{Headers: headers, Rows: rows}
}
