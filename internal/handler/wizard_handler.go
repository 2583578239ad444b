package handler

import (
	"errors"
	"io"
	"mime/multipart"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/matrific/matrific-web/internal/dto"
	"github.com/matrific/matrific-web/internal/models"
	appErrors "github.com/matrific/matrific-web/pkg/errors"
	"github.com/matrific/matrific-web/pkg/response"
	"github.com/matrific/matrific-web/pkg/validation"
)

// uploadField is the multipart field carrying wizard documents.
const uploadField = "arquivos"

// WizardHandler drives the enrollment wizard of the current session.
type WizardHandler struct {
	validate *validator.Validate
	limits   validation.FileLimits
	logger   *zap.Logger
}

// NewWizardHandler constructs a WizardHandler.
func NewWizardHandler(validate *validator.Validate, limits validation.FileLimits, logger *zap.Logger) *WizardHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if limits.MaxFileSize <= 0 || limits.MaxFiles <= 0 {
		limits = validation.DefaultFileLimits()
	}
	return &WizardHandler{validate: validate, limits: limits, logger: logger}
}

// State godoc
// @Summary Enrollment wizard state
// @Description Returns the wizard, prefilled from the stored profile on first access.
// @Tags Wizard
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /inscricao [get]
func (h *WizardHandler) State(c *gin.Context) {
	ws, ok := currentWorkspace(c)
	if !ok {
		return
	}
	if ws.Wizard.NeedsPrefill() {
		ws.Wizard.Prefill(c.Request.Context(), ws.Students, ws.Session.User())
	}
	response.OK(c, ws.Wizard.State())
}

// UpdateForm godoc
// @Summary Update wizard fields
// @Description Merges the given client-case fields into the form.
// @Tags Wizard
// @Accept json
// @Produce json
// @Param payload body map[string]string true "Fields"
// @Success 200 {object} response.Envelope
// @Router /inscricao/form [put]
func (h *WizardHandler) UpdateForm(c *gin.Context) {
	ws, ok := currentWorkspace(c)
	if !ok {
		return
	}
	var fields map[string]string
	if !bindJSON(c, &fields, nil) {
		return
	}
	if err := ws.Wizard.Update(fields); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, ws.Wizard.State())
}

// SelectVacancy godoc
// @Summary Select vacancy type
// @Description EXTERNO clears the registration number.
// @Tags Wizard
// @Accept json
// @Produce json
// @Param payload body dto.VacancyRequest true "Vacancy type"
// @Success 200 {object} response.Envelope
// @Router /inscricao/vaga [post]
func (h *WizardHandler) SelectVacancy(c *gin.Context) {
	ws, ok := currentWorkspace(c)
	if !ok {
		return
	}
	var req dto.VacancyRequest
	if !bindJSON(c, &req, h.validate) {
		return
	}
	if err := ws.Wizard.SelectVacancyType(req.VacancyType); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, ws.Wizard.State())
}

// AddFiles godoc
// @Summary Attach documents
// @Tags Wizard
// @Accept multipart/form-data
// @Produce json
// @Param arquivos formData file true "Documents"
// @Success 200 {object} response.Envelope
// @Router /inscricao/arquivos [post]
func (h *WizardHandler) AddFiles(c *gin.Context) {
	ws, ok := currentWorkspace(c)
	if !ok {
		return
	}
	form, err := c.MultipartForm()
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "multipart form expected"))
		return
	}
	headers := form.File[uploadField]
	if len(headers) == 0 {
		errs := validation.Errors{{Field: validation.FieldFiles, Message: "selecione ao menos um arquivo"}}
		response.Error(c, errs.AsError(""))
		return
	}

	attachments := make([]*models.Attachment, 0, len(headers))
	for _, header := range headers {
		attachment, err := h.readAttachment(header)
		if err != nil {
			response.Error(c, err)
			return
		}
		attachments = append(attachments, attachment)
	}
	if err := ws.Wizard.AddFiles(attachments...); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, ws.Wizard.State())
}

// readAttachment buffers an upload. Oversized files keep their declared size
// but no content so the documents step reports them by name.
func (h *WizardHandler) readAttachment(header *multipart.FileHeader) (*models.Attachment, error) {
	attachment := &models.Attachment{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
	}
	if header.Size > h.limits.MaxFileSize {
		return attachment, nil
	}
	file, err := header.Open()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "unreadable file "+header.Filename)
	}
	defer file.Close()
	content, err := io.ReadAll(io.LimitReader(file, h.limits.MaxFileSize+1))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "unreadable file "+header.Filename)
	}
	attachment.Content = content
	attachment.Size = int64(len(content))
	return attachment, nil
}

// RemoveFile godoc
// @Summary Remove a document
// @Tags Wizard
// @Produce json
// @Param index path int true "Attachment position"
// @Success 200 {object} response.Envelope
// @Router /inscricao/arquivos/{index} [delete]
func (h *WizardHandler) RemoveFile(c *gin.Context) {
	ws, ok := currentWorkspace(c)
	if !ok {
		return
	}
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid index"))
		return
	}
	if err := ws.Wizard.RemoveFile(index); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, ws.Wizard.State())
}

// Next godoc
// @Summary Advance the wizard
// @Description Validates the current step; on failure the step stays and meta.fields lists the errors.
// @Tags Wizard
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /inscricao/next [post]
func (h *WizardHandler) Next(c *gin.Context) {
	ws, ok := currentWorkspace(c)
	if !ok {
		return
	}
	state, err := ws.Wizard.Next()
	if err != nil {
		response.ErrorWithData(c, err, state)
		return
	}
	response.OK(c, state)
}

// Prev godoc
// @Summary Go back one step
// @Tags Wizard
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /inscricao/prev [post]
func (h *WizardHandler) Prev(c *gin.Context) {
	ws, ok := currentWorkspace(c)
	if !ok {
		return
	}
	response.OK(c, ws.Wizard.Prev())
}

// Submit godoc
// @Summary Submit the enrollment
// @Description Sends the enrollment from the last step. On success meta.redirect points to the enrollment list.
// @Tags Wizard
// @Produce json
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /inscricao/submit [post]
func (h *WizardHandler) Submit(c *gin.Context) {
	ws, ok := currentWorkspace(c)
	if !ok {
		return
	}
	result, err := ws.Wizard.Submit(c.Request.Context())
	if err != nil {
		response.Failure(c, err, failureReason(err, "Não foi possível enviar a inscrição"))
		return
	}
	response.Created(c, result.Enrollment, notice(result.Message, result.Redirect))
}

// failureReason prefers the message the API gave for the failure.
func failureReason(err error, fallback string) string {
	var appErr *appErrors.Error
	if errors.As(err, &appErr) && appErr.Message != "" && appErr.Code != appErrors.ErrInternal.Code {
		return appErr.Message
	}
	return fallback
}
