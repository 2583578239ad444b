package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/matrific/matrific-web/internal/models"
	appErrors "github.com/matrific/matrific-web/pkg/errors"
	"github.com/matrific/matrific-web/pkg/validation"
)

// Notice phases reported in meta.notice.
const (
	PhaseSuccess = "success"
	PhaseFailure = "failure"
)

// Envelope represents the common response contract.
type Envelope struct {
	Data       interface{}            `json:"data,omitempty"`
	Error      *appErrors.Error       `json:"error,omitempty"`
	Pagination *models.Pagination     `json:"pagination,omitempty"`
	Meta       map[string]interface{} `json:"meta,omitempty"`
}

// Notice is the transient user-facing message attached to an operation result.
type Notice struct {
	Phase   string `json:"phase"`
	Message string `json:"message"`
}

// JSON sends a success response with optional pagination metadata.
func JSON(c *gin.Context, status int, data interface{}, pagination *models.Pagination, meta ...map[string]interface{}) {
	noStore(c)
	envelope := Envelope{Data: data, Pagination: pagination}
	if len(meta) > 0 && meta[0] != nil {
		envelope.Meta = meta[0]
	}
	c.JSON(status, envelope)
}

// OK responds with HTTP 200.
func OK(c *gin.Context, data interface{}) {
	JSON(c, http.StatusOK, data, nil)
}

// Created responds with HTTP 201 Created.
func Created(c *gin.Context, data interface{}, meta ...map[string]interface{}) {
	JSON(c, http.StatusCreated, data, nil, meta...)
}

// Success answers with data and a success notice.
func Success(c *gin.Context, status int, data interface{}, message string) {
	JSON(c, status, data, nil, map[string]interface{}{
		"notice": Notice{Phase: PhaseSuccess, Message: message},
	})
}

// Error sends an error response converting the error to the common structure.
// Field-level validation errors are listed in meta.fields.
func Error(c *gin.Context, err error) {
	ErrorWithData(c, err, nil)
}

// ErrorWithData is Error that also carries data, such as the state the
// failed operation left unchanged.
func ErrorWithData(c *gin.Context, err error, data interface{}) {
	appErr := appErrors.FromError(err)
	noStore(c)

	envelope := Envelope{Data: data, Error: appErr}
	var fields validation.Errors
	if errors.As(err, &fields) && len(fields) > 0 {
		envelope.Meta = map[string]interface{}{"fields": fields}
	}
	c.JSON(appErr.Status, envelope)
}

// Failure is Error with a failure notice carrying message.
func Failure(c *gin.Context, err error, message string) {
	appErr := appErrors.FromError(err)
	noStore(c)

	meta := map[string]interface{}{
		"notice": Notice{Phase: PhaseFailure, Message: message},
	}
	var fields validation.Errors
	if errors.As(err, &fields) && len(fields) > 0 {
		meta["fields"] = fields
	}
	c.JSON(appErr.Status, Envelope{Error: appErr, Meta: meta})
}

// NoContent sends a 204 response.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Redirect aborts with a 302 to location.
func Redirect(c *gin.Context, location string) {
	noStore(c)
	c.Redirect(http.StatusFound, location)
	c.Abort()
}

func noStore(c *gin.Context) {
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
}
