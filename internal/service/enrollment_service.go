package service

import (
	"context"
	"net/url"

	"go.uber.org/zap"

	"github.com/matrific/matrific-web/internal/models"
	"github.com/matrific/matrific-web/pkg/casing"
)

// EnrollmentService wraps the /inscricoes-aluno/ resource.
type EnrollmentService struct {
	api    apiCaller
	logger *zap.Logger
}

// NewEnrollmentService constructs an EnrollmentService.
func NewEnrollmentService(api apiCaller, logger *zap.Logger) *EnrollmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{api: api, logger: logger}
}

// List returns enrollments, optionally filtered by course and status.
func (s *EnrollmentService) List(ctx context.Context, filter models.EnrollmentFilter) (casing.Value, error) {
	query := url.Values{}
	if filter.CourseID != "" {
		query.Set("curso_id", filter.CourseID)
	}
	if filter.Status != "" {
		query.Set("status", string(filter.Status))
	}
	return s.api.Get(ctx, pathEnrollments, query)
}

// Get returns one enrollment with its documents.
func (s *EnrollmentService) Get(ctx context.Context, id int) (casing.Value, error) {
	return s.api.Get(ctx, itemPath(pathEnrollments, id), nil)
}

// Create submits a client-case enrollment mapping as multipart form data.
// File parts travel as opaque values.
func (s *EnrollmentService) Create(ctx context.Context, payload casing.Value) (casing.Value, error) {
	return s.api.PostMultipart(ctx, pathEnrollments, casing.ToTransportCase(payload))
}

// Validate approves or rejects an enrollment and returns the updated entity.
func (s *EnrollmentService) Validate(ctx context.Context, id int, decision models.EnrollmentDecision) (casing.Value, error) {
	body := casing.Map(
		casing.Field("aprovar", casing.Prim(decision.Approve)),
		casing.Field("motivoRecusa", casing.Prim(decision.RejectionReason)),
	)
	return s.api.Post(ctx, itemPath(pathEnrollments, id)+"validar/", casing.ToTransportCase(body))
}
