package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/matrific/matrific-web/pkg/casing"
)

// StudentService reads and upserts the authenticated student's profile.
type StudentService struct {
	api    apiCaller
	logger *zap.Logger
}

// NewStudentService constructs a StudentService.
func NewStudentService(api apiCaller, logger *zap.Logger) *StudentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{api: api, logger: logger}
}

// Me returns the profile of the logged-in student. The API answers 404
// while no profile exists.
func (s *StudentService) Me(ctx context.Context) (casing.Value, error) {
	return s.api.Get(ctx, pathStudentMe, nil)
}

// UpsertMe creates or updates the profile (PATCH-as-upsert).
func (s *StudentService) UpsertMe(ctx context.Context, payload casing.Value) (casing.Value, error) {
	return s.api.Patch(ctx, pathStudentMe, casing.ToTransportCase(payload))
}

// Get reads another student's profile. Only validators are allowed to.
func (s *StudentService) Get(ctx context.Context, id int) (casing.Value, error) {
	return s.api.Get(ctx, itemPath(pathStudents, id), nil)
}
