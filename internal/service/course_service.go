package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/matrific/matrific-web/pkg/casing"
)

// CourseService wraps the /cursos/ resource.
type CourseService struct {
	api    apiCaller
	logger *zap.Logger
}

// NewCourseService constructs a CourseService.
func NewCourseService(api apiCaller, logger *zap.Logger) *CourseService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseService{api: api, logger: logger}
}

// List returns every course visible to the session.
func (s *CourseService) List(ctx context.Context) (casing.Value, error) {
	return s.api.Get(ctx, pathCourses, nil)
}

// Get returns one course.
func (s *CourseService) Get(ctx context.Context, id int) (casing.Value, error) {
	return s.api.Get(ctx, itemPath(pathCourses, id), nil)
}

// Create posts a client-case payload.
func (s *CourseService) Create(ctx context.Context, payload casing.Value) (casing.Value, error) {
	return s.api.Post(ctx, pathCourses, casing.ToTransportCase(payload))
}

// Update patches a client-case payload.
func (s *CourseService) Update(ctx context.Context, id int, payload casing.Value) (casing.Value, error) {
	return s.api.Patch(ctx, itemPath(pathCourses, id), casing.ToTransportCase(payload))
}

// Delete removes a course.
func (s *CourseService) Delete(ctx context.Context, id int) error {
	return s.api.Delete(ctx, itemPath(pathCourses, id))
}
