package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/matrific/matrific-web/pkg/casing"
)

// ProfessorService wraps the /professor/ resource.
type ProfessorService struct {
	api    apiCaller
	logger *zap.Logger
}

// NewProfessorService constructs a ProfessorService.
func NewProfessorService(api apiCaller, logger *zap.Logger) *ProfessorService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProfessorService{api: api, logger: logger}
}

// List returns the professors.
func (s *ProfessorService) List(ctx context.Context) (casing.Value, error) {
	return s.api.Get(ctx, pathProfessors, nil)
}

// Get returns one professor.
func (s *ProfessorService) Get(ctx context.Context, id int) (casing.Value, error) {
	return s.api.Get(ctx, itemPath(pathProfessors, id), nil)
}

// Create posts a client-case payload.
func (s *ProfessorService) Create(ctx context.Context, payload casing.Value) (casing.Value, error) {
	return s.api.Post(ctx, pathProfessors, casing.ToTransportCase(payload))
}

// Update patches a client-case payload.
func (s *ProfessorService) Update(ctx context.Context, id int, payload casing.Value) (casing.Value, error) {
	return s.api.Patch(ctx, itemPath(pathProfessors, id), casing.ToTransportCase(payload))
}
