package store

import (
	"context"

	"go.uber.org/zap"

	"github.com/matrific/matrific-web/internal/models"
	"github.com/matrific/matrific-web/pkg/casing"
	appErrors "github.com/matrific/matrific-web/pkg/errors"
)

type courseAPI interface {
	List(ctx context.Context) (casing.Value, error)
	Get(ctx context.Context, id int) (casing.Value, error)
	Create(ctx context.Context, payload casing.Value) (casing.Value, error)
	Update(ctx context.Context, id int, payload casing.Value) (casing.Value, error)
	Delete(ctx context.Context, id int) error
}

// CourseStore caches the courses visible to the session.
type CourseStore struct {
	api    courseAPI
	logger *zap.Logger
	data   *collection[models.Course]
}

// NewCourseStore constructs a CourseStore.
func NewCourseStore(api courseAPI, logger *zap.Logger) *CourseStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseStore{
		api:    api,
		logger: logger,
		data:   newCollection(func(c models.Course) int { return c.ID }),
	}
}

// Items returns the last fetched list.
func (s *CourseStore) Items() []models.Course { return s.data.list() }

// Selected returns the last course fetched by id.
func (s *CourseStore) Selected() (models.Course, bool) { return s.data.current() }

// FetchAll replaces the list with the server's. On failure the previous list
// is kept.
func (s *CourseStore) FetchAll(ctx context.Context) ([]models.Course, error) {
	raw, err := s.api.List(ctx)
	if err != nil {
		return nil, err
	}
	courses, err := decodeList[models.Course](raw)
	if err != nil {
		return nil, err
	}
	s.data.replace(courses)
	return courses, nil
}

// FetchByID loads one course into the selection.
func (s *CourseStore) FetchByID(ctx context.Context, id int) (models.Course, error) {
	raw, err := s.api.Get(ctx, id)
	if err != nil {
		return models.Course{}, err
	}
	course, err := decodeOne[models.Course](raw)
	if err != nil {
		return models.Course{}, err
	}
	s.data.selectItem(course)
	return course, nil
}

// Create posts a new course and appends the confirmed entity.
func (s *CourseStore) Create(ctx context.Context, in models.CourseInput) (models.Course, error) {
	in.Normalize()
	payload, err := payloadOf(in)
	if err != nil {
		return models.Course{}, err
	}
	raw, err := s.api.Create(ctx, payload)
	if err != nil {
		return models.Course{}, err
	}
	course, err := decodeOne[models.Course](raw)
	if err != nil {
		return models.Course{}, err
	}
	s.data.upsert(course)
	return course, nil
}

// Update patches a course and replaces the local copy with the server's.
func (s *CourseStore) Update(ctx context.Context, id int, in models.CourseInput) (models.Course, error) {
	in.Normalize()
	payload, err := payloadOf(in)
	if err != nil {
		return models.Course{}, err
	}
	raw, err := s.api.Update(ctx, id, payload)
	if err != nil {
		return models.Course{}, err
	}
	course, err := decodeOne[models.Course](raw)
	if err != nil {
		return models.Course{}, err
	}
	s.data.upsert(course)
	return course, nil
}

// Delete removes a course remotely and, once confirmed, locally. confirmed
// must be true: deletion is never implicit.
func (s *CourseStore) Delete(ctx context.Context, id int, confirmed bool) error {
	if !confirmed {
		return appErrors.Clone(appErrors.ErrConfirmationRequired, "confirme a exclusão do curso")
	}
	if err := s.api.Delete(ctx, id); err != nil {
		s.logger.Warn("course delete failed", zap.Int("course_id", id), zap.Error(err))
		return err
	}
	s.data.remove(id)
	return nil
}

// Clear drops all cached courses.
func (s *CourseStore) Clear() { s.data.clear() }
