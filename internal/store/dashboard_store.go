package store

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/matrific/matrific-web/internal/models"
	appErrors "github.com/matrific/matrific-web/pkg/errors"
)

// SectionError is the failure of one dashboard section.
type SectionError struct {
	Section string
	Err     error
}

func (e *SectionError) Error() string { return e.Section + ": " + e.Err.Error() }

func (e *SectionError) Unwrap() error { return e.Err }

// DashboardStore loads the dashboard sections concurrently. Each section may
// fail on its own without aborting the others.
type DashboardStore struct {
	courses     *CourseStore
	enrollments *EnrollmentStore
	logger      *zap.Logger

	mu   sync.RWMutex
	last *models.Dashboard
}

// NewDashboardStore constructs a DashboardStore over the resource stores.
func NewDashboardStore(courses *CourseStore, enrollments *EnrollmentStore, logger *zap.Logger) *DashboardStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardStore{courses: courses, enrollments: enrollments, logger: logger}
}

// Load fetches courses and enrollments in parallel and joins whatever
// succeeded. It only returns an error when every section failed; the error
// then joins one *SectionError per section.
func (s *DashboardStore) Load(ctx context.Context) (*models.Dashboard, error) {
	dash := &models.Dashboard{
		Courses:      []models.Course{},
		Enrollments:  []models.Enrollment{},
		StatusCounts: make(map[models.EnrollmentStatus]int, len(models.EnrollmentStatuses)),
	}
	for _, status := range models.EnrollmentStatuses {
		dash.StatusCounts[status] = 0
	}

	sections := []string{models.DashboardSectionCourses, models.DashboardSectionEnrollments}
	errs := make([]error, len(sections))

	var g errgroup.Group
	g.Go(func() error {
		courses, err := s.courses.FetchAll(ctx)
		if err != nil {
			errs[0] = &SectionError{Section: sections[0], Err: err}
			return errs[0]
		}
		dash.Courses = courses
		return nil
	})
	g.Go(func() error {
		items, err := s.enrollments.FetchAll(ctx, models.EnrollmentFilter{})
		if err != nil {
			errs[1] = &SectionError{Section: sections[1], Err: err}
			return errs[1]
		}
		dash.Enrollments = items
		return nil
	})
	waitErr := g.Wait()

	for _, c := range dash.Courses {
		if c.Status == models.CourseStatusEnrollmentOpen {
			dash.OpenCourses++
		}
	}
	for _, e := range dash.Enrollments {
		dash.StatusCounts[e.Status]++
	}

	if waitErr != nil {
		failed := 0
		dash.Failures = make(map[string]string, len(sections))
		for i, err := range errs {
			if err == nil {
				continue
			}
			failed++
			dash.Failures[sections[i]] = appErrors.FromError(err).Message
			s.logger.Warn("dashboard section failed", zap.String("section", sections[i]), zap.Error(err))
		}
		if failed == len(sections) {
			return nil, errors.Join(errs...)
		}
	}

	s.mu.Lock()
	s.last = dash
	s.mu.Unlock()
	return dash, nil
}

// Last returns the most recent successful load.
func (s *DashboardStore) Last() (*models.Dashboard, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last, s.last != nil
}

// Clear forgets the last dashboard.
func (s *DashboardStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = nil
}
