package store

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/matrific/matrific-web/internal/models"
	"github.com/matrific/matrific-web/pkg/casing"
	"github.com/matrific/matrific-web/pkg/validation"
)

type enrollmentAPI interface {
	List(ctx context.Context, filter models.EnrollmentFilter) (casing.Value, error)
	Get(ctx context.Context, id int) (casing.Value, error)
	Create(ctx context.Context, payload casing.Value) (casing.Value, error)
	Validate(ctx context.Context, id int, decision models.EnrollmentDecision) (casing.Value, error)
}

// EnrollmentStore caches enrollments visible to the session.
type EnrollmentStore struct {
	api    enrollmentAPI
	logger *zap.Logger
	data   *collection[models.Enrollment]
}

// NewEnrollmentStore constructs an EnrollmentStore.
func NewEnrollmentStore(api enrollmentAPI, logger *zap.Logger) *EnrollmentStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentStore{
		api:    api,
		logger: logger,
		data:   newCollection(func(e models.Enrollment) int { return e.ID }),
	}
}

// Items returns a copy of the cached list.
func (s *EnrollmentStore) Items() []models.Enrollment { return s.data.list() }

// Selected returns the enrollment last loaded by FetchByID.
func (s *EnrollmentStore) Selected() (models.Enrollment, bool) { return s.data.current() }

// FetchAll replaces the list with the server's filtered listing.
func (s *EnrollmentStore) FetchAll(ctx context.Context, filter models.EnrollmentFilter) ([]models.Enrollment, error) {
	raw, err := s.api.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	items, err := decodeList[models.Enrollment](raw)
	if err != nil {
		return nil, err
	}
	s.data.replace(items)
	return items, nil
}

// Query returns the server's filtered listing without touching the cached
// list or selection.
func (s *EnrollmentStore) Query(ctx context.Context, filter models.EnrollmentFilter) ([]models.Enrollment, error) {
	raw, err := s.api.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return decodeList[models.Enrollment](raw)
}

// FetchByID loads one enrollment into the selection.
func (s *EnrollmentStore) FetchByID(ctx context.Context, id int) (models.Enrollment, error) {
	raw, err := s.api.Get(ctx, id)
	if err != nil {
		return models.Enrollment{}, err
	}
	item, err := decodeOne[models.Enrollment](raw)
	if err != nil {
		return models.Enrollment{}, err
	}
	s.data.selectItem(item)
	return item, nil
}

// Create submits a client-case enrollment payload (see the wizard) and
// appends the created enrollment.
func (s *EnrollmentStore) Create(ctx context.Context, payload casing.Value) (models.Enrollment, error) {
	raw, err := s.api.Create(ctx, payload)
	if err != nil {
		return models.Enrollment{}, err
	}
	item, err := decodeOne[models.Enrollment](raw)
	if err != nil {
		return models.Enrollment{}, err
	}
	s.data.upsert(item)
	return item, nil
}

// Validate approves or rejects an enrollment. The returned entity replaces
// the stale one in the list right away. A rejection needs a reason.
func (s *EnrollmentStore) Validate(ctx context.Context, id int, decision models.EnrollmentDecision) (models.Enrollment, error) {
	decision.RejectionReason = strings.TrimSpace(decision.RejectionReason)
	if decision.Approve {
		decision.RejectionReason = ""
	} else if decision.RejectionReason == "" {
		errs := validation.Errors{{Field: "motivoRecusa", Message: "informe o motivo da recusa"}}
		return models.Enrollment{}, errs.AsError("motivo da recusa obrigatório")
	}

	raw, err := s.api.Validate(ctx, id, decision)
	if err != nil {
		return models.Enrollment{}, err
	}
	item, err := decodeOne[models.Enrollment](raw)
	if err != nil {
		return models.Enrollment{}, err
	}
	s.data.upsert(item)
	s.logger.Info("enrollment validated", zap.Int("enrollment_id", id), zap.Bool("approved", decision.Approve), zap.String("status", string(item.Status)))
	return item, nil
}

// Clear drops all cached enrollments.
func (s *EnrollmentStore) Clear() { s.data.clear() }
