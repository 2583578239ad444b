package store

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/matrific/matrific-web/internal/models"
	"github.com/matrific/matrific-web/pkg/casing"
	appErrors "github.com/matrific/matrific-web/pkg/errors"
)

type studentAPI interface {
	Me(ctx context.Context) (casing.Value, error)
	UpsertMe(ctx context.Context, payload casing.Value) (casing.Value, error)
	Get(ctx context.Context, id int) (casing.Value, error)
}

// StudentStore holds the session user's student profile.
type StudentStore struct {
	api    studentAPI
	logger *zap.Logger

	mu      sync.RWMutex
	profile *models.StudentProfile
	data    *collection[models.StudentProfile]
}

// NewStudentStore constructs a StudentStore.
func NewStudentStore(api studentAPI, logger *zap.Logger) *StudentStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentStore{
		api:    api,
		logger: logger,
		data:   newCollection(func(p models.StudentProfile) int { return p.ID }),
	}
}

// Profile returns the cached own profile, if any.
func (s *StudentStore) Profile() (*models.StudentProfile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.profile == nil {
		return nil, false
	}
	p := *s.profile
	return &p, true
}

// FetchMe loads the session user's profile. A profile that was never
// created yields (nil, nil).
func (s *StudentStore) FetchMe(ctx context.Context) (*models.StudentProfile, error) {
	raw, err := s.api.Me(ctx)
	if err != nil {
		if errors.Is(err, appErrors.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	profile, err := decodeOne[models.StudentProfile](raw)
	if err != nil {
		return nil, err
	}
	s.setProfile(&profile)
	return &profile, nil
}

// UpsertMe creates or updates the profile and keeps the server's copy.
func (s *StudentStore) UpsertMe(ctx context.Context, profile models.StudentProfile) (*models.StudentProfile, error) {
	payload, err := payloadOf(profile)
	if err != nil {
		return nil, err
	}
	raw, err := s.api.UpsertMe(ctx, payload)
	if err != nil {
		return nil, err
	}
	saved, err := decodeOne[models.StudentProfile](raw)
	if err != nil {
		return nil, err
	}
	s.setProfile(&saved)
	return &saved, nil
}

// FetchByID loads another student's profile into the selection.
func (s *StudentStore) FetchByID(ctx context.Context, id int) (models.StudentProfile, error) {
	raw, err := s.api.Get(ctx, id)
	if err != nil {
		return models.StudentProfile{}, err
	}
	profile, err := decodeOne[models.StudentProfile](raw)
	if err != nil {
		return models.StudentProfile{}, err
	}
	s.data.selectItem(profile)
	return profile, nil
}

// Clear forgets every cached profile.
func (s *StudentStore) Clear() {
	s.setProfile(nil)
	s.data.clear()
}

func (s *StudentStore) setProfile(p *models.StudentProfile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profile = p
}
