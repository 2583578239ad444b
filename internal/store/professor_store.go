package store

import (
	"context"

	"go.uber.org/zap"

	"github.com/matrific/matrific-web/internal/models"
	"github.com/matrific/matrific-web/pkg/casing"
)

type professorAPI interface {
	List(ctx context.Context) (casing.Value, error)
	Get(ctx context.Context, id int) (casing.Value, error)
	Create(ctx context.Context, payload casing.Value) (casing.Value, error)
	Update(ctx context.Context, id int, payload casing.Value) (casing.Value, error)
}

// ProfessorStore caches professors managed by the coordination.
type ProfessorStore struct {
	api    professorAPI
	logger *zap.Logger
	data   *collection[models.Professor]
}

// NewProfessorStore constructs a ProfessorStore.
func NewProfessorStore(api professorAPI, logger *zap.Logger) *ProfessorStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProfessorStore{
		api:    api,
		logger: logger,
		data:   newCollection(func(p models.Professor) int { return p.ID }),
	}
}

// Items returns a copy of the cached list.
func (s *ProfessorStore) Items() []models.Professor { return s.data.list() }

// Selected returns the professor last loaded by FetchByID.
func (s *ProfessorStore) Selected() (models.Professor, bool) { return s.data.current() }

// FetchAll replaces the list with the server listing.
func (s *ProfessorStore) FetchAll(ctx context.Context) ([]models.Professor, error) {
	raw, err := s.api.List(ctx)
	if err != nil {
		return nil, err
	}
	items, err := decodeList[models.Professor](raw)
	if err != nil {
		return nil, err
	}
	s.data.replace(items)
	return items, nil
}

// FetchByID loads one professor into the selection.
func (s *ProfessorStore) FetchByID(ctx context.Context, id int) (models.Professor, error) {
	raw, err := s.api.Get(ctx, id)
	if err != nil {
		return models.Professor{}, err
	}
	item, err := decodeOne[models.Professor](raw)
	if err != nil {
		return models.Professor{}, err
	}
	s.data.selectItem(item)
	return item, nil
}

func (s *ProfessorStore) Create(ctx context.Context, in models.ProfessorInput) (models.Professor, error) {
	return s.save(in, func(payload casing.Value) (casing.Value, error) {
		return s.api.Create(ctx, payload)
	})
}

func (s *ProfessorStore) Update(ctx context.Context, id int, in models.ProfessorInput) (models.Professor, error) {
	return s.save(in, func(payload casing.Value) (casing.Value, error) {
		return s.api.Update(ctx, id, payload)
	})
}

func (s *ProfessorStore) save(in models.ProfessorInput, send func(casing.Value) (casing.Value, error)) (models.Professor, error) {
	payload, err := payloadOf(in)
	if err != nil {
		return models.Professor{}, err
	}
	raw, err := send(payload)
	if err != nil {
		return models.Professor{}, err
	}
	item, err := decodeOne[models.Professor](raw)
	if err != nil {
		return models.Professor{}, err
	}
	s.data.upsert(item)
	return item, nil
}

// Clear drops the list and selection.
func (s *ProfessorStore) Clear() { s.data.clear() }
