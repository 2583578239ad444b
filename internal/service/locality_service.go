package service

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/matrific/matrific-web/pkg/casing"
)

const localityCachePrefix = "localidades:"

// LocalityService serves state and municipality lookups, read-through cached.
type LocalityService struct {
	api    apiCaller
	cache  *CacheService
	logger *zap.Logger
}

// NewLocalityService constructs a LocalityService. cache may be nil.
func NewLocalityService(api apiCaller, cache *CacheService, logger *zap.Logger) *LocalityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LocalityService{api: api, cache: cache, logger: logger}
}

// States lists every state.
func (s *LocalityService) States(ctx context.Context) (casing.Value, error) {
	var out casing.Value
	err := s.cache.Remember(ctx, localityCachePrefix+"estados", &out, func(ctx context.Context) error {
		v, err := s.api.Get(ctx, pathStates, nil)
		out = v
		return err
	})
	return out, err
}

// Cities lists municipalities of a state whose name matches search.
func (s *LocalityService) Cities(ctx context.Context, stateID int, search string) (casing.Value, error) {
	search = strings.TrimSpace(search)
	query := url.Values{}
	query.Set("estado_id", strconv.Itoa(stateID))
	if search != "" {
		query.Set("search", search)
	}

	key := fmt.Sprintf("%smunicipios:%d:%s", localityCachePrefix, stateID, strings.ToLower(search))
	var out casing.Value
	err := s.cache.Remember(ctx, key, &out, func(ctx context.Context) error {
		v, err := s.api.Get(ctx, pathCities, query)
		out = v
		return err
	})
	return out, err
}
