package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/matrific/matrific-web/pkg/casing"
)

// AuthService talks to the token and identity endpoints.
type AuthService struct {
	api    apiCaller
	logger *zap.Logger
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(api apiCaller, logger *zap.Logger) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{api: api, logger: logger}
}

// ObtainTokens exchanges credentials for an access/refresh pair.
func (s *AuthService) ObtainTokens(ctx context.Context, email, password string) (casing.Value, error) {
	return s.api.Post(ctx, pathToken, casing.Map(
		casing.Field("email", casing.Prim(email)),
		casing.Field("password", casing.Prim(password)),
	))
}

// RefreshTokens trades a refresh token for a new access token.
func (s *AuthService) RefreshTokens(ctx context.Context, refresh string) (casing.Value, error) {
	return s.api.Post(ctx, pathRefresh, casing.Map(casing.Field("refresh", casing.Prim(refresh))))
}

// Me returns the authenticated user.
func (s *AuthService) Me(ctx context.Context) (casing.Value, error) {
	return s.api.Get(ctx, pathMe, nil)
}

// Logout invalidates refresh server-side.
func (s *AuthService) Logout(ctx context.Context, refresh string) error {
	_, err := s.api.Post(ctx, pathLogout, casing.Map(casing.Field("refresh", casing.Prim(refresh))))
	return err
}
