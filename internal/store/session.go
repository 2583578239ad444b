package store

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/matrific/matrific-web/internal/models"
	"github.com/matrific/matrific-web/pkg/casing"
	appErrors "github.com/matrific/matrific-web/pkg/errors"
)

// SessionRepository persists a session state under a key.
type SessionRepository interface {
	Load(ctx context.Context, key string) (*models.SessionState, error)
	Save(ctx context.Context, key string, state models.SessionState) error
	Delete(ctx context.Context, key string) error
}

type authAPI interface {
	ObtainTokens(ctx context.Context, email, password string) (casing.Value, error)
	RefreshTokens(ctx context.Context, refresh string) (casing.Value, error)
	Me(ctx context.Context) (casing.Value, error)
	Logout(ctx context.Context, refresh string) error
}

type logoutRecorder interface {
	RecordForcedLogout()
}

type cleanup struct {
	name string
	fn   func()
}

// SessionOptions tunes a SessionStore.
type SessionOptions struct {
	// RefreshSkew refreshes access tokens expiring within this window.
	RefreshSkew time.Duration
	Metrics     logoutRecorder
	Logger      *zap.Logger
	Now         func() time.Time
}

// SessionStore owns the tokens and user of one browser session. It is the
// only place that clears dependent state: logout runs every registered
// cleanup in registration order.
type SessionStore struct {
	repo    SessionRepository
	key     string
	auth    authAPI
	skew    time.Duration
	metrics logoutRecorder
	logger  *zap.Logger
	now     func() time.Time

	mu       sync.RWMutex
	state    models.SessionState
	cleanups []cleanup

	refreshMu sync.Mutex
}

// NewSessionStore constructs an anonymous session persisted under key.
func NewSessionStore(repo SessionRepository, key string, opts SessionOptions) *SessionStore {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.RefreshSkew <= 0 {
		opts.RefreshSkew = 30 * time.Second
	}
	return &SessionStore{
		repo:    repo,
		key:     key,
		skew:    opts.RefreshSkew,
		metrics: opts.Metrics,
		logger:  opts.Logger.With(zap.String("session_key", key)),
		now:     opts.Now,
	}
}

// UseAuth sets the identity API. The API client is itself bound to this
// store as token source, so the two are wired after construction.
func (s *SessionStore) UseAuth(auth authAPI) {
	s.auth = auth
}

// RegisterCleanup appends fn to the callbacks run on logout.
func (s *SessionStore) RegisterCleanup(name string, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cleanups = append(s.cleanups, cleanup{name: name, fn: fn})
}

// CleanupNames lists registered cleanups in run order.
func (s *SessionStore) CleanupNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, len(s.cleanups))
	for i, c := range s.cleanups {
		names[i] = c.name
	}
	return names
}

// AccessToken implements the API client's token source.
func (s *SessionStore) AccessToken() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Tokens.Access, s.state.Tokens.Access != ""
}

// State returns a copy of the current state.
func (s *SessionStore) State() models.SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := s.state
	if st.User != nil {
		u := *st.User
		u.Groups = append([]string(nil), st.User.Groups...)
		st.User = &u
	}
	return st
}

// User returns a copy of the current user, nil when anonymous.
func (s *SessionStore) User() *models.User {
	return s.State().User
}

// IsAuthenticated reports whether a user is logged in.
func (s *SessionStore) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Authenticated
}

// Restore loads the persisted state. A missing or unreadable entry leaves
// the session anonymous.
func (s *SessionStore) Restore(ctx context.Context) error {
	state, err := s.repo.Load(ctx, s.key)
	if err != nil {
		s.logger.Warn("session restore failed", zap.Error(err))
		return err
	}
	if state == nil {
		return nil
	}
	if state.Authenticated && (state.User == nil || state.Tokens.Access == "") {
		s.logger.Warn("discarding inconsistent persisted session")
		return s.repo.Delete(ctx, s.key)
	}
	s.mu.Lock()
	s.state = *state
	s.mu.Unlock()
	return nil
}

// Login exchanges credentials for tokens, then loads the user.
func (s *SessionStore) Login(ctx context.Context, email, password string) (*models.User, error) {
	s.logger.Info("login in_progress", zap.String("email", email))
	raw, err := s.auth.ObtainTokens(ctx, strings.TrimSpace(email), password)
	if err != nil {
		s.logger.Info("login failure", zap.String("email", email), zap.Error(err))
		return nil, err
	}
	tokens, err := decodeOne[models.Tokens](raw)
	if err != nil {
		return nil, err
	}
	if tokens.Access == "" {
		return nil, appErrors.Clone(appErrors.ErrUpstream, "token response without access token")
	}

	s.mu.Lock()
	s.state = models.SessionState{Tokens: tokens}
	s.mu.Unlock()

	user, err := s.fetchUser(ctx)
	if err != nil {
		s.mu.Lock()
		s.state = models.SessionState{}
		s.mu.Unlock()
		return nil, err
	}

	s.mu.Lock()
	s.state.User = user
	s.state.Authenticated = true
	s.mu.Unlock()

	if err := s.persist(ctx); err != nil {
		return nil, err
	}
	s.logger.Info("login success", zap.Int("user_id", user.ID))
	return s.User(), nil
}

// RefreshUser reloads the current user, e.g. after profile completion.
func (s *SessionStore) RefreshUser(ctx context.Context) (*models.User, error) {
	if !s.IsAuthenticated() {
		return nil, appErrors.ErrUnauthorized
	}
	user, err := s.fetchUser(ctx)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.state.User = user
	s.mu.Unlock()
	if err := s.persist(ctx); err != nil {
		return nil, err
	}
	return s.User(), nil
}

// RefreshAccess trades the refresh token for a new access token. A rejected
// refresh token ends the session.
func (s *SessionStore) RefreshAccess(ctx context.Context) error {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	s.mu.RLock()
	refresh := s.state.Tokens.Refresh
	s.mu.RUnlock()
	if refresh == "" {
		return appErrors.ErrUnauthorized
	}

	raw, err := s.auth.RefreshTokens(ctx, refresh)
	if err != nil {
		if appErrors.StatusOf(err) == appErrors.ErrUnauthorized.Status {
			s.ForceLogout(ctx)
			return appErrors.ErrSessionExpired
		}
		return err
	}
	tokens, err := decodeOne[models.Tokens](raw)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.state.Tokens.Access = tokens.Access
	if tokens.Refresh != "" {
		s.state.Tokens.Refresh = tokens.Refresh
	}
	s.mu.Unlock()
	return s.persist(ctx)
}

// EnsureFresh refreshes the access token when it expires within the skew.
func (s *SessionStore) EnsureFresh(ctx context.Context) error {
	if !s.IsAuthenticated() {
		return nil
	}
	token, _ := s.AccessToken()
	exp, ok := tokenExpiry(token)
	if !ok || exp.Sub(s.now()) > s.skew {
		return nil
	}
	s.logger.Debug("access token near expiry, refreshing", zap.Time("exp", exp))
	return s.RefreshAccess(ctx)
}

// Logout invalidates the refresh token remotely (best effort) and clears
// the session.
func (s *SessionStore) Logout(ctx context.Context) error {
	s.mu.RLock()
	refresh := s.state.Tokens.Refresh
	s.mu.RUnlock()

	if refresh != "" && s.auth != nil {
		if err := s.auth.Logout(ctx, refresh); err != nil && !errors.Is(err, appErrors.ErrSessionExpired) {
			s.logger.Warn("remote logout failed", zap.Error(err))
		}
	}
	return s.clear(ctx)
}

// ForceLogout clears the session without calling the API. It is the
// unauthorized hook of the bound API client.
func (s *SessionStore) ForceLogout(ctx context.Context) {
	if !s.IsAuthenticated() {
		return
	}
	s.logger.Info("forced logout")
	if s.metrics != nil {
		s.metrics.RecordForcedLogout()
	}
	if err := s.clear(ctx); err != nil {
		s.logger.Warn("forced logout cleanup failed", zap.Error(err))
	}
}

func (s *SessionStore) clear(ctx context.Context) error {
	s.mu.Lock()
	s.state = models.SessionState{}
	callbacks := make([]cleanup, len(s.cleanups))
	copy(callbacks, s.cleanups)
	s.mu.Unlock()

	for _, c := range callbacks {
		c.fn()
	}
	if err := s.repo.Delete(ctx, s.key); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear session")
	}
	return nil
}

func (s *SessionStore) fetchUser(ctx context.Context) (*models.User, error) {
	raw, err := s.auth.Me(ctx)
	if err != nil {
		return nil, err
	}
	user, err := decodeOne[models.User](raw)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *SessionStore) persist(ctx context.Context) error {
	if err := s.repo.Save(ctx, s.key, s.State()); err != nil {
		s.logger.Warn("session persist failed", zap.Error(err))
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist session")
	}
	return nil
}

// tokenExpiry reads the exp claim without verifying the signature; the API
// remains the authority on validity.
func tokenExpiry(token string) (time.Time, bool) {
	if token == "" {
		return time.Time{}, false
	}
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return time.Time{}, false
	}
	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
