package workspace

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matrific/matrific-web/internal/models"
	"github.com/matrific/matrific-web/internal/repository"
	"github.com/matrific/matrific-web/pkg/apiclient"
	"github.com/matrific/matrific-web/pkg/debounce"
	appErrors "github.com/matrific/matrific-web/pkg/errors"
)

type fakeMetrics struct {
	mu         sync.Mutex
	workspaces int
	forced     int
}

func (f *fakeMetrics) SetWorkspaces(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.workspaces = n
}

func (f *fakeMetrics) RecordForcedLogout() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.forced++
}

func (f *fakeMetrics) RecordSubmission(bool) {}

type purgingRepo struct {
	*repository.MemorySessionRepository
	purged int32
	live   []string
}

func (p *purgingRepo) Purge(ctx context.Context, ttl time.Duration, live []string) (int, error) {
	atomic.AddInt32(&p.purged, 1)
	p.live = live
	return 0, nil
}

// flakyRepo fails its first loads, as many as failures.
type flakyRepo struct {
	*repository.MemorySessionRepository
	failures int32
}

func (f *flakyRepo) Load(ctx context.Context, key string) (*models.SessionState, error) {
	if atomic.AddInt32(&f.failures, -1) >= 0 {
		return nil, errors.New("connection reset")
	}
	return f.MemorySessionRepository.Load(ctx, key)
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestManager(t *testing.T, handler http.Handler, sessions *repository.MemorySessionRepository) (*Manager, *fakeMetrics, *clock) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	metrics := &fakeMetrics{}
	clk := &clock{now: time.Date(2026, time.October, 18, 8, 0, 0, 0, time.UTC)}
	manager := NewManager(Dependencies{
		API:      apiclient.New(server.URL, time.Second),
		Sessions: sessions,
		Metrics:  metrics,
	}, Options{IdleTTL: time.Hour, Debounce: 20 * time.Millisecond, Now: clk.Now})
	return manager, metrics, clk
}

func authenticatedState() models.SessionState {
	return models.SessionState{
		User:          &models.User{ID: 1, Email: "ana@ufc.br", Groups: []string{"ALUNO"}},
		Tokens:        models.Tokens{Access: "opaque-access", Refresh: "opaque-refresh"},
		Authenticated: true,
	}
}

func TestOpenIssuesIDAndReusesWorkspace(t *testing.T) {
	manager, metrics, _ := newTestManager(t, http.NotFoundHandler(), repository.NewMemorySessionRepository())

	ws, id, err := manager.Open(context.Background(), "not-a-uuid")
	require.NoError(t, err)
	assert.True(t, ValidID(id))
	assert.Equal(t, id, ws.ID)

	again, sameID, err := manager.Open(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, id, sameID)
	assert.Same(t, ws, again)
	assert.Equal(t, 1, manager.Len())
	assert.Equal(t, 1, metrics.workspaces)
}

func TestOpenRestoresPersistedSession(t *testing.T) {
	sessions := repository.NewMemorySessionRepository()
	manager, _, _ := newTestManager(t, http.NotFoundHandler(), sessions)
	id := manager.NewID()
	require.NoError(t, sessions.Save(context.Background(), manager.SessionKey(id), authenticatedState()))

	ws, _, err := manager.Open(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, ws.Session.IsAuthenticated())
	assert.Equal(t, "auth-storage."+id, manager.SessionKey(id))
}

func TestCleanupsRegisteredInOrder(t *testing.T) {
	manager, _, _ := newTestManager(t, http.NotFoundHandler(), repository.NewMemorySessionRepository())
	ws, _, err := manager.Open(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, []string{
		CleanupWizard, CleanupDashboard, CleanupEnrollments, CleanupCourses,
		CleanupStudents, CleanupProfessors, CleanupLookups,
	}, ws.Session.CleanupNames())
}

func TestUnauthorizedResponseForcesLogout(t *testing.T) {
	sessions := repository.NewMemorySessionRepository()
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer opaque-access", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusUnauthorized)
	})
	manager, metrics, _ := newTestManager(t, handler, sessions)
	id := manager.NewID()
	require.NoError(t, sessions.Save(context.Background(), manager.SessionKey(id), authenticatedState()))

	ws, _, err := manager.Open(context.Background(), id)
	require.NoError(t, err)
	require.True(t, ws.Session.IsAuthenticated())

	_, err = ws.Courses.FetchAll(context.Background())
	assert.True(t, errors.Is(err, appErrors.ErrSessionExpired))
	assert.False(t, ws.Session.IsAuthenticated())
	assert.Equal(t, 1, metrics.forced)

	persisted, err := sessions.Load(context.Background(), manager.SessionKey(id))
	require.NoError(t, err)
	assert.Nil(t, persisted)
}

func TestEvictIdle(t *testing.T) {
	repo := &purgingRepo{MemorySessionRepository: repository.NewMemorySessionRepository()}
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()
	clk := &clock{now: time.Date(2026, time.October, 18, 8, 0, 0, 0, time.UTC)}
	metrics := &fakeMetrics{}
	manager := NewManager(Dependencies{
		API:      apiclient.New(server.URL, time.Second),
		Sessions: repo,
		Metrics:  metrics,
	}, Options{IdleTTL: time.Hour, Now: clk.Now})

	_, stale, err := manager.Open(context.Background(), "")
	require.NoError(t, err)
	clk.advance(50 * time.Minute)
	_, fresh, err := manager.Open(context.Background(), "")
	require.NoError(t, err)
	clk.advance(20 * time.Minute)

	evicted, err := manager.EvictIdle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, evicted)
	_, ok := manager.Lookup(stale)
	assert.False(t, ok)
	_, ok = manager.Lookup(fresh)
	assert.True(t, ok)
	assert.Equal(t, 1, metrics.workspaces)
	assert.Equal(t, int32(1), atomic.LoadInt32(&repo.purged))
	assert.Equal(t, []string{manager.SessionKey(fresh)}, repo.live)
}

func TestEvictDropsWorkspace(t *testing.T) {
	manager, metrics, _ := newTestManager(t, http.NotFoundHandler(), repository.NewMemorySessionRepository())
	ws, id, err := manager.Open(context.Background(), "")
	require.NoError(t, err)

	manager.Evict(id)
	_, ok := manager.Lookup(id)
	assert.False(t, ok)
	assert.Equal(t, 0, metrics.workspaces)

	again, _, err := manager.Open(context.Background(), id)
	require.NoError(t, err)
	assert.NotSame(t, ws, again)
}

func TestOpenRetriesFailedRestore(t *testing.T) {
	repo := &flakyRepo{MemorySessionRepository: repository.NewMemorySessionRepository(), failures: 1}
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()
	manager := NewManager(Dependencies{
		API:      apiclient.New(server.URL, time.Second),
		Sessions: repo,
	}, Options{IdleTTL: time.Hour})
	id := manager.NewID()
	require.NoError(t, repo.Save(context.Background(), manager.SessionKey(id), authenticatedState()))

	ws, _, err := manager.Open(context.Background(), id)
	require.Error(t, err)
	assert.False(t, ws.Session.IsAuthenticated())

	again, _, err := manager.Open(context.Background(), id)
	require.NoError(t, err)
	assert.Same(t, ws, again)
	assert.True(t, again.Session.IsAuthenticated())
}

func TestSearchCitiesOnlyLastCallReachesAPI(t *testing.T) {
	var calls int32
	var lastSearch atomic.Value
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		lastSearch.Store(r.URL.Query().Get("search"))
		assert.Equal(t, "6", r.URL.Query().Get("estado_id"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":2304400,"nome":"Fortaleza","estado":6}]`))
	})
	manager, _, _ := newTestManager(t, handler, repository.NewMemorySessionRepository())
	ws, _, err := manager.Open(context.Background(), "")
	require.NoError(t, err)

	first := make(chan error, 1)
	go func() {
		_, err := ws.SearchCities(context.Background(), 6, "for")
		first <- err
	}()
	time.Sleep(5 * time.Millisecond)

	result, err := ws.SearchCities(context.Background(), 6, "forta")
	require.NoError(t, err)
	require.Len(t, result.Items(), 1)

	assert.True(t, errors.Is(<-first, debounce.ErrSuperseded))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Equal(t, "forta", lastSearch.Load())
}
