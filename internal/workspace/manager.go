package workspace

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/matrific/matrific-web/internal/service"
	"github.com/matrific/matrific-web/internal/store"
	"github.com/matrific/matrific-web/internal/wizard"
	"github.com/matrific/matrific-web/pkg/apiclient"
	"github.com/matrific/matrific-web/pkg/casing"
	"github.com/matrific/matrific-web/pkg/debounce"
	"github.com/matrific/matrific-web/pkg/validation"
)

// Cleanup names registered on every session, in run order.
const (
	CleanupWizard      = "wizard"
	CleanupDashboard   = "dashboard"
	CleanupEnrollments = "enrollments"
	CleanupCourses     = "courses"
	CleanupStudents    = "students"
	CleanupProfessors  = "professors"
	CleanupLookups     = "lookups"
)

type workspaceMetrics interface {
	SetWorkspaces(n int)
	RecordForcedLogout()
	RecordSubmission(ok bool)
}

type purger interface {
	Purge(ctx context.Context, ttl time.Duration, live []string) (int, error)
}

// Dependencies are shared by every workspace.
type Dependencies struct {
	API      *apiclient.Client
	Sessions store.SessionRepository
	Cache    *service.CacheService
	Metrics  workspaceMetrics
	Rules    *validation.Rules
	Logger   *zap.Logger
}

// Options tunes workspace creation and eviction.
type Options struct {
	StorageKey  string
	IdleTTL     time.Duration
	RefreshSkew time.Duration
	Debounce    time.Duration
	Flow        wizard.Flow
	Now         func() time.Time
}

// Manager owns the live workspaces.
type Manager struct {
	deps Dependencies
	opts Options

	mu         sync.Mutex
	workspaces map[string]*Workspace
}

// NewManager constructs a manager.
func NewManager(deps Dependencies, opts Options) *Manager {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if opts.StorageKey == "" {
		opts.StorageKey = "auth-storage"
	}
	if opts.IdleTTL <= 0 {
		opts.IdleTTL = 12 * time.Hour
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Manager{deps: deps, opts: opts, workspaces: make(map[string]*Workspace)}
}

// NewID returns a fresh workspace id.
func (m *Manager) NewID() string {
	return uuid.NewString()
}

// ValidID reports whether id could have been issued by NewID.
func ValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// SessionKey is the storage key of the persisted session for id.
func (m *Manager) SessionKey(id string) string {
	return m.opts.StorageKey + "." + id
}

// Open returns the workspace for id, creating it and restoring its persisted
// session on first use. An empty or malformed id gets a new one; callers
// must hand the returned id back to the browser.
func (m *Manager) Open(ctx context.Context, id string) (*Workspace, string, error) {
	if !ValidID(id) {
		id = m.NewID()
	}

	m.mu.Lock()
	ws, ok := m.workspaces[id]
	if !ok {
		ws = m.build(id)
		m.workspaces[id] = ws
	}
	count := len(m.workspaces)
	m.mu.Unlock()

	if !ok {
		m.reportCount(count)
	}
	ws.touch(m.opts.Now())
	if err := ws.restore(ctx); err != nil {
		return ws, id, err
	}
	return ws, id, nil
}

// Lookup returns a live workspace without creating one.
func (m *Manager) Lookup(id string) (*Workspace, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ws, ok := m.workspaces[id]
	return ws, ok
}

// Len returns the number of live workspaces.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.workspaces)
}

// Evict drops a workspace from memory. Whatever session is still persisted
// for id is restored on the next request.
func (m *Manager) Evict(id string) {
	m.mu.Lock()
	ws, ok := m.workspaces[id]
	delete(m.workspaces, id)
	count := len(m.workspaces)
	m.mu.Unlock()
	if ok {
		ws.cities.Cancel()
		m.reportCount(count)
	}
}

// EvictIdle drops workspaces unused for longer than the idle TTL and purges
// expired persisted sessions when the repository supports it. Sessions of
// workspaces still in memory survive the purge.
func (m *Manager) EvictIdle(ctx context.Context) (int, error) {
	cutoff := m.opts.Now().Add(-m.opts.IdleTTL)

	m.mu.Lock()
	idle := make([]*Workspace, 0)
	for id, ws := range m.workspaces {
		if ws.LastSeen().Before(cutoff) {
			idle = append(idle, ws)
			delete(m.workspaces, id)
		}
	}
	count := len(m.workspaces)
	live := make([]string, 0, count)
	for id := range m.workspaces {
		live = append(live, m.SessionKey(id))
	}
	m.mu.Unlock()

	for _, ws := range idle {
		ws.cities.Cancel()
	}
	if len(idle) > 0 {
		m.reportCount(count)
		m.deps.Logger.Info("evicted idle workspaces", zap.Int("evicted", len(idle)), zap.Int("live", count))
	}

	if p, ok := m.deps.Sessions.(purger); ok {
		purged, err := p.Purge(ctx, m.opts.IdleTTL, live)
		if err != nil {
			return len(idle), err
		}
		if purged > 0 {
			m.deps.Logger.Info("purged expired sessions", zap.Int("purged", purged))
		}
	}
	return len(idle), nil
}

func (m *Manager) reportCount(n int) {
	if m.deps.Metrics != nil {
		m.deps.Metrics.SetWorkspaces(n)
	}
}

func (m *Manager) build(id string) *Workspace {
	logger := m.deps.Logger.With(zap.String("workspace_id", id))

	session := store.NewSessionStore(m.deps.Sessions, m.SessionKey(id), store.SessionOptions{
		RefreshSkew: m.opts.RefreshSkew,
		Metrics:     m.deps.Metrics,
		Logger:      logger,
		Now:         m.opts.Now,
	})
	api := m.deps.API.Bind(session, session.ForceLogout)
	session.UseAuth(service.NewAuthService(api, logger))

	courses := store.NewCourseStore(service.NewCourseService(api, logger), logger)
	enrollments := store.NewEnrollmentStore(service.NewEnrollmentService(api, logger), logger)
	students := store.NewStudentStore(service.NewStudentService(api, logger), logger)
	professors := store.NewProfessorStore(service.NewProfessorService(api, logger), logger)
	dashboard := store.NewDashboardStore(courses, enrollments, logger)
	wiz := wizard.New(enrollments, wizard.Options{
		Flow:    m.opts.Flow,
		Rules:   m.deps.Rules,
		Metrics: m.deps.Metrics,
		Logger:  logger,
	})

	ws := &Workspace{
		ID:          id,
		Session:     session,
		Courses:     courses,
		Enrollments: enrollments,
		Students:    students,
		Professors:  professors,
		Dashboard:   dashboard,
		Wizard:      wiz,
		Localities:  service.NewLocalityService(api, m.deps.Cache, logger),
		cities:      debounce.New[casing.Value](m.opts.Debounce),
	}

	session.RegisterCleanup(CleanupWizard, wiz.Reset)
	session.RegisterCleanup(CleanupDashboard, dashboard.Clear)
	session.RegisterCleanup(CleanupEnrollments, enrollments.Clear)
	session.RegisterCleanup(CleanupCourses, courses.Clear)
	session.RegisterCleanup(CleanupStudents, students.Clear)
	session.RegisterCleanup(CleanupProfessors, professors.Clear)
	session.RegisterCleanup(CleanupLookups, ws.cities.Cancel)
	return ws
}
