package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matrific/matrific-web/internal/models"
	"github.com/matrific/matrific-web/internal/repository"
	"github.com/matrific/matrific-web/internal/workspace"
	"github.com/matrific/matrific-web/pkg/apiclient"
)

const cookieName = "matrific_sid"

type guardFixture struct {
	router   *gin.Engine
	manager  *workspace.Manager
	sessions *repository.MemorySessionRepository
}

func newGuardFixture(t *testing.T) *guardFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	sessions := repository.NewMemorySessionRepository()
	manager := workspace.NewManager(workspace.Dependencies{
		API:      apiclient.New("http://127.0.0.1:1", time.Second),
		Sessions: sessions,
	}, workspace.Options{})

	ok := func(c *gin.Context) { c.Status(http.StatusOK) }
	router := gin.New()
	router.Use(Session(manager, CookieConfig{Name: cookieName, MaxAge: time.Hour}, nil))
	authed := router.Group("/", RequireAuth(), RequireCompleteProfile(ProfileCompletePath))
	authed.GET("/dashboard", ok)
	authed.GET("/completar-perfil", ok)
	authed.GET("/professores", RequireGroups(models.GroupCoordinator), ok)

	return &guardFixture{router: router, manager: manager, sessions: sessions}
}

func (f *guardFixture) login(t *testing.T, user *models.User) string {
	t.Helper()
	id := f.manager.NewID()
	require.NoError(t, f.sessions.Save(context.Background(), f.manager.SessionKey(id), models.SessionState{
		User:          user,
		Tokens:        models.Tokens{Access: "opaque", Refresh: "opaque"},
		Authenticated: true,
	}))
	return id
}

func (f *guardFixture) get(path, sid string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if sid != "" {
		req.AddCookie(&http.Cookie{Name: cookieName, Value: sid})
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func TestAnonymousIsSentToLoginWithNext(t *testing.T) {
	f := newGuardFixture(t)

	rec := f.get("/dashboard?aba=cursos", "")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login?next=%2Fdashboard%3Faba%3Dcursos", rec.Header().Get("Location"))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, cookieName, cookies[0].Name)
	assert.True(t, workspace.ValidID(cookies[0].Value))
	assert.True(t, cookies[0].HttpOnly)
}

func TestIncompleteStudentIsSentToCompletion(t *testing.T) {
	f := newGuardFixture(t)
	sid := f.login(t, &models.User{ID: 1, Groups: []string{"aluno"}, ProfileComplete: false})

	rec := f.get("/dashboard", sid)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, ProfileCompletePath, rec.Header().Get("Location"))
	assert.Empty(t, rec.Result().Cookies(), "known session keeps its cookie")

	rec = f.get("/completar-perfil", sid)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestProfileGateIgnoresStaff(t *testing.T) {
	f := newGuardFixture(t)
	sid := f.login(t, &models.User{ID: 2, Groups: []string{"PROFESSOR"}, ProfileComplete: false})

	assert.Equal(t, http.StatusOK, f.get("/dashboard", sid).Code)
}

func TestRequireGroups(t *testing.T) {
	f := newGuardFixture(t)
	student := f.login(t, &models.User{ID: 1, Groups: []string{"ALUNO"}, ProfileComplete: true})
	coordinator := f.login(t, &models.User{ID: 3, Groups: []string{"cca"}})

	assert.Equal(t, http.StatusForbidden, f.get("/professores", student).Code)
	assert.Equal(t, http.StatusOK, f.get("/professores", coordinator).Code)
}

func TestLoginRedirect(t *testing.T) {
	assert.Equal(t, LoginPath, LoginRedirect(""))
	assert.Equal(t, LoginPath, LoginRedirect(LoginPath))
	assert.Equal(t, "/login?next=%2Fcursos%2F3", LoginRedirect("/cursos/3"))
}
