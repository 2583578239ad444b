package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/matrific/matrific-web/internal/middleware"
	"github.com/matrific/matrific-web/internal/models"
	"github.com/matrific/matrific-web/internal/repository"
	"github.com/matrific/matrific-web/internal/workspace"
	"github.com/matrific/matrific-web/pkg/apiclient"
	"github.com/matrific/matrific-web/pkg/export"
	"github.com/matrific/matrific-web/pkg/validation"
)

const testCookie = "matrific_sid"

type responseEnvelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Meta map[string]json.RawMessage `json:"meta"`
}

// fakeAPI records the calls the BFF makes to the MatriFIC API.
type fakeAPI struct {
	mu     sync.Mutex
	mux    *http.ServeMux
	calls  []string
	bodies map[string][]byte
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{mux: http.NewServeMux(), bodies: map[string][]byte{}}
}

func (f *fakeAPI) handle(pattern string, status int, body string) {
	f.mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	})
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	raw, _ := io.ReadAll(r.Body)
	r.Body = io.NopCloser(bytes.NewReader(raw))
	f.mu.Lock()
	f.calls = append(f.calls, r.Method+" "+r.URL.Path)
	f.bodies[r.Method+" "+r.URL.Path] = raw
	f.mu.Unlock()
	f.mux.ServeHTTP(w, r)
}

func (f *fakeAPI) called(call string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.calls {
		if c == call {
			return true
		}
	}
	return false
}

func (f *fakeAPI) body(call string) []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.bodies[call]
}

type handlerFixture struct {
	api      *fakeAPI
	router   *gin.Engine
	manager  *workspace.Manager
	sessions *repository.MemorySessionRepository
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	api := newFakeAPI()
	server := httptest.NewServer(api)
	t.Cleanup(server.Close)

	now := func() time.Time { return time.Date(2026, time.October, 18, 9, 0, 0, 0, time.UTC) }
	limits := validation.FileLimits{MaxFiles: 3, MaxFileSize: 1024}
	sessions := repository.NewMemorySessionRepository()
	manager := workspace.NewManager(workspace.Dependencies{
		API:      apiclient.New(server.URL, time.Second),
		Sessions: sessions,
		Rules:    validation.NewRules(limits, now),
	}, workspace.Options{Debounce: 5 * time.Millisecond})

	validate := validation.NewValidator(now)
	auth := NewAuthHandler(validate, manager, nil)
	courses := NewCourseHandler(validate, export.NewCSVExporter(), export.NewPDFExporter(), nil)
	enrollments := NewEnrollmentHandler(validate, export.NewPDFExporter(), nil)
	wizardHandler := NewWizardHandler(validate, limits, nil)
	professors := NewProfessorHandler(validate, nil)
	localities := NewLocalityHandler()
	profile := NewProfileHandler(validate, nil)

	router := gin.New()
	router.Use(middleware.Session(manager, middleware.CookieConfig{Name: testCookie, MaxAge: time.Hour}, nil))
	router.POST("/login", auth.Login)

	authed := router.Group("/", middleware.RequireAuth())
	authed.POST("/logout", auth.Logout)
	authed.GET("/menu", auth.Menu)
	authed.POST(middleware.ProfileCompletePath, profile.Submit)
	authed.GET("/cursos", courses.List)
	authed.DELETE("/cursos/:id", courses.Delete)
	authed.GET("/cursos/:id/inscricoes/export", courses.ExportApplicants)
	authed.GET("/inscricoes", enrollments.List)
	authed.POST("/inscricoes/:id/validar", enrollments.Validate)
	authed.GET("/inscricao", wizardHandler.State)
	authed.PUT("/inscricao/form", wizardHandler.UpdateForm)
	authed.POST("/inscricao/vaga", wizardHandler.SelectVacancy)
	authed.POST("/inscricao/arquivos", wizardHandler.AddFiles)
	authed.DELETE("/inscricao/arquivos/:index", wizardHandler.RemoveFile)
	authed.POST("/inscricao/next", wizardHandler.Next)
	authed.POST("/inscricao/prev", wizardHandler.Prev)
	authed.POST("/inscricao/submit", wizardHandler.Submit)
	authed.POST("/professores", professors.Create)
	authed.GET("/localidades/municipios", localities.Cities)

	return &handlerFixture{api: api, router: router, manager: manager, sessions: sessions}
}

// login stores an authenticated session and returns its cookie value.
func (f *handlerFixture) login(t *testing.T, groups ...string) string {
	t.Helper()
	id := f.manager.NewID()
	require.NoError(t, f.sessions.Save(context.Background(), f.manager.SessionKey(id), models.SessionState{
		User:          &models.User{ID: 7, Email: "ana@ufc.br", FirstName: "Ana", Groups: groups, ProfileComplete: true},
		Tokens:        models.Tokens{Access: "opaque-access", Refresh: "opaque-refresh"},
		Authenticated: true,
	}))
	return id
}

func (f *handlerFixture) do(t *testing.T, method, path, sid string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return f.send(req, sid)
}

func (f *handlerFixture) send(req *http.Request, sid string) *httptest.ResponseRecorder {
	if sid != "" {
		req.AddCookie(&http.Cookie{Name: testCookie, Value: sid})
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) responseEnvelope {
	t.Helper()
	var env responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func metaString(t *testing.T, env responseEnvelope, key string) string {
	t.Helper()
	raw, ok := env.Meta[key]
	require.True(t, ok, "meta.%s missing", key)
	var out string
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func metaFields(t *testing.T, env responseEnvelope) map[string]bool {
	t.Helper()
	raw, ok := env.Meta["fields"]
	require.True(t, ok, "meta.fields missing")
	var fields []struct {
		Field string `json:"field"`
	}
	require.NoError(t, json.Unmarshal(raw, &fields))
	out := make(map[string]bool, len(fields))
	for _, f := range fields {
		out[f.Field] = true
	}
	return out
}
