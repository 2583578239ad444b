package service

import (
	"context"
	"encoding/json"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matrific/matrific-web/internal/models"
	"github.com/matrific/matrific-web/internal/repository"
	"github.com/matrific/matrific-web/pkg/casing"
	appErrors "github.com/matrific/matrific-web/pkg/errors"
)

type recordedCall struct {
	method string
	path   string
	query  url.Values
	body   casing.Value
}

type fakeAPI struct {
	calls    []recordedCall
	response casing.Value
	err      error
}

func (f *fakeAPI) record(method, path string, query url.Values, body casing.Value) (casing.Value, error) {
	f.calls = append(f.calls, recordedCall{method: method, path: path, query: query, body: body})
	return f.response, f.err
}

func (f *fakeAPI) Get(ctx context.Context, path string, query url.Values) (casing.Value, error) {
	return f.record("GET", path, query, casing.Null())
}

func (f *fakeAPI) Post(ctx context.Context, path string, body casing.Value) (casing.Value, error) {
	return f.record("POST", path, nil, body)
}

func (f *fakeAPI) Patch(ctx context.Context, path string, body casing.Value) (casing.Value, error) {
	return f.record("PATCH", path, nil, body)
}

func (f *fakeAPI) Delete(ctx context.Context, path string) error {
	_, err := f.record("DELETE", path, nil, casing.Null())
	return err
}

func (f *fakeAPI) PostMultipart(ctx context.Context, path string, body casing.Value) (casing.Value, error) {
	return f.record("MULTIPART", path, nil, body)
}

func (f *fakeAPI) last() recordedCall {
	return f.calls[len(f.calls)-1]
}

func TestCourseServiceConvertsPayloadAtBoundary(t *testing.T) {
	api := &fakeAPI{}
	svc := NewCourseService(api, nil)

	_, err := svc.Create(context.Background(), casing.Map(
		casing.Field("nome", casing.Prim("Go")),
		casing.Field("vagasInternas", casing.Prim(json.Number("10"))),
	))
	require.NoError(t, err)
	assert.Equal(t, "/cursos/", api.last().path)
	assert.Equal(t, []string{"nome", "vagas_internas"}, api.last().body.Keys())

	_, err = svc.Update(context.Background(), 7, casing.Map(casing.Field("dataFimCurso", casing.Prim("2026-12-01"))))
	require.NoError(t, err)
	assert.Equal(t, "PATCH", api.last().method)
	assert.Equal(t, "/cursos/7/", api.last().path)
	assert.Equal(t, []string{"data_fim_curso"}, api.last().body.Keys())

	require.NoError(t, svc.Delete(context.Background(), 7))
	assert.Equal(t, "DELETE", api.last().method)
}

func TestEnrollmentServiceListQueryAndValidate(t *testing.T) {
	api := &fakeAPI{}
	svc := NewEnrollmentService(api, nil)

	_, err := svc.List(context.Background(), models.EnrollmentFilter{CourseID: "3", Status: models.EnrollmentStatusConfirmed})
	require.NoError(t, err)
	assert.Equal(t, "/inscricoes-aluno/", api.last().path)
	assert.Equal(t, "3", api.last().query.Get("curso_id"))
	assert.Equal(t, "CONFIRMADA", api.last().query.Get("status"))

	_, err = svc.List(context.Background(), models.EnrollmentFilter{})
	require.NoError(t, err)
	assert.Empty(t, api.last().query)

	_, err = svc.Validate(context.Background(), 5, models.EnrollmentDecision{Approve: false, RejectionReason: "Documento ilegível"})
	require.NoError(t, err)
	call := api.last()
	assert.Equal(t, "/inscricoes-aluno/5/validar/", call.path)
	assert.Equal(t, []string{"aprovar", "motivo_recusa"}, call.body.Keys())
	reason, _ := call.body.Get("motivo_recusa")
	assert.Equal(t, "Documento ilegível", reason.String())
}

func TestEnrollmentServiceCreateIsMultipart(t *testing.T) {
	api := &fakeAPI{}
	svc := NewEnrollmentService(api, nil)

	_, err := svc.Create(context.Background(), casing.Map(
		casing.Field("cursoId", casing.Prim("3")),
		casing.Field("arquivosUpload", casing.Seq(casing.Opaque([]byte("pdf")))),
	))
	require.NoError(t, err)
	assert.Equal(t, "MULTIPART", api.last().method)
	assert.Equal(t, []string{"curso_id", "arquivos_upload"}, api.last().body.Keys())
}

func TestAuthServiceEndpoints(t *testing.T) {
	api := &fakeAPI{}
	svc := NewAuthService(api, nil)
	ctx := context.Background()

	_, _ = svc.ObtainTokens(ctx, "ana@ufc.br", "secret")
	assert.Equal(t, "/token/", api.last().path)
	_, _ = svc.RefreshTokens(ctx, "r1")
	assert.Equal(t, "/token/refresh/", api.last().path)
	_, _ = svc.Me(ctx)
	assert.Equal(t, "/me/", api.last().path)
	require.NoError(t, svc.Logout(ctx, "r1"))
	assert.Equal(t, "/logout/", api.last().path)
	refresh, _ := api.last().body.Get("refresh")
	assert.Equal(t, "r1", refresh.String())
}

type memoryCacheRepo struct {
	data map[string][]byte
	gets int
}

func (m *memoryCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	m.gets++
	raw, ok := m.data[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.data[key] = raw
	return nil
}

var _ CacheRepository = (*repository.CacheRepository)(nil)

func TestLocalityServiceCachesLookups(t *testing.T) {
	states, err := casing.FromJSON([]byte(`[{"id": 6, "nome": "Ceará", "sigla": "CE"}]`))
	require.NoError(t, err)
	api := &fakeAPI{response: states}
	repo := &memoryCacheRepo{data: map[string][]byte{}}
	metrics := NewMetricsService()
	cache := NewCacheService(repo, metrics, time.Hour, nil, true)
	svc := NewLocalityService(api, cache, nil)

	first, err := svc.States(context.Background())
	require.NoError(t, err)
	second, err := svc.States(context.Background())
	require.NoError(t, err)

	assert.Len(t, api.calls, 1)
	assert.Equal(t, first.Any(), second.Any())
	assert.Equal(t, uint64(1), metrics.Snapshot().CacheHits)

	_, err = svc.Cities(context.Background(), 6, "  Fort ")
	require.NoError(t, err)
	assert.Equal(t, "/municipios/", api.last().path)
	assert.Equal(t, "6", api.last().query.Get("estado_id"))
	assert.Equal(t, "Fort", api.last().query.Get("search"))
	_, ok := repo.data["localidades:municipios:6:fort"]
	assert.True(t, ok)
}

func TestLocalityServiceWithoutCache(t *testing.T) {
	api := &fakeAPI{response: casing.Seq()}
	svc := NewLocalityService(api, nil, nil)

	_, err := svc.States(context.Background())
	require.NoError(t, err)
	_, err = svc.States(context.Background())
	require.NoError(t, err)
	assert.Len(t, api.calls, 2)
}

func TestCacheServiceRememberPropagatesLoadError(t *testing.T) {
	repo := &memoryCacheRepo{data: map[string][]byte{}}
	cache := NewCacheService(repo, nil, 0, nil, true)

	var dest casing.Value
	err := cache.Remember(context.Background(), "k", &dest, func(context.Context) error {
		return appErrors.ErrUpstream
	})
	assert.ErrorIs(t, err, appErrors.ErrUpstream)
	assert.Empty(t, repo.data)
}
