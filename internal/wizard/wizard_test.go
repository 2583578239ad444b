package wizard

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matrific/matrific-web/internal/models"
	"github.com/matrific/matrific-web/pkg/casing"
	appErrors "github.com/matrific/matrific-web/pkg/errors"
	"github.com/matrific/matrific-web/pkg/validation"
)

var fixedNow = time.Date(2026, time.October, 18, 10, 0, 0, 0, time.UTC)

type fakeCreator struct {
	mu       sync.Mutex
	payloads []casing.Value
	err      error
	block    chan struct{}
}

func (f *fakeCreator) Create(ctx context.Context, payload casing.Value) (models.Enrollment, error) {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payloads = append(f.payloads, payload)
	if f.err != nil {
		return models.Enrollment{}, f.err
	}
	return models.Enrollment{ID: 11, Status: models.EnrollmentStatusAwaiting}, nil
}

type fakeLoader struct {
	profile *models.StudentProfile
	err     error
}

func (f fakeLoader) FetchMe(ctx context.Context) (*models.StudentProfile, error) {
	return f.profile, f.err
}

type submissionCounter struct{ ok, failed int }

func (c *submissionCounter) RecordSubmission(ok bool) {
	if ok {
		c.ok++
		return
	}
	c.failed++
}

func newWizard(creator EnrollmentCreator, flow Flow) *Wizard {
	return New(creator, Options{
		Flow:  flow,
		Rules: validation.NewRules(validation.DefaultFileLimits(), func() time.Time { return fixedNow }),
	})
}

func personalFields() map[string]string {
	return map[string]string{
		"firstName":      "Ana",
		"lastName":       "Souza",
		"cpf":            "529.982.247-25",
		"rg":             "2001002",
		"dataNascimento": "2000-05-10",
	}
}

func contactAddressFields() map[string]string {
	return map[string]string{
		"email":      "ana@ufc.br",
		"telefone":   "(85) 99999-0000",
		"cep":        "60000-000",
		"logradouro": "Av. da Universidade",
		"numero":     "2853",
		"bairro":     "Benfica",
		"estado":     "6",
		"municipio":  "2304400",
	}
}

func attachment(name string) *models.Attachment {
	return &models.Attachment{Name: name, ContentType: "application/pdf", Size: 3, Content: []byte("pdf")}
}

func toTerminal(t *testing.T, w *Wizard) {
	t.Helper()
	require.NoError(t, w.Update(personalFields()))
	_, err := w.Next()
	require.NoError(t, err)
	require.NoError(t, w.Update(contactAddressFields()))
	_, err = w.Next()
	require.NoError(t, err)
	require.Equal(t, 3, w.State().Step)
}

func TestNextRefusesInvalidStep(t *testing.T) {
	w := newWizard(&fakeCreator{}, PrimaryFlow())

	fields := personalFields()
	fields["firstName"] = ""
	require.NoError(t, w.Update(fields))

	state, err := w.Next()
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
	assert.Equal(t, 1, state.Step)
	assert.True(t, state.Errors.Has(validation.FieldFirstName))

	require.NoError(t, w.Update(map[string]string{"firstName": "Ana"}))
	state, err = w.Next()
	require.NoError(t, err)
	assert.Equal(t, 2, state.Step)
	assert.Empty(t, state.Errors)
}

func TestPrevNeverValidatesAndStopsAtFirstStep(t *testing.T) {
	w := newWizard(&fakeCreator{}, PrimaryFlow())
	require.NoError(t, w.Update(personalFields()))
	_, err := w.Next()
	require.NoError(t, err)

	require.NoError(t, w.Update(map[string]string{"cpf": "123"}))
	assert.Equal(t, 1, w.Prev().Step)
	assert.Equal(t, 1, w.Prev().Step)
}

func TestLegacyFlowHasFiveSteps(t *testing.T) {
	w := newWizard(&fakeCreator{}, FlowByName("LEGACY"))
	require.NoError(t, w.Update(personalFields()))
	require.NoError(t, w.Update(contactAddressFields()))

	for expected := 2; expected <= 4; expected++ {
		state, err := w.Next()
		require.NoError(t, err)
		assert.Equal(t, expected, state.Step)
	}

	_, err := w.Next()
	require.Error(t, err, "documents step needs at least one file")
	assert.Equal(t, 4, w.State().Step)

	require.NoError(t, w.AddFiles(attachment("rg.pdf")))
	state, err := w.Next()
	require.NoError(t, err)
	assert.Equal(t, 5, state.Step)
	assert.True(t, state.Terminal)

	assert.Equal(t, PrimaryFlow().Len(), FlowByName("unknown").Len())
}

func TestSelectExternalClearsRegistration(t *testing.T) {
	w := newWizard(&fakeCreator{}, PrimaryFlow())
	require.NoError(t, w.SelectVacancyType("interno"))
	require.NoError(t, w.Update(map[string]string{"matricula": "2023001"}))
	assert.Equal(t, "2023001", w.State().Form.RegistrationNumber)

	require.NoError(t, w.SelectVacancyType("EXTERNO"))
	state := w.State()
	assert.Equal(t, "EXTERNO", state.Form.VacancyType)
	assert.Empty(t, state.Form.RegistrationNumber)

	require.NoError(t, w.Update(map[string]string{"matricula": "1", "tipoVaga": "EXTERNO"}))
	assert.Empty(t, w.State().Form.RegistrationNumber)

	assert.Error(t, w.SelectVacancyType("OUTRO"))
}

func TestUpdateRejectsUnknownField(t *testing.T) {
	w := newWizard(&fakeCreator{}, PrimaryFlow())
	err := w.Update(map[string]string{"nope": "x"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownField))
}

func TestFilesKeepOrder(t *testing.T) {
	w := newWizard(&fakeCreator{}, PrimaryFlow())
	require.NoError(t, w.AddFiles(attachment("a.pdf"), attachment("b.pdf"), attachment("c.pdf")))
	require.NoError(t, w.RemoveFile(1))
	state := w.State()
	require.Len(t, state.Files, 2)
	assert.Equal(t, "a.pdf", state.Files[0].Name)
	assert.Equal(t, "c.pdf", state.Files[1].Name)

	assert.True(t, errors.Is(w.RemoveFile(5), ErrFileIndex))
	assert.Error(t, w.AddFiles(attachment("d"), attachment("e"), attachment("f"), attachment("g")))
}

func TestSubmitOnlyFromTerminalStep(t *testing.T) {
	w := newWizard(&fakeCreator{}, PrimaryFlow())
	_, err := w.Submit(context.Background())
	assert.True(t, errors.Is(err, ErrNotTerminalStep))
}

func TestSubmitAssemblesPayload(t *testing.T) {
	creator := &fakeCreator{}
	counter := &submissionCounter{}
	w := New(creator, Options{
		Rules:   validation.NewRules(validation.DefaultFileLimits(), func() time.Time { return fixedNow }),
		Metrics: counter,
	})
	toTerminal(t, w)
	require.NoError(t, w.Update(map[string]string{"cursoId": "3", "matricula": "2023001"}))
	require.NoError(t, w.SelectVacancyType("INTERNO"))
	first, second := attachment("rg.pdf"), attachment("cpf.pdf")
	require.NoError(t, w.AddFiles(first, second))

	result, err := w.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 11, result.Enrollment.ID)
	assert.Equal(t, RedirectAfterSubmit, result.Redirect)
	assert.NotEmpty(t, result.Message)
	assert.Equal(t, 1, counter.ok)

	require.Len(t, creator.payloads, 1)
	payload := creator.payloads[0]
	assert.Equal(t, []string{"cursoId", "tipoVaga", "matricula", "arquivosUpload"}, payload.Keys())
	files, _ := payload.Get("arquivosUpload")
	require.Len(t, files.Items(), 2)
	assert.Same(t, first, files.Items()[0].OpaqueValue())
	assert.Same(t, second, files.Items()[1].OpaqueValue())

	transport := casing.ToTransportCase(payload)
	assert.Equal(t, []string{"curso_id", "tipo_vaga", "matricula", "arquivos_upload"}, transport.Keys())

	state := w.State()
	assert.Equal(t, 1, state.Step)
	assert.False(t, state.Submitting)
	assert.Empty(t, state.Files)
}

func TestSubmitFailureReleasesFlag(t *testing.T) {
	creator := &fakeCreator{err: appErrors.New("CONFLICT", 409, "já inscrito neste curso")}
	counter := &submissionCounter{}
	w := New(creator, Options{
		Rules:   validation.NewRules(validation.DefaultFileLimits(), func() time.Time { return fixedNow }),
		Metrics: counter,
	})
	toTerminal(t, w)
	require.NoError(t, w.Update(map[string]string{"cursoId": "3", "tipoVaga": "EXTERNO"}))
	require.NoError(t, w.AddFiles(attachment("rg.pdf")))

	_, err := w.Submit(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "já inscrito")
	assert.Equal(t, 1, counter.failed)

	state := w.State()
	assert.False(t, state.Submitting)
	assert.Equal(t, 3, state.Step)
	assert.Len(t, state.Files, 1)

	payload := creator.payloads[0]
	_, hasRegistration := payload.Get("matricula")
	assert.False(t, hasRegistration)
}

func TestSubmitRefusedWhileSubmitting(t *testing.T) {
	creator := &fakeCreator{block: make(chan struct{})}
	w := newWizard(creator, PrimaryFlow())
	toTerminal(t, w)
	require.NoError(t, w.Update(map[string]string{"cursoId": "3", "tipoVaga": "EXTERNO"}))
	require.NoError(t, w.AddFiles(attachment("rg.pdf")))

	done := make(chan error, 1)
	go func() {
		_, err := w.Submit(context.Background())
		done <- err
	}()

	require.Eventually(t, func() bool { return w.State().Submitting }, time.Second, time.Millisecond)
	_, err := w.Submit(context.Background())
	assert.True(t, errors.Is(err, ErrSubmitting))
	assert.True(t, errors.Is(w.Update(map[string]string{"cep": "1"}), ErrSubmitting))

	close(creator.block)
	require.NoError(t, <-done)
	assert.False(t, w.State().Submitting)
}

func TestSubmitRevalidatesWholeForm(t *testing.T) {
	creator := &fakeCreator{}
	w := newWizard(creator, PrimaryFlow())
	toTerminal(t, w)
	require.NoError(t, w.Update(map[string]string{"cursoId": "3", "tipoVaga": "EXTERNO", "cpf": "111"}))
	require.NoError(t, w.AddFiles(attachment("rg.pdf")))

	_, err := w.Submit(context.Background())
	require.Error(t, err)
	assert.True(t, w.State().Errors.Has(validation.FieldCPF))
	assert.Empty(t, creator.payloads)
}

func TestPrefillKeepsTypedValues(t *testing.T) {
	w := newWizard(&fakeCreator{}, PrimaryFlow())
	require.NoError(t, w.Update(map[string]string{"telefone": "(85) 3366-9999"}))

	loader := fakeLoader{profile: &models.StudentProfile{
		FirstName: "Ana", CPF: "529.982.247-25", Phone: "85999990000", CityID: 2304400,
	}}
	w.Prefill(context.Background(), loader, &models.User{Email: "ana@ufc.br", LastName: "Souza"})

	form := w.State().Form
	assert.Equal(t, "Ana", form.FirstName)
	assert.Equal(t, "Souza", form.LastName)
	assert.Equal(t, "ana@ufc.br", form.Email)
	assert.Equal(t, "529.982.247-25", form.CPF)
	assert.Equal(t, "(85) 3366-9999", form.Phone)
	assert.Equal(t, "2304400", form.CityID)
	assert.Empty(t, form.StateID)
}

func TestPrefillToleratesFailure(t *testing.T) {
	w := newWizard(&fakeCreator{}, PrimaryFlow())
	w.Prefill(context.Background(), fakeLoader{err: errors.New("boom")}, nil)
	state := w.State()
	assert.Equal(t, 1, state.Step)
	assert.Equal(t, models.EnrollmentForm{}, state.Form)
}

func TestResetClearsEverything(t *testing.T) {
	w := newWizard(&fakeCreator{}, PrimaryFlow())
	require.NoError(t, w.Update(personalFields()))
	_, err := w.Next()
	require.NoError(t, err)
	require.NoError(t, w.AddFiles(attachment("a.pdf")))

	w.Reset()
	state := w.State()
	assert.Equal(t, 1, state.Step)
	assert.Empty(t, state.Files)
	assert.Equal(t, models.EnrollmentForm{}, state.Form)
}

func TestNeedsPrefillUntilReset(t *testing.T) {
	w := newWizard(&fakeCreator{}, PrimaryFlow())
	assert.True(t, w.NeedsPrefill())
	w.Prefill(context.Background(), nil, nil)
	assert.False(t, w.NeedsPrefill())
	w.Reset()
	assert.True(t, w.NeedsPrefill())
}
