package wizard

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/matrific/matrific-web/internal/models"
	"github.com/matrific/matrific-web/pkg/casing"
	appErrors "github.com/matrific/matrific-web/pkg/errors"
	"github.com/matrific/matrific-web/pkg/validation"
)

// RedirectAfterSubmit is where the client goes once an enrollment is created.
const RedirectAfterSubmit = "/inscricoes"

var (
	// ErrNotTerminalStep is returned when Submit is called before the last step.
	ErrNotTerminalStep = appErrors.New("WIZARD_NOT_TERMINAL_STEP", http.StatusConflict, "complete every step before submitting")
	// ErrSubmitting is returned while a submission is in flight.
	ErrSubmitting = appErrors.New("WIZARD_SUBMITTING", http.StatusConflict, "submission already in progress")
	// ErrFileIndex is returned for an attachment index out of range.
	ErrFileIndex = appErrors.New("WIZARD_FILE_INDEX", http.StatusNotFound, "attachment not found")
	// ErrUnknownField is returned when an update names a field the form does not have.
	ErrUnknownField = appErrors.New("WIZARD_UNKNOWN_FIELD", http.StatusBadRequest, "unknown form field")
)

// ProfileLoader provides the student profile used to prefill the form.
type ProfileLoader interface {
	FetchMe(ctx context.Context) (*models.StudentProfile, error)
}

// EnrollmentCreator submits the assembled payload.
type EnrollmentCreator interface {
	Create(ctx context.Context, payload casing.Value) (models.Enrollment, error)
}

type submissionRecorder interface {
	RecordSubmission(ok bool)
}

// Options configures a Wizard.
type Options struct {
	Flow    Flow
	Rules   *validation.Rules
	Metrics submissionRecorder
	Logger  *zap.Logger
}

// State is a snapshot of the wizard for rendering.
type State struct {
	Step       int                   `json:"step"`
	Steps      int                   `json:"steps"`
	StepName   string                `json:"stepName"`
	Flow       string                `json:"flow"`
	Terminal   bool                  `json:"terminal"`
	Submitting bool                  `json:"submitting"`
	Form       models.EnrollmentForm `json:"form"`
	Files      []models.Attachment   `json:"files"`
	Errors     validation.Errors     `json:"errors"`
}

// Result is the outcome of a successful submission.
type Result struct {
	Enrollment models.Enrollment
	Message    string
	Redirect   string
}

// Wizard is the enrollment state machine for one session.
type Wizard struct {
	flow    Flow
	rules   *validation.Rules
	creator EnrollmentCreator
	metrics submissionRecorder
	logger  *zap.Logger

	mu         sync.Mutex
	step       int
	submitting bool
	form       models.EnrollmentForm
	files      []*models.Attachment
	errs       validation.Errors
	prefilled  bool
}

// New constructs a wizard positioned on step 1.
func New(creator EnrollmentCreator, opts Options) *Wizard {
	if opts.Flow.Len() == 0 {
		opts.Flow = PrimaryFlow()
	}
	if opts.Rules == nil {
		opts.Rules = validation.NewRules(validation.DefaultFileLimits(), nil)
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Wizard{
		flow:    opts.Flow,
		rules:   opts.Rules,
		creator: creator,
		metrics: opts.Metrics,
		logger:  opts.Logger,
		step:    1,
	}
}

// State returns a copy of the current state.
func (w *Wizard) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.snapshot()
}

func (w *Wizard) snapshot() State {
	files := make([]models.Attachment, 0, len(w.files))
	for _, f := range w.files {
		files = append(files, *f)
	}
	errs := make(validation.Errors, len(w.errs))
	copy(errs, w.errs)
	return State{
		Step:       w.step,
		Steps:      w.flow.Len(),
		StepName:   w.flow.Steps[w.step-1].Name,
		Flow:       w.flow.Name,
		Terminal:   w.step == w.flow.Len(),
		Submitting: w.submitting,
		Form:       w.form,
		Files:      files,
		Errors:     errs,
	}
}

// Prefill copies the stored profile into empty form fields. Fields the user
// already typed are kept. A failing load is logged and ignored.
func (w *Wizard) Prefill(ctx context.Context, loader ProfileLoader, user *models.User) {
	var profile *models.StudentProfile
	if loader != nil {
		p, err := loader.FetchMe(ctx)
		if err != nil {
			w.logger.Warn("enrollment prefill failed", zap.Error(err))
		} else {
			profile = p
		}
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.prefilled = true
	if user != nil {
		fill(&w.form.FirstName, user.FirstName)
		fill(&w.form.LastName, user.LastName)
		fill(&w.form.Email, user.Email)
	}
	if profile == nil {
		return
	}
	fill(&w.form.FirstName, profile.FirstName)
	fill(&w.form.LastName, profile.LastName)
	fill(&w.form.CPF, profile.CPF)
	fill(&w.form.RG, profile.RG)
	fill(&w.form.BirthDate, profile.BirthDate)
	fill(&w.form.Phone, profile.Phone)
	fill(&w.form.CEP, profile.CEP)
	fill(&w.form.Street, profile.Street)
	fill(&w.form.Number, profile.Number)
	fill(&w.form.Complement, profile.Complement)
	fill(&w.form.District, profile.District)
	fill(&w.form.StateID, itoa(profile.StateID))
	fill(&w.form.CityID, itoa(profile.CityID))
}

func fill(dst *string, value string) {
	if strings.TrimSpace(*dst) == "" {
		*dst = value
	}
}

func itoa(id int) string {
	if id <= 0 {
		return ""
	}
	return strconv.Itoa(id)
}

// NeedsPrefill reports whether Prefill has not run since the last reset.
func (w *Wizard) NeedsPrefill() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return !w.prefilled
}

// Update merges client-case fields into the form. Keys are the form's JSON
// names; an unknown key rejects the whole update.
func (w *Wizard) Update(fields map[string]string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.submitting {
		return ErrSubmitting
	}

	current, err := casing.FromStruct(w.form)
	if err != nil {
		return err
	}
	for key, value := range fields {
		if _, ok := current.Get(key); !ok {
			return appErrors.Wrap(ErrUnknownField, ErrUnknownField.Code, ErrUnknownField.Status, "unknown form field "+key)
		}
		current = current.With(key, casing.Prim(value))
	}
	var next models.EnrollmentForm
	if err := casing.Decode(current, &next); err != nil {
		return err
	}
	w.form = next
	if _, ok := fields[validation.FieldVacancyType]; ok {
		w.applyVacancyRule()
	}
	return nil
}

// SelectVacancyType sets the vacancy type. Choosing EXTERNO clears the
// registration number, which only internal applicants have.
func (w *Wizard) SelectVacancyType(raw string) error {
	vacancy, ok := models.ParseVacancyType(raw)
	if !ok {
		errs := validation.Errors{{Field: validation.FieldVacancyType, Message: "tipo de vaga deve ser INTERNO ou EXTERNO"}}
		return errs.AsError("")
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.submitting {
		return ErrSubmitting
	}
	w.form.VacancyType = string(vacancy)
	w.applyVacancyRule()
	return nil
}

func (w *Wizard) applyVacancyRule() {
	if vacancy, ok := models.ParseVacancyType(w.form.VacancyType); ok && vacancy == models.VacancyExternal {
		w.form.RegistrationNumber = ""
	}
}

// AddFiles appends attachments in order. Adding beyond the configured count
// is refused.
func (w *Wizard) AddFiles(files ...*models.Attachment) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.submitting {
		return ErrSubmitting
	}
	limit := w.rules.Limits().MaxFiles
	if len(w.files)+len(files) > limit {
		errs := validation.Errors{{Field: validation.FieldFiles, Message: "máximo de " + strconv.Itoa(limit) + " arquivos"}}
		return errs.AsError("")
	}
	for _, f := range files {
		if f != nil {
			w.files = append(w.files, f)
		}
	}
	return nil
}

// RemoveFile drops the attachment at index, keeping the order of the rest.
func (w *Wizard) RemoveFile(index int) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.submitting {
		return ErrSubmitting
	}
	if index < 0 || index >= len(w.files) {
		return ErrFileIndex
	}
	w.files = append(w.files[:index], w.files[index+1:]...)
	return nil
}

// Next validates the current step and advances when it passes. On failure
// the step stays put and the errors are returned and kept for display.
func (w *Wizard) Next() (State, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.submitting {
		return w.snapshot(), ErrSubmitting
	}

	errs := w.flow.Steps[w.step-1].Validate(w.rules, w.form, w.fileRefs())
	w.errs = errs
	if len(errs) > 0 {
		return w.snapshot(), errs.AsError("")
	}
	if w.step < w.flow.Len() {
		w.step++
	}
	return w.snapshot(), nil
}

// Prev goes back one step without validating.
func (w *Wizard) Prev() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.submitting && w.step > 1 {
		w.step--
		w.errs = nil
	}
	return w.snapshot()
}

// Submit sends the enrollment from the terminal step. The form is validated
// again as a whole because fields may have changed after their step passed.
// On success the wizard resets.
func (w *Wizard) Submit(ctx context.Context) (*Result, error) {
	payload, err := w.begin()
	if err != nil {
		return nil, err
	}
	defer w.release()

	w.logger.Info("enrollment submission in progress")
	enrollment, err := w.creator.Create(ctx, payload)
	if w.metrics != nil {
		w.metrics.RecordSubmission(err == nil)
	}
	if err != nil {
		w.logger.Warn("enrollment submission failed", zap.Error(err))
		return nil, err
	}

	w.mu.Lock()
	w.resetLocked()
	w.mu.Unlock()

	w.logger.Info("enrollment submitted", zap.Int("enrollment_id", enrollment.ID))
	return &Result{
		Enrollment: enrollment,
		Message:    "Inscrição enviada com sucesso",
		Redirect:   RedirectAfterSubmit,
	}, nil
}

// begin acquires the submitting flag and assembles the payload.
func (w *Wizard) begin() (casing.Value, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.submitting {
		return casing.Null(), ErrSubmitting
	}
	if w.step != w.flow.Len() {
		return casing.Null(), ErrNotTerminalStep
	}
	errs := w.rules.All(w.form, w.fileRefs())
	w.errs = errs
	if len(errs) > 0 {
		return casing.Null(), errs.AsError("")
	}
	w.submitting = true
	return w.payload(), nil
}

func (w *Wizard) release() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.submitting = false
}

// payload builds the client-case mapping. The service converts it to
// transport case, giving curso_id, tipo_vaga, matricula and arquivos_upload.
func (w *Wizard) payload() casing.Value {
	vacancy, _ := models.ParseVacancyType(w.form.VacancyType)
	body := casing.Map(
		casing.Field("cursoId", casing.Prim(strings.TrimSpace(w.form.CourseID))),
		casing.Field("tipoVaga", casing.Prim(string(vacancy))),
	)
	if registration := strings.TrimSpace(w.form.RegistrationNumber); vacancy == models.VacancyInternal && registration != "" {
		body = body.With("matricula", casing.Prim(registration))
	}
	parts := make([]casing.Value, 0, len(w.files))
	for _, f := range w.files {
		parts = append(parts, casing.Opaque(f))
	}
	return body.With("arquivosUpload", casing.Seq(parts...))
}

func (w *Wizard) fileRefs() []validation.File {
	refs := make([]validation.File, 0, len(w.files))
	for _, f := range w.files {
		refs = append(refs, validation.File{Name: f.Name, Size: f.Size})
	}
	return refs
}

// Reset returns the wizard to an empty step 1. It is registered as a
// session cleanup.
func (w *Wizard) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.resetLocked()
}

func (w *Wizard) resetLocked() {
	w.step = 1
	w.form = models.EnrollmentForm{}
	w.files = nil
	w.errs = nil
	w.prefilled = false
}
