// Package wizard implements the multi-step enrollment form: per-step
// validation gates, file accumulation and the final multipart submission.
package wizard

import (
	"strings"

	"github.com/matrific/matrific-web/internal/models"
	"github.com/matrific/matrific-web/pkg/validation"
)

// Flow names accepted by FlowByName.
const (
	FlowPrimary = "primary"
	FlowLegacy  = "legacy"
)

// Step is one page of the wizard and the validator gating it.
type Step struct {
	Name     string
	Validate func(r *validation.Rules, form models.EnrollmentForm, files []validation.File) validation.Errors
}

// Flow is an ordered list of steps. Every step is visited in order.
type Flow struct {
	Name  string
	Steps []Step
}

// Len returns the number of steps.
func (f Flow) Len() int { return len(f.Steps) }

func personalStep(r *validation.Rules, form models.EnrollmentForm, _ []validation.File) validation.Errors {
	return r.PersonalData(form)
}

func contactStep(r *validation.Rules, form models.EnrollmentForm, _ []validation.File) validation.Errors {
	return r.Contact(form)
}

func addressStep(r *validation.Rules, form models.EnrollmentForm, _ []validation.File) validation.Errors {
	return r.Address(form)
}

func documentsStep(r *validation.Rules, _ models.EnrollmentForm, files []validation.File) validation.Errors {
	return r.Documents(files)
}

func vacancyStep(r *validation.Rules, form models.EnrollmentForm, _ []validation.File) validation.Errors {
	return r.Vacancy(form)
}

// PrimaryFlow has three steps: personal data, contact and address, then
// vacancy and documents.
func PrimaryFlow() Flow {
	return Flow{
		Name: FlowPrimary,
		Steps: []Step{
			{Name: "dados-pessoais", Validate: personalStep},
			{Name: "contato-endereco", Validate: func(r *validation.Rules, form models.EnrollmentForm, files []validation.File) validation.Errors {
				return append(contactStep(r, form, files), addressStep(r, form, files)...)
			}},
			{Name: "vaga-documentos", Validate: func(r *validation.Rules, form models.EnrollmentForm, files []validation.File) validation.Errors {
				return append(vacancyStep(r, form, files), documentsStep(r, form, files)...)
			}},
		},
	}
}

// LegacyFlow is the standalone five step variant.
func LegacyFlow() Flow {
	return Flow{
		Name: FlowLegacy,
		Steps: []Step{
			{Name: "dados-pessoais", Validate: personalStep},
			{Name: "contato", Validate: contactStep},
			{Name: "endereco", Validate: addressStep},
			{Name: "documentos", Validate: documentsStep},
			{Name: "vaga", Validate: vacancyStep},
		},
	}
}

// FlowByName resolves a configured flow name, falling back to the primary flow.
func FlowByName(name string) Flow {
	if strings.EqualFold(strings.TrimSpace(name), FlowLegacy) {
		return LegacyFlow()
	}
	return PrimaryFlow()
}
