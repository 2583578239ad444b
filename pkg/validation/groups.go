package validation

import (
	"strings"
	"time"

	"github.com/matrific/matrific-web/internal/models"
)

// Field names as exposed to the client (client case JSON keys).
const (
	FieldFirstName   = "firstName"
	FieldLastName    = "lastName"
	FieldCPF         = "cpf"
	FieldRG          = "rg"
	FieldBirthDate   = "dataNascimento"
	FieldEmail       = "email"
	FieldPhone       = "telefone"
	FieldCEP         = "cep"
	FieldStreet      = "logradouro"
	FieldNumber      = "numero"
	FieldDistrict    = "bairro"
	FieldState       = "estado"
	FieldCity        = "municipio"
	FieldCourse      = "cursoId"
	FieldVacancyType = "tipoVaga"
	FieldRegistry    = "matricula"
	FieldFiles       = "arquivos"
)

const msgRequired = "campo obrigatório"

// Rules runs the field validators grouped by form section. Every field of a
// group is checked even when an earlier one fails.
type Rules struct {
	limits FileLimits
	now    func() time.Time
}

// NewRules builds Rules. A nil clock defaults to time.Now.
func NewRules(limits FileLimits, now func() time.Time) *Rules {
	if now == nil {
		now = time.Now
	}
	return &Rules{limits: limits.withDefaults(), now: now}
}

// Limits exposes the configured file limits.
func (r *Rules) Limits() FileLimits { return r.limits }

// PersonalData validates names, CPF, RG and birth date.
func (r *Rules) PersonalData(f models.EnrollmentForm) Errors {
	var errs Errors
	errs.add(checkName(FieldFirstName, f.FirstName))
	errs.add(checkName(FieldLastName, f.LastName))
	errs.add(check(FieldCPF, f.CPF, CPF, "CPF inválido"))
	errs.add(check(FieldRG, f.RG, RG, "RG deve conter entre 7 e 9 dígitos"))
	errs.add(r.checkBirthDate(f.BirthDate))
	return errs
}

// Contact validates email and phone.
func (r *Rules) Contact(f models.EnrollmentForm) Errors {
	var errs Errors
	errs.add(check(FieldEmail, f.Email, Email, "e-mail inválido"))
	errs.add(check(FieldPhone, f.Phone, Phone, "telefone deve ter 10 ou 11 dígitos"))
	return errs
}

// Address validates CEP and the required address parts.
func (r *Rules) Address(f models.EnrollmentForm) Errors {
	var errs Errors
	errs.add(check(FieldCEP, f.CEP, CEP, "CEP deve ter 8 dígitos"))
	errs.add(required(FieldStreet, f.Street))
	errs.add(required(FieldNumber, f.Number))
	errs.add(required(FieldDistrict, f.District))
	errs.add(required(FieldState, f.StateID))
	errs.add(required(FieldCity, f.CityID))
	return errs
}

// Documents validates the accumulated file set.
func (r *Rules) Documents(files []File) Errors {
	return Files(FieldFiles, files, r.limits)
}

// Vacancy validates course choice, vacancy type and the registration number
// required from internal applicants.
func (r *Rules) Vacancy(f models.EnrollmentForm) Errors {
	var errs Errors
	errs.add(required(FieldCourse, f.CourseID))
	vacancy, ok := models.ParseVacancyType(f.VacancyType)
	switch {
	case strings.TrimSpace(f.VacancyType) == "":
		errs.add(&FieldError{Field: FieldVacancyType, Message: msgRequired})
	case !ok:
		errs.add(&FieldError{Field: FieldVacancyType, Message: "tipo de vaga deve ser INTERNO ou EXTERNO"})
	case vacancy == models.VacancyInternal:
		errs.add(required(FieldRegistry, f.RegistrationNumber))
	}
	return errs
}

// All runs every group in order.
func (r *Rules) All(f models.EnrollmentForm, files []File) Errors {
	var errs Errors
	errs = append(errs, r.PersonalData(f)...)
	errs = append(errs, r.Contact(f)...)
	errs = append(errs, r.Address(f)...)
	errs = append(errs, r.Documents(files)...)
	errs = append(errs, r.Vacancy(f)...)
	return errs
}

func (r *Rules) checkBirthDate(raw string) *FieldError {
	if strings.TrimSpace(raw) == "" {
		return &FieldError{Field: FieldBirthDate, Message: msgRequired}
	}
	if _, ok := ParseBirthDate(raw); !ok {
		return &FieldError{Field: FieldBirthDate, Message: "data de nascimento inválida"}
	}
	if !BirthDate(raw, r.now()) {
		return &FieldError{Field: FieldBirthDate, Message: "idade deve estar entre 16 e 100 anos"}
	}
	return nil
}

func checkName(field, raw string) *FieldError {
	if strings.TrimSpace(raw) == "" {
		return &FieldError{Field: field, Message: msgRequired}
	}
	if !Name(raw) {
		return &FieldError{Field: field, Message: "use ao menos 2 letras, sem números ou símbolos"}
	}
	return nil
}

func check(field, raw string, valid func(string) bool, message string) *FieldError {
	if strings.TrimSpace(raw) == "" {
		return &FieldError{Field: field, Message: msgRequired}
	}
	if !valid(raw) {
		return &FieldError{Field: field, Message: message}
	}
	return nil
}

func required(field, raw string) *FieldError {
	if strings.TrimSpace(raw) == "" {
		return &FieldError{Field: field, Message: msgRequired}
	}
	return nil
}
