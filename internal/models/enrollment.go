package models

import "strings"

// EnrollmentStatus represents the lifecycle of an enrollment.
type EnrollmentStatus string

// Possible enrollment statuses. Enrollments are never deleted, only moved
// between statuses by a validation action.
const (
	EnrollmentStatusAwaiting  EnrollmentStatus = "AGUARDANDO_VALIDACAO"
	EnrollmentStatusConfirmed EnrollmentStatus = "CONFIRMADA"
	EnrollmentStatusWaitlist  EnrollmentStatus = "LISTA_ESPERA"
	EnrollmentStatusCancelled EnrollmentStatus = "CANCELADA"
)

// EnrollmentStatuses lists every status in display order.
var EnrollmentStatuses = []EnrollmentStatus{
	EnrollmentStatusAwaiting,
	EnrollmentStatusConfirmed,
	EnrollmentStatusWaitlist,
	EnrollmentStatusCancelled,
}

// VacancyType distinguishes institution-affiliated from external applicants.
type VacancyType string

// Vacancy types.
const (
	VacancyInternal VacancyType = "INTERNO"
	VacancyExternal VacancyType = "EXTERNO"
)

// ParseVacancyType normalises raw input into a VacancyType.
func ParseVacancyType(raw string) (VacancyType, bool) {
	switch VacancyType(strings.ToUpper(strings.TrimSpace(raw))) {
	case VacancyInternal:
		return VacancyInternal, true
	case VacancyExternal:
		return VacancyExternal, true
	default:
		return "", false
	}
}

// Document references a file uploaded with an enrollment.
type Document struct {
	ID   int    `json:"id"`
	Name string `json:"nome"`
	URL  string `json:"arquivo"`
}

// Enrollment links one student to one course.
type Enrollment struct {
	ID                 int              `json:"id"`
	StudentID          int              `json:"aluno"`
	StudentName        string           `json:"alunoNome,omitempty"`
	CourseID           int              `json:"curso"`
	CourseName         string           `json:"cursoNome,omitempty"`
	VacancyType        VacancyType      `json:"tipoVaga"`
	RegistrationNumber string           `json:"matricula,omitempty"`
	Status             EnrollmentStatus `json:"status"`
	RejectionReason    string           `json:"motivoRecusa,omitempty"`
	Documents          []Document       `json:"arquivos"`
	CreatedAt          string           `json:"dataInscricao,omitempty"`
}

// EnrollmentFilter narrows enrollment listings.
type EnrollmentFilter struct {
	CourseID string
	Status   EnrollmentStatus
}

// EnrollmentDecision approves or rejects an enrollment.
type EnrollmentDecision struct {
	Approve         bool   `json:"aprovar"`
	RejectionReason string `json:"motivoRecusa"`
}

// Dossier aggregates what a validator reviews for one enrollment.
type Dossier struct {
	Enrollment Enrollment      `json:"enrollment"`
	Profile    *StudentProfile `json:"profile,omitempty"`
}
