package models

// CourseStatus is derived server-side from the course's lifecycle dates.
type CourseStatus string

// Known course statuses.
const (
	CourseStatusPlanned          CourseStatus = "PREVISTO"
	CourseStatusEnrollmentOpen   CourseStatus = "INSCRICOES_ABERTAS"
	CourseStatusEnrollmentClosed CourseStatus = "INSCRICOES_ENCERRADAS"
	CourseStatusRunning          CourseStatus = "EM_ANDAMENTO"
	CourseStatusFinished         CourseStatus = "FINALIZADO"
)

// Course is the client-side representation of /cursos/ resources.
type Course struct {
	ID              int          `json:"id"`
	Name            string       `json:"nome"`
	Description     string       `json:"descricao"`
	Workload        int          `json:"cargaHoraria"`
	InternalSeats   int          `json:"vagasInternas"`
	ExternalSeats   int          `json:"vagasExternas"`
	EnrollmentStart string       `json:"dataInicioInscricoes"`
	EnrollmentEnd   string       `json:"dataFimInscricoes"`
	CourseStart     string       `json:"dataInicioCurso"`
	CourseEnd       string       `json:"dataFimCurso"`
	Status          CourseStatus `json:"status"`
	ProfessorID     int          `json:"professor"`
	ProfessorName   string       `json:"professorNome,omitempty"`
}

// CourseInput is the payload for creating or updating a course.
type CourseInput struct {
	Name            string `json:"nome" validate:"required,min=3"`
	Description     string `json:"descricao"`
	Workload        int    `json:"cargaHoraria"`
	InternalSeats   int    `json:"vagasInternas"`
	ExternalSeats   int    `json:"vagasExternas"`
	EnrollmentStart string `json:"dataInicioInscricoes" validate:"required,datetime=2006-01-02"`
	EnrollmentEnd   string `json:"dataFimInscricoes" validate:"required,datetime=2006-01-02"`
	CourseStart     string `json:"dataInicioCurso" validate:"required,datetime=2006-01-02"`
	CourseEnd       string `json:"dataFimCurso" validate:"required,datetime=2006-01-02"`
}

// Normalize clamps numeric counters to zero.
func (in *CourseInput) Normalize() {
	if in.InternalSeats < 0 {
		in.InternalSeats = 0
	}
	if in.ExternalSeats < 0 {
		in.ExternalSeats = 0
	}
	if in.Workload < 0 {
		in.Workload = 0
	}
}
