package models

// Dashboard sections, used as keys of Dashboard.Failures.
const (
	DashboardSectionCourses     = "cursos"
	DashboardSectionEnrollments = "inscricoes"
)

// Dashboard joins courses and enrollments fetched concurrently. A section
// that failed to load is empty and its reason is listed in Failures.
type Dashboard struct {
	Courses      []Course                 `json:"cursos"`
	Enrollments  []Enrollment             `json:"inscricoes"`
	StatusCounts map[EnrollmentStatus]int `json:"resumo"`
	OpenCourses  int                      `json:"cursosAbertos"`
	Failures     map[string]string        `json:"falhas,omitempty"`
}

// Partial reports whether at least one section failed.
func (d *Dashboard) Partial() bool { return len(d.Failures) > 0 }
