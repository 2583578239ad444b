package dto

// ValidateEnrollmentRequest approves or rejects an enrollment.
type ValidateEnrollmentRequest struct {
	Approve         *bool  `json:"aprovar" validate:"required"`
	RejectionReason string `json:"motivoRecusa"`
}

// VacancyRequest selects the wizard's vacancy type.
type VacancyRequest struct {
	VacancyType string `json:"tipoVaga" validate:"required"`
}

// Export formats accepted by the applicant list export.
const (
	ExportCSV = "csv"
	ExportPDF = "pdf"
)
