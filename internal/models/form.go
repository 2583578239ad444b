package models

import (
	"bytes"
	"io"
)

// EnrollmentForm holds the raw wizard input in client case. Every field is a
// string because it mirrors what the user typed.
type EnrollmentForm struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	CPF       string `json:"cpf"`
	RG        string `json:"rg"`
	BirthDate string `json:"dataNascimento"`

	Email string `json:"email"`
	Phone string `json:"telefone"`

	CEP        string `json:"cep"`
	Street     string `json:"logradouro"`
	Number     string `json:"numero"`
	Complement string `json:"complemento"`
	District   string `json:"bairro"`
	StateID    string `json:"estado"`
	CityID     string `json:"municipio"`

	CourseID           string `json:"cursoId"`
	VacancyType        string `json:"tipoVaga"`
	RegistrationNumber string `json:"matricula"`
}

// Attachment is a file accumulated by the wizard before submission.
type Attachment struct {
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
	Content     []byte `json:"-"`
}

// FileName returns the attachment's original file name.
func (a *Attachment) FileName() string { return a.Name }

// Reader opens the attachment content.
func (a *Attachment) Reader() io.Reader { return bytes.NewReader(a.Content) }

// MediaType returns the declared content type of the attachment.
func (a *Attachment) MediaType() string { return a.ContentType }
