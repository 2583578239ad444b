package models

// StudentProfile is the extended personal data attached 1:1 to a student
// user. PATCH /alunos/me/ creates it on first completion and updates it
// afterwards.
type StudentProfile struct {
	ID          int    `json:"id,omitempty"`
	FirstName   string `json:"firstName" validate:"required,person_name"`
	LastName    string `json:"lastName" validate:"required,person_name"`
	CPF         string `json:"cpf" validate:"required,cpf"`
	RG          string `json:"rg" validate:"required,rg"`
	RGIssuer    string `json:"orgaoExpedidor,omitempty"`
	BirthDate   string `json:"dataNascimento" validate:"required,birthdate"`
	Phone       string `json:"telefone" validate:"required,phone_br"`
	CEP         string `json:"cep" validate:"required,cep"`
	Street      string `json:"logradouro" validate:"required"`
	Number      string `json:"numero" validate:"required"`
	Complement  string `json:"complemento,omitempty"`
	District    string `json:"bairro" validate:"required"`
	StateID     int    `json:"estado,omitempty"`
	CityID      int    `json:"municipio" validate:"required,gt=0"`
	BirthCityID int    `json:"naturalidade,omitempty"`
}

// Professor is the /professor/ resource managed by the coordination.
type Professor struct {
	ID         int    `json:"id"`
	Email      string `json:"email"`
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Siape      string `json:"siape"`
	Department string `json:"departamento"`
	Phone      string `json:"telefone,omitempty"`
	Active     bool   `json:"isActive"`
}

// ProfessorInput creates or updates a professor.
type ProfessorInput struct {
	Email      string `json:"email" validate:"required,email"`
	FirstName  string `json:"firstName" validate:"required,person_name"`
	LastName   string `json:"lastName" validate:"required,person_name"`
	Siape      string `json:"siape" validate:"required"`
	Department string `json:"departamento"`
	Phone      string `json:"telefone,omitempty" validate:"omitempty,phone_br"`
}

// State is a Brazilian federative unit from GET /estados/.
type State struct {
	ID   int    `json:"id"`
	Name string `json:"nome"`
	UF   string `json:"sigla"`
}

// City is a municipality from GET /municipios/.
type City struct {
	ID      int    `json:"id"`
	Name    string `json:"nome"`
	StateID int    `json:"estado"`
}
