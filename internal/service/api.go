package service

import (
	"context"
	"fmt"
	"net/url"

	"github.com/matrific/matrific-web/pkg/casing"
)

// REST endpoints of the MatriFIC API.
const (
	pathToken       = "/token/"
	pathRefresh     = "/token/refresh/"
	pathMe          = "/me/"
	pathLogout      = "/logout/"
	pathCourses     = "/cursos/"
	pathEnrollments = "/inscricoes-aluno/"
	pathStudents    = "/alunos/"
	pathStudentMe   = "/alunos/me/"
	pathProfessors  = "/professor/"
	pathStates      = "/estados/"
	pathCities      = "/municipios/"
)

// apiCaller is the subset of the API client the services need. Request
// bodies are already in transport case, responses are returned raw.
type apiCaller interface {
	Get(ctx context.Context, path string, query url.Values) (casing.Value, error)
	Post(ctx context.Context, path string, body casing.Value) (casing.Value, error)
	Patch(ctx context.Context, path string, body casing.Value) (casing.Value, error)
	Delete(ctx context.Context, path string) error
	PostMultipart(ctx context.Context, path string, body casing.Value) (casing.Value, error)
}

func itemPath(base string, id int) string {
	return fmt.Sprintf("%s%d/", base, id)
}
