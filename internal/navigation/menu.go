// Package navigation lists the client's menu entries and filters them by
// the user's groups.
package navigation

import (
	"strings"

	"github.com/matrific/matrific-web/internal/models"
)

// Item is one navigation entry. An item without roles is shown to everyone.
type Item struct {
	Label string   `json:"label"`
	Path  string   `json:"path"`
	Roles []string `json:"roles,omitempty"`
}

// Menu is the full navigation in display order.
var Menu = []Item{
	{Label: "Dashboard", Path: "/dashboard"},
	{Label: "Cursos", Path: "/cursos"},
	{Label: "Minhas inscrições", Path: "/inscricoes", Roles: []string{models.GroupStudent}},
	{Label: "Nova inscrição", Path: "/inscricao", Roles: []string{models.GroupStudent}},
	{Label: "Validar inscrições", Path: "/inscricoes", Roles: []string{models.GroupProfessor, models.GroupCoordinator}},
	{Label: "Professores", Path: "/professores", Roles: []string{models.GroupCoordinator}},
	{Label: "Meu perfil", Path: "/completar-perfil", Roles: []string{models.GroupStudent}},
}

// Visible returns the items whose roles intersect groups, compared without
// regard to case. The input slice is not modified.
func Visible(items []Item, groups []string) []Item {
	out := make([]Item, 0, len(items))
	for _, item := range items {
		if allowed(item.Roles, groups) {
			out = append(out, item)
		}
	}
	return out
}

func allowed(roles, groups []string) bool {
	if len(roles) == 0 {
		return true
	}
	for _, role := range roles {
		for _, group := range groups {
			if strings.EqualFold(role, group) {
				return true
			}
		}
	}
	return false
}
