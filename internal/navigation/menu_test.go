package navigation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func labels(items []Item) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.Label)
	}
	return out
}

func TestVisibleFiltersByGroup(t *testing.T) {
	items := []Item{
		{Label: "public"},
		{Label: "students", Roles: []string{"ALUNO"}},
		{Label: "staff", Roles: []string{"PROFESSOR", "CCA"}},
	}

	assert.Equal(t, []string{"public"}, labels(Visible(items, nil)))
	assert.Equal(t, []string{"public", "students"}, labels(Visible(items, []string{"aluno"})))
	assert.Equal(t, []string{"public", "staff"}, labels(Visible(items, []string{"cca"})))
	assert.Equal(t, []string{"public", "students", "staff"}, labels(Visible(items, []string{"ALUNO", "PROFESSOR"})))
}

func TestCoordinatorMenu(t *testing.T) {
	visible := labels(Visible(Menu, []string{"CCA"}))
	assert.Contains(t, visible, "Professores")
	assert.NotContains(t, visible, "Nova inscrição")
	assert.Len(t, Menu, 7)
}
