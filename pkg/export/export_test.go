package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVRender(t *testing.T) {
	out, err := NewCSVExporter().Render(Dataset{
		Headers: []string{"Aluno", "Status"},
		Rows: []map[string]string{
			{"Aluno": "Ana Souza", "Status": "CONFIRMADA"},
			{"Aluno": "João; Filho", "Status": "LISTA_ESPERA"},
		},
	})
	require.NoError(t, err)

	text := strings.TrimPrefix(string(out), "\ufeff")
	lines := strings.Split(strings.TrimSpace(text), "\n")
	assert.Equal(t, []string{"Aluno;Status", "Ana Souza;CONFIRMADA", `"João; Filho";LISTA_ESPERA`}, lines)

	_, err = NewCSVExporter().Render(Dataset{})
	assert.Error(t, err)
}

func TestPDFRender(t *testing.T) {
	out, err := NewPDFExporter().Render(Dataset{
		Headers: []string{"Aluno", "Situação"},
		Rows:    []map[string]string{{"Aluno": "Ana", "Situação": "CONFIRMADA"}},
	}, "Inscritos")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestPDFRenderDocument(t *testing.T) {
	out, err := NewPDFExporter().RenderDocument(Document{
		Title:      "Dossiê de inscrição #10",
		Subtitle:   "Curso de Extensão em Go",
		Sections:   []Section{{Title: "Dados pessoais", Fields: []KeyValue{{Label: "Nome", Value: "Ana Souza"}, {Label: "RG"}}}},
		ItemsTitle: "Documentos",
		Items:      []string{"rg.pdf"},
	})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))

	_, err = NewPDFExporter().RenderDocument(Document{})
	assert.Error(t, err)
}
