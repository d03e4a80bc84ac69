package pdfdoc

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formsense/formsense/internal/fields"
)

func TestReadFields_InvalidDocument(t *testing.T) {
	_, err := ReadFields([]byte("not a pdf"))
	require.Error(t, err)
}

func TestHasInteractiveFields_InvalidDocument(t *testing.T) {
	_, err := HasInteractiveFields([]byte("not a pdf"))
	require.Error(t, err)
}

func TestPageSizes_InvalidDocument(t *testing.T) {
	_, err := PageSizes(bytes.NewReader([]byte("not a pdf")))
	require.Error(t, err)
}

func TestAuthorWrite_InvalidDocument(t *testing.T) {
	a := NewAuthor()

	var out bytes.Buffer
	_, err := a.Write(bytes.NewReader([]byte("not a pdf")), &out, []FieldPlacement{
		{Name: "nome", Kind: fields.KindText, Page: 1, Rect: [4]float64{50, 700, 150, 720}},
	})

	require.Error(t, err)
}

func TestAuthorWrite_RoundTrip(t *testing.T) {
	testPath := filepath.Join("..", "..", "testdata", "static-form.pdf")
	doc, err := os.ReadFile(testPath)
	if os.IsNotExist(err) {
		t.Skipf("Test file %s not found", testPath)
	}
	require.NoError(t, err)

	placements := []FieldPlacement{
		{
			Name:   "nome",
			Kind:   fields.KindText,
			Label:  "Nome",
			Page:   1,
			Rect:   [4]float64{120, 700, 220, 720},
			MaxLen: 16,
		},
		{
			Name:     "note",
			Kind:     fields.KindTextarea,
			Label:    "Note",
			Page:     1,
			Rect:     [4]float64{120, 600, 400, 680},
			MaxLen:   500,
			Required: true,
		},
		{
			Name:  "privacy",
			Kind:  fields.KindCheckbox,
			Label: "Consenso privacy",
			Page:  1,
			Rect:  [4]float64{120, 560, 135, 575},
		},
	}

	a := NewAuthor()
	var out bytes.Buffer
	added, err := a.Write(bytes.NewReader(doc), &out, placements)
	require.NoError(t, err)
	require.Len(t, added, 3)

	has, err := HasInteractiveFields(out.Bytes())
	require.NoError(t, err)
	assert.True(t, has)

	readBack, err := ReadFields(out.Bytes())
	require.NoError(t, err)
	require.Len(t, readBack, 3)

	byName := map[string]ExistingField{}
	for _, f := range readBack {
		byName[f.Name] = f
	}

	nome := byName["nome"]
	assert.Equal(t, fields.KindText, nome.Kind)
	assert.Equal(t, 16, nome.MaxLength)
	assert.InDelta(t, 120, nome.Rect[0], 0.01)
	assert.InDelta(t, 720, nome.Rect[3], 0.01)

	note := byName["note"]
	assert.Equal(t, fields.KindTextarea, note.Kind)
	assert.True(t, note.Required)

	privacy := byName["privacy"]
	assert.Equal(t, fields.KindCheckbox, privacy.Kind)
}

func TestAuthorWrite_SkipsDegenerateRects(t *testing.T) {
	testPath := filepath.Join("..", "..", "testdata", "static-form.pdf")
	doc, err := os.ReadFile(testPath)
	if os.IsNotExist(err) {
		t.Skipf("Test file %s not found", testPath)
	}
	require.NoError(t, err)

	placements := []FieldPlacement{
		{Name: "flat", Kind: fields.KindText, Page: 1, Rect: [4]float64{50, 700, 50, 700}},
		{Name: "ok", Kind: fields.KindText, Page: 1, Rect: [4]float64{50, 650, 150, 670}},
	}

	a := NewAuthor()
	var out bytes.Buffer
	added, err := a.Write(bytes.NewReader(doc), &out, placements)

	require.NoError(t, err)
	require.Len(t, added, 1)
	assert.Equal(t, "ok", added[0].Name)
}
