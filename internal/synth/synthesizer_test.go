package synth

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formsense/formsense/internal/fields"
	"github.com/formsense/formsense/internal/pdfdoc"
)

func TestUniqueName(t *testing.T) {
	taken := map[string]bool{}

	first := uniqueName("data", taken)
	taken[first] = true
	second := uniqueName("data", taken)
	taken[second] = true
	third := uniqueName("data", taken)

	assert.Equal(t, "data", first)
	assert.Equal(t, "data_1", second)
	assert.Equal(t, "data_2", third)
}

func TestUniqueName_EmptyBase(t *testing.T) {
	taken := map[string]bool{}

	first := uniqueName("", taken)
	taken[first] = true
	second := uniqueName("", taken)

	assert.Equal(t, "field", first)
	assert.Equal(t, "field_1", second)
}

func TestMaxLengthFor(t *testing.T) {
	tests := []struct {
		name  string
		kind  fields.FieldKind
		width float64
		want  int
	}{
		{"date ignores width", fields.KindDate, 300, 10},
		{"email ignores width", fields.KindEmail, 300, 100},
		{"tel ignores width", fields.KindTel, 300, 20},
		{"textarea ignores width", fields.KindTextarea, 300, 500},
		{"checkbox has no budget", fields.KindCheckbox, 300, 0},
		{"text derives from width", fields.KindText, 100, 16},
		{"number derives from width", fields.KindNumber, 90, 15},
		{"width rounds down", fields.KindText, 95, 15},
		{"zero width", fields.KindText, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, maxLengthFor(tt.kind, tt.width))
		})
	}
}

func TestSynthesize_InvalidDocument(t *testing.T) {
	s := NewSynthesizer(pdfdoc.NewAuthor())

	var out bytes.Buffer
	_, err := s.Synthesize(bytes.NewReader([]byte("not a pdf")), &out, []fields.DetectedField{
		{GeneratedName: "nome", Kind: fields.KindText, Page: 1},
	})

	require.Error(t, err)
	assert.Zero(t, out.Len())
}

func TestSynthesize_Integration(t *testing.T) {
	testPath := filepath.Join("..", "..", "testdata", "static-form.pdf")
	doc, err := os.ReadFile(testPath)
	if os.IsNotExist(err) {
		t.Skipf("Test file %s not found", testPath)
	}
	require.NoError(t, err)

	detected := []fields.DetectedField{
		{
			Kind:          fields.KindText,
			Label:         "Nome",
			Geometry:      fields.Geometry{X: 120, Y: 100, Width: 90, Height: 20},
			Page:          1,
			Confidence:    fields.ConfidenceBlankMatch,
			GeneratedName: "nome",
		},
		{
			Kind:          fields.KindDate,
			Label:         "Data",
			Geometry:      fields.Geometry{X: 120, Y: 140, Width: 90, Height: 20},
			Page:          1,
			Confidence:    fields.ConfidenceBlankMatch,
			GeneratedName: "data",
		},
		{
			Kind:          fields.KindDate,
			Label:         "Data",
			Geometry:      fields.Geometry{X: 120, Y: 180, Width: 90, Height: 20},
			Page:          1,
			Confidence:    fields.ConfidenceBlankMatch,
			GeneratedName: "data",
		},
	}

	s := NewSynthesizer(pdfdoc.NewAuthor())
	out, created, err := s.SynthesizeBytes(doc, detected)
	require.NoError(t, err)
	require.Len(t, created, 3)

	// Colliding slugs get positional suffixes in input order.
	assert.Equal(t, "nome", created[0].Name)
	assert.Equal(t, "data", created[1].Name)
	assert.Equal(t, "data_1", created[2].Name)

	assert.Equal(t, 10, created[1].MaxLength)
	assert.Equal(t, 15, created[0].MaxLength)

	// The output is a distinct interactive document; the source is untouched.
	assert.NotEqual(t, doc, out)

	readBack, err := pdfdoc.ReadFields(out)
	require.NoError(t, err)
	names := make([]string, 0, len(readBack))
	for _, f := range readBack {
		names = append(names, f.Name)
	}
	assert.ElementsMatch(t, []string{"nome", "data", "data_1"}, names)
}

func TestSynthesize_SkipsFieldsOnMissingPages(t *testing.T) {
	testPath := filepath.Join("..", "..", "testdata", "static-form.pdf")
	doc, err := os.ReadFile(testPath)
	if os.IsNotExist(err) {
		t.Skipf("Test file %s not found", testPath)
	}
	require.NoError(t, err)

	detected := []fields.DetectedField{
		{Kind: fields.KindText, GeneratedName: "ok", Page: 1, Geometry: fields.Geometry{X: 50, Y: 50, Width: 100, Height: 20}},
		{Kind: fields.KindText, GeneratedName: "ghost", Page: 99, Geometry: fields.Geometry{X: 50, Y: 50, Width: 100, Height: 20}},
	}

	s := NewSynthesizer(pdfdoc.NewAuthor())
	_, created, err := s.SynthesizeBytes(doc, detected)
	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.Equal(t, "ok", created[0].Name)
}
