package pdfdoc

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ledongthuc/pdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractPages_RejectsOversizedDocument(t *testing.T) {
	e := NewExtractor(10)

	_, err := e.ExtractPages(make([]byte, 11))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "too large")
}

func TestExtractPages_InvalidDocument(t *testing.T) {
	e := NewExtractor(1024 * 1024)

	_, err := e.ExtractPages([]byte("not a pdf"))
	require.Error(t, err)
}

func TestMergeRuns_GroupsGlyphsOnOneBaseline(t *testing.T) {
	// Three glyph fragments spelling "Nome" plus a distant "Data" fragment,
	// all on a 842pt-high page at baseline y=742.
	texts := []pdf.Text{
		{S: "N", X: 50, Y: 742, W: 8, FontSize: 12},
		{S: "o", X: 58, Y: 742, W: 7, FontSize: 12},
		{S: "me", X: 65, Y: 742, W: 15, FontSize: 12},
		{S: "Data", X: 300, Y: 742, W: 30, FontSize: 12},
	}

	runs := mergeRuns(texts, 1, 842)

	require.Len(t, runs, 2)
	assert.Equal(t, "Nome", runs[0].Content)
	assert.Equal(t, 50.0, runs[0].X)
	assert.Equal(t, 30.0, runs[0].Width)
	assert.Equal(t, 12.0, runs[0].Height)
	// Bottom-up baseline 742 with height 12 maps to y-down 88.
	assert.Equal(t, 88.0, runs[0].Y)
	assert.Equal(t, 1, runs[0].Page)

	assert.Equal(t, "Data", runs[1].Content)
	assert.Equal(t, 300.0, runs[1].X)
}

func TestMergeRuns_InsertsSpacesForWordGaps(t *testing.T) {
	texts := []pdf.Text{
		{S: "Codice", X: 50, Y: 700, W: 40, FontSize: 12},
		// 5pt gap: wider than a kerning gap, narrower than a run break.
		{S: "Fiscale", X: 95, Y: 700, W: 45, FontSize: 12},
	}

	runs := mergeRuns(texts, 1, 842)

	require.Len(t, runs, 1)
	assert.Equal(t, "Codice Fiscale", runs[0].Content)
}

func TestMergeRuns_SeparatesBaselines(t *testing.T) {
	texts := []pdf.Text{
		{S: "sotto", X: 50, Y: 600, W: 30, FontSize: 12},
		{S: "sopra", X: 50, Y: 700, W: 30, FontSize: 12},
	}

	runs := mergeRuns(texts, 1, 842)

	require.Len(t, runs, 2)
	// Higher baseline (larger bottom-up y) comes first.
	assert.Equal(t, "sopra", runs[0].Content)
	assert.Equal(t, "sotto", runs[1].Content)
	assert.Less(t, runs[0].Y, runs[1].Y)
}

func TestMergeRuns_Empty(t *testing.T) {
	assert.Nil(t, mergeRuns(nil, 1, 842))
}

func TestMergeRuns_ZeroFontSizeGetsDefault(t *testing.T) {
	runs := mergeRuns([]pdf.Text{{S: "x", X: 10, Y: 100, W: 5}}, 1, 842)

	require.Len(t, runs, 1)
	assert.Equal(t, 12.0, runs[0].Height)
}

func TestExtractPages_Integration(t *testing.T) {
	testPath := filepath.Join("..", "..", "testdata", "static-form.pdf")
	doc, err := os.ReadFile(testPath)
	if os.IsNotExist(err) {
		t.Skipf("Test file %s not found", testPath)
	}
	require.NoError(t, err)

	e := NewExtractor(100 * 1024 * 1024)
	pages, err := e.ExtractPages(doc)

	require.NoError(t, err)
	require.NotEmpty(t, pages)
	assert.Equal(t, 1, pages[0].Number)
	assert.Greater(t, pages[0].Width, 0.0)
	assert.Greater(t, pages[0].Height, 0.0)
}
