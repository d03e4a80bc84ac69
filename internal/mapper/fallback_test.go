package mapper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formsense/formsense/internal/fields"
)

func TestFallbackMap_ExactNameMatch(t *testing.T) {
	data := map[string]interface{}{"nome": "Mario"}
	targets := []TargetField{{Name: "nome", Label: "Nome", Kind: fields.KindText}}

	got := FallbackMap(data, targets)

	require.Len(t, got, 1)
	assert.Equal(t, "nome", got[0].FieldName)
	assert.Equal(t, "nome", got[0].DataKey)
	assert.Equal(t, "Mario", got[0].Value)
	assert.Equal(t, 1.0, got[0].Confidence)
}

func TestFallbackMap_BucketMatch(t *testing.T) {
	// The key names a shorter concept than the field; they still share the
	// phone bucket.
	data := map[string]interface{}{"telefono": "333 1234567"}
	targets := []TargetField{{Name: "telefono_mobile", Label: "Telefono Mobile", Kind: fields.KindTel}}

	got := FallbackMap(data, targets)

	require.Len(t, got, 1)
	assert.Equal(t, "telefono_mobile", got[0].FieldName)
	assert.Equal(t, 0.8, got[0].Confidence)
}

func TestFallbackMap_ContainmentBeatsBucket(t *testing.T) {
	data := map[string]interface{}{"telefono_mobile_privato": "333 1234567"}
	targets := []TargetField{
		{Name: "telefono_mobile", Label: "", Kind: fields.KindTel},
		{Name: "cellulare", Label: "Cellulare", Kind: fields.KindTel},
	}

	got := FallbackMap(data, targets)

	require.Len(t, got, 1)
	assert.Equal(t, "telefono_mobile", got[0].FieldName)
	assert.Equal(t, 1.0, got[0].Confidence)
}

func TestFallbackMap_KindHintAlone(t *testing.T) {
	data := map[string]interface{}{"data_attivazione_promo": "2026-01-01"}
	targets := []TargetField{{Name: "campo_x", Label: "Campo X", Kind: fields.KindDate}}

	got := FallbackMap(data, targets)

	require.Len(t, got, 1)
	assert.Equal(t, "campo_x", got[0].FieldName)
	assert.Equal(t, 0.6, got[0].Confidence)
}

func TestFallbackMap_BelowThresholdIsDropped(t *testing.T) {
	data := map[string]interface{}{"colore_preferito": "verde"}
	targets := []TargetField{{Name: "nome", Label: "Nome", Kind: fields.KindText}}

	got := FallbackMap(data, targets)
	assert.Empty(t, got)
}

func TestFallbackMap_SkipsEmptyValues(t *testing.T) {
	data := map[string]interface{}{
		"nome":    "",
		"cognome": "   ",
		"email":   nil,
	}
	targets := []TargetField{
		{Name: "nome", Kind: fields.KindText},
		{Name: "cognome", Kind: fields.KindText},
		{Name: "email", Kind: fields.KindEmail},
	}

	got := FallbackMap(data, targets)
	assert.Empty(t, got)
}

func TestFallbackMap_NonExclusive(t *testing.T) {
	// Two keys may legitimately claim the same field; resolution is left to
	// the caller.
	data := map[string]interface{}{
		"telefono":  "06 1234567",
		"cellulare": "333 1234567",
	}
	targets := []TargetField{{Name: "telefono", Label: "Telefono", Kind: fields.KindTel}}

	got := FallbackMap(data, targets)

	require.Len(t, got, 2)
	assert.Equal(t, "telefono", got[0].FieldName)
	assert.Equal(t, "telefono", got[1].FieldName)
}

func TestFallbackMap_DeterministicOrder(t *testing.T) {
	data := map[string]interface{}{
		"nome":    "Mario",
		"cognome": "Rossi",
		"email":   "mario@example.com",
	}
	targets := []TargetField{
		{Name: "nome", Kind: fields.KindText},
		{Name: "cognome", Kind: fields.KindText},
		{Name: "email", Kind: fields.KindEmail},
	}

	first := FallbackMap(data, targets)
	second := FallbackMap(data, targets)

	require.Equal(t, first, second)
	// Keys are visited in sorted order.
	assert.Equal(t, "cognome", first[0].DataKey)
	assert.Equal(t, "email", first[1].DataKey)
	assert.Equal(t, "nome", first[2].DataKey)
}

func TestScorePair_EmptyFieldIdentifiers(t *testing.T) {
	score := scorePair("nome", TargetField{Name: "", Label: "", Kind: fields.KindText})
	assert.Equal(t, 0.0, score)
}
