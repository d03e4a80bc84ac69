package mapper

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formsense/formsense/internal/fields"
)

func TestBuildInstruction(t *testing.T) {
	data := map[string]interface{}{
		"nome":     "Mario",
		"cognome":  "Rossi",
		"telefono": "333 1234567",
	}
	targets := []TargetField{
		{Name: "nome", Label: "Nome", Kind: fields.KindText, Required: true},
		{Name: "telefono_mobile", Label: "Telefono Mobile", Kind: fields.KindTel},
	}

	got := BuildInstruction(data, targets)

	assert.Contains(t, got, "- nome: Mario")
	assert.Contains(t, got, "- cognome: Rossi")
	assert.Contains(t, got, `name=nome, label="Nome", kind=text, required`)
	assert.Contains(t, got, `name=telefono_mobile, label="Telefono Mobile", kind=tel`)
	assert.Contains(t, got, "ONLY a JSON array")
	assert.Contains(t, got, `"fieldName"`)

	// Data keys are enumerated in sorted order.
	assert.Less(t, strings.Index(got, "- cognome:"), strings.Index(got, "- nome:"))
	assert.Less(t, strings.Index(got, "- nome:"), strings.Index(got, "- telefono:"))
}

func TestBuildInstruction_Deterministic(t *testing.T) {
	data := map[string]interface{}{"b": 2, "a": 1, "c": 3}
	targets := []TargetField{{Name: "x", Kind: fields.KindText}}

	first := BuildInstruction(data, targets)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, BuildInstruction(data, targets))
	}
}

func TestExtractJSONArray(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
		found bool
	}{
		{
			name:  "bare array",
			input: `[{"fieldName":"nome"}]`,
			want:  `[{"fieldName":"nome"}]`,
			found: true,
		},
		{
			name:  "array wrapped in prose",
			input: "Here is the mapping:\n[{\"a\":1}]\nHope it helps!",
			want:  `[{"a":1}]`,
			found: true,
		},
		{
			name:  "brackets inside string literals",
			input: `[{"note":"valori [a] e \"b]\""}]`,
			want:  `[{"note":"valori [a] e \"b]\""}]`,
			found: true,
		},
		{
			name:  "nested arrays",
			input: `x [1, [2, 3], 4] y`,
			want:  `[1, [2, 3], 4]`,
			found: true,
		},
		{
			name:  "no array",
			input: `{"fieldName":"nome"}`,
			found: false,
		},
		{
			name:  "unbalanced",
			input: `[1, 2`,
			found: false,
		},
		{
			name:  "empty input",
			input: "",
			found: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found := extractJSONArray(tt.input)
			require.Equal(t, tt.found, found)
			if tt.found {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}
