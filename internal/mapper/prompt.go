package mapper

import (
	"fmt"
	"sort"
	"strings"
)

// synonymRules is the fixed set of domain equivalences spelled out to the
// inference service. The `_2` suffix convention separates residence from
// supply addresses on the contract forms this pipeline targets.
var synonymRules = []string{
	`"name", "firstname" and "nome" are the same concept; "surname", "lastname" and "cognome" are the same concept`,
	`"taxcode", "fiscalcode" and "codice fiscale" (also "cf") are the same concept`,
	`"phone", "mobile", "telefono" and "cellulare" are the same concept`,
	`"address" and "indirizzo" refer to the residence address; a field name with a "_2" suffix refers to the supply address ("indirizzo fornitura")`,
	`"municipality", "city" and "comune" are the same concept; "cap" is the postal code; "provincia" is the province`,
	`"pod" identifies an electricity supply point; "pdr" identifies a gas supply point`,
	`"consumption", "consumo", "power", "potenza" and related kw values belong to the consumption/power keyword family`,
	`keys containing "data" or "date" belong to the date keyword family (activation, expiry, birth)`,
	`"supplier", "fornitore" and "agenzia" are the same concept`,
}

// BuildInstruction renders the single natural-language instruction sent to
// the inference service: every data pair, every target field, the synonym
// rules, and a strict response-format clause. Enumeration order is sorted so
// the instruction is deterministic for a given input.
func BuildInstruction(data map[string]interface{}, targets []TargetField) string {
	var b strings.Builder

	b.WriteString("You match data values to form fields.\n\nData values:\n")

	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "- %s: %v\n", k, data[k])
	}

	b.WriteString("\nForm fields:\n")
	for _, t := range targets {
		required := ""
		if t.Required {
			required = ", required"
		}
		fmt.Fprintf(&b, "- name=%s, label=%q, kind=%s%s\n", t.Name, t.Label, t.Kind, required)
	}

	b.WriteString("\nMatching rules:\n")
	for _, rule := range synonymRules {
		fmt.Fprintf(&b, "- %s\n", rule)
	}

	b.WriteString("\nRespond with ONLY a JSON array, no prose, no code fences. ")
	b.WriteString(`Each element must be {"fieldName": "...", "dataKey": "...", "confidence": 0.0-1.0}. `)
	b.WriteString("Omit data keys that match no field.")

	return b.String()
}

// extractJSONArray returns the first balanced [...] substring of s,
// respecting JSON string literals and escapes.
func extractJSONArray(s string) (string, bool) {
	start := strings.IndexByte(s, '[')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}
