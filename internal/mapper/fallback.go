package mapper

import (
	"fmt"
	"sort"
	"strings"

	"github.com/formsense/formsense/internal/fields"
)

// Fallback score tiers.
const (
	scoreContainment = 1.0
	scoreSameBucket  = 0.8
	scoreKindHint    = 0.6

	minFallbackScore = 0.6
)

// domainBuckets groups data keys and field names into domain concepts.
// Membership is checked by substring, not equality: "telefono_mobile" and
// "numero cellulare" land in the same bucket.
var domainBuckets = map[string][]string{
	"name":         {"nome", "firstname", "first_name"},
	"surname":      {"cognome", "surname", "lastname", "last_name"},
	"taxcode":      {"codice fiscale", "codicefiscale", "codice_fiscale", "fiscale", "taxcode", "tax_code"},
	"email":        {"email", "e-mail", "mail", "pec"},
	"phone":        {"telefono", "cellulare", "phone", "mobile"},
	"address":      {"indirizzo", "address", "residenza", "via"},
	"municipality": {"comune", "municipality", "citta", "city"},
	"postalcode":   {"cap", "postal", "zip"},
	"province":     {"provincia", "province"},
	"pod":          {"pod"},
	"pdr":          {"pdr"},
	"consumption":  {"consumo", "consumption"},
	"power":        {"potenza", "power", "kw"},
	"supplier":     {"fornitore", "supplier", "agenzia"},
	"date":         {"data", "date", "scadenza", "attivazione"},
}

// kindHints suggest a field kind from the data key's name.
var kindHints = []struct {
	substr string
	kind   fields.FieldKind
}{
	{"data", fields.KindDate},
	{"email", fields.KindEmail},
	{"telefon", fields.KindTel},
}

// FallbackMap maps data keys to fields with deterministic local heuristics.
// Every non-empty value scores every field independently; the single best
// field per key is kept, emitted only at or above the minimum score.
// Exclusivity is deliberately not enforced: several keys may map to one
// field, and the caller resolves that as it sees fit.
func FallbackMap(data map[string]interface{}, targets []TargetField) []fields.FieldMapping {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	mappings := []fields.FieldMapping{}
	for _, key := range keys {
		value := data[key]
		if isEmptyValue(value) {
			continue
		}

		bestScore := 0.0
		bestField := ""
		for _, t := range targets {
			score := scorePair(key, t)
			if score > bestScore {
				bestScore = score
				bestField = t.Name
			}
		}

		if bestScore >= minFallbackScore {
			mappings = append(mappings, fields.FieldMapping{
				FieldName:  bestField,
				DataKey:    key,
				Value:      value,
				Confidence: bestScore,
			})
		}
	}
	return mappings
}

// scorePair rates one (data key, field) pair. The full-containment tier
// requires the field's own identifier to appear inside the data key (or
// exact equality): a key that merely shares a word with a longer field name
// lands in the bucket tier instead.
func scorePair(key string, t TargetField) float64 {
	keyLower := strings.ToLower(key)
	nameLower := strings.ToLower(t.Name)
	labelLower := strings.ToLower(t.Label)

	if keyLower == nameLower || (labelLower != "" && keyLower == labelLower) ||
		(nameLower != "" && strings.Contains(keyLower, nameLower)) ||
		(labelLower != "" && strings.Contains(keyLower, labelLower)) {
		return scoreContainment
	}
	if sameBucket(keyLower, nameLower+" "+labelLower) {
		return scoreSameBucket
	}
	if hint, ok := hintedKind(keyLower); ok && hint == t.Kind {
		return scoreKindHint
	}
	return 0
}

func sameBucket(keyLower, fieldText string) bool {
	for _, members := range domainBuckets {
		if bucketContains(members, keyLower) && bucketContains(members, fieldText) {
			return true
		}
	}
	return false
}

func bucketContains(members []string, text string) bool {
	for _, m := range members {
		if strings.Contains(text, m) {
			return true
		}
	}
	return false
}

func hintedKind(keyLower string) (fields.FieldKind, bool) {
	for _, h := range kindHints {
		if strings.Contains(keyLower, h.substr) {
			return h.kind, true
		}
	}
	return "", false
}

func isEmptyValue(v interface{}) bool {
	if v == nil {
		return true
	}
	return strings.TrimSpace(fmt.Sprintf("%v", v)) == ""
}
