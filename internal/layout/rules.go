package layout

import "strings"

// Detection rule tables. The keyword sets mirror the vocabulary of the
// Italian utility-contract forms this pipeline was built for.

// labelKeywords is the closed set of domain keywords that mark a fragment as
// a label even without a trailing colon. Matching is case-insensitive
// prefix/substring.
var labelKeywords = []string{
	"nome",
	"cognome",
	"codice fiscale",
	"partita iva",
	"telefono",
	"cellulare",
	"email",
	"e-mail",
	"pec",
	"indirizzo",
	"comune",
	"cap",
	"provincia",
	"pod",
	"pdr",
	"data attivazione",
	"data scadenza",
	"fornitore",
	"agenzia",
	"luogo",
	"residenza",
	"firma",
}

// labelPhrases are mid-string patterns that mark a fragment as a label.
var labelPhrases = []string{
	"di nascita",
	"fiscale",
	"residenza",
}

// Keyword sets for type inference, checked against the label text in
// priority order: date, email, tel, number, textarea.
var (
	dateKeywords     = []string{"data", "scadenza", "nascita", "attivazione", "decorrenza"}
	emailKeywords    = []string{"email", "e-mail", "mail", "pec"}
	telKeywords      = []string{"telefono", "cellulare", "tel", "fax"}
	numberKeywords   = []string{"numero", "importo", "potenza", "consumo", "kw", "civico"}
	textareaKeywords = []string{"note", "osservazioni", "commenti", "descrizione"}
)

// requiredMarkers flag a label as naming a mandatory field.
var requiredMarkers = []string{"*", "obbligatorio"}

// checkboxGlyphs is the fixed symbol set recognized as checkbox glyphs.
const checkboxGlyphs = "☐☑✓✔◻◼▢▣□■"

// checkboxLiterals are multi-character fragments treated as checkboxes.
var checkboxLiterals = []string{"[ ]", "[X]", "[x]"}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

func matchesLabelKeyword(lower string) bool {
	return containsAny(lower, labelKeywords)
}
