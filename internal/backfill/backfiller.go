// Package backfill derives human-readable labels for interactive fields that
// already exist in a document.
package backfill

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/sirupsen/logrus"

	"github.com/formsense/formsense/internal/fields"
	"github.com/formsense/formsense/internal/pdfdoc"
)

const (
	// Text runs within this Euclidean distance of a field's anchor are
	// considered label candidates.
	labelSearchRadius = 150.0

	maxNearbyContext = 10

	// A fragment "looks like a label" when it ends with a colon or its
	// length is strictly inside this range and it carries a letter.
	minLooseLabelLength = 3
	maxLooseLabelLength = 50
)

// autoNameRE matches field names that look machine-generated rather than
// descriptive: generic stems with a numeric suffix.
var autoNameRE = regexp.MustCompile(`(?i)^(group|check ?box|data|text|field|undefined)[ _-]?(\d+)$`)

var numericNameRE = regexp.MustCompile(`^\d+$`)

// Field is an existing interactive field annotated with a best-effort label
// and the surrounding text fragments used to derive it.
type Field struct {
	fields.CreatedField
	NearbyContext []string `json:"nearby_context,omitempty"`
}

// Backfiller annotates pre-existing interactive fields with labels by
// nearest-neighbor search over the document's positioned text.
type Backfiller struct {
	extractor *pdfdoc.Extractor
	log       *logrus.Entry
}

// NewBackfiller creates a backfiller around the given extraction handle.
func NewBackfiller(extractor *pdfdoc.Extractor) *Backfiller {
	return &Backfiller{
		extractor: extractor,
		log:       logrus.WithField("component", "backfill.backfiller"),
	}
}

// Backfill reads every interactive field already present in the document and
// attaches a suggested label. An unreadable text layer degrades to labels
// copied from field names with empty context; only failure to read the
// document's field dictionary itself is an error.
func (b *Backfiller) Backfill(doc []byte) ([]Field, error) {
	existing, err := pdfdoc.ReadFields(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to read existing fields: %w", err)
	}

	pages, err := b.extractor.ExtractPages(doc)
	if err != nil {
		b.log.Warnf("text extraction failed, labeling fields by name: %v", err)
		pages = nil
	}

	byPage := make(map[int]pdfdoc.PageText, len(pages))
	for _, p := range pages {
		byPage[p.Number] = p
	}

	result := make([]Field, 0, len(existing))
	for _, ef := range existing {
		f := Field{CreatedField: toCreatedField(ef)}

		page, ok := byPage[ef.Page]
		if ok && len(page.Runs) > 0 {
			f.NearbyContext = nearestFragments(ef, page)
			if label, found := pickLabel(f.NearbyContext); found {
				f.Label = label
			}
		}
		if f.Label == "" {
			if pages == nil {
				f.Label = f.Name
			} else {
				f.Label = HumanizeName(f.Name)
			}
		}

		result = append(result, f)
	}

	return result, nil
}

func toCreatedField(ef pdfdoc.ExistingField) fields.CreatedField {
	return fields.CreatedField{
		Name: ef.Name,
		Kind: ef.Kind,
		Page: ef.Page,
		Geometry: fields.Geometry{
			X:      ef.Rect[0],
			Y:      ef.Rect[1],
			Width:  ef.Rect[2] - ef.Rect[0],
			Height: ef.Rect[3] - ef.Rect[1],
		},
		MaxLength: ef.MaxLength,
		Required:  ef.Required,
	}
}

// nearestFragments collects the text runs within the search radius of the
// field's anchor, ascending by distance, capped at the context limit. The
// anchor is the field's top-left corner expressed in the extraction space.
func nearestFragments(ef pdfdoc.ExistingField, page pdfdoc.PageText) []string {
	anchorX := ef.Rect[0]
	anchorY := page.Height - ef.Rect[3] // top edge, y-down

	type candidate struct {
		dist    float64
		content string
	}

	var candidates []candidate
	for _, run := range page.Runs {
		trimmed := strings.TrimSpace(run.Content)
		if trimmed == "" {
			continue
		}
		dist := math.Hypot(run.X-anchorX, run.Y-anchorY)
		if dist > labelSearchRadius {
			continue
		}
		candidates = append(candidates, candidate{dist: dist, content: trimmed})
	}

	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].dist < candidates[j].dist })

	context := make([]string, 0, maxNearbyContext)
	for _, c := range candidates {
		if len(context) == maxNearbyContext {
			break
		}
		context = append(context, c.content)
	}
	return context
}

// pickLabel returns the first context fragment that looks like a label.
func pickLabel(context []string) (string, bool) {
	for _, fragment := range context {
		if looksLikeLabel(fragment) {
			return strings.TrimSpace(strings.TrimRight(fragment, ": ")), true
		}
	}
	return "", false
}

func looksLikeLabel(fragment string) bool {
	if strings.HasSuffix(fragment, ":") {
		return true
	}
	n := len(fragment)
	if n <= minLooseLabelLength || n >= maxLooseLabelLength {
		return false
	}
	for _, r := range fragment {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

// HumanizeName turns a stored field name into a presentable label.
// Machine-generated names become a parameterized descriptive phrase instead
// of a bare identifier; descriptive names are title-cased with underscores
// converted to spaces.
func HumanizeName(name string) string {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "Field (see document)"
	}

	if numericNameRE.MatchString(trimmed) {
		return fmt.Sprintf("Field %s (see document)", trimmed)
	}

	if m := autoNameRE.FindStringSubmatch(trimmed); m != nil {
		stem := strings.ToLower(strings.ReplaceAll(m[1], " ", ""))
		switch stem {
		case "data":
			return fmt.Sprintf("Date %s (see document)", m[2])
		case "checkbox":
			return fmt.Sprintf("Checkbox %s (see document)", m[2])
		case "group":
			return fmt.Sprintf("Group %s (see document)", m[2])
		default:
			return fmt.Sprintf("Field %s (see document)", m[2])
		}
	}

	words := strings.FieldsFunc(trimmed, func(r rune) bool { return r == '_' || r == ' ' })
	for i, w := range words {
		runes := []rune(w)
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}
