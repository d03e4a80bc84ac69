// Package layout infers human-fillable regions from the positioned text of a
// static document.
package layout

import (
	"math"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/formsense/formsense/internal/fields"
	"github.com/formsense/formsense/internal/pdfdoc"
)

const (
	// Label candidates outside this length range are rejected.
	minLabelLength = 3
	maxLabelLength = 100

	// Blank runs reported with zero-size geometry get this default box.
	defaultBlankWidth  = 100.0
	defaultBlankHeight = 20.0

	// Label-to-blank matching tolerances.
	rightOfVerticalTolerance = 20.0
	belowHorizontalTolerance = 50.0
	proximityThreshold       = 50.0

	checkboxSize = 15.0

	maxGeneratedNameLength = 50
	maxNearbyContext       = 5
)

var (
	blankUnderscoreRE = regexp.MustCompile(`^[_\s]{3,}$`)
	blankDotsRE       = regexp.MustCompile(`^\.{3,}$`)
	nonNameRE         = regexp.MustCompile(`[^a-z0-9\s]+`)
	whitespaceRE      = regexp.MustCompile(`\s+`)
)

// Analysis is the result of one analyzer run over a document.
type Analysis struct {
	PageCount  int                    `json:"page_count"`
	Fields     []fields.DetectedField `json:"fields"`
	TextBlocks []pdfdoc.TextRun       `json:"text_blocks"`
}

// Analyzer detects fillable regions by combining label detection, blank-run
// detection and checkbox-glyph detection over positioned text runs. It holds
// no per-document state; one instance serves any number of documents.
type Analyzer struct {
	extractor *pdfdoc.Extractor
	log       *logrus.Entry
}

// NewAnalyzer creates an analyzer around the given extraction handle.
func NewAnalyzer(extractor *pdfdoc.Extractor) *Analyzer {
	return &Analyzer{
		extractor: extractor,
		log:       logrus.WithField("component", "layout.analyzer"),
	}
}

// Analyze runs detection over every page. A document with no extractable
// text layer degrades to an empty result; Analyze never fails.
func (a *Analyzer) Analyze(doc []byte) *Analysis {
	result := &Analysis{Fields: []fields.DetectedField{}, TextBlocks: []pdfdoc.TextRun{}}
	log := a.log.WithField("run_id", uuid.NewString())

	pages, err := a.extractor.ExtractPages(doc)
	if err != nil {
		log.Warnf("text extraction failed, returning empty analysis: %v", err)
		return result
	}
	result.PageCount = len(pages)

	dropped := 0
	for _, page := range pages {
		result.TextBlocks = append(result.TextBlocks, page.Runs...)
		pageFields, pageDropped := a.analyzePage(page)
		result.Fields = append(result.Fields, pageFields...)
		dropped += pageDropped
	}

	sort.SliceStable(result.Fields, func(i, j int) bool {
		if result.Fields[i].Confidence != result.Fields[j].Confidence {
			return result.Fields[i].Confidence > result.Fields[j].Confidence
		}
		if result.Fields[i].Page != result.Fields[j].Page {
			return result.Fields[i].Page < result.Fields[j].Page
		}
		return result.Fields[i].Geometry.Y < result.Fields[j].Geometry.Y
	})

	log.WithFields(logrus.Fields{
		"pages":    result.PageCount,
		"fields":   len(result.Fields),
		"unpaired": dropped,
	}).Debug("analysis complete")

	return result
}

// analyzePage runs the sub-detectors over a single page's runs. The second
// return value counts labels that found no qualifying blank run; those are
// dropped silently as a known incompleteness, not an error.
func (a *Analyzer) analyzePage(page pdfdoc.PageText) ([]fields.DetectedField, int) {
	var detected []fields.DetectedField

	var labels, blanks []pdfdoc.TextRun
	for i, run := range page.Runs {
		trimmed := strings.TrimSpace(run.Content)
		switch {
		case isCheckboxGlyph(trimmed):
			detected = append(detected, a.checkboxField(page.Runs, i))
		case isBlankRun(trimmed):
			blanks = append(blanks, normalizeBlank(run))
		case isLabelCandidate(trimmed):
			labels = append(labels, run)
		}
	}

	dropped := 0
	for _, label := range labels {
		blankIdx := nearestBlank(label, blanks)
		if blankIdx < 0 {
			dropped++
			continue
		}
		blank := blanks[blankIdx]
		blanks = append(blanks[:blankIdx], blanks[blankIdx+1:]...)

		labelText := cleanLabel(label.Content)
		detected = append(detected, fields.DetectedField{
			Kind:  inferKind(labelText),
			Label: labelText,
			Geometry: fields.Geometry{
				X:      blank.X,
				Y:      blank.Y,
				Width:  blank.Width,
				Height: blank.Height,
			},
			Page:          page.Number,
			Confidence:    fields.ConfidenceBlankMatch,
			NearbyContext: nearbyContext(blank, page.Runs),
			GeneratedName: GenerateName(labelText),
			Required:      isRequiredLabel(label.Content),
		})
	}

	return detected, dropped
}

// checkboxField turns a glyph run into a detected field. The label is the
// immediately following fragment in extraction order; there is no geometric
// search for checkbox labels.
func (a *Analyzer) checkboxField(runs []pdfdoc.TextRun, glyphIdx int) fields.DetectedField {
	glyph := runs[glyphIdx]

	label := ""
	if glyphIdx+1 < len(runs) {
		label = cleanLabel(runs[glyphIdx+1].Content)
	}
	name := GenerateName(label)
	if name == "" {
		name = "checkbox"
	}

	return fields.DetectedField{
		Kind:  fields.KindCheckbox,
		Label: label,
		Geometry: fields.Geometry{
			X:      glyph.X,
			Y:      glyph.Y,
			Width:  checkboxSize,
			Height: checkboxSize,
		},
		Page:          glyph.Page,
		Confidence:    fields.ConfidenceCheckbox,
		GeneratedName: name,
	}
}

// nearestBlank returns the index of the closest qualifying blank run, or -1.
// A blank qualifies when it sits to the right of the label within the
// vertical tolerance, or below it within the horizontal tolerance; among
// qualifying blanks the smallest Euclidean distance wins, and only below the
// fixed proximity threshold.
func nearestBlank(label pdfdoc.TextRun, blanks []pdfdoc.TextRun) int {
	best := -1
	bestDist := proximityThreshold

	for i, blank := range blanks {
		dist, ok := labelBlankDistance(label, blank)
		if !ok {
			continue
		}
		if dist < bestDist {
			bestDist = dist
			best = i
		}
	}
	return best
}

// labelBlankDistance computes the Euclidean proximity between a label and a
// blank run. The gap along the primary direction is measured from the
// label's far edge so that long labels do not penalize adjacent blanks.
func labelBlankDistance(label, blank pdfdoc.TextRun) (float64, bool) {
	dist := math.Inf(1)
	ok := false

	if blank.X > label.X && math.Abs(blank.Y-label.Y) <= rightOfVerticalTolerance {
		gap := blank.X - (label.X + label.Width)
		if gap < 0 {
			gap = 0
		}
		dist = math.Hypot(gap, blank.Y-label.Y)
		ok = true
	}

	if blank.Y > label.Y && math.Abs(blank.X-label.X) <= belowHorizontalTolerance {
		gap := blank.Y - (label.Y + label.Height)
		if gap < 0 {
			gap = 0
		}
		if d := math.Hypot(blank.X-label.X, gap); d < dist {
			dist = d
		}
		ok = true
	}

	return dist, ok
}

// nearbyContext returns the contents of the closest runs around the matched
// blank, for downstream label disambiguation.
func nearbyContext(blank pdfdoc.TextRun, runs []pdfdoc.TextRun) []string {
	type candidate struct {
		dist    float64
		content string
	}

	var candidates []candidate
	for _, run := range runs {
		if run.X == blank.X && run.Y == blank.Y {
			continue
		}
		trimmed := strings.TrimSpace(run.Content)
		if trimmed == "" || isBlankRun(trimmed) {
			continue
		}
		candidates = append(candidates, candidate{
			dist:    math.Hypot(run.X-blank.X, run.Y-blank.Y),
			content: trimmed,
		})
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

func isBlankRun(trimmedOrRaw string) bool {
	if trimmedOrRaw == "" {
		return false
	}
	return blankUnderscoreRE.MatchString(trimmedOrRaw) || blankDotsRE.MatchString(trimmedOrRaw)
}

func normalizeBlank(run pdfdoc.TextRun) pdfdoc.TextRun {
	if run.Width <= 0 {
		run.Width = defaultBlankWidth
	}
	if run.Height <= 0 {
		run.Height = defaultBlankHeight
	}
	return run
}

func isCheckboxGlyph(trimmed string) bool {
	for _, lit := range checkboxLiterals {
		if trimmed == lit {
			return true
		}
	}
	runes := []rune(trimmed)
	return len(runes) == 1 && strings.ContainsRune(checkboxGlyphs, runes[0])
}

// isLabelCandidate decides whether a trimmed fragment names an adjacent
// fillable region.
func isLabelCandidate(trimmed string) bool {
	if len(trimmed) < minLabelLength || len(trimmed) > maxLabelLength {
		return false
	}
	if strings.HasSuffix(trimmed, ":") {
		return true
	}
	if strings.Contains(trimmed, "__") {
		return true
	}
	lower := strings.ToLower(trimmed)
	if matchesLabelKeyword(lower) {
		return true
	}
	return containsAny(lower, labelPhrases)
}

// cleanLabel trims whitespace plus the trailing colon and underscore filler.
func cleanLabel(content string) string {
	trimmed := strings.TrimSpace(content)
	trimmed = strings.TrimRight(trimmed, ":_ \t")
	return strings.TrimSpace(trimmed)
}

func isRequiredLabel(content string) bool {
	lower := strings.ToLower(content)
	return containsAny(lower, requiredMarkers)
}

// inferKind derives the field kind from the label text. Keyword families are
// checked in fixed priority order; anything unmatched is plain text entry.
func inferKind(label string) fields.FieldKind {
	lower := strings.ToLower(label)
	switch {
	case containsAny(lower, dateKeywords):
		return fields.KindDate
	case containsAny(lower, emailKeywords):
		return fields.KindEmail
	case containsAny(lower, telKeywords):
		return fields.KindTel
	case containsAny(lower, numberKeywords):
		return fields.KindNumber
	case containsAny(lower, textareaKeywords):
		return fields.KindTextarea
	default:
		return fields.KindText
	}
}

// GenerateName derives a document-safe slug from a label: lower-cased,
// non-alphanumerics stripped, whitespace collapsed to underscores, capped at
// 50 characters.
func GenerateName(label string) string {
	lower := strings.ToLower(strings.TrimSpace(label))
	lower = nonNameRE.ReplaceAllString(lower, "")
	lower = strings.TrimSpace(lower)
	name := whitespaceRE.ReplaceAllString(lower, "_")

	if len(name) > maxGeneratedNameLength {
		name = name[:maxGeneratedNameLength]
		name = strings.TrimRight(name, "_")
	}
	return name
}

// sanity guard used by tests; a generated name never carries characters the
// authoring layer would need to escape.
func isSafeName(name string) bool {
	for _, r := range name {
		if r != '_' && !unicode.IsLower(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
