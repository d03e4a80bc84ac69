// Package synth persists detected fields as interactive form fields in a new
// copy of the document.
package synth

import (
	"bytes"
	"fmt"
	"io"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/formsense/formsense/internal/fields"
	"github.com/formsense/formsense/internal/pdfdoc"
)

// Max-length budgets for text-like kinds. Free text derives its budget from
// the blank run's pixel width instead; see maxLengthFor.
const (
	maxLenDate     = 10
	maxLenEmail    = 100
	maxLenTel      = 20
	maxLenTextarea = 500

	// Approximate character budget per pixel of width.
	charWidthPixels = 6.0
)

// Synthesizer writes detected fields into documents through the authoring
// collaborator. It is stateless across invocations; name-collision suffixing
// is scoped to a single Synthesize call.
type Synthesizer struct {
	author *pdfdoc.Author
	log    *logrus.Entry
}

// NewSynthesizer creates a synthesizer around the given author.
func NewSynthesizer(author *pdfdoc.Author) *Synthesizer {
	return &Synthesizer{
		author: author,
		log:    logrus.WithField("component", "synth.synthesizer"),
	}
}

// Synthesize persists the detected fields into a new document written to w,
// returning the fields actually created. The source is never mutated.
// Detected geometry arrives in top-left-origin y-down space and is converted
// to the document's bottom-up space here, exactly once. Fields are processed
// strictly in input order: ordering determines collision suffixes, so it is
// a correctness requirement rather than a performance choice.
func (s *Synthesizer) Synthesize(rs io.ReadSeeker, w io.Writer, detected []fields.DetectedField) ([]fields.CreatedField, error) {
	dims, err := pdfdoc.PageSizes(rs)
	if err != nil {
		return nil, fmt.Errorf("failed to read source document: %w", err)
	}
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to rewind source document: %w", err)
	}

	taken := make(map[string]bool, len(detected))
	placements := make([]pdfdoc.FieldPlacement, 0, len(detected))
	byName := make(map[string]fields.CreatedField, len(detected))

	for _, d := range detected {
		if d.Page < 1 || d.Page > len(dims) {
			s.log.WithFields(logrus.Fields{"field": d.GeneratedName, "page": d.Page}).
				Warn("skipping field on missing page")
			continue
		}
		pageHeight := dims[d.Page-1].Height

		name := uniqueName(d.GeneratedName, taken)
		taken[name] = true

		// Top-down y to bottom-up y: applied here and nowhere else.
		lly := pageHeight - d.Geometry.Y - d.Geometry.Height
		rect := [4]float64{
			d.Geometry.X,
			lly,
			d.Geometry.X + d.Geometry.Width,
			lly + d.Geometry.Height,
		}

		maxLen := maxLengthFor(d.Kind, d.Geometry.Width)

		placements = append(placements, pdfdoc.FieldPlacement{
			Name:     name,
			Kind:     d.Kind,
			Label:    d.Label,
			Page:     d.Page,
			Rect:     rect,
			MaxLen:   maxLen,
			Required: d.Required,
		})
		byName[name] = fields.CreatedField{
			Name:      name,
			Kind:      d.Kind,
			Label:     d.Label,
			Page:      d.Page,
			Geometry:  fields.Geometry{X: rect[0], Y: rect[1], Width: d.Geometry.Width, Height: d.Geometry.Height},
			MaxLength: maxLen,
			Required:  d.Required,
		}
	}

	added, err := s.author.Write(rs, w, placements)
	if err != nil {
		return nil, fmt.Errorf("failed to write synthesized document: %w", err)
	}

	created := make([]fields.CreatedField, 0, len(added))
	for _, p := range added {
		created = append(created, byName[p.Name])
	}

	s.log.WithFields(logrus.Fields{
		"requested": len(detected),
		"created":   len(created),
	}).Debug("synthesis complete")

	return created, nil
}

// SynthesizeBytes is a convenience wrapper over Synthesize for callers
// holding the source document in memory.
func (s *Synthesizer) SynthesizeBytes(doc []byte, detected []fields.DetectedField) ([]byte, []fields.CreatedField, error) {
	var out bytes.Buffer
	created, err := s.Synthesize(bytes.NewReader(doc), &out, detected)
	if err != nil {
		return nil, nil, err
	}
	return out.Bytes(), created, nil
}

// uniqueName resolves name collisions within one synthesis call by suffixing
// _1, _2, ... onto the base slug. Existing fields are never overwritten.
func uniqueName(base string, taken map[string]bool) string {
	if base == "" {
		base = "field"
	}
	if !taken[base] {
		return base
	}
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s_%d", base, i)
		if !taken[candidate] {
			return candidate
		}
	}
}

// maxLengthFor returns the character budget for a text-like kind. Checkboxes
// carry no budget. The width division is the exact formula used everywhere;
// changing it would make synthesized output nondeterministic across runs.
func maxLengthFor(kind fields.FieldKind, width float64) int {
	switch kind {
	case fields.KindDate:
		return maxLenDate
	case fields.KindEmail:
		return maxLenEmail
	case fields.KindTel:
		return maxLenTel
	case fields.KindTextarea:
		return maxLenTextarea
	case fields.KindCheckbox:
		return 0
	case fields.KindText, fields.KindNumber:
		return int(math.Floor(width / charWidthPixels))
	default:
		return int(math.Floor(width / charWidthPixels))
	}
}
