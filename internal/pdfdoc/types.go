package pdfdoc

import (
	"github.com/formsense/formsense/internal/fields"
)

// TextRun is an immutable positioned text fragment extracted from a document
// page. Coordinates are top-left-origin with y increasing downward, matching
// raw text extraction order. Runs are never mutated after extraction.
type TextRun struct {
	Content string  `json:"content"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
	Page    int     `json:"page"`
}

// PageText holds the ordered text runs of a single page plus its dimensions.
type PageText struct {
	Number int       `json:"number"`
	Width  float64   `json:"width"`
	Height float64   `json:"height"`
	Runs   []TextRun `json:"runs"`
}

// ExistingField describes an interactive field read back from a document.
// Rect is in the document's native bottom-left-origin space.
type ExistingField struct {
	Name      string           `json:"name"`
	Kind      fields.FieldKind `json:"kind"`
	Label     string           `json:"label,omitempty"`
	Page      int              `json:"page"`
	Rect      [4]float64       `json:"rect"` // llx, lly, urx, ury
	MaxLength int              `json:"max_length,omitempty"`
	Required  bool             `json:"required"`
}

// FieldPlacement instructs the author to persist one interactive field.
// Rect is in the document's bottom-left-origin space; the caller performs
// any coordinate conversion before building placements.
type FieldPlacement struct {
	Name     string
	Kind     fields.FieldKind
	Label    string
	Page     int
	Rect     [4]float64 // llx, lly, urx, ury
	MaxLen   int        // 0 means no limit
	Required bool
}
