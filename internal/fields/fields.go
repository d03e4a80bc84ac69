// Package fields holds the shared data model for the field detection,
// synthesis, backfill and mapping pipeline.
package fields

// FieldKind is the closed classification of a field's expected value shape.
type FieldKind string

const (
	KindText     FieldKind = "text"
	KindDate     FieldKind = "date"
	KindEmail    FieldKind = "email"
	KindTel      FieldKind = "tel"
	KindNumber   FieldKind = "number"
	KindTextarea FieldKind = "textarea"
	KindCheckbox FieldKind = "checkbox"
)

// Fixed detection confidences. These are literal constants, not computed
// scores; downstream consumers rely on the exact values.
const (
	ConfidenceBlankMatch = 0.8
	ConfidenceCheckbox   = 0.9
)

// IsValid checks if the field kind is one of the closed set.
func (k FieldKind) IsValid() bool {
	switch k {
	case KindText, KindDate, KindEmail, KindTel, KindNumber, KindTextarea, KindCheckbox:
		return true
	default:
		return false
	}
}

// DisplayName returns a human-readable name for a field kind.
func (k FieldKind) DisplayName() string {
	switch k {
	case KindText:
		return "Text"
	case KindDate:
		return "Date"
	case KindEmail:
		return "Email"
	case KindTel:
		return "Telephone"
	case KindNumber:
		return "Number"
	case KindTextarea:
		return "Text Area"
	case KindCheckbox:
		return "Checkbox"
	default:
		return "Unknown"
	}
}

// AllKinds returns every valid field kind.
func AllKinds() []FieldKind {
	return []FieldKind{
		KindText,
		KindDate,
		KindEmail,
		KindTel,
		KindNumber,
		KindTextarea,
		KindCheckbox,
	}
}

// Geometry is an axis-aligned rectangle. The coordinate space depends on the
// producer: detection works top-left-origin with y increasing downward,
// persisted fields use the document's bottom-left-origin space. The
// conversion between the two happens once, at the synthesizer boundary.
type Geometry struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// DetectedField is a classification result produced by the layout analyzer.
// It is not yet persisted anywhere.
type DetectedField struct {
	Kind          FieldKind `json:"kind"`
	Label         string    `json:"label"`
	Geometry      Geometry  `json:"geometry"`
	Page          int       `json:"page"`
	Confidence    float64   `json:"confidence"`
	NearbyContext []string  `json:"nearby_context,omitempty"`
	GeneratedName string    `json:"generated_name"`
	Required      bool      `json:"required"`
}

// CreatedField is a field actually persisted into a document, or discovered
// pre-existing by the label backfiller. Name is unique within one document
// and is the join key used by the data mapper.
type CreatedField struct {
	Name      string    `json:"name"`
	Kind      FieldKind `json:"kind"`
	Label     string    `json:"label,omitempty"`
	Page      int       `json:"page"`
	Geometry  Geometry  `json:"geometry"`
	MaxLength int       `json:"max_length,omitempty"` // text-like kinds only, 0 means unset
	Required  bool      `json:"required"`
}

// FieldMapping associates an external data key with a field name. Mappings
// are ephemeral: they live only within one mapper invocation and are never
// persisted by this package.
type FieldMapping struct {
	FieldName  string      `json:"fieldName"`
	DataKey    string      `json:"dataKey"`
	Value      interface{} `json:"value,omitempty"`
	Confidence float64     `json:"confidence"`
}
