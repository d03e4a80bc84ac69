// Package mapper connects externally supplied data values to form fields,
// using a remote inference service with a deterministic local fallback.
package mapper

import (
	"github.com/formsense/formsense/internal/fields"
)

// Provider selectors accepted by the mapper configuration.
const (
	ProviderChat       = "chat"
	ProviderCompletion = "completion"
)

// Settings is the mapper configuration read from the configuration store.
// It is fetched once per invocation and never cached across invocations:
// operators may switch the active provider between calls.
type Settings struct {
	Provider string

	ChatEndpoint string
	ChatModel    string
	ChatAPIKey   string

	CompletionEndpoint string
	CompletionModel    string
}

// TargetField describes one mapping target. Name is the join key; Label and
// Kind feed both the instruction text and the fallback scorer.
type TargetField struct {
	Name     string           `json:"name"`
	Label    string           `json:"label,omitempty"`
	Kind     fields.FieldKind `json:"kind"`
	Required bool             `json:"required"`
}
