package mapper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/formsense/formsense/internal/fields"
)

// Provider-class timeouts for the primary path. The completion class runs
// local models and gets the longer budget.
const (
	chatTimeout       = 30 * time.Second
	completionTimeout = 60 * time.Second
)

var (
	// ErrProviderUnavailable marks a primary-path transport failure.
	ErrProviderUnavailable = errors.New("inference provider unavailable")

	// ErrNoJSONPayload marks a provider response without a parseable JSON
	// array.
	ErrNoJSONPayload = errors.New("no JSON array in provider response")
)

// completer is the common surface of both provider clients.
type completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Mapper maps a data bag onto target fields. The primary path asks the
// configured inference provider; any primary failure transitions exactly
// once to the deterministic local fallback. Nothing Map does can fail from
// the caller's point of view.
type Mapper struct {
	settings func() (Settings, error)
	log      *logrus.Entry

	// newCompleter builds the provider client for one invocation; tests
	// override it to point at local servers.
	newCompleter func(s Settings) (completer, time.Duration, error)
}

// NewMapper creates a mapper. The settings function is invoked once per Map
// call, so provider changes in the configuration store take effect on the
// next invocation without restarting.
func NewMapper(settings func() (Settings, error)) *Mapper {
	return &Mapper{
		settings:     settings,
		log:          logrus.WithField("component", "mapper"),
		newCompleter: buildCompleter,
	}
}

// Map associates data keys with field names. The result may be empty but
// Map never fails: every primary-path error is logged and recovered through
// the fallback heuristics.
func (m *Mapper) Map(ctx context.Context, data map[string]interface{}, targets []TargetField) []fields.FieldMapping {
	if len(data) == 0 || len(targets) == 0 {
		return []fields.FieldMapping{}
	}

	runID := uuid.NewString()
	log := m.log.WithField("run_id", runID)

	mappings, err := m.mapPrimary(ctx, data, targets)
	if err != nil {
		log.Warnf("primary mapping path failed, using fallback: %v", err)
		mappings = FallbackMap(data, targets)
	}

	log.WithFields(logrus.Fields{
		"data_keys": len(data),
		"targets":   len(targets),
		"mappings":  len(mappings),
	}).Debug("mapping complete")

	return mappings
}

// mapPrimary runs the inference-service path. It returns an error instead of
// recovering so the caller performs the single explicit fallback transition;
// there is no retry against the same provider and no cross-provider retry.
func (m *Mapper) mapPrimary(ctx context.Context, data map[string]interface{}, targets []TargetField) ([]fields.FieldMapping, error) {
	settings, err := m.settings()
	if err != nil {
		return nil, fmt.Errorf("failed to read mapper settings: %w", err)
	}

	client, timeout, err := m.newCompleter(settings)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	raw, err := client.Complete(ctx, BuildInstruction(data, targets))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}

	payload, ok := extractJSONArray(raw)
	if !ok {
		return nil, ErrNoJSONPayload
	}

	var parsed []struct {
		FieldName  string  `json:"fieldName"`
		DataKey    string  `json:"dataKey"`
		Confidence float64 `json:"confidence"`
	}
	if err := json.Unmarshal([]byte(payload), &parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoJSONPayload, err)
	}

	mappings := make([]fields.FieldMapping, 0, len(parsed))
	for _, p := range parsed {
		value, present := data[p.DataKey]
		if !present {
			// The model hallucinated a key that is not in the bag.
			continue
		}
		mappings = append(mappings, fields.FieldMapping{
			FieldName:  p.FieldName,
			DataKey:    p.DataKey,
			Value:      value,
			Confidence: p.Confidence,
		})
	}
	return mappings, nil
}

// buildCompleter selects the provider client for the configured provider
// class.
func buildCompleter(s Settings) (completer, time.Duration, error) {
	switch s.Provider {
	case ProviderChat:
		if s.ChatEndpoint == "" || s.ChatModel == "" {
			return nil, 0, fmt.Errorf("chat provider is not configured")
		}
		return NewChatClient(s.ChatEndpoint, s.ChatModel, s.ChatAPIKey), chatTimeout, nil
	case ProviderCompletion:
		if s.CompletionEndpoint == "" || s.CompletionModel == "" {
			return nil, 0, fmt.Errorf("completion provider is not configured")
		}
		return NewCompletionClient(s.CompletionEndpoint, s.CompletionModel), completionTimeout, nil
	default:
		return nil, 0, fmt.Errorf("unknown provider %q", s.Provider)
	}
}
