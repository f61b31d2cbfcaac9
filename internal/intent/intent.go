package intent

import "errors"

// Validation errors for incoming intents.
var (
	ErrEmptyType  = errors.New("intent type cannot be empty")
	ErrNilContext = errors.New("intent context cannot be nil")
)

// Intent describes a unit of work for the pipeline to fulfil.
//
// This is the sole external wire shape of the control plane: callers
// (webhook handlers, schedulers, CLIs) construct one per invocation.
type Intent struct {
	// Type selects the execution plan (e.g. "implement_ticket").
	Type string `json:"type"`

	// Context carries type-specific inputs. Required keys are enforced
	// by the router, per intent type.
	Context map[string]any `json:"context"`

	// Metadata carries trigger provenance and other caller annotations.
	// Never consulted for routing.
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Validate checks the intent shape before any trace or step is created.
func (in *Intent) Validate() error {
	if in.Type == "" {
		return ErrEmptyType
	}
	if in.Context == nil {
		return ErrNilContext
	}
	return nil
}

// MetaString returns a string metadata value, or the fallback when the key
// is absent or not a string.
func (in *Intent) MetaString(key, fallback string) string {
	if in.Metadata == nil {
		return fallback
	}
	if v, ok := in.Metadata[key].(string); ok && v != "" {
		return v
	}
	return fallback
}
