package router

import (
	"fmt"
	"strings"
)

// UnknownIntentError reports an intent type with no plan template.
// Recoverable by the caller correcting the intent type.
type UnknownIntentError struct {
	IntentType string
	Known      []string
}

func (e *UnknownIntentError) Error() string {
	return fmt.Sprintf("unknown intent type %q (known: %s)", e.IntentType, strings.Join(e.Known, ", "))
}

// MissingContextError reports every required context key absent from the
// intent, not just the first. Recoverable by the caller supplying the keys.
type MissingContextError struct {
	IntentType  string
	MissingKeys []string
}

func (e *MissingContextError) Error() string {
	return fmt.Sprintf("intent %q missing required context keys: %s", e.IntentType, strings.Join(e.MissingKeys, ", "))
}
