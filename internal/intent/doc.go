// Package intent defines the typed request model that enters the pipeline
// and the key/value context threaded through its steps.
package intent
