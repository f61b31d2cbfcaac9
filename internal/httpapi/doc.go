// Package httpapi exposes the control plane over HTTP.
//
// The intent wire shape accepted by POST /api/v1/intents is the sole
// external API surface of the core; the remaining routes are read-only
// views over traces, patterns and proposals, plus health and metrics.
package httpapi
