// Package plan defines the ordered task list the router selects for an
// intent type.
package plan
