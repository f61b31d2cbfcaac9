// Package trace records pipeline runs as append-only execution traces.
//
// A trace is created once at the start of a run, written by that run only,
// and completed with a terminal status exactly once. Steps grow only by
// append, numbered from 1, and each step is finalized exactly once.
package trace
