// Package learning mines completed execution traces for recurring failure
// signatures and turns the frequent ones into human-reviewable proposals.
//
// Nothing here ever applies a change to any knowledge base: the gate
// scores patterns against fixed thresholds and records its decision, and a
// human acts on approved proposals out-of-band.
package learning
