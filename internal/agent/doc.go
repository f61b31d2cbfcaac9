// Package agent defines the contract between the orchestration engine and
// the workers it drives.
//
// Agents are opaque collaborators: the engine hands each one an isolated
// snapshot of the pipeline context and receives back exactly one variant of
// the closed Output union. The variant, not the agent, determines how the
// engine classifies the step.
package agent
