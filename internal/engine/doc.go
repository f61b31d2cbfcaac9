// Package engine drives execution plans through their agents, one step at
// a time, and records every run as an execution trace.
//
// The engine is single-threaded and synchronous per run: no step begins
// before the previous step's terminal status is recorded, and no timeout
// or cancellation primitive exists at this layer. Failure policy is
// stop-on-first-stop with a single guarded auto-fix retry after a review
// requests changes; anything broader belongs to the caller.
package engine
