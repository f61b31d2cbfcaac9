// Package router maps intent types to execution plans.
//
// Routing is a pure lookup: a static table pairs each known intent type
// with a plan template and the context keys it requires. The router
// performs no I/O and never invokes an agent; per-context behavior lives
// inside the agents, not here.
package router
