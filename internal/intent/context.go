package intent

// Context accumulates key/value state across pipeline steps.
//
// Agents never touch the accumulator directly: each step receives an
// isolated Snapshot and declares its outputs as a delta, which the engine
// merges back with Apply. The two engine-side mutation points are the
// post-development commit hook (which overwrites "code_changes" with the
// committed file set) and agent-declared deltas on successful steps.
type Context struct {
	values map[string]any
}

// NewContext seeds an accumulator from the intent's context map.
// The seed map is copied; the caller's map is never mutated.
func NewContext(seed map[string]any) *Context {
	values := make(map[string]any, len(seed))
	for k, v := range seed {
		values[k] = v
	}
	return &Context{values: values}
}

// Get returns the value for key and whether it is present.
func (c *Context) Get(key string) (any, bool) {
	v, ok := c.values[key]
	return v, ok
}

// Has reports whether key is present.
func (c *Context) Has(key string) bool {
	_, ok := c.values[key]
	return ok
}

// Set records a single derived value. Engine use only.
func (c *Context) Set(key string, value any) {
	c.values[key] = value
}

// Apply merges a step's declared delta into the accumulator.
// Later writes win on key collision.
func (c *Context) Apply(delta map[string]any) {
	for k, v := range delta {
		c.values[k] = v
	}
}

// Snapshot returns a shallow copy for handing to an agent. Agents that
// mutate their snapshot affect nothing outside their own step.
func (c *Context) Snapshot() map[string]any {
	out := make(map[string]any, len(c.values))
	for k, v := range c.values {
		out[k] = v
	}
	return out
}

// Len returns the number of keys currently held.
func (c *Context) Len() int {
	return len(c.values)
}
