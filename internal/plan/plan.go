package plan

// AgentTask is one row of an execution plan: which agent runs, what it is
// asked to do, and any static parameters the template carries.
type AgentTask struct {
	Agent       string         `json:"agent"`
	Description string         `json:"description"`
	Params      map[string]any `json:"params,omitempty"`
}

// ExecutionPlan is the ordered list of agent tasks for one intent type.
//
// ParallelGroups is accepted by the model but never consumed: the engine
// executes tasks strictly in order. The field is retained because plan
// templates from the routing table carry it, and removing it would be an
// observable wire change for stored plans.
type ExecutionPlan struct {
	IntentType     string      `json:"intent_type"`
	Tasks          []AgentTask `json:"tasks"`
	ParallelGroups [][]int     `json:"parallel_groups,omitempty"`
}

// Summary renders a short human-readable description of the plan, used for
// the trace's plan_summary field.
func (p *ExecutionPlan) Summary() string {
	if len(p.Tasks) == 0 {
		return "empty plan"
	}
	s := p.Tasks[0].Agent
	for _, t := range p.Tasks[1:] {
		s += " -> " + t.Agent
	}
	return s
}
