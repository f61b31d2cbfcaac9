package engine

import "github.com/fyrsmithlabs/conductord/internal/agent"

// Pipeline outcome statuses returned to callers.
const (
	StatusSuccess = "success"
	StatusPartial = "partial"
	StatusFailure = "failure"
)

// AgentResult reports one attempted step to the caller.
type AgentResult struct {
	Agent   string       `json:"agent"`
	Success bool         `json:"success"`
	Output  agent.Output `json:"output,omitempty"`
	Error   string       `json:"error,omitempty"`
}

// PipelineResult is the engine's structured return value. Callers never
// see a bare error from Execute; failures are folded into this shape.
type PipelineResult struct {
	IntentType   string        `json:"intent_type"`
	Status       string        `json:"status"`
	AgentResults []AgentResult `json:"agent_results"`
	FinalCommit  string        `json:"final_commit,omitempty"`
	Error        string        `json:"error,omitempty"`
	TraceID      string        `json:"trace_id"`
}
