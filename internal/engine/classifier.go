package engine

import (
	"fmt"

	"github.com/fyrsmithlabs/conductord/internal/agent"
)

// Verdict is the classifier's decision about one step's output.
type Verdict struct {
	// Stop halts the pipeline after this step.
	Stop bool

	// Blocked marks the step BLOCKED instead of FAIL when stopping.
	Blocked bool

	// Message becomes the step's error message (on stop) or output
	// summary (on continue).
	Message string
}

// classify decides whether the pipeline continues after a step.
//
// This is the only place continuation is decided; no task-specific code
// elsewhere in the engine short-circuits the run. The switch is exhaustive
// over the closed output union: review decisions other than APPROVE stop,
// failing test statuses stop, and otherwise the generic success flag
// governs.
func classify(agentName string, out agent.Output) Verdict {
	switch v := out.(type) {
	case agent.ReviewOutcome:
		switch v.Decision {
		case agent.DecisionApprove:
			return Verdict{Message: "review approved: " + v.Reasoning}
		case agent.DecisionBlock:
			return Verdict{Stop: true, Blocked: true, Message: "review blocked the change: " + v.Reasoning}
		default:
			return Verdict{Stop: true, Message: "review requested changes: " + v.Reasoning}
		}
	case agent.TestOutcome:
		if v.Status == agent.TestPass {
			return Verdict{Message: "tests passed: " + v.Summary}
		}
		return Verdict{Stop: true, Message: fmt.Sprintf("tests failed (%d failures): %s", v.FailedCount, v.Summary)}
	case agent.GenericOutcome:
		if v.Success {
			msg := v.Summary
			if msg == "" {
				msg = "step completed"
			}
			return Verdict{Message: msg}
		}
		msg := v.Error
		if msg == "" {
			msg = "agent reported failure"
		}
		return Verdict{Stop: true, Message: msg}
	default:
		return Verdict{Stop: true, Message: fmt.Sprintf("agent %s returned an unrecognized output", agentName)}
	}
}
