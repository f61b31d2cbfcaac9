package trace

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Trace mutation errors. These indicate engine bugs, not caller mistakes.
var (
	ErrTraceCompleted = errors.New("trace already has a terminal status")
	ErrStepCompleted  = errors.New("step already has a terminal status")
	ErrNoSuchStep     = errors.New("no step with that number")
)

// PipelineStatus is the run-level status of a trace.
type PipelineStatus string

const (
	PipelineRunning PipelineStatus = "RUNNING"
	PipelineSuccess PipelineStatus = "SUCCESS"
	PipelinePartial PipelineStatus = "PARTIAL"
	PipelineFailed  PipelineStatus = "FAILED"
)

// Terminal reports whether the status ends a trace.
func (s PipelineStatus) Terminal() bool {
	return s == PipelineSuccess || s == PipelinePartial || s == PipelineFailed
}

// StepStatus is the status of a single execution step.
type StepStatus string

const (
	StepStarted StepStatus = "STARTED"
	StepSuccess StepStatus = "SUCCESS"
	StepFail    StepStatus = "FAIL"
	StepBlocked StepStatus = "BLOCKED"
)

// Terminal reports whether the status ends a step.
func (s StepStatus) Terminal() bool {
	return s == StepSuccess || s == StepFail || s == StepBlocked
}

// TriggerInfo records what caused a pipeline run.
type TriggerInfo struct {
	Source     string    `json:"source"`
	Actor      string    `json:"actor,omitempty"`
	ReceivedAt time.Time `json:"received_at"`
}

// ExecutionStep records one agent invocation within a trace.
type ExecutionStep struct {
	StepNumber      int        `json:"step_number"`
	AgentName       string     `json:"agent_name"`
	TaskDescription string     `json:"task_description"`
	Status          StepStatus `json:"status"`
	StartedAt       time.Time  `json:"started_at"`
	CompletedAt     time.Time  `json:"completed_at,omitempty"`
	Success         bool       `json:"success"`
	ErrorMessage    string     `json:"error_message,omitempty"`
	OutputSummary   string     `json:"output_summary,omitempty"`
}

// ExecutionTrace is the full provenance record of one pipeline run.
type ExecutionTrace struct {
	TraceID        string          `json:"trace_id"`
	Trigger        TriggerInfo     `json:"trigger"`
	IntentType     string          `json:"intent_type"`
	PipelineStatus PipelineStatus  `json:"pipeline_status"`
	StartedAt      time.Time       `json:"started_at"`
	CompletedAt    time.Time       `json:"completed_at,omitempty"`
	Steps          []ExecutionStep `json:"steps"`
	FinalError     string          `json:"final_error,omitempty"`
	PlanSummary    string          `json:"plan_summary,omitempty"`
}

// New creates a RUNNING trace with a fresh unique id.
func New(intentType string, trigger TriggerInfo) *ExecutionTrace {
	return &ExecutionTrace{
		TraceID:        uuid.New().String(),
		Trigger:        trigger,
		IntentType:     intentType,
		PipelineStatus: PipelineRunning,
		StartedAt:      time.Now().UTC(),
	}
}

// AppendStep adds a STARTED step and returns its step number.
// Step numbers start at 1 and grow by one per append.
func (t *ExecutionTrace) AppendStep(agentName, description string) (int, error) {
	if t.PipelineStatus.Terminal() {
		return 0, ErrTraceCompleted
	}
	step := ExecutionStep{
		StepNumber:      len(t.Steps) + 1,
		AgentName:       agentName,
		TaskDescription: description,
		Status:          StepStarted,
		StartedAt:       time.Now().UTC(),
	}
	t.Steps = append(t.Steps, step)
	return step.StepNumber, nil
}

// CompleteStep moves a step to its terminal status exactly once.
func (t *ExecutionTrace) CompleteStep(stepNumber int, status StepStatus, errMsg, summary string) error {
	if stepNumber < 1 || stepNumber > len(t.Steps) {
		return ErrNoSuchStep
	}
	step := &t.Steps[stepNumber-1]
	if step.Status.Terminal() {
		return ErrStepCompleted
	}
	step.Status = status
	step.CompletedAt = time.Now().UTC()
	step.Success = status == StepSuccess
	step.ErrorMessage = errMsg
	step.OutputSummary = summary
	return nil
}

// Complete moves the trace to a terminal status exactly once.
func (t *ExecutionTrace) Complete(status PipelineStatus, finalErr string) error {
	if t.PipelineStatus.Terminal() {
		return ErrTraceCompleted
	}
	if !status.Terminal() {
		return errors.New("cannot complete trace with non-terminal status " + string(status))
	}
	t.PipelineStatus = status
	t.CompletedAt = time.Now().UTC()
	t.FinalError = finalErr
	return nil
}

// FailedSteps returns the FAIL and BLOCKED steps, in order.
func (t *ExecutionTrace) FailedSteps() []ExecutionStep {
	var out []ExecutionStep
	for _, s := range t.Steps {
		if s.Status == StepFail || s.Status == StepBlocked {
			out = append(out, s)
		}
	}
	return out
}
