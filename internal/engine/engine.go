package engine

import (
	"context"
	"errors"
	"fmt"
	"path"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/conductord/internal/agent"
	"github.com/fyrsmithlabs/conductord/internal/gitops"
	"github.com/fyrsmithlabs/conductord/internal/intent"
	"github.com/fyrsmithlabs/conductord/internal/plan"
	"github.com/fyrsmithlabs/conductord/internal/router"
	"github.com/fyrsmithlabs/conductord/internal/telemetry"
	"github.com/fyrsmithlabs/conductord/internal/trace"
)

// Context keys the engine itself reads or writes.
const (
	// KeyCodeChanges holds the committed file set later steps review and
	// test. Overwritten by the post-development commit hook.
	KeyCodeChanges = "code_changes"

	// KeyBranchName optionally names the working branch for commits.
	KeyBranchName = "branch_name"

	// KeyAutoFix and KeyReviewIssues are added to the development
	// agent's snapshot for the guarded auto-fix attempt.
	KeyAutoFix      = "auto_fix"
	KeyReviewIssues = "review_issues"
)

// GitClient is the engine's view of the git collaborator.
type GitClient interface {
	ExecuteOperation(ctx context.Context, op gitops.Operation) (*gitops.Result, error)
}

// Engine executes intents against externally supplied agents.
type Engine struct {
	router  *router.Router
	agents  *agent.Registry
	traces  *trace.Store
	git     GitClient
	metrics *telemetry.Metrics
	logger  *zap.Logger
}

// New creates an engine. Router, registry and trace store are required;
// git and metrics may be nil (commit hooks then fail the step, metrics
// record nothing).
func New(r *router.Router, agents *agent.Registry, traces *trace.Store, git GitClient, metrics *telemetry.Metrics, logger *zap.Logger) (*Engine, error) {
	if r == nil {
		return nil, errors.New("router cannot be nil")
	}
	if agents == nil {
		return nil, errors.New("agent registry cannot be nil")
	}
	if traces == nil {
		return nil, errors.New("trace store cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		router:  r,
		agents:  agents,
		traces:  traces,
		git:     git,
		metrics: metrics,
		logger:  logger,
	}, nil
}

// run carries the per-execution state threaded through the step loop.
type run struct {
	trace       *trace.ExecutionTrace
	acc         *intent.Context
	results     []AgentResult
	finalCommit string
	autoFixUsed bool
}

// Execute drives one intent to completion or first failure.
//
// The returned result is always structured; agent errors, panics and git
// failures are recorded in the trace and folded into a partial outcome,
// never propagated as raw errors.
func (e *Engine) Execute(ctx context.Context, in intent.Intent) *PipelineResult {
	tr := trace.New(in.Type, trace.TriggerInfo{
		Source:     in.MetaString("trigger_source", "api"),
		Actor:      in.MetaString("trigger_actor", ""),
		ReceivedAt: time.Now().UTC(),
	})
	e.traces.Put(tr)

	if err := in.Validate(); err != nil {
		return e.fail(ctx, tr, in.Type, fmt.Sprintf("invalid intent: %v", err))
	}

	p, err := e.router.Route(in.Type, in.Context)
	if err != nil {
		// Routing failures never invoke an agent: the trace completes
		// FAILED with zero steps.
		return e.fail(ctx, tr, in.Type, err.Error())
	}
	tr.PlanSummary = p.Summary()

	r := &run{trace: tr, acc: intent.NewContext(in.Context)}

	for _, task := range p.Tasks {
		verdict, stepErr := e.runStep(ctx, r, task)
		if stepErr != nil {
			return e.partial(ctx, r, in.Type, stepErr.Error())
		}
		if verdict.Stop {
			return e.partial(ctx, r, in.Type, verdict.Message)
		}
	}

	_ = tr.Complete(trace.PipelineSuccess, "")
	e.metrics.RecordPipeline(ctx, StatusSuccess)
	e.logger.Info("pipeline succeeded",
		zap.String("trace_id", tr.TraceID),
		zap.String("intent_type", in.Type),
		zap.Int("steps", len(tr.Steps)))
	return &PipelineResult{
		IntentType:   in.Type,
		Status:       StatusSuccess,
		AgentResults: r.results,
		FinalCommit:  r.finalCommit,
		TraceID:      tr.TraceID,
	}
}

// runStep executes one plan task: append the step, invoke the agent, apply
// the commit and auto-fix hooks, classify, and finalize the step record.
// A returned error means the step already holds a FAIL status and the
// pipeline must stop.
func (e *Engine) runStep(ctx context.Context, r *run, task plan.AgentTask) (Verdict, error) {
	stepNum, err := r.trace.AppendStep(task.Agent, task.Description)
	if err != nil {
		return Verdict{}, err
	}

	out, err := e.invoke(ctx, task.Agent, r.acc.Snapshot())
	if err != nil {
		e.finishStep(ctx, r, stepNum, task.Agent, trace.StepFail, err.Error(), "")
		r.results = append(r.results, AgentResult{Agent: task.Agent, Error: err.Error()})
		return Verdict{}, err
	}

	// Post-step hook A: commit what the development agent produced, then
	// point later steps at the exact file set that was written.
	if task.Agent == router.AgentDevelopment {
		if g, ok := out.(agent.GenericOutcome); ok && g.Success {
			commitErr := e.commitChanges(ctx, r, g)
			if commitErr != nil {
				e.finishStep(ctx, r, stepNum, task.Agent, trace.StepFail, commitErr.Error(), "")
				r.results = append(r.results, AgentResult{Agent: task.Agent, Output: out, Error: commitErr.Error()})
				return Verdict{}, commitErr
			}
		}
	}

	// Post-step hook B: one guarded auto-fix after a review requests
	// changes. BLOCK is a hard stop and never triggers the retry. The
	// re-run review replaces this step's output in place; no extra step
	// is recorded.
	if task.Agent == router.AgentReview && !r.autoFixUsed {
		if rv, ok := out.(agent.ReviewOutcome); ok && rv.Decision == agent.DecisionRequestChanges {
			r.autoFixUsed = true
			if refreshed, ok := e.attemptAutoFix(ctx, r, rv); ok {
				out = refreshed
			}
		}
	}

	verdict := classify(task.Agent, out)
	if verdict.Stop {
		status := trace.StepFail
		if verdict.Blocked {
			status = trace.StepBlocked
		}
		e.finishStep(ctx, r, stepNum, task.Agent, status, verdict.Message, "")
		r.results = append(r.results, AgentResult{Agent: task.Agent, Output: out, Error: verdict.Message})
		return verdict, nil
	}

	if g, ok := out.(agent.GenericOutcome); ok && len(g.Delta) > 0 {
		r.acc.Apply(g.Delta)
	}
	e.finishStep(ctx, r, stepNum, task.Agent, trace.StepSuccess, "", verdict.Message)
	r.results = append(r.results, AgentResult{Agent: task.Agent, Success: true, Output: out})
	return verdict, nil
}

// invoke resolves the named agent and executes it, converting panics into
// errors so a misbehaving agent cannot take down the process.
func (e *Engine) invoke(ctx context.Context, name string, snapshot map[string]any) (out agent.Output, err error) {
	a, err := e.agents.Resolve(name)
	if err != nil {
		return nil, err
	}
	defer func() {
		if rec := recover(); rec != nil {
			out = nil
			err = fmt.Errorf("agent %s panicked: %v", name, rec)
		}
	}()
	return a.Execute(ctx, snapshot)
}

// commitChanges runs hook A: write and commit the development agent's
// files, track the running final commit, and overwrite code_changes with
// the committed file set.
func (e *Engine) commitChanges(ctx context.Context, r *run, g agent.GenericOutcome) error {
	if len(g.Files) == 0 {
		return nil
	}
	if e.git == nil {
		return errors.New("git collaborator not configured")
	}

	branch := ""
	if v, ok := r.acc.Get(KeyBranchName); ok {
		branch, _ = v.(string)
	}
	msg := g.CommitMessage
	if msg == "" {
		msg = "automated changes for " + r.trace.IntentType
	}

	res, err := e.git.ExecuteOperation(ctx, gitops.Operation{
		Files:         g.Files,
		CommitMessage: msg,
		BranchName:    branch,
	})
	if err != nil {
		return fmt.Errorf("git commit hook: %w", err)
	}
	if !res.Success {
		return fmt.Errorf("git commit hook: %s", res.Error)
	}

	r.finalCommit = res.CommitHash

	// Later steps review and test what was actually committed, not what
	// the agent merely returned.
	byPath := make(map[string]string, len(g.Files))
	for _, f := range g.Files {
		byPath[path.Clean(f.Path)] = f.Content
	}
	committed := make([]agent.FileChange, 0, len(res.FilesWritten))
	for _, written := range res.FilesWritten {
		committed = append(committed, agent.FileChange{
			Path:    written,
			Content: byPath[path.Clean(written)],
		})
	}
	r.acc.Set(KeyCodeChanges, committed)

	e.logger.Info("committed step output",
		zap.String("trace_id", r.trace.TraceID),
		zap.String("commit", res.CommitHash),
		zap.Int("files", len(committed)))
	return nil
}

// attemptAutoFix runs hook B: re-invoke the development agent with the
// review's issues, re-commit on success, and re-run the review. Returns
// the refreshed review output and true when the full cycle completed;
// otherwise the original rejection stands.
func (e *Engine) attemptAutoFix(ctx context.Context, r *run, rejection agent.ReviewOutcome) (agent.Output, bool) {
	e.logger.Info("attempting auto-fix after rejected review",
		zap.String("trace_id", r.trace.TraceID),
		zap.String("reasoning", rejection.Reasoning))

	snapshot := r.acc.Snapshot()
	snapshot[KeyAutoFix] = true
	snapshot[KeyReviewIssues] = rejection.Reasoning

	out, err := e.invoke(ctx, router.AgentDevelopment, snapshot)
	if err != nil {
		e.metrics.RecordAutoFix(ctx, "failed")
		e.logger.Warn("auto-fix development run failed", zap.Error(err))
		return nil, false
	}
	fix, ok := out.(agent.GenericOutcome)
	if !ok || !fix.Success {
		e.metrics.RecordAutoFix(ctx, "failed")
		return nil, false
	}

	if err := e.commitChanges(ctx, r, fix); err != nil {
		e.metrics.RecordAutoFix(ctx, "failed")
		e.logger.Warn("auto-fix commit failed", zap.Error(err))
		return nil, false
	}

	reviewed, err := e.invoke(ctx, router.AgentReview, r.acc.Snapshot())
	if err != nil {
		e.metrics.RecordAutoFix(ctx, "failed")
		e.logger.Warn("auto-fix re-review failed", zap.Error(err))
		return nil, false
	}

	if rv, ok := reviewed.(agent.ReviewOutcome); ok && rv.Decision == agent.DecisionApprove {
		e.metrics.RecordAutoFix(ctx, "approved")
	} else {
		e.metrics.RecordAutoFix(ctx, "rejected")
	}
	return reviewed, true
}

// finishStep records a step's terminal status and its metric.
func (e *Engine) finishStep(ctx context.Context, r *run, stepNum int, agentName string, status trace.StepStatus, errMsg, summary string) {
	if err := r.trace.CompleteStep(stepNum, status, errMsg, summary); err != nil {
		e.logger.Error("could not finalize step",
			zap.String("trace_id", r.trace.TraceID),
			zap.Int("step", stepNum),
			zap.Error(err))
	}
	e.metrics.RecordStep(ctx, agentName, string(status))
}

// partial completes the trace PARTIAL and returns a partial result with
// every step attempted so far.
func (e *Engine) partial(ctx context.Context, r *run, intentType, message string) *PipelineResult {
	_ = r.trace.Complete(trace.PipelinePartial, message)
	e.metrics.RecordPipeline(ctx, StatusPartial)
	e.logger.Warn("pipeline stopped early",
		zap.String("trace_id", r.trace.TraceID),
		zap.String("intent_type", intentType),
		zap.Int("steps", len(r.trace.Steps)),
		zap.String("error", message))
	return &PipelineResult{
		IntentType:   intentType,
		Status:       StatusPartial,
		AgentResults: r.results,
		FinalCommit:  r.finalCommit,
		Error:        message,
		TraceID:      r.trace.TraceID,
	}
}

// fail completes the trace FAILED with zero steps and returns a failure
// result. Used for malformed intents and routing errors only.
func (e *Engine) fail(ctx context.Context, tr *trace.ExecutionTrace, intentType, message string) *PipelineResult {
	_ = tr.Complete(trace.PipelineFailed, message)
	e.metrics.RecordPipeline(ctx, StatusFailure)
	e.logger.Warn("pipeline failed before any step",
		zap.String("trace_id", tr.TraceID),
		zap.String("intent_type", intentType),
		zap.String("error", message))
	return &PipelineResult{
		IntentType:   intentType,
		Status:       StatusFailure,
		AgentResults: []AgentResult{},
		Error:        message,
		TraceID:      tr.TraceID,
	}
}
