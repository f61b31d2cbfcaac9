package agent

import "context"

// Agent performs one step of pipeline work.
type Agent interface {
	// Name returns the registry name the router's plans refer to.
	Name() string

	// Execute performs the step against a snapshot of the pipeline
	// context. Mutating the snapshot has no effect outside the step;
	// outputs are declared through the returned Output.
	Execute(ctx context.Context, snapshot map[string]any) (Output, error)
}

// Output is the closed set of results an agent may return.
//
// Exactly three variants exist: GenericOutcome, ReviewOutcome and
// TestOutcome. The engine's classifier switches exhaustively over them.
type Output interface {
	outcome()
}

// FileChange is a file an agent produced or modified.
type FileChange struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// GenericOutcome is the default output shape: a success flag plus optional
// error text, produced files and declared context deltas.
type GenericOutcome struct {
	Success       bool           `json:"success"`
	Error         string         `json:"error,omitempty"`
	Summary       string         `json:"summary,omitempty"`
	Files         []FileChange   `json:"files,omitempty"`
	CommitMessage string         `json:"commit_message,omitempty"`
	Delta         map[string]any `json:"delta,omitempty"`
}

func (GenericOutcome) outcome() {}

// ReviewDecision is a review agent's verdict on a set of changes.
type ReviewDecision string

const (
	DecisionApprove        ReviewDecision = "APPROVE"
	DecisionRequestChanges ReviewDecision = "REQUEST_CHANGES"
	DecisionBlock          ReviewDecision = "BLOCK"
)

// ReviewOutcome is returned by review-capability agents. APPROVE lets the
// pipeline continue; REQUEST_CHANGES and BLOCK stop it.
type ReviewOutcome struct {
	Decision  ReviewDecision `json:"decision"`
	Reasoning string         `json:"reasoning"`
}

func (ReviewOutcome) outcome() {}

// TestStatus is a test agent's aggregate run result.
type TestStatus string

const (
	TestPass TestStatus = "PASS"
	TestFail TestStatus = "FAIL"
)

// TestOutcome is returned by test-capability agents. PASS lets the
// pipeline continue; FAIL stops it.
type TestOutcome struct {
	Status      TestStatus `json:"status"`
	Summary     string     `json:"summary"`
	FailedCount int        `json:"failed_count"`
}

func (TestOutcome) outcome() {}

// Func adapts a function to the Agent interface, in the manner of
// http.HandlerFunc. Used heavily by tests and by embedders that supply
// in-process agents.
type Func struct {
	AgentName string
	Fn        func(ctx context.Context, snapshot map[string]any) (Output, error)
}

// Name returns the adapted agent's registry name.
func (f Func) Name() string { return f.AgentName }

// Execute invokes the adapted function.
func (f Func) Execute(ctx context.Context, snapshot map[string]any) (Output, error) {
	return f.Fn(ctx, snapshot)
}
