package router

import "github.com/fyrsmithlabs/conductord/internal/plan"

// Agent names referenced by the plan templates. The engine resolves these
// against its registry at execution time.
const (
	AgentDevelopment = "development"
	AgentReview      = "review"
	AgentTesting     = "testing"
	AgentDeployment  = "deployment"
	AgentEarnings    = "earnings"
)

// Known intent types.
const (
	IntentImplementTicket = "implement_ticket"
	IntentReviewChanges   = "review_changes"
	IntentRunTests        = "run_tests"
	IntentDeployRelease   = "deploy_release"
	IntentRegisterEvent   = "register_event"
)

// Router resolves intent types to execution plans.
type Router struct {
	plans    map[string]*plan.ExecutionPlan
	required map[string][]string
}

// New creates a router with the built-in plan tables.
func New() *Router {
	return &Router{
		plans:    buildPlanTable(),
		required: buildRequiredKeyTable(),
	}
}

// Route returns the plan template for intentType, after validating that
// every required context key is present.
//
// The same template is returned verbatim on every call; plans are not
// parameterized by context at routing time. Failures are typed:
// *UnknownIntentError for an unrecognized type, *MissingContextError
// listing every absent key.
func (r *Router) Route(intentType string, context map[string]any) (*plan.ExecutionPlan, error) {
	p, ok := r.plans[intentType]
	if !ok {
		return nil, &UnknownIntentError{IntentType: intentType, Known: r.KnownIntents()}
	}

	var missing []string
	for _, key := range r.required[intentType] {
		if _, present := context[key]; !present {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return nil, &MissingContextError{IntentType: intentType, MissingKeys: missing}
	}

	return p, nil
}

// KnownIntents returns the routable intent types in stable order.
func (r *Router) KnownIntents() []string {
	return []string{
		IntentImplementTicket,
		IntentReviewChanges,
		IntentRunTests,
		IntentDeployRelease,
		IntentRegisterEvent,
	}
}

// RequiredKeys returns the context keys an intent type requires, in table
// order. Returns nil for unknown types.
func (r *Router) RequiredKeys(intentType string) []string {
	return r.required[intentType]
}

// buildPlanTable returns the static intent type → plan mapping.
func buildPlanTable() map[string]*plan.ExecutionPlan {
	return map[string]*plan.ExecutionPlan{
		IntentImplementTicket: {
			IntentType: IntentImplementTicket,
			Tasks: []plan.AgentTask{
				{
					Agent:       AgentDevelopment,
					Description: "generate code changes for the ticket",
					Params:      map[string]any{"commit_prefix": "feat"},
				},
				{
					Agent:       AgentReview,
					Description: "review the generated diff",
				},
				{
					Agent:       AgentTesting,
					Description: "run the test suite against the committed changes",
				},
			},
		},
		IntentReviewChanges: {
			IntentType: IntentReviewChanges,
			Tasks: []plan.AgentTask{
				{
					Agent:       AgentReview,
					Description: "review the supplied code changes",
				},
			},
		},
		IntentRunTests: {
			IntentType: IntentRunTests,
			Tasks: []plan.AgentTask{
				{
					Agent:       AgentTesting,
					Description: "run the test suite",
				},
			},
		},
		IntentDeployRelease: {
			IntentType: IntentDeployRelease,
			Tasks: []plan.AgentTask{
				{
					Agent:       AgentTesting,
					Description: "run the pre-deployment test suite",
				},
				{
					Agent:       AgentDeployment,
					Description: "deploy the tagged release",
				},
			},
		},
		IntentRegisterEvent: {
			IntentType: IntentRegisterEvent,
			Tasks: []plan.AgentTask{
				{
					Agent:       AgentEarnings,
					Description: "register the campaign earnings event",
				},
			},
		},
	}
}

// buildRequiredKeyTable returns the static intent type → required context
// keys mapping. Missing keys are reported in this order.
func buildRequiredKeyTable() map[string][]string {
	return map[string][]string{
		IntentImplementTicket: {"ticket_id", "ticket_description"},
		IntentReviewChanges:   {"code_changes"},
		IntentRunTests:        {"code_changes"},
		IntentDeployRelease:   {"release_tag"},
		IntentRegisterEvent:   {"campaign_id", "user_id", "amount"},
	}
}
