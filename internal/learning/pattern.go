package learning

import (
	"regexp"
	"strings"
	"time"
)

// PatternType categorizes a recurring failure by the agent that produced it.
type PatternType string

const (
	PatternDeploymentFailure PatternType = "REPEATED_DEPLOYMENT_FAILURE"
	PatternTestFailure       PatternType = "REPEATED_TEST_FAILURE"
	PatternReviewFailure     PatternType = "REPEATED_CODE_REVIEW_FAILURE"
	PatternCommonError       PatternType = "COMMON_ERROR_PATTERN"
)

// Pattern is a recurring normalized failure signature observed across
// traces. Keyed by (agent name, signature); occurrences accumulate for the
// process lifetime and are never decremented or expired.
type Pattern struct {
	PatternType    PatternType         `json:"pattern_type"`
	AgentName      string              `json:"agent_name"`
	ErrorSignature string              `json:"error_signature"`
	Occurrences    int                 `json:"occurrences"`
	FirstSeen      time.Time           `json:"first_seen"`
	LastSeen       time.Time           `json:"last_seen"`
	TraceIDs       map[string]struct{} `json:"-"`
}

// Key returns the map key identifying this pattern.
func (p *Pattern) Key() string {
	return p.AgentName + "|" + p.ErrorSignature
}

// TraceIDList returns the recorded trace ids in unspecified order.
func (p *Pattern) TraceIDList() []string {
	out := make([]string, 0, len(p.TraceIDs))
	for id := range p.TraceIDs {
		out = append(out, id)
	}
	return out
}

const signatureMaxLen = 200

// Normalization passes, applied in order. Paths go first so their digits
// never survive to the bare-integer pass, and "line N" markers are rewritten
// before integers for the same reason.
var (
	rePath      = regexp.MustCompile(`(?:/[\w.\-]+)+/?`)
	reLine      = regexp.MustCompile(`(?i)\bline\s+\d+`)
	reTimestamp = regexp.MustCompile(`\d{4}-\d{2}-\d{2}[T ]\d{2}:\d{2}:\d{2}(?:\.\d+)?(?:Z|[+-]\d{2}:?\d{2})?`)
	reUUID      = regexp.MustCompile(`[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}`)
	reInteger   = regexp.MustCompile(`\b\d+\b`)
)

// NormalizeSignature collapses the variable parts of an error message so
// that recurrences of the same failure share one signature: absolute file
// paths, "line N" markers, ISO-8601 timestamps, UUIDs and remaining bare
// integers become fixed placeholder tokens, and the result is truncated to
// 200 characters.
func NormalizeSignature(message string) string {
	s := strings.TrimSpace(message)
	s = rePath.ReplaceAllString(s, "<path>")
	s = reLine.ReplaceAllString(s, "line <n>")
	s = reTimestamp.ReplaceAllString(s, "<timestamp>")
	s = reUUID.ReplaceAllString(s, "<uuid>")
	s = reInteger.ReplaceAllString(s, "<n>")
	if len(s) > signatureMaxLen {
		s = s[:signatureMaxLen]
	}
	return s
}

// PatternTypeForAgent maps the failing agent to a pattern category.
func PatternTypeForAgent(agentName string) PatternType {
	switch agentName {
	case "deployment":
		return PatternDeploymentFailure
	case "testing":
		return PatternTestFailure
	case "review":
		return PatternReviewFailure
	default:
		return PatternCommonError
	}
}
