package learning

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPattern(pt PatternType, agentName string, occurrences int) *Pattern {
	return &Pattern{
		PatternType:    pt,
		AgentName:      agentName,
		ErrorSignature: "tests failed (<n> failures): auth suite",
		Occurrences:    occurrences,
		FirstSeen:      time.Now().UTC().Add(-time.Hour),
		LastSeen:       time.Now().UTC(),
		TraceIDs:       map[string]struct{}{"t1": {}, "t2": {}},
	}
}

func TestConfidence(t *testing.T) {
	g := NewGate()

	tests := []struct {
		name    string
		pattern *Pattern
		want    float64
	}{
		{
			// 0.5*log10(6) + 0.3 + 0.2*0.9
			name:    "test failure seen five times",
			pattern: testPattern(PatternTestFailure, "testing", 5),
			want:    0.869,
		},
		{
			// 0.5*log10(10) caps the frequency component at 0.5
			name:    "frequency component saturates",
			pattern: testPattern(PatternDeploymentFailure, "deployment", 100),
			want:    1.0,
		},
		{
			// 0.5*log10(2) + 0.3 + 0.2*0.6
			name:    "rare common error",
			pattern: testPattern(PatternCommonError, "development", 1),
			want:    0.5705,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, g.Confidence(tt.pattern), 0.001)
		})
	}
}

func TestEvaluate(t *testing.T) {
	g := NewGate()

	tests := []struct {
		name     string
		pattern  *Pattern
		want     GateDecision
		reasonIn string
	}{
		{
			name:     "below occurrence floor",
			pattern:  testPattern(PatternTestFailure, "testing", 2),
			want:     DecisionReject,
			reasonIn: "only 2 occurrences",
		},
		{
			name:    "frequent test failure proposed",
			pattern: testPattern(PatternTestFailure, "testing", 5),
			want:    DecisionPropose,
		},
		{
			name:    "three occurrences clears both thresholds",
			pattern: testPattern(PatternCommonError, "development", 3),
			want:    DecisionPropose,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decision, reason := g.Evaluate(tt.pattern)
			assert.Equal(t, tt.want, decision)
			if tt.reasonIn != "" {
				assert.Contains(t, reason, tt.reasonIn)
			} else {
				assert.Empty(t, reason)
			}
		})
	}
}

func TestCreateProposal(t *testing.T) {
	g := NewGate()
	p := testPattern(PatternTestFailure, "testing", 5)

	proposal := g.CreateProposal(p)

	assert.NotEmpty(t, proposal.ProposalID)
	assert.Equal(t, PatternTestFailure, proposal.PatternType)
	assert.Equal(t, "testing", proposal.SourceAgent)
	assert.Equal(t, p.ErrorSignature, proposal.ObservedPattern)
	assert.Equal(t, 5, proposal.Frequency)
	assert.InDelta(t, 0.869, proposal.ConfidenceScore, 0.001)
	assert.Equal(t, DomainTesting, proposal.SuggestedDomain)
	assert.Contains(t, proposal.ProposedAction, "testing")
	assert.ElementsMatch(t, []string{"t1", "t2"}, proposal.SupportingTraceIDs)
	assert.Equal(t, DecisionPropose, proposal.GateDecision)
	assert.True(t, proposal.Approved())
	assert.Empty(t, proposal.RejectionReason)
}

func TestCreateProposalRejection(t *testing.T) {
	g := NewGate()
	proposal := g.CreateProposal(testPattern(PatternReviewFailure, "review", 1))

	require.Equal(t, DecisionReject, proposal.GateDecision)
	assert.False(t, proposal.Approved())
	assert.NotEmpty(t, proposal.RejectionReason, "rejections stay auditable")
	assert.Equal(t, DomainCodeQuality, proposal.SuggestedDomain)
}

func TestDomainForType(t *testing.T) {
	tests := []struct {
		pt   PatternType
		want KnowledgeDomain
	}{
		{PatternDeploymentFailure, DomainDeployment},
		{PatternTestFailure, DomainTesting},
		{PatternReviewFailure, DomainCodeQuality},
		{PatternCommonError, DomainGeneral},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, domainForType(tt.pt))
	}
}
