package learning

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

// GateDecision is the gate's verdict on a pattern.
type GateDecision string

const (
	DecisionPropose GateDecision = "PROPOSE"
	DecisionReject  GateDecision = "REJECT"
)

// KnowledgeDomain suggests where promoted knowledge would live.
type KnowledgeDomain string

const (
	DomainDeployment  KnowledgeDomain = "deployment"
	DomainTesting     KnowledgeDomain = "testing"
	DomainCodeQuality KnowledgeDomain = "code_quality"
	DomainGeneral     KnowledgeDomain = "general"
)

// Fixed scoring thresholds and weights.
const (
	// MinOccurrences is the floor below which a pattern is always rejected.
	MinOccurrences = 3

	// MinConfidence is the score a pattern must reach to be proposed.
	MinConfidence = 0.6

	frequencyWeight = 0.5
	recencyWeight   = 0.3
	severityWeight  = 0.2

	// recencyScore is fixed at 1.0: last_seen is tracked but no decay
	// curve is applied to it.
	recencyScore = 1.0
)

// severityByType scores how much a pattern category matters.
var severityByType = map[PatternType]float64{
	PatternDeploymentFailure: 1.0,
	PatternTestFailure:       0.9,
	PatternReviewFailure:     0.8,
	PatternCommonError:       0.6,
}

const defaultSeverity = 0.5

// Gate scores patterns against the fixed thresholds. It is stateless.
type Gate struct{}

// NewGate creates a gate.
func NewGate() *Gate {
	return &Gate{}
}

// Confidence computes the pattern's score:
//
//	0.5 * min(1, log10(occurrences+1)) + 0.3 * recency + 0.2 * severity
func (g *Gate) Confidence(p *Pattern) float64 {
	frequency := math.Min(1, math.Log(float64(p.Occurrences)+1)/math.Log(10))
	severity, ok := severityByType[p.PatternType]
	if !ok {
		severity = defaultSeverity
	}
	return frequencyWeight*frequency + recencyWeight*recencyScore + severityWeight*severity
}

// Evaluate decides whether a pattern should be proposed. The returned
// reason is empty on PROPOSE and explains the rejection otherwise.
func (g *Gate) Evaluate(p *Pattern) (GateDecision, string) {
	if p.Occurrences < MinOccurrences {
		return DecisionReject, fmt.Sprintf("only %d occurrences, need at least %d", p.Occurrences, MinOccurrences)
	}
	if confidence := g.Confidence(p); confidence < MinConfidence {
		return DecisionReject, fmt.Sprintf("confidence %.3f below threshold %.2f", confidence, MinConfidence)
	}
	return DecisionPropose, ""
}

// CreateProposal builds the full proposal for a pattern, embedding the
// gate's decision. Rejections are constructed too, so they stay auditable.
func (g *Gate) CreateProposal(p *Pattern) *Proposal {
	decision, reason := g.Evaluate(p)
	return &Proposal{
		ProposalID:         uuid.New().String(),
		PatternType:        p.PatternType,
		SourceAgent:        p.AgentName,
		ObservedPattern:    p.ErrorSignature,
		Frequency:          p.Occurrences,
		ConfidenceScore:    g.Confidence(p),
		SuggestedDomain:    domainForType(p.PatternType),
		ProposedAction:     actionForPattern(p),
		SupportingTraceIDs: p.TraceIDList(),
		CreatedAt:          time.Now().UTC(),
		GateDecision:       decision,
		RejectionReason:    reason,
	}
}

// domainForType maps a pattern category to a knowledge domain.
func domainForType(t PatternType) KnowledgeDomain {
	switch t {
	case PatternDeploymentFailure:
		return DomainDeployment
	case PatternTestFailure:
		return DomainTesting
	case PatternReviewFailure:
		return DomainCodeQuality
	default:
		return DomainGeneral
	}
}

// actionForPattern renders the human-readable suggestion.
func actionForPattern(p *Pattern) string {
	return fmt.Sprintf(
		"Agent %q has failed %d times with signature %q. Review the supporting traces and consider adding a %s guideline that prevents this failure class.",
		p.AgentName, p.Occurrences, p.ErrorSignature, domainForType(p.PatternType))
}
