package learning

import (
	"sync"
	"time"
)

// Proposal is a human-reviewable suggestion to update process knowledge.
// Proposals are never auto-applied; a human acts on them out-of-band.
type Proposal struct {
	ProposalID         string          `json:"proposal_id"`
	PatternType        PatternType     `json:"pattern_type"`
	SourceAgent        string          `json:"source_agent"`
	ObservedPattern    string          `json:"observed_pattern"`
	Frequency          int             `json:"frequency"`
	ConfidenceScore    float64         `json:"confidence_score"`
	SuggestedDomain    KnowledgeDomain `json:"suggested_domain"`
	ProposedAction     string          `json:"proposed_action"`
	SupportingTraceIDs []string        `json:"supporting_trace_ids"`
	CreatedAt          time.Time       `json:"created_at"`
	GateDecision       GateDecision    `json:"gate_decision"`
	RejectionReason    string          `json:"rejection_reason,omitempty"`
}

// Approved reports whether the gate proposed this pattern.
func (p *Proposal) Approved() bool {
	return p.GateDecision == DecisionPropose
}

// ProposalStore keeps proposals in memory for the process lifetime,
// guarded by a single RWMutex.
type ProposalStore struct {
	mu        sync.RWMutex
	proposals map[string]*Proposal
	order     []string
}

// NewProposalStore creates an empty store.
func NewProposalStore() *ProposalStore {
	return &ProposalStore{proposals: make(map[string]*Proposal)}
}

// Store inserts or replaces a proposal keyed by its id.
func (s *ProposalStore) Store(p *Proposal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.proposals[p.ProposalID]; !exists {
		s.order = append(s.order, p.ProposalID)
	}
	s.proposals[p.ProposalID] = p
}

// Get returns the proposal with the given id, or false.
func (s *ProposalStore) Get(id string) (*Proposal, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.proposals[id]
	return p, ok
}

// All returns every proposal in insertion order.
func (s *ProposalStore) All() []*Proposal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Proposal, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.proposals[id])
	}
	return out
}

// Approved returns the proposals the gate decided to PROPOSE.
func (s *ProposalStore) Approved() []*Proposal {
	return s.filter(DecisionPropose)
}

// Rejected returns the proposals the gate decided to REJECT.
func (s *ProposalStore) Rejected() []*Proposal {
	return s.filter(DecisionReject)
}

func (s *ProposalStore) filter(decision GateDecision) []*Proposal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Proposal
	for _, id := range s.order {
		if p := s.proposals[id]; p.GateDecision == decision {
			out = append(out, p)
		}
	}
	return out
}

// Len returns the number of stored proposals.
func (s *ProposalStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.proposals)
}

// Clear removes every stored proposal.
func (s *ProposalStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.proposals = make(map[string]*Proposal)
	s.order = nil
}
