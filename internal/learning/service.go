package learning

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/conductord/internal/telemetry"
	"github.com/fyrsmithlabs/conductord/internal/trace"
)

// Service composes detector, gate and proposal store into the learning
// pass a caller (or background job) runs over a finished trace.
type Service struct {
	detector *Detector
	gate     *Gate
	store    *ProposalStore
	metrics  *telemetry.Metrics
	logger   *zap.Logger
}

// NewService creates the learning service. Detector and store are
// required; metrics may be nil.
func NewService(detector *Detector, gate *Gate, store *ProposalStore, metrics *telemetry.Metrics, logger *zap.Logger) (*Service, error) {
	if detector == nil {
		return nil, errors.New("detector cannot be nil")
	}
	if store == nil {
		return nil, errors.New("proposal store cannot be nil")
	}
	if gate == nil {
		gate = NewGate()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		detector: detector,
		gate:     gate,
		store:    store,
		metrics:  metrics,
		logger:   logger,
	}, nil
}

// AnalyzeAndPropose runs detector, gate and store over one trace and
// returns only the approved proposals for the caller to surface. Every
// proposal, approved or rejected, is persisted for audit.
func (s *Service) AnalyzeAndPropose(ctx context.Context, t *trace.ExecutionTrace) []*Proposal {
	patterns := s.detector.AnalyzeTrace(t)
	if len(patterns) == 0 {
		return nil
	}

	var approved []*Proposal
	for _, p := range patterns {
		proposal := s.gate.CreateProposal(p)
		s.store.Store(proposal)
		s.metrics.RecordProposal(ctx, string(proposal.GateDecision))

		if proposal.Approved() {
			approved = append(approved, proposal)
			s.logger.Info("learning proposal created",
				zap.String("proposal_id", proposal.ProposalID),
				zap.String("agent", proposal.SourceAgent),
				zap.Int("frequency", proposal.Frequency),
				zap.Float64("confidence", proposal.ConfidenceScore))
		} else {
			s.logger.Debug("pattern rejected by gate",
				zap.String("agent", proposal.SourceAgent),
				zap.String("reason", proposal.RejectionReason))
		}
	}
	return approved
}

// Proposals exposes the underlying proposal store.
func (s *Service) Proposals() *ProposalStore {
	return s.store
}

// Patterns exposes the accumulated patterns.
func (s *Service) Patterns() []*Pattern {
	return s.detector.Patterns()
}
