package learning

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/conductord/internal/trace"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	s, err := NewService(NewDetector(nil), NewGate(), NewProposalStore(), nil, nil)
	require.NoError(t, err)
	return s
}

func TestNewServiceValidation(t *testing.T) {
	_, err := NewService(nil, NewGate(), NewProposalStore(), nil, nil)
	assert.Error(t, err)

	_, err = NewService(NewDetector(nil), NewGate(), nil, nil, nil)
	assert.Error(t, err)

	s, err := NewService(NewDetector(nil), nil, NewProposalStore(), nil, nil)
	require.NoError(t, err, "a nil gate defaults")
	assert.NotNil(t, s)
}

func TestAnalyzeAndProposeBelowThreshold(t *testing.T) {
	s := newTestService(t)

	approved := s.AnalyzeAndPropose(context.Background(), failedTrace(t, "testing", "auth suite red"))
	assert.Empty(t, approved, "a single occurrence never clears the gate")
	assert.Equal(t, 1, s.Proposals().Len(), "rejected proposals are stored for audit")
	assert.Len(t, s.Proposals().Rejected(), 1)
}

func TestAnalyzeAndProposeCrossesThreshold(t *testing.T) {
	s := newTestService(t)

	var approved []*Proposal
	for i := 0; i < 3; i++ {
		approved = s.AnalyzeAndPropose(context.Background(), failedTrace(t, "testing", "auth suite red"))
	}

	require.Len(t, approved, 1, "the third recurrence clears both thresholds")
	p := approved[0]
	assert.Equal(t, PatternTestFailure, p.PatternType)
	assert.Equal(t, 3, p.Frequency)
	assert.True(t, p.Approved())
	assert.Len(t, p.SupportingTraceIDs, 3)

	patterns := s.Patterns()
	require.Len(t, patterns, 1)
	assert.Equal(t, 3, patterns[0].Occurrences)
}

func TestAnalyzeAndProposeCleanTrace(t *testing.T) {
	s := newTestService(t)

	tr := failedTrace(t, "testing", "boom")
	tr.Steps[0].Status = trace.StepSuccess

	assert.Nil(t, s.AnalyzeAndPropose(context.Background(), tr))
	assert.Equal(t, 0, s.Proposals().Len())
}
