package trace

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTrace(t *testing.T) {
	tr := New("implement_ticket", TriggerInfo{Source: "api", ReceivedAt: time.Now().UTC()})

	assert.NotEmpty(t, tr.TraceID)
	assert.Equal(t, PipelineRunning, tr.PipelineStatus)
	assert.Equal(t, "implement_ticket", tr.IntentType)
	assert.False(t, tr.StartedAt.IsZero())
	assert.Empty(t, tr.Steps)

	other := New("implement_ticket", TriggerInfo{Source: "api"})
	assert.NotEqual(t, tr.TraceID, other.TraceID)
}

func TestAppendStepNumbering(t *testing.T) {
	tr := New("implement_ticket", TriggerInfo{Source: "api"})

	n1, err := tr.AppendStep("development", "generate changes")
	require.NoError(t, err)
	n2, err := tr.AppendStep("review", "review diff")
	require.NoError(t, err)

	assert.Equal(t, 1, n1)
	assert.Equal(t, 2, n2)
	require.Len(t, tr.Steps, 2)
	assert.Equal(t, StepStarted, tr.Steps[0].Status)
	assert.Equal(t, "development", tr.Steps[0].AgentName)
}

func TestAppendStepAfterTerminal(t *testing.T) {
	tr := New("run_tests", TriggerInfo{Source: "api"})
	require.NoError(t, tr.Complete(PipelineFailed, "routing failed"))

	_, err := tr.AppendStep("testing", "run tests")
	assert.ErrorIs(t, err, ErrTraceCompleted)
}

func TestCompleteStepExactlyOnce(t *testing.T) {
	tr := New("run_tests", TriggerInfo{Source: "api"})
	n, err := tr.AppendStep("testing", "run tests")
	require.NoError(t, err)

	require.NoError(t, tr.CompleteStep(n, StepSuccess, "", "all green"))
	assert.True(t, tr.Steps[0].Success)
	assert.Equal(t, "all green", tr.Steps[0].OutputSummary)
	assert.False(t, tr.Steps[0].CompletedAt.IsZero())

	err = tr.CompleteStep(n, StepFail, "late failure", "")
	assert.ErrorIs(t, err, ErrStepCompleted)
	assert.Equal(t, StepSuccess, tr.Steps[0].Status, "terminal status never changes")
}

func TestCompleteStepUnknownNumber(t *testing.T) {
	tr := New("run_tests", TriggerInfo{Source: "api"})
	assert.ErrorIs(t, tr.CompleteStep(1, StepSuccess, "", ""), ErrNoSuchStep)
	assert.ErrorIs(t, tr.CompleteStep(0, StepSuccess, "", ""), ErrNoSuchStep)
}

func TestCompleteStepSuccessFlag(t *testing.T) {
	tests := []struct {
		status      StepStatus
		wantSuccess bool
	}{
		{StepSuccess, true},
		{StepFail, false},
		{StepBlocked, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			tr := New("run_tests", TriggerInfo{Source: "api"})
			n, err := tr.AppendStep("testing", "run tests")
			require.NoError(t, err)
			require.NoError(t, tr.CompleteStep(n, tt.status, "", ""))
			assert.Equal(t, tt.wantSuccess, tr.Steps[0].Success)
		})
	}
}

func TestCompleteExactlyOnce(t *testing.T) {
	tr := New("run_tests", TriggerInfo{Source: "api"})

	require.NoError(t, tr.Complete(PipelinePartial, "stopped at step 1"))
	assert.Equal(t, PipelinePartial, tr.PipelineStatus)
	assert.Equal(t, "stopped at step 1", tr.FinalError)
	assert.False(t, tr.CompletedAt.IsZero())

	assert.ErrorIs(t, tr.Complete(PipelineSuccess, ""), ErrTraceCompleted)
	assert.Equal(t, PipelinePartial, tr.PipelineStatus)
}

func TestCompleteRejectsNonTerminal(t *testing.T) {
	tr := New("run_tests", TriggerInfo{Source: "api"})
	assert.Error(t, tr.Complete(PipelineRunning, ""))
	assert.Equal(t, PipelineRunning, tr.PipelineStatus)
}

func TestFailedSteps(t *testing.T) {
	tr := New("implement_ticket", TriggerInfo{Source: "api"})
	for i, status := range []StepStatus{StepSuccess, StepFail, StepBlocked, StepSuccess} {
		n, err := tr.AppendStep("agent", "task")
		require.NoError(t, err)
		require.NoError(t, tr.CompleteStep(n, status, "", ""), "step %d", i+1)
	}

	failed := tr.FailedSteps()
	require.Len(t, failed, 2)
	assert.Equal(t, 2, failed[0].StepNumber)
	assert.Equal(t, StepFail, failed[0].Status)
	assert.Equal(t, 3, failed[1].StepNumber)
	assert.Equal(t, StepBlocked, failed[1].Status)
}
