package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

const instrumentationName = "github.com/fyrsmithlabs/conductord/internal/telemetry"

// Metrics holds the engine and learning counters. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	logger *zap.Logger

	pipelineRuns  metric.Int64Counter
	pipelineSteps metric.Int64Counter
	autoFixRuns   metric.Int64Counter
	proposals     metric.Int64Counter
}

// NewMetrics creates the instrument set.
func NewMetrics(logger *zap.Logger) *Metrics {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Metrics{logger: logger}
	m.init()
	return m
}

func (m *Metrics) init() {
	meter := otel.Meter(instrumentationName)
	var err error

	m.pipelineRuns, err = meter.Int64Counter(
		"conductord.pipeline.runs_total",
		metric.WithDescription("Completed pipeline runs labeled by outcome status (success, partial, failure)."),
		metric.WithUnit("{run}"),
	)
	if err != nil {
		m.logger.Warn("failed to create pipeline runs counter", zap.Error(err))
	}

	m.pipelineSteps, err = meter.Int64Counter(
		"conductord.pipeline.steps_total",
		metric.WithDescription("Executed pipeline steps labeled by agent name and terminal step status."),
		metric.WithUnit("{step}"),
	)
	if err != nil {
		m.logger.Warn("failed to create pipeline steps counter", zap.Error(err))
	}

	m.autoFixRuns, err = meter.Int64Counter(
		"conductord.pipeline.autofix_total",
		metric.WithDescription("Auto-fix attempts after a rejected review, labeled by outcome (approved, rejected, failed)."),
		metric.WithUnit("{attempt}"),
	)
	if err != nil {
		m.logger.Warn("failed to create autofix counter", zap.Error(err))
	}

	m.proposals, err = meter.Int64Counter(
		"conductord.learning.proposals_total",
		metric.WithDescription("Learning proposals created, labeled by gate decision (propose, reject)."),
		metric.WithUnit("{proposal}"),
	)
	if err != nil {
		m.logger.Warn("failed to create proposals counter", zap.Error(err))
	}
}

// RecordPipeline counts one completed pipeline run.
func (m *Metrics) RecordPipeline(ctx context.Context, status string) {
	if m == nil || m.pipelineRuns == nil {
		return
	}
	m.pipelineRuns.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
}

// RecordStep counts one finished step.
func (m *Metrics) RecordStep(ctx context.Context, agentName, status string) {
	if m == nil || m.pipelineSteps == nil {
		return
	}
	m.pipelineSteps.Add(ctx, 1, metric.WithAttributes(
		attribute.String("agent", agentName),
		attribute.String("status", status),
	))
}

// RecordAutoFix counts one auto-fix attempt.
func (m *Metrics) RecordAutoFix(ctx context.Context, outcome string) {
	if m == nil || m.autoFixRuns == nil {
		return
	}
	m.autoFixRuns.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// RecordProposal counts one learning proposal by gate decision.
func (m *Metrics) RecordProposal(ctx context.Context, decision string) {
	if m == nil || m.proposals == nil {
		return
	}
	m.proposals.Add(ctx, 1, metric.WithAttributes(attribute.String("decision", decision)))
}
