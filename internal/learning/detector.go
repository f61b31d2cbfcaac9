package learning

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/conductord/internal/trace"
)

// Detector accumulates failure patterns across traces for the lifetime of
// the process.
//
// A single mutex guards the pattern map; each AnalyzeTrace call performs
// its lookup-and-increment atomically, so concurrent pipeline runs cannot
// lose occurrence updates. There is no idempotence guard: analyzing the
// same trace twice increments its patterns twice. Callers that need
// exactly-once analysis must arrange it themselves.
type Detector struct {
	mu       sync.Mutex
	patterns map[string]*Pattern
	logger   *zap.Logger
}

// NewDetector creates an empty detector.
func NewDetector(logger *zap.Logger) *Detector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Detector{
		patterns: make(map[string]*Pattern),
		logger:   logger,
	}
}

// AnalyzeTrace scans a trace's FAIL and BLOCKED steps, folds each into the
// pattern map, and returns the patterns the trace touched (with their
// updated occurrence counts).
func (d *Detector) AnalyzeTrace(t *trace.ExecutionTrace) []*Pattern {
	failed := t.FailedSteps()
	if len(failed) == 0 {
		return nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	now := time.Now().UTC()
	touched := make([]*Pattern, 0, len(failed))
	for _, step := range failed {
		sig := NormalizeSignature(step.ErrorMessage)
		if sig == "" {
			sig = "no error message recorded"
		}
		key := step.AgentName + "|" + sig

		p, ok := d.patterns[key]
		if !ok {
			p = &Pattern{
				PatternType:    PatternTypeForAgent(step.AgentName),
				AgentName:      step.AgentName,
				ErrorSignature: sig,
				FirstSeen:      now,
				TraceIDs:       make(map[string]struct{}),
			}
			d.patterns[key] = p
		}
		p.Occurrences++
		p.LastSeen = now
		p.TraceIDs[t.TraceID] = struct{}{}
		touched = append(touched, p)

		d.logger.Debug("recorded failure pattern",
			zap.String("agent", step.AgentName),
			zap.String("signature", sig),
			zap.Int("occurrences", p.Occurrences))
	}
	return touched
}

// Patterns returns every accumulated pattern in unspecified order.
func (d *Detector) Patterns() []*Pattern {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]*Pattern, 0, len(d.patterns))
	for _, p := range d.patterns {
		out = append(out, p)
	}
	return out
}

// Get returns the pattern for an (agent, signature) pair, or false.
func (d *Detector) Get(agentName, signature string) (*Pattern, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	p, ok := d.patterns[agentName+"|"+signature]
	return p, ok
}

// Clear drops every accumulated pattern.
func (d *Detector) Clear() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.patterns = make(map[string]*Pattern)
}
