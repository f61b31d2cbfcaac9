package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Remote output kinds on the wire.
const (
	kindGeneric = "generic"
	kindReview  = "review"
	kindTest    = "test"
)

const defaultRemoteTimeout = 120 * time.Second

// Remote is an agent backed by an HTTP endpoint.
//
// The context snapshot is POSTed as JSON; the endpoint answers with a
// discriminated union envelope:
//
//	{"kind": "generic", "generic": {...}}
//	{"kind": "review",  "review":  {...}}
//	{"kind": "test",    "test":    {...}}
//
// Transport failures and non-2xx statuses surface as errors, which the
// engine records as step failures.
type Remote struct {
	name     string
	endpoint string
	client   *http.Client
	logger   *zap.Logger
}

// NewRemote creates a remote agent for the given endpoint URL.
func NewRemote(name, endpoint string, timeout time.Duration, logger *zap.Logger) *Remote {
	if timeout <= 0 {
		timeout = defaultRemoteTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Remote{
		name:     name,
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
		logger:   logger,
	}
}

// Name returns the agent's registry name.
func (r *Remote) Name() string { return r.name }

// remoteEnvelope is the wire shape a remote agent responds with.
type remoteEnvelope struct {
	Kind    string         `json:"kind"`
	Generic *remoteGeneric `json:"generic,omitempty"`
	Review  *ReviewOutcome `json:"review,omitempty"`
	Test    *TestOutcome   `json:"test,omitempty"`
}

// remoteGeneric mirrors GenericOutcome with a pointer success flag: a
// payload that omits it is treated as successful, so remote agents report
// failure explicitly.
type remoteGeneric struct {
	Success       *bool          `json:"success"`
	Error         string         `json:"error,omitempty"`
	Summary       string         `json:"summary,omitempty"`
	Files         []FileChange   `json:"files,omitempty"`
	CommitMessage string         `json:"commit_message,omitempty"`
	Delta         map[string]any `json:"delta,omitempty"`
}

// toOutcome resolves the wire payload into the outcome variant.
func (g *remoteGeneric) toOutcome() GenericOutcome {
	success := true
	if g.Success != nil {
		success = *g.Success
	}
	return GenericOutcome{
		Success:       success,
		Error:         g.Error,
		Summary:       g.Summary,
		Files:         g.Files,
		CommitMessage: g.CommitMessage,
		Delta:         g.Delta,
	}
}

// Execute POSTs the snapshot to the endpoint and decodes the output union.
func (r *Remote) Execute(ctx context.Context, snapshot map[string]any) (Output, error) {
	body, err := json.Marshal(snapshot)
	if err != nil {
		return nil, fmt.Errorf("encoding context snapshot: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building request for agent %q: %w", r.name, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling agent %q: %w", r.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("agent %q returned status %d: %s", r.name, resp.StatusCode, string(msg))
	}

	var env remoteEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("decoding output from agent %q: %w", r.name, err)
	}

	out, err := env.toOutput()
	if err != nil {
		return nil, fmt.Errorf("agent %q: %w", r.name, err)
	}

	r.logger.Debug("remote agent responded",
		zap.String("agent", r.name),
		zap.String("kind", env.Kind))
	return out, nil
}

// toOutput converts the envelope into its single populated variant.
func (e *remoteEnvelope) toOutput() (Output, error) {
	switch e.Kind {
	case kindGeneric:
		if e.Generic == nil {
			return nil, fmt.Errorf("envelope kind %q has no payload", e.Kind)
		}
		return e.Generic.toOutcome(), nil
	case kindReview:
		if e.Review == nil {
			return nil, fmt.Errorf("envelope kind %q has no payload", e.Kind)
		}
		return *e.Review, nil
	case kindTest:
		if e.Test == nil {
			return nil, fmt.Errorf("envelope kind %q has no payload", e.Kind)
		}
		return *e.Test, nil
	default:
		return nil, fmt.Errorf("unknown output kind %q", e.Kind)
	}
}
