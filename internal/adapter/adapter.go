// Package adapter implements the model-adapter side of the screening
// contract: deterministic local voters, the retry/backoff wrapper that
// enforces the timeout budget, and a registry keyed by model ID.
package adapter

import (
	"context"
	"fmt"

	"sift/internal/screen"
)

// Func adapts a plain function to the screen.Invoker contract.
type Func func(ctx context.Context, req screen.InvokeRequest) (screen.ModelVote, error)

func (f Func) Invoke(ctx context.Context, req screen.InvokeRequest) (screen.ModelVote, error) {
	return f(ctx, req)
}

// Registry maps model IDs to their adapters.
type Registry struct {
	invokers map[string]screen.Invoker
}

func NewRegistry() *Registry {
	return &Registry{invokers: make(map[string]screen.Invoker)}
}

// Register binds a model ID to an adapter, replacing any previous binding.
func (r *Registry) Register(modelID string, inv screen.Invoker) {
	r.invokers[modelID] = inv
}

// Wire returns the invoker map for a run config, each adapter wrapped with
// the config's retry/timeout policy. Missing models are an error: the
// orchestrator treats an unregistered model as a fatal configuration fault.
func (r *Registry) Wire(cfg screen.RunConfig) (map[string]screen.Invoker, error) {
	out := make(map[string]screen.Invoker, len(cfg.Models))
	for _, m := range cfg.Models {
		inv, ok := r.invokers[m.ID]
		if !ok {
			return nil, fmt.Errorf("adapter registry: model %q not registered", m.ID)
		}
		out[m.ID] = WithRetry(inv, cfg)
	}
	return out, nil
}

// StubRegistry builds a registry with a deterministic stub voter for every
// configured model, for demo scenarios and calibration without a backend.
func StubRegistry(cfg screen.RunConfig) *Registry {
	r := NewRegistry()
	for _, m := range cfg.Models {
		r.Register(m.ID, NewStubVoter(m.ID))
	}
	return r
}
