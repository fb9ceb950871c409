package mcp

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"sift/internal/adapter"
	"sift/internal/dataset"
	"sift/internal/eval"
	"sift/internal/logging"
	"sift/internal/screen"
)

// SessionState tracks the lifecycle of a screening session.
type SessionState string

const (
	StateRunning SessionState = "running"
	StateDone    SessionState = "done"
	StateError   SessionState = "error"
)

// Session holds the state for a single screening run driven by MCP tool
// calls. The orchestrator runs in a background goroutine; tools read
// progress from the collecting sink and the final result once done.
type Session struct {
	ID       string
	Scenario *dataset.Scenario
	Total    int
	Sink     *screen.CollectSink

	mu     sync.Mutex
	state  SessionState
	result *screen.ResultSet
	err    error
	doneCh chan struct{}
	cancel context.CancelFunc
}

// StartScreeningInput mirrors the tool arguments for start_screening.
type StartScreeningInput struct {
	Scenario string
	Workers  int
	Seed     int64
}

// NewSession resolves the scenario, spawns the screening goroutine, and
// returns immediately.
func NewSession(input StartScreeningInput) (*Session, error) {
	scenario, err := dataset.LoadScenario(input.Scenario)
	if err != nil {
		return nil, err
	}

	cfg := screen.DefaultRunConfig()
	cfg.Models = []screen.ModelConfig{
		{ID: "stub-alpha"}, {ID: "stub-beta"}, {ID: "stub-gamma"},
	}
	if input.Workers > 0 {
		cfg.Workers = input.Workers
	}
	if input.Seed != 0 {
		cfg.Seed = input.Seed
	}

	invokers, err := adapter.StubRegistry(cfg).Wire(cfg)
	if err != nil {
		return nil, err
	}

	sink := &screen.CollectSink{}
	orch, err := screen.NewOrchestrator(cfg, &scenario.Criteria, invokers, sink)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	sess := &Session{
		ID:       uuid.NewString(),
		Scenario: scenario,
		Total:    len(scenario.Records),
		Sink:     sink,
		state:    StateRunning,
		doneCh:   make(chan struct{}),
		cancel:   cancel,
	}

	go func() {
		defer close(sess.doneCh)
		logger := logging.New("mcp-session")
		rs, err := orch.Run(ctx, scenario.Records)
		sess.mu.Lock()
		defer sess.mu.Unlock()
		sess.result = rs
		if err != nil {
			sess.state = StateError
			sess.err = err
			logger.Error("screening session failed", "session_id", sess.ID, "error", err)
			return
		}
		sess.state = StateDone
		logger.Info("screening session done", "session_id", sess.ID, "records", len(rs.Decisions))
	}()

	return sess, nil
}

// State returns the current session state.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Done exposes the completion channel.
func (s *Session) Done() <-chan struct{} { return s.doneCh }

// Cancel stops the run between records; decided records stay intact.
func (s *Session) Cancel() { s.cancel() }

// Result returns the finalized result set, or an error while running.
func (s *Session) Result() (*screen.ResultSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case StateRunning:
		return nil, fmt.Errorf("session %s still running", s.ID)
	case StateError:
		return s.result, s.err
	default:
		return s.result, nil
	}
}

// Evaluate runs the evaluation engine against the scenario's gold labels.
func (s *Session) Evaluate() (*eval.Report, error) {
	rs, err := s.Result()
	if err != nil {
		return nil, err
	}
	if len(s.Scenario.GoldLabels) == 0 {
		return nil, fmt.Errorf("scenario %s has no gold labels", s.Scenario.Name)
	}
	return eval.Evaluate(rs, s.Scenario.Gold(), eval.Options{Seed: rs.Seed}), nil
}
