// Package mcp exposes the screening engine over the Model Context Protocol:
// an agent starts a run, polls progress, and pulls the decision set and
// evaluation scorecard as tools.
package mcp

import (
	"context"
	"fmt"
	"sync"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"sift/internal/dataset"
	"sift/internal/format"
	"sift/internal/logging"
	"sift/internal/report"
	"sift/internal/screen"
)

// Server wraps the MCP SDK server and manages the active screening session.
type Server struct {
	MCPServer *sdkmcp.Server

	mu      sync.Mutex
	session *Session
}

// NewServer creates an MCP server with the screening and evaluation tools.
func NewServer(version string) *Server {
	s := &Server{}
	s.MCPServer = sdkmcp.NewServer(
		&sdkmcp.Implementation{Name: "sift", Version: version},
		nil,
	)
	s.registerTools()
	return s
}

func (s *Server) registerTools() {
	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "start_screening",
		Description: "Start a screening run over an embedded scenario. Spawns the orchestrator and returns a session ID.",
	}, s.handleStartScreening)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "get_progress",
		Description: "Get the latest progress event: records completed, total, and the running decision histogram.",
	}, s.handleGetProgress)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "get_decisions",
		Description: "Get the finalized decision set with per-model vote trails. Fails while the run is in flight.",
	}, s.handleGetDecisions)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "get_report",
		Description: "Evaluate the finished run against the scenario's gold labels and return the metric scorecard.",
	}, s.handleGetReport)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "stop_screening",
		Description: "Cancel the active session between records. Already-decided records are kept.",
	}, s.handleStopScreening)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "list_scenarios",
		Description: "List the embedded screening scenarios.",
	}, s.handleListScenarios)
}

// Shutdown cancels any active session.
func (s *Server) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session != nil {
		s.session.Cancel()
	}
}

func (s *Server) active() (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return nil, fmt.Errorf("no screening session; call start_screening first")
	}
	return s.session, nil
}

// --- Tool input/output types ---

type startScreeningInput struct {
	Scenario string `json:"scenario" jsonschema:"embedded scenario name (see list_scenarios)"`
	Workers  int    `json:"workers,omitempty" jsonschema:"worker pool size (default 4)"`
	Seed     int64  `json:"seed,omitempty" jsonschema:"run seed for deterministic reruns (default 42)"`
	Force    bool   `json:"force,omitempty" jsonschema:"cancel any running session and start fresh"`
}

type startScreeningOutput struct {
	SessionID    string `json:"session_id"`
	Scenario     string `json:"scenario"`
	RecordsTotal int    `json:"records_total"`
	Status       string `json:"status"`
}

type getProgressInput struct{}

type getProgressOutput struct {
	State    string               `json:"state"`
	Progress screen.ProgressEvent `json:"progress"`
}

type getDecisionsInput struct{}

type getDecisionsOutput struct {
	ResultSetID string            `json:"result_set_id"`
	Decisions   []screen.Decision `json:"decisions"`
	FailedCount int               `json:"failed_count"`
}

type getReportInput struct{}

type getReportOutput struct {
	Summary   string `json:"summary"`
	Join      string `json:"join"`
	Scorecard string `json:"scorecard"` // Markdown table
}

type stopScreeningInput struct{}

type stopScreeningOutput struct {
	OK string `json:"ok"`
}

type listScenariosInput struct{}

type listScenariosOutput struct {
	Scenarios []string `json:"scenarios"`
}

// --- Tool handlers ---

func (s *Server) handleStartScreening(_ context.Context, _ *sdkmcp.CallToolRequest, input startScreeningInput) (*sdkmcp.CallToolResult, startScreeningOutput, error) {
	logger := logging.New("mcp")
	s.mu.Lock()
	if s.session != nil {
		select {
		case <-s.session.Done():
			// finished; safe to replace
		default:
			if !input.Force {
				id := s.session.ID
				s.mu.Unlock()
				return nil, startScreeningOutput{}, fmt.Errorf("a screening session is already running (id=%s)", id)
			}
			logger.Warn("force-replacing active session", "old_id", s.session.ID)
			s.session.Cancel()
		}
	}
	s.session = nil
	s.mu.Unlock()

	sess, err := NewSession(StartScreeningInput{
		Scenario: input.Scenario,
		Workers:  input.Workers,
		Seed:     input.Seed,
	})
	if err != nil {
		return nil, startScreeningOutput{}, fmt.Errorf("start screening: %w", err)
	}

	s.mu.Lock()
	s.session = sess
	s.mu.Unlock()

	return nil, startScreeningOutput{
		SessionID:    sess.ID,
		Scenario:     sess.Scenario.Name,
		RecordsTotal: sess.Total,
		Status:       string(StateRunning),
	}, nil
}

func (s *Server) handleGetProgress(_ context.Context, _ *sdkmcp.CallToolRequest, _ getProgressInput) (*sdkmcp.CallToolResult, getProgressOutput, error) {
	sess, err := s.active()
	if err != nil {
		return nil, getProgressOutput{}, err
	}
	ev := sess.Sink.Latest()
	ev.Total = sess.Total
	return nil, getProgressOutput{State: string(sess.State()), Progress: ev}, nil
}

func (s *Server) handleGetDecisions(_ context.Context, _ *sdkmcp.CallToolRequest, _ getDecisionsInput) (*sdkmcp.CallToolResult, getDecisionsOutput, error) {
	sess, err := s.active()
	if err != nil {
		return nil, getDecisionsOutput{}, err
	}
	rs, err := sess.Result()
	if err != nil {
		return nil, getDecisionsOutput{}, err
	}
	return nil, getDecisionsOutput{
		ResultSetID: rs.ID,
		Decisions:   rs.Decisions,
		FailedCount: rs.FailedCount,
	}, nil
}

func (s *Server) handleGetReport(_ context.Context, _ *sdkmcp.CallToolRequest, _ getReportInput) (*sdkmcp.CallToolResult, getReportOutput, error) {
	sess, err := s.active()
	if err != nil {
		return nil, getReportOutput{}, err
	}
	rep, err := sess.Evaluate()
	if err != nil {
		return nil, getReportOutput{}, err
	}
	return nil, getReportOutput{
		Summary:   report.SummaryLine(rep),
		Join:      report.JoinLine(rep),
		Scorecard: report.Scorecard(rep, format.Markdown),
	}, nil
}

func (s *Server) handleStopScreening(_ context.Context, _ *sdkmcp.CallToolRequest, _ stopScreeningInput) (*sdkmcp.CallToolResult, stopScreeningOutput, error) {
	sess, err := s.active()
	if err != nil {
		return nil, stopScreeningOutput{}, err
	}
	sess.Cancel()
	return nil, stopScreeningOutput{OK: "cancellation requested"}, nil
}

func (s *Server) handleListScenarios(_ context.Context, _ *sdkmcp.CallToolRequest, _ listScenariosInput) (*sdkmcp.CallToolResult, listScenariosOutput, error) {
	return nil, listScenariosOutput{Scenarios: dataset.ListScenarios()}, nil
}
