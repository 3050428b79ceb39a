// Package mcp exposes the engine over the Model Context Protocol so an
// agent-driven workflow can feed a case and pull the assessment without the
// HTTP layer.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"counsel/adapters/store"
	"counsel/internal/assemble"
	"counsel/internal/casefile"
	"counsel/internal/extract"
	"counsel/internal/solicitor"
	"counsel/internal/strategy"
)

// Server wraps the MCP SDK server around a Store.
type Server struct {
	MCPServer *sdkmcp.Server
	store     store.Store
	extractor extract.SignalExtractor
}

// NewServer creates an MCP server exposing case and assessment tools.
func NewServer(st store.Store, ex extract.SignalExtractor) *Server {
	s := &Server{store: st, extractor: ex}
	s.MCPServer = sdkmcp.NewServer(
		&sdkmcp.Implementation{Name: "counsel", Version: "dev"},
		nil,
	)
	s.registerTools()
	return s
}

// Run serves MCP over the given transport until ctx is canceled.
func (s *Server) Run(ctx context.Context, t sdkmcp.Transport) error {
	return s.MCPServer.Run(ctx, t)
}

func (s *Server) registerTools() {
	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "list_cases",
		Description: "List stored cases with their labels and ids.",
	}, s.handleListCases)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "add_timeline_entry",
		Description: "Append a disclosure-timeline entry (item, action, optional date and note) to a case.",
	}, s.handleAddTimelineEntry)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "assess_case",
		Description: "Run a full strategy assessment for a case and return the coordinator result.",
	}, s.handleAssessCase)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "solicitor_view",
		Description: "Return the bounded solicitor digest (headline, dispute points, missing items, top routes, next actions) for a case.",
	}, s.handleSolicitorView)
}

// --- Tool input/output types ---

type listCasesInput struct{}

type caseSummary struct {
	ID        string `json:"id"`
	Label     string `json:"label"`
	CreatedAt string `json:"created_at"`
}

type listCasesOutput struct {
	Cases []caseSummary `json:"cases"`
	Total int           `json:"total"`
}

type addTimelineEntryInput struct {
	CaseID string `json:"case_id" jsonschema:"case id from list_cases"`
	Item   string `json:"item" jsonschema:"evidence item name, e.g. CCTV town centre"`
	Action string `json:"action" jsonschema:"what happened: requested, served, reviewed, outstanding, overdue"`
	Date   string `json:"date,omitempty" jsonschema:"ISO date of the event, omit if unknown"`
	Note   string `json:"note,omitempty" jsonschema:"free-text note"`
}

type addTimelineEntryOutput struct {
	OK string `json:"ok"`
}

type assessCaseInput struct {
	CaseID string `json:"case_id" jsonschema:"case id from list_cases"`
}

type assessCaseOutput struct {
	Result *strategy.Result `json:"result"`
}

type solicitorViewInput struct {
	CaseID string `json:"case_id" jsonschema:"case id from list_cases"`
}

type solicitorViewOutput struct {
	View solicitor.View `json:"view"`
}

// --- Tool handlers ---

func (s *Server) handleListCases(_ context.Context, _ *sdkmcp.CallToolRequest, _ listCasesInput) (*sdkmcp.CallToolResult, listCasesOutput, error) {
	cases, err := s.store.ListCases()
	if err != nil {
		return nil, listCasesOutput{}, fmt.Errorf("list_cases: %w", err)
	}
	out := listCasesOutput{Cases: []caseSummary{}, Total: len(cases)}
	for _, c := range cases {
		out.Cases = append(out.Cases, caseSummary{ID: c.ID, Label: c.Label, CreatedAt: c.CreatedAt})
	}
	return nil, out, nil
}

func (s *Server) handleAddTimelineEntry(_ context.Context, _ *sdkmcp.CallToolRequest, input addTimelineEntryInput) (*sdkmcp.CallToolResult, addTimelineEntryOutput, error) {
	if input.CaseID == "" || input.Item == "" || input.Action == "" {
		return nil, addTimelineEntryOutput{}, fmt.Errorf("case_id, item and action are required")
	}
	c, err := s.store.GetCase(input.CaseID)
	if err != nil {
		return nil, addTimelineEntryOutput{}, err
	}
	if c == nil {
		return nil, addTimelineEntryOutput{}, fmt.Errorf("no case %s", input.CaseID)
	}

	e := casefile.TimelineEntry{Item: input.Item, Action: input.Action, Note: input.Note}
	if input.Date != "" {
		e.Date = parseDay(input.Date)
		if e.Date.IsZero() {
			return nil, addTimelineEntryOutput{}, fmt.Errorf("unparseable date %q, use YYYY-MM-DD", input.Date)
		}
	}
	if err := s.store.AddTimelineEntry(input.CaseID, e); err != nil {
		return nil, addTimelineEntryOutput{}, fmt.Errorf("add_timeline_entry: %w", err)
	}
	return nil, addTimelineEntryOutput{OK: "entry recorded"}, nil
}

func (s *Server) handleAssessCase(ctx context.Context, _ *sdkmcp.CallToolRequest, input assessCaseInput) (*sdkmcp.CallToolResult, assessCaseOutput, error) {
	res, err := s.assess(ctx, input.CaseID)
	if err != nil {
		return nil, assessCaseOutput{}, err
	}
	return nil, assessCaseOutput{Result: res}, nil
}

func (s *Server) handleSolicitorView(ctx context.Context, _ *sdkmcp.CallToolRequest, input solicitorViewInput) (*sdkmcp.CallToolResult, solicitorViewOutput, error) {
	res, err := s.assess(ctx, input.CaseID)
	if err != nil {
		return nil, solicitorViewOutput{}, err
	}
	return nil, solicitorViewOutput{View: solicitor.Build(res, solicitor.DefaultCaps())}, nil
}

func (s *Server) assess(ctx context.Context, caseID string) (*strategy.Result, error) {
	if caseID == "" {
		return nil, fmt.Errorf("case_id is required")
	}
	snap, err := assemble.Snapshot(ctx, s.store, caseID, assemble.Options{Extractor: s.extractor})
	if err != nil {
		return nil, fmt.Errorf("assess: %w", err)
	}
	res := strategy.Build(snap, strategy.DefaultOptions())

	payload, err := json.Marshal(res)
	if err == nil {
		_, _ = s.store.SaveAssessment(&store.AssessmentRecord{
			CaseID:      caseID,
			Fingerprint: res.Fingerprint,
			Result:      payload,
		})
	}
	return res, nil
}
