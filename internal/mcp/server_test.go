package mcp

import (
	"context"
	"testing"

	"counsel/adapters/store"
	"counsel/internal/casefile"
)

func newTestServer(t *testing.T) (*Server, store.Store, string) {
	t.Helper()
	st := store.NewMemStore()
	id, err := st.CreateCase(&store.CaseRecord{
		Label:         "R v Doe",
		ExtractedText: "brief glimpse of the attacker",
		DocCount:      4,
		RawCharsTotal: 48000,
	})
	if err != nil {
		t.Fatalf("seed case: %v", err)
	}
	if err := st.AddCharge(id, casefile.ChargeRecord{Offence: "Wounding with intent", Section: "s18", Count: 1}); err != nil {
		t.Fatalf("seed charge: %v", err)
	}
	return NewServer(st, nil), st, id
}

func TestListCases(t *testing.T) {
	s, _, id := newTestServer(t)
	_, out, err := s.handleListCases(context.Background(), nil, listCasesInput{})
	if err != nil {
		t.Fatalf("list_cases: %v", err)
	}
	if out.Total != 1 || len(out.Cases) != 1 || out.Cases[0].ID != id {
		t.Errorf("list_cases = %+v", out)
	}
}

func TestAddTimelineEntry(t *testing.T) {
	s, st, id := newTestServer(t)

	_, _, err := s.handleAddTimelineEntry(context.Background(), nil, addTimelineEntryInput{
		CaseID: id, Item: "CCTV town centre", Action: "served", Date: "2025-02-10",
	})
	if err != nil {
		t.Fatalf("add_timeline_entry: %v", err)
	}
	tl, _ := st.ListTimeline(id)
	if len(tl) != 1 || tl[0].Date.IsZero() {
		t.Errorf("timeline = %+v", tl)
	}

	_, _, err = s.handleAddTimelineEntry(context.Background(), nil, addTimelineEntryInput{
		CaseID: id, Item: "BWV", Action: "served", Date: "not a date",
	})
	if err == nil {
		t.Error("bad date must be rejected")
	}
	_, _, err = s.handleAddTimelineEntry(context.Background(), nil, addTimelineEntryInput{
		CaseID: "missing", Item: "x", Action: "served",
	})
	if err == nil {
		t.Error("unknown case must be rejected")
	}
}

func TestAssessCaseTool(t *testing.T) {
	s, st, id := newTestServer(t)

	_, out, err := s.handleAssessCase(context.Background(), nil, assessCaseInput{CaseID: id})
	if err != nil {
		t.Fatalf("assess_case: %v", err)
	}
	if out.Result == nil || out.Result.Offence.Code != "oapa_s18" {
		t.Fatalf("assess_case result = %+v", out.Result)
	}
	if len(out.Result.Routes) != 3 {
		t.Errorf("routes = %d, want 3", len(out.Result.Routes))
	}

	// The run is persisted for audit.
	a, err := st.LatestAssessment(id)
	if err != nil || a == nil {
		t.Fatalf("LatestAssessment: %v, %+v", err, a)
	}
	if a.Fingerprint != out.Result.Fingerprint {
		t.Errorf("persisted fingerprint %s != result %s", a.Fingerprint, out.Result.Fingerprint)
	}

	_, _, err = s.handleAssessCase(context.Background(), nil, assessCaseInput{})
	if err == nil {
		t.Error("empty case_id must be rejected")
	}
}

func TestSolicitorViewTool(t *testing.T) {
	s, _, id := newTestServer(t)
	_, out, err := s.handleSolicitorView(context.Background(), nil, solicitorViewInput{CaseID: id})
	if err != nil {
		t.Fatalf("solicitor_view: %v", err)
	}
	if out.View.Headline == "" {
		t.Error("view must carry a headline")
	}
	if len(out.View.DisputePoints) > 5 || len(out.View.MissingItems) > 6 ||
		len(out.View.TopRoutes) > 2 || len(out.View.NextActions) > 6 {
		t.Errorf("view exceeds bounds: %+v", out.View)
	}
}
