package solicitor

import (
	"strings"
	"testing"

	"counsel/internal/confidence"
	"counsel/internal/depend"
	"counsel/internal/element"
	"counsel/internal/route"
	"counsel/internal/safety"
	"counsel/internal/strategy"
)

func sampleResult() *strategy.Result {
	return &strategy.Result{
		CaseID: "case-7",
		Safety: safety.Report{Status: safety.ConditionallyUnsafe},
		Elements: []element.State{
			{ID: "identification", Label: "Identification of the defendant", Support: element.SupportWeak,
				Gaps: []string{"cctv_window not yet served"}},
			{ID: "wounding", Label: "Wounding", Support: element.SupportStrong},
			{ID: "intent_gbh", Label: "Intent to cause grievous bodily harm", Support: element.SupportSome},
		},
		Dependencies: []depend.State{
			{ID: "cctv_window", Label: "CCTV for the incident window", Status: depend.StatusOutstanding,
				WhyItMatters: "only continuous record of the incident"},
			{ID: "bwv", Label: "Body-worn video", Status: depend.StatusOutstanding,
				WhyItMatters: "first account and scene condition"},
			{ID: "medical_photos", Label: "Medical photographs", Status: depend.StatusServed,
				WhyItMatters: "injury severity"},
			{ID: "forensics", Label: "Forensic results", Status: depend.StatusOutstanding,
				WhyItMatters: "links or excludes the defendant"},
		},
		Routes: []strategy.RouteResult{
			{
				Assessment: route.Assessment{
					ID: route.FightCharge, Label: "Fight the charge", Status: route.StatusViable,
					Reasons:              []string{"identification can be attacked"},
					RequiredDependencies: []string{"cctv_window", "bwv"},
				},
				Confidence: confidence.State{Current: confidence.Medium},
			},
			{
				Assessment: route.Assessment{
					ID: route.ChargeReduction, Label: "Seek charge reduction", Status: route.StatusRisky,
					Reasons: []string{"intent evidence is mixed"},
				},
				Confidence: confidence.State{Current: confidence.Medium},
			},
			{
				Assessment: route.Assessment{
					ID: route.OutcomeManagement, Label: "Outcome management", Status: route.StatusRisky,
				},
				Confidence: confidence.State{Current: confidence.Low},
			},
		},
		NextActions: []string{"a", "b", "c", "d", "e", "f", "g", "h"},
	}
}

func TestHeadlineNamesPostureAndWeakestElement(t *testing.T) {
	v := Build(sampleResult(), DefaultCaps())
	if !strings.Contains(v.Headline, "CONDITIONALLY_UNSAFE") {
		t.Errorf("headline %q missing procedural posture", v.Headline)
	}
	if !strings.Contains(v.Headline, "Identification of the defendant") {
		t.Errorf("headline %q missing weakest element", v.Headline)
	}
}

func TestDisputePointsWeakElementsFirst(t *testing.T) {
	v := Build(sampleResult(), DefaultCaps())
	if len(v.DisputePoints) == 0 {
		t.Fatal("expected dispute points")
	}
	if !strings.Contains(v.DisputePoints[0], "Identification") {
		t.Errorf("first dispute point = %q, want the weak element", v.DisputePoints[0])
	}
	found := false
	for _, p := range v.DisputePoints {
		if strings.Contains(p, "identification can be attacked") {
			found = true
		}
	}
	if !found {
		t.Error("viable-route reason missing from dispute points")
	}
}

// Missing items: required-by-viable-route outstanding deps come first, then
// items tied to weak-element gaps, then any other outstanding item.
func TestMissingItemsOrdering(t *testing.T) {
	v := Build(sampleResult(), DefaultCaps())
	if len(v.MissingItems) != 3 {
		t.Fatalf("missing items = %v, want the 3 outstanding deps", v.MissingItems)
	}
	if !strings.Contains(v.MissingItems[0], "CCTV") && !strings.Contains(v.MissingItems[1], "CCTV") {
		t.Errorf("route-required CCTV should rank ahead of forensics: %v", v.MissingItems)
	}
	if !strings.Contains(v.MissingItems[2], "Forensic") {
		t.Errorf("unranked outstanding dep should come last: %v", v.MissingItems)
	}
}

func TestTopRoutesBestViableThenBestRisky(t *testing.T) {
	v := Build(sampleResult(), DefaultCaps())
	if len(v.TopRoutes) != 2 {
		t.Fatalf("top routes = %d, want 2", len(v.TopRoutes))
	}
	if v.TopRoutes[0].ID != route.FightCharge {
		t.Errorf("first route = %s, want the viable one", v.TopRoutes[0].ID)
	}
	if v.TopRoutes[1].ID != route.ChargeReduction {
		t.Errorf("second route = %s, want the higher-confidence risky one", v.TopRoutes[1].ID)
	}
}

func TestBounds(t *testing.T) {
	res := sampleResult()
	for i := 0; i < 10; i++ {
		res.Elements = append(res.Elements, element.State{
			ID: "x", Label: "Extra element", Support: element.SupportWeak,
			Gaps: []string{"gap"},
		})
	}
	v := Build(res, DefaultCaps())
	if len(v.DisputePoints) > 5 {
		t.Errorf("dispute points = %d, want <= 5", len(v.DisputePoints))
	}
	if len(v.MissingItems) > 6 {
		t.Errorf("missing items = %d, want <= 6", len(v.MissingItems))
	}
	if len(v.TopRoutes) > 2 {
		t.Errorf("top routes = %d, want <= 2", len(v.TopRoutes))
	}
	if len(v.NextActions) != 6 {
		t.Errorf("next actions = %d, want capped at 6", len(v.NextActions))
	}
}

func TestNilResult(t *testing.T) {
	v := Build(nil, DefaultCaps())
	if v.Headline == "" {
		t.Error("nil result should still produce a posture headline")
	}
	if v.DisputePoints == nil || v.MissingItems == nil || v.TopRoutes == nil || v.NextActions == nil {
		t.Error("all lists must be non-nil for rendering")
	}
}

func TestZeroCapsFallBackToDefaults(t *testing.T) {
	v := Build(sampleResult(), Caps{})
	if len(v.TopRoutes) == 0 {
		t.Error("zero caps must fall back to the defaults, not an empty view")
	}
	def := DefaultCaps()
	if len(v.DisputePoints) > def.DisputePoints || len(v.MissingItems) > def.MissingItems ||
		len(v.TopRoutes) > def.TopRoutes || len(v.NextActions) > def.NextActions {
		t.Errorf("default bounds exceeded: %d/%d/%d/%d",
			len(v.DisputePoints), len(v.MissingItems), len(v.TopRoutes), len(v.NextActions))
	}
}
