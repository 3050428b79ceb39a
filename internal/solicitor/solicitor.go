// Package solicitor condenses a full strategy result into a bounded digest
// a busy practitioner can scan in under a minute. Every list in the view has
// a hard cap; the builder is pure and deterministic.
package solicitor

import (
	"fmt"

	"counsel/internal/confidence"
	"counsel/internal/depend"
	"counsel/internal/element"
	"counsel/internal/route"
	"counsel/internal/strategy"
)

// Caps bound every list in the view.
type Caps struct {
	DisputePoints int
	MissingItems  int
	TopRoutes     int
	NextActions   int
}

// DefaultCaps matches the rendered digest: five dispute points, six missing
// items, two routes, six actions.
func DefaultCaps() Caps {
	return Caps{DisputePoints: 5, MissingItems: 6, TopRoutes: 2, NextActions: 6}
}

// RouteSummary is one line of the top-routes block.
type RouteSummary struct {
	ID         string           `json:"id"`
	Label      string           `json:"label"`
	Status     route.Status     `json:"status"`
	Confidence confidence.Level `json:"confidence"`
	Reason     string           `json:"reason,omitempty"`
}

// View is the condensed digest.
type View struct {
	CaseID        string         `json:"case_id"`
	Headline      string         `json:"headline"`
	DisputePoints []string       `json:"dispute_points"`
	MissingItems  []string       `json:"missing_items"`
	TopRoutes     []RouteSummary `json:"top_routes"`
	NextActions   []string       `json:"next_actions"`
}

// Build summarizes a coordinator result. A nil result yields an empty,
// fully-shaped view rather than a panic.
func Build(res *strategy.Result, caps Caps) View {
	if res == nil {
		res = &strategy.Result{}
	}
	if caps.TopRoutes <= 0 {
		caps = DefaultCaps()
	}
	v := View{
		CaseID:        res.CaseID,
		DisputePoints: []string{},
		MissingItems:  []string{},
		TopRoutes:     []RouteSummary{},
		NextActions:   []string{},
	}

	v.Headline = headline(res)
	v.DisputePoints = disputePoints(res, caps.DisputePoints)
	v.MissingItems = missingItems(res, caps.MissingItems)
	v.TopRoutes = topRoutes(res, caps.TopRoutes)

	for _, a := range res.NextActions {
		if len(v.NextActions) >= caps.NextActions {
			break
		}
		v.NextActions = append(v.NextActions, a)
	}
	return v
}

// headline pairs the procedural posture with the weakest offence element, the
// two facts a solicitor triages on first.
func headline(res *strategy.Result) string {
	posture := fmt.Sprintf("Procedural posture: %s.", res.Safety.Status)
	weakest := element.Weakest(res.Elements)
	if weakest == nil {
		return posture
	}
	return fmt.Sprintf("%s Weakest element: %s (%s support).",
		posture, weakest.Label, weakest.Support)
}

// disputePoints lists weak elements first, then reasons from viable routes.
func disputePoints(res *strategy.Result, limit int) []string {
	out := []string{}
	seen := map[string]bool{}
	add := func(s string) {
		if s == "" || seen[s] || len(out) >= limit {
			return
		}
		seen[s] = true
		out = append(out, s)
	}

	for _, el := range res.Elements {
		if el.Support == element.SupportWeak || el.Support == element.SupportNone {
			point := fmt.Sprintf("%s has %s evidential support", el.Label, el.Support)
			if len(el.Gaps) > 0 {
				point = fmt.Sprintf("%s: %s", point, el.Gaps[0])
			}
			add(point)
		}
	}
	for _, r := range res.Routes {
		if r.Status != route.StatusViable {
			continue
		}
		for _, reason := range r.Reasons {
			add(reason)
		}
	}
	return out
}

// missingItems orders outstanding disclosure by how decisive it is: required
// by a viable route first, then tied to a weak element, then the rest.
func missingItems(res *strategy.Result, limit int) []string {
	requiredByViable := map[string]bool{}
	for _, r := range res.Routes {
		if r.Status != route.StatusViable {
			continue
		}
		for _, id := range r.RequiredDependencies {
			requiredByViable[id] = true
		}
	}

	var weakGaps []string
	for _, el := range res.Elements {
		if el.Support == element.SupportWeak || el.Support == element.SupportNone {
			weakGaps = append(weakGaps, el.Gaps...)
		}
	}

	outstanding := depend.Outstanding(res.Dependencies)
	ranked := make([][]depend.State, 3)
	for _, d := range outstanding {
		switch {
		case requiredByViable[d.ID]:
			ranked[0] = append(ranked[0], d)
		case tiedToGap(d, weakGaps):
			ranked[1] = append(ranked[1], d)
		default:
			ranked[2] = append(ranked[2], d)
		}
	}

	out := []string{}
	for _, bucket := range ranked {
		for _, d := range bucket {
			if len(out) >= limit {
				return out
			}
			out = append(out, fmt.Sprintf("%s (%s)", d.Label, d.WhyItMatters))
		}
	}
	return out
}

func tiedToGap(d depend.State, gaps []string) bool {
	for _, g := range gaps {
		if depend.NormalizeMatch(d.Label, g) || depend.NormalizeMatch(d.ID, g) {
			return true
		}
	}
	return false
}

// topRoutes picks the best viable route, then the best risky one. Within a
// status bucket the higher confidence wins; catalogue order breaks ties.
func topRoutes(res *strategy.Result, limit int) []RouteSummary {
	out := []RouteSummary{}
	for _, want := range []route.Status{route.StatusViable, route.StatusRisky} {
		if len(out) >= limit {
			break
		}
		if best := bestOf(res.Routes, want); best != nil {
			out = append(out, *best)
		}
	}
	return out
}

func bestOf(routes []strategy.RouteResult, want route.Status) *RouteSummary {
	var best *strategy.RouteResult
	for i := range routes {
		r := &routes[i]
		if r.Status != want {
			continue
		}
		if best == nil || levelRank(r.Confidence.Current) > levelRank(best.Confidence.Current) {
			best = r
		}
	}
	if best == nil {
		return nil
	}
	sum := RouteSummary{
		ID:         best.ID,
		Label:      best.Label,
		Status:     best.Status,
		Confidence: best.Confidence.Current,
	}
	if len(best.Reasons) > 0 {
		sum.Reason = best.Reasons[0]
	}
	return &sum
}

func levelRank(l confidence.Level) int {
	switch l {
	case confidence.High:
		return 2
	case confidence.Medium:
		return 1
	default:
		return 0
	}
}
