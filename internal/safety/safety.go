// Package safety derives the case-wide procedural safety status from
// dependency state and disclosure-timeline coverage. The truthfulness rule
// governs throughout: absence of data is itself surfaced, never silently
// treated as safe.
package safety

import (
	"fmt"

	"counsel/internal/casefile"
	"counsel/internal/depend"
)

// Status is the procedural safety state.
type Status string

const (
	Safe                Status = "SAFE"
	ConditionallyUnsafe Status = "CONDITIONALLY_UNSAFE"
	UnsafeToProceed     Status = "UNSAFE_TO_PROCEED"
)

// worseRank orders statuses from safest to least safe.
func worseRank(s Status) int {
	switch s {
	case Safe:
		return 0
	case ConditionallyUnsafe:
		return 1
	default:
		return 2
	}
}

// Worse reports whether a is less safe than b.
func Worse(a, b Status) bool { return worseRank(a) > worseRank(b) }

// Policy carries the tunable thresholds. The two-critical-items cutoff is
// an empirically-chosen policy parameter, not an invariant; keep it here
// rather than inlining the number.
type Policy struct {
	// CriticalUnsafeCount is how many canonical-critical items may be
	// outstanding before the case is unsafe to proceed.
	CriticalUnsafeCount int
	// CriticalConditionalCount is how many trigger conditional unsafety.
	CriticalConditionalCount int
}

// DefaultPolicy returns the conservative defaults.
func DefaultPolicy() Policy {
	return Policy{CriticalUnsafeCount: 2, CriticalConditionalCount: 1}
}

// Report is the safety evaluation with its reasons.
type Report struct {
	Status              Status   `json:"status"`
	Reasons             []string `json:"reasons"`
	CriticalOutstanding []string `json:"critical_outstanding,omitempty"`
}

// Evaluate applies the safety state machine:
//
//	>= CriticalUnsafeCount critical items outstanding -> UNSAFE_TO_PROCEED
//	>= CriticalConditionalCount                       -> CONDITIONALLY_UNSAFE
//	no evidence-impact map supplied                   -> CONDITIONALLY_UNSAFE
//	a required item with no timeline coverage         -> CONDITIONALLY_UNSAFE
//	otherwise                                         -> SAFE
//
// Required items are those named by the evidence-impact map. Serving a
// previously-outstanding item can only move the status toward SAFE.
func Evaluate(deps []depend.State, snap *casefile.Snapshot, pol Policy) Report {
	if snap == nil {
		snap = &casefile.Snapshot{}
	}
	if pol.CriticalUnsafeCount <= 0 {
		pol = DefaultPolicy()
	}

	rep := Report{Status: Safe}

	for _, d := range deps {
		if d.Status == depend.StatusOutstanding && depend.IsCritical(d.ID) {
			rep.CriticalOutstanding = append(rep.CriticalOutstanding, d.ID)
		}
	}

	switch n := len(rep.CriticalOutstanding); {
	case n >= pol.CriticalUnsafeCount:
		rep.Status = UnsafeToProceed
		rep.Reasons = append(rep.Reasons, fmt.Sprintf(
			"%d critical disclosure items outstanding (threshold %d): %v",
			n, pol.CriticalUnsafeCount, rep.CriticalOutstanding))
		return rep
	case n >= pol.CriticalConditionalCount:
		rep.Status = ConditionallyUnsafe
		rep.Reasons = append(rep.Reasons, fmt.Sprintf(
			"critical disclosure item outstanding: %v", rep.CriticalOutstanding))
	}

	if len(snap.ImpactMap) == 0 {
		rep.Status = atLeast(rep.Status, ConditionallyUnsafe)
		rep.Reasons = append(rep.Reasons,
			"no evidence-impact map supplied; required dependencies cannot be verified")
		return rep
	}

	for _, entry := range snap.ImpactMap {
		if !coveredByTimeline(entry.Evidence.Name, snap.Timeline) {
			rep.Status = atLeast(rep.Status, ConditionallyUnsafe)
			rep.Reasons = append(rep.Reasons, fmt.Sprintf(
				"required item %q has no disclosure-timeline entry", entry.Evidence.Name))
		}
	}

	if rep.Status == Safe {
		rep.Reasons = append(rep.Reasons, "all critical and required items covered by the disclosure timeline")
	}
	return rep
}

func coveredByTimeline(name string, timeline []casefile.TimelineEntry) bool {
	for _, entry := range timeline {
		if depend.NormalizeMatch(name, entry.Item) || depend.NormalizeMatch(entry.Item, name) {
			return true
		}
	}
	return false
}

func atLeast(cur, floor Status) Status {
	if Worse(cur, floor) {
		return cur
	}
	return floor
}
