// Package strategy composes the engine modules into one immutable result
// with a step-by-step audit trace. The coordinator never propagates a
// failure to its caller: any internal panic is recorded as a non-fatal
// audit entry and the partially-built result is returned. Optional
// collaborators are explicit injected interfaces with no-op defaults, not
// runtime-discovered modules.
package strategy

import (
	"fmt"

	"counsel/internal/casefile"
	"counsel/internal/confidence"
	"counsel/internal/depend"
	"counsel/internal/element"
	"counsel/internal/judicial"
	"counsel/internal/offence"
	"counsel/internal/pressure"
	"counsel/internal/residual"
	"counsel/internal/route"
	"counsel/internal/safety"
)

// ConstraintPack is an optional collaborator contributing route
// constraints (e.g. a local practice pack). Implementations must be pure
// over the snapshot.
type ConstraintPack interface {
	Name() string
	Constraints(snap *casefile.Snapshot) []route.Constraint
}

// Options configure a coordinator run. Unset fields fall back to their
// defaults per field, so a caller may set only what it cares about; the
// zero value runs with defaults and the judge lens off. Start from
// DefaultOptions for the standard run.
type Options struct {
	SafetyPolicy   safety.Policy
	PressurePolicy pressure.Policy
	Confidence     *confidence.Config
	JudicialCaps   judicial.Caps
	// Packs are optional constraint collaborators; a failing pack is
	// skipped with an audit entry, never fatal.
	Packs []ConstraintPack
	// EnableJudgeLens switches the judge constraint analysis; off means the
	// result carries no judge analysis rather than an error.
	EnableJudgeLens bool
	MaxNextActions  int
	MaxAngles       int
}

// DefaultOptions returns the standard configuration.
func DefaultOptions() Options {
	return Options{
		SafetyPolicy:    safety.DefaultPolicy(),
		PressurePolicy:  pressure.DefaultPolicy(),
		Confidence:      confidence.DefaultConfig(),
		JudicialCaps:    judicial.DefaultCaps(),
		EnableJudgeLens: true,
		MaxNextActions:  8,
		MaxAngles:       6,
	}
}

// withDefaults fills unset fields one by one so caller-set fields survive.
// EnableJudgeLens stays as given: false is a choice, not an absence.
func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.SafetyPolicy.CriticalUnsafeCount <= 0 {
		o.SafetyPolicy = def.SafetyPolicy
	}
	if o.PressurePolicy.HighWithinDays <= 0 {
		o.PressurePolicy = def.PressurePolicy
	}
	if o.Confidence == nil {
		o.Confidence = def.Confidence
	}
	if o.JudicialCaps.Constraints <= 0 {
		o.JudicialCaps = def.JudicialCaps
	}
	if o.MaxNextActions <= 0 {
		o.MaxNextActions = def.MaxNextActions
	}
	if o.MaxAngles <= 0 {
		o.MaxAngles = def.MaxAngles
	}
	return o
}

// RouteResult pairs a route assessment with its confidence state.
type RouteResult struct {
	route.Assessment
	Confidence confidence.State `json:"confidence"`
}

// Result is the root aggregate. It has no identity beyond the invocation
// that produced it; equal snapshots produce equal results.
type Result struct {
	CaseID            string             `json:"case_id"`
	Fingerprint       string             `json:"fingerprint"`
	Offence           offence.Definition `json:"offence"`
	Elements          []element.State    `json:"elements"`
	Dependencies      []depend.State     `json:"dependencies"`
	PluginConstraints []route.Constraint `json:"plugin_constraints,omitempty"`
	Safety            safety.Report      `json:"safety"`
	Routes            []RouteResult      `json:"routes"`
	Pressure          pressure.Report    `json:"pressure"`
	Residual          residual.Report    `json:"residual"`
	JudgeAnalysis     *judicial.Analysis `json:"judge_analysis,omitempty"`
	NextActions       []string           `json:"next_actions"`
	AuditTrace        []string           `json:"audit_trace"`
}

// Build runs the full pipeline in fixed order. It never panics outward and
// never returns nil.
func Build(snap *casefile.Snapshot, opts Options) (res *Result) {
	opts = opts.withDefaults()

	res = &Result{}
	defer func() {
		if r := recover(); r != nil {
			res.AuditTrace = append(res.AuditTrace,
				fmt.Sprintf("internal failure contained: %v; partial result returned", r))
		}
	}()

	if snap == nil {
		snap = &casefile.Snapshot{}
		res.AuditTrace = append(res.AuditTrace, "nil snapshot replaced with empty snapshot")
	}
	snap.Normalize()
	res.CaseID = snap.CaseID
	res.Fingerprint = snap.Fingerprint()

	gateOpen := snap.Gate.CanGenerateAnalysis
	if !gateOpen {
		res.AuditTrace = append(res.AuditTrace,
			"analysis gate closed: output is procedural template, confidence capped at LOW")
	}

	res.Offence = offence.Classify(snap.Charges, snap.ExtractedText)
	res.AuditTrace = append(res.AuditTrace,
		fmt.Sprintf("offence classified: %s (%s)", res.Offence.Code, res.Offence.Label))

	res.Elements = element.Assess(res.Offence, snap)
	if w := element.Weakest(res.Elements); w != nil {
		res.AuditTrace = append(res.AuditTrace,
			fmt.Sprintf("elements assessed: %d, weakest %s=%s", len(res.Elements), w.ID, w.Support))
	}

	res.Dependencies = depend.Track(snap)
	res.AuditTrace = append(res.AuditTrace,
		fmt.Sprintf("dependencies tracked: %d (%d outstanding)",
			len(res.Dependencies), len(depend.Outstanding(res.Dependencies))))

	res.Safety = safety.Evaluate(res.Dependencies, snap, opts.SafetyPolicy)
	res.AuditTrace = append(res.AuditTrace,
		fmt.Sprintf("procedural safety: %s", res.Safety.Status))

	res.PluginConstraints = collectConstraints(snap, opts.Packs, &res.AuditTrace)

	assessments := route.Evaluate(route.Input{
		Offence:      res.Offence,
		Elements:     res.Elements,
		Dependencies: res.Dependencies,
		Constraints:  res.PluginConstraints,
		Position:     snap.Position,
		Irreversible: snap.Irreversible,
	})

	anyLow := false
	for _, a := range assessments {
		cs := opts.Confidence.EvaluateState(a.ID, snap.PreviousSignals, snap.Signals, gateOpen)
		if cs.Current == confidence.Low {
			anyLow = true
		}
		res.Routes = append(res.Routes, RouteResult{Assessment: a, Confidence: cs})
		res.AuditTrace = append(res.AuditTrace,
			fmt.Sprintf("route %s: %s, confidence %s", a.ID, a.Status, cs.Current))
		for _, ch := range cs.Changes {
			res.AuditTrace = append(res.AuditTrace,
				fmt.Sprintf("route %s confidence drift (%s): %s", a.ID, ch.Direction, ch.Trigger))
		}
	}

	res.Pressure = pressure.Compute(snap, opts.PressurePolicy)
	res.AuditTrace = append(res.AuditTrace,
		fmt.Sprintf("time pressure: leverage %s across %d windows",
			res.Pressure.CurrentLeverage, len(res.Pressure.Windows)))

	res.Residual = residual.Scan(residual.Input{
		Signals:               snap.Signals,
		Dependencies:          res.Dependencies,
		GateOpen:              gateOpen,
		AnyRouteLowConfidence: anyLow,
		MaxAngles:             opts.MaxAngles,
	})
	res.AuditTrace = append(res.AuditTrace,
		fmt.Sprintf("residual scan: %s, %d angles", res.Residual.Status, len(res.Residual.Angles)))

	if opts.EnableJudgeLens {
		ja := judicial.Analyze(res.Elements, res.Dependencies, opts.JudicialCaps)
		res.JudgeAnalysis = &ja
		res.AuditTrace = append(res.AuditTrace,
			fmt.Sprintf("judge lens: %d constraints, %d required findings",
				len(ja.Constraints), len(ja.RequiredFindings)))
	} else {
		res.AuditTrace = append(res.AuditTrace, "judge lens disabled; skipped")
	}

	res.NextActions = nextActions(res, opts.MaxNextActions)
	res.AuditTrace = append(res.AuditTrace,
		fmt.Sprintf("assembled %d next actions", len(res.NextActions)))
	return res
}

// collectConstraints gathers constraints from optional packs. A panicking
// pack is contained and logged to the trace; the run continues.
func collectConstraints(snap *casefile.Snapshot, packs []ConstraintPack, trace *[]string) []route.Constraint {
	var out []route.Constraint
	for _, p := range packs {
		out = append(out, packConstraints(snap, p, trace)...)
	}
	return out
}

func packConstraints(snap *casefile.Snapshot, p ConstraintPack, trace *[]string) (cs []route.Constraint) {
	defer func() {
		if r := recover(); r != nil {
			*trace = append(*trace,
				fmt.Sprintf("constraint pack %q failed (%v); skipped", p.Name(), r))
			cs = nil
		}
	}()
	cs = p.Constraints(snap)
	if len(cs) > 0 {
		*trace = append(*trace,
			fmt.Sprintf("constraint pack %q contributed %d constraints", p.Name(), len(cs)))
	}
	return cs
}

// nextActions derives the capped action list: safety first, then
// disclosure chases for outstanding critical items, then pressure
// guidance, then residual angle usage.
func nextActions(res *Result, limit int) []string {
	var out []string
	add := func(s string) {
		if len(out) < limit && s != "" {
			out = append(out, s)
		}
	}

	if res.Safety.Status != safety.Safe {
		add(fmt.Sprintf("resolve procedural safety (%s) before committing to a route", res.Safety.Status))
	}
	for _, d := range depend.Outstanding(res.Dependencies) {
		if depend.IsCritical(d.ID) {
			add(fmt.Sprintf("chase outstanding disclosure: %s", d.Label))
		}
	}
	for _, g := range res.Pressure.Guidance {
		add(g)
	}
	for _, a := range res.Residual.Angles {
		if a.EvidenceBasis == residual.EvidenceBacked {
			add(a.HowToUse)
		}
	}
	for _, item := range res.Residual.LastResort {
		add(item)
	}
	return out
}
