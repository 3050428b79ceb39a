package residual

import (
	"testing"

	"counsel/internal/casefile"
	"counsel/internal/depend"
)

func prosecutionTight() casefile.Signals {
	sig := casefile.NewSignals()
	sig.Prosecution = casefile.ProsecutionStrong
	sig.Identification = casefile.IDStrong
	sig.Disclosure = casefile.DisclosureComplete
	sig.PACE = casefile.PACEClean
	return sig
}

func TestExhaustedOnlyUnderStrictConditions(t *testing.T) {
	status, _ := ComputeExhaustionStatus(prosecutionTight())
	if status != Exhausted {
		t.Errorf("status = %s, want EXHAUSTED for a fully-evidenced prosecution case", status)
	}
}

// The exhaustion guard: any unknown key signal forces ATTACKS_REMAIN.
func TestUnknownKeySignalForcesAttacksRemain(t *testing.T) {
	for _, field := range []string{casefile.FieldProsecution, casefile.FieldIdentification, casefile.FieldDisclosure} {
		sig := prosecutionTight()
		switch field {
		case casefile.FieldProsecution:
			sig.Prosecution = casefile.SignalUnknown
		case casefile.FieldIdentification:
			sig.Identification = casefile.SignalUnknown
		case casefile.FieldDisclosure:
			sig.Disclosure = casefile.SignalUnknown
		}
		status, why := ComputeExhaustionStatus(sig)
		if status != Exhausted && status != AttacksRemain {
			t.Fatalf("unexpected status %s", status)
		}
		if status == Exhausted {
			t.Errorf("unknown %s must force ATTACKS_REMAIN, got EXHAUSTED (%s)", field, why)
		}
	}
}

func TestPACEUnknownDoesNotBlockExhaustion(t *testing.T) {
	sig := prosecutionTight()
	sig.PACE = casefile.SignalUnknown
	if status, _ := ComputeExhaustionStatus(sig); status != Exhausted {
		t.Errorf("PACE unknown is tolerated by the guard, got %s", status)
	}
}

func TestPACEBreachBlocksExhaustion(t *testing.T) {
	sig := prosecutionTight()
	sig.PACE = casefile.PACEBreach
	if status, _ := ComputeExhaustionStatus(sig); status != AttacksRemain {
		t.Error("a PACE breach is an open attack; exhaustion must not be declared")
	}
}

func TestScanGeneratesUncoveredAngles(t *testing.T) {
	sig := casefile.NewSignals()
	sig.Identification = casefile.IDWeak
	sig.Disclosure = casefile.DisclosureGaps
	sig.DisclosureGaps = []string{"cctv_window", "audio_999"}

	rep := Scan(Input{Signals: sig, GateOpen: true})
	if rep.Status != AttacksRemain {
		t.Fatalf("status = %s, want ATTACKS_REMAIN", rep.Status)
	}

	ids := map[string]Angle{}
	for _, a := range rep.Angles {
		ids[a.ID] = a
	}
	if _, ok := ids["turnbull_id"]; !ok {
		t.Error("weak identification should generate the Turnbull angle")
	}
	if a, ok := ids["disclosure_s8"]; !ok {
		t.Error("disclosure gaps should generate the s8 angle")
	} else if len(a.RequiredEvidence) != 2 {
		t.Errorf("s8 angle should carry the gap list, got %v", a.RequiredEvidence)
	}
}

func TestCoveredAnglesSuppressed(t *testing.T) {
	sig := casefile.NewSignals()
	sig.Identification = casefile.IDWeak

	rep := Scan(Input{Signals: sig, GateOpen: true, Covered: []string{"turnbull_id"}})
	for _, a := range rep.Angles {
		if a.ID == "turnbull_id" {
			t.Error("covered angle must not be re-emitted")
		}
	}
}

func TestAngleCapRespected(t *testing.T) {
	sig := casefile.NewSignals()
	sig.Identification = casefile.IDWeak
	sig.Disclosure = casefile.DisclosureSparse
	sig.PACE = casefile.PACEBreach
	sig.CCTV = casefile.CCTVPartial
	sig.Medical = casefile.MedicalNone

	deps := depend.Track(&casefile.Snapshot{
		Timeline: []casefile.TimelineEntry{{Item: "Forensic results", Action: "outstanding"}},
	})

	rep := Scan(Input{Signals: sig, Dependencies: deps, GateOpen: true, MaxAngles: 3})
	if len(rep.Angles) != 3 {
		t.Errorf("angle cap not respected: got %d", len(rep.Angles))
	}
}

func TestNoRequiredEvidenceDowngradesToRisky(t *testing.T) {
	sig := casefile.NewSignals()
	sig.Medical = casefile.MedicalNone

	rep := Scan(Input{Signals: sig, GateOpen: true})
	for _, a := range rep.Angles {
		if a.ID == "injury_causation" {
			if a.JudicialOptics != OpticsRisky {
				t.Errorf("angle without required evidence must be RISKY, got %s", a.JudicialOptics)
			}
			if a.StopIf == "" {
				t.Error("downgraded angle must carry the fishing rationale")
			}
			return
		}
	}
	t.Fatal("injury_causation angle not generated")
}

func TestClosedGateForcesHypothesis(t *testing.T) {
	sig := casefile.NewSignals()
	sig.Identification = casefile.IDWeak
	sig.Disclosure = casefile.DisclosureGaps
	sig.DisclosureGaps = []string{"x"}

	rep := Scan(Input{Signals: sig, GateOpen: false})
	for _, a := range rep.Angles {
		if a.EvidenceBasis != Hypothesis {
			t.Errorf("angle %s must be HYPOTHESIS with the gate closed", a.ID)
		}
	}
}

func TestLastResortPlan(t *testing.T) {
	rep := Scan(Input{Signals: prosecutionTight(), GateOpen: true})
	if rep.Status != Exhausted {
		t.Fatalf("precondition: status = %s", rep.Status)
	}
	if len(rep.LastResort) != 4 {
		t.Errorf("last-resort plan must have exactly 4 items, got %d", len(rep.LastResort))
	}

	// Low route confidence also triggers the plan even with attacks left.
	sig := casefile.NewSignals()
	rep = Scan(Input{Signals: sig, GateOpen: true, AnyRouteLowConfidence: true})
	if len(rep.LastResort) != 4 {
		t.Errorf("low confidence should trigger the plan, got %d items", len(rep.LastResort))
	}
}
