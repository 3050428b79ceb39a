// Package residual enumerates attack angles not already covered by the
// existing attack paths and decides when further attack is exhausted.
// Exhaustion is declared only under strict evidentiary conditions: it can
// never be concluded from ignorance, so any unknown key signal forces
// ATTACKS_REMAIN.
package residual

import (
	"fmt"

	"counsel/internal/casefile"
	"counsel/internal/depend"
)

// ExhaustionStatus of the residual scan.
type ExhaustionStatus string

const (
	Exhausted     ExhaustionStatus = "EXHAUSTED"
	AttacksRemain ExhaustionStatus = "ATTACKS_REMAIN"
)

// EvidenceBasis classifies an angle.
type EvidenceBasis string

const (
	EvidenceBacked EvidenceBasis = "EVIDENCE_BACKED"
	Hypothesis     EvidenceBasis = "HYPOTHESIS"
)

// Optics is how a tribunal is likely to view pursuing the angle.
type Optics string

const (
	OpticsAttractive Optics = "ATTRACTIVE"
	OpticsNeutral    Optics = "NEUTRAL"
	OpticsRisky      Optics = "RISKY"
)

// fishingRationale is the standard downgrade wording for angles with no
// concrete required-evidence list.
const fishingRationale = "no concrete evidence target; pursuing this may be viewed as fishing"

// Angle is one residual attack angle.
type Angle struct {
	ID               string        `json:"id"`
	Title            string        `json:"title"`
	Category         string        `json:"category"`
	EvidenceBasis    EvidenceBasis `json:"evidence_basis"`
	RequiredEvidence []string      `json:"required_evidence,omitempty"`
	JudicialOptics   Optics        `json:"judicial_optics"`
	HowToUse         string        `json:"how_to_use"`
	StopIf           string        `json:"stop_if"`
}

// Report is the scan result.
type Report struct {
	Status      ExhaustionStatus `json:"status"`
	Explanation string           `json:"explanation"`
	Angles      []Angle          `json:"angles,omitempty"`
	LastResort  []string         `json:"last_resort,omitempty"`
}

// Input to the scanner.
type Input struct {
	Signals      casefile.Signals
	Dependencies []depend.State
	// Covered lists angle IDs already represented by existing attack paths.
	Covered []string
	// GateOpen mirrors the analysis gate; closed forces every angle to
	// HYPOTHESIS.
	GateOpen bool
	// AnyRouteLowConfidence triggers the last-resort plan even when attacks
	// remain.
	AnyRouteLowConfidence bool
	// MaxAngles caps the angle list; <= 0 means the default of 6.
	MaxAngles int
}

// ComputeExhaustionStatus applies the exhaustion guard. EXHAUSTED requires
// prosecution strength, identification and disclosure all favorable to the
// prosecution and PACE clean or unknown. An unknown value for any of the
// three key signals forces ATTACKS_REMAIN.
func ComputeExhaustionStatus(sig casefile.Signals) (ExhaustionStatus, string) {
	for _, f := range []string{casefile.FieldProsecution, casefile.FieldIdentification, casefile.FieldDisclosure} {
		if sig.Get(f) == casefile.SignalUnknown {
			return AttacksRemain, fmt.Sprintf("%s is unknown; exhaustion cannot be declared from ignorance", f)
		}
	}
	if sig.Prosecution == casefile.ProsecutionStrong &&
		sig.Identification == casefile.IDStrong &&
		sig.Disclosure == casefile.DisclosureComplete &&
		(sig.PACE == casefile.PACEClean || sig.PACE == casefile.SignalUnknown) {
		return Exhausted, "prosecution case fully evidenced, disclosure complete, no procedural opening"
	}
	return AttacksRemain, "at least one key signal leaves an attack open"
}

// Scan produces the residual report: exhaustion status, uncovered angles
// (capped), and the last-resort plan when warranted.
func Scan(in Input) Report {
	status, why := ComputeExhaustionStatus(in.Signals)
	rep := Report{Status: status, Explanation: why}

	maxAngles := in.MaxAngles
	if maxAngles <= 0 {
		maxAngles = 6
	}

	covered := make(map[string]bool, len(in.Covered))
	for _, id := range in.Covered {
		covered[id] = true
	}

	for _, a := range candidateAngles(in) {
		if covered[a.ID] {
			continue
		}
		if !in.GateOpen {
			a.EvidenceBasis = Hypothesis
		}
		if len(a.RequiredEvidence) == 0 {
			a.JudicialOptics = OpticsRisky
			a.StopIf = fishingRationale
		}
		rep.Angles = append(rep.Angles, a)
		if len(rep.Angles) == maxAngles {
			break
		}
	}

	if status == Exhausted || in.AnyRouteLowConfidence {
		rep.LastResort = LastResortPlan()
	}
	return rep
}

// LastResortPlan is the fixed four-item leverage plan used when attack is
// exhausted or confidence has bottomed out.
func LastResortPlan() []string {
	return []string{
		"plea timing: preserve maximum credit by fixing the decision date now",
		"mitigation pack: instructions, references and personal circumstances assembled for the court",
		"character evidence: identify and proof character witnesses",
		"sentence-guideline mapping: place the case within the guideline range with supporting facts",
	}
}

// candidateAngles derives the angle pool from signals and dependency state.
// Order is fixed so output is deterministic.
func candidateAngles(in Input) []Angle {
	sig := in.Signals
	var out []Angle

	switch sig.PACE {
	case casefile.PACEBreach, casefile.PACEConcerns:
		out = append(out, Angle{
			ID: "pace_admissibility", Title: "Challenge interview admissibility (s76/s78 PACE)",
			Category: "procedure", EvidenceBasis: EvidenceBacked,
			RequiredEvidence: []string{"custody record", "interview recording"},
			JudicialOptics:   OpticsAttractive,
			HowToUse:         "put the identified compliance failures to the interviewing officer and seek exclusion",
			StopIf:           "the custody record resolves the compliance question against the defence",
		})
	case casefile.SignalUnknown:
		out = append(out, Angle{
			ID: "pace_admissibility", Title: "Probe interview compliance (s76/s78 PACE)",
			Category: "procedure", EvidenceBasis: Hypothesis,
			RequiredEvidence: []string{"custody record"},
			JudicialOptics:   OpticsNeutral,
			HowToUse:         "obtain the custody record before committing to an admissibility challenge",
			StopIf:           "the custody record shows clean compliance",
		})
	}

	if sig.Disclosure == casefile.DisclosureGaps || sig.Disclosure == casefile.DisclosureSparse {
		a := Angle{
			ID: "disclosure_s8", Title: "Section 8 CPIA disclosure application",
			Category: "disclosure", EvidenceBasis: EvidenceBacked,
			RequiredEvidence: append([]string{}, sig.DisclosureGaps...),
			JudicialOptics:   OpticsAttractive,
			HowToUse:         "list the identified gaps, set a deadline, and apply if not met",
			StopIf:           "the outstanding items are served and add nothing",
		}
		out = append(out, a)
	}

	if sig.Identification == casefile.IDWeak || sig.Identification == casefile.IDDisputed {
		out = append(out, Angle{
			ID: "turnbull_id", Title: "Turnbull identification challenge",
			Category: "identification", EvidenceBasis: EvidenceBacked,
			RequiredEvidence: []string{"scene photographs", "lighting and distance evidence"},
			JudicialOptics:   OpticsAttractive,
			HowToUse:         "build the conditions record (lighting, distance, duration) and press for a Turnbull direction",
			StopIf:           "supporting evidence independently confirms the identification",
		})
	}

	if sig.CCTV == casefile.CCTVPartial || sig.CCTV == casefile.CCTVNone {
		out = append(out, Angle{
			ID: "cctv_continuity", Title: "CCTV continuity and completeness",
			Category: "continuity", EvidenceBasis: basisFor(sig.CCTV != casefile.SignalUnknown),
			JudicialOptics: OpticsNeutral,
			HowToUse:       "require the full retention window and the download audit trail",
			StopIf:         "the full sequence is produced and is inculpatory",
		})
	}

	for _, d := range in.Dependencies {
		if d.ID == "forensics" && d.Status == depend.StatusOutstanding {
			out = append(out, Angle{
				ID: "forensic_absence", Title: "Absence of forensic linkage",
				Category: "forensics", EvidenceBasis: EvidenceBacked,
				RequiredEvidence: []string{"forensic results"},
				JudicialOptics:   OpticsNeutral,
				HowToUse:         "if served results show no linkage, the absence itself is a defence point",
				StopIf:           "results positively link the defendant",
			})
		}
	}

	if sig.Medical == casefile.MedicalNone || sig.Medical == casefile.MedicalSingleBrief {
		out = append(out, Angle{
			ID: "injury_causation", Title: "Alternative explanation for the injury",
			Category: "causation", EvidenceBasis: Hypothesis,
			JudicialOptics: OpticsNeutral,
			HowToUse:       "test whether the recorded injury pattern is consistent with the prosecution mechanism",
			StopIf:         "medical evidence attributes the injury to the alleged mechanism",
		})
	}

	return out
}

func basisFor(known bool) EvidenceBasis {
	if known {
		return EvidenceBacked
	}
	return Hypothesis
}
