// Package element assesses evidentiary support for each element of the
// matched offence. Support is decided by a fixed table over evidence-impact
// coverage and textual indicators, never a scored model; ties always
// resolve toward the lower support level.
package element

import (
	"fmt"
	"strings"

	"counsel/internal/casefile"
	"counsel/internal/offence"
)

// Support is the categorical strength of evidence for one element.
type Support string

const (
	SupportStrong Support = "strong"
	SupportSome   Support = "some"
	SupportWeak   Support = "weak"
	SupportNone   Support = "none"
)

// rank orders support levels for conservative comparisons. Higher is
// stronger.
func rank(s Support) int {
	switch s {
	case SupportStrong:
		return 3
	case SupportSome:
		return 2
	case SupportWeak:
		return 1
	default:
		return 0
	}
}

// Weaker reports whether a is a lower support level than b.
func Weaker(a, b Support) bool { return rank(a) < rank(b) }

// EvidenceRef points a conclusion back at the evidence that grounds it.
type EvidenceRef struct {
	Source string `json:"source"`
	Detail string `json:"detail,omitempty"`
}

// State is the assessed support for one offence element. States are created
// fresh per assessment and never mutated afterwards.
type State struct {
	ID      string        `json:"id"`
	Label   string        `json:"label"`
	Support Support       `json:"support"`
	Refs    []EvidenceRef `json:"refs,omitempty"`
	Gaps    []string      `json:"gaps,omitempty"`
}

// family buckets element IDs so keyword heuristics and textual adjustments
// can be shared across offences.
type family string

const (
	famIdentification family = "identification"
	famInjury         family = "injury"
	famIntent         family = "intent"
	famCausation      family = "causation"
	famLawfulness     family = "lawfulness"
)

var elementFamilies = map[string]family{
	"identification": famIdentification,
	"wounding":       famInjury,
	"abh":            famInjury,
	"assault":        famInjury,
	"actus_reus":     famInjury,
	"intent_gbh":     famIntent,
	"mens_rea":       famIntent,
	"causation":      famCausation,
	"unlawfulness":   famLawfulness,
}

// Keyword heuristics linking evidence-item names to element families, used
// when an impact entry does not name elements explicitly.
var familyKeywords = map[family][]string{
	famIdentification: {"cctv", "bwv", "identification", "id procedure", "witness", "lineup"},
	famInjury:         {"medical", "photo", "injur", "hospital", "forensic", "x-ray"},
	famIntent:         {"message", "phone", "interview", "999", "cad"},
	famCausation:      {"cctv", "medical", "forensic", "scene"},
	famLawfulness:     {"interview", "bwv", "witness", "999"},
}

// Textual indicator phrases. Matching is lowercase substring over the
// extracted text.
var (
	uncertaintyPhrases = []string{
		"cannot be sure", "can't be sure", "not sure", "unsure",
		"did not see the face", "poor lighting", "brief glimpse",
		"glimpse", "may have been", "could have been", "similar build",
	}
	severityPhrases = []string{
		"fracture", "surgery", "deep laceration", "stitches",
		"permanent", "life-changing", "intensive care", "skull",
	}
	intentPhrases = []string{
		"targeted", "sustained attack", "deliberate", "repeated blows",
		"followed the victim", "armed himself", "armed herself",
	}
)

// Assess produces one State per element of def. The decision table:
//
//	no coverage, no textual signal      -> none
//	textual signal only                 -> weak
//	all covering entries outstanding    -> weak
//	some covering entries outstanding   -> some
//	fully covered, none outstanding     -> strong
//
// then textual adjustments: uncertainty phrases step identification down
// one level; severity phrases step injury elements up one level; targeted/
// sustained/deliberate phrases step intent elements up one level. Upward
// steps apply only when coverage exists and is not fully outstanding. When
// the analysis gate is closed, textual heuristics are skipped entirely.
func Assess(def offence.Definition, snap *casefile.Snapshot) []State {
	if snap == nil {
		snap = &casefile.Snapshot{}
	}
	text := ""
	if snap.Gate.CanGenerateAnalysis {
		text = strings.ToLower(snap.ExtractedText)
	}

	out := make([]State, 0, len(def.Elements))
	for _, el := range def.Elements {
		out = append(out, assessOne(el, elementFamilies[el.ID], snap, text))
	}
	return out
}

func assessOne(el offence.Element, fam family, snap *casefile.Snapshot, text string) State {
	st := State{ID: el.ID, Label: el.Label}

	covering := coveringEntries(el.ID, fam, snap.ImpactMap)
	outstanding := 0
	for _, e := range covering {
		if e.Outstanding {
			outstanding++
			st.Gaps = append(st.Gaps, fmt.Sprintf("%s identified but outstanding", e.Evidence.Name))
			continue
		}
		st.Refs = append(st.Refs, EvidenceRef{Source: e.Evidence.Name, Detail: e.Note})
	}

	phrase, hasText := textSignal(fam, text)

	switch {
	case len(covering) == 0 && !hasText:
		st.Support = SupportNone
		st.Gaps = append(st.Gaps, "no evidence mapped to this element")
		return st
	case len(covering) == 0:
		st.Support = SupportWeak
		st.Refs = append(st.Refs, EvidenceRef{Source: "extracted_text", Detail: phrase})
		st.Gaps = append(st.Gaps, "textual indication only; no evidence-impact coverage")
	case outstanding == len(covering):
		st.Support = SupportWeak
	case outstanding > 0:
		st.Support = SupportSome
	default:
		st.Support = SupportStrong
	}

	coveredAndCurrent := len(covering) > 0 && outstanding < len(covering)

	switch fam {
	case famIdentification:
		if p, ok := textSignalFrom(uncertaintyPhrases, text); ok {
			st.Support = stepDown(st.Support)
			if !hasRef(st.Refs, "extracted_text", p) {
				st.Refs = append(st.Refs, EvidenceRef{Source: "extracted_text", Detail: p})
			}
			st.Gaps = append(st.Gaps, "identification language suggests uncertainty")
		}
	case famInjury:
		if p, ok := textSignalFrom(severityPhrases, text); ok && coveredAndCurrent {
			st.Support = stepUp(st.Support)
			st.Refs = append(st.Refs, EvidenceRef{Source: "extracted_text", Detail: p})
		}
	case famIntent:
		if p, ok := textSignalFrom(intentPhrases, text); ok && coveredAndCurrent {
			st.Support = stepUp(st.Support)
			st.Refs = append(st.Refs, EvidenceRef{Source: "extracted_text", Detail: p})
		}
	}
	return st
}

func hasRef(refs []EvidenceRef, source, detail string) bool {
	for _, r := range refs {
		if r.Source == source && r.Detail == detail {
			return true
		}
	}
	return false
}

// coveringEntries selects impact entries referencing the element, by
// explicit element ID first, else by family keyword over the evidence name.
func coveringEntries(id string, fam family, entries []casefile.ImpactEntry) []casefile.ImpactEntry {
	var out []casefile.ImpactEntry
	for _, e := range entries {
		if referencesElement(e, id, fam) {
			out = append(out, e)
		}
	}
	return out
}

func referencesElement(e casefile.ImpactEntry, id string, fam family) bool {
	for _, el := range e.Elements {
		if el == id {
			return true
		}
	}
	if len(e.Elements) > 0 {
		// Explicitly scoped to other elements; keywords do not override.
		return false
	}
	name := strings.ToLower(e.Evidence.Name)
	for _, kw := range familyKeywords[fam] {
		if strings.Contains(name, kw) {
			return true
		}
	}
	return false
}

func textSignal(fam family, text string) (string, bool) {
	switch fam {
	case famIdentification:
		return textSignalFrom(uncertaintyPhrases, text)
	case famInjury:
		return textSignalFrom(severityPhrases, text)
	case famIntent:
		return textSignalFrom(intentPhrases, text)
	default:
		return "", false
	}
}

func textSignalFrom(phrases []string, text string) (string, bool) {
	if text == "" {
		return "", false
	}
	for _, p := range phrases {
		if strings.Contains(text, p) {
			return p, true
		}
	}
	return "", false
}

func stepDown(s Support) Support {
	switch s {
	case SupportStrong:
		return SupportSome
	case SupportSome:
		return SupportWeak
	default:
		return s
	}
}

func stepUp(s Support) Support {
	switch s {
	case SupportWeak:
		return SupportSome
	case SupportSome:
		return SupportStrong
	default:
		return s
	}
}

// Weakest returns the state with the lowest support, preferring the earlier
// element on ties. Returns nil for an empty slice.
func Weakest(states []State) *State {
	var weakest *State
	for i := range states {
		if weakest == nil || Weaker(states[i].Support, weakest.Support) {
			weakest = &states[i]
		}
	}
	return weakest
}
