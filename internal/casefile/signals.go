package casefile

// Signal is one categorical evidence-signal value. Every signal domain
// includes SignalUnknown; classifiers must emit it rather than guessing.
type Signal string

// SignalUnknown is shared by every signal domain.
const SignalUnknown Signal = "unknown"

// Identification strength.
const (
	IDStrong   Signal = "strong"
	IDWeak     Signal = "weak"
	IDDisputed Signal = "disputed"
)

// Medical-evidence pattern.
const (
	MedicalNone        Signal = "none"
	MedicalSingleBrief Signal = "single_brief"
	MedicalSustained   Signal = "sustained"
	MedicalSerious     Signal = "serious"
)

// CCTV sequence coverage.
const (
	CCTVNone    Signal = "none"
	CCTVPartial Signal = "partial"
	CCTVFull    Signal = "full"
)

// Weapon-use pattern.
const (
	WeaponNone        Signal = "none"
	WeaponSpontaneous Signal = "spontaneous"
	WeaponBrought     Signal = "brought"
)

// Disclosure completeness.
const (
	DisclosureComplete Signal = "complete"
	DisclosureGaps     Signal = "gaps"
	DisclosureSparse   Signal = "sparse"
)

// PACE compliance.
const (
	PACEClean    Signal = "clean"
	PACEConcerns Signal = "concerns"
	PACEBreach   Signal = "breach"
)

// Prosecution case strength.
const (
	ProsecutionWeak     Signal = "weak"
	ProsecutionModerate Signal = "moderate"
	ProsecutionStrong   Signal = "strong"
)

// Canonical signal field names. Rule tables (confidence weights, exhaustion
// conditions) reference signals by these names.
const (
	FieldIdentification = "id_strength"
	FieldMedical        = "medical_evidence"
	FieldCCTV           = "cctv_sequence"
	FieldWeapon         = "weapon_use"
	FieldDisclosure     = "disclosure_completeness"
	FieldPACE           = "pace_compliance"
	FieldProsecution    = "prosecution_strength"
)

// signalFields is the canonical field order used for iteration and diffing.
var signalFields = []string{
	FieldIdentification,
	FieldMedical,
	FieldCCTV,
	FieldWeapon,
	FieldDisclosure,
	FieldPACE,
	FieldProsecution,
}

// Signals is the categorical evidence-signal vector. It is the unit
// compared across time for confidence drift.
type Signals struct {
	Identification Signal   `json:"id_strength"`
	Medical        Signal   `json:"medical_evidence"`
	CCTV           Signal   `json:"cctv_sequence"`
	Weapon         Signal   `json:"weapon_use"`
	Disclosure     Signal   `json:"disclosure_completeness"`
	DisclosureGaps []string `json:"disclosure_gaps,omitempty"`
	PACE           Signal   `json:"pace_compliance"`
	Prosecution    Signal   `json:"prosecution_strength"`
}

// NewSignals returns a vector with every field unknown.
func NewSignals() Signals {
	return Signals{
		Identification: SignalUnknown,
		Medical:        SignalUnknown,
		CCTV:           SignalUnknown,
		Weapon:         SignalUnknown,
		Disclosure:     SignalUnknown,
		PACE:           SignalUnknown,
		Prosecution:    SignalUnknown,
	}
}

// Normalize replaces empty values with unknown so a partially-populated
// vector is safe to reason over.
func (s *Signals) Normalize() {
	for _, f := range signalFields {
		if s.Get(f) == "" {
			s.Set(f, SignalUnknown)
		}
	}
}

// Get returns the value of a named field, or SignalUnknown for a name not
// in the canonical set.
func (s Signals) Get(field string) Signal {
	switch field {
	case FieldIdentification:
		return s.Identification
	case FieldMedical:
		return s.Medical
	case FieldCCTV:
		return s.CCTV
	case FieldWeapon:
		return s.Weapon
	case FieldDisclosure:
		return s.Disclosure
	case FieldPACE:
		return s.PACE
	case FieldProsecution:
		return s.Prosecution
	default:
		return SignalUnknown
	}
}

// Set assigns the value of a named field. Unrecognized names are ignored.
func (s *Signals) Set(field string, v Signal) {
	switch field {
	case FieldIdentification:
		s.Identification = v
	case FieldMedical:
		s.Medical = v
	case FieldCCTV:
		s.CCTV = v
	case FieldWeapon:
		s.Weapon = v
	case FieldDisclosure:
		s.Disclosure = v
	case FieldPACE:
		s.PACE = v
	case FieldProsecution:
		s.Prosecution = v
	}
}

// SignalFields returns the canonical field order.
func SignalFields() []string {
	out := make([]string, len(signalFields))
	copy(out, signalFields)
	return out
}

// Transition is one field-level change between two signal vectors.
type Transition struct {
	Field string `json:"field"`
	From  Signal `json:"from"`
	To    Signal `json:"to"`
}

// DiffSignals lists the field transitions from prev to curr in canonical
// field order. Equal vectors produce an empty list.
func DiffSignals(prev, curr Signals) []Transition {
	var out []Transition
	for _, f := range signalFields {
		from, to := prev.Get(f), curr.Get(f)
		if from != to {
			out = append(out, Transition{Field: f, From: from, To: to})
		}
	}
	return out
}
