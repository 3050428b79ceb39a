// Package casefile defines the input contract for the strategy engine: the
// fully-materialized case snapshot a caller assembles from storage and
// extraction before invoking any engine module. The engine never fetches
// data itself; everything it reasons over is in the Snapshot.
package casefile

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"
)

// ChargeRecord is one charge on the indictment as stored.
type ChargeRecord struct {
	Offence string `json:"offence"`
	Section string `json:"section"`
	Count   int    `json:"count"`
}

// TimelineEntry is one disclosure-timeline event. Date may be zero when the
// source record carried no date.
type TimelineEntry struct {
	Item   string    `json:"item"`
	Action string    `json:"action"`
	Date   time.Time `json:"date,omitempty"`
	Note   string    `json:"note,omitempty"`
}

// DeclaredDependency is a caller-declared evidentiary dependency, merged by
// the dependency tracker with the canonical catalogue.
type DeclaredDependency struct {
	ID     string `json:"id"`
	Label  string `json:"label"`
	Status string `json:"status,omitempty"`
	Note   string `json:"note,omitempty"`
}

// IrreversibleDecision records a step that cannot be walked back (e.g. a
// plea entered, a witness requirement waived).
type IrreversibleDecision struct {
	ID        string    `json:"id"`
	Label     string    `json:"label"`
	Status    string    `json:"status"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// RecordedPosition is the defence position on file, if any.
type RecordedPosition struct {
	PositionType string `json:"position_type,omitempty"`
	PositionText string `json:"position_text,omitempty"`
	Primary      bool   `json:"primary,omitempty"`
}

// EvidenceItem names a piece of evidence in the evidence-impact map.
type EvidenceItem struct {
	Name    string `json:"name"`
	Urgency string `json:"urgency,omitempty"`
}

// ImpactEntry links an evidence item to the offence elements it bears on.
// Outstanding means the item has been identified but not yet obtained or
// served.
type ImpactEntry struct {
	Evidence    EvidenceItem `json:"evidence"`
	Elements    []string     `json:"elements,omitempty"`
	Outstanding bool         `json:"outstanding,omitempty"`
	Note        string       `json:"note,omitempty"`
}

// Gate is the analysis gate: whether extracted case text is sufficient to
// support evidence-backed reasoning, plus the diagnostics behind the call.
type Gate struct {
	CanGenerateAnalysis bool `json:"can_generate_analysis"`
	DocCount            int  `json:"doc_count"`
	RawCharsTotal       int  `json:"raw_chars_total"`
	SuspectedScanned    bool `json:"suspected_scanned"`
	TextThin            bool `json:"text_thin"`
}

// Snapshot is the complete engine input. Two invocations with equal
// snapshots must produce identical results; AsOf anchors all date math so
// that holds across wall-clock time.
type Snapshot struct {
	CaseID        string                 `json:"case_id"`
	Charges       []ChargeRecord         `json:"charges,omitempty"`
	ExtractedText string                 `json:"extracted_text,omitempty"`
	Timeline      []TimelineEntry        `json:"timeline,omitempty"`
	Declared      []DeclaredDependency   `json:"declared,omitempty"`
	Irreversible  []IrreversibleDecision `json:"irreversible,omitempty"`
	Position      *RecordedPosition      `json:"position,omitempty"`
	ImpactMap     []ImpactEntry          `json:"impact_map,omitempty"`
	Signals       Signals                `json:"signals"`
	// PreviousSignals is the one piece of cross-invocation state: an earlier
	// signal snapshot supplied by the caller purely for drift detection.
	PreviousSignals *Signals `json:"previous_signals,omitempty"`
	Gate            Gate     `json:"gate"`

	AsOf               time.Time `json:"as_of"`
	HearingDate        time.Time `json:"hearing_date,omitempty"`
	DisclosureDeadline time.Time `json:"disclosure_deadline,omitempty"`
}

// Normalize fills defaulted fields so the engine can treat the snapshot as
// fully shaped: unset signal values become unknown and a zero AsOf is left
// zero (the pressure engine treats it as "date unknown").
func (s *Snapshot) Normalize() {
	s.Signals.Normalize()
	if s.PreviousSignals != nil {
		s.PreviousSignals.Normalize()
	}
}

// fingerprintView pins the field set hashed by Fingerprint. Kept separate
// from Snapshot so adding a non-semantic field later is an explicit choice.
type fingerprintView struct {
	S *Snapshot `json:"s"`
}

// Fingerprint returns a stable hex digest of the snapshot, suitable as a
// caller-side cache key. Equal snapshots yield equal fingerprints.
func (s *Snapshot) Fingerprint() string {
	b, err := json.Marshal(fingerprintView{S: s})
	if err != nil {
		// Snapshot contains only marshalable types; this path is unreachable
		// but the contract is no-error, so degrade to an empty key.
		return ""
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
