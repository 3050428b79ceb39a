// Package store is the persistence facade for case material. The engine
// never touches storage; the assembler reads a full snapshot out of a Store
// before each assessment, and assessment results are written back for audit.
package store

import (
	"counsel/internal/casefile"
)

// DefaultDBPath is the default relative path for the SQLite DB.
// Open() creates the parent dir.
const DefaultDBPath = ".counsel/counsel.db"

// CaseRecord is the top-level case row. Material that arrives as documents
// (extracted text, gate diagnostics) and key dates live here; the list-shaped
// material (charges, timeline, declared dependencies, impact map) has its own
// tables.
type CaseRecord struct {
	ID                 string // uuid
	Label              string
	ExtractedText      string
	DocCount           int
	RawCharsTotal      int
	SuspectedScanned   bool
	TextThin           bool
	HearingDate        string // ISO 8601 date; empty if unknown
	DisclosureDeadline string // ISO 8601 date; empty if unknown
	CreatedAt          string // ISO 8601
	UpdatedAt          string // ISO 8601
}

// AssessmentRecord is one stored engine run: the snapshot fingerprint it was
// computed from plus the serialized result.
type AssessmentRecord struct {
	ID          string // uuid
	CaseID      string
	Fingerprint string
	Result      []byte // JSON StrategyCoordinatorResult
	CreatedAt   string // ISO 8601
}

// Store is the persistence facade. Implementations are SQLite or in-memory;
// callers use only this interface.
type Store interface {
	// Case lifecycle
	CreateCase(c *CaseRecord) (string, error)
	GetCase(id string) (*CaseRecord, error)
	ListCases() ([]*CaseRecord, error)
	UpdateCaseMaterial(c *CaseRecord) error

	// Charges
	AddCharge(caseID string, ch casefile.ChargeRecord) error
	ListCharges(caseID string) ([]casefile.ChargeRecord, error)

	// Disclosure timeline, append-only
	AddTimelineEntry(caseID string, e casefile.TimelineEntry) error
	ListTimeline(caseID string) ([]casefile.TimelineEntry, error)

	// Caller-declared dependencies
	AddDeclaredDependency(caseID string, d casefile.DeclaredDependency) error
	ListDeclared(caseID string) ([]casefile.DeclaredDependency, error)

	// Recorded defence position: one per case, last write wins
	SetPosition(caseID string, p casefile.RecordedPosition) error
	GetPosition(caseID string) (*casefile.RecordedPosition, error)

	// Irreversible decisions
	AddIrreversibleDecision(caseID string, d casefile.IrreversibleDecision) error
	ListIrreversibleDecisions(caseID string) ([]casefile.IrreversibleDecision, error)

	// Evidence-impact map
	AddImpactEntry(caseID string, e casefile.ImpactEntry) error
	ListImpact(caseID string) ([]casefile.ImpactEntry, error)

	// Signal history, append-only; the previous snapshot feeds drift
	// detection on the next assessment.
	SaveSignals(caseID string, s casefile.Signals) error
	LatestSignals(caseID string) (*casefile.Signals, error)
	PreviousSignals(caseID string) (*casefile.Signals, error)

	// Assessments
	SaveAssessment(a *AssessmentRecord) (string, error)
	LatestAssessment(caseID string) (*AssessmentRecord, error)
	ListAssessments(caseID string) ([]*AssessmentRecord, error)

	Close() error
}
