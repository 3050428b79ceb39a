package store

import (
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"counsel/internal/casefile"
)

//go:embed schema.sql
var schemaSQL string

func nowUTC() string { return time.Now().UTC().Format(time.RFC3339) }

func dateStr(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func parseDate(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// SqlStore implements Store on SQLite via the pure-Go modernc driver.
type SqlStore struct {
	db *sql.DB
}

// Open opens or creates the SQLite DB at path, creating the parent
// directory and applying the schema.
func Open(path string) (*SqlStore, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &SqlStore{db: db}, nil
}

// OpenMemory opens an in-memory SQLite DB for testing.
func OpenMemory() (*SqlStore, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("open memory sqlite: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &SqlStore{db: db}, nil
}

func (s *SqlStore) Close() error { return s.db.Close() }

func (s *SqlStore) CreateCase(c *CaseRecord) (string, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	now := nowUTC()
	c.CreatedAt, c.UpdatedAt = now, now
	_, err := s.db.Exec(
		`INSERT INTO cases(id, label, extracted_text, doc_count, raw_chars_total,
		                   suspected_scanned, text_thin, hearing_date, disclosure_deadline,
		                   created_at, updated_at)
		 VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Label, c.ExtractedText, c.DocCount, c.RawCharsTotal,
		boolInt(c.SuspectedScanned), boolInt(c.TextThin),
		c.HearingDate, c.DisclosureDeadline, now, now,
	)
	if err != nil {
		return "", fmt.Errorf("insert case: %w", err)
	}
	return c.ID, nil
}

func (s *SqlStore) GetCase(id string) (*CaseRecord, error) {
	var c CaseRecord
	var scanned, thin int
	err := s.db.QueryRow(
		`SELECT id, label, extracted_text, doc_count, raw_chars_total,
		        suspected_scanned, text_thin, hearing_date, disclosure_deadline,
		        created_at, updated_at
		 FROM cases WHERE id = ?`, id,
	).Scan(&c.ID, &c.Label, &c.ExtractedText, &c.DocCount, &c.RawCharsTotal,
		&scanned, &thin, &c.HearingDate, &c.DisclosureDeadline,
		&c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get case: %w", err)
	}
	c.SuspectedScanned = scanned == 1
	c.TextThin = thin == 1
	return &c, nil
}

func (s *SqlStore) ListCases() ([]*CaseRecord, error) {
	rows, err := s.db.Query(`SELECT id FROM cases ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list cases: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]*CaseRecord, 0, len(ids))
	for _, id := range ids {
		c, err := s.GetCase(id)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func (s *SqlStore) UpdateCaseMaterial(c *CaseRecord) error {
	c.UpdatedAt = nowUTC()
	res, err := s.db.Exec(
		`UPDATE cases SET label = ?, extracted_text = ?, doc_count = ?,
		        raw_chars_total = ?, suspected_scanned = ?, text_thin = ?,
		        hearing_date = ?, disclosure_deadline = ?, updated_at = ?
		 WHERE id = ?`,
		c.Label, c.ExtractedText, c.DocCount, c.RawCharsTotal,
		boolInt(c.SuspectedScanned), boolInt(c.TextThin),
		c.HearingDate, c.DisclosureDeadline, c.UpdatedAt, c.ID,
	)
	if err != nil {
		return fmt.Errorf("update case: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("update case: no case %s", c.ID)
	}
	return nil
}

func (s *SqlStore) AddCharge(caseID string, ch casefile.ChargeRecord) error {
	_, err := s.db.Exec(
		`INSERT INTO charges(case_id, offence, section, count) VALUES(?, ?, ?, ?)`,
		caseID, ch.Offence, ch.Section, ch.Count,
	)
	if err != nil {
		return fmt.Errorf("insert charge: %w", err)
	}
	return nil
}

func (s *SqlStore) ListCharges(caseID string) ([]casefile.ChargeRecord, error) {
	rows, err := s.db.Query(
		`SELECT offence, section, count FROM charges WHERE case_id = ? ORDER BY id`, caseID)
	if err != nil {
		return nil, fmt.Errorf("list charges: %w", err)
	}
	defer rows.Close()

	var out []casefile.ChargeRecord
	for rows.Next() {
		var ch casefile.ChargeRecord
		if err := rows.Scan(&ch.Offence, &ch.Section, &ch.Count); err != nil {
			return nil, err
		}
		out = append(out, ch)
	}
	return out, rows.Err()
}

func (s *SqlStore) AddTimelineEntry(caseID string, e casefile.TimelineEntry) error {
	_, err := s.db.Exec(
		`INSERT INTO timeline(case_id, item, action, date, note) VALUES(?, ?, ?, ?, ?)`,
		caseID, e.Item, e.Action, dateStr(e.Date), e.Note,
	)
	if err != nil {
		return fmt.Errorf("insert timeline entry: %w", err)
	}
	return nil
}

func (s *SqlStore) ListTimeline(caseID string) ([]casefile.TimelineEntry, error) {
	rows, err := s.db.Query(
		`SELECT item, action, date, note FROM timeline WHERE case_id = ? ORDER BY id`, caseID)
	if err != nil {
		return nil, fmt.Errorf("list timeline: %w", err)
	}
	defer rows.Close()

	var out []casefile.TimelineEntry
	for rows.Next() {
		var e casefile.TimelineEntry
		var date string
		if err := rows.Scan(&e.Item, &e.Action, &date, &e.Note); err != nil {
			return nil, err
		}
		e.Date = parseDate(date)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *SqlStore) AddDeclaredDependency(caseID string, d casefile.DeclaredDependency) error {
	_, err := s.db.Exec(
		`INSERT INTO declared_dependencies(case_id, dep_id, label, status, note)
		 VALUES(?, ?, ?, ?, ?)`,
		caseID, d.ID, d.Label, d.Status, d.Note,
	)
	if err != nil {
		return fmt.Errorf("insert declared dependency: %w", err)
	}
	return nil
}

func (s *SqlStore) ListDeclared(caseID string) ([]casefile.DeclaredDependency, error) {
	rows, err := s.db.Query(
		`SELECT dep_id, label, status, note FROM declared_dependencies
		 WHERE case_id = ? ORDER BY id`, caseID)
	if err != nil {
		return nil, fmt.Errorf("list declared: %w", err)
	}
	defer rows.Close()

	var out []casefile.DeclaredDependency
	for rows.Next() {
		var d casefile.DeclaredDependency
		if err := rows.Scan(&d.ID, &d.Label, &d.Status, &d.Note); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *SqlStore) SetPosition(caseID string, p casefile.RecordedPosition) error {
	_, err := s.db.Exec(
		`INSERT INTO positions(case_id, position_type, position_text, is_primary)
		 VALUES(?, ?, ?, ?)
		 ON CONFLICT(case_id) DO UPDATE SET
		   position_type = excluded.position_type,
		   position_text = excluded.position_text,
		   is_primary = excluded.is_primary`,
		caseID, p.PositionType, p.PositionText, boolInt(p.Primary),
	)
	if err != nil {
		return fmt.Errorf("set position: %w", err)
	}
	return nil
}

func (s *SqlStore) GetPosition(caseID string) (*casefile.RecordedPosition, error) {
	var p casefile.RecordedPosition
	var primary int
	err := s.db.QueryRow(
		`SELECT position_type, position_text, is_primary FROM positions WHERE case_id = ?`,
		caseID,
	).Scan(&p.PositionType, &p.PositionText, &primary)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get position: %w", err)
	}
	p.Primary = primary == 1
	return &p, nil
}

func (s *SqlStore) AddIrreversibleDecision(caseID string, d casefile.IrreversibleDecision) error {
	_, err := s.db.Exec(
		`INSERT INTO irreversible_decisions(case_id, decision_id, label, status, updated_at)
		 VALUES(?, ?, ?, ?, ?)`,
		caseID, d.ID, d.Label, d.Status, dateStr(d.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert irreversible decision: %w", err)
	}
	return nil
}

func (s *SqlStore) ListIrreversibleDecisions(caseID string) ([]casefile.IrreversibleDecision, error) {
	rows, err := s.db.Query(
		`SELECT decision_id, label, status, updated_at FROM irreversible_decisions
		 WHERE case_id = ? ORDER BY id`, caseID)
	if err != nil {
		return nil, fmt.Errorf("list irreversible decisions: %w", err)
	}
	defer rows.Close()

	var out []casefile.IrreversibleDecision
	for rows.Next() {
		var d casefile.IrreversibleDecision
		var updated string
		if err := rows.Scan(&d.ID, &d.Label, &d.Status, &updated); err != nil {
			return nil, err
		}
		d.UpdatedAt = parseDate(updated)
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *SqlStore) AddImpactEntry(caseID string, e casefile.ImpactEntry) error {
	elements, err := json.Marshal(e.Elements)
	if err != nil {
		return fmt.Errorf("marshal impact elements: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO impact_entries(case_id, evidence_name, urgency, elements, outstanding, note)
		 VALUES(?, ?, ?, ?, ?, ?)`,
		caseID, e.Evidence.Name, e.Evidence.Urgency, string(elements),
		boolInt(e.Outstanding), e.Note,
	)
	if err != nil {
		return fmt.Errorf("insert impact entry: %w", err)
	}
	return nil
}

func (s *SqlStore) ListImpact(caseID string) ([]casefile.ImpactEntry, error) {
	rows, err := s.db.Query(
		`SELECT evidence_name, urgency, elements, outstanding, note
		 FROM impact_entries WHERE case_id = ? ORDER BY id`, caseID)
	if err != nil {
		return nil, fmt.Errorf("list impact: %w", err)
	}
	defer rows.Close()

	var out []casefile.ImpactEntry
	for rows.Next() {
		var e casefile.ImpactEntry
		var elements string
		var outstanding int
		if err := rows.Scan(&e.Evidence.Name, &e.Evidence.Urgency,
			&elements, &outstanding, &e.Note); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(elements), &e.Elements); err != nil {
			return nil, fmt.Errorf("unmarshal impact elements: %w", err)
		}
		e.Outstanding = outstanding == 1
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *SqlStore) SaveSignals(caseID string, sig casefile.Signals) error {
	payload, err := json.Marshal(sig)
	if err != nil {
		return fmt.Errorf("marshal signals: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO signal_snapshots(case_id, payload, created_at) VALUES(?, ?, ?)`,
		caseID, string(payload), nowUTC(),
	)
	if err != nil {
		return fmt.Errorf("insert signals: %w", err)
	}
	return nil
}

func (s *SqlStore) LatestSignals(caseID string) (*casefile.Signals, error) {
	return s.signalsAtOffset(caseID, 0)
}

func (s *SqlStore) PreviousSignals(caseID string) (*casefile.Signals, error) {
	return s.signalsAtOffset(caseID, 1)
}

func (s *SqlStore) signalsAtOffset(caseID string, offset int) (*casefile.Signals, error) {
	var payload string
	err := s.db.QueryRow(
		`SELECT payload FROM signal_snapshots WHERE case_id = ?
		 ORDER BY id DESC LIMIT 1 OFFSET ?`, caseID, offset,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get signals: %w", err)
	}
	var sig casefile.Signals
	if err := json.Unmarshal([]byte(payload), &sig); err != nil {
		return nil, fmt.Errorf("unmarshal signals: %w", err)
	}
	sig.Normalize()
	return &sig, nil
}

func (s *SqlStore) SaveAssessment(a *AssessmentRecord) (string, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	a.CreatedAt = nowUTC()
	_, err := s.db.Exec(
		`INSERT INTO assessments(id, case_id, fingerprint, result, created_at)
		 VALUES(?, ?, ?, ?, ?)`,
		a.ID, a.CaseID, a.Fingerprint, a.Result, a.CreatedAt,
	)
	if err != nil {
		return "", fmt.Errorf("insert assessment: %w", err)
	}
	return a.ID, nil
}

func (s *SqlStore) LatestAssessment(caseID string) (*AssessmentRecord, error) {
	var a AssessmentRecord
	err := s.db.QueryRow(
		`SELECT id, case_id, fingerprint, result, created_at FROM assessments
		 WHERE case_id = ? ORDER BY created_at DESC, id DESC LIMIT 1`, caseID,
	).Scan(&a.ID, &a.CaseID, &a.Fingerprint, &a.Result, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get assessment: %w", err)
	}
	return &a, nil
}

func (s *SqlStore) ListAssessments(caseID string) ([]*AssessmentRecord, error) {
	rows, err := s.db.Query(
		`SELECT id, case_id, fingerprint, result, created_at FROM assessments
		 WHERE case_id = ? ORDER BY created_at, id`, caseID)
	if err != nil {
		return nil, fmt.Errorf("list assessments: %w", err)
	}
	defer rows.Close()

	var out []*AssessmentRecord
	for rows.Next() {
		var a AssessmentRecord
		if err := rows.Scan(&a.ID, &a.CaseID, &a.Fingerprint, &a.Result, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &a)
	}
	return out, rows.Err()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
