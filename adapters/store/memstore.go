package store

import (
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"counsel/internal/casefile"
)

// MemStore is an in-memory Store for tests and throwaway runs. Implements
// Store with the same semantics as SqlStore.
type MemStore struct {
	mu           sync.Mutex
	cases        map[string]*CaseRecord
	charges      map[string][]casefile.ChargeRecord
	timeline     map[string][]casefile.TimelineEntry
	declared     map[string][]casefile.DeclaredDependency
	positions    map[string]*casefile.RecordedPosition
	irreversible map[string][]casefile.IrreversibleDecision
	impact       map[string][]casefile.ImpactEntry
	signals      map[string][]casefile.Signals
	assessments  map[string][]*AssessmentRecord
}

// NewMemStore returns an empty in-memory Store.
func NewMemStore() *MemStore {
	return &MemStore{
		cases:        map[string]*CaseRecord{},
		charges:      map[string][]casefile.ChargeRecord{},
		timeline:     map[string][]casefile.TimelineEntry{},
		declared:     map[string][]casefile.DeclaredDependency{},
		positions:    map[string]*casefile.RecordedPosition{},
		irreversible: map[string][]casefile.IrreversibleDecision{},
		impact:       map[string][]casefile.ImpactEntry{},
		signals:      map[string][]casefile.Signals{},
		assessments:  map[string][]*AssessmentRecord{},
	}
}

func (s *MemStore) Close() error { return nil }

func (s *MemStore) CreateCase(c *CaseRecord) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	now := nowUTC()
	c.CreatedAt, c.UpdatedAt = now, now
	cp := *c
	s.cases[c.ID] = &cp
	return c.ID, nil
}

func (s *MemStore) GetCase(id string) (*CaseRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cases[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (s *MemStore) ListCases() ([]*CaseRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*CaseRecord, 0, len(s.cases))
	for _, c := range s.cases {
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt < out[j].CreatedAt
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *MemStore) UpdateCaseMaterial(c *CaseRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.cases[c.ID]
	if !ok {
		return fmt.Errorf("update case: no case %s", c.ID)
	}
	c.CreatedAt = existing.CreatedAt
	c.UpdatedAt = nowUTC()
	cp := *c
	s.cases[c.ID] = &cp
	return nil
}

func (s *MemStore) AddCharge(caseID string, ch casefile.ChargeRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.charges[caseID] = append(s.charges[caseID], ch)
	return nil
}

func (s *MemStore) ListCharges(caseID string) ([]casefile.ChargeRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]casefile.ChargeRecord(nil), s.charges[caseID]...), nil
}

func (s *MemStore) AddTimelineEntry(caseID string, e casefile.TimelineEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timeline[caseID] = append(s.timeline[caseID], e)
	return nil
}

func (s *MemStore) ListTimeline(caseID string) ([]casefile.TimelineEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]casefile.TimelineEntry(nil), s.timeline[caseID]...), nil
}

func (s *MemStore) AddDeclaredDependency(caseID string, d casefile.DeclaredDependency) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.declared[caseID] = append(s.declared[caseID], d)
	return nil
}

func (s *MemStore) ListDeclared(caseID string) ([]casefile.DeclaredDependency, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]casefile.DeclaredDependency(nil), s.declared[caseID]...), nil
}

func (s *MemStore) SetPosition(caseID string, p casefile.RecordedPosition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := p
	s.positions[caseID] = &cp
	return nil
}

func (s *MemStore) GetPosition(caseID string) (*casefile.RecordedPosition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.positions[caseID]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (s *MemStore) AddIrreversibleDecision(caseID string, d casefile.IrreversibleDecision) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.irreversible[caseID] = append(s.irreversible[caseID], d)
	return nil
}

func (s *MemStore) ListIrreversibleDecisions(caseID string) ([]casefile.IrreversibleDecision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]casefile.IrreversibleDecision(nil), s.irreversible[caseID]...), nil
}

func (s *MemStore) AddImpactEntry(caseID string, e casefile.ImpactEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e.Elements = append([]string(nil), e.Elements...)
	s.impact[caseID] = append(s.impact[caseID], e)
	return nil
}

func (s *MemStore) ListImpact(caseID string) ([]casefile.ImpactEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]casefile.ImpactEntry, len(s.impact[caseID]))
	for i, e := range s.impact[caseID] {
		e.Elements = append([]string(nil), e.Elements...)
		out[i] = e
	}
	return out, nil
}

func (s *MemStore) SaveSignals(caseID string, sig casefile.Signals) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sig.DisclosureGaps = append([]string(nil), sig.DisclosureGaps...)
	s.signals[caseID] = append(s.signals[caseID], sig)
	return nil
}

func (s *MemStore) LatestSignals(caseID string) (*casefile.Signals, error) {
	return s.signalsAtOffset(caseID, 0)
}

func (s *MemStore) PreviousSignals(caseID string) (*casefile.Signals, error) {
	return s.signalsAtOffset(caseID, 1)
}

func (s *MemStore) signalsAtOffset(caseID string, offset int) (*casefile.Signals, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	hist := s.signals[caseID]
	i := len(hist) - 1 - offset
	if i < 0 {
		return nil, nil
	}
	sig := hist[i]
	sig.DisclosureGaps = append([]string(nil), sig.DisclosureGaps...)
	sig.Normalize()
	return &sig, nil
}

func (s *MemStore) SaveAssessment(a *AssessmentRecord) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	a.CreatedAt = nowUTC()
	cp := *a
	cp.Result = append([]byte(nil), a.Result...)
	s.assessments[a.CaseID] = append(s.assessments[a.CaseID], &cp)
	return a.ID, nil
}

func (s *MemStore) LatestAssessment(caseID string) (*AssessmentRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	hist := s.assessments[caseID]
	if len(hist) == 0 {
		return nil, nil
	}
	cp := *hist[len(hist)-1]
	cp.Result = append([]byte(nil), cp.Result...)
	return &cp, nil
}

func (s *MemStore) ListAssessments(caseID string) ([]*AssessmentRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*AssessmentRecord, 0, len(s.assessments[caseID]))
	for _, a := range s.assessments[caseID] {
		cp := *a
		cp.Result = append([]byte(nil), a.Result...)
		out = append(out, &cp)
	}
	return out, nil
}
