// Package depend reconciles the canonical dependency catalogue,
// caller-declared dependencies and the disclosure timeline into canonical
// dependency records. Matching between dependency labels and timeline text
// is a declarative alias table plus a pure normalized-match function, so
// the fuzzy part is isolated and unit-testable on its own.
package depend

import (
	_ "embed"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"counsel/internal/casefile"
)

//go:embed dependencies.yaml
var catalogueYAML []byte

// Status of a dependency relative to disclosure.
type Status string

const (
	StatusOutstanding Status = "outstanding"
	StatusServed      Status = "served"
	StatusUnknown     Status = "unknown"
)

// State is one canonical dependency record.
type State struct {
	ID             string    `json:"id"`
	Label          string    `json:"label"`
	Status         Status    `json:"status"`
	WhyItMatters   string    `json:"why_it_matters"`
	LastActionDate time.Time `json:"last_action_date,omitempty"`
	Note           string    `json:"note,omitempty"`
}

type catalogueItem struct {
	ID      string   `yaml:"id"`
	Label   string   `yaml:"label"`
	Why     string   `yaml:"why"`
	Aliases []string `yaml:"aliases"`
}

type catalogueFile struct {
	Critical     []string        `yaml:"critical"`
	Dependencies []catalogueItem `yaml:"dependencies"`
}

var catalogue catalogueFile

func init() {
	if err := yaml.Unmarshal(catalogueYAML, &catalogue); err != nil {
		panic(fmt.Sprintf("depend: parse dependencies.yaml: %v", err))
	}
}

// CriticalIDs returns the canonical-critical dependency IDs (the items the
// procedural-safety thresholds count).
func CriticalIDs() []string {
	out := make([]string, len(catalogue.Critical))
	copy(out, catalogue.Critical)
	return out
}

// IsCritical reports whether id is canonical-critical.
func IsCritical(id string) bool {
	for _, c := range catalogue.Critical {
		if c == id {
			return true
		}
	}
	return false
}

// Normalize lowercases, strips punctuation and collapses whitespace so
// alias matching is insensitive to formatting noise in timeline text.
func Normalize(s string) string {
	var b strings.Builder
	lastSpace := true
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastSpace = false
		default:
			if !lastSpace {
				b.WriteRune(' ')
				lastSpace = true
			}
		}
	}
	return strings.TrimSpace(b.String())
}

// NormalizeMatch reports whether needle occurs in hay after both are
// normalized. This is the only matching primitive the tracker uses.
func NormalizeMatch(needle, hay string) bool {
	n, h := Normalize(needle), Normalize(hay)
	if n == "" || h == "" {
		return false
	}
	return strings.Contains(h, n)
}

// Track builds the canonical dependency records for a snapshot: every
// catalogue item, then declared dependencies that do not collapse into a
// catalogue item. Status comes from the most recent matching timeline
// entry; a declared status is used only when the timeline says nothing.
func Track(snap *casefile.Snapshot) []State {
	if snap == nil {
		snap = &casefile.Snapshot{}
	}

	out := make([]State, 0, len(catalogue.Dependencies)+len(snap.Declared))
	seen := make(map[string]bool, len(catalogue.Dependencies))

	for _, item := range catalogue.Dependencies {
		st := State{ID: item.ID, Label: item.Label, Status: StatusUnknown, WhyItMatters: item.Why}
		if entry, ok := latestMatch(item.Aliases, item.Label, snap.Timeline); ok {
			st.Status = statusFromAction(entry.Action)
			st.LastActionDate = entry.Date
			st.Note = entry.Note
		}
		seen[item.ID] = true
		out = append(out, st)
	}

	for _, d := range snap.Declared {
		if seen[d.ID] || d.ID == "" && d.Label == "" {
			// A declared duplicate of a catalogue item adds nothing: the
			// timeline already governs its status.
			continue
		}
		st := State{
			ID:           d.ID,
			Label:        d.Label,
			Status:       declaredStatus(d.Status),
			WhyItMatters: d.Note,
		}
		if st.ID == "" {
			st.ID = Normalize(d.Label)
		}
		if entry, ok := latestMatch([]string{d.Label, d.ID}, d.Label, snap.Timeline); ok {
			st.Status = statusFromAction(entry.Action)
			st.LastActionDate = entry.Date
			if entry.Note != "" {
				st.Note = entry.Note
			}
		}
		out = append(out, st)
	}
	return out
}

// latestMatch finds the most recent timeline entry whose item text matches
// any alias (or the label itself). Undated entries lose to dated ones;
// between undated entries the later one in slice order wins.
func latestMatch(aliases []string, label string, timeline []casefile.TimelineEntry) (casefile.TimelineEntry, bool) {
	var best casefile.TimelineEntry
	found := false
	for _, entry := range timeline {
		if !entryMatches(entry, aliases, label) {
			continue
		}
		if !found || laterEntry(entry, best) {
			best = entry
			found = true
		}
	}
	return best, found
}

func entryMatches(entry casefile.TimelineEntry, aliases []string, label string) bool {
	for _, a := range aliases {
		if NormalizeMatch(a, entry.Item) {
			return true
		}
	}
	return NormalizeMatch(label, entry.Item) || NormalizeMatch(entry.Item, label)
}

func laterEntry(a, b casefile.TimelineEntry) bool {
	if a.Date.IsZero() && b.Date.IsZero() {
		return true // later in slice order wins
	}
	if a.Date.IsZero() || b.Date.IsZero() {
		return b.Date.IsZero()
	}
	return !a.Date.Before(b.Date)
}

func statusFromAction(action string) Status {
	switch Normalize(action) {
	case "served", "reviewed":
		return StatusServed
	case "outstanding", "overdue":
		return StatusOutstanding
	default:
		return StatusUnknown
	}
}

func declaredStatus(s string) Status {
	switch Normalize(s) {
	case "served":
		return StatusServed
	case "outstanding":
		return StatusOutstanding
	default:
		return StatusUnknown
	}
}

// ByID indexes states for lookup.
func ByID(states []State) map[string]State {
	out := make(map[string]State, len(states))
	for _, st := range states {
		out[st.ID] = st
	}
	return out
}

// Outstanding filters states with outstanding status.
func Outstanding(states []State) []State {
	var out []State
	for _, st := range states {
		if st.Status == StatusOutstanding {
			out = append(out, st)
		}
	}
	return out
}
