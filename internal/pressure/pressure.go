// Package pressure computes the fixed list of time-pressure windows and the
// current leverage level. Date math is anchored to the snapshot's AsOf so
// the computation is deterministic. A missing date is a signal in itself:
// it degrades to a placeholder window with an explicit warning instead of
// disappearing.
package pressure

import (
	_ "embed"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"counsel/internal/casefile"
)

//go:embed policy.yaml
var policyYAML []byte

// Impact bucket of a window.
type Impact string

const (
	ImpactHigh   Impact = "high"
	ImpactMedium Impact = "medium"
	ImpactLow    Impact = "low"
)

// Leverage is the case-wide leverage level derived from the windows.
type Leverage string

const (
	LeverageHigh   Leverage = "HIGH"
	LeverageMedium Leverage = "MEDIUM"
	LeverageLow    Leverage = "LOW"
)

// Window is one pressure window.
type Window struct {
	ID             string    `json:"id"`
	Type           string    `json:"type"`
	Label          string    `json:"label"`
	Date           time.Time `json:"date,omitempty"`
	IsPlaceholder  bool      `json:"is_placeholder"`
	DaysUntil      *int      `json:"days_until,omitempty"`
	LeverageImpact Impact    `json:"leverage_impact"`
	Actions        []string  `json:"actions,omitempty"`
	Warning        string    `json:"warning,omitempty"`
}

// Policy carries the tunable window arithmetic and leverage cutoffs.
type Policy struct {
	HighWithinDays   int `yaml:"high_within_days"`   // leverage HIGH when a high-impact window is this close
	MediumWithinDays int `yaml:"medium_within_days"` // leverage MEDIUM when a medium-impact window is this close
	PleaCreditDays   int `yaml:"plea_credit_days"`   // estimated days from hearing to plea-credit drop
	SafetyMarginDays int `yaml:"safety_margin_days"` // margin subtracted for derived windows
}

// windowTemplate is one canonical window from the policy table. The date
// for each ID is resolved per snapshot in Compute.
type windowTemplate struct {
	ID             string   `yaml:"id"`
	Type           string   `yaml:"type"`
	Label          string   `yaml:"label"`
	Impact         Impact   `yaml:"impact"`
	Actions        []string `yaml:"actions"`
	MissingWarning string   `yaml:"missing_warning"`
}

type policyFile struct {
	Defaults Policy           `yaml:"defaults"`
	Windows  []windowTemplate `yaml:"windows"`
}

var policyTable policyFile

func init() {
	if err := yaml.Unmarshal(policyYAML, &policyTable); err != nil {
		panic(fmt.Sprintf("pressure: parse policy.yaml: %v", err))
	}
}

// DefaultPolicy returns the cutoffs from the embedded policy table.
func DefaultPolicy() Policy {
	return policyTable.Defaults
}

// Report is the full time-pressure picture.
type Report struct {
	Windows         []Window `json:"windows"`
	CurrentLeverage Leverage `json:"current_leverage"`
	Guidance        []string `json:"guidance"`
}

// Compute builds the four canonical windows (hearing, disclosure deadline,
// estimated plea-credit drop, last safe pivot) and derives leverage.
func Compute(snap *casefile.Snapshot, pol Policy) Report {
	if snap == nil {
		snap = &casefile.Snapshot{}
	}
	if pol.HighWithinDays <= 0 {
		pol = DefaultPolicy()
	}

	hearing := snap.HearingDate
	disclosure := snap.DisclosureDeadline

	var pleaCredit, pivot time.Time
	if !hearing.IsZero() {
		pleaCredit = hearing.AddDate(0, 0, pol.PleaCreditDays-pol.SafetyMarginDays)
		pivot = hearing.AddDate(0, 0, -pol.SafetyMarginDays)
	}

	dates := map[string]time.Time{
		"hearing":             hearing,
		"disclosure_deadline": disclosure,
		"plea_credit_drop":    pleaCredit,
		"last_safe_pivot":     pivot,
	}
	windows := make([]Window, 0, len(policyTable.Windows))
	for _, tpl := range policyTable.Windows {
		windows = append(windows, makeWindow(tpl, dates[tpl.ID], snap.AsOf))
	}

	lev := leverageFrom(windows, pol)
	return Report{
		Windows:         windows,
		CurrentLeverage: lev,
		Guidance:        guidance(lev),
	}
}

func makeWindow(tpl windowTemplate, date, asOf time.Time) Window {
	w := Window{ID: tpl.ID, Type: tpl.Type, Label: tpl.Label, LeverageImpact: tpl.Impact, Actions: tpl.Actions}
	if date.IsZero() || asOf.IsZero() {
		w.IsPlaceholder = true
		w.Warning = tpl.MissingWarning
		return w
	}
	w.Date = date
	days := int(date.Sub(asOf).Hours() / 24)
	w.DaysUntil = &days
	return w
}

func leverageFrom(windows []Window, pol Policy) Leverage {
	for _, w := range windows {
		if w.LeverageImpact == ImpactHigh && w.DaysUntil != nil && *w.DaysUntil <= pol.HighWithinDays {
			return LeverageHigh
		}
	}
	for _, w := range windows {
		if w.LeverageImpact == ImpactMedium && w.DaysUntil != nil && *w.DaysUntil <= pol.MediumWithinDays {
			return LeverageMedium
		}
	}
	return LeverageLow
}

func guidance(lev Leverage) []string {
	switch lev {
	case LeverageHigh:
		return []string{
			"a high-impact window is inside the cutoff: decisions taken now are effectively final",
			"prioritize disclosure chase and route commitment over further investigation",
		}
	case LeverageMedium:
		return []string{
			"a medium-impact window is approaching: schedule the outstanding chases this week",
		}
	default:
		return []string{
			fmt.Sprintf("no pressure window inside its cutoff; use the time to close evidence gaps (leverage %s)", lev),
		}
	}
}
