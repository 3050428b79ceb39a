// Package confidence scores per-route confidence from the evidence-signal
// vector and detects directional changes between two signal snapshots.
// Scoring is an additive integer rule table loaded from embedded YAML;
// unknown signal values always subtract, so ignorance can only lower
// confidence, never raise it.
package confidence

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"counsel/internal/casefile"
)

//go:embed confidence.yaml
var rulesYAML []byte

// Level is a confidence bucket.
type Level string

const (
	High   Level = "HIGH"
	Medium Level = "MEDIUM"
	Low    Level = "LOW"
)

func levelRank(l Level) int {
	switch l {
	case High:
		return 2
	case Medium:
		return 1
	default:
		return 0
	}
}

// AtMost clamps l to ceiling.
func AtMost(l, ceiling Level) Level {
	if levelRank(l) > levelRank(ceiling) {
		return ceiling
	}
	return l
}

// Direction of a confidence change.
type Direction string

const (
	DirectionIncrease Direction = "increase"
	DirectionDecrease Direction = "decrease"
	// DirectionCollapse is a fall from HIGH straight to LOW.
	DirectionCollapse Direction = "collapse"
)

// Thresholds bucket an additive score into levels. The defaults (HIGH >= 3,
// MEDIUM >= 0) are empirically chosen constants carried from the rule
// table, not derived.
type Thresholds struct {
	High   int `yaml:"high"`
	Medium int `yaml:"medium"`
}

type fieldRules struct {
	Weights map[string]int    `yaml:"weights"`
	Notes   map[string]string `yaml:"notes"`
}

type routeRules struct {
	Fields map[string]fieldRules `yaml:"fields"`
}

// Config is the loaded rule table.
type Config struct {
	Thresholds     Thresholds            `yaml:"thresholds"`
	UnknownPenalty int                   `yaml:"unknown_penalty"`
	Routes         map[string]routeRules `yaml:"routes"`
}

var defaultConfig Config

func init() {
	if err := yaml.Unmarshal(rulesYAML, &defaultConfig); err != nil {
		panic(fmt.Sprintf("confidence: parse confidence.yaml: %v", err))
	}
}

// DefaultConfig returns the embedded rule table.
func DefaultConfig() *Config {
	return &defaultConfig
}

// Assessment is one scored confidence evaluation.
type Assessment struct {
	Level       Level  `json:"level"`
	Score       int    `json:"score"`
	Explanation string `json:"explanation"`
}

// Assess computes base confidence for a route. With the analysis gate
// closed the result is capped at LOW and labeled as a template.
func (c *Config) Assess(routeID string, sig casefile.Signals, gateOpen bool) Assessment {
	if !gateOpen {
		return Assessment{
			Level:       Low,
			Explanation: "analysis gate closed: extracted text insufficient; procedural template, not evidence-backed",
		}
	}

	rules, ok := c.Routes[routeID]
	if !ok {
		return Assessment{Level: Low, Explanation: fmt.Sprintf("no confidence rules for route %q", routeID)}
	}

	score := 0
	var parts []string
	for _, field := range casefile.SignalFields() {
		fr, listed := rules.Fields[field]
		if !listed {
			continue
		}
		v := sig.Get(field)
		if v == casefile.SignalUnknown || v == "" {
			score -= c.UnknownPenalty
			parts = append(parts, fmt.Sprintf("%s unknown (-%d)", field, c.UnknownPenalty))
			continue
		}
		w := fr.Weights[string(v)]
		score += w
		parts = append(parts, fmt.Sprintf("%s=%s (%+d)", field, v, w))
	}

	return Assessment{
		Level:       c.bucket(score),
		Score:       score,
		Explanation: fmt.Sprintf("score %d: %s", score, strings.Join(parts, ", ")),
	}
}

func (c *Config) bucket(score int) Level {
	switch {
	case score >= c.Thresholds.High:
		return High
	case score >= c.Thresholds.Medium:
		return Medium
	default:
		return Low
	}
}

// Change records one detected confidence movement.
type Change struct {
	From           Level     `json:"from"`
	To             Level     `json:"to"`
	Direction      Direction `json:"direction"`
	Trigger        string    `json:"trigger"`
	Explanation    string    `json:"explanation"`
	EvidenceBacked bool      `json:"evidence_backed"`
}

// DetectDrift recomputes confidence for both snapshots and returns nil when
// the level is unchanged. Otherwise the Change names the specific signal
// transitions that the rule table recognizes; EvidenceBacked is true only
// when at least one named trigger was identified.
func (c *Config) DetectDrift(routeID string, prev, curr casefile.Signals) *Change {
	before := c.Assess(routeID, prev, true)
	after := c.Assess(routeID, curr, true)
	if before.Level == after.Level {
		return nil
	}

	ch := &Change{
		From: before.Level,
		To:   after.Level,
		Explanation: fmt.Sprintf("confidence moved %s -> %s (score %d -> %d)",
			before.Level, after.Level, before.Score, after.Score),
	}
	switch {
	case before.Level == High && after.Level == Low:
		ch.Direction = DirectionCollapse
	case levelRank(after.Level) > levelRank(before.Level):
		ch.Direction = DirectionIncrease
	default:
		ch.Direction = DirectionDecrease
	}

	rules := c.Routes[routeID]
	var triggers []string
	for _, tr := range casefile.DiffSignals(prev, curr) {
		fr, listed := rules.Fields[tr.Field]
		if !listed {
			continue
		}
		if note, ok := fr.Notes[string(tr.To)]; ok {
			triggers = append(triggers, note)
		}
	}
	if len(triggers) > 0 {
		ch.Trigger = strings.Join(triggers, "; ")
		ch.EvidenceBacked = true
	} else {
		ch.Trigger = "evidence signals changed"
	}
	return ch
}

// State is the confidence picture for one route: the current level, the
// prior level when a previous snapshot was supplied, and any detected
// change between them.
type State struct {
	Current     Level    `json:"current"`
	Previous    *Level   `json:"previous,omitempty"`
	Changes     []Change `json:"changes,omitempty"`
	Explanation string   `json:"explanation"`
}

// EvaluateState assembles the full confidence state for a route.
func (c *Config) EvaluateState(routeID string, prev *casefile.Signals, curr casefile.Signals, gateOpen bool) State {
	a := c.Assess(routeID, curr, gateOpen)
	st := State{Current: a.Level, Explanation: a.Explanation}
	if prev == nil || !gateOpen {
		return st
	}
	pa := c.Assess(routeID, *prev, true)
	st.Previous = &pa.Level
	if ch := c.DetectDrift(routeID, *prev, curr); ch != nil {
		st.Changes = append(st.Changes, *ch)
	}
	return st
}
