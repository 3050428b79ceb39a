// Package judicial derives doctrine-based constraints from weak elements
// and outstanding dependencies: what a court must require evidence of
// before the charged conclusions are open to it. The wording is strictly
// non-probabilistic; the lens never estimates how a court is likely to
// decide, only what doctrine obliges it to require.
package judicial

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"counsel/internal/depend"
	"counsel/internal/element"
)

//go:embed doctrine.yaml
var doctrineYAML []byte

// Caps bound the analysis output sizes.
type Caps struct {
	Constraints      int
	RequiredFindings int
	Intolerances     int
	RedFlags         int
}

// DefaultCaps returns the standard bounds.
func DefaultCaps() Caps {
	return Caps{Constraints: 10, RequiredFindings: 8, Intolerances: 6, RedFlags: 6}
}

// Analysis is the constraint lens output.
type Analysis struct {
	Constraints      []string `json:"constraints,omitempty"`
	RequiredFindings []string `json:"required_findings,omitempty"`
	Intolerances     []string `json:"intolerances,omitempty"`
	RedFlags         []string `json:"red_flags,omitempty"`
}

// doctrine is the statement table for one element family.
type doctrine struct {
	Constraint string `yaml:"constraint"`
	Finding    string `yaml:"finding"`
	NoneFlag   string `yaml:"none_flag"`
}

type doctrineFile struct {
	Families map[string]doctrine `yaml:"families"`
}

var familyDoctrine map[string]doctrine

func init() {
	var f doctrineFile
	if err := yaml.Unmarshal(doctrineYAML, &f); err != nil {
		panic(fmt.Sprintf("judicial: parse doctrine.yaml: %v", err))
	}
	familyDoctrine = f.Families
}

// Analyze builds the constraint lens from element and dependency state.
// Statements are deduplicated and capped; order follows the input order so
// output is deterministic.
func Analyze(elements []element.State, deps []depend.State, caps Caps) Analysis {
	if caps.Constraints <= 0 {
		caps = DefaultCaps()
	}

	var a Analysis
	seen := map[string]bool{}

	add := func(list *[]string, limit int, s string) {
		if s == "" || seen[s] || len(*list) >= limit {
			return
		}
		seen[s] = true
		*list = append(*list, s)
	}

	for _, el := range elements {
		if el.Support != element.SupportWeak && el.Support != element.SupportNone {
			continue
		}
		d, ok := familyDoctrine[el.ID]
		if !ok {
			d = doctrine{
				Constraint: fmt.Sprintf("the court must require evidence supporting the element %q", el.ID),
				Finding:    fmt.Sprintf("evidence supporting %q", el.Label),
			}
		}
		add(&a.Constraints, caps.Constraints, d.Constraint)
		add(&a.RequiredFindings, caps.RequiredFindings, d.Finding)
		if el.Support == element.SupportNone {
			add(&a.RedFlags, caps.RedFlags, d.NoneFlag)
		}
	}

	for _, dep := range deps {
		if dep.Status != depend.StatusOutstanding {
			continue
		}
		add(&a.Intolerances, caps.Intolerances, fmt.Sprintf(
			"the court will require %s to be served before the trial date", dep.Label))
		if depend.IsCritical(dep.ID) {
			add(&a.RedFlags, caps.RedFlags, fmt.Sprintf(
				"critical item outstanding: %s", dep.Label))
		}
	}

	return a
}
