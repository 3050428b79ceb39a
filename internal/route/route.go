// Package route evaluates the canonical defence strategy routes against
// element and dependency state. Evaluation is a pure function of its
// input; every status is justified by human-readable reasons tied to
// specific element or dependency facts, never a bare score.
package route

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"counsel/internal/casefile"
	"counsel/internal/depend"
	"counsel/internal/element"
	"counsel/internal/offence"
)

//go:embed routes.yaml
var catalogueYAML []byte

// Status of a route.
type Status string

const (
	StatusViable  Status = "viable"
	StatusRisky   Status = "risky"
	StatusBlocked Status = "blocked"
)

// Canonical route IDs.
const (
	FightCharge       = "fight_charge"
	ChargeReduction   = "charge_reduction"
	OutcomeManagement = "outcome_management"
)

// Definition is one canonical route from the catalogue.
type Definition struct {
	ID                   string   `json:"id" yaml:"id"`
	Label                string   `json:"label" yaml:"label"`
	Posture              string   `json:"posture" yaml:"posture"`
	RequiredDependencies []string `json:"required_dependencies" yaml:"required_dependencies"`
}

type catalogueFile struct {
	Routes []Definition `yaml:"routes"`
}

var catalogue catalogueFile

func init() {
	if err := yaml.Unmarshal(catalogueYAML, &catalogue); err != nil {
		panic(fmt.Sprintf("route: parse routes.yaml: %v", err))
	}
}

// Catalogue returns the canonical route definitions in evaluation order.
func Catalogue() []Definition {
	out := make([]Definition, len(catalogue.Routes))
	copy(out, catalogue.Routes)
	return out
}

// Constraint is an externally-sourced restriction on a route. An empty
// Route applies to every route.
type Constraint struct {
	Route string `json:"route,omitempty"`
	Text  string `json:"text"`
}

// Assessment is the evaluation of one route.
type Assessment struct {
	ID                   string   `json:"id"`
	Label                string   `json:"label"`
	Status               Status   `json:"status"`
	Reasons              []string `json:"reasons"`
	RequiredDependencies []string `json:"required_dependencies"`
	Constraints          []string `json:"constraints,omitempty"`
}

// Input carries everything route evaluation reads. No field is mutated.
type Input struct {
	Offence      offence.Definition
	Elements     []element.State
	Dependencies []depend.State
	Constraints  []Constraint
	Position     *casefile.RecordedPosition
	Irreversible []casefile.IrreversibleDecision
}

// Evaluate assesses every canonical route. Per route:
//
//	required dependencies all outstanding, no strong element -> blocked
//	some required dependencies outstanding, or any element
//	with only partial support                               -> risky
//	otherwise                                               -> viable
func Evaluate(in Input) []Assessment {
	byID := depend.ByID(in.Dependencies)

	anyStrong := false
	var partial []element.State
	for _, el := range in.Elements {
		switch el.Support {
		case element.SupportStrong:
			anyStrong = true
		case element.SupportSome, element.SupportWeak:
			partial = append(partial, el)
		}
	}

	out := make([]Assessment, 0, len(catalogue.Routes))
	for _, def := range catalogue.Routes {
		out = append(out, evaluateRoute(def, in, byID, anyStrong, partial))
	}
	return out
}

func evaluateRoute(def Definition, in Input, byID map[string]depend.State, anyStrong bool, partial []element.State) Assessment {
	a := Assessment{
		ID:    def.ID,
		Label: def.Label,
		RequiredDependencies: append([]string{}, def.RequiredDependencies...),
	}

	var outstanding, served []string
	for _, id := range def.RequiredDependencies {
		switch byID[id].Status {
		case depend.StatusOutstanding:
			outstanding = append(outstanding, id)
		case depend.StatusServed:
			served = append(served, id)
		}
	}

	switch {
	case len(outstanding) > 0 && len(served) == 0 && !anyStrong:
		a.Status = StatusBlocked
		a.Reasons = append(a.Reasons, fmt.Sprintf(
			"required disclosure outstanding with no strong element to lean on: %v", outstanding))
	case len(outstanding) > 0:
		a.Status = StatusRisky
		a.Reasons = append(a.Reasons, fmt.Sprintf(
			"disclosure is mixed: outstanding %v, served %v", outstanding, served))
	case len(partial) > 0:
		a.Status = StatusRisky
		for _, el := range partial {
			a.Reasons = append(a.Reasons, fmt.Sprintf(
				"element %q has %s support only", el.ID, el.Support))
		}
	default:
		a.Status = StatusViable
		a.Reasons = append(a.Reasons, fmt.Sprintf("%s: no outstanding required disclosure", def.Posture))
	}

	addRouteColour(&a, in)

	for _, c := range in.Constraints {
		if c.Route == "" || c.Route == def.ID {
			a.Constraints = append(a.Constraints, c.Text)
		}
	}
	return a
}

// addRouteColour folds route-specific facts (weak elements to attack,
// recorded position, irreversible decisions) into reasons and constraints.
func addRouteColour(a *Assessment, in Input) {
	switch a.ID {
	case FightCharge:
		for _, el := range in.Elements {
			if el.Support == element.SupportNone || el.Support == element.SupportWeak {
				a.Reasons = append(a.Reasons, fmt.Sprintf(
					"prosecution element %q is unsupported (%s); a contest targets it", el.ID, el.Support))
			}
		}
		for _, d := range in.Irreversible {
			if d.Status == "done" {
				a.Constraints = append(a.Constraints, fmt.Sprintf(
					"irreversible step already taken: %s", d.Label))
			}
		}
	case ChargeReduction:
		for _, el := range in.Elements {
			if (el.ID == "intent_gbh" || el.ID == "mens_rea") && el.Support != element.SupportStrong {
				a.Reasons = append(a.Reasons, fmt.Sprintf(
					"intent element %q at %s support leaves room for a lesser charge", el.ID, el.Support))
			}
		}
	case OutcomeManagement:
		if in.Position != nil && in.Position.PositionText != "" {
			a.Reasons = append(a.Reasons, fmt.Sprintf(
				"recorded defence position noted: %s", in.Position.PositionText))
		}
	}

	if in.Position != nil && in.Position.PositionType == "guilty_plea" && a.ID == FightCharge {
		a.Constraints = append(a.Constraints,
			"recorded position is a guilty plea; contesting the charge requires vacating it")
	}
}

// ByID indexes assessments for lookup.
func ByID(assessments []Assessment) map[string]Assessment {
	out := make(map[string]Assessment, len(assessments))
	for _, a := range assessments {
		out[a.ID] = a
	}
	return out
}
