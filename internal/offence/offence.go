// Package offence maps charge records and extracted case text to a
// canonical offence definition. Classification never fails: when nothing
// matches the catalogue, the unknown-offence definition with five generic
// elements is returned so downstream modules always have elements to
// assess.
package offence

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"counsel/internal/casefile"
)

//go:embed offences.yaml
var catalogueYAML []byte

// Element is one legal element of an offence.
type Element struct {
	ID    string `json:"id" yaml:"id"`
	Label string `json:"label" yaml:"label"`
}

// Definition is an immutable canonical offence definition.
type Definition struct {
	Code     string    `json:"code" yaml:"code"`
	Label    string    `json:"label" yaml:"label"`
	Elements []Element `json:"elements" yaml:"elements"`
}

// catalogueEntry pairs a definition with its match patterns. Patterns are
// catalogue data, not part of the public Definition.
type catalogueEntry struct {
	Definition `yaml:",inline"`
	Patterns   []string `yaml:"patterns"`
}

type catalogueFile struct {
	Offences []catalogueEntry `yaml:"offences"`
	Unknown  Definition       `yaml:"unknown"`
}

var catalogue catalogueFile

func init() {
	if err := yaml.Unmarshal(catalogueYAML, &catalogue); err != nil {
		panic(fmt.Sprintf("offence: parse offences.yaml: %v", err))
	}
}

// Catalogue returns copies of every concrete offence definition.
func Catalogue() []Definition {
	out := make([]Definition, 0, len(catalogue.Offences))
	for _, e := range catalogue.Offences {
		out = append(out, cloneDefinition(e.Definition))
	}
	return out
}

// Unknown returns the fallback definition used when no charge matches.
func Unknown() Definition {
	return cloneDefinition(catalogue.Unknown)
}

// Classify matches charges against the catalogue: section and offence text
// per charge first, then the concatenated extracted text. First pattern hit
// wins; no hit returns the unknown definition.
func Classify(charges []casefile.ChargeRecord, extracted string) Definition {
	for _, c := range charges {
		hay := strings.ToLower(c.Section + " " + c.Offence)
		if def, ok := matchEntry(hay); ok {
			return def
		}
	}
	if def, ok := matchEntry(strings.ToLower(extracted)); ok {
		return def
	}
	return Unknown()
}

func matchEntry(hay string) (Definition, bool) {
	if strings.TrimSpace(hay) == "" {
		return Definition{}, false
	}
	for _, e := range catalogue.Offences {
		for _, p := range e.Patterns {
			if strings.Contains(hay, p) {
				return cloneDefinition(e.Definition), true
			}
		}
	}
	return Definition{}, false
}

func cloneDefinition(d Definition) Definition {
	out := d
	out.Elements = make([]Element, len(d.Elements))
	copy(out.Elements, d.Elements)
	return out
}
