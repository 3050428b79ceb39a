// Package extract turns raw case material into categorical evidence signals.
// The engine itself never infers signals; extraction is a caller-side concern
// and the default here is a no-op that leaves every signal unknown.
package extract

import (
	"context"

	"counsel/internal/casefile"
)

// SignalExtractor proposes evidence signals from extracted document text.
// Implementations must leave fields they cannot judge at unknown; they must
// never overwrite a signal the caller already set.
type SignalExtractor interface {
	// Extract returns proposed signals for the given material. The returned
	// signals are merged with unknown-valued fields of the caller's signals,
	// never replacing known values.
	Extract(ctx context.Context, text string) (casefile.Signals, error)
}

// Noop is the default extractor. It proposes nothing.
type Noop struct{}

func (Noop) Extract(context.Context, string) (casefile.Signals, error) {
	return casefile.NewSignals(), nil
}

// Merge fills unknown fields of base with the corresponding proposed values.
// Known fields in base always win; the engine stays grounded on what the
// caller asserted.
func Merge(base, proposed casefile.Signals) casefile.Signals {
	out := base
	out.Normalize()
	proposed.Normalize()

	if out.Identification == casefile.SignalUnknown {
		out.Identification = proposed.Identification
	}
	if out.Medical == casefile.SignalUnknown {
		out.Medical = proposed.Medical
	}
	if out.CCTV == casefile.SignalUnknown {
		out.CCTV = proposed.CCTV
	}
	if out.Weapon == casefile.SignalUnknown {
		out.Weapon = proposed.Weapon
	}
	if out.Disclosure == casefile.SignalUnknown {
		out.Disclosure = proposed.Disclosure
		if len(out.DisclosureGaps) == 0 {
			out.DisclosureGaps = append([]string{}, proposed.DisclosureGaps...)
		}
	}
	if out.PACE == casefile.SignalUnknown {
		out.PACE = proposed.PACE
	}
	if out.Prosecution == casefile.SignalUnknown {
		out.Prosecution = proposed.Prosecution
	}
	return out
}
