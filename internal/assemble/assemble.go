// Package assemble materializes a full engine snapshot from a Store. The
// engine itself does no I/O; every read happens here, before invocation.
package assemble

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"counsel/adapters/store"
	"counsel/internal/casefile"
	"counsel/internal/extract"
)

// Options tune snapshot assembly.
type Options struct {
	// AsOf anchors all date math for the assessment. Zero means now.
	AsOf time.Time
	// Extractor proposes signals for unknown fields from extracted text.
	// Nil means no extraction.
	Extractor extract.SignalExtractor
}

// Snapshot reads every piece of case material for caseID and assembles the
// engine input. Missing material (no position, no signals yet) is left at
// its zero value; the engine defaults from there.
func Snapshot(ctx context.Context, st store.Store, caseID string, opts Options) (*casefile.Snapshot, error) {
	rec, err := st.GetCase(caseID)
	if err != nil {
		return nil, fmt.Errorf("assemble: load case: %w", err)
	}
	if rec == nil {
		return nil, fmt.Errorf("assemble: no case %s", caseID)
	}

	snap := &casefile.Snapshot{
		CaseID:        caseID,
		ExtractedText: rec.ExtractedText,
		Gate: casefile.Gate{
			DocCount:         rec.DocCount,
			RawCharsTotal:    rec.RawCharsTotal,
			SuspectedScanned: rec.SuspectedScanned,
			TextThin:         rec.TextThin,
		},
		AsOf:               opts.AsOf,
		HearingDate:        parseDay(rec.HearingDate),
		DisclosureDeadline: parseDay(rec.DisclosureDeadline),
	}
	if snap.AsOf.IsZero() {
		snap.AsOf = time.Now().UTC()
	}
	snap.Gate.CanGenerateAnalysis = gateOpen(snap.Gate)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		snap.Charges, err = st.ListCharges(caseID)
		return err
	})
	g.Go(func() error {
		var err error
		snap.Timeline, err = st.ListTimeline(caseID)
		return err
	})
	g.Go(func() error {
		var err error
		snap.Declared, err = st.ListDeclared(caseID)
		return err
	})
	g.Go(func() error {
		var err error
		snap.Irreversible, err = st.ListIrreversibleDecisions(caseID)
		return err
	})
	g.Go(func() error {
		var err error
		snap.Position, err = st.GetPosition(caseID)
		return err
	})
	g.Go(func() error {
		var err error
		snap.ImpactMap, err = st.ListImpact(caseID)
		return err
	})
	g.Go(func() error {
		sig, err := st.LatestSignals(caseID)
		if err != nil {
			return err
		}
		if sig != nil {
			snap.Signals = *sig
		} else {
			snap.Signals = casefile.NewSignals()
		}
		snap.PreviousSignals, err = st.PreviousSignals(caseID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("assemble: load material: %w", err)
	}

	if opts.Extractor != nil && snap.Gate.CanGenerateAnalysis {
		proposed, err := opts.Extractor.Extract(ctx, snap.ExtractedText)
		if err == nil {
			snap.Signals = extract.Merge(snap.Signals, proposed)
		}
		// extraction failure is not fatal; unknowns stay unknown
	}

	snap.Normalize()
	return snap, nil
}

// gateOpen is the analysis-gate call: enough material, and not flagged as
// thin or scanned-only.
func gateOpen(g casefile.Gate) bool {
	return g.DocCount > 0 && g.RawCharsTotal >= 2000 && !g.TextThin && !g.SuspectedScanned
}

// parseDay accepts RFC3339 or bare YYYY-MM-DD dates.
func parseDay(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t
	}
	return time.Time{}
}
