package assemble

import (
	"context"
	"testing"
	"time"

	"counsel/adapters/store"
	"counsel/internal/casefile"
)

func seedCase(t *testing.T, st store.Store) string {
	t.Helper()
	id, err := st.CreateCase(&store.CaseRecord{
		Label:         "R v Doe",
		ExtractedText: "The witness caught a brief glimpse of the attacker.",
		DocCount:      4,
		RawCharsTotal: 48000,
		HearingDate:   "2025-04-01",
	})
	if err != nil {
		t.Fatalf("CreateCase: %v", err)
	}
	if err := st.AddCharge(id, casefile.ChargeRecord{Offence: "Wounding with intent", Section: "s18", Count: 1}); err != nil {
		t.Fatalf("AddCharge: %v", err)
	}
	if err := st.AddTimelineEntry(id, casefile.TimelineEntry{Item: "CCTV town centre", Action: "outstanding"}); err != nil {
		t.Fatalf("AddTimelineEntry: %v", err)
	}
	return id
}

func TestSnapshotAssemblesAllMaterial(t *testing.T) {
	st := store.NewMemStore()
	id := seedCase(t, st)

	sig := casefile.NewSignals()
	sig.Identification = casefile.IDWeak
	if err := st.SaveSignals(id, sig); err != nil {
		t.Fatalf("SaveSignals: %v", err)
	}

	asOf := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	snap, err := Snapshot(context.Background(), st, id, Options{AsOf: asOf})
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}

	if snap.CaseID != id {
		t.Errorf("case id = %s, want %s", snap.CaseID, id)
	}
	if len(snap.Charges) != 1 || snap.Charges[0].Section != "s18" {
		t.Errorf("charges = %+v", snap.Charges)
	}
	if len(snap.Timeline) != 1 {
		t.Errorf("timeline = %+v", snap.Timeline)
	}
	if snap.Signals.Identification != casefile.IDWeak {
		t.Errorf("signals = %+v, stored signals must be carried", snap.Signals)
	}
	if !snap.AsOf.Equal(asOf) {
		t.Errorf("as-of = %s, want %s", snap.AsOf, asOf)
	}
	if snap.HearingDate.IsZero() {
		t.Error("hearing date should parse from the case record")
	}
	if !snap.Gate.CanGenerateAnalysis {
		t.Error("gate should be open for this much material")
	}
}

// Signal history wires drift detection: the previous snapshot rides along.
func TestSnapshotCarriesPreviousSignals(t *testing.T) {
	st := store.NewMemStore()
	id := seedCase(t, st)

	first := casefile.NewSignals()
	first.Medical = casefile.MedicalSingleBrief
	second := casefile.NewSignals()
	second.Medical = casefile.MedicalSustained
	if err := st.SaveSignals(id, first); err != nil {
		t.Fatal(err)
	}
	if err := st.SaveSignals(id, second); err != nil {
		t.Fatal(err)
	}

	snap, err := Snapshot(context.Background(), st, id, Options{})
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if snap.Signals.Medical != casefile.MedicalSustained {
		t.Errorf("current medical = %s", snap.Signals.Medical)
	}
	if snap.PreviousSignals == nil || snap.PreviousSignals.Medical != casefile.MedicalSingleBrief {
		t.Errorf("previous signals = %+v", snap.PreviousSignals)
	}
}

func TestSnapshotGateClosedOnThinText(t *testing.T) {
	st := store.NewMemStore()
	id, err := st.CreateCase(&store.CaseRecord{Label: "thin", DocCount: 1, RawCharsTotal: 120, TextThin: true})
	if err != nil {
		t.Fatal(err)
	}
	snap, err := Snapshot(context.Background(), st, id, Options{})
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if snap.Gate.CanGenerateAnalysis {
		t.Error("gate must be closed for thin material")
	}
	if snap.Signals.Identification != casefile.SignalUnknown {
		t.Errorf("signals should default to unknown, got %+v", snap.Signals)
	}
}

func TestSnapshotUnknownCase(t *testing.T) {
	st := store.NewMemStore()
	if _, err := Snapshot(context.Background(), st, "missing", Options{}); err == nil {
		t.Error("expected an error for a case that does not exist")
	}
}
