package depend

import (
	"testing"
	"time"

	"counsel/internal/casefile"
)

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"  CCTV — Town Centre ": "cctv town centre",
		"Body-Worn Video":       "body worn video",
		"999 call!!":            "999 call",
		"":                      "",
	}
	for in, want := range cases {
		if got := Normalize(in); got != want {
			t.Errorf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNormalizeMatch(t *testing.T) {
	if !NormalizeMatch("cctv", "CCTV (town centre), 22:00–22:40") {
		t.Error("alias should match despite punctuation and case")
	}
	if !NormalizeMatch("body worn", "Body-Worn Video officer 1142") {
		t.Error("hyphenated forms should match")
	}
	if NormalizeMatch("", "anything") || NormalizeMatch("cctv", "") {
		t.Error("empty sides must never match")
	}
}

func TestTrackCatalogueAlwaysPresent(t *testing.T) {
	states := Track(&casefile.Snapshot{})
	if len(states) != 9 {
		t.Fatalf("expected 9 canonical dependencies, got %d", len(states))
	}
	for _, st := range states {
		if st.Status != StatusUnknown {
			t.Errorf("%s = %s, want unknown with no timeline", st.ID, st.Status)
		}
		if st.WhyItMatters == "" {
			t.Errorf("%s has no why_it_matters", st.ID)
		}
	}
}

func TestTrackMostRecentEntryWins(t *testing.T) {
	d1 := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	snap := &casefile.Snapshot{
		Timeline: []casefile.TimelineEntry{
			{Item: "CCTV town centre", Action: "outstanding", Date: d1},
			{Item: "CCTV town centre", Action: "served", Date: d2},
		},
	}
	st := ByID(Track(snap))["cctv_window"]
	if st.Status != StatusServed {
		t.Errorf("cctv_window = %s, want served (most recent entry)", st.Status)
	}
	if !st.LastActionDate.Equal(d2) {
		t.Errorf("LastActionDate = %v, want %v", st.LastActionDate, d2)
	}
}

func TestTrackOverdueIsOutstanding(t *testing.T) {
	snap := &casefile.Snapshot{
		Timeline: []casefile.TimelineEntry{
			{Item: "Interview recording", Action: "overdue"},
		},
	}
	if st := ByID(Track(snap))["interview_recording"]; st.Status != StatusOutstanding {
		t.Errorf("interview_recording = %s, want outstanding for overdue", st.Status)
	}
}

func TestTrackUnrecognizedActionIsUnknown(t *testing.T) {
	snap := &casefile.Snapshot{
		Timeline: []casefile.TimelineEntry{
			{Item: "BWV officer 1142", Action: "chased"},
		},
	}
	if st := ByID(Track(snap))["bwv"]; st.Status != StatusUnknown {
		t.Errorf("bwv = %s, want unknown for unrecognized action", st.Status)
	}
}

func TestTrackDeclaredDependencyAppended(t *testing.T) {
	snap := &casefile.Snapshot{
		Declared: []casefile.DeclaredDependency{
			{ID: "phone_download", Label: "Complainant phone download", Status: "outstanding", Note: "messages before the incident"},
		},
	}
	states := Track(snap)
	st, ok := ByID(states)["phone_download"]
	if !ok {
		t.Fatal("declared dependency missing from tracked states")
	}
	if st.Status != StatusOutstanding {
		t.Errorf("phone_download = %s, want declared outstanding", st.Status)
	}
}

func TestTrackTimelineOverridesDeclaredStatus(t *testing.T) {
	snap := &casefile.Snapshot{
		Declared: []casefile.DeclaredDependency{
			{ID: "phone_download", Label: "Phone download", Status: "outstanding"},
		},
		Timeline: []casefile.TimelineEntry{
			{Item: "Phone download", Action: "served", Date: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)},
		},
	}
	if st := ByID(Track(snap))["phone_download"]; st.Status != StatusServed {
		t.Errorf("phone_download = %s, timeline should override declared status", st.Status)
	}
}

func TestTrackDeclaredDuplicateOfCatalogueIgnored(t *testing.T) {
	snap := &casefile.Snapshot{
		Declared: []casefile.DeclaredDependency{
			{ID: "bwv", Label: "Body worn video", Status: "served"},
		},
	}
	states := Track(snap)
	if len(states) != 9 {
		t.Fatalf("declared duplicate should not add a record, got %d", len(states))
	}
	// Declared status must not override the timeline-derived unknown.
	if st := ByID(states)["bwv"]; st.Status != StatusUnknown {
		t.Errorf("bwv = %s, want unknown (no timeline entry)", st.Status)
	}
}

func TestCritical(t *testing.T) {
	want := []string{"cctv_window", "bwv", "audio_999", "cad_log", "interview_recording"}
	got := CriticalIDs()
	if len(got) != len(want) {
		t.Fatalf("CriticalIDs = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("CriticalIDs[%d] = %s, want %s", i, got[i], want[i])
		}
	}
	if !IsCritical("bwv") || IsCritical("medical_photos") {
		t.Error("IsCritical classification wrong")
	}
}
