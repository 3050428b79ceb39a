package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"counsel/adapters/store"
	"counsel/internal/casefile"
	"counsel/internal/confidence"
	"counsel/internal/solicitor"
	"counsel/internal/strategy"
)

func newTestServer(t *testing.T) (*Server, store.Store) {
	t.Helper()
	st := store.NewMemStore()
	return New(Config{Store: st}), st
}

func doJSON(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rr := httptest.NewRecorder()
	s.ServeHTTP(rr, req)
	return rr
}

func TestHealthz(t *testing.T) {
	s, _ := newTestServer(t)
	rr := doJSON(t, s, http.MethodGet, "/healthz", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("healthz = %d", rr.Code)
	}
}

func TestCreateAndGetCase(t *testing.T) {
	s, _ := newTestServer(t)

	rr := doJSON(t, s, http.MethodPost, "/api/v1/cases/", map[string]any{
		"label": "R v Doe", "doc_count": 3, "raw_chars_total": 50000,
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create = %d: %s", rr.Code, rr.Body)
	}
	var created store.CaseRecord
	if err := json.Unmarshal(rr.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	if created.ID == "" {
		t.Fatal("created case has no id")
	}

	rr = doJSON(t, s, http.MethodGet, "/api/v1/cases/"+created.ID+"/", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("get = %d: %s", rr.Code, rr.Body)
	}

	rr = doJSON(t, s, http.MethodGet, "/api/v1/cases/does-not-exist/", nil)
	if rr.Code != http.StatusNotFound {
		t.Errorf("get missing = %d, want 404", rr.Code)
	}
}

func TestAssessEndToEnd(t *testing.T) {
	s, st := newTestServer(t)

	id, err := st.CreateCase(&store.CaseRecord{
		Label:         "R v Doe",
		ExtractedText: "brief glimpse in poor lighting",
		DocCount:      4,
		RawCharsTotal: 48000,
	})
	if err != nil {
		t.Fatal(err)
	}

	rr := doJSON(t, s, http.MethodPost, "/api/v1/cases/"+id+"/charges", casefile.ChargeRecord{
		Offence: "Wounding with intent", Section: "s18 OAPA 1861", Count: 1,
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("add charge = %d: %s", rr.Code, rr.Body)
	}

	sig := casefile.NewSignals()
	sig.Identification = casefile.IDWeak
	rr = doJSON(t, s, http.MethodPost, "/api/v1/cases/"+id+"/signals", sig)
	if rr.Code != http.StatusCreated {
		t.Fatalf("save signals = %d: %s", rr.Code, rr.Body)
	}

	rr = doJSON(t, s, http.MethodPost, "/api/v1/cases/"+id+"/assess", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("assess = %d: %s", rr.Code, rr.Body)
	}
	var res strategy.Result
	if err := json.Unmarshal(rr.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if res.Offence.Code != "oapa_s18" {
		t.Errorf("offence = %s, want oapa_s18", res.Offence.Code)
	}
	if len(res.Routes) != 3 {
		t.Errorf("routes = %d, want 3", len(res.Routes))
	}
	for _, r := range res.Routes {
		if r.ID == "fight_charge" && r.Confidence.Current == confidence.High {
			t.Errorf("fight_charge confidence = HIGH with weak identification")
		}
	}

	// The run is persisted and retrievable.
	rr = doJSON(t, s, http.MethodGet, "/api/v1/cases/"+id+"/assessments/latest", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("latest assessment = %d: %s", rr.Code, rr.Body)
	}
	var persisted strategy.Result
	if err := json.Unmarshal(rr.Body.Bytes(), &persisted); err != nil {
		t.Fatalf("decode persisted result: %v", err)
	}
	if persisted.Fingerprint != res.Fingerprint {
		t.Errorf("persisted fingerprint %s != returned %s", persisted.Fingerprint, res.Fingerprint)
	}
}

func TestAssessMissingCase(t *testing.T) {
	s, _ := newTestServer(t)
	rr := doJSON(t, s, http.MethodPost, "/api/v1/cases/missing/assess", nil)
	if rr.Code != http.StatusNotFound {
		t.Errorf("assess missing case = %d, want 404", rr.Code)
	}
}

func TestSolicitorViewEndpoint(t *testing.T) {
	s, st := newTestServer(t)
	id, err := st.CreateCase(&store.CaseRecord{
		Label: "R v Doe", DocCount: 4, RawCharsTotal: 48000,
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := st.AddCharge(id, casefile.ChargeRecord{Offence: "assault occasioning ABH", Section: "s47"}); err != nil {
		t.Fatal(err)
	}

	rr := doJSON(t, s, http.MethodGet, "/api/v1/cases/"+id+"/solicitor", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("solicitor view = %d: %s", rr.Code, rr.Body)
	}
	var v solicitor.View
	if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode view: %v", err)
	}
	if v.Headline == "" {
		t.Error("view must carry a headline")
	}
	if len(v.DisputePoints) > 5 || len(v.MissingItems) > 6 || len(v.TopRoutes) > 2 || len(v.NextActions) > 6 {
		t.Errorf("view exceeds bounds: %+v", v)
	}
}

func TestBadJSONRejected(t *testing.T) {
	s, st := newTestServer(t)
	id, _ := st.CreateCase(&store.CaseRecord{Label: "x"})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cases/"+id+"/charges",
		bytes.NewBufferString("{not json"))
	rr := httptest.NewRecorder()
	s.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("bad json = %d, want 400", rr.Code)
	}
}
