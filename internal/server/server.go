// Package server is the HTTP API surface: case-material CRUD plus the
// assessment endpoint. All engine work happens in-process; a request is
// assemble, compute, persist, respond.
package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"counsel/adapters/store"
	"counsel/internal/assemble"
	"counsel/internal/casefile"
	"counsel/internal/extract"
	"counsel/internal/logging"
	"counsel/internal/solicitor"
	"counsel/internal/strategy"
)

// Config wires the server's collaborators.
type Config struct {
	ListenAddr string
	Store      store.Store
	// Extractor proposes signals from extracted text; nil disables it.
	Extractor extract.SignalExtractor
	// Strategy options; zero value means DefaultOptions.
	Strategy *strategy.Options
}

// Server handles the REST API.
type Server struct {
	cfg    Config
	router chi.Router
	log    *slog.Logger
}

// New builds the server and its routes.
func New(cfg Config) *Server {
	s := &Server{
		cfg:    cfg,
		router: chi.NewRouter(),
		log:    logging.New("server"),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.router

	r.Get("/healthz", s.handleHealth)

	r.Route("/api/v1/cases", func(r chi.Router) {
		r.Post("/", s.handleCreateCase)
		r.Get("/", s.handleListCases)
		r.Route("/{caseID}", func(r chi.Router) {
			r.Get("/", s.handleGetCase)
			r.Post("/charges", s.handleAddCharge)
			r.Post("/timeline", s.handleAddTimelineEntry)
			r.Post("/declared", s.handleAddDeclared)
			r.Put("/position", s.handleSetPosition)
			r.Post("/irreversible", s.handleAddIrreversible)
			r.Post("/impact", s.handleAddImpact)
			r.Post("/signals", s.handleSaveSignals)
			r.Post("/assess", s.handleAssess)
			r.Get("/assessments/latest", s.handleLatestAssessment)
			r.Get("/solicitor", s.handleSolicitorView)
		})
	})
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.log.Info("http request", "method", r.Method, "path", r.URL.Path)
	s.router.ServeHTTP(w, r)
}

// HTTPServer creates an *http.Server ready to ListenAndServe.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:         s.cfg.ListenAddr,
		Handler:      s,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCreateCase(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Label              string `json:"label"`
		ExtractedText      string `json:"extracted_text"`
		DocCount           int    `json:"doc_count"`
		RawCharsTotal      int    `json:"raw_chars_total"`
		SuspectedScanned   bool   `json:"suspected_scanned"`
		TextThin           bool   `json:"text_thin"`
		HearingDate        string `json:"hearing_date"`
		DisclosureDeadline string `json:"disclosure_deadline"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	rec := &store.CaseRecord{
		Label:              body.Label,
		ExtractedText:      body.ExtractedText,
		DocCount:           body.DocCount,
		RawCharsTotal:      body.RawCharsTotal,
		SuspectedScanned:   body.SuspectedScanned,
		TextThin:           body.TextThin,
		HearingDate:        body.HearingDate,
		DisclosureDeadline: body.DisclosureDeadline,
	}
	id, err := s.cfg.Store.CreateCase(rec)
	if err != nil {
		s.log.Warn("create case", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.log.Info("created case", "case_id", id)
	writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) handleListCases(w http.ResponseWriter, _ *http.Request) {
	cases, err := s.cfg.Store.ListCases()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, cases)
}

func (s *Server) handleGetCase(w http.ResponseWriter, r *http.Request) {
	c, err := s.cfg.Store.GetCase(chi.URLParam(r, "caseID"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if c == nil {
		writeError(w, http.StatusNotFound, "case not found")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleAddCharge(w http.ResponseWriter, r *http.Request) {
	caseID := chi.URLParam(r, "caseID")
	var ch casefile.ChargeRecord
	if err := json.NewDecoder(r.Body).Decode(&ch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if err := s.cfg.Store.AddCharge(caseID, ch); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, ch)
}

func (s *Server) handleAddTimelineEntry(w http.ResponseWriter, r *http.Request) {
	caseID := chi.URLParam(r, "caseID")
	var e casefile.TimelineEntry
	if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if err := s.cfg.Store.AddTimelineEntry(caseID, e); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

func (s *Server) handleAddDeclared(w http.ResponseWriter, r *http.Request) {
	caseID := chi.URLParam(r, "caseID")
	var d casefile.DeclaredDependency
	if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if err := s.cfg.Store.AddDeclaredDependency(caseID, d); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, d)
}

func (s *Server) handleSetPosition(w http.ResponseWriter, r *http.Request) {
	caseID := chi.URLParam(r, "caseID")
	var p casefile.RecordedPosition
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if err := s.cfg.Store.SetPosition(caseID, p); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleAddIrreversible(w http.ResponseWriter, r *http.Request) {
	caseID := chi.URLParam(r, "caseID")
	var d casefile.IrreversibleDecision
	if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if err := s.cfg.Store.AddIrreversibleDecision(caseID, d); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, d)
}

func (s *Server) handleAddImpact(w http.ResponseWriter, r *http.Request) {
	caseID := chi.URLParam(r, "caseID")
	var e casefile.ImpactEntry
	if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if err := s.cfg.Store.AddImpactEntry(caseID, e); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

func (s *Server) handleSaveSignals(w http.ResponseWriter, r *http.Request) {
	caseID := chi.URLParam(r, "caseID")
	var sig casefile.Signals
	if err := json.NewDecoder(r.Body).Decode(&sig); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	sig.Normalize()
	if err := s.cfg.Store.SaveSignals(caseID, sig); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, sig)
}

func (s *Server) assess(r *http.Request, caseID string) (*strategy.Result, int, error) {
	snap, err := assemble.Snapshot(r.Context(), s.cfg.Store, caseID, assemble.Options{
		Extractor: s.cfg.Extractor,
	})
	if err != nil {
		return nil, http.StatusNotFound, err
	}

	opts := strategy.DefaultOptions()
	if s.cfg.Strategy != nil {
		opts = *s.cfg.Strategy
	}
	return strategy.Build(snap, opts), http.StatusOK, nil
}

func (s *Server) handleAssess(w http.ResponseWriter, r *http.Request) {
	caseID := chi.URLParam(r, "caseID")
	res, status, err := s.assess(r, caseID)
	if err != nil {
		s.log.Warn("assess", "case_id", caseID, "error", err)
		writeError(w, status, err.Error())
		return
	}

	payload, err := json.Marshal(res)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if _, err := s.cfg.Store.SaveAssessment(&store.AssessmentRecord{
		CaseID:      caseID,
		Fingerprint: res.Fingerprint,
		Result:      payload,
	}); err != nil {
		s.log.Warn("save assessment", "case_id", caseID, "error", err)
	}
	s.log.Info("assessed case", "case_id", caseID, "fingerprint", res.Fingerprint)
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleLatestAssessment(w http.ResponseWriter, r *http.Request) {
	caseID := chi.URLParam(r, "caseID")
	a, err := s.cfg.Store.LatestAssessment(caseID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if a == nil {
		writeError(w, http.StatusNotFound, "no assessment for case")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(a.Result)
}

func (s *Server) handleSolicitorView(w http.ResponseWriter, r *http.Request) {
	caseID := chi.URLParam(r, "caseID")
	res, status, err := s.assess(r, caseID)
	if err != nil {
		writeError(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, solicitor.Build(res, solicitor.DefaultCaps()))
}
