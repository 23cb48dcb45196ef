package server

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"underwriting-lab/internal/domain"
	"underwriting-lab/internal/governance"
	"underwriting-lab/internal/idhash"
	"underwriting-lab/internal/learning"
	"underwriting-lab/internal/training"
)

type modelView struct {
	ID        string              `json:"id"`
	Name      string              `json:"name"`
	Status    domain.ModelStatus  `json:"status"`
	Weights   domain.ModelWeights `json:"weights"`
	Metrics   domain.ModelMetrics `json:"metrics"`
	Notes     string              `json:"notes,omitempty"`
	CreatedAt int64               `json:"created_at"`
	UpdatedAt int64               `json:"updated_at"`
}

func newModelView(m *domain.ModelRecord) modelView {
	return modelView{
		ID:        m.ID,
		Name:      m.Name,
		Status:    m.Status,
		Weights:   m.Weights,
		Metrics:   m.Metrics,
		Notes:     m.Notes,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

type modelsResponse struct {
	Active string      `json:"active"` // model name, or baseline
	Models []modelView `json:"models"`
}

func (s *Server) handleListModels(w http.ResponseWriter, r *http.Request) {
	tenant := chi.URLParam(r, "tenant")
	models, err := s.deps.Registry.List(r.Context(), tenant)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	ref, err := s.deps.Registry.ActiveModel(r.Context(), tenant)
	if err != nil {
		s.writeErr(w, err)
		return
	}

	resp := modelsResponse{Active: ref.Name, Models: make([]modelView, 0, len(models))}
	for _, m := range models {
		resp.Models = append(resp.Models, newModelView(m))
	}
	s.writeJSON(w, http.StatusOK, resp)
}

type trainRequest struct {
	Source string `json:"source" validate:"required,oneof=feedback outcomes"`
	Name   string `json:"name"`
}

type datasetView struct {
	Source    training.Source             `json:"source"`
	Rows      int                         `json:"rows"`
	Positives int                         `json:"positives"`
	Available int                         `json:"available"`
	Skipped   int                         `json:"skipped"`
	Checks    []training.SufficiencyCheck `json:"checks"`
	AllPass   bool                        `json:"all_pass"`
}

type trainResponse struct {
	Dataset datasetView `json:"dataset"`
	Model   *modelView  `json:"model,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// handleTrain trains a candidate. An insufficient dataset answers 422 with
// the sufficiency checklist.
func (s *Server) handleTrain(w http.ResponseWriter, r *http.Request) {
	var req trainRequest
	if err := decode(w, r, &req); err != nil {
		s.writeErr(w, err)
		return
	}
	src, err := training.ParseSource(req.Source)
	if err != nil {
		s.writeErr(w, err)
		return
	}

	res, err := s.deps.Builder.Train(r.Context(), chi.URLParam(r, "tenant"), src, req.Name)
	if err != nil && (res == nil || !errors.Is(err, learning.ErrInsufficientTrainingData)) {
		s.writeErr(w, err)
		return
	}

	ds := res.Dataset
	resp := trainResponse{Dataset: datasetView{
		Source:    ds.Source,
		Rows:      len(ds.Rows),
		Positives: ds.Positives(),
		Available: ds.Available,
		Skipped:   ds.Skipped,
		Checks:    ds.Checks,
		AllPass:   ds.AllPass,
	}}
	if err != nil {
		resp.Error = err.Error()
		s.writeJSON(w, http.StatusUnprocessableEntity, resp)
		return
	}
	mv := newModelView(res.Model)
	resp.Model = &mv
	s.writeJSON(w, http.StatusCreated, resp)
}

type assessmentResponse struct {
	CandidateID    string                   `json:"candidate_id"`
	ActiveID       string                   `json:"active_id,omitempty"`
	LinkedOutcomes int                      `json:"linked_outcomes"`
	Guardrails     domain.GuardrailConfig   `json:"guardrails"`
	Checks         []governance.CheckResult `json:"checks"`
	Promotable     bool                     `json:"promotable"`
	BlockedReason  string                   `json:"blocked_reason,omitempty"`
}

// handleAssess runs the promotion guardrail without activating. ?format=markdown
// returns the checklist report.
func (s *Server) handleAssess(w http.ResponseWriter, r *http.Request) {
	a, err := s.deps.Guardrail.Assess(r.Context(), chi.URLParam(r, "tenant"), chi.URLParam(r, "id"))
	if err != nil {
		s.writeErr(w, err)
		return
	}
	if f := r.URL.Query().Get("format"); f == "markdown" || f == "md" {
		s.writeText(w, "text/markdown; charset=utf-8", governance.RenderMarkdown(a))
		return
	}

	resp := assessmentResponse{
		CandidateID:    a.Candidate.ID,
		LinkedOutcomes: a.Input.LinkedOutcomes,
		Guardrails: domain.GuardrailConfig{
			Enabled:           a.Config.Enabled,
			MinLinkedOutcomes: a.Config.MinLinkedOutcomes,
			MinF1Margin:       a.Config.MinF1Margin,
		},
		Checks:        a.Checks,
		Promotable:    !a.Blocked(),
		BlockedReason: a.BlockedReason,
	}
	if a.Active != nil {
		resp.ActiveID = a.Active.ID
	}
	if resp.Checks == nil {
		resp.Checks = []governance.CheckResult{}
	}
	s.writeJSON(w, http.StatusOK, resp)
}

type activateRequest struct {
	Justification string `json:"justification"`
	Override      bool   `json:"override"`
}

// handleActivate promotes a candidate as the authenticated caller. A blocked
// promotion answers 409 with the failed checklist; an override by a non-admin
// answers 403.
func (s *Server) handleActivate(w http.ResponseWriter, r *http.Request) {
	var req activateRequest
	if err := decode(w, r, &req); err != nil {
		s.writeErr(w, err)
		return
	}

	decision, blocked, err := s.deps.Guardrail.Activate(r.Context(), governance.Request{
		TenantID:      chi.URLParam(r, "tenant"),
		CandidateID:   chi.URLParam(r, "id"),
		Actor:         actorFrom(r.Context()),
		Justification: req.Justification,
		Override:      req.Override,
	})
	switch {
	case err != nil:
		s.writeErr(w, err)
	case blocked != nil:
		s.writeJSON(w, http.StatusConflict, blocked)
	default:
		s.writeJSON(w, http.StatusOK, decision)
	}
}

type auditView struct {
	ID        string         `json:"id"`
	EventType string         `json:"event_type"`
	ActorID   string         `json:"actor_id"`
	ActorRole string         `json:"actor_role"`
	Payload   map[string]any `json:"payload"`
	CreatedAt int64          `json:"created_at"`
	PrevHash  string         `json:"prev_hash,omitempty"`
	Hash      string         `json:"hash"`
}

type auditResponse struct {
	Events     []auditView `json:"events"`
	ChainValid bool        `json:"chain_valid"`
	ChainError string      `json:"chain_error,omitempty"`
}

// handleAudit lists recent audit events (?limit=, default 50) and verifies the
// tenant's full hash chain.
func (s *Server) handleAudit(w http.ResponseWriter, r *http.Request) {
	tenant := chi.URLParam(r, "tenant")
	limit, err := queryInt(r, "limit", 50)
	if err != nil {
		s.writeErr(w, err)
		return
	}

	events, err := s.deps.Audit.ListByTenant(r.Context(), tenant, limit)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	chain, err := s.deps.Audit.Chain(r.Context(), tenant)
	if err != nil {
		s.writeErr(w, err)
		return
	}

	resp := auditResponse{Events: make([]auditView, 0, len(events)), ChainValid: true}
	if verr := idhash.VerifyChain(chain); verr != nil {
		resp.ChainValid = false
		resp.ChainError = verr.Error()
	}
	for _, e := range events {
		resp.Events = append(resp.Events, auditView{
			ID:        e.ID,
			EventType: e.EventType,
			ActorID:   e.ActorID,
			ActorRole: e.ActorRole,
			Payload:   e.Payload,
			CreatedAt: e.CreatedAt,
			PrevHash:  e.PrevHash,
			Hash:      e.Hash,
		})
	}
	s.writeJSON(w, http.StatusOK, resp)
}
