package server

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"underwriting-lab/internal/domain"
	"underwriting-lab/internal/learning"
)

type feedbackRequest struct {
	ReportID string `json:"report_id" validate:"required"`
	Label    string `json:"label" validate:"required,oneof=up down"`
	Comment  string `json:"comment" validate:"max=2000"`
}

type feedbackView struct {
	ID        string               `json:"id"`
	ReportID  string               `json:"report_id"`
	Label     domain.FeedbackLabel `json:"label"`
	Comment   string               `json:"comment,omitempty"`
	CreatedAt int64                `json:"created_at"`
}

// handleFeedback records a thumbs up/down on a stored report.
func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	tenant := chi.URLParam(r, "tenant")
	var req feedbackRequest
	if err := decode(w, r, &req); err != nil {
		s.writeErr(w, err)
		return
	}
	if _, err := s.deps.Reports.GetByID(r.Context(), tenant, req.ReportID); err != nil {
		s.writeErr(w, err)
		return
	}

	f := &domain.Feedback{
		ID:        uuid.NewString(),
		TenantID:  tenant,
		ReportID:  req.ReportID,
		Label:     domain.FeedbackLabel(req.Label),
		Comment:   strings.TrimSpace(req.Comment),
		CreatedAt: s.now().UnixMilli(),
	}
	if err := s.deps.Feedback.Insert(r.Context(), f); err != nil {
		s.writeErr(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, feedbackView{
		ID:        f.ID,
		ReportID:  f.ReportID,
		Label:     f.Label,
		Comment:   f.Comment,
		CreatedAt: f.CreatedAt,
	})
}

type outcomeRequest struct {
	ReportID      string   `json:"report_id"`
	Address       string   `json:"address" validate:"required"`
	URL           string   `json:"url" validate:"omitempty,url"`
	PurchasePrice *float64 `json:"purchase_price" validate:"omitempty,gte=0"`
	MonthlyRent   *float64 `json:"monthly_rent" validate:"omitempty,gte=0"`
	VacancyDays   *float64 `json:"vacancy_days" validate:"omitempty,gte=0"`
	RepairsCost   *float64 `json:"repairs_cost" validate:"omitempty,gte=0"`
	ResalePrice   *float64 `json:"resale_price" validate:"omitempty,gte=0"`
	HoldMonths    *float64 `json:"hold_months" validate:"omitempty,gte=0,lte=600"`
	Notes         string   `json:"notes"`
}

type outcomeView struct {
	ID              string   `json:"id"`
	ReportID        *string  `json:"report_id,omitempty"`
	Address         string   `json:"address"`
	IRRRealized     *float64 `json:"irr_realized"`
	AppreciationPct *float64 `json:"appreciation_pct"`
	Label           int      `json:"label"`
	CreatedAt       int64    `json:"created_at"`
}

// handleOutcome records a realized deal outcome and derives its realized IRR.
// A report_id, when given, must name a stored report.
func (s *Server) handleOutcome(w http.ResponseWriter, r *http.Request) {
	tenant := chi.URLParam(r, "tenant")
	var req outcomeRequest
	if err := decode(w, r, &req); err != nil {
		s.writeErr(w, err)
		return
	}

	o := &domain.Outcome{
		ID:            uuid.NewString(),
		TenantID:      tenant,
		Address:       strings.TrimSpace(req.Address),
		URL:           strings.TrimSpace(req.URL),
		CreatedAt:     s.now().UnixMilli(),
		PurchasePrice: req.PurchasePrice,
		MonthlyRent:   req.MonthlyRent,
		VacancyDays:   req.VacancyDays,
		RepairsCost:   req.RepairsCost,
		ResalePrice:   req.ResalePrice,
		HoldMonths:    req.HoldMonths,
		Notes:         req.Notes,
	}
	if id := strings.TrimSpace(req.ReportID); id != "" {
		if _, err := s.deps.Reports.GetByID(r.Context(), tenant, id); err != nil {
			s.writeErr(w, err)
			return
		}
		o.ReportID = &id
	}

	derived := learning.RealizedIRR(o)
	o.IRRRealized = derived.IRRRealized
	o.AppreciationPct = derived.AppreciationPct

	if err := s.deps.Outcomes.Insert(r.Context(), o); err != nil {
		s.writeErr(w, err)
		return
	}

	labels := learning.DefaultLabelConfig()
	if s.deps.Builder != nil {
		labels = s.deps.Builder.Config().Labels
	}
	s.writeJSON(w, http.StatusCreated, outcomeView{
		ID:              o.ID,
		ReportID:        o.ReportID,
		Address:         o.Address,
		IRRRealized:     o.IRRRealized,
		AppreciationPct: o.AppreciationPct,
		Label:           learning.LabelFromOutcome(o, labels),
		CreatedAt:       o.CreatedAt,
	})
}

type suggestionView struct {
	OutcomeID  string  `json:"outcome_id"`
	Address    string  `json:"address"`
	ReportID   string  `json:"report_id"`
	Similarity float64 `json:"similarity"`
	Confidence float64 `json:"confidence"`
}

// handleLinkSuggestions proposes reports for unlinked outcomes without linking.
func (s *Server) handleLinkSuggestions(w http.ResponseWriter, r *http.Request) {
	suggestions, err := s.deps.Builder.SuggestLinks(r.Context(), chi.URLParam(r, "tenant"))
	if err != nil {
		s.writeErr(w, err)
		return
	}
	out := make([]suggestionView, 0, len(suggestions))
	for _, sg := range suggestions {
		out = append(out, suggestionView{
			OutcomeID:  sg.OutcomeID,
			Address:    sg.Address,
			ReportID:   sg.Match.ReportID,
			Similarity: sg.Match.Similarity,
			Confidence: sg.Match.Confidence,
		})
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"suggestions": out})
}
