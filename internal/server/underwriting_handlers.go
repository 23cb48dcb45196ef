package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"underwriting-lab/internal/domain"
	"underwriting-lab/internal/reporting"
	"underwriting-lab/internal/storage"
	"underwriting-lab/internal/underwriting"
)

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type underwriteRequest struct {
	TenantID string                            `json:"tenant_id" validate:"required"`
	Deal     json.RawMessage                   `json:"deal" validate:"required"`
	Auto     map[string]underwriting.AutoValue `json:"auto"`
	Memo     bool                              `json:"memo"`
}

type underwriteResponse struct {
	ReportID  string             `json:"report_id"`
	CreatedAt int64              `json:"created_at"`
	Outputs   domain.DealOutputs `json:"outputs"`
	Memo      string             `json:"memo,omitempty"`
	MemoError string             `json:"memo_error,omitempty"`
}

// handleUnderwrite scores one deal. Assumptions missing from the deal body
// take their default values; auto carries provider values for price, rent and
// expenses that fill in when the deal has none.
func (s *Server) handleUnderwrite(w http.ResponseWriter, r *http.Request) {
	var req underwriteRequest
	if err := decode(w, r, &req); err != nil {
		s.writeErr(w, err)
		return
	}

	inputs := domain.DefaultDealInputs("")
	if err := json.Unmarshal(req.Deal, &inputs); err != nil {
		s.writeErr(w, fmt.Errorf("%w: deal: %v", storage.ErrInvalidInput, err))
		return
	}

	report, err := s.deps.Underwriter.Underwrite(r.Context(), underwriting.Request{
		TenantID: req.TenantID,
		Inputs:   inputs,
		Auto:     req.Auto,
	})
	if err != nil {
		s.writeErr(w, err)
		return
	}

	resp := underwriteResponse{
		ReportID:  report.ID,
		CreatedAt: report.CreatedAt,
		Outputs:   report.Outputs,
	}
	if req.Memo {
		text, err := s.deps.Memo.Memo(r.Context(), report.Outputs.NarrativeSeed)
		if err != nil {
			s.log.Warn().Err(err).Str("report", report.ID).Msg("memo unavailable")
			resp.MemoError = err.Error()
		}
		resp.Memo = text
	}
	s.writeJSON(w, http.StatusOK, resp)
}

type gradeRequest struct {
	TenantID string                `json:"tenant_id" validate:"required"`
	Payload  domain.FeaturePayload `json:"payload"`
}

func (s *Server) handleGrade(w http.ResponseWriter, r *http.Request) {
	var req gradeRequest
	if err := decode(w, r, &req); err != nil {
		s.writeErr(w, err)
		return
	}
	res, err := s.deps.Underwriter.Grade(r.Context(), req.TenantID, req.Payload)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}

type reportView struct {
	ID        string                `json:"id"`
	TenantID  string                `json:"tenant_id"`
	Address   string                `json:"address"`
	Inputs    domain.DealInputs     `json:"inputs"`
	Outputs   domain.DealOutputs    `json:"outputs"`
	Payload   domain.FeaturePayload `json:"payload"`
	CreatedAt int64                 `json:"created_at"`
}

// handleGetReport returns a stored report as JSON, Markdown or CSV (?format=).
func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	tenant := chi.URLParam(r, "tenant")
	report, err := s.deps.Reports.GetByID(r.Context(), tenant, chi.URLParam(r, "id"))
	if err != nil {
		s.writeErr(w, err)
		return
	}

	switch format := r.URL.Query().Get("format"); format {
	case "", "json":
		s.writeJSON(w, http.StatusOK, reportView{
			ID:        report.ID,
			TenantID:  report.TenantID,
			Address:   report.Address,
			Inputs:    report.Inputs,
			Outputs:   report.Outputs,
			Payload:   report.Payload,
			CreatedAt: report.CreatedAt,
		})
	case "markdown", "md":
		s.writeText(w, "text/markdown; charset=utf-8", reporting.RenderDealMarkdown(report))
	case "csv":
		out, err := reporting.RenderDealCSV(report)
		if err != nil {
			s.writeErr(w, err)
			return
		}
		s.writeText(w, "text/csv; charset=utf-8", out)
	default:
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown format %q", format))
	}
}

// handleSummary renders the tenant's recent runs (?days=, default 30) as
// Markdown, or the raw runs as CSV with ?format=csv.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	if s.deps.Reporter == nil {
		s.writeError(w, http.StatusNotImplemented, "run analytics not configured")
		return
	}
	days, err := queryInt(r, "days", 30)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	if days == 0 {
		days = 30
	}

	rep, err := s.deps.Reporter.Generate(r.Context(), chi.URLParam(r, "tenant"), time.Duration(days)*24*time.Hour)
	if err != nil {
		s.writeErr(w, err)
		return
	}

	if r.URL.Query().Get("format") == "csv" {
		out, err := reporting.RenderRunsCSV(rep.Runs)
		if err != nil {
			s.writeErr(w, err)
			return
		}
		s.writeText(w, "text/csv; charset=utf-8", out)
		return
	}
	s.writeText(w, "text/markdown; charset=utf-8", reporting.RenderTenantMarkdown(rep))
}
