package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/emailpilot/emailpilot/internal/domain"
	"github.com/emailpilot/emailpilot/internal/generator"
	"github.com/emailpilot/emailpilot/internal/pkg/httputil"
	"github.com/emailpilot/emailpilot/internal/service/plan"
)

// Handlers holds the routed HTTP handlers.
type Handlers struct {
	plans *plan.Service
}

// NewHandlers creates the handler set around the plan service.
func NewHandlers(plans *plan.Service) *Handlers {
	return &Handlers{plans: plans}
}

// HealthCheck reports service liveness.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.OK(w, map[string]any{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// planEnvelope pairs a plan with its validation report in responses.
type planEnvelope struct {
	Plan   *domain.CalendarPlan    `json:"plan"`
	Report domain.ValidationReport `json:"report"`
}

// DraftPlan generates, validates, and persists a draft plan.
func (h *Handlers) DraftPlan(w http.ResponseWriter, r *http.Request) {
	var input plan.DraftInput
	if !httputil.Decode(w, r, &input) {
		return
	}

	p, report, err := h.plans.Draft(r.Context(), input)
	switch {
	case err == nil:
		httputil.Created(w, planEnvelope{Plan: p, Report: report})
	case errors.Is(err, plan.ErrDraftInProgress):
		httputil.Conflict(w, err.Error())
	case errors.Is(err, plan.ErrNoSegments):
		httputil.BadRequest(w, err.Error())
	case errors.Is(err, generator.ErrGenerationTimeout), errors.Is(err, generator.ErrGenerationFailed):
		httputil.BadGateway(w, err.Error())
	default:
		httputil.InternalError(w, err)
	}
}

// ValidatePlan runs the validator over a plan in the request body
// without persisting it.
func (h *Handlers) ValidatePlan(w http.ResponseWriter, r *http.Request) {
	var p domain.CalendarPlan
	if !httputil.Decode(w, r, &p) {
		return
	}
	if p.ClientID == "" {
		httputil.BadRequest(w, "client_id is required")
		return
	}

	report, err := h.plans.Validate(r.Context(), p)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, report)
}

// GetPlan returns a plan with its campaigns.
func (h *Handlers) GetPlan(w http.ResponseWriter, r *http.Request) {
	p, err := h.plans.Get(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, plan.ErrNotFound) {
		httputil.NotFound(w, "plan not found")
		return
	}
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, p)
}

// ListPlans returns all plans for a client.
func (h *Handlers) ListPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := h.plans.List(r.Context(), chi.URLParam(r, "clientID"))
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	if plans == nil {
		plans = []domain.CalendarPlan{}
	}
	httputil.OK(w, map[string]any{"plans": plans, "total": len(plans)})
}

// SavePlan persists a manually edited plan and returns the fresh
// validation report alongside it.
func (h *Handlers) SavePlan(w http.ResponseWriter, r *http.Request) {
	var p domain.CalendarPlan
	if !httputil.Decode(w, r, &p) {
		return
	}
	p.ID = chi.URLParam(r, "id")

	report, err := h.plans.Save(r.Context(), &p)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, planEnvelope{Plan: &p, Report: report})
}

// DeletePlan removes a plan.
func (h *Handlers) DeletePlan(w http.ResponseWriter, r *http.Request) {
	err := h.plans.Delete(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, plan.ErrNotFound) {
		httputil.NotFound(w, "plan not found")
		return
	}
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.NoContent(w)
}

// RescheduleCampaign moves one campaign to a new send date and time.
func (h *Handlers) RescheduleCampaign(w http.ResponseWriter, r *http.Request) {
	var input struct {
		SendDate domain.Date `json:"send_date"`
		SendTime string      `json:"send_time"`
	}
	if !httputil.Decode(w, r, &input) {
		return
	}
	if input.SendDate.IsZero() {
		httputil.BadRequest(w, "send_date is required")
		return
	}
	if input.SendTime == "" {
		input.SendTime = "10:00"
	}

	p, report, err := h.plans.Reschedule(r.Context(),
		chi.URLParam(r, "id"), chi.URLParam(r, "campaignID"),
		input.SendDate, input.SendTime)
	switch {
	case err == nil:
		httputil.OK(w, planEnvelope{Plan: p, Report: report})
	case errors.Is(err, plan.ErrNotFound):
		httputil.NotFound(w, "plan not found")
	case errors.Is(err, plan.ErrCampaignNotFound):
		httputil.NotFound(w, "campaign not found")
	default:
		httputil.BadRequest(w, err.Error())
	}
}
