package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/emailpilot/emailpilot/internal/domain"
	"github.com/emailpilot/emailpilot/internal/generator"
	"github.com/emailpilot/emailpilot/internal/planner"
	"github.com/emailpilot/emailpilot/internal/service/plan"
)

// testRepo is a minimal in-memory plan.Repository for handler tests.
type testRepo struct {
	mu       sync.Mutex
	plans    map[string]*domain.CalendarPlan
	segments map[string][]domain.Segment
}

func newTestRepo() *testRepo {
	return &testRepo{
		plans:    make(map[string]*domain.CalendarPlan),
		segments: make(map[string][]domain.Segment),
	}
}

func (r *testRepo) GetPlan(_ context.Context, id string) (*domain.CalendarPlan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.plans[id]
	if !ok {
		return nil, plan.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *testRepo) ListPlans(_ context.Context, clientID string) ([]domain.CalendarPlan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.CalendarPlan
	for _, p := range r.plans {
		if p.ClientID == clientID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *testRepo) SavePlan(_ context.Context, p *domain.CalendarPlan) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *p
	r.plans[p.ID] = &cp
	return nil
}

func (r *testRepo) DeletePlan(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.plans[id]; !ok {
		return plan.ErrNotFound
	}
	delete(r.plans, id)
	return nil
}

func (r *testRepo) RescheduleCampaign(_ context.Context, planID, campaignID string, date domain.Date, sendTime string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.plans[planID]
	if !ok {
		return plan.ErrNotFound
	}
	for i := range p.Campaigns {
		if p.Campaigns[i].ID == campaignID {
			p.Campaigns[i].SendDate = date
			p.Campaigns[i].SendTime = sendTime
			return nil
		}
	}
	return plan.ErrCampaignNotFound
}

func (r *testRepo) ListSegments(_ context.Context, clientID string) ([]domain.Segment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Segment(nil), r.segments[clientID]...), nil
}

func (r *testRepo) SaveSegment(_ context.Context, s *domain.Segment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, existing := range r.segments[s.ClientID] {
		if existing.Name == s.Name {
			r.segments[s.ClientID][i] = *s
			return nil
		}
	}
	r.segments[s.ClientID] = append(r.segments[s.ClientID], *s)
	return nil
}

func (r *testRepo) DeleteSegment(_ context.Context, clientID, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	segs := r.segments[clientID]
	for i, s := range segs {
		if s.Name == name {
			r.segments[clientID] = append(segs[:i], segs[i+1:]...)
			return nil
		}
	}
	return plan.ErrNotFound
}

// fixedDrafter returns a canned plan and its validation report.
type fixedDrafter struct {
	plan *domain.CalendarPlan
}

func (d *fixedDrafter) Generate(_ context.Context, gc generator.Context) (*domain.CalendarPlan, domain.ValidationReport, error) {
	report := planner.Validate(*d.plan, gc.Segments)
	return d.plan, report, nil
}

func testServer(t *testing.T) (http.Handler, *testRepo) {
	t.Helper()
	repo := newTestRepo()
	alloc, err := planner.NewAllocator(nil)
	if err != nil {
		t.Fatalf("allocator: %v", err)
	}
	drafter := &fixedDrafter{plan: fixturePlan("client-1")}
	svc := plan.NewService(repo, drafter, alloc, nil)
	return SetupRoutes(NewHandlers(svc), nil), repo
}

func fixturePlan(clientID string) *domain.CalendarPlan {
	return &domain.CalendarPlan{
		ID:          "plan-1",
		ClientID:    clientID,
		Year:        2025,
		Month:       time.March,
		RevenueGoal: 10000,
		Campaigns: []domain.Campaign{
			{
				ID:         "c1",
				Channel:    domain.ChannelEmail,
				SendDate:   domain.NewDate(2025, time.March, 5),
				SendTime:   "10:00",
				SegmentRef: domain.SegmentFullList,
				Type:       domain.TypeNurture,
				Subject:    "March news",
			},
		},
	}
}

func seedSegment(t *testing.T, repo *testRepo, clientID, name string) {
	t.Helper()
	if err := repo.SaveSegment(context.Background(), &domain.Segment{ClientID: clientID, Name: name}); err != nil {
		t.Fatalf("seed segment: %v", err)
	}
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthCheck(t *testing.T) {
	h, _ := testServer(t)
	rec := doJSON(t, h, http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestDraftPlanEndpoint(t *testing.T) {
	h, repo := testServer(t)
	seedSegment(t, repo, "client-1", "Buyers")

	rec := doJSON(t, h, http.MethodPost, "/api/plans/draft", map[string]any{
		"client_id":    "client-1",
		"year":         2025,
		"month":        3,
		"revenue_goal": 10000,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Plan   domain.CalendarPlan `json:"plan"`
		Report struct {
			Valid bool `json:"valid"`
		} `json:"report"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Report.Valid {
		t.Errorf("expected valid report, body %s", rec.Body.String())
	}
	if len(resp.Plan.Campaigns) != 1 {
		t.Errorf("campaigns = %d, want 1", len(resp.Plan.Campaigns))
	}

	if _, err := repo.GetPlan(context.Background(), resp.Plan.ID); err != nil {
		t.Errorf("plan not persisted: %v", err)
	}
}

func TestDraftPlanNoSegments(t *testing.T) {
	h, _ := testServer(t)

	rec := doJSON(t, h, http.MethodPost, "/api/plans/draft", map[string]any{
		"client_id":    "client-1",
		"year":         2025,
		"month":        3,
		"revenue_goal": 10000,
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestValidatePlanEndpoint(t *testing.T) {
	h, repo := testServer(t)
	seedSegment(t, repo, "client-1", "Buyers")

	p := fixturePlan("client-1")
	p.Campaigns[0].SegmentRef = "Ghost"

	rec := doJSON(t, h, http.MethodPost, "/api/plans/validate", p)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var report struct {
		Valid      bool `json:"valid"`
		Violations []struct {
			Kind   string `json:"kind"`
			Detail string `json:"detail"`
		} `json:"violations"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if report.Valid {
		t.Fatal("expected invalid report")
	}
	kinds := map[string]bool{}
	for _, v := range report.Violations {
		kinds[v.Kind] = true
	}
	if !kinds["unknown_segment"] || !kinds["missing_full_list_send"] {
		t.Errorf("violation kinds = %v", kinds)
	}
}

func TestGetPlanNotFound(t *testing.T) {
	h, _ := testServer(t)
	rec := doJSON(t, h, http.MethodGet, "/api/plans/missing", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestRescheduleEndpoint(t *testing.T) {
	h, repo := testServer(t)
	seedSegment(t, repo, "client-1", "Buyers")
	if err := repo.SavePlan(context.Background(), fixturePlan("client-1")); err != nil {
		t.Fatalf("seed plan: %v", err)
	}

	rec := doJSON(t, h, http.MethodPatch, "/api/plans/plan-1/campaigns/c1", map[string]any{
		"send_date": "2025-03-19",
		"send_time": "14:00",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	p, err := repo.GetPlan(context.Background(), "plan-1")
	if err != nil {
		t.Fatalf("get plan: %v", err)
	}
	c := p.Campaign("c1")
	if c.SendDate.String() != "2025-03-19" || c.SendTime != "14:00" {
		t.Errorf("campaign not moved: %+v", c)
	}
}

func TestRescheduleUnknownCampaign(t *testing.T) {
	h, repo := testServer(t)
	seedSegment(t, repo, "client-1", "Buyers")
	if err := repo.SavePlan(context.Background(), fixturePlan("client-1")); err != nil {
		t.Fatalf("seed plan: %v", err)
	}

	rec := doJSON(t, h, http.MethodPatch, "/api/plans/plan-1/campaigns/nope", map[string]any{
		"send_date": "2025-03-19",
	})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestSegmentLifecycle(t *testing.T) {
	h, _ := testServer(t)

	rec := doJSON(t, h, http.MethodPut, "/api/clients/client-1/segments/Buyers", map[string]any{
		"definition": "purchased in last 90d",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("save status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, h, http.MethodGet, "/api/clients/client-1/segments/", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	var list struct {
		Segments []domain.Segment `json:"segments"`
		Total    int              `json:"total"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if list.Total != 1 || list.Segments[0].Name != "Buyers" {
		t.Fatalf("unexpected list: %+v", list)
	}

	rec = doJSON(t, h, http.MethodDelete, "/api/clients/client-1/segments/Buyers", nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rec.Code)
	}

	rec = doJSON(t, h, http.MethodDelete, "/api/clients/client-1/segments/Buyers", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("second delete status = %d", rec.Code)
	}
}

func TestSaveReservedSegmentRejected(t *testing.T) {
	h, _ := testServer(t)
	rec := doJSON(t, h, http.MethodPut, fmt.Sprintf("/api/clients/%s/segments/%s", "client-1", "unengaged"), map[string]any{})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}
