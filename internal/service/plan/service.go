package plan

import (
	"context"
	"fmt"
	"time"

	"github.com/emailpilot/emailpilot/internal/domain"
	"github.com/emailpilot/emailpilot/internal/generator"
	"github.com/emailpilot/emailpilot/internal/pkg/distlock"
	"github.com/emailpilot/emailpilot/internal/pkg/logger"
	"github.com/emailpilot/emailpilot/internal/planner"
)

// Drafter produces a validated draft plan. *generator.Retrier satisfies
// this; tests substitute scripted implementations.
type Drafter interface {
	Generate(ctx context.Context, gc generator.Context) (*domain.CalendarPlan, domain.ValidationReport, error)
}

// Service implements plan business logic. All public methods are safe
// for concurrent use if the underlying repository is concurrency-safe.
type Service struct {
	repo      Repository
	drafter   Drafter
	allocator *planner.Allocator
	newLock   distlock.Factory
}

// NewService creates a plan service. newLock may be nil, in which case
// draft generation is not serialized across instances.
func NewService(repo Repository, drafter Drafter, allocator *planner.Allocator, newLock distlock.Factory) *Service {
	return &Service{repo: repo, drafter: drafter, allocator: allocator, newLock: newLock}
}

// Draft generates, validates, and persists a draft plan for one
// client-month. The returned report may still contain violations when
// the generator exhausted its retry budget; the caller decides whether
// to surface them for manual editing.
func (s *Service) Draft(ctx context.Context, input DraftInput) (*domain.CalendarPlan, domain.ValidationReport, error) {
	var empty domain.ValidationReport
	if input.ClientID == "" {
		return nil, empty, fmt.Errorf("client_id is required")
	}
	if input.Year < 2000 || input.Month < time.January || input.Month > time.December {
		return nil, empty, fmt.Errorf("invalid plan month %d-%d", input.Year, input.Month)
	}
	if input.RevenueGoal <= 0 {
		return nil, empty, fmt.Errorf("revenue_goal must be positive")
	}

	segments, err := s.repo.ListSegments(ctx, input.ClientID)
	if err != nil {
		return nil, empty, fmt.Errorf("load segments: %w", err)
	}
	if len(segments) == 0 {
		return nil, empty, ErrNoSegments
	}

	targets, err := s.allocator.Allocate(input.RevenueGoal, segments)
	if err != nil {
		return nil, empty, err
	}
	segments, err = s.allocator.AssignShares(segments)
	if err != nil {
		return nil, empty, err
	}

	if s.newLock != nil {
		lock := s.newLock(draftKey(input.ClientID, input.Year, input.Month))
		acquired, err := lock.Acquire(ctx)
		if err != nil {
			return nil, empty, fmt.Errorf("acquire draft lock: %w", err)
		}
		if !acquired {
			return nil, empty, ErrDraftInProgress
		}
		defer func() {
			if err := lock.Release(context.WithoutCancel(ctx)); err != nil {
				logger.Warn("draft lock release failed", "client_id", input.ClientID, "error", err.Error())
			}
		}()
	}

	gc := generator.Context{
		ClientID:        input.ClientID,
		Year:            input.Year,
		Month:           input.Month,
		RevenueGoal:     input.RevenueGoal,
		GrowthObjective: input.GrowthObjective,
		HistoricalNotes: input.HistoricalNotes,
		Segments:        segments,
		Targets:         targets,
		Holidays:        planner.HolidaysInMonth(input.Year, input.Month),
	}

	plan, report, err := s.drafter.Generate(ctx, gc)
	if err != nil {
		return nil, empty, fmt.Errorf("generate draft: %w", err)
	}

	if err := s.repo.SavePlan(ctx, plan); err != nil {
		return nil, empty, fmt.Errorf("save draft: %w", err)
	}

	logger.Info("draft plan saved",
		"client_id", input.ClientID,
		"plan_id", plan.ID,
		"month", planner.MonthKey(input.Year, input.Month),
		"campaigns", fmt.Sprintf("%d", len(plan.Campaigns)),
		"valid", fmt.Sprintf("%t", report.Valid))
	return plan, report, nil
}

// Validate runs the deterministic validator over a caller-supplied plan
// without persisting anything.
func (s *Service) Validate(ctx context.Context, p domain.CalendarPlan) (domain.ValidationReport, error) {
	segments, err := s.repo.ListSegments(ctx, p.ClientID)
	if err != nil {
		return domain.ValidationReport{}, fmt.Errorf("load segments: %w", err)
	}
	// Shares are informational here; validation only needs resolvable
	// names, so an uncovered segment count is not an error.
	if assigned, err := s.allocator.AssignShares(segments); err == nil {
		segments = assigned
	}
	return planner.Validate(p, segments), nil
}

// Get returns a single plan with its campaigns.
func (s *Service) Get(ctx context.Context, id string) (*domain.CalendarPlan, error) {
	return s.repo.GetPlan(ctx, id)
}

// List returns all plans for a client.
func (s *Service) List(ctx context.Context, clientID string) ([]domain.CalendarPlan, error) {
	return s.repo.ListPlans(ctx, clientID)
}

// Save persists a manually edited plan and returns its fresh
// validation report. Violations never block saving; the user owns the
// decision to keep an invalid draft.
func (s *Service) Save(ctx context.Context, p *domain.CalendarPlan) (domain.ValidationReport, error) {
	if p.ClientID == "" {
		return domain.ValidationReport{}, fmt.Errorf("client_id is required")
	}
	report, err := s.Validate(ctx, *p)
	if err != nil {
		return domain.ValidationReport{}, err
	}
	if err := s.repo.SavePlan(ctx, p); err != nil {
		return domain.ValidationReport{}, fmt.Errorf("save plan: %w", err)
	}
	return report, nil
}

// Delete removes a plan.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.DeletePlan(ctx, id)
}

// Reschedule moves one campaign to a new date/time (the drag-and-drop
// path) and returns the re-validated plan. Only send date and time
// change; everything else on the campaign is preserved.
func (s *Service) Reschedule(ctx context.Context, planID, campaignID string, date domain.Date, sendTime string) (*domain.CalendarPlan, domain.ValidationReport, error) {
	if _, err := time.Parse("15:04", sendTime); err != nil {
		return nil, domain.ValidationReport{}, fmt.Errorf("invalid send_time %q", sendTime)
	}
	if err := s.repo.RescheduleCampaign(ctx, planID, campaignID, date, sendTime); err != nil {
		return nil, domain.ValidationReport{}, err
	}
	p, err := s.repo.GetPlan(ctx, planID)
	if err != nil {
		return nil, domain.ValidationReport{}, err
	}
	report, err := s.Validate(ctx, *p)
	if err != nil {
		return nil, domain.ValidationReport{}, err
	}
	return p, report, nil
}

// Segments returns a client's segments with allocator shares assigned
// when the segment count is covered by a share table.
func (s *Service) Segments(ctx context.Context, clientID string) ([]domain.Segment, error) {
	segments, err := s.repo.ListSegments(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if assigned, err := s.allocator.AssignShares(segments); err == nil {
		return assigned, nil
	}
	return segments, nil
}

// SaveSegment upserts a client segment. Reserved names (full list,
// unengaged) are virtual audiences and cannot be defined as segments.
func (s *Service) SaveSegment(ctx context.Context, seg *domain.Segment) error {
	if seg.ClientID == "" || seg.Name == "" {
		return fmt.Errorf("client_id and name are required")
	}
	if domain.IsFullList(seg.Name) || domain.IsUnengaged(seg.Name) {
		return ErrReservedSegment
	}
	return s.repo.SaveSegment(ctx, seg)
}

// DeleteSegment removes a client segment.
func (s *Service) DeleteSegment(ctx context.Context, clientID, name string) error {
	return s.repo.DeleteSegment(ctx, clientID, name)
}

func draftKey(clientID string, year int, month time.Month) string {
	return fmt.Sprintf("draft:%s:%s", clientID, planner.MonthKey(year, month))
}
