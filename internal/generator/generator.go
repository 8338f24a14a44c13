// Package generator produces draft calendar plans through an LLM behind
// the Generator interface. Generation is non-deterministic and external;
// every draft must pass through planner.Validate before it reaches a
// user. The Retrier wires those two together with a bounded re-prompt
// loop that feeds validator findings back into the prompt.
package generator

import (
	"context"
	"errors"
	"time"

	"github.com/emailpilot/emailpilot/internal/domain"
	"github.com/emailpilot/emailpilot/internal/planner"
)

// Sentinel errors for generation failures.
var (
	ErrGenerationTimeout = errors.New("plan generation timed out")
	ErrGenerationFailed  = errors.New("plan generation failed")
)

// Context carries everything a generator needs to draft one client-month.
// It is assembled by the caller; generators never reach into storage.
type Context struct {
	ClientID        string
	Year            int
	Month           time.Month
	RevenueGoal     float64
	GrowthObjective string
	Segments        []domain.Segment
	Targets         []domain.SegmentTarget
	Holidays        []planner.Holiday
	HistoricalNotes string

	// Feedback holds violation details from a failed validation pass,
	// set by the Retrier between attempts.
	Feedback []string
}

// Generator drafts a calendar plan. Implementations should honor ctx
// cancellation and map deadline expiry to ErrGenerationTimeout.
type Generator interface {
	Generate(ctx context.Context, gc Context) (*domain.CalendarPlan, error)
}

// Retrier runs generate→validate cycles until the plan passes or the
// attempt budget is spent. It always returns the last plan and report it
// saw, so callers can surface violations for manual editing.
type Retrier struct {
	gen         Generator
	maxAttempts int
}

// NewRetrier wraps a generator with a bounded retry loop. attempts
// below 1 defaults to 3.
func NewRetrier(gen Generator, attempts int) *Retrier {
	if attempts < 1 {
		attempts = 3
	}
	return &Retrier{gen: gen, maxAttempts: attempts}
}

// Generate drafts a plan and revalidates after each attempt. Blocking
// violations trigger a re-prompt with the violation details appended as
// feedback. The final attempt's plan and report are returned even when
// still invalid; only generator errors return a nil plan.
func (r *Retrier) Generate(ctx context.Context, gc Context) (*domain.CalendarPlan, domain.ValidationReport, error) {
	var (
		plan   *domain.CalendarPlan
		report domain.ValidationReport
	)
	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		p, err := r.gen.Generate(ctx, gc)
		if err != nil {
			return nil, domain.ValidationReport{}, err
		}
		plan = p
		report = planner.Validate(*plan, gc.Segments)
		if report.Valid {
			return plan, report, nil
		}

		gc.Feedback = gc.Feedback[:0]
		for _, v := range report.Violations {
			gc.Feedback = append(gc.Feedback, string(v.Kind())+": "+v.Detail())
		}
	}
	return plan, report, nil
}
