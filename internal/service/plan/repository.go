package plan

import (
	"context"
	"time"

	"github.com/emailpilot/emailpilot/internal/domain"
)

// Repository defines the data access contract for plans and segments.
// Implementations must be safe for concurrent use.
type Repository interface {
	// GetPlan returns a plan with its campaigns. Returns ErrNotFound if
	// it doesn't exist.
	GetPlan(ctx context.Context, id string) (*domain.CalendarPlan, error)

	// ListPlans returns all plans for a client, newest month first.
	ListPlans(ctx context.Context, clientID string) ([]domain.CalendarPlan, error)

	// SavePlan upserts a plan and replaces its campaign rows. The
	// (client_id, year, month) pair is unique; saving a second plan for
	// the same month overwrites the first.
	SavePlan(ctx context.Context, p *domain.CalendarPlan) error

	// DeletePlan removes a plan and its campaigns.
	DeletePlan(ctx context.Context, id string) error

	// RescheduleCampaign updates one campaign's send date and time.
	// Returns ErrCampaignNotFound if the campaign isn't on the plan.
	RescheduleCampaign(ctx context.Context, planID, campaignID string, date domain.Date, sendTime string) error

	// ListSegments returns a client's segments in position order.
	ListSegments(ctx context.Context, clientID string) ([]domain.Segment, error)

	// SaveSegment upserts a segment keyed by (client_id, name).
	SaveSegment(ctx context.Context, s *domain.Segment) error

	// DeleteSegment removes a segment. Returns ErrNotFound when absent.
	DeleteSegment(ctx context.Context, clientID, name string) error
}

// DraftInput holds the fields for generating a draft plan.
type DraftInput struct {
	ClientID        string     `json:"client_id"`
	Year            int        `json:"year"`
	Month           time.Month `json:"month"`
	RevenueGoal     float64    `json:"revenue_goal"`
	GrowthObjective string     `json:"growth_objective,omitempty"`
	HistoricalNotes string     `json:"historical_notes,omitempty"`
}
