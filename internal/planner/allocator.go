package planner

import (
	"errors"
	"fmt"
	"math"

	"github.com/emailpilot/emailpilot/internal/domain"
)

// ErrInvalidSegmentCount is returned when no share table covers the
// number of segments passed to Allocate.
var ErrInvalidSegmentCount = errors.New("no revenue share table for segment count")

// defaultShareTables are the fixed allocation tables. The first segment
// in input order is primary and always receives the largest share.
// Tables for counts above three are a configuration concern; the
// defaults deliberately stop at three.
var defaultShareTables = map[int][]float64{
	1: {1.0},
	2: {0.70, 0.30},
	3: {0.70, 0.15, 0.15},
}

// Allocator distributes a monthly revenue goal across segments using
// fixed share tables indexed by segment count.
type Allocator struct {
	tables map[int][]float64
}

// NewAllocator creates an allocator. Entries in overrides extend or
// replace the default share tables; a nil map keeps the defaults.
func NewAllocator(overrides map[int][]float64) (*Allocator, error) {
	tables := make(map[int][]float64, len(defaultShareTables)+len(overrides))
	for n, shares := range defaultShareTables {
		tables[n] = shares
	}
	for n, shares := range overrides {
		if n != len(shares) {
			return nil, fmt.Errorf("share table for %d segments has %d entries", n, len(shares))
		}
		sum := 0.0
		for _, s := range shares {
			sum += s
		}
		if math.Abs(sum-1.0) > 1e-9 {
			return nil, fmt.Errorf("share table for %d segments sums to %v, want 1.0", n, sum)
		}
		tables[n] = shares
	}
	return &Allocator{tables: tables}, nil
}

// Allocate computes per-segment revenue targets for the given goal.
// Targets are rounded to cents; any rounding remainder is added to the
// primary (first) segment so the totals sum exactly to the goal.
func (a *Allocator) Allocate(revenueGoal float64, segments []domain.Segment) ([]domain.SegmentTarget, error) {
	shares, ok := a.tables[len(segments)]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSegmentCount, len(segments))
	}

	goalCents := int64(math.Round(revenueGoal * 100))
	targets := make([]domain.SegmentTarget, len(segments))
	var allocated int64
	for i, seg := range segments {
		cents := int64(math.Round(float64(goalCents) * shares[i]))
		allocated += cents
		targets[i] = domain.SegmentTarget{
			Segment:       seg.Name,
			Share:         shares[i],
			TargetRevenue: float64(cents) / 100,
		}
	}

	// Rounding remainder goes to the primary segment.
	if remainder := goalCents - allocated; remainder != 0 {
		primaryCents := int64(math.Round(targets[0].TargetRevenue*100)) + remainder
		targets[0].TargetRevenue = float64(primaryCents) / 100
	}
	return targets, nil
}

// AssignShares copies allocator shares onto the segments themselves,
// returning a new slice with RevenueShareTarget populated.
func (a *Allocator) AssignShares(segments []domain.Segment) ([]domain.Segment, error) {
	shares, ok := a.tables[len(segments)]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSegmentCount, len(segments))
	}
	out := make([]domain.Segment, len(segments))
	for i, seg := range segments {
		seg.RevenueShareTarget = shares[i]
		out[i] = seg
	}
	return out, nil
}
