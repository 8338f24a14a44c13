package planner

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emailpilot/emailpilot/internal/domain"
)

func segs(names ...string) []domain.Segment {
	out := make([]domain.Segment, len(names))
	for i, n := range names {
		out[i] = domain.Segment{ClientID: "c1", Name: n, Position: i}
	}
	return out
}

func TestAllocateTwoSegments(t *testing.T) {
	a, err := NewAllocator(nil)
	require.NoError(t, err)

	targets, err := a.Allocate(10000, segs("SegA", "SegB"))
	require.NoError(t, err)
	require.Len(t, targets, 2)
	assert.Equal(t, 7000.00, targets[0].TargetRevenue)
	assert.Equal(t, 3000.00, targets[1].TargetRevenue)
	assert.Equal(t, "SegA", targets[0].Segment)
}

func TestAllocateThreeSegments(t *testing.T) {
	a, _ := NewAllocator(nil)

	targets, err := a.Allocate(10000, segs("SegA", "SegB", "SegC"))
	require.NoError(t, err)
	assert.Equal(t, 7000.00, targets[0].TargetRevenue)
	assert.Equal(t, 1500.00, targets[1].TargetRevenue)
	assert.Equal(t, 1500.00, targets[2].TargetRevenue)
}

func TestAllocateSumInvariant(t *testing.T) {
	a, _ := NewAllocator(nil)

	// Goals chosen to force rounding remainders at every segment count.
	goals := []float64{10000, 99.99, 1234.57, 0.01, 333.33}
	for count := 1; count <= 3; count++ {
		names := []string{"Primary", "Secondary", "Tertiary"}[:count]
		for _, goal := range goals {
			targets, err := a.Allocate(goal, segs(names...))
			require.NoError(t, err)

			var sumCents int64
			for _, tgt := range targets {
				sumCents += int64(tgt.TargetRevenue*100 + 0.5)
			}
			assert.Equal(t, int64(goal*100+0.5), sumCents,
				"goal %v with %d segments", goal, count)
		}
	}
}

func TestAllocatePrimaryReceivesLargestShare(t *testing.T) {
	a, _ := NewAllocator(nil)
	for count := 1; count <= 3; count++ {
		targets, err := a.Allocate(5000, segs([]string{"A", "B", "C"}[:count]...))
		require.NoError(t, err)
		for _, tgt := range targets[1:] {
			assert.GreaterOrEqual(t, targets[0].TargetRevenue, tgt.TargetRevenue)
		}
	}
}

func TestAllocateInvalidSegmentCount(t *testing.T) {
	a, _ := NewAllocator(nil)

	_, err := a.Allocate(1000, nil)
	assert.True(t, errors.Is(err, ErrInvalidSegmentCount))

	_, err = a.Allocate(1000, segs("A", "B", "C", "D"))
	assert.True(t, errors.Is(err, ErrInvalidSegmentCount))
}

func TestAllocateConfiguredShareTable(t *testing.T) {
	a, err := NewAllocator(map[int][]float64{4: {0.55, 0.15, 0.15, 0.15}})
	require.NoError(t, err)

	targets, err := a.Allocate(10000, segs("A", "B", "C", "D"))
	require.NoError(t, err)
	assert.Equal(t, 5500.00, targets[0].TargetRevenue)
	assert.Equal(t, 1500.00, targets[3].TargetRevenue)
}

func TestNewAllocatorRejectsBadTables(t *testing.T) {
	_, err := NewAllocator(map[int][]float64{2: {0.5, 0.4}})
	assert.Error(t, err, "shares must sum to 1.0")

	_, err = NewAllocator(map[int][]float64{3: {0.5, 0.5}})
	assert.Error(t, err, "table length must match count")
}

func TestAssignShares(t *testing.T) {
	a, _ := NewAllocator(nil)
	out, err := a.AssignShares(segs("VIP Purchasers", "Casual Buyers"))
	require.NoError(t, err)
	assert.Equal(t, 0.70, out[0].RevenueShareTarget)
	assert.Equal(t, 0.30, out[1].RevenueShareTarget)
}
