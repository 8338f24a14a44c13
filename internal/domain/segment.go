package domain

import "strings"

// Reserved segment names recognized by the rule set. Matching is
// case-insensitive and tolerant of underscore/space variants.
const (
	SegmentFullList  = "full list"
	SegmentUnengaged = "unengaged"
)

// Segment is a named audience slice. Definition is free-text targeting
// copy owned by client config and is immutable once a plan references it.
// RevenueShareTarget is assigned by the allocator, not stored.
type Segment struct {
	ClientID           string  `json:"client_id" db:"client_id"`
	Name               string  `json:"name" db:"name"`
	Definition         string  `json:"definition" db:"definition"`
	Position           int     `json:"position" db:"position"`
	RevenueShareTarget float64 `json:"revenue_share_target,omitempty"`
}

// SegmentTarget pairs a segment with its allocated revenue target.
type SegmentTarget struct {
	Segment       string  `json:"segment"`
	Share         float64 `json:"share"`
	TargetRevenue float64 `json:"target_revenue"`
}

// NormalizeSegmentName canonicalizes a segment name for comparison:
// lowercased, trimmed, underscores collapsed to spaces.
func NormalizeSegmentName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	name = strings.ReplaceAll(name, "_", " ")
	return strings.Join(strings.Fields(name), " ")
}

// IsFullList reports whether name refers to the reserved unsegmented
// full-list audience.
func IsFullList(name string) bool {
	return NormalizeSegmentName(name) == SegmentFullList
}

// IsUnengaged reports whether name refers to the reserved low-engagement
// sub-segment.
func IsUnengaged(name string) bool {
	return NormalizeSegmentName(name) == SegmentUnengaged
}
