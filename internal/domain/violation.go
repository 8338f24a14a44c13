package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// ViolationKind identifies one rule in the closed rule set.
type ViolationKind string

const (
	KindWeeklyCapExceeded          ViolationKind = "weekly_cap_exceeded"
	KindUnengagedAllowanceExceeded ViolationKind = "unengaged_allowance_exceeded"
	KindPromoOverlap               ViolationKind = "promo_overlap"
	KindOrphanResend               ViolationKind = "orphan_resend"
	KindMissingFullListSend        ViolationKind = "missing_full_list_send"
	KindDeliverabilityWarning      ViolationKind = "deliverability_warning"
	KindUnknownSegment             ViolationKind = "unknown_segment"
)

// Violation is one rule failure found during plan validation. Violations
// are data, not errors: evaluation never aborts early, and every finding
// is collected into the report. Blocking violations make a plan invalid;
// advisory ones only annotate it.
type Violation interface {
	Kind() ViolationKind
	Blocking() bool
	Detail() string
}

// WeeklyCapExceeded: more than two non-resend email sends to one segment
// in a single ISO calendar week.
type WeeklyCapExceeded struct {
	Week    string `json:"week"` // ISO week key, e.g. "2025-W12"
	Segment string `json:"segment"`
	Count   int    `json:"count"`
}

func (v WeeklyCapExceeded) Kind() ViolationKind { return KindWeeklyCapExceeded }
func (v WeeklyCapExceeded) Blocking() bool      { return true }
func (v WeeklyCapExceeded) Detail() string {
	return fmt.Sprintf("%d sends to %q in week %s (cap 2)", v.Count, v.Segment, v.Week)
}

// UnengagedAllowanceExceeded: the unengaged segment used more than its
// monthly pool of two sends beyond the weekly cap.
type UnengagedAllowanceExceeded struct {
	Month string `json:"month"` // "2006-01"
	Count int    `json:"count"` // total over-cap sends drawn against the pool
}

func (v UnengagedAllowanceExceeded) Kind() ViolationKind { return KindUnengagedAllowanceExceeded }
func (v UnengagedAllowanceExceeded) Blocking() bool      { return true }
func (v UnengagedAllowanceExceeded) Detail() string {
	return fmt.Sprintf("%d over-cap unengaged sends in %s (monthly allowance 2)", v.Count, v.Month)
}

// PromoOverlap: more than one promotional campaign inside a rolling
// 7-day window.
type PromoOverlap struct {
	WindowStart Date `json:"window_start"`
	Count       int  `json:"count"`
}

func (v PromoOverlap) Kind() ViolationKind { return KindPromoOverlap }
func (v PromoOverlap) Blocking() bool      { return true }
func (v PromoOverlap) Detail() string {
	return fmt.Sprintf("%d promotional sends in the 7 days starting %s (max 1)", v.Count, v.WindowStart)
}

// OrphanResend: a resend campaign with no source campaign dated exactly
// one day earlier in the same plan.
type OrphanResend struct {
	CampaignID string `json:"campaign_id"`
	SendDate   Date   `json:"send_date"`
}

func (v OrphanResend) Kind() ViolationKind { return KindOrphanResend }
func (v OrphanResend) Blocking() bool      { return true }
func (v OrphanResend) Detail() string {
	return fmt.Sprintf("resend %s on %s has no source dated %s", v.CampaignID, v.SendDate, v.SendDate.AddDays(-1))
}

// MissingFullListSend: no campaign in the month targets the reserved
// full-list audience.
type MissingFullListSend struct{}

func (v MissingFullListSend) Kind() ViolationKind { return KindMissingFullListSend }
func (v MissingFullListSend) Blocking() bool      { return true }
func (v MissingFullListSend) Detail() string {
	return "no campaign targets the full list this month"
}

// DeliverabilityWarning: the unengaged segment's share of monthly sends
// exceeds 15%. Advisory only.
type DeliverabilityWarning struct {
	Pct float64 `json:"pct"`
}

func (v DeliverabilityWarning) Kind() ViolationKind { return KindDeliverabilityWarning }
func (v DeliverabilityWarning) Blocking() bool      { return false }
func (v DeliverabilityWarning) Detail() string {
	return fmt.Sprintf("unengaged sends are %.0f%% of monthly volume (threshold 15%%)", v.Pct)
}

// UnknownSegment: a campaign references a segment that does not resolve
// in the client's segment table.
type UnknownSegment struct {
	Name string `json:"name"`
}

func (v UnknownSegment) Kind() ViolationKind { return KindUnknownSegment }
func (v UnknownSegment) Blocking() bool      { return true }
func (v UnknownSegment) Detail() string {
	return fmt.Sprintf("segment %q is not defined for this client", v.Name)
}

// ValidationReport is the complete outcome of validating a plan. It
// always covers every rule, even when early rules found blocking
// violations. Valid is false iff Violations is non-empty.
type ValidationReport struct {
	Valid      bool        `json:"valid"`
	Violations []Violation `json:"violations"`
	Warnings   []Violation `json:"warnings"`
	CheckedAt  time.Time   `json:"checked_at"`
}

// MarshalJSON flattens each violation into a {"kind": ..., "detail": ...}
// envelope alongside its own fields, so clients can switch on kind
// without knowing the Go types.
func (r ValidationReport) MarshalJSON() ([]byte, error) {
	encode := func(vs []Violation) ([]json.RawMessage, error) {
		out := make([]json.RawMessage, 0, len(vs))
		for _, v := range vs {
			raw, err := json.Marshal(v)
			if err != nil {
				return nil, err
			}
			var m map[string]any
			if err := json.Unmarshal(raw, &m); err != nil {
				return nil, err
			}
			if m == nil {
				m = map[string]any{}
			}
			m["kind"] = string(v.Kind())
			m["detail"] = v.Detail()
			enc, err := json.Marshal(m)
			if err != nil {
				return nil, err
			}
			out = append(out, enc)
		}
		return out, nil
	}

	violations, err := encode(r.Violations)
	if err != nil {
		return nil, err
	}
	warnings, err := encode(r.Warnings)
	if err != nil {
		return nil, err
	}

	return json.Marshal(struct {
		Valid      bool              `json:"valid"`
		Violations []json.RawMessage `json:"violations"`
		Warnings   []json.RawMessage `json:"warnings"`
		CheckedAt  time.Time         `json:"checked_at"`
	}{r.Valid, violations, warnings, r.CheckedAt})
}
